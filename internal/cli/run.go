package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jcllobet/mother-in-law-decoder/internal/app"
	"github.com/jcllobet/mother-in-law-decoder/internal/audio"
	"github.com/jcllobet/mother-in-law-decoder/internal/catalog"
	"github.com/jcllobet/mother-in-law-decoder/internal/config"
	"github.com/jcllobet/mother-in-law-decoder/internal/session"
	"github.com/jcllobet/mother-in-law-decoder/internal/transcriber"
)

var (
	runSession     string
	runContext     string
	runDevice      int
	runSourceLangs []string
	runTargetLang  string
	runListDevices bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Record and transcribe live audio",
	Long: `Record from the microphone and stream a live translated transcript.

The session name picks the output directory; running the same name again
appends to the existing transcript and recording.

Examples:
  mild run --session xmas-dinner
  mild run --session xmas-dinner --source-langs en,uk --target-lang en
  mild run --session kitchen --device 2 --context "cooking vocabulary"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runListDevices {
			return printDevices(cmd)
		}
		if runSession == "" {
			return errors.New("--session is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Session = runSession
		cfg.DeviceIndex = runDevice
		cfg.SourceLanguages = runSourceLangs
		cfg.TargetLanguage = runTargetLang
		if runContext != "" {
			cfg.Context = runContext
		}
		if cfg.APIKey == "" {
			return fmt.Errorf("%s is not set", config.EnvAPIKey)
		}
		return runLive(cfg)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runSession, "session", "s", "", "session name (required)")
	runCmd.Flags().StringVar(&runContext, "context", "", "free-text context hint for recognition")
	runCmd.Flags().IntVarP(&runDevice, "device", "d", -1, "capture device index (-1 for default)")
	runCmd.Flags().StringSliceVar(&runSourceLangs, "source-langs", nil, "language hints, e.g. en,uk")
	runCmd.Flags().StringVarP(&runTargetLang, "target-lang", "t", "en", "translation target language")
	runCmd.Flags().BoolVar(&runListDevices, "list-devices", false, "list capture devices and exit")
	rootCmd.AddCommand(runCmd)
}

func runLive(cfg config.Config) error {
	sessionDir := filepath.Join(cfg.OutputDir, cfg.Session)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	log, logClose, err := openLogger(sessionDir, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logClose()

	store, err := session.OpenOrCreate(
		cfg.OutputDir, cfg.Session, cfg.SampleRate, cfg.Channels,
		session.LanguageConfig{SourceHints: cfg.SourceLanguages, Target: cfg.TargetLanguage},
		log,
	)
	if err != nil {
		return err
	}

	captureCfg := audio.CaptureConfig{
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		FrameBytes: cfg.FrameBytes(),
		QueueSize:  cfg.QueueSize,
	}
	capture, err := audio.Open(cfg.DeviceIndex, captureCfg)
	if err != nil {
		store.Close()
		return err
	}
	deviceName := capture.DeviceName()

	// The catalog is best effort; a broken index never blocks recording.
	var cat *catalog.Store
	var runID string
	if cat, err = catalog.Open(filepath.Join(cfg.OutputDir, "catalog.sqlite")); err != nil {
		log.Warn().Err(err).Msg("catalog unavailable")
		cat = nil
	} else {
		runID, err = cat.StartRun(cfg.Session, deviceName, cfg.TargetLanguage, time.Now())
		if err != nil {
			log.Warn().Err(err).Msg("catalog start run")
		}
	}

	engine := transcriber.New(cfg, store, capture, transcriber.Options{
		ReopenSource: func() (transcriber.Source, error) {
			return audio.Open(cfg.DeviceIndex, captureCfg)
		},
	}, log)
	engine.Start()

	model := app.New(engine, cfg.Session, deviceName, cfg.TargetLanguage)
	_, uiErr := tea.NewProgram(model, tea.WithAltScreen()).Run()

	// The UI quits after the engine drains; Stop is a no-op then, but it
	// also covers UI crashes.
	engine.Stop()
	runErr := engine.Wait()

	closeErr := store.Close()
	if cat != nil {
		if runID != "" {
			if err := cat.FinishRun(runID, time.Now(), store.EventCount(), int64(store.AudioDuration()*1000)); err != nil {
				log.Warn().Err(err).Msg("catalog finish run")
			}
		}
		cat.Close()
	}

	switch {
	case runErr != nil:
		log.Error().Err(runErr).Msg("run failed")
		return runErr
	case uiErr != nil:
		return uiErr
	case closeErr != nil:
		return closeErr
	}
	log.Info().Int("events", store.EventCount()).Msg("run finished")
	fmt.Printf("Saved session %q to %s\n", cfg.Session, store.Dir())
	return nil
}

// openLogger writes structured logs into the session directory so the TUI
// never fights with log output for the terminal.
func openLogger(dir, level string) (zerolog.Logger, func(), error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	f, err := os.OpenFile(filepath.Join(dir, "mild.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	log := zerolog.New(f).Level(lvl).With().Timestamp().Logger()
	return log, func() { f.Close() }, nil
}
