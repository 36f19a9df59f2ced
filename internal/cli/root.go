// Package cli wires the mild commands: live transcription, device listing,
// and the session catalog.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/jcllobet/mother-in-law-decoder/internal/config"
)

var (
	configPath string
	outputDir  string
)

var rootCmd = &cobra.Command{
	Use:   "mild",
	Short: "Live multilingual transcription for family conversations",
	Long: `mild captures microphone audio, streams it to a realtime speech
recognition service, and shows a live translated transcript in the
terminal. Every session is saved under the output directory and can be
resumed by name.

The service API key is read from the ` + config.EnvAPIKey + ` environment
variable, or from a .env file in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and returns the command error, if any.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "session output directory")
}

// loadConfig builds the effective configuration from defaults, the optional
// YAML file, the environment, and global flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg.LoadEnv()
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	return cfg, nil
}
