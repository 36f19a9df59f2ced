package cli

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcllobet/mother-in-law-decoder/internal/catalog"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cat, err := catalog.Open(filepath.Join(cfg.OutputDir, "catalog.sqlite"))
		if err != nil {
			return err
		}
		defer cat.Close()

		sums, err := cat.Sessions()
		if err != nil {
			return err
		}
		if len(sums) == 0 {
			cmd.Println("No sessions recorded yet.")
			return nil
		}
		cmd.Printf("%-24s %6s %10s %10s  %s\n", "SESSION", "RUNS", "SEGMENTS", "AUDIO", "LAST RUN")
		for _, s := range sums {
			cmd.Printf("%-24s %6d %10d %10s  %s\n",
				s.Name, s.Runs, s.EventCount,
				(time.Duration(s.AudioMs) * time.Millisecond).Round(time.Second),
				s.LastRun.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
