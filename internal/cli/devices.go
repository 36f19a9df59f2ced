package cli

import (
	"github.com/spf13/cobra"

	"github.com/jcllobet/mother-in-law-decoder/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio capture devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printDevices(cmd)
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func printDevices(cmd *cobra.Command) error {
	devices, err := audio.Devices()
	if err != nil {
		return err
	}
	renderDevices(cmd, devices)
	return nil
}

func renderDevices(cmd *cobra.Command, devices []audio.Device) {
	if len(devices) == 0 {
		cmd.Println("No capture devices found.")
		return
	}
	for _, d := range devices {
		marker := " "
		if d.Default {
			marker = "*"
		}
		cmd.Printf("%s %2d  %s\n", marker, d.Index, d.Name)
	}
}
