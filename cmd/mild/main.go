// Command mild is the mother-in-law decoder: live multilingual
// transcription and translation for the terminal.
//
// Usage:
//
//	mild run --session <name> [flags]
//	mild devices
//	mild sessions
//
// Configuration:
//
//	The service API key is read from SONIOX_API_KEY (or a .env file).
//	Everything else has sensible defaults and can be overridden with a
//	YAML config file passed via --config.
package main

import (
	"fmt"
	"os"

	"github.com/jcllobet/mother-in-law-decoder/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
