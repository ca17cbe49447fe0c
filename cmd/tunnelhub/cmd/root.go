package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "tunnelhub",
	Short: "TunnelHub is a secure tunnel dashboard",
	Long: `A password-protected dashboard that aggregates ngrok tunnels across
accounts behind an encrypted login and a rate-limited API.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
