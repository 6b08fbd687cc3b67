// internal/cli/root.go
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thefrederiksen/cc-browser/internal/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ccbrowser",
	Short: "A local daemon that drives Chromium-family browsers over CDP",
	Long: `cc-browser keeps a real Chrome, Edge, or Brave instance warm behind a
loopback HTTP API. Clients navigate, snapshot the accessibility tree, click
and type by ref, record interactions, and replay them later.`,
	Version: "0.1.0",
}

// Execute runs the CLI. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("json", false, "Log in JSON format")

	rootCmd.Flags().BoolP("help", "h", false, "Help for ccbrowser")
	rootCmd.Flags().Bool("version", false, "Version for ccbrowser")
}
