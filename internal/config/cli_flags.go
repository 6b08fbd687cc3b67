package config

import "github.com/spf13/cobra"

// RegisterFlags registers the serve command's flags. The verbose and json
// flags live on the root command and are inherited.
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.Flags().Int("port", DefaultHTTPPort, "Daemon HTTP port (loopback only)")
	cmd.Flags().Int("cdp-port", DefaultCDPPort, "Chrome DevTools Protocol port")
	cmd.Flags().String("browser", "chrome", "Browser kind: chrome, edge, or brave")
	cmd.Flags().Bool("headless", false, "Launch the browser headless")
	cmd.Flags().String("mode", DefaultMode, "Interaction mode: fast, human, or stealth")
}
