// internal/cli/serve.go
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thefrederiksen/cc-browser/internal/app"
	"github.com/thefrederiksen/cc-browser/internal/config"
	"github.com/thefrederiksen/cc-browser/internal/ui"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the automation daemon",
	Long: `Starts the loopback HTTP API and waits for verbs. The browser itself is
launched on demand by the /start verb, not at daemon startup.`,
	Example: `  # Serve on the default port
  ccbrowser serve

  # Serve on a custom port with debug logging
  ccbrowser serve --port 8900 -v

  # Default every session to human-like interaction timing
  ccbrowser serve --mode human`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	config.RegisterFlags(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("%s listening on %s\n",
		ui.Bold("cc-browser"),
		ui.Success(fmt.Sprintf("http://127.0.0.1:%d", cfg.HTTPPort)))
	fmt.Println(ui.Info("press Ctrl+C to stop"))

	return application.Run(context.Background())
}
