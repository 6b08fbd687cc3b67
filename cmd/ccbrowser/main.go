// cmd/ccbrowser/main.go
package main

import (
	"github.com/thefrederiksen/cc-browser/internal/cli"
)

func main() {
	// Signal handling lives in app.Run so the lockfile and session files are
	// cleaned up on SIGINT/SIGTERM.
	cli.Execute()
}
