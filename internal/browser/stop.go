package browser

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/internal/config"
)

// Stop shuts down the browser on the port, best effort. The escalation is:
// DevTools close endpoint, SIGTERM by recorded pid, and on Windows a
// port-based kill via netstat. Success means the CDP probe stops answering.
// The incognito temp dir is removed only after a confirmed stop.
func Stop(ctx context.Context, port, pid int, tempDir string) error {
	closeViaEndpoint(ctx, port)

	if !stopped(ctx, port) && pid > 0 {
		if err := terminatePID(pid); err != nil {
			log.Debug().Err(err).Int("pid", pid).Msg("SIGTERM failed")
		}
	}

	if !stopped(ctx, port) && runtime.GOOS == "windows" {
		if err := killByPort(port); err != nil {
			log.Debug().Err(err).Int("port", port).Msg("Port-based kill failed")
		}
	}

	time.Sleep(500 * time.Millisecond)
	if err := ProbeVersion(ctx, port, config.DefaultLaunchProbeTimeout); err == nil {
		return fmt.Errorf("browser on port %d still answering after stop attempts", port)
	}

	if tempDir != "" {
		if err := os.RemoveAll(tempDir); err != nil {
			log.Warn().Err(err).Str("dir", tempDir).Msg("Failed to remove incognito profile")
		} else {
			log.Debug().Str("dir", tempDir).Msg("Incognito profile removed")
		}
	}

	log.Info().Int("port", port).Msg("Browser stopped")
	return nil
}

func closeViaEndpoint(ctx context.Context, port int) {
	url := fmt.Sprintf("http://127.0.0.1:%d/json/close", port)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

func stopped(ctx context.Context, port int) bool {
	return ProbeVersion(ctx, port, config.DefaultLaunchProbeTimeout) != nil
}
