// Package browser locates, launches, stops, and connects to Chromium-family
// browsers over the DevTools protocol.
package browser

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// FindExecutable locates the executable for a browser kind. An override path
// takes priority; otherwise standard per-OS locations are scanned, then PATH.
func FindExecutable(kind models.BrowserKind, override string) (string, error) {
	if override != "" {
		if isExecutable(override) {
			log.Debug().Str("path", override).Msg("Browser found via override path")
			return override, nil
		}
		return "", fmt.Errorf("%w: override path %q is not executable", models.ErrLaunchFailed, override)
	}

	for _, path := range candidatePaths(kind) {
		if isExecutable(path) {
			log.Debug().Str("path", path).Str("os", runtime.GOOS).Msg("Browser found at standard location")
			return path, nil
		}
	}

	for _, name := range pathNames(kind) {
		if path, err := exec.LookPath(name); err == nil {
			log.Debug().Str("path", path).Msg("Browser found in PATH")
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: no %s executable found on this host", models.ErrLaunchFailed, kind)
}

func candidatePaths(kind models.BrowserKind) []string {
	var candidates []string

	switch runtime.GOOS {
	case "darwin":
		apps := map[models.BrowserKind][]string{
			models.BrowserChrome: {
				"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
				"/Applications/Chromium.app/Contents/MacOS/Chromium",
			},
			models.BrowserEdge: {
				"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
			},
			models.BrowserBrave: {
				"/Applications/Brave Browser.app/Contents/MacOS/Brave Browser",
			},
		}
		candidates = apps[kind]
		if home := os.Getenv("HOME"); home != "" && kind == models.BrowserChrome {
			candidates = append(candidates,
				filepath.Join(home, "Applications/Google Chrome.app/Contents/MacOS/Google Chrome"),
			)
		}

	case "windows":
		rel := map[models.BrowserKind][]string{
			models.BrowserChrome: {
				`Google\Chrome\Application\chrome.exe`,
				`Chromium\Application\chrome.exe`,
			},
			models.BrowserEdge: {
				`Microsoft\Edge\Application\msedge.exe`,
			},
			models.BrowserBrave: {
				`BraveSoftware\Brave-Browser\Application\brave.exe`,
			},
		}
		for _, base := range []string{
			os.Getenv("ProgramFiles"),
			os.Getenv("ProgramFiles(x86)"),
			os.Getenv("LocalAppData"),
		} {
			if base == "" {
				continue
			}
			for _, r := range rel[kind] {
				candidates = append(candidates, filepath.Join(base, r))
			}
		}

	case "linux":
		paths := map[models.BrowserKind][]string{
			models.BrowserChrome: {
				"/usr/bin/google-chrome-stable",
				"/usr/bin/google-chrome",
				"/usr/bin/chromium-browser",
				"/usr/bin/chromium",
				"/snap/bin/chromium",
			},
			models.BrowserEdge: {
				"/usr/bin/microsoft-edge",
				"/usr/bin/microsoft-edge-stable",
			},
			models.BrowserBrave: {
				"/usr/bin/brave-browser",
				"/usr/bin/brave",
			},
		}
		candidates = paths[kind]
		if home := os.Getenv("HOME"); home != "" && kind == models.BrowserChrome {
			candidates = append(candidates,
				filepath.Join(home, ".local/share/flatpak/exports/bin/com.google.Chrome"),
				filepath.Join(home, ".local/share/flatpak/exports/bin/org.chromium.Chromium"),
			)
		}
	}

	return candidates
}

func pathNames(kind models.BrowserKind) []string {
	switch kind {
	case models.BrowserEdge:
		return []string{"msedge", "microsoft-edge"}
	case models.BrowserBrave:
		return []string{"brave", "brave-browser"}
	default:
		return []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser", "chrome"}
	}
}

// isExecutable checks if a file exists and is executable
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if runtime.GOOS == "windows" {
		return !info.IsDir()
	}
	return !info.IsDir() && info.Mode()&0111 != 0
}
