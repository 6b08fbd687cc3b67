package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/internal/config"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// LaunchOptions selects which browser to bring up and how.
type LaunchOptions struct {
	Browser       models.BrowserKind
	Workspace     string
	Port          int
	UserDataDir   string // persistent workspace dir; ignored for incognito
	ExecOverride  string
	Incognito     bool
	Headless      bool
	SystemProfile bool
	ProfileDir    string // --profile-directory value when SystemProfile is set
}

// LaunchResult reports what Launch did.
type LaunchResult struct {
	Started bool             `json:"started"`
	PID     int              `json:"pid,omitempty"`
	Tabs    []models.TabInfo `json:"tabs,omitempty"`
	TempDir string           `json:"-"` // incognito profile dir, removed on stop
}

// Launch ensures a browser with CDP open on 127.0.0.1:<port>. If an endpoint
// already answers there, the running browser is reused.
func Launch(ctx context.Context, opts LaunchOptions) (*LaunchResult, error) {
	// Reuse a browser that is already serving CDP on this port.
	if err := ProbeVersion(ctx, opts.Port, config.DefaultLaunchProbeTimeout); err == nil {
		tabs, err := ListTabs(ctx, opts.Port, config.DefaultLaunchProbeTimeout)
		if err != nil {
			log.Warn().Err(err).Msg("CDP reachable but tab list failed")
		}
		log.Info().Int("port", opts.Port).Msg("Reusing running browser")
		return &LaunchResult{Started: false, Tabs: tabs}, nil
	}

	execPath, err := FindExecutable(opts.Browser, opts.ExecOverride)
	if err != nil {
		return nil, err
	}

	result := &LaunchResult{Started: true}

	userDataDir := opts.UserDataDir
	switch {
	case opts.Incognito:
		tmp, err := os.MkdirTemp("", "cc-browser-incognito-*")
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create temp profile: %v", models.ErrLaunchFailed, err)
		}
		userDataDir = tmp
		result.TempDir = tmp
	case opts.SystemProfile:
		if mainProcessRunning(opts.Browser) {
			return nil, fmt.Errorf("%w: %s is already running with the system profile; close it first",
				models.ErrLaunchFailed, opts.Browser)
		}
	default:
		if err := os.MkdirAll(userDataDir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: failed to create user data dir: %v", models.ErrLaunchFailed, err)
		}
	}

	// The port was not answering CDP above. If something else holds it, a
	// second probe distinguishes a foreign browser from a plain conflict.
	if portBound(opts.Port) {
		if err := ProbeVersion(ctx, opts.Port, config.DefaultLaunchProbeTimeout); err == nil {
			return nil, fmt.Errorf("%w: port %d", models.ErrPortInUse, opts.Port)
		}
		return nil, fmt.Errorf("%w: port %d is bound by a non-CDP process; pick another cdp port",
			models.ErrPortInUse, opts.Port)
	}

	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", opts.Port),
		"--user-data-dir=" + userDataDir,
		"--no-first-run",
		"--no-default-browser-check",
		"--new-window",
	}
	if opts.SystemProfile && opts.ProfileDir != "" {
		args = append(args, "--profile-directory="+opts.ProfileDir)
	} else {
		args = append(args, "--disable-sync")
	}
	if opts.Incognito {
		args = append(args, "--incognito")
	}
	if opts.Headless {
		args = append(args, "--headless=new")
	}
	// Deliberately no --enable-automation: it flips navigator.webdriver and
	// is the primary bot signal. The workspace indicator bar covers the UX.
	args = append(args, "about:blank")

	cmd := exec.Command(execPath, args...)
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLaunchFailed, err)
	}
	result.PID = cmd.Process.Pid
	// Let init reap it; the daemon outlives its interest in the child.
	go func() { _ = cmd.Wait() }()

	log.Info().
		Str("browser", string(opts.Browser)).
		Str("workspace", opts.Workspace).
		Int("port", opts.Port).
		Int("pid", result.PID).
		Bool("headless", opts.Headless).
		Msg("Browser launched")

	if err := waitReady(ctx, opts.Port); err != nil {
		return nil, err
	}

	tabs, err := ListTabs(ctx, opts.Port, config.DefaultLaunchProbeTimeout)
	if err == nil {
		result.Tabs = tabs
	}
	return result, nil
}

// waitReady polls /json/version until the endpoint answers or the readiness
// window expires.
func waitReady(ctx context.Context, port int) error {
	deadline := time.Now().Add(config.DefaultLaunchReadyTimeout)
	for time.Now().Before(deadline) {
		if err := ProbeVersion(ctx, port, config.DefaultLaunchProbeTimeout); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(config.DefaultLaunchPollPeriod):
		}
	}
	return fmt.Errorf("%w: CDP endpoint on port %d not ready after %s",
		models.ErrLaunchFailed, port, config.DefaultLaunchReadyTimeout)
}

// mainProcessRunning reports whether the browser's primary process appears to
// be running, which would hold the system profile's singleton lock.
func mainProcessRunning(kind models.BrowserKind) bool {
	name := map[models.BrowserKind]string{
		models.BrowserChrome: "chrome",
		models.BrowserEdge:   "msedge",
		models.BrowserBrave:  "brave",
	}[kind]
	return processRunning(name)
}
