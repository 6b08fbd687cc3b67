package models

import "time"

// BrowserKind identifies a Chromium-family browser the daemon can drive.
type BrowserKind string

const (
	BrowserChrome BrowserKind = "chrome"
	BrowserEdge   BrowserKind = "edge"
	BrowserBrave  BrowserKind = "brave"
)

// Valid reports whether the kind is one of the supported browsers.
func (b BrowserKind) Valid() bool {
	switch b {
	case BrowserChrome, BrowserEdge, BrowserBrave:
		return true
	}
	return false
}

// Mode selects how much human-like timing the dispatcher injects.
type Mode string

const (
	ModeFast    Mode = "fast"
	ModeHuman   Mode = "human"
	ModeStealth Mode = "stealth"
)

// Humanized reports whether the mode enables the human timing engine.
func (m Mode) Humanized() bool {
	return m == ModeHuman || m == ModeStealth
}

// Workspace is the on-disk descriptor for one isolated browser identity.
// It lives at <base>/<browser>-<name>/workspace.json.
type Workspace struct {
	DisplayName string      `json:"displayName"`
	Browser     BrowserKind `json:"browser"`
	Name        string      `json:"name"`
	CDPPort     int         `json:"cdpPort"`
	DaemonPort  int         `json:"daemonPort"`
	Purpose     string      `json:"purpose,omitempty"`
	Aliases     []string    `json:"aliases,omitempty"`
	Favorites   []string    `json:"favorites,omitempty"`
	DefaultMode Mode        `json:"defaultMode,omitempty"`
	Indicator   bool        `json:"indicator"`
}

// ActiveSession records which browser the daemon is currently bound to.
// At most one exists per daemon process.
type ActiveSession struct {
	Browser   BrowserKind `json:"browser"`
	Workspace string      `json:"workspace,omitempty"`
	CDPPort   int         `json:"cdpPort"`
	Incognito bool        `json:"incognito"`
}

// Lockfile advertises the running daemon to the client CLI.
type Lockfile struct {
	Port      int       `json:"port"`
	Browser   string    `json:"browser"`
	Workspace string    `json:"workspace,omitempty"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"startedAt"`
}

// TabSession is a named group of browser tabs with a TTL.
type TabSession struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	CreatedAt    time.Time         `json:"createdAt"`
	LastActivity time.Time         `json:"lastActivity"`
	TTLMs        int64             `json:"ttlMs"`
	TabIDs       []string          `json:"tabIds"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// TabInfo describes one live browser tab.
type TabInfo struct {
	TargetID string `json:"targetId"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Attached bool   `json:"attached,omitempty"`
}

// ConsoleMessage is one captured console API call.
type ConsoleMessage struct {
	Type string    `json:"type"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// PageError is one captured uncaught page exception.
type PageError struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// NetworkRequest correlates a request with its response or failure.
type NetworkRequest struct {
	RequestID string    `json:"requestId"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	Status    int64     `json:"status,omitempty"`
	Failure   string    `json:"failure,omitempty"`
	At        time.Time `json:"at"`
}
