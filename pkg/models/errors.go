package models

import "errors"

// Semantic error kinds surfaced by the daemon. Handlers map these onto HTTP
// status codes; the dispatcher wraps lower-level chromedp/cdproto errors into
// one of them before anything reaches a client.
var (
	ErrConfigNotFound     = errors.New("workspace not found")
	ErrLaunchFailed       = errors.New("browser launch failed")
	ErrPortInUse          = errors.New("debugging port already in use by another browser")
	ErrNoActiveSession    = errors.New("no active session; call /start first")
	ErrSessionMismatch    = errors.New("request does not match the active session")
	ErrTabNotFound        = errors.New("tab not found")
	ErrUnknownRef         = errors.New("unknown ref; take a new snapshot and retry")
	ErrTimeout            = errors.New("element not found or not visible within the timeout")
	ErrMultipleMatches    = errors.New("locator matched multiple elements; take a new snapshot and use a ref")
	ErrDetachedElement    = errors.New("element detached from the page; take a new snapshot")
	ErrVisionBackend      = errors.New("vision backend request failed")
	ErrUnsupportedCaptcha = errors.New("no solver for detected captcha type")
	ErrSessionNotFound    = errors.New("session not found")
	ErrRecordingActive    = errors.New("a recording is already active")
	ErrNoRecording        = errors.New("no active recording")
)

// NotFound reports whether the error should map to a 404.
func NotFound(err error) bool {
	return errors.Is(err, ErrTabNotFound) ||
		errors.Is(err, ErrConfigNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}

// BadRequest reports whether the error should map to a 400.
func BadRequest(err error) bool {
	return errors.Is(err, ErrNoActiveSession) ||
		errors.Is(err, ErrSessionMismatch) ||
		errors.Is(err, ErrUnknownRef) ||
		errors.Is(err, ErrRecordingActive) ||
		errors.Is(err, ErrNoRecording)
}
