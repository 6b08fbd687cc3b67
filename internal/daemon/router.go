package daemon

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Router builds the full API surface. Every verb is a POST unless noted; the
// replay route gets a longer timeout than everything else.
func (d *Daemon) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(d.cfg.RequestTimeout))

		// Lifecycle. These work without an active session.
		r.Post("/start", d.handleStart)
		r.Post("/stop", d.handleStop)
		r.Get("/", d.handleStatus)
		r.Post("/", d.handleStatus)
		r.Get("/browsers", d.handleBrowsers)
		r.Post("/browsers", d.handleBrowsers)
		r.Get("/profiles", d.handleProfiles)
		r.Post("/profiles", d.handleProfiles)

		// Navigation and page state.
		r.Post("/navigate", d.handleNavigate)
		r.Post("/reload", d.handleReload)
		r.Post("/back", d.handleBack)
		r.Post("/forward", d.handleForward)
		r.Post("/snapshot", d.handleSnapshot)
		r.Post("/info", d.handleInfo)
		r.Post("/text", d.handleText)
		r.Post("/html", d.handleHTML)
		r.Get("/mode", d.handleModeGet)
		r.Post("/mode", d.handleModeSet)

		// Interaction verbs.
		r.Post("/click", d.handleClick)
		r.Post("/type", d.handleType)
		r.Post("/press", d.handlePress)
		r.Post("/hover", d.handleHover)
		r.Post("/drag", d.handleDrag)
		r.Post("/select", d.handleSelect)
		r.Post("/fill", d.handleFill)
		r.Post("/scroll", d.handleScroll)
		r.Post("/wait", d.handleWait)
		r.Post("/evaluate", d.handleEvaluate)
		r.Post("/screenshot", d.handleScreenshot)
		r.Post("/screenshot-labels", d.handleScreenshotLabels)
		r.Post("/upload", d.handleUpload)
		r.Post("/resize", d.handleResize)

		// Tabs.
		r.Get("/tabs", d.handleTabs)
		r.Post("/tabs", d.handleTabs)
		r.Post("/tabs/open", d.handleTabOpen)
		r.Post("/tabs/close", d.handleTabClose)
		r.Post("/tabs/focus", d.handleTabFocus)
		r.Post("/tabs/close-all", d.handleTabCloseAll)

		// CAPTCHA.
		r.Post("/captcha/detect", d.handleCaptchaDetect)
		r.Post("/captcha/solve", d.handleCaptchaSolve)

		// Tab sessions.
		r.Get("/sessions", d.handleSessionList)
		r.Post("/sessions", d.handleSessionList)
		r.Post("/sessions/create", d.handleSessionCreate)
		r.Post("/sessions/heartbeat", d.handleSessionHeartbeat)
		r.Post("/sessions/close", d.handleSessionClose)
		r.Post("/sessions/prune", d.handleSessionPrune)

		// Recorder.
		r.Post("/record/start", d.handleRecordStart)
		r.Post("/record/stop", d.handleRecordStop)
		r.Get("/record/status", d.handleRecordStatus)
		r.Post("/record/status", d.handleRecordStatus)
		r.Post("/record/beacon", d.handleRecordBeacon)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(d.cfg.ReplayTimeout))
		r.Post("/replay", d.handleReplay)
	})

	return r
}

// Serve runs the HTTP server on loopback until ctx is canceled.
func (d *Daemon) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("127.0.0.1:%d", d.cfg.HTTPPort)
	srv := &http.Server{
		Addr:    addr,
		Handler: d.Router(),
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	log.Info().Str("addr", addr).Msg("Daemon listening")

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// requestLogger emits one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("Request handled")
	})
}
