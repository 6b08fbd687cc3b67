package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// Reconnect policy: three attempts with growing per-attempt timeouts and
// short inter-attempt delays.
var (
	connectAttempts = 3
	connectTimeouts = []time.Duration{5 * time.Second, 7 * time.Second, 9 * time.Second}
	connectDelay    = 250 * time.Millisecond
)

// Conn is one live connection to a browser, shared by all pages.
type Conn struct {
	URL        string
	AllocCtx   context.Context
	BrowserCtx context.Context

	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

// Close tears the connection down. The browser itself keeps running.
func (c *Conn) Close() {
	if c.browserCancel != nil {
		c.browserCancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
}

// Cache holds at most one live connection. Concurrent Connect calls coalesce:
// the cache mutex is held across the dial, so late callers observe the
// connection the first one established.
type Cache struct {
	mu   sync.Mutex
	conn *Conn
}

// NewCache creates an empty connection cache.
func NewCache() *Cache {
	return &Cache{}
}

// Connect returns the cached connection for the CDP endpoint, dialing if
// needed. Reconnect is idempotent; a cached connection for a different URL is
// dropped first.
func (c *Cache) Connect(ctx context.Context, port int) (*Conn, error) {
	url := normalizeCDPURL(fmt.Sprintf("http://127.0.0.1:%d", port))

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		if c.conn.URL == url && c.conn.BrowserCtx.Err() == nil {
			return c.conn, nil
		}
		c.conn.Close()
		c.conn = nil
	}

	var conn *Conn
	attempt := 0
	err := retry.New(
		retry.Attempts(uint(connectAttempts)),
		retry.Delay(connectDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	).Do(func() error {
		timeout := connectTimeouts[attempt]
		if attempt < len(connectTimeouts)-1 {
			attempt++
		}
		dialed, err := dial(ctx, url, timeout)
		if err != nil {
			log.Debug().Err(err).Str("url", url).Msg("CDP connect attempt failed")
			return err
		}
		conn = dialed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to browser at %s: %w", url, err)
	}

	c.conn = conn

	// Clear the cache when the browser side drops the connection.
	go func(watched *Conn) {
		<-watched.BrowserCtx.Done()
		c.mu.Lock()
		if c.conn == watched {
			c.conn = nil
			log.Debug().Str("url", watched.URL).Msg("CDP connection dropped; cache cleared")
		}
		c.mu.Unlock()
	}(conn)

	log.Info().Str("url", url).Msg("Connected to browser")
	return conn, nil
}

// Current returns the cached connection without dialing, or nil.
func (c *Cache) Current() *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil && c.conn.BrowserCtx.Err() != nil {
		c.conn = nil
	}
	return c.conn
}

// Drop closes and forgets the cached connection.
func (c *Cache) Drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func dial(parent context.Context, url string, timeout time.Duration) (*Conn, error) {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), url)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Attach with a bounded handshake; a bare Run establishes the websocket.
	runCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()
	if err := chromedp.Run(runCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, err
	}
	if err := parent.Err(); err != nil {
		browserCancel()
		allocCancel()
		return nil, err
	}

	return &Conn{
		URL:           url,
		AllocCtx:      allocCtx,
		BrowserCtx:    browserCtx,
		allocCancel:   allocCancel,
		browserCancel: browserCancel,
	}, nil
}

// normalizeCDPURL lowercases and strips the trailing slash so equality checks
// and ref-cache keys are stable.
func normalizeCDPURL(u string) string {
	return strings.TrimSuffix(strings.ToLower(u), "/")
}
