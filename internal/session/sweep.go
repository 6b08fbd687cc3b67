package session

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper runs the background expiry sweep. The timer lives in its own
// goroutine and never prevents process exit: Stop tears it down, and the
// daemon does not wait on it during shutdown.
type Sweeper struct {
	stop chan struct{}
	done chan struct{}
}

// StartSweeper begins sweeping m every period, handing each batch of expired
// sessions to onExpired (typically to close their tabs).
func StartSweeper(m *Manager, period time.Duration, onExpired func([]Expired)) *Sweeper {
	s := &Sweeper{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				expired := m.PruneExpired()
				if len(expired) == 0 {
					continue
				}
				log.Info().Int("count", len(expired)).Msg("Expired sessions pruned")
				if onExpired != nil {
					onExpired(expired)
				}
			}
		}
	}()
	return s
}

// Stop halts the sweep and waits for the goroutine to exit.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}
