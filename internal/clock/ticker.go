// internal/clock/ticker.go
//
// Wall-clock implementation of game.Scheduler.
// Each Every call owns one goroutine driving a time.Ticker; stopping cancels
// its context. A tick already in flight when stop is called may still run,
// so callers must ignore callbacks that arrive after they stopped the timer.

package clock

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Ticker schedules recurring callbacks on real time.
type Ticker struct {
	log zerolog.Logger
}

// NewTicker returns a Ticker that logs timer lifecycle events to logger.
func NewTicker(logger zerolog.Logger) *Ticker {
	return &Ticker{log: logger}
}

// Every runs fn on its own goroutine every interval until stop is called.
func (t *Ticker) Every(interval time.Duration, fn func()) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	t.log.Debug().Dur("interval", interval).Msg("timer started")

	go func() {
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				if ctx.Err() != nil {
					return
				}
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			t.log.Debug().Msg("timer stopped")
		})
	}
}
