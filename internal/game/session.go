// internal/game/session.go
//
// Game session state machine for a single round.
// Responsibilities:
//   - Own the word queue, current word, score and countdown.
//   - React to timer ticks and to the player's correct/skip actions.
//   - Raise one-shot events (buzz, finished) and publish snapshots to observers.
//
// Notes:
//   - The timer is an injected Scheduler, so tests drive time by hand.
//   - All mutations happen under one mutex; observers are notified after it is
//     released, before the mutating call returns.
//   - Acting on a finished or disposed session is a silent no-op.

package game

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/guesstheword/internal/words"
)

// Option customises a Session at construction.
type Option func(*Session)

// WithConfig replaces the default timing constants.
func WithConfig(cfg Config) Option {
	return func(s *Session) { s.cfg = cfg.withDefaults() }
}

// WithSource sets the function that produces a fresh word queue each time
// the queue is (re)filled. Defaults to words.Shuffled.
func WithSource(src func() []string) Option {
	return func(s *Session) {
		if src != nil {
			s.source = src
		}
	}
}

// WithID fixes the session identifier instead of generating a UUID.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// Session holds the state of one play-through.
type Session struct {
	id     string
	cfg    Config
	sched  Scheduler
	source func() []string

	mu         sync.Mutex
	version    uint64
	queue      []string // front is the next word
	word       string
	score      int
	remaining  time.Duration
	finished   bool // pending navigation event, cleared by the observer
	over       bool // round has ended for good
	finalScore int
	buzz       BuzzType
	started    bool
	disposed   bool
	stop       func()

	obs observers[Snapshot]
}

// NewSession constructs an idle session. Call Start to begin the round.
func NewSession(sched Scheduler, opts ...Option) *Session {
	s := &Session{
		id:     uuid.NewString(),
		cfg:    DefaultConfig(),
		sched:  sched,
		source: words.Shuffled,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.score = s.cfg.InitialScore
	s.remaining = s.cfg.Duration
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Config returns the timing constants the session runs with.
func (s *Session) Config() Config { return s.cfg }

// Start fills the word queue, shows the first word and starts the countdown.
// Calling Start more than once, or after Dispose, does nothing.
func (s *Session) Start() {
	s.mutate(func() bool {
		if s.started || s.disposed {
			return false
		}
		s.started = true
		s.remaining = s.cfg.Duration
		s.queue = s.source()
		s.advanceLocked()
		if !s.over && s.sched != nil {
			s.stop = s.sched.Every(s.cfg.Interval, s.onInterval)
		}
		return true
	})
}

// onInterval is the scheduler callback: one interval has elapsed.
func (s *Session) onInterval() {
	s.mutate(func() bool {
		if !s.live() {
			return false
		}
		return s.tickLocked(s.remaining - s.cfg.Interval)
	})
}

// Tick reports the time left in the round. It updates the countdown, raises
// BuzzPanic inside the panic window and finishes the round at zero.
// Ticks that arrive before Start, after the round ended, after Dispose, or
// that would move the countdown backwards in time are ignored.
func (s *Session) Tick(remaining time.Duration) {
	s.mutate(func() bool {
		if !s.live() {
			return false
		}
		return s.tickLocked(remaining)
	})
}

func (s *Session) tickLocked(remaining time.Duration) bool {
	if remaining < 0 {
		remaining = 0
	}
	if remaining > s.remaining {
		return false
	}
	s.remaining = remaining
	if remaining == 0 {
		s.finishLocked()
		return true
	}
	if remaining/time.Second <= s.cfg.PanicThreshold/time.Second {
		s.buzz = BuzzPanic
	}
	return true
}

// Correct scores the current word and moves on to the next one.
func (s *Session) Correct() {
	s.mutate(func() bool {
		if !s.live() {
			return false
		}
		s.score++
		s.buzz = BuzzCorrect
		s.advanceLocked()
		return true
	})
}

// Skip penalises the current word and moves on to the next one.
func (s *Session) Skip() {
	s.mutate(func() bool {
		if !s.live() {
			return false
		}
		s.score--
		s.advanceLocked()
		return true
	})
}

// Finish ends the round immediately. Only the first call has an effect.
func (s *Session) Finish() {
	s.mutate(func() bool {
		if !s.started || s.disposed {
			return false
		}
		return s.finishLocked()
	})
}

// AcknowledgeFinishNavigation clears the finished event once the observer
// has navigated away. The round stays over.
func (s *Session) AcknowledgeFinishNavigation() {
	s.mutate(func() bool {
		if !s.finished {
			return false
		}
		s.finished = false
		return true
	})
}

// AcknowledgeBuzz clears the pending buzz, whatever it was.
func (s *Session) AcknowledgeBuzz() {
	s.mutate(func() bool {
		if s.buzz == BuzzNone {
			return false
		}
		s.buzz = BuzzNone
		return true
	})
}

// ConsumeBuzz returns the pending buzz and clears it in one step.
func (s *Session) ConsumeBuzz() BuzzType {
	var b BuzzType
	s.mutate(func() bool {
		b = s.buzz
		if b == BuzzNone {
			return false
		}
		s.buzz = BuzzNone
		return true
	})
	return b
}

// ConsumeFinished reports whether the finished event was pending, together
// with the final score, and clears the event in one step.
func (s *Session) ConsumeFinished() (finished bool, finalScore int) {
	s.mutate(func() bool {
		finished, finalScore = s.finished, s.finalScore
		if !finished {
			return false
		}
		s.finished = false
		return true
	})
	return finished, finalScore
}

// FinalScore returns the score held when the round ended. ok is false while
// the round is still running; score is then the configured initial score.
func (s *Session) FinalScore() (score int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.over {
		return s.cfg.InitialScore, false
	}
	return s.finalScore, true
}

// Dispose cancels the countdown. It is safe to call repeatedly; ticks
// delivered afterwards are ignored.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	s.stopTimerLocked()
}

// Disposed reports whether Dispose has been called.
func (s *Session) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Snapshot returns the current observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Observe registers fn to receive a snapshot after every state change.
// fn runs synchronously on the goroutine that caused the change and may call
// back into the session. The returned func unregisters fn.
func (s *Session) Observe(fn func(Snapshot)) (cancel func()) {
	return s.obs.add(fn)
}

// ---------------------------------------------------------------------------

// live reports whether the round accepts ticks and player actions.
func (s *Session) live() bool {
	return s.started && !s.over && !s.disposed
}

// advanceLocked pops the next word, refilling or finishing on exhaustion.
func (s *Session) advanceLocked() {
	if len(s.queue) == 0 {
		if s.cfg.Exhaust == FinishOnExhaust {
			s.finishLocked()
			return
		}
		s.queue = s.source()
		if len(s.queue) == 0 {
			return // nothing to refill from; keep showing the current word
		}
	}
	s.word = s.queue[0]
	s.queue = s.queue[1:]
}

// finishLocked performs the one-time transition to the ended state.
func (s *Session) finishLocked() bool {
	if s.over {
		return false
	}
	s.remaining = 0
	s.over = true
	s.finished = true
	s.finalScore = s.score
	s.buzz = BuzzGameOver
	s.stopTimerLocked()
	return true
}

func (s *Session) stopTimerLocked() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

func (s *Session) snapshotLocked() Snapshot {
	secs := int(s.remaining / time.Second)
	return Snapshot{
		ID:               s.id,
		Version:          s.version,
		Word:             s.word,
		Score:            s.score,
		RemainingSeconds: secs,
		RemainingText:    FormatElapsed(secs),
		Finished:         s.finished,
		Over:             s.over,
		Buzz:             s.buzz,
	}
}

// mutate runs fn under the session lock and, if fn reports a change, bumps
// the version and notifies observers once the lock is released.
func (s *Session) mutate(fn func() bool) {
	s.mu.Lock()
	changed := fn()
	var snap Snapshot
	if changed {
		s.version++
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if changed {
		s.obs.notify(snap)
	}
}
