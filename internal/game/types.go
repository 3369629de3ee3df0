// internal/game/types.go
//
// Core type definitions for the word-guessing round.
// Defines:
//   - BuzzType: one-shot haptic feedback event raised by a session.
//   - Config: immutable timing constants and the word-exhaustion policy.
//   - Snapshot: read-only view of a session handed to observers.
//   - Scheduler: recurring-callback capability injected into a session.

package game

import (
	"fmt"
	"time"
)

// BuzzType identifies which haptic feedback the presentation layer should play.
type BuzzType int

const (
	BuzzNone BuzzType = iota
	BuzzCorrect
	BuzzPanic
	BuzzGameOver
)

var buzzNames = [...]string{
	BuzzNone:     "none",
	BuzzCorrect:  "correct",
	BuzzPanic:    "panic",
	BuzzGameOver: "game_over",
}

// String returns the wire name of the buzz ("none", "correct", "panic", "game_over").
func (b BuzzType) String() string {
	if b < 0 || int(b) >= len(buzzNames) {
		return fmt.Sprintf("buzz(%d)", int(b))
	}
	return buzzNames[b]
}

// MarshalText encodes the buzz by name so JSON payloads stay readable.
func (b BuzzType) MarshalText() ([]byte, error) {
	if b < 0 || int(b) >= len(buzzNames) {
		return nil, fmt.Errorf("game: unknown buzz type %d", int(b))
	}
	return []byte(buzzNames[b]), nil
}

// UnmarshalText is the inverse of MarshalText.
func (b *BuzzType) UnmarshalText(text []byte) error {
	for i, name := range buzzNames {
		if name == string(text) {
			*b = BuzzType(i)
			return nil
		}
	}
	return fmt.Errorf("game: unknown buzz type %q", string(text))
}

// Pattern returns the vibration waveform for the buzz as alternating
// off/on durations, starting with an off segment.
//   - correct:   six 100 ms segments (short repeating pulses)
//   - panic:     one 200 ms pulse
//   - game over: one 2 s pulse
//   - none:      no vibration
func (b BuzzType) Pattern() []time.Duration {
	ms := time.Millisecond
	switch b {
	case BuzzCorrect:
		return []time.Duration{100 * ms, 100 * ms, 100 * ms, 100 * ms, 100 * ms, 100 * ms}
	case BuzzPanic:
		return []time.Duration{0, 200 * ms}
	case BuzzGameOver:
		return []time.Duration{0, 2000 * ms}
	default:
		return []time.Duration{0}
	}
}

// ExhaustPolicy decides what happens when the word queue runs dry mid-round.
type ExhaustPolicy int

const (
	// RefillOnExhaust reshuffles the source list so only the timer ends a round.
	RefillOnExhaust ExhaustPolicy = iota
	// FinishOnExhaust ends the round as soon as the last word has been played.
	FinishOnExhaust
)

const (
	defaultDuration       = 60 * time.Second
	defaultInterval       = time.Second
	defaultPanicThreshold = 10 * time.Second
	defaultInitialScore   = 0
)

// Config holds the timing constants of a round. Values are copied into the
// session at construction and never change afterwards.
type Config struct {
	Duration       time.Duration // total round length
	Interval       time.Duration // tick period
	PanicThreshold time.Duration // remaining time at or below which every tick buzzes
	InitialScore   int
	Exhaust        ExhaustPolicy
}

// DefaultConfig returns a 60 second round ticking once per second that starts
// panicking in the last 10 seconds and refills the word queue on exhaustion.
func DefaultConfig() Config {
	return Config{
		Duration:       defaultDuration,
		Interval:       defaultInterval,
		PanicThreshold: defaultPanicThreshold,
		InitialScore:   defaultInitialScore,
		Exhaust:        RefillOnExhaust,
	}
}

// withDefaults fills unset timing fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Duration <= 0 {
		c.Duration = d.Duration
	}
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.PanicThreshold < 0 {
		c.PanicThreshold = d.PanicThreshold
	}
	return c
}

// Snapshot is an immutable view of a session at one point in time.
type Snapshot struct {
	ID               string   `json:"gameId"`
	Version          uint64   `json:"version"` // increases with every state change
	Word             string   `json:"word"`
	Score            int      `json:"score"`
	RemainingSeconds int      `json:"remainingSeconds"`
	RemainingText    string   `json:"remainingText"` // mm:ss
	Finished         bool     `json:"finished"`      // pending navigation event
	Over             bool     `json:"over"`          // round has ended; stays true
	Buzz             BuzzType `json:"buzz"`
}

// Scheduler runs fn every interval until stop is called.
// stop must be idempotent and safe to call from inside fn.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (stop func())
}

// FormatElapsed renders whole seconds as MM:SS, or H:MM:SS from one hour up.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds/60)%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
