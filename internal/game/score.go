// internal/game/score.go
//
// Score screen state: the final score of a finished round and the one-shot
// "play again" request raised by the player.

package game

import (
	"strconv"
	"sync"
)

// ScoreSnapshot is the observable state of a ScoreResult.
type ScoreSnapshot struct {
	Score     int    `json:"score"`
	Text      string `json:"scoreText"`
	PlayAgain bool   `json:"playAgain"`
}

// ScoreResult holds a final score and the play-again flag.
type ScoreResult struct {
	final int

	mu        sync.Mutex
	playAgain bool

	obs observers[ScoreSnapshot]
}

// NewScoreResult stores finalScore for display.
func NewScoreResult(finalScore int) *ScoreResult {
	return &ScoreResult{final: finalScore}
}

// ScoreFor builds a ScoreResult from the score s held when its round ended.
// If s has not ended yet the configured initial score is used.
func ScoreFor(s *Session) *ScoreResult {
	score, _ := s.FinalScore()
	return NewScoreResult(score)
}

// FinalScore returns the stored score.
func (r *ScoreResult) FinalScore() int { return r.final }

// Text returns the score formatted for display.
func (r *ScoreResult) Text() string { return strconv.Itoa(r.final) }

// PlayAgainRequested reports whether a play-again request is pending.
func (r *ScoreResult) PlayAgainRequested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playAgain
}

// RequestPlayAgain raises the play-again flag.
func (r *ScoreResult) RequestPlayAgain() { r.set(true) }

// AcknowledgePlayAgain clears the play-again flag after the observer acted on it.
func (r *ScoreResult) AcknowledgePlayAgain() { r.set(false) }

// ConsumePlayAgain returns the play-again flag and clears it in one step.
func (r *ScoreResult) ConsumePlayAgain() bool {
	r.mu.Lock()
	was := r.playAgain
	r.playAgain = false
	snap := r.snapshotLocked()
	r.mu.Unlock()

	if was {
		r.obs.notify(snap)
	}
	return was
}

// Snapshot returns the current observable state.
func (r *ScoreResult) Snapshot() ScoreSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Observe registers fn to receive a snapshot whenever the flag changes.
func (r *ScoreResult) Observe(fn func(ScoreSnapshot)) (cancel func()) {
	return r.obs.add(fn)
}

func (r *ScoreResult) set(v bool) {
	r.mu.Lock()
	changed := r.playAgain != v
	r.playAgain = v
	snap := r.snapshotLocked()
	r.mu.Unlock()

	if changed {
		r.obs.notify(snap)
	}
}

func (r *ScoreResult) snapshotLocked() ScoreSnapshot {
	return ScoreSnapshot{Score: r.final, Text: strconv.Itoa(r.final), PlayAgain: r.playAgain}
}
