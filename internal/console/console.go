// internal/console/console.go
//
// Line-driven terminal front end for a round.
// Responsibilities:
//   - Read player commands (c = correct, s = skip, q = quit) one per line.
//   - Render the observed snapshot whenever the word, score or second changes.
//   - Print one buzz line per consumed buzz event.
//   - Show the score screen when the round finishes and offer another round.
//
// Notes:
//   - Snapshots arrive on the scheduler's goroutine; all output goes through
//     one mutex so lines never interleave.
//   - The console owns each session it creates and disposes it on exit.

package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guesstheword/internal/game"
)

// Console plays rounds against a terminal.
type Console struct {
	out        io.Writer
	newSession func() *game.Session

	mu   sync.Mutex
	last game.Snapshot // last rendered snapshot
}

// New returns a Console that writes to out and creates rounds with newSession.
// newSession must return a session that has not been started.
func New(out io.Writer, newSession func() *game.Session) *Console {
	return &Console{out: out, newSession: newSession}
}

// Run plays rounds until the player quits, input ends, or ctx is cancelled.
// It returns ctx.Err() on cancellation and nil otherwise.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := readLines(ctx, in)
	c.printf("Guess The Word. c = correct, s = skip, q = quit\n")

	for round := 1; ; round++ {
		final, done, err := c.playRound(ctx, lines)
		if err != nil || !done {
			return err
		}
		if !c.scoreScreen(ctx, lines, game.NewScoreResult(final)) {
			c.printf("Bye.\n")
			return nil
		}
		log.Debug().Int("round", round+1).Msg("console play again")
	}
}

// playRound runs one session to completion. done is false when the player
// left before the round ended; final is only meaningful when done is true.
func (c *Console) playRound(ctx context.Context, lines <-chan string) (final int, done bool, err error) {
	sess := c.newSession()
	defer sess.Dispose()

	events := make(chan struct{}, 1)
	cancel := sess.Observe(func(snap game.Snapshot) {
		c.render(snap)
		if snap.Buzz != game.BuzzNone || snap.Finished {
			select {
			case events <- struct{}{}:
			default:
			}
		}
	})
	defer cancel()

	c.mu.Lock()
	c.last = game.Snapshot{}
	c.mu.Unlock()
	sess.Start()
	c.render(sess.Snapshot())
	log.Debug().Str("gameId", sess.ID()).Msg("console round started")

	for {
		select {
		case <-ctx.Done():
			return 0, false, ctx.Err()
		case <-events:
			if score, over := c.drain(sess); over {
				return score, true, nil
			}
		case line, ok := <-lines:
			if !ok {
				return 0, false, nil
			}
			switch line {
			case "c":
				sess.Correct()
			case "s":
				sess.Skip()
			case "q":
				return 0, false, nil
			case "":
			default:
				c.printf("unknown command %q (c, s or q)\n", line)
			}
			if score, over := c.drain(sess); over {
				return score, true, nil
			}
		}
	}
}

// drain prints the pending buzz and reports whether the round has finished.
func (c *Console) drain(sess *game.Session) (int, bool) {
	if b := sess.ConsumeBuzz(); b != game.BuzzNone {
		c.printf("%s\n", BuzzLine(b))
	}
	finished, final := sess.ConsumeFinished()
	return final, finished
}

// scoreScreen shows the final score and reports whether another round was requested.
func (c *Console) scoreScreen(ctx context.Context, lines <-chan string, res *game.ScoreResult) bool {
	c.printf("\nFinal score: %s\nPlay again? (y/n)\n", res.Text())
	for {
		select {
		case <-ctx.Done():
			return false
		case line, ok := <-lines:
			if !ok {
				return false
			}
			switch line {
			case "y":
				res.RequestPlayAgain()
			case "n", "q":
				return false
			default:
				c.printf("Play again? (y/n)\n")
				continue
			}
			return res.ConsumePlayAgain()
		}
	}
}

// render prints snap when it shows something the player has not seen yet.
func (c *Console) render(snap game.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snap.Version < c.last.Version {
		return
	}
	same := c.last.Word == snap.Word && c.last.Score == snap.Score &&
		c.last.RemainingSeconds == snap.RemainingSeconds && c.last.Version != 0
	c.last = snap
	if same {
		return
	}
	fmt.Fprintf(c.out, "[%s] %s | score %d\n", snap.RemainingText, snap.Word, snap.Score)
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// BuzzLine describes a buzz event and its vibration pattern in one line.
func BuzzLine(b game.BuzzType) string {
	parts := make([]string, 0, len(b.Pattern()))
	for _, d := range b.Pattern() {
		parts = append(parts, d.String())
	}
	return fmt.Sprintf("*buzz* %s [%s]", b, strings.Join(parts, " "))
}

// readLines forwards trimmed, lower-cased input lines until in ends or ctx is done.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case out <- strings.ToLower(strings.TrimSpace(sc.Text())):
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			log.Warn().Err(err).Msg("console input")
		}
	}()
	return out
}
