// internal/words/words.go
//
// Provides the word source for game sessions.
//
// Responsibilities:
//   - Load the fixed source list from the embedded assets exactly once.
//   - Hand out private copies so callers can consume them front-to-back.
//   - Shuffle copies with crypto/rand.
//
// The list is read-only process-wide data: nothing in this package mutates it
// after Init, and callers only ever see copies.

package words

import (
	"crypto/rand"
	"errors"
	"math/big"
	"sync"

	"github.com/robalobadob/guesstheword/assets"
)

var (
	initOnce   sync.Once
	source     []string // fixed source list, file order
	initialErr error
)

// Init loads the word list exactly once.
// Returns an error if the embedded list cannot be read or ends up empty.
func Init() error {
	initOnce.Do(func() {
		list, err := assets.WordList()
		if err != nil {
			initialErr = err
			return
		}
		source = dedupe(list)
		if len(source) == 0 {
			initialErr = errors.New("words: source list is empty")
		}
	})
	return initialErr
}

// dedupe drops repeated entries while keeping first-seen order.
func dedupe(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, w := range list {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// List returns a fresh copy of the source list in its original order.
// Returns nil if the list failed to load.
func List() []string {
	if err := Init(); err != nil {
		return nil
	}
	return append([]string(nil), source...)
}

// Shuffled returns a fresh copy of the source list in random order.
func Shuffled() []string {
	out := List()
	Shuffle(out)
	return out
}

// Shuffle permutes ws in place (Fisher–Yates) using crypto/rand.
func Shuffle(ws []string) {
	for i := len(ws) - 1; i > 0; i-- {
		nBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return
		}
		j := int(nBig.Int64())
		ws[i], ws[j] = ws[j], ws[i]
	}
}

// Count returns the number of words in the source list.
func Count() int {
	if Init() != nil {
		return 0
	}
	return len(source)
}
