// internal/clock/manual.go
//
// Hand-driven implementation of game.Scheduler.
// It is the test double for the wall-clock Ticker: nothing runs until the
// caller fires it, so countdowns are deterministic.

package clock

import (
	"sync"
	"time"
)

// Manual is a game.Scheduler whose callbacks only run when Fire is called.
// Tests use it in place of Ticker to step a round one interval at a time.
type Manual struct {
	mu     sync.Mutex
	nextID int
	jobs   []manualJob
}

type manualJob struct {
	id       int
	interval time.Duration
	fn       func()
}

// NewManual returns an empty Manual scheduler.
func NewManual() *Manual { return &Manual{} }

// Every registers fn. interval is recorded but otherwise ignored.
func (m *Manual) Every(interval time.Duration, fn func()) (stop func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.jobs = append(m.jobs, manualJob{id: id, interval: interval, fn: fn})
	return func() { m.remove(id) }
}

// Fire runs every registered callback n times, in registration order.
// Callbacks stopped during a round are not invoked again.
func (m *Manual) Fire(n int) {
	for i := 0; i < n; i++ {
		m.mu.Lock()
		jobs := append([]manualJob(nil), m.jobs...)
		m.mu.Unlock()

		for _, j := range jobs {
			if !m.has(j.id) {
				continue
			}
			j.fn()
		}
	}
}

// Active returns the number of registered callbacks.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

func (m *Manual) has(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.id == id {
			return true
		}
	}
	return false
}

func (m *Manual) remove(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, j := range m.jobs {
		if j.id == id {
			m.jobs = append(m.jobs[:i:i], m.jobs[i+1:]...)
			return
		}
	}
}
