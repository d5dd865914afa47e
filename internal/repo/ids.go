package repo

import (
	"sync"
	"time"
)

// idGenerator выдает id на основе времени в миллисекундах,
// но никогда не повторяется: следующий id всегда больше предыдущего.
type idGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func newIDGenerator(now func() time.Time) *idGenerator {
	return &idGenerator{now: now}
}

func (g *idGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe учитывает уже существующий id (например, загруженный с диска).
func (g *idGenerator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id > g.last {
		g.last = id
	}
}

// nextTimestamp возвращает now, но строго позже prev.
func nextTimestamp(now, prev time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Millisecond)
}

func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
