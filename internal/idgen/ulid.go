// Package idgen produces lexicographically sortable ULIDs that are safe to
// generate from concurrent requests.
package idgen

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator mints ULIDs from a monotonic entropy source, so ids created within
// the same millisecond still sort in creation order.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// New creates a Generator reading entropy from crypto/rand.
func New() *Generator {
	return NewWithSource(rand.Reader, time.Now)
}

// NewWithSource creates a Generator with explicit entropy and clock.
func NewWithSource(entropy io.Reader, now func() time.Time) *Generator {
	return &Generator{entropy: ulid.Monotonic(entropy, 0), now: now}
}

// Next returns a new ULID string.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(g.now().UTC()), g.entropy).String()
}

// Time extracts the timestamp embedded in id. Invalid ids give the zero time.
func Time(id string) time.Time {
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time()).UTC()
}

var (
	defaultOnce sync.Once
	defaultGen  *Generator
)

// Next returns a ULID from a process-wide generator.
func Next() string {
	defaultOnce.Do(func() { defaultGen = New() })
	return defaultGen.Next()
}
