package rpc

import (
	"sync"

	"github.com/google/uuid"
)

// NonceGenerator produces the correlation nonce attached to every command.
// Implemented by UUIDGenerator (production) and FixedGenerator (tests).
type NonceGenerator interface {
	Generate() string
}

// UUIDGenerator generates time-sortable UUIDv7 nonces.
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDGenerator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined nonces, for tests that compare
// encoded frames byte for byte.
type FixedGenerator struct {
	mu     sync.Mutex
	nonces []string
	idx    int
}

// NewFixedGenerator creates a generator that returns nonces in order.
func NewFixedGenerator(nonces ...string) *FixedGenerator {
	return &FixedGenerator{nonces: nonces}
}

// Generate returns the next predetermined nonce.
// Panics if all nonces have been consumed.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.nonces) {
		panic("FixedGenerator: all nonces exhausted")
	}
	n := g.nonces[g.idx]
	g.idx++
	return n
}
