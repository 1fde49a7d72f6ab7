package usecase

import (
	"fmt"
	"sync/atomic"
	"time"
)

// OrderNumberPrefix starts every human-legible order number.
const OrderNumberPrefix = "FD"

// NumberGenerator produces order numbers of the form
// FD<unix-millis><4-digit sequence>. The sequence keeps numbers unique
// within one millisecond; the store's unique index is the backstop.
type NumberGenerator struct {
	seq atomic.Uint64
}

// NewNumberGenerator constructs a generator starting at sequence 0.
func NewNumberGenerator() *NumberGenerator {
	return &NumberGenerator{}
}

// Next returns a fresh order number for the given time.
func (g *NumberGenerator) Next(now time.Time) string {
	seq := g.seq.Add(1) % 10000
	return fmt.Sprintf("%s%d%04d", OrderNumberPrefix, now.UnixMilli(), seq)
}
