// Package id provides centralized ID generation for the navigator.
//
// IDs are prefixed ULIDs:
//   - Lexicographic sortability: creation order is visible in the id
//   - Monotonic: ids minted within the same millisecond still increase
//   - Prefixed types: page_*, req_* make logs readable
//   - Never reused for the lifetime of the process
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// PageID identifies a navigation stack entry
type PageID string

// RequestID identifies an API request or trace span
type RequestID string

const (
	PagePrefix    = "page"
	RequestPrefix = "req"
)

// Generator generates monotonic ULIDs with optional prefixes
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(rand.Reader)
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(entropy, 0),
		now:     time.Now,
	}
}

// Generate creates a new ULID. Within one millisecond the random part is
// incremented, so successive ids from one generator strictly increase.
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewPageID generates a page ID from g
func (g *Generator) NewPageID() PageID {
	return PageID(g.GenerateWithPrefix(PagePrefix))
}

// NewPageID generates a page ID from the default generator
func NewPageID() PageID {
	return Default().NewPageID()
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

func (id PageID) String() string    { return string(id) }
func (id RequestID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string, accepting an optional "prefix_" head
func Parse(id string) (ulid.ULID, error) {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '_' {
			return ulid.Parse(id[i+1:])
		}
	}
	return ulid.Parse(id)
}

// Timestamp extracts the creation time from a (prefixed) ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
