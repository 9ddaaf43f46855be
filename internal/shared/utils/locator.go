package utils

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// LocatorPolicy restricts which locators a page may navigate to.
// An empty policy allows every locator.
type LocatorPolicy struct {
	patterns []string
}

// NewLocatorPolicy compiles an allow-list of doublestar patterns,
// e.g. "page://**" or "https://*.example.com/**".
func NewLocatorPolicy(patterns []string) (*LocatorPolicy, error) {
	clean := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid locator pattern %q", p)
		}
		clean = append(clean, p)
	}
	return &LocatorPolicy{patterns: clean}, nil
}

// Allows reports whether locator matches the allow-list
func (p *LocatorPolicy) Allows(locator string) bool {
	if p == nil || len(p.patterns) == 0 {
		return true
	}
	for _, pattern := range p.patterns {
		if ok, err := doublestar.Match(pattern, locator); err == nil && ok {
			return true
		}
	}
	return false
}

// Patterns returns a copy of the configured patterns
func (p *LocatorPolicy) Patterns() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.patterns))
	copy(out, p.patterns)
	return out
}
