package gradebook

import (
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparator orders student names and unit titles.
type Comparator interface {
	Compare(a, b string) int
}

// ComparatorFunc adapts a plain function to Comparator.
type ComparatorFunc func(a, b string) int

// Compare calls f(a, b).
func (f ComparatorFunc) Compare(a, b string) int {
	return f(a, b)
}

// Ordinal compares by byte value, so upper case sorts before lower case.
var Ordinal Comparator = ComparatorFunc(strings.Compare)

type localeComparator struct {
	mu       sync.Mutex
	collator *collate.Collator
}

// NewLocaleComparator returns a collation-based comparator for the given language.
func NewLocaleComparator(tag language.Tag) Comparator {
	return &localeComparator{collator: collate.New(tag)}
}

// Collators keep internal buffers and are not safe for concurrent use.
func (c *localeComparator) Compare(a, b string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collator.CompareString(a, b)
}
