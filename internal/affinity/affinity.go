// Package affinity accumulates the OS tags each header inherits from the
// entities declared under it.
package affinity

import "sync"

// Slot orders contributions to a header's union. Tags merged into a lower
// slot come first regardless of the order in which passes ran.
type Slot int

const (
	SlotMacro Slot = iota
	SlotEnum
	SlotStruct
	SlotTypedef
	SlotFunction
	slotCount
)

// Aggregator maps header refs to the union of their entities' OS tags.
// It is safe for concurrent use. Reads are meant to happen only after every
// contributing pass has finished.
type Aggregator struct {
	mu      sync.Mutex
	headers map[string]*[slotCount][]string
}

// New returns an empty aggregator.
func New() *Aggregator {
	return &Aggregator{headers: make(map[string]*[slotCount][]string)}
}

// Merge appends every tag of tags not yet recorded for ref in slot.
func (a *Aggregator) Merge(ref string, slot Slot, tags []string) {
	if slot < 0 || slot >= slotCount {
		slot = SlotFunction
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.headers[ref]
	if !ok {
		entry = new([slotCount][]string)
		a.headers[ref] = entry
	}
	entry[slot] = union(entry[slot], tags)
}

// Get returns the first-seen-order union of every tag merged for ref.
// The result is a fresh slice; it is empty (not nil) when nothing was merged.
func (a *Aggregator) Get(ref string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := []string{}
	entry, ok := a.headers[ref]
	if !ok {
		return out
	}
	for _, tags := range entry {
		out = union(out, tags)
	}
	return out
}

// Len returns how many headers have an entry.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.headers)
}

func union(dst, tags []string) []string {
	for _, tag := range tags {
		if !contains(dst, tag) {
			dst = append(dst, tag)
		}
	}
	return dst
}

func contains(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
