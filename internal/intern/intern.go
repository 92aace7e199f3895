package intern

import (
	"strings"
	"sync"
)

// Store owns the byte storage backing strings produced during document scans.
// Implementations guarantee that returned strings do not alias caller-owned
// buffers and remain valid for the lifetime of the Store.
type Store interface {
	// Intern returns a stored copy of s.
	Intern(s string) string

	// InternBytes returns a stored string copy of b.
	// The caller may reuse b after the call returns.
	InternBytes(b []byte) string
}

// Arena is a per-scan Store. It is not safe for concurrent use; each scan
// worker owns a private Arena, and results must be copied (or the Arena
// retained) before crossing to an aggregating stage.
type Arena struct {
	// entries keeps every stored string alive. Append-only.
	entries []string
}

// NewArena creates an empty Arena.
func NewArena() *Arena {
	return &Arena{}
}

// Intern stores a copy of s in the arena and returns it.
// Arena does not deduplicate; repeated inserts of equal strings each
// consume storage. That is acceptable for a single-document scan.
func (a *Arena) Intern(s string) string {
	// strings.Clone forces a fresh allocation so the result cannot alias
	// a substring of the caller's read buffer.
	c := strings.Clone(s)
	a.entries = append(a.entries, c)
	return c
}

// InternBytes stores a string copy of b in the arena and returns it.
func (a *Arena) InternBytes(b []byte) string {
	c := string(b)
	a.entries = append(a.entries, c)
	return c
}

// Len returns the number of entries held by the arena.
func (a *Arena) Len() int {
	return len(a.entries)
}

// Interner is a shared, thread-safe, deduplicating Store. It grows
// monotonically for the process lifetime; entries are never released.
type Interner struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewInterner creates an empty Interner.
func NewInterner() *Interner {
	return &Interner{
		entries: make(map[string]string),
	}
}

// Intern returns the canonical stored copy of s, inserting it on first use.
// Concurrent callers interning equal strings receive the same storage slot.
func (i *Interner) Intern(s string) string {
	i.mu.RLock()
	c, ok := i.entries[s]
	i.mu.RUnlock()
	if ok {
		return c
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	// Re-check under the write lock; another worker may have won the race.
	if c, ok := i.entries[s]; ok {
		return c
	}
	c = strings.Clone(s)
	i.entries[c] = c
	return c
}

// InternBytes returns the canonical stored copy of b as a string.
func (i *Interner) InternBytes(b []byte) string {
	i.mu.RLock()
	c, ok := i.entries[string(b)] // does not allocate: map lookup by []byte
	i.mu.RUnlock()
	if ok {
		return c
	}
	return i.Intern(string(b))
}

// Len returns the number of distinct entries held by the interner.
func (i *Interner) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}
