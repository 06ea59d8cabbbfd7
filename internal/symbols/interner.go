package symbols

import (
	"sync"
)

// interner is the process-wide string table shared by every symbol domain.
// IDs are assigned sequentially starting at 1 so the zero Symbol can mean
// "absent". Entries are never removed; a handle stays valid for the whole
// process run.
type interner struct {
	mu     sync.RWMutex
	lookup map[string]uint32
	rev    []string
}

var global = &interner{
	lookup: make(map[string]uint32, 4096),
	rev:    make([]string, 0, 4096),
}

// intern returns the id for s, adding it to the table when unseen.
func (in *interner) intern(s string) uint32 {
	// Fast path: most interns hit strings already in the table
	in.mu.RLock()
	if id, ok := in.lookup[s]; ok {
		in.mu.RUnlock()
		return id
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()

	// Double-check after acquiring the write lock
	if id, ok := in.lookup[s]; ok {
		return id
	}

	in.rev = append(in.rev, s)
	id := uint32(len(in.rev))
	in.lookup[s] = id
	return id
}

// get returns the id for s without interning it.
func (in *interner) get(s string) (uint32, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	id, ok := in.lookup[s]
	return id, ok
}

// resolve returns the string behind id. ok is false for ids that were never
// handed out, including zero.
func (in *interner) resolve(id uint32) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == 0 || int(id) > len(in.rev) {
		return "", false
	}
	return in.rev[id-1], true
}

// size returns the number of interned strings.
func (in *interner) size() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.rev)
}

// Count reports how many distinct strings have been interned in this process.
func Count() int {
	return global.size()
}
