package chunk

import (
	"bytes"
	"errors"
	"sync"

	"rfr/internal/schema"
)

// ErrDuplicateCallsite is returned by CallsiteTable.Add when a callsite id
// read from the callsites file is already present with different metadata
// (testable property 5: callsite uniqueness).
var ErrDuplicateCallsite = errors.New("chunk: duplicate callsite id with differing metadata")

// CallsiteRegistry is the engine's process-wide, append-only mapping from
// first-seen callsite to CallsiteID. Entries are assigned sequential IDs
// and never mutated once written. Callers register a callsite at most
// once; the registry does not itself dedup by content.
type CallsiteRegistry struct {
	mu        sync.Mutex
	callsites []schema.Callsite
	onAppend  func(schema.Callsite) error
}

// NewCallsiteRegistry creates an empty registry. onAppend, if non-nil, is
// invoked synchronously (while holding the registration lock) the first
// time each callsite is registered, and is expected to durably append it
// to the callsites file; a non-nil error aborts the registration.
func NewCallsiteRegistry(onAppend func(schema.Callsite) error) *CallsiteRegistry {
	return &CallsiteRegistry{onAppend: onAppend}
}

// Register assigns the next unused CallsiteID to callsite, appends it to
// the callsites file via onAppend, and returns the assigned id. Per §4.5
// this must complete before any record referencing the callsite reaches
// the engine — callers own that ordering.
func (r *CallsiteRegistry) Register(callsite schema.Callsite) (schema.CallsiteID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := schema.CallsiteID(len(r.callsites))
	callsite.CallsiteID = id
	if r.onAppend != nil {
		if err := r.onAppend(callsite); err != nil {
			return 0, err
		}
	}
	r.callsites = append(r.callsites, callsite)
	return id, nil
}

// Lookup returns the callsite registered under id, if any.
func (r *CallsiteRegistry) Lookup(id schema.CallsiteID) (schema.Callsite, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(id) >= len(r.callsites) {
		return schema.Callsite{}, false
	}
	return r.callsites[id], true
}

// Len returns the number of registered callsites.
func (r *CallsiteRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.callsites)
}

// CallsiteTable is a reader-side, growable view of a callsites file: a
// CallsiteId → Callsite map that tolerates being read while still being
// appended to by a live writer (§4.6, §9 "Callsite registry").
type CallsiteTable struct {
	mu   sync.RWMutex
	byID map[schema.CallsiteID]schema.Callsite
}

func NewCallsiteTable() *CallsiteTable {
	return &CallsiteTable{byID: make(map[schema.CallsiteID]schema.Callsite)}
}

// Add records a callsite read from the callsites file. It returns
// ErrDuplicateCallsite if id was already present with different metadata.
func (t *CallsiteTable) Add(c schema.Callsite) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.byID[c.CallsiteID]; ok {
		if !bytes.Equal(existing.Encode(nil), c.Encode(nil)) {
			return ErrDuplicateCallsite
		}
		return nil
	}
	t.byID[c.CallsiteID] = c
	return nil
}

// Lookup returns the callsite for id. A false result marks a forward
// reference to an id the table has not seen yet (scenario S5).
func (t *CallsiteTable) Lookup(id schema.CallsiteID) (schema.Callsite, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.byID[id]
	return c, ok
}

// Len reports how many distinct callsites have been observed so far.
func (t *CallsiteTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}
