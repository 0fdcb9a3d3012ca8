package sync

import (
	"sort"
	"sync"
)

// Directory owns the mutable ingestion state: the lowercased member
// name → user id map and the set of already-ingested message timestamps.
// The syncer is the only writer; the request path reads concurrently.
//
// The dedup key is the message timestamp, matching the feed's observed
// semantics. Two distinct messages sharing a timestamp would collide;
// the feed has never produced that, and changing the key to the message
// id needs confirmation of its uniqueness first.
type Directory struct {
	mu    sync.RWMutex
	users map[string]string
	known map[string]struct{}
}

func NewDirectory() *Directory {
	return &Directory{
		users: make(map[string]string),
		known: make(map[string]struct{}),
	}
}

// SetUser records name → id, last write wins on display-name casing.
func (d *Directory) SetUser(nameLower, userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[nameLower] = userID
}

// UserID resolves a lowercased member name.
func (d *Directory) UserID(nameLower string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.users[nameLower]
	return id, ok
}

// UserNames returns the known lowercased names, sorted.
func (d *Directory) UserNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.users))
	for name := range d.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MarkKnown records a message timestamp as fully ingested.
func (d *Directory) MarkKnown(timestamp string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.known[timestamp] = struct{}{}
}

func (d *Directory) IsKnown(timestamp string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.known[timestamp]
	return ok
}

// Counts reports directory size and known-message count.
func (d *Directory) Counts() (users, known int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users), len(d.known)
}
