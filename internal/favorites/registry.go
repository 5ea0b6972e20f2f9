// Package favorites keeps the authoritative set of favorited listing codes
// plus denormalized listing snapshots, and synchronizes optimistic toggles
// against the favorites API with rollback on failure. For unauthenticated
// sessions everything persists to the durable local store instead.
package favorites

import (
	"sort"
	"sync"

	"imovelmap/pkg/models"
)

// Snapshot is a verbatim copy of the registry contents, deep enough to be
// restored bit-for-bit after a failed mutation.
type Snapshot struct {
	Codes     map[string]struct{}
	Snapshots map[string]models.Listing
}

// Registry holds favorite codes and their listing snapshots. The two maps
// move together: adding a code stores its snapshot, removing deletes both.
// Observers subscribe for change notification instead of sharing state.
type Registry struct {
	mu        sync.Mutex
	codes     map[string]struct{}
	snapshots map[string]models.Listing
	subs      map[int]func([]string)
	nextSub   int
}

func NewRegistry() *Registry {
	return &Registry{
		codes:     make(map[string]struct{}),
		snapshots: make(map[string]models.Listing),
		subs:      make(map[int]func([]string)),
	}
}

func (r *Registry) IsFavorite(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.codes[code]
	return ok
}

// Codes returns the favorited codes in sorted order.
func (r *Registry) Codes() []string {
	r.mu.Lock()
	out := make([]string, 0, len(r.codes))
	for c := range r.codes {
		out = append(out, c)
	}
	r.mu.Unlock()
	sort.Strings(out)
	return out
}

// Get returns the stored snapshot for a favorited code, so favorite listings
// can be displayed without a further fetch.
func (r *Registry) Get(code string) (models.Listing, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.snapshots[code]
	return l, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.codes)
}

// Add marks code as favorite and stores its snapshot atomically.
func (r *Registry) Add(code string, listing models.Listing) {
	r.mu.Lock()
	r.codes[code] = struct{}{}
	r.snapshots[code] = listing
	r.mu.Unlock()
	r.publish()
}

// Remove unmarks code and drops its snapshot atomically.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	delete(r.codes, code)
	delete(r.snapshots, code)
	r.mu.Unlock()
	r.publish()
}

// Replace swaps in a full set of favorite listings, e.g. from the server.
func (r *Registry) Replace(listings []models.Listing) {
	r.mu.Lock()
	r.codes = make(map[string]struct{}, len(listings))
	r.snapshots = make(map[string]models.Listing, len(listings))
	for _, l := range listings {
		if l.Codigo == "" {
			continue
		}
		r.codes[l.Codigo] = struct{}{}
		r.snapshots[l.Codigo] = l
	}
	r.mu.Unlock()
	r.publish()
}

// Take copies the current contents for later Restore.
func (r *Registry) Take() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := Snapshot{
		Codes:     make(map[string]struct{}, len(r.codes)),
		Snapshots: make(map[string]models.Listing, len(r.snapshots)),
	}
	for c := range r.codes {
		snap.Codes[c] = struct{}{}
	}
	for c, l := range r.snapshots {
		snap.Snapshots[c] = l
	}
	return snap
}

// Restore puts back a previously taken snapshot verbatim, not a
// recomputation: after a failed mutation the registry must be bit-for-bit
// the prior state.
func (r *Registry) Restore(snap Snapshot) {
	r.mu.Lock()
	r.codes = make(map[string]struct{}, len(snap.Codes))
	r.snapshots = make(map[string]models.Listing, len(snap.Snapshots))
	for c := range snap.Codes {
		r.codes[c] = struct{}{}
	}
	for c, l := range snap.Snapshots {
		r.snapshots[c] = l
	}
	r.mu.Unlock()
	r.publish()
}

// Subscribe registers fn to run with the sorted code set after every change.
// The returned func unsubscribes; overlay teardown must call it.
func (r *Registry) Subscribe(fn func(codes []string)) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

func (r *Registry) publish() {
	codes := r.Codes()
	r.mu.Lock()
	fns := make([]func([]string), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn(codes)
	}
}
