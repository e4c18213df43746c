package tracker

import (
	"sort"
	"time"
)

type registry struct {
	entries map[string]BlacklistEntry
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]BlacklistEntry)}
}

func (r *registry) put(e BlacklistEntry) {
	r.entries[e.SupplierID] = e.clone()
}

func (r *registry) remove(id string) bool {
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

// lookup applies lazy expiry. expired reports whether an entry was dropped by this call.
func (r *registry) lookup(id string, now time.Time) (entry BlacklistEntry, ok bool, expired bool) {
	entry, ok, expired = r.peek(id, now)
	if expired {
		delete(r.entries, id)
	}
	return entry, ok, expired
}

// peek is lookup without the delete. expired reports an entry lookup would drop.
func (r *registry) peek(id string, now time.Time) (entry BlacklistEntry, ok bool, expired bool) {
	e, found := r.entries[id]
	if !found {
		return BlacklistEntry{}, false, false
	}
	if e.expired(now) {
		return BlacklistEntry{}, false, true
	}
	return e.clone(), true, false
}

// sweep drops every expired entry and returns what it dropped, ordered by supplier.
func (r *registry) sweep(now time.Time) []BlacklistEntry {
	var dropped []BlacklistEntry
	for id, e := range r.entries {
		if e.expired(now) {
			dropped = append(dropped, e)
			delete(r.entries, id)
		}
	}
	sort.Slice(dropped, func(i, j int) bool {
		return dropped[i].SupplierID < dropped[j].SupplierID
	})
	return dropped
}

func (r *registry) list() []BlacklistEntry {
	out := make([]BlacklistEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SupplierID < out[j].SupplierID
	})
	return out
}
