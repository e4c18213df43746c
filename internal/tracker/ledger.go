package tracker

import (
	"sort"
	"time"
)

// ledger keeps incidents in append order. Entries are never mutated; the only
// removal is retention compaction of the in-memory copy.
type ledger struct {
	retention  time.Duration
	entries    []Incident
	bySupplier map[string][]int
}

func newLedger(retention time.Duration) *ledger {
	return &ledger{
		retention:  retention,
		bySupplier: make(map[string][]int),
	}
}

func (l *ledger) append(inc Incident, now time.Time) {
	l.entries = append(l.entries, inc)
	l.bySupplier[inc.SupplierID] = append(l.bySupplier[inc.SupplierID], len(l.entries)-1)
	l.compact(now)
}

func (l *ledger) compact(now time.Time) {
	if l.retention <= 0 || len(l.entries) == 0 {
		return
	}
	cutoff := now.Add(-l.retention)
	if !l.entries[0].Timestamp.Before(cutoff) {
		return
	}

	kept := l.entries[:0]
	for _, inc := range l.entries {
		if !inc.Timestamp.Before(cutoff) {
			kept = append(kept, inc)
		}
	}
	l.entries = kept
	l.reindex()
}

func (l *ledger) reindex() {
	l.bySupplier = make(map[string][]int, len(l.bySupplier))
	for i, inc := range l.entries {
		l.bySupplier[inc.SupplierID] = append(l.bySupplier[inc.SupplierID], i)
	}
}

// since returns incidents with Timestamp >= cutoff, newest first with ties in
// reverse append order. An empty supplierID matches every supplier.
func (l *ledger) since(supplierID string, cutoff time.Time) []Incident {
	var out []Incident
	if supplierID == "" {
		for i := len(l.entries) - 1; i >= 0; i-- {
			if inc := l.entries[i]; !inc.Timestamp.Before(cutoff) {
				out = append(out, inc)
			}
		}
	} else {
		idxs := l.bySupplier[supplierID]
		for i := len(idxs) - 1; i >= 0; i-- {
			if inc := l.entries[idxs[i]]; !inc.Timestamp.Before(cutoff) {
				out = append(out, inc)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func (l *ledger) all() []Incident {
	return append([]Incident(nil), l.entries...)
}

func (l *ledger) restore(incidents []Incident, now time.Time) {
	sorted := append([]Incident(nil), incidents...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	l.entries = sorted
	l.reindex()
	l.compact(now)
}
