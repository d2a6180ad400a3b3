package models

import (
	"sort"
	"time"
)

// Replica is one device's full local copy of the drink log, ordered newest
// first. Ordering ties on identical timestamps are broken by Id so that a
// given set of entries always serializes to the same bytes.
type Replica struct {
	Entries []Entry `json:"entries"`
}

// Len returns the number of entries.
func (r Replica) Len() int { return len(r.Entries) }

// Contains reports whether an entry with the given id is present.
func (r Replica) Contains(id string) bool {
	for _, e := range r.Entries {
		if e.Id == id {
			return true
		}
	}
	return false
}

// Merge unions the replica with the given entries by Id and returns the
// re-sorted result. Entries already present win (content is immutable, so
// either copy is the same); duplicates and redeliveries are therefore
// harmless, and merge order does not matter.
func (r Replica) Merge(entries ...Entry) Replica {
	seen := make(map[string]struct{}, len(r.Entries)+len(entries))
	merged := make([]Entry, 0, len(r.Entries)+len(entries))

	for _, e := range r.Entries {
		if _, ok := seen[e.Id]; ok {
			continue
		}
		seen[e.Id] = struct{}{}
		merged = append(merged, e)
	}
	for _, e := range entries {
		if _, ok := seen[e.Id]; ok {
			continue
		}
		seen[e.Id] = struct{}{}
		merged = append(merged, e)
	}

	sortEntries(merged)
	return Replica{Entries: merged}
}

// Union merges two whole replicas.
func (r Replica) Union(other Replica) Replica {
	return r.Merge(other.Entries...)
}

// Since returns the entries logged after the given instant (exclusive),
// preserving order.
func (r Replica) Since(t time.Time) []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.LoggedAt.After(t) {
			out = append(out, e)
		}
	}
	return out
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].LoggedAt.Equal(entries[j].LoggedAt) {
			return entries[i].LoggedAt.After(entries[j].LoggedAt)
		}
		return entries[i].Id < entries[j].Id
	})
}
