package store

import "timed-cache/internal/timedmap"

// Entry is the read-only view of a stored value returned by List.
//
// Design choices:
// - Deadlines are clock seconds, the same unit the map expires on.
// - Constant entries carry no deadline.
type Entry struct {
	Value     string `json:"value"`
	Constant  bool   `json:"constant"`
	ExpiresAt uint64 `json:"expires_at,omitempty"`
}

func newEntry(value string, status timedmap.EntryStatus) Entry {
	at, expirable := status.Deadline()
	return Entry{
		Value:     value,
		Constant:  !expirable,
		ExpiresAt: at,
	}
}
