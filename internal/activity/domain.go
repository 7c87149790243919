package activity

import (
	"errors"
	"time"
)

// Kind enumerates the recorded action kinds.
type Kind string

const (
	// KindAdd records a positive stock adjustment.
	KindAdd Kind = "ADD"
	// KindRemove records a negative stock adjustment.
	KindRemove Kind = "REMOVE"
	// KindTransfer records a stock movement between locations.
	KindTransfer Kind = "TRANSFER"
	// KindCreate records entity creation.
	KindCreate Kind = "CREATE"
	// KindUpdate records entity updates.
	KindUpdate Kind = "UPDATE"
	// KindDelete records entity deletion.
	KindDelete Kind = "DELETE"
)

// Entry is an append-only audit record. Entries are never mutated or removed
// through normal flow; reads use a bounded recency window.
type Entry struct {
	ID         int64
	Kind       Kind
	Subject    string
	Detail     string
	ActorID    int64
	ActorName  string
	OccurredAt time.Time
}

// ErrIncomplete indicates a record missing required fields.
var ErrIncomplete = errors.New("activity: entry requires kind and subject")
