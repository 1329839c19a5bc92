package assets

import "strconv"

// Handle identifies one resource file for the lifetime of a Server. Handles are comparable
// and cheap to copy; the zero value is invalid.
type Handle struct {
	id uint64
}

// NewHandle returns the handle with the given id. Servers allocate handles themselves; this
// is for loaders that are not backed by a Server and for tests.
func NewHandle(id uint64) Handle {
	return Handle{id: id}
}

// Valid reports whether h was allocated.
func (h Handle) Valid() bool {
	return h.id != 0
}

// ID returns the numeric id.
func (h Handle) ID() uint64 {
	return h.id
}

func (h Handle) String() string {
	return "asset#" + strconv.FormatUint(h.id, 10)
}

// EventKind classifies asset events.
type EventKind int

const (
	// Discovered is queued as soon as a new file path becomes known, before its content is read.
	Discovered EventKind = iota
	// Created is queued when a file's content becomes available for the first time.
	Created
	// Modified is queued when a file's content was re-read.
	Modified
	// Removed is queued when a file disappeared.
	Removed
)

func (k EventKind) String() string {
	switch k {
	case Discovered:
		return "discovered"
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Event is a change notification drained from a Server.
type Event struct {
	Kind   EventKind
	Handle Handle
	Path   string
}
