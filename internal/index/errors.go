package index

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is matched by every ConflictError.
	ErrConflict = errors.New("farc: conflicting entry")

	// ErrInconsistent is returned when the index maps disagree with each other.
	// Add keeps the maps consistent, so this indicates a bug.
	ErrInconsistent = errors.New("farc: inconsistent index")
)

// ConflictKind identifies which identities collided during an insert.
type ConflictKind int

const (
	// ConflictName means the name is already registered.
	ConflictName ConflictKind = iota

	// ConflictHash means the hash is already registered to an unnamed entry.
	ConflictHash

	// ConflictHashExistingNamed means the hash is registered to a named entry
	// and the new entry has no name.
	ConflictHashExistingNamed

	// ConflictHashBothNamed means the hash is registered to a named entry and
	// the new entry is named too.
	ConflictHashBothNamed
)

// String returns a short label for the kind.
func (k ConflictKind) String() string {
	switch k {
	case ConflictName:
		return "name"
	case ConflictHash:
		return "hash"
	case ConflictHashExistingNamed:
		return "hash (existing named)"
	case ConflictHashBothNamed:
		return "hash (both named)"
	default:
		return fmt.Sprintf("ConflictKind(%d)", int(k))
	}
}

// ConflictError reports a rejected insert.
//
// Name is the name of the entry being added, if any. ExistingName is the name
// of the entry already holding the hash, if any.
type ConflictError struct {
	Kind         ConflictKind
	Hash         uint32
	Name         string
	ExistingName string
}

func (e *ConflictError) Error() string {
	switch e.Kind {
	case ConflictName:
		return fmt.Sprintf("farc: name %q already present", e.Name)
	case ConflictHashExistingNamed:
		return fmt.Sprintf("farc: hash %08x already present with name %q", e.Hash, e.ExistingName)
	case ConflictHashBothNamed:
		return fmt.Sprintf("farc: hash %08x of %q already present with name %q", e.Hash, e.Name, e.ExistingName)
	default:
		return fmt.Sprintf("farc: hash %08x already present", e.Hash)
	}
}

// Unwrap returns ErrConflict so errors.Is matches every conflict.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}
