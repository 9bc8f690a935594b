package farc

import (
	"errors"
	"fmt"

	"github.com/meigma/farc/internal/index"
	"github.com/meigma/farc/partition"
)

// Sentinel errors returned while parsing.
var (
	// ErrInvalidMagic is returned when the file does not start with "FARC".
	ErrInvalidMagic = errors.New("farc: invalid magic")

	// ErrHeader is returned when the outer header cannot be read.
	ErrHeader = errors.New("farc: cannot read header")

	// ErrUnsupportedSubType is returned for a SIR0 sub-type other than 4 or 5.
	ErrUnsupportedSubType = errors.New("farc: unsupported sir0 sub-type")

	// ErrUnsupportedTableKind is returned for a table kind other than 0 or 1.
	ErrUnsupportedTableKind = errors.New("farc: unsupported table kind")

	// ErrHeaderTooShort is returned when the SIR0 data header is under 12 bytes.
	ErrHeaderTooShort = errors.New("farc: sir0 header too short")

	// ErrInvalidUTF16 is returned when an entry name is not valid UTF-16.
	ErrInvalidUTF16 = errors.New("farc: invalid UTF-16 name")

	// ErrOffsetOverflow is matched by OffsetOverflowError.
	ErrOffsetOverflow = errors.New("farc: entry offset overflows 32 bits")

	// ErrTooManyEntries is returned when the table exceeds the configured limit.
	ErrTooManyEntries = errors.New("farc: too many entries")

	// ErrPartition is returned when a sub-range of the source cannot be opened.
	ErrPartition = errors.New("farc: cannot create partition")

	// ErrCodec is returned when the embedded SIR0 container is malformed.
	ErrCodec = errors.New("farc: invalid sir0 container")
)

// Sentinel errors returned by lookups and writes.
var (
	// ErrNotFound is matched by NotFoundError.
	ErrNotFound = errors.New("farc: entry not found")

	// ErrTooLarge is returned when a size or offset does not fit the 32-bit on-disk fields.
	ErrTooLarge = errors.New("farc: archive too large")

	// ErrDuplicateName is returned by Extract when two entries map to one file name.
	ErrDuplicateName = errors.New("farc: duplicate file name")
)

// Errors re-exported from internal packages.
var (
	// ErrConflict is returned when two entries share a name or a hash.
	ErrConflict = index.ErrConflict

	// ErrInconsistent indicates the name and hash maps disagree.
	ErrInconsistent = index.ErrInconsistent

	// ErrPoisoned is returned once the shared source panicked while locked.
	ErrPoisoned = partition.ErrPoisoned
)

type (
	// ConflictError describes a duplicate name or hash.
	ConflictError = index.ConflictError

	// ConflictKind identifies the colliding identities of a ConflictError.
	ConflictKind = index.ConflictKind
)

// Conflict kinds.
const (
	ConflictName              = index.ConflictName
	ConflictHash              = index.ConflictHash
	ConflictHashExistingNamed = index.ConflictHashExistingNamed
	ConflictHashBothNamed     = index.ConflictHashBothNamed
)

// OffsetOverflowError reports a data offset that overflows when added to the
// archive's data base offset.
type OffsetOverflowError struct {
	Base   uint32
	Offset uint32
}

func (e *OffsetOverflowError) Error() string {
	return fmt.Sprintf("farc: entry offset overflows 32 bits (%#x+%#x)", e.Base, e.Offset)
}

// Unwrap returns ErrOffsetOverflow.
func (e *OffsetOverflowError) Unwrap() error {
	return ErrOffsetOverflow
}

// NotFoundError reports a lookup miss. Name is set for lookups by name,
// otherwise Hash identifies the requested entry.
type NotFoundError struct {
	Name   string
	Hash   uint32
	ByName bool
}

func (e *NotFoundError) Error() string {
	if e.ByName {
		return fmt.Sprintf("farc: file %q does not exist", e.Name)
	}
	return fmt.Sprintf("farc: file with hash %08x does not exist", e.Hash)
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
