package index

// Entry describes one sub-resource stored in an archive.
type Entry struct {
	// Start is the byte offset of the content from the start of the archive.
	Start uint32

	// Length is the size of the content in bytes.
	Length uint32

	// NameHash is the CRC-32 hash of the name. It is always set.
	NameHash uint32

	// Name is the human-readable name. Only meaningful when HasName is true.
	Name string

	// HasName reports whether Name is known.
	HasName bool
}

// NamePtr returns a pointer to the name, or nil when the name is unknown.
func (e *Entry) NamePtr() *string {
	if !e.HasName {
		return nil
	}
	name := e.Name
	return &name
}
