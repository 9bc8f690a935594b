package index

import "fmt"

// Index maps names and name hashes to archive entries.
//
// Index is not safe for concurrent mutation; callers that run CheckName
// alongside lookups must synchronize.
type Index struct {
	entries []Entry
	byHash  map[uint32]int
	byName  map[string]int
}

// New returns an empty index.
func New() *Index {
	return &Index{
		byHash: make(map[uint32]int),
		byName: make(map[string]int),
	}
}

// AddWithName adds a named entry. The hash is derived from name.
func (idx *Index) AddWithName(name string, start, length uint32) error {
	return idx.add(Hash(name), name, true, start, length)
}

// AddWithHash adds an entry whose name is unknown.
func (idx *Index) AddWithHash(hash, start, length uint32) error {
	return idx.add(hash, "", false, start, length)
}

// add registers the name first and the hash second. A hash collision undoes
// the name registration so a failed add leaves the index untouched.
func (idx *Index) add(hash uint32, name string, named bool, start, length uint32) error {
	pos := len(idx.entries)

	if named {
		if _, ok := idx.byName[name]; ok {
			return &ConflictError{Kind: ConflictName, Hash: hash, Name: name}
		}
		idx.byName[name] = pos
	}

	if existing, ok := idx.byHash[hash]; ok {
		if named {
			delete(idx.byName, name)
		}
		return conflictFor(&idx.entries[existing], hash, name, named)
	}
	idx.byHash[hash] = pos

	idx.entries = append(idx.entries, Entry{
		Start:    start,
		Length:   length,
		NameHash: hash,
		Name:     name,
		HasName:  named,
	})
	return nil
}

func conflictFor(existing *Entry, hash uint32, name string, named bool) *ConflictError {
	err := &ConflictError{Kind: ConflictHash, Hash: hash, Name: name}
	if existing.HasName {
		err.ExistingName = existing.Name
		if named {
			err.Kind = ConflictHashBothNamed
		} else {
			err.Kind = ConflictHashExistingNamed
		}
	}
	return err
}

// CheckName attaches name to the unnamed entry whose hash matches it.
//
// It returns true when a name was recovered. A hash that is unknown or that
// belongs to an entry which already has a name yields false and no change.
func (idx *Index) CheckName(name string) (bool, error) {
	hash := Hash(name)
	pos, ok := idx.byHash[hash]
	if !ok {
		return false, nil
	}
	entry := &idx.entries[pos]
	if entry.HasName {
		return false, nil
	}
	if other, taken := idx.byName[name]; taken {
		return false, fmt.Errorf("%w: name %q maps to entry %d but its hash %08x maps to unnamed entry %d",
			ErrInconsistent, name, other, hash, pos)
	}
	entry.Name = name
	entry.HasName = true
	idx.byName[name] = pos
	return true, nil
}

// ByName returns the entry known by name.
//
// An unnamed entry whose hash matches name is returned as well. An entry that
// matches by hash but carries a different name is treated as a miss, since
// returning it could hand out the wrong resource.
func (idx *Index) ByName(name string) (Entry, bool) {
	if pos, ok := idx.byName[name]; ok {
		return idx.entries[pos], true
	}
	pos, ok := idx.byHash[Hash(name)]
	if !ok {
		return Entry{}, false
	}
	entry := idx.entries[pos]
	if entry.HasName {
		return Entry{}, false
	}
	return entry, true
}

// ByHash returns the entry with the given name hash.
func (idx *Index) ByHash(hash uint32) (Entry, bool) {
	pos, ok := idx.byHash[hash]
	if !ok {
		return Entry{}, false
	}
	return idx.entries[pos], true
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Snapshot returns a copy of all entries in insertion order.
func (idx *Index) Snapshot() []Entry {
	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)
	return out
}
