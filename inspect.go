package farc

import (
	"context"
	_ "crypto/sha256" // registers sha256 for go-digest
	"fmt"

	"github.com/opencontainers/go-digest"
)

// EntryInfo describes one entry together with a digest of its content.
type EntryInfo struct {
	Hash   uint32
	Name   *string
	Start  uint32
	Length uint32

	// Digest is the sha256 digest of the content.
	Digest digest.Digest
}

// Inspect returns every entry in table order with a content digest.
//
// Content is streamed through the digester, so memory use does not depend on
// entry sizes.
func (a *Archive) Inspect(ctx context.Context) ([]EntryInfo, error) {
	entries := a.Entries()
	infos := make([]EntryInfo, 0, len(entries))
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e := &entries[i]
		v, err := a.open(e)
		if err != nil {
			return nil, err
		}
		d, err := digest.SHA256.FromReader(v)
		if err != nil {
			return nil, fmt.Errorf("digest entry %08x: %w", e.NameHash, err)
		}
		infos = append(infos, EntryInfo{
			Hash:   e.NameHash,
			Name:   e.NamePtr(),
			Start:  e.Start,
			Length: e.Length,
			Digest: d,
		})
	}
	return infos, nil
}
