// Package farc reads and writes FARC packed archives.
//
// A FARC archive bundles many sub-files in a single file without directories
// or compression. The file-allocation table lives inside an embedded SIR0
// container and addresses sub-files either by name (table kind 0) or by the
// CRC-32 hash of their UTF-16LE name (table kind 1).
//
// # Reading
//
//	a, err := farc.OpenFile("message.bin")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	content, err := a.ReadName("common.bin")
//
// Hash-only entries can be named after the fact with [Archive.CheckFileName],
// for example from a list file via [Archive.CheckListFile].
//
// Sub-files are returned as [partition.View] values. Views share the
// archive's underlying stream but each keeps its own cursor, so any number of
// them can be read concurrently.
//
// # Writing
//
// [Writer] produces hash-indexed archives:
//
//	w, err := farc.FromArchive(ctx, a)
//	if err != nil {
//	    return err
//	}
//	w.AddNamedFile("common.bin", patched)
//	_, err = w.WriteTo(out)
package farc
