// Package index provides the dual-keyed entry index for FARC archives.
//
// Every entry is identified by the CRC-32 hash of its name and, when known,
// by the name itself. Entries are kept in insertion order and are never
// removed; only a missing name may be filled in later by CheckName.
package index
