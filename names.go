package farc

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"strings"
)

// NameRecovery summarizes a list-file pass.
type NameRecovery struct {
	// Matched is the number of names attached to previously unnamed entries.
	Matched int

	// Missed holds the names that matched no unnamed entry, in input order.
	Missed []string
}

// CheckFileNames runs CheckFileName for every name in seq and returns how
// many names were recovered.
func (a *Archive) CheckFileNames(seq iter.Seq[string]) (int, error) {
	matched := 0
	for name := range seq {
		ok, err := a.CheckFileName(name)
		if err != nil {
			return matched, err
		}
		if ok {
			matched++
		}
	}
	return matched, nil
}

// CheckListFile recovers names from a list file.
//
// Each non-empty line holds a path; only the part after the last '/' is used
// as the entry name. Carriage returns are trimmed so CRLF files work.
func (a *Archive) CheckListFile(r io.Reader) (NameRecovery, error) {
	var rec NameRecovery
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		name := line[strings.LastIndexByte(line, '/')+1:]
		if name == "" {
			continue
		}
		ok, err := a.CheckFileName(name)
		if err != nil {
			return rec, err
		}
		if ok {
			rec.Matched++
			continue
		}
		a.log().Debug("list file name matched no entry", "name", name)
		rec.Missed = append(rec.Missed, name)
	}
	if err := sc.Err(); err != nil {
		return rec, fmt.Errorf("read list file: %w", err)
	}
	return rec, nil
}

// ListFileName returns the list file name conventionally shipped next to an
// archive: the archive name with its extension replaced by ".lst".
func ListFileName(archiveName string) string {
	ext := filepath.Ext(archiveName)
	return strings.TrimSuffix(archiveName, ext) + ".lst"
}
