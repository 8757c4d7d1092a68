// Package ignorefile maintains a marker-delimited block of generated entries
// inside a .gitignore without disturbing the user's own lines.
package ignorefile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conneroisu/pkgshape/internal/errors"
)

const (
	// FileName is the ignore file the managed block lives in.
	FileName = ".gitignore"

	beginMarker = "# pkgshape:begin generated"
	endMarker   = "# pkgshape:end generated"
)

// Update rewrites the managed block in dir's ignore file to hold exactly the
// given entries, sorted and de-duplicated. An existing block is replaced in
// place; otherwise the block is appended after one blank line. A missing
// ignore file is created. With no entries the block is removed instead.
func Update(dir string, entries []string) error {
	if len(entries) == 0 {
		return Remove(dir)
	}

	path := filepath.Join(dir, FileName)
	lines, _, err := readLines(path)
	if err != nil {
		return err
	}

	block := append([]string{beginMarker}, dedupeSorted(entries)...)
	block = append(block, endMarker)

	start, end, found := findBlock(lines)
	if found {
		lines = append(lines[:start], append(block, lines[end+1:]...)...)
	} else {
		if len(lines) > 0 && lines[len(lines)-1] != "" {
			lines = append(lines, "")
		}
		lines = append(lines, block...)
	}

	return writeLines(path, lines)
}

// Remove deletes the managed block, collapsing the blank line that separated
// it from the user's entries. A file without a block is left untouched; a
// file that becomes empty is removed entirely.
func Remove(dir string) error {
	path := filepath.Join(dir, FileName)
	lines, hadFile, err := readLines(path)
	if err != nil || !hadFile {
		return err
	}

	start, end, found := findBlock(lines)
	if !found {
		return nil
	}

	lines = append(lines[:start], lines[end+1:]...)
	switch {
	case start > 0 && start == len(lines) && lines[start-1] == "":
		lines = lines[:start-1]
	case start > 0 && start < len(lines) && lines[start-1] == "" && lines[start] == "":
		lines = append(lines[:start-1], lines[start:]...)
	case start == 0 && len(lines) > 0 && lines[0] == "":
		lines = lines[1:]
	}

	if len(lines) == 0 {
		if err := os.Remove(path); err != nil {
			return errors.NewPackageError(dir, "removing empty ignore file", err)
		}

		return nil
	}

	return writeLines(path, lines)
}

// Entries returns the managed block's current entries, or nil when the file
// or block is absent.
func Entries(dir string) ([]string, error) {
	lines, hadFile, err := readLines(filepath.Join(dir, FileName))
	if err != nil || !hadFile {
		return nil, err
	}

	start, end, found := findBlock(lines)
	if !found {
		return nil, nil
	}

	return append([]string{}, lines[start+1:end]...), nil
}

func findBlock(lines []string) (start, end int, found bool) {
	start = -1
	for i, line := range lines {
		switch strings.TrimSpace(line) {
		case beginMarker:
			if start == -1 {
				start = i
			}
		case endMarker:
			if start != -1 {
				return start, i, true
			}
		}
	}

	return 0, 0, false
}

func dedupeSorted(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	sort.Strings(out)

	return out
}

func readLines(path string) ([]string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}

		return nil, false, errors.NewPackageError(path, "reading ignore file", err)
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		lines = nil
	}

	return lines, true, nil
}

func writeLines(path string, lines []string) error {
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.NewPackageError(path, "writing ignore file", err)
	}

	return nil
}
