package manifest

import (
	"bytes"
	"os"

	"github.com/akedrou/textdiff"

	"github.com/conneroisu/pkgshape/internal/errors"
)

// Changed reports whether the manifest's serialized form differs from the
// bytes read at load time.
func (m *Manifest) Changed() (bool, error) {
	encoded, err := m.Encode()
	if err != nil {
		return false, errors.NewPackageError(m.path, "serializing "+FileName, err)
	}

	return !bytes.Equal(encoded, m.raw), nil
}

// Write serializes the manifest and writes it to disk only when the content
// differs byte-for-byte from what was read. The whole new content is computed
// before anything touches the file, so a failure never leaves a partially
// mutated manifest behind.
func (m *Manifest) Write() (bool, error) {
	encoded, err := m.Encode()
	if err != nil {
		return false, errors.NewPackageError(m.path, "serializing "+FileName, err)
	}

	if bytes.Equal(encoded, m.raw) {
		return false, nil
	}

	if err := os.WriteFile(m.path, encoded, 0644); err != nil {
		return false, errors.NewPackageError(m.path, "writing "+FileName, err)
	}
	m.raw = encoded

	return true, nil
}

// Check reports whether a write would change the on-disk manifest, without
// ever writing. The returned diff is a unified diff from the on-disk content
// to the computed content, for CI output.
func (m *Manifest) Check() (bool, string, error) {
	encoded, err := m.Encode()
	if err != nil {
		return false, "", errors.NewPackageError(m.path, "serializing "+FileName, err)
	}

	if bytes.Equal(encoded, m.raw) {
		return false, "", nil
	}

	diff := textdiff.Unified(FileName, FileName+" (expected)", string(m.raw), string(encoded))

	return true, diff, nil
}
