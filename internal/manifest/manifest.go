package manifest

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/conneroisu/pkgshape/internal/errors"
)

// FileName is the conventional manifest file name.
const FileName = "package.json"

// Fields owned by pkgshape. Every synthesis pass sets or deletes each of
// them; all other manifest content is preserved untouched.
const (
	FieldMain    = "main"
	FieldModule  = "module"
	FieldTypes   = "types"
	FieldTypings = "typings"
	FieldBin     = "bin"
	FieldExports = "exports"
)

// Manifest is a parsed package.json tied to its on-disk location. The raw
// bytes read at load time are kept for byte-level no-op detection.
type Manifest struct {
	doc  *Object
	path string
	raw  []byte
}

// Load reads and parses the manifest inside pkgDir.
func Load(pkgDir string) (*Manifest, error) {
	path := filepath.Join(pkgDir, FileName)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewPackageError(pkgDir, "reading "+FileName, err)
	}

	m, err := Parse(raw)
	if err != nil {
		return nil, errors.NewPackageError(pkgDir, "parsing "+FileName, err)
	}
	m.path = path

	return m, nil
}

// Parse parses manifest bytes without binding them to a file.
func Parse(raw []byte) (*Manifest, error) {
	doc := NewObject()
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, err
	}

	return &Manifest{doc: doc, raw: raw}, nil
}

// Path returns the manifest's file path, empty for parsed-only manifests.
func (m *Manifest) Path() string {
	return m.path
}

// Doc returns the underlying ordered document.
func (m *Manifest) Doc() *Object {
	return m.doc
}

// Name returns the package name.
func (m *Manifest) Name() string {
	name, _ := m.doc.GetString("name")

	return name
}

// Get returns a top-level field value.
func (m *Manifest) Get(key string) (any, bool) {
	return m.doc.Get(key)
}

// Set sets a top-level field, preserving its position when already present.
func (m *Manifest) Set(key string, value any) {
	m.doc.Set(key, value)
}

// Delete removes a top-level field.
func (m *Manifest) Delete(key string) bool {
	return m.doc.Delete(key)
}

// TypesKey returns the declaration field name the author chose ("types" or
// "typings"), or empty when the manifest never opted into type declarations.
// pkgshape never adds a types capability the author did not declare.
func (m *Manifest) TypesKey() string {
	if _, ok := m.doc.Get(FieldTypes); ok {
		return FieldTypes
	}
	if _, ok := m.doc.Get(FieldTypings); ok {
		return FieldTypings
	}

	return ""
}

// Bin returns the bin field: a string, an *Object of name to path, or nil.
func (m *Manifest) Bin() any {
	v, _ := m.doc.Get(FieldBin)

	return v
}

// IsPureCLI reports whether this is a pure CLI package: an executable entry
// field is present and no library entry field is. Such a package has no
// library surface to enumerate.
func (m *Manifest) IsPureCLI() bool {
	if m.Bin() == nil {
		return false
	}
	for _, key := range []string{FieldMain, FieldModule, FieldTypes, FieldTypings} {
		if _, ok := m.doc.Get(key); ok {
			return false
		}
	}

	return true
}

// Encode serializes the manifest with two-space indentation and a trailing
// newline, the fixed published form.
func (m *Manifest) Encode() ([]byte, error) {
	return EncodeObject(m.doc)
}

// EncodeObject serializes any ordered object in the published manifest form:
// two-space indent, trailing newline, no HTML escaping.
func EncodeObject(doc *Object) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
