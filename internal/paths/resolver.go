package paths

import (
	"os"
	"path"
	"path/filepath"
)

// Resolver probes the filesystem under a package root to discover which
// extension a logical file actually has. Source and build directories may
// use different extensions per module format, so the extension can never be
// derived from the path alone.
type Resolver struct {
	root string
}

// NewResolver creates a resolver rooted at the package directory.
func NewResolver(root string) *Resolver {
	return &Resolver{root: root}
}

// Resolve probes dir (relative to the package root) for stem with each
// candidate extension in order, returning the first root-relative path whose
// file exists. Candidate order is the tie-break when multiple files exist.
func (r *Resolver) Resolve(dir, stem string, candidates []string) (string, bool) {
	for _, ext := range candidates {
		rel := path.Join(dir, stem+ext)
		if fileExists(filepath.Join(r.root, filepath.FromSlash(rel))) {
			return rel, true
		}
	}

	return "", false
}

func fileExists(p string) bool {
	info, err := os.Stat(p)

	return err == nil && !info.IsDir()
}
