//go:build property

package synth

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/pkgshape/internal/config"
	"github.com/conneroisu/pkgshape/internal/logging"
	"github.com/conneroisu/pkgshape/internal/manifest"
	"github.com/conneroisu/pkgshape/internal/scanner"
)

// TestSynthesisProperties validates synthesis laws over generated export
// sets: applying a mode twice is a byte-level no-op, and the self-mapping is
// always the last export.
func TestSynthesisProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(2468)
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	modes := []Mode{ModeDevelopment, ModeProduction, ModeProductionTypes}

	genTree := gen.SliceOf(gen.RegexMatch(`[a-z][a-z0-9]{0,8}`)).Map(func(names []string) *scanner.Tree {
		tree := &scanner.Tree{Exports: []scanner.Export{{Key: ".", SourceRel: "index.ts"}}}
		seen := map[string]struct{}{"index": {}}
		for _, name := range names {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			tree.Exports = append(tree.Exports, scanner.Export{
				Key:       "./" + name,
				SourceRel: name + ".ts",
			})
		}

		return tree
	})

	properties.Property("applying a mode twice is a no-op", prop.ForAll(
		func(tree *scanner.Tree, modeIndex int) bool {
			mode := modes[modeIndex%len(modes)]

			m, err := manifest.Parse([]byte(`{"name": "lib", "main": "./src/index.ts", "types": "./src/index.ts"}`))
			if err != nil {
				return false
			}

			syn := New(config.Default(), t.TempDir(), logging.Nop())
			if err := syn.Apply(m, tree, mode); err != nil {
				return false
			}
			first, err := m.Encode()
			if err != nil {
				return false
			}
			if err := syn.Apply(m, tree, mode); err != nil {
				return false
			}
			second, err := m.Encode()
			if err != nil {
				return false
			}

			return string(first) == string(second)
		},
		genTree,
		gen.IntRange(0, 1000),
	))

	properties.Property("self-mapping is always the last export", prop.ForAll(
		func(tree *scanner.Tree, modeIndex int) bool {
			mode := modes[modeIndex%len(modes)]

			m, err := manifest.Parse([]byte(`{"name": "lib", "main": "./src/index.ts"}`))
			if err != nil {
				return false
			}
			if err := New(config.Default(), t.TempDir(), logging.Nop()).Apply(m, tree, mode); err != nil {
				return false
			}

			v, ok := m.Get(manifest.FieldExports)
			if !ok {
				return false
			}
			exports, ok := v.(*manifest.Object)
			if !ok {
				return false
			}
			keys := exports.Keys()

			return len(keys) > 0 && keys[len(keys)-1] == "./package.json"
		},
		genTree,
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}
