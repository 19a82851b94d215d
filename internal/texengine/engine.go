// Package texengine wraps the opaque TeX engine (spec.md §1, §4.2): "an
// opaque library: accepts input buffer, produces a set of named byte
// outputs." The engine is process-global and non-reentrant; Runner
// serializes access with a single mutex held for the whole invocation,
// per the "non-reentrant engine" design note in spec.md §9 ("a
// dedicated thread... that receives compilation requests over a channel
// and returns their outputs; cooperative worker tasks submit and await").
package texengine

import (
	"context"
	"sync"
)

// Options configures one engine invocation.
type Options struct {
	// FilesystemRoot is the configured root for class files.
	FilesystemRoot string
	// ExtraSearchPaths are additional search paths for .cls files.
	ExtraSearchPaths []string
	// PassOne selects HTML output mode with pass-one semantics
	// (\passonetrue) vs. the second pass (\passonefalse).
	PassOne bool
	// SuppressFileOutput disables writing HTML files to disk (pass 1).
	SuppressFileOutput bool
	// AssetsSpecPath is the in-memory output name for the merged asset
	// spec (pass 1: "assets.json").
	AssetsSpecPath string
	// PrecomputedAssetsJSON seeds the engine with a merged asset spec
	// for pass 2 (html_precomputed_assets).
	PrecomputedAssetsJSON string
	// OutputDir is a scratch directory pass 2 writes HTML/asset files
	// into; the caller is responsible for creating and removing it.
	OutputDir string
	// EmitHTMLFiles enables HTML file emission to OutputDir (pass 2).
	EmitHTMLFiles bool
	// EmitAssetFiles enables asset (font/css) file emission to
	// OutputDir, gated on preserve_assets being set (pass 2).
	EmitAssetFiles bool
}

// Result is the set of named byte outputs an invocation produced,
// in-memory (pass 1) and/or written to Options.OutputDir (pass 2).
type Result struct {
	// Files holds in-memory outputs keyed by name, e.g. "assets.json"
	// and "pedia.txt" for pass 1.
	Files map[string][]byte
	// WrittenFiles lists files written under Options.OutputDir, for
	// pass 2's artifact scan.
	WrittenFiles []string
}

// Engine is the opaque TeX-compilation contract. Implementations MUST
// NOT be called concurrently from multiple goroutines against the same
// process; callers should go through Runner to get that guarantee.
type Engine interface {
	Run(ctx context.Context, input []byte, opts Options) (Result, error)
}

// Runner serializes access to a process-global, non-reentrant Engine. A
// worker process holds exactly one Runner, shared by all of its
// compilation slots, so at most one compilation runs at a time within
// the process (spec.md §4.2, §5).
type Runner struct {
	engine Engine
	mu     sync.Mutex
}

// NewRunner wraps engine with the process-wide mutual-exclusion guard.
func NewRunner(engine Engine) *Runner {
	return &Runner{engine: engine}
}

// Run blocks until it can acquire the engine, then invokes it. The
// caller (a worker slot's cooperative task) is expected to run this on
// an offloaded goroutine and await completion, since the invocation
// itself is blocking. Runner checks ctx only before waiting for the
// mutex; ctx is then passed to the engine, which decides whether to
// honor it (CLIEngine kills its subprocess when ctx is done).
func (r *Runner) Run(ctx context.Context, input []byte, opts Options) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Run(ctx, input, opts)
}
