package worker

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/ttpedia/backend/internal/bucket"
	"github.com/ttpedia/backend/internal/metrics"
	"github.com/ttpedia/backend/internal/pedia"
	"github.com/ttpedia/backend/internal/texengine"
)

// Config bundles a worker slot's fixed dependencies: the process-wide
// engine runner, the Nexus client, the bucket client, and filesystem
// configuration, per spec.md §4.2 and §5.
type Config struct {
	Runner           *texengine.Runner
	Nexus            *NexusClient
	Bucket           bucket.Client
	FilesystemRoot   string
	ExtraSearchPaths []string
	// ScratchDir is the parent directory pass 2's per-job output
	// directories are created under; each is removed when its pipeline
	// run completes (spec.md §4.2 step 3).
	ScratchDir string
}

// wrapPassOne builds the pass-1 engine input, reproducing the original
// worker's exact wrapping shape (SPEC_FULL.md §C item 2): a single
// \newif declaration, \passonetrue, the preamble, the document content,
// then the postamble.
func wrapPassOne(content string) []byte {
	var b bytes.Buffer
	b.WriteString(`\newif\ifpassone\passonetrue\input{preamble}`)
	b.WriteString(content)
	b.WriteString(`\input{postamble}`)
	return b.Bytes()
}

// wrapPassTwo builds the pass-2 engine input: the same wrapping with the
// toggle flipped, the resolved-reference TeX prepended to the content so
// its `\pedia resolve**…` lookups succeed (spec.md §4.2 step 3).
func wrapPassTwo(resolvedReferenceTeX, content string) []byte {
	var b bytes.Buffer
	b.WriteString(`\newif\ifpassone\passonefalse\input{preamble}`)
	b.WriteString(resolvedReferenceTeX)
	b.WriteString(content)
	b.WriteString(`\input{postamble}`)
	return b.Bytes()
}

type pass1Outputs struct {
	assetsJSON string
	pediaTxt   string
}

// Run executes the full two-pass pipeline for one compile job: pass 1,
// the Nexus round-trip, pass 2, and artifact upload (spec.md §4.2).
func (c *Config) Run(ctx context.Context, jobID string, docID pedia.DocID, content string) (err error) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		if err != nil {
			outcome = "error"
		}
		metrics.CompileJobsTotal.WithLabelValues(outcome).Inc()
		metrics.CompileDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	p1, err := c.runPass1(ctx, content)
	if err != nil {
		return err
	}

	nexusResp, err := c.Nexus.Pass1(ctx, pedia.Pass1Request{
		DocID:      string(docID),
		JobID:      jobID,
		AssetsJSON: p1.assetsJSON,
		PediaTxt:   p1.pediaTxt,
	})
	if err != nil {
		return err
	}

	outDir, err := os.MkdirTemp(c.ScratchDir, "pass2-*")
	if err != nil {
		return fmt.Errorf("worker: create scratch dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	if err := c.runPass2(ctx, content, nexusResp, outDir); err != nil {
		return err
	}

	return c.uploadArtifacts(ctx, jobID, docID, outDir, nexusResp.PreserveAssets)
}

// runPass1 implements spec.md §4.2 step 1.
func (c *Config) runPass1(ctx context.Context, content string) (pass1Outputs, error) {
	engineStart := time.Now()
	result, err := c.Runner.Run(ctx, wrapPassOne(content), texengine.Options{
		FilesystemRoot:     c.FilesystemRoot,
		ExtraSearchPaths:   c.ExtraSearchPaths,
		PassOne:            true,
		SuppressFileOutput: true,
		AssetsSpecPath:     "assets.json",
	})
	metrics.EngineBusySeconds.Add(time.Since(engineStart).Seconds())
	if err != nil {
		return pass1Outputs{}, fmt.Errorf("%w: %v", pedia.ErrPass1Engine, err)
	}

	assetsJSON, ok := result.Files["assets.json"]
	if !ok {
		return pass1Outputs{}, fmt.Errorf("%w: pass 1 produced no assets.json", pedia.ErrPass1Engine)
	}
	pediaTxt, ok := result.Files["pedia.txt"]
	if !ok {
		return pass1Outputs{}, fmt.Errorf("%w: pass 1 produced no pedia.txt", pedia.ErrPass1Engine)
	}
	if !utf8.Valid(assetsJSON) || !utf8.Valid(pediaTxt) {
		return pass1Outputs{}, fmt.Errorf("%w: pass 1 output is not valid UTF-8", pedia.ErrPass1Engine)
	}

	return pass1Outputs{assetsJSON: string(assetsJSON), pediaTxt: string(pediaTxt)}, nil
}

// runPass2 implements spec.md §4.2 step 3.
func (c *Config) runPass2(ctx context.Context, content string, nexusResp pedia.Pass1Response, outDir string) error {
	engineStart := time.Now()
	_, err := c.Runner.Run(ctx, wrapPassTwo(nexusResp.ResolvedReferenceTeX, content), texengine.Options{
		FilesystemRoot:        c.FilesystemRoot,
		ExtraSearchPaths:      c.ExtraSearchPaths,
		PassOne:               false,
		PrecomputedAssetsJSON: nexusResp.AssetsJSON,
		OutputDir:             outDir,
		EmitHTMLFiles:         true,
		EmitAssetFiles:        nexusResp.PreserveAssets != nil,
	})
	metrics.EngineBusySeconds.Add(time.Since(engineStart).Seconds())
	if err != nil {
		return fmt.Errorf("%w: %v", pedia.ErrPass2Engine, err)
	}
	return nil
}
