package texengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// CLIEngine invokes an external TeX-engine binary as a subprocess. This
// is the concrete boundary for the "opaque library: accepts input
// buffer, produces a set of named byte outputs" contract spec.md §1 and
// §9 describe — there is no Go package in this repo's dependency pack
// that embeds such an engine, so external-process invocation is the
// idiom, the same way this repo treats the job queue, bucket, and
// document repo as out-of-process collaborators.
type CLIEngine struct {
	BinaryPath string
}

// NewCLIEngine wraps the engine binary at binaryPath.
func NewCLIEngine(binaryPath string) *CLIEngine {
	return &CLIEngine{BinaryPath: binaryPath}
}

// Run writes input and opts to a scratch directory, invokes the engine
// binary against them, and collects its named outputs. Not safe for
// concurrent use against the same process-global engine; callers go
// through Runner.
func (e *CLIEngine) Run(ctx context.Context, input []byte, opts Options) (Result, error) {
	scratch, err := os.MkdirTemp("", "texengine-*")
	if err != nil {
		return Result{}, fmt.Errorf("texengine: scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	inputPath := filepath.Join(scratch, "input.tex")
	if err := os.WriteFile(inputPath, input, 0o644); err != nil {
		return Result{}, fmt.Errorf("texengine: write input: %w", err)
	}

	optsJSON, err := json.Marshal(opts)
	if err != nil {
		return Result{}, fmt.Errorf("texengine: marshal options: %w", err)
	}
	optsPath := filepath.Join(scratch, "opts.json")
	if err := os.WriteFile(optsPath, optsJSON, 0o644); err != nil {
		return Result{}, fmt.Errorf("texengine: write options: %w", err)
	}

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = filepath.Join(scratch, "out")
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return Result{}, fmt.Errorf("texengine: create scratch output dir: %w", err)
		}
	}

	cmd := exec.CommandContext(ctx, e.BinaryPath, "--input", inputPath, "--options", optsPath, "--out", outDir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("texengine: %s: %w: %s", e.BinaryPath, err, stderr.String())
	}

	result := Result{Files: map[string][]byte{}}
	if opts.SuppressFileOutput {
		for _, name := range []string{"assets.json", "pedia.txt"} {
			data, err := os.ReadFile(filepath.Join(outDir, name))
			if err != nil {
				continue // caller treats a missing output as a Pass1Engine failure
			}
			result.Files[name] = data
		}
	}
	if opts.EmitHTMLFiles || opts.EmitAssetFiles {
		entries, err := os.ReadDir(outDir)
		if err != nil {
			return Result{}, fmt.Errorf("texengine: scan output dir: %w", err)
		}
		for _, de := range entries {
			if !de.IsDir() {
				result.WrittenFiles = append(result.WrittenFiles, de.Name())
			}
		}
	}
	return result, nil
}
