// Package assembly builds artifacts: a copy of the base interpreter followed by
// marker-delimited segments for the script, its assets and additional data files.
package assembly

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kozakscript/bundler"
	"github.com/kozakscript/bundler/internal"
)

const compatibleVersion = "v1"

// PrintlnFunc is used for logging the assembly progress.
type PrintlnFunc func(format string, args ...interface{})

// DataMapping requests a data file to be embedded.
type DataMapping struct {
	Source      string // file to read at bundle time
	Destination string // path the runtime restores the file to
}

// ParseDataMapping parses a "source;destination" pair.
func ParseDataMapping(s string) (DataMapping, error) {
	src, dst, ok := strings.Cut(s, ";")
	if !ok || src == "" || dst == "" {
		return DataMapping{}, fmt.Errorf("invalid data mapping %q (format: 'source;destination')", s)
	}
	return DataMapping{Source: src, Destination: dst}, nil
}

// Request describes what to bundle.
type Request struct {
	Script string
	Icon   string // optional; not used by the Assembler
	Data   []DataMapping
}

// Stage reports the artifact size after an assembly step.
type Stage struct {
	Name string
	Size int64 // cumulative artifact size in bytes
}

// Artifact is the result of a successful assembly.
type Artifact struct {
	Path     string
	Stages   []Stage
	Manifest internal.Manifest // embedded data files; nil if the request had none
	Warnings []error           // non-fatal problems, all of kind bundler.KindWarning
}

// Size returns the final artifact size.
func (a *Artifact) Size() int64 {
	if len(a.Stages) == 0 {
		return 0
	}
	return a.Stages[len(a.Stages)-1].Size
}

// Assembler builds artifacts from a base interpreter.
type Assembler struct {
	Interpreter string // path of the base interpreter
	OutputDir   string // directory receiving the artifact
	Extension   string // artifact file extension, including the dot

	// RequireReader makes Assemble reject interpreters that do not link the payload reader.
	RequireReader bool

	Scanner Scanner     // optional; discovers assets referenced by the script
	Logger  PrintlnFunc // optional; reports progress
}

// OutputPath returns the artifact path for the given script.
func (a *Assembler) OutputPath(script string) string {
	base := filepath.Base(script)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(a.OutputDir, stem+a.Extension)
}

// Assemble creates the artifact for the given request.
//
// The base interpreter is copied verbatim, followed by the script segment, one segment per
// asset found by the Scanner and, if the request contains data mappings, the data file
// segments and a manifest describing them.
// Missing assets and data files are reported as warnings and skipped.
//
// The artifact is written to a temporary file first and only replaces the output path
// after all segments were written. No file is created if the interpreter or script is missing.
func (a *Assembler) Assemble(req Request) (*Artifact, error) {
	logger := a.Logger
	if logger == nil {
		logger = func(string, ...interface{}) {}
	}

	if !isFile(a.Interpreter) {
		return nil, bundler.Errorf(bundler.KindConfig, "interpreter not found at %q", a.Interpreter)
	}
	if !isFile(req.Script) {
		return nil, bundler.Errorf(bundler.KindInput, "script not found: %q", req.Script)
	}

	base, err := os.Open(a.Interpreter)
	if err != nil {
		return nil, bundler.Errorf(bundler.KindConfig, "open interpreter: %w", err)
	}
	defer base.Close()
	if err := verifyInterpreter(base, a.RequireReader); err != nil {
		return nil, bundler.Errorf(bundler.KindConfig, "verify interpreter %q: %w", a.Interpreter, err)
	}

	art := &Artifact{Path: a.OutputPath(req.Script)}
	warn := func(format string, args ...interface{}) {
		w := bundler.Errorf(bundler.KindWarning, format, args...)
		art.Warnings = append(art.Warnings, w)
		logger("[WARNING] %s", w)
	}

	var assets []string
	if a.Scanner != nil {
		if assets, err = a.Scanner.Scan(req.Script); err != nil {
			warn("could not scan for assets: %s", err)
		}
	}

	if err := os.MkdirAll(a.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(a.OutputDir, "."+filepath.Base(art.Path)+"-*")
	if err != nil {
		return nil, fmt.Errorf("create artifact: %w", err)
	}
	done := false
	defer func() {
		if !done {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	out := &countingWriter{w: tmp}
	stage := func(name string) {
		art.Stages = append(art.Stages, Stage{Name: name, Size: out.n})
		logger("  * Size now: %d bytes", out.n)
	}

	// Interpreter
	logger("Copying base interpreter %q", a.Interpreter)
	if _, err := io.Copy(out, base); err != nil {
		return nil, fmt.Errorf("copy interpreter: %w", err)
	}
	stage("interpreter")

	// Script
	logger("Embedding script %q", req.Script)
	script, err := os.Open(req.Script)
	if err != nil {
		return nil, bundler.Errorf(bundler.KindInput, "open script: %w", err)
	}
	_, err = internal.WriteSegment(out, internal.Script, script)
	_ = script.Close()
	if err != nil {
		return nil, fmt.Errorf("write script: %w", err)
	}
	stage("script")

	// Assets
	if len(assets) > 0 {
		logger("Bundling %d assets", len(assets))
		for _, path := range assets {
			n, err := writeFile(out, internal.Asset, path)
			if err != nil {
				return nil, fmt.Errorf("write asset %q: %w", path, err)
			}
			if n < 0 {
				warn("asset not found: %q", path)
				continue
			}
			logger("  * %s (%d bytes)", path, n)
		}
		stage("assets")
	}

	// Data files
	if len(req.Data) > 0 {
		logger("Bundling %d additional data file(s)", len(req.Data))
		art.Manifest = internal.Manifest{}
		for _, m := range req.Data {
			n, err := writeFile(out, internal.DataFile, m.Source)
			if err != nil {
				return nil, fmt.Errorf("write data file %q: %w", m.Source, err)
			}
			if n < 0 {
				warn("data file not found: %q", m.Source)
				continue
			}
			logger("  * %s -> %s (%d bytes)", m.Source, m.Destination, n)
			art.Manifest = append(art.Manifest, internal.Record{
				Destination: m.Destination,
				Size:        n,
				Original:    m.Source,
			})
		}

		body, err := art.Manifest.Marshal()
		if err != nil {
			return nil, fmt.Errorf("marshal manifest: %w", err)
		}
		if _, err := internal.WriteSegment(out, internal.ManifestSegment, bytes.NewReader(body)); err != nil {
			return nil, fmt.Errorf("write manifest: %w", err)
		}
		stage("data files")
	}

	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0755); err != nil {
		return nil, fmt.Errorf("chmod artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), art.Path); err != nil {
		return nil, fmt.Errorf("move artifact to %q: %w", art.Path, err)
	}
	done = true
	return art, nil
}

// writeFile embeds a file as a segment of the given kind and returns the content size.
// Returns -1 without writing anything if the file cannot be opened.
func writeFile(out io.Writer, kind internal.Kind, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return -1, nil
	}
	defer f.Close()
	if info, err := f.Stat(); err != nil || info.IsDir() {
		return -1, nil
	}

	n, err := internal.WriteSegment(out, kind, f)
	if err != nil {
		return 0, err
	}
	return n - int64(internal.Overhead(kind)), nil
}

// verifyInterpreter ensures that the interpreter links the payload reader and does not
// carry a payload yet. Interpreters are accepted as-is unless requireReader is set.
// The reader is seeked to the beginning afterwards.
func verifyInterpreter(exe io.ReadSeeker, requireReader bool) error {
	if !requireReader {
		return nil
	}

	// Interpreters linking the reader contain its marker-string.
	// String-replace is used to ensure the marker is not present in the bundler executable.
	marker := "~~KozakScript payload reader XXX~~"
	marker = strings.ReplaceAll(marker, "XXX", compatibleVersion)

	if internal.SeekPattern(exe, []byte(marker)) == -1 {
		return errors.New("incompatible (reader marker not found)")
	}

	if _, err := exe.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if internal.SeekMarker(exe, internal.Begin(internal.Script)) != -1 {
		return errors.New("already contains an embedded payload")
	}

	_, err := exe.Seek(0, io.SeekStart)
	return err
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
