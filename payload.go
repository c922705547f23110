package bundler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kozakscript/bundler/internal"
)

// readerMarker is compiled into interpreters which read their payload through this package.
// This allows the assembler to verify that a base interpreter is compatible.
var readerMarker = "~~KozakScript payload reader v1~~"

func init() {
	// Dead code that uses 'readerMarker' and is not eliminated by the compiler.
	if time.Now().Nanosecond() == -42 {
		fmt.Print(readerMarker)
	}
}

// SegmentKind identifies the content of a payload segment.
type SegmentKind = internal.Kind

// Segment kinds, in protocol order.
const (
	Script   = internal.Script
	Asset    = internal.Asset
	DataFile = internal.DataFile
	Manifest = internal.ManifestSegment
)

// Segment locates an embedded segment inside an artifact.
type Segment struct {
	Kind   SegmentKind
	Offset int64 // first content byte, in relation to the start of the artifact
	Size   int64 // content size without markers
}

// Payload represents the script, assets and data files embedded in an artifact.
//
// Segments are located by their markers. Markers are not escaped, so content that contains
// a complete marker line cannot be recovered.
type Payload struct {
	exeFile  *os.File
	segments []Segment
	manifest internal.Manifest
}

// Open returns the payload of the running executable.
func Open() (*Payload, error) {
	path, err := os.Executable()
	if err != nil {
		return nil, err
	}
	if p, err := filepath.EvalSymlinks(path); err == nil {
		// EvalSymlinks fails on Windows if the executable is located in the
		// remote SYSVOL volume from the domain controller.
		// It is therefore optional, any errors are ignored.
		path = p
	}
	return OpenExe(path)
}

// OpenExe returns the payload of an arbitrary artifact.
// An executable without payload yields an empty Payload.
func OpenExe(exePath string) (*Payload, error) {
	exe, err := os.Open(exePath)
	if err != nil {
		return nil, err
	}

	segments, err := scan(exe)
	if err != nil {
		_ = exe.Close()
		return nil, err
	}
	p := &Payload{
		exeFile:  exe,
		segments: segments,
	}
	if err := p.loadManifest(); err != nil {
		_ = exe.Close()
		return nil, err
	}
	return p, nil
}

// scan locates all segments, starting at the first script marker.
func scan(exe io.ReadSeeker) ([]Segment, error) {
	if _, err := exe.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	offset := internal.SeekMarker(exe, internal.Begin(Script))
	if offset < 0 { // no payload
		return nil, nil
	}

	var segments []Segment
	kind := Script
	for {
		n := internal.SeekMarker(exe, internal.End(kind))
		if n < 0 {
			return nil, newCorruptError("corrupt payload (unterminated %s segment)", kind)
		}
		segments = append(segments, Segment{
			Kind:   kind,
			Offset: offset,
			Size:   n - int64(len(internal.End(kind))),
		})
		offset += n

		next, ok := internal.MatchBegin(exe)
		if !ok { // end of payload, trailing data is ignored
			break
		}
		if !canFollow(kind, next) {
			return nil, newCorruptError("corrupt payload (unexpected %s segment after %s)", next, kind)
		}
		kind = next
		offset += int64(len(internal.Begin(kind)))
	}

	if kind == DataFile {
		return nil, newCorruptError("corrupt payload (missing manifest)")
	}
	return segments, nil
}

// canFollow reports whether a segment of kind next may directly follow one of kind prev.
func canFollow(prev, next SegmentKind) bool {
	if prev == Manifest || next == Script {
		return false
	}
	return next >= prev
}

func (p *Payload) loadManifest() error {
	var seg *Segment
	var data []Segment
	for i, s := range p.segments {
		switch s.Kind {
		case DataFile:
			data = append(data, s)
		case Manifest:
			seg = &p.segments[i]
		}
	}
	if seg == nil {
		return nil
	}

	body := make([]byte, seg.Size)
	if _, err := p.exeFile.ReadAt(body, seg.Offset); err != nil {
		return err
	}
	manifest, err := internal.ParseManifest(body)
	if err != nil {
		return newCorruptError("corrupt payload (invalid manifest)")
	}
	if len(manifest) != len(data) {
		return newCorruptError("corrupt payload (manifest lists %d data files, found %d)", len(manifest), len(data))
	}
	for i, r := range manifest {
		if r.Size != data[i].Size {
			return newCorruptError("corrupt payload (size mismatch for %q)", r.Destination)
		}
	}
	p.manifest = manifest
	return nil
}

// Close the artifact containing the payload.
// Close will return an error if it has already been called.
func (p *Payload) Close() error {
	return p.exeFile.Close()
}

// Segments returns all segments in artifact order.
func (p *Payload) Segments() []Segment {
	return p.segments
}

// Count returns the number of segments.
func (p *Payload) Count() int {
	return len(p.segments)
}

// Reader groups basic methods available on segments.
type Reader interface {
	io.ReadSeeker
	io.ReaderAt
	Size() int64
}

// Reader returns a reader for the content of a segment.
func (p *Payload) Reader(s Segment) Reader {
	return io.NewSectionReader(p.exeFile, s.Offset, s.Size)
}

// Script returns a reader for the embedded script.
// Returns nil if there is no payload.
func (p *Payload) Script() Reader {
	if len(p.segments) == 0 {
		return nil
	}
	return p.Reader(p.segments[0])
}

// Assets returns readers for all embedded assets, in scan order.
func (p *Payload) Assets() []Reader {
	var l []Reader
	for _, s := range p.segments {
		if s.Kind == Asset {
			l = append(l, p.Reader(s))
		}
	}
	return l
}

// EmbeddedFile is an embedded data file together with its manifest record.
type EmbeddedFile struct {
	Destination string
	Original    string
	Reader
}

// DataFiles returns all embedded data files, in manifest order.
func (p *Payload) DataFiles() []EmbeddedFile {
	var l []EmbeddedFile
	i := 0
	for _, s := range p.segments {
		if s.Kind != DataFile {
			continue
		}
		r := p.manifest[i]
		l = append(l, EmbeddedFile{
			Destination: r.Destination,
			Original:    r.Original,
			Reader:      p.Reader(s),
		})
		i++
	}
	return l
}
