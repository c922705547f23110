package internal

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// Kind identifies the content of a payload segment.
type Kind int

const (
	Script Kind = iota
	Asset
	DataFile
	ManifestSegment
)

// Kinds lists all segment kinds in protocol order.
var Kinds = []Kind{Script, Asset, DataFile, ManifestSegment}

func (k Kind) String() string {
	switch k {
	case Script:
		return "script"
	case Asset:
		return "asset"
	case DataFile:
		return "data file"
	case ManifestSegment:
		return "manifest"
	}
	return "unknown"
}

// markerTokens are the begin/end tokens per kind, without dashes and line framing.
var markerTokens = [...][2]string{
	Script:          {"KOZAK_PAYLOAD_START", "KOZAK_PAYLOAD_END"},
	Asset:           {"ASSET_START", "ASSET_END"},
	DataFile:        {"DATA_FILE_START", "DATA_FILE_END"},
	ManifestSegment: {"DATA_MANIFEST_START", "DATA_MANIFEST_END"},
}

// markerDash surrounds every token.
const markerDash = "---"

// begin and end hold the complete markers, each on its own line.
// They are assembled at runtime, so that the framed markers are never present verbatim
// inside executables that link this package.
var begin, end [len(markerTokens)][]byte

// MaxBeginSize is the size of the longest begin marker.
var MaxBeginSize int

func init() {
	for k, tokens := range markerTokens {
		begin[k] = frame(tokens[0])
		end[k] = frame(tokens[1])
		if len(begin[k]) > MaxBeginSize {
			MaxBeginSize = len(begin[k])
		}
	}
}

func frame(token string) []byte {
	return []byte(strings.Join([]string{"", markerDash + token + markerDash, ""}, "\n"))
}

// Begin returns the marker that opens a segment of the given kind.
// The returned slice must not be modified.
func Begin(k Kind) []byte {
	return begin[k]
}

// End returns the marker that closes a segment of the given kind.
// The returned slice must not be modified.
func End(k Kind) []byte {
	return end[k]
}

// Overhead returns the number of bytes the markers add to a segment of the given kind.
func Overhead(k Kind) int {
	return len(begin[k]) + len(end[k])
}

// WriteSegment writes a complete segment: begin marker, content and end marker.
// Returns the number of bytes written.
func WriteSegment(w io.Writer, k Kind, content io.Reader) (int64, error) {
	var total int64

	n, err := w.Write(begin[k])
	total += int64(n)
	if err != nil {
		return total, err
	}
	c, err := io.Copy(w, content)
	total += c
	if err != nil {
		return total, err
	}
	n, err = w.Write(end[k])
	total += int64(n)
	return total, err
}

// MatchBegin checks if the reader is positioned at a begin marker.
// If so, the reader is moved behind the marker. Otherwise, the position is restored.
func MatchBegin(in io.ReadSeeker) (Kind, bool) {
	rPos, err := in.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, false
	}

	buf := make([]byte, MaxBeginSize)
	n, _ := io.ReadFull(in, buf)
	buf = buf[:n]

	for _, k := range Kinds {
		if bytes.HasPrefix(buf, begin[k]) {
			_, err := in.Seek(rPos+int64(len(begin[k])), io.SeekStart)
			return k, err == nil
		}
	}
	_, _ = in.Seek(rPos, io.SeekStart)
	return 0, false
}

// SeekMarker reads from the reader until the end of the given marker.
// See SeekPattern.
func SeekMarker(in io.ReadSeeker, marker []byte) int64 {
	return SeekPattern(in, marker)
}

// SeekPattern reads from the reader until the search pattern was found.
// The next byte coming from the reader will be the first byte after the pattern ended.
// Returns the number of bytes (offset) that were read (including the pattern itself).
// Returns -1 if the pattern was not found; the reader position is undefined in that case.
func SeekPattern(in io.ReadSeeker, pattern []byte) int64 {
	rPos, _ := in.Seek(0, io.SeekCurrent)

	fallback := prefixTable(pattern)
	var offset int64
	r := bufio.NewReader(in)

	nIdx := 0 // #bytes we already found
	for nIdx < len(pattern) {
		b, err := r.ReadByte()
		if err != nil { // not found
			return -1
		}
		for nIdx > 0 && pattern[nIdx] != b {
			nIdx = fallback[nIdx-1]
		}
		if pattern[nIdx] == b {
			nIdx++
		}
		offset++
	}

	// seek the reader after the pattern (needed, because reading was done via the buffer)
	_, _ = in.Seek(rPos+offset, io.SeekStart)
	return offset
}

// prefixTable returns, for every prefix of the pattern, the length of its longest proper
// prefix that is also a suffix.
func prefixTable(pattern []byte) []int {
	table := make([]int, len(pattern))
	k := 0
	for i := 1; i < len(pattern); i++ {
		for k > 0 && pattern[i] != pattern[k] {
			k = table[k-1]
		}
		if pattern[i] == pattern[k] {
			k++
		}
		table[i] = k
	}
	return table
}
