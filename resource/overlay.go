package resource

import (
	"bytes"
	"debug/pe"
)

// peOverlay returns the data appended behind the last section of a PE image,
// which is where the payload lives.
// Returns nil if exe is not a PE image or carries no appended data.
func peOverlay(exe []byte) []byte {
	f, err := pe.NewFile(bytes.NewReader(exe))
	if err != nil {
		return nil
	}
	defer f.Close()

	var end int64
	for _, s := range f.Sections {
		if e := int64(s.Offset) + int64(s.Size); e > end {
			end = e
		}
	}
	if end == 0 || end >= int64(len(exe)) {
		return nil
	}
	return exe[end:]
}

// withOverlay re-appends an overlay that was dropped while rewriting the image.
func withOverlay(image, overlay []byte) []byte {
	if len(overlay) == 0 || bytes.HasSuffix(image, overlay) {
		return image
	}
	return append(image, overlay...)
}
