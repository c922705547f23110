// Package icon reads icon files and builds the resources executables use to carry them.
package icon

import (
	"encoding/binary"
	"fmt"

	"github.com/kozakscript/bundler"
)

const (
	headerSize     = 6  // reserved, type, count
	entrySize      = 16 // icon file directory entry
	groupEntrySize = 14 // icon group resource entry

	// TypeIcon is the type field of icon files and icon group resources.
	TypeIcon = 1
)

var le = binary.LittleEndian

// Image describes a single image inside an icon file.
type Image struct {
	Width      uint8 // 0 means 256 pixels
	Height     uint8 // 0 means 256 pixels
	ColorCount uint8 // 0 if the image does not use a palette
	Planes     uint16
	BitCount   uint16
	Size       uint32 // image data size in bytes
	Offset     uint32 // image data offset, in relation to the start of the icon file
}

// Pixels returns the image dimensions in pixels.
func (img Image) Pixels() (width, height int) {
	return pixels(img.Width), pixels(img.Height)
}

func pixels(v uint8) int {
	if v == 0 {
		return 256
	}
	return int(v)
}

// Parse decodes the header and directory of an icon file.
// Images are returned in file order.
// A malformed header or a truncated directory results in an error of kind bundler.KindFormat.
func Parse(ico []byte) ([]Image, error) {
	if len(ico) < headerSize {
		return nil, bundler.Errorf(bundler.KindFormat, "invalid icon file (%d bytes, header needs %d)", len(ico), headerSize)
	}
	reserved := le.Uint16(ico[0:])
	typ := le.Uint16(ico[2:])
	count := int(le.Uint16(ico[4:]))

	if reserved != 0 {
		return nil, bundler.Errorf(bundler.KindFormat, "invalid icon header (reserved field is %d)", reserved)
	}
	if typ != TypeIcon {
		return nil, bundler.Errorf(bundler.KindFormat, "invalid icon header (type %d is not an icon)", typ)
	}

	dirSize := headerSize + count*entrySize
	if len(ico) < dirSize {
		return nil, bundler.Errorf(bundler.KindFormat, "truncated icon directory (%d images need %d bytes, got %d)", count, dirSize, len(ico))
	}

	images := make([]Image, count)
	for i := range images {
		e := ico[headerSize+i*entrySize:]
		images[i] = Image{
			Width:      e[0],
			Height:     e[1],
			ColorCount: e[2],
			// e[3] is reserved
			Planes:   le.Uint16(e[4:]),
			BitCount: le.Uint16(e[6:]),
			Size:     le.Uint32(e[8:]),
			Offset:   le.Uint32(e[12:]),
		}
	}
	return images, nil
}

// ImageData returns the raw data of an image inside the icon file.
func ImageData(ico []byte, img Image) ([]byte, error) {
	start := uint64(img.Offset)
	end := start + uint64(img.Size)
	if end > uint64(len(ico)) {
		return nil, fmt.Errorf("image data out of range (bytes %d-%d, file has %d)", start, end, len(ico))
	}
	return ico[start:end], nil
}
