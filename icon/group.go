package icon

import (
	"github.com/kozakscript/bundler"
)

// GroupEntry is one image of an icon group resource.
// It references the image by resource identifier instead of file offset.
type GroupEntry struct {
	Width      uint8
	Height     uint8
	ColorCount uint8
	Planes     uint16
	BitCount   uint16
	Size       uint32
	ID         uint16 // identifier of the RT_ICON resource holding the image data
}

// ImageID returns the resource identifier for the image at the given index.
func ImageID(index int) uint16 {
	return uint16(index + 1)
}

// Group returns the group entries for the given images.
func Group(images []Image) []GroupEntry {
	entries := make([]GroupEntry, len(images))
	for i, img := range images {
		entries[i] = GroupEntry{
			Width:      img.Width,
			Height:     img.Height,
			ColorCount: img.ColorCount,
			Planes:     img.Planes,
			BitCount:   img.BitCount,
			Size:       img.Size,
			ID:         ImageID(i),
		}
	}
	return entries
}

// BuildGroup returns the icon group resource (RT_GROUP_ICON) for the given images.
// The image data itself must be registered separately, as RT_ICON resources named ImageID(i).
func BuildGroup(images []Image) []byte {
	buf := make([]byte, headerSize+len(images)*groupEntrySize)
	le.PutUint16(buf[0:], 0)
	le.PutUint16(buf[2:], TypeIcon)
	le.PutUint16(buf[4:], uint16(len(images)))

	for i, e := range Group(images) {
		b := buf[headerSize+i*groupEntrySize:]
		b[0] = e.Width
		b[1] = e.Height
		b[2] = e.ColorCount
		b[3] = 0 // reserved
		le.PutUint16(b[4:], e.Planes)
		le.PutUint16(b[6:], e.BitCount)
		le.PutUint32(b[8:], e.Size)
		le.PutUint16(b[12:], e.ID)
	}
	return buf
}

// ParseGroup decodes an icon group resource.
func ParseGroup(data []byte) ([]GroupEntry, error) {
	if len(data) < headerSize {
		return nil, bundler.Errorf(bundler.KindFormat, "invalid icon group (%d bytes)", len(data))
	}
	if le.Uint16(data[0:]) != 0 || le.Uint16(data[2:]) != TypeIcon {
		return nil, bundler.Errorf(bundler.KindFormat, "invalid icon group header")
	}
	count := int(le.Uint16(data[4:]))
	if len(data) < headerSize+count*groupEntrySize {
		return nil, bundler.Errorf(bundler.KindFormat, "truncated icon group (%d entries)", count)
	}

	entries := make([]GroupEntry, count)
	for i := range entries {
		b := data[headerSize+i*groupEntrySize:]
		entries[i] = GroupEntry{
			Width:      b[0],
			Height:     b[1],
			ColorCount: b[2],
			Planes:     le.Uint16(b[4:]),
			BitCount:   le.Uint16(b[6:]),
			Size:       le.Uint32(b[8:]),
			ID:         le.Uint16(b[12:]),
		}
	}
	return entries, nil
}
