package icon

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGroup(t *testing.T) {
	images, err := Parse(buildICO(0, TypeIcon, testImages, testData))
	require.NoError(t, err)

	group := BuildGroup(images)
	require.Len(t, group, headerSize+len(images)*groupEntrySize)

	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(group[0:]))
	assert.Equal(t, uint16(TypeIcon), binary.LittleEndian.Uint16(group[2:]))
	assert.Equal(t, uint16(len(images)), binary.LittleEndian.Uint16(group[4:]))

	entries, err := ParseGroup(group)
	require.NoError(t, err)
	require.Len(t, entries, len(images))

	for i, e := range entries {
		assert.Equal(t, images[i].Width, e.Width)
		assert.Equal(t, images[i].Height, e.Height)
		assert.Equal(t, images[i].ColorCount, e.ColorCount)
		assert.Equal(t, images[i].Planes, e.Planes)
		assert.Equal(t, images[i].BitCount, e.BitCount)
		assert.Equal(t, images[i].Size, e.Size)
		assert.Equal(t, uint16(i+1), e.ID)
	}
}

func TestBuildGroup_layout(t *testing.T) {
	group := BuildGroup([]Image{{
		Width: 48, Height: 24, ColorCount: 2, Planes: 1, BitCount: 8, Size: 0x01020304, Offset: 0xffffffff,
	}})

	assert.Equal(t, []byte{
		0, 0, 1, 0, 1, 0, // header
		48, 24, 2, 0, // width, height, colors, reserved
		1, 0, 8, 0, // planes, bit count
		4, 3, 2, 1, // size
		1, 0, // id
	}, group)
}

func TestBuildGroup_empty(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 1, 0, 0, 0}, BuildGroup(nil))
}

func TestParseGroup_invalid(t *testing.T) {
	_, err := ParseGroup([]byte{0, 0})
	assert.Error(t, err)

	_, err = ParseGroup([]byte{0, 0, 2, 0, 0, 0})
	assert.Error(t, err)

	_, err = ParseGroup([]byte{0, 0, 1, 0, 1, 0})
	assert.Error(t, err)
}
