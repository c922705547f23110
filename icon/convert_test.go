package icon

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozakscript/bundler"
)

func encodePNG(t *testing.T, width, height int) []byte {
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, image.NewNRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func TestConvertPNG(t *testing.T) {
	out := new(bytes.Buffer)
	require.NoError(t, ConvertPNG(out, bytes.NewReader(encodePNG(t, 32, 16))))

	images, err := Parse(out.Bytes())
	require.NoError(t, err)
	require.Len(t, images, 1)

	w, h := images[0].Pixels()
	assert.Equal(t, 32, w)
	assert.Equal(t, 16, h)
}

func TestConvertPNG_scalesDown(t *testing.T) {
	out := new(bytes.Buffer)
	require.NoError(t, ConvertPNG(out, bytes.NewReader(encodePNG(t, 512, 300))))

	images, err := Parse(out.Bytes())
	require.NoError(t, err)
	require.Len(t, images, 1)

	w, h := images[0].Pixels()
	assert.Equal(t, 256, w)
	assert.Equal(t, 150, h)
}

func TestConvertPNG_notPNG(t *testing.T) {
	err := ConvertPNG(new(bytes.Buffer), strings.NewReader("not an image"))
	assert.True(t, bundler.IsKind(err, bundler.KindFormat))
}

func TestConvertPNGFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "logo.png")
	dst := filepath.Join(dir, "logo.ico")
	require.NoError(t, os.WriteFile(src, encodePNG(t, 48, 48), 0644))

	require.NoError(t, ConvertPNGFile(dst, src))

	ico, err := os.ReadFile(dst)
	require.NoError(t, err)
	images, err := Parse(ico)
	require.NoError(t, err)
	assert.Len(t, images, 1)
}

func TestConvertPNGFile_removesBrokenOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "logo.png")
	dst := filepath.Join(dir, "logo.ico")
	require.NoError(t, os.WriteFile(src, []byte("garbage"), 0644))

	assert.Error(t, ConvertPNGFile(dst, src))
	assert.NoFileExists(t, dst)
}
