package icon

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"

	goico "github.com/sergeymakinen/go-ico"
	xdraw "golang.org/x/image/draw"

	"github.com/kozakscript/bundler"
)

// MaxEdge is the largest width or height of an icon image.
const MaxEdge = 256

// ConvertPNG reads a PNG image and writes it as a single-image icon file.
// Images larger than MaxEdge are scaled down, keeping their aspect ratio.
func ConvertPNG(w io.Writer, r io.Reader) error {
	src, err := png.Decode(r)
	if err != nil {
		return bundler.Errorf(bundler.KindFormat, "decode PNG: %w", err)
	}
	if err := goico.Encode(w, fit(src, MaxEdge)); err != nil {
		return fmt.Errorf("encode icon: %w", err)
	}
	return nil
}

// ConvertPNGFile converts the PNG image at src into an icon file at dst.
func ConvertPNGFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open PNG: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create icon: %w", err)
	}
	if err := ConvertPNG(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

func fit(src image.Image, edge int) image.Image {
	b := src.Bounds()
	if b.Dx() <= edge && b.Dy() <= edge {
		return src
	}
	scale := math.Min(float64(edge)/float64(b.Dx()), float64(edge)/float64(b.Dy()))
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
