package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"reelforge/internal/fileutil"
)

var (
	fontOnce    sync.Once
	fontErr     error
	boldFont    *opentype.Font
	regularFont *opentype.Font
)

func loadFonts() error {
	fontOnce.Do(func() {
		boldFont, fontErr = opentype.Parse(gobold.TTF)
		if fontErr != nil {
			return
		}
		regularFont, fontErr = opentype.Parse(goregular.TTF)
	})
	return fontErr
}

// BoldFace returns a Go Bold face at the given point size.
func BoldFace(size float64) (font.Face, error) {
	if err := loadFonts(); err != nil {
		return nil, fmt.Errorf("render: load fonts: %w", err)
	}
	return newFace(boldFont, size)
}

// RegularFace returns a Go Regular face at the given point size.
func RegularFace(size float64) (font.Face, error) {
	if err := loadFonts(); err != nil {
		return nil, fmt.Errorf("render: load fonts: %w", err)
	}
	return newFace(regularFont, size)
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("render: build face: %w", err)
	}
	return face, nil
}

// NewCanvas allocates an RGBA image filled with the background color.
func NewCanvas(width, height int, bg color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return img
}

// MeasureWidth returns the advance width of text in pixels for the face.
func MeasureWidth(face font.Face, text string) int {
	return font.MeasureString(face, text).Ceil()
}

// LineHeight returns the recommended vertical distance between baselines.
func LineHeight(face font.Face) int {
	return face.Metrics().Height.Ceil()
}

// WrapToWidth splits text into lines no wider than maxWidth pixels,
// breaking only at word boundaries. A single word wider than maxWidth
// occupies its own line.
func WrapToWidth(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if MeasureWidth(face, candidate) > maxWidth {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}

// FitLines wraps text at the largest point size between maxSize and minSize
// where every line fits within the bounds width and the wrapped block fits
// within the bounds height. The size shrinks in fixed steps and stops at
// minSize even if the text still overflows.
func FitLines(text string, bounds image.Rectangle, maxSize, minSize float64, bold bool) (font.Face, []string, error) {
	const step = 4.0
	build := RegularFace
	if bold {
		build = BoldFace
	}
	for size := maxSize; ; size -= step {
		if size < minSize {
			size = minSize
		}
		face, err := build(size)
		if err != nil {
			return nil, nil, err
		}
		lines := WrapToWidth(face, text, bounds.Dx())
		fits := len(lines)*LineHeight(face) <= bounds.Dy()
		for _, line := range lines {
			if MeasureWidth(face, line) > bounds.Dx() {
				fits = false
			}
		}
		if fits || size <= minSize {
			return face, lines, nil
		}
	}
}

// DrawLines renders lines top-down starting at (left, top) and returns the
// y coordinate just below the last line.
func DrawLines(img draw.Image, lines []string, face font.Face, col color.Color, left, top int) int {
	height := LineHeight(face)
	ascent := face.Metrics().Ascent.Ceil()
	y := top
	for _, line := range lines {
		drawer := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(col),
			Face: face,
			Dot:  fixed.P(left, y+ascent),
		}
		drawer.DrawString(line)
		y += height
	}
	return y
}

// DrawLinesCentered renders lines horizontally centered within bounds,
// starting at the top of bounds.
func DrawLinesCentered(img draw.Image, lines []string, face font.Face, col color.Color, bounds image.Rectangle) int {
	height := LineHeight(face)
	ascent := face.Metrics().Ascent.Ceil()
	y := bounds.Min.Y
	for _, line := range lines {
		width := MeasureWidth(face, line)
		left := bounds.Min.X + (bounds.Dx()-width)/2
		drawer := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(col),
			Face: face,
			Dot:  fixed.P(left, y+ascent),
		}
		drawer.DrawString(line)
		y += height
	}
	return y
}

// FillCircle paints a filled circle centered at (cx, cy).
func FillCircle(img draw.Image, cx, cy, radius int, col color.Color) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				img.Set(cx+dx, cy+dy, col)
			}
		}
	}
}

// EncodePNG writes img to path as PNG, creating parent directories.
func EncodePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}
	if _, err := fileutil.WriteStreamTo(path, &buf); err != nil {
		return fmt.Errorf("render: write png: %w", err)
	}
	return nil
}
