package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestWrapToWidthBreaksAtWordBoundaries(t *testing.T) {
	face, err := RegularFace(16)
	if err != nil {
		t.Fatalf("RegularFace returned error: %v", err)
	}
	width := MeasureWidth(face, "alpha beta")
	lines := WrapToWidth(face, "alpha beta gamma delta", width)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %v", lines)
	}
	for _, line := range lines {
		if MeasureWidth(face, line) > width {
			t.Fatalf("line %q exceeds max width", line)
		}
	}
}

func TestFitLinesShrinksToBounds(t *testing.T) {
	bounds := image.Rect(0, 0, 300, 120)
	face, lines, err := FitLines("SEVEN WORDS THAT WILL NOT FIT LARGE", bounds, 96, 18, true)
	if err != nil {
		t.Fatalf("FitLines returned error: %v", err)
	}
	if len(lines) == 0 {
		t.Fatal("expected at least one line")
	}
	if got := len(lines) * LineHeight(face); got > bounds.Dy() {
		t.Fatalf("block height %d exceeds bounds %d", got, bounds.Dy())
	}
	for _, line := range lines {
		if MeasureWidth(face, line) > bounds.Dx() {
			t.Fatalf("line %q wider than bounds", line)
		}
	}
}

func TestFitLinesStopsAtMinimumSize(t *testing.T) {
	bounds := image.Rect(0, 0, 20, 10)
	_, lines, err := FitLines("unfittable", bounds, 40, 18, false)
	if err != nil {
		t.Fatalf("FitLines returned error: %v", err)
	}
	if len(lines) == 0 {
		t.Fatal("expected lines even when text cannot fit")
	}
}

func TestDrawLinesPaintsPixels(t *testing.T) {
	img := NewCanvas(200, 80, color.Black)
	face, err := BoldFace(24)
	if err != nil {
		t.Fatalf("BoldFace returned error: %v", err)
	}
	bottom := DrawLines(img, []string{"HELLO"}, face, color.White, 10, 10)
	if bottom <= 10 {
		t.Fatalf("expected bottom below top, got %d", bottom)
	}
	painted := false
	for y := 0; y < 80 && !painted; y++ {
		for x := 0; x < 200; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != 0 || g != 0 || b != 0 {
				painted = true
				break
			}
		}
	}
	if !painted {
		t.Fatal("expected text pixels on the canvas")
	}
}

func TestFillCircleStaysWithinRadius(t *testing.T) {
	img := NewCanvas(50, 50, color.Black)
	FillCircle(img, 25, 25, 10, color.RGBA{R: 255, A: 255})
	if r, _, _, _ := img.At(25, 25).RGBA(); r == 0 {
		t.Fatal("center should be painted")
	}
	if r, _, _, _ := img.At(25, 40).RGBA(); r != 0 {
		t.Fatal("pixel outside radius should be untouched")
	}
}

func TestEncodePNGWritesDecodableFile(t *testing.T) {
	img := NewCanvas(16, 9, color.RGBA{R: 10, G: 25, B: 47, A: 255})
	path := filepath.Join(t.TempDir(), "nested", "out.png")
	if err := EncodePNG(path, img); err != nil {
		t.Fatalf("EncodePNG returned error: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open png: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if decoded.Bounds().Dx() != 16 || decoded.Bounds().Dy() != 9 {
		t.Fatalf("unexpected bounds %v", decoded.Bounds())
	}
}
