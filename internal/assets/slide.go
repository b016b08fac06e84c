package assets

import (
	"image"
	"image/color"

	"reelforge/internal/render"
	"reelforge/internal/services"
	"reelforge/internal/textutil"
)

const (
	slideWidth  = 1920
	slideHeight = 1080
)

var (
	slideBackground = color.RGBA{R: 18, G: 18, B: 24, A: 255}
	slideHeadingCol = color.RGBA{R: 240, G: 240, B: 245, A: 255}
	slideBodyCol    = color.RGBA{R: 170, G: 175, B: 185, A: 255}
)

// RenderSlide draws a static 1920x1080 card for a section that has no
// usable stock footage.
func RenderSlide(heading, body, path string) error {
	img := render.NewCanvas(slideWidth, slideHeight, slideBackground)

	margin := 140
	headingBounds := image.Rect(margin, 200, slideWidth-margin, 560)
	face, lines, err := render.FitLines(heading, headingBounds, 88, 32, true)
	if err != nil {
		return services.Wrap(services.ErrTransient, "assets", "slide", "render heading", err)
	}
	bottom := render.DrawLines(img, lines, face, slideHeadingCol, margin, headingBounds.Min.Y)

	if body != "" {
		bodyFace, err := render.RegularFace(36)
		if err != nil {
			return services.Wrap(services.ErrTransient, "assets", "slide", "render body", err)
		}
		bodyText := textutil.Truncate(body, 280)
		bodyLines := render.WrapToWidth(bodyFace, bodyText, slideWidth-2*margin)
		render.DrawLines(img, bodyLines, bodyFace, slideBodyCol, margin, bottom+60)
	}

	if err := render.EncodePNG(path, img); err != nil {
		return services.Wrap(services.ErrTransient, "assets", "slide", "write slide", err)
	}
	return nil
}
