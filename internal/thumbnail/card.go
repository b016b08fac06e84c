package thumbnail

import (
	"image"
	"image/color"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelforge/internal/render"
	"reelforge/internal/services"
	"reelforge/internal/textutil"
)

const (
	cardWidth  = 1280
	cardHeight = 720

	headlineWordLimit = 5
	hookCharLimit     = 60
)

var (
	cardBackground = color.RGBA{R: 10, G: 25, B: 47, A: 255}
	headlineColor  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	hookColor      = color.RGBA{R: 158, G: 167, B: 180, A: 255}
	badgeColor     = color.RGBA{R: 220, G: 38, B: 38, A: 255}
)

var upperCaser = cases.Upper(language.English)

// RenderCard draws the local fallback thumbnail: deep blue canvas, an
// uppercased headline shrunk to fit, a grey hook line and a red badge in
// the bottom-right corner.
func RenderCard(title, hook, path string) error {
	img := render.NewCanvas(cardWidth, cardHeight, cardBackground)

	headline := upperCaser.String(textutil.FirstWords(title, headlineWordLimit))
	headlineBounds := image.Rect(90, 140, cardWidth-90, 460)
	face, lines, err := render.FitLines(headline, headlineBounds, 120, 36, true)
	if err != nil {
		return services.Wrap(services.ErrTransient, "thumbnail", "card", "render headline", err)
	}
	bottom := render.DrawLines(img, lines, face, headlineColor, headlineBounds.Min.X, headlineBounds.Min.Y)

	if hook != "" {
		hookFace, err := render.RegularFace(32)
		if err != nil {
			return services.Wrap(services.ErrTransient, "thumbnail", "card", "render hook", err)
		}
		hookText := textutil.Truncate(hook, hookCharLimit)
		hookLines := render.WrapToWidth(hookFace, hookText, cardWidth-180)
		render.DrawLines(img, hookLines, hookFace, hookColor, 90, bottom+40)
	}

	badgeRadius := 64
	badgeCX := cardWidth - badgeRadius - 48
	badgeCY := cardHeight - badgeRadius - 48
	render.FillCircle(img, badgeCX, badgeCY, badgeRadius, badgeColor)
	badgeFace, err := render.BoldFace(36)
	if err != nil {
		return services.Wrap(services.ErrTransient, "thumbnail", "card", "render badge", err)
	}
	badgeWidth := render.MeasureWidth(badgeFace, "NEW")
	badgeBounds := image.Rect(badgeCX-badgeWidth/2, badgeCY-render.LineHeight(badgeFace)/2, badgeCX+badgeWidth/2+1, badgeCY+render.LineHeight(badgeFace))
	render.DrawLinesCentered(img, []string{"NEW"}, badgeFace, headlineColor, badgeBounds)

	if err := render.EncodePNG(path, img); err != nil {
		return services.Wrap(services.ErrTransient, "thumbnail", "card", "write thumbnail", err)
	}
	return nil
}
