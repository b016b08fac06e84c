// Package render draws text onto raster canvases for slide images and
// thumbnail fallbacks. It uses the embedded Go fonts so output does not
// depend on fonts installed on the host.
package render
