// Package compose provides the deterministic local compositor used when the
// remote generator is disabled or unreachable. It is not an attempt to
// approximate the real generator; it only keeps the pipeline available
// end-to-end without the remote dependency.
package compose

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"

	xdraw "golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
)

const (
	// overlayWidthRatio scales the overlay to a fixed share of the primary's
	// width, preserving its aspect ratio.
	overlayWidthRatio = 0.35
	// paddingRatio is the relative padding from the bottom-right corner,
	// measured against the primary's smaller dimension.
	paddingRatio = 0.02
)

// Compose overlays the secondary image onto the primary in the bottom-right
// corner and returns the PNG-encoded result. Identical inputs always produce
// identical output bytes. It never fails: malformed primary input is returned
// unmodified, and a malformed or missing overlay degrades to re-encoding the
// primary alone.
func Compose(primary, overlay []byte) []byte {
	base, _, err := image.Decode(bytes.NewReader(primary))
	if err != nil {
		return primary
	}

	canvas := image.NewRGBA(base.Bounds())
	draw.Draw(canvas, canvas.Bounds(), base, base.Bounds().Min, draw.Src)

	if gar, _, err := image.Decode(bytes.NewReader(overlay)); err == nil {
		pasteOverlay(canvas, gar)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return primary
	}
	return buf.Bytes()
}

func pasteOverlay(canvas *image.RGBA, overlay image.Image) {
	baseW := canvas.Bounds().Dx()
	baseH := canvas.Bounds().Dy()
	srcW := overlay.Bounds().Dx()
	srcH := overlay.Bounds().Dy()
	if srcW == 0 || srcH == 0 {
		return
	}

	gw := int(float64(baseW) * overlayWidthRatio)
	if gw < 1 {
		gw = 1
	}
	gh := srcH * gw / srcW
	if gh < 1 {
		gh = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, gw, gh))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), overlay, overlay.Bounds(), xdraw.Over, nil)

	minDim := baseW
	if baseH < minDim {
		minDim = baseH
	}
	padding := int(float64(minDim) * paddingRatio)
	x := baseW - gw - padding
	if x < padding {
		x = padding
	}
	y := baseH - gh - padding
	if y < padding {
		y = padding
	}

	target := image.Rect(x, y, x+gw, y+gh).Add(canvas.Bounds().Min)
	draw.Draw(canvas, target, scaled, scaled.Bounds().Min, draw.Over)
}
