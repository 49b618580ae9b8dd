// Package imaging produces small JPEG previews of stored images for the
// thumbnail endpoint.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"
)

// Thumbnail decodes an image, scales it to fit within maxWidth x maxHeight
// preserving the aspect ratio, and re-encodes it as JPEG with the given
// quality (1-100). Images already small enough are re-encoded without
// scaling. Nearest-neighbor sampling keeps this dependency-free; previews
// are capped at 300px so quality loss is not noticeable.
func Thumbnail(data []byte, maxWidth, maxHeight, quality int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty image")
	}

	dstW, dstH := fit(w, h, maxWidth, maxHeight)

	var out image.Image = src
	if dstW != w || dstH != h {
		scaled := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
		for y := 0; y < dstH; y++ {
			srcY := bounds.Min.Y + y*h/dstH
			for x := 0; x < dstW; x++ {
				srcX := bounds.Min.X + x*w/dstW
				scaled.Set(x, y, src.At(srcX, srcY))
			}
		}
		out = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// fit returns target dimensions no larger than the limits, preserving the
// source aspect ratio. Dimensions never drop below 1px.
func fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scaleW := float64(maxW) / float64(w)
	scaleH := float64(maxH) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	dstW := int(float64(w) * scale)
	dstH := int(float64(h) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}
	return dstW, dstH
}
