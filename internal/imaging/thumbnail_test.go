package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestThumbnail_ScalesDownPreservingAspect(t *testing.T) {
	src := encodePNG(t, 600, 300)

	out, err := Thumbnail(src, 150, 150, 75)
	require.NoError(t, err)

	w, h := decodeSize(t, out)
	assert.Equal(t, 150, w)
	assert.Equal(t, 75, h)
}

func TestThumbnail_SmallImageKeepsSize(t *testing.T) {
	src := encodePNG(t, 80, 60)

	out, err := Thumbnail(src, 150, 150, 75)
	require.NoError(t, err)

	w, h := decodeSize(t, out)
	assert.Equal(t, 80, w)
	assert.Equal(t, 60, h)
}

func TestThumbnail_RejectsGarbage(t *testing.T) {
	_, err := Thumbnail([]byte("not an image"), 100, 100, 75)
	assert.Error(t, err)
}
