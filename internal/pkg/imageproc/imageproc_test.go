package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCropSquare(t *testing.T) {
	out, err := CropSquare(samplePNG(t, 200, 100), 64, PNG)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())
}

func TestCropSquareClampsSize(t *testing.T) {
	out, err := CropSquare(samplePNG(t, 10, 10), 0, JPEG)
	require.NoError(t, err)
	ct, ok := DetectContentType(out)
	assert.True(t, ok)
	assert.Equal(t, "image/jpeg", ct)
}

func TestDecodeRejectsNonImages(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Decode(nil)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, JPEG, ParseFormat("JPG"))
	assert.Equal(t, WebP, ParseFormat("webp"))
	assert.Equal(t, PNG, ParseFormat(""))
	assert.Equal(t, "image/webp", WebP.ContentType())
	assert.Equal(t, ".jpg", JPEG.Ext())
}
