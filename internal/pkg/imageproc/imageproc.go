package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

const (
	DefaultSquareSize = 1080
	MaxSquareSize     = 4096
	heroMaxWidth      = 1920
	heroQuality       = 82
)

// Format is an output encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	WebP Format = "webp"
)

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case WebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// Ext returns the file extension of the format including the dot.
func (f Format) Ext() string {
	switch f {
	case JPEG:
		return ".jpg"
	case WebP:
		return ".webp"
	default:
		return ".png"
	}
}

// ParseFormat maps a user supplied name to a Format, defaulting to PNG.
func ParseFormat(name string) Format {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "jpg", "jpeg":
		return JPEG
	case "webp":
		return WebP
	default:
		return PNG
	}
}

// DetectContentType sniffs data and reports whether it is a supported image.
func DetectContentType(data []byte) (string, bool) {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)
	switch ct {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
		return ct, true
	default:
		return ct, false
	}
}

// Decode reads jpeg/png/gif/webp, applying EXIF orientation.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	if _, ok := DetectContentType(data); !ok {
		return nil, ErrUnsupportedFormat
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		// imaging relies on image.Decode; webp is decoded directly as a fallback.
		if wimg, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
			return wimg, nil
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Encode writes img in the requested format.
func Encode(img image.Image, format Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case JPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90))
	case WebP:
		err = webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: heroQuality})
	default:
		err = imaging.Encode(&buf, img, imaging.PNG)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CropSquare center-crops the image to a square and scales it to size×size.
func CropSquare(data []byte, size int, format Format) ([]byte, error) {
	if size <= 0 {
		size = DefaultSquareSize
	}
	if size > MaxSquareSize {
		size = MaxSquareSize
	}
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Encode(imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos), format)
}

// HeroWebP downsizes wide images to the hero width and re-encodes them as WebP.
func HeroWebP(data []byte) ([]byte, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() > heroMaxWidth {
		img = imaging.Resize(img, heroMaxWidth, 0, imaging.Lanczos)
	}
	return Encode(img, WebP)
}
