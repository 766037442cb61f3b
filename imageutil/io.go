package imageutil

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Decoder names the backend used to read image files.
type Decoder string

const (
	// DecoderGo uses the image package with the standard and x/image
	// codecs: PNG, JPEG, GIF, BMP, TIFF and WebP.
	DecoderGo Decoder = "go"

	// DecoderGoCV uses OpenCV's imread. Only available in binaries built
	// with the gocv tag.
	DecoderGoCV Decoder = "gocv"
)

// ErrNoGoCV is returned when the gocv decoder is requested from a binary
// built without the gocv tag.
var ErrNoGoCV = errors.New("gocv decoder not available: rebuild with -tags gocv")

// ParseDecoder parses "go" or "gocv".
func ParseDecoder(s string) (Decoder, error) {
	switch Decoder(strings.ToLower(s)) {
	case "", DecoderGo:
		return DecoderGo, nil
	case DecoderGoCV:
		return DecoderGoCV, nil
	}
	return "", fmt.Errorf("unknown decoder %q, options are go or gocv", s)
}

// LoadImage loads an image from the specified path.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// LoadGray decodes path with the chosen decoder and prepares it as a
// grayscale grid.
func LoadGray(path string, dec Decoder, opts Options) (*GrayImage, error) {
	var (
		img image.Image
		err error
	)
	switch dec {
	case DecoderGoCV:
		img, err = loadGoCV(path)
	default:
		img, err = LoadImage(path)
	}
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("image %s is empty", path)
	}
	return Prepare(img, opts), nil
}

// SaveImage saves an image to the specified path.
// Format is determined by file extension (png, jpg/jpeg, gif).
func SaveImage(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	case ".gif":
		err = gif.Encode(f, img, nil)
	default:
		// Default to PNG
		err = png.Encode(f, img)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return f.Close()
}
