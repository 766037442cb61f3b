package imageutil

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// GrayMethod selects how colour pixels are reduced to one brightness
// value.
type GrayMethod int

const (
	// GrayLuma uses the BT.601 luminance weights, matching OpenCV's
	// COLOR_BGR2GRAY.
	GrayLuma GrayMethod = iota

	// GrayLightness uses the L* component of CIE L*a*b*, which tracks
	// perceived lightness more closely than luma on saturated colours.
	GrayLightness
)

// String implements fmt.Stringer.
func (m GrayMethod) String() string {
	switch m {
	case GrayLuma:
		return "luma"
	case GrayLightness:
		return "lightness"
	}
	return fmt.Sprintf("GrayMethod(%d)", int(m))
}

// ParseGrayMethod parses "luma" or "lightness".
func ParseGrayMethod(s string) (GrayMethod, error) {
	switch strings.ToLower(s) {
	case "", "luma":
		return GrayLuma, nil
	case "lightness", "lab":
		return GrayLightness, nil
	}
	return 0, fmt.Errorf("unknown gray method %q, options are luma or lightness", s)
}

// ToGray reduces any image to grayscale with the given method. A gray
// source is copied unchanged.
func ToGray(img image.Image, method GrayMethod) *GrayImage {
	if g, ok := img.(*image.Gray); ok {
		return (&GrayImage{Gray: g}).Clone()
	}
	rgba := RGBAImageFromImage(img)
	if method == GrayLightness {
		return ToLightness(rgba)
	}
	return ToGrayscale(rgba)
}

// ToGrayscale converts an RGBA image to grayscale using the standard
// luminance formula: Y = 0.299*R + 0.587*G + 0.114*B
func ToGrayscale(img *RGBAImage) *GrayImage {
	width, height := img.Width(), img.Height()
	gray := NewGrayImage(width, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := img.RGBAAt(x, y)
			// Integer math, rounded
			lum := (299*int(c.R) + 587*int(c.G) + 114*int(c.B) + 500) / 1000
			if lum > 255 {
				lum = 255
			}
			gray.Gray.SetGray(x, y, color.Gray{Y: uint8(lum)})
		}
	}

	return gray
}

// ToLightness converts an RGBA image to grayscale using CIE L*, scaled
// from [0,1] to [0,255].
func ToLightness(img *RGBAImage) *GrayImage {
	width, height := img.Width(), img.Height()
	gray := NewGrayImage(width, height)

	// Photos repeat colours heavily; memoize the Lab conversion.
	cache := make(map[RGB]uint8)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			rgb := img.GetRGB(x, y)
			v, ok := cache[rgb]
			if !ok {
				c := colorful.Color{
					R: float64(rgb.R) / 255,
					G: float64(rgb.G) / 255,
					B: float64(rgb.B) / 255,
				}
				l, _, _ := c.Lab()
				v = uint8(min(max(l*255+0.5, 0), 255))
				cache[rgb] = v
			}
			gray.Gray.SetGray(x, y, color.Gray{Y: v})
		}
	}

	return gray
}
