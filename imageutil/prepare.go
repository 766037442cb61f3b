package imageutil

import (
	"image"

	"github.com/disintegration/gift"
)

// Options controls how a decoded image is turned into the grayscale grid
// that gets rendered.
type Options struct {
	// Gray selects the colour-to-brightness reduction.
	Gray GrayMethod

	// Columns, when positive, resizes the image to Columns frames of
	// FrameWidth pixels each. Zero keeps the source size.
	Columns    int
	FrameWidth int

	// Contrast adjusts contrast in percent, -100..100. Zero is a no-op.
	Contrast float32

	// Sharpen applies an unsharp mask after the contrast step.
	Sharpen bool
}

// Prepare turns a decoded image into a grayscale grid:
//
//  1. Contrast adjustment and sharpening, if requested
//  2. Conversion to grayscale
//  3. Resize to the requested column count
func Prepare(img image.Image, opts Options) *GrayImage {
	if filters := opts.filters(); len(filters) > 0 {
		g := gift.New(filters...)
		dst := image.NewRGBA(g.Bounds(img.Bounds()))
		g.Draw(dst, img)
		img = dst
	}

	gray := ToGray(img, opts.Gray)

	if opts.Columns > 0 && opts.FrameWidth > 0 {
		gray = ResizeToColumns(gray, opts.Columns, opts.FrameWidth, InterpolationArea)
	}
	return gray
}

func (opts Options) filters() []gift.Filter {
	var filters []gift.Filter
	if opts.Contrast != 0 {
		filters = append(filters, gift.Contrast(opts.Contrast))
	}
	if opts.Sharpen {
		// Mild: sigma 1, amount 1, no threshold
		filters = append(filters, gift.UnsharpMask(1, 1, 0))
	}
	return filters
}
