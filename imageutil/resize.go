package imageutil

import (
	"image"

	"golang.org/x/image/draw"
)

// Interpolation specifies the interpolation method for resizing.
type Interpolation int

const (
	// InterpolationArea uses Catmull-Rom for high-quality downscaling.
	// This is the closest equivalent to OpenCV's INTER_AREA.
	InterpolationArea Interpolation = iota

	// InterpolationLinear uses bilinear interpolation.
	InterpolationLinear

	// InterpolationNearest uses nearest-neighbor interpolation.
	// Fastest but lowest quality.
	InterpolationNearest
)

func (interp Interpolation) scaler() draw.Scaler {
	switch interp {
	case InterpolationLinear:
		return draw.BiLinear
	case InterpolationNearest:
		return draw.NearestNeighbor
	default:
		return draw.CatmullRom
	}
}

// ResizeGray resizes a grayscale image to the specified dimensions.
func ResizeGray(img *GrayImage, width, height int, interp Interpolation) *GrayImage {
	dst := NewGrayImage(width, height)
	dstRect := image.Rect(0, 0, width, height)
	interp.scaler().Scale(dst.Gray, dstRect, img.Gray, img.Bounds(), draw.Src, nil)
	return dst
}

// ResizeToColumns resizes img so that it is exactly columns frames of
// frameWidth pixels wide, keeping the aspect ratio. The height is rounded
// to the nearest pixel and is at least one.
func ResizeToColumns(img *GrayImage, columns, frameWidth int, interp Interpolation) *GrayImage {
	width := columns * frameWidth
	if width <= 0 || img.Width() == 0 {
		return img
	}
	height := max(int(float64(img.Height())*float64(width)/float64(img.Width())+0.5), 1)
	return ResizeGray(img, width, height, interp)
}
