package img2ascii

import (
	"fmt"
	"image"
)

// PixelBuffer is an immutable row-major grid of 8-bit brightness values,
// where 0 is the darkest level. Once built it is never written to, so it
// can be shared between any number of goroutines without locking.
type PixelBuffer struct {
	rows int
	cols int
	pix  []byte
}

// NewPixelBuffer builds a buffer of rows x cols pixels. The buffer takes
// ownership of pix; the caller must not modify it afterwards.
func NewPixelBuffer(rows, cols int, pix []byte) (*PixelBuffer, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("negative dimensions %dx%d", rows, cols)
	}
	if len(pix) != rows*cols {
		return nil, fmt.Errorf("pixel count %d does not match %dx%d",
			len(pix), rows, cols)
	}
	return &PixelBuffer{rows: rows, cols: cols, pix: pix}, nil
}

// PixelBufferFromImage copies a grayscale image into a new PixelBuffer.
// Only *image.Gray is accepted: reducing colour images to brightness is
// the job of the image loader (see imageutil.LoadGray), not of this type.
func PixelBufferFromImage(img image.Image) (*PixelBuffer, error) {
	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotGrayscale, img)
	}

	bounds := gray.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()
	pix := make([]byte, rows*cols)
	for y := 0; y < rows; y++ {
		start := gray.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		copy(pix[y*cols:(y+1)*cols], gray.Pix[start:start+cols])
	}
	return &PixelBuffer{rows: rows, cols: cols, pix: pix}, nil
}

// Rows returns the number of pixel rows.
func (b *PixelBuffer) Rows() int { return b.rows }

// Cols returns the number of pixel columns.
func (b *PixelBuffer) Cols() int { return b.cols }

// Get returns the brightness at (row, col).
func (b *PixelBuffer) Get(row, col int) (byte, error) {
	if row < 0 || col < 0 || row >= b.rows || col >= b.cols {
		return 0, fmt.Errorf("%w: pixel (%d,%d) in %dx%d buffer",
			ErrOutOfRange, row, col, b.rows, b.cols)
	}
	return b.pix[row*b.cols+col], nil
}

// Mean returns the integer mean brightness of the whole buffer.
func (b *PixelBuffer) Mean() byte {
	if len(b.pix) == 0 {
		return 0
	}
	var sum uint64
	for _, p := range b.pix {
		sum += uint64(p)
	}
	return byte(sum / uint64(len(b.pix)))
}

// Image returns a copy of the buffer as an *image.Gray.
func (b *PixelBuffer) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.cols, b.rows))
	copy(img.Pix, b.pix)
	return img
}

// FirstFrame returns a cursor on the top-left frame of the given size.
func (b *PixelBuffer) FirstFrame(width, height int) (*FrameCursor, error) {
	if err := b.checkFrame(width, height); err != nil {
		return nil, err
	}
	return &FrameCursor{buf: b, width: width, height: height}, nil
}

// LastFrame returns a cursor on the bottom-right whole frame. It is the
// terminal position for raster-order iteration from FirstFrame.
func (b *PixelBuffer) LastFrame(width, height int) (*FrameCursor, error) {
	if err := b.checkFrame(width, height); err != nil {
		return nil, err
	}
	return &FrameCursor{
		buf:    b,
		width:  width,
		height: height,
		row:    (b.rows/height - 1) * height,
		col:    (b.cols/width - 1) * width,
	}, nil
}

// CountFrames returns the number of whole frames of the given size.
// Pixels in a trailing partial row or column of frames are dropped.
func (b *PixelBuffer) CountFrames(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	return (b.cols / width) * (b.rows / height)
}

// FramesPerRow returns how many whole frames of the given width fit
// across the buffer.
func (b *PixelBuffer) FramesPerRow(width int) int {
	if width <= 0 {
		return 0
	}
	return b.cols / width
}

func (b *PixelBuffer) checkFrame(width, height int) error {
	if width <= 0 || height <= 0 || width > b.cols || height > b.rows {
		return fmt.Errorf("%w: %dx%d frame in %dx%d buffer",
			ErrFrameTooLarge, width, height, b.cols, b.rows)
	}
	return nil
}
