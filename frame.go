package img2ascii

import "fmt"

// FrameCursor is a movable window of fixed size over a PixelBuffer. It
// exposes the pixels under the window as a flat row-major sequence and
// steps across the buffer in raster order. A cursor never owns or copies
// the buffer.
//
// A cursor is not safe for concurrent use; each goroutine walks its own.
type FrameCursor struct {
	buf    *PixelBuffer
	width  int
	height int
	row    int
	col    int
	newRow bool
}

// At returns the i-th pixel of the frame in row-major order.
func (c *FrameCursor) At(i int) (byte, error) {
	if i < 0 || i >= c.width*c.height {
		return 0, fmt.Errorf("%w: frame index %d of %d",
			ErrOutOfRange, i, c.width*c.height)
	}
	return c.buf.Get(c.row+i/c.width, c.col+i%c.width)
}

// Size returns the number of pixels in the frame.
func (c *FrameCursor) Size() int { return c.width * c.height }

// Width returns the frame width in pixels.
func (c *FrameCursor) Width() int { return c.width }

// Height returns the frame height in pixels.
func (c *FrameCursor) Height() int { return c.height }

// Origin returns the top-left pixel of the frame.
func (c *FrameCursor) Origin() (row, col int) { return c.row, c.col }

// NewRow reports whether the last Advance wrapped to a new row of frames.
func (c *FrameCursor) NewRow() bool { return c.newRow }

// Advance moves the cursor to the next frame in raster order. It fails
// with ErrOutOfBounds on the last frame and leaves the cursor unchanged.
func (c *FrameCursor) Advance() error {
	switch {
	case c.col+2*c.width <= c.buf.cols:
		c.col += c.width
		c.newRow = false
	case c.row+2*c.height <= c.buf.rows:
		c.row += c.height
		c.col = 0
		c.newRow = true
	default:
		return fmt.Errorf("%w: frame at (%d,%d)", ErrOutOfBounds, c.row, c.col)
	}
	return nil
}

// Equal reports whether both cursors view the same buffer through a frame
// of the same size at the same origin.
func (c *FrameCursor) Equal(other *FrameCursor) bool {
	if other == nil {
		return false
	}
	return c.buf == other.buf &&
		c.row == other.row && c.col == other.col &&
		c.width == other.width && c.height == other.height
}

// Clone returns an independent cursor at the same position.
func (c *FrameCursor) Clone() *FrameCursor {
	clone := *c
	return &clone
}

// Sum returns the sum of all pixels under the frame.
func (c *FrameCursor) Sum() uint64 {
	var sum uint64
	for y := 0; y < c.height; y++ {
		start := (c.row+y)*c.buf.cols + c.col
		for _, p := range c.buf.pix[start : start+c.width] {
			sum += uint64(p)
		}
	}
	return sum
}

// Mean returns the integer mean brightness of the frame.
func (c *FrameCursor) Mean() byte {
	return byte(c.Sum() / uint64(c.Size()))
}

// String implements fmt.Stringer for log output.
func (c *FrameCursor) String() string {
	return fmt.Sprintf("frame %dx%d@(%d,%d)", c.width, c.height, c.row, c.col)
}
