package img2ascii

import "errors"

var (
	// ErrOutOfRange is returned when a pixel or frame-local index lies
	// outside its buffer or frame.
	ErrOutOfRange = errors.New("index out of range")

	// ErrOutOfBounds is returned by FrameCursor.Advance on the last frame.
	// Callers are expected to stop at the terminal frame instead.
	ErrOutOfBounds = errors.New("cursor advanced past the last frame")

	// ErrDimensionMismatch is returned when a frame and a glyph bitmap do
	// not have the same pixel count.
	ErrDimensionMismatch = errors.New("frame and glyph dimensions do not match")

	// ErrUnknownSymbol is returned for vocabulary lookups of absent symbols.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrImageDecode wraps every failure to turn an image file into a
	// PixelBuffer.
	ErrImageDecode = errors.New("image decode failed")

	// ErrFontLoad wraps every failure to load a font or build a
	// vocabulary from it.
	ErrFontLoad = errors.New("font load failed")

	// ErrNotGrayscale is returned for images that are not *image.Gray.
	ErrNotGrayscale = errors.New("pixel source is not single-channel grayscale")

	// ErrFrameTooLarge is returned when no whole frame fits the buffer.
	ErrFrameTooLarge = errors.New("frame does not fit into the pixel buffer")

	// ErrMergeTimeout is returned when the merge gives up waiting on a worker.
	ErrMergeTimeout = errors.New("timed out waiting for a partial result")
)
