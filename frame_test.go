package img2ascii

import (
	"errors"
	"image"
	"testing"
)

// newTestBuffer builds a rows x cols buffer whose pixels come from fill.
func newTestBuffer(t *testing.T, rows, cols int, fill func(row, col int) byte) *PixelBuffer {
	t.Helper()
	pix := make([]byte, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if fill != nil {
				pix[r*cols+c] = fill(r, c)
			}
		}
	}
	buf, err := NewPixelBuffer(rows, cols, pix)
	if err != nil {
		t.Fatalf("NewPixelBuffer(%d, %d): %v", rows, cols, err)
	}
	return buf
}

func TestNewPixelBufferRejectsBadLength(t *testing.T) {
	if _, err := NewPixelBuffer(2, 2, make([]byte, 3)); err == nil {
		t.Error("Expected error for 3 pixels in a 2x2 buffer")
	}
	if _, err := NewPixelBuffer(-1, 2, nil); err == nil {
		t.Error("Expected error for negative rows")
	}
}

func TestPixelBufferGet(t *testing.T) {
	buf := newTestBuffer(t, 3, 4, func(r, c int) byte { return byte(r*10 + c) })

	v, err := buf.Get(2, 3)
	if err != nil {
		t.Fatalf("Get(2,3): %v", err)
	}
	if v != 23 {
		t.Errorf("Expected 23, got %d", v)
	}

	for _, pos := range [][2]int{{3, 0}, {0, 4}, {-1, 0}, {0, -1}} {
		if _, err := buf.Get(pos[0], pos[1]); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Get(%d,%d): expected ErrOutOfRange, got %v", pos[0], pos[1], err)
		}
	}
}

func TestPixelBufferFromImage(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 8, 4))
	for i := range gray.Pix {
		gray.Pix[i] = byte(i)
	}
	// Sub-image with a stride wider than its width
	sub := gray.SubImage(image.Rect(2, 1, 6, 3))

	buf, err := PixelBufferFromImage(sub)
	if err != nil {
		t.Fatalf("PixelBufferFromImage: %v", err)
	}
	if buf.Rows() != 2 || buf.Cols() != 4 {
		t.Fatalf("Expected 2x4, got %dx%d", buf.Rows(), buf.Cols())
	}
	v, _ := buf.Get(1, 3)
	if want := gray.GrayAt(5, 2).Y; v != want {
		t.Errorf("Expected %d, got %d", want, v)
	}

	if _, err := PixelBufferFromImage(image.NewRGBA(image.Rect(0, 0, 2, 2))); !errors.Is(err, ErrNotGrayscale) {
		t.Errorf("Expected ErrNotGrayscale for RGBA source, got %v", err)
	}
}

func TestPixelBufferImageIsCopy(t *testing.T) {
	buf := newTestBuffer(t, 2, 2, func(r, c int) byte { return 7 })
	img := buf.Image()
	img.Pix[0] = 99
	if v, _ := buf.Get(0, 0); v != 7 {
		t.Errorf("Buffer changed through its image copy: got %d", v)
	}
}

func TestCountFrames(t *testing.T) {
	tests := []struct {
		rows, cols, w, h int
		want             int
	}{
		{4, 4, 2, 2, 4},
		{4, 4, 1, 1, 16},
		{4, 4, 4, 4, 1},
		{10, 9, 3, 5, 6},
		{5, 5, 2, 2, 4}, // trailing pixels dropped
		{4, 4, 0, 2, 0},
	}
	for _, tt := range tests {
		buf := newTestBuffer(t, tt.rows, tt.cols, nil)
		if got := buf.CountFrames(tt.w, tt.h); got != tt.want {
			t.Errorf("CountFrames(%dx%d in %dx%d) = %d, want %d",
				tt.w, tt.h, tt.cols, tt.rows, got, tt.want)
		}
	}
}

func TestFrameTooLarge(t *testing.T) {
	buf := newTestBuffer(t, 4, 4, nil)
	for _, dims := range [][2]int{{5, 1}, {1, 5}, {0, 1}, {1, -1}} {
		if _, err := buf.FirstFrame(dims[0], dims[1]); !errors.Is(err, ErrFrameTooLarge) {
			t.Errorf("FirstFrame(%d,%d): expected ErrFrameTooLarge, got %v", dims[0], dims[1], err)
		}
		if _, err := buf.LastFrame(dims[0], dims[1]); !errors.Is(err, ErrFrameTooLarge) {
			t.Errorf("LastFrame(%d,%d): expected ErrFrameTooLarge, got %v", dims[0], dims[1], err)
		}
	}
}

func TestFrameCursorAt(t *testing.T) {
	buf := newTestBuffer(t, 4, 6, func(r, c int) byte { return byte(r*6 + c) })
	cur, err := buf.FirstFrame(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := cur.Advance(); err != nil {
		t.Fatal(err)
	}

	// Frame at (0,3): local index 4 is row 1, col 1 of the frame
	v, err := cur.At(4)
	if err != nil {
		t.Fatalf("At(4): %v", err)
	}
	if v != byte(1*6+3+1) {
		t.Errorf("Expected %d, got %d", 1*6+3+1, v)
	}

	if _, err := cur.At(cur.Size()); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("At(Size()): expected ErrOutOfRange, got %v", err)
	}
	if _, err := cur.At(-1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("At(-1): expected ErrOutOfRange, got %v", err)
	}
}

func TestFrameCursorAdvanceOnLastFrame(t *testing.T) {
	buf := newTestBuffer(t, 4, 4, nil)
	last, err := buf.LastFrame(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	before := last.Clone()

	if err := last.Advance(); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds, got %v", err)
	}
	if !last.Equal(before) {
		t.Error("Failed Advance should leave the cursor unchanged")
	}
}

// TestFrameTraversal checks that advancing CountFrames()-1 times from the
// first frame visits every frame once, in raster order, and lands on the
// last frame.
func TestFrameTraversal(t *testing.T) {
	tests := []struct {
		rows, cols, w, h int
	}{
		{4, 4, 2, 2},
		{6, 9, 3, 2},
		{7, 10, 3, 3}, // partial frames at the edges
		{5, 5, 5, 5},
		{3, 12, 1, 3},
	}
	for _, tt := range tests {
		buf := newTestBuffer(t, tt.rows, tt.cols, nil)
		cur, err := buf.FirstFrame(tt.w, tt.h)
		if err != nil {
			t.Fatal(err)
		}
		last, _ := buf.LastFrame(tt.w, tt.h)
		n := buf.CountFrames(tt.w, tt.h)
		perRow := buf.FramesPerRow(tt.w)

		seen := map[[2]int]bool{}
		for i := 0; i < n; i++ {
			row, col := cur.Origin()
			if want := [2]int{(i / perRow) * tt.h, (i % perRow) * tt.w}; [2]int{row, col} != want {
				t.Fatalf("%dx%d in %dx%d: frame %d at %v, want %v",
					tt.w, tt.h, tt.cols, tt.rows, i, [2]int{row, col}, want)
			}
			if seen[[2]int{row, col}] {
				t.Fatalf("frame (%d,%d) visited twice", row, col)
			}
			seen[[2]int{row, col}] = true
			if i > 0 && cur.NewRow() != (i%perRow == 0) {
				t.Errorf("frame %d: NewRow() = %v", i, cur.NewRow())
			}

			if i == n-1 {
				break
			}
			if err := cur.Advance(); err != nil {
				t.Fatalf("Advance after frame %d: %v", i, err)
			}
		}
		if !cur.Equal(last) {
			t.Errorf("%dx%d in %dx%d: ended at %s, want %s",
				tt.w, tt.h, tt.cols, tt.rows, cur, last)
		}
		if err := cur.Advance(); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Advance past last frame: expected ErrOutOfBounds, got %v", err)
		}
	}
}

func TestFrameCursorEqual(t *testing.T) {
	a := newTestBuffer(t, 4, 4, nil)
	b := newTestBuffer(t, 4, 4, nil)

	ca, _ := a.FirstFrame(2, 2)
	cb, _ := b.FirstFrame(2, 2)
	if ca.Equal(cb) {
		t.Error("Cursors on different buffers should not be equal")
	}
	if !ca.Equal(ca.Clone()) {
		t.Error("Clone should equal its source")
	}
	other, _ := a.FirstFrame(1, 2)
	if ca.Equal(other) {
		t.Error("Cursors with different frame sizes should not be equal")
	}
	if ca.Equal(nil) {
		t.Error("Cursor should not equal nil")
	}
}

func TestFrameCursorMean(t *testing.T) {
	buf := newTestBuffer(t, 2, 4, func(r, c int) byte {
		if c < 2 {
			return 10
		}
		return 250
	})
	cur, _ := buf.FirstFrame(2, 2)
	if m := cur.Mean(); m != 10 {
		t.Errorf("First frame mean = %d, want 10", m)
	}
	cur.Advance()
	if m := cur.Mean(); m != 250 {
		t.Errorf("Second frame mean = %d, want 250", m)
	}
	if s := cur.Sum(); s != 1000 {
		t.Errorf("Second frame sum = %d, want 1000", s)
	}
}
