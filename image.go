package img2ascii

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/wbrown/img2ascii/imageutil"
)

// DecodeImage loads an image file and reduces it to a PixelBuffer. Any
// failure is wrapped in ErrImageDecode.
func DecodeImage(path string, dec imageutil.Decoder, opts imageutil.Options) (*PixelBuffer, error) {
	gray, err := imageutil.LoadGray(path, dec, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageDecode, path, err)
	}
	buf, err := PixelBufferFromImage(gray.Gray)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageDecode, path, err)
	}
	return buf, nil
}

// RenderImage draws the result back into a grayscale image using the
// vocabulary's glyphs, one glyph cell per frame, scaled by an integer
// factor. Inverted vocabularies draw light ink on black.
func (res *Result) RenderImage(vocab *Vocabulary, scale int) (*image.Gray, error) {
	if !vocab.HasGlyphs() {
		return nil, fmt.Errorf("rendering an image needs a vocabulary built from a font")
	}
	if scale < 1 {
		scale = 1
	}

	cellW, cellH := res.FrameWidth*scale, res.FrameHeight*scale
	img := image.NewGray(image.Rect(0, 0, res.Columns*cellW, res.Rows*cellH))
	paper := color.Gray{Y: 255}
	if vocab.Inverted() {
		paper = color.Gray{Y: 0}
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(paper), image.Point{}, draw.Src)

	for i, m := range res.Matches {
		glyph, err := vocab.Glyph(m.Symbol)
		if err != nil {
			// Substituted blanks may be outside a custom symbol set
			continue
		}
		if glyph.Rows() != res.FrameHeight || glyph.Cols() != res.FrameWidth {
			return nil, fmt.Errorf("%w: glyph %q is %dx%d, frames are %dx%d",
				ErrDimensionMismatch, m.Symbol, glyph.Cols(), glyph.Rows(),
				res.FrameWidth, res.FrameHeight)
		}
		x0 := (i % res.Columns) * cellW
		y0 := (i / res.Columns) * cellH
		renderGlyph(img, glyph, x0, y0, scale, vocab.Inverted())
	}
	return img, nil
}

// renderGlyph renders a glyph at the given position with scaling
func renderGlyph(img *image.Gray, glyph *PixelBuffer, startX, startY, scale int, invert bool) {
	for y := 0; y < glyph.rows; y++ {
		for x := 0; x < glyph.cols; x++ {
			v := glyph.pix[y*glyph.cols+x]
			if invert {
				v = 255 - v
			}

			// Apply scaling
			for sy := 0; sy < scale; sy++ {
				off := img.PixOffset(startX+x*scale, startY+y*scale+sy)
				for sx := 0; sx < scale; sx++ {
					img.Pix[off+sx] = v
				}
			}
		}
	}
}
