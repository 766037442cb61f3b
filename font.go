package img2ascii

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

const (
	// DefaultPointSize and DefaultDPI give frames of roughly 15x28 pixels
	// with the embedded Go Mono font.
	DefaultPointSize = 6
	DefaultDPI       = 300
)

// FontOptions configures how a font is rasterized into a vocabulary.
type FontOptions struct {
	PointSize float64
	DPI       float64
	Invert    bool   // light ink on a dark background
	Symbols   []rune // nil means PrintableSymbols()
}

func (o FontOptions) withDefaults() FontOptions {
	if o.PointSize <= 0 {
		o.PointSize = DefaultPointSize
	}
	if o.DPI <= 0 {
		o.DPI = DefaultDPI
	}
	if len(o.Symbols) == 0 {
		o.Symbols = PrintableSymbols()
	}
	return o
}

// Font is a scalable monospaced font prepared at a fixed size. Every
// glyph occupies a cell of FrameSize() pixels, which is also the frame
// size used to tile images for this font.
//
// A Font is not safe for concurrent use.
type Font struct {
	name   string
	ttf    *truetype.Font
	face   font.Face
	size   float64
	dpi    float64
	width  int
	height int
	ascent int
}

// LoadFont loads a TrueType font from file. An empty path selects the
// embedded Go Mono font.
func LoadFont(path string, opts FontOptions) (*Font, error) {
	if path == "" {
		return ParseFont("gomono", gomono.TTF, opts)
	}
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontLoad, err)
	}
	return ParseFont(filepath.Base(path), fontBytes, opts)
}

// ParseFont parses TrueType data and checks that every requested symbol
// has a glyph and that all of them share one advance width.
func ParseFont(name string, data []byte, opts FontOptions) (*Font, error) {
	opts = opts.withDefaults()

	ttf, err := freetype.ParseFont(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a scalable TrueType font: %v",
			ErrFontLoad, name, err)
	}

	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    opts.PointSize,
		DPI:     opts.DPI,
		Hinting: font.HintingFull,
	})

	f := &Font{name: name, ttf: ttf, face: face, size: opts.PointSize, dpi: opts.DPI}
	if err := f.measure(opts.Symbols); err != nil {
		face.Close()
		return nil, err
	}
	return f, nil
}

// measure derives the cell size from the glyph advances and the face
// metrics.
func (f *Font) measure(symbols []rune) error {
	advance := -1
	for _, r := range symbols {
		if r != ' ' && f.ttf.Index(r) == 0 {
			return fmt.Errorf("%w: %s has no glyph for %q", ErrFontLoad, f.name, r)
		}
		adv, ok := f.face.GlyphAdvance(r)
		if !ok {
			return fmt.Errorf("%w: %s has no glyph for %q", ErrFontLoad, f.name, r)
		}
		px := adv.Round()
		if advance < 0 {
			advance = px
		} else if px != advance {
			return fmt.Errorf("%w: %s is not monospaced (%q is %dpx, expected %dpx)",
				ErrFontLoad, f.name, r, px, advance)
		}
	}
	if advance <= 0 {
		return fmt.Errorf("%w: %s has zero-width glyphs at %.1fpt", ErrFontLoad, f.name, f.size)
	}

	metrics := f.face.Metrics()
	height := metrics.Height
	if body := metrics.Ascent + metrics.Descent; body > height {
		height = body
	}
	f.width = advance
	f.height = height.Ceil()
	f.ascent = metrics.Ascent.Ceil()
	return nil
}

// Name returns the font file name.
func (f *Font) Name() string { return f.name }

// PointSize returns the size the font was prepared at.
func (f *Font) PointSize() float64 { return f.size }

// DPI returns the resolution the font was prepared at.
func (f *Font) DPI() float64 { return f.dpi }

// FrameSize returns the glyph cell size in pixels: the advance width and
// the line height.
func (f *Font) FrameSize() (width, height int) { return f.width, f.height }

// Close releases the font face.
func (f *Font) Close() error { return f.face.Close() }

// Rasterize renders each symbol into a cell-sized grayscale buffer, dark
// ink on a white background.
func (f *Font) Rasterize(symbols []rune) (map[rune]*PixelBuffer, error) {
	glyphs := make(map[rune]*PixelBuffer, len(symbols))
	for _, r := range symbols {
		g, err := f.rasterizeGlyph(r)
		if err != nil {
			return nil, fmt.Errorf("%w: rasterize %q: %v", ErrFontLoad, r, err)
		}
		glyphs[r] = g
	}
	return glyphs, nil
}

// rasterizeGlyph renders a single glyph.
//
// The glyph is drawn as coverage into an alpha image, which keeps the
// anti-aliased edge pixels, and then flipped into brightness so that full
// coverage is black (0) and no coverage is white (255). The pen starts at
// the left edge with the baseline one ascent below the top of the cell.
func (f *Font) rasterizeGlyph(r rune) (*PixelBuffer, error) {
	img := image.NewAlpha(image.Rect(0, 0, f.width, f.height))

	ctx := freetype.NewContext()
	ctx.SetDPI(f.dpi)
	ctx.SetFont(f.ttf)
	ctx.SetFontSize(f.size)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.White)
	ctx.SetHinting(font.HintingFull)

	if _, err := ctx.DrawString(string(r), freetype.Pt(0, f.ascent)); err != nil {
		return nil, err
	}

	pix := make([]byte, f.width*f.height)
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			pix[y*f.width+x] = 255 - img.AlphaAt(x, y).A
		}
	}
	return NewPixelBuffer(f.height, f.width, pix)
}

// LoadVocabulary loads a font and builds its vocabulary. A path ending
// in ".glyphs" is read as a precomputed glyph cache (see SaveGlyphData)
// instead of being rasterized; opts.Symbols then selects from the cached
// glyphs. The returned frame size is the font's glyph cell.
func LoadVocabulary(path string, opts FontOptions) (vocab *Vocabulary, frameWidth, frameHeight int, err error) {
	requested := opts.Symbols
	opts = opts.withDefaults()

	if strings.HasSuffix(path, ".glyphs") {
		data, err := ReadGlyphDataFile(path)
		if err != nil {
			return nil, 0, 0, err
		}
		if len(requested) > 0 {
			if data, err = data.Select(requested); err != nil {
				return nil, 0, 0, err
			}
		}
		vocab, err := data.Vocabulary(opts.Invert)
		if err != nil {
			return nil, 0, 0, err
		}
		return vocab, data.Width, data.Height, nil
	}

	f, err := LoadFont(path, opts)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	glyphs, err := f.Rasterize(opts.Symbols)
	if err != nil {
		return nil, 0, 0, err
	}
	vocab, err = NewVocabulary(glyphs, opts.Invert)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrFontLoad, err)
	}
	frameWidth, frameHeight = f.FrameSize()
	return vocab, frameWidth, frameHeight, nil
}
