package img2ascii

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// GlyphData is the serialized form of a rasterized font: every glyph as
// raw row-major brightness bytes, plus the cell size they were rendered
// at. It is written gob-encoded and gzip-compressed.
type GlyphData struct {
	FontName  string
	PointSize float64
	DPI       float64
	Width     int
	Height    int
	Glyphs    map[rune][]byte
}

// GlyphData rasterizes symbols and packages them for caching.
func (f *Font) GlyphData(symbols []rune) (*GlyphData, error) {
	glyphs, err := f.Rasterize(symbols)
	if err != nil {
		return nil, err
	}
	data := &GlyphData{
		FontName:  f.name,
		PointSize: f.size,
		DPI:       f.dpi,
		Width:     f.width,
		Height:    f.height,
		Glyphs:    make(map[rune][]byte, len(glyphs)),
	}
	for r, g := range glyphs {
		data.Glyphs[r] = g.pix
	}
	return data, nil
}

// Vocabulary rebuilds the vocabulary from cached glyphs.
func (d *GlyphData) Vocabulary(invert bool) (*Vocabulary, error) {
	glyphs := make(map[rune]*PixelBuffer, len(d.Glyphs))
	for r, pix := range d.Glyphs {
		g, err := NewPixelBuffer(d.Height, d.Width, pix)
		if err != nil {
			return nil, fmt.Errorf("%w: glyph %q: %v", ErrFontLoad, r, err)
		}
		glyphs[r] = g
	}
	vocab, err := NewVocabulary(glyphs, invert)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontLoad, err)
	}
	return vocab, nil
}

// Select returns a copy of d holding only the given symbols. Every
// symbol must be present in the cache.
func (d *GlyphData) Select(symbols []rune) (*GlyphData, error) {
	sel := *d
	sel.Glyphs = make(map[rune][]byte, len(symbols))
	for _, r := range symbols {
		pix, ok := d.Glyphs[r]
		if !ok {
			return nil, fmt.Errorf("%w: glyph cache for %s has no symbol %q", ErrFontLoad, d.FontName, r)
		}
		sel.Glyphs[r] = pix
	}
	return &sel, nil
}

// SaveGlyphData writes glyph data to w.
func SaveGlyphData(w io.Writer, d *GlyphData) error {
	gw := gzip.NewWriter(w)
	if err := gob.NewEncoder(gw).Encode(d); err != nil {
		gw.Close()
		return fmt.Errorf("failed to encode glyph data: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("failed to flush glyph data: %w", err)
	}
	return nil
}

// LoadGlyphData reads glyph data written by SaveGlyphData.
func LoadGlyphData(r io.Reader) (*GlyphData, error) {
	// Create gzip reader
	gr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gzip reader: %v", ErrFontLoad, err)
	}
	defer gr.Close()

	var data GlyphData
	if err := gob.NewDecoder(gr).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: failed to decode glyph data: %v", ErrFontLoad, err)
	}
	if data.Width <= 0 || data.Height <= 0 || len(data.Glyphs) == 0 {
		return nil, fmt.Errorf("%w: glyph data for %q is empty", ErrFontLoad, data.FontName)
	}
	return &data, nil
}

// WriteGlyphDataFile saves glyph data to path.
func WriteGlyphDataFile(path string, d *GlyphData) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := SaveGlyphData(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadGlyphDataFile loads glyph data from path.
func ReadGlyphDataFile(path string) (*GlyphData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontLoad, err)
	}
	defer f.Close()
	return LoadGlyphData(f)
}
