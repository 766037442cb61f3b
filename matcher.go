package img2ascii

import (
	"fmt"
	"strings"
)

// Match is the outcome of matching one frame: the chosen symbol and its
// distance from the frame (0 is a perfect match, 255 the worst).
type Match struct {
	Symbol rune
	Diff   uint8
}

// Matcher picks the best symbol for the frame under a cursor. When
// symbols is nil every vocabulary symbol is a candidate; otherwise only
// the given symbols are, and ties go to the earliest of them.
type Matcher interface {
	Match(c *FrameCursor, symbols []rune) (Match, error)
}

// MatchMode selects a Matcher implementation.
type MatchMode int

const (
	// ModeBrightness compares a frame's mean brightness with each
	// symbol's normalized brightness. O(symbols) per frame.
	ModeBrightness MatchMode = iota

	// ModeGlyphDiff compares a frame pixel by pixel against each symbol's
	// glyph bitmap. O(symbols × pixels) per frame; the glyphs must have
	// exactly the frame's pixel count.
	ModeGlyphDiff
)

// String implements fmt.Stringer.
func (m MatchMode) String() string {
	switch m {
	case ModeBrightness:
		return "brightness"
	case ModeGlyphDiff:
		return "glyph"
	}
	return fmt.Sprintf("MatchMode(%d)", int(m))
}

// ParseMatchMode parses "brightness" or "glyph".
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(s) {
	case "", "brightness":
		return ModeBrightness, nil
	case "glyph", "glyphdiff", "glyph-diff":
		return ModeGlyphDiff, nil
	}
	return 0, fmt.Errorf("unknown match mode %q, options are brightness or glyph", s)
}

// NewMatcher returns the Matcher for mode over vocab.
func NewMatcher(mode MatchMode, vocab *Vocabulary) (Matcher, error) {
	switch mode {
	case ModeBrightness:
		return BrightnessMatcher{Vocab: vocab}, nil
	case ModeGlyphDiff:
		if !vocab.HasGlyphs() {
			return nil, fmt.Errorf("glyph matching needs a vocabulary built from a font")
		}
		return GlyphDiffMatcher{Vocab: vocab}, nil
	}
	return nil, fmt.Errorf("unknown match mode %v", mode)
}

// BrightnessMatcher matches on mean brightness alone.
type BrightnessMatcher struct {
	Vocab *Vocabulary
}

// Match implements Matcher.
func (m BrightnessMatcher) Match(c *FrameCursor, symbols []rune) (Match, error) {
	if c.Size() == 0 {
		return Match{}, fmt.Errorf("%w: empty frame", ErrDimensionMismatch)
	}
	r, diff, ok := m.Vocab.closest(c.Mean(), symbols)
	if !ok {
		return Match{}, fmt.Errorf("%w: no candidate symbols", ErrUnknownSymbol)
	}
	return Match{Symbol: r, Diff: diff}, nil
}

// GlyphDiffMatcher matches on the mean absolute per-pixel difference
// between the frame and each glyph. Glyphs of an inverted vocabulary are
// compared inverted as well.
type GlyphDiffMatcher struct {
	Vocab *Vocabulary
}

// Match implements Matcher.
func (m GlyphDiffMatcher) Match(c *FrameCursor, symbols []rune) (Match, error) {
	if symbols == nil {
		symbols = m.Vocab.Symbols()
	}

	best := Match{Diff: 255}
	found := false
	for _, r := range symbols {
		glyph, err := m.Vocab.Glyph(r)
		if err != nil {
			return Match{}, err
		}
		diff, err := glyphDiff(c, glyph, m.Vocab.invert)
		if err != nil {
			return Match{}, fmt.Errorf("symbol %q: %w", r, err)
		}
		if !found || diff < best.Diff {
			best = Match{Symbol: r, Diff: diff}
			found = true
		}
	}
	if !found {
		return Match{}, fmt.Errorf("%w: no candidate symbols", ErrUnknownSymbol)
	}
	return best, nil
}

// glyphDiff returns the mean absolute difference between the frame under
// c and glyph.
func glyphDiff(c *FrameCursor, glyph *PixelBuffer, invert bool) (uint8, error) {
	if glyph == nil || len(glyph.pix) != c.Size() {
		return 0, fmt.Errorf("%w: frame %dx%d", ErrDimensionMismatch, c.width, c.height)
	}

	var acc uint64
	for y := 0; y < c.height; y++ {
		start := (c.row+y)*c.buf.cols + c.col
		row := c.buf.pix[start : start+c.width]
		g := glyph.pix[y*c.width : (y+1)*c.width]
		for x, p := range row {
			gp := int(g[x])
			if invert {
				gp = 255 - gp
			}
			acc += uint64(absDiff(int(p), gp))
		}
	}
	return uint8(acc / uint64(c.Size())), nil
}
