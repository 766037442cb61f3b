package img2ascii

import (
	"fmt"
	"sort"

	"github.com/rivo/uniseg"
)

const (
	// FirstPrintable and LastPrintable bound the default symbol set.
	FirstPrintable = ' '
	LastPrintable  = '~'
)

// PrintableSymbols returns the printable ASCII range ' '..'~'.
func PrintableSymbols() []rune {
	symbols := make([]rune, 0, LastPrintable-FirstPrintable+1)
	for r := rune(FirstPrintable); r <= LastPrintable; r++ {
		symbols = append(symbols, r)
	}
	return symbols
}

type vocabEntry struct {
	symbol     rune
	brightness byte
	glyph      *PixelBuffer
}

// Vocabulary maps every symbol of a font to a single normalized
// brightness value. Entries are kept in ascending symbol order, which is
// also the tie-breaking order of every lookup. A Vocabulary is immutable
// after construction and safe for concurrent readers.
type Vocabulary struct {
	entries []vocabEntry
	index   map[rune]int
	invert  bool
}

// NewVocabulary builds a vocabulary from rasterized glyphs. Each glyph is
// reduced to its mean brightness, the means are contrast-stretched to
// span the whole [0,255] range and, if invert is set, flipped so the
// vocabulary describes light ink on a dark background.
func NewVocabulary(glyphs map[rune]*PixelBuffer, invert bool) (*Vocabulary, error) {
	if len(glyphs) == 0 {
		return nil, fmt.Errorf("%w: no glyphs", ErrUnknownSymbol)
	}

	entries := make([]vocabEntry, 0, len(glyphs))
	for r, g := range glyphs {
		if err := checkSymbol(r); err != nil {
			return nil, err
		}
		if g == nil || len(g.pix) == 0 {
			return nil, fmt.Errorf("empty glyph for %q", r)
		}
		entries = append(entries, vocabEntry{symbol: r, brightness: g.Mean(), glyph: g})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].symbol < entries[j].symbol })

	raw := make([]byte, len(entries))
	for i, e := range entries {
		raw[i] = e.brightness
	}
	for i, v := range ContrastStretch(raw) {
		if invert {
			v = 255 - v
		}
		entries[i].brightness = v
	}

	return newVocabulary(entries, invert), nil
}

// NewVocabularyFromBrightness builds a vocabulary from already-normalized
// brightness values. The values are used as given; no glyph bitmaps are
// attached, so the result only supports brightness matching.
func NewVocabularyFromBrightness(values map[rune]byte) (*Vocabulary, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no symbols", ErrUnknownSymbol)
	}
	entries := make([]vocabEntry, 0, len(values))
	for r, v := range values {
		if err := checkSymbol(r); err != nil {
			return nil, err
		}
		entries = append(entries, vocabEntry{symbol: r, brightness: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].symbol < entries[j].symbol })
	return newVocabulary(entries, false), nil
}

func newVocabulary(entries []vocabEntry, invert bool) *Vocabulary {
	index := make(map[rune]int, len(entries))
	for i, e := range entries {
		index[e.symbol] = i
	}
	return &Vocabulary{entries: entries, index: index, invert: invert}
}

// checkSymbol rejects runes that do not occupy exactly one terminal cell.
func checkSymbol(r rune) error {
	if w := uniseg.StringWidth(string(r)); w != 1 {
		return fmt.Errorf("%w: %q has display width %d", ErrUnknownSymbol, r, w)
	}
	return nil
}

// ContrastStretch rescales values linearly so that the smallest becomes 0
// and the largest 255, using integer floor arithmetic. The transform is
// monotonic. If all values are equal every result is 0.
func ContrastStretch(values []byte) []byte {
	out := make([]byte, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		return out
	}
	span := int(hi) - int(lo)
	for i, v := range values {
		out[i] = byte((int(v) - int(lo)) * 255 / span)
	}
	return out
}

// Len returns the number of symbols.
func (v *Vocabulary) Len() int { return len(v.entries) }

// Inverted reports whether the vocabulary was built for light-on-dark output.
func (v *Vocabulary) Inverted() bool { return v.invert }

// HasGlyphs reports whether glyph bitmaps are attached to every symbol.
func (v *Vocabulary) HasGlyphs() bool {
	for _, e := range v.entries {
		if e.glyph == nil {
			return false
		}
	}
	return len(v.entries) > 0
}

// Symbols returns all symbols in ascending order.
func (v *Vocabulary) Symbols() []rune {
	symbols := make([]rune, len(v.entries))
	for i, e := range v.entries {
		symbols[i] = e.symbol
	}
	return symbols
}

// BrightnessOf returns the normalized brightness of a symbol.
func (v *Vocabulary) BrightnessOf(r rune) (byte, error) {
	i, ok := v.index[r]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSymbol, r)
	}
	return v.entries[i].brightness, nil
}

// Glyph returns the rasterized glyph of a symbol, or nil if the
// vocabulary was built without glyphs.
func (v *Vocabulary) Glyph(r rune) (*PixelBuffer, error) {
	i, ok := v.index[r]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSymbol, r)
	}
	return v.entries[i].glyph, nil
}

// ClosestSymbolTo returns the symbol whose brightness is nearest to
// target. Ties go to the lowest symbol code.
func (v *Vocabulary) ClosestSymbolTo(target byte) rune {
	best, _, _ := v.closest(target, nil)
	return best
}

// closest scans the vocabulary, or only the given symbols when non-nil,
// and returns the best symbol with its brightness distance. ok is false
// when there was no candidate.
func (v *Vocabulary) closest(target byte, symbols []rune) (best rune, diff uint8, ok bool) {
	bestDiff := 256
	consider := func(e vocabEntry) {
		d := absDiff(int(target), int(e.brightness))
		if d < bestDiff {
			best, bestDiff = e.symbol, d
		}
	}

	if symbols == nil {
		for _, e := range v.entries {
			consider(e)
		}
	} else {
		for _, r := range symbols {
			if i, found := v.index[r]; found {
				consider(v.entries[i])
			}
		}
	}
	if bestDiff > 255 {
		return 0, 255, false
	}
	return best, uint8(bestDiff), true
}

// Split divides the symbols, in ascending order, into at most n
// contiguous non-empty subsets of near-equal size.
func (v *Vocabulary) Split(n int) [][]rune {
	symbols := v.Symbols()
	if n < 1 {
		n = 1
	}
	n = min(n, len(symbols))
	subsets := make([][]rune, 0, n)
	per := (len(symbols) + n - 1) / n
	for start := 0; start < len(symbols); start += per {
		end := min(start+per, len(symbols))
		subsets = append(subsets, symbols[start:end])
	}
	return subsets
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
