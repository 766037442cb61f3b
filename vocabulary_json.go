package img2ascii

import (
	"fmt"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// VocabularyInfo describes where an exported vocabulary came from and
// which frame size it expects.
type VocabularyInfo struct {
	Font        string
	PointSize   float64
	DPI         float64
	FrameWidth  int
	FrameHeight int
}

// ExportJSON serializes the symbol brightness table. Glyph bitmaps are
// not exported; a vocabulary read back with ParseVocabularyJSON only
// supports brightness matching.
//
//	{"font":"gomono","point_size":6,"dpi":300,
//	 "frame":{"width":15,"height":28},"inverted":false,
//	 "symbols":[{"symbol":" ","brightness":255},...]}
func (v *Vocabulary) ExportJSON(info VocabularyInfo) ([]byte, error) {
	doc := []byte(`{}`)
	var err error
	set := func(path string, value any) {
		if err == nil {
			doc, err = sjson.SetBytes(doc, path, value)
		}
	}

	set("font", info.Font)
	set("point_size", info.PointSize)
	set("dpi", info.DPI)
	set("frame.width", info.FrameWidth)
	set("frame.height", info.FrameHeight)
	set("inverted", v.invert)
	set("symbols", []any{})
	for _, e := range v.entries {
		set("symbols.-1", map[string]any{
			"symbol":     string(e.symbol),
			"brightness": int(e.brightness),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("export vocabulary: %w", err)
	}
	return doc, nil
}

// ParseVocabularyJSON reads a document written by ExportJSON.
func ParseVocabularyJSON(doc []byte) (*Vocabulary, VocabularyInfo, error) {
	var info VocabularyInfo
	if !gjson.ValidBytes(doc) {
		return nil, info, fmt.Errorf("%w: vocabulary is not valid JSON", ErrFontLoad)
	}
	root := gjson.ParseBytes(doc)
	info = VocabularyInfo{
		Font:        root.Get("font").String(),
		PointSize:   root.Get("point_size").Float(),
		DPI:         root.Get("dpi").Float(),
		FrameWidth:  int(root.Get("frame.width").Int()),
		FrameHeight: int(root.Get("frame.height").Int()),
	}

	symbols := root.Get("symbols")
	if !symbols.IsArray() {
		return nil, info, fmt.Errorf("%w: vocabulary has no symbols array", ErrFontLoad)
	}
	entries := make([]vocabEntry, 0, len(symbols.Array()))
	seen := make(map[rune]bool)
	var perr error
	symbols.ForEach(func(_, item gjson.Result) bool {
		s := item.Get("symbol").String()
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 || size != len(s) {
			perr = fmt.Errorf("%w: symbol %q is not a single rune", ErrUnknownSymbol, s)
			return false
		}
		if err := checkSymbol(r); err != nil {
			perr = err
			return false
		}
		if seen[r] {
			perr = fmt.Errorf("duplicate symbol %q", r)
			return false
		}
		b := item.Get("brightness").Int()
		if b < 0 || b > 255 {
			perr = fmt.Errorf("brightness %d of %q out of range", b, r)
			return false
		}
		seen[r] = true
		entries = append(entries, vocabEntry{symbol: r, brightness: byte(b)})
		return true
	})
	if perr != nil {
		return nil, info, fmt.Errorf("%w: %v", ErrFontLoad, perr)
	}
	if len(entries) == 0 {
		return nil, info, fmt.Errorf("%w: vocabulary is empty", ErrFontLoad)
	}

	vocab, err := NewVocabularyFromBrightness(entriesToMap(entries))
	if err != nil {
		return nil, info, err
	}
	vocab.invert = root.Get("inverted").Bool()
	return vocab, info, nil
}

func entriesToMap(entries []vocabEntry) map[rune]byte {
	m := make(map[rune]byte, len(entries))
	for _, e := range entries {
		m[e.symbol] = e.brightness
	}
	return m
}
