package img2ascii

import (
	"errors"
	"testing"

	"github.com/tidwall/gjson"
)

func TestVocabularyJSON(t *testing.T) {
	vocab, _ := NewVocabularyFromBrightness(map[rune]byte{' ': 255, '.': 190, '#': 0})
	info := VocabularyInfo{Font: "gomono", PointSize: 6, DPI: 300, FrameWidth: 15, FrameHeight: 29}

	doc, err := vocab.ExportJSON(info)
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	if got := gjson.GetBytes(doc, "symbols.#").Int(); got != 3 {
		t.Errorf("Exported %d symbols, want 3", got)
	}
	// Symbols are written in ascending order
	if got := gjson.GetBytes(doc, "symbols.0.symbol").String(); got != " " {
		t.Errorf("First symbol = %q, want ' '", got)
	}

	back, gotInfo, err := ParseVocabularyJSON(doc)
	if err != nil {
		t.Fatalf("ParseVocabularyJSON: %v", err)
	}
	if gotInfo != info {
		t.Errorf("Info = %+v, want %+v", gotInfo, info)
	}
	for _, r := range vocab.Symbols() {
		want, _ := vocab.BrightnessOf(r)
		if got, err := back.BrightnessOf(r); err != nil || got != want {
			t.Errorf("BrightnessOf(%q) = %d, %v; want %d", r, got, err, want)
		}
	}
	if back.HasGlyphs() {
		t.Error("Imported vocabulary should not carry glyphs")
	}
}

func TestVocabularyJSONKeepsInversion(t *testing.T) {
	vocab, _, _, err := LoadVocabulary("", FontOptions{Invert: true, Symbols: []rune(" #")})
	if err != nil {
		t.Fatal(err)
	}
	doc, err := vocab.ExportJSON(VocabularyInfo{})
	if err != nil {
		t.Fatal(err)
	}
	back, _, err := ParseVocabularyJSON(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Inverted() {
		t.Error("Inversion flag was lost")
	}
}

func TestParseVocabularyJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"symbols": [`},
		{"no symbols", `{"font": "x"}`},
		{"empty symbols", `{"symbols": []}`},
		{"multi-rune symbol", `{"symbols": [{"symbol": "ab", "brightness": 1}]}`},
		{"wide symbol", `{"symbols": [{"symbol": "世", "brightness": 1}]}`},
		{"duplicate", `{"symbols": [{"symbol": "a", "brightness": 1}, {"symbol": "a", "brightness": 2}]}`},
		{"brightness range", `{"symbols": [{"symbol": "a", "brightness": 300}]}`},
	}
	for _, tt := range tests {
		if _, _, err := ParseVocabularyJSON([]byte(tt.doc)); !errors.Is(err, ErrFontLoad) {
			t.Errorf("%s: expected ErrFontLoad, got %v", tt.name, err)
		}
	}
}
