// Package config loads img2ascii settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wbrown/img2ascii"
)

// EnvDB names the environment variable that supplies the history
// database URL when neither the file nor a flag does.
const EnvDB = "IMG2ASCII_DB"

// Config represents the complete img2ascii configuration
type Config struct {
	Image   string `yaml:"image"`
	Outfile string `yaml:"outfile"` // default: image path with a .txt extension

	// Font
	Font     string  `yaml:"font"` // TTF path or .glyphs cache; empty selects Go Mono
	FontSize float64 `yaml:"font_size"`
	DPI      float64 `yaml:"dpi"`
	Invert   bool    `yaml:"invert"`
	Symbols  string  `yaml:"symbols"` // empty means printable ASCII

	// Rendering
	Workers      int           `yaml:"workers"`
	Strategy     string        `yaml:"strategy"` // frames, symbols
	Mode         string        `yaml:"mode"`     // brightness, glyph
	MergeTimeout time.Duration `yaml:"merge_timeout"`
	BlankSymbol  string        `yaml:"blank_symbol"`

	// Image preparation
	Gray     string  `yaml:"gray"`  // luma, lightness
	Width    int     `yaml:"width"` // output columns, 0 keeps the source size
	Contrast float32 `yaml:"contrast"`
	Sharpen  bool    `yaml:"sharpen"`
	Decoder  string  `yaml:"decoder"` // go, gocv

	DB       string `yaml:"db"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		FontSize:    img2ascii.DefaultPointSize,
		DPI:         img2ascii.DefaultDPI,
		Workers:     runtime.NumCPU(),
		Strategy:    "frames",
		Mode:        "brightness",
		BlankSymbol: " ",
		Gray:        "luma",
		Decoder:     "go",
		LogLevel:    "info",
	}
}

// Load reads and parses a YAML configuration file on top of the
// defaults. Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto parses a YAML configuration file over the values already in
// cfg.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// ApplyEnv fills settings that may come from the environment.
func (c *Config) ApplyEnv() {
	if c.DB == "" {
		c.DB = os.Getenv(EnvDB)
	}
}

// DefaultOutfile derives the text output path from an image path by
// replacing its extension with .txt.
func DefaultOutfile(image string) string {
	return strings.TrimSuffix(image, filepath.Ext(image)) + ".txt"
}

// SymbolSet returns the configured symbols, or nil for the default set.
func (c *Config) SymbolSet() []rune {
	if c.Symbols == "" {
		return nil
	}
	seen := make(map[rune]bool)
	var symbols []rune
	for _, r := range c.Symbols {
		if !seen[r] {
			seen[r] = true
			symbols = append(symbols, r)
		}
	}
	return symbols
}

// Blank returns the blank symbol as a rune.
func (c *Config) Blank() rune {
	for _, r := range c.BlankSymbol {
		return r
	}
	return ' '
}
