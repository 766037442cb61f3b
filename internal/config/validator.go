package config

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/wbrown/img2ascii"
	"github.com/wbrown/img2ascii/imageutil"
)

// Validate checks the configuration for a render and fills derived
// defaults.
func Validate(cfg *Config) error {
	if cfg.Image == "" {
		return fmt.Errorf("image is required")
	}
	if cfg.Outfile == "" {
		cfg.Outfile = DefaultOutfile(cfg.Image)
	}

	if cfg.FontSize <= 0 {
		return fmt.Errorf("font_size must be > 0")
	}
	if cfg.DPI <= 0 {
		return fmt.Errorf("dpi must be > 0")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("workers must be > 0")
	}
	if cfg.MergeTimeout < 0 {
		return fmt.Errorf("merge_timeout must not be negative")
	}
	if cfg.Width < 0 {
		return fmt.Errorf("width must not be negative")
	}
	if cfg.Contrast < -100 || cfg.Contrast > 100 {
		return fmt.Errorf("contrast must be within -100..100")
	}

	if n := utf8.RuneCountInString(cfg.BlankSymbol); n > 1 {
		return fmt.Errorf("blank_symbol must be a single character, got %q", cfg.BlankSymbol)
	}
	if cfg.Symbols != "" && len(cfg.SymbolSet()) < 2 {
		return fmt.Errorf("symbols must contain at least two distinct characters")
	}

	if _, err := img2ascii.ParseStrategy(cfg.Strategy); err != nil {
		return err
	}
	if _, err := img2ascii.ParseMatchMode(cfg.Mode); err != nil {
		return err
	}
	if _, err := imageutil.ParseGrayMethod(cfg.Gray); err != nil {
		return err
	}
	if _, err := imageutil.ParseDecoder(cfg.Decoder); err != nil {
		return err
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
