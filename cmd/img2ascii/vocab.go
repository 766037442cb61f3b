package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wbrown/img2ascii"
	"github.com/wbrown/img2ascii/internal/config"
)

var vocabCfg = config.Default()

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Build and inspect glyph vocabularies",
}

var vocabBuildCmd = &cobra.Command{
	Use:   "build OUTPUT.glyphs",
	Short: "Rasterize a font once and cache its glyphs for later renders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := args[0]
		if !strings.HasSuffix(out, ".glyphs") {
			return fmt.Errorf("output %q must end in .glyphs", out)
		}
		data, err := buildGlyphData(vocabCfg)
		if err != nil {
			return err
		}
		if err := img2ascii.WriteGlyphDataFile(out, data); err != nil {
			return err
		}
		logger.Info("vocab: wrote glyph cache", "path", out,
			"font", data.FontName, "glyphs", len(data.Glyphs),
			"frame", fmt.Sprintf("%dx%d", data.Width, data.Height))
		return nil
	},
}

var vocabExportOut string

var vocabExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a font's symbol brightness table as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		vocab, fw, fh, err := img2ascii.LoadVocabulary(vocabCfg.Font, fontOptions(vocabCfg))
		if err != nil {
			return err
		}
		name := vocabCfg.Font
		if name == "" {
			name = "gomono"
		}
		doc, err := vocab.ExportJSON(img2ascii.VocabularyInfo{
			Font:        name,
			PointSize:   vocabCfg.FontSize,
			DPI:         vocabCfg.DPI,
			FrameWidth:  fw,
			FrameHeight: fh,
		})
		if err != nil {
			return err
		}
		doc = append(doc, '\n')

		if vocabExportOut == "" || vocabExportOut == "-" {
			_, err = cmd.OutOrStdout().Write(doc)
			return err
		}
		return os.WriteFile(vocabExportOut, doc, 0o644)
	},
}

func init() {
	for _, c := range []*cobra.Command{vocabBuildCmd, vocabExportCmd} {
		f := c.Flags()
		f.StringVar(&vocabCfg.Font, "font", "", "Monospaced TTF font (default: embedded Go Mono)")
		f.Float64Var(&vocabCfg.FontSize, "fontsize", vocabCfg.FontSize, "Font size in points")
		f.Float64Var(&vocabCfg.DPI, "dpi", vocabCfg.DPI, "Font rasterization resolution")
		f.StringVar(&vocabCfg.Symbols, "symbols", "", "Symbols to include (default: printable ASCII)")
	}
	vocabExportCmd.Flags().BoolVar(&vocabCfg.Invert, "invert", false, "Export brightness for light text on a dark background")
	vocabExportCmd.Flags().StringVarP(&vocabExportOut, "output", "o", "", "Output file (default: stdout)")

	vocabCmd.AddCommand(vocabBuildCmd, vocabExportCmd)
	rootCmd.AddCommand(vocabCmd)
}

func fontOptions(cfg *config.Config) img2ascii.FontOptions {
	return img2ascii.FontOptions{
		PointSize: cfg.FontSize,
		DPI:       cfg.DPI,
		Invert:    cfg.Invert,
		Symbols:   cfg.SymbolSet(),
	}
}

func buildGlyphData(cfg *config.Config) (*img2ascii.GlyphData, error) {
	f, err := img2ascii.LoadFont(cfg.Font, fontOptions(cfg))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	symbols := cfg.SymbolSet()
	if symbols == nil {
		symbols = img2ascii.PrintableSymbols()
	}
	return f.GlyphData(symbols)
}
