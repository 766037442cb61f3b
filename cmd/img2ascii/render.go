package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/wbrown/img2ascii"
	"github.com/wbrown/img2ascii/imageutil"
	"github.com/wbrown/img2ascii/internal/config"
	"github.com/wbrown/img2ascii/internal/store"
)

var (
	renderCfg = config.Default()

	renderConfigPath string
	renderVocabPath  string
	renderPNGPath    string
	renderPNGScale   int
	renderPreview    bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render an image as ASCII art",
	Example: `  img2ascii render --image cat.png
  img2ascii render -i cat.png --font DejaVuSansMono.ttf --fontsize 8 --invert
  img2ascii render -i cat.png --width 120 --strategy symbols --png cat_ascii.png`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := mergeConfigFile(cmd.Flags(), renderConfigPath, renderCfg); err != nil {
			return err
		}
		if cmd.Flags().Changed("db") {
			renderCfg.DB = dbURL
		}
		renderCfg.ApplyEnv()
		if err := config.Validate(renderCfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if err := applyConfigLogLevel(cmd.Flags(), renderCfg); err != nil {
			return err
		}
		return runRender(cmd.Context(), renderCfg)
	},
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderCfg.Image, "image", "i", "", "Path to the input image")
	f.StringVarP(&renderCfg.Outfile, "outfile", "o", "", "Output text file (default: image path with .txt)")
	f.StringVar(&renderCfg.Font, "font", "", "Monospaced TTF font or .glyphs cache (default: embedded Go Mono)")
	f.Float64Var(&renderCfg.FontSize, "fontsize", renderCfg.FontSize, "Font size in points")
	f.Float64Var(&renderCfg.DPI, "dpi", renderCfg.DPI, "Font rasterization resolution")
	f.BoolVar(&renderCfg.Invert, "invert", false, "Render light text on a dark background")
	f.StringVar(&renderCfg.Symbols, "symbols", "", "Symbols to render with (default: printable ASCII)")
	f.IntVarP(&renderCfg.Workers, "workers", "w", renderCfg.Workers, "Number of parallel workers")
	f.StringVar(&renderCfg.Strategy, "strategy", renderCfg.Strategy, "Work split: frames or symbols")
	f.StringVar(&renderCfg.Mode, "mode", renderCfg.Mode, "Frame matching: brightness or glyph")
	f.DurationVar(&renderCfg.MergeTimeout, "merge-timeout", 0, "Give up waiting for workers after this long (0 waits forever)")
	f.StringVar(&renderCfg.BlankSymbol, "blank", renderCfg.BlankSymbol, "Symbol substituted for frames that cannot be matched")
	f.IntVar(&renderCfg.Width, "width", 0, "Output width in characters (0 keeps the image size)")
	f.StringVar(&renderCfg.Gray, "gray", renderCfg.Gray, "Grayscale conversion: luma or lightness")
	f.Float32Var(&renderCfg.Contrast, "contrast", 0, "Contrast adjustment in percent (-100..100)")
	f.BoolVar(&renderCfg.Sharpen, "sharpen", false, "Sharpen the image before rendering")
	f.StringVar(&renderCfg.Decoder, "decoder", renderCfg.Decoder, "Image decoder: go or gocv")

	f.StringVarP(&renderConfigPath, "config", "c", "", "YAML config file; flags given on the command line override it")
	f.StringVar(&renderVocabPath, "vocab", "", "Use a vocabulary exported with 'vocab export' instead of a font")
	f.StringVar(&renderPNGPath, "png", "", "Also draw the result with the font's glyphs into this PNG")
	f.IntVar(&renderPNGScale, "png-scale", 1, "Integer scale factor for --png")
	f.BoolVar(&renderPreview, "preview", false, "Show the result in an interactive viewer")

	rootCmd.AddCommand(renderCmd)
}

// mergeConfigFile loads path over cfg while keeping the values of flags
// that were set explicitly.
func mergeConfigFile(flags *pflag.FlagSet, path string, cfg *config.Config) error {
	if path == "" {
		return nil
	}
	explicit := map[string]string{}
	flags.Visit(func(f *pflag.Flag) {
		explicit[f.Name] = f.Value.String()
	})
	if err := config.LoadInto(path, cfg); err != nil {
		return err
	}
	for name, value := range explicit {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("flag --%s: %w", name, err)
		}
	}
	return nil
}

// applyConfigLogLevel switches to the config file's log level unless
// --log-level was given.
func applyConfigLogLevel(flags *pflag.FlagSet, cfg *config.Config) error {
	if flags.Changed("log-level") || cfg.LogLevel == "" {
		return nil
	}
	return setLogLevel(cfg.LogLevel)
}

// runRender loads the vocabulary and image, renders, and writes every
// requested output.
func runRender(ctx context.Context, cfg *config.Config) error {
	strategy, _ := img2ascii.ParseStrategy(cfg.Strategy)
	mode, _ := img2ascii.ParseMatchMode(cfg.Mode)
	gray, _ := imageutil.ParseGrayMethod(cfg.Gray)
	decoder, _ := imageutil.ParseDecoder(cfg.Decoder)

	start := time.Now()
	vocab, fontName, fw, fh, err := loadRenderVocabulary(cfg)
	if err != nil {
		return err
	}
	logger.Info("render: vocabulary loaded",
		"font", fontName, "symbols", vocab.Len(), "frame", fmt.Sprintf("%dx%d", fw, fh),
		"inverted", vocab.Inverted(), "elapsed", time.Since(start))

	buf, err := img2ascii.DecodeImage(cfg.Image, decoder, imageutil.Options{
		Gray:       gray,
		Columns:    cfg.Width,
		FrameWidth: fw,
		Contrast:   cfg.Contrast,
		Sharpen:    cfg.Sharpen,
	})
	if err != nil {
		return err
	}
	logger.Debug("render: image decoded", "path", cfg.Image, "cols", buf.Cols(), "rows", buf.Rows())

	opts := []img2ascii.RendererOption{
		img2ascii.WithWorkers(cfg.Workers),
		img2ascii.WithStrategy(strategy),
		img2ascii.WithMatchMode(mode),
		img2ascii.WithMergeTimeout(cfg.MergeTimeout),
		img2ascii.WithBlankSymbol(cfg.Blank()),
		img2ascii.WithLogger(logger),
	}
	var bar *progressbar.ProgressBar
	if term.IsTerminal(int(os.Stderr.Fd())) {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Rendering"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		opts = append(opts, img2ascii.WithProgress(barProgress{bar}))
	}

	res, err := img2ascii.NewRenderer(opts...).Render(ctx, buf, vocab, fw, fh)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}
	for _, f := range res.Failures {
		logger.Warn("render: worker failed, frames replaced with blanks", "error", f)
	}

	if err := os.WriteFile(cfg.Outfile, []byte(res.Text), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	logger.Info("render: wrote text", "outfile", cfg.Outfile,
		"columns", res.Columns, "rows", res.Rows, "elapsed", res.Elapsed)

	if renderPNGPath != "" {
		img, err := res.RenderImage(vocab, renderPNGScale)
		if err != nil {
			return err
		}
		if err := imageutil.SaveImage(img, renderPNGPath); err != nil {
			return err
		}
		logger.Info("render: wrote image", "png", renderPNGPath)
	}

	if cfg.DB != "" {
		if err := recordRender(ctx, cfg, fontName, res); err != nil {
			// History is best effort; the render itself succeeded
			logger.Warn("render: history not saved", "error", err)
		}
	}

	if renderPreview {
		return runPreview(res.Text, fmt.Sprintf("%s (%dx%d)", cfg.Image, res.Columns, res.Rows))
	}
	return nil
}

// loadRenderVocabulary returns the vocabulary, a display name for its
// source, and the frame size it expects.
func loadRenderVocabulary(cfg *config.Config) (*img2ascii.Vocabulary, string, int, int, error) {
	if renderVocabPath != "" {
		doc, err := os.ReadFile(renderVocabPath)
		if err != nil {
			return nil, "", 0, 0, fmt.Errorf("%w: %v", img2ascii.ErrFontLoad, err)
		}
		vocab, info, err := img2ascii.ParseVocabularyJSON(doc)
		if err != nil {
			return nil, "", 0, 0, err
		}
		if info.FrameWidth <= 0 || info.FrameHeight <= 0 {
			return nil, "", 0, 0, fmt.Errorf("%w: %s has no frame size", img2ascii.ErrFontLoad, renderVocabPath)
		}
		return vocab, info.Font, info.FrameWidth, info.FrameHeight, nil
	}

	vocab, fw, fh, err := img2ascii.LoadVocabulary(cfg.Font, img2ascii.FontOptions{
		PointSize: cfg.FontSize,
		DPI:       cfg.DPI,
		Invert:    cfg.Invert,
		Symbols:   cfg.SymbolSet(),
	})
	if err != nil {
		return nil, "", 0, 0, err
	}
	name := cfg.Font
	if name == "" {
		name = "gomono"
	}
	return vocab, name, fw, fh, nil
}

func recordRender(ctx context.Context, cfg *config.Config, fontName string, res *img2ascii.Result) error {
	db, err := store.New(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	// Close with Background; ctx may already be cancelled by Ctrl+C
	defer db.Close(context.Background())

	return db.SaveRender(ctx, store.Render{
		JobID:       res.JobID,
		Image:       cfg.Image,
		Font:        fontName,
		Strategy:    cfg.Strategy,
		Mode:        cfg.Mode,
		Workers:     cfg.Workers,
		Columns:     res.Columns,
		Rows:        res.Rows,
		Substituted: res.Substituted,
		Failures:    len(res.Failures),
		Elapsed:     res.Elapsed,
	})
}

// barProgress adapts a progress bar to img2ascii.Progress.
type barProgress struct {
	bar *progressbar.ProgressBar
}

func (p barProgress) Begin(total int) { p.bar.ChangeMax(total) }

func (p barProgress) Add(n int) { _ = p.bar.Add(n) }
