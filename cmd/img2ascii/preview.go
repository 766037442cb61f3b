package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview FILE",
	Short: "Scroll through rendered ASCII art in the terminal",
	Long: `Shows a rendered text file in a full-screen viewer.

Keys: arrows scroll, PgUp/PgDn page, Home/End jump, q or Esc quits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return runPreview(string(data), args[0])
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(text, title string) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	defer screen.Fini()

	newViewer(screen, text, title).run()
	return nil
}

// viewer is a read-only pager over a block of text. The last screen row
// is a status line.
type viewer struct {
	screen tcell.Screen
	lines  [][]rune
	width  int // longest line
	title  string
	top    int
	left   int
}

func newViewer(screen tcell.Screen, text, title string) *viewer {
	v := &viewer{screen: screen, title: title}
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		runes := []rune(line)
		if len(runes) > v.width {
			v.width = len(runes)
		}
		v.lines = append(v.lines, runes)
	}
	return v
}

func (v *viewer) run() {
	for {
		v.draw()
		ev := v.screen.PollEvent()
		if ev == nil {
			return
		}
		if v.handle(ev) {
			return
		}
	}
}

// bodySize is the area available for text.
func (v *viewer) bodySize() (int, int) {
	w, h := v.screen.Size()
	if h > 0 {
		h--
	}
	return w, h
}

func (v *viewer) draw() {
	v.screen.Clear()
	w, h := v.bodySize()

	for y := 0; y < h && v.top+y < len(v.lines); y++ {
		line := v.lines[v.top+y]
		for x := 0; x < w && v.left+x < len(line); x++ {
			v.screen.SetContent(x, y, line[v.left+x], nil, tcell.StyleDefault)
		}
	}

	status := fmt.Sprintf(" %s  line %d/%d  col %d/%d  q: quit",
		v.title, min(v.top+1, len(v.lines)), len(v.lines), v.left+1, max(v.width, 1))
	style := tcell.StyleDefault.Reverse(true)
	col := 0
	for _, r := range status {
		if col >= w {
			break
		}
		v.screen.SetContent(col, h, r, nil, style)
		col++
	}
	for ; col < w; col++ {
		v.screen.SetContent(col, h, ' ', nil, style)
	}
	v.screen.Show()
}

// handle applies one event and reports whether the viewer should exit.
func (v *viewer) handle(ev tcell.Event) bool {
	w, h := v.bodySize()
	switch e := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
	case *tcell.EventKey:
		switch e.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyRune:
			switch e.Rune() {
			case 'q', 'Q':
				return true
			case 'j':
				v.top++
			case 'k':
				v.top--
			case 'h':
				v.left--
			case 'l':
				v.left++
			}
		case tcell.KeyUp:
			v.top--
		case tcell.KeyDown:
			v.top++
		case tcell.KeyLeft:
			v.left--
		case tcell.KeyRight:
			v.left++
		case tcell.KeyPgUp:
			v.top -= h
		case tcell.KeyPgDn:
			v.top += h
		case tcell.KeyHome:
			v.top, v.left = 0, 0
		case tcell.KeyEnd:
			v.top = len(v.lines)
		}
	}
	v.clamp(w, h)
	return false
}

func (v *viewer) clamp(w, h int) {
	v.top = max(0, min(v.top, len(v.lines)-h))
	v.left = max(0, min(v.left, v.width-w))
}
