package img2ascii

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"reflect"
	"sync"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRenderAllBlack(t *testing.T) {
	t.Parallel()

	buf := newTestBuffer(t, 4, 4, nil)
	vocab, _ := NewVocabularyFromBrightness(map[rune]byte{' ': 255, '#': 0})

	for _, strategy := range []Strategy{FrameSharding, SymbolSharding} {
		r := NewRenderer(WithWorkers(3), WithStrategy(strategy), WithLogger(quietLogger()))
		res, err := r.Render(context.Background(), buf, vocab, 2, 2)
		if err != nil {
			t.Fatalf("%v: Render: %v", strategy, err)
		}
		if res.Text != "##\n##" {
			t.Errorf("%v: Text = %q, want %q", strategy, res.Text, "##\n##")
		}
		if res.Columns != 2 || res.Rows != 2 {
			t.Errorf("%v: grid = %dx%d, want 2x2", strategy, res.Columns, res.Rows)
		}
		if res.JobID == "" {
			t.Errorf("%v: missing job ID", strategy)
		}
	}
}

func TestRenderFrameTooLarge(t *testing.T) {
	t.Parallel()

	buf := newTestBuffer(t, 4, 4, nil)
	vocab, _ := NewVocabularyFromBrightness(map[rune]byte{' ': 255, '#': 0})
	for _, strategy := range []Strategy{FrameSharding, SymbolSharding} {
		r := NewRenderer(WithStrategy(strategy), WithLogger(quietLogger()))
		if _, err := r.Render(context.Background(), buf, vocab, 5, 2); !errors.Is(err, ErrFrameTooLarge) {
			t.Errorf("%v: expected ErrFrameTooLarge, got %v", strategy, err)
		}
	}
}

// randomScene returns a buffer of random pixels and a vocabulary of
// random glyphs sized to the frame.
func randomScene(t *testing.T, seed int64, rows, cols, fw, fh int) (*PixelBuffer, *Vocabulary) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	buf := newTestBuffer(t, rows, cols, func(r, c int) byte { return byte(rng.Intn(256)) })

	glyphs := map[rune]*PixelBuffer{}
	for _, r := range "  .:-=+*#%@abcXYZ" {
		glyphs[r] = newTestBuffer(t, fh, fw, func(_, _ int) byte { return byte(rng.Intn(256)) })
	}
	vocab, err := NewVocabulary(glyphs, false)
	if err != nil {
		t.Fatal(err)
	}
	return buf, vocab
}

// TestShardingDoesNotChangeOutput renders the same scene with every
// strategy, mode and a range of worker counts and expects identical
// output to a single worker.
func TestShardingDoesNotChangeOutput(t *testing.T) {
	t.Parallel()

	const fw, fh = 3, 4
	buf, vocab := randomScene(t, 42, 37, 50, fw, fh)
	frames := buf.CountFrames(fw, fh)

	for _, mode := range []MatchMode{ModeBrightness, ModeGlyphDiff} {
		ref, err := NewRenderer(WithWorkers(1), WithMatchMode(mode), WithLogger(quietLogger())).
			Render(context.Background(), buf, vocab, fw, fh)
		if err != nil {
			t.Fatalf("%v reference: %v", mode, err)
		}
		if len(ref.Matches) != frames {
			t.Fatalf("%v reference: %d matches, want %d", mode, len(ref.Matches), frames)
		}

		for _, strategy := range []Strategy{FrameSharding, SymbolSharding} {
			for _, workers := range []int{1, 2, 3, 5, 8, 16, frames, frames + 7} {
				r := NewRenderer(
					WithWorkers(workers),
					WithStrategy(strategy),
					WithMatchMode(mode),
					WithLogger(quietLogger()),
				)
				res, err := r.Render(context.Background(), buf, vocab, fw, fh)
				if err != nil {
					t.Fatalf("%v/%v/%d: %v", mode, strategy, workers, err)
				}
				if res.Text != ref.Text {
					t.Errorf("%v/%v/%d: text differs from single worker", mode, strategy, workers)
				}
				if !reflect.DeepEqual(res.Matches, ref.Matches) {
					t.Errorf("%v/%v/%d: matches differ from single worker", mode, strategy, workers)
				}
			}
		}
	}
}

func TestRenderProgress(t *testing.T) {
	t.Parallel()

	buf, vocab := randomScene(t, 7, 40, 40, 2, 2)
	for _, strategy := range []Strategy{FrameSharding, SymbolSharding} {
		var counter Counter
		r := NewRenderer(
			WithWorkers(4),
			WithStrategy(strategy),
			WithProgress(&counter),
			WithLogger(quietLogger()),
		)
		if _, err := r.Render(context.Background(), buf, vocab, 2, 2); err != nil {
			t.Fatal(err)
		}
		if counter.Total() == 0 || counter.Done() != counter.Total() {
			t.Errorf("%v: progress %d/%d", strategy, counter.Done(), counter.Total())
		}
	}
}

func TestRenderStates(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		states []State
	)
	hook := func(_ string, s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}

	buf := newTestBuffer(t, 4, 4, nil)
	vocab, _ := NewVocabularyFromBrightness(map[rune]byte{' ': 255, '#': 0})
	r := NewRenderer(WithStateHook(hook), WithLogger(quietLogger()))
	if _, err := r.Render(context.Background(), buf, vocab, 2, 2); err != nil {
		t.Fatal(err)
	}

	want := []State{StateIdle, StatePartitioned, StateRunning, StateMerging, StateDone}
	if !reflect.DeepEqual(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}

	states = nil
	if _, err := r.Render(context.Background(), buf, vocab, 8, 8); err == nil {
		t.Fatal("Expected error for oversized frame")
	}
	if last := states[len(states)-1]; last != StateFailed {
		t.Errorf("final state = %v, want %v", last, StateFailed)
	}
}

func TestRenderReportsFailedMatcherSetup(t *testing.T) {
	t.Parallel()

	var states []State
	hook := func(_ string, s State) { states = append(states, s) }

	buf := newTestBuffer(t, 4, 4, nil)
	vocab, _ := NewVocabularyFromBrightness(map[rune]byte{' ': 255, '#': 0})
	r := NewRenderer(WithMatchMode(ModeGlyphDiff), WithStateHook(hook), WithLogger(quietLogger()))
	if _, err := r.Render(context.Background(), buf, vocab, 2, 2); err == nil {
		t.Fatal("Expected error for glyph matching without glyphs")
	}

	want := []State{StateIdle, StateFailed}
	if !reflect.DeepEqual(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}
}

// stubMatcher delegates to fn.
type stubMatcher func(c *FrameCursor, symbols []rune) (Match, error)

func (f stubMatcher) Match(c *FrameCursor, symbols []rune) (Match, error) { return f(c, symbols) }

func TestRenderSubstitutesFailedFrames(t *testing.T) {
	t.Parallel()

	// Frames with mean 0 fail to match
	buf := newTestBuffer(t, 2, 8, func(r, c int) byte {
		if c >= 4 && c < 6 {
			return 0
		}
		return 200
	})
	vocab, _ := NewVocabularyFromBrightness(map[rune]byte{'_': 0, '#': 255})
	base := BrightnessMatcher{Vocab: vocab}
	flaky := stubMatcher(func(c *FrameCursor, symbols []rune) (Match, error) {
		if c.Mean() == 0 {
			return Match{}, ErrDimensionMismatch
		}
		return base.Match(c, symbols)
	})

	for _, strategy := range []Strategy{FrameSharding, SymbolSharding} {
		r := NewRenderer(
			WithWorkers(2),
			WithStrategy(strategy),
			WithMatcher(flaky),
			WithBlankSymbol('?'),
			WithLogger(quietLogger()),
		)
		res, err := r.Render(context.Background(), buf, vocab, 2, 2)
		if err != nil {
			t.Fatalf("%v: %v", strategy, err)
		}
		if res.Text != "##?#" {
			t.Errorf("%v: Text = %q, want %q", strategy, res.Text, "##?#")
		}
		if res.Substituted == 0 {
			t.Errorf("%v: expected substitutions to be counted", strategy)
		}
	}
}

func TestRenderRecoversWorkerPanic(t *testing.T) {
	t.Parallel()

	buf := newTestBuffer(t, 2, 8, func(r, c int) byte {
		if c >= 6 {
			return 1
		}
		return 200
	})
	vocab, _ := NewVocabularyFromBrightness(map[rune]byte{'_': 0, '#': 255})
	base := BrightnessMatcher{Vocab: vocab}
	panicky := stubMatcher(func(c *FrameCursor, symbols []rune) (Match, error) {
		if c.Mean() == 1 {
			panic("bad frame")
		}
		return base.Match(c, symbols)
	})

	r := NewRenderer(WithWorkers(4), WithMatcher(panicky), WithLogger(quietLogger()))
	res, err := r.Render(context.Background(), buf, vocab, 2, 2)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Text != "### " {
		t.Errorf("Text = %q, want %q", res.Text, "### ")
	}
	if len(res.Failures) != 1 {
		t.Errorf("Failures = %v, want one", res.Failures)
	}
	if res.Substituted != 1 {
		t.Errorf("Substituted = %d, want 1", res.Substituted)
	}
}

func TestRenderMergeTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)
	stuck := stubMatcher(func(c *FrameCursor, symbols []rune) (Match, error) {
		<-release
		return Match{Symbol: '#'}, nil
	})

	buf := newTestBuffer(t, 4, 4, nil)
	vocab, _ := NewVocabularyFromBrightness(map[rune]byte{' ': 255, '#': 0})
	r := NewRenderer(
		WithWorkers(2),
		WithMatcher(stuck),
		WithMergeTimeout(20*time.Millisecond),
		WithLogger(quietLogger()),
	)

	start := time.Now()
	_, err := r.Render(context.Background(), buf, vocab, 2, 2)
	if !errors.Is(err, ErrMergeTimeout) {
		t.Fatalf("Expected ErrMergeTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Render took %v to time out", elapsed)
	}
}

func TestRenderContextCanceled(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)
	stuck := stubMatcher(func(c *FrameCursor, symbols []rune) (Match, error) {
		<-release
		return Match{Symbol: '#'}, nil
	})

	buf := newTestBuffer(t, 4, 4, nil)
	vocab, _ := NewVocabularyFromBrightness(map[rune]byte{' ': 255, '#': 0})
	r := NewRenderer(WithMatcher(stuck), WithLogger(quietLogger()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.Render(ctx, buf, vocab, 2, 2); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
}

func TestPartitionFrames(t *testing.T) {
	buf := newTestBuffer(t, 6, 6, nil)

	tests := []struct {
		workers int
		sizes   []int
	}{
		{1, []int{9}},
		{2, []int{5, 4}},
		{4, []int{3, 3, 3}},
		{9, []int{1, 1, 1, 1, 1, 1, 1, 1, 1}},
		{20, []int{1, 1, 1, 1, 1, 1, 1, 1, 1}},
	}
	for _, tt := range tests {
		ranges, err := partitionFrames(buf, 2, 2, tt.workers)
		if err != nil {
			t.Fatalf("workers=%d: %v", tt.workers, err)
		}
		var sizes []int
		for i, rg := range ranges {
			sizes = append(sizes, rg.frames)
			if rg.index != i {
				t.Errorf("workers=%d: range %d has index %d", tt.workers, i, rg.index)
			}
			// Ranges are contiguous: each starts one frame after the
			// previous one ends.
			if i > 0 {
				next := ranges[i-1].end.Clone()
				next.Advance()
				if !next.Equal(rg.start) {
					t.Errorf("workers=%d: gap before range %d", tt.workers, i)
				}
			}
		}
		if !reflect.DeepEqual(sizes, tt.sizes) {
			t.Errorf("workers=%d: sizes %v, want %v", tt.workers, sizes, tt.sizes)
		}
		last, _ := buf.LastFrame(2, 2)
		if !ranges[len(ranges)-1].end.Equal(last) {
			t.Errorf("workers=%d: last range does not end on the last frame", tt.workers)
		}
	}
}

func TestPartialResultCompletion(t *testing.T) {
	res := newPartialResult(0, 4)
	if res.Completed() {
		t.Fatal("New result should not be complete")
	}
	go func() {
		res.Matches = append(res.Matches, Match{Symbol: 'x'})
		res.complete()
	}()
	<-res.Done()
	if !res.Completed() {
		t.Error("Result should be complete after Done fires")
	}
	if len(res.Matches) != 1 {
		t.Errorf("Expected the worker's match to be visible, got %v", res.Matches)
	}
}

func TestParseStrategy(t *testing.T) {
	if s, err := ParseStrategy("Symbols"); err != nil || s != SymbolSharding {
		t.Errorf("ParseStrategy(Symbols) = %v, %v", s, err)
	}
	if s, err := ParseStrategy(""); err != nil || s != FrameSharding {
		t.Errorf("ParseStrategy(\"\") = %v, %v", s, err)
	}
	if _, err := ParseStrategy("pixels"); err == nil {
		t.Error("Expected error for unknown strategy")
	}
}

func TestLayoutText(t *testing.T) {
	matches := []Match{{Symbol: 'a'}, {Symbol: 'b'}, {Symbol: 'c'}, {Symbol: 'd'}, {Symbol: 'e'}, {Symbol: 'f'}}
	if got := layoutText(matches, 3); got != "abc\ndef" {
		t.Errorf("layoutText = %q", got)
	}
	if got := layoutText(matches, 1); got != "a\nb\nc\nd\ne\nf" {
		t.Errorf("layoutText = %q", got)
	}
	if got := layoutText(nil, 3); got != "" {
		t.Errorf("layoutText(nil) = %q", got)
	}
}
