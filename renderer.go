package img2ascii

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Strategy selects how a rendering job is split between workers.
type Strategy int

const (
	// FrameSharding gives each worker a contiguous range of frames to
	// match against the whole vocabulary.
	FrameSharding Strategy = iota

	// SymbolSharding gives each worker a contiguous subset of the
	// vocabulary to match every frame against; the per-frame winners are
	// then reduced to the global best.
	SymbolSharding
)

// String implements fmt.Stringer.
func (s Strategy) String() string {
	switch s {
	case FrameSharding:
		return "frames"
	case SymbolSharding:
		return "symbols"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy parses "frames" or "symbols".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "", "frames", "frame":
		return FrameSharding, nil
	case "symbols", "symbol":
		return SymbolSharding, nil
	}
	return 0, fmt.Errorf("unknown strategy %q, options are frames or symbols", s)
}

// State is the lifecycle stage of a rendering job.
type State int

const (
	StateIdle State = iota
	StatePartitioned
	StateRunning
	StateMerging
	StateDone
	StateFailed
)

var stateNames = [...]string{"idle", "partitioned", "running", "merging", "done", "failed"}

// String implements fmt.Stringer.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Progress receives progress reports from a running job. Add is called
// from worker goroutines and must be safe for concurrent use.
type Progress interface {
	Begin(total int)
	Add(n int)
}

// progressBatch is how many frames a worker matches between reports.
const progressBatch = 64

// Renderer turns pixel buffers into symbol text. A Renderer holds only
// configuration; every call to Render is an independent job, so one
// Renderer may serve concurrent renders.
type Renderer struct {
	// Configuration options
	Workers      int
	Strategy     Strategy
	MatchMode    MatchMode
	MergeTimeout time.Duration // 0 waits forever
	BlankSymbol  rune

	logger    *slog.Logger
	progress  Progress
	stateHook func(jobID string, s State)
	matcher   Matcher
}

// RendererOption is a functional option for configuring a Renderer.
type RendererOption func(*Renderer)

// NewRenderer creates a new Renderer with the given options.
// Default values: Workers=runtime.NumCPU(), Strategy=FrameSharding,
// MatchMode=ModeBrightness, MergeTimeout=0, BlankSymbol=' '.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		Workers:     runtime.NumCPU(),
		Strategy:    FrameSharding,
		MatchMode:   ModeBrightness,
		BlankSymbol: ' ',
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithWorkers sets the number of concurrent workers (minimum 1).
func WithWorkers(n int) RendererOption {
	return func(r *Renderer) {
		r.Workers = max(n, 1)
	}
}

// WithStrategy sets the work partitioning strategy.
func WithStrategy(s Strategy) RendererOption {
	return func(r *Renderer) {
		r.Strategy = s
	}
}

// WithMatchMode sets the frame matching mode.
func WithMatchMode(m MatchMode) RendererOption {
	return func(r *Renderer) {
		r.MatchMode = m
	}
}

// WithMergeTimeout bounds how long the merge step waits for workers.
// Expiry fails the whole job with ErrMergeTimeout.
func WithMergeTimeout(d time.Duration) RendererOption {
	return func(r *Renderer) {
		r.MergeTimeout = d
	}
}

// WithBlankSymbol sets the symbol substituted for frames that cannot be
// matched.
func WithBlankSymbol(b rune) RendererOption {
	return func(r *Renderer) {
		r.BlankSymbol = b
	}
}

// WithMatcher replaces the built-in matcher selected by MatchMode.
func WithMatcher(m Matcher) RendererOption {
	return func(r *Renderer) {
		r.matcher = m
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) RendererOption {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithProgress sets a progress receiver.
func WithProgress(p Progress) RendererOption {
	return func(r *Renderer) {
		r.progress = p
	}
}

// WithStateHook registers a callback invoked on every job state change.
func WithStateHook(fn func(jobID string, s State)) RendererOption {
	return func(r *Renderer) {
		r.stateHook = fn
	}
}

// Result is a finished rendering.
type Result struct {
	JobID       string
	Text        string
	Columns     int // frames per row
	Rows        int // rows of frames
	FrameWidth  int
	FrameHeight int
	Matches     []Match // one per frame, raster order
	Substituted int     // frames replaced by the blank symbol
	Failures    []error // per-worker failures that were papered over
	Elapsed     time.Duration
}

// String returns the rendered text.
func (res *Result) String() string { return res.Text }

// job is the per-call state of Render.
type job struct {
	id      string
	r       *Renderer
	log     *slog.Logger
	matcher Matcher
	state   State
	total   int
	start   time.Time
}

func (j *job) setState(s State) {
	j.state = s
	j.log.Debug("render: state", "state", s.String())
	if j.r.stateHook != nil {
		j.r.stateHook(j.id, s)
	}
}

// Render splits buf into frames of frameWidth x frameHeight pixels and
// matches each against vocab, using the configured number of workers.
// The returned text has one line per row of frames, separated by '\n'
// with no trailing newline. Output never depends on the worker count or
// strategy.
func (r *Renderer) Render(
	ctx context.Context,
	buf *PixelBuffer,
	vocab *Vocabulary,
	frameWidth, frameHeight int,
) (*Result, error) {
	j := &job{id: uuid.NewString(), r: r, start: time.Now()}
	j.log = r.logger.With("job", j.id)
	j.setState(StateIdle)

	j.matcher = r.matcher
	if j.matcher == nil {
		matcher, err := NewMatcher(r.MatchMode, vocab)
		if err != nil {
			j.setState(StateFailed)
			return nil, err
		}
		j.matcher = matcher
	}
	j.total = buf.CountFrames(frameWidth, frameHeight)

	var (
		matches  []Match
		subst    int
		failures []error
		err      error
	)
	switch r.Strategy {
	case FrameSharding:
		matches, subst, failures, err = j.runFrameShards(ctx, buf, frameWidth, frameHeight)
	case SymbolSharding:
		matches, subst, failures, err = j.runSymbolShards(ctx, buf, vocab, frameWidth, frameHeight)
	default:
		err = fmt.Errorf("unknown strategy %v", r.Strategy)
	}
	if err != nil {
		j.setState(StateFailed)
		return nil, err
	}

	perRow := buf.FramesPerRow(frameWidth)
	res := &Result{
		JobID:       j.id,
		Text:        layoutText(matches, perRow),
		Columns:     perRow,
		Rows:        buf.Rows() / frameHeight,
		FrameWidth:  frameWidth,
		FrameHeight: frameHeight,
		Matches:     matches,
		Substituted: subst,
		Failures:    failures,
		Elapsed:     time.Since(j.start),
	}
	j.setState(StateDone)
	j.log.Info("render: done",
		"frames", len(matches),
		"columns", res.Columns,
		"rows", res.Rows,
		"substituted", subst,
		"failures", len(failures),
		"elapsed", res.Elapsed)
	return res, nil
}

// runFrameShards implements FrameSharding.
func (j *job) runFrameShards(
	ctx context.Context,
	buf *PixelBuffer,
	width, height int,
) ([]Match, int, []error, error) {
	ranges, err := partitionFrames(buf, width, height, j.r.Workers)
	if err != nil {
		return nil, 0, nil, err
	}
	j.setState(StatePartitioned)
	j.log.Debug("render: partitioned", "frames", j.total, "ranges", len(ranges))

	if j.r.progress != nil {
		j.r.progress.Begin(j.total)
	}
	results := make([]*PartialResult, len(ranges))
	for i, rg := range ranges {
		results[i] = newPartialResult(rg.index, rg.frames)
	}
	j.setState(StateRunning)
	for i, rg := range ranges {
		go j.matchRange(rg, results[i])
	}

	j.setState(StateMerging)
	deadline, stop := j.mergeDeadline()
	defer stop()

	matches := make([]Match, 0, j.total)
	var (
		subst    int
		failures []error
	)
	for i, res := range results {
		if err := j.await(ctx, res, deadline); err != nil {
			return nil, 0, nil, err
		}
		matches = append(matches, res.Matches...)
		subst += res.Substituted
		if res.Err != nil {
			failures = append(failures, res.Err)
			missing := ranges[i].frames - len(res.Matches)
			for k := 0; k < missing; k++ {
				matches = append(matches, Match{Symbol: j.r.BlankSymbol, Diff: 255})
			}
			subst += missing
		}
	}
	return matches, subst, failures, nil
}

// matchRange is the worker body for one frame range. Whatever happens,
// it completes res exactly once.
func (j *job) matchRange(rg frameRange, res *PartialResult) {
	defer res.complete()
	defer func() {
		if rec := recover(); rec != nil {
			res.Err = fmt.Errorf("range %d: panic: %v", rg.index, rec)
			j.log.Error("render: worker panicked", "range", rg.index, "panic", rec)
		}
	}()

	frame := rg.start.Clone()
	pending := 0
	for {
		m, err := j.matcher.Match(frame, nil)
		if err != nil {
			j.log.Warn("render: frame substituted",
				"range", rg.index, "frame", frame.String(), "error", err)
			m = Match{Symbol: j.r.BlankSymbol, Diff: 255}
			res.Substituted++
		}
		res.Matches = append(res.Matches, m)
		pending = j.report(pending + 1)

		if frame.Equal(rg.end) {
			break
		}
		if err := frame.Advance(); err != nil {
			res.Err = fmt.Errorf("range %d: %w", rg.index, err)
			break
		}
	}
	j.flush(pending)
	j.log.Debug("render: range complete", "range", rg.index, "frames", len(res.Matches))
}

// report accumulates progress and forwards it in batches.
func (j *job) report(pending int) int {
	if j.r.progress == nil || pending < progressBatch {
		return pending
	}
	j.r.progress.Add(pending)
	return 0
}

func (j *job) flush(pending int) {
	if j.r.progress != nil && pending > 0 {
		j.r.progress.Add(pending)
	}
}

// mergeDeadline returns a channel that fires when the merge timeout
// expires, or nil when no timeout is configured.
func (j *job) mergeDeadline() (<-chan time.Time, func()) {
	if j.r.MergeTimeout <= 0 {
		return nil, func() {}
	}
	t := time.NewTimer(j.r.MergeTimeout)
	return t.C, func() { t.Stop() }
}

// await blocks until res is complete.
func (j *job) await(ctx context.Context, res *PartialResult, deadline <-chan time.Time) error {
	select {
	case <-res.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-deadline:
		j.log.Error("render: merge timed out",
			"range", res.RangeIndex, "timeout", j.r.MergeTimeout)
		return fmt.Errorf("%w: range %d after %v",
			ErrMergeTimeout, res.RangeIndex, j.r.MergeTimeout)
	}
}

// layoutText joins symbols into lines of perRow symbols.
func layoutText(matches []Match, perRow int) string {
	var b strings.Builder
	if perRow > 0 {
		b.Grow(len(matches) + len(matches)/perRow)
	}
	for i, m := range matches {
		if i > 0 && perRow > 0 && i%perRow == 0 {
			b.WriteByte('\n')
		}
		b.WriteRune(m.Symbol)
	}
	return b.String()
}

// Counter is a Progress that only counts, for callers without a UI.
type Counter struct {
	total atomic.Int64
	done  atomic.Int64
}

// Begin implements Progress.
func (c *Counter) Begin(total int) { c.total.Store(int64(total)) }

// Add implements Progress.
func (c *Counter) Add(n int) { c.done.Add(int64(n)) }

// Done returns the number of frames reported so far.
func (c *Counter) Done() int { return int(c.done.Load()) }

// Total returns the announced total.
func (c *Counter) Total() int { return int(c.total.Load()) }
