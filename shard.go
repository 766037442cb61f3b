package img2ascii

import (
	"context"
	"fmt"
)

// runSymbolShards implements SymbolSharding: worker w matches every
// frame against the w-th contiguous subset of the vocabulary, and the
// merge keeps, per frame, the lowest Diff across workers. Equal Diffs go
// to the lower worker index, which holds the lower symbols, so the
// result equals a single scan in ascending symbol order.
func (j *job) runSymbolShards(
	ctx context.Context,
	buf *PixelBuffer,
	vocab *Vocabulary,
	width, height int,
) ([]Match, int, []error, error) {
	first, err := buf.FirstFrame(width, height)
	if err != nil {
		return nil, 0, nil, err
	}
	last, err := buf.LastFrame(width, height)
	if err != nil {
		return nil, 0, nil, err
	}
	subsets := vocab.Split(j.r.Workers)
	j.setState(StatePartitioned)
	j.log.Debug("render: partitioned", "frames", j.total, "subsets", len(subsets))

	if j.r.progress != nil {
		j.r.progress.Begin(j.total * len(subsets))
	}
	results := make([]*PartialResult, len(subsets))
	for i := range subsets {
		results[i] = newPartialResult(i, j.total)
	}
	j.setState(StateRunning)
	for i, subset := range subsets {
		go j.matchSubset(first, last, subset, results[i])
	}

	j.setState(StateMerging)
	deadline, stop := j.mergeDeadline()
	defer stop()

	var failures []error
	for _, res := range results {
		if err := j.await(ctx, res, deadline); err != nil {
			return nil, 0, nil, err
		}
		if res.Err != nil {
			failures = append(failures, res.Err)
		}
	}

	matches := make([]Match, j.total)
	subst := 0
	for f := range matches {
		found := false
		for _, res := range results {
			// A worker that stopped early has no say on later frames.
			if f >= len(res.Matches) || res.Matches[f].Symbol == 0 {
				continue
			}
			if !found || res.Matches[f].Diff < matches[f].Diff {
				matches[f] = res.Matches[f]
				found = true
			}
		}
		if !found {
			matches[f] = Match{Symbol: j.r.BlankSymbol, Diff: 255}
			subst++
		}
	}
	return matches, subst, failures, nil
}

// matchSubset is the worker body for one symbol subset. Frames the
// worker cannot match are recorded with a zero Symbol so the reduction
// skips them.
func (j *job) matchSubset(first, last *FrameCursor, subset []rune, res *PartialResult) {
	defer res.complete()
	defer func() {
		if rec := recover(); rec != nil {
			res.Err = fmt.Errorf("subset %d: panic: %v", res.RangeIndex, rec)
			j.log.Error("render: worker panicked", "subset", res.RangeIndex, "panic", rec)
		}
	}()

	frame := first.Clone()
	pending := 0
	for {
		m, err := j.matcher.Match(frame, subset)
		if err != nil {
			j.log.Warn("render: frame skipped",
				"subset", res.RangeIndex, "frame", frame.String(), "error", err)
			m = Match{Diff: 255}
			res.Substituted++
		}
		res.Matches = append(res.Matches, m)
		pending = j.report(pending + 1)

		if frame.Equal(last) {
			break
		}
		if err := frame.Advance(); err != nil {
			res.Err = fmt.Errorf("subset %d: %w", res.RangeIndex, err)
			break
		}
	}
	j.flush(pending)
	j.log.Debug("render: subset complete",
		"subset", res.RangeIndex, "symbols", len(subset), "frames", len(res.Matches))
}
