package img2ascii

import "fmt"

// PartialResult holds the matches one worker produced for its share of a
// rendering job. The worker owns it exclusively until it closes the done
// channel; after that the result is read-only.
type PartialResult struct {
	RangeIndex int
	Matches    []Match

	// Substituted counts frames that could not be matched and were
	// replaced by the blank symbol.
	Substituted int

	// Err is set when the worker stopped before covering its whole share.
	Err error

	done chan struct{}
}

func newPartialResult(index, capacity int) *PartialResult {
	return &PartialResult{
		RangeIndex: index,
		Matches:    make([]Match, 0, capacity),
		done:       make(chan struct{}),
	}
}

// complete marks the result as final. It must be called exactly once, as
// the worker's last action. Closing the channel publishes every earlier
// write to any goroutine that observes the close.
func (p *PartialResult) complete() { close(p.done) }

// Done returns a channel that is closed once the result is complete.
func (p *PartialResult) Done() <-chan struct{} { return p.done }

// Completed reports, without blocking, whether the result is complete.
func (p *PartialResult) Completed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// frameRange is a contiguous run of frames in raster order, with both
// ends inclusive.
type frameRange struct {
	index  int
	start  *FrameCursor
	end    *FrameCursor
	frames int
}

// partitionFrames cuts the frames of buf into at most workers contiguous
// ranges of ceil(F/workers) frames each; the last range may be shorter.
// A single cursor is walked from the first frame, so every frame lands in
// exactly one range.
func partitionFrames(buf *PixelBuffer, width, height, workers int) ([]frameRange, error) {
	cursor, err := buf.FirstFrame(width, height)
	if err != nil {
		return nil, err
	}
	total := buf.CountFrames(width, height)
	if workers < 1 {
		workers = 1
	}
	perWorker := (total + workers - 1) / workers

	ranges := make([]frameRange, 0, workers)
	assigned := 0
	for assigned < total {
		n := min(perWorker, total-assigned)
		start := cursor.Clone()
		for i := 1; i < n; i++ {
			if err := cursor.Advance(); err != nil {
				return nil, fmt.Errorf("partition range %d: %w", len(ranges), err)
			}
		}
		ranges = append(ranges, frameRange{
			index:  len(ranges),
			start:  start,
			end:    cursor.Clone(),
			frames: n,
		})
		assigned += n
		if assigned < total {
			if err := cursor.Advance(); err != nil {
				return nil, fmt.Errorf("partition range %d: %w", len(ranges), err)
			}
		}
	}
	return ranges, nil
}
