package transfer

import (
	"context"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"

	"github.com/ngld/knossos/packages/speedmon/pkg/speed"
	"github.com/ngld/knossos/packages/speedmon/pkg/tlog"
)

const (
	defaultBufferSize     = 32 * 1024
	defaultReportInterval = 300 * time.Millisecond
)

// Meter is what the copier needs from a speed monitor
type Meter interface {
	speed.Monitor
	speed.Lookup
}

type progressTarget interface {
	SetSoFarBytes(int64)
	SetTotalBytes(int64)
}

// Progress describes the state of a running copy
type Progress struct {
	Description string
	// Progress is the overall task progress between Step.From and Step.To
	Progress float32
	SoFar    int64
	Total    int64
	// Speed in bytes / ms
	Speed int
	Done  bool
}

// Step places a copy inside a larger task. Offset is the number of bytes already present when resuming.
type Step struct {
	Description string
	From        float32
	To          float32
	Offset      int64
}

// Params configures how progress is reported
type Params struct {
	// ProgressCallback receives progress messages at most once per ReportInterval and once the copy finished
	ProgressCallback func(Progress)
	ReportInterval   time.Duration
	BufferSize       int
	Clock            clock.Clock
}

type paramsKey struct{}

// WithParams stores the passed params in the context for ProgressCopier() and DispatchProgress()
func WithParams(ctx context.Context, params Params) context.Context {
	return context.WithValue(ctx, paramsKey{}, params)
}

func paramsFromCtx(ctx context.Context) Params {
	params, _ := ctx.Value(paramsKey{}).(Params)
	if params.ReportInterval <= 0 {
		params.ReportInterval = defaultReportInterval
	}
	if params.BufferSize <= 0 {
		params.BufferSize = defaultBufferSize
	}
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	return params
}

// DispatchProgress delivers a progress message to the callback registered with WithParams(). Without a callback
// the message is logged at debug level.
func DispatchProgress(ctx context.Context, progress Progress) {
	params, _ := ctx.Value(paramsKey{}).(Params)
	if params.ProgressCallback == nil {
		tlog.Log(ctx).Debug().
			Str("desc", progress.Description).
			Int64("bytes", progress.SoFar).
			Int("speed", progress.Speed).
			Msg("Progress")
		return
	}

	params.ProgressCallback(progress)
}

// FormatSpeed returns a speed in bytes / ms as a human readable string
func FormatSpeed(bytesPerMs int) string {
	if bytesPerMs < 0 {
		bytesPerMs = 0
	}
	return humanize.IBytes(uint64(bytesPerMs)*1000) + "/s"
}

// ProgressCopier copies all available data from input to output while feeding the progress into meter and reporting
// it through DispatchProgress(). length is the expected number of bytes including step.Offset and may be 0 if unknown.
// It returns the final speed in bytes / ms on success or an error.
func ProgressCopier(ctx context.Context, step Step, length int64, meter Meter, input io.Reader, output io.Writer) (int, error) {
	params := paramsFromCtx(ctx)
	pos := step.Offset
	buffer := make([]byte, params.BufferSize)

	var scale float32
	if length > 0 {
		scale = (step.To - step.From) / float32(length)
	}

	if target, ok := meter.(progressTarget); ok {
		target.SetTotalBytes(length)
		target.SetSoFarBytes(step.Offset)
	}
	meter.Reset()
	meter.Start()

	lastUpdate := params.Clock.Now()
	report := func(done bool) {
		progress := step.From + scale*float32(pos)
		if done {
			progress = step.To
		}

		DispatchProgress(ctx, Progress{
			Description: step.Description,
			Progress:    progress,
			SoFar:       pos,
			Total:       length,
			Speed:       meter.Speed(),
			Done:        done,
		})
	}

	for {
		select {
		case <-ctx.Done():
			return 0, eris.Wrap(ctx.Err(), "transfer cancelled")
		default:
		}

		read, err := input.Read(buffer)
		if read > 0 {
			_, werr := output.Write(buffer[:read])
			if werr != nil {
				return 0, eris.Wrap(werr, "failed to write")
			}

			pos += int64(read)
			meter.Update(pos)

			if params.Clock.Since(lastUpdate) >= params.ReportInterval {
				lastUpdate = params.Clock.Now()
				report(false)
			}
		}

		if err != nil {
			if err == io.EOF {
				meter.End(pos)
				report(true)

				tlog.Log(ctx).Debug().
					Int64("bytes", pos-step.Offset).
					Str("speed", FormatSpeed(meter.Speed())).
					Msg("Copy finished")
				return meter.Speed(), nil
			}
			return 0, eris.Wrap(err, "failed to read")
		}
	}
}
