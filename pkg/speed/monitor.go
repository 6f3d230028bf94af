// Package speed estimates the throughput of a running transfer from periodic progress reports.
//
// Speeds are reported in bytes per millisecond (which happens to be roughly KB/s). A SpeedMonitor is not safe for
// concurrent use; wrap it with NewSynchronized() if the speed is read from another goroutine.
package speed

import (
	"github.com/rs/zerolog"
)

const (
	// DefaultWindow is the number of samples averaged by Speed()
	DefaultWindow = 10
	// DefaultMinInterval is the minimum time between two samples in milliseconds
	DefaultMinInterval = 5
)

// Monitor is the side of the speed monitor that's driven by the transfer
type Monitor interface {
	// Start marks the beginning of a segment at the current progress
	Start()
	// End calculates the average speed since the last Start()
	End(soFarBytes int64)
	// Update reports the current progress and samples the speed if the throttle interval has passed
	Update(soFarBytes int64)
	// Reset clears the current speed and restarts sampling
	Reset()
}

// Lookup is the read side of the speed monitor
type Lookup interface {
	// Speed returns the current speed in bytes per millisecond
	Speed() int
	// SetMinIntervalUpdateSpeed changes the minimum time between two samples (in ms). Values <= 0 disable sampling.
	SetMinIntervalUpdateSpeed(minInterval int)
}

// SpeedMonitor implements Monitor and Lookup with a moving average over the last samples
type SpeedMonitor struct {
	lastRefreshTime  int64
	lastRefreshBytes int64
	startBytes       int64
	startTime        int64
	// bytes / ms
	speed int

	soFarBytes int64
	totalBytes int64

	minInterval int
	mean        *MeanArray
	clock       Uptime
	log         zerolog.Logger
}

var (
	_ Monitor = (*SpeedMonitor)(nil)
	_ Lookup  = (*SpeedMonitor)(nil)
)

type options struct {
	window      int
	minInterval int
	clock       Uptime
	log         zerolog.Logger
}

// Option configures a SpeedMonitor
type Option func(*options)

// WithWindow sets the number of samples the reported speed is averaged over
func WithWindow(size int) Option {
	return func(o *options) {
		o.window = size
	}
}

// WithMinInterval sets the initial throttle interval in milliseconds
func WithMinInterval(ms int) Option {
	return func(o *options) {
		o.minInterval = ms
	}
}

// WithClock replaces the system uptime clock (mostly useful for tests)
func WithClock(clock Uptime) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithLogger enables debug logging of accepted samples and finished segments
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// New creates a SpeedMonitor. It only fails if the window is smaller than 1.
func New(opts ...Option) (*SpeedMonitor, error) {
	o := options{
		window:      DefaultWindow,
		minInterval: DefaultMinInterval,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	mean, err := NewMeanArray(o.window)
	if err != nil {
		return nil, err
	}

	if o.clock == nil {
		o.clock = SystemUptime()
	}

	return &SpeedMonitor{
		minInterval: o.minInterval,
		mean:        mean,
		clock:       o.clock,
		log:         o.log,
	}, nil
}

// Start uses the last reported progress as the baseline for End()
func (m *SpeedMonitor) Start() {
	m.startTime = m.clock.UptimeMillis()
	m.startBytes = m.soFarBytes
}

// End sets the speed to the average over the whole segment. It does nothing unless Start() was called after some
// progress had been reported.
func (m *SpeedMonitor) End(soFarBytes int64) {
	if m.startTime <= 0 || m.startBytes <= 0 {
		m.log.Debug().Int64("start_time", m.startTime).Int64("start_bytes", m.startBytes).Msg("Segment not started")
		return
	}

	downloadSize := soFarBytes - m.startBytes
	m.lastRefreshTime = 0
	interval := m.clock.UptimeMillis() - m.startTime
	if interval <= 0 {
		// the clock went backwards (or didn't move at all)
		m.speed = int(downloadSize)
	} else {
		m.speed = int(downloadSize / interval)
	}

	m.log.Debug().Int64("bytes", downloadSize).Int64("interval", interval).Int("speed", m.speed).Msg("Segment finished")
}

// Update samples the speed if at least the minimum interval passed since the last sample. While the speed is 0, any
// positive interval is enough so that a stalled transfer recovers quickly.
func (m *SpeedMonitor) Update(soFarBytes int64) {
	if m.minInterval <= 0 {
		return
	}

	m.soFarBytes = soFarBytes
	now := m.clock.UptimeMillis()
	if m.lastRefreshTime != 0 {
		interval := now - m.lastRefreshTime
		if interval < int64(m.minInterval) && (m.speed != 0 || interval <= 0) {
			return
		}

		sample := int((soFarBytes - m.lastRefreshBytes) / interval)
		m.mean.Add(sample)
		m.speed = m.mean.Mean()
		if m.speed < 0 {
			m.speed = 0
		}

		m.log.Debug().Int("sample", sample).Int("speed", m.speed).Int64("interval", interval).Msg("Speed sampled")
	}

	m.lastRefreshBytes = soFarBytes
	m.lastRefreshTime = now
}

// Reset zeroes the speed and makes the next Update() start a new sampling window. The moving average keeps its
// samples.
func (m *SpeedMonitor) Reset() {
	m.speed = 0
	m.lastRefreshTime = 0
}

// Speed returns the last calculated speed in bytes / ms
func (m *SpeedMonitor) Speed() int {
	return m.speed
}

// SetMinIntervalUpdateSpeed changes the throttle interval for the following Update() calls
func (m *SpeedMonitor) SetMinIntervalUpdateSpeed(minInterval int) {
	m.minInterval = minInterval
}

// SetSoFarBytes records the current progress without sampling. The next Start() uses it as its baseline.
func (m *SpeedMonitor) SetSoFarBytes(soFarBytes int64) {
	m.soFarBytes = soFarBytes
}

// SetTotalBytes records the expected size of the transfer
func (m *SpeedMonitor) SetTotalBytes(totalBytes int64) {
	m.totalBytes = totalBytes
}

// TotalBytes returns the value passed to SetTotalBytes()
func (m *SpeedMonitor) TotalBytes() int64 {
	return m.totalBytes
}
