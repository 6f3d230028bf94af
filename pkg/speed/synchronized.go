package speed

import "sync"

// Synchronized guards a SpeedMonitor so that the transfer and a display can use it from different goroutines
type Synchronized struct {
	lock    sync.RWMutex
	monitor *SpeedMonitor
}

var (
	_ Monitor = (*Synchronized)(nil)
	_ Lookup  = (*Synchronized)(nil)
)

// NewSynchronized wraps monitor. The caller must not use monitor directly afterwards.
func NewSynchronized(monitor *SpeedMonitor) *Synchronized {
	return &Synchronized{monitor: monitor}
}

func (s *Synchronized) Start() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.monitor.Start()
}

func (s *Synchronized) End(soFarBytes int64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.monitor.End(soFarBytes)
}

func (s *Synchronized) Update(soFarBytes int64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.monitor.Update(soFarBytes)
}

func (s *Synchronized) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.monitor.Reset()
}

func (s *Synchronized) Speed() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.monitor.Speed()
}

func (s *Synchronized) SetMinIntervalUpdateSpeed(minInterval int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.monitor.SetMinIntervalUpdateSpeed(minInterval)
}

// SetSoFarBytes forwards to SpeedMonitor.SetSoFarBytes()
func (s *Synchronized) SetSoFarBytes(soFarBytes int64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.monitor.SetSoFarBytes(soFarBytes)
}

// SetTotalBytes forwards to SpeedMonitor.SetTotalBytes()
func (s *Synchronized) SetTotalBytes(totalBytes int64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.monitor.SetTotalBytes(totalBytes)
}
