package speed

import "github.com/rotisserie/eris"

// ErrInvalidWindow is returned when a moving average window smaller than one sample is requested
var ErrInvalidWindow = eris.New("window size must be at least 1")

// MeanArray is a fixed size ring of samples which reports the mean of the most recent values
type MeanArray struct {
	looped bool
	index  int
	data   []int
}

// NewMeanArray creates a MeanArray that averages over the last size samples
func NewMeanArray(size int) (*MeanArray, error) {
	if size < 1 {
		return nil, eris.Wrapf(ErrInvalidWindow, "invalid window %d", size)
	}

	return &MeanArray{
		data: make([]int, size),
	}, nil
}

// Add stores num in the slot at the cursor, overwriting the oldest sample once the ring has wrapped
func (m *MeanArray) Add(num int) {
	m.data[m.index] = num
	m.index++

	if m.index == len(m.data) {
		m.index = 0
		m.looped = true
	}
}

// Len returns the number of samples Mean() currently averages over
func (m *MeanArray) Len() int {
	if m.looped {
		return len(m.data)
	}
	return m.index
}

// Cap returns the window size
func (m *MeanArray) Cap() int {
	return len(m.data)
}

// Mean returns the truncated average of the live window or 0 if nothing was added yet
func (m *MeanArray) Mean() int {
	length := m.Len()
	if length == 0 {
		return 0
	}

	sum := 0
	for _, num := range m.data[:length] {
		sum += num
	}

	return sum / length
}
