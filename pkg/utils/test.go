package utils

import (
	"math"
	"math/rand"
	"sync"
)

// MockTransport implements the transport.Transport interface for testing.
type MockTransport struct {
	mu     sync.Mutex
	Sent   []any
	Closed bool
}

// Send records the value for later inspection instead of transmitting.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, data)
	m.mu.Unlock()
	return nil
}

// Close marks the transport as closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
	return nil
}

// Count returns how many values were sent so far.
func (m *MockTransport) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// Last returns the most recently sent value, or nil.
func (m *MockTransport) Last() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return nil
	}
	return m.Sent[len(m.Sent)-1]
}

// GenerateSineWave returns size samples of a unit-amplitude sine starting at phase 0.
func GenerateSineWave(size int, sampleRate, frequency float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(math.Sin(2 * math.Pi * frequency * t))
	}
	return buffer
}

// GenerateHarmonicWave sums sine partials of the fundamental. gains[0] is the
// fundamental's amplitude, gains[1] the 2nd harmonic's, and so on.
func GenerateHarmonicWave(size int, sampleRate, fundamental float64, gains ...float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		var s float64
		for h, g := range gains {
			s += g * math.Sin(2*math.Pi*fundamental*float64(h+1)*t)
		}
		buffer[i] = float32(s)
	}
	return buffer
}

// GenerateConstant returns size samples all equal to value (silence or DC offset).
func GenerateConstant(size int, value float32) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		buffer[i] = value
	}
	return buffer
}

// AddNoise adds uniform noise in [-amplitude, amplitude) in place, reproducibly for a seed.
func AddNoise(buffer []float32, amplitude float64, seed int64) []float32 {
	r := rand.New(rand.NewSource(seed))
	for i := range buffer {
		buffer[i] += float32((r.Float64()*2 - 1) * amplitude)
	}
	return buffer
}

// Scale multiplies every sample by gain in place.
func Scale(buffer []float32, gain float32) []float32 {
	for i := range buffer {
		buffer[i] *= gain
	}
	return buffer
}
