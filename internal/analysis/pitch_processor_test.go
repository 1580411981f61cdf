// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"sync"
	"testing"
	"time"

	"tuner/internal/pitch"
	"tuner/pkg/utils"
)

func newTestProcessor(t *testing.T, sink Sink) *PitchProcessor {
	t.Helper()
	pp := NewPitchProcessor(pitch.DefaultParams(), NewTracker(3, 5), sink)
	t.Cleanup(func() { pp.Close() })
	return pp
}

func TestPitchProcessorReportsReading(t *testing.T) {
	mock := &utils.MockTransport{}
	pp := newTestProcessor(t, mock)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pp.now = func() time.Time { return at }

	p := pitch.DefaultParams()
	pp.Process(utils.GenerateSineWave(p.BufferSize, p.SampleRate, 220))
	pp.Close()

	if mock.Count() != 1 {
		t.Fatalf("sink received %d readings, want 1", mock.Count())
	}
	r, ok := mock.Last().(Reading)
	if !ok {
		t.Fatalf("sink received %T, want Reading", mock.Last())
	}
	if r.Note != "A" || r.Octave != 3 || math.Abs(r.Frequency-220) > 2.2 || r.Time != at {
		t.Errorf("reading = %+v", r)
	}

	latest, ok := pp.Latest()
	if !ok || latest != r {
		t.Errorf("Latest() = %+v, %v, want the sent reading", latest, ok)
	}
}

func TestPitchProcessorSkipsAbsent(t *testing.T) {
	mock := &utils.MockTransport{}
	pp := newTestProcessor(t, mock)
	size := pp.detector.WindowSize()

	pp.Process(utils.GenerateConstant(size, 0))
	pp.Process(utils.GenerateConstant(size, 0.3))
	pp.Close()

	if mock.Count() != 0 {
		t.Errorf("sink received %d readings for silence", mock.Count())
	}
	if _, ok := pp.Latest(); ok {
		t.Error("Latest() reported a reading for silence")
	}
	if s := pp.Stats(); s.Windows != 2 || s.Absent != 2 {
		t.Errorf("Stats() = %+v, want 2 windows, 2 absent", s)
	}
}

func TestPitchProcessorWithoutSink(t *testing.T) {
	pp := newTestProcessor(t, nil)
	p := pitch.DefaultParams()

	pp.Process(utils.GenerateSineWave(p.BufferSize, p.SampleRate, 330))
	if r, ok := pp.Latest(); !ok || r.Note != "E" {
		t.Errorf("Latest() = %+v, %v, want E", r, ok)
	}
}

// blockingSink holds every Send until released.
type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	n       int
}

func (s *blockingSink) Send(any) error {
	<-s.release
	s.mu.Lock()
	s.n++
	s.mu.Unlock()
	return nil
}

func TestPitchProcessorDropsWhenSinkStalls(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	pp := newTestProcessor(t, sink)
	p := pitch.DefaultParams()
	window := utils.GenerateSineWave(p.BufferSize, p.SampleRate, 220)

	const windows = readingQueueSize + 10
	for range windows {
		pp.Process(window)
	}

	dropped := pp.Stats().Dropped
	if dropped < 9 {
		t.Errorf("Dropped = %d, want at least 9", dropped)
	}

	close(sink.release)
	pp.Close()
	if uint64(sink.n)+dropped != windows {
		t.Errorf("sent %d + dropped %d != %d windows", sink.n, dropped, windows)
	}
}

func TestPitchProcessorCloseIsIdempotent(t *testing.T) {
	pp := newTestProcessor(t, nil)
	if err := pp.Close(); err != nil {
		t.Fatal(err)
	}
	if err := pp.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}
