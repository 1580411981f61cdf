// SPDX-License-Identifier: MIT
package analysis

import (
	"sync"
	"sync/atomic"
	"time"

	applog "tuner/internal/log"
	"tuner/internal/pitch"
)

// readingQueueSize bounds readings waiting for the sink; beyond it readings
// are dropped rather than blocking the audio thread.
const readingQueueSize = 64

// PitchStats counts processed windows.
type PitchStats struct {
	Windows uint64 // windows analysed
	Absent  uint64 // windows without a pitch
	Dropped uint64 // readings the sink could not keep up with
}

// PitchProcessor runs a detection cycle on every window, tracks the result
// and hands readings to a Sink on its own goroutine.
type PitchProcessor struct {
	detector *pitch.Detector
	tracker  *Tracker
	sink     Sink
	now      func() time.Time
	logger   *applog.Entry

	mu        sync.RWMutex
	latest    Reading
	hasLatest bool

	windows atomic.Uint64
	absent  atomic.Uint64
	dropped atomic.Uint64

	readings  chan Reading
	done      sync.WaitGroup
	closeOnce sync.Once
}

// Compile-time checks for interface implementations.
var _ ClosableProcessor = (*PitchProcessor)(nil)
var _ ReadingProvider = (*PitchProcessor)(nil)

// NewPitchProcessor builds a processor for windows laid out by p. sink may
// be nil when readings are only pulled through Latest.
func NewPitchProcessor(p pitch.Params, tracker *Tracker, sink Sink) *PitchProcessor {
	pp := &PitchProcessor{
		detector: pitch.NewDetector(p),
		tracker:  tracker,
		sink:     sink,
		now:      time.Now,
		logger: applog.WithFields(applog.Fields{
			"component": "pitch",
			"window":    p.BufferSize,
		}),
		readings: make(chan Reading, readingQueueSize),
	}

	pp.logger.Info("Pitch processor ready", applog.Fields{
		"min_period": p.MinPeriod,
		"max_period": p.MaxPeriod,
	})

	pp.done.Add(1)
	go pp.dispatch()
	return pp
}

// Process estimates the window's pitch. Absent estimates are counted and
// not reported.
func (pp *PitchProcessor) Process(window []float32) {
	pp.windows.Add(1)

	freq, ok := pp.detector.EstimatePitch(window)
	if !ok {
		pp.absent.Add(1)
		return
	}

	r, ok := pp.tracker.Add(pp.now(), freq)
	if !ok {
		pp.absent.Add(1)
		return
	}

	pp.mu.Lock()
	pp.latest = r
	pp.hasLatest = true
	pp.mu.Unlock()

	select {
	case pp.readings <- r:
	default:
		pp.dropped.Add(1)
	}
}

func (pp *PitchProcessor) dispatch() {
	defer pp.done.Done()
	for r := range pp.readings {
		if pp.sink == nil {
			continue
		}
		if err := pp.sink.Send(r); err != nil {
			pp.logger.Error(err, "Failed to send reading")
		}
	}
}

// Latest returns the most recent reading.
func (pp *PitchProcessor) Latest() (Reading, bool) {
	pp.mu.RLock()
	defer pp.mu.RUnlock()
	return pp.latest, pp.hasLatest
}

// Stats returns window counters.
func (pp *PitchProcessor) Stats() PitchStats {
	return PitchStats{
		Windows: pp.windows.Load(),
		Absent:  pp.absent.Load(),
		Dropped: pp.dropped.Load(),
	}
}

// Close stops accepting readings and waits until queued readings reached
// the sink. Process must not be called after Close.
func (pp *PitchProcessor) Close() error {
	pp.closeOnce.Do(func() {
		close(pp.readings)
		pp.done.Wait()
		s := pp.Stats()
		pp.logger.Info("Pitch processor closed", applog.Fields{
			"windows": s.Windows,
			"absent":  s.Absent,
			"dropped": s.Dropped,
		})
	})
	return nil
}
