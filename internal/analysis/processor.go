// SPDX-License-Identifier: MIT
package analysis

// Defines the standard interface for components that process audio windows.
type AudioProcessor interface {
	// Process analyzes one complete window. Implementations should be efficient as
	// this is called from within the real-time audio callback.
	Process(window []float32)
}

// ClosableProcessor combines AudioProcessor with a Close method for resource cleanup.
type ClosableProcessor interface {
	AudioProcessor
	Close() error // Close releases any resources held by the processor.
}

// ReadingProvider exposes the most recent reading to pull-based consumers
// such as periodic publishers. ok is false until the first pitch is found.
type ReadingProvider interface {
	Latest() (r Reading, ok bool)
}

// Sink receives readings away from the audio thread. Every transport
// satisfies it.
type Sink interface {
	Send(data any) error
}
