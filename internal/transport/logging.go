package transport

import (
	"tuner/internal/analysis"
	applog "tuner/internal/log"
)

// LoggingTransport implements the Transport interface by logging readings to the console.
type LoggingTransport struct {
	stableOnly bool
}

// NewLoggingTransport creates a new LoggingTransport instance. With
// stableOnly set, readings are logged only once the note has settled.
func NewLoggingTransport(stableOnly bool) *LoggingTransport {
	applog.Debugf("Transport: Using LoggingTransport")
	return &LoggingTransport{stableOnly: stableOnly}
}

// Send logs a reading; other values are logged at debug level.
func (lt *LoggingTransport) Send(data any) error {
	switch v := data.(type) {
	case analysis.Reading:
		if lt.stableOnly && !v.Stable {
			return nil
		}
		applog.Infof("Note is: %s, cents is %.1f (%s%d %+.1fc, %.2f Hz)",
			v.Note, v.Deviation, v.Note, v.Octave, v.Cents, v.Frequency)
	default:
		applog.Debugf("LOG_TRANSPORT: Received (%T): %+v", data, data)
	}
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debugf("LOG_TRANSPORT: Close called.")
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
