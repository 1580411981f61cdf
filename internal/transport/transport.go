package transport

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport closed")

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Multi fans every Send out to several transports.
type Multi struct {
	mu         sync.Mutex
	transports []Transport
}

// NewMulti combines transports; nil entries are skipped.
func NewMulti(transports ...Transport) *Multi {
	m := &Multi{}
	for _, t := range transports {
		if t != nil {
			m.transports = append(m.transports, t)
		}
	}
	return m
}

// Add appends a transport.
func (m *Multi) Add(t Transport) {
	m.mu.Lock()
	m.transports = append(m.transports, t)
	m.mu.Unlock()
}

// Len returns the number of transports.
func (m *Multi) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transports)
}

// Send delivers data to every transport, even when some of them fail.
func (m *Multi) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, t := range m.transports {
		if err := t.Send(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every transport and returns their combined errors.
func (m *Multi) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, t := range m.transports {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.transports = nil
	return errors.Join(errs...)
}

var _ Transport = (*Multi)(nil)
