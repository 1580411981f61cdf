package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"go.bug.st/serial"

	"tuner/internal/analysis"
	applog "tuner/internal/log"
)

// Frame layout shared with the display firmware:
//
//	[SOF0][SOF1][LEN][CMD][payload...][CKS]
//
// LEN counts CMD plus payload; CKS is the XOR of LEN, CMD and the payload.
const (
	SOF0       = 0xAA
	SOF1       = 0x55
	CmdReading = 0x20
	NoNote     = 0xFF

	readingPayloadLen = 6
	maxPayloadLen     = 254
)

// ErrBadFrame is returned by DecodeFrame for malformed input.
var ErrBadFrame = errors.New("bad serial frame")

// EncodeFrame wraps payload in a frame.
func EncodeFrame(cmd byte, payload []byte) ([]byte, error) {
	if len(payload) > maxPayloadLen {
		return nil, fmt.Errorf("%w: payload of %d bytes", ErrBadFrame, len(payload))
	}
	length := byte(len(payload) + 1)
	cks := length ^ cmd
	for _, b := range payload {
		cks ^= b
	}

	out := make([]byte, 0, len(payload)+5)
	out = append(out, SOF0, SOF1, length, cmd)
	out = append(out, payload...)
	return append(out, cks), nil
}

// DecodeFrame validates a single frame and returns its command and payload.
func DecodeFrame(frame []byte) (byte, []byte, error) {
	if len(frame) < 5 || frame[0] != SOF0 || frame[1] != SOF1 {
		return 0, nil, fmt.Errorf("%w: missing start of frame", ErrBadFrame)
	}
	length := int(frame[2])
	if length < 1 || len(frame) != length+4 {
		return 0, nil, fmt.Errorf("%w: length %d for %d bytes", ErrBadFrame, length, len(frame))
	}

	cks := frame[2]
	for _, b := range frame[3 : len(frame)-1] {
		cks ^= b
	}
	if cks != frame[len(frame)-1] {
		return 0, nil, fmt.Errorf("%w: checksum mismatch", ErrBadFrame)
	}
	return frame[3], frame[4 : len(frame)-1], nil
}

// encodeReading packs a reading as
//
//	[note][cents int8][flags][freq uint16 tenths of Hz, big endian][seq]
//
// flags bit 0 is set for stable readings.
func encodeReading(r analysis.Reading, seq byte) []byte {
	note := byte(NoNote)
	if r.MIDI >= 0 && r.MIDI <= 127 {
		note = byte(r.MIDI)
	}
	cents := int8(max(-50, min(50, math.Round(r.Cents))))
	var flags byte
	if r.Stable {
		flags |= 1
	}
	tenths := uint16(max(0, min(math.MaxUint16, math.Round(r.Frequency*10))))

	payload := make([]byte, readingPayloadLen)
	payload[0] = note
	payload[1] = byte(cents)
	payload[2] = flags
	binary.BigEndian.PutUint16(payload[3:5], tenths)
	payload[5] = seq
	return payload
}

// SerialTransport writes readings as frames to a serial display.
type SerialTransport struct {
	mu     sync.Mutex
	port   io.WriteCloser
	seq    byte
	closed bool
}

// NewSerialTransport opens the named serial device at the given baud rate.
func NewSerialTransport(name string, baud int) (*SerialTransport, error) {
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("serial: failed to open %s: %w", name, err)
	}
	applog.WithFields(applog.Fields{"device": name, "baud": baud}).Info("serial: port opened")
	return newSerialTransport(port), nil
}

func newSerialTransport(port io.WriteCloser) *SerialTransport {
	return &SerialTransport{port: port}
}

// Send writes one frame per reading; other values are ignored.
func (s *SerialTransport) Send(data any) error {
	r, ok := data.(analysis.Reading)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	frame, err := EncodeFrame(CmdReading, encodeReading(r, s.seq))
	if err != nil {
		return err
	}
	if _, err := s.port.Write(frame); err != nil {
		return fmt.Errorf("serial: write error: %w", err)
	}
	s.seq++
	return nil
}

// Close closes the underlying serial port.
func (s *SerialTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	applog.Debugf("serial: closing port")
	return s.port.Close()
}

var _ Transport = (*SerialTransport)(nil)
