package transport

import (
	"fmt"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"tuner/internal/analysis"
	applog "tuner/internal/log"
)

const (
	midiVelocity = 100
	// Pitch bend units per cent with the common +/-2 semitone bend range.
	bendPerCent = 8192.0 / 200
)

// MIDITransport turns stable readings into notes on a MIDI output: a new
// note releases the previous one, and the cents deviation is sent as pitch
// bend just before the note starts.
type MIDITransport struct {
	mu      sync.Mutex
	send    func(msg midi.Message) error
	closer  func() error
	channel uint8
	active  int // sounding key, -1 for none
	closed  bool
}

// NewMIDITransport opens the first output port whose name contains port
// (case-insensitive), or the first port when port is empty.
func NewMIDITransport(port string, channel uint8) (*MIDITransport, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}

	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("list MIDI outputs: %w", err)
	}
	out, err := pickMIDIOut(outs, port)
	if err != nil {
		drv.Close()
		return nil, err
	}

	send, err := midi.SendTo(out)
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("open MIDI output %q: %w", out.String(), err)
	}
	applog.Infof("MIDITransport: Sending on %q channel %d", out.String(), channel)

	return newMIDITransport(send, func() error {
		out.Close()
		return drv.Close()
	}, channel), nil
}

func newMIDITransport(send func(midi.Message) error, closer func() error, channel uint8) *MIDITransport {
	return &MIDITransport{
		send:    send,
		closer:  closer,
		channel: channel & 0x0f,
		active:  -1,
	}
}

func pickMIDIOut(outs []drivers.Out, name string) (drivers.Out, error) {
	if len(outs) == 0 {
		return nil, fmt.Errorf("no MIDI outputs available")
	}
	if name == "" {
		return outs[0], nil
	}
	for _, out := range outs {
		if strings.Contains(strings.ToLower(out.String()), strings.ToLower(name)) {
			return out, nil
		}
	}
	return nil, fmt.Errorf("MIDI output %q not found", name)
}

// Send plays stable readings. An unstable reading means the pitch is
// moving, so the sounding note is released until the tracker settles again.
// Readings outside the MIDI key range and other values are ignored.
func (t *MIDITransport) Send(data any) error {
	r, ok := data.(analysis.Reading)
	if !ok || r.MIDI < 0 || r.MIDI > 127 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if !r.Stable {
		return t.release()
	}
	if r.MIDI == t.active {
		return nil
	}

	if err := t.release(); err != nil {
		return err
	}
	bend := int16(max(-8192, min(8191, r.Cents*bendPerCent)))
	if err := t.send(midi.Pitchbend(t.channel, bend)); err != nil {
		return fmt.Errorf("MIDI pitch bend: %w", err)
	}
	if err := t.send(midi.NoteOn(t.channel, uint8(r.MIDI), midiVelocity)); err != nil {
		return fmt.Errorf("MIDI note on: %w", err)
	}
	t.active = r.MIDI
	return nil
}

// release stops the sounding note, if any. The caller holds mu.
func (t *MIDITransport) release() error {
	if t.active < 0 {
		return nil
	}
	key := uint8(t.active)
	t.active = -1
	if err := t.send(midi.NoteOff(t.channel, key)); err != nil {
		return fmt.Errorf("MIDI note off: %w", err)
	}
	return nil
}

// Close releases the sounding note and the output port.
func (t *MIDITransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	err := t.release()
	if t.closer != nil {
		if cerr := t.closer(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

var _ Transport = (*MIDITransport)(nil)
