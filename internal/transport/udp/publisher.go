// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"tuner/internal/analysis"
	applog "tuner/internal/log"
)

// PacketSize is the length of every pitch packet.
const PacketSize = 4 + 8 + 1 + 1 + 4*4

// Packet flags.
const (
	FlagFresh  = 1 << 0 // reading changed since the previous packet
	FlagStable = 1 << 1 // note has settled
)

// PacketSender is the transmit side used by the publisher; UDPSender
// implements it.
type PacketSender interface {
	Send(data []byte) error
}

// UDPPublisher periodically fetches the latest pitch reading, packs it into
// a fixed binary layout and sends it with a PacketSender. It runs in a
// separate goroutine managed by Start and Stop.
type UDPPublisher struct {
	sender   PacketSender
	provider analysis.ReadingProvider
	interval time.Duration

	ticker   *time.Ticker   // Ticker that triggers packet sending.
	doneChan chan struct{}  // Channel used to signal the publisher goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects access to ticker and doneChan during Start/Stop.

	sequenceNum uint32    // Monotonically increasing sequence number for packets.
	lastSent    time.Time // Time of the last reading sent.

	packetBuffer *bytes.Buffer // Reusable buffer for constructing the binary packet.
}

// NewUDPPublisher creates and initializes a new UDPPublisher.
// If the provided interval is invalid (<= 0), it defaults to 33ms (~30Hz).
func NewUDPPublisher(interval time.Duration, sender PacketSender, provider analysis.ReadingProvider) (*UDPPublisher, error) {
	if sender == nil {
		return nil, errors.New("UDPPublisher: UDP sender cannot be nil")
	}
	if provider == nil {
		return nil, errors.New("UDPPublisher: reading provider cannot be nil")
	}

	if interval <= 0 {
		interval = 33 * time.Millisecond
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}
	applog.Infof("UDPPublisher: Initializing (Interval: %s, Packet: %d bytes)", interval, PacketSize)

	buf := new(bytes.Buffer)
	buf.Grow(PacketSize)
	return &UDPPublisher{
		sender:       sender,
		provider:     provider,
		interval:     interval,
		packetBuffer: buf,
	}, nil
}

// Start begins the periodic publishing process.
// It is safe to call Start multiple times; subsequent calls are no-ops if already started.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	// Locals keep the goroutine off p.ticker/p.doneChan.
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("UDPPublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop gracefully signals the publisher goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times; subsequent calls are no-ops.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		applog.Debugf("UDPPublisher: Stop called but not running.")
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock()

	p.wg.Wait()
	applog.Debugf("UDPPublisher: Publisher goroutine finished.")
	return nil
}

/*
UDP Packet Structure (BigEndian)

+--------------------------------------------------------------------+
| Field           | Data Type | Size (Bytes) | Description            |
|-----------------|-----------|--------------|------------------------|
| Sequence Number | uint32    | 4            | Monotonically increasing|
| Timestamp       | int64     | 8            | Reading time, ns epoch |
| Flags           | uint8     | 1            | FlagFresh, FlagStable  |
| MIDI Note       | uint8     | 1            | 0-127                  |
| Frequency       | float32   | 4            | Hz, this window        |
| Smoothed        | float32   | 4            | Hz, stability window   |
| Cents           | float32   | 4            | Signed deviation       |
| Spread          | float32   | 4            | Std deviation, cents   |
+--------------------------------------------------------------------+
*/

// buildAndSendPacket sends the latest reading; nothing is sent before the
// first reading exists.
func (p *UDPPublisher) buildAndSendPacket() {
	r, ok := p.provider.Latest()
	if !ok {
		return
	}

	var flags uint8
	if !r.Time.Equal(p.lastSent) {
		flags |= FlagFresh
	}
	if r.Stable {
		flags |= FlagStable
	}
	p.lastSent = r.Time
	p.sequenceNum++

	p.packetBuffer.Reset()
	if err := writePacket(p.packetBuffer, p.sequenceNum, flags, r); err != nil {
		applog.Errorf("UDPPublisher: Error packing data into binary buffer: %v", err)
		return
	}

	packetBytes := p.packetBuffer.Bytes()
	if err := p.sender.Send(packetBytes); err == nil {
		applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", p.sequenceNum, len(packetBytes))
	}
}

func writePacket(buf *bytes.Buffer, seq uint32, flags uint8, r analysis.Reading) error {
	fields := []any{
		seq,
		r.Time.UnixNano(),
		flags,
		uint8(r.MIDI),
		float32(r.Frequency),
		float32(r.Smoothed),
		float32(r.Cents),
		float32(r.Spread),
	}
	for _, f := range fields {
		if err := binary.Write(buf, binary.BigEndian, f); err != nil {
			return err
		}
	}
	return nil
}

// Packet is a decoded pitch packet.
type Packet struct {
	Sequence  uint32
	Timestamp int64
	Flags     uint8
	MIDI      uint8
	Frequency float32
	Smoothed  float32
	Cents     float32
	Spread    float32
}

// DecodePacket parses a pitch packet.
func DecodePacket(data []byte) (Packet, error) {
	var pkt Packet
	if len(data) != PacketSize {
		return pkt, fmt.Errorf("packet is %d bytes, want %d", len(data), PacketSize)
	}
	err := binary.Read(bytes.NewReader(data), binary.BigEndian, &pkt)
	return pkt, err
}

// Close implements the io.Closer interface. It gracefully stops the publisher goroutine.
func (p *UDPPublisher) Close() error {
	return p.Stop()
}

// Ensure UDPPublisher satisfies the io.Closer interface at compile time.
var _ interface{ Close() error } = (*UDPPublisher)(nil)
