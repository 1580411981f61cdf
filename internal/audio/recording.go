package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "tuner/internal/log"
)

// ErrAlreadyRecording is returned by StartRecording while a file is open.
var ErrAlreadyRecording = errors.New("already recording")

const wavFormatPCM = 1

// StartRecording writes the raw interleaved input to filename as PCM WAV
// at the configured bit depth until StopRecording.
func (e *Engine) StartRecording(filename string) error {
	e.recMu.Lock()
	defer e.recMu.Unlock()

	if atomic.LoadInt32(&e.isRecording) == 1 {
		return ErrAlreadyRecording
	}

	bitDepth := e.config.Recording.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}
	e.outputFile = file

	sampleRate := int(e.config.Audio.SampleRate)
	e.wavEncoder = wav.NewEncoder(file, sampleRate, bitDepth, e.channels, wavFormatPCM)

	e.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: e.channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, e.config.Audio.FramesPerBuffer*e.channels),
		SourceBitDepth: bitDepth,
	}
	e.sampleScale = float64(int64(1)<<(bitDepth-1) - 1)

	atomic.StoreInt32(&e.isRecording, 1)
	applog.Infof("Recording to %s (%d-bit, %d ch)", filename, bitDepth, e.channels)

	return nil
}

// writeRecording converts float samples to full-scale integers. Samples
// outside [-1, 1] are clipped.
func (e *Engine) writeRecording(in []float32) {
	data := e.sampleBuf.Data[:cap(e.sampleBuf.Data)]
	n := min(len(in), len(data))
	for i, s := range in[:n] {
		v := max(-1, min(1, float64(s)))
		data[i] = int(math.Round(v * e.sampleScale))
	}
	e.sampleBuf.Data = data[:n]

	if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
		applog.Errorf("Error writing to WAV file: %v", err)
	}
}

// StopRecording finalizes the WAV header and closes the file. It waits for
// a callback that is writing the current buffer.
func (e *Engine) StopRecording() error {
	if !atomic.CompareAndSwapInt32(&e.isRecording, 1, 0) {
		return nil
	}

	e.recMu.Lock()
	defer e.recMu.Unlock()

	if e.wavEncoder != nil {
		if err := e.wavEncoder.Close(); err != nil {
			return err
		}
		e.wavEncoder = nil
	}

	if e.outputFile != nil {
		if err := e.outputFile.Close(); err != nil {
			return err
		}
		e.outputFile = nil
	}

	return nil
}

// IsRecording reports whether input is being written to disk.
func (e *Engine) IsRecording() bool {
	return atomic.LoadInt32(&e.isRecording) == 1
}

// Close stops capture before finalizing any recording, so no callback is
// left writing to the file.
func (e *Engine) Close() error {
	streamErr := e.StopInputStream()
	recErr := e.StopRecording()
	return errors.Join(streamErr, recErr)
}
