// Package audio describes audio input sources for speech recognizers.
//
// A Config pairs a PCM sample stream with its format. Engines pull frames
// from the stream; they never seek or rewind. The package reads 16-bit
// signed little-endian PCM, the only format the engines in this module
// accept.
package audio

import (
	"fmt"
	"io"
	"os"
)

// Config is an audio input source: a PCM byte stream plus its format.
// A Config is consumed by exactly one recognizer and is not reusable.
type Config struct {
	// SampleRate is the sample rate in Hz (e.g. 16000).
	SampleRate int

	// Channels is the channel count; 1 for mono, 2 for stereo.
	Channels int

	// BitsPerSample is the sample width in bits. Only 16 is supported.
	BitsPerSample int

	r      io.Reader
	closer io.Closer
}

// FromReader wraps an arbitrary PCM stream with an explicit format. The
// caller keeps ownership of r; Close on the returned Config is a no-op.
func FromReader(r io.Reader, sampleRate, channels, bitsPerSample int) (*Config, error) {
	if r == nil {
		return nil, fmt.Errorf("audio: reader must not be nil")
	}
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("audio: invalid format %d Hz / %d channels", sampleRate, channels)
	}
	if bitsPerSample != 16 {
		return nil, fmt.Errorf("audio: unsupported sample width %d bits (only 16)", bitsPerSample)
	}
	return &Config{
		SampleRate:    sampleRate,
		Channels:      channels,
		BitsPerSample: bitsPerSample,
		r:             r,
	}, nil
}

// FromWavFile opens a PCM WAV file, parses its header, and positions the
// stream at the sample data. The returned Config owns the file; call Close
// when done.
func FromWavFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open %q: %w", path, err)
	}
	format, err := readWavHeader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("audio: %q: %w", path, err)
	}
	return &Config{
		SampleRate:    format.SampleRate,
		Channels:      format.Channels,
		BitsPerSample: format.BitsPerSample,
		r:             io.LimitReader(f, int64(format.DataBytes)),
		closer:        f,
	}, nil
}

// Read pulls PCM bytes from the source, io.Reader style. Engines read the
// stream to EOF.
func (c *Config) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

// BytesPerSecond returns the PCM data rate of the source.
func (c *Config) BytesPerSecond() int {
	return c.SampleRate * c.Channels * c.BitsPerSample / 8
}

// Close releases the underlying file when the Config owns one.
func (c *Config) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
