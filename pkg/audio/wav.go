package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// wavFormat is the parsed fmt chunk of a WAV file plus the size of its data
// chunk.
type wavFormat struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	DataBytes     uint32
}

const wavFormatPCM = 1

// readWavHeader parses a RIFF/WAVE header from r, leaving r positioned at
// the first byte of sample data. Chunks other than fmt and data are
// skipped. Only uncompressed 16-bit PCM is accepted.
func readWavHeader(r io.Reader) (wavFormat, error) {
	var f wavFormat

	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return f, fmt.Errorf("read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return f, fmt.Errorf("not a WAV file")
	}

	sawFmt := false
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return f, fmt.Errorf("no data chunk found")
			}
			return f, fmt.Errorf("read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return f, fmt.Errorf("fmt chunk too small (%d bytes)", size)
			}
			buf := make([]byte, size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return f, fmt.Errorf("read fmt chunk: %w", err)
			}
			audioFormat := binary.LittleEndian.Uint16(buf[0:2])
			if audioFormat != wavFormatPCM {
				return f, fmt.Errorf("unsupported audio format %d (only PCM)", audioFormat)
			}
			f.Channels = int(binary.LittleEndian.Uint16(buf[2:4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(buf[4:8]))
			f.BitsPerSample = int(binary.LittleEndian.Uint16(buf[14:16]))
			if f.BitsPerSample != 16 {
				return f, fmt.Errorf("unsupported sample width %d bits (only 16)", f.BitsPerSample)
			}
			sawFmt = true

		case "data":
			if !sawFmt {
				return f, fmt.Errorf("data chunk before fmt chunk")
			}
			f.DataBytes = size
			return f, nil

		default:
			// Skip LIST, INFO and other metadata chunks. Chunk sizes are
			// padded to even byte counts.
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return f, fmt.Errorf("skip %q chunk: %w", id, err)
			}
		}
	}
}
