package audio_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/audio"
)

// buildWav assembles a minimal RIFF/WAVE byte stream around the given PCM
// payload. extraChunk, when non-empty, is inserted before the data chunk.
func buildWav(t *testing.T, sampleRate, channels int, pcm []byte, extraChunk []byte) []byte {
	t.Helper()
	var fmtChunk bytes.Buffer
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(channels))
	binary.Write(&fmtChunk, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&fmtChunk, binary.LittleEndian, uint32(sampleRate*channels*2)) // byte rate
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(channels*2))            // block align
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(16))                    // bits

	var body bytes.Buffer
	body.WriteString("WAVE")
	body.WriteString("fmt ")
	binary.Write(&body, binary.LittleEndian, uint32(fmtChunk.Len()))
	body.Write(fmtChunk.Bytes())
	body.Write(extraChunk)
	body.WriteString("data")
	binary.Write(&body, binary.LittleEndian, uint32(len(pcm)))
	body.Write(pcm)

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func writeWavFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.wav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	return path
}

func TestFromWavFile_ParsesFormatAndData(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	path := writeWavFile(t, buildWav(t, 16000, 1, pcm, nil))

	cfg, err := audio.FromWavFile(path)
	if err != nil {
		t.Fatalf("FromWavFile: %v", err)
	}
	defer cfg.Close()

	if cfg.SampleRate != 16000 || cfg.Channels != 1 || cfg.BitsPerSample != 16 {
		t.Fatalf("format = %d Hz / %d ch / %d bits", cfg.SampleRate, cfg.Channels, cfg.BitsPerSample)
	}
	got, err := io.ReadAll(cfg)
	if err != nil {
		t.Fatalf("read samples: %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Fatalf("samples = %v, want %v", got, pcm)
	}
}

func TestFromWavFile_SkipsMetadataChunks(t *testing.T) {
	// A LIST chunk with an odd payload length exercises the pad-byte skip.
	extra := append([]byte("LIST"), 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(extra[4:8], 5)
	extra = append(extra, 'i', 'n', 'f', 'o', '!', 0) // 5 bytes + pad

	pcm := []byte{9, 0}
	path := writeWavFile(t, buildWav(t, 8000, 2, pcm, extra))

	cfg, err := audio.FromWavFile(path)
	if err != nil {
		t.Fatalf("FromWavFile: %v", err)
	}
	defer cfg.Close()

	if cfg.SampleRate != 8000 || cfg.Channels != 2 {
		t.Fatalf("format = %d Hz / %d ch", cfg.SampleRate, cfg.Channels)
	}
	got, _ := io.ReadAll(cfg)
	if !bytes.Equal(got, pcm) {
		t.Fatalf("samples = %v, want %v", got, pcm)
	}
}

func TestFromWavFile_RejectsNonWav(t *testing.T) {
	path := writeWavFile(t, []byte("this is not a riff container at all"))

	if _, err := audio.FromWavFile(path); err == nil {
		t.Fatal("expected error for non-WAV input")
	}
}

func TestFromWavFile_RejectsCompressedFormat(t *testing.T) {
	data := buildWav(t, 16000, 1, []byte{0, 0}, nil)
	// Patch the audio format tag (offset 20: RIFF(12) + "fmt "(4) + size(4)).
	binary.LittleEndian.PutUint16(data[20:22], 6) // A-law
	path := writeWavFile(t, data)

	_, err := audio.FromWavFile(path)
	if err == nil || !strings.Contains(err.Error(), "unsupported audio format") {
		t.Fatalf("err = %v, want unsupported audio format", err)
	}
}

func TestFromWavFile_MissingFile_ReturnsError(t *testing.T) {
	if _, err := audio.FromWavFile(filepath.Join(t.TempDir(), "absent.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFromReader_RejectsInvalidWidth(t *testing.T) {
	if _, err := audio.FromReader(bytes.NewReader(nil), 16000, 1, 8); err == nil {
		t.Fatal("expected error for 8-bit samples")
	}
}

func TestFromReader_BytesPerSecond(t *testing.T) {
	cfg, err := audio.FromReader(bytes.NewReader(nil), 16000, 1, 16)
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	if got := cfg.BytesPerSecond(); got != 32000 {
		t.Fatalf("BytesPerSecond = %d, want 32000", got)
	}
}
