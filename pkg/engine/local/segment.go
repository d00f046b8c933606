package local

import (
	"encoding/binary"
	"math"
	"time"
)

const (
	// bitsPerSample is fixed at 16 for the signed little-endian PCM audio
	// the inference backend expects.
	bitsPerSample = 16

	// defaultRMSThreshold is the root-mean-square energy (in 16-bit PCM
	// units) below which a chunk counts as silence. 16-bit audio peaks at
	// 32767; 300 corresponds to near-silence.
	defaultRMSThreshold = 300.0
)

// utterance is a contiguous stretch of speech audio cut out of the input
// stream, with its position in the stream.
type utterance struct {
	pcm      []byte
	offset   time.Duration
	duration time.Duration
}

// segmenter cuts a PCM stream into utterances using energy-based silence
// detection: audio is buffered from the first non-silent chunk until either
// the configured run of trailing silence or the utterance cap is reached.
// Not safe for concurrent use; each session owns one.
type segmenter struct {
	rmsThreshold   float64
	silenceWindow  time.Duration
	maxUtterance   time.Duration
	bytesPerSecond int

	buf          []byte
	inSpeech     bool
	speechStart  time.Duration
	silenceAccum time.Duration
	consumed     time.Duration
}

func newSegmenter(bytesPerSecond int, silenceWindow, maxUtterance time.Duration) *segmenter {
	return &segmenter{
		rmsThreshold:   defaultRMSThreshold,
		silenceWindow:  silenceWindow,
		maxUtterance:   maxUtterance,
		bytesPerSecond: bytesPerSecond,
	}
}

// push feeds one chunk into the segmenter. started reports that this chunk
// began a new utterance; utt is non-nil when an utterance was completed by
// this chunk.
func (s *segmenter) push(chunk []byte) (started bool, utt *utterance) {
	chunkDur := s.chunkDuration(chunk)
	pos := s.consumed
	s.consumed += chunkDur

	if computeRMS(chunk) < s.rmsThreshold {
		if !s.inSpeech {
			return false, nil
		}
		s.silenceAccum += chunkDur
		s.buf = append(s.buf, chunk...)
		if s.silenceAccum >= s.silenceWindow {
			return false, s.cut()
		}
		return false, nil
	}

	if !s.inSpeech {
		s.inSpeech = true
		s.speechStart = pos
		started = true
	}
	s.silenceAccum = 0
	s.buf = append(s.buf, chunk...)
	if s.maxUtterance > 0 && s.bufferedDuration() >= s.maxUtterance {
		return started, s.cut()
	}
	return started, nil
}

// flush completes the in-progress utterance, if any. Called at end of
// stream and on teardown.
func (s *segmenter) flush() *utterance {
	if !s.inSpeech || len(s.buf) == 0 {
		s.reset()
		return nil
	}
	return s.cut()
}

func (s *segmenter) cut() *utterance {
	utt := &utterance{
		pcm:      s.buf,
		offset:   s.speechStart,
		duration: s.bufferedDuration(),
	}
	s.reset()
	return utt
}

func (s *segmenter) reset() {
	s.buf = nil
	s.inSpeech = false
	s.silenceAccum = 0
}

func (s *segmenter) bufferedDuration() time.Duration {
	return s.chunkDuration(s.buf)
}

func (s *segmenter) chunkDuration(chunk []byte) time.Duration {
	if s.bytesPerSecond <= 0 {
		return 0
	}
	return time.Duration(len(chunk)) * time.Second / time.Duration(s.bytesPerSecond)
}

// computeRMS returns the root-mean-square energy of 16-bit little-endian
// PCM audio. A trailing odd byte is ignored.
func computeRMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		v := float64(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// pcmToFloat32Mono converts 16-bit little-endian PCM to mono float32
// samples in [-1, 1], averaging the channels of multi-channel audio.
func pcmToFloat32Mono(pcm []byte, channels int) []float32 {
	if channels < 1 {
		channels = 1
	}
	frames := len(pcm) / (2 * channels)
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * 2
			sum += float32(int16(binary.LittleEndian.Uint16(pcm[off:]))) / 32768.0
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}
