package local

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

const testRate = 16000 // mono 16-bit, 32000 bytes per second

// silencePCM returns ms milliseconds of silent mono 16-bit PCM.
func silencePCM(ms int) []byte {
	return make([]byte, testRate*2*ms/1000)
}

// speechPCM returns ms milliseconds of loud mono 16-bit PCM (a square wave
// well above the silence threshold).
func speechPCM(ms int) []byte {
	samples := testRate * ms / 1000
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(8000)
		if i%2 == 0 {
			v = -8000
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}
	return pcm
}

func TestComputeRMS_SilenceIsZero(t *testing.T) {
	if got := computeRMS(silencePCM(100)); got != 0 {
		t.Errorf("computeRMS(silence) = %v, want 0", got)
	}
}

func TestComputeRMS_ConstantAmplitude(t *testing.T) {
	got := computeRMS(speechPCM(100))
	if math.Abs(got-8000) > 1 {
		t.Errorf("computeRMS(square wave at 8000) = %v, want ~8000", got)
	}
}

func TestComputeRMS_Empty(t *testing.T) {
	if got := computeRMS(nil); got != 0 {
		t.Errorf("computeRMS(nil) = %v, want 0", got)
	}
}

func TestPcmToFloat32Mono_NormalizesRange(t *testing.T) {
	pcm := make([]byte, 4)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(int16(-32768)))
	binary.LittleEndian.PutUint16(pcm[2:], uint16(int16(16384)))

	got := pcmToFloat32Mono(pcm, 1)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0] != -1.0 {
		t.Errorf("sample 0 = %v, want -1.0", got[0])
	}
	if got[1] != 0.5 {
		t.Errorf("sample 1 = %v, want 0.5", got[1])
	}
}

func TestPcmToFloat32Mono_AveragesStereo(t *testing.T) {
	// One frame: left 16384, right -16384. The mono mix is 0.
	pcm := make([]byte, 4)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(int16(16384)))
	binary.LittleEndian.PutUint16(pcm[2:], uint16(int16(-16384)))

	got := pcmToFloat32Mono(pcm, 2)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0] != 0 {
		t.Errorf("mixed sample = %v, want 0", got[0])
	}
}

func TestSegmenter_SilenceOnly_NoUtterance(t *testing.T) {
	seg := newSegmenter(testRate*2, 200*time.Millisecond, 15*time.Second)
	for i := 0; i < 10; i++ {
		if started, utt := seg.push(silencePCM(100)); started || utt != nil {
			t.Fatalf("push(silence) = started %v, utterance %v", started, utt)
		}
	}
	if utt := seg.flush(); utt != nil {
		t.Errorf("flush after silence = %v, want nil", utt)
	}
}

func TestSegmenter_SpeechThenSilence_CutsUtterance(t *testing.T) {
	seg := newSegmenter(testRate*2, 200*time.Millisecond, 15*time.Second)

	// Leading silence, then speech.
	seg.push(silencePCM(100))
	started, utt := seg.push(speechPCM(100))
	if !started {
		t.Fatal("speech chunk did not start an utterance")
	}
	if utt != nil {
		t.Fatal("utterance cut before trailing silence")
	}
	seg.push(speechPCM(100))

	// First silent chunk is below the window, second reaches it.
	if _, utt := seg.push(silencePCM(100)); utt != nil {
		t.Fatal("utterance cut before the silence window elapsed")
	}
	_, utt = seg.push(silencePCM(100))
	if utt == nil {
		t.Fatal("no utterance after the silence window elapsed")
	}

	if utt.offset != 100*time.Millisecond {
		t.Errorf("offset = %v, want 100ms", utt.offset)
	}
	// 200ms speech plus 200ms trailing silence.
	if utt.duration != 400*time.Millisecond {
		t.Errorf("duration = %v, want 400ms", utt.duration)
	}
}

func TestSegmenter_MaxUtterance_ForcesCut(t *testing.T) {
	seg := newSegmenter(testRate*2, 500*time.Millisecond, 300*time.Millisecond)

	seg.push(speechPCM(100))
	seg.push(speechPCM(100))
	_, utt := seg.push(speechPCM(100))
	if utt == nil {
		t.Fatal("no utterance at the utterance cap")
	}
	if utt.duration != 300*time.Millisecond {
		t.Errorf("duration = %v, want 300ms", utt.duration)
	}
}

func TestSegmenter_Flush_CompletesOpenUtterance(t *testing.T) {
	seg := newSegmenter(testRate*2, 500*time.Millisecond, 15*time.Second)
	seg.push(speechPCM(150))

	utt := seg.flush()
	if utt == nil {
		t.Fatal("flush returned nil for an open utterance")
	}
	if utt.duration != 150*time.Millisecond {
		t.Errorf("duration = %v, want 150ms", utt.duration)
	}
	if again := seg.flush(); again != nil {
		t.Errorf("second flush = %v, want nil", again)
	}
}

func TestSegmenter_SecondUtterance_OffsetContinues(t *testing.T) {
	seg := newSegmenter(testRate*2, 100*time.Millisecond, 15*time.Second)

	seg.push(speechPCM(100))
	_, first := seg.push(silencePCM(100))
	if first == nil {
		t.Fatal("first utterance not cut")
	}

	seg.push(silencePCM(100))
	started, _ := seg.push(speechPCM(100))
	if !started {
		t.Fatal("second utterance not started")
	}
	_, second := seg.push(silencePCM(100))
	if second == nil {
		t.Fatal("second utterance not cut")
	}
	if second.offset != 300*time.Millisecond {
		t.Errorf("second utterance offset = %v, want 300ms", second.offset)
	}
}
