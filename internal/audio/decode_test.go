package audio

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

// sineWAV builds a 16-bit mono PCM WAV file containing a sine tone.
func sineWAV(freq float64, sampleRate int, duration time.Duration) []byte {
	n := int(float64(sampleRate) * duration.Seconds())
	data := make([]byte, 44+n*2)
	copy(data[0:4], "RIFF")
	binary.LittleEndian.PutUint32(data[4:8], uint32(36+n*2))
	copy(data[8:12], "WAVE")
	copy(data[12:16], "fmt ")
	binary.LittleEndian.PutUint32(data[16:20], 16)
	binary.LittleEndian.PutUint16(data[20:22], 1)
	binary.LittleEndian.PutUint16(data[22:24], 1)
	binary.LittleEndian.PutUint32(data[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(data[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(data[32:34], 2)
	binary.LittleEndian.PutUint16(data[34:36], 16)
	copy(data[36:40], "data")
	binary.LittleEndian.PutUint32(data[40:44], uint32(n*2))
	for i := 0; i < n; i++ {
		s := int16(16000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		binary.LittleEndian.PutUint16(data[44+i*2:], uint16(s))
	}
	return data
}

func TestFormat(t *testing.T) {
	wav := sineWAV(440, 22050, 100*time.Millisecond)
	if got := Format(wav); got != "wav" {
		t.Errorf("Expected wav, got %s", got)
	}

	id3 := []byte("ID3\x04\x00\x00\x00\x00\x00\x00")
	if got := Format(id3); got != "mp3" {
		t.Errorf("Expected mp3 for ID3 header, got %s", got)
	}

	sync := []byte{0xFF, 0xFB, 0x90, 0x00}
	if got := Format(sync); got != "mp3" {
		t.Errorf("Expected mp3 for frame sync, got %s", got)
	}

	if got := Format([]byte("hello world")); got != "" {
		t.Errorf("Expected empty format for unknown data, got %s", got)
	}
}

func TestDecodeWAV(t *testing.T) {
	wav := sineWAV(440, 22050, time.Second)

	clip, err := Decode(wav, 30)
	if err != nil {
		t.Fatalf("Failed to decode WAV: %v", err)
	}
	if clip.SampleRate != TargetSampleRate {
		t.Errorf("Expected sample rate %d, got %d", TargetSampleRate, clip.SampleRate)
	}
	if len(clip.Samples) != 22050 {
		t.Errorf("Expected 22050 samples, got %d", len(clip.Samples))
	}

	d := clip.Duration()
	if d < 990*time.Millisecond || d > 1010*time.Millisecond {
		t.Errorf("Expected roughly 1s clip, got %v", d)
	}

	// Samples are normalized to [-1, 1]
	for i, s := range clip.Samples {
		if s < -1 || s > 1 {
			t.Fatalf("Sample %d out of range: %f", i, s)
		}
	}
}

func TestDecodeResamples(t *testing.T) {
	wav := sineWAV(440, 44100, time.Second)

	clip, err := Decode(wav, 30)
	if err != nil {
		t.Fatalf("Failed to decode WAV: %v", err)
	}
	if clip.SampleRate != TargetSampleRate {
		t.Errorf("Expected sample rate %d after resampling, got %d", TargetSampleRate, clip.SampleRate)
	}
	got := clip.Duration()
	if got < 950*time.Millisecond || got > 1050*time.Millisecond {
		t.Errorf("Expected roughly 1s after resampling, got %v", got)
	}
}

func TestDecodeTruncatesLongAudio(t *testing.T) {
	wav := sineWAV(440, 22050, 3*time.Second)

	clip, err := Decode(wav, 2)
	if err != nil {
		t.Fatalf("Failed to decode WAV: %v", err)
	}
	if len(clip.Samples) != 2*TargetSampleRate {
		t.Errorf("Expected clip capped at %d samples, got %d", 2*TargetSampleRate, len(clip.Samples))
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode(nil, 30); err != ErrEmptyAudio {
		t.Errorf("Expected ErrEmptyAudio for nil input, got %v", err)
	}
	if _, err := Decode([]byte{}, 30); err != ErrEmptyAudio {
		t.Errorf("Expected ErrEmptyAudio for empty input, got %v", err)
	}
	if _, err := Decode([]byte("definitely not audio data"), 30); err == nil {
		t.Error("Expected error for unrecognized data")
	}
}

func TestResample(t *testing.T) {
	in := make([]float64, 44100)
	for i := range in {
		in[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 44100)
	}

	out := Resample(in, 44100, 22050)
	want := 22050
	if len(out) < want-1 || len(out) > want+1 {
		t.Errorf("Expected about %d samples, got %d", want, len(out))
	}

	same := Resample(in, 22050, 22050)
	if len(same) != len(in) {
		t.Errorf("Expected identity resample to keep %d samples, got %d", len(in), len(same))
	}
}
