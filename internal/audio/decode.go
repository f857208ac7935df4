package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
)

// TargetSampleRate is the rate every clip is resampled to before analysis
const TargetSampleRate = 22050

var (
	// ErrEmptyAudio is returned when decoding yields no samples
	ErrEmptyAudio = errors.New("audio data is empty")

	// ErrUnsupportedFormat is returned when the payload is neither WAV nor MP3
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// Clip is a decoded, mono, analysis-ready audio signal
type Clip struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the clip length
func (c *Clip) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}

// Format sniffs the container format of raw audio bytes
func Format(data []byte) string {
	if len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")) {
		return "wav"
	}
	if len(data) >= 3 && bytes.Equal(data[:3], []byte("ID3")) {
		return "mp3"
	}
	// Raw MPEG frame sync: 11 set bits
	if len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0 {
		return "mp3"
	}
	return ""
}

// Decode converts MP3 or WAV bytes into a mono clip at TargetSampleRate,
// truncated to maxSeconds
func Decode(data []byte, maxSeconds int) (*Clip, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}

	var (
		samples []float64
		rate    int
		err     error
	)

	switch Format(data) {
	case "wav":
		samples, rate, err = decodeWAV(data)
	case "mp3":
		samples, rate, err = decodeMP3(data)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}

	samples = Resample(samples, rate, TargetSampleRate)

	if maxSeconds > 0 {
		if limit := maxSeconds * TargetSampleRate; len(samples) > limit {
			samples = samples[:limit]
		}
	}

	return &Clip{Samples: samples, SampleRate: TargetSampleRate}, nil
}

func decodeWAV(data []byte) ([]float64, int, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode wav: %w", err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, 0, ErrEmptyAudio
	}

	return downmix(buf), buf.Format.SampleRate, nil
}

// downmix converts an interleaved PCM buffer to normalized mono samples
func downmix(buf *goaudio.IntBuffer) []float64 {
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch]) / scale
		}
		samples[i] = sum / float64(channels)
	}
	return samples
}

func decodeMP3(data []byte) ([]float64, int, error) {
	decoder, err := gomp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode mp3: %w", err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read mp3 stream: %w", err)
	}

	// The decoder always emits 16-bit little-endian stereo frames
	frames := len(pcm) / 4
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		left := int16(uint16(pcm[i*4]) | uint16(pcm[i*4+1])<<8)
		right := int16(uint16(pcm[i*4+2]) | uint16(pcm[i*4+3])<<8)
		samples[i] = (float64(left) + float64(right)) / 2 / 32768
	}

	return samples, decoder.SampleRate(), nil
}

// Resample converts samples from one rate to another by linear interpolation
func Resample(samples []float64, from, to int) []float64 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}

	ratio := float64(from) / float64(to)
	outLen := int(float64(len(samples)) / ratio)
	if outLen == 0 {
		outLen = 1
	}

	out := make([]float64, outLen)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}
