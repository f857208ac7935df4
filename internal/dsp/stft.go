package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Analysis framing parameters, shared by every feature
const (
	FrameLength = 2048
	HopLength   = 512
)

// HannWindow returns an n-point Hann window
func HannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}

// Spectrogram holds per-frame magnitude spectra and their bin frequencies
type Spectrogram struct {
	// Frames[t][k] is the magnitude of bin k in frame t
	Frames [][]float64
	// Freqs[k] is the center frequency of bin k in Hz
	Freqs      []float64
	SampleRate int
}

// STFT computes the magnitude spectrogram of samples with a Hann window,
// FrameLength-point FFT and HopLength hop
func STFT(samples []float64, sampleRate int) *Spectrogram {
	window := HannWindow(FrameLength)
	fft := fourier.NewFFT(FrameLength)

	nBins := FrameLength/2 + 1
	freqs := make([]float64, nBins)
	for k := range freqs {
		freqs[k] = float64(k) * float64(sampleRate) / float64(FrameLength)
	}

	nFrames := 1
	if len(samples) > FrameLength {
		nFrames = 1 + (len(samples)-FrameLength)/HopLength
	}

	frames := make([][]float64, 0, nFrames)
	buf := make([]float64, FrameLength)

	for t := 0; t < nFrames; t++ {
		start := t * HopLength
		for i := range buf {
			if start+i < len(samples) {
				buf[i] = samples[start+i] * window[i]
			} else {
				buf[i] = 0 // zero-pad the tail of short clips
			}
		}

		coeffs := fft.Coefficients(nil, buf)
		mags := make([]float64, nBins)
		for k, c := range coeffs {
			mags[k] = cmplxAbs(c)
		}
		frames = append(frames, mags)
	}

	return &Spectrogram{Frames: frames, Freqs: freqs, SampleRate: sampleRate}
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
