package dsp

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const eps = 1e-10

// rolloffPercent is the spectral energy fraction below the rolloff frequency
const rolloffPercent = 0.85

// meanStd returns the mean and population standard deviation of xs
func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	mean := stat.Mean(xs, nil)
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}

// SpectralCentroids returns the magnitude-weighted mean frequency per frame
func SpectralCentroids(spec *Spectrogram) []float64 {
	out := make([]float64, len(spec.Frames))
	for t, mags := range spec.Frames {
		var num, den float64
		for k, m := range mags {
			num += spec.Freqs[k] * m
			den += m
		}
		out[t] = num / (den + eps)
	}
	return out
}

// SpectralRolloffs returns, per frame, the lowest frequency below which
// rolloffPercent of the spectral energy is contained
func SpectralRolloffs(spec *Spectrogram) []float64 {
	out := make([]float64, len(spec.Frames))
	for t, mags := range spec.Frames {
		var total float64
		for _, m := range mags {
			total += m
		}
		threshold := rolloffPercent * total
		var cum float64
		for k, m := range mags {
			cum += m
			if cum >= threshold {
				out[t] = spec.Freqs[k]
				break
			}
		}
	}
	return out
}

// SpectralBandwidths returns the magnitude-weighted spread around the
// centroid per frame
func SpectralBandwidths(spec *Spectrogram, centroids []float64) []float64 {
	out := make([]float64, len(spec.Frames))
	for t, mags := range spec.Frames {
		var num, den float64
		for k, m := range mags {
			d := spec.Freqs[k] - centroids[t]
			num += m * d * d
			den += m
		}
		out[t] = math.Sqrt(num / (den + eps))
	}
	return out
}

// SpectralFlatnesses returns the geometric-to-arithmetic mean ratio of the
// power spectrum per frame; near 1 for noise-like frames
func SpectralFlatnesses(spec *Spectrogram) []float64 {
	out := make([]float64, len(spec.Frames))
	for t, mags := range spec.Frames {
		var logSum, sum float64
		for _, m := range mags {
			p := m*m + eps
			logSum += math.Log(p)
			sum += p
		}
		n := float64(len(mags))
		geo := math.Exp(logSum / n)
		out[t] = geo / (sum / n)
	}
	return out
}

// contrastBandEdges delimit the octave bands used for spectral contrast
var contrastBandEdges = []float64{0, 200, 400, 800, 1600, 3200}

// SpectralContrasts returns the per-frame mean peak-to-valley difference,
// in dB, across octave bands
func SpectralContrasts(spec *Spectrogram) []float64 {
	// Quantile fraction of each band treated as peak/valley
	const quantile = 0.02

	nyquist := float64(spec.SampleRate) / 2
	edges := append(append([]float64{}, contrastBandEdges...), nyquist)

	out := make([]float64, len(spec.Frames))
	for t, mags := range spec.Frames {
		var bandSum float64
		bands := 0
		for b := 0; b < len(edges)-1; b++ {
			var band []float64
			for k, f := range spec.Freqs {
				if f >= edges[b] && f < edges[b+1] {
					band = append(band, mags[k])
				}
			}
			if len(band) == 0 {
				continue
			}
			sort.Float64s(band)

			n := int(quantile * float64(len(band)))
			if n < 1 {
				n = 1
			}
			var valley, peak float64
			for i := 0; i < n; i++ {
				valley += band[i]
				peak += band[len(band)-1-i]
			}
			valley /= float64(n)
			peak /= float64(n)

			bandSum += 20 * (math.Log10(peak+eps) - math.Log10(valley+eps))
			bands++
		}
		if bands > 0 {
			out[t] = bandSum / float64(bands)
		}
	}
	return out
}

// timeFrames slices the signal into the same frames STFT analyzes.
// The final frame of a short clip may be shorter than FrameLength.
func timeFrames(samples []float64) [][]float64 {
	nFrames := 1
	if len(samples) > FrameLength {
		nFrames = 1 + (len(samples)-FrameLength)/HopLength
	}
	frames := make([][]float64, nFrames)
	for t := range frames {
		start := t * HopLength
		end := start + FrameLength
		if end > len(samples) {
			end = len(samples)
		}
		frames[t] = samples[start:end]
	}
	return frames
}

// ZeroCrossingRates returns the fraction of sign changes per frame,
// computed on the raw time-domain signal
func ZeroCrossingRates(samples []float64) []float64 {
	frames := timeFrames(samples)
	out := make([]float64, len(frames))
	for t, frame := range frames {
		crossings := 0
		for i := 1; i < len(frame); i++ {
			if (frame[i-1] >= 0) != (frame[i] >= 0) {
				crossings++
			}
		}
		if len(frame) > 1 {
			out[t] = float64(crossings) / float64(len(frame)-1)
		}
	}
	return out
}

// RMSEnergies returns the root-mean-square energy per frame
func RMSEnergies(samples []float64) []float64 {
	frames := timeFrames(samples)
	out := make([]float64, len(frames))
	for t, frame := range frames {
		var ss float64
		for _, s := range frame {
			ss += s * s
		}
		if len(frame) > 0 {
			out[t] = math.Sqrt(ss / float64(len(frame)))
		}
	}
	return out
}
