package dsp

import "math"

const (
	// MelBands is the filterbank size for the mel spectrogram
	MelBands = 128

	// MFCCCount is the number of cepstral coefficients kept
	MFCCCount = 20
)

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// melFilterbank builds MelBands triangular filters over nBins FFT bins
func melFilterbank(sampleRate, nBins int) [][]float64 {
	nyquist := float64(sampleRate) / 2
	melMax := hzToMel(nyquist)

	// Band center frequencies, evenly spaced on the mel scale
	centers := make([]float64, MelBands+2)
	for i := range centers {
		centers[i] = melToHz(melMax * float64(i) / float64(MelBands+1))
	}

	binFreq := func(k int) float64 {
		return float64(k) * nyquist / float64(nBins-1)
	}

	filters := make([][]float64, MelBands)
	for m := range filters {
		filters[m] = make([]float64, nBins)
		lower, center, upper := centers[m], centers[m+1], centers[m+2]
		for k := 0; k < nBins; k++ {
			f := binFreq(k)
			switch {
			case f > lower && f < center:
				filters[m][k] = (f - lower) / (center - lower)
			case f >= center && f < upper:
				filters[m][k] = (upper - f) / (upper - center)
			}
		}
	}
	return filters
}

// MelSpectrogram applies the mel filterbank to the power spectrum.
// The result is indexed [frame][band].
func MelSpectrogram(spec *Spectrogram) [][]float64 {
	if len(spec.Frames) == 0 {
		return nil
	}
	filters := melFilterbank(spec.SampleRate, len(spec.Frames[0]))

	out := make([][]float64, len(spec.Frames))
	for t, mags := range spec.Frames {
		power := make([]float64, len(mags))
		for k, m := range mags {
			power[k] = m * m
		}
		bands := make([]float64, MelBands)
		for m, filter := range filters {
			var sum float64
			for k, w := range filter {
				if w > 0 {
					sum += w * power[k]
				}
			}
			bands[m] = sum
		}
		out[t] = bands
	}
	return out
}

// powerToDB converts power values to decibels with a noise floor
func powerToDB(p float64) float64 {
	if p < eps {
		p = eps
	}
	return 10 * math.Log10(p)
}

// dctII computes an orthonormal DCT-II of x, keeping the first n coefficients
func dctII(x []float64, n int) []float64 {
	N := float64(len(x))
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum float64
		for i, v := range x {
			sum += v * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*N))
		}
		scale := math.Sqrt(2 / N)
		if k == 0 {
			scale = math.Sqrt(1 / N)
		}
		out[k] = scale * sum
	}
	return out
}

// MFCCs computes MFCCCount cepstral coefficients per frame from the
// log-power mel spectrogram. The result is indexed [frame][coefficient].
func MFCCs(melSpec [][]float64) [][]float64 {
	out := make([][]float64, len(melSpec))
	for t, bands := range melSpec {
		logBands := make([]float64, len(bands))
		for i, b := range bands {
			logBands[i] = powerToDB(b)
		}
		out[t] = dctII(logBands, MFCCCount)
	}
	return out
}
