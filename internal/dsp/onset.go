package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// OnsetStrengths returns the per-frame onset envelope: the rectified
// spectral flux of the log-power mel spectrogram. The first frame has no
// predecessor and reads zero.
func OnsetStrengths(melSpec [][]float64) []float64 {
	out := make([]float64, len(melSpec))
	var prev []float64
	for t, bands := range melSpec {
		db := make([]float64, len(bands))
		for i, b := range bands {
			db[i] = powerToDB(b)
		}
		if prev != nil {
			var sum float64
			for i, v := range db {
				if d := v - prev[i]; d > 0 {
					sum += d
				}
			}
			out[t] = sum / float64(len(db))
		}
		prev = db
	}
	return out
}

// Chromagram folds the power spectrum onto the 12 pitch classes. Each
// frame is normalized by its peak class so the values are comparable
// across frames. The result is indexed [frame][class], class 0 = A.
func Chromagram(spec *Spectrogram) [][]float64 {
	const refA = 440.0

	out := make([][]float64, len(spec.Frames))
	for t, mags := range spec.Frames {
		classes := make([]float64, 12)
		for k, m := range mags {
			f := spec.Freqs[k]
			if f < 20 {
				continue
			}
			pc := int(math.Round(12*math.Log2(f/refA))) % 12
			if pc < 0 {
				pc += 12
			}
			classes[pc] += m * m
		}
		if peak := floats.Max(classes); peak > eps {
			for i := range classes {
				classes[i] /= peak
			}
		}
		out[t] = classes
	}
	return out
}
