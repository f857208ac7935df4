package dsp

import "math"

// Pitch tracking bounds for voiced speech
const (
	pitchMinHz = 50
	pitchMaxHz = 500

	// Minimum normalized autocorrelation peak for a frame to count as voiced
	voicedThreshold = 0.3

	// Minimum frame RMS for pitch estimation; quieter frames are unvoiced
	voicedEnergyFloor = 1e-4
)

// PitchTrack estimates a fundamental frequency per voiced frame by
// normalized autocorrelation. Unvoiced frames are skipped, so the result
// may be shorter than the frame count, or empty for noise-only input.
func PitchTrack(samples []float64, sampleRate int) []float64 {
	minLag := sampleRate / pitchMaxHz
	maxLag := sampleRate / pitchMinHz
	if minLag < 1 {
		minLag = 1
	}

	var pitches []float64
	for _, frame := range timeFrames(samples) {
		if len(frame) <= maxLag {
			continue
		}

		var energy float64
		for _, s := range frame {
			energy += s * s
		}
		if math.Sqrt(energy/float64(len(frame))) < voicedEnergyFloor {
			continue
		}

		bestLag := 0
		bestCorr := 0.0
		for lag := minLag; lag <= maxLag; lag++ {
			var corr float64
			for i := 0; i < len(frame)-lag; i++ {
				corr += frame[i] * frame[i+lag]
			}
			corr /= energy
			if corr > bestCorr {
				bestCorr = corr
				bestLag = lag
			}
		}

		if bestLag > 0 && bestCorr >= voicedThreshold {
			pitches = append(pitches, float64(sampleRate)/float64(bestLag))
		}
	}
	return pitches
}
