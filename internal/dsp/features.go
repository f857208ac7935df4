package dsp

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/hariprasadr/verivoice/internal/audio"
)

// Features holds the statistics extracted from a clip for classification
type Features struct {
	SpectralCentroidMean  float64 `json:"spectral_centroid_mean"`
	SpectralCentroidStd   float64 `json:"spectral_centroid_std"`
	SpectralRolloffMean   float64 `json:"spectral_rolloff_mean"`
	SpectralBandwidthMean float64 `json:"spectral_bandwidth_mean"`
	SpectralContrastMean  float64 `json:"spectral_contrast_mean"`
	SpectralFlatnessMean  float64 `json:"spectral_flatness_mean"`
	SpectralFlatnessStd   float64 `json:"spectral_flatness_std"`

	// Per-coefficient MFCC statistics across frames
	MFCCMean []float64 `json:"mfcc_mean"`
	MFCCStd  []float64 `json:"mfcc_std"`

	ZCRMean float64 `json:"zcr_mean"`
	ZCRStd  float64 `json:"zcr_std"`

	RMSMean float64 `json:"rms_mean"`
	RMSStd  float64 `json:"rms_std"`

	PitchMean  float64 `json:"pitch_mean"`
	PitchStd   float64 `json:"pitch_std"`
	PitchRange float64 `json:"pitch_range"`

	MelMean float64 `json:"mel_spec_mean"`
	MelStd  float64 `json:"mel_spec_std"`

	OnsetMean  float64 `json:"onset_strength_mean"`
	ChromaMean float64 `json:"chroma_mean"`
}

// Count returns the number of extracted feature statistics
func (f *Features) Count() int {
	return 20
}

// MFCCStdAvg returns the mean of the per-coefficient MFCC deviations
func (f *Features) MFCCStdAvg() float64 {
	if len(f.MFCCStd) == 0 {
		return 0
	}
	return stat.Mean(f.MFCCStd, nil)
}

// Extract computes all classification features for a decoded clip
func Extract(clip *audio.Clip) *Features {
	f := &Features{}

	spec := STFT(clip.Samples, clip.SampleRate)

	centroids := SpectralCentroids(spec)
	f.SpectralCentroidMean, f.SpectralCentroidStd = meanStd(centroids)
	f.SpectralRolloffMean, _ = meanStd(SpectralRolloffs(spec))
	f.SpectralBandwidthMean, _ = meanStd(SpectralBandwidths(spec, centroids))
	f.SpectralContrastMean, _ = meanStd(SpectralContrasts(spec))
	f.SpectralFlatnessMean, f.SpectralFlatnessStd = meanStd(SpectralFlatnesses(spec))

	melSpec := MelSpectrogram(spec)
	f.MelMean, f.MelStd = meanStd(flatten(melSpec))
	f.OnsetMean, _ = meanStd(OnsetStrengths(melSpec))
	f.ChromaMean, _ = meanStd(flatten(Chromagram(spec)))

	mfccs := MFCCs(melSpec)
	f.MFCCMean, f.MFCCStd = columnStats(mfccs, MFCCCount)

	f.ZCRMean, f.ZCRStd = meanStd(ZeroCrossingRates(clip.Samples))
	f.RMSMean, f.RMSStd = meanStd(RMSEnergies(clip.Samples))

	pitches := PitchTrack(clip.Samples, clip.SampleRate)
	if len(pitches) > 0 {
		f.PitchMean, f.PitchStd = meanStd(pitches)
		f.PitchRange = floats.Max(pitches) - floats.Min(pitches)
	}

	return f
}

func flatten(rows [][]float64) []float64 {
	var n int
	for _, row := range rows {
		n += len(row)
	}
	out := make([]float64, 0, n)
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}

// columnStats computes mean and population deviation per column across rows
func columnStats(rows [][]float64, cols int) (means, stds []float64) {
	means = make([]float64, cols)
	stds = make([]float64, cols)
	if len(rows) == 0 {
		return means, stds
	}

	column := make([]float64, len(rows))
	for c := 0; c < cols; c++ {
		for r, row := range rows {
			column[r] = row[c]
		}
		means[c], stds[c] = meanStd(column)
	}
	return means, stds
}
