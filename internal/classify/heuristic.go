package classify

import (
	"math"

	"github.com/hariprasadr/verivoice/domain/entities"
	"github.com/hariprasadr/verivoice/internal/dsp"
)

// ModelVersion identifies the scoring rule set in responses and records
const ModelVersion = "1.0.0"

// Classification threshold on the adjusted score
const threshold = 0.5

// languageFactors compensate for language-specific voice characteristics
var languageFactors = map[entities.Language]float64{
	entities.LanguageTamil:     0.95,
	entities.LanguageEnglish:   1.0,
	entities.LanguageHindi:     0.98,
	entities.LanguageMalayalam: 0.96,
	entities.LanguageTelugu:    0.97,
}

// Verdict is the outcome of scoring a feature set
type Verdict struct {
	Result     string
	Confidence float64
}

// Score classifies a feature set as AI-generated or human speech.
//
// Synthesized voices tend toward unnaturally consistent spectra, pitch and
// energy. Each rule checks one consistency signal; strong signals weigh 1,
// weaker ones 0.5. The aggregate is adjusted per language and compared
// against the threshold.
func Score(f *dsp.Features, language entities.Language) Verdict {
	var aiScore float64
	totalChecks := 0

	// Spectral consistency
	if f.SpectralCentroidStd < 200 {
		aiScore++
	}
	totalChecks++

	// MFCC variance
	if f.MFCCStdAvg() < 15 {
		aiScore++
	}
	totalChecks++

	// Zero crossing rate consistency
	if f.ZCRStd < 0.02 {
		aiScore++
	}
	totalChecks++

	// Pitch consistency
	if f.PitchStd < 20 && f.PitchMean > 0 {
		aiScore++
	}
	totalChecks++

	// Spectral flatness pattern
	if f.SpectralFlatnessMean > 0.3 || f.SpectralFlatnessStd < 0.05 {
		aiScore += 0.5
	}
	totalChecks++

	// RMS energy consistency
	if f.RMSStd < 0.01 {
		aiScore += 0.5
	}
	totalChecks++

	// Spectral contrast pattern
	if f.SpectralContrastMean > 25 {
		aiScore += 0.5
	}
	totalChecks++

	// Mel spectrogram uniformity
	if f.MelStd < 5 {
		aiScore += 0.5
	}
	totalChecks++

	// Limited pitch range
	if f.PitchRange < 50 && f.PitchMean > 0 {
		aiScore += 0.5
	}
	totalChecks++

	rawConfidence := aiScore / float64(totalChecks)

	factor, ok := languageFactors[language]
	if !ok {
		factor = 1.0
	}
	adjusted := rawConfidence * factor

	var verdict Verdict
	if adjusted >= threshold {
		verdict.Result = entities.ResultAIGenerated
		verdict.Confidence = math.Min(adjusted, 1.0)
	} else {
		verdict.Result = entities.ResultHuman
		verdict.Confidence = math.Min(1.0-adjusted, 1.0)
	}

	verdict.Confidence = roundConfidence(math.Max(0, math.Min(1, verdict.Confidence)))
	return verdict
}

// roundConfidence rounds to 4 decimal places, matching the wire format
func roundConfidence(c float64) float64 {
	return math.Round(c*10000) / 10000
}
