package usecase

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"
	"lukechampine.com/blake3"

	"github.com/hariprasadr/verivoice/domain/entities"
	"github.com/hariprasadr/verivoice/domain/repositories"
	"github.com/hariprasadr/verivoice/internal/audio"
	"github.com/hariprasadr/verivoice/internal/classify"
	"github.com/hariprasadr/verivoice/internal/dsp"
)

// DetectionService orchestrates the voice verification flow
type DetectionService struct {
	fetcher       repositories.AudioFetcher
	verifications repositories.VerificationRepository
	maxSeconds    int
	logger        *zap.Logger
}

// NewDetectionService creates a new detection service
func NewDetectionService(
	fetcher repositories.AudioFetcher,
	verifications repositories.VerificationRepository,
	maxSeconds int,
	logger *zap.Logger,
) *DetectionService {
	return &DetectionService{
		fetcher:       fetcher,
		verifications: verifications,
		maxSeconds:    maxSeconds,
		logger:        logger,
	}
}

// DetectionInput describes one detection request
type DetectionInput struct {
	Audio     []byte
	Language  entities.Language
	InputType string
	SourceURL string
	Owner     string
}

// DetectionOutcome is the result of a detection, with Cached set when the
// verdict was answered from a previous verification of the same audio
type DetectionOutcome struct {
	Verification *entities.Verification
	Cached       bool
}

// DetectBytes runs the full pipeline on raw audio bytes:
// dedup lookup, decode, feature extraction, scoring, persistence
func (s *DetectionService) DetectBytes(ctx context.Context, input DetectionInput) (*DetectionOutcome, error) {
	if len(input.Audio) == 0 {
		return nil, audio.ErrEmptyAudio
	}

	sum := blake3.Sum256(input.Audio)
	audioHash := hex.EncodeToString(sum[:])

	// Identical audio from the same owner in the same language resolves
	// to the recorded verdict
	if existing, err := s.verifications.GetByHash(ctx, audioHash, input.Owner, input.Language); err == nil {
		s.logger.Info("Serving verification from store",
			zap.String("audioHash", audioHash),
			zap.String("result", existing.Result))
		return &DetectionOutcome{Verification: existing, Cached: true}, nil
	}

	start := time.Now()

	clip, err := audio.Decode(input.Audio, s.maxSeconds)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio: %w", err)
	}

	if audio.Format(input.Audio) == "mp3" {
		if full, err := audio.ProbeMP3Duration(input.Audio); err == nil && full > clip.Duration() {
			s.logger.Info("Audio truncated for analysis",
				zap.Duration("fullDuration", full),
				zap.Duration("analyzedDuration", clip.Duration()))
		}
	}

	features := dsp.Extract(clip)
	verdict := classify.Score(features, input.Language)

	s.logger.Info("Detection completed",
		zap.String("result", verdict.Result),
		zap.Float64("confidence", verdict.Confidence),
		zap.String("language", string(input.Language)),
		zap.Duration("elapsed", time.Since(start)))

	verification := &entities.Verification{
		AudioHash:    audioHash,
		Owner:        input.Owner,
		Language:     input.Language,
		Result:       verdict.Result,
		Confidence:   verdict.Confidence,
		InputType:    input.InputType,
		SourceURL:    input.SourceURL,
		AudioBytes:   len(input.Audio),
		DurationMs:   clip.Duration().Milliseconds(),
		FeatureCount: features.Count(),
		ModelVersion: classify.ModelVersion,
		CreatedAt:    time.Now(),
	}

	// Persistence failure must not cost the caller their verdict
	if err := s.verifications.Create(ctx, verification); err != nil {
		s.logger.Error("Failed to persist verification",
			zap.String("audioHash", audioHash),
			zap.Error(err))
	}

	return &DetectionOutcome{Verification: verification}, nil
}

// DetectURL downloads the audio file and runs detection on it
func (s *DetectionService) DetectURL(ctx context.Context, url string, language entities.Language, owner string) (*DetectionOutcome, error) {
	data, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	return s.DetectBytes(ctx, DetectionInput{
		Audio:     data,
		Language:  language,
		InputType: entities.InputTypeURL,
		SourceURL: url,
		Owner:     owner,
	})
}

// History returns the most recent verifications for an API key owner
func (s *DetectionService) History(ctx context.Context, owner string, limit int) ([]*entities.Verification, error) {
	return s.verifications.ListByOwner(ctx, owner, limit)
}
