package repositories

import (
	"context"
	"errors"

	"github.com/hariprasadr/verivoice/domain/entities"
)

// ErrVerificationNotFound is returned when no verification matches a lookup
var ErrVerificationNotFound = errors.New("verification not found")

// VerificationRepository defines data access methods for verifications
type VerificationRepository interface {
	Create(ctx context.Context, verification *entities.Verification) error
	// GetByHash returns the verification recorded for an audio content hash,
	// scoped to one owner and language: the language adjustment changes the
	// verdict, and one owner's submission metadata is not served to another
	GetByHash(ctx context.Context, audioHash, owner string, language entities.Language) (*entities.Verification, error)
	// ListByOwner returns the most recent verifications for an API key owner
	ListByOwner(ctx context.Context, owner string, limit int) ([]*entities.Verification, error)
}

// AudioFetcher abstracts retrieval of remote audio files
type AudioFetcher interface {
	// Fetch downloads the audio file at url and returns its raw bytes
	Fetch(ctx context.Context, url string) ([]byte, error)
}
