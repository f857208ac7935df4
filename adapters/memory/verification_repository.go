package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hariprasadr/verivoice/domain/entities"
	"github.com/hariprasadr/verivoice/domain/repositories"
)

// VerificationRepository is an in-memory implementation of
// VerificationRepository. It is the default storage backend when no
// MongoDB URI is configured.
type VerificationRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entities.Verification
	byHash  map[string]*entities.Verification
	byOwner map[string][]*entities.Verification
}

// Ensure the interface is satisfied
var _ repositories.VerificationRepository = (*VerificationRepository)(nil)

// NewVerificationRepository creates a new in-memory verification repository
func NewVerificationRepository() *VerificationRepository {
	return &VerificationRepository{
		byID:    make(map[string]*entities.Verification),
		byHash:  make(map[string]*entities.Verification),
		byOwner: make(map[string][]*entities.Verification),
	}
}

// Create implements VerificationRepository interface
func (m *VerificationRepository) Create(ctx context.Context, verification *entities.Verification) error {
	if verification == nil {
		return errors.New("verification cannot be nil")
	}
	if err := verification.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if verification.ID == "" {
		verification.ID = uuid.New().String()
	}
	if verification.CreatedAt.IsZero() {
		verification.CreatedAt = time.Now()
	}

	stored := *verification
	m.byID[stored.ID] = &stored
	m.byHash[hashKey(stored.AudioHash, stored.Owner, stored.Language)] = &stored
	m.byOwner[stored.Owner] = append(m.byOwner[stored.Owner], &stored)

	return nil
}

// hashKey scopes the dedup index per owner and language
func hashKey(audioHash, owner string, language entities.Language) string {
	return audioHash + "|" + owner + "|" + string(language)
}

// GetByHash implements VerificationRepository interface
func (m *VerificationRepository) GetByHash(ctx context.Context, audioHash, owner string, language entities.Language) (*entities.Verification, error) {
	if audioHash == "" {
		return nil, errors.New("audio hash cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	verification, exists := m.byHash[hashKey(audioHash, owner, language)]
	if !exists {
		return nil, repositories.ErrVerificationNotFound
	}

	result := *verification
	return &result, nil
}

// ListByOwner implements VerificationRepository interface,
// returning records newest first
func (m *VerificationRepository) ListByOwner(ctx context.Context, owner string, limit int) ([]*entities.Verification, error) {
	if owner == "" {
		return nil, errors.New("owner cannot be empty")
	}
	if limit <= 0 {
		limit = 20
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.byOwner[owner]
	results := make([]*entities.Verification, 0, limit)
	for i := len(stored) - 1; i >= 0 && len(results) < limit; i-- {
		result := *stored[i]
		results = append(results, &result)
	}

	return results, nil
}
