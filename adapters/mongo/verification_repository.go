package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hariprasadr/verivoice/domain/entities"
	"github.com/hariprasadr/verivoice/domain/repositories"
)

type VerificationRepository struct {
	collection *mongo.Collection
}

// NewVerificationRepository creates a new MongoDB verification repository
func NewVerificationRepository(db *mongo.Database) repositories.VerificationRepository {
	return &VerificationRepository{
		collection: db.Collection("verifications"),
	}
}

// Create implements repositories.VerificationRepository
func (r *VerificationRepository) Create(ctx context.Context, verification *entities.Verification) error {
	if verification == nil {
		return errors.New("verification cannot be nil")
	}
	if err := verification.Validate(); err != nil {
		return err
	}

	if verification.CreatedAt.IsZero() {
		verification.CreatedAt = time.Now()
	}

	doc := bson.M{
		"audio_hash":         verification.AudioHash,
		"owner":              verification.Owner,
		"language":           verification.Language,
		"result":             verification.Result,
		"confidence":         verification.Confidence,
		"input_type":         verification.InputType,
		"source_url":         verification.SourceURL,
		"audio_size_bytes":   verification.AudioBytes,
		"duration_ms":        verification.DurationMs,
		"features_extracted": verification.FeatureCount,
		"model_version":      verification.ModelVersion,
		"created_at":         verification.CreatedAt,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create verification: %w", err)
	}

	// Set the generated ID back to the verification
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		verification.ID = oid.Hex()
	}

	return nil
}

// GetByHash implements repositories.VerificationRepository
func (r *VerificationRepository) GetByHash(ctx context.Context, audioHash, owner string, language entities.Language) (*entities.Verification, error) {
	if audioHash == "" {
		return nil, errors.New("audio hash cannot be empty")
	}

	filter := bson.M{
		"audio_hash": audioHash,
		"owner":      owner,
		"language":   language,
	}
	opts := options.FindOne().SetSort(bson.M{"created_at": -1})

	var doc verificationDocument
	err := r.collection.FindOne(ctx, filter, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrVerificationNotFound
		}
		return nil, fmt.Errorf("failed to get verification by hash: %w", err)
	}

	return doc.toEntity(), nil
}

// ListByOwner implements repositories.VerificationRepository
func (r *VerificationRepository) ListByOwner(ctx context.Context, owner string, limit int) ([]*entities.Verification, error) {
	if owner == "" {
		return nil, errors.New("owner cannot be empty")
	}
	if limit <= 0 {
		limit = 20
	}

	filter := bson.M{"owner": owner}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list verifications: %w", err)
	}
	defer cursor.Close(ctx)

	var verifications []*entities.Verification
	for cursor.Next(ctx) {
		var doc verificationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode verification: %w", err)
		}
		verifications = append(verifications, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error while listing verifications: %w", err)
	}

	return verifications, nil
}

// verificationDocument mirrors the stored document; the ObjectID needs an
// explicit conversion back to its hex form
type verificationDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	AudioHash    string             `bson:"audio_hash"`
	Owner        string             `bson:"owner"`
	Language     string             `bson:"language"`
	Result       string             `bson:"result"`
	Confidence   float64            `bson:"confidence"`
	InputType    string             `bson:"input_type"`
	SourceURL    string             `bson:"source_url"`
	AudioBytes   int                `bson:"audio_size_bytes"`
	DurationMs   int64              `bson:"duration_ms"`
	FeatureCount int                `bson:"features_extracted"`
	ModelVersion string             `bson:"model_version"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (d *verificationDocument) toEntity() *entities.Verification {
	return &entities.Verification{
		ID:           d.ID.Hex(),
		AudioHash:    d.AudioHash,
		Owner:        d.Owner,
		Language:     entities.Language(d.Language),
		Result:       d.Result,
		Confidence:   d.Confidence,
		InputType:    d.InputType,
		SourceURL:    d.SourceURL,
		AudioBytes:   d.AudioBytes,
		DurationMs:   d.DurationMs,
		FeatureCount: d.FeatureCount,
		ModelVersion: d.ModelVersion,
		CreatedAt:    d.CreatedAt,
	}
}
