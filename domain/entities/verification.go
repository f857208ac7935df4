package entities

import (
	"errors"
	"time"
)

// Verification results
const (
	ResultAIGenerated = "AI_GENERATED"
	ResultHuman       = "HUMAN"
)

// Input types for a verification
const (
	InputTypeBase64 = "base64"
	InputTypeURL    = "url"
	InputTypeStream = "stream"
)

// Verification represents a single voice verification outcome
type Verification struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	AudioHash    string    `json:"audio_hash" bson:"audio_hash"`
	Owner        string    `json:"owner" bson:"owner"`
	Language     Language  `json:"language" bson:"language"`
	Result       string    `json:"result" bson:"result"`
	Confidence   float64   `json:"confidence" bson:"confidence"`
	InputType    string    `json:"input_type" bson:"input_type"`
	SourceURL    string    `json:"source_url,omitempty" bson:"source_url,omitempty"`
	AudioBytes   int       `json:"audio_size_bytes" bson:"audio_size_bytes"`
	DurationMs   int64     `json:"duration_ms" bson:"duration_ms"`
	FeatureCount int       `json:"features_extracted" bson:"features_extracted"`
	ModelVersion string    `json:"model_version" bson:"model_version"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Domain validation methods
func (v *Verification) Validate() error {
	if v.AudioHash == "" {
		return errors.New("audio hash is required")
	}
	if v.Owner == "" {
		return errors.New("owner is required")
	}
	if !v.Language.Valid() {
		return errors.New("language is not supported")
	}
	if v.Result != ResultAIGenerated && v.Result != ResultHuman {
		return errors.New("result must be AI_GENERATED or HUMAN")
	}
	if v.Confidence < 0 || v.Confidence > 1 {
		return errors.New("confidence must be between 0 and 1")
	}
	switch v.InputType {
	case InputTypeBase64, InputTypeURL, InputTypeStream:
	default:
		return errors.New("input type must be base64, url or stream")
	}
	return nil
}
