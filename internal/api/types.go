package api

import (
	"time"

	"github.com/hariprasadr/verivoice/domain/entities"
)

// DetectRequest represents the request payload for base64 audio detection
type DetectRequest struct {
	AudioBase64 string `json:"audio_base64" validate:"required"`
	Language    string `json:"language" validate:"required"`
}

// DetectURLRequest represents the request payload for URL audio detection
type DetectURLRequest struct {
	AudioURL string `json:"audio_url" validate:"required"`
	Language string `json:"language" validate:"required"`
}

// DetectionResponse represents a verification verdict
type DetectionResponse struct {
	Status     string                 `json:"status"`
	Result     string                 `json:"result"`
	Confidence float64                `json:"confidence"`
	Language   string                 `json:"language"`
	Timestamp  string                 `json:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// TokenResponse represents the response payload for API key exchange
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Owner     string    `json:"owner"`
}

// HealthResponse represents the health check payload
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// InfoResponse describes the service surface
type InfoResponse struct {
	Name               string   `json:"name"`
	Version            string   `json:"version"`
	SupportedLanguages []string `json:"supported_languages"`
	Endpoints          []string `json:"endpoints"`
	InputFormats       []string `json:"input_formats"`
}

// VerificationListResponse represents the verification history payload
type VerificationListResponse struct {
	Verifications []*entities.Verification `json:"verifications"`
	Count         int                      `json:"count"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
