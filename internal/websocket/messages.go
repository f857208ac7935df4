package websocket

import (
	"encoding/json"
	"fmt"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypeListeningStart  MessageType = "listening_start"
	MessageTypeListeningEnd    MessageType = "listening_end"
	MessageTypeDetectionResult MessageType = "detection_result"
	MessageTypeError           MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
}

// ListeningStartMessage opens an audio capture; binary frames that follow
// are buffered until listening_end arrives
type ListeningStartMessage struct {
	BaseMessage
	Language string `json:"language"`
}

// ListeningEndMessage closes the capture and requests a verdict
type ListeningEndMessage struct {
	BaseMessage
}

// DetectionResultMessage carries the verdict for a completed capture
type DetectionResultMessage struct {
	BaseMessage
	Result     string  `json:"result"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
	AudioBytes int     `json:"audio_size_bytes"`
	Cached     bool    `json:"cached,omitempty"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// ParseMessage decodes an incoming control message by its type field
func ParseMessage(data []byte) (interface{}, error) {
	var base BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	switch base.Type {
	case MessageTypeListeningStart:
		var msg ListeningStartMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse listening_start: %w", err)
		}
		return &msg, nil
	case MessageTypeListeningEnd:
		var msg ListeningEndMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse listening_end: %w", err)
		}
		return &msg, nil
	}

	return nil, fmt.Errorf("unknown message type %q", base.Type)
}
