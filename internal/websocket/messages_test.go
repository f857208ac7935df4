package websocket

import (
	"encoding/json"
	"testing"
)

func TestParseMessageListeningStart(t *testing.T) {
	data := []byte(`{"type":"listening_start","language":"english"}`)

	parsed, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("Failed to parse message: %v", err)
	}

	msg, ok := parsed.(*ListeningStartMessage)
	if !ok {
		t.Fatalf("Expected *ListeningStartMessage, got %T", parsed)
	}
	if msg.Type != MessageTypeListeningStart {
		t.Errorf("Expected type listening_start, got %s", msg.Type)
	}
	if msg.Language != "english" {
		t.Errorf("Expected language english, got %s", msg.Language)
	}
}

func TestParseMessageListeningEnd(t *testing.T) {
	parsed, err := ParseMessage([]byte(`{"type":"listening_end"}`))
	if err != nil {
		t.Fatalf("Failed to parse message: %v", err)
	}
	if _, ok := parsed.(*ListeningEndMessage); !ok {
		t.Fatalf("Expected *ListeningEndMessage, got %T", parsed)
	}
}

func TestParseMessageErrors(t *testing.T) {
	if _, err := ParseMessage([]byte(`not json`)); err == nil {
		t.Error("Expected error for invalid JSON")
	}
	if _, err := ParseMessage([]byte(`{"type":"detection_result"}`)); err == nil {
		t.Error("Expected error for server-only message type")
	}
	if _, err := ParseMessage([]byte(`{"type":"mystery"}`)); err == nil {
		t.Error("Expected error for unknown message type")
	}
	if _, err := ParseMessage([]byte(`{}`)); err == nil {
		t.Error("Expected error for missing type")
	}
}

func TestDetectionResultMessageEncoding(t *testing.T) {
	msg := DetectionResultMessage{
		BaseMessage: BaseMessage{Type: MessageTypeDetectionResult, Timestamp: 1700000000},
		Result:      "HUMAN",
		Confidence:  0.9123,
		Language:    "tamil",
		AudioBytes:  4096,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Failed to marshal message: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if decoded["type"] != "detection_result" {
		t.Errorf("Expected type detection_result, got %v", decoded["type"])
	}
	if decoded["result"] != "HUMAN" {
		t.Errorf("Expected result HUMAN, got %v", decoded["result"])
	}
	if decoded["audio_size_bytes"] != float64(4096) {
		t.Errorf("Expected audio_size_bytes 4096, got %v", decoded["audio_size_bytes"])
	}
	if _, present := decoded["cached"]; present {
		t.Error("Expected cached to be omitted when false")
	}
}
