package websocket

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hariprasadr/verivoice/adapters/memory"
	"github.com/hariprasadr/verivoice/usecase"
)

// sineWAV builds a 16-bit mono PCM WAV file containing a sine tone.
func sineWAV(freq float64, sampleRate int, duration time.Duration) []byte {
	n := int(float64(sampleRate) * duration.Seconds())
	data := make([]byte, 44+n*2)
	copy(data[0:4], "RIFF")
	binary.LittleEndian.PutUint32(data[4:8], uint32(36+n*2))
	copy(data[8:12], "WAVE")
	copy(data[12:16], "fmt ")
	binary.LittleEndian.PutUint32(data[16:20], 16)
	binary.LittleEndian.PutUint16(data[20:22], 1)
	binary.LittleEndian.PutUint16(data[22:24], 1)
	binary.LittleEndian.PutUint32(data[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(data[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(data[32:34], 2)
	binary.LittleEndian.PutUint16(data[34:36], 16)
	copy(data[36:40], "data")
	binary.LittleEndian.PutUint32(data[40:44], uint32(n*2))
	for i := 0; i < n; i++ {
		s := int16(16000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		binary.LittleEndian.PutUint16(data[44+i*2:], uint16(s))
	}
	return data
}

// newTestConn spins up a hub behind an echo server and dials it
func newTestConn(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	logger := zap.NewNop()

	repo := memory.NewVerificationRepository()
	svc := usecase.NewDetectionService(nil, repo, 30, logger)
	hub := NewHub(svc, logger)
	go hub.Run()

	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return HandleWebSocket(hub, c, "stream_user", logger)
	})

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return hub, conn
}

// readUntil reads text messages until one of the wanted type arrives
func readUntil(t *testing.T, conn *websocket.Conn, wanted MessageType, timeout time.Duration) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(timeout))
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Failed waiting for %s: %v", wanted, err)
		}
		var msg map[string]interface{}
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("Failed to parse server message: %v", err)
		}
		if msg["type"] == string(wanted) {
			return msg
		}
	}
}

func TestStreamingDetection(t *testing.T) {
	hub, conn := newTestConn(t)

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("Expected 1 registered client, got %d", hub.ClientCount())
	}

	start := `{"type":"listening_start","language":"english"}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(start)); err != nil {
		t.Fatalf("Failed to send listening_start: %v", err)
	}

	ack := readUntil(t, conn, MessageTypeListeningStart, 2*time.Second)
	if ack["language"] != "english" {
		t.Errorf("Expected english in capture confirmation, got %v", ack["language"])
	}

	// Stream the capture in two binary chunks
	wav := sineWAV(220, 22050, time.Second)
	half := len(wav) / 2
	for _, chunk := range [][]byte{wav[:half], wav[half:]} {
		if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			t.Fatalf("Failed to send audio chunk: %v", err)
		}
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"listening_end"}`)); err != nil {
		t.Fatalf("Failed to send listening_end: %v", err)
	}

	result := readUntil(t, conn, MessageTypeDetectionResult, 30*time.Second)
	if result["result"] != "AI_GENERATED" && result["result"] != "HUMAN" {
		t.Errorf("Unexpected result %v", result["result"])
	}
	confidence, ok := result["confidence"].(float64)
	if !ok || confidence <= 0 || confidence > 1 {
		t.Errorf("Confidence out of range: %v", result["confidence"])
	}
	if result["language"] != "english" {
		t.Errorf("Expected english, got %v", result["language"])
	}
	if result["audio_size_bytes"] != float64(len(wav)) {
		t.Errorf("Expected %d audio bytes, got %v", len(wav), result["audio_size_bytes"])
	}
}

func TestListeningEndWithoutStart(t *testing.T) {
	_, conn := newTestConn(t)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"listening_end"}`)); err != nil {
		t.Fatalf("Failed to send listening_end: %v", err)
	}

	msg := readUntil(t, conn, MessageTypeError, 2*time.Second)
	if msg["error_code"] != "no_open_capture" {
		t.Errorf("Expected no_open_capture error, got %v", msg["error_code"])
	}
}

func TestListeningStartRejectsUnknownLanguage(t *testing.T) {
	_, conn := newTestConn(t)

	start := `{"type":"listening_start","language":"french"}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(start)); err != nil {
		t.Fatalf("Failed to send listening_start: %v", err)
	}

	msg := readUntil(t, conn, MessageTypeError, 2*time.Second)
	if msg["error_code"] != "unsupported_language" {
		t.Errorf("Expected unsupported_language error, got %v", msg["error_code"])
	}
}

func TestInvalidControlMessage(t *testing.T) {
	_, conn := newTestConn(t)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"mystery"}`)); err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}

	msg := readUntil(t, conn, MessageTypeError, 2*time.Second)
	if msg["error_code"] != "invalid_message" {
		t.Errorf("Expected invalid_message error, got %v", msg["error_code"])
	}
}

func TestDisconnectDuringDetection(t *testing.T) {
	logger := zap.NewNop()
	repo := memory.NewVerificationRepository()
	svc := usecase.NewDetectionService(nil, repo, 30, logger)
	hub := NewHub(svc, logger)
	go hub.Run()

	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return HandleWebSocket(hub, c, "stream_user", logger)
	})
	server := httptest.NewServer(e)
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	wav := sineWAV(220, 22050, 500*time.Millisecond)

	// A client vanishing right after listening_end must not take the hub
	// down when its detection result has nowhere to go
	for i := 0; i < 20; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("Failed to dial websocket: %v", err)
		}
		start := `{"type":"listening_start","language":"english"}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(start)); err != nil {
			t.Fatalf("Failed to send listening_start: %v", err)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, wav); err != nil {
			t.Fatalf("Failed to send audio chunk: %v", err)
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"listening_end"}`)); err != nil {
			t.Fatalf("Failed to send listening_end: %v", err)
		}
		conn.Close()
	}

	// The hub must still serve a full capture afterwards
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket after disconnects: %v", err)
	}
	defer conn.Close()

	start := `{"type":"listening_start","language":"english"}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(start)); err != nil {
		t.Fatalf("Failed to send listening_start: %v", err)
	}
	readUntil(t, conn, MessageTypeListeningStart, 2*time.Second)
	if err := conn.WriteMessage(websocket.BinaryMessage, wav); err != nil {
		t.Fatalf("Failed to send audio chunk: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"listening_end"}`)); err != nil {
		t.Fatalf("Failed to send listening_end: %v", err)
	}
	result := readUntil(t, conn, MessageTypeDetectionResult, 30*time.Second)
	if result["result"] != "AI_GENERATED" && result["result"] != "HUMAN" {
		t.Errorf("Unexpected result %v", result["result"])
	}
}

func TestEmptyCapture(t *testing.T) {
	_, conn := newTestConn(t)

	start := `{"type":"listening_start","language":"tamil"}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(start)); err != nil {
		t.Fatalf("Failed to send listening_start: %v", err)
	}
	readUntil(t, conn, MessageTypeListeningStart, 2*time.Second)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"listening_end"}`)); err != nil {
		t.Fatalf("Failed to send listening_end: %v", err)
	}

	msg := readUntil(t, conn, MessageTypeError, 5*time.Second)
	if msg["error_code"] != "detection_failed" {
		t.Errorf("Expected detection_failed for empty capture, got %v", msg["error_code"])
	}
}
