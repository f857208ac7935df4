package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hariprasadr/verivoice/domain/entities"
	"github.com/hariprasadr/verivoice/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	// Maximum buffered capture size per client.
	maxCaptureBytes = 20 << 20

	// Time allowed for one detection on a completed capture.
	detectTimeout = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active clients
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	detector *usecase.DetectionService

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(detector *usecase.DetectionService, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		detector:   detector,
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Info("Client registered",
				zap.String("clientID", client.id),
				zap.String("owner", client.owner))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.done)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("clientID", client.id))
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages. Never closed; done signals
	// shutdown so a detection finishing after disconnect drops its result
	// instead of panicking.
	send chan WriteData

	// Closed by the hub on unregister.
	done chan struct{}

	// Connection ID, unique per connection
	id string

	// API key owner this client authenticated as
	owner string

	// Logger
	logger *zap.Logger

	// Capture state, guarded by mutex
	capturing bool
	language  entities.Language
	buffer    bytes.Buffer

	mutex sync.Mutex
}

// HandleWebSocket handles websocket requests with a pre-authenticated owner
func HandleWebSocket(hub *Hub, c echo.Context, owner string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan WriteData, 256),
		done:   make(chan struct{}),
		id:     uuid.New().String(),
		owner:  owner,
		logger: logger,
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			// Control messages: listening_start / listening_end
			c.processMessage(message)
		case websocket.BinaryMessage:
			// Raw audio data for the open capture
			c.processBinaryAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage processes incoming control messages from the client
func (c *Client) processMessage(message []byte) {
	parsed, err := ParseMessage(message)
	if err != nil {
		c.logger.Error("Failed to parse message", zap.Error(err))
		c.sendError("invalid_message", err.Error())
		return
	}

	switch msg := parsed.(type) {
	case *ListeningStartMessage:
		c.handleListeningStart(msg)
	case *ListeningEndMessage:
		c.handleListeningEnd()
	}
}

// processBinaryAudioChunk buffers binary audio data for the open capture
func (c *Client) processBinaryAudioChunk(data []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.capturing {
		c.logger.Warn("Received binary audio chunk but no open capture",
			zap.String("clientID", c.id))
		return
	}

	if c.buffer.Len()+len(data) > maxCaptureBytes {
		c.capturing = false
		c.buffer.Reset()
		c.sendError("capture_too_large", "audio capture exceeds size limit")
		return
	}

	c.buffer.Write(data)

	c.logger.Debug("Buffered audio chunk",
		zap.String("clientID", c.id),
		zap.Int("chunkSize", len(data)),
		zap.Int("totalBytes", c.buffer.Len()))
}

// handleListeningStart opens a new audio capture
func (c *Client) handleListeningStart(msg *ListeningStartMessage) {
	language, err := entities.ParseLanguage(msg.Language)
	if err != nil {
		c.sendError("unsupported_language", err.Error())
		return
	}

	c.mutex.Lock()
	c.capturing = true
	c.language = language
	c.buffer.Reset()
	c.mutex.Unlock()

	c.logger.Info("Audio capture started",
		zap.String("clientID", c.id),
		zap.String("language", string(language)))

	c.sendJSON(ListeningStartMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeListeningStart,
			Timestamp: time.Now().Unix(),
		},
		Language: string(language),
	})
}

// handleListeningEnd closes the capture and runs detection on it
func (c *Client) handleListeningEnd() {
	c.mutex.Lock()
	if !c.capturing {
		c.mutex.Unlock()
		c.sendError("no_open_capture", "listening_end without listening_start")
		return
	}
	c.capturing = false
	audioData := make([]byte, c.buffer.Len())
	copy(audioData, c.buffer.Bytes())
	c.buffer.Reset()
	language := c.language
	c.mutex.Unlock()

	c.logger.Info("Audio capture ended",
		zap.String("clientID", c.id),
		zap.Int("totalBytes", len(audioData)))

	go c.detect(audioData, language)
}

// detect runs the detection pipeline on a completed capture and sends the
// verdict back to the client
func (c *Client) detect(audioData []byte, language entities.Language) {
	ctx, cancel := context.WithTimeout(context.Background(), detectTimeout)
	defer cancel()

	outcome, err := c.hub.detector.DetectBytes(ctx, usecase.DetectionInput{
		Audio:     audioData,
		Language:  language,
		InputType: entities.InputTypeStream,
		Owner:     c.owner,
	})
	if err != nil {
		c.logger.Error("Streaming detection failed",
			zap.String("clientID", c.id),
			zap.Error(err))
		c.sendError("detection_failed", err.Error())
		return
	}

	v := outcome.Verification
	c.logger.Info("Streaming detection completed",
		zap.String("clientID", c.id),
		zap.String("result", v.Result),
		zap.Float64("confidence", v.Confidence))

	c.sendJSON(DetectionResultMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeDetectionResult,
			Timestamp: time.Now().Unix(),
		},
		Result:     v.Result,
		Confidence: v.Confidence,
		Language:   string(v.Language),
		AudioBytes: v.AudioBytes,
		Cached:     outcome.Cached,
	})
}

func (c *Client) sendJSON(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}
	select {
	case <-c.done:
		c.logger.Debug("Client gone, dropping message",
			zap.String("clientID", c.id))
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Send buffer full, dropping message",
			zap.String("clientID", c.id))
	}
}

func (c *Client) sendError(code, message string) {
	c.sendJSON(ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeError,
			Timestamp: time.Now().Unix(),
		},
		Code:    code,
		Message: message,
	})
}
