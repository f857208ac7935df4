package api

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hariprasadr/verivoice/adapters/fetch"
	"github.com/hariprasadr/verivoice/domain/entities"
	"github.com/hariprasadr/verivoice/internal/audio"
	"github.com/hariprasadr/verivoice/internal/auth"
	"github.com/hariprasadr/verivoice/internal/websocket"
	"github.com/hariprasadr/verivoice/usecase"
)

const (
	serviceName    = "AI Voice Detection API"
	serviceVersion = "1.0.0"
)

// InitRoutes initializes all API routes
func InitRoutes(
	e *echo.Echo,
	svc *usecase.DetectionService,
	hub *websocket.Hub,
	keys *auth.KeyStore,
	jwtSecret []byte,
	logger *zap.Logger,
) {
	e.GET("/", root)

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.GET("/health", health)
	v1.GET("/info", info)

	v1.POST("/auth/token", func(c echo.Context) error {
		return authToken(c, keys, jwtSecret, logger)
	})

	v1.POST("/detect", func(c echo.Context) error {
		return detect(c, svc, keys, jwtSecret, logger)
	})
	v1.POST("/detect-url", func(c echo.Context) error {
		return detectURL(c, svc, keys, jwtSecret, logger)
	})

	v1.GET("/verifications", func(c echo.Context) error {
		return listVerifications(c, svc, keys, jwtSecret, logger)
	})

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(hub, c, jwtSecret, logger)
	})
}

func root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"service": serviceName,
		"status":  "running",
		"version": serviceVersion,
		"endpoints": map[string]string{
			"health":        "/api/v1/health",
			"info":          "/api/v1/info",
			"detect_base64": "/api/v1/detect",
			"detect_url":    "/api/v1/detect-url",
		},
	})
}

func health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   serviceVersion,
	})
}

func info(c echo.Context) error {
	languages := entities.SupportedLanguages()
	names := make([]string, len(languages))
	for i, l := range languages {
		names[i] = string(l)
	}

	return c.JSON(http.StatusOK, InfoResponse{
		Name:               serviceName,
		Version:            serviceVersion,
		SupportedLanguages: names,
		Endpoints: []string{
			"/api/v1/detect",
			"/api/v1/detect-url",
			"/api/v1/health",
			"/api/v1/info",
		},
		InputFormats: []string{
			"base64 (via /detect endpoint)",
			"url (via /detect-url endpoint)",
		},
	})
}

// authenticate resolves the API caller from either the X-API-Key header or
// the Authorization header. Authorization accepts a raw API key or a
// Bearer access token issued by the token endpoint.
func authenticate(c echo.Context, keys *auth.KeyStore, jwtSecret []byte) (string, bool) {
	if apiKey := c.Request().Header.Get("X-API-Key"); apiKey != "" {
		if owner, ok := keys.Verify(apiKey); ok {
			return owner, true
		}
		return "", false
	}

	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	if token, found := strings.CutPrefix(authHeader, "Bearer "); found {
		claims, err := auth.ValidateToken(jwtSecret, token)
		if err != nil {
			return "", false
		}
		return claims.Owner, true
	}

	if owner, ok := keys.Verify(authHeader); ok {
		return owner, true
	}
	return "", false
}

func authToken(c echo.Context, keys *auth.KeyStore, jwtSecret []byte, logger *zap.Logger) error {
	apiKey := c.Request().Header.Get("X-API-Key")
	if apiKey == "" {
		apiKey = c.Request().Header.Get("Authorization")
	}
	if apiKey == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_api_key",
			Message: "API key required in Authorization or X-API-Key header",
		})
	}

	owner, ok := keys.Verify(apiKey)
	if !ok {
		logger.Warn("Token exchange rejected: unknown API key")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_api_key",
			Message: "Invalid API key",
		})
	}

	token, expiresAt, err := auth.GenerateAccessToken(jwtSecret, owner)
	if err != nil {
		logger.Error("Failed to generate access token",
			zap.String("owner", owner),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate access token",
		})
	}

	logger.Info("Issued access token", zap.String("owner", owner))

	return c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Owner:     owner,
	})
}

func detect(c echo.Context, svc *usecase.DetectionService, keys *auth.KeyStore, jwtSecret []byte, logger *zap.Logger) error {
	owner, ok := authenticate(c, keys, jwtSecret)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_api_key",
			Message: "Invalid or missing API key",
		})
	}

	var req DetectRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind detect request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	language, err := entities.ParseLanguage(req.Language)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "unsupported_language",
			Message: err.Error(),
		})
	}

	audioData, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_base64",
			Message: "Invalid base64 encoding",
		})
	}

	outcome, err := svc.DetectBytes(c.Request().Context(), usecase.DetectionInput{
		Audio:     audioData,
		Language:  language,
		InputType: entities.InputTypeBase64,
		Owner:     owner,
	})
	if err != nil {
		return detectionError(c, err, logger)
	}

	return c.JSON(http.StatusOK, detectionResponse(outcome))
}

func detectURL(c echo.Context, svc *usecase.DetectionService, keys *auth.KeyStore, jwtSecret []byte, logger *zap.Logger) error {
	owner, ok := authenticate(c, keys, jwtSecret)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_api_key",
			Message: "Invalid or missing API key",
		})
	}

	var req DetectURLRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind detect-url request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	language, err := entities.ParseLanguage(req.Language)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "unsupported_language",
			Message: err.Error(),
		})
	}

	parsed, err := url.Parse(req.AudioURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_url",
			Message: "audio_url must be a valid http or https URL",
		})
	}

	outcome, err := svc.DetectURL(c.Request().Context(), req.AudioURL, language, owner)
	if err != nil {
		return detectionError(c, err, logger)
	}

	return c.JSON(http.StatusOK, detectionResponse(outcome))
}

func listVerifications(c echo.Context, svc *usecase.DetectionService, keys *auth.KeyStore, jwtSecret []byte, logger *zap.Logger) error {
	owner, ok := authenticate(c, keys, jwtSecret)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_api_key",
			Message: "Invalid or missing API key",
		})
	}

	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	verifications, err := svc.History(c.Request().Context(), owner, limit)
	if err != nil {
		logger.Error("Failed to list verifications",
			zap.String("owner", owner),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list verifications",
		})
	}

	return c.JSON(http.StatusOK, VerificationListResponse{
		Verifications: verifications,
		Count:         len(verifications),
	})
}

// detectionError maps pipeline errors to HTTP status codes
func detectionError(c echo.Context, err error, logger *zap.Logger) error {
	switch {
	case errors.Is(err, fetch.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusRequestTimeout, ErrorResponse{
			Error:   "download_timeout",
			Message: "Request timeout while downloading audio",
		})
	case errors.Is(err, fetch.ErrDownloadFailed), errors.Is(err, fetch.ErrTooLarge), errors.Is(err, fetch.ErrEmptyBody):
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "download_failed",
			Message: err.Error(),
		})
	case errors.Is(err, audio.ErrUnsupportedFormat), errors.Is(err, audio.ErrEmptyAudio):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "invalid_audio",
			Message: err.Error(),
		})
	}

	logger.Error("Detection failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "detection_failed",
		Message: "Error processing audio",
	})
}

func detectionResponse(outcome *usecase.DetectionOutcome) DetectionResponse {
	v := outcome.Verification

	metadata := map[string]interface{}{
		"audio_size_bytes":   v.AudioBytes,
		"features_extracted": v.FeatureCount,
		"model_version":      v.ModelVersion,
		"input_type":         v.InputType,
	}
	if v.SourceURL != "" {
		metadata["source_url"] = v.SourceURL
	}
	if outcome.Cached {
		metadata["cached"] = true
	}

	return DetectionResponse{
		Status:     "success",
		Result:     v.Result,
		Confidence: v.Confidence,
		Language:   string(v.Language),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Metadata:   metadata,
	}
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func websocketWithAuth(hub *websocket.Hub, c echo.Context, jwtSecret []byte, logger *zap.Logger) error {
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if after, found := strings.CutPrefix(authHeader, "Bearer "); found {
		token = after
	}

	if token == "" {
		logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required in Authorization header",
		})
	}

	claims, err := auth.ValidateToken(jwtSecret, token)
	if err != nil {
		logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	if claims.Owner == "" {
		logger.Error("WebSocket connection rejected: missing owner in token")
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_token_claims",
			Message: "Owner not found in token",
		})
	}

	logger.Info("WebSocket connection authenticated",
		zap.String("owner", claims.Owner))

	return websocket.HandleWebSocket(hub, c, claims.Owner, logger)
}
