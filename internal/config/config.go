package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultPort             = "8080"
	defaultJWTSecret        = "verivoice-dev-secret"
	defaultMongoDatabase    = "verivoice"
	defaultMaxAudioSeconds  = 30
	defaultMaxDownloadBytes = 20 << 20 // 20 MiB
	defaultFetchTimeout     = 30 * time.Second
)

// Config holds runtime configuration for the service.
// All values are read from environment variables with sensible defaults,
// so the service starts on hosting platforms that only inject PORT.
type Config struct {
	Port string

	// APIKeys maps an accepted API key to the owner it identifies
	APIKeys map[string]string

	// JWTSecret signs short-lived access tokens issued for valid API keys
	JWTSecret []byte

	// MongoURI enables MongoDB persistence when non-empty;
	// otherwise the in-memory repository is used
	MongoURI      string
	MongoDatabase string

	// MaxAudioSeconds caps the analyzed duration of a sample
	MaxAudioSeconds int

	// MaxDownloadBytes caps the size of audio fetched from a URL
	MaxDownloadBytes int64

	// FetchTimeout bounds a single audio download
	FetchTimeout time.Duration
}

// Load reads configuration from environment variables
func Load(logger *zap.Logger) *Config {
	cfg := &Config{
		Port:             os.Getenv("PORT"),
		APIKeys:          parseAPIKeys(os.Getenv("API_KEYS")),
		JWTSecret:        []byte(os.Getenv("JWT_SECRET")),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDatabase:    os.Getenv("MONGO_DATABASE"),
		MaxAudioSeconds:  defaultMaxAudioSeconds,
		MaxDownloadBytes: defaultMaxDownloadBytes,
		FetchTimeout:     defaultFetchTimeout,
	}

	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	if len(cfg.APIKeys) == 0 {
		// Demo keys so a fresh deployment answers requests immediately
		cfg.APIKeys = map[string]string{
			"demo-key-12345": "demo_user",
			"test-key-67890": "test_user",
		}
		logger.Warn("API_KEYS not set, using demo keys")
	}

	if len(cfg.JWTSecret) == 0 {
		cfg.JWTSecret = []byte(defaultJWTSecret)
		logger.Warn("JWT_SECRET not set, using development secret")
	}

	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = defaultMongoDatabase
	}

	if v := os.Getenv("MAX_AUDIO_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxAudioSeconds = n
		}
	}

	if v := os.Getenv("MAX_DOWNLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxDownloadBytes = n
		}
	}

	if v := os.Getenv("FETCH_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FetchTimeout = time.Duration(n) * time.Second
		}
	}

	logger.Info("Configuration loaded",
		zap.String("port", cfg.Port),
		zap.Int("apiKeys", len(cfg.APIKeys)),
		zap.Bool("mongoEnabled", cfg.MongoURI != ""),
		zap.Int("maxAudioSeconds", cfg.MaxAudioSeconds))

	return cfg
}

// parseAPIKeys parses the API_KEYS variable.
// Format: "key1:owner1,key2:owner2". A key without an owner is accepted
// and owned by "default_user".
func parseAPIKeys(raw string) map[string]string {
	keys := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, owner, found := strings.Cut(pair, ":")
		if !found || owner == "" {
			owner = "default_user"
		}
		if key != "" {
			keys[key] = owner
		}
	}
	return keys
}
