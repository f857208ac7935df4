package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hariprasadr/verivoice/domain/repositories"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxBytes = 20 << 20

	// Some audio hosts reject requests without a browser user agent
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

var (
	// ErrTimeout is returned when the download exceeds the configured timeout
	ErrTimeout = errors.New("timeout while downloading audio")

	// ErrEmptyBody is returned when the remote file has no content
	ErrEmptyBody = errors.New("downloaded file is empty")

	// ErrTooLarge is returned when the remote file exceeds the size cap
	ErrTooLarge = errors.New("downloaded file exceeds size limit")

	// ErrDownloadFailed wraps request failures and non-2xx responses
	ErrDownloadFailed = errors.New("failed to download audio")
)

// HTTPFetcher downloads audio files over HTTP(S)
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *zap.Logger
}

// Ensure HTTPFetcher implements the AudioFetcher interface
var _ repositories.AudioFetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a fetcher with a request timeout and a response
// size cap. Zero values select the defaults.
func NewHTTPFetcher(timeout time.Duration, maxBytes int64, logger *zap.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Fetch downloads the audio file at rawURL and returns its raw bytes
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid audio URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("audio URL must use http or https, got %q", parsed.Scheme)
	}

	f.logger.Info("Downloading audio", zap.String("url", rawURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrDownloadFailed, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "audio") && !strings.HasSuffix(parsed.Path, ".mp3") && !strings.HasSuffix(parsed.Path, ".wav") {
		f.logger.Warn("Content type is not audio, proceeding anyway",
			zap.String("url", rawURL),
			zap.String("contentType", contentType))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyBody
	}

	f.logger.Info("Downloaded audio",
		zap.String("url", rawURL),
		zap.Int("bytes", len(data)))

	return data, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
