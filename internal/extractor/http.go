package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cuongbtq/docsummary/internal/domain"
)

// blockTypeLine is the only block type consumed from the OCR backend;
// structural blocks (pages, tables, words) are discarded.
const blockTypeLine = "LINE"

// HTTPConfig holds OCR backend connection settings.
type HTTPConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// HTTPExtractor calls a detect-document-text style OCR service over HTTPS.
type HTTPExtractor struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

// detectResponse is the wire shape of the OCR backend response. Blocks
// arrive in the reading order the engine determined; they are not re-sorted.
type detectResponse struct {
	Blocks []struct {
		BlockType string `json:"block_type"`
		Text      string `json:"text"`
	} `json:"blocks"`
}

// NewHTTPExtractor creates an extractor backed by a remote OCR service.
func NewHTTPExtractor(cfg *HTTPConfig, logger *slog.Logger) *HTTPExtractor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPExtractor{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (e *HTTPExtractor) Extract(ctx context.Context, data []byte) ([]string, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build OCR request: %s", domain.ErrExtractionFault, err.Error())
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Error("OCR request failed",
			slog.Any("error", err),
			slog.Duration("elapsed", time.Since(start)),
		)
		return nil, fmt.Errorf("%w: %s", domain.ErrExtractionFault, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read OCR response: %s", domain.ErrExtractionFault, err.Error())
	}

	if resp.StatusCode/100 != 2 {
		e.logger.Error("OCR backend returned non-2xx status",
			slog.Int("status", resp.StatusCode),
			slog.Int("body_size", len(body)),
		)
		return nil, fmt.Errorf("%w: OCR backend status %d", domain.ErrExtractionFault, resp.StatusCode)
	}

	var decoded detectResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: malformed OCR response: %s", domain.ErrExtractionFault, err.Error())
	}

	lines := make([]string, 0, len(decoded.Blocks))
	for _, block := range decoded.Blocks {
		if block.BlockType != blockTypeLine {
			continue
		}
		if strings.TrimSpace(block.Text) == "" {
			continue
		}
		lines = append(lines, block.Text)
	}

	e.logger.Info("OCR extraction finished",
		slog.Int("blocks", len(decoded.Blocks)),
		slog.Int("lines", len(lines)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return lines, nil
}
