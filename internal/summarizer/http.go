package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/docsummary/internal/domain"
)

// summaryInstruction is the fixed prompt prefix sent to the generation
// backend ahead of the document text.
const summaryInstruction = "Summarize this document in 3 lines:\n"

// HTTPConfig holds generation backend connection settings.
type HTTPConfig struct {
	Endpoint      string
	APIKey        string
	Model         string
	MaxTokens     int
	TruncateBytes int
	Timeout       time.Duration
}

// HTTPSummarizer calls a messages-style generation API over HTTPS.
type HTTPSummarizer struct {
	cfg    HTTPConfig
	client *http.Client
	logger *slog.Logger
}

type generateRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type generateResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// NewHTTPSummarizer creates a summarizer backed by a remote generation API.
func NewHTTPSummarizer(cfg *HTTPConfig, logger *slog.Logger) *HTTPSummarizer {
	resolved := *cfg
	if resolved.MaxTokens <= 0 {
		resolved.MaxTokens = 200
	}
	if resolved.TruncateBytes <= 0 {
		resolved.TruncateBytes = 12000
	}
	if resolved.Timeout <= 0 {
		resolved.Timeout = 45 * time.Second
	}

	return &HTTPSummarizer{
		cfg:    resolved,
		client: &http.Client{Timeout: resolved.Timeout},
		logger: logger,
	}
}

func (s *HTTPSummarizer) Summarize(ctx context.Context, text string, maxLines int) ([]string, error) {
	start := time.Now()

	prompt := summaryInstruction + Truncate(text, s.cfg.TruncateBytes)
	payload := generateRequest{
		Model:     s.cfg.Model,
		MaxTokens: s.cfg.MaxTokens,
		Messages: []message{
			{Role: "user", Content: prompt},
		},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %s", domain.ErrSummarizationFault, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %s", domain.ErrSummarizationFault, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("Generation request failed",
			slog.Any("error", err),
			slog.Duration("elapsed", time.Since(start)),
		)
		return nil, fmt.Errorf("%w: %s", domain.ErrSummarizationFault, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %s", domain.ErrSummarizationFault, err.Error())
	}

	if resp.StatusCode/100 != 2 {
		s.logger.Error("Generation backend returned non-2xx status",
			slog.Int("status", resp.StatusCode),
			slog.Int("body_size", len(body)),
		)
		return nil, fmt.Errorf("%w: generation backend status %d", domain.ErrSummarizationFault, resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %s", domain.ErrSummarizationFault, err.Error())
	}

	if len(decoded.Content) == 0 || decoded.Content[0].Text == "" {
		return nil, fmt.Errorf("%w: response missing generated text", domain.ErrSummarizationFault)
	}

	lines := ClampLines(decoded.Content[0].Text, maxLines)

	s.logger.Info("Summary generated",
		slog.Int("prompt_bytes", len(prompt)),
		slog.Int("lines", len(lines)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return lines, nil
}
