package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/cuongbtq/docsummary/internal/domain"
)

// Tesseract runs OCR locally through the tesseract engine. It handles image
// inputs only; PDF submissions need the HTTP backend.
type Tesseract struct {
	language string
	logger   *slog.Logger
}

// NewTesseract creates a local OCR extractor. Language defaults to "eng".
func NewTesseract(language string, logger *slog.Logger) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{
		language: language,
		logger:   logger,
	}
}

func (t *Tesseract) Extract(ctx context.Context, data []byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrExtractionFault, err.Error())
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return nil, fmt.Errorf("%w: failed to set OCR language: %s", domain.ErrExtractionFault, err.Error())
	}

	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: failed to load image: %s", domain.ErrExtractionFault, err.Error())
	}

	text, err := client.Text()
	if err != nil {
		t.logger.Error("Tesseract recognition failed",
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%w: %s", domain.ErrExtractionFault, err.Error())
	}

	lines := SplitLines(text)

	t.logger.Info("Local OCR extraction finished",
		slog.String("language", t.language),
		slog.Int("lines", len(lines)),
	)

	return lines, nil
}

// SplitLines breaks recognized text into trimmed, non-empty lines,
// preserving order.
func SplitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
