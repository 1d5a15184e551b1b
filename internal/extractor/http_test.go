package extractor

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/docsummary/internal/domain"
)

func newTestExtractor(t *testing.T, handler http.HandlerFunc) *HTTPExtractor {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewHTTPExtractor(&HTTPConfig{
		Endpoint: srv.URL,
		APIKey:   "test-key",
		Timeout:  5 * time.Second,
	}, slog.New(slog.DiscardHandler))
}

func TestHTTPExtractor_KeepsLineBlocksInOrder(t *testing.T) {
	e := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"blocks": [
				{"block_type": "PAGE", "text": ""},
				{"block_type": "LINE", "text": "Form 1040"},
				{"block_type": "WORD", "text": "Form"},
				{"block_type": "LINE", "text": "Tax Year 2023"},
				{"block_type": "LINE", "text": "   "},
				{"block_type": "LINE", "text": "Refund: $2500"}
			]
		}`))
	})

	lines, err := e.Extract(context.Background(), []byte("fake-pdf"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Form 1040", "Tax Year 2023", "Refund: $2500"}, lines)
}

func TestHTTPExtractor_EmptyResultIsNotAFault(t *testing.T) {
	e := newTestExtractor(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"blocks": [{"block_type": "PAGE", "text": ""}]}`))
	})

	lines, err := e.Extract(context.Background(), []byte("blank-page"))
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestHTTPExtractor_NonSuccessStatusIsAFault(t *testing.T) {
	e := newTestExtractor(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := e.Extract(context.Background(), []byte("doc"))
	assert.ErrorIs(t, err, domain.ErrExtractionFault)
}

func TestHTTPExtractor_MalformedResponseIsAFault(t *testing.T) {
	e := newTestExtractor(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := e.Extract(context.Background(), []byte("doc"))
	assert.ErrorIs(t, err, domain.ErrExtractionFault)
}

func TestHTTPExtractor_UnreachableBackendIsAFault(t *testing.T) {
	e := NewHTTPExtractor(&HTTPConfig{
		Endpoint: "http://127.0.0.1:1",
		Timeout:  time.Second,
	}, slog.New(slog.DiscardHandler))

	_, err := e.Extract(context.Background(), []byte("doc"))
	assert.ErrorIs(t, err, domain.ErrExtractionFault)
}

func TestHTTPExtractor_ContextTimeoutIsAFault(t *testing.T) {
	e := newTestExtractor(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"blocks": []}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := e.Extract(ctx, []byte("doc"))
	assert.ErrorIs(t, err, domain.ErrExtractionFault)
}

func TestSplitLines(t *testing.T) {
	lines := SplitLines("  Form 1040 \n\n Tax Year 2023\n   \nRefund: $2500\n")
	assert.Equal(t, []string{"Form 1040", "Tax Year 2023", "Refund: $2500"}, lines)
}
