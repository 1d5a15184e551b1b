package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/docsummary/internal/api/dto"
	"github.com/cuongbtq/docsummary/internal/blobstore"
	"github.com/cuongbtq/docsummary/internal/domain"
	"github.com/cuongbtq/docsummary/internal/intake"
	"github.com/cuongbtq/docsummary/internal/jobstore"
	"github.com/cuongbtq/docsummary/internal/pipeline"
)

type stubExtractor struct {
	lines []string
	err   error
}

func (s *stubExtractor) Extract(_ context.Context, _ []byte) ([]string, error) {
	return s.lines, s.err
}

type stubSummarizer struct {
	summary []string
	err     error
}

func (s *stubSummarizer) Summarize(_ context.Context, _ string, _ int) ([]string, error) {
	return s.summary, s.err
}

type stubPublisher struct {
	published [][]byte
	err       error
}

func (s *stubPublisher) PublishWithRetry(_ context.Context, body []byte, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, body)
	return nil
}

func (s *stubPublisher) IsConnected() bool {
	return s.err == nil
}

type testEnv struct {
	router    *gin.Engine
	jobs      *jobstore.Memory
	blobs     *blobstore.Memory
	publisher *stubPublisher
}

func newTestEnv(t *testing.T, ext *stubExtractor, sum *stubSummarizer) *testEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.DiscardHandler)
	jobs := jobstore.NewMemory()
	blobs := blobstore.NewMemory()
	publisher := &stubPublisher{}

	orch := pipeline.New(&pipeline.Config{
		Jobs:       jobs,
		Blobs:      blobs,
		Extractor:  ext,
		Summarizer: sum,
		Logger:     logger,
	})

	h := NewDocumentHandler(&Dependencies{
		Logger:    logger,
		Jobs:      jobs,
		Blobs:     blobs,
		Intake:    intake.NewService(jobs, &intake.Config{}, logger),
		Pipeline:  orch,
		Publisher: publisher,
	})

	router := gin.New()
	v1 := router.Group("/api/v1")
	docs := v1.Group("/documents")
	docs.POST("/process", h.ProcessDocument)
	docs.POST("", h.CreateDocument)
	docs.PUT("/:job_id/content", h.UploadContent)
	docs.GET("/:job_id/result", h.GetResult)

	return &testEnv{router: router, jobs: jobs, blobs: blobs, publisher: publisher}
}

func (e *testEnv) do(method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createJob(t *testing.T, declaredSize int64) string {
	t.Helper()

	body, _ := json.Marshal(dto.CreateDocumentRequest{
		DeclaredSize: declaredSize,
		ContentType:  "application/pdf",
	})
	rec := e.do(http.MethodPost, "/api/v1/documents", "application/json", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.CreateDocumentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.JobID
}

func TestProcessDocument_RawBody(t *testing.T) {
	env := newTestEnv(t,
		&stubExtractor{lines: []string{"Form 1040", "Tax Year 2023", "Refund: $2500"}},
		&stubSummarizer{summary: []string{"one", "two", "three"}},
	)

	rec := env.do(http.MethodPost, "/api/v1/documents/process", "application/pdf", []byte("raw pdf bytes"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ProcessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "Form 1040\nTax Year 2023\nRefund: $2500", resp.ExtractedText)
	assert.Equal(t, []string{"one", "two", "three"}, resp.Summary)
	assert.Equal(t, "1040", resp.ExtractedFields["form_type"])
}

func TestProcessDocument_Base64Envelope(t *testing.T) {
	env := newTestEnv(t,
		&stubExtractor{lines: []string{"hello"}},
		&stubSummarizer{summary: []string{"a summary"}},
	)

	body, _ := json.Marshal(dto.ProcessRequest{
		FileData: base64.StdEncoding.EncodeToString([]byte("raw pdf bytes")),
	})
	rec := env.do(http.MethodPost, "/api/v1/documents/process", "application/json", body)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProcessDocument_BadInput(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        []byte
	}{
		{"empty raw body", "application/pdf", nil},
		{"invalid base64", "application/json", []byte(`{"file_data": "%%%"}`)},
		{"missing file_data", "application/json", []byte(`{}`)},
		{"malformed json", "application/json", []byte(`{`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &stubExtractor{lines: []string{"x"}}, &stubSummarizer{summary: []string{"s"}})

			rec := env.do(http.MethodPost, "/api/v1/documents/process", tt.contentType, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestProcessDocument_NoTextFound(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{lines: nil}, &stubSummarizer{})

	rec := env.do(http.MethodPost, "/api/v1/documents/process", "application/pdf", []byte("blank"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no text")
}

func TestProcessDocument_BackendFault(t *testing.T) {
	env := newTestEnv(t,
		&stubExtractor{err: fmt.Errorf("%w: OCR backend status 500", domain.ErrExtractionFault)},
		&stubSummarizer{},
	)

	rec := env.do(http.MethodPost, "/api/v1/documents/process", "application/pdf", []byte("doc"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestProcessDocument_SummarizerFault(t *testing.T) {
	env := newTestEnv(t,
		&stubExtractor{lines: []string{"some text"}},
		&stubSummarizer{err: fmt.Errorf("%w: generation backend status 503", domain.ErrSummarizationFault)},
	)

	rec := env.do(http.MethodPost, "/api/v1/documents/process", "application/pdf", []byte("doc"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCreateDocument(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{}, &stubSummarizer{})

	body, _ := json.Marshal(dto.CreateDocumentRequest{
		DeclaredSize: 2048,
		ContentType:  "image/png",
	})
	rec := env.do(http.MethodPost, "/api/v1/documents", "application/json", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.CreateDocumentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.NoError(t, uuid.Validate(resp.JobID))
	assert.Equal(t, "/api/v1/documents/"+resp.JobID+"/content", resp.UploadURL)
	assert.Equal(t, "/api/v1/documents/"+resp.JobID+"/result", resp.ResultURL)
}

func TestCreateDocument_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"oversize declaration", fmt.Sprintf(`{"declared_size": %d, "content_type": "application/pdf"}`, intake.DefaultMaxUploadBytes+1)},
		{"unsupported type", `{"declared_size": 100, "content_type": "text/plain"}`},
		{"missing fields", `{}`},
		{"malformed body", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &stubExtractor{}, &stubSummarizer{})

			rec := env.do(http.MethodPost, "/api/v1/documents", "application/json", []byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUploadContent(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{}, &stubSummarizer{})
	jobID := env.createJob(t, int64(len("document bytes")))

	rec := env.do(http.MethodPut, "/api/v1/documents/"+jobID+"/content", "application/pdf", []byte("document bytes"))
	require.Equal(t, http.StatusAccepted, rec.Code)

	// Bytes landed at the job's source ref
	data, err := env.blobs.Fetch(context.Background(), "doc/"+jobID)
	require.NoError(t, err)
	assert.Equal(t, []byte("document bytes"), data)

	// Exactly one trigger carrying the job id
	require.Len(t, env.publisher.published, 1)
	var trigger map[string]string
	require.NoError(t, json.Unmarshal(env.publisher.published[0], &trigger))
	assert.Equal(t, jobID, trigger["job_id"])
}

func TestUploadContent_Errors(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{}, &stubSummarizer{})
	jobID := env.createJob(t, 1)

	t.Run("invalid job id", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/api/v1/documents/not-a-uuid/content", "application/pdf", []byte("x"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown job", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/api/v1/documents/"+uuid.New().String()+"/content", "application/pdf", []byte("x"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/api/v1/documents/"+jobID+"/content", "application/pdf", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("oversize body", func(t *testing.T) {
		big := bytes.Repeat([]byte("a"), intake.DefaultMaxUploadBytes+1)
		rec := env.do(http.MethodPut, "/api/v1/documents/"+jobID+"/content", "application/pdf", big)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("declared size mismatch", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/api/v1/documents/"+jobID+"/content", "application/pdf", []byte("xx"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "declared size")
	})

	t.Run("non-pending job", func(t *testing.T) {
		job, err := env.jobs.Get(context.Background(), jobID)
		require.NoError(t, err)
		job.Status = domain.StatusProcessing
		require.NoError(t, env.jobs.CompareAndSwap(context.Background(), jobID, domain.StatusPending, job))

		rec := env.do(http.MethodPut, "/api/v1/documents/"+jobID+"/content", "application/pdf", []byte("x"))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestGetResult_Views(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{}, &stubSummarizer{})
	ctx := context.Background()
	now := time.Now().UTC()

	seed := func(id string, mutate func(*domain.Job)) {
		job := &domain.Job{
			JobID:        id,
			Status:       domain.StatusPending,
			SourceRef:    "doc/" + id,
			ContentType:  "application/pdf",
			DeclaredSize: 100,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if mutate != nil {
			mutate(job)
		}
		require.NoError(t, env.jobs.Create(ctx, job))
	}

	pendingID := uuid.New().String()
	seed(pendingID, nil)

	completeID := uuid.New().String()
	seed(completeID, func(j *domain.Job) {
		j.Status = domain.StatusComplete
		j.ExtractedText = []string{"Form 1040", "Refund: $2500"}
		j.ExtractedFields = map[string]string{"form_type": "1040"}
		j.Summary = []string{"one", "two"}
	})

	failedID := uuid.New().String()
	seed(failedID, func(j *domain.Job) {
		j.Status = domain.StatusFailed
		j.ErrorStage = domain.StageExtraction
		j.ErrorMessage = "no text found"
	})

	fetch := func(id string) dto.ResultView {
		rec := env.do(http.MethodGet, "/api/v1/documents/"+id+"/result", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var view dto.ResultView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		return view
	}

	t.Run("pending reads as processing", func(t *testing.T) {
		view := fetch(pendingID)
		assert.Equal(t, "processing", view.Status)
		assert.Empty(t, view.Summary)
		assert.Empty(t, view.ExtractedText)
		assert.Nil(t, view.Error)
	})

	t.Run("complete exposes the outcome", func(t *testing.T) {
		view := fetch(completeID)
		assert.Equal(t, "complete", view.Status)
		assert.Equal(t, []string{"one", "two"}, view.Summary)
		assert.Equal(t, "Form 1040\nRefund: $2500", view.ExtractedText)
		assert.Equal(t, "1040", view.ExtractedFields["form_type"])
		assert.Nil(t, view.Error)
	})

	t.Run("failed exposes the stage", func(t *testing.T) {
		view := fetch(failedID)
		assert.Equal(t, "failed", view.Status)
		require.NotNil(t, view.Error)
		assert.Equal(t, "extraction", view.Error.Stage)
		assert.Equal(t, "no text found", view.Error.Message)
		assert.Empty(t, view.Summary)
	})

	t.Run("reads are idempotent", func(t *testing.T) {
		first := fetch(completeID)
		second := fetch(completeID)
		assert.Equal(t, first, second)
	})

	t.Run("unknown job", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/documents/"+uuid.New().String()+"/result", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid job id", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/documents/nope/result", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUploadContent_PublishFailure(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{}, &stubSummarizer{})
	env.publisher.err = fmt.Errorf("broker unavailable")
	jobID := env.createJob(t, 1)

	rec := env.do(http.MethodPut, "/api/v1/documents/"+jobID+"/content", "application/pdf", []byte("x"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "enqueue"))
}
