package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cuongbtq/docsummary/internal/api/dto"
	"github.com/cuongbtq/docsummary/internal/domain"
)

// ProcessDocument handles POST /api/v1/documents/process
// Runs OCR and summarization inline and returns the result in the same
// response. Accepts raw document bytes, or JSON {"file_data": base64}.
func (h *DocumentHandler) ProcessDocument(c *gin.Context) {
	data, ok := h.readDocumentBytes(c)
	if !ok {
		return
	}

	result, err := h.pipeline.ProcessSync(c.Request.Context(), data)
	if err != nil {
		h.logger.Error("Synchronous processing failed",
			slog.String("error", err.Error()),
		)

		switch {
		case errors.Is(err, domain.ErrNoTextFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "OCR found no text"})
		case errors.Is(err, domain.ErrExtractionFault), errors.Is(err, domain.ErrSummarizationFault):
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process document"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ProcessResponse{
		ExtractedText:   result.FullText(),
		Summary:         result.Summary,
		ExtractedFields: result.Fields,
	})
}

// CreateDocument handles POST /api/v1/documents
// Validates the declared submission and creates a pending job, returning
// the upload and result handles.
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	var req dto.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, handles, err := h.intake.Begin(c.Request.Context(), req.DeclaredSize, req.ContentType)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to create job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job"})
		return
	}

	c.JSON(http.StatusCreated, dto.CreateDocumentResponse{
		JobID:     job.JobID,
		UploadURL: handles.UploadPath,
		ResultURL: handles.ResultPath,
	})
}

// UploadContent handles PUT /api/v1/documents/:job_id/content
// Deposits the document bytes at the job's source ref and fires the
// processing trigger.
func (h *DocumentHandler) UploadContent(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id must be a valid UUID"})
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get job"})
		return
	}

	if job.Status != domain.StatusPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Job already has content"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, h.intake.MaxUploadBytes()+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}
	if int64(len(data)) > h.intake.MaxUploadBytes() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Document exceeds size limit"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file data provided"})
		return
	}
	if int64(len(data)) != job.DeclaredSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Uploaded size does not match declared size"})
		return
	}

	if err := h.blobs.Put(c.Request.Context(), job.SourceRef, job.ContentType, data); err != nil {
		h.logger.Error("Failed to store document bytes",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store document"})
		return
	}

	trigger, _ := json.Marshal(map[string]string{"job_id": jobID})
	if err := h.publisher.PublishWithRetry(c.Request.Context(), trigger, "application/json"); err != nil {
		h.logger.Error("Failed to publish processing trigger",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue processing"})
		return
	}

	h.logger.Info("Document uploaded and trigger published",
		slog.String("job_id", jobID),
		slog.Int("size", len(data)),
	)

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": jobID,
		"status": string(domain.StatusPending),
	})
}

// GetResult handles GET /api/v1/documents/:job_id/result
// Pure read: returns the reduced job view and never triggers processing.
func (h *DocumentHandler) GetResult(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id must be a valid UUID"})
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get job"})
		return
	}

	c.JSON(http.StatusOK, dto.NewResultView(job))
}

// readDocumentBytes pulls document bytes out of a synchronous request:
// either a JSON envelope with base64 file_data, or the raw body. Replies
// with 400 and returns ok=false on any input problem.
func (h *DocumentHandler) readDocumentBytes(c *gin.Context) ([]byte, bool) {
	limit := h.intake.MaxUploadBytes()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, limit+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return nil, false
	}
	if int64(len(body)) > limit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Document exceeds size limit"})
		return nil, false
	}

	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req dto.ProcessRequest
		if err := json.Unmarshal(body, &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return nil, false
		}
		if req.FileData == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file data provided"})
			return nil, false
		}
		data, err := base64.StdEncoding.DecodeString(req.FileData)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file_data is not valid base64"})
			return nil, false
		}
		if len(data) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file data provided"})
			return nil, false
		}
		return data, true
	}

	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file data provided"})
		return nil, false
	}

	return body, true
}
