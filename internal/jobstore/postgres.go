package jobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/cuongbtq/docsummary/internal/domain"
)

// pq error code for unique_violation
const pgUniqueViolation = "23505"

// Postgres is the sqlx-backed Store used by both services.
type Postgres struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgres creates a Postgres job store.
func NewPostgres(db *sqlx.DB, logger *slog.Logger) *Postgres {
	return &Postgres{
		db:     db,
		logger: logger,
	}
}

func (s *Postgres) Create(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (
			job_id, status, source_ref, content_type, declared_size,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.JobID,
		job.Status,
		job.SourceRef,
		job.ContentType,
		job.DeclaredSize,
		job.CreatedAt,
		job.UpdatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return domain.ErrJobExists
		}
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (s *Postgres) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
		SELECT
			job_id, status, source_ref, content_type, declared_size,
			extracted_text, extracted_fields, summary,
			error_stage, error_message, created_at, updated_at
		FROM jobs
		WHERE job_id = $1
	`

	var row jobRow
	if err := s.db.GetContext(ctx, &row, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return row.toDomain()
}

func (s *Postgres) CompareAndSwap(ctx context.Context, jobID string, expected domain.Status, job *domain.Job) error {
	query := `
		UPDATE jobs
		SET status = $1,
			extracted_text = $2,
			extracted_fields = $3,
			summary = $4,
			error_stage = $5,
			error_message = $6,
			updated_at = $7
		WHERE job_id = $8
		  AND status = $9
	`

	var fieldsJSON []byte
	if job.ExtractedFields != nil {
		var err error
		fieldsJSON, err = json.Marshal(job.ExtractedFields)
		if err != nil {
			return fmt.Errorf("failed to marshal extracted fields: %w", err)
		}
	}

	job.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(
		ctx,
		query,
		job.Status,
		pq.StringArray(job.ExtractedText),
		fieldsJSON,
		pq.StringArray(job.Summary),
		nullableString(string(job.ErrorStage)),
		nullableString(job.ErrorMessage),
		job.UpdatedAt,
		jobID,
		expected,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		s.logger.Warn("Conditional job update lost - status already advanced",
			slog.String("job_id", jobID),
			slog.String("expected_status", string(expected)),
			slog.String("target_status", string(job.Status)),
		)
		return domain.ErrStatusConflict
	}

	s.logger.Info("Job status updated",
		slog.String("job_id", jobID),
		slog.String("status", string(job.Status)),
	)

	return nil
}

// jobRow is the flat database shape of a job.
type jobRow struct {
	JobID           string         `db:"job_id"`
	Status          string         `db:"status"`
	SourceRef       string         `db:"source_ref"`
	ContentType     string         `db:"content_type"`
	DeclaredSize    int64          `db:"declared_size"`
	ExtractedText   pq.StringArray `db:"extracted_text"`
	ExtractedFields []byte         `db:"extracted_fields"`
	Summary         pq.StringArray `db:"summary"`
	ErrorStage      sql.NullString `db:"error_stage"`
	ErrorMessage    sql.NullString `db:"error_message"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r *jobRow) toDomain() (*domain.Job, error) {
	job := &domain.Job{
		JobID:         r.JobID,
		Status:        domain.Status(r.Status),
		SourceRef:     r.SourceRef,
		ContentType:   r.ContentType,
		DeclaredSize:  r.DeclaredSize,
		ExtractedText: []string(r.ExtractedText),
		Summary:       []string(r.Summary),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}

	if len(r.ExtractedFields) > 0 {
		if err := json.Unmarshal(r.ExtractedFields, &job.ExtractedFields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal extracted fields: %w", err)
		}
	}
	if r.ErrorStage.Valid {
		job.ErrorStage = domain.Stage(r.ErrorStage.String)
	}
	if r.ErrorMessage.Valid {
		job.ErrorMessage = r.ErrorMessage.String
	}

	return job, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
