package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/docsummary/internal/domain"
)

// Postgres stores document blobs in a bytea column, keyed by ref.
type Postgres struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgres creates a Postgres blob store.
func NewPostgres(db *sqlx.DB, logger *slog.Logger) *Postgres {
	return &Postgres{
		db:     db,
		logger: logger,
	}
}

func (s *Postgres) Put(ctx context.Context, ref, contentType string, data []byte) error {
	query := `
		INSERT INTO documents (ref, content_type, data, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (ref) DO UPDATE
		SET content_type = EXCLUDED.content_type,
		    data = EXCLUDED.data
	`

	if _, err := s.db.ExecContext(ctx, query, ref, contentType, data); err != nil {
		return fmt.Errorf("%w: failed to store document: %s", domain.ErrStorageFault, err.Error())
	}

	s.logger.Debug("Document bytes stored",
		slog.String("ref", ref),
		slog.Int("size", len(data)),
	)

	return nil
}

func (s *Postgres) Fetch(ctx context.Context, ref string) ([]byte, error) {
	query := `SELECT data FROM documents WHERE ref = $1`

	var data []byte
	if err := s.db.GetContext(ctx, &data, query, ref); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no document at ref %s", domain.ErrStorageFault, ref)
		}
		return nil, fmt.Errorf("%w: failed to fetch document: %s", domain.ErrStorageFault, err.Error())
	}

	return data, nil
}
