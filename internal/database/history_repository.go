package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// ErrOperationNotFound is returned when finishing an unknown operation.
var ErrOperationNotFound = errors.New("operation not found")

// HistoryRepository persists administrative operations.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a repository on db.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Start inserts a running operation and fills in its id and start time.
func (r *HistoryRepository) Start(ctx context.Context, op *domain.Operation) error {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.StartedAt.IsZero() {
		op.StartedAt = time.Now().UTC()
	}
	if op.Status == "" {
		op.Status = domain.OperationRunning
	}

	query := `
		INSERT INTO operation_history (id, action, target, actor, status, started_at)
		VALUES (:id, :action, :target, :actor, :status, :started_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, op); err != nil {
		return fmt.Errorf("failed to record operation: %w", err)
	}
	return nil
}

// Finish stores the outcome of a started operation.
func (r *HistoryRepository) Finish(ctx context.Context, id, status string, opErr error) error {
	var errMsg *string
	if opErr != nil {
		msg := opErr.Error()
		errMsg = &msg
	}

	query := `
		UPDATE operation_history
		SET status = $1, error = $2, finished_at = $3
		WHERE id = $4
	`
	res, err := r.db.ExecContext(ctx, query, status, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to finish operation: %w", err)
	}
	if n, rowsErr := res.RowsAffected(); rowsErr == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrOperationNotFound, id)
	}
	return nil
}

// ListRecent returns the newest operations first. limit is clamped to a
// sane range.
func (r *HistoryRepository) ListRecent(ctx context.Context, limit int) ([]domain.Operation, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	query := `
		SELECT id, action, target, actor, status, error, started_at, finished_at
		FROM operation_history
		ORDER BY started_at DESC
		LIMIT $1
	`
	ops := []domain.Operation{}
	if err := r.db.SelectContext(ctx, &ops, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	return ops, nil
}
