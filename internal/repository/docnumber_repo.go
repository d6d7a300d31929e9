package repository

import (
	"context"
	"fmt"
	"time"

	"tradeflow/internal/workflow"

	"gorm.io/gorm"
)

// DocumentNumberRepository issues sequential document numbers. The sequence
// lives in document_counters and is advanced with a single atomic upsert, so
// concurrent submitters always get distinct numbers. Callers run it inside
// their own transaction via the context so an aborted create releases the
// number's row lock (gaps are acceptable, duplicates are not).
type DocumentNumberRepository interface {
	Next(ctx context.Context, prefix string, now time.Time) (string, error)
}

type documentNumberRepository struct {
	db *gorm.DB
}

func NewDocumentNumberRepository(db *gorm.DB) DocumentNumberRepository {
	return &documentNumberRepository{db: db}
}

func (r *documentNumberRepository) Next(ctx context.Context, prefix string, now time.Time) (string, error) {
	dateKey := workflow.DateKey(now)

	var seq int
	err := GetDB(ctx, r.db).Raw(`
		INSERT INTO document_counters (prefix, issue_date, last_seq, updated_at)
		VALUES (?, ?, 1, NOW())
		ON CONFLICT (prefix, issue_date)
		DO UPDATE SET last_seq = document_counters.last_seq + 1, updated_at = NOW()
		RETURNING last_seq
	`, prefix, dateKey).Scan(&seq).Error
	if err != nil {
		return "", fmt.Errorf("failed to advance document counter for %s: %w", prefix, err)
	}

	return workflow.FormatDocNo(prefix, now, seq), nil
}
