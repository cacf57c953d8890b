package repositories

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/wonkyeggs/eggtrack/eggtrack/database/models"
)

// EmailLogRepository appends audit rows for every notification attempt and for
// administrative actions. The decision path never reads it back.
type EmailLogRepository interface {
	Insert(ctx context.Context, entry *models.EmailLog) error
	Recent(ctx context.Context, limit int) ([]*models.EmailLog, error)
}

type emailLogRepository struct {
	*BaseRepository
	db *bun.DB
}

func NewEmailLogRepository(db *bun.DB) EmailLogRepository {
	return &emailLogRepository{
		BaseRepository: NewBaseRepository(db),
		db:             db,
	}
}

func (r *emailLogRepository) Insert(ctx context.Context, entry *models.EmailLog) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().
		Model(entry).
		Returning("id").
		Exec(ctx)
	return r.HandleError("insert", "email_log", err)
}

func (r *emailLogRepository) Recent(ctx context.Context, limit int) ([]*models.EmailLog, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	var rows []*models.EmailLog
	err := r.db.NewSelect().
		Model(&rows).
		Order("sent_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("recent", "email_log", err)
	}
	return rows, nil
}
