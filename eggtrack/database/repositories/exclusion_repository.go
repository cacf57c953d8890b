package repositories

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/wonkyeggs/eggtrack/eggtrack/database/models"
)

// ExclusionRepository reads the operator-maintained exclusion registry. The
// controller only needs the ID set; the annotated rows exist for tooling.
type ExclusionRepository interface {
	List(ctx context.Context) (map[string]struct{}, error)
	GetAll(ctx context.Context) ([]*models.ExcludedPlayer, error)
}

type exclusionRepository struct {
	*BaseRepository
	db *bun.DB
}

func NewExclusionRepository(db *bun.DB) ExclusionRepository {
	return &exclusionRepository{
		BaseRepository: NewBaseRepository(db),
		db:             db,
	}
}

func (r *exclusionRepository) List(ctx context.Context) (map[string]struct{}, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var ids []string
	err := r.db.NewSelect().
		Model((*models.ExcludedPlayer)(nil)).
		Column("discord_id").
		Scan(ctx, &ids)
	if err != nil {
		return nil, r.HandleError("list", "excluded_players", err)
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (r *exclusionRepository) GetAll(ctx context.Context) ([]*models.ExcludedPlayer, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rows []*models.ExcludedPlayer
	err := r.db.NewSelect().
		Model(&rows).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_all", "excluded_players", err)
	}
	return rows, nil
}
