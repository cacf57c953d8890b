package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/wonkyeggs/eggtrack/eggtrack/database/models"
	"github.com/wonkyeggs/eggtrack/eggtrack/upstream"
)

const cacheBatchSize = 100

// CacheRepository owns the leaderboard current-state cache and its freshness
// marker. Replace is not transactional: a mid-way failure leaves a partial
// cache until the next poll self-heals it, so readers use the marker as a
// staleness hint only.
type CacheRepository interface {
	Replace(ctx context.Context, records []upstream.PlayerRecord, now time.Time) (int, error)
	GetAll(ctx context.Context) ([]*models.LeaderboardCacheEntry, error)
	GetByDiscordID(ctx context.Context, discordID string) (*models.LeaderboardCacheEntry, error)
	GetFreshness(ctx context.Context) (*time.Time, error)
}

type cacheRepository struct {
	*BaseRepository
	db *bun.DB
}

func NewCacheRepository(db *bun.DB) CacheRepository {
	return &cacheRepository{
		BaseRepository: NewBaseRepository(db),
		db:             db,
	}
}

// Replace swaps the whole cache for the new player set and advances the
// freshness marker. The marker advances even when some insert batch failed;
// the accepted staleness risk is reported through the returned error.
func (r *cacheRepository) Replace(ctx context.Context, records []upstream.PlayerRecord, now time.Time) (int, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	entries := make([]*models.LeaderboardCacheEntry, 0, len(records))
	for i := range records {
		entries = append(entries, toCacheEntry(&records[i]))
	}

	if _, err := r.db.NewDelete().
		Model((*models.LeaderboardCacheEntry)(nil)).
		Where("1=1").
		Exec(ctx); err != nil {
		return 0, r.HandleError("replace_delete", "leaderboard_cache", err)
	}

	inserted := 0
	var batchErrs []string
	for i := 0; i < len(entries); i += cacheBatchSize {
		end := i + cacheBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[i:end]

		res, err := r.db.NewInsert().
			Model(&batch).
			On("CONFLICT (discord_id) DO UPDATE").
			Set("ign = EXCLUDED.ign").
			Set("display_name = EXCLUDED.display_name").
			Set("discord_name = EXCLUDED.discord_name").
			Set("farmer_role = EXCLUDED.farmer_role").
			Set("grade = EXCLUDED.grade").
			Set("is_guest = EXCLUDED.is_guest").
			Set("active = EXCLUDED.active").
			Set("eb = EXCLUDED.eb").
			Set("se = EXCLUDED.se").
			Set("pe = EXCLUDED.pe").
			Set("te = EXCLUDED.te").
			Set("num_prestiges = EXCLUDED.num_prestiges").
			Exec(ctx)
		if err != nil {
			batchErrs = append(batchErrs, fmt.Sprintf("batch %d: %v", i/cacheBatchSize+1, err))
			continue
		}
		if affected, err := res.RowsAffected(); err == nil {
			inserted += int(affected)
		} else {
			inserted += len(batch)
		}
	}

	marker := &models.LeaderboardCacheMetadata{ID: 1, LastUpdated: now}
	if _, err := r.db.NewInsert().
		Model(marker).
		On("CONFLICT (id) DO UPDATE").
		Set("last_updated = EXCLUDED.last_updated").
		Exec(ctx); err != nil {
		batchErrs = append(batchErrs, fmt.Sprintf("freshness marker: %v", err))
	}

	if len(batchErrs) > 0 {
		return inserted, &RepositoryError{
			Operation: "replace",
			Entity:    "leaderboard_cache",
			Err:       errors.New(strings.Join(batchErrs, "; ")),
		}
	}
	return inserted, nil
}

func (r *cacheRepository) GetAll(ctx context.Context) ([]*models.LeaderboardCacheEntry, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var entries []*models.LeaderboardCacheEntry
	err := r.db.NewSelect().
		Model(&entries).
		Order("se DESC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_all", "leaderboard_cache", err)
	}
	return entries, nil
}

func (r *cacheRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.LeaderboardCacheEntry, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	entry := new(models.LeaderboardCacheEntry)
	err := r.db.NewSelect().
		Model(entry).
		Where("discord_id = ?", discordID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "leaderboard_cache", ID: discordID}
	}
	if err != nil {
		return nil, r.HandleErrorWithID("get", "leaderboard_cache", discordID, err)
	}
	return entry, nil
}

// GetFreshness returns the marker timestamp, or nil when the cache was never
// written.
func (r *cacheRepository) GetFreshness(ctx context.Context) (*time.Time, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	marker := new(models.LeaderboardCacheMetadata)
	err := r.db.NewSelect().
		Model(marker).
		Where("id = 1").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.HandleError("get_freshness", "leaderboard_cache_metadata", err)
	}
	return &marker.LastUpdated, nil
}

// toCacheEntry keeps the current-state subset of a poll record. Grade is
// normalized to uppercase here; history rows keep the upstream spelling.
func toCacheEntry(rec *upstream.PlayerRecord) *models.LeaderboardCacheEntry {
	return &models.LeaderboardCacheEntry{
		DiscordID:    rec.ID,
		IGN:          rec.IGN,
		DisplayName:  rec.DisplayName,
		DiscordName:  rec.DiscordName,
		FarmerRole:   rec.FarmerRole,
		Grade:        strings.ToUpper(rec.Grade),
		IsGuest:      rec.IsGuest,
		Active:       rec.Active,
		EB:           rec.EB,
		SE:           rec.SE,
		PE:           rec.PE,
		TE:           rec.TE,
		NumPrestiges: rec.NumPrestiges,
	}
}
