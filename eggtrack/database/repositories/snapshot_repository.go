package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"

	"github.com/wonkyeggs/eggtrack/eggtrack/database/models"
	"github.com/wonkyeggs/eggtrack/eggtrack/upstream"
)

const (
	snapshotBatchSize    = 100
	maxConcurrentBatches = 3
)

// SaveResult aggregates one save attempt. Batch failures never abort the run;
// the caller reads the counts and decides on notifications.
type SaveResult struct {
	SnapshotDate     string   `json:"snapshot_date"`
	SnapshotsWritten int      `json:"snapshots_written"`
	SnapshotErrors   int      `json:"snapshot_errors"`
	EggdayWritten    int      `json:"eggday_written"`
	EggdayErrors     int      `json:"eggday_errors"`
	Errors           []string `json:"errors"`
	RefreshResult    string   `json:"refresh_result"`
}

// ViewRefresher is the DB-side materialized view refresh hook.
type ViewRefresher interface {
	RefreshMaterializedViews(ctx context.Context) (string, error)
}

// SnapshotRepository writes dated history rows and their derived records.
type SnapshotRepository interface {
	Save(ctx context.Context, records []upstream.PlayerRecord, snapshotDate string, now time.Time) (*SaveResult, error)
	DeleteByDate(ctx context.Context, snapshotDate string) (int64, error)
	CountForDate(ctx context.Context, snapshotDate string) (int, error)
}

type snapshotRepository struct {
	*BaseRepository
	db        *bun.DB
	refresher ViewRefresher
}

func NewSnapshotRepository(db *bun.DB, refresher ViewRefresher) SnapshotRepository {
	return &snapshotRepository{
		BaseRepository: NewBaseRepository(db),
		db:             db,
		refresher:      refresher,
	}
}

// Save upserts history rows on (snapshot_date, discord_id) and egg day rows on
// (discord_id, year) in bounded-concurrency batches, then writes the metadata
// row and triggers the view refresh. Re-running the same save is idempotent.
func (r *snapshotRepository) Save(ctx context.Context, records []upstream.PlayerRecord, snapshotDate string, now time.Time) (*SaveResult, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	result := &SaveResult{SnapshotDate: snapshotDate}

	snapshots := make([]*models.PlayerSnapshot, 0, len(records))
	var gains []*models.EggdayGain
	for i := range records {
		rec := &records[i]
		snapshots = append(snapshots, toSnapshotRow(rec, snapshotDate, now))
		for _, yg := range rec.EggDay {
			gains = append(gains, toEggdayRow(rec.ID, yg, now))
		}
	}

	var mu sync.Mutex
	addErr := func(msg string) {
		mu.Lock()
		result.Errors = append(result.Errors, msg)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBatches)

	for i := 0; i < len(snapshots); i += snapshotBatchSize {
		end := i + snapshotBatchSize
		if end > len(snapshots) {
			end = len(snapshots)
		}
		batch := snapshots[i:end]
		batchNum := i/snapshotBatchSize + 1

		g.Go(func() error {
			_, err := r.db.NewInsert().
				Model(&batch).
				On("CONFLICT (snapshot_date, discord_id) DO UPDATE").
				Set("ign = EXCLUDED.ign").
				Set("display_name = EXCLUDED.display_name").
				Set("discord_name = EXCLUDED.discord_name").
				Set("farmer_role = EXCLUDED.farmer_role").
				Set("grade = EXCLUDED.grade").
				Set("active = EXCLUDED.active").
				Set("is_guest = EXCLUDED.is_guest").
				Set("eb = EXCLUDED.eb").
				Set("se = EXCLUDED.se").
				Set("pe = EXCLUDED.pe").
				Set("te = EXCLUDED.te").
				Set("num_prestiges = EXCLUDED.num_prestiges").
				Set("updated_at = EXCLUDED.updated_at").
				Set("gains_saturday = EXCLUDED.gains_saturday").
				Set("max_mystical_eggs = EXCLUDED.max_mystical_eggs").
				Set("imported_at = EXCLUDED.imported_at").
				Exec(gctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.SnapshotErrors += len(batch)
				result.Errors = append(result.Errors, fmt.Sprintf("snapshot batch %d: %v", batchNum, err))
				return nil // batch failures never abort the save
			}
			result.SnapshotsWritten += len(batch)
			return nil
		})
	}

	for i := 0; i < len(gains); i += snapshotBatchSize {
		end := i + snapshotBatchSize
		if end > len(gains) {
			end = len(gains)
		}
		batch := gains[i:end]
		batchNum := i/snapshotBatchSize + 1

		g.Go(func() error {
			_, err := r.db.NewInsert().
				Model(&batch).
				On("CONFLICT (discord_id, year) DO UPDATE").
				Set("start_se = EXCLUDED.start_se").
				Set("start_pe = EXCLUDED.start_pe").
				Set("start_eb = EXCLUDED.start_eb").
				Set("start_role = EXCLUDED.start_role").
				Set("start_prestiges = EXCLUDED.start_prestiges").
				Set("end_se = EXCLUDED.end_se").
				Set("end_pe = EXCLUDED.end_pe").
				Set("end_eb = EXCLUDED.end_eb").
				Set("end_role = EXCLUDED.end_role").
				Set("end_prestiges = EXCLUDED.end_prestiges").
				Set("updated_at = EXCLUDED.updated_at").
				Exec(gctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.EggdayErrors += len(batch)
				result.Errors = append(result.Errors, fmt.Sprintf("eggday batch %d: %v", batchNum, err))
				return nil
			}
			result.EggdayWritten += len(batch)
			return nil
		})
	}

	_ = g.Wait()

	meta := &models.SnapshotMetadata{
		SnapshotDate: snapshotDate,
		RecordCount:  len(records),
		ImportedAt:   now,
	}
	if _, err := r.db.NewInsert().
		Model(meta).
		On("CONFLICT (snapshot_date) DO UPDATE").
		Set("record_count = EXCLUDED.record_count").
		Set("imported_at = EXCLUDED.imported_at").
		Exec(ctx); err != nil {
		addErr(fmt.Sprintf("snapshot metadata: %v", err))
	}

	if r.refresher != nil {
		status, err := r.refresher.RefreshMaterializedViews(ctx)
		if err != nil {
			result.RefreshResult = err.Error()
			addErr(fmt.Sprintf("view refresh: %v", err))
		} else {
			result.RefreshResult = status
		}
	}

	return result, nil
}

func (r *snapshotRepository) DeleteByDate(ctx context.Context, snapshotDate string) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.db.NewDelete().
		Model((*models.PlayerSnapshot)(nil)).
		Where("snapshot_date = ?", snapshotDate).
		Exec(ctx)
	if err != nil {
		return 0, r.HandleErrorWithID("delete", "player_snapshots", snapshotDate, err)
	}

	deleted, _ := res.RowsAffected()

	if _, err := r.db.NewDelete().
		Model((*models.SnapshotMetadata)(nil)).
		Where("snapshot_date = ?", snapshotDate).
		Exec(ctx); err != nil {
		return deleted, r.HandleErrorWithID("delete", "snapshot_metadata", snapshotDate, err)
	}

	return deleted, nil
}

func (r *snapshotRepository) CountForDate(ctx context.Context, snapshotDate string) (int, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.PlayerSnapshot)(nil)).
		Where("snapshot_date = ?", snapshotDate).
		Count(ctx)
	if err != nil {
		return 0, r.HandleErrorWithID("count", "player_snapshots", snapshotDate, err)
	}
	return count, nil
}

// toSnapshotRow freezes a poll record for the given date. The grade is stored
// as the upstream sent it; the cache layer owns the uppercase normalization.
func toSnapshotRow(rec *upstream.PlayerRecord, snapshotDate string, now time.Time) *models.PlayerSnapshot {
	return &models.PlayerSnapshot{
		SnapshotDate:    snapshotDate,
		DiscordID:       rec.ID,
		IGN:             rec.IGN,
		DisplayName:     rec.DisplayName,
		DiscordName:     rec.DiscordName,
		FarmerRole:      rec.FarmerRole,
		Grade:           rec.Grade,
		Active:          rec.Active,
		IsGuest:         rec.IsGuest,
		EB:              rec.EB,
		SE:              rec.SE,
		PE:              rec.PE,
		TE:              rec.TE,
		NumPrestiges:    rec.NumPrestiges,
		UpdatedAt:       rec.UpdatedAt,
		GainsSaturday:   rec.GainsSaturday,
		MaxMysticalEggs: rec.MaxMysticalEggs,
		ImportedAt:      now,
	}
}

func toEggdayRow(discordID string, yg upstream.YearlyGain, now time.Time) *models.EggdayGain {
	return &models.EggdayGain{
		DiscordID:      discordID,
		Year:           yg.Year,
		StartSE:        yg.Start.SE,
		StartPE:        yg.Start.PE,
		StartEB:        yg.Start.EB,
		StartRole:      yg.Start.Role,
		StartPrestiges: yg.Start.Prestiges,
		EndSE:          yg.End.SE,
		EndPE:          yg.End.PE,
		EndEB:          yg.End.EB,
		EndRole:        yg.End.Role,
		EndPrestiges:   yg.End.Prestiges,
		UpdatedAt:      now,
	}
}
