package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/wonkyeggs/eggtrack/eggtrack/database/models"
)

const stateRowID = 1

// StateUpdate is a targeted partial write of the controller-state singleton.
// Nil fields are left untouched; ClearPending wipes every pending_* column at
// once.
type StateUpdate struct {
	LastSavedAt         *time.Time
	LastDecisionAt      *time.Time
	LastDecisionResult  json.RawMessage
	LastEmailSentAt     *time.Time
	LastEmailType       *string
	Pending             json.RawMessage
	PendingFirstAttempt *time.Time
	PendingAttemptCount *int
	PendingMeta         json.RawMessage
	ClearPending        bool
}

// StateRepository persists the single-row controller state machine. No
// concurrent writers are expected; last-write-wins is acceptable.
type StateRepository interface {
	Load(ctx context.Context) (*models.ControllerState, error)
	Initialize(ctx context.Context, now time.Time) (*models.ControllerState, error)
	Update(ctx context.Context, upd StateUpdate) error
}

type stateRepository struct {
	*BaseRepository
	db *bun.DB
}

func NewStateRepository(db *bun.DB) StateRepository {
	return &stateRepository{
		BaseRepository: NewBaseRepository(db),
		db:             db,
	}
}

// Load returns the singleton row, or nil on first use.
func (r *stateRepository) Load(ctx context.Context) (*models.ControllerState, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	state := new(models.ControllerState)
	err := r.db.NewSelect().
		Model(state).
		Where("id = ?", stateRowID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.HandleErrorWithID("load", "snapshot_save_metadata", stateRowID, err)
	}
	return state, nil
}

// Initialize inserts the singleton row with empty state.
func (r *stateRepository) Initialize(ctx context.Context, now time.Time) (*models.ControllerState, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	state := &models.ControllerState{
		ID:             stateRowID,
		LastDecisionAt: now,
		UpdatedAt:      now,
	}
	_, err := r.db.NewInsert().
		Model(state).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("initialize", "snapshot_save_metadata", stateRowID, err)
	}
	return state, nil
}

// Update merges the given fields into the singleton row and bumps updated_at.
func (r *stateRepository) Update(ctx context.Context, upd StateUpdate) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	q := r.db.NewUpdate().
		Model((*models.ControllerState)(nil)).
		Where("id = ?", stateRowID).
		Set("updated_at = ?", time.Now().UTC())

	if upd.LastSavedAt != nil {
		q = q.Set("last_saved_at = ?", *upd.LastSavedAt)
	}
	if upd.LastDecisionAt != nil {
		q = q.Set("last_decision_at = ?", *upd.LastDecisionAt)
	}
	if upd.LastDecisionResult != nil {
		q = q.Set("last_decision_result = ?", string(upd.LastDecisionResult))
	}
	if upd.LastEmailSentAt != nil {
		q = q.Set("last_email_sent_at = ?", *upd.LastEmailSentAt)
	}
	if upd.LastEmailType != nil {
		q = q.Set("last_email_type = ?", *upd.LastEmailType)
	}
	if upd.ClearPending {
		q = q.Set("pending_players = NULL").
			Set("pending_first_attempt = NULL").
			Set("pending_attempt_count = 0").
			Set("pending_meta = NULL")
	} else {
		if upd.Pending != nil {
			q = q.Set("pending_players = ?", string(upd.Pending))
		}
		if upd.PendingFirstAttempt != nil {
			q = q.Set("pending_first_attempt = ?", *upd.PendingFirstAttempt)
		}
		if upd.PendingAttemptCount != nil {
			q = q.Set("pending_attempt_count = ?", *upd.PendingAttemptCount)
		}
		if upd.PendingMeta != nil {
			q = q.Set("pending_meta = ?", string(upd.PendingMeta))
		}
	}

	_, err := q.Exec(ctx)
	return r.HandleErrorWithID("update", "snapshot_save_metadata", stateRowID, err)
}
