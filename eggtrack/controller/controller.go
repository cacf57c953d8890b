package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/wonkyeggs/eggtrack/eggtrack/database/models"
	"github.com/wonkyeggs/eggtrack/eggtrack/database/repositories"
	"github.com/wonkyeggs/eggtrack/eggtrack/snapshot"
	"github.com/wonkyeggs/eggtrack/eggtrack/upstream"
)

// Fetcher is the upstream poll dependency.
type Fetcher interface {
	Fetch(ctx context.Context) ([]upstream.PlayerRecord, error)
}

// Notifier is the operator email dependency.
type Notifier interface {
	SendSnapshotSaved(ctx context.Context, decision snapshot.Decision, result *repositories.SaveResult, now time.Time) error
	SendPartialSync(ctx context.Context, decision snapshot.Decision, result *repositories.SaveResult, now time.Time) error
	SendWeekNoUpdate(ctx context.Context, state *models.ControllerState, now time.Time) error
}

// Archiver uploads a JSON export of a saved snapshot. Optional.
type Archiver interface {
	ArchiveSnapshot(ctx context.Context, snapshotDate string, records []upstream.PlayerRecord) error
}

// TickResult is the JSON envelope returned by the cron endpoint.
type TickResult struct {
	Success                 bool                     `json:"success"`
	Timestamp               time.Time                `json:"timestamp"`
	LeaderboardCacheUpdated bool                     `json:"leaderboardCacheUpdated"`
	PlayerCount             int                      `json:"playerCount"`
	ExcludedCount           int                      `json:"excludedCount"`
	Decision                *DecisionSummary         `json:"decision,omitempty"`
	SnapshotSaved           bool                     `json:"snapshotSaved"`
	SnapshotResult          *repositories.SaveResult `json:"snapshotResult,omitempty"`
	Error                   string                   `json:"error,omitempty"`
}

// DecisionSummary is the client-facing subset of a Decision.
type DecisionSummary struct {
	ShouldSave     bool    `json:"shouldSave"`
	SyncPercentage float64 `json:"syncPercentage"`
	Reason         string  `json:"reason"`
	IsPendingSync  bool    `json:"isPendingSync"`
}

// Controller wires one tick: poll, cache, decide, save-or-park, notify. Ticks
// are serialized by the scheduler; the controller does not self-lock.
type Controller struct {
	fetcher    Fetcher
	exclusions repositories.ExclusionRepository
	cache      repositories.CacheRepository
	states     repositories.StateRepository
	snapshots  repositories.SnapshotRepository
	engine     *snapshot.Engine
	notifier   Notifier
	archiver   Archiver
	now        func() time.Time
}

func New(
	fetcher Fetcher,
	exclusions repositories.ExclusionRepository,
	cache repositories.CacheRepository,
	states repositories.StateRepository,
	snapshots repositories.SnapshotRepository,
	engine *snapshot.Engine,
	notifier Notifier,
	archiver Archiver,
	now func() time.Time,
) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{
		fetcher:    fetcher,
		exclusions: exclusions,
		cache:      cache,
		states:     states,
		snapshots:  snapshots,
		engine:     engine,
		notifier:   notifier,
		archiver:   archiver,
		now:        now,
	}
}

// Tick runs one controller cycle. A failed fetch or exclusion read aborts
// before any state is touched; after the cache write only a failed state load
// or initialization aborts, and every later failure is logged and degrades.
func (c *Controller) Tick(ctx context.Context) (*TickResult, error) {
	start := c.now()
	result := &TickResult{Timestamp: start}

	records, err := c.fetcher.Fetch(ctx)
	if err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("upstream unavailable: %w", err)
	}
	result.PlayerCount = len(records)

	excluded, err := c.exclusions.List(ctx)
	if err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("failed to read exclusion registry: %w", err)
	}

	if _, err := c.cache.Replace(ctx, records, start); err != nil {
		// Partial cache writes self-heal next tick; report and continue.
		slog.Warn("Cache replacement incomplete",
			slog.String("type", "tick"),
			slog.Any("error", err))
	} else {
		result.LeaderboardCacheUpdated = true
	}

	state, err := c.states.Load(ctx)
	if err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("failed to load controller state: %w", err)
	}
	if state == nil {
		if state, err = c.states.Initialize(ctx, start); err != nil {
			result.Error = err.Error()
			return result, fmt.Errorf("failed to initialize controller state: %w", err)
		}
	}

	decision := c.engine.Decide(records, excluded, state, start)
	result.ExcludedCount = decision.ExcludedCount
	result.Decision = &DecisionSummary{
		ShouldSave:     decision.ShouldSave,
		SyncPercentage: decision.SyncPercentage,
		Reason:         decision.Reason,
		IsPendingSync:  decision.IsPendingSync,
	}

	decisionJSON, _ := json.Marshal(decision)
	if err := c.states.Update(ctx, repositories.StateUpdate{
		LastDecisionAt:     &start,
		LastDecisionResult: decisionJSON,
	}); err != nil {
		slog.Error("Failed to record decision",
			slog.String("type", "tick"),
			slog.Any("error", err))
	}

	switch {
	case decision.ShouldSave:
		c.save(ctx, records, decision, result, start)
	case decision.IsPendingSync:
		c.park(ctx, records, decision, state, start)
	}

	if c.engine.ShouldSendWeekNoUpdateAlert(state, start) {
		if err := c.notifier.SendWeekNoUpdate(ctx, state, start); err != nil {
			slog.Error("Week-no-update alert failed",
				slog.String("type", "tick"),
				slog.Any("error", err))
		}
		emailType := snapshot.KindWeekNoUpdate
		if err := c.states.Update(ctx, repositories.StateUpdate{
			LastEmailSentAt: &start,
			LastEmailType:   &emailType,
		}); err != nil {
			slog.Error("Failed to record alert timestamp",
				slog.String("type", "tick"),
				slog.Any("error", err))
		}
	}

	result.Success = true
	return result, nil
}

func (c *Controller) save(ctx context.Context, records []upstream.PlayerRecord, decision snapshot.Decision, result *TickResult, now time.Time) {
	snapshotDate := now.UTC().Format("2006-01-02")

	saveResult, err := c.snapshots.Save(ctx, records, snapshotDate, now)
	if err != nil {
		// The writer only errors on total failure; partial failures come back
		// as counts. Leave lastSavedAt untouched so the next tick retries.
		slog.Error("Snapshot save failed",
			slog.String("type", "tick"),
			slog.String("snapshot_date", snapshotDate),
			slog.Any("error", err))
		result.Error = err.Error()
		return
	}

	result.SnapshotSaved = true
	result.SnapshotResult = saveResult

	if err := c.states.Update(ctx, repositories.StateUpdate{
		LastSavedAt:  &now,
		ClearPending: true,
	}); err != nil {
		slog.Error("Failed to advance lastSavedAt",
			slog.String("type", "tick"),
			slog.Any("error", err))
	}

	if decision.SyncPercentage < 100 {
		if err := c.notifier.SendPartialSync(ctx, decision, saveResult, now); err != nil {
			slog.Error("Partial-sync email failed", slog.String("type", "tick"), slog.Any("error", err))
		}
	} else {
		if err := c.notifier.SendSnapshotSaved(ctx, decision, saveResult, now); err != nil {
			slog.Error("Snapshot-saved email failed", slog.String("type", "tick"), slog.Any("error", err))
		}
	}

	if c.archiver != nil {
		if err := c.archiver.ArchiveSnapshot(ctx, snapshotDate, records); err != nil {
			slog.Warn("Snapshot archive upload failed",
				slog.String("type", "tick"),
				slog.String("snapshot_date", snapshotDate),
				slog.Any("error", err))
		}
	}
}

func (c *Controller) park(ctx context.Context, records []upstream.PlayerRecord, decision snapshot.Decision, state *models.ControllerState, now time.Time) {
	parcel := snapshot.PendingParcel{
		Records:        records,
		CapturedAt:     now,
		SyncPercentage: decision.SyncPercentage,
		AttemptCount:   decision.PendingAttemptCount,
		Missing:        decision.Missing,
	}
	parcelJSON, err := json.Marshal(parcel)
	if err != nil {
		slog.Error("Failed to marshal pending parcel",
			slog.String("type", "tick"),
			slog.Any("error", err))
		return
	}

	// A stale or absent prior parcel means this observation starts a fresh
	// retry window.
	firstAttempt := now
	if state.HasPending() && state.PendingFirstAttempt != nil &&
		now.Sub(*state.PendingFirstAttempt).Hours() <= c.engine.Options().PendingSyncStaleHours {
		firstAttempt = *state.PendingFirstAttempt
	}

	attempts := decision.PendingAttemptCount
	metaJSON, _ := json.Marshal(map[string]interface{}{
		"sync_percentage": decision.SyncPercentage,
		"missing_count":   len(decision.Missing),
	})

	if err := c.states.Update(ctx, repositories.StateUpdate{
		Pending:             parcelJSON,
		PendingFirstAttempt: &firstAttempt,
		PendingAttemptCount: &attempts,
		PendingMeta:         metaJSON,
	}); err != nil {
		slog.Error("Failed to park pending parcel",
			slog.String("type", "tick"),
			slog.Any("error", err))
	}

	slog.Info("Observation parked for re-evaluation",
		slog.String("type", "tick"),
		slog.Float64("sync_percentage", decision.SyncPercentage),
		slog.Int("attempt", attempts))
}
