package snapshot

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/wonkyeggs/eggtrack/eggtrack/database/models"
	"github.com/wonkyeggs/eggtrack/eggtrack/upstream"
)

// Email kinds dispatched by the controller. KindSyncFailed is reserved and
// never emitted.
const (
	KindSnapshotSaved = "snapshot_saved"
	KindPartialSync   = "partial_sync"
	KindWeekNoUpdate  = "week_no_update"
	KindSyncFailed    = "sync_failed"
)

// Options are the decision engine tunables. Defaults match production.
type Options struct {
	SyncWindowHours          float64
	CooldownHours            float64
	PartialSyncThreshold     float64
	PartialSyncRetryAttempts int
	PendingSyncStaleHours    float64
	AlertThresholdDays       int
	AlertCooldownHours       float64
}

func DefaultOptions() Options {
	return Options{
		SyncWindowHours:          65.0 / 60.0,
		CooldownHours:            1.5,
		PartialSyncThreshold:     99.0,
		PartialSyncRetryAttempts: 2,
		PendingSyncStaleHours:    2,
		AlertThresholdDays:       7,
		AlertCooldownHours:       2,
	}
}

// MissingPlayer annotates one record outside the sync window.
type MissingPlayer struct {
	ID                  string     `json:"id"`
	IGN                 string     `json:"ign"`
	UpdatedAt           *time.Time `json:"updated_at"`
	TimeDifferenceHours float64    `json:"time_difference_hours"`
}

// PendingParcel is a parked observation awaiting one more tick.
type PendingParcel struct {
	Records        []upstream.PlayerRecord `json:"records"`
	CapturedAt     time.Time               `json:"captured_at"`
	SyncPercentage float64                 `json:"sync_percentage"`
	AttemptCount   int                     `json:"attempt_count"`
	Missing        []MissingPlayer         `json:"missing"`
}

// Decision is the pure output of one engine evaluation.
type Decision struct {
	ShouldSave             bool            `json:"should_save"`
	SyncPercentage         float64         `json:"sync_percentage"`
	PlayersInSyncWindow    int             `json:"players_in_sync_window"`
	TotalNonExcluded       int             `json:"total_non_excluded"`
	TotalReceived          int             `json:"total_received"`
	ExcludedCount          int             `json:"excluded_count"`
	LowestUpdatedAt        *time.Time      `json:"lowest_updated_at"`
	HoursSinceLowestUpdate float64         `json:"hours_since_lowest_update"`
	HoursSinceLastSave     float64         `json:"-"`
	Reason                 string          `json:"reason"`
	IsPendingSync          bool            `json:"is_pending_sync"`
	PendingAttemptCount    int             `json:"pending_attempt_count"`
	Missing                []MissingPlayer `json:"missing"`
}

// MarshalJSON renders the never-saved infinity as null so the decision can be
// stored in a JSONB column.
func (d Decision) MarshalJSON() ([]byte, error) {
	type alias Decision
	var since *float64
	if !math.IsInf(d.HoursSinceLastSave, 1) && !math.IsNaN(d.HoursSinceLastSave) {
		v := d.HoursSinceLastSave
		since = &v
	}
	return json.Marshal(struct {
		alias
		HoursSinceLastSave *float64 `json:"hours_since_last_save"`
	}{alias(d), since})
}

// Engine decides whether a poll is worth a historical snapshot. It is a pure
// function of its inputs; all I/O lives in the controller.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Options returns the engine tunables.
func (e *Engine) Options() Options {
	return e.opts
}

const syncWindow = time.Hour // strict inner cutoff, intentionally tighter than SyncWindowHours

// Decide evaluates one poll against the controller state at the given instant.
func (e *Engine) Decide(records []upstream.PlayerRecord, exclusions map[string]struct{}, state *models.ControllerState, now time.Time) Decision {
	d := Decision{
		TotalReceived:      len(records),
		HoursSinceLastSave: e.hoursSinceLastSave(state, now),
	}

	filtered := make([]upstream.PlayerRecord, 0, len(records))
	for _, r := range records {
		if r.IsGuest {
			continue
		}
		if _, excluded := exclusions[r.ID]; excluded {
			continue
		}
		filtered = append(filtered, r)
	}

	d.TotalNonExcluded = len(filtered)
	d.ExcludedCount = d.TotalReceived - d.TotalNonExcluded

	if d.TotalNonExcluded == 0 {
		d.Reason = "no valid players"
		return d
	}

	var lowest *time.Time
	for i := range filtered {
		ts := filtered[i].UpdatedAt
		if ts == nil {
			continue
		}
		if lowest == nil || ts.Before(*lowest) {
			lowest = ts
		}
	}
	d.LowestUpdatedAt = lowest

	for _, r := range filtered {
		if r.UpdatedAt != nil && lowest != nil && r.UpdatedAt.Sub(*lowest) < syncWindow {
			d.PlayersInSyncWindow++
			continue
		}
		m := MissingPlayer{ID: r.ID, IGN: r.IGN, UpdatedAt: r.UpdatedAt}
		if r.UpdatedAt != nil && lowest != nil {
			m.TimeDifferenceHours = r.UpdatedAt.Sub(*lowest).Hours()
		}
		d.Missing = append(d.Missing, m)
	}

	d.SyncPercentage = 100 * float64(d.PlayersInSyncWindow) / float64(d.TotalNonExcluded)

	if lowest != nil {
		d.HoursSinceLowestUpdate = now.Sub(*lowest).Hours()
	} else {
		d.HoursSinceLowestUpdate = math.Inf(1)
	}

	updateIsRecent := d.HoursSinceLowestUpdate < e.opts.SyncWindowHours
	cooldownPassed := d.HoursSinceLastSave > e.opts.CooldownHours

	hasPending := state.HasPending()
	if hasPending && state.PendingFirstAttempt != nil &&
		now.Sub(*state.PendingFirstAttempt).Hours() > e.opts.PendingSyncStaleHours {
		hasPending = false
	}

	if hasPending {
		if d.SyncPercentage >= 100 {
			d.ShouldSave = true
			d.IsPendingSync = true
			d.PendingAttemptCount = state.PendingAttemptCount + 1
			d.Reason = "100% sync achieved after pending sync"
			return d
		}
		if d.SyncPercentage >= e.opts.PartialSyncThreshold &&
			state.PendingAttemptCount >= e.opts.PartialSyncRetryAttempts-1 {
			d.ShouldSave = true
			d.IsPendingSync = false
			d.PendingAttemptCount = state.PendingAttemptCount + 1
			d.Reason = fmt.Sprintf("partial sync after %d attempts, saving with warning", d.PendingAttemptCount)
			return d
		}
	}

	fullySynced := d.SyncPercentage >= 100
	partiallySynced := d.SyncPercentage >= e.opts.PartialSyncThreshold && !fullySynced

	switch {
	case fullySynced && updateIsRecent && cooldownPassed:
		d.ShouldSave = true
		d.Reason = "all conditions met"
	case partiallySynced && updateIsRecent && cooldownPassed && !hasPending:
		d.IsPendingSync = true
		d.PendingAttemptCount = 1
		d.Reason = "partial sync detected, storing for retry"
	case !updateIsRecent:
		d.Reason = fmt.Sprintf("Update not recent: lowest update %.2f hours ago (window %.2f)",
			d.HoursSinceLowestUpdate, e.opts.SyncWindowHours)
	case !cooldownPassed:
		d.Reason = fmt.Sprintf("Cooldown not passed: last save %.2f hours ago (cooldown %.2f)",
			d.HoursSinceLastSave, e.opts.CooldownHours)
	default:
		d.Reason = fmt.Sprintf("Insufficient sync: %.1f%% (%d/%d players in window)",
			d.SyncPercentage, d.PlayersInSyncWindow, d.TotalNonExcluded)
	}

	return d
}

// ShouldSendWeekNoUpdateAlert gates the outage alert: a full alert-threshold
// week plus one hour without a save, suppressed while a previous alert is
// inside the alert cooldown.
func (e *Engine) ShouldSendWeekNoUpdateAlert(state *models.ControllerState, now time.Time) bool {
	if state == nil {
		return false
	}

	hoursSinceLastSave := e.hoursSinceLastSave(state, now)
	threshold := float64(24*e.opts.AlertThresholdDays) + 1
	if hoursSinceLastSave < threshold {
		return false
	}

	if state.LastEmailSentAt == nil {
		return true
	}
	return now.Sub(*state.LastEmailSentAt).Hours() > e.opts.AlertCooldownHours
}

func (e *Engine) hoursSinceLastSave(state *models.ControllerState, now time.Time) float64 {
	if state == nil || state.LastSavedAt == nil {
		return math.Inf(1)
	}
	return now.Sub(*state.LastSavedAt).Hours()
}
