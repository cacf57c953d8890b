package snapshot

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/wonkyeggs/eggtrack/eggtrack/database/models"
	"github.com/wonkyeggs/eggtrack/eggtrack/upstream"
)

var baseTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func playersAt(n int, updatedAt time.Time) []upstream.PlayerRecord {
	records := make([]upstream.PlayerRecord, n)
	for i := range records {
		ts := updatedAt
		records[i] = upstream.PlayerRecord{
			ID:        playerID(i),
			IGN:       "player-" + playerID(i),
			UpdatedAt: &ts,
			SE:        float64(i),
		}
	}
	return records
}

func playerID(i int) string {
	return string(rune('a'+i/26)) + string(rune('a'+i%26))
}

func stateWithLastSave(t time.Time) *models.ControllerState {
	return &models.ControllerState{ID: 1, LastSavedAt: &t}
}

func pendingState(lastSave, firstAttempt time.Time, attempts int) *models.ControllerState {
	state := stateWithLastSave(lastSave)
	state.Pending = json.RawMessage(`{"records":[]}`)
	state.PendingFirstAttempt = &firstAttempt
	state.PendingAttemptCount = attempts
	return state
}

func TestDecideCleanSave(t *testing.T) {
	// Scenario A: 100 players in sync, recent, cooldown passed.
	engine := NewEngine(DefaultOptions())
	records := playersAt(100, baseTime)
	state := stateWithLastSave(baseTime.Add(-2 * time.Hour))
	now := baseTime.Add(30 * time.Minute)

	d := engine.Decide(records, nil, state, now)

	if !d.ShouldSave {
		t.Fatalf("Decide() shouldSave = false, want true (reason %q)", d.Reason)
	}
	if d.SyncPercentage != 100 {
		t.Errorf("Decide() syncPercentage = %v, want 100", d.SyncPercentage)
	}
	if d.Reason != "all conditions met" {
		t.Errorf("Decide() reason = %q, want %q", d.Reason, "all conditions met")
	}
	if d.IsPendingSync {
		t.Errorf("Decide() isPendingSync = true, want false")
	}
	if d.PlayersInSyncWindow != 100 || d.TotalNonExcluded != 100 || d.TotalReceived != 100 {
		t.Errorf("Decide() counts = %d/%d/%d, want 100/100/100",
			d.PlayersInSyncWindow, d.TotalNonExcluded, d.TotalReceived)
	}
}

func TestDecideFirstPartialSync(t *testing.T) {
	// Scenario B: one laggard 75 minutes ahead of the pack.
	engine := NewEngine(DefaultOptions())
	records := playersAt(100, baseTime)
	laggard := baseTime.Add(75 * time.Minute)
	records[99].UpdatedAt = &laggard
	state := stateWithLastSave(baseTime.Add(-2 * time.Hour))
	now := baseTime.Add(40 * time.Minute)

	d := engine.Decide(records, nil, state, now)

	if d.ShouldSave {
		t.Fatalf("Decide() shouldSave = true, want false")
	}
	if !d.IsPendingSync {
		t.Fatalf("Decide() isPendingSync = false, want true (reason %q)", d.Reason)
	}
	if d.PlayersInSyncWindow != 99 {
		t.Errorf("Decide() playersInSyncWindow = %d, want 99", d.PlayersInSyncWindow)
	}
	if d.SyncPercentage != 99.0 {
		t.Errorf("Decide() syncPercentage = %v, want 99.0", d.SyncPercentage)
	}
	if d.PendingAttemptCount != 1 {
		t.Errorf("Decide() pendingAttemptCount = %d, want 1", d.PendingAttemptCount)
	}
	if len(d.Missing) != 1 || d.Missing[0].ID != records[99].ID {
		t.Errorf("Decide() missing = %+v, want the laggard only", d.Missing)
	}
	if got := d.Missing[0].TimeDifferenceHours; math.Abs(got-1.25) > 1e-9 {
		t.Errorf("Decide() missing timeDifferenceHours = %v, want 1.25", got)
	}
}

func TestDecidePendingRetrySavesWithWarning(t *testing.T) {
	// Scenario C: same laggard one tick later; retry budget exhausted.
	engine := NewEngine(DefaultOptions())
	records := playersAt(100, baseTime)
	laggard := baseTime.Add(75 * time.Minute)
	records[99].UpdatedAt = &laggard
	state := pendingState(baseTime.Add(-2*time.Hour), baseTime.Add(40*time.Minute), 1)
	now := baseTime.Add(55 * time.Minute)

	d := engine.Decide(records, nil, state, now)

	if !d.ShouldSave {
		t.Fatalf("Decide() shouldSave = false, want true (reason %q)", d.Reason)
	}
	if d.IsPendingSync {
		t.Errorf("Decide() isPendingSync = true, want false")
	}
	if !strings.Contains(d.Reason, "partial sync after") {
		t.Errorf("Decide() reason = %q, want partial-sync-after-attempts", d.Reason)
	}
	if d.PendingAttemptCount != 2 {
		t.Errorf("Decide() pendingAttemptCount = %d, want 2", d.PendingAttemptCount)
	}
	if len(d.Missing) != 1 {
		t.Errorf("Decide() missing = %+v, want one laggard", d.Missing)
	}
}

func TestDecidePendingResolvesAtFullSync(t *testing.T) {
	// Scenario D: the pending parcel resolves when everyone catches up.
	engine := NewEngine(DefaultOptions())
	records := playersAt(100, baseTime)
	state := pendingState(baseTime.Add(-2*time.Hour), baseTime.Add(40*time.Minute), 1)
	now := baseTime.Add(55 * time.Minute)

	d := engine.Decide(records, nil, state, now)

	if !d.ShouldSave {
		t.Fatalf("Decide() shouldSave = false, want true (reason %q)", d.Reason)
	}
	if !strings.Contains(d.Reason, "100% sync achieved after pending sync") {
		t.Errorf("Decide() reason = %q, want 100%%-after-pending", d.Reason)
	}
}

func TestDecideCooldownBlocks(t *testing.T) {
	// Scenario E: fully synced but saved only 30 minutes ago.
	engine := NewEngine(DefaultOptions())
	records := playersAt(50, baseTime)
	now := baseTime.Add(10 * time.Minute)
	state := stateWithLastSave(now.Add(-30 * time.Minute))

	d := engine.Decide(records, nil, state, now)

	if d.ShouldSave {
		t.Fatalf("Decide() shouldSave = true, want false")
	}
	if !strings.Contains(d.Reason, "Cooldown not passed") {
		t.Errorf("Decide() reason = %q, want cooldown message", d.Reason)
	}
}

func TestDecideStalePendingIsIgnored(t *testing.T) {
	// A parcel older than the stale window behaves as if absent: the tick
	// parks afresh instead of saving with a warning.
	engine := NewEngine(DefaultOptions())
	records := playersAt(100, baseTime)
	laggard := baseTime.Add(75 * time.Minute)
	records[99].UpdatedAt = &laggard
	state := pendingState(baseTime.Add(-5*time.Hour), baseTime.Add(-3*time.Hour), 1)
	now := baseTime.Add(40 * time.Minute)

	d := engine.Decide(records, nil, state, now)

	if d.ShouldSave {
		t.Fatalf("Decide() shouldSave = true, want false (stale pending must not save)")
	}
	if !d.IsPendingSync || d.PendingAttemptCount != 1 {
		t.Errorf("Decide() = pending %v attempts %d, want fresh park (true, 1)",
			d.IsPendingSync, d.PendingAttemptCount)
	}
}

func TestDecideFiltering(t *testing.T) {
	engine := NewEngine(DefaultOptions())

	records := playersAt(10, baseTime)
	records[0].IsGuest = true
	exclusions := map[string]struct{}{records[1].ID: {}}
	state := stateWithLastSave(baseTime.Add(-2 * time.Hour))
	now := baseTime.Add(10 * time.Minute)

	d := engine.Decide(records, exclusions, state, now)

	if d.TotalReceived != 10 {
		t.Errorf("Decide() totalReceived = %d, want 10", d.TotalReceived)
	}
	if d.TotalNonExcluded != 8 {
		t.Errorf("Decide() totalNonExcluded = %d, want 8", d.TotalNonExcluded)
	}
	if d.ExcludedCount != 2 {
		t.Errorf("Decide() excludedCount = %d, want 2", d.ExcludedCount)
	}
	if d.ExcludedCount != d.TotalReceived-d.TotalNonExcluded {
		t.Errorf("excludedCount invariant violated: %d != %d - %d",
			d.ExcludedCount, d.TotalReceived, d.TotalNonExcluded)
	}
}

func TestDecideNoValidPlayers(t *testing.T) {
	engine := NewEngine(DefaultOptions())

	records := playersAt(3, baseTime)
	for i := range records {
		records[i].IsGuest = true
	}

	d := engine.Decide(records, nil, &models.ControllerState{ID: 1}, baseTime)

	if d.ShouldSave {
		t.Fatalf("Decide() shouldSave = true, want false")
	}
	if d.Reason != "no valid players" {
		t.Errorf("Decide() reason = %q, want %q", d.Reason, "no valid players")
	}
}

func TestDecideWindowBoundaryIsExclusive(t *testing.T) {
	// A record exactly one hour after the lowest update sits outside the
	// window; one nanosecond less sits inside.
	engine := NewEngine(DefaultOptions())
	state := stateWithLastSave(baseTime.Add(-2 * time.Hour))
	now := baseTime.Add(10 * time.Minute)

	records := playersAt(2, baseTime)
	onBoundary := baseTime.Add(time.Hour)
	records[1].UpdatedAt = &onBoundary

	d := engine.Decide(records, nil, state, now)
	if d.PlayersInSyncWindow != 1 {
		t.Errorf("Decide() playersInSyncWindow = %d, want 1 (boundary is exclusive)", d.PlayersInSyncWindow)
	}

	justInside := baseTime.Add(time.Hour - time.Nanosecond)
	records[1].UpdatedAt = &justInside

	d = engine.Decide(records, nil, state, now)
	if d.PlayersInSyncWindow != 2 {
		t.Errorf("Decide() playersInSyncWindow = %d, want 2 (inside the window)", d.PlayersInSyncWindow)
	}
}

func TestDecideRecencyWindow(t *testing.T) {
	// The recency window is 65 minutes; at 70 minutes the update is too old.
	engine := NewEngine(DefaultOptions())
	records := playersAt(10, baseTime)
	state := stateWithLastSave(baseTime.Add(-4 * time.Hour))
	now := baseTime.Add(70 * time.Minute)

	d := engine.Decide(records, nil, state, now)

	if d.ShouldSave {
		t.Fatalf("Decide() shouldSave = true, want false")
	}
	if !strings.Contains(d.Reason, "not recent") {
		t.Errorf("Decide() reason = %q, want not-recent message", d.Reason)
	}
}

func TestDecideNeverSaved(t *testing.T) {
	engine := NewEngine(DefaultOptions())
	records := playersAt(10, baseTime)
	now := baseTime.Add(10 * time.Minute)

	d := engine.Decide(records, nil, &models.ControllerState{ID: 1}, now)

	if !d.ShouldSave {
		t.Fatalf("Decide() shouldSave = false, want true on first ever save (reason %q)", d.Reason)
	}
	if !math.IsInf(d.HoursSinceLastSave, 1) {
		t.Errorf("Decide() hoursSinceLastSave = %v, want +Inf", d.HoursSinceLastSave)
	}
}

func TestDecideNullUpdatedAtExcludedFromWindowMath(t *testing.T) {
	engine := NewEngine(DefaultOptions())
	records := playersAt(4, baseTime)
	records[3].UpdatedAt = nil
	state := stateWithLastSave(baseTime.Add(-2 * time.Hour))
	now := baseTime.Add(10 * time.Minute)

	d := engine.Decide(records, nil, state, now)

	if d.PlayersInSyncWindow != 3 {
		t.Errorf("Decide() playersInSyncWindow = %d, want 3", d.PlayersInSyncWindow)
	}
	if d.TotalNonExcluded != 4 {
		t.Errorf("Decide() totalNonExcluded = %d, want 4", d.TotalNonExcluded)
	}
	if d.ShouldSave {
		t.Errorf("Decide() shouldSave = true, want false at 75%% sync")
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	engine := NewEngine(DefaultOptions())
	records := playersAt(20, baseTime)
	laggard := baseTime.Add(80 * time.Minute)
	records[19].UpdatedAt = &laggard
	state := stateWithLastSave(baseTime.Add(-2 * time.Hour))
	now := baseTime.Add(20 * time.Minute)

	d1 := engine.Decide(records, nil, state, now)
	d2 := engine.Decide(records, nil, state, now)

	j1, _ := json.Marshal(d1)
	j2, _ := json.Marshal(d2)
	if string(j1) != string(j2) {
		t.Errorf("Decide() is not deterministic:\n%s\n%s", j1, j2)
	}
}

func TestShouldSendWeekNoUpdateAlert(t *testing.T) {
	engine := NewEngine(DefaultOptions())
	now := baseTime

	eightDaysAgo := now.Add(-8 * 24 * time.Hour)
	sixDaysAgo := now.Add(-6 * 24 * time.Hour)
	thirtyMinAgo := now.Add(-30 * time.Minute)
	threeHoursAgo := now.Add(-3 * time.Hour)

	tests := []struct {
		name  string
		state *models.ControllerState
		want  bool
	}{
		{
			name:  "eight days without a save",
			state: &models.ControllerState{ID: 1, LastSavedAt: &eightDaysAgo},
			want:  true,
		},
		{
			name:  "six days is under the threshold",
			state: &models.ControllerState{ID: 1, LastSavedAt: &sixDaysAgo},
			want:  false,
		},
		{
			name: "suppressed inside the alert cooldown",
			state: &models.ControllerState{
				ID: 1, LastSavedAt: &eightDaysAgo, LastEmailSentAt: &thirtyMinAgo,
			},
			want: false,
		},
		{
			name: "re-sent after the alert cooldown",
			state: &models.ControllerState{
				ID: 1, LastSavedAt: &eightDaysAgo, LastEmailSentAt: &threeHoursAgo,
			},
			want: true,
		},
		{
			name:  "never saved at all",
			state: &models.ControllerState{ID: 1},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.ShouldSendWeekNoUpdateAlert(tt.state, now); got != tt.want {
				t.Errorf("ShouldSendWeekNoUpdateAlert() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecisionMarshalsInfinityAsNull(t *testing.T) {
	d := Decision{HoursSinceLastSave: math.Inf(1), Reason: "x"}

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if v, ok := decoded["hours_since_last_save"]; !ok || v != nil {
		t.Errorf("hours_since_last_save = %v, want null", v)
	}
}
