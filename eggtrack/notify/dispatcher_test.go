package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wonkyeggs/eggtrack/eggtrack/database/models"
	"github.com/wonkyeggs/eggtrack/eggtrack/database/repositories"
	"github.com/wonkyeggs/eggtrack/eggtrack/snapshot"
)

var sendTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

type stubSender struct {
	requests []SendRequest
	err      error
}

func (s *stubSender) Send(_ context.Context, req SendRequest) (*SendResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &SendResponse{ID: "email-1"}, nil
}

type stubEmailLog struct {
	entries []*models.EmailLog
	err     error
}

func (s *stubEmailLog) Insert(_ context.Context, entry *models.EmailLog) error {
	s.entries = append(s.entries, entry)
	return s.err
}

func (s *stubEmailLog) Recent(_ context.Context, _ int) ([]*models.EmailLog, error) {
	return s.entries, nil
}

func testDecision() snapshot.Decision {
	return snapshot.Decision{
		ShouldSave:          true,
		SyncPercentage:      99.0,
		PlayersInSyncWindow: 99,
		TotalNonExcluded:    100,
		TotalReceived:       102,
		ExcludedCount:       2,
		PendingAttemptCount: 2,
		Reason:              "partial sync after 2 attempts, saving with warning",
		Missing: []snapshot.MissingPlayer{
			{ID: "111", IGN: "straggler", TimeDifferenceHours: 1.25},
		},
	}
}

func testSaveResult() *repositories.SaveResult {
	return &repositories.SaveResult{
		SnapshotDate:     "2026-08-01",
		SnapshotsWritten: 100,
		EggdayWritten:    40,
		RefreshResult:    "refreshed",
	}
}

func TestSendSnapshotSavedComposesAndAudits(t *testing.T) {
	sender := &stubSender{}
	log := &stubEmailLog{}
	d := NewDispatcher(sender, log, "EggTrack <noreply@example.com>", "ops@example.com")

	decision := testDecision()
	decision.SyncPercentage = 100
	decision.Reason = "all conditions met"

	if err := d.SendSnapshotSaved(context.Background(), decision, testSaveResult(), sendTime); err != nil {
		t.Fatalf("SendSnapshotSaved() error = %v", err)
	}

	if len(sender.requests) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sender.requests))
	}
	req := sender.requests[0]
	if !strings.Contains(req.Subject, "Snapshot saved for 2026-08-01") {
		t.Errorf("subject = %q, want snapshot-saved subject", req.Subject)
	}
	if req.To[0] != "ops@example.com" {
		t.Errorf("recipient = %q, want ops@example.com", req.To[0])
	}
	if req.HTML == "" || req.Text == "" {
		t.Errorf("both HTML and text bodies must be set")
	}

	if len(log.entries) != 1 {
		t.Fatalf("wrote %d audit rows, want 1", len(log.entries))
	}
	entry := log.entries[0]
	if entry.Kind != snapshot.KindSnapshotSaved || !entry.Success {
		t.Errorf("audit row = kind %q success %v, want snapshot_saved/true", entry.Kind, entry.Success)
	}
	if entry.RelatedSnapshotDate == nil || *entry.RelatedSnapshotDate != "2026-08-01" {
		t.Errorf("audit relatedSnapshotDate = %v, want 2026-08-01", entry.RelatedSnapshotDate)
	}
	if len(entry.BodyPreview) > 200 {
		t.Errorf("bodyPreview length = %d, want <= 200", len(entry.BodyPreview))
	}
}

func TestSendPartialSyncListsLaggards(t *testing.T) {
	sender := &stubSender{}
	log := &stubEmailLog{}
	d := NewDispatcher(sender, log, "EggTrack <noreply@example.com>", "ops@example.com")

	if err := d.SendPartialSync(context.Background(), testDecision(), testSaveResult(), sendTime); err != nil {
		t.Fatalf("SendPartialSync() error = %v", err)
	}

	req := sender.requests[0]
	if !strings.Contains(req.Text, "straggler") {
		t.Errorf("text body does not list the laggard:\n%s", req.Text)
	}
	if !strings.Contains(req.Text, "1.25 hours behind") {
		t.Errorf("text body does not state the lag:\n%s", req.Text)
	}
	if log.entries[0].Kind != snapshot.KindPartialSync {
		t.Errorf("audit kind = %q, want partial_sync", log.entries[0].Kind)
	}
}

func TestSendWeekNoUpdate(t *testing.T) {
	sender := &stubSender{}
	log := &stubEmailLog{}
	d := NewDispatcher(sender, log, "EggTrack <noreply@example.com>", "ops@example.com")

	lastSaved := sendTime.Add(-8 * 24 * time.Hour)
	state := &models.ControllerState{ID: 1, LastSavedAt: &lastSaved}

	if err := d.SendWeekNoUpdate(context.Background(), state, sendTime); err != nil {
		t.Fatalf("SendWeekNoUpdate() error = %v", err)
	}

	req := sender.requests[0]
	if !strings.Contains(req.Text, "8.0 days ago") {
		t.Errorf("text body does not state the outage age:\n%s", req.Text)
	}
	if log.entries[0].Kind != snapshot.KindWeekNoUpdate {
		t.Errorf("audit kind = %q, want week_no_update", log.entries[0].Kind)
	}
}

func TestSendFailureIsAuditedAndReturned(t *testing.T) {
	sender := &stubSender{err: errors.New("rate limited")}
	log := &stubEmailLog{}
	d := NewDispatcher(sender, log, "EggTrack <noreply@example.com>", "ops@example.com")

	err := d.SendSnapshotSaved(context.Background(), testDecision(), testSaveResult(), sendTime)
	if err == nil {
		t.Fatalf("SendSnapshotSaved() error = nil, want the send failure")
	}

	if len(log.entries) != 1 {
		t.Fatalf("wrote %d audit rows, want 1 even on failure", len(log.entries))
	}
	entry := log.entries[0]
	if entry.Success {
		t.Errorf("audit success = true, want false")
	}
	if entry.ErrorMessage == nil || !strings.Contains(*entry.ErrorMessage, "rate limited") {
		t.Errorf("audit errorMessage = %v, want the send error", entry.ErrorMessage)
	}
}
