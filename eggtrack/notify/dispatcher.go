package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/wonkyeggs/eggtrack/eggtrack/database/models"
	"github.com/wonkyeggs/eggtrack/eggtrack/database/repositories"
	"github.com/wonkyeggs/eggtrack/eggtrack/snapshot"
)

const bodyPreviewLen = 200

// Dispatcher composes and sends the operator emails and records an audit row
// for every attempt. A send failure is logged, audited and returned to the
// caller; the controller logs it and carries on, so it never aborts a tick.
type Dispatcher struct {
	sender    Sender
	emailLog  repositories.EmailLogRepository
	from      string
	recipient string
}

func NewDispatcher(sender Sender, emailLog repositories.EmailLogRepository, from, recipient string) *Dispatcher {
	return &Dispatcher{
		sender:    sender,
		emailLog:  emailLog,
		from:      from,
		recipient: recipient,
	}
}

// SendSnapshotSaved announces a clean save.
func (d *Dispatcher) SendSnapshotSaved(ctx context.Context, decision snapshot.Decision, result *repositories.SaveResult, now time.Time) error {
	body := snapshotSavedBody(decision, result)
	meta := map[string]interface{}{
		"sync_percentage":   decision.SyncPercentage,
		"snapshots_written": result.SnapshotsWritten,
		"eggday_written":    result.EggdayWritten,
	}
	return d.dispatch(ctx, snapshot.KindSnapshotSaved, body, &result.SnapshotDate, meta, now)
}

// SendPartialSync announces a degraded save listing the laggards.
func (d *Dispatcher) SendPartialSync(ctx context.Context, decision snapshot.Decision, result *repositories.SaveResult, now time.Time) error {
	body := partialSyncBody(decision, result)
	meta := map[string]interface{}{
		"sync_percentage": decision.SyncPercentage,
		"attempt_count":   decision.PendingAttemptCount,
		"missing":         decision.Missing,
	}
	return d.dispatch(ctx, snapshot.KindPartialSync, body, &result.SnapshotDate, meta, now)
}

// SendWeekNoUpdate announces the outage condition.
func (d *Dispatcher) SendWeekNoUpdate(ctx context.Context, state *models.ControllerState, now time.Time) error {
	var hoursSince float64
	lastSaved := ""
	if state != nil && state.LastSavedAt != nil {
		hoursSince = now.Sub(*state.LastSavedAt).Hours()
		lastSaved = state.LastSavedAt.UTC().Format(time.RFC3339)
	}
	body := weekNoUpdateBody(hoursSince, lastSaved)
	meta := map[string]interface{}{
		"hours_since_last_save": hoursSince,
	}
	return d.dispatch(ctx, snapshot.KindWeekNoUpdate, body, nil, meta, now)
}

func (d *Dispatcher) dispatch(ctx context.Context, kind string, body emailBody, snapshotDate *string, meta map[string]interface{}, now time.Time) error {
	entry := &models.EmailLog{
		SentAt:              now,
		Kind:                kind,
		Recipient:           d.recipient,
		Subject:             body.Subject,
		BodyPreview:         preview(body.Text),
		RelatedSnapshotDate: snapshotDate,
	}
	if meta != nil {
		if raw, err := json.Marshal(meta); err == nil {
			entry.Metadata = raw
		}
	}

	resp, sendErr := d.sender.Send(ctx, SendRequest{
		From:    d.from,
		To:      []string{d.recipient},
		Subject: body.Subject,
		HTML:    body.HTML,
		Text:    body.Text,
	})

	if sendErr != nil {
		msg := sendErr.Error()
		entry.Success = false
		entry.ErrorMessage = &msg
		slog.Error("Email send failed",
			slog.String("type", "mail"),
			slog.String("kind", kind),
			slog.Any("error", sendErr))
	} else {
		entry.Success = true
		if raw, err := json.Marshal(resp); err == nil {
			entry.ResponseData = raw
		}
		slog.Info("Email sent",
			slog.String("type", "mail"),
			slog.String("kind", kind),
			slog.String("subject", body.Subject))
	}

	if err := d.emailLog.Insert(ctx, entry); err != nil {
		slog.Error("Failed to write email audit row",
			slog.String("type", "mail"),
			slog.String("kind", kind),
			slog.Any("error", err))
	}

	return sendErr
}

func preview(text string) string {
	if len(text) <= bodyPreviewLen {
		return text
	}
	return text[:bodyPreviewLen]
}
