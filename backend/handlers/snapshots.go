package handlers

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wonkyeggs/eggtrack/backend/middleware"
	webmodels "github.com/wonkyeggs/eggtrack/backend/models"
	"github.com/wonkyeggs/eggtrack/backend/utils"
	"github.com/wonkyeggs/eggtrack/eggtrack/database/models"
	"github.com/wonkyeggs/eggtrack/eggtrack/snapshot"
	"github.com/wonkyeggs/eggtrack/eggtrack/upstream"
)

const snapshotDateLayout = "2006-01-02"

// UpdatePlayerData is the snapshot writer endpoint. It bypasses the decision
// engine: callers are either the cron controller (internal) or operator
// tooling, both already authorized by WriterAuth.
func UpdatePlayerData(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.UpdatePlayerDataRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return utils.SendBadRequest(c, "Invalid request body", nil)
			}
		}

		ctx := c.Context()
		now := time.Now().UTC()

		var records []upstream.PlayerRecord
		if len(req.Players) > 0 {
			if err := json.Unmarshal(req.Players, &records); err != nil {
				return utils.SendBadRequest(c, "Invalid players payload", nil)
			}
		} else {
			fetched, err := app.Upstream.Fetch(ctx)
			if err != nil {
				return utils.SendError(c, fiber.StatusBadGateway, "UPSTREAM_UNAVAILABLE", err.Error(), nil)
			}
			records = fetched
		}

		snapshotDate := req.SnapshotDate
		if snapshotDate == "" {
			snapshotDate = now.Format(snapshotDateLayout)
		} else if _, err := time.Parse(snapshotDateLayout, snapshotDate); err != nil {
			return utils.SendBadRequest(c, "snapshotDate must be YYYY-MM-DD", nil)
		}

		if req.DryRun {
			return c.JSON(webmodels.UpdatePlayerDataResponse{
				Success:      true,
				SnapshotDate: snapshotDate,
				PlayerCount:  len(records),
				Errors:       []string{},
				DryRun:       true,
			})
		}

		result, err := app.Snapshots.Save(ctx, records, snapshotDate, now)
		if err != nil {
			return utils.SendInternalServerError(c, err.Error())
		}
		app.invalidateResponseCache()

		resp := webmodels.UpdatePlayerDataResponse{
			Success:      true,
			SnapshotDate: snapshotDate,
			PlayerCount:  len(records),
			Snapshots: webmodels.BatchOutcome{
				Inserted: result.SnapshotsWritten,
				Errors:   result.SnapshotErrors,
			},
			EggdayGains: webmodels.BatchOutcome{
				Inserted: result.EggdayWritten,
				Errors:   result.EggdayErrors,
			},
			Errors:                           append([]string{}, result.Errors...),
			RefreshMaterializedViewsResponse: result.RefreshResult,
		}

		if req.SendEmail && app.Dispatcher != nil {
			decision := decisionFromEmailContext(req.EmailContext, len(records))
			var sendErr error
			if decision.SyncPercentage < 100 {
				sendErr = app.Dispatcher.SendPartialSync(ctx, decision, result, now)
			} else {
				sendErr = app.Dispatcher.SendSnapshotSaved(ctx, decision, result, now)
			}
			sent := sendErr == nil
			resp.EmailSent = &sent
			if sendErr != nil {
				resp.EmailError = sendErr.Error()
			}
		}

		slog.Info("Snapshot import complete",
			slog.String("type", "http"),
			slog.String("snapshot_date", snapshotDate),
			slog.Int("players", len(records)),
			slog.Int("errors", len(result.Errors)))

		return c.JSON(resp)
	}
}

// decisionFromEmailContext rebuilds enough of a Decision for email
// composition from the caller-provided context.
func decisionFromEmailContext(raw json.RawMessage, playerCount int) snapshot.Decision {
	decision := snapshot.Decision{
		SyncPercentage:      100,
		PlayersInSyncWindow: playerCount,
		TotalNonExcluded:    playerCount,
		TotalReceived:       playerCount,
		Reason:              "manual import",
	}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decision)
	}
	return decision
}

// DeleteSnapshot removes every history row for one date. Requires an admin
// session token or the operator secret; every deletion is audited.
func DeleteSnapshot(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.DeleteSnapshotRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		if req.SnapshotDate == "" {
			return utils.SendBadRequest(c, "Missing snapshot_date", map[string]string{"snapshot_date": "required"})
		}
		if _, err := time.Parse(snapshotDateLayout, req.SnapshotDate); err != nil {
			return utils.SendBadRequest(c, "snapshot_date must be YYYY-MM-DD", nil)
		}

		ctx := c.Context()

		performedBy := "operator"
		if principal := middleware.GetPrincipal(c); principal != nil {
			performedBy = principal.SubjectID
		}

		deleted, err := app.Snapshots.DeleteByDate(ctx, req.SnapshotDate)
		if err != nil {
			return utils.SendInternalServerError(c, err.Error())
		}
		app.invalidateResponseCache()

		meta, _ := json.Marshal(map[string]interface{}{
			"performed_by":    performedBy,
			"deleted_records": deleted,
		})
		audit := &models.EmailLog{
			SentAt:              time.Now().UTC(),
			Kind:                "delete_snapshot",
			Recipient:           "audit",
			Subject:             "Snapshot deleted: " + req.SnapshotDate,
			Success:             true,
			RelatedSnapshotDate: &req.SnapshotDate,
			Metadata:            meta,
		}
		if err := app.EmailLog.Insert(ctx, audit); err != nil {
			slog.Error("Failed to write delete audit row",
				slog.String("type", "http"),
				slog.Any("error", err))
		}

		slog.Info("Snapshot deleted",
			slog.String("type", "http"),
			slog.String("snapshot_date", req.SnapshotDate),
			slog.Int64("deleted", deleted),
			slog.String("performed_by", performedBy))

		return c.JSON(webmodels.DeleteSnapshotResponse{
			Success:        true,
			SnapshotDate:   req.SnapshotDate,
			DeletedRecords: deleted,
			Message:        "snapshot deleted",
			PerformedBy:    performedBy,
		})
	}
}
