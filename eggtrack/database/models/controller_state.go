package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// ControllerState is the single-row state machine behind the snapshot
// controller (always id=1). Pending, PendingMeta and LastDecisionResult are
// opaque JSON here; the snapshot package owns their shapes.
type ControllerState struct {
	bun.BaseModel `bun:"table:snapshot_save_metadata,alias:ssm"`

	ID                  int             `bun:"id,pk" json:"id"`
	LastSavedAt         *time.Time      `bun:"last_saved_at" json:"last_saved_at"`
	LastDecisionAt      time.Time       `bun:"last_decision_at" json:"last_decision_at"`
	LastDecisionResult  json.RawMessage `bun:"last_decision_result,type:jsonb" json:"last_decision_result"`
	LastEmailSentAt     *time.Time      `bun:"last_email_sent_at" json:"last_email_sent_at"`
	LastEmailType       *string         `bun:"last_email_type" json:"last_email_type"`
	Pending             json.RawMessage `bun:"pending_players,type:jsonb" json:"pending_players"`
	PendingFirstAttempt *time.Time      `bun:"pending_first_attempt" json:"pending_first_attempt"`
	PendingAttemptCount int             `bun:"pending_attempt_count,notnull,default:0" json:"pending_attempt_count"`
	PendingMeta         json.RawMessage `bun:"pending_meta,type:jsonb" json:"pending_meta"`
	UpdatedAt           time.Time       `bun:"updated_at,notnull" json:"updated_at"`
}

// HasPending reports whether a pending parcel is stored.
func (s *ControllerState) HasPending() bool {
	return s != nil && len(s.Pending) > 0 && string(s.Pending) != "null"
}
