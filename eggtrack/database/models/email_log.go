package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// EmailLog is the audit row written for every send attempt, success or not.
// The controller never reads this table back.
type EmailLog struct {
	bun.BaseModel `bun:"table:email_log,alias:el"`

	ID                  int64           `bun:"id,pk,autoincrement" json:"id"`
	SentAt              time.Time       `bun:"sent_at,notnull" json:"sent_at"`
	Kind                string          `bun:"kind,notnull" json:"kind"`
	Recipient           string          `bun:"recipient,notnull" json:"recipient"`
	Subject             string          `bun:"subject,notnull" json:"subject"`
	BodyPreview         string          `bun:"body_preview" json:"body_preview"`
	Success             bool            `bun:"success,notnull" json:"success"`
	ErrorMessage        *string         `bun:"error_message" json:"error_message"`
	ResponseData        json.RawMessage `bun:"response_data,type:jsonb" json:"response_data"`
	RelatedSnapshotDate *string         `bun:"related_snapshot_date" json:"related_snapshot_date"`
	Metadata            json.RawMessage `bun:"metadata,type:jsonb" json:"metadata"`
}
