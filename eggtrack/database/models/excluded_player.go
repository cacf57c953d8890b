package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ExcludedPlayer marks a player whose upstream updatedAt is known-broken.
// Excluded IDs are removed from the sync denominator. Rows are maintained
// out-of-band by operators.
type ExcludedPlayer struct {
	bun.BaseModel `bun:"table:excluded_players,alias:ep"`

	DiscordID string    `bun:"discord_id,pk" json:"discord_id"`
	Reason    string    `bun:"reason,notnull" json:"reason"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
