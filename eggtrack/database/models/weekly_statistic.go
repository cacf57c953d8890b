package models

import (
	"time"

	"github.com/uptrace/bun"
)

// WeeklyStatistic is a DB-maintained read model; the refresh procedure fills
// it from player_snapshots. Go only owns the DDL; no Go code reads it.
type WeeklyStatistic struct {
	bun.BaseModel `bun:"table:weekly_statistics,alias:ws"`

	WeekStart string  `bun:"week_start,pk" json:"week_start"`
	DiscordID string  `bun:"discord_id,pk" json:"discord_id"`
	SEGain    float64 `bun:"se_gain,notnull,default:0" json:"se_gain"`
	EBGain    float64 `bun:"eb_gain,notnull,default:0" json:"eb_gain"`
	PEGain    int     `bun:"pe_gain,notnull,default:0" json:"pe_gain"`

	ComputedAt time.Time `bun:"computed_at,notnull,default:current_timestamp" json:"computed_at"`
}
