package models

import (
	"time"

	"github.com/uptrace/bun"
)

// EggdayGain stores a player's start/end progression for one egg day year.
// Keyed (discord_id, year); re-imports upsert in place.
type EggdayGain struct {
	bun.BaseModel `bun:"table:eggday_gains,alias:eg"`

	DiscordID string `bun:"discord_id,pk" json:"discord_id"`
	Year      int    `bun:"year,pk" json:"year"`

	StartSE        float64 `bun:"start_se,notnull,default:0" json:"start_se"`
	StartPE        int     `bun:"start_pe,notnull,default:0" json:"start_pe"`
	StartEB        float64 `bun:"start_eb,notnull,default:0" json:"start_eb"`
	StartRole      string  `bun:"start_role" json:"start_role"`
	StartPrestiges int     `bun:"start_prestiges,notnull,default:0" json:"start_prestiges"`

	EndSE        float64 `bun:"end_se,notnull,default:0" json:"end_se"`
	EndPE        int     `bun:"end_pe,notnull,default:0" json:"end_pe"`
	EndEB        float64 `bun:"end_eb,notnull,default:0" json:"end_eb"`
	EndRole      string  `bun:"end_role" json:"end_role"`
	EndPrestiges int     `bun:"end_prestiges,notnull,default:0" json:"end_prestiges"`

	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
