package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PlayerSnapshot is one player's metrics frozen on a snapshot date. Rows are
// keyed (snapshot_date, discord_id) and written as upserts so a re-run of the
// same save is idempotent.
type PlayerSnapshot struct {
	bun.BaseModel `bun:"table:player_snapshots,alias:ps"`

	SnapshotDate string     `bun:"snapshot_date,pk" json:"snapshot_date"`
	DiscordID    string     `bun:"discord_id,pk" json:"discord_id"`
	IGN          string     `bun:"ign,notnull" json:"ign"`
	DisplayName  *string    `bun:"display_name" json:"display_name"`
	DiscordName  string     `bun:"discord_name,notnull" json:"discord_name"`
	FarmerRole   *string    `bun:"farmer_role" json:"farmer_role"`
	Grade        string     `bun:"grade,notnull" json:"grade"`
	Active       bool       `bun:"active,notnull,default:true" json:"active"`
	IsGuest      bool       `bun:"is_guest,notnull,default:false" json:"is_guest"`
	EB           float64    `bun:"eb,notnull,default:0" json:"eb"`
	SE           float64    `bun:"se,notnull,default:0" json:"se"`
	PE           int        `bun:"pe,notnull,default:0" json:"pe"`
	TE           *int       `bun:"te" json:"te"`
	NumPrestiges *int       `bun:"num_prestiges" json:"num_prestiges"`
	UpdatedAt    *time.Time `bun:"updated_at" json:"updated_at"`

	GainsSaturday   *float64 `bun:"gains_saturday" json:"gains_saturday"`
	MaxMysticalEggs *int     `bun:"max_mystical_eggs" json:"max_mystical_eggs"`

	ImportedAt time.Time `bun:"imported_at,notnull,default:current_timestamp" json:"imported_at"`
}

// SnapshotMetadata records one row per snapshot date with import bookkeeping.
type SnapshotMetadata struct {
	bun.BaseModel `bun:"table:snapshot_metadata,alias:sm"`

	SnapshotDate string    `bun:"snapshot_date,pk" json:"snapshot_date"`
	RecordCount  int       `bun:"record_count,notnull,default:0" json:"record_count"`
	ImportedAt   time.Time `bun:"imported_at,notnull" json:"imported_at"`
}
