package models

import (
	"time"

	"github.com/uptrace/bun"
)

// LeaderboardCacheEntry is the mutable current-state image of one player. The
// whole table is replaced on every successful poll.
type LeaderboardCacheEntry struct {
	bun.BaseModel `bun:"table:leaderboard_cache,alias:lc"`

	DiscordID    string  `bun:"discord_id,pk" json:"discord_id"`
	IGN          string  `bun:"ign,notnull" json:"ign"`
	DisplayName  *string `bun:"display_name" json:"display_name"`
	DiscordName  string  `bun:"discord_name,notnull" json:"discord_name"`
	FarmerRole   *string `bun:"farmer_role" json:"farmer_role"`
	Grade        string  `bun:"grade,notnull" json:"grade"`
	IsGuest      bool    `bun:"is_guest,notnull,default:false" json:"is_guest"`
	Active       bool    `bun:"active,notnull,default:true" json:"active"`
	EB           float64 `bun:"eb,notnull,default:0" json:"eb"`
	SE           float64 `bun:"se,notnull,default:0" json:"se"`
	PE           int     `bun:"pe,notnull,default:0" json:"pe"`
	TE           *int    `bun:"te" json:"te"`
	NumPrestiges *int    `bun:"num_prestiges" json:"num_prestiges"`
}

// LeaderboardCacheMetadata is the singleton freshness marker (always id=1).
// Readers treat LastUpdated as a staleness hint only; the cache replacement is
// not transactional.
type LeaderboardCacheMetadata struct {
	bun.BaseModel `bun:"table:leaderboard_cache_metadata,alias:lcm"`

	ID          int       `bun:"id,pk" json:"id"`
	LastUpdated time.Time `bun:"last_updated,notnull" json:"last_updated"`
}
