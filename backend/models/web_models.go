package models

import (
	"encoding/json"
	"time"
)

// AuthRequest is the discord-auth request body.
type AuthRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// AuthUser is the profile subset returned to the UI after authentication.
type AuthUser struct {
	DiscordID  string `json:"discord_id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Avatar     string `json:"avatar"`
}

// AuthResponse is the discord-auth success body.
type AuthResponse struct {
	JWT         string   `json:"jwt"`
	User        AuthUser `json:"user"`
	AccessLevel string   `json:"access_level"`
	ExpiresAt   int64    `json:"expires_at"`
}

// LeaderboardPlayer is one cache row as served to clients. NumPrestiges is
// nulled for non-admin callers before the response leaves the handler.
type LeaderboardPlayer struct {
	DiscordID    string  `json:"discord_id"`
	IGN          string  `json:"ign"`
	DisplayName  *string `json:"display_name"`
	DiscordName  string  `json:"discord_name"`
	FarmerRole   *string `json:"farmer_role"`
	Grade        string  `json:"grade"`
	IsGuest      bool    `json:"is_guest"`
	Active       bool    `json:"active"`
	EB           float64 `json:"eb"`
	SE           float64 `json:"se"`
	PE           int     `json:"pe"`
	TE           *int    `json:"te"`
	NumPrestiges *int    `json:"num_prestiges"`
}

// LeaderboardResponse is the get-leaderboard body.
type LeaderboardResponse struct {
	Players     []LeaderboardPlayer `json:"players"`
	LastUpdated *time.Time          `json:"lastUpdated"`
	PlayerCount int                 `json:"playerCount"`
	FromCache   bool                `json:"fromCache"`
}

// PlayerStatsResponse is the get-player-current-stats body.
type PlayerStatsResponse struct {
	Player      *LeaderboardPlayer `json:"player"`
	LastUpdated *time.Time         `json:"lastUpdated"`
	FromCache   bool               `json:"fromCache"`
}

// DeleteSnapshotRequest is the delete-snapshot body.
type DeleteSnapshotRequest struct {
	SnapshotDate string `json:"snapshot_date"`
}

// DeleteSnapshotResponse is the delete-snapshot success body.
type DeleteSnapshotResponse struct {
	Success        bool   `json:"success"`
	SnapshotDate   string `json:"snapshotDate"`
	DeletedRecords int64  `json:"deletedRecords"`
	Message        string `json:"message"`
	PerformedBy    string `json:"performedBy,omitempty"`
}

// UpdatePlayerDataRequest is the writer endpoint body. Players carries
// already-fetched records on internal calls from the cron controller.
type UpdatePlayerDataRequest struct {
	InternalCall bool            `json:"internalCall,omitempty"`
	Players      json.RawMessage `json:"players,omitempty"`
	SnapshotDate string          `json:"snapshotDate,omitempty"`
	ForceUpdate  bool            `json:"forceUpdate,omitempty"`
	DryRun       bool            `json:"dryRun,omitempty"`
	SendEmail    bool            `json:"sendEmail,omitempty"`
	EmailContext json.RawMessage `json:"emailContext,omitempty"`
}

// BatchOutcome is one table's written/failed counts.
type BatchOutcome struct {
	Inserted int `json:"inserted"`
	Errors   int `json:"errors"`
}

// UpdatePlayerDataResponse is the writer endpoint success body.
type UpdatePlayerDataResponse struct {
	Success                          bool         `json:"success"`
	SnapshotDate                     string       `json:"snapshotDate"`
	PlayerCount                      int          `json:"playerCount"`
	Snapshots                        BatchOutcome `json:"snapshots"`
	EggdayGains                      BatchOutcome `json:"eggdayGains"`
	Errors                           []string     `json:"errors"`
	RefreshMaterializedViewsResponse string       `json:"refreshMaterializedViewsResponse"`
	DryRun                           bool         `json:"dryRun,omitempty"`
	EmailSent                        *bool        `json:"emailSent,omitempty"`
	EmailError                       string       `json:"emailError,omitempty"`
}
