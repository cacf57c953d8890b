package eggtrack

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"
)

// LoadConfig reads the TOML config file and applies environment overrides.
// Secrets are expected to arrive via environment in production; the file only
// carries defaults for local development.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

type Config struct {
	Log        LogConfig        `toml:"log"`
	Web        WebConfig        `toml:"web"`
	DB         DBConfig         `toml:"db"`
	Upstream   UpstreamConfig   `toml:"upstream"`
	Auth       AuthConfig       `toml:"auth"`
	Controller ControllerConfig `toml:"controller"`
	Notify     NotifyConfig     `toml:"notify"`
	Spaces     SpacesConfig     `toml:"spaces"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type WebConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type DBConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

type UpstreamConfig struct {
	// EndpointURL is the wonky data service returning the full player array.
	EndpointURL string        `toml:"endpoint_url"`
	Timeout     time.Duration `toml:"timeout"`
}

type AuthConfig struct {
	SupabaseURL     string       `toml:"supabase_url"`
	ServiceRoleKey  string       `toml:"service_role_key"`
	JWTSecret       string       `toml:"jwt_secret"`
	ClientID        string       `toml:"client_id"`
	ClientSecret    string       `toml:"client_secret"`
	Guild           snowflake.ID `toml:"guild"`
	MajRole         snowflake.ID `toml:"maj_role"`
	YCRole          snowflake.ID `toml:"yc_role"`
	WonkyLeaderRole snowflake.ID `toml:"wonky_leader_role"`
	// SecretToken is the preshared operator token accepted by the writer and
	// delete-snapshot endpoints.
	SecretToken string `toml:"secret_token"`
}

type ControllerConfig struct {
	IntervalMinutes          int     `toml:"interval_minutes"`
	SyncWindowHours          float64 `toml:"sync_window_hours"`
	CooldownHours            float64 `toml:"cooldown_hours"`
	PartialSyncThreshold     float64 `toml:"partial_sync_threshold"`
	PartialSyncRetryAttempts int     `toml:"partial_sync_retry_attempts"`
	PendingSyncStaleHours    float64 `toml:"pending_sync_stale_hours"`
	AlertThresholdDays       int     `toml:"alert_threshold_days"`
	AlertCooldownHours       float64 `toml:"alert_cooldown_hours"`
	CacheDurationMinutes     int     `toml:"cache_duration_minutes"`
}

type NotifyConfig struct {
	ResendAPIKey string `toml:"resend_api_key"`
	From         string `toml:"from"`
	Recipient    string `toml:"recipient"`
}

type SpacesConfig struct {
	Key         string `toml:"key"`
	Secret      string `toml:"secret"`
	Region      string `toml:"region"`
	Bucket      string `toml:"bucket"`
	ArchiveRoot string `toml:"archive_root"`
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setSnowflake := func(dst *snowflake.ID, key string) {
		if v := os.Getenv(key); v != "" {
			if id, err := snowflake.Parse(v); err == nil {
				*dst = id
			}
		}
	}

	setString(&c.Auth.SupabaseURL, "SUPABASE_URL")
	setString(&c.Auth.ServiceRoleKey, "SUPABASE_SERVICE_ROLE_KEY")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.ClientID, "DISCORD_CLIENT_ID")
	setString(&c.Auth.ClientSecret, "DISCORD_CLIENT_SECRET")
	setSnowflake(&c.Auth.Guild, "EGGINC_GUILD")
	setSnowflake(&c.Auth.MajRole, "EGGINC_MAJ_ROLE")
	setSnowflake(&c.Auth.YCRole, "EGGINC_YC_ROLE")
	setSnowflake(&c.Auth.WonkyLeaderRole, "EGGINC_WONKY_LEADER_ROLE")
	setString(&c.Auth.SecretToken, "SECRET_TOKEN")
	setString(&c.Upstream.EndpointURL, "WONKY_ENDPOINT_URL")
	setString(&c.Notify.ResendAPIKey, "RESEND_API_KEY")
	setString(&c.Notify.Recipient, "NOTIFICATION_EMAIL")

	setString(&c.DB.Host, "DB_HOST")
	setString(&c.DB.User, "DB_USER")
	setString(&c.DB.Password, "DB_PASSWORD")
	setString(&c.DB.Database, "DB_NAME")
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.DB.Port = port
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Upstream.Timeout <= 0 {
		c.Upstream.Timeout = 30 * time.Second
	}
	if c.Controller.IntervalMinutes <= 0 {
		c.Controller.IntervalMinutes = 15
	}
	if c.Controller.SyncWindowHours <= 0 {
		c.Controller.SyncWindowHours = 65.0 / 60.0
	}
	if c.Controller.CooldownHours <= 0 {
		c.Controller.CooldownHours = 1.5
	}
	if c.Controller.PartialSyncThreshold <= 0 {
		c.Controller.PartialSyncThreshold = 99.0
	}
	if c.Controller.PartialSyncRetryAttempts <= 0 {
		c.Controller.PartialSyncRetryAttempts = 2
	}
	if c.Controller.PendingSyncStaleHours <= 0 {
		c.Controller.PendingSyncStaleHours = 2
	}
	if c.Controller.AlertThresholdDays <= 0 {
		c.Controller.AlertThresholdDays = 7
	}
	if c.Controller.AlertCooldownHours <= 0 {
		c.Controller.AlertCooldownHours = 2
	}
	if c.Controller.CacheDurationMinutes <= 0 {
		c.Controller.CacheDurationMinutes = 15
	}
	if c.Notify.From == "" {
		c.Notify.From = "EggTrack <onboarding@resend.dev>"
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8090
	}
}
