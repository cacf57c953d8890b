package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"time"

	"log/slog"

	"github.com/wonkyeggs/eggtrack/eggtrack/database/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
	schemaVersion        = 1 // bump when schema/migrations change
)

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

type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	var conn net.Conn
	var err error

	tryDial := func() (net.Conn, error) {
		addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
		if c, e := net.DialTimeout("tcp4", addr, defaultConnTimeout); e == nil {
			return c, nil
		}
		return net.DialTimeout("tcp6", addr, defaultConnTimeout)
	}

	for i := 0; i < defaultMaxRetries; i++ {
		conn, err = tryDial()
		if err == nil {
			break
		}
		time.Sleep(defaultRetryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("database server unreachable after %d attempts: %w", defaultMaxRetries, err)
	}
	defer conn.Close()

	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &DB{pool: pool, bunDB: newBunDB(pool)}, nil
}

func buildConnString(cfg DBConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=5",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
}

func newBunDB(pool *pgxpool.Pool) *bun.DB {
	sslMode := os.Getenv("PG_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pool.Config().ConnConfig.User,
		pool.Config().ConnConfig.Password,
		pool.Config().ConnConfig.Host,
		pool.Config().ConnConfig.Port,
		pool.Config().ConnConfig.Database,
		sslMode,
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func (db *DB) GetPool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) ExecWithLog(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	start := time.Now()
	result, err := db.pool.Exec(ctx, sql, args...)
	duration := time.Since(start)

	if err != nil {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", "exec"),
			slog.String("query", sql),
			slog.Duration("took", duration),
			slog.Any("error", err),
		)
		return result, err
	}

	slog.Debug("Query executed",
		slog.String("type", "db"),
		slog.String("operation", "exec"),
		slog.String("query", sql),
		slog.Duration("took", duration),
		slog.Int64("affected_rows", result.RowsAffected()),
	)
	return result, nil
}

func (db *DB) QueryWithLog(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	start := time.Now()
	rows, err := db.pool.Query(ctx, sql, args...)
	duration := time.Since(start)

	if err != nil {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", "query"),
			slog.String("query", sql),
			slog.Duration("took", duration),
			slog.Any("error", err),
		)
		return rows, err
	}

	slog.Debug("Query executed",
		slog.String("type", "db"),
		slog.String("operation", "query"),
		slog.String("query", sql),
		slog.Duration("took", duration),
	)
	return rows, nil
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}

// Ping verifies both database handles are working.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pgxpool ping failed: %w", err)
	}
	if err := db.bunDB.PingContext(ctx); err != nil {
		return fmt.Errorf("bun ping failed: %w", err)
	}
	return nil
}

// InitializeSchema creates all required tables, indexes, the materialized view
// and the refresh procedure.
func (db *DB) InitializeSchema(ctx context.Context) error {
	fastInit := os.Getenv("DB_FAST_INIT") == "1"
	if fastInit {
		if err := db.ensureAppMeta(ctx); err == nil {
			if v, _ := db.getAppMeta(ctx, "schema_version"); v == fmt.Sprintf("%d", schemaVersion) {
				slog.Info("Fast DB init: schema up-to-date, skipping initialization",
					slog.Int("schema_version", schemaVersion))
				return nil
			}
		}
	}

	tables := []interface{}{
		(*models.PlayerSnapshot)(nil),
		(*models.SnapshotMetadata)(nil),
		(*models.EggdayGain)(nil),
		(*models.LeaderboardCacheEntry)(nil),
		(*models.LeaderboardCacheMetadata)(nil),
		(*models.ExcludedPlayer)(nil),
		(*models.ControllerState)(nil),
		(*models.EmailLog)(nil),
		(*models.WeeklyStatistic)(nil),
	}

	for _, model := range tables {
		query := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists()

		if _, err := query.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_player_snapshots_discord_id ON player_snapshots(discord_id);",
		"CREATE INDEX IF NOT EXISTS idx_player_snapshots_date ON player_snapshots(snapshot_date);",
		"CREATE INDEX IF NOT EXISTS idx_player_snapshots_date_se ON player_snapshots(snapshot_date, se DESC);",
		"CREATE INDEX IF NOT EXISTS idx_eggday_gains_discord_id ON eggday_gains(discord_id);",
		"CREATE INDEX IF NOT EXISTS idx_leaderboard_cache_se ON leaderboard_cache(se DESC);",
		"CREATE INDEX IF NOT EXISTS idx_email_log_sent_at ON email_log(sent_at);",
		"CREATE INDEX IF NOT EXISTS idx_email_log_kind ON email_log(kind, sent_at);",
	}

	for _, idx := range indexes {
		if _, err := db.ExecWithLog(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := db.initializeViews(ctx); err != nil {
		return fmt.Errorf("failed to initialize views: %w", err)
	}

	if err := db.ensureAppMeta(ctx); err == nil {
		_ = db.setAppMeta(ctx, "schema_version", fmt.Sprintf("%d", schemaVersion))
	}

	return nil
}

// initializeViews creates unique_players_latest plus the refresh procedure the
// snapshot writer invokes after every save.
func (db *DB) initializeViews(ctx context.Context) error {
	viewSQL := `
		CREATE MATERIALIZED VIEW IF NOT EXISTS unique_players_latest AS
		SELECT DISTINCT ON (discord_id)
			discord_id, snapshot_date, ign, display_name, discord_name,
			farmer_role, grade, active, is_guest, eb, se, pe, te, num_prestiges
		FROM player_snapshots
		ORDER BY discord_id, snapshot_date DESC;
	`
	if _, err := db.ExecWithLog(ctx, viewSQL); err != nil {
		return fmt.Errorf("failed to create unique_players_latest: %w", err)
	}

	if _, err := db.ExecWithLog(ctx,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_players_latest_id ON unique_players_latest(discord_id);`); err != nil {
		return fmt.Errorf("failed to index unique_players_latest: %w", err)
	}

	refreshFnSQL := `
		CREATE OR REPLACE FUNCTION refresh_materialized_views() RETURNS text AS $$
		BEGIN
			REFRESH MATERIALIZED VIEW CONCURRENTLY unique_players_latest;

			INSERT INTO weekly_statistics (week_start, discord_id, se_gain, eb_gain, pe_gain, computed_at)
			SELECT
				to_char(date_trunc('week', s.snapshot_date::date), 'YYYY-MM-DD'),
				s.discord_id,
				MAX(s.se) - MIN(s.se),
				MAX(s.eb) - MIN(s.eb),
				MAX(s.pe) - MIN(s.pe),
				now()
			FROM player_snapshots s
			WHERE s.snapshot_date::date >= date_trunc('week', now())::date
			GROUP BY 1, 2
			ON CONFLICT (week_start, discord_id) DO UPDATE SET
				se_gain = EXCLUDED.se_gain,
				eb_gain = EXCLUDED.eb_gain,
				pe_gain = EXCLUDED.pe_gain,
				computed_at = EXCLUDED.computed_at;

			RETURN 'refreshed';
		END;
		$$ LANGUAGE plpgsql;
	`
	if _, err := db.ExecWithLog(ctx, refreshFnSQL); err != nil {
		return fmt.Errorf("failed to create refresh_materialized_views: %w", err)
	}

	return nil
}

// RefreshMaterializedViews runs the DB-side refresh procedure and returns its
// status string. The caller treats the operation as opaque.
func (db *DB) RefreshMaterializedViews(ctx context.Context) (string, error) {
	var status string
	err := db.pool.QueryRow(ctx, `SELECT refresh_materialized_views();`).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("refresh_materialized_views failed: %w", err)
	}
	return status, nil
}

func (db *DB) ensureAppMeta(ctx context.Context) error {
	_, err := db.ExecWithLog(ctx, `CREATE TABLE IF NOT EXISTS app_meta (key TEXT PRIMARY KEY, value TEXT)`)
	return err
}

func (db *DB) getAppMeta(ctx context.Context, key string) (string, error) {
	row := db.pool.QueryRow(ctx, `SELECT value FROM app_meta WHERE key = $1`, key)
	var v string
	if err := row.Scan(&v); err != nil {
		return "", err
	}
	return v, nil
}

func (db *DB) setAppMeta(ctx context.Context, key, value string) error {
	sql := `INSERT INTO app_meta(key, value) VALUES($1, $2)
	        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	_, err := db.pool.Exec(ctx, sql, key, value)
	return err
}
