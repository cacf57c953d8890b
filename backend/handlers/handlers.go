package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	lru "github.com/hashicorp/golang-lru"

	"github.com/wonkyeggs/eggtrack/backend/config"
	webmodels "github.com/wonkyeggs/eggtrack/backend/models"
	webservices "github.com/wonkyeggs/eggtrack/backend/services"
	"github.com/wonkyeggs/eggtrack/eggtrack/controller"
	"github.com/wonkyeggs/eggtrack/eggtrack/database"
	"github.com/wonkyeggs/eggtrack/eggtrack/database/models"
	"github.com/wonkyeggs/eggtrack/eggtrack/database/repositories"
	"github.com/wonkyeggs/eggtrack/eggtrack/notify"
)

const (
	responseCacheSize = 128
	responseCacheTTL  = time.Minute
)

// WebApp bundles the dependencies every handler needs.
type WebApp struct {
	Config       *config.WebAppConfig
	DB           *database.DB
	Cache        repositories.CacheRepository
	Snapshots    repositories.SnapshotRepository
	EmailLog     repositories.EmailLogRepository
	Upstream     controller.Fetcher
	Controller   *controller.Controller
	Dispatcher   *notify.Dispatcher
	OAuthService *webservices.OAuthService
	TokenService *webservices.TokenService
	Version      string
	Commit       string

	respCache *lru.Cache
}

// NewWebApp wires the handler dependency bundle and its response cache.
func NewWebApp(cfg *config.WebAppConfig) *WebApp {
	cache, _ := lru.New(responseCacheSize)
	return &WebApp{
		Config:    cfg,
		respCache: cache,
	}
}

type cachedResponse struct {
	payload  interface{}
	storedAt time.Time
}

// responseCacheKey keys the cache on endpoint and access level (plus the
// caller for per-player lookups). The session token itself never appears in
// the key; masking is applied before caching.
func responseCacheKey(endpoint string, level webservices.AccessLevel, discordID string) string {
	return fmt.Sprintf("%s|%s|%s", endpoint, level, discordID)
}

func (app *WebApp) getCachedResponse(key string) (interface{}, bool) {
	if app.respCache == nil {
		return nil, false
	}
	v, ok := app.respCache.Get(key)
	if !ok {
		return nil, false
	}
	cached, ok := v.(cachedResponse)
	if !ok || time.Since(cached.storedAt) > responseCacheTTL {
		app.respCache.Remove(key)
		return nil, false
	}
	return cached.payload, true
}

func (app *WebApp) setCachedResponse(key string, payload interface{}) {
	if app.respCache == nil {
		return
	}
	app.respCache.Add(key, cachedResponse{payload: payload, storedAt: time.Now()})
}

// invalidateResponseCache drops every cached read response; called after any
// cache or snapshot mutation through the HTTP surface.
func (app *WebApp) invalidateResponseCache() {
	if app.respCache != nil {
		app.respCache.Purge()
	}
}

// HealthCheck reports DB reachability and cache freshness.
func HealthCheck(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := fiber.Map{
			"status":  "ok",
			"version": app.Version,
			"commit":  app.Commit,
		}

		if err := app.DB.Ping(c.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
		status["database"] = "ok"

		if last, err := app.Cache.GetFreshness(c.Context()); err == nil && last != nil {
			status["cacheLastUpdated"] = last.UTC().Format(time.RFC3339)
			status["cacheFresh"] = time.Since(*last) < app.Config.CacheDuration()
		}

		return c.JSON(status)
	}
}

// maskPlayer converts a cache row to its client shape, nulling num_prestiges
// for non-admin callers.
func maskPlayer(entry *models.LeaderboardCacheEntry, isAdmin bool) webmodels.LeaderboardPlayer {
	player := webmodels.LeaderboardPlayer{
		DiscordID:   entry.DiscordID,
		IGN:         entry.IGN,
		DisplayName: entry.DisplayName,
		DiscordName: entry.DiscordName,
		FarmerRole:  entry.FarmerRole,
		Grade:       entry.Grade,
		IsGuest:     entry.IsGuest,
		Active:      entry.Active,
		EB:          entry.EB,
		SE:          entry.SE,
		PE:          entry.PE,
		TE:          entry.TE,
	}
	if isAdmin {
		player.NumPrestiges = entry.NumPrestiges
	}
	return player
}
