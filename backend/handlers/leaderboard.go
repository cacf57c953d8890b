package handlers

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilm/fuzzy"

	"github.com/wonkyeggs/eggtrack/backend/middleware"
	webmodels "github.com/wonkyeggs/eggtrack/backend/models"
	"github.com/wonkyeggs/eggtrack/backend/utils"
	"github.com/wonkyeggs/eggtrack/eggtrack/database/repositories"
)

// GetLeaderboard serves the full current-state cache. When the freshness
// marker is stale and the upstream answers, the cache is refreshed first.
// Search requests bypass the response cache.
func GetLeaderboard(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := middleware.GetPrincipal(c)
		if principal == nil {
			return utils.SendUnauthorized(c, "Authentication required")
		}

		search := strings.TrimSpace(c.Query("search"))

		cacheKey := responseCacheKey("leaderboard", principal.AccessLevel, "")
		if search == "" {
			if payload, ok := app.getCachedResponse(cacheKey); ok {
				return c.JSON(payload)
			}
		}

		ctx := c.Context()
		fromCache := true

		lastUpdated, err := app.Cache.GetFreshness(ctx)
		if err != nil {
			slog.Warn("Freshness lookup failed",
				slog.String("type", "http"),
				slog.Any("error", err))
		}

		stale := lastUpdated == nil || time.Since(*lastUpdated) >= app.Config.CacheDuration()
		if stale && app.Upstream != nil {
			if records, fetchErr := app.Upstream.Fetch(ctx); fetchErr == nil {
				now := time.Now().UTC()
				if _, replaceErr := app.Cache.Replace(ctx, records, now); replaceErr == nil {
					app.invalidateResponseCache()
					lastUpdated = &now
					fromCache = false
				}
			} else {
				// Serve the stale rows; the poll controller will self-heal.
				slog.Warn("Stale-cache refresh failed, serving cached rows",
					slog.String("type", "http"),
					slog.Any("error", fetchErr))
			}
		}

		entries, err := app.Cache.GetAll(ctx)
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to read leaderboard cache")
		}

		isAdmin := principal.IsAdmin()
		players := make([]webmodels.LeaderboardPlayer, 0, len(entries))
		for _, entry := range entries {
			players = append(players, maskPlayer(entry, isAdmin))
		}

		if search != "" {
			players = filterPlayers(players, search)
		}

		resp := webmodels.LeaderboardResponse{
			Players:     players,
			LastUpdated: lastUpdated,
			PlayerCount: len(players),
			FromCache:   fromCache,
		}
		if search == "" {
			app.setCachedResponse(cacheKey, resp)
		}
		return c.JSON(resp)
	}
}

// filterPlayers fuzzy-matches on IGN and display name, keeping match order.
func filterPlayers(players []webmodels.LeaderboardPlayer, query string) []webmodels.LeaderboardPlayer {
	targets := make([]string, len(players))
	for i, p := range players {
		name := p.IGN
		if p.DisplayName != nil && *p.DisplayName != "" {
			name += " " + *p.DisplayName
		}
		targets[i] = name
	}

	matches := fuzzy.Find(query, targets)
	filtered := make([]webmodels.LeaderboardPlayer, 0, len(matches))
	for _, m := range matches {
		filtered = append(filtered, players[m.Index])
	}
	return filtered
}

// GetPlayerCurrentStats serves one cache row: the caller's own without a
// parameter, any player's for admins via ?discord_id=.
func GetPlayerCurrentStats(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := middleware.GetPrincipal(c)
		if principal == nil {
			return utils.SendUnauthorized(c, "Authentication required")
		}

		target := c.Query("discord_id")
		if target != "" && target != principal.SubjectID && !principal.IsAdmin() {
			return utils.SendForbidden(c, "Admin access required to view other players")
		}
		if target == "" {
			target = principal.SubjectID
		}

		cacheKey := responseCacheKey("player-stats", principal.AccessLevel, target)
		if payload, ok := app.getCachedResponse(cacheKey); ok {
			return c.JSON(payload)
		}

		ctx := c.Context()

		entry, err := app.Cache.GetByDiscordID(ctx, target)
		if err != nil {
			if repositories.IsNotFound(err) {
				return utils.SendNotFound(c, "Player not found in the current leaderboard")
			}
			return utils.SendInternalServerError(c, "Failed to read leaderboard cache")
		}

		lastUpdated, _ := app.Cache.GetFreshness(ctx)

		player := maskPlayer(entry, principal.IsAdmin())
		resp := webmodels.PlayerStatsResponse{
			Player:      &player,
			LastUpdated: lastUpdated,
			FromCache:   true,
		}
		app.setCachedResponse(cacheKey, resp)
		return c.JSON(resp)
	}
}
