package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	webmodels "github.com/wonkyeggs/eggtrack/backend/models"
	webservices "github.com/wonkyeggs/eggtrack/backend/services"
	"github.com/wonkyeggs/eggtrack/backend/utils"
)

// DiscordAuth exchanges an authorization code for a signed session token.
// Failure modes: 400 missing field, 403 access denied with a user-readable
// message, 500 otherwise.
func DiscordAuth(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.AuthRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		if req.Code == "" {
			return utils.SendBadRequest(c, "Missing authorization code", map[string]string{"code": "required"})
		}
		if req.RedirectURI == "" {
			return utils.SendBadRequest(c, "Missing redirect URI", map[string]string{"redirect_uri": "required"})
		}

		ctx := c.Context()

		accessToken, err := app.OAuthService.ExchangeCodeForToken(ctx, req.Code, req.RedirectURI)
		if err != nil {
			slog.Error("Discord code exchange failed",
				slog.String("type", "http"),
				slog.Any("error", err))
			return utils.SendInternalServerError(c, "Authentication failed")
		}

		user, err := app.OAuthService.GetUserInfo(ctx, accessToken)
		if err != nil {
			slog.Error("Discord user lookup failed",
				slog.String("type", "http"),
				slog.Any("error", err))
			return utils.SendInternalServerError(c, "Authentication failed")
		}

		member, err := app.OAuthService.GetGuildMember(ctx, accessToken)
		if err != nil {
			if errors.Is(err, webservices.ErrNotGuildMember) {
				return utils.SendAccessDenied(c, "You must be a member of the guild to sign in")
			}
			slog.Error("Discord guild member lookup failed",
				slog.String("type", "http"),
				slog.Any("error", err))
			return utils.SendInternalServerError(c, "Authentication failed")
		}

		accessLevel, ok := app.OAuthService.DetermineAccess(member.Roles)
		if !ok {
			return utils.SendAccessDenied(c, "You need the Maj or YC role to access the tracker")
		}

		sessionToken, expiresAt, err := app.TokenService.Mint(user, accessLevel)
		if err != nil {
			slog.Error("Session token mint failed",
				slog.String("type", "http"),
				slog.Any("error", err))
			return utils.SendInternalServerError(c, "Authentication failed")
		}

		slog.Info("Session issued",
			slog.String("type", "http"),
			slog.String("discord_id", user.ID),
			slog.String("access_level", string(accessLevel)))

		return c.JSON(webmodels.AuthResponse{
			JWT: sessionToken,
			User: webmodels.AuthUser{
				DiscordID:  user.ID,
				Username:   user.Username,
				GlobalName: user.GlobalName,
				Avatar:     user.Avatar,
			},
			AccessLevel: string(accessLevel),
			ExpiresAt:   expiresAt.Unix(),
		})
	}
}
