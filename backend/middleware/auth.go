package middleware

import (
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/wonkyeggs/eggtrack/backend/services"
	"github.com/wonkyeggs/eggtrack/backend/utils"
)

const (
	// PrincipalKey is where AuthRequired stores the verified principal.
	PrincipalKey = "principal"
	// OperatorKey marks requests authorized by the preshared operator token.
	OperatorKey = "operator"
)

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthRequired verifies the bearer session token and stores the principal.
func AuthRequired(tokens *services.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return utils.SendUnauthorized(c, "Authentication required")
		}

		principal, err := tokens.Verify(token)
		if err != nil {
			slog.Debug("Bearer token rejected",
				slog.String("type", "http"),
				slog.String("error", err.Error()))
			return utils.SendUnauthorized(c, "Invalid or expired session token")
		}

		c.Locals(PrincipalKey, principal)
		return c.Next()
	}
}

// AdminRequired ensures the verified principal has admin access. Must run
// after AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := GetPrincipal(c)
		if principal == nil {
			return utils.SendUnauthorized(c, "Authentication required")
		}
		if !principal.IsAdmin() {
			slog.Warn("Admin access denied",
				slog.String("type", "http"),
				slog.String("discord_id", principal.SubjectID))
			return utils.SendForbidden(c, "Admin access required")
		}
		return c.Next()
	}
}

// AdminOrOperator accepts either an admin session token or the preshared
// operator secret. Used by administrative endpoints reachable from tooling.
func AdminOrOperator(tokens *services.TokenService, secretToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if supplied := c.Get("x-secret-token"); supplied != "" && secretToken != "" {
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(secretToken)) == 1 {
				c.Locals(OperatorKey, true)
				return c.Next()
			}
			return utils.SendForbidden(c, "Invalid operator token")
		}

		token := BearerToken(c)
		if token == "" {
			return utils.SendUnauthorized(c, "Authentication required")
		}
		principal, err := tokens.Verify(token)
		if err != nil {
			return utils.SendUnauthorized(c, "Invalid or expired session token")
		}
		if !principal.IsAdmin() {
			return utils.SendForbidden(c, "Admin access required")
		}
		c.Locals(PrincipalKey, principal)
		return c.Next()
	}
}

// WriterAuth guards the snapshot writer endpoint: either the operator secret
// (external tooling) or the service-role key plus the internal-call marker
// (cron controller).
func WriterAuth(serviceRoleKey, secretToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if supplied := c.Get("x-secret-token"); supplied != "" && secretToken != "" {
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(secretToken)) == 1 {
				c.Locals(OperatorKey, true)
				return c.Next()
			}
		}

		if c.Get("x-internal-call") == "true" && serviceRoleKey != "" {
			if subtle.ConstantTimeCompare([]byte(BearerToken(c)), []byte(serviceRoleKey)) == 1 {
				return c.Next()
			}
		}

		return utils.SendUnauthorized(c, "Authentication required")
	}
}

// GetPrincipal returns the verified principal stored by the auth middleware.
func GetPrincipal(c *fiber.Ctx) *services.Principal {
	principal, _ := c.Locals(PrincipalKey).(*services.Principal)
	return principal
}

// IsOperator reports whether the request was authorized via the operator
// secret.
func IsOperator(c *fiber.Ctx) bool {
	operator, _ := c.Locals(OperatorKey).(bool)
	return operator
}
