package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wonkyeggs/eggtrack/eggtrack"
)

const sessionTokenTTL = 7 * 24 * time.Hour

// Principal is the authenticated subject derived from a verified session
// token.
type Principal struct {
	SubjectID   string
	AccessLevel AccessLevel
	ExpiresAt   time.Time
}

// IsAdmin reports whether the principal holds admin access.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.AccessLevel == AccessLevelAdmin
}

// TokenService mints and verifies HS256 session tokens. The signing secret is
// shared with the database policy engine so row-level policies can evaluate
// claims directly; it never leaves the server side.
type TokenService struct {
	secret      []byte
	supabaseURL string
	now         func() time.Time
}

func NewTokenService(auth eggtrack.AuthConfig) *TokenService {
	return &TokenService{
		secret:      []byte(auth.JWTSecret),
		supabaseURL: auth.SupabaseURL,
		now:         time.Now,
	}
}

// WithClock overrides the clock for tests.
func (t *TokenService) WithClock(now func() time.Time) *TokenService {
	t.now = now
	return t
}

// Mint issues a session token for a verified guild member.
func (t *TokenService) Mint(user *DiscordUser, accessLevel AccessLevel) (string, time.Time, error) {
	if len(t.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("JWT secret not configured")
	}

	now := t.now()
	expiresAt := now.Add(sessionTokenTTL)

	claims := jwt.MapClaims{
		"iss":          t.supabaseURL + "/auth/v1",
		"sub":          user.ID,
		"aud":          "authenticated",
		"role":         "authenticated",
		"iat":          now.Unix(),
		"exp":          expiresAt.Unix(),
		"email":        "",
		"phone":        "",
		"discord_id":   user.ID,
		"access_level": string(accessLevel),
		"app_metadata": map[string]interface{}{
			"provider":  "discord",
			"providers": []string{"discord"},
		},
		"user_metadata": map[string]interface{}{
			"discord_id":  user.ID,
			"username":    user.Username,
			"global_name": user.GlobalName,
			"avatar":      user.Avatar,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and expiry of a bearer token and returns its
// principal.
func (t *TokenService) Verify(tokenString string) (*Principal, error) {
	if len(t.secret) == 0 {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	parsed, err := jwt.Parse(tokenString,
		func(token *jwt.Token) (interface{}, error) {
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid session token claims")
	}

	principal := &Principal{AccessLevel: AccessLevelUser}

	if discordID, ok := claims["discord_id"].(string); ok && discordID != "" {
		principal.SubjectID = discordID
	} else if sub, ok := claims["sub"].(string); ok {
		principal.SubjectID = sub
	}

	if level, ok := claims["access_level"].(string); ok && level == string(AccessLevelAdmin) {
		principal.AccessLevel = AccessLevelAdmin
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		principal.ExpiresAt = exp.Time
	}

	return principal, nil
}
