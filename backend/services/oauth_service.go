package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonkyeggs/eggtrack/eggtrack"
)

const defaultDiscordAPIBase = "https://discord.com/api"

// ErrNotGuildMember marks the 404 from the guild-member endpoint: the user is
// not in the configured guild.
var ErrNotGuildMember = errors.New("user is not a member of the guild")

// DiscordUser is a Discord user from the API.
type DiscordUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	GlobalName    string `json:"global_name"`
	Avatar        string `json:"avatar"`
}

// DiscordGuildMember is a guild membership from the API.
type DiscordGuildMember struct {
	User  *DiscordUser `json:"user"`
	Roles []string     `json:"roles"`
	Nick  string       `json:"nick"`
}

// AccessLevel is the column-masking tier carried in session tokens.
type AccessLevel string

const (
	AccessLevelUser  AccessLevel = "user"
	AccessLevelAdmin AccessLevel = "admin"
)

// OAuthService exchanges Discord authorization codes and derives the caller's
// access level from guild roles.
type OAuthService struct {
	auth       eggtrack.AuthConfig
	apiBase    string
	httpClient *http.Client
}

func NewOAuthService(auth eggtrack.AuthConfig) *OAuthService {
	return &OAuthService{
		auth:    auth,
		apiBase: defaultDiscordAPIBase,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewOAuthServiceWithBase exists for tests against a local server.
func NewOAuthServiceWithBase(auth eggtrack.AuthConfig, apiBase string) *OAuthService {
	s := NewOAuthService(auth)
	s.apiBase = strings.TrimSuffix(apiBase, "/")
	return s
}

// ExchangeCodeForToken exchanges an authorization code for an access token.
func (o *OAuthService) ExchangeCodeForToken(ctx context.Context, code, redirectURI string) (string, error) {
	data := url.Values{}
	data.Set("client_id", o.auth.ClientID)
	data.Set("client_secret", o.auth.ClientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiBase+"/oauth2/token",
		strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code for token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("discord API error: %s", string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
		Scope       string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	return tokenResp.AccessToken, nil
}

// GetUserInfo gets the authenticated user's profile.
func (o *OAuthService) GetUserInfo(ctx context.Context, accessToken string) (*DiscordUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.apiBase+"/users/@me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("discord API error: %s", string(body))
	}

	var user DiscordUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &user, nil
}

// GetGuildMember gets the user's membership in the configured guild. A 404
// becomes ErrNotGuildMember.
func (o *OAuthService) GetGuildMember(ctx context.Context, accessToken string) (*DiscordGuildMember, error) {
	if o.auth.Guild == 0 {
		return nil, fmt.Errorf("guild ID not configured")
	}

	memberURL := fmt.Sprintf("%s/v10/users/@me/guilds/%s/member", o.apiBase, o.auth.Guild)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, memberURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create guild member request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild member info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotGuildMember
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("discord API error: %s", string(body))
	}

	var member DiscordGuildMember
	if err := json.NewDecoder(resp.Body).Decode(&member); err != nil {
		return nil, fmt.Errorf("failed to decode guild member info: %w", err)
	}
	return &member, nil
}

// DetermineAccess maps guild roles to an access level. Membership requires the
// Maj or YC role; YC and wonky-leader holders are admins.
func (o *OAuthService) DetermineAccess(roles []string) (AccessLevel, bool) {
	majRole := o.auth.MajRole.String()
	ycRole := o.auth.YCRole.String()
	adminRole := o.auth.WonkyLeaderRole.String()

	hasMember := false
	isAdmin := false
	for _, role := range roles {
		if role == majRole || role == ycRole {
			hasMember = true
		}
		if role == ycRole || role == adminRole {
			isAdmin = true
		}
	}

	if !hasMember {
		return "", false
	}
	if isAdmin {
		return AccessLevelAdmin, true
	}
	return AccessLevelUser, true
}
