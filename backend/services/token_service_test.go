package services

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wonkyeggs/eggtrack/eggtrack"
)

var testAuth = eggtrack.AuthConfig{
	SupabaseURL: "https://example.supabase.co",
	JWTSecret:   "test-secret-test-secret-test-secret",
}

var mintTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func testUser() *DiscordUser {
	return &DiscordUser{
		ID:         "123456789012345678",
		Username:   "eggfarmer",
		GlobalName: "Egg Farmer",
		Avatar:     "abcdef",
	}
}

func TestMintVerifyRoundTrip(t *testing.T) {
	svc := NewTokenService(testAuth).WithClock(func() time.Time { return mintTime })

	token, expiresAt, err := svc.Mint(testUser(), AccessLevelAdmin)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if want := mintTime.Add(7 * 24 * time.Hour); !expiresAt.Equal(want) {
		t.Errorf("Mint() expiresAt = %v, want %v", expiresAt, want)
	}

	principal, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if principal.SubjectID != "123456789012345678" {
		t.Errorf("Verify() subjectID = %q, want the discord ID", principal.SubjectID)
	}
	if principal.AccessLevel != AccessLevelAdmin {
		t.Errorf("Verify() accessLevel = %q, want admin", principal.AccessLevel)
	}
	if !principal.ExpiresAt.Equal(expiresAt.Truncate(time.Second)) {
		t.Errorf("Verify() expiresAt = %v, want %v", principal.ExpiresAt, expiresAt)
	}
}

func TestMintClaimSet(t *testing.T) {
	svc := NewTokenService(testAuth).WithClock(func() time.Time { return mintTime })

	token, _, err := svc.Mint(testUser(), AccessLevelUser)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte(testAuth.JWTSecret), nil
	}, jwt.WithTimeFunc(func() time.Time { return mintTime }))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)

	checks := map[string]string{
		"iss":          "https://example.supabase.co/auth/v1",
		"sub":          "123456789012345678",
		"aud":          "authenticated",
		"role":         "authenticated",
		"discord_id":   "123456789012345678",
		"access_level": "user",
		"email":        "",
		"phone":        "",
	}
	for key, want := range checks {
		if got, _ := claims[key].(string); got != want {
			t.Errorf("claim %q = %q, want %q", key, got, want)
		}
	}

	appMeta, ok := claims["app_metadata"].(map[string]interface{})
	if !ok || appMeta["provider"] != "discord" {
		t.Errorf("app_metadata = %v, want discord provider", claims["app_metadata"])
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc := NewTokenService(testAuth).WithClock(func() time.Time { return mintTime })

	token, _, err := svc.Mint(testUser(), AccessLevelUser)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	late := NewTokenService(testAuth).WithClock(func() time.Time {
		return mintTime.Add(8 * 24 * time.Hour)
	})
	if _, err := late.Verify(token); err == nil {
		t.Fatalf("Verify() accepted an expired token")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	svc := NewTokenService(testAuth).WithClock(func() time.Time { return mintTime })
	token, _, err := svc.Mint(testUser(), AccessLevelUser)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	other := testAuth
	other.JWTSecret = "a-completely-different-secret-value"
	if _, err := NewTokenService(other).Verify(token); err == nil {
		t.Fatalf("Verify() accepted a token signed with another secret")
	}
}

func TestVerifyRejectsWrongAlgorithm(t *testing.T) {
	svc := NewTokenService(testAuth)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"discord_id":   "123",
		"access_level": "admin",
		"exp":          time.Now().Add(time.Hour).Unix(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := svc.Verify(token); err == nil {
		t.Fatalf("Verify() accepted an unsigned token")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := NewTokenService(testAuth)
	for _, token := range []string{"", "not-a-token", strings.Repeat("x", 300)} {
		if _, err := svc.Verify(token); err == nil {
			t.Errorf("Verify(%q) accepted garbage", token)
		}
	}
}
