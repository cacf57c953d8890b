package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// YearlyGain is one egg day year's start/end progression for a player.
type YearlyGain struct {
	Year  int        `json:"year"`
	Start GainValues `json:"start"`
	End   GainValues `json:"end"`
}

type GainValues struct {
	SE        float64 `json:"SE"`
	PE        int     `json:"PE"`
	EB        float64 `json:"EB"`
	Role      string  `json:"Role"`
	Prestiges int     `json:"Prestiges"`
}

// PlayerRecord is one player's telemetry from a single poll. UpdatedAt is the
// upstream's own refresh timestamp for the player; nil when unparseable, in
// which case the record is excluded from sync-window math.
type PlayerRecord struct {
	ID              string       `json:"ID"`
	IGN             string       `json:"IGN"`
	DisplayName     *string      `json:"displayName"`
	DiscordName     string       `json:"discordName"`
	FarmerRole      *string      `json:"farmerRole"`
	Grade           string       `json:"grade"`
	Active          bool         `json:"active"`
	IsGuest         bool         `json:"isGuest"`
	EB              float64      `json:"EB"`
	SE              float64      `json:"SE"`
	PE              int          `json:"PE"`
	TE              *int         `json:"TE"`
	NumPrestiges    *int         `json:"numPrestiges"`
	UpdatedAt       *time.Time   `json:"updatedAt"`
	GainsSaturday   *float64     `json:"gainsSaturday"`
	MaxMysticalEggs *int         `json:"maxMysticalEggs"`
	EggDay          []YearlyGain `json:"eggDay"`
}

// wireRecord mirrors the upstream JSON field-for-field.
type wireRecord struct {
	ID           string  `json:"ID"`
	IGN          string  `json:"IGN"`
	DiscordName  string  `json:"discordName"`
	DisplayName  *string `json:"displayName"`
	FarmerRole   *string `json:"farmerRole"`
	Grade        string  `json:"grade"`
	Active       bool    `json:"active"`
	IsGuest      bool    `json:"isGuest"`
	EB           float64 `json:"EB"`
	SE           float64 `json:"SE"`
	PE           int     `json:"PE"`
	TE           *int    `json:"TE"`
	NumPrestiges *int    `json:"numPrestiges"`
	UpdatedAt    string  `json:"updatedAt"`
	Gains        struct {
		Saturday *float64     `json:"saturday"`
		EggDay   []YearlyGain `json:"eggDay"`
	} `json:"gains"`
	MaxMysticalEggs *int `json:"maxMysticalEggs"`
}

// Client fetches the current player set from the wonky data service.
type Client struct {
	endpointURL string
	httpClient  *http.Client
}

func NewClient(endpointURL string, timeout time.Duration) *Client {
	return &Client{
		endpointURL: endpointURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch performs one poll. A non-2xx status, a non-array payload or an empty
// array are all surfaced as errors; the controller treats any of them as "no
// data" and leaves cache and state untouched.
func (c *Client) Fetch(ctx context.Context) ([]PlayerRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, string(body))
	}

	var wire []wireRecord
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("upstream payload is not a player array: %w", err)
	}

	if len(wire) == 0 {
		return nil, fmt.Errorf("upstream returned an empty player array")
	}

	records := make([]PlayerRecord, 0, len(wire))
	for _, w := range wire {
		records = append(records, w.toRecord())
	}

	slog.Debug("Upstream poll complete",
		slog.String("type", "http"),
		slog.Int("players", len(records)))

	return records, nil
}

func (w wireRecord) toRecord() PlayerRecord {
	rec := PlayerRecord{
		ID:              w.ID,
		IGN:             w.IGN,
		DisplayName:     w.DisplayName,
		DiscordName:     w.DiscordName,
		FarmerRole:      w.FarmerRole,
		Grade:           w.Grade,
		Active:          w.Active,
		IsGuest:         w.IsGuest,
		EB:              w.EB,
		SE:              w.SE,
		PE:              w.PE,
		TE:              w.TE,
		NumPrestiges:    w.NumPrestiges,
		GainsSaturday:   w.Gains.Saturday,
		MaxMysticalEggs: w.MaxMysticalEggs,
		EggDay:          w.Gains.EggDay,
	}

	if w.UpdatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, w.UpdatedAt); err == nil {
			rec.UpdatedAt = &ts
		} else {
			slog.Warn("Unparseable updatedAt from upstream",
				slog.String("type", "http"),
				slog.String("player", w.IGN),
				slog.String("value", w.UpdatedAt))
		}
	}

	return rec
}
