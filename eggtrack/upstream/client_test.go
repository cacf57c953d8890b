package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const samplePayload = `[
	{
		"ID": "111", "IGN": "alpha", "discordName": "alpha#0", "displayName": "Alpha",
		"farmerRole": "Infinifarmer", "grade": "aaa", "active": true, "isGuest": false,
		"EB": 1.5e18, "SE": 2.5e14, "PE": 321, "TE": 12, "numPrestiges": 77,
		"updatedAt": "2026-08-01T12:00:00Z",
		"gains": {
			"saturday": 1.25,
			"eggDay": [
				{"year": 2025,
				 "start": {"SE": 1e14, "PE": 300, "EB": 1e18, "Role": "Farmer", "Prestiges": 70},
				 "end":   {"SE": 2e14, "PE": 310, "EB": 1.2e18, "Role": "Farmer", "Prestiges": 74}}
			]
		},
		"maxMysticalEggs": 3
	},
	{
		"ID": "222", "IGN": "beta", "discordName": "beta#0", "displayName": null,
		"farmerRole": null, "grade": "AA", "active": true, "isGuest": true,
		"EB": 1, "SE": 1, "PE": 1, "TE": null, "numPrestiges": null,
		"updatedAt": "not-a-timestamp",
		"gains": {"saturday": null, "eggDay": []},
		"maxMysticalEggs": null
	}
]`

func TestFetchParsesRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	records, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Fetch() returned %d records, want 2", len(records))
	}

	alpha := records[0]
	if alpha.ID != "111" || alpha.IGN != "alpha" {
		t.Errorf("Fetch() first record = %+v, want alpha/111", alpha)
	}
	if alpha.UpdatedAt == nil || !alpha.UpdatedAt.Equal(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Fetch() alpha updatedAt = %v, want 2026-08-01T12:00:00Z", alpha.UpdatedAt)
	}
	if alpha.NumPrestiges == nil || *alpha.NumPrestiges != 77 {
		t.Errorf("Fetch() alpha numPrestiges = %v, want 77", alpha.NumPrestiges)
	}
	if alpha.GainsSaturday == nil || *alpha.GainsSaturday != 1.25 {
		t.Errorf("Fetch() alpha gainsSaturday = %v, want 1.25", alpha.GainsSaturday)
	}
	if len(alpha.EggDay) != 1 || alpha.EggDay[0].Year != 2025 || alpha.EggDay[0].End.PE != 310 {
		t.Errorf("Fetch() alpha eggDay = %+v, want one 2025 entry", alpha.EggDay)
	}

	beta := records[1]
	if beta.UpdatedAt != nil {
		t.Errorf("Fetch() beta updatedAt = %v, want nil for unparseable timestamp", beta.UpdatedAt)
	}
	if !beta.IsGuest {
		t.Errorf("Fetch() beta isGuest = false, want true")
	}
	if beta.TE != nil || beta.NumPrestiges != nil {
		t.Errorf("Fetch() beta TE/numPrestiges = %v/%v, want nil/nil", beta.TE, beta.NumPrestiges)
	}
}

func TestFetchRejectsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Fatalf("Fetch() accepted a 502")
	}
}

func TestFetchRejectsEmptyArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Fatalf("Fetch() accepted an empty array")
	}
}

func TestFetchRejectsNonArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"maintenance"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Fatalf("Fetch() accepted a non-array payload")
	}
}
