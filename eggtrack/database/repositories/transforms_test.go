package repositories

import (
	"testing"
	"time"

	"github.com/wonkyeggs/eggtrack/eggtrack/upstream"
)

var importTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func sampleRecord() upstream.PlayerRecord {
	role := "Infinifarmer"
	prestiges := 77
	updated := importTime.Add(-10 * time.Minute)
	return upstream.PlayerRecord{
		ID:           "111",
		IGN:          "alpha",
		DiscordName:  "alpha#0",
		FarmerRole:   &role,
		Grade:        "aaa",
		Active:       true,
		EB:           1.5e18,
		SE:           2.5e14,
		PE:           321,
		NumPrestiges: &prestiges,
		UpdatedAt:    &updated,
		EggDay: []upstream.YearlyGain{
			{
				Year:  2025,
				Start: upstream.GainValues{SE: 1e14, PE: 300, Role: "Farmer", Prestiges: 70},
				End:   upstream.GainValues{SE: 2e14, PE: 310, Role: "Farmer", Prestiges: 74},
			},
		},
	}
}

func TestToCacheEntryNormalizesGrade(t *testing.T) {
	rec := sampleRecord()
	entry := toCacheEntry(&rec)

	if entry.Grade != "AAA" {
		t.Errorf("toCacheEntry() grade = %q, want uppercase AAA", entry.Grade)
	}
	if entry.DiscordID != "111" || entry.IGN != "alpha" {
		t.Errorf("toCacheEntry() identity = %q/%q, want 111/alpha", entry.DiscordID, entry.IGN)
	}
	if entry.NumPrestiges == nil || *entry.NumPrestiges != 77 {
		t.Errorf("toCacheEntry() numPrestiges = %v, want 77", entry.NumPrestiges)
	}
}

func TestToSnapshotRowKeepsUpstreamGrade(t *testing.T) {
	rec := sampleRecord()
	row := toSnapshotRow(&rec, "2026-08-01", importTime)

	if row.Grade != "aaa" {
		t.Errorf("toSnapshotRow() grade = %q, want the upstream spelling", row.Grade)
	}
	if row.SnapshotDate != "2026-08-01" || row.DiscordID != "111" {
		t.Errorf("toSnapshotRow() key = (%q,%q), want (2026-08-01,111)", row.SnapshotDate, row.DiscordID)
	}
	if row.UpdatedAt == nil || !row.UpdatedAt.Equal(importTime.Add(-10*time.Minute)) {
		t.Errorf("toSnapshotRow() updatedAt = %v, want the upstream refresh time", row.UpdatedAt)
	}
	if !row.ImportedAt.Equal(importTime) {
		t.Errorf("toSnapshotRow() importedAt = %v, want %v", row.ImportedAt, importTime)
	}
}

func TestToEggdayRow(t *testing.T) {
	rec := sampleRecord()
	row := toEggdayRow(rec.ID, rec.EggDay[0], importTime)

	if row.DiscordID != "111" || row.Year != 2025 {
		t.Errorf("toEggdayRow() key = (%q,%d), want (111,2025)", row.DiscordID, row.Year)
	}
	if row.StartSE != 1e14 || row.EndSE != 2e14 {
		t.Errorf("toEggdayRow() SE = %v..%v, want 1e14..2e14", row.StartSE, row.EndSE)
	}
	if row.StartPrestiges != 70 || row.EndPrestiges != 74 {
		t.Errorf("toEggdayRow() prestiges = %d..%d, want 70..74", row.StartPrestiges, row.EndPrestiges)
	}
}
