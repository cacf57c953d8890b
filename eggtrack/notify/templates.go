package notify

import (
	"fmt"
	"strings"

	"github.com/wonkyeggs/eggtrack/eggtrack/database/repositories"
	"github.com/wonkyeggs/eggtrack/eggtrack/snapshot"
)

type emailBody struct {
	Subject string
	HTML    string
	Text    string
}

func snapshotSavedBody(decision snapshot.Decision, result *repositories.SaveResult) emailBody {
	subject := fmt.Sprintf("Snapshot saved for %s (%d players)", result.SnapshotDate, result.SnapshotsWritten)

	var text strings.Builder
	fmt.Fprintf(&text, "A new snapshot was saved for %s.\n\n", result.SnapshotDate)
	fmt.Fprintf(&text, "Players written: %d\n", result.SnapshotsWritten)
	fmt.Fprintf(&text, "Egg day rows written: %d\n", result.EggdayWritten)
	fmt.Fprintf(&text, "Sync percentage: %.1f%% (%d/%d in window)\n",
		decision.SyncPercentage, decision.PlayersInSyncWindow, decision.TotalNonExcluded)
	fmt.Fprintf(&text, "Excluded from denominator: %d\n", decision.ExcludedCount)
	fmt.Fprintf(&text, "Reason: %s\n", decision.Reason)
	fmt.Fprintf(&text, "View refresh: %s\n", result.RefreshResult)
	appendErrors(&text, result)

	var html strings.Builder
	html.WriteString("<h2>Snapshot saved</h2>")
	fmt.Fprintf(&html, "<p>A new snapshot was saved for <strong>%s</strong>.</p>", result.SnapshotDate)
	html.WriteString("<ul>")
	fmt.Fprintf(&html, "<li>Players written: %d</li>", result.SnapshotsWritten)
	fmt.Fprintf(&html, "<li>Egg day rows written: %d</li>", result.EggdayWritten)
	fmt.Fprintf(&html, "<li>Sync percentage: %.1f%% (%d/%d in window)</li>",
		decision.SyncPercentage, decision.PlayersInSyncWindow, decision.TotalNonExcluded)
	fmt.Fprintf(&html, "<li>Excluded from denominator: %d</li>", decision.ExcludedCount)
	fmt.Fprintf(&html, "<li>View refresh: %s</li>", result.RefreshResult)
	html.WriteString("</ul>")
	appendErrorsHTML(&html, result)

	return emailBody{Subject: subject, HTML: html.String(), Text: text.String()}
}

func partialSyncBody(decision snapshot.Decision, result *repositories.SaveResult) emailBody {
	subject := fmt.Sprintf("Snapshot saved with warnings for %s (%.1f%% sync)",
		result.SnapshotDate, decision.SyncPercentage)

	var text strings.Builder
	fmt.Fprintf(&text, "A snapshot was saved for %s after repeated partial syncs.\n\n", result.SnapshotDate)
	fmt.Fprintf(&text, "Sync percentage: %.1f%% (%d/%d in window)\n",
		decision.SyncPercentage, decision.PlayersInSyncWindow, decision.TotalNonExcluded)
	fmt.Fprintf(&text, "Retry attempts: %d\n", decision.PendingAttemptCount)
	fmt.Fprintf(&text, "Players written: %d\n\n", result.SnapshotsWritten)
	if len(decision.Missing) > 0 {
		text.WriteString("Players outside the sync window:\n")
		for _, m := range decision.Missing {
			fmt.Fprintf(&text, "  - %s (%s): %.2f hours behind\n", m.IGN, m.ID, m.TimeDifferenceHours)
		}
	}
	appendErrors(&text, result)

	var html strings.Builder
	html.WriteString("<h2>Snapshot saved with warnings</h2>")
	fmt.Fprintf(&html, "<p>A snapshot was saved for <strong>%s</strong> after repeated partial syncs.</p>", result.SnapshotDate)
	html.WriteString("<ul>")
	fmt.Fprintf(&html, "<li>Sync percentage: %.1f%% (%d/%d in window)</li>",
		decision.SyncPercentage, decision.PlayersInSyncWindow, decision.TotalNonExcluded)
	fmt.Fprintf(&html, "<li>Retry attempts: %d</li>", decision.PendingAttemptCount)
	fmt.Fprintf(&html, "<li>Players written: %d</li>", result.SnapshotsWritten)
	html.WriteString("</ul>")
	if len(decision.Missing) > 0 {
		html.WriteString("<h3>Players outside the sync window</h3><ul>")
		for _, m := range decision.Missing {
			fmt.Fprintf(&html, "<li>%s (%s): %.2f hours behind</li>", m.IGN, m.ID, m.TimeDifferenceHours)
		}
		html.WriteString("</ul>")
	}
	appendErrorsHTML(&html, result)

	return emailBody{Subject: subject, HTML: html.String(), Text: text.String()}
}

func weekNoUpdateBody(hoursSinceLastSave float64, lastSaved string) emailBody {
	days := hoursSinceLastSave / 24

	subject := "No snapshot saved for over a week"
	if lastSaved == "" {
		subject = "No snapshot has ever been saved"
	}

	var text strings.Builder
	if lastSaved == "" {
		text.WriteString("No snapshot has been saved since the tracker was deployed.\n")
	} else {
		fmt.Fprintf(&text, "The last snapshot was saved %.1f days ago (%s).\n", days, lastSaved)
	}
	text.WriteString("\nThe upstream population has not reached a synchronized state in over a week. ")
	text.WriteString("Check the wonky endpoint and the per-player updatedAt timestamps.\n")

	var html strings.Builder
	html.WriteString("<h2>Snapshot outage</h2>")
	if lastSaved == "" {
		html.WriteString("<p>No snapshot has been saved since the tracker was deployed.</p>")
	} else {
		fmt.Fprintf(&html, "<p>The last snapshot was saved <strong>%.1f days ago</strong> (%s).</p>", days, lastSaved)
	}
	html.WriteString("<p>The upstream population has not reached a synchronized state in over a week. " +
		"Check the wonky endpoint and the per-player updatedAt timestamps.</p>")

	return emailBody{Subject: subject, HTML: html.String(), Text: text.String()}
}

func appendErrors(text *strings.Builder, result *repositories.SaveResult) {
	if len(result.Errors) == 0 {
		return
	}
	fmt.Fprintf(text, "\nBatch errors (%d):\n", len(result.Errors))
	for _, e := range result.Errors {
		fmt.Fprintf(text, "  - %s\n", e)
	}
}

func appendErrorsHTML(html *strings.Builder, result *repositories.SaveResult) {
	if len(result.Errors) == 0 {
		return
	}
	fmt.Fprintf(html, "<h3>Batch errors (%d)</h3><ul>", len(result.Errors))
	for _, e := range result.Errors {
		fmt.Fprintf(html, "<li>%s</li>", e)
	}
	html.WriteString("</ul>")
}
