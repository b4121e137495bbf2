package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/watchdoc/app/database"
)

func TestCriticalMessage(t *testing.T) {
	msg := CriticalMessage("Example Docs", "pricing section rewritten")
	want := "Website: Example Docs. Change detected: pricing section rewritten"
	if msg != want {
		t.Errorf("Expected %q, got %q", want, msg)
	}
}

func TestGeneralDigestChangedDocument(t *testing.T) {
	scanTime := time.Date(2026, time.March, 5, 14, 30, 0, 0, time.UTC)
	entries := []DigestEntry{
		{
			Document: database.Document{Title: "Example Docs", URL: "https://example.com/docs"},
			LatestScan: &database.Scan{
				CreatedAt:     scanTime,
				Changed:       true,
				Severity:      "Major",
				ChangeSummary: "pricing table replaced",
				Additions:     "new tier\nnew FAQ entry",
				Deletions:     "old tier",
				Modifications: "",
			},
		},
	}

	digest := GeneralDigest(entries)

	if !strings.Contains(digest, "all 1 monitored websites") {
		t.Errorf("Expected document count header, got %q", digest)
	}
	if !strings.Contains(digest, "**Example Docs** (https://example.com/docs):") {
		t.Errorf("Expected document heading, got %q", digest)
	}
	if !strings.Contains(digest, "Last scanned: March 05, 2026 at 02:30 PM") {
		t.Errorf("Expected formatted scan time, got %q", digest)
	}
	if !strings.Contains(digest, "Status: Major") {
		t.Errorf("Expected severity, got %q", digest)
	}
	if !strings.Contains(digest, "Change detected: pricing table replaced") {
		t.Errorf("Expected change summary, got %q", digest)
	}
	if !strings.Contains(digest, "2 addition(s)") {
		t.Errorf("Expected addition count, got %q", digest)
	}
	if !strings.Contains(digest, "1 deletion(s)") {
		t.Errorf("Expected deletion count, got %q", digest)
	}
	if strings.Contains(digest, "modification(s)") {
		t.Errorf("Did not expect modification count for empty category, got %q", digest)
	}
}

func TestGeneralDigestUnchangedDocumentTruncatesSummary(t *testing.T) {
	entries := []DigestEntry{
		{
			Document: database.Document{Title: "Quiet Page", URL: "https://example.com/quiet"},
			LatestScan: &database.Scan{
				CreatedAt:      time.Now(),
				Changed:        false,
				Severity:       "No Change",
				CurrentSummary: strings.Repeat("s", summaryPreviewLength+50),
			},
		},
	}

	digest := GeneralDigest(entries)

	if !strings.Contains(digest, "No changes detected since last scan") {
		t.Errorf("Expected unchanged note, got %q", digest)
	}
	if !strings.Contains(digest, strings.Repeat("s", summaryPreviewLength)+"...") {
		t.Error("Expected truncated summary preview")
	}
	if strings.Contains(digest, strings.Repeat("s", summaryPreviewLength+1)) {
		t.Error("Expected summary preview capped at limit")
	}
}

func TestGeneralDigestNeverScannedDocument(t *testing.T) {
	entries := []DigestEntry{
		{Document: database.Document{Title: "New Page", URL: "https://example.com/new"}},
	}

	digest := GeneralDigest(entries)

	if !strings.Contains(digest, "Not yet scanned") {
		t.Errorf("Expected not-yet-scanned note, got %q", digest)
	}
}
