package notify

import (
	"fmt"
	"strings"

	"github.com/lysyi3m/watchdoc/app/database"
)

const summaryPreviewLength = 200

// CriticalMessage composes the alert text for a detected change
func CriticalMessage(title, changeDescription string) string {
	return fmt.Sprintf("Website: %s. Change detected: %s", title, changeDescription)
}

// DigestEntry pairs a monitored document with its latest scan, if any
type DigestEntry struct {
	Document   database.Document
	LatestScan *database.Scan
}

// GeneralDigest composes the multi-document status message for a
// conversational update call: per document the last scan time, severity,
// and either change details with per-category counts or a truncated
// current-summary preview.
func GeneralDigest(entries []DigestEntry) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Here is the current status of all %d monitored websites:\n", len(entries)))

	for _, entry := range entries {
		var info strings.Builder
		fmt.Fprintf(&info, "\n**%s** (%s):", entry.Document.Title, entry.Document.URL)

		scan := entry.LatestScan
		if scan == nil {
			info.WriteString("\n- Not yet scanned")
			parts = append(parts, info.String())
			continue
		}

		fmt.Fprintf(&info, "\n- Last scanned: %s", scan.CreatedAt.Format("January 02, 2006 at 03:04 PM"))
		fmt.Fprintf(&info, "\n- Status: %s", scan.Severity)

		if scan.Changed && scan.ChangeSummary != "" {
			fmt.Fprintf(&info, "\n- Change detected: %s", scan.ChangeSummary)

			if n := countLines(scan.Additions); n > 0 {
				fmt.Fprintf(&info, "\n- %d addition(s)", n)
			}
			if n := countLines(scan.Deletions); n > 0 {
				fmt.Fprintf(&info, "\n- %d deletion(s)", n)
			}
			if n := countLines(scan.Modifications); n > 0 {
				fmt.Fprintf(&info, "\n- %d modification(s)", n)
			}
		} else if !scan.Changed {
			info.WriteString("\n- No changes detected since last scan")
			if scan.CurrentSummary != "" {
				preview := scan.CurrentSummary
				if len(preview) > summaryPreviewLength {
					preview = preview[:summaryPreviewLength] + "..."
				}
				fmt.Fprintf(&info, "\n- Current content: %s", preview)
			}
		}

		parts = append(parts, info.String())
	}

	return strings.Join(parts, "\n")
}

func countLines(s string) int {
	count := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}
