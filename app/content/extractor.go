package content

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// maxContentLength bounds how much extracted text is persisted per scan
const maxContentLength = 50000

const truncationMarker = "\n\n[Content truncated due to size]"

// mainContentSelectors are tried in order before falling back to the full
// body text
var mainContentSelectors = []string{"main", "article", "div.content", "div.main", "div.article"}

// Extractor fetches a page and extracts its readable text. It is strictly
// best-effort: any failure is reported as a descriptive string in place of
// content, never as an error, so a scan always has something to persist.
type Extractor struct {
	httpClient *http.Client
	userAgent  string
}

func NewExtractor(userAgent string) *Extractor {
	return &Extractor{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  userAgent,
	}
}

// Run fetches url and returns its extracted text, or an error description
func (e *Extractor) Run(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.Error("Failed to build content request", "url", url, "error", err)
		return fmt.Sprintf("Error fetching content: %s", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		slog.Error("Failed to fetch URL", "url", url, "error", err)
		return fmt.Sprintf("Error fetching content: %s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("Failed to fetch URL", "url", url, "status", resp.Status)
		return fmt.Sprintf("Error fetching content: HTTP error %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		slog.Error("Failed to parse content", "url", url, "error", err)
		return fmt.Sprintf("Error parsing content: %s", err)
	}

	return extractText(doc)
}

// extractText strips non-content markup, prefers a main-content region over
// the full body, collapses blank lines and caps the result
func extractText(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, header").Remove()

	var text string
	for _, selector := range mainContentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			text = sel.First().Text()
			break
		}
	}
	if strings.TrimSpace(text) == "" {
		text = doc.Find("body").Text()
	}
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	clean := strings.Join(lines, "\n")

	if len(clean) > maxContentLength {
		clean = clean[:maxContentLength] + truncationMarker
	}

	return clean
}
