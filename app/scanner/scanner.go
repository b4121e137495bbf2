package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/lysyi3m/watchdoc/app/browseruse"
	"github.com/lysyi3m/watchdoc/app/database"
)

// ScanStore is the subset of the scan repository the orchestrator needs
type ScanStore interface {
	CreateScan(scan database.Scan) (database.Scan, error)
	GetLatestScan(documentID int64) (*database.Scan, error)
}

// Gateway drives the external comparison service
type Gateway interface {
	CompareDocument(ctx context.Context, url, title string, snapshot *browseruse.Snapshot) (*browseruse.Result, error)
}

// ContentFetcher returns page text, or a descriptive error string in place
// of content. It never fails.
type ContentFetcher interface {
	Run(ctx context.Context, url string) string
}

// Alerter places a voice call about a detected change
type Alerter interface {
	AlertChange(ctx context.Context, title, changeDescription string) (string, error)
}

// Scanner runs comparison scans for tracked documents and persists the
// resulting records
type Scanner struct {
	store       ScanStore
	gateway     Gateway
	fetcher     ContentFetcher
	alerter     Alerter // nil when voice alerts are not configured
	workerCount int
}

func NewScanner(store ScanStore, gateway Gateway, fetcher ContentFetcher, alerter Alerter, workerCount int) *Scanner {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Scanner{
		store:       store,
		gateway:     gateway,
		fetcher:     fetcher,
		alerter:     alerter,
		workerCount: workerCount,
	}
}

// rawPayload is the persisted raw-data blob. Its field names are the
// round-trip contract: the blob written here is read back as the previous
// snapshot on the next scan.
type rawPayload struct {
	DifferenceDetected    bool               `json:"difference_detected"`
	DifferenceDescription string             `json:"difference_description"`
	Severity              string             `json:"severity"`
	CurrentSummary        string             `json:"current_summary"`
	RawContent            string             `json:"raw_content"`
	Changes               browseruse.Changes `json:"changes"`
}

// RunScan performs one scan of a document: loads the prior snapshot, runs
// the comparison, fetches the current page text, and persists the record.
// A gateway failure aborts the scan without writing a record. A corrupt
// prior snapshot degrades to a baseline scan.
func (s *Scanner) RunScan(ctx context.Context, doc database.Document) (*database.Scan, error) {
	prior, err := s.store.GetLatestScan(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest scan: %w", err)
	}

	snapshot := snapshotFromScan(prior)

	result, err := s.gateway.CompareDocument(ctx, doc.URL, doc.Title, snapshot)
	if err != nil {
		slog.Error("Comparison failed", "document_id", doc.ID, "url", doc.URL, "error", err)
		return nil, err
	}

	rawContent := s.fetcher.Run(ctx, doc.URL)

	// The normalizer already repairs invalid severities; forcing No Change
	// here additionally covers a gateway that reports no difference with a
	// non-trivial severity.
	severity := result.Severity
	if !result.DifferenceDetected {
		severity = browseruse.SeverityNoChange
	}

	payload := rawPayload{
		DifferenceDetected:    result.DifferenceDetected,
		DifferenceDescription: result.DifferenceDescription,
		Severity:              severity,
		CurrentSummary:        result.CurrentSummary,
		RawContent:            rawContent,
		Changes:               result.Changes,
	}
	rawData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scan payload: %w", err)
	}

	scan, err := s.store.CreateScan(database.Scan{
		DocumentID:     doc.ID,
		Changed:        result.DifferenceDetected,
		Severity:       severity,
		ChangeSummary:  result.DifferenceDescription,
		CurrentSummary: result.CurrentSummary,
		Additions:      strings.Join(result.Changes.Added, "\n"),
		Deletions:      strings.Join(result.Changes.Removed, "\n"),
		Modifications:  strings.Join(result.Changes.Modified, "\n"),
		RawData:        string(rawData),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist scan: %w", err)
	}

	slog.Info("Scan completed",
		"document_id", doc.ID,
		"scan_id", scan.ID,
		"changed", scan.Changed,
		"severity", scan.Severity)

	if scan.Changed && s.alerter != nil {
		callID, err := s.alerter.AlertChange(ctx, doc.Title, result.DifferenceDescription)
		if err != nil {
			slog.Warn("Failed to place change alert call", "document_id", doc.ID, "scan_id", scan.ID, "error", err)
		} else {
			slog.Info("Change alert call placed", "document_id", doc.ID, "scan_id", scan.ID, "call_id", callID)
		}
	}

	return &scan, nil
}

// snapshotFromScan decodes the prior scan's raw-data blob into comparison
// context. A missing or undecodable blob collapses to no snapshot, never to
// an error.
func snapshotFromScan(prior *database.Scan) *browseruse.Snapshot {
	if prior == nil || prior.RawData == "" {
		return nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(prior.RawData), &data); err != nil {
		slog.Warn("Unable to decode raw scan data, treating as no previous snapshot",
			"scan_id", prior.ID, "document_id", prior.DocumentID, "error", err)
		return nil
	}

	return &browseruse.Snapshot{
		Summary:     firstText(data, "current_summary", "summary"),
		Description: firstText(data, "difference_description", "changeSummary"),
		RawContent:  firstText(data, "raw_content"),
	}
}

func firstText(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := data[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Outcome is the per-document result of a batch run. Err is set when the
// document's scan failed; the other fields describe the persisted record.
type Outcome struct {
	DocumentID int64
	ScanID     int64
	Changed    bool
	Severity   string
	Err        error
}

// RunAll scans every document on a bounded worker pool. Each document's
// outcome is independent: a failure is recorded in its slot and the batch
// continues. Slots are index-addressed, so the returned order matches docs.
func (s *Scanner) RunAll(ctx context.Context, docs []database.Document) []Outcome {
	outcomes := make([]Outcome, len(docs))
	sem := make(chan struct{}, s.workerCount)

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc database.Document) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			scan, err := s.RunScan(ctx, doc)
			if err != nil {
				outcomes[i] = Outcome{DocumentID: doc.ID, Err: err}
				return
			}
			outcomes[i] = Outcome{
				DocumentID: doc.ID,
				ScanID:     scan.ID,
				Changed:    scan.Changed,
				Severity:   scan.Severity,
			}
		}(i, doc)
	}
	wg.Wait()

	return outcomes
}
