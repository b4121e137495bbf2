package api

import (
	"context"

	"github.com/lysyi3m/watchdoc/app/database"
	"github.com/lysyi3m/watchdoc/app/notify"
	"github.com/lysyi3m/watchdoc/app/scanner"
)

// ScanRunner runs comparison scans, either for one document or a batch
type ScanRunner interface {
	RunScan(ctx context.Context, doc database.Document) (*database.Scan, error)
	RunAll(ctx context.Context, docs []database.Document) []scanner.Outcome
}

var _ ScanRunner = (*scanner.Scanner)(nil)

// ScannerFactory builds a scan runner on demand. Construction fails when the
// comparison gateway is not configured; scan endpoints report that as a 500
// while the read endpoints keep working.
type ScannerFactory func() (ScanRunner, error)

// GeneralCaller places a conversational status update call
type GeneralCaller interface {
	GeneralUpdate(ctx context.Context, digest string) (string, error)
}

var _ GeneralCaller = (*notify.Client)(nil)

// DocumentRepository is the subset of the document repository the handlers need
type DocumentRepository interface {
	CreateDocument(title, description, url, status, category string) (database.Document, error)
	GetDocument(id int64) (*database.Document, error)
	GetDocumentByURL(url string) (*database.Document, error)
	GetAllDocuments() ([]database.Document, error)
	GetDocumentCount() (int, error)
}

// ScanRepository is the subset of the scan repository the handlers need
type ScanRepository interface {
	GetLatestScan(documentID int64) (*database.Scan, error)
	GetScans(documentID int64) ([]database.Scan, error)
}

// WatchlistStats reports how many watchlist definitions are loaded
type WatchlistStats interface {
	Count() int
}

type Handler struct {
	docRepo        DocumentRepository
	scanRepo       ScanRepository
	scannerFactory ScannerFactory
	caller         GeneralCaller // nil when voice calls are not configured
	watchlist      WatchlistStats
	version        string
}
