package tasks

import (
	"context"

	"github.com/lysyi3m/watchdoc/app/database"
)

// TaskSchedulerInterface defines the interface for background task
// scheduling. Used by the main application to manage periodic document
// scanning and the startup watchlist sync.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// DocumentStore is the subset of the document repository the scheduler needs
type DocumentStore interface {
	GetAllDocuments() ([]database.Document, error)
	GetDocumentByURL(url string) (*database.Document, error)
	CreateDocument(title, description, url, status, category string) (database.Document, error)
}

// ScanStore looks up a document's latest scan for due-date checks
type ScanStore interface {
	GetLatestScan(documentID int64) (*database.Scan, error)
}

// DocumentScanner runs one scan for a document
type DocumentScanner interface {
	RunScan(ctx context.Context, doc database.Document) (*database.Scan, error)
}

// ScannerFactory builds a scanner on demand. Construction fails when the
// comparison gateway is not configured; the scheduler logs and skips scan
// work in that case instead of crashing.
type ScannerFactory func() (DocumentScanner, error)
