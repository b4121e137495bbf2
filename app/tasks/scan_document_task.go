package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/watchdoc/app/database"
)

type ScanDocumentTask struct {
	Task
	Document       database.Document
	scannerFactory ScannerFactory
}

func NewScanDocumentTask(doc database.Document, scannerFactory ScannerFactory) *ScanDocumentTask {
	task := NewTask(TaskTypeScanDocument, doc.Title)
	// A failed scan is terminal; the next scheduler tick reschedules the
	// document instead of the worker re-enqueueing it.
	task.MaxRetries = 0

	return &ScanDocumentTask{
		Task:           task,
		Document:       doc,
		scannerFactory: scannerFactory,
	}
}

func (t *ScanDocumentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	runner, err := t.scannerFactory()
	if err != nil {
		return fmt.Errorf("scanner unavailable: %w", err)
	}

	scan, err := runner.RunScan(ctx, t.Document)
	if err != nil {
		return fmt.Errorf("failed to scan document %d: %w", t.Document.ID, err)
	}

	slog.Info("Task completed",
		"type", "ScanDocument",
		"document_id", t.Document.ID,
		"scan_id", scan.ID,
		"changed", scan.Changed,
		"severity", scan.Severity,
		"duration", t.GetDuration())

	return nil
}
