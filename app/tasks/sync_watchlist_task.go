package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/watchdoc/app/watchlist"
)

type SyncWatchlistTask struct {
	Task
	Definition *watchlist.Definition
	docRepo    DocumentStore
}

func NewSyncWatchlistTask(def *watchlist.Definition, docRepo DocumentStore) *SyncWatchlistTask {
	return &SyncWatchlistTask{
		Task:       NewTask(TaskTypeSyncWatchlist, def.Title),
		Definition: def,
		docRepo:    docRepo,
	}
}

// Execute registers the watchlist definition as a tracked document. A URL
// that is already tracked is left untouched.
func (t *SyncWatchlistTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	existing, err := t.docRepo.GetDocumentByURL(t.Definition.URL)
	if err != nil {
		return fmt.Errorf("failed to look up watchlist document: %w", err)
	}

	if existing != nil {
		slog.Debug("Watchlist document already tracked",
			"document_id", existing.ID, "url", t.Definition.URL)
		return nil
	}

	doc, err := t.docRepo.CreateDocument(
		t.Definition.Title,
		t.Definition.Description,
		t.Definition.URL,
		t.Definition.Status,
		t.Definition.Category,
	)
	if err != nil {
		return fmt.Errorf("failed to register watchlist document: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncWatchlist",
		"document_id", doc.ID,
		"title", doc.Title,
		"duration", t.GetDuration())

	return nil
}
