package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/watchdoc/app/cfg"
	"github.com/lysyi3m/watchdoc/app/watchlist"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	taskTimeout   = 5 * time.Minute
	maxRetryDelay = 30 * time.Second
)

type Scheduler struct {
	watchlistCache *watchlist.Cache
	docRepo        DocumentStore
	scanRepo       ScanStore
	scannerFactory ScannerFactory
	interval       time.Duration
	scanInterval   time.Duration
	workerCount    int
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	taskQueue      chan TaskInterface
}

func NewScheduler(watchlistCache *watchlist.Cache, docRepo DocumentStore,
	scanRepo ScanStore, scannerFactory ScannerFactory) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		watchlistCache: watchlistCache,
		docRepo:        docRepo,
		scanRepo:       scanRepo,
		scannerFactory: scannerFactory,
		interval:       time.Duration(cfg.SchedulerInterval) * time.Second,
		scanInterval:   time.Duration(cfg.ScanInterval) * time.Second,
		workerCount:    cfg.WorkerCount,
		ctx:            ctx,
		cancel:         cancel,
		taskQueue:      make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueScanTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	definitions := s.watchlistCache.GetDefinitions()
	if len(definitions) == 0 {
		slog.Debug("No watchlist definitions found")
		return
	}

	slog.Debug("Registering watchlist definitions", "count", len(definitions))

	for _, def := range definitions {
		syncTask := NewSyncWatchlistTask(def, s.docRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncWatchlistTask", "name", def.Name, "error", err)
		}
	}
}

// enqueueScanTasks schedules a scan for every document whose latest scan is
// older than the configured scan interval, or which has never been scanned
func (s *Scheduler) enqueueScanTasks() {
	docs, err := s.docRepo.GetAllDocuments()
	if err != nil {
		slog.Warn("Failed to list documents for scheduling", "error", err)
		return
	}
	if len(docs) == 0 {
		slog.Debug("No documents to schedule")
		return
	}

	now := time.Now().UTC()
	for _, doc := range docs {
		latest, err := s.scanRepo.GetLatestScan(doc.ID)
		if err != nil {
			slog.Warn("Failed to get latest scan, skipping", "document_id", doc.ID, "error", err)
			continue
		}

		if latest != nil && latest.CreatedAt.Add(s.scanInterval).After(now) {
			slog.Debug("Document not due for a scan yet", "document_id", doc.ID, "last_scan_at", latest.CreatedAt)
			continue
		}

		scanTask := NewScanDocumentTask(doc, s.scannerFactory)
		if err := s.EnqueueTask(scanTask); err != nil {
			slog.Warn("Failed to enqueue ScanDocumentTask", "document_id", doc.ID, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Task failed",
		"worker", workerID,
		"type", task.GetType(),
		"task_id", task.GetID(),
		"document", task.GetDocumentTitle(),
		"retry_count", task.GetRetryCount(),
		"error", err)

	if !task.CanRetry() {
		if task.GetMaxRetries() > 0 {
			slog.Error("Task failed after maximum retries",
				"type", task.GetType(),
				"task_id", task.GetID(),
				"retry_count", task.GetRetryCount(),
				"max_retries", task.GetMaxRetries())
		}
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > maxRetryDelay {
		retryDelay = maxRetryDelay
	}

	slog.Warn("Task retry scheduled",
		"type", task.GetType(),
		"document", task.GetDocumentTitle(),
		"retry_count", task.GetRetryCount(),
		"max_retries", task.GetMaxRetries(),
		"delay", retryDelay.String())

	go func() {
		time.Sleep(retryDelay)
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", task.GetType(), "task_id", task.GetID())
		default:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", task.GetType(), "task_id", task.GetID(), "error", retryErr)
			}
		}
	}()
}
