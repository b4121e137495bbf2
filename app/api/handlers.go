package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/watchdoc/app/database"
	"github.com/lysyi3m/watchdoc/app/notify"
)

const rawContentPreviewLength = 200

func NewHandler(docRepo DocumentRepository, scanRepo ScanRepository,
	scannerFactory ScannerFactory, caller GeneralCaller,
	watchlist WatchlistStats, version string) *Handler {
	return &Handler{
		docRepo:        docRepo,
		scanRepo:       scanRepo,
		scannerFactory: scannerFactory,
		caller:         caller,
		watchlist:      watchlist,
		version:        version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.docRepo.GetDocumentCount(); err == nil {
		health["documents"] = count
	}

	if h.watchlist != nil {
		health["watchlist_definitions"] = h.watchlist.Count()
	}

	c.JSON(http.StatusOK, health)
}

// RunScans scans every tracked document in one batch. Each document gets its
// own result entry; a failed scan is reported in place without aborting the
// batch.
func (h *Handler) RunScans(c *gin.Context) {
	runner, err := h.scannerFactory()
	if err != nil {
		slog.Error("Unable to build scanner", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	docs, err := h.docRepo.GetAllDocuments()
	if err != nil {
		slog.Error("Database error", "operation", "get_documents", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	outcomes := runner.RunAll(c.Request.Context(), docs)

	results := make([]gin.H, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			results = append(results, gin.H{
				"document_id": outcome.DocumentID,
				"status":      "error",
				"message":     outcome.Err.Error(),
			})
			continue
		}
		results = append(results, gin.H{
			"document_id":  outcome.DocumentID,
			"scan_id":      outcome.ScanID,
			"changes":      outcome.Changed,
			"change_level": outcome.Severity,
		})
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// CreateDocument registers a document (or reuses the one already tracking
// the URL) and runs an immediate scan against it.
func (h *Handler) CreateDocument(c *gin.Context) {
	var data map[string]interface{}
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	var missing []string
	for _, field := range []string{"title", "url"} {
		if _, ok := data[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing required fields: " + strings.Join(missing, ", "),
		})
		return
	}

	url := stringField(data, "url")
	doc, err := h.docRepo.GetDocumentByURL(url)
	if err != nil {
		slog.Error("Database error", "operation", "get_document_by_url", "url", url, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if doc == nil {
		status := stringField(data, "status")
		if status == "" {
			status = "Healthy"
		}
		category := stringField(data, "category")
		if category == "" {
			category = "General"
		}

		created, err := h.docRepo.CreateDocument(
			stringField(data, "title"),
			stringField(data, "desc"),
			url,
			status,
			category,
		)
		if err != nil {
			slog.Error("Database error", "operation", "create_document", "url", url, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		doc = &created
		slog.Info("Document created", "document_id", doc.ID, "url", doc.URL)
	} else {
		slog.Info("Reusing existing document", "document_id", doc.ID, "url", doc.URL)
	}

	runner, err := h.scannerFactory()
	if err != nil {
		slog.Error("Unable to build scanner", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	scan, err := runner.RunScan(c.Request.Context(), *doc)
	if err != nil {
		slog.Error("Scan failed", "document_id", doc.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":       "Scan failed: " + err.Error(),
			"document_id": doc.ID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Document created and scanned successfully",
		"document": gin.H{
			"id":           doc.ID,
			"title":        doc.Title,
			"desc":         doc.Description,
			"url":          doc.URL,
			"status":       doc.Status,
			"created_date": doc.CreatedAt.Format(time.RFC3339),
		},
		"scan": gin.H{
			"id":              scan.ID,
			"changes":         scan.Changed,
			"change_level":    scan.Severity,
			"change_summary":  scan.ChangeSummary,
			"current_summary": scan.CurrentSummary,
			"scan_date":       scan.CreatedAt.Format(time.RFC3339),
		},
	})
}

func (h *Handler) ListDocuments(c *gin.Context) {
	docs, err := h.docRepo.GetAllDocuments()
	if err != nil {
		slog.Error("Database error", "operation", "get_documents", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	documents := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		entry := gin.H{
			"id":           doc.ID,
			"title":        doc.Title,
			"desc":         doc.Description,
			"url":          doc.URL,
			"status":       doc.Status,
			"created_date": doc.CreatedAt.Format(time.RFC3339),
		}

		latest, err := h.scanRepo.GetLatestScan(doc.ID)
		if err != nil {
			slog.Error("Database error", "operation", "get_latest_scan", "document_id", doc.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		entry["latest_scan"] = latestScanJSON(latest)

		documents = append(documents, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"documents":   documents,
		"total_count": len(documents),
	})
}

func (h *Handler) GetDocumentDetails(c *gin.Context) {
	doc, ok := h.lookupDocument(c)
	if !ok {
		return
	}

	scans, err := h.scanRepo.GetScans(doc.ID)
	if err != nil {
		slog.Error("Database error", "operation", "get_scans", "document_id", doc.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	documentData := gin.H{
		"id":           doc.ID,
		"title":        doc.Title,
		"desc":         doc.Description,
		"url":          doc.URL,
		"status":       doc.Status,
		"category":     doc.Category,
		"created_date": doc.CreatedAt.Format(time.RFC3339),
		"scan_count":   len(scans),
	}

	if len(scans) > 0 {
		documentData["latest_scan"] = latestScanJSON(&scans[0])
	} else {
		documentData["latest_scan"] = nil
	}

	history := make([]gin.H, 0, len(scans))
	for _, scan := range scans {
		raw := decodeRawData(scan)

		var preview interface{}
		if raw != nil {
			content, _ := raw["raw_content"].(string)
			if len(content) > rawContentPreviewLength {
				content = content[:rawContentPreviewLength] + "..."
			}
			preview = content
		}

		entry := gin.H{
			"id":                  scan.ID,
			"date":                scan.CreatedAt.Format(time.RFC3339),
			"changes":             scan.Changed,
			"change_level":        scan.Severity,
			"change_summary":      scan.ChangeSummary,
			"current_summary":     scan.CurrentSummary,
			"raw_content_preview": preview,
			"additions":           splitLines(scan.Additions),
			"deletions":           splitLines(scan.Deletions),
			"modifications":       splitLines(scan.Modifications),
		}

		if raw != nil {
			if changes, ok := raw["changes"]; ok && changes != nil {
				entry["changes_detail"] = changes
			}
		}

		history = append(history, entry)
	}
	documentData["scan_history"] = history

	c.JSON(http.StatusOK, gin.H{
		"document":    documentData,
		"total_scans": len(scans),
	})
}

// GetDocumentTimeline renders a document's scan history as timeline entries,
// newest first. The oldest scan is the baseline capture; later unchanged
// scans are periodic checks and changed scans are titled by severity.
func (h *Handler) GetDocumentTimeline(c *gin.Context) {
	doc, ok := h.lookupDocument(c)
	if !ok {
		return
	}

	scans, err := h.scanRepo.GetScans(doc.ID)
	if err != nil {
		slog.Error("Database error", "operation", "get_scans", "document_id", doc.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	entries := make([]gin.H, 0, len(scans))
	for i, scan := range scans {
		raw := decodeRawData(scan)

		// A "No Change" severity always renders as captured, even when the
		// changed flag is set.
		status := "captured"
		if scan.Severity != "No Change" && scan.Changed {
			status = "changed"
		}

		isOldest := i == len(scans)-1
		var title string
		switch {
		case scan.Severity != "No Change":
			title = scan.Severity + " Changes Detected"
		case isOldest:
			title = "Initial Capture"
		default:
			title = "Periodic Check"
		}

		entry := gin.H{
			"id":              strconv.FormatInt(scan.ID, 10),
			"timestamp":       scan.CreatedAt.Format(time.RFC3339),
			"status":          status,
			"title":           title,
			"description":     timelineDescription(scan),
			"change_level":    scan.Severity,
			"change_summary":  scan.ChangeSummary,
			"current_summary": scan.CurrentSummary,
		}

		if raw != nil {
			if content, ok := raw["raw_content"].(string); ok {
				entry["raw_content"] = content
			}
			if changes, ok := raw["changes"]; ok && changes != nil {
				entry["changes"] = changes
			}
		}

		entries = append(entries, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"document": gin.H{
			"id":           doc.ID,
			"title":        doc.Title,
			"desc":         doc.Description,
			"url":          doc.URL,
			"status":       doc.Status,
			"created_date": doc.CreatedAt.Format(time.RFC3339),
		},
		"timeline":    entries,
		"total_scans": len(entries),
	})
}

// MakeGeneralCall places a conversational update call built from the latest
// scan of every monitored document.
func (h *Handler) MakeGeneralCall(c *gin.Context) {
	if h.caller == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Voice calls are not configured",
		})
		return
	}

	docs, err := h.docRepo.GetAllDocuments()
	if err != nil {
		slog.Error("Database error", "operation", "get_documents", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to make general call: " + err.Error(),
		})
		return
	}

	if len(docs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "No documents are being monitored yet",
		})
		return
	}

	entries := make([]notify.DigestEntry, 0, len(docs))
	for _, doc := range docs {
		latest, err := h.scanRepo.GetLatestScan(doc.ID)
		if err != nil {
			slog.Error("Database error", "operation", "get_latest_scan", "document_id", doc.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Failed to make general call: " + err.Error(),
			})
			return
		}
		entries = append(entries, notify.DigestEntry{Document: doc, LatestScan: latest})
	}

	digest := notify.GeneralDigest(entries)
	slog.Debug("General call context prepared", "documents", len(docs), "context_length", len(digest))

	callID, err := h.caller.GeneralUpdate(c.Request.Context(), digest)
	if err != nil {
		slog.Error("Failed to place general call", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to make general call: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"message":            "General call initiated successfully with live website data",
		"websites_monitored": len(docs),
		"context_length":     len(digest),
		"call_id":            callID,
	})
}

// lookupDocument resolves the :id route parameter. It writes the error
// response itself and reports success via the second return value.
func (h *Handler) lookupDocument(c *gin.Context) (*database.Document, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return nil, false
	}

	doc, err := h.docRepo.GetDocument(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_document", "document_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return nil, false
	}

	return doc, true
}

func latestScanJSON(scan *database.Scan) gin.H {
	if scan == nil {
		return nil
	}
	return gin.H{
		"id":              scan.ID,
		"changes":         scan.Changed,
		"change_level":    scan.Severity,
		"change_summary":  scan.ChangeSummary,
		"current_summary": scan.CurrentSummary,
		"scan_date":       scan.CreatedAt.Format(time.RFC3339),
		"additions":       splitLines(scan.Additions),
		"deletions":       splitLines(scan.Deletions),
		"modifications":   splitLines(scan.Modifications),
	}
}

func decodeRawData(scan database.Scan) map[string]interface{} {
	if scan.RawData == "" {
		return nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(scan.RawData), &raw); err != nil {
		slog.Warn("Unable to decode raw scan data", "scan_id", scan.ID, "error", err)
		return nil
	}
	return raw
}

func timelineDescription(scan database.Scan) string {
	if scan.ChangeSummary != "" {
		return scan.ChangeSummary
	}
	if scan.CurrentSummary != "" {
		if len(scan.CurrentSummary) > 100 {
			return scan.CurrentSummary[:100] + "..."
		}
		return scan.CurrentSummary
	}
	return "Routine monitoring scan completed"
}

func splitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}

func stringField(data map[string]interface{}, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}
