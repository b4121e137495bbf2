package browseruse

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Options{})
	if err == nil {
		t.Fatal("Expected error for missing API key")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T", err)
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:       "test-key",
		BaseURL:      baseURL,
		PollInterval: time.Millisecond,
		Timeout:      time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestCompareDocumentFinishedTask(t *testing.T) {
	polls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected bearer auth, got %q", r.Header.Get("Authorization"))
		}

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/run-task":
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["llm_model"] != "gemini-2.5-pro" {
				t.Errorf("Expected model in task request, got %q", body["llm_model"])
			}
			if !strings.Contains(body["task"], "example.com") {
				t.Errorf("Expected instructions to mention the URL")
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "task-1"})

		case r.Method == http.MethodGet && r.URL.Path == "/task/task-1":
			polls++
			if polls < 3 {
				json.NewEncoder(w).Encode(map[string]any{"status": "running"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"status": "finished",
				"output": map[string]any{
					"difference_detected":    true,
					"difference_description": "heading changed",
					"severity":               "Low",
					"current_summary":        "summary",
					"changes": map[string]any{
						"added":    []any{"new section"},
						"removed":  []any{},
						"modified": []any{"heading"},
					},
				},
			})

		default:
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.CompareDocument(context.Background(), "https://example.com", "Example", nil)
	if err != nil {
		t.Fatal(err)
	}

	if !result.DifferenceDetected {
		t.Error("Expected difference_detected=true")
	}
	if result.Severity != SeverityLow {
		t.Errorf("Expected severity Low, got %q", result.Severity)
	}
	if len(result.Changes.Added) != 1 || result.Changes.Added[0] != "new section" {
		t.Errorf("Unexpected added list: %v", result.Changes.Added)
	}
	if result.RawResponse["status"] != "finished" {
		t.Error("Expected full task payload as raw response")
	}
	if polls < 3 {
		t.Errorf("Expected at least 3 polls, got %d", polls)
	}
}

func TestCompareDocumentOutputAsProseWrappedString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]string{"id": "task-2"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "finished",
			"output": `Here is the result you asked for:
{"difference_detected": false, "difference_description": "baseline", "severity": "No Change", "current_summary": "s"}`,
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.CompareDocument(context.Background(), "https://example.com", "Example", nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.DifferenceDetected {
		t.Error("Expected difference_detected=false")
	}
	if result.CurrentSummary != "s" {
		t.Errorf("Expected summary 's', got %q", result.CurrentSummary)
	}
}

func TestCompareDocumentUnparsableOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]string{"id": "task-3"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "finished",
			"output": "no json here at all",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CompareDocument(context.Background(), "https://example.com", "Example", nil)
	if err == nil {
		t.Fatal("Expected parse error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T", err)
	}
}

func TestCompareDocumentMissingTaskID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CompareDocument(context.Background(), "https://example.com", "Example", nil)
	if err == nil || !strings.Contains(err.Error(), "task ID") {
		t.Fatalf("Expected missing task ID error, got %v", err)
	}
}

func TestCompareDocumentFailedTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]string{"id": "task-4"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "failed"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CompareDocument(context.Background(), "https://example.com", "Example", nil)
	if err == nil || !strings.Contains(err.Error(), "status: failed") {
		t.Fatalf("Expected failed status error, got %v", err)
	}
}

func TestCompareDocumentPollTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]string{"id": "task-5"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "running"})
	}))
	defer server.Close()

	client, err := NewClient(Options{
		APIKey:       "test-key",
		BaseURL:      server.URL,
		PollInterval: time.Millisecond,
		Timeout:      20 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.CompareDocument(context.Background(), "https://example.com", "Example", nil)
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("Expected timeout error, got %v", err)
	}
}

func TestCompareDocumentTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CompareDocument(context.Background(), "https://example.com", "Example", nil)
	if err == nil {
		t.Fatal("Expected error for HTTP 500")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T", err)
	}
}
