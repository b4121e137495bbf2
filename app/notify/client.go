package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.vapi.ai"

// Options configures a Client. All identifiers come from configuration so
// tests can substitute them.
type Options struct {
	APIKey              string
	BaseURL             string
	PhoneNumber         string
	PhoneNumberID       string
	CriticalAssistantID string
	GeneralAssistantID  string
	HTTPClient          *http.Client
}

// Client places outbound voice calls through the Vapi API. Calls are
// best-effort notifications: callers log failures and move on, a failed call
// never affects a persisted scan.
type Client struct {
	apiKey              string
	baseURL             string
	phoneNumber         string
	phoneNumberID       string
	criticalAssistantID string
	generalAssistantID  string
	httpClient          *http.Client
}

// NewClient builds a Client from options. Missing credentials or
// identifiers are a configuration error raised here.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("vapi API key is not configured")
	}
	if opts.PhoneNumber == "" || opts.PhoneNumberID == "" {
		return nil, fmt.Errorf("vapi phone number configuration is incomplete")
	}

	c := &Client{
		apiKey:              opts.APIKey,
		baseURL:             strings.TrimRight(opts.BaseURL, "/"),
		phoneNumber:         opts.PhoneNumber,
		phoneNumberID:       opts.PhoneNumberID,
		criticalAssistantID: opts.CriticalAssistantID,
		generalAssistantID:  opts.GeneralAssistantID,
		httpClient:          opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return c, nil
}

// AlertChange places a critical alert call about a detected document change.
// Returns the Vapi call id on success.
func (c *Client) AlertChange(ctx context.Context, title, changeDescription string) (string, error) {
	message := CriticalMessage(title, changeDescription)
	return c.placeCall(ctx, c.criticalAssistantID, map[string]string{
		"change_description": message,
	})
}

// GeneralUpdate places a conversational status call carrying a
// multi-document digest
func (c *Client) GeneralUpdate(ctx context.Context, digest string) (string, error) {
	return c.placeCall(ctx, c.generalAssistantID, map[string]string{
		"context": digest,
	})
}

type callRequest struct {
	AssistantID        string             `json:"assistantId"`
	PhoneNumberID      string             `json:"phoneNumberId"`
	Customer           callCustomer       `json:"customer"`
	AssistantOverrides assistantOverrides `json:"assistantOverrides"`
}

type callCustomer struct {
	Number string `json:"number"`
}

type assistantOverrides struct {
	VariableValues map[string]string `json:"variableValues"`
}

func (c *Client) placeCall(ctx context.Context, assistantID string, variables map[string]string) (string, error) {
	if assistantID == "" {
		return "", fmt.Errorf("vapi assistant ID is not configured")
	}

	body, err := json.Marshal(callRequest{
		AssistantID:   assistantID,
		PhoneNumberID: c.phoneNumberID,
		Customer:      callCustomer{Number: c.phoneNumber},
		AssistantOverrides: assistantOverrides{
			VariableValues: variables,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal call request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/call", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create call request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to place call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("vapi call failed: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var callResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&callResp); err != nil {
		return "", fmt.Errorf("failed to decode call response: %w", err)
	}

	slog.Info("Vapi call placed", "call_id", callResp.ID, "assistant_id", assistantID)

	return callResp.ID, nil
}
