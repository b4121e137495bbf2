package browseruse

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeOutputMissingFields(t *testing.T) {
	output := map[string]any{
		"severity": "Low",
	}

	_, err := normalizeOutput(output, nil)
	if err == nil {
		t.Fatal("Expected error for missing required fields")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T", err)
	}

	// Missing fields are reported sorted and comma-joined
	want := "current_summary, difference_description, difference_detected"
	if !strings.Contains(err.Error(), want) {
		t.Errorf("Expected missing fields %q in error, got %q", want, err.Error())
	}
}

func TestNormalizeOutputBooleanCoercion(t *testing.T) {
	cases := []struct {
		name    string
		value   any
		want    bool
		wantErr bool
	}{
		{"bool true", true, true, false},
		{"bool false", false, false, false},
		{"string yes", "yes", true, false},
		{"string changed", " Changed ", true, false},
		{"string y", "Y", true, false},
		{"string no", "no", false, false},
		{"string unchanged", "UNCHANGED", false, false},
		{"string none", "none", false, false},
		{"string zero", "0", false, false},
		{"string one", "1", true, false},
		{"number one", float64(1), true, false},
		{"number zero", float64(0), false, false},
		{"unrecognised string", "maybe", false, true},
		{"unsupported type", []any{"true"}, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			output := map[string]any{
				"difference_detected":    tc.value,
				"difference_description": "d",
				"severity":               "Low",
				"current_summary":        "s",
			}

			result, err := normalizeOutput(output, nil)
			if tc.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("Expected APIError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if result.DifferenceDetected != tc.want {
				t.Errorf("Expected difference_detected=%v, got %v", tc.want, result.DifferenceDetected)
			}
		})
	}
}

func TestNormalizeOutputSeverityRepair(t *testing.T) {
	// An out-of-enum severity maps to Major when changed, No Change otherwise
	output := map[string]any{
		"difference_detected":    "yes",
		"difference_description": "d",
		"severity":               "Catastrophic",
		"current_summary":        "s",
		"changes":                map[string]any{"added": []any{"a"}},
	}

	result, err := normalizeOutput(output, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.DifferenceDetected {
		t.Error("Expected difference_detected=true")
	}
	if result.Severity != SeverityMajor {
		t.Errorf("Expected severity %q, got %q", SeverityMajor, result.Severity)
	}
	if len(result.Changes.Added) != 1 || result.Changes.Added[0] != "a" {
		t.Errorf("Expected added=[a], got %v", result.Changes.Added)
	}
	if len(result.Changes.Removed) != 0 || result.Changes.Removed == nil {
		t.Errorf("Expected removed to be an empty list, got %v", result.Changes.Removed)
	}
	if len(result.Changes.Modified) != 0 || result.Changes.Modified == nil {
		t.Errorf("Expected modified to be an empty list, got %v", result.Changes.Modified)
	}

	output["difference_detected"] = false
	result, err = normalizeOutput(output, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Severity != SeverityNoChange {
		t.Errorf("Expected severity %q, got %q", SeverityNoChange, result.Severity)
	}
}

func TestNormalizeOutputValidSeverityKept(t *testing.T) {
	for _, severity := range []string{SeverityNoChange, SeverityLow, SeverityMajor, SeverityCritical} {
		output := map[string]any{
			"difference_detected":    true,
			"difference_description": "d",
			"severity":               severity,
			"current_summary":        "s",
		}

		result, err := normalizeOutput(output, nil)
		if err != nil {
			t.Fatal(err)
		}
		if result.Severity != severity {
			t.Errorf("Expected severity %q to be kept, got %q", severity, result.Severity)
		}
	}
}

func TestNormalizeOutputChangesDefaulting(t *testing.T) {
	cases := []struct {
		name  string
		value any
	}{
		{"absent", nil},
		{"not a map", "added some stuff"},
		{"list", []any{"a"}},
		{"empty map", map[string]any{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			output := map[string]any{
				"difference_detected":    true,
				"difference_description": "d",
				"severity":               "Low",
				"current_summary":        "s",
			}
			if tc.value != nil {
				output["changes"] = tc.value
			}

			result, err := normalizeOutput(output, nil)
			if err != nil {
				t.Fatal(err)
			}

			// All three keys must come out as lists, never nil
			if result.Changes.Added == nil || result.Changes.Removed == nil || result.Changes.Modified == nil {
				t.Errorf("Expected all change lists present, got %+v", result.Changes)
			}
			if len(result.Changes.Added)+len(result.Changes.Removed)+len(result.Changes.Modified) != 0 {
				t.Errorf("Expected empty change lists, got %+v", result.Changes)
			}
		})
	}
}

func TestNormalizeOutputTextCoercion(t *testing.T) {
	output := map[string]any{
		"difference_detected":    true,
		"difference_description": float64(42),
		"severity":               "Low",
		"current_summary":        true,
	}

	result, err := normalizeOutput(output, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.DifferenceDescription != "42" {
		t.Errorf("Expected description '42', got %q", result.DifferenceDescription)
	}
	if result.CurrentSummary != "true" {
		t.Errorf("Expected summary 'true', got %q", result.CurrentSummary)
	}
}

func TestNormalizeOutputRawResponsePassthrough(t *testing.T) {
	raw := map[string]any{"status": "finished", "output": "..."}
	output := map[string]any{
		"difference_detected":    false,
		"difference_description": "d",
		"severity":               "No Change",
		"current_summary":        "s",
	}

	result, err := normalizeOutput(output, raw)
	if err != nil {
		t.Fatal(err)
	}
	if result.RawResponse["status"] != "finished" {
		t.Errorf("Expected raw response passthrough, got %v", result.RawResponse)
	}
}
