package browseruse

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

var requiredFields = []string{
	"difference_detected",
	"difference_description",
	"severity",
	"current_summary",
}

var truthyStrings = map[string]bool{
	"true": true, "yes": true, "1": true, "changed": true, "change": true, "y": true,
}

var falsyStrings = map[string]bool{
	"false": true, "no": true, "0": true, "unchanged": true, "none": true, "n": true,
}

// normalizeOutput validates the parsed task output and coerces it into a
// strict Result. Missing required fields and unrecognizable encodings of
// difference_detected are errors; everything else is repaired: changes
// always comes out with all three lists present, and a severity outside the
// enum is replaced rather than rejected.
func normalizeOutput(output map[string]any, raw map[string]any) (*Result, error) {
	var missing []string
	for _, field := range requiredFields {
		if _, ok := output[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &APIError{Message: "Browser Use task output is missing required fields: " + strings.Join(missing, ", ")}
	}

	differenceDetected, err := coerceBool(output["difference_detected"])
	if err != nil {
		return nil, err
	}

	severity := coerceText(output["severity"])
	if !ValidSeverity(severity) {
		// The upstream model occasionally invents severity labels; repair
		// instead of failing the scan.
		if differenceDetected {
			severity = SeverityMajor
		} else {
			severity = SeverityNoChange
		}
	}

	return &Result{
		DifferenceDetected:    differenceDetected,
		DifferenceDescription: coerceText(output["difference_description"]),
		Severity:              severity,
		CurrentSummary:        coerceText(output["current_summary"]),
		Changes:               coerceChanges(output["changes"]),
		RawResponse:           raw,
	}, nil
}

func coerceBool(v any) (bool, error) {
	switch value := v.(type) {
	case bool:
		return value, nil
	case string:
		normalized := strings.ToLower(strings.TrimSpace(value))
		if truthyStrings[normalized] {
			return true, nil
		}
		if falsyStrings[normalized] {
			return false, nil
		}
		return false, &APIError{Message: fmt.Sprintf("Browser Use task output provided an unrecognised value for 'difference_detected': %q", value)}
	case float64:
		return value != 0, nil
	case int:
		return value != 0, nil
	case json.Number:
		f, err := value.Float64()
		if err != nil {
			return false, &APIError{Message: "Browser Use task output provided an unsupported type for 'difference_detected'"}
		}
		return f != 0, nil
	default:
		return false, &APIError{Message: "Browser Use task output provided an unsupported type for 'difference_detected'"}
	}
}

func coerceText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// coerceChanges defaults a missing or malformed changes field to the
// all-empty structure, and defaults each missing category to an empty list
func coerceChanges(v any) Changes {
	changes := Changes{
		Added:    []string{},
		Removed:  []string{},
		Modified: []string{},
	}

	m, ok := v.(map[string]any)
	if !ok {
		return changes
	}

	changes.Added = coerceStringList(m["added"])
	changes.Removed = coerceStringList(m["removed"])
	changes.Modified = coerceStringList(m["modified"])

	return changes
}

func coerceStringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}

	list := make([]string, 0, len(items))
	for _, item := range items {
		list = append(list, coerceText(item))
	}
	return list
}
