package browseruse

import (
	"strings"
	"testing"
)

func TestBuildInstructionsBaseline(t *testing.T) {
	instructions := buildInstructions("https://example.com", "Example", nil)

	if !strings.Contains(instructions, "No previous snapshot exists") {
		t.Error("Expected baseline branch for nil snapshot")
	}
	if !strings.Contains(instructions, "'difference_detected' to false") {
		t.Error("Expected baseline instructions to mandate difference_detected=false")
	}
	if !strings.Contains(instructions, "https://example.com") {
		t.Error("Expected URL in instructions")
	}
}

func TestBuildInstructionsEmptySummaryIsBaseline(t *testing.T) {
	snapshot := &Snapshot{RawContent: "some text"}
	instructions := buildInstructions("https://example.com", "Example", snapshot)

	if !strings.Contains(instructions, "No previous snapshot exists") {
		t.Error("Expected baseline branch when snapshot has no summary")
	}
}

func TestBuildInstructionsWithSnapshot(t *testing.T) {
	snapshot := &Snapshot{
		Summary:     "previous summary",
		Description: "previous notes",
		RawContent:  "previous content",
	}

	instructions := buildInstructions("https://example.com", "Example", snapshot)

	if !strings.Contains(instructions, "previous summary") {
		t.Error("Expected prior summary in instructions")
	}
	if !strings.Contains(instructions, "previous notes") {
		t.Error("Expected prior difference notes in instructions")
	}
	if !strings.Contains(instructions, "previous content") {
		t.Error("Expected prior raw content in instructions")
	}
	if strings.Contains(instructions, truncationMarker) {
		t.Error("Did not expect truncation marker for short content")
	}
}

func TestBuildInstructionsMissingDescription(t *testing.T) {
	snapshot := &Snapshot{Summary: "previous summary"}
	instructions := buildInstructions("https://example.com", "Example", snapshot)

	if !strings.Contains(instructions, "None provided.") {
		t.Error("Expected placeholder for missing difference notes")
	}
}

func TestBuildInstructionsTruncatesRawContent(t *testing.T) {
	snapshot := &Snapshot{
		Summary:    "previous summary",
		RawContent: strings.Repeat("x", rawContentCap+500),
	}

	instructions := buildInstructions("https://example.com", "Example", snapshot)

	if !strings.Contains(instructions, truncationMarker) {
		t.Error("Expected truncation marker for oversized content")
	}
	if strings.Contains(instructions, strings.Repeat("x", rawContentCap+1)) {
		t.Error("Expected raw content to be capped")
	}
}
