package browseruse

// Severity levels for a detected document change
const (
	SeverityNoChange = "No Change"
	SeverityLow      = "Low"
	SeverityMajor    = "Major"
	SeverityCritical = "Critical"
)

// ValidSeverity reports whether s is a member of the severity enum
func ValidSeverity(s string) bool {
	switch s {
	case SeverityNoChange, SeverityLow, SeverityMajor, SeverityCritical:
		return true
	}
	return false
}

// Changes is the structured breakdown of detected differences. All three
// lists are always present, possibly empty, never nil after normalization.
type Changes struct {
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
	Modified []string `json:"modified"`
}

// Snapshot is the prior recorded state of a document, used as comparison
// context. An empty Summary means no usable snapshot exists and the scan is
// treated as a baseline.
type Snapshot struct {
	Summary     string
	Description string
	RawContent  string
}

// Result is the normalized outcome of a comparison task. RawResponse carries
// the complete task payload as returned by the service, retained for audit
// only.
type Result struct {
	DifferenceDetected    bool
	DifferenceDescription string
	Severity              string
	CurrentSummary        string
	Changes               Changes
	RawResponse           map[string]any
}

// APIError covers every Browser Use failure: missing credentials, transport
// errors, protocol errors and output validation errors. All of them are
// terminal for the current scan attempt.
type APIError struct {
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}
