package database

import (
	"time"
)

// Document is a tracked web page under monitoring
type Document struct {
	ID          int64
	Title       string
	Description string
	URL         string
	Status      string
	Category    string
	CreatedAt   time.Time
}

// Scan is one recorded comparison attempt against a document's prior state.
// Additions, Deletions and Modifications hold newline-joined change entries and
// are empty when the corresponding category had none. RawData carries the full
// normalized payload as JSON; it is the snapshot consumed by the next scan.
type Scan struct {
	ID             int64
	DocumentID     int64
	CreatedAt      time.Time
	Changed        bool
	Severity       string
	ChangeSummary  string
	CurrentSummary string
	Additions      string
	Deletions      string
	Modifications  string
	RawData        string
}
