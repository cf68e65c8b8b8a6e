package models

import "time"

type ScanStatus string

const (
	ScanStatusStarted   ScanStatus = "STARTED"
	ScanStatusCompleted ScanStatus = "COMPLETED"
	ScanStatusFailed    ScanStatus = "FAILED"
)

type SearchType string

const (
	SearchTypePerson SearchType = "person"
	SearchTypeFace   SearchType = "face"
)

// ScanHistory records one lookup forwarded to an external provider.
type ScanHistory struct {
	ID         string
	UserID     string
	SearchType SearchType
	Engine     string
	Query      string
	Metadata   map[string]any
	SearchRef  string // provider-side search id for async (face) lookups
	Status     ScanStatus
	CreatedAt  time.Time
}

// TargetResult is a single hit returned by a provider for a scan.
type TargetResult struct {
	ID         string
	ScanID     string
	Title      string
	Link       string
	Snippet    string
	ImageURL   string
	SourceType string
	Score      *float64
	Processed  bool
}
