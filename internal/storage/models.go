package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Incident is the normalized incident record shared by every
// incident-producing subsystem. Collected answers and extracted hints are
// JSON objects stored as text so listing code never needs to know which
// category produced the record.
type Incident struct {
	ID                     string    `json:"id"`
	Category               string    `json:"category"`
	Description            string    `json:"description"`
	FieldsJSON             string    `json:"fields"`
	HintsJSON              string    `json:"hints"`
	Severe                 bool      `json:"severe"`
	SevereLabel            string    `json:"severe_label,omitempty"`
	ExternalReportRequired bool      `json:"external_report_required"`
	Source                 string    `json:"source"`
	CreatedAt              time.Time `json:"created_at"`
}

// ArchiveEntry is the category-native archive row. It preserves the exact
// schema-tagged payload the intake flow produced, untouched by normalization.
type ArchiveEntry struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	PayloadJSON string    `json:"payload"`
	CreatedAt   time.Time `json:"created_at"`
}
