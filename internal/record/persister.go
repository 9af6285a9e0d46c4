// Package record turns a completed intake session into a durable incident
// record. Each record lands in two places at once: the category-native
// archive with the exact collected mapping, and the normalized incidents
// store the rest of the reporting system lists from.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/H9919/ehsbot/internal/storage"
)

// ArchiveSchema tags category-native payloads so downstream consumers can
// recognize their shape.
const ArchiveSchema = "AVOMO-OSHA"

// ErrPersistence marks a failure to write one or both stores. Callers
// surface it to operational logging; the end user gets a best-effort
// completion message instead of the raw error.
var ErrPersistence = errors.New("incident persistence failed")

// Report is the finished product of an intake session.
type Report struct {
	ID                     string
	Category               string
	Description            string
	Fields                 map[string]string
	Hints                  map[string]string
	Severe                 bool
	SevereLabel            string
	ExternalReportRequired bool
	CreatedAt              time.Time
}

// Persister writes finished reports into the incident stores.
type Persister struct {
	store *storage.Store
	now   func() time.Time
}

func NewPersister(store *storage.Store) *Persister {
	return &Persister{store: store, now: time.Now}
}

// NewID generates a time-derived identifier: a unix-milli prefix keeps ids
// sortable by creation time, a random tail makes collisions a non-event at
// the generation step (the store write silently overwrites on conflict).
func NewID(t time.Time) string {
	return fmt.Sprintf("%d-%s", t.UnixMilli(), uuid.New().String()[:8])
}

// Persist writes the report into both stores and returns its identifier,
// assigning one if the report doesn't carry it yet.
func (p *Persister) Persist(rep Report) (string, error) {
	now := p.now().UTC()
	if rep.ID == "" {
		rep.ID = NewID(now)
	}
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = now
	}

	fieldsJSON, err := json.Marshal(rep.Fields)
	if err != nil {
		return "", fmt.Errorf("%w: encoding fields: %v", ErrPersistence, err)
	}
	hintsJSON, err := json.Marshal(rep.Hints)
	if err != nil {
		return "", fmt.Errorf("%w: encoding hints: %v", ErrPersistence, err)
	}

	archivePayload, err := json.Marshal(map[string]any{
		"schema":              ArchiveSchema,
		"incident_type":       rep.Category,
		"initial_description": rep.Description,
		"fields":              rep.Fields,
		"extracted_info":      rep.Hints,
		"severe_event":        rep.Severe,
		"severe_label":        rep.SevereLabel,
		"reported_at":         rep.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("%w: encoding archive payload: %v", ErrPersistence, err)
	}

	inc := storage.Incident{
		ID:                     rep.ID,
		Category:               rep.Category,
		Description:            rep.Description,
		FieldsJSON:             string(fieldsJSON),
		HintsJSON:              string(hintsJSON),
		Severe:                 rep.Severe,
		SevereLabel:            rep.SevereLabel,
		ExternalReportRequired: rep.ExternalReportRequired,
		Source:                 "chatbot",
		CreatedAt:              rep.CreatedAt,
	}
	entry := storage.ArchiveEntry{
		ID:          rep.ID,
		Category:    rep.Category,
		PayloadJSON: string(archivePayload),
		CreatedAt:   rep.CreatedAt,
	}

	if err := p.store.SaveIncident(inc, entry); err != nil {
		return "", fmt.Errorf("%w: writing incident %s: %v", ErrPersistence, rep.ID, err)
	}
	return rep.ID, nil
}
