package record

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/H9919/ehsbot/internal/storage"
)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("storage.Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewID(t *testing.T) {
	at := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	id := NewID(at)

	parts := strings.SplitN(id, "-", 2)
	if len(parts) != 2 {
		t.Fatalf("id = %q, want millis-suffix shape", id)
	}
	if parts[0] != "1756728000000" {
		t.Errorf("millis prefix = %q, want 1756728000000", parts[0])
	}
	if len(parts[1]) != 8 {
		t.Errorf("suffix = %q, want 8 chars", parts[1])
	}

	if NewID(at) == id {
		t.Error("two ids for the same instant should differ in the random tail")
	}
}

func TestPersistWritesBothStores(t *testing.T) {
	store := openTestStore(t)
	p := NewPersister(store)

	rep := Report{
		Category:    "environmental",
		Description: "large spill by the fuel island",
		Fields: map[string]string{
			"substance_name":  "diesel",
			"agency_notified": "EPA",
		},
		Hints:                  map[string]string{"spill_size": "large"},
		Severe:                 true,
		SevereLabel:            "reportable_release",
		ExternalReportRequired: true,
	}

	id, err := p.Persist(rep)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if id == "" {
		t.Fatal("expected assigned id")
	}

	inc, err := store.GetIncident(id)
	if err != nil {
		t.Fatalf("GetIncident: %v", err)
	}
	if inc.Category != "environmental" || !inc.Severe || !inc.ExternalReportRequired {
		t.Errorf("incident row wrong: %+v", inc)
	}
	if inc.Source != "chatbot" {
		t.Errorf("source = %q, want chatbot", inc.Source)
	}

	var fields map[string]string
	if err := json.Unmarshal([]byte(inc.FieldsJSON), &fields); err != nil {
		t.Fatalf("fields JSON invalid: %v", err)
	}
	if fields["substance_name"] != "diesel" {
		t.Errorf("fields = %v", fields)
	}

	entry, err := store.GetArchiveEntry(id)
	if err != nil {
		t.Fatalf("GetArchiveEntry: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(entry.PayloadJSON), &payload); err != nil {
		t.Fatalf("archive payload invalid: %v", err)
	}
	if payload["schema"] != ArchiveSchema {
		t.Errorf("schema = %v, want %s", payload["schema"], ArchiveSchema)
	}
	if payload["incident_type"] != "environmental" {
		t.Errorf("incident_type = %v", payload["incident_type"])
	}
	if payload["severe_event"] != true {
		t.Errorf("severe_event = %v, want true", payload["severe_event"])
	}
}

func TestPersistKeepsCallerID(t *testing.T) {
	store := openTestStore(t)
	p := NewPersister(store)

	id, err := p.Persist(Report{ID: "fixed-id", Category: "near_miss"})
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if id != "fixed-id" {
		t.Errorf("id = %q, want caller's id preserved", id)
	}
}

func TestPersistFailureWrapsSentinel(t *testing.T) {
	store := openTestStore(t)
	store.Close() // force write failure

	p := NewPersister(store)
	_, err := p.Persist(Report{Category: "near_miss"})
	if err == nil {
		t.Fatal("expected error on closed store")
	}
	if !errors.Is(err, ErrPersistence) {
		t.Errorf("err = %v, want ErrPersistence", err)
	}
}
