package storage

import (
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

// TestMigrationsOrdered verifies migrations are applied in ascending numeric order.
func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(versions) == 0 {
		t.Fatal("expected at least one applied migration")
	}
	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Errorf("versions out of order: %v", versions)
		}
	}
}

func testIncident(id string, created time.Time) (Incident, ArchiveEntry) {
	inc := Incident{
		ID:          id,
		Category:    "injury_illness",
		Description: "worker cut a finger on the trim line",
		FieldsJSON:  `{"site":"Austin Stassney"}`,
		HintsJSON:   `{"likely_body_part":"upper limb"}`,
		Source:      "chatbot",
		CreatedAt:   created,
	}
	entry := ArchiveEntry{
		ID:          id,
		Category:    "injury_illness",
		PayloadJSON: `{"schema":"AVOMO-OSHA"}`,
		CreatedAt:   created,
	}
	return inc, entry
}

func TestSaveIncidentWritesBothStores(t *testing.T) {
	s := openTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	inc, entry := testIncident("1700000000000-abc12345", now)
	if err := s.SaveIncident(inc, entry); err != nil {
		t.Fatalf("SaveIncident: %v", err)
	}

	got, err := s.GetIncident(inc.ID)
	if err != nil {
		t.Fatalf("GetIncident: %v", err)
	}
	if got.Category != inc.Category {
		t.Errorf("category = %q, want %q", got.Category, inc.Category)
	}
	if got.Description != inc.Description {
		t.Errorf("description = %q, want %q", got.Description, inc.Description)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, now)
	}

	arch, err := s.GetArchiveEntry(inc.ID)
	if err != nil {
		t.Fatalf("GetArchiveEntry: %v", err)
	}
	if arch.PayloadJSON != entry.PayloadJSON {
		t.Errorf("payload = %q, want %q", arch.PayloadJSON, entry.PayloadJSON)
	}
}

func TestSaveIncidentOverwrites(t *testing.T) {
	s := openTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	inc, entry := testIncident("dup-id", now)
	if err := s.SaveIncident(inc, entry); err != nil {
		t.Fatalf("first SaveIncident: %v", err)
	}

	inc.Description = "updated description"
	if err := s.SaveIncident(inc, entry); err != nil {
		t.Fatalf("second SaveIncident: %v", err)
	}

	got, err := s.GetIncident("dup-id")
	if err != nil {
		t.Fatalf("GetIncident: %v", err)
	}
	if got.Description != "updated description" {
		t.Errorf("description = %q, want overwrite to win", got.Description)
	}

	n, err := s.CountIncidents()
	if err != nil {
		t.Fatalf("CountIncidents: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestGetIncidentNotFound(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetIncident("nope"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetArchiveEntry("nope"); err != ErrNotFound {
		t.Errorf("archive err = %v, want ErrNotFound", err)
	}
}

func TestListIncidentsNewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"a", "b", "c"} {
		inc, entry := testIncident(id, base.Add(time.Duration(i)*time.Minute))
		if err := s.SaveIncident(inc, entry); err != nil {
			t.Fatalf("SaveIncident %s: %v", id, err)
		}
	}

	got, err := s.ListIncidents(10, 0)
	if err != nil {
		t.Fatalf("ListIncidents: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ID != "c" || got[2].ID != "a" {
		t.Errorf("order = [%s %s %s], want newest first", got[0].ID, got[1].ID, got[2].ID)
	}

	page, err := s.ListIncidents(1, 1)
	if err != nil {
		t.Fatalf("ListIncidents paged: %v", err)
	}
	if len(page) != 1 || page[0].ID != "b" {
		t.Errorf("paged result = %v, want [b]", page)
	}
}

func TestSeverityFlagsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	inc, entry := testIncident("severe-1", time.Now().UTC().Truncate(time.Second))
	inc.Severe = true
	inc.SevereLabel = "hospitalization"
	inc.ExternalReportRequired = true
	if err := s.SaveIncident(inc, entry); err != nil {
		t.Fatalf("SaveIncident: %v", err)
	}

	got, err := s.GetIncident("severe-1")
	if err != nil {
		t.Fatalf("GetIncident: %v", err)
	}
	if !got.Severe || !got.ExternalReportRequired {
		t.Errorf("severity flags lost: severe=%v external=%v", got.Severe, got.ExternalReportRequired)
	}
	if got.SevereLabel != "hospitalization" {
		t.Errorf("label = %q, want hospitalization", got.SevereLabel)
	}
}
