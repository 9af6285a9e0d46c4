package catalog

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		fieldID    string
		answer     string
		wantErr    bool
		wantReason string
	}{
		{name: "too short", fieldID: "exact_location", answer: "x", wantErr: true, wantReason: "Please provide more detail."},
		{name: "whitespace only", fieldID: "exact_location", answer: "   ", wantErr: true, wantReason: "Please provide more detail."},
		{name: "free text ok", fieldID: "exact_location", answer: "bay 3 near the charging pads", wantErr: false},
		{name: "valid date", fieldID: "event_date", answer: "2025-09-01", wantErr: false},
		{name: "bad date", fieldID: "event_date", answer: "Sept 1st", wantErr: true, wantReason: "Use YYYY-MM-DD."},
		{name: "valid time", fieldID: "event_time", answer: "14:30", wantErr: false},
		{name: "bad time", fieldID: "event_time", answer: "2:30pm", wantErr: true, wantReason: "Use HH:MM in 24h."},
		{name: "valid site", fieldID: "site", answer: "Austin Stassney", wantErr: false},
		{name: "site case-insensitive", fieldID: "site", answer: "austin stassney", wantErr: false},
		{name: "unknown site", fieldID: "site", answer: "Detroit Main", wantErr: true},
		{name: "cost plain", fieldID: "approximate_total_cost", answer: "15000", wantErr: false},
		{name: "cost formatted", fieldID: "approximate_total_cost", answer: "$1,000.00", wantErr: false},
		{name: "cost text", fieldID: "approximate_total_cost", answer: "a lot", wantErr: true, wantReason: "Enter a number like 1000 or 1,000.00."},
		{name: "closed vocab yes", fieldID: "enablon_report_submitted", answer: "Yes", wantErr: false},
		{name: "closed vocab lowercase", fieldID: "enablon_report_submitted", answer: "no", wantErr: false},
		{name: "closed vocab other", fieldID: "enablon_report_submitted", answer: "maybe", wantErr: true},
		{name: "treatment level", fieldID: "medical_treatment_level", answer: "Hospitalization", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := Validate(tt.fieldID, tt.answer)
			if tt.wantErr && verr == nil {
				t.Fatalf("Validate(%q, %q) = nil, want error", tt.fieldID, tt.answer)
			}
			if !tt.wantErr && verr != nil {
				t.Fatalf("Validate(%q, %q) = %v, want nil", tt.fieldID, tt.answer, verr)
			}
			if tt.wantReason != "" && verr.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", verr.Reason, tt.wantReason)
			}
		})
	}
}

func TestValidateClosedVocabListsChoices(t *testing.T) {
	verr := Validate("site", "Mars Base")
	if verr == nil {
		t.Fatal("expected error for unknown site")
	}
	for _, site := range SiteNames() {
		if !strings.Contains(verr.Reason, site) {
			t.Errorf("reason %q missing site %q", verr.Reason, site)
		}
	}
}

func TestValidationErrorMessage(t *testing.T) {
	verr := Validate("event_date", "tomorrow")
	if verr == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(verr.Error(), "event_date") {
		t.Errorf("Error() = %q, want it to name the field", verr.Error())
	}
}
