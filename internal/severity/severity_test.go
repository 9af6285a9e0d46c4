package severity

import "testing"

func TestEvaluateText(t *testing.T) {
	tests := []struct {
		name        string
		category    string
		description string
		wantSevere  bool
		wantLabel   string
	}{
		{
			name:        "vehicle collision always severe",
			category:    "vehicle_collision",
			description: "the av tapped a cone at low speed",
			wantSevere:  true,
			wantLabel:   "av_collision_emergency",
		},
		{
			name:        "fatality keyword",
			category:    "injury_illness",
			description: "a worker suffered a fatal fall from the mezzanine",
			wantSevere:  true,
			wantLabel:   "fatality",
		},
		{
			name:        "ordinary injury not severe pre-collection",
			category:    "injury_illness",
			description: "cut finger on the trim line",
			wantSevere:  false,
		},
		{
			name:        "uncontained release",
			category:    "environmental",
			description: "uncontained diesel release near the fuel island",
			wantSevere:  true,
			wantLabel:   "reportable_release",
		},
		{
			name:        "minor spill not severe",
			category:    "environmental",
			description: "small coolant spill, cleaned up",
			wantSevere:  false,
		},
		{
			name:        "category without rules",
			category:    "near_miss",
			description: "fatal-looking close call",
			wantSevere:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateText(tt.category, tt.description)
			if got.Severe != tt.wantSevere {
				t.Errorf("Severe = %v, want %v", got.Severe, tt.wantSevere)
			}
			if got.Label != tt.wantLabel {
				t.Errorf("Label = %q, want %q", got.Label, tt.wantLabel)
			}
		})
	}
}

func TestEvaluateAnswers(t *testing.T) {
	tests := []struct {
		name       string
		category   string
		answers    map[string]string
		wantSevere bool
		wantLabel  string
	}{
		{
			name:     "hospitalization",
			category: "injury_illness",
			answers: map[string]string{
				"medical_treatment_level": "Hospitalization",
			},
			wantSevere: true,
			wantLabel:  "hospitalization",
		},
		{
			name:     "first aid only",
			category: "injury_illness",
			answers: map[string]string{
				"medical_treatment_level": "First aid",
			},
			wantSevere: false,
		},
		{
			name:     "fatality in answer text",
			category: "injury_illness",
			answers: map[string]string{
				"injury_illness_description": "employee died at the scene",
			},
			wantSevere: true,
			wantLabel:  "fatality",
		},
		{
			name:     "cost over threshold",
			category: "property_damage",
			answers: map[string]string{
				"approximate_total_cost": "15000",
			},
			wantSevere: true,
			wantLabel:  "major_property_damage",
		},
		{
			name:     "formatted cost over threshold",
			category: "property_damage",
			answers: map[string]string{
				"approximate_total_cost": "$12,500.00",
			},
			wantSevere: true,
			wantLabel:  "major_property_damage",
		},
		{
			name:     "cost under threshold",
			category: "property_damage",
			answers: map[string]string{
				"approximate_total_cost": "500",
			},
			wantSevere: false,
		},
		{
			name:     "unparseable cost counts as zero",
			category: "property_damage",
			answers: map[string]string{
				"approximate_total_cost": "unknown",
			},
			wantSevere: false,
		},
		{
			name:     "agency notified",
			category: "environmental",
			answers: map[string]string{
				"agency_notified": "EPA regional office",
			},
			wantSevere: true,
			wantLabel:  "reportable_release",
		},
		{
			name:     "agency not notified",
			category: "environmental",
			answers: map[string]string{
				"agency_notified": "No",
			},
			wantSevere: false,
		},
		{
			name:       "collision always severe",
			category:   "vehicle_collision",
			answers:    map[string]string{},
			wantSevere: true,
			wantLabel:  "av_collision_emergency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateAnswers(tt.category, tt.answers)
			if got.Severe != tt.wantSevere {
				t.Errorf("Severe = %v, want %v", got.Severe, tt.wantSevere)
			}
			if got.Label != tt.wantLabel {
				t.Errorf("Label = %q, want %q", got.Label, tt.wantLabel)
			}
		})
	}
}

func TestParseCost(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1000", 1000},
		{"$1,000.00", 1000},
		{" 15000 ", 15000},
		{"nonsense", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parseCost(tt.in); got != tt.want {
			t.Errorf("parseCost(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsAffirmative(t *testing.T) {
	affirmative := []string{"Yes", "EPA", "state agency"}
	negative := []string{"", "no", "None", "n/a", "NA", "  no  "}

	for _, v := range affirmative {
		if !isAffirmative(v) {
			t.Errorf("isAffirmative(%q) = false, want true", v)
		}
	}
	for _, v := range negative {
		if isAffirmative(v) {
			t.Errorf("isAffirmative(%q) = true, want false", v)
		}
	}
}

func TestDescribe(t *testing.T) {
	if Describe("fatality") == "" {
		t.Error("expected criteria text for fatality")
	}
	if Describe("unknown_label") != "" {
		t.Error("expected empty text for unknown label")
	}
}
