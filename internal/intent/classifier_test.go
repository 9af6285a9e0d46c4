package intent

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		description  string
		wantCategory string
	}{
		{
			name:         "injury with body part",
			description:  "John hurt his wrist at 2:30pm near the garage",
			wantCategory: "injury_illness",
		},
		{
			name:         "av collision",
			description:  "the AV hit a barrier and security called 911 after the crash",
			wantCategory: "vehicle_collision",
		},
		{
			name:         "fracture beats generic damage",
			description:  "an employee broke his arm when the pallet shifted",
			wantCategory: "injury_illness",
		},
		{
			name:         "chemical spill",
			description:  "there is a chemical spill by the loading dock",
			wantCategory: "environmental",
		},
		{
			name:         "near miss",
			description:  "a close call, the forklift almost tipped over",
			wantCategory: "near_miss",
		},
		{
			name:         "theft",
			description:  "someone unauthorized was seen taking tools, possible theft",
			wantCategory: "security_concern",
		},
		{
			name:         "no keywords falls back",
			description:  "something odd happened this morning",
			wantCategory: "safety_concern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.description)
			if got.Category != tt.wantCategory {
				t.Errorf("Classify(%q).Category = %q, want %q", tt.description, got.Category, tt.wantCategory)
			}
			if got.Confidence <= 0 || got.Confidence > confidenceCap {
				t.Errorf("confidence = %v, want in (0, %v]", got.Confidence, confidenceCap)
			}
		})
	}
}

func TestClassifyFallbackConfidence(t *testing.T) {
	got := Classify("nothing matches here")
	if got.Category != defaultCategory {
		t.Fatalf("category = %q, want %q", got.Category, defaultCategory)
	}
	if got.Confidence != defaultConfidence {
		t.Errorf("confidence = %v, want %v", got.Confidence, defaultConfidence)
	}
}

// TestClassifyDeterministic re-runs classification on the same text and
// expects byte-identical results, hints included.
func TestClassifyDeterministic(t *testing.T) {
	desc := "the driverless AV clipped a cone at 09:15 near the east gate, small leak from the bumper"
	first := Classify(desc)
	for i := 0; i < 20; i++ {
		got := Classify(desc)
		if got.Category != first.Category || got.Confidence != first.Confidence {
			t.Fatalf("run %d verdict drifted: %+v vs %+v", i, got, first)
		}
		if !reflect.DeepEqual(got.Hints, first.Hints) {
			t.Fatalf("run %d hints drifted: %v vs %v", i, got.Hints, first.Hints)
		}
	}
}

func TestExtractHints(t *testing.T) {
	tests := []struct {
		name string
		desc string
		want map[string]string
	}{
		{
			name: "time location and body part",
			desc: "john hurt his wrist at 2:30pm near the garage",
			want: map[string]string{
				"estimated_time":     "2:30pm",
				"estimated_location": "garage",
				"likely_body_part":   "upper limb",
			},
		},
		{
			name: "lower limb",
			desc: "she twisted her ankle on the stairs",
			want: map[string]string{"likely_body_part": "lower limb"},
		},
		{
			name: "upper limb wins over lower",
			desc: "her hand and foot hurt badly",
			want: map[string]string{"likely_body_part": "upper limb"},
		},
		{
			name: "autonomous mode",
			desc: "the vehicle was in self-driving operation",
			want: map[string]string{"operating_mode": "autonomous"},
		},
		{
			name: "manual mode",
			desc: "operator had it in manual mode",
			want: map[string]string{"operating_mode": "manual"},
		},
		{
			name: "spill size",
			desc: "a large spill of coolant",
			want: map[string]string{"spill_size": "large"},
		},
		{
			name: "leak qualifier",
			desc: "minor leak under the lift",
			want: map[string]string{"spill_size": "minor"},
		},
		{
			name: "no hints",
			desc: "general observation",
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractHints(tt.desc)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("extractHints(%q) = %v, want %v", tt.desc, got, tt.want)
			}
		})
	}
}

// TestHintsSurviveFallback: hint extraction is independent of the category
// decision, so a fallback classification still carries hints.
func TestHintsSurviveFallback(t *testing.T) {
	got := Classify("it was around 10:45 by the breakroom, nothing else to say")
	if got.Category != defaultCategory {
		t.Fatalf("category = %q, want fallback", got.Category)
	}
	if got.Hints["estimated_time"] != "10:45" {
		t.Errorf("estimated_time = %q, want 10:45", got.Hints["estimated_time"])
	}
}
