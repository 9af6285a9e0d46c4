// Package severity applies a fixed rule table to decide whether an event
// qualifies as a severe/escalated event. The same table drives two call
// sites: at session start against the raw free-text description, and at
// session completion against the collected structured answers.
package severity

import (
	"strconv"
	"strings"
)

// costThreshold is the fixed dollar amount above which property damage
// escalates.
const costThreshold = 10000

// Verdict is the evaluator's decision. Label is empty when not severe.
type Verdict struct {
	Severe bool
	Label  string
}

// rule is one trigger condition. Keywords match free text, fieldCheck
// matches a collected answer; a rule may carry either or both. always
// fires unconditionally (used for categories that are severe by nature).
type rule struct {
	label      string
	always     bool
	keywords   []string
	field      string
	fieldCheck func(value string) bool
}

// rules per category, evaluated in order; the first match wins.
var rules = map[string][]rule{
	"vehicle_collision": {
		{label: "av_collision_emergency", always: true},
	},
	"injury_illness": {
		{
			label:    "fatality",
			keywords: []string{"fatality", "fatal", "death", "died", "life-threatening", "amputation"},
		},
		{
			label:      "hospitalization",
			field:      "medical_treatment_level",
			fieldCheck: func(v string) bool { return strings.EqualFold(strings.TrimSpace(v), "Hospitalization") },
		},
	},
	"property_damage": {
		{
			label:      "major_property_damage",
			field:      "approximate_total_cost",
			fieldCheck: func(v string) bool { return parseCost(v) > costThreshold },
		},
	},
	"environmental": {
		{
			label:    "reportable_release",
			keywords: []string{"large spill", "major spill", "uncontained"},
		},
		{
			label:      "reportable_release",
			field:      "agency_notified",
			fieldCheck: isAffirmative,
		},
	},
}

// Labels maps severity labels to their human-readable criteria.
var Labels = map[string]string{
	"av_collision_emergency": "AV collision resulting in serious injury or significant property damage",
	"fatality":               "Fatality or life-threatening injury",
	"hospitalization":        "Injury requiring hospitalization",
	"major_property_damage":  "Property damage exceeding the reporting cost threshold",
	"reportable_release":     "Environmental release requiring agency notification",
}

// Describe returns the human-readable criteria text for a severity label.
func Describe(label string) string {
	return Labels[label]
}

// EvaluateText runs the pre-collection check against the raw description,
// before any fields exist. Only unconditional and keyword rules can fire.
func EvaluateText(category, description string) Verdict {
	desc := strings.ToLower(description)
	for _, r := range rules[category] {
		if r.always {
			return Verdict{Severe: true, Label: r.label}
		}
		for _, kw := range r.keywords {
			if strings.Contains(desc, kw) {
				return Verdict{Severe: true, Label: r.label}
			}
		}
	}
	return Verdict{}
}

// EvaluateAnswers runs the post-collection check against the structured
// answers. Keyword rules are matched against the concatenated answer text,
// field rules against the specific collected value.
func EvaluateAnswers(category string, answers map[string]string) Verdict {
	var joined strings.Builder
	for _, v := range answers {
		joined.WriteString(strings.ToLower(v))
		joined.WriteByte(' ')
	}
	text := joined.String()

	for _, r := range rules[category] {
		if r.always {
			return Verdict{Severe: true, Label: r.label}
		}
		if r.field != "" && r.fieldCheck != nil {
			if v, ok := answers[r.field]; ok && r.fieldCheck(v) {
				return Verdict{Severe: true, Label: r.label}
			}
		}
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return Verdict{Severe: true, Label: r.label}
			}
		}
	}
	return Verdict{}
}

// parseCost tolerates "$1,000.00"-style input; unparseable values count as
// zero rather than failing the evaluation.
func parseCost(v string) float64 {
	cleaned := strings.TrimSpace(v)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

func isAffirmative(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "no", "none", "n/a", "na":
		return false
	}
	return true
}
