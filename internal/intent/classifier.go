// Package intent scores free-text event descriptions against per-category
// keyword tables to pick the most likely incident category, and extracts
// incidental hints (time, location, body part, operating mode, spill size)
// via pattern matching. Classification is a pure function of its input and
// the static tables; re-running it on the same text always yields the same
// result.
package intent

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const (
	// The fallback when nothing scores: lowest-severity category with
	// moderate confidence.
	defaultCategory   = "safety_concern"
	defaultConfidence = 0.5

	// Confidence is raw score plus a fixed bias, capped below full
	// certainty — keyword scoring is never that sure.
	confidenceBias = 0.25
	confidenceCap  = 0.97

	// Score divisor floor, so categories with very few keywords aren't
	// over-rewarded per match.
	minDivisor = 6
)

// Result is the classifier's verdict for one description.
type Result struct {
	Category   string
	Confidence float64
	Hints      map[string]string
}

var injuryKeywords = []string{
	"injury", "injured", "hurt", "pain", "medical", "sick", "illness",
	"fracture", "fractured", "broke", "broken bone", "sprain", "strain",
	"dislocation", "laceration", "cut", "burn", "shock", "amputation",
	"hand", "finger", "arm", "wrist", "leg", "ankle", "foot", "back",
}

// Fracture-type terms weigh double so a description like "broke his wrist"
// lands on injury_illness instead of property_damage's generic "broken".
var heavyInjuryTerms = map[string]bool{
	"fracture":    true,
	"fractured":   true,
	"broke":       true,
	"broken bone": true,
}

var categoryKeywords = map[string][]string{
	"safety_concern": {"unsafe", "concern", "observation", "hazard", "risk", "dangerous"},
	"injury_illness": injuryKeywords,
	"property_damage": {
		"property damage", "equipment damage", "tool damage", "machine damage",
		"asset damage", "facility damage", "window", "door", "roof", "wall",
		"leaking pipe", "broken equipment", "damaged equipment",
	},
	"security_concern":  {"security", "theft", "unauthorized", "suspicious", "trespassing"},
	"vehicle_collision": {"collision", "crash", "hit", "accident", "vehicle", "av"},
	"environmental":     {"spill", "leak", "chemical", "environmental", "contamination"},
	"depot_event":       {"outage", "emergency", "site-wide", "depot", "system"},
	"near_miss":         {"near miss", "almost", "close call", "could have", "nearly"},
}

// Classify scores the description against every category's keyword set and
// returns the best match. Hint extraction runs regardless of which category
// wins, so even a fallback classification carries whatever the text gave us.
func Classify(description string) Result {
	desc := strings.ToLower(description)
	hints := extractHints(desc)

	scores := make(map[string]float64)
	for cat, keywords := range categoryKeywords {
		raw := 0
		for _, kw := range keywords {
			if !strings.Contains(desc, kw) {
				continue
			}
			if cat == "injury_illness" && heavyInjuryTerms[kw] {
				raw += 2
			} else {
				raw++
			}
		}
		if raw > 0 {
			divisor := len(keywords)
			if divisor < minDivisor {
				divisor = minDivisor
			}
			scores[cat] = float64(raw) / float64(divisor)
		}
	}

	if len(scores) == 0 {
		return Result{Category: defaultCategory, Confidence: defaultConfidence, Hints: hints}
	}

	// Deterministic argmax: iterate categories in sorted order so ties
	// resolve the same way on every run.
	cats := make([]string, 0, len(scores))
	for cat := range scores {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	best := cats[0]
	for _, cat := range cats[1:] {
		if scores[cat] > scores[best] {
			best = cat
		}
	}

	confidence := math.Min(confidenceCap, scores[best]+confidenceBias)
	return Result{Category: best, Confidence: confidence, Hints: hints}
}

var (
	timePattern     = regexp.MustCompile(`(\d{1,2}:\d{2}\s?(?:am|pm)?)`)
	locationPattern = regexp.MustCompile(`\b(?:at|in|near|inside|by)\s+the\s+([a-z]+(?:\s[a-z]+)?)`)
)

var upperLimbParts = []string{"hand", "wrist", "arm", "finger", "elbow", "shoulder"}
var lowerLimbParts = []string{"leg", "ankle", "foot", "knee", "toe"}

var operatingModes = []struct {
	token string
	mode  string
}{
	{"autonomous", "autonomous"},
	{"driverless", "autonomous"},
	{"self-driving", "autonomous"},
	{"manual mode", "manual"},
}

var spillQualifiers = []string{"small", "minor", "large", "major", "uncontained"}

// extractHints scans lowercased text for incidental facts. Every pattern is
// best-effort: absence is not an error, a match just adds a hint under its
// fixed key.
func extractHints(desc string) map[string]string {
	hints := make(map[string]string)

	if m := timePattern.FindStringSubmatch(desc); m != nil {
		hints["estimated_time"] = strings.TrimSpace(m[1])
	}

	if m := locationPattern.FindStringSubmatch(desc); m != nil {
		hints["estimated_location"] = m[1]
	}

	for _, part := range upperLimbParts {
		if strings.Contains(desc, part) {
			hints["likely_body_part"] = "upper limb"
			break
		}
	}
	if _, ok := hints["likely_body_part"]; !ok {
		for _, part := range lowerLimbParts {
			if strings.Contains(desc, part) {
				hints["likely_body_part"] = "lower limb"
				break
			}
		}
	}

	for _, om := range operatingModes {
		if strings.Contains(desc, om.token) {
			hints["operating_mode"] = om.mode
			break
		}
	}

	for _, q := range spillQualifiers {
		if strings.Contains(desc, q+" spill") || strings.Contains(desc, q+" leak") {
			hints["spill_size"] = q
			break
		}
	}

	return hints
}
