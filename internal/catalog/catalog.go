// Package catalog is the static registry of incident categories: which
// fields each category collects, in what order, with what prompts, closed
// vocabularies, and validation rules. Pure data plus lookup; no storage or
// network access.
package catalog

import (
	"fmt"
	"strings"
)

// Category describes one incident classification and the ordered sequence
// of fields it must collect. Field order is question order.
type Category struct {
	ID             string
	Name           string
	Description    string
	RequiredFields []string
}

// Field describes a single question: its prompt, an optional closed set of
// allowed answers, and an optional validation pattern.
type Field struct {
	ID           string
	Prompt       string
	QuickReplies []string
	Pattern      string
	PatternError string
}

// Sites are the known depot locations, keyed by identifier.
var Sites = map[string]string{
	"austin_stassney":  "Austin Stassney",
	"atlanta_plymouth": "Atlanta Plymouth",
	"atlanta_manheim":  "Atlanta Manheim",
}

// SiteNames returns the display names of all known sites in a stable order.
func SiteNames() []string {
	return []string{"Austin Stassney", "Atlanta Plymouth", "Atlanta Manheim"}
}

var categories = map[string]Category{
	"safety_concern": {
		ID:          "safety_concern",
		Name:        "Safety Concern",
		Description: "You noticed something unsafe or unusual, but no one was hurt and nothing was damaged",
		RequiredFields: []string{
			"safety_concern_description", "safety_concern_corrective_action",
		},
	},
	"injury_illness": {
		ID:          "injury_illness",
		Name:        "Injury/Illness",
		Description: "Someone got hurt or felt sick while working",
		RequiredFields: []string{
			"event_date", "event_time", "site", "exact_location",
			"injured_employee_name", "injured_employee_job_title", "employee_status",
			"injury_illness_description", "injury_illness_type", "affected_body_parts",
			"injury_illness_immediate_action", "ppe_in_use", "medical_treatment_level",
			"supervisor_name", "date_supervisor_notified", "time_supervisor_notified",
			"enablon_report_submitted",
		},
	},
	"property_damage": {
		ID:          "property_damage",
		Name:        "Property Damage",
		Description: "Something (equipment/facility/tool/vehicle) got damaged, broken, or lost",
		RequiredFields: []string{
			"event_date", "event_time", "site", "exact_location",
			"property_damage_description", "approximate_total_cost",
			"property_damage_immediate_action", "enablon_report_submitted",
		},
	},
	"security_concern": {
		ID:          "security_concern",
		Name:        "Security Concern",
		Description: "Theft, unauthorized access, or other suspicious activity on site",
		RequiredFields: []string{
			"event_date", "event_time", "site",
			"security_concern_description", "security_concern_immediate_action",
		},
	},
	"vehicle_collision": {
		ID:          "vehicle_collision",
		Name:        "Vehicle Collision",
		Description: "Collision involving AV or yard vehicle",
		RequiredFields: []string{
			"event_date", "event_time", "site", "exact_location",
			"vehicles_involved", "collision_description", "injuries_reported",
			"law_enforcement_contacted", "enablon_report_submitted",
		},
	},
	"environmental": {
		ID:          "environmental",
		Name:        "Environmental Event",
		Description: "Spill, leak, or environmental release",
		RequiredFields: []string{
			"event_date", "event_time", "site", "exact_location",
			"substance_name", "estimated_volume", "containment_actions", "agency_notified",
			"enablon_report_submitted",
		},
	},
	"depot_event": {
		ID:          "depot_event",
		Name:        "Depot Event",
		Description: "Site-wide outage, emergency, or system failure affecting depot operations",
		RequiredFields: []string{
			"event_date", "event_time", "site",
			"depot_event_description", "operations_impact", "depot_event_immediate_action",
		},
	},
	"near_miss": {
		ID:          "near_miss",
		Name:        "Near Miss",
		Description: "Something almost went wrong; no injury/damage but credible risk",
		RequiredFields: []string{
			"event_date", "event_time", "site", "exact_location",
			"near_miss_type", "near_miss_description", "near_miss_corrective_action",
			"enablon_report_submitted",
		},
	},
}

var fields = map[string]Field{
	"event_date": {
		ID:           "event_date",
		Prompt:       "What is the event date? (YYYY-MM-DD)",
		Pattern:      `^\d{4}-\d{2}-\d{2}$`,
		PatternError: "Use YYYY-MM-DD.",
	},
	"event_time": {
		ID:           "event_time",
		Prompt:       "What time did it happen? (HH:MM 24h)",
		Pattern:      `^\d{2}:\d{2}$`,
		PatternError: "Use HH:MM in 24h.",
	},
	"site": {
		ID:           "site",
		Prompt:       fmt.Sprintf("Which site? (%s)", strings.Join(SiteNames(), ", ")),
		QuickReplies: SiteNames(),
	},
	"exact_location": {
		ID:     "exact_location",
		Prompt: "Where exactly at the site? (building/room/area)",
	},
	"injured_employee_name": {
		ID:     "injured_employee_name",
		Prompt: "What is the injured employee's full name?",
	},
	"injured_employee_job_title": {
		ID:     "injured_employee_job_title",
		Prompt: "Their job title?",
	},
	"injured_employee_phone": {
		ID:           "injured_employee_phone",
		Prompt:       "A contact phone number for the injured employee?",
		Pattern:      `^[0-9\-\+\s\(\)]{7,}$`,
		PatternError: "Enter a valid phone number.",
	},
	"employee_status": {
		ID:           "employee_status",
		Prompt:       "Employee status? (Full-time, Part-time, Contractor)",
		QuickReplies: []string{"Full-time", "Part-time", "Contractor"},
	},
	"injury_illness_description": {
		ID:     "injury_illness_description",
		Prompt: "Describe how the injury/illness occurred.",
	},
	"injury_illness_type": {
		ID:           "injury_illness_type",
		Prompt:       "Select the injury/illness type (e.g., Fracture, Laceration, Burn, Strain)",
		QuickReplies: []string{"Fracture", "Laceration", "Burn", "Strain", "Sprain", "Contusion", "Other"},
	},
	"affected_body_parts": {
		ID:     "affected_body_parts",
		Prompt: "Which body part was affected?",
		QuickReplies: []string{
			"Head", "Eye", "Hand", "Finger", "Arm", "Wrist", "Shoulder",
			"Back", "Leg", "Knee", "Ankle", "Foot", "Torso", "Multiple",
		},
	},
	"injury_illness_immediate_action": {
		ID:     "injury_illness_immediate_action",
		Prompt: "What immediate actions were taken?",
	},
	"ppe_in_use": {
		ID:     "ppe_in_use",
		Prompt: "Was PPE worn? If yes, which?",
	},
	"medical_treatment_level": {
		ID:           "medical_treatment_level",
		Prompt:       "What treatment level? (First aid, Clinic, Hospitalization)",
		QuickReplies: []string{"First aid", "Clinic", "Hospitalization"},
	},
	"supervisor_name": {
		ID:     "supervisor_name",
		Prompt: "Who is the supervisor?",
	},
	"date_supervisor_notified": {
		ID:           "date_supervisor_notified",
		Prompt:       "When was the supervisor notified? (YYYY-MM-DD)",
		Pattern:      `^\d{4}-\d{2}-\d{2}$`,
		PatternError: "Use YYYY-MM-DD.",
	},
	"time_supervisor_notified": {
		ID:           "time_supervisor_notified",
		Prompt:       "What time was the supervisor notified? (HH:MM)",
		Pattern:      `^\d{2}:\d{2}$`,
		PatternError: "Use HH:MM in 24h.",
	},
	"enablon_report_submitted": {
		ID:           "enablon_report_submitted",
		Prompt:       "Has the Enablon report been submitted? (Yes/No)",
		QuickReplies: []string{"Yes", "No"},
	},
	"safety_concern_description": {
		ID:     "safety_concern_description",
		Prompt: "Describe the unsafe condition or behavior you observed.",
	},
	"safety_concern_corrective_action": {
		ID:     "safety_concern_corrective_action",
		Prompt: "What corrective action do you suggest, or was already taken?",
	},
	"property_damage_description": {
		ID:     "property_damage_description",
		Prompt: "Describe the property damage and cause.",
	},
	"approximate_total_cost": {
		ID:           "approximate_total_cost",
		Prompt:       "Approximate total cost?",
		Pattern:      `^\$?\d+(,\d{3})*(\.\d{2})?$`,
		PatternError: "Enter a number like 1000 or 1,000.00.",
	},
	"property_damage_immediate_action": {
		ID:     "property_damage_immediate_action",
		Prompt: "What immediate actions were taken?",
	},
	"security_concern_description": {
		ID:     "security_concern_description",
		Prompt: "Describe the security concern (what, who, where).",
	},
	"security_concern_immediate_action": {
		ID:     "security_concern_immediate_action",
		Prompt: "What immediate actions were taken (security notified, area secured)?",
	},
	"vehicles_involved": {
		ID:     "vehicles_involved",
		Prompt: "List vehicles involved.",
	},
	"collision_description": {
		ID:     "collision_description",
		Prompt: "Describe the collision events.",
	},
	"injuries_reported": {
		ID:     "injuries_reported",
		Prompt: "Any injuries reported? If yes, details.",
	},
	"law_enforcement_contacted": {
		ID:           "law_enforcement_contacted",
		Prompt:       "Was law enforcement contacted? (Yes/No)",
		QuickReplies: []string{"Yes", "No"},
	},
	"substance_name": {
		ID:     "substance_name",
		Prompt: "What substance was released?",
	},
	"estimated_volume": {
		ID:     "estimated_volume",
		Prompt: "Estimated volume released?",
	},
	"containment_actions": {
		ID:     "containment_actions",
		Prompt: "What containment/cleanup actions were taken?",
	},
	"agency_notified": {
		ID:     "agency_notified",
		Prompt: "Any agency notified? (EPA/State/Local)",
	},
	"depot_event_description": {
		ID:     "depot_event_description",
		Prompt: "Describe the depot event (outage, emergency, system failure).",
	},
	"operations_impact": {
		ID:     "operations_impact",
		Prompt: "What is the impact on depot operations?",
	},
	"depot_event_immediate_action": {
		ID:     "depot_event_immediate_action",
		Prompt: "What immediate actions were taken?",
	},
	"near_miss_type": {
		ID:     "near_miss_type",
		Prompt: "What type of near miss was it? (e.g., struck-by, fall, equipment)",
	},
	"near_miss_description": {
		ID:     "near_miss_description",
		Prompt: "Describe what almost happened and why.",
	},
	"near_miss_corrective_action": {
		ID:     "near_miss_corrective_action",
		Prompt: "What corrective action would prevent it from recurring?",
	},
}

// Lookup returns the category definition for id.
func Lookup(id string) (Category, bool) {
	c, ok := categories[id]
	return c, ok
}

// Categories returns all category IDs in a stable order.
func Categories() []string {
	return []string{
		"safety_concern", "injury_illness", "property_damage", "security_concern",
		"vehicle_collision", "environmental", "depot_event", "near_miss",
	}
}

// FieldSpec returns the field definition for id. Unknown fields get a
// generated fallback prompt so the flow never dead-ends on catalog drift.
func FieldSpec(id string) Field {
	if f, ok := fields[id]; ok {
		return f
	}
	return Field{
		ID:     id,
		Prompt: fmt.Sprintf("Please provide %s.", strings.ReplaceAll(id, "_", " ")),
	}
}

// QuickReplies returns the closed vocabulary for a field, or nil.
func QuickReplies(fieldID string) []string {
	return FieldSpec(fieldID).QuickReplies
}

// DecoratePrompt returns the field's prompt, enriched with any extracted
// hint that is relevant to the field. Hints are suggestions only; the
// answer the user gives is what gets recorded.
func DecoratePrompt(fieldID string, hints map[string]string) string {
	prompt := FieldSpec(fieldID).Prompt
	if len(hints) == 0 {
		return prompt
	}
	switch fieldID {
	case "event_time":
		if v := hints["estimated_time"]; v != "" {
			prompt += fmt.Sprintf(" (You mentioned '%s' — confirm or provide exact time)", v)
		}
	case "exact_location":
		if v := hints["estimated_location"]; v != "" {
			prompt += fmt.Sprintf(" (I noticed '%s')", v)
		}
	case "affected_body_parts":
		if v := hints["likely_body_part"]; v != "" {
			prompt += fmt.Sprintf(" (Likely body part: %s)", v)
		}
	case "collision_description":
		if v := hints["operating_mode"]; v != "" {
			prompt += fmt.Sprintf(" (Operating mode mentioned: %s)", v)
		}
	case "estimated_volume":
		if v := hints["spill_size"]; v != "" {
			prompt += fmt.Sprintf(" (You described it as '%s')", v)
		}
	}
	return prompt
}
