// Package bot drives the conversational incident intake: a per-user state
// machine that classifies a free-text trigger, asks the category's required
// questions one at a time with validation, and finalizes the answers into a
// durable incident record. The engine holds no conversation state in
// memory — every turn round-trips through the session store, so any worker
// process can serve any turn.
package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/H9919/ehsbot/internal/catalog"
	"github.com/H9919/ehsbot/internal/intent"
	"github.com/H9919/ehsbot/internal/record"
	"github.com/H9919/ehsbot/internal/session"
	"github.com/H9919/ehsbot/internal/severity"
)

// ErrNoActiveSession signals that the message was neither a start trigger
// nor an answer to a live session. The dispatcher decides what happens
// next; the engine itself never invents a fallback flow.
var ErrNoActiveSession = errors.New("no active session")

// startTriggers are the phrases that begin a new report. A trigger always
// starts fresh, overwriting any in-progress session for the user.
var startTriggers = []string{
	"report incident",
	"incident report",
	"report a workplace incident",
	"i need to report",
	"accident",
	"injury",
	"collision",
	"spill",
	"near miss",
	"safety concern",
}

// IsReportTrigger reports whether the message asks to start an incident
// report.
func IsReportTrigger(message string) bool {
	m := strings.ToLower(message)
	for _, t := range startTriggers {
		if strings.Contains(m, t) {
			return true
		}
	}
	return false
}

// Engine is the incident-intake state machine.
type Engine struct {
	sessions  *session.Store
	persister *record.Persister
	now       func() time.Time
}

func NewEngine(sessions *session.Store, persister *record.Persister) *Engine {
	return &Engine{
		sessions:  sessions,
		persister: persister,
		now:       time.Now,
	}
}

// Handle processes one conversational turn. Start triggers win over any
// existing session; otherwise the message is treated as an answer to the
// current field. With neither, ErrNoActiveSession is returned.
func (e *Engine) Handle(userID, message string) (Response, error) {
	msg := strings.TrimSpace(message)

	if IsReportTrigger(msg) {
		return e.start(userID, msg), nil
	}

	sess := e.sessions.Load(userID)
	if sess.Collecting() {
		return e.answer(userID, sess, msg), nil
	}

	return Response{}, ErrNoActiveSession
}

// Reset discards any session for the user, independent of trigger/answer
// logic.
func (e *Engine) Reset(userID string) Response {
	if err := e.sessions.Clear(userID); err != nil {
		slog.Error("clearing session failed", "user_id", userID, "error", err)
		return errorResponse()
	}
	return Response{
		OK:      true,
		Type:    TypeReset,
		Message: "🔄 Chat session reset. How can I help?",
	}
}

func (e *Engine) start(userID, message string) Response {
	result := intent.Classify(message)

	cat, ok := catalog.Lookup(result.Category)
	if !ok {
		// The classifier and catalog share a category list; reaching this
		// means the tables drifted. Degrade to the default category.
		slog.Warn("classified category missing from catalog", "category", result.Category)
		cat, _ = catalog.Lookup("safety_concern")
	}

	sess := session.Session{
		UserID:             userID,
		Mode:               session.ModeCollecting,
		Category:           cat.ID,
		InitialDescription: message,
		Hints:              result.Hints,
		Answers:            make(map[string]string),
		FieldIndex:         0,
		RequiredFields:     append([]string(nil), cat.RequiredFields...),
		CreatedAt:          e.now().UTC(),
	}
	if err := e.sessions.Save(userID, sess); err != nil {
		slog.Error("saving new session failed", "user_id", userID, "error", err)
		return errorResponse()
	}

	verdict := severity.EvaluateText(cat.ID, message)

	var b strings.Builder
	if verdict.Severe {
		b.WriteString(severeBanner(verdict.Label))
	}
	fmt.Fprintf(&b, "I'll help you report this **%s**.\n\n%s\n\n", cat.Name, cat.Description)

	first := sess.CurrentField()
	fmt.Fprintf(&b, "**Question 1 of %d:** %s", len(sess.RequiredFields), catalog.DecoratePrompt(first, sess.Hints))

	return Response{
		OK:           true,
		Type:         TypeStart,
		Message:      b.String(),
		Category:     cat.ID,
		Field:        first,
		SevereEvent:  verdict.Severe,
		QuickReplies: catalog.QuickReplies(first),
	}
}

func (e *Engine) answer(userID string, sess session.Session, message string) Response {
	field := sess.CurrentField()
	if field == "" {
		// Index already past the end (e.g. a crash between save and
		// completion on a previous turn): finish now.
		return e.complete(userID, sess)
	}

	if verr := catalog.Validate(field, message); verr != nil {
		return Response{
			OK:   false,
			Type: TypeRetry,
			Message: fmt.Sprintf("❌ %s\n\n**Please re-enter:** %s",
				verr.Reason, catalog.DecoratePrompt(field, sess.Hints)),
			Field:        field,
			QuickReplies: catalog.QuickReplies(field),
		}
	}

	sess.Answers[field] = strings.TrimSpace(message)
	sess.FieldIndex++
	if err := e.sessions.Save(userID, sess); err != nil {
		slog.Error("saving session turn failed", "user_id", userID, "error", err)
		return errorResponse()
	}

	if sess.FieldIndex >= len(sess.RequiredFields) {
		return e.complete(userID, sess)
	}

	next := sess.CurrentField()
	total := len(sess.RequiredFields)
	current := sess.FieldIndex + 1
	return Response{
		OK:   true,
		Type: TypeContinue,
		Message: fmt.Sprintf("✅ **Recorded**\n\n**Question %d of %d:** %s",
			current, total, catalog.DecoratePrompt(next, sess.Hints)),
		Field:        next,
		QuickReplies: catalog.QuickReplies(next),
		Progress: &Progress{
			Current:    current,
			Total:      total,
			Percentage: current * 100 / total,
		},
	}
}

func (e *Engine) complete(userID string, sess session.Session) Response {
	verdict := severity.EvaluateAnswers(sess.Category, sess.Answers)

	rep := record.Report{
		Category:               sess.Category,
		Description:            sess.InitialDescription,
		Fields:                 sess.Answers,
		Hints:                  sess.Hints,
		Severe:                 verdict.Severe,
		SevereLabel:            verdict.Label,
		ExternalReportRequired: verdict.Severe,
	}

	id, err := e.persister.Persist(rep)

	if clearErr := e.sessions.Clear(userID); clearErr != nil {
		slog.Error("clearing completed session failed", "user_id", userID, "error", clearErr)
	}

	if err != nil {
		// Fatal for this request, not for the process: the user still gets
		// a best-effort completion with a caveat.
		slog.Error("persisting incident failed", "user_id", userID, "category", sess.Category, "error", err)
		return Response{
			OK:       true,
			Type:     TypeComplete,
			Message:  "✅ Your report has been recorded, but we hit a problem archiving it. An administrator has been alerted. If this is an emergency, call 911 and notify your supervisor directly.",
			Category: sess.Category,
		}
	}

	return Response{
		OK:       true,
		Type:     TypeComplete,
		Message:  completionSummary(id, sess, verdict),
		Category: sess.Category,
		RecordID: id,
		Progress: &Progress{
			Current:    len(sess.RequiredFields),
			Total:      len(sess.RequiredFields),
			Percentage: 100,
		},
	}
}

func errorResponse() Response {
	return Response{
		OK:      false,
		Type:    TypeError,
		Message: "Sorry, something went wrong while processing your message. Please try again.",
	}
}

func severeBanner(label string) string {
	var b strings.Builder
	b.WriteString("🚨 **SEVERE EVENT DETECTED** 🚨\n\n")
	fmt.Fprintf(&b, "Type: **%s**", label)
	if desc := severity.Describe(label); desc != "" {
		fmt.Fprintf(&b, " — %s", desc)
	}
	b.WriteString("\n\n**IMMEDIATE ACTIONS**: If anyone needs medical attention call 911; notify your supervisor; preserve the scene if it is safe to do so.\n\n")
	return b.String()
}

// highlightFields lists the category-specific answers worth surfacing in
// the completion summary.
var highlightFields = map[string][]string{
	"injury_illness":    {"injured_employee_name", "injury_illness_type", "affected_body_parts"},
	"property_damage":   {"approximate_total_cost"},
	"vehicle_collision": {"vehicles_involved", "law_enforcement_contacted"},
	"environmental":     {"substance_name", "estimated_volume"},
	"near_miss":         {"near_miss_type"},
}

func completionSummary(id string, sess session.Session, verdict severity.Verdict) string {
	var b strings.Builder
	b.WriteString("✅ **Incident Report Completed** (AVOMO/OSHA)\n\n")
	fmt.Fprintf(&b, "Report ID: %s\n", id)

	if cat, ok := catalog.Lookup(sess.Category); ok {
		fmt.Fprintf(&b, "Type: %s\n", cat.Name)
	}
	if site := sess.Answers["site"]; site != "" {
		fmt.Fprintf(&b, "Site: %s\n", site)
	}
	if date := sess.Answers["event_date"]; date != "" {
		line := "Date: " + date
		if t := sess.Answers["event_time"]; t != "" {
			line += " " + t
		}
		b.WriteString(line + "\n")
	}
	for _, f := range highlightFields[sess.Category] {
		if v := sess.Answers[f]; v != "" {
			fmt.Fprintf(&b, "%s: %s\n", strings.ReplaceAll(f, "_", " "), v)
		}
	}
	if verdict.Severe {
		fmt.Fprintf(&b, "Severity: SEVERE (%s) — flagged for external reporting\n", verdict.Label)
	}

	desc := sess.InitialDescription
	if len(desc) > 80 {
		desc = desc[:80] + "..."
	}
	fmt.Fprintf(&b, "\nReported: %s\n", desc)
	b.WriteString("\nA formal record has been saved. You can review it on the incidents page.")
	return b.String()
}
