package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/H9919/ehsbot/internal/catalog"
	"github.com/H9919/ehsbot/internal/intent"
	"github.com/H9919/ehsbot/internal/upload"
)

// Responder handles a turn the incident engine declined. Implementations
// are generic chat strategies (help text, smalltalk, other guided flows).
type Responder interface {
	Respond(userID, message string) Response
}

// TurnContext carries optional side-channel data for a single turn.
type TurnContext struct {
	Attachment *upload.Saved
}

// Dispatcher selects between the incident engine and the generic fallback
// responder for each turn: trigger or live session means the engine, all
// else falls through. Strategies compose; neither knows about the other.
type Dispatcher struct {
	engine   *Engine
	fallback Responder
}

func NewDispatcher(engine *Engine, fallback Responder) *Dispatcher {
	if fallback == nil {
		fallback = GuidanceResponder{}
	}
	return &Dispatcher{engine: engine, fallback: fallback}
}

// Handle routes one turn. An attachment-only turn (no text) is acknowledged
// without touching session state.
func (d *Dispatcher) Handle(userID, message string, tc TurnContext) Response {
	msg := strings.TrimSpace(message)

	if msg == "" && tc.Attachment != nil {
		return acknowledgeAttachment(tc.Attachment)
	}

	resp, err := d.engine.Handle(userID, msg)
	if err == nil {
		return resp
	}
	if errors.Is(err, ErrNoActiveSession) {
		return d.fallback.Respond(userID, msg)
	}

	slog.Error("dispatching turn failed", "user_id", userID, "error", err)
	return errorResponse()
}

// Reset discards the user's session regardless of its state.
func (d *Dispatcher) Reset(userID string) Response {
	return d.engine.Reset(userID)
}

// acknowledgeAttachment confirms the stored file and, when text can be
// pulled out of it, suggests the category the content looks like.
func acknowledgeAttachment(att *upload.Saved) Response {
	msg := fmt.Sprintf("📎 **Attachment saved:** `%s` (%d bytes). You can add a description, and I'll extract any useful details to help fill the report.",
		att.Filename, att.Size)

	if text := upload.ExtractText(att.Path); strings.TrimSpace(text) != "" {
		result := intent.Classify(text)
		if cat, ok := catalog.Lookup(result.Category); ok {
			msg += fmt.Sprintf("\n\nThe document reads like a **%s** report — say 'report incident' with a short description to start one.", cat.Name)
		}
	}

	return Response{
		OK:      true,
		Type:    TypeFileUpload,
		Message: msg,
	}
}

// GuidanceResponder is the default fallback: it tells the user how to start
// a report instead of failing the turn.
type GuidanceResponder struct{}

func (GuidanceResponder) Respond(userID, message string) Response {
	return Response{
		OK:      false,
		Type:    TypeFallback,
		Message: "No active incident session. Say 'report an incident' (or describe what happened — e.g. an injury, a spill, a near miss) to start a report.",
	}
}
