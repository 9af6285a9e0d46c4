package bot

// Response type tags, machine-readable for the UI layer.
const (
	TypeStart      = "incident_start"
	TypeContinue   = "incident_continue"
	TypeRetry      = "incident_retry"
	TypeComplete   = "incident_complete"
	TypeReset      = "reset"
	TypeFallback   = "fallback"
	TypeFileUpload = "file_upload"
	TypeError      = "error"
)

// Progress reports how far through the question sequence a session is.
type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Response is the structured reply for one conversational turn. Message is
// always plain language safe to show the end user; internal error detail
// never appears here.
type Response struct {
	OK           bool      `json:"ok"`
	Type         string    `json:"type,omitempty"`
	Message      string    `json:"message"`
	Category     string    `json:"incident_type,omitempty"`
	Field        string    `json:"field,omitempty"`
	SevereEvent  bool      `json:"severe_event,omitempty"`
	QuickReplies []string  `json:"quick_replies,omitempty"`
	Progress     *Progress `json:"progress,omitempty"`
	RecordID     string    `json:"record_id,omitempty"`
}
