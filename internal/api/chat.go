package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/H9919/ehsbot/internal/bot"
	"github.com/H9919/ehsbot/internal/storage"
	"github.com/H9919/ehsbot/internal/upload"
)

const maxChatBodySize = 12 << 20 // attachment plus form overhead

// defaultUserID keys sessions for UIs that don't send a user identifier.
const defaultUserID = "main_chat_user"

// ChatDeps holds dependencies for the public chat endpoints.
type ChatDeps struct {
	Dispatcher *bot.Dispatcher
	Store      *storage.Store
	UploadDir  string
}

// NewChatHandler returns the public chat surface: the message entry point,
// session reset, and liveness/readiness probes. No auth — the reporting
// user is anonymous by design.
func NewChatHandler(deps ChatDeps) http.Handler {
	r := chi.NewRouter()

	r.Post("/chat", handleChat(deps))
	r.Post("/chat/reset", handleChatReset(deps))
	r.Get("/health", handleHealth)
	r.Get("/ready", handleReady(deps))

	return r
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

func handleChat(deps ChatDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxChatBodySize)
		defer r.Body.Close()

		var message, userID string
		var attachment *upload.Saved

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(maxChatBodySize); err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid form body: %v", err)
				return
			}
			message = r.FormValue("message")
			userID = r.FormValue("user_id")

			file, header, err := r.FormFile("file")
			if err == nil {
				defer file.Close()
				mimetype := header.Header.Get("Content-Type")
				if !upload.IsAllowed(header.Filename, mimetype) {
					httpError(w, http.StatusBadRequest, "invalid_request_error",
						"unsupported file type. Allowed: images (png/jpg/gif), PDF, TXT")
					return
				}
				saved, err := upload.Save(deps.UploadDir, header.Filename, mimetype, file)
				if err != nil {
					httpError(w, http.StatusBadRequest, "invalid_request_error", "storing attachment failed: %v", err)
					return
				}
				attachment = &saved
			}
		} else {
			var req chatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
				return
			}
			message = req.Message
			userID = req.UserID
		}

		if userID == "" {
			userID = defaultUserID
		}
		if strings.TrimSpace(message) == "" && attachment == nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		resp := deps.Dispatcher.Handle(userID, message, bot.TurnContext{Attachment: attachment})
		writeJSON(w, resp)
	}
}

func handleChatReset(deps ChatDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		defer r.Body.Close()

		userID := r.FormValue("user_id")
		if userID == "" && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			var req chatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
				userID = req.UserID
			}
		}
		if userID == "" {
			userID = defaultUserID
		}

		writeJSON(w, deps.Dispatcher.Reset(userID))
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleReady(deps ChatDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Store.DB().Ping(); err != nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "storage not ready: %v", err)
			return
		}
		writeJSON(w, map[string]bool{"ready": true})
	}
}
