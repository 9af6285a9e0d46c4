package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/H9919/ehsbot/internal/storage"
)

// AdminDeps holds dependencies for the token-protected management
// endpoints.
type AdminDeps struct {
	Store *storage.Store
	Token string
}

// NewAdminHandler returns the incident listing surface consumed by the
// dashboard and the CLI, meant to be mounted at /incidents. It serves the
// normalized records plus the category-native payload per incident for
// auditors.
func NewAdminHandler(deps AdminDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(BearerAuth(deps.Token))

	r.Get("/", handleListIncidents(deps))
	r.Get("/{id}", handleGetIncident(deps))
	r.Get("/{id}/archive", handleGetArchiveEntry(deps))

	return r
}

func handleListIncidents(deps AdminDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		incidents, err := deps.Store.ListIncidents(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list incidents: %v", err)
			return
		}

		if incidents == nil {
			incidents = []storage.Incident{}
		}
		writeJSON(w, incidents)
	}
}

func handleGetIncident(deps AdminDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		inc, err := deps.Store.GetIncident(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "incident not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get incident: %v", err)
			return
		}

		writeJSON(w, inc)
	}
}

func handleGetArchiveEntry(deps AdminDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		entry, err := deps.Store.GetArchiveEntry(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "archive entry not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get archive entry: %v", err)
			return
		}

		writeJSON(w, entry)
	}
}
