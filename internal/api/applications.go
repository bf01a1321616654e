package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noor-latif/open-cv-gen/internal/profile"
	"github.com/noor-latif/open-cv-gen/internal/storage"
)

func handleListApplications(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		apps, err := deps.Store.ListApplications(UserID(r.Context()), limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list applications: %v", err)
			return
		}
		if apps == nil {
			apps = []storage.Application{}
		}
		writeJSON(w, apps)
	}
}

func handleSaveApplication(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var app storage.Application
		if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if app.Company == "" || app.JobTitle == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "company and job_title are required")
			return
		}

		app.ID = uuid.New().String()
		app.UserID = UserID(r.Context())
		app.CreatedAt = time.Now().UTC()
		if err := deps.Store.SaveApplication(app); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save application: %v", err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, app)
	}
}

func handleGetApplication(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, err := deps.Store.GetApplication(UserID(r.Context()), chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "application not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get application: %v", err)
			return
		}
		writeJSON(w, app)
	}
}

// handleDraftApplicationDocument drafts a tailored document for a saved
// application and persists it on the record.
func handleDraftApplicationDocument(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserID(r.Context())
		app, err := deps.Store.GetApplication(userID, chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "application not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get application: %v", err)
			return
		}
		if app.JobDescription == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "application has no job description to draft against")
			return
		}

		p, err := deps.Profiles.Load(userID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load profile: %v", err)
			return
		}

		doc, err := deps.Analyzer.DraftDocument(r.Context(), profile.Compile(p), app.JobDescription)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "drafting failed: %v", err)
			return
		}

		if err := deps.Store.SetApplicationDocument(userID, app.ID, doc); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save document: %v", err)
			return
		}
		app.Document = &doc
		writeJSON(w, app)
	}
}

func handleDeleteApplication(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Store.DeleteApplication(UserID(r.Context()), chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "application not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete application: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "deleted"})
	}
}
