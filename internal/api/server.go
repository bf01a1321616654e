package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noor-latif/open-cv-gen/internal/analyzer"
	"github.com/noor-latif/open-cv-gen/internal/chat"
	"github.com/noor-latif/open-cv-gen/internal/ingest"
	"github.com/noor-latif/open-cv-gen/internal/profile"
	"github.com/noor-latif/open-cv-gen/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds the collaborators the HTTP surface needs.
type Deps struct {
	Store     *storage.Store
	Profiles  *profile.Service
	Session   *chat.Session
	Analyzer  *analyzer.Analyzer
	Extractor *ingest.Extractor
	JWTSecret string
}

// NewHandler returns the full REST API. Everything under /v1 requires a
// bearer token; /health does not.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(JWTAuth(deps.JWTSecret))

		r.Get("/profile", handleGetProfile(deps))
		r.Put("/profile", handlePutProfile(deps))
		r.Get("/profile/context", handleGetContext(deps))

		r.Post("/profile/experiences", handleAddExperience(deps))
		r.Put("/profile/experiences/{id}", handleUpdateExperience(deps))
		r.Delete("/profile/experiences/{id}", handleDeleteExperience(deps))

		r.Post("/profile/educations", handleAddEducation(deps))
		r.Put("/profile/educations/{id}", handleUpdateEducation(deps))
		r.Delete("/profile/educations/{id}", handleDeleteEducation(deps))

		r.Post("/profile/skills", handleAddSkill(deps))
		r.Put("/profile/skills/{id}", handleUpdateSkill(deps))
		r.Delete("/profile/skills/{id}", handleDeleteSkill(deps))

		r.Post("/chat/stream", handleChatStream(deps))

		r.Post("/postings/extract", handleExtractPosting(deps))
		r.Post("/postings/analyze", handleAnalyzePosting(deps))

		r.Get("/applications", handleListApplications(deps))
		r.Post("/applications", handleSaveApplication(deps))
		r.Get("/applications/{id}", handleGetApplication(deps))
		r.Post("/applications/{id}/document", handleDraftApplicationDocument(deps))
		r.Delete("/applications/{id}", handleDeleteApplication(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
