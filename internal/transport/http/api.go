package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"study-portal-service/internal/app"
	"study-portal-service/internal/domain"
)

// Identity headers are set by the gateway after the hosted credential service verifies the caller.
const (
	HeaderUserID = "X-User-ID"
	HeaderEmail  = "X-User-Email"
)

// API serves the study-tracking REST endpoints.
type API struct {
	service *app.StudyService
	log     *zap.Logger
}

func NewAPI(service *app.StudyService, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{service: service, log: log}
}

// Routes mounts the API under the returned router.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/me", a.GetProfile)
	r.Get("/subjects/{subject}/progress", a.GetProgress)
	r.Post("/subjects/{subject}/topics/{itemID}/toggle", a.ToggleTopic)
	r.Post("/quizzes/{quizID}/score", a.ScoreQuiz)
	return r
}

type scoreRequest struct {
	Answers domain.AnswerSheet `json:"answers"`
}

// GetProfile handles GET /api/me
func (a *API) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := a.service.Profile(r.Context(), identityFrom(r))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// GetProgress handles GET /api/subjects/{subject}/progress
func (a *API) GetProgress(w http.ResponseWriter, r *http.Request) {
	summary, err := a.service.Progress(r.Context(), identityFrom(r), chi.URLParam(r, "subject"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ToggleTopic handles POST /api/subjects/{subject}/topics/{itemID}/toggle
func (a *API) ToggleTopic(w http.ResponseWriter, r *http.Request) {
	summary, err := a.service.ToggleTopic(r.Context(), identityFrom(r), chi.URLParam(r, "subject"), chi.URLParam(r, "itemID"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ScoreQuiz handles POST /api/quizzes/{quizID}/score
func (a *API) ScoreQuiz(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid score payload"})
		return
	}
	outcome, err := a.service.ScoreAssessment(r.Context(), identityFrom(r), chi.URLParam(r, "quizID"), req.Answers)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func identityFrom(r *http.Request) domain.Identity {
	return domain.Identity{
		UserID: r.Header.Get(HeaderUserID),
		Email:  r.Header.Get(HeaderEmail),
	}
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingIdentity):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrChecklistNotFound),
		errors.Is(err, domain.ErrTopicNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
