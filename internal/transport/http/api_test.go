package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-portal-service/internal/app"
	"study-portal-service/internal/domain"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Mount("/api", NewAPI(newTestService(), nil).Routes())
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, server *httptest.Server, method, path, body string, userID string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set(HeaderUserID, userID)
		req.Header.Set(HeaderEmail, "mod@club.org")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAPIScoreQuiz(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, server, http.MethodPost, "/api/quizzes/quiz-1/score", `{"answers":{"q1":1,"q2":0}}`, "u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var outcome app.AssessmentOutcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&outcome))
	assert.Equal(t, 1, outcome.Score.CorrectCount)
	assert.Equal(t, 1, outcome.Score.IncorrectCount)
	assert.Equal(t, 50, outcome.Score.PercentageCorrect)
	assert.Equal(t, 10, outcome.Score.RewardByDifficulty[domain.DifficultyEasy])
	assert.Equal(t, 10, outcome.Experience)
}

func TestAPIToggleAndProgress(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, server, http.MethodPost, "/api/subjects/calculus/topics/limits/toggle", "", "u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, server, http.MethodGet, "/api/subjects/calculus/progress", "", "u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary domain.ProgressSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, 50, summary.OverallPercent)
	assert.Equal(t, []string{"Foundations", "Integration"}, summary.GroupOrder)
	assert.Equal(t, domain.GroupProgress{Done: 1, Total: 1, Percent: 100}, summary.PerGroup["Foundations"])
}

func TestAPIProfile(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, server, http.MethodGet, "/api/me", "", "u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile app.Profile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	assert.Equal(t, "u1", profile.UserID)
	assert.Equal(t, "moderator", string(profile.Role))
}

func TestAPIErrors(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		user   string
		want   int
	}{
		{"missing identity", http.MethodGet, "/api/subjects/calculus/progress", "", "", http.StatusUnauthorized},
		{"unknown subject", http.MethodGet, "/api/subjects/history/progress", "", "u1", http.StatusNotFound},
		{"unknown topic", http.MethodPost, "/api/subjects/calculus/topics/nope/toggle", "", "u1", http.StatusNotFound},
		{"unknown quiz", http.MethodPost, "/api/quizzes/nope/score", `{"answers":{}}`, "u1", http.StatusNotFound},
		{"bad body", http.MethodPost, "/api/quizzes/quiz-1/score", `{`, "u1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, server, tt.method, tt.path, tt.body, tt.user)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
