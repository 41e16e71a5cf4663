package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yetria/guidance/internal/artifacts"
	"github.com/yetria/guidance/internal/auth"
	"github.com/yetria/guidance/internal/config"
	"github.com/yetria/guidance/internal/database"
	"github.com/yetria/guidance/internal/monitoring"
	"github.com/yetria/guidance/internal/predict"
)

// stubEngine returns a fixed two-occupation result regardless of input.
type stubEngine struct {
	lastScores map[string]any
	err        error
}

func (e *stubEngine) Predict(userScores map[string]any) (*predict.Result, error) {
	e.lastScores = userScores
	if e.err != nil {
		return nil, e.err
	}
	return &predict.Result{
		CompatibilityScores: []predict.CompatibilityScore{
			{Occupation: "Doktor", Compatibility: 70},
			{Occupation: "Mühendis", Compatibility: 30},
		},
		WinningOccupation: "Doktor",
		CompetencyComparisons: []predict.CompetencyComparison{
			{Competency: "Empati", UserScore: 4.5, GroupAverage: 4.2, Delta: 0.3},
		},
	}, nil
}

type testHarness struct {
	server *Server
	router *gin.Engine
	repo   *database.Repository
	engine *stubEngine
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		HTTPAddr:          ":0",
		JWTSecret:         "test-secret",
		TokenTTL:          time.Hour,
		RequestsPerMinute: 100000,
		CacheTTL:          time.Minute,
		RequestTimeout:    5 * time.Second,
		AllowedOrigins:    []string{"http://localhost:3000"},
	}

	authSvc, err := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	require.NoError(t, err)

	engine := &stubEngine{}
	sources := artifacts.BundleSources{Classifier: "classifier_optimized_test.json", Scaler: "scaler.json"}
	srv := New(cfg, db, engine, authSvc, sources, monitoring.NewLogger())

	return &testHarness{
		server: srv,
		router: srv.Router(),
		repo:   database.NewRepository(db),
		engine: engine,
	}
}

func (h *testHarness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *testHarness) registerUser(t *testing.T, email string) string {
	t.Helper()
	w := h.do(t, "POST", "/api/auth/register", "", gin.H{
		"name":     "Test Kullanıcı",
		"email":    email,
		"password": "parola-123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

// seedScenarios inserts one competency and four scenarios with four options
// each (scores 2..5), returning scenario ids.
func (h *testHarness) seedScenarios(t *testing.T) []int64 {
	t.Helper()
	db := h.repoDB(t)

	res, err := db.Exec(`INSERT INTO competencies (name) VALUES ('Empati')`)
	require.NoError(t, err)
	compID, err := res.LastInsertId()
	require.NoError(t, err)

	var ids []int64
	for i := 0; i < 4; i++ {
		res, err := db.Exec(`INSERT INTO scenarios (title, description, competency_id) VALUES ('Senaryo', 'Durum', ?)`, compID)
		require.NoError(t, err)
		sid, err := res.LastInsertId()
		require.NoError(t, err)
		ids = append(ids, sid)
		for opt := 0; opt < 4; opt++ {
			_, err := db.Exec(`INSERT INTO scenario_options (scenario_id, option_text, score) VALUES (?, 'Seçenek', ?)`, sid, float64(opt+2))
			require.NoError(t, err)
		}
	}
	return ids
}

func (h *testHarness) repoDB(t *testing.T) *database.DB {
	t.Helper()
	return h.server.db
}

func TestRegisterAndLogin(t *testing.T) {
	h := newTestHarness(t)

	token := h.registerUser(t, "auth@example.com")

	w := h.do(t, "GET", "/api/users/me", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "auth@example.com")

	// Duplicate registration is a client error.
	w = h.do(t, "POST", "/api/auth/register", "", gin.H{
		"name": "X", "email": "auth@example.com", "password": "parola-123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Correct login issues a token, wrong password does not.
	w = h.do(t, "POST", "/api/auth/login", "", gin.H{"email": "auth@example.com", "password": "parola-123"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, "POST", "/api/auth/login", "", gin.H{"email": "auth@example.com", "password": "yanlis"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, "POST", "/api/auth/login", "", gin.H{"email": "yok@example.com", "password": "parola-123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	h := newTestHarness(t)

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing name", gin.H{"email": "a@b.com", "password": "parola-123"}},
		{"bad email", gin.H{"name": "A", "email": "not-an-email", "password": "parola-123"}},
		{"short password", gin.H{"name": "A", "email": "a@b.com", "password": "kisa"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(t, "POST", "/api/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	h := newTestHarness(t)

	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/api/users/me"},
		{"GET", "/api/scenarios"},
		{"POST", "/api/responses"},
		{"GET", "/api/responses/progress"},
		{"GET", "/api/courses"},
		{"GET", "/api/mentors/recommend"},
	}
	for _, p := range paths {
		w := h.do(t, p.method, p.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", p.method, p.path)
	}
}

func TestScenariosByStage(t *testing.T) {
	h := newTestHarness(t)
	h.seedScenarios(t)
	token := h.registerUser(t, "stages@example.com")

	w := h.do(t, "GET", "/api/scenarios?stage=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var scenarios []database.Scenario
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scenarios))
	require.Len(t, scenarios, 4)
	require.Len(t, scenarios[0].Options, 4)
	assert.Equal(t, "A", scenarios[0].Options[0].Letter)
	assert.Equal(t, "D", scenarios[0].Options[3].Letter)

	for _, bad := range []string{"0", "5", "abc"} {
		w := h.do(t, "GET", "/api/scenarios?stage="+bad, token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "stage=%s", bad)
	}
}

func TestSubmitResponsesReturnsWireResult(t *testing.T) {
	h := newTestHarness(t)
	ids := h.seedScenarios(t)
	token := h.registerUser(t, "submit@example.com")

	w := h.do(t, "POST", "/api/responses", token, []gin.H{
		{"scenario_id": ids[0], "option_letter": "D"},
		{"scenario_id": ids[1], "option_letter": "d"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "uyum_skorlari")
	assert.Contains(t, body, "kazanan_meslek")
	assert.Contains(t, body, "yetkinlik_karsilastirmasi")

	// The engine saw the mean over ALL stored responses: both answers score
	// 5.0 on Empati.
	require.Contains(t, h.engine.lastScores, "Empati")
	assert.Equal(t, 5.0, h.engine.lastScores["Empati"])

	// Snapshot was stored.
	w = h.do(t, "GET", "/api/assessment-result", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Doktor")

	w = h.do(t, "GET", "/api/assessment-status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"has_completed_assessment":true`)
}

func TestSubmitResponsesValidation(t *testing.T) {
	h := newTestHarness(t)
	ids := h.seedScenarios(t)
	token := h.registerUser(t, "invalid@example.com")

	tests := []struct {
		name string
		body any
	}{
		{"empty payload", []gin.H{}},
		{"letter out of range", []gin.H{{"scenario_id": ids[0], "option_letter": "E"}}},
		{"not a letter", []gin.H{{"scenario_id": ids[0], "option_letter": "1"}}},
		{"unknown scenario", []gin.H{{"scenario_id": 99999, "option_letter": "A"}}},
		{"missing fields", []gin.H{{"scenario_id": ids[0]}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(t, "POST", "/api/responses", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestResubmitReplacesScenarioAnswer(t *testing.T) {
	h := newTestHarness(t)
	ids := h.seedScenarios(t)
	token := h.registerUser(t, "resubmit@example.com")

	w := h.do(t, "POST", "/api/responses", token, []gin.H{{"scenario_id": ids[0], "option_letter": "A"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, h.engine.lastScores["Empati"])

	w = h.do(t, "POST", "/api/responses", token, []gin.H{{"scenario_id": ids[0], "option_letter": "D"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5.0, h.engine.lastScores["Empati"], "prior answer replaced, not averaged in")
}

func TestProgress(t *testing.T) {
	h := newTestHarness(t)
	ids := h.seedScenarios(t)
	token := h.registerUser(t, "progress@example.com")

	w := h.do(t, "GET", "/api/responses/progress", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_responses":0`)
	assert.Contains(t, w.Body.String(), `"current_stage":1`)

	var subs []gin.H
	for _, id := range ids {
		subs = append(subs, gin.H{"scenario_id": id, "option_letter": "B"})
	}
	w = h.do(t, "POST", "/api/responses", token, subs)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, "GET", "/api/responses/progress", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_responses":4`)
	assert.Contains(t, w.Body.String(), `"current_stage":2`)
	assert.Contains(t, w.Body.String(), `"completed_stages":[1]`)
}

func TestRecomputeResult(t *testing.T) {
	h := newTestHarness(t)
	ids := h.seedScenarios(t)
	token := h.registerUser(t, "recompute@example.com")

	// No responses yet: nothing to compute from.
	w := h.do(t, "GET", "/api/responses/result", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, "POST", "/api/responses", token, []gin.H{{"scenario_id": ids[0], "option_letter": "C"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, "GET", "/api/responses/result", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "kazanan_meslek")
}

func TestPredictionFailureIsStructured(t *testing.T) {
	h := newTestHarness(t)
	ids := h.seedScenarios(t)
	token := h.registerUser(t, "fail@example.com")

	h.engine.err = &predict.PredictionError{Stage: "classification", Err: fmt.Errorf("dimension mismatch")}

	w := h.do(t, "POST", "/api/responses", token, []gin.H{{"scenario_id": ids[0], "option_letter": "A"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "PREDICTION_ERROR")
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHarness(t)

	w := h.do(t, "GET", "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), "classifier_optimized_test.json")
	assert.Contains(t, w.Body.String(), "total_requests")
}
