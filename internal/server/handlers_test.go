package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spigell/career-coach/internal/auth"
	"github.com/spigell/career-coach/internal/coach"
	"github.com/spigell/career-coach/internal/entitlements"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	calls   int
	upload  coach.ResumeUpload
	outcome coach.Outcome[coach.AnalysisResult]
	err     error
	panic   bool
}

func (s *stubAnalyzer) Analyze(_ context.Context, upload coach.ResumeUpload) (coach.Outcome[coach.AnalysisResult], error) {
	s.calls++
	s.upload = upload
	if s.panic {
		panic("analyzer exploded")
	}
	return s.outcome, s.err
}

type stubRoadmaps struct {
	calls   int
	role    string
	outcome coach.Outcome[coach.Roadmap]
	err     error
}

func (s *stubRoadmaps) Generate(_ context.Context, role string) (coach.Outcome[coach.Roadmap], error) {
	s.calls++
	s.role = role
	return s.outcome, s.err
}

func newTestRouter(cfg Config, deps Deps) http.Handler {
	if deps.Analyzer == nil {
		deps.Analyzer = &stubAnalyzer{}
	}
	if deps.Roadmaps == nil {
		deps.Roadmaps = &stubRoadmaps{}
	}
	return NewRouter(cfg, deps)
}

func doJSON(t *testing.T, h http.Handler, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(Config{}, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestAnalyzeResumeReturnsAnalysis(t *testing.T) {
	analysis := coach.AnalysisResult{
		OverallScore: 88, ContactScore: 90, ExperienceScore: 80,
		Improvements: []string{"a"}, Strengths: []string{"b"}, Summary: "ok",
	}
	analyzer := &stubAnalyzer{outcome: coach.Outcome[coach.AnalysisResult]{Value: analysis}}
	router := newTestRouter(Config{}, Deps{Analyzer: analyzer})

	rec := doJSON(t, router, "/api/analyze-resume", `{"file":"JVBERi0=","fileName":"cv.pdf"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got coach.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, analysis, got)
	assert.Equal(t, coach.ResumeUpload{FileName: "cv.pdf", Content: "JVBERi0="}, analyzer.upload)
	assert.Empty(t, rec.Header().Get(fallbackHeader))
}

func TestAnalyzeResumeFallbackIsSuccess(t *testing.T) {
	analyzer := &stubAnalyzer{outcome: coach.Outcome[coach.AnalysisResult]{
		Value: coach.FallbackAnalysis(), Fallback: true, Reason: errors.New("provider down"),
	}}
	router := newTestRouter(Config{}, Deps{Analyzer: analyzer})

	rec := doJSON(t, router, "/api/analyze-resume", `{"file":"JVBERi0=","fileName":"cv.pdf"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fallbackHeaderTrue, rec.Header().Get(fallbackHeader))
	assert.EqualValues(t, 65, decodeBody(t, rec)["overallScore"])
}

func TestAnalyzeResumeMissingFields(t *testing.T) {
	for name, body := range map[string]string{
		"no file":      `{"fileName":"cv.pdf"}`,
		"no file name": `{"file":"JVBERi0="}`,
		"empty":        `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			analyzer := &stubAnalyzer{}
			router := newTestRouter(Config{}, Deps{Analyzer: analyzer})

			rec := doJSON(t, router, "/api/analyze-resume", body, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"Missing file or fileName"}`, rec.Body.String())
			assert.Zero(t, analyzer.calls)
		})
	}
}

func TestMalformedBodyIsRejected(t *testing.T) {
	for name, tc := range map[string]struct {
		path string
		body string
		want string
	}{
		"analyze not json":   {path: "/api/analyze-resume", body: `{not json`, want: `{"error":"Invalid request body"}`},
		"analyze form body":  {path: "/api/analyze-resume", body: `file=abc`, want: `{"error":"Invalid request body"}`},
		"analyze wrong type": {path: "/api/analyze-resume", body: `{"file":1,"fileName":"cv.pdf"}`, want: `{"error":"Invalid request body"}`},
		"roadmap not json":   {path: "/api/roadmap", body: `{not json`, want: `{"ok":false,"error":"Invalid request body"}`},
		"roadmap number":     {path: "/api/roadmap", body: `{"role":42}`, want: `{"ok":false,"error":"Invalid request body"}`},
	} {
		t.Run(name, func(t *testing.T) {
			analyzer := &stubAnalyzer{}
			roadmaps := &stubRoadmaps{}
			router := newTestRouter(Config{}, Deps{Analyzer: analyzer, Roadmaps: roadmaps})

			rec := doJSON(t, router, tc.path, tc.body, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, tc.want, rec.Body.String())
			assert.Zero(t, analyzer.calls)
			assert.Zero(t, roadmaps.calls)
		})
	}
}

func TestAnalyzeResumeWhitespaceFields(t *testing.T) {
	analyzer := &stubAnalyzer{err: coach.ErrMissingUpload}
	router := newTestRouter(Config{}, Deps{Analyzer: analyzer})

	rec := doJSON(t, router, "/api/analyze-resume", `{"file":"  ","fileName":"cv.pdf"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeResumePanicIsRecovered(t *testing.T) {
	router := newTestRouter(Config{}, Deps{Analyzer: &stubAnalyzer{panic: true}})

	rec := doJSON(t, router, "/api/analyze-resume", `{"file":"JVBERi0=","fileName":"cv.pdf"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to analyze resume"}`, rec.Body.String())
}

func TestAnalyzeResumeBodyTooLarge(t *testing.T) {
	analyzer := &stubAnalyzer{}
	router := newTestRouter(Config{MaxBodyBytes: 32}, Deps{Analyzer: analyzer})

	body := `{"file":"` + strings.Repeat("A", 128) + `","fileName":"cv.pdf"}`
	rec := doJSON(t, router, "/api/analyze-resume", body, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, analyzer.calls)
}

func TestRoadmapSuccess(t *testing.T) {
	roadmap := coach.FallbackRoadmap()
	roadmaps := &stubRoadmaps{outcome: coach.Outcome[coach.Roadmap]{Value: roadmap}}
	router := newTestRouter(Config{}, Deps{Roadmaps: roadmaps})

	rec := doJSON(t, router, "/api/roadmap", `{"role":"react-developer"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got roadmapResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.OK)
	require.NotNil(t, got.Roadmap)
	assert.Equal(t, roadmap, *got.Roadmap)
	assert.Equal(t, "react-developer", roadmaps.role)
}

func TestRoadmapRoleRequired(t *testing.T) {
	for name, tc := range map[string]struct {
		body string
		err  error
	}{
		"missing":    {body: `{}`},
		"empty":      {body: `{"role":""}`},
		"whitespace": {body: `{"role":"   "}`, err: coach.ErrRoleRequired},
	} {
		t.Run(name, func(t *testing.T) {
			router := newTestRouter(Config{}, Deps{Roadmaps: &stubRoadmaps{err: tc.err}})

			rec := doJSON(t, router, "/api/roadmap", tc.body, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"ok":false,"error":"role required"}`, rec.Body.String())
		})
	}
}

func TestRoadmapFailure(t *testing.T) {
	failed := coach.Outcome[coach.Roadmap]{Value: coach.FallbackRoadmap(), Fallback: true, Reason: errors.New("bad json")}

	router := newTestRouter(Config{}, Deps{Roadmaps: &stubRoadmaps{outcome: failed}})
	rec := doJSON(t, router, "/api/roadmap", `{"role":"Go Developer"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Failed to generate roadmap"}`, rec.Body.String())
}

func TestRoadmapServesFallbackWhenConfigured(t *testing.T) {
	failed := coach.Outcome[coach.Roadmap]{Value: coach.FallbackRoadmap(), Fallback: true, Reason: errors.New("bad json")}

	router := newTestRouter(Config{RoadmapFallback: true}, Deps{Roadmaps: &stubRoadmaps{outcome: failed}})
	rec := doJSON(t, router, "/api/roadmap", `{"role":"Go Developer"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fallbackHeaderTrue, rec.Header().Get(fallbackHeader))
	assert.Equal(t, true, decodeBody(t, rec)["ok"])
}

func TestRoutesRequireToken(t *testing.T) {
	verifier, err := auth.NewVerifier("test-secret-key-for-jwt-signing-minimum-32-bytes", "", 0)
	require.NoError(t, err)

	roadmaps := &stubRoadmaps{outcome: coach.Outcome[coach.Roadmap]{Value: coach.FallbackRoadmap()}}
	router := newTestRouter(Config{}, Deps{Roadmaps: roadmaps, Verifier: verifier})

	rec := doJSON(t, router, "/api/roadmap", `{"role":"react-developer"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())

	rec = doJSON(t, router, "/api/roadmap", `{"role":"react-developer"}`, map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := verifier.Issue("user-1", "jane@example.com")
	require.NoError(t, err)
	rec = doJSON(t, router, "/api/roadmap", `{"role":"react-developer"}`, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, roadmaps.calls)
}

func TestRoutesRequireEntitlement(t *testing.T) {
	verifier, err := auth.NewVerifier("test-secret-key-for-jwt-signing-minimum-32-bytes", "", 0)
	require.NoError(t, err)

	store := entitlements.StaticStore{Default: entitlements.LevelFree, Overrides: map[string]entitlements.Level{"paid": entitlements.LevelPro}}
	analyzer := &stubAnalyzer{outcome: coach.Outcome[coach.AnalysisResult]{Value: coach.FallbackAnalysis()}}
	router := newTestRouter(Config{}, Deps{Analyzer: analyzer, Verifier: verifier, Entitlements: store})

	freeToken, err := verifier.Issue("free-user", "")
	require.NoError(t, err)
	paidToken, err := verifier.Issue("paid", "")
	require.NoError(t, err)

	body := `{"file":"JVBERi0=","fileName":"cv.pdf"}`

	rec := doJSON(t, router, "/api/analyze-resume", body, map[string]string{"Authorization": "Bearer " + freeToken})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Upgrade your subscription to use this feature"}`, rec.Body.String())
	assert.Zero(t, analyzer.calls)

	rec = doJSON(t, router, "/api/analyze-resume", body, map[string]string{"Authorization": "Bearer " + paidToken})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, analyzer.calls)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(Config{CORSOrigins: []string{"http://localhost:3000"}}, Deps{})

	req := httptest.NewRequest(http.MethodOptions, "/api/roadmap", bytes.NewReader(nil))
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	router := newTestRouter(Config{}, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}
