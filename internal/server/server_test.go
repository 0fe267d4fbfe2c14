package server

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/candidate-recommender/internal/embedding"
	"github.com/jonathan/candidate-recommender/internal/parsing"
	"github.com/jonathan/candidate-recommender/internal/pipeline"
	"github.com/jonathan/candidate-recommender/internal/types"
)

const testJob = `Requirements
Go PostgreSQL Kubernetes

What You'll Do
Design and operate payment services

Education
BS in Computer Science`

const matchingResume = `Skills
Go PostgreSQL Kubernetes

Experience
Design and operate payment services

Education
BS in Computer Science`

const unrelatedResume = `Skills
Pastry baking and plating

Experience
Ran the dessert station at a bistro

Education
Culinary arts diploma`

type stubSummarizer struct{}

func (stubSummarizer) Summarize(_ context.Context, _, _ string) (string, error) {
	return "strong fit", nil
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	s, err := New(cfg, pipeline.Options{
		Extractor:   parsing.NewPatternExtractor(),
		Embedder:    embedding.NewHashingProvider(256),
		Summarizer:  stubSummarizer{},
		SummaryTopN: 1,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	return s
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func validRequest() types.RankRequest {
	return types.RankRequest{
		JobDescription: testJob,
		Resumes: []types.ResumePayload{
			{ID: "baker", Text: unrelatedResume},
			{ID: "gopher", Text: matchingResume},
		},
	}
}

func TestNew_InvalidRankingOptions(t *testing.T) {
	_, err := New(Config{}, pipeline.Options{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ranking options")
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, Config{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Config{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "candidate_recommender_ranking_duration_seconds")
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, Config{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/rank", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRank(t *testing.T) {
	s := newTestServer(t, Config{})

	w := postJSON(t, s.Handler(), "/rank", validRequest())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp RankResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Candidates, 2)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "sections", resp.Strategy)
	assert.NotEmpty(t, resp.RunID)

	top := resp.Candidates[0]
	assert.Equal(t, "gopher", top.ID)
	assert.Equal(t, 1, top.InputIndex)
	assert.InDelta(t, 1.0, top.Overall, 1e-6)
	assert.Len(t, top.PerSection, 3)
	assert.Empty(t, top.Text, "resume text is not echoed back")
	assert.Empty(t, top.Summary, "summaries are opt-in per request")
	assert.Less(t, resp.Candidates[1].Overall, top.Overall)
}

func TestRank_TopNAndSummary(t *testing.T) {
	s := newTestServer(t, Config{})
	req := validRequest()
	req.TopN = 1
	req.Summary = true

	w := postJSON(t, s.Handler(), "/rank", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp RankResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "strong fit", resp.Candidates[0].Summary)
}

func TestRank_WholeDocument(t *testing.T) {
	s := newTestServer(t, Config{})
	req := validRequest()
	req.Strategy = "whole_document"

	w := postJSON(t, s.Handler(), "/rank", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp RankResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "whole_document", resp.Strategy)
	assert.Equal(t, "gopher", resp.Candidates[0].ID)
}

func TestRank_ValidationErrors(t *testing.T) {
	s := newTestServer(t, Config{MaxResumes: 2})

	tests := []struct {
		name    string
		body    any
		message string
	}{
		{
			name:    "missing job description",
			body:    types.RankRequest{Resumes: []types.ResumePayload{{ID: "a", Text: "x"}}},
			message: "Please enter a job description.",
		},
		{
			name:    "blank job description",
			body:    types.RankRequest{JobDescription: "  \n ", Resumes: []types.ResumePayload{{ID: "a", Text: "x"}}},
			message: "Please enter a job description.",
		},
		{
			name:    "no resumes",
			body:    types.RankRequest{JobDescription: testJob},
			message: "Please upload at least one resume.",
		},
		{
			name: "too many resumes",
			body: types.RankRequest{JobDescription: testJob, Resumes: []types.ResumePayload{
				{ID: "a", Text: "x"}, {ID: "b", Text: "y"}, {ID: "c", Text: "z"},
			}},
			message: "At most 2 resumes",
		},
		{
			name:    "unknown strategy",
			body:    types.RankRequest{JobDescription: testJob, Resumes: []types.ResumePayload{{ID: "a", Text: "x"}}, Strategy: "keywords"},
			message: "failed 'oneof' validation",
		},
		{
			name:    "malformed json",
			body:    "not an object",
			message: "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, s.Handler(), "/rank", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.message)
		})
	}
}

func TestRank_JobDescriptionWithoutSections(t *testing.T) {
	s := newTestServer(t, Config{})
	req := validRequest()
	req.JobDescription = "We need someone great."

	w := postJSON(t, s.Handler(), "/rank", req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "job description")
}

func TestRank_NoValidCandidates(t *testing.T) {
	s := newTestServer(t, Config{})
	req := validRequest()
	req.Resumes = []types.ResumePayload{{ID: "plain", Text: "just a paragraph with no headings"}}

	w := postJSON(t, s.Handler(), "/rank", req)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Error   string                `json:"error"`
		Skipped []types.SkippedResume `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "no valid candidates")
	require.Len(t, body.Skipped, 1)
	assert.Equal(t, "plain", body.Skipped[0].ID)
	assert.Equal(t, types.StageSectionExtractionFailed, body.Skipped[0].Stage)
}

// readEvents parses an SSE body into event names and raw data payloads
func readEvents(t *testing.T, body string) (names []string, data []string) {
	t.Helper()
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			names = append(names, name)
		}
		if payload, ok := strings.CutPrefix(line, "data: "); ok {
			data = append(data, payload)
		}
	}
	require.NoError(t, scanner.Err())
	require.Len(t, data, len(names))
	return names, data
}

func TestRankStream(t *testing.T) {
	s := newTestServer(t, Config{})
	req := validRequest()
	req.Resumes = append(req.Resumes, types.ResumePayload{ID: "plain", Text: "no headings here"})

	w := postJSON(t, s.Handler(), "/rank/stream", req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	names, data := readEvents(t, w.Body.String())
	require.NotEmpty(t, names)
	assert.Contains(t, names, eventStep)
	assert.Contains(t, names, eventSkipped)
	assert.Equal(t, eventComplete, names[len(names)-1])

	var resp RankResponse
	require.NoError(t, json.Unmarshal([]byte(data[len(data)-1]), &resp))
	assert.Equal(t, "gopher", resp.Candidates[0].ID)
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, 2, resp.Skipped[0].InputIndex)
}

func TestRankStream_Error(t *testing.T) {
	s := newTestServer(t, Config{})
	req := validRequest()
	req.JobDescription = "nothing to see"

	w := postJSON(t, s.Handler(), "/rank/stream", req)
	names, _ := readEvents(t, w.Body.String())
	require.NotEmpty(t, names)
	assert.Equal(t, eventError, names[len(names)-1])
}

func TestRankExport(t *testing.T) {
	s := newTestServer(t, Config{})
	req := validRequest()
	req.TopN = 1

	w := postJSON(t, s.Handler(), "/rank/export", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Run-ID"))

	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Contains(t, zr.File[0].Name, "gopher")
}

func TestSections(t *testing.T) {
	s := newTestServer(t, Config{})

	w := postJSON(t, s.Handler(), "/sections", types.SectionsRequest{Kind: "job_description", Text: testJob})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var doc types.SectionedDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, types.DocumentJob, doc.Kind)
	assert.Equal(t, "Go PostgreSQL Kubernetes", doc.Get(types.SectionRequiredSkills))

	w = postJSON(t, s.Handler(), "/sections", types.SectionsRequest{Kind: "cover_letter", Text: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, s.Handler(), "/sections", types.SectionsRequest{Kind: "resume", Text: "no headings"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSections_NotConfigured(t *testing.T) {
	s, err := New(Config{}, pipeline.Options{
		Embedder: embedding.NewHashingProvider(16),
		Strategy: "whole_document",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)

	w := postJSON(t, s.Handler(), "/sections", types.SectionsRequest{Kind: "resume", Text: "Skills\nGo"})
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	req := validRequest()
	req.Strategy = "sections"
	w = postJSON(t, s.Handler(), "/rank", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, Config{RateLimitPerMinute: 5})
	h := s.Handler()

	// burst is a fifth of the per-minute limit
	w := postJSON(t, h, "/rank", validRequest())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))

	w = postJSON(t, h, "/rank", validRequest())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExtractClientID(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", s.extractClientID(req))

	req.RemoteAddr = "not-a-host-port"
	assert.Equal(t, "not-a-host-port", s.extractClientID(req))
}
