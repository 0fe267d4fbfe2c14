package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-recommender/internal/export"
	"github.com/jonathan/candidate-recommender/internal/parsing"
	"github.com/jonathan/candidate-recommender/internal/pipeline"
	"github.com/jonathan/candidate-recommender/internal/ranking"
	"github.com/jonathan/candidate-recommender/internal/types"
)

// RankResponse is the body returned by /rank and the final /rank/stream event.
// Candidates are truncated to the requested top_n and carry no resume text.
type RankResponse struct {
	RunID      string                  `json:"run_id"`
	Strategy   string                  `json:"strategy"`
	Candidates []types.CandidateResult `json:"candidates"`
	Skipped    []types.SkippedResume   `json:"skipped,omitempty"`
	Total      int                     `json:"total"`
}

// errorBody renders err for a JSON response
func errorBody(err error) map[string]any {
	body := map[string]any{"error": err.Error()}

	var validationErr *ErrValidation
	if errors.As(err, &validationErr) {
		body["error"] = validationErr.Message
		body["field"] = validationErr.Field
	}

	var noValidErr *pipeline.NoValidCandidatesError
	if errors.As(err, &noValidErr) {
		body["skipped"] = noValidErr.Skipped
	}
	return body
}

// decodeJSON decodes a bounded request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return &ErrValidation{Field: "body", Message: "Invalid request body: " + err.Error()}
	}
	return nil
}

// decodeRankRequest reads and validates a ranking request
func (s *Server) decodeRankRequest(w http.ResponseWriter, r *http.Request) (*types.RankRequest, error) {
	var req types.RankRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		return nil, &ErrValidation{Field: "job_description", Message: msgMissingJobDescription}
	}
	if err := req.Validate(); err != nil {
		return nil, newValidationError(err)
	}
	if s.maxResumes > 0 && len(req.Resumes) > s.maxResumes {
		return nil, &ErrValidation{
			Field:   "resumes",
			Message: fmt.Sprintf("At most %d resumes can be ranked per request.", s.maxResumes),
		}
	}
	return &req, nil
}

// newRanker builds a Ranker from the server defaults and the request overrides
func (s *Server) newRanker(req *types.RankRequest, onProgress pipeline.ProgressCallback) (*pipeline.Ranker, error) {
	opts := s.ranking
	if req.Strategy != "" {
		strategy, err := ranking.ParseStrategy(req.Strategy)
		if err != nil {
			return nil, &ErrValidation{Field: "strategy", Message: err.Error()}
		}
		opts.Strategy = strategy
	}
	if !req.Summary {
		opts.Summarizer = nil
	}
	opts.OnProgress = onProgress

	ranker, err := pipeline.NewRanker(opts)
	if err != nil {
		return nil, &ErrValidation{Field: "strategy", Message: err.Error()}
	}
	return ranker, nil
}

// rank runs a ranking request end to end
func (s *Server) rank(r *http.Request, req *types.RankRequest, onProgress pipeline.ProgressCallback) (*types.RankedCandidates, error) {
	ranker, err := s.newRanker(req, onProgress)
	if err != nil {
		return nil, err
	}
	return ranker.Rank(r.Context(), req.JobDescription, req.ResumeInputs())
}

func newRankResponse(result *types.RankedCandidates, topN int) RankResponse {
	top := result.Top(topN)
	candidates := make([]types.CandidateResult, len(top))
	for i, c := range top {
		c.Text = ""
		candidates[i] = c
	}
	return RankResponse{
		RunID:      result.RunID,
		Strategy:   result.Strategy,
		Candidates: candidates,
		Skipped:    result.Skipped,
		Total:      len(result.Candidates),
	}
}

// handleRank ranks the submitted resumes and returns the result as JSON
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRankRequest(w, r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	result, err := s.rank(r, req, nil)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, newRankResponse(result, req.TopN))
}

// handleRankStream ranks the submitted resumes and streams progress via SSE
func (s *Server) handleRankStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRankRequest(w, r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	onProgress := func(event pipeline.ProgressEvent) {
		name := eventStep
		if event.Step == pipeline.StepResumeSkipped {
			name = eventSkipped
		}
		if err := sse.WriteEvent(name, event); err != nil {
			s.logger.Warn("failed to write SSE event", zap.Error(err))
		}
	}

	result, err := s.rank(r, req, onProgress)
	if err != nil {
		s.logger.Warn("streaming ranking failed", zap.Error(err))
		sse.WriteError(err)
		return
	}

	sse.WriteComplete(newRankResponse(result, req.TopN))
}

// handleRankExport ranks the submitted resumes and returns the top ones as a zip
func (s *Server) handleRankExport(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRankRequest(w, r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	result, err := s.rank(r, req, nil)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="top_candidates.zip"`)
	w.Header().Set("X-Run-ID", result.RunID)
	if err := export.WriteZip(w, result.Top(req.TopN)); err != nil {
		s.logger.Error("failed to write zip export", zap.String("run_id", result.RunID), zap.Error(err))
	}
}

// handleSections splits a single document into its canonical sections
func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	var req types.SectionsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, newValidationError(err))
		return
	}
	if s.ranking.Extractor == nil {
		s.errorResponse(w, fmt.Errorf("section extraction: %w", errNotConfigured))
		return
	}

	doc, err := parsing.Extract(r.Context(), s.ranking.Extractor, types.DocumentKind(req.Kind), req.Text)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, doc)
}
