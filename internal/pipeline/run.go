// Package pipeline provides the high-level orchestration for ranking resumes against a job description.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/candidate-recommender/internal/embedding"
	"github.com/jonathan/candidate-recommender/internal/ingestion"
	"github.com/jonathan/candidate-recommender/internal/observability"
	"github.com/jonathan/candidate-recommender/internal/parsing"
	"github.com/jonathan/candidate-recommender/internal/ranking"
	"github.com/jonathan/candidate-recommender/internal/types"
)

// DefaultConcurrency is the number of resumes processed at once when unset
const DefaultConcurrency = 4

// Progress steps
const (
	StepJobDescription = "job_description"
	StepResumeScored   = "resume_scored"
	StepResumeSkipped  = "resume_skipped"
	StepSummary        = "summary"
	StepComplete       = "complete"
)

// ProgressEvent represents a progress update during a ranking run
type ProgressEvent struct {
	Step     string `json:"step"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	ResumeID string `json:"resume_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs. Calls are serialized.
type ProgressCallback func(event ProgressEvent)

// Summarizer explains why a resume fits a job description
type Summarizer interface {
	Summarize(ctx context.Context, jobText, resumeText string) (string, error)
}

// Options holds configuration for a Ranker
type Options struct {
	Extractor parsing.Extractor
	// Embedder may be an *embedding.Handle; it is resolved before any work starts
	Embedder embedding.Provider
	Mapping  types.SectionMapping
	Strategy ranking.Strategy
	// Concurrency bounds how many resumes are processed at once
	Concurrency int
	// ResumeTimeout bounds the work on a single resume; zero means no limit
	ResumeTimeout time.Duration
	Logger        *zap.Logger
	OnProgress    ProgressCallback
	Summarizer    Summarizer
	SummaryTopN   int
}

// Ranker scores resumes against a job description and orders them
type Ranker struct {
	opts   Options
	logger *zap.Logger
}

// NewRanker validates options and fills defaults
func NewRanker(opts Options) (*Ranker, error) {
	if opts.Embedder == nil {
		return nil, fmt.Errorf("an embedding provider is required")
	}
	if opts.Strategy == "" {
		opts.Strategy = ranking.StrategySections
	}
	if opts.Strategy == ranking.StrategySections && opts.Extractor == nil {
		return nil, fmt.Errorf("a section extractor is required for the %s strategy", opts.Strategy)
	}
	if opts.Mapping == nil {
		opts.Mapping = types.DefaultSectionMapping()
	}
	if err := opts.Mapping.Validate(); err != nil {
		return nil, err
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Ranker{opts: opts, logger: opts.Logger}, nil
}

// indexedResume carries the position a resume had in the caller's input
type indexedResume struct {
	index int
	input types.ResumeInput
}

// outcome is what one worker produced; exactly one field is set
type outcome struct {
	candidate *types.CandidateResult
	skipped   *types.SkippedResume
}

// Rank scores every resume against the job description and returns them best first.
// An empty resume list, or a run where every resume was skipped, returns a
// *NoValidCandidatesError. A job description that cannot be prepared or an
// unavailable embedding provider fails the whole run.
func (r *Ranker) Rank(ctx context.Context, jobText string, resumes []types.ResumeInput) (*types.RankedCandidates, error) {
	inputs := make([]indexedResume, len(resumes))
	for i, in := range resumes {
		inputs[i] = indexedResume{index: i, input: in}
	}
	return r.rank(ctx, jobText, inputs, nil)
}

func (r *Ranker) rank(ctx context.Context, jobText string, inputs []indexedResume, skipped []types.SkippedResume) (result *types.RankedCandidates, err error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := r.logger.With(zap.String("run_id", runID))
	emit := r.emitter(runID)

	defer func() {
		observability.RecordRankingRun(runOutcome(err), time.Since(start))
	}()

	if len(inputs) == 0 {
		return nil, &NoValidCandidatesError{Skipped: skipped}
	}

	provider := r.opts.Embedder
	if h, ok := provider.(*embedding.Handle); ok {
		if provider, err = h.Get(ctx); err != nil {
			return nil, err
		}
	}
	engine := ranking.NewEngine(provider, logger)

	scorer, err := r.prepareJob(ctx, engine, jobText)
	if err != nil {
		return nil, err
	}
	emit(ProgressEvent{Step: StepJobDescription, Message: "Prepared job description", Content: scorer.Job()})

	outcomes := make([]outcome, len(inputs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for i, in := range inputs {
		g.Go(func() error {
			candidate, skip, err := r.processResume(gCtx, scorer, in)
			if err != nil {
				return err
			}
			outcomes[i] = outcome{candidate: candidate, skipped: skip}

			if skip != nil {
				observability.RecordResume(string(skip.Stage))
				logger.Warn("resume skipped",
					zap.String("resume_id", skip.ID),
					zap.String("stage", string(skip.Stage)),
					zap.String("reason", skip.Reason))
				emit(ProgressEvent{Step: StepResumeSkipped, ResumeID: skip.ID,
					Message: fmt.Sprintf("Skipping %s: %s", skip.ID, skip.Reason), Content: skip})
				return nil
			}
			observability.RecordResume(string(types.StageScored))
			emit(ProgressEvent{Step: StepResumeScored, ResumeID: candidate.ID,
				Message: fmt.Sprintf("Scored %s: %.4f", candidate.ID, candidate.Overall), Content: candidate.Overall})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]types.CandidateResult, 0, len(inputs))
	for _, o := range outcomes {
		switch {
		case o.candidate != nil:
			candidates = append(candidates, *o.candidate)
		case o.skipped != nil:
			skipped = append(skipped, *o.skipped)
		}
	}
	sortSkipped(skipped)

	if len(candidates) == 0 {
		return nil, &NoValidCandidatesError{Skipped: skipped}
	}

	ranking.SortCandidates(candidates)
	for _, c := range candidates {
		observability.RecordCandidateScore(c.Overall)
	}
	r.summarize(ctx, logger, emit, jobText, candidates)

	result = &types.RankedCandidates{
		RunID:      runID,
		Strategy:   string(r.opts.Strategy),
		Candidates: candidates,
		Skipped:    skipped,
		CreatedAt:  time.Now().UTC(),
	}
	logger.Info("ranking complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("skipped", len(skipped)),
		zap.Duration("duration", time.Since(start)))
	emit(ProgressEvent{Step: StepComplete,
		Message: fmt.Sprintf("Ranked %d candidates (%d skipped)", len(candidates), len(skipped)), Content: result})
	return result, nil
}

// prepareJob extracts the job description (sections strategy only) and embeds it once
func (r *Ranker) prepareJob(ctx context.Context, engine *ranking.Engine, jobText string) (*ranking.JobScorer, error) {
	if strings.TrimSpace(jobText) == "" {
		return nil, &JobDescriptionError{Message: "job description is empty"}
	}

	job := types.NewSectionedDocument(types.DocumentJob)
	if r.opts.Strategy == ranking.StrategySections {
		extracted, err := r.opts.Extractor.ExtractJobDescription(ctx, jobText)
		if err != nil {
			return nil, &JobDescriptionError{Message: "section extraction failed", Cause: err}
		}
		job = extracted
		job.EnsureKeys(r.opts.Mapping.JobNames())
	}

	scorer, err := engine.PrepareJob(ctx, job, jobText, r.opts.Mapping, r.opts.Strategy)
	if err != nil {
		if embedding.IsUnavailable(err) || ctx.Err() != nil {
			return nil, err
		}
		return nil, &JobDescriptionError{Message: "failed to embed job description", Cause: err}
	}
	return scorer, nil
}

// processResume extracts and scores one resume. A non-nil error is fatal for the run;
// per-resume failures come back as a SkippedResume.
func (r *Ranker) processResume(ctx context.Context, scorer *ranking.JobScorer, in indexedResume) (*types.CandidateResult, *types.SkippedResume, error) {
	id := in.input.ID
	if id == "" {
		id = fmt.Sprintf("resume-%d", in.index+1)
	}

	rctx := ctx
	if r.opts.ResumeTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, r.opts.ResumeTimeout)
		defer cancel()
	}

	skip := func(stage types.ProcessingStage, reason string) (*types.CandidateResult, *types.SkippedResume, error) {
		return nil, &types.SkippedResume{ID: id, InputIndex: in.index, Stage: stage, Reason: reason}, nil
	}

	var perSection []types.SectionScore
	var overall float64

	switch r.opts.Strategy {
	case ranking.StrategyWholeDocument:
		score, err := scorer.ScoreWholeDocument(rctx, in.input.RawText)
		if err != nil {
			return scoringFailed(ctx, rctx, id, err, skip)
		}
		overall = score

	default:
		doc, err := r.opts.Extractor.ExtractResume(rctx, in.input.RawText)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			if timedOut(ctx, rctx, err) {
				return skip(types.StageTimedOut, "section extraction exceeded the per-resume timeout")
			}
			return skip(types.StageSectionExtractionFailed, err.Error())
		}
		doc.EnsureKeys(r.opts.Mapping.ResumeNames())

		breakdown, err := scorer.ScoreSections(rctx, doc)
		if err != nil {
			return scoringFailed(ctx, rctx, id, err, skip)
		}
		perSection = breakdown.PerSection
		overall = breakdown.Overall
	}

	return &types.CandidateResult{
		ID:         id,
		InputIndex: in.index,
		PerSection: perSection,
		Overall:    overall,
		Text:       in.input.RawText,
		Source:     in.input.Source,
		Contact:    ingestion.ExtractContact(in.input.RawText),
		Notes:      ranking.GenerateNotes(perSection),
	}, nil, nil
}

// scoringFailed decides whether a scoring error ends the run or only this resume.
// An unreachable provider or a cancelled run is fatal; anything else is a skip.
func scoringFailed(ctx, rctx context.Context, id string, err error,
	skip func(types.ProcessingStage, string) (*types.CandidateResult, *types.SkippedResume, error),
) (*types.CandidateResult, *types.SkippedResume, error) {
	switch {
	case embedding.IsUnavailable(err):
		return nil, nil, fmt.Errorf("failed to score %s: %w", id, err)
	case ctx.Err() != nil:
		return nil, nil, ctx.Err()
	case timedOut(ctx, rctx, err):
		return skip(types.StageTimedOut, "scoring exceeded the per-resume timeout")
	default:
		return skip(types.StageScoringFailed, err.Error())
	}
}

// timedOut reports whether err came from the per-resume deadline rather than the run's context
func timedOut(ctx, rctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(rctx.Err(), context.DeadlineExceeded)
}

// summarize attaches fit summaries to the leading candidates. Failures only warn.
func (r *Ranker) summarize(ctx context.Context, logger *zap.Logger, emit ProgressCallback, jobText string, candidates []types.CandidateResult) {
	if r.opts.Summarizer == nil || r.opts.SummaryTopN <= 0 {
		return
	}
	n := min(r.opts.SummaryTopN, len(candidates))
	for i := range n {
		c := &candidates[i]
		text, err := r.opts.Summarizer.Summarize(ctx, jobText, c.Text)
		if err != nil {
			logger.Warn("fit summary failed", zap.String("resume_id", c.ID), zap.Error(err))
			continue
		}
		c.Summary = text
		emit(ProgressEvent{Step: StepSummary, ResumeID: c.ID, Message: "Generated fit summary", Content: text})
	}
}

// emitter returns a callback that serializes progress events and stamps the run ID
func (r *Ranker) emitter(runID string) ProgressCallback {
	if r.opts.OnProgress == nil {
		return func(ProgressEvent) {}
	}
	var mu sync.Mutex
	return func(event ProgressEvent) {
		event.RunID = runID
		mu.Lock()
		defer mu.Unlock()
		r.opts.OnProgress(event)
	}
}

func sortSkipped(skipped []types.SkippedResume) {
	sort.SliceStable(skipped, func(i, j int) bool {
		return skipped[i].InputIndex < skipped[j].InputIndex
	})
}

func runOutcome(err error) string {
	var jdErr *JobDescriptionError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNoValidCandidates):
		return "no_valid_candidates"
	case errors.As(err, &jdErr):
		return "job_description_failed"
	case embedding.IsUnavailable(err):
		return "provider_unavailable"
	default:
		return "error"
	}
}
