package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-recommender/internal/config"
	"github.com/jonathan/candidate-recommender/internal/export"
	"github.com/jonathan/candidate-recommender/internal/ingestion"
	"github.com/jonathan/candidate-recommender/internal/observability"
	"github.com/jonathan/candidate-recommender/internal/pipeline"
	"github.com/jonathan/candidate-recommender/internal/schemas"
	"github.com/jonathan/candidate-recommender/internal/types"
)

var rankCmd = &cobra.Command{
	Use:   "rank [resume files...]",
	Short: "Rank resumes against a job description",
	Long: `Reads a job description (file or URL) and resumes (txt, pdf or docx), scores each
resume section by section and prints the candidates from best to worst match.

Resumes that cannot be read or split into sections are skipped with a warning.`,
	RunE: runRank,
}

var (
	rankJob        string
	rankJobURL     string
	rankUseBrowser bool
	rankResumes    []string
	rankDir        string
	rankOut        string
	rankTop        int
	rankSummary    int
	rankZip        string
	rankStrategy   string
	rankProvider   string
	rankExtractor  string
	rankShowText   bool
)

func init() {
	rankCmd.Flags().StringVarP(&rankJob, "job", "j", "", "Path to the job description (txt, pdf or docx)")
	rankCmd.Flags().StringVar(&rankJobURL, "job-url", "", "URL to fetch the job description from")
	rankCmd.Flags().BoolVar(&rankUseBrowser, "use-browser", false, "Use headless browser for SPA job pages (requires Chrome)")
	rankCmd.Flags().StringSliceVarP(&rankResumes, "resumes", "r", nil, "Resume files (repeatable or comma-separated)")
	rankCmd.Flags().StringVar(&rankDir, "dir", "", "Directory of resumes; every txt, pdf and docx file is ranked")
	rankCmd.Flags().StringVarP(&rankOut, "out", "o", "", "Write the full ranking as JSON to this path")
	rankCmd.Flags().IntVar(&rankTop, "top", 0, "Number of candidates to show and export (default from config)")
	rankCmd.Flags().IntVar(&rankSummary, "summary", 0, "Generate LLM fit summaries for this many top candidates (default from config)")
	rankCmd.Flags().StringVar(&rankZip, "zip", "", "Write the top candidates' resume text to this zip file")
	rankCmd.Flags().StringVar(&rankStrategy, "strategy", "", "Scoring strategy: sections or whole_document")
	rankCmd.Flags().StringVar(&rankProvider, "provider", "", "Embedding provider: hashing, ollama, openai or gemini")
	rankCmd.Flags().StringVar(&rankExtractor, "extractor", "", "Section extractor: pattern, llm or auto")
	rankCmd.Flags().BoolVar(&rankShowText, "show-text", false, "Print the beginning of each top resume")

	rankCmd.MarkFlagsMutuallyExclusive("job", "job-url")

	rootCmd.AddCommand(rankCmd)
}

// applyRankFlags overrides configuration with explicitly set flags
func applyRankFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("use-browser") {
		cfg.Fetch.UseBrowser = rankUseBrowser
	}
	if flags.Changed("top") {
		cfg.Ranking.TopN = rankTop
	}
	if flags.Changed("summary") {
		cfg.Ranking.SummaryTopN = rankSummary
	}
	if flags.Changed("strategy") {
		cfg.Ranking.Strategy = rankStrategy
	}
	if flags.Changed("provider") {
		cfg.Embedding.Provider = rankProvider
	}
	if flags.Changed("extractor") {
		cfg.Extraction.Mode = rankExtractor
	}
}

// collectResumes merges positional arguments, --resumes and --dir. Directory
// entries are sorted by name so input order is stable.
func collectResumes(args []string) ([]string, error) {
	paths := append(append([]string{}, args...), rankResumes...)
	if rankDir == "" {
		return paths, nil
	}

	entries, err := os.ReadDir(rankDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume directory: %w", err)
	}
	var found []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := ingestion.DetectFormat(entry.Name()); err == nil {
			found = append(found, filepath.Join(rankDir, entry.Name()))
		}
	}
	sort.Strings(found)
	return append(paths, found...), nil
}

func runRank(cmd *cobra.Command, args []string) error {
	if rankJob == "" && rankJobURL == "" {
		return &usageError{err: errors.New("one of --job or --job-url is required")}
	}
	paths, err := collectResumes(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New(msgMissingResumes)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	applyRankFlags(cmd, cfg)

	env, err := newEnvironment(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer env.Close()

	jobText, err := env.readJobDescription(ctx, rankJob, rankJobURL)
	if err != nil {
		return err
	}

	opts, err := env.rankerOptions(cfg.Ranking.SummaryTopN)
	if err != nil {
		return err
	}
	stderr := observability.NewPrinter(cmd.ErrOrStderr())
	if verbose {
		opts.OnProgress = func(event pipeline.ProgressEvent) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", event.Step, event.Message)
			if doc, ok := event.Content.(*types.SectionedDocument); ok {
				stderr.PrintSections(doc)
			}
		}
	}

	ranker, err := pipeline.NewRanker(opts)
	if err != nil {
		return err
	}

	result, err := ranker.RankFiles(ctx, jobText, paths)
	if err != nil {
		var noValid *pipeline.NoValidCandidatesError
		if errors.As(err, &noValid) {
			stderr.PrintSkipped(noValid.Skipped)
		}
		return err
	}

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out).WithColors(out == os.Stdout && !color.NoColor)
	printer.PrintRanking(result, cfg.Ranking.TopN, rankShowText)

	if rankOut != "" {
		if err := writeRankingJSON(rankOut, result); err != nil {
			return err
		}
		logger.Info("wrote ranking", zap.String("path", rankOut))
	}
	if rankZip != "" {
		if err := writeZipFile(rankZip, result.Top(cfg.Ranking.TopN)); err != nil {
			return err
		}
		logger.Info("wrote zip export", zap.String("path", rankZip))
	}
	return nil
}

// writeRankingJSON checks the result against its schema and writes it
func writeRankingJSON(path string, result *types.RankedCandidates) error {
	if err := schemas.Validate(schemas.RankedCandidates, result); err != nil {
		return fmt.Errorf("ranking failed schema validation: %w", err)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ranking: %w", err)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write ranking: %w", err)
	}
	return nil
}

func writeZipFile(path string, candidates []types.CandidateResult) (err error) {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create zip file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close zip file: %w", cerr)
		}
	}()
	if err := export.WriteZip(f, candidates); err != nil {
		return fmt.Errorf("failed to write zip file: %w", err)
	}
	return nil
}

// ensureDir creates the parent directory of path
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
