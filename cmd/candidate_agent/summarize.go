package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/candidate-recommender/internal/ingestion"
	"github.com/jonathan/candidate-recommender/internal/summary"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Explain why a resume fits a job description",
	Long:  "Asks the configured LLM provider for a three-sentence explanation of how well one resume fits the job description.",
	RunE:  runSummarize,
}

var (
	summarizeJob    string
	summarizeJobURL string
	summarizeResume string
)

func init() {
	summarizeCmd.Flags().StringVarP(&summarizeJob, "job", "j", "", "Path to the job description (txt, pdf or docx)")
	summarizeCmd.Flags().StringVar(&summarizeJobURL, "job-url", "", "URL to fetch the job description from")
	summarizeCmd.Flags().StringVarP(&summarizeResume, "resume", "r", "", "Path to the resume (required)")

	summarizeCmd.MarkFlagsMutuallyExclusive("job", "job-url")
	if err := summarizeCmd.MarkFlagRequired("resume"); err != nil {
		panic(fmt.Sprintf("failed to mark resume flag as required: %v", err))
	}

	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	env, err := newEnvironment(cmd.Context(), cfg, logger, true)
	if err != nil {
		return err
	}
	defer env.Close()

	jobText, err := env.readJobDescription(cmd.Context(), summarizeJob, summarizeJobURL)
	if err != nil {
		return err
	}
	resume, err := ingestion.ReadFile(summarizeResume)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}

	text, err := summary.NewSummarizer(env.client, 0, logger).Summarize(cmd.Context(), jobText, resume.Text)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
