package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/candidate-recommender/internal/ingestion"
	"github.com/jonathan/candidate-recommender/internal/observability"
	"github.com/jonathan/candidate-recommender/internal/parsing"
	"github.com/jonathan/candidate-recommender/internal/schemas"
	"github.com/jonathan/candidate-recommender/internal/types"
)

var extractSectionsCmd = &cobra.Command{
	Use:   "extract-sections",
	Short: "Split a resume or job description into sections",
	Long: `Extracts the canonical sections of a single document and prints them, or writes them
as JSON with --out. Useful for checking what the ranker will compare.`,
	RunE: runExtractSections,
}

var (
	extractIn        string
	extractKind      string
	extractOut       string
	extractExtractor string
)

func init() {
	extractSectionsCmd.Flags().StringVarP(&extractIn, "in", "i", "", "Path to the document (txt, pdf or docx) (required)")
	extractSectionsCmd.Flags().StringVarP(&extractKind, "kind", "k", string(types.DocumentResume), "Document kind: resume or job_description")
	extractSectionsCmd.Flags().StringVarP(&extractOut, "out", "o", "", "Write the sections as JSON to this path")
	extractSectionsCmd.Flags().StringVar(&extractExtractor, "extractor", "", "Section extractor: pattern, llm or auto")

	if err := extractSectionsCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(extractSectionsCmd)
}

func runExtractSections(cmd *cobra.Command, _ []string) error {
	kind := types.DocumentKind(extractKind)
	if kind != types.DocumentResume && kind != types.DocumentJob {
		return &usageError{err: fmt.Errorf("--kind must be %q or %q", types.DocumentResume, types.DocumentJob)}
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("extractor") {
		cfg.Extraction.Mode = extractExtractor
	}

	env, err := newEnvironment(cmd.Context(), cfg, logger, false)
	if err != nil {
		return err
	}
	defer env.Close()

	doc, err := ingestion.ReadFile(extractIn)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	extractor, err := env.extractor()
	if err != nil {
		return err
	}
	sections, err := parsing.Extract(cmd.Context(), extractor, kind, doc.Text)
	if err != nil {
		return err
	}

	if extractOut == "" {
		observability.NewPrinter(cmd.OutOrStdout()).PrintSections(sections)
		return nil
	}

	if err := schemas.Validate(schemas.SectionedDocument, sections); err != nil {
		return fmt.Errorf("sections failed schema validation: %w", err)
	}
	data, err := json.MarshalIndent(sections, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sections: %w", err)
	}
	if err := ensureDir(extractOut); err != nil {
		return err
	}
	if err := os.WriteFile(extractOut, data, 0644); err != nil {
		return fmt.Errorf("failed to write sections: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s sections to %s\n", kind, extractOut)
	return nil
}
