package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/candidate-recommender/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a JSON file against a schema",
	Long: `Validates a JSON artifact such as a ranking written by "rank --out" against a JSON Schema.
--schema accepts a path or the name of a built-in schema (ranked_candidates.schema.json,
sectioned_document.schema.json).`,
	RunE: runValidate,
}

var (
	validateSchema string
	validateJSON   string
)

func init() {
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "Schema path or built-in schema name (required)")
	validateCmd.Flags().StringVar(&validateJSON, "json", "", "Path to the JSON file to validate (required)")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	if validateSchema == "" || validateJSON == "" {
		return &usageError{err: errors.New(`required flag(s) "json", "schema" not set`)}
	}

	if err := schemas.ValidateFile(validateSchema, validateJSON); err != nil {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Validation failed")
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Validation passed")
	return nil
}
