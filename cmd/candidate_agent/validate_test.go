package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRanking = `{
  "run_id": "run-1",
  "strategy": "sections",
  "candidates": [
    {"id": "a.txt", "input_index": 0, "per_section": [], "overall": 0.5}
  ],
  "created_at": "2024-01-02T03:04:05Z"
}`

func writeJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ranking.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateCommand_Success(t *testing.T) {
	stdout, _, err := executeCommand(t, "validate", "--schema", "ranked_candidates.schema.json", "--json", writeJSON(t, validRanking))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Validation passed")
}

func TestValidateCommand_SchemaPath(t *testing.T) {
	schemaPath := filepath.Join("..", "..", "schemas", "ranked_candidates.schema.json")
	stdout, _, err := executeCommand(t, "validate", "--schema", schemaPath, "--json", writeJSON(t, validRanking))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Validation passed")
}

func TestValidateCommand_Failure(t *testing.T) {
	_, stderr, err := executeCommand(t, "validate", "--schema", "ranked_candidates.schema.json",
		"--json", writeJSON(t, `{"run_id": "run-1", "candidates": []}`))
	require.Error(t, err)
	assert.Contains(t, stderr, "Validation failed")
	assert.Equal(t, 1, exitCode(err))
}

func TestValidateCommand_MissingFlags(t *testing.T) {
	_, _, err := executeCommand(t, "validate", "--json", writeJSON(t, validRanking))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
	assert.Equal(t, 2, exitCode(err))
}

func TestValidateCommand_Binary(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "validate", "--schema", "ranked_candidates.schema.json", "--json", writeJSON(t, "{}"))
	output, err := cmd.CombinedOutput()

	assert.Error(t, err, "command should fail")
	assert.Contains(t, string(output), "Validation failed")
	if exitError, ok := err.(*exec.ExitError); ok {
		assert.Equal(t, 1, exitError.ExitCode(), "should exit with code 1 on validation failure")
	}

	cmd = exec.Command(binaryPath, "validate")
	_, err = cmd.CombinedOutput()
	if exitError, ok := err.(*exec.ExitError); ok {
		assert.Equal(t, 2, exitError.ExitCode(), "should exit with code 2 on usage error")
	}
}
