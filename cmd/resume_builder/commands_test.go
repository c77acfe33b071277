package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const currentResume = `{
	"schema_version": 2,
	"personal_info": {"name": "Jane Doe"},
	"work_experience": [{
		"id": "we-1",
		"company": "Acme",
		"role": "Backend Engineer",
		"responsibilities": [{"text": "Built payment APIs in Go"}]
	}],
	"skills": ["Go", "PostgreSQL"]
}`

const legacyResume = `{
	"personal_info": {"name": "Jane Doe"},
	"work_experience": [{"company": "Acme", "role": "Engineer", "responsibilities": ["Built APIs"]}],
	"languages": ["English"]
}`

func TestLocateSkills(t *testing.T) {
	path := writeFile(t, t.TempDir(), "resume.json", currentResume)

	var out bytes.Buffer
	require.NoError(t, locateSkills(&out, path, []string{"Go", "PostgreSQL/Postgres", "Kubernetes"}))

	text := out.String()
	assert.Contains(t, text, "SKILL EVIDENCE")
	assert.Contains(t, text, "✗ Kubernetes (missing)")
	assert.Contains(t, text, "~ PostgreSQL/Postgres (listed)")
	assert.Contains(t, text, "✓ Go (contextual)")
	assert.Contains(t, text, "Built payment APIs in Go")
	assert.Contains(t, text, "Coverage: 33%")

	// weakest first
	assert.Less(t, bytes.Index(out.Bytes(), []byte("Kubernetes")), bytes.Index(out.Bytes(), []byte("✓ Go")))
}

func TestLocateSkills_Errors(t *testing.T) {
	dir := t.TempDir()

	err := locateSkills(&bytes.Buffer{}, filepath.Join(dir, "missing.json"), []string{"Go"})
	assert.Error(t, err)

	path := writeFile(t, dir, "broken.json", `{"personal_info": `)
	assert.Error(t, locateSkills(&bytes.Buffer{}, path, []string{"Go"}))
}

func TestMigrateFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "legacy.json", legacyResume)
	out := filepath.Join(dir, "current.json")

	require.NoError(t, migrateFile(in, out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)

	assert.Equal(t, int64(2), gjson.GetBytes(data, "schema_version").Int())
	assert.Equal(t, "we-1", gjson.GetBytes(data, "work_experience.0.id").String())
	assert.Equal(t, "Built APIs", gjson.GetBytes(data, "work_experience.0.responsibilities.0.text").String())
	assert.Equal(t, "English", gjson.GetBytes(data, "languages.0.language").String())

	again := filepath.Join(dir, "again.json")
	require.NoError(t, migrateFile(out, again))
	second, err := os.ReadFile(again)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(second))
}

func TestMigrateFile_MissingInput(t *testing.T) {
	err := migrateFile(filepath.Join(t.TempDir(), "nope.json"), "")
	assert.Error(t, err)
}

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "legacy.json", legacyResume)
	out := filepath.Join(dir, "out.json")

	rootCmd.SetArgs([]string{"migrate", "--in", in, "--out", out})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, gjson.ValidBytes(data))
	assert.Equal(t, "Acme", gjson.GetBytes(data, "work_experience.0.company").String())
}

func TestLocateCommand_MissingFlags(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "locate", "--skills", "Go")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "required flag(s) \"resume\" not set")
}

func TestAnalyzeCommand_MissingResumeID(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "analyze")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "required flag(s) \"resume-id\" not set")
}
