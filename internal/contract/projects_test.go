package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/osshealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProjectsJSON(t *testing.T) {
	path := writeFile(t, "pypi_mapping.json", `{
		"requests": ["psf/requests", "17.2 M"],
		"boto3": ["boto/boto3", "40.1 M"],
		"orphan": [null, "1.0 K"],
		"numeric": ["numpy/numpy", 12345]
	}`)

	projects, err := LoadProjects(path)
	require.NoError(t, err)
	assert.Equal(t, []schema.Project{
		{Repo: "psf/requests", DownloadsPerDay: "17.2 M"},
		{Repo: "boto/boto3", DownloadsPerDay: "40.1 M"},
		{Repo: "", DownloadsPerDay: "1.0 K"},
		{Repo: "numpy/numpy", DownloadsPerDay: "12345"},
	}, projects)
}

func TestLoadProjectsYAML(t *testing.T) {
	path := writeFile(t, "projects.yaml", `
- repo: pallets/flask
  downloads: "3.1 M"
- repo: django/django
  downloads: "1.2 M"
`)

	projects, err := LoadProjects(path)
	require.NoError(t, err)
	assert.Equal(t, []schema.Project{
		{Repo: "pallets/flask", DownloadsPerDay: "3.1 M"},
		{Repo: "django/django", DownloadsPerDay: "1.2 M"},
	}, projects)
}

func TestLoadProjectsErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json array", "p.json", `[["psf/requests", "1 M"]]`},
		{"json short pair", "p.json", `{"requests": ["psf/requests"]}`},
		{"broken json", "p.json", `{"requests": `},
		{"broken yaml", "p.yml", "- repo: [unterminated"},
		{"unknown extension", "p.txt", "psf/requests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProjects(writeFile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadProjects(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
