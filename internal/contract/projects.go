package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/osshealth/schema"
	"gopkg.in/yaml.v3"
)

// LoadProjects reads the batch project list at path.
//
// A .json file holds the package mapping {"pkg": ["owner/name", "1.2 M"], ...}
// and is returned in file order. A .yaml or .yml file holds a list of
// {repo, downloads} entries.
func LoadProjects(path string) ([]schema.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project list: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var projects []schema.Project
		if err := yaml.Unmarshal(data, &projects); err != nil {
			return nil, fmt.Errorf("failed to parse project list %s: %w", path, err)
		}
		return projects, nil
	case ".json":
		projects, err := parseProjectMapping(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse project list %s: %w", path, err)
		}
		return projects, nil
	default:
		return nil, fmt.Errorf("unsupported project list format %q (expected .json, .yaml, .yml)", filepath.Ext(path))
	}
}

// parseProjectMapping walks the top-level object token by token so that
// entries keep their file order.
func parseProjectMapping(data []byte) ([]schema.Project, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}

	var projects []schema.Project
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		var pair []any
		if err := dec.Decode(&pair); err != nil {
			return nil, fmt.Errorf("entry %q: %w", key, err)
		}
		if len(pair) != 2 {
			return nil, fmt.Errorf("entry %q: expected [repo, downloads]", key)
		}
		repo, _ := pair[0].(string) // null means the package has no known repository
		projects = append(projects, schema.Project{
			Repo:            repo,
			DownloadsPerDay: formatDownloads(pair[1]),
		})
	}
	return projects, nil
}

func formatDownloads(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		return d
	case float64:
		return fmt.Sprintf("%g", d)
	default:
		return fmt.Sprint(d)
	}
}
