package finding

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/douhashi/steward/internal/tracker"
)

type document struct {
	Project  string        `yaml:"project"`
	Tool     string        `yaml:"tool"`
	Contexts []string      `yaml:"contexts"`
	Tags     []string      `yaml:"tags"`
	Findings []findingItem `yaml:"findings"`
}

type findingItem struct {
	Title       string            `yaml:"title"`
	Priority    *tracker.Priority `yaml:"priority"`
	Description string            `yaml:"description"`
	Assignee    string            `yaml:"assignee"`
	Contexts    []string          `yaml:"contexts"`
	Tags        []string          `yaml:"tags"`
}

// Load reads a findings document from a YAML or JSON file.
func Load(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open findings file: %w", err)
	}
	defer f.Close()

	data, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// Decode はYAML（JSONを含む）形式の検出結果を読み込む
func Decode(r io.Reader) (*Data, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("findings document is empty")
		}
		return nil, fmt.Errorf("failed to parse findings: %w", err)
	}

	if doc.Project == "" {
		return nil, fmt.Errorf("project is required")
	}
	if doc.Tool == "" {
		return nil, fmt.Errorf("tool is required")
	}

	data := NewData(doc.Project, doc.Tool)
	data.AddContexts(doc.Contexts...)
	data.AddTags(doc.Tags...)

	for i, item := range doc.Findings {
		if item.Title == "" {
			return nil, fmt.Errorf("findings[%d]: title is required", i)
		}
		if item.Priority == nil {
			return nil, fmt.Errorf("findings[%d]: priority is required", i)
		}
		f := New(item.Title, *item.Priority)
		f.Description = item.Description
		f.Assignee = item.Assignee
		f.AddContexts(item.Contexts...)
		f.AddTags(item.Tags...)
		data.AddFinding(f)
	}
	return data, nil
}
