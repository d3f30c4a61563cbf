// Package template loads authored task group templates from YAML files.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fernhill/todosync/internal/types"
)

// Load reads and validates a template file.
func Load(path string) (*types.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	tmpl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}
	if tmpl.ID == "" {
		// Derive a stable id from the filename when the author omits one.
		base := filepath.Base(path)
		tmpl.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return tmpl, nil
}

// Parse decodes a template document and validates its shape.
func Parse(data []byte) (*types.Template, error) {
	var tmpl types.Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if tmpl.Title == "" {
		return nil, fmt.Errorf("template missing title")
	}
	if err := validateNodes(tmpl.Tasks, ""); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func validateNodes(nodes []types.TaskNode, parentKey string) error {
	for i, node := range nodes {
		key := fmt.Sprintf("%d", i+1)
		if parentKey != "" {
			key = parentKey + "." + key
		}
		if strings.TrimSpace(node.Title) == "" {
			return fmt.Errorf("task %s: missing title", key)
		}
		if err := validateNodes(node.Subtasks, key); err != nil {
			return err
		}
	}
	return nil
}
