package schema

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads a runbook from disk, applies defaults and validates it.
func Load(path string) (*Runbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read runbook: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates runbook YAML.
func Parse(data []byte) (*Runbook, error) {
	var runbook Runbook
	if err := yaml.Unmarshal(data, &runbook); err != nil {
		return nil, fmt.Errorf("failed to parse runbook: %w", err)
	}

	runbook.applyDefaults()

	if err := validator.New().Struct(&runbook); err != nil {
		return nil, fmt.Errorf("invalid runbook: %w", err)
	}

	names := make(map[string]struct{}, len(runbook.Environments))
	for _, env := range runbook.Environments {
		if _, dup := names[env.Name]; dup {
			return nil, fmt.Errorf("invalid runbook: duplicate environment name %q", env.Name)
		}
		names[env.Name] = struct{}{}
	}

	return &runbook, nil
}

func (r *Runbook) applyDefaults() {
	if r.Platform.Type == "" {
		r.Platform.Type = "ready"
	}
	if r.Logging.Level == "" {
		r.Logging.Level = "info"
	}
	if r.Logging.Format == "" {
		r.Logging.Format = "console"
	}
	for i := range r.Environments {
		env := &r.Environments[i]
		for j := range env.Nodes {
			node := &env.Nodes[j]
			if node.Name == "" {
				node.Name = fmt.Sprintf("%s-node-%d", env.Name, j)
			}
			if node.NicCount == 0 {
				node.NicCount = 1
			}
			if node.Type == "ssh" && node.Port == 0 {
				node.Port = 22
			}
		}
	}
	for i := range r.TestCases {
		if r.TestCases[i].Times == 0 {
			r.TestCases[i].Times = 1
		}
	}
}
