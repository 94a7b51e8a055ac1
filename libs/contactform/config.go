package contactform

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Config describes a submission prepared outside a browser.
type Config struct {
	Endpoint string            `yaml:"endpoint,omitempty"`
	Fields   map[string]string `yaml:"fields,omitempty"`
	Goals    []string          `yaml:"goals,omitempty"`
}

// LoadConfig reads a YAML submission file. Environment variables in the file
// are expanded.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// Merge applies the non-empty values of override on top of c.
func (c *Config) Merge(override Config) error {
	if err := mergo.Merge(c, override, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// Form returns the configured fields as form entries. Known fields come
// first in form order, then any others sorted by name, then one checkbox
// entry per goal.
func (c *Config) Form() *Values {
	names := make([]string, 0, len(c.Fields))
	for _, name := range FieldNames {
		if _, ok := c.Fields[name]; ok {
			names = append(names, name)
		}
	}
	var extra []string
	for name := range c.Fields {
		if !containsString(FieldNames, name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	form := NewValues()
	for _, name := range names {
		value := strings.TrimSpace(c.Fields[name])
		if value == "" {
			continue
		}
		form.Add(name, value)
	}
	for _, goal := range c.Goals {
		if goal = strings.TrimSpace(goal); goal != "" {
			form.Add("Goals[]", goal)
		}
	}
	return form
}

func containsString(list []string, value string) bool {
	for _, entry := range list {
		if entry == value {
			return true
		}
	}
	return false
}
