package source

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"bookclub_bot/internal/model"
)

// YAMLFile reads the reading list from a local YAML file.
type YAMLFile struct {
	path string
}

type yamlList struct {
	Books []model.RawRow `yaml:"books"`
}

// Rows reads and decodes the file.
func (s *YAMLFile) Rows(ctx context.Context) ([]model.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read book list: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a `books:` list.
func ParseYAML(data []byte) ([]model.RawRow, error) {
	var list yamlList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse book list: %w", err)
	}
	if list.Books == nil {
		return []model.RawRow{}, nil
	}
	return list.Books, nil
}
