package pipeline

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Schema is everything learnt by Fit that Transform needs to produce a
// matrix with the same columns.
type Schema struct {
	ID         string           `json:"id" yaml:"id"`
	Name       string           `json:"name" yaml:"name"`
	CreatedAt  string           `json:"createdAt" yaml:"created_at"`
	RowsFit    int              `json:"rowsFit" yaml:"rows_fit"`
	Options    Options          `json:"options" yaml:"options"`
	Encoding   CategoryEncoding `json:"encoding" yaml:"encoding"`
	Salary     Bounds           `json:"salary" yaml:"salary"`
	Vectorizer Vectorizer       `json:"vectorizer" yaml:"vectorizer"`
	Columns    []string         `json:"columns" yaml:"columns"`
}

// Validate checks that the stored parts agree with each other.
func (s *Schema) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("schema: missing id")
	}
	if len(s.Vectorizer.Vocabulary) != len(s.Vectorizer.IDF) {
		return fmt.Errorf("schema %s: vocabulary has %d terms but %d idf weights", s.ID, len(s.Vectorizer.Vocabulary), len(s.Vectorizer.IDF))
	}
	if s.Salary.Lower > s.Salary.Upper {
		return fmt.Errorf("schema %s: salary bounds %g > %g", s.ID, s.Salary.Lower, s.Salary.Upper)
	}
	if s.Encoding.Reference != "" && !slices.Contains(s.Encoding.EmploymentTypes, s.Encoding.Reference) {
		return fmt.Errorf("schema %s: reference category %q is not an employment type", s.ID, s.Encoding.Reference)
	}
	return nil
}

func MarshalSchema(s *Schema) ([]byte, error) {
	return yaml.Marshal(s)
}

func UnmarshalSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ExportSchema writes s as YAML to path.
func ExportSchema(s *Schema, path string) error {
	data, err := MarshalSchema(s)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ImportSchema reads a YAML schema written by ExportSchema.
func ImportSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return UnmarshalSchema(data)
}
