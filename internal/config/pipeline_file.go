package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pipeline file validation errors.
var (
	ErrWinsorLimitRange = errors.New("winsorize limits must be in [0, 0.5)")
	ErrMinTokenLen      = errors.New("vectorizer.min_token_len must be at least 1")
	ErrWatchInterval    = errors.New("watch.interval_sec must be at least 1")
	ErrWatchBatch       = errors.New("watch.batch must be at least 1")
)

// PipelineFile is the optional YAML file named by PIPELINE_CONFIG. Set
// fields override the environment.
type PipelineFile struct {
	Winsorize  WinsorizeSection  `yaml:"winsorize"`
	Vectorizer VectorizerSection `yaml:"vectorizer"`
	Reference  ReferenceSection  `yaml:"reference"`
	Watch      WatchSection      `yaml:"watch"`
}

type WinsorizeSection struct {
	Lower *float64 `yaml:"lower,omitempty"`
	Upper *float64 `yaml:"upper,omitempty"`
}

type VectorizerSection struct {
	MinTokenLen *int `yaml:"min_token_len,omitempty"`
}

type ReferenceSection struct {
	Path      string `yaml:"path,omitempty"`
	KeyColumn string `yaml:"key_column,omitempty"`
}

type WatchSection struct {
	IntervalSec *int   `yaml:"interval_sec,omitempty"`
	Batch       *int   `yaml:"batch,omitempty"`
	SchemaID    string `yaml:"schema_id,omitempty"`
}

// LoadPipelineFile reads and validates a pipeline YAML file.
func LoadPipelineFile(path string) (*PipelineFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline config: %w", err)
	}

	var file PipelineFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config validation failed: %w", err)
	}

	return &file, nil
}

// FileFromConfig captures the pipeline settings of cfg so they can be saved
// and later passed back through PIPELINE_CONFIG.
func FileFromConfig(cfg Config) *PipelineFile {
	lower, upper := cfg.WinsorLower, cfg.WinsorUpper
	tokenLen := cfg.TitleMinTokenLen
	interval, batch := cfg.WatchIntervalSec, cfg.WatchBatch
	return &PipelineFile{
		Winsorize:  WinsorizeSection{Lower: &lower, Upper: &upper},
		Vectorizer: VectorizerSection{MinTokenLen: &tokenLen},
		Reference:  ReferenceSection{Path: cfg.ReferencePath, KeyColumn: cfg.ReferenceKeyColumn},
		Watch:      WatchSection{IntervalSec: &interval, Batch: &batch, SchemaID: cfg.WatchSchemaID},
	}
}

// Save writes the file back as YAML.
func (p *PipelineFile) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal pipeline config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write pipeline config: %w", err)
	}
	return nil
}

func (p *PipelineFile) Validate() error {
	for _, limit := range []*float64{p.Winsorize.Lower, p.Winsorize.Upper} {
		if limit != nil && (*limit < 0 || *limit >= 0.5) {
			return ErrWinsorLimitRange
		}
	}
	if p.Vectorizer.MinTokenLen != nil && *p.Vectorizer.MinTokenLen < 1 {
		return ErrMinTokenLen
	}
	if p.Watch.IntervalSec != nil && *p.Watch.IntervalSec < 1 {
		return ErrWatchInterval
	}
	if p.Watch.Batch != nil && *p.Watch.Batch < 1 {
		return ErrWatchBatch
	}
	return nil
}

// ApplyTo copies every set field onto cfg.
func (p *PipelineFile) ApplyTo(cfg *Config) {
	if p.Winsorize.Lower != nil {
		cfg.WinsorLower = *p.Winsorize.Lower
	}
	if p.Winsorize.Upper != nil {
		cfg.WinsorUpper = *p.Winsorize.Upper
	}
	if p.Vectorizer.MinTokenLen != nil {
		cfg.TitleMinTokenLen = *p.Vectorizer.MinTokenLen
	}
	if p.Reference.Path != "" {
		cfg.ReferencePath = p.Reference.Path
	}
	if p.Reference.KeyColumn != "" {
		cfg.ReferenceKeyColumn = p.Reference.KeyColumn
	}
	if p.Watch.IntervalSec != nil {
		cfg.WatchIntervalSec = *p.Watch.IntervalSec
	}
	if p.Watch.Batch != nil {
		cfg.WatchBatch = *p.Watch.Batch
	}
	if p.Watch.SchemaID != "" {
		cfg.WatchSchemaID = p.Watch.SchemaID
	}
}
