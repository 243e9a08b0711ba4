package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"salaryprep/internal"
	"salaryprep/internal/config"
	"salaryprep/internal/frame"
	"salaryprep/internal/logger"
	"salaryprep/internal/storage"
)

// ProcessingService runs the pipeline against files and records every run.
type ProcessingService struct {
	db  *storage.DB
	cfg config.Config
	log logger.Logger
}

func NewProcessingService(db *storage.DB, cfg config.Config, log logger.Logger) *ProcessingService {
	if log == nil {
		log = logger.NewNop()
	}
	return &ProcessingService{db: db, cfg: cfg, log: log}
}

type RunResult struct {
	TraceID    string
	SchemaID   string
	Rows       int
	Columns    int
	OutputPath string
	Report     Report
}

// Options returns the pipeline options configured for this service.
func (s *ProcessingService) Options() Options {
	return Options{
		WinsorLower: s.cfg.WinsorLower,
		WinsorUpper: s.cfg.WinsorUpper,
		MinTokenLen: s.cfg.TitleMinTokenLen,
	}
}

// LoadReference reads the reference table at path, or at the configured
// REFERENCE_PATH when path is empty.
func (s *ProcessingService) LoadReference(path string) (*ReferenceTable, error) {
	path = firstNonEmpty(path, s.cfg.ReferencePath)
	if err := s.cfg.Require("REFERENCE_PATH", path); err != nil {
		return nil, err
	}
	return LoadReference(path, s.cfg.ReferenceKeyColumn)
}

func (s *ProcessingService) RunPreprocess(input, referencePath, output string) (RunResult, error) {
	start := time.Now()
	ds, ref, err := s.loadInputs(input, referencePath)
	if err != nil {
		return RunResult{}, err
	}
	p, err := New(s.Options())
	if err != nil {
		return RunResult{}, err
	}
	_, m, rep, err := p.Fit(ds, ref)
	if err != nil {
		return RunResult{}, fmt.Errorf("preprocess %s: %w", input, err)
	}
	if err := ExportMatrix(m, output); err != nil {
		return RunResult{}, fmt.Errorf("export %s: %w", output, err)
	}

	res := RunResult{TraceID: uuid.NewString(), Rows: m.Len(), Columns: len(m.Columns), OutputPath: output, Report: rep}
	s.recordRun(res, internal.ModePreprocess, input, withTotal(rep.Timings, start), rep.Counts())
	return res, nil
}

// RunFit learns a schema from input, stores it as the active schema and,
// when output is set, writes the fitted matrix.
func (s *ProcessingService) RunFit(input, referencePath, output, name string) (RunResult, error) {
	start := time.Now()
	ds, ref, err := s.loadInputs(input, referencePath)
	if err != nil {
		return RunResult{}, err
	}
	p, err := New(s.Options())
	if err != nil {
		return RunResult{}, err
	}
	schema, m, rep, err := p.Fit(ds, ref)
	if err != nil {
		return RunResult{}, fmt.Errorf("fit %s: %w", input, err)
	}
	if m.Len() == 0 {
		return RunResult{}, fmt.Errorf("fit %s: no rows left after cleaning", input)
	}
	schema.Name = firstNonEmpty(name, schema.ID)

	if err := s.SaveSchema(schema); err != nil {
		return RunResult{}, err
	}
	if err := s.db.SetMetadata(storage.MetaActiveSchema, schema.ID); err != nil {
		return RunResult{}, err
	}
	if output != "" {
		if err := ExportMatrix(m, output); err != nil {
			return RunResult{}, fmt.Errorf("export %s: %w", output, err)
		}
	}

	res := RunResult{TraceID: uuid.NewString(), SchemaID: schema.ID, Rows: m.Len(), Columns: len(m.Columns), OutputPath: output, Report: rep}
	s.recordRun(res, internal.ModeFit, input, withTotal(rep.Timings, start), rep.Counts())
	return res, nil
}

// RunTransform applies a stored schema to input. An empty schemaID selects
// the active schema, then the latest one.
func (s *ProcessingService) RunTransform(schemaID, input, referencePath, output string) (RunResult, error) {
	schema, err := s.LoadSchema(schemaID)
	if err != nil {
		return RunResult{}, err
	}
	ds, ref, err := s.loadInputs(input, referencePath)
	if err != nil {
		return RunResult{}, err
	}
	return s.TransformDataset(schema, ref, ds, input, output)
}

// TransformDataset applies schema to an already loaded dataset.
func (s *ProcessingService) TransformDataset(schema *Schema, ref *ReferenceTable, ds *frame.Frame, input, output string) (RunResult, error) {
	start := time.Now()
	p, err := New(schema.Options)
	if err != nil {
		return RunResult{}, err
	}
	m, rep, err := p.Transform(schema, ds, ref)
	if err != nil {
		return RunResult{}, fmt.Errorf("transform %s: %w", input, err)
	}
	if err := ExportMatrix(m, output); err != nil {
		return RunResult{}, fmt.Errorf("export %s: %w", output, err)
	}

	res := RunResult{TraceID: uuid.NewString(), SchemaID: schema.ID, Rows: m.Len(), Columns: len(m.Columns), OutputPath: output, Report: rep}
	s.recordRun(res, internal.ModeTransform, input, withTotal(rep.Timings, start), rep.Counts())
	return res, nil
}

func (s *ProcessingService) LoadSchema(id string) (*Schema, error) {
	rec, err := s.db.MustSchema(id)
	if err != nil {
		return nil, err
	}
	schema, err := UnmarshalSchema([]byte(rec.Body))
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", rec.ID, err)
	}
	return schema, nil
}

func (s *ProcessingService) SaveSchema(schema *Schema) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	body, err := MarshalSchema(schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	return s.db.SaveSchema(internal.SchemaRecord{
		ID:        schema.ID,
		Name:      schema.Name,
		RowsFit:   schema.RowsFit,
		Columns:   schema.Columns,
		Body:      string(body),
		CreatedAt: schema.CreatedAt,
	})
}

func (s *ProcessingService) loadInputs(input, referencePath string) (*frame.Frame, *ReferenceTable, error) {
	ds, err := LoadDataset(input)
	if err != nil {
		return nil, nil, err
	}
	ref, err := s.LoadReference(referencePath)
	if err != nil {
		return nil, nil, err
	}
	return ds, ref, nil
}

func (s *ProcessingService) recordRun(res RunResult, mode internal.RunMode, input string, timings map[string]float64, counts map[string]int) {
	var schemaID *string
	if res.SchemaID != "" {
		schemaID = &res.SchemaID
	}
	err := s.db.InsertRun(internal.RunRow{
		TraceID:  res.TraceID,
		Mode:     mode,
		SchemaID: schemaID,
		Input:    input,
		Timings:  timings,
		Counts:   counts,
	})
	if err != nil {
		s.log.Warn("record run failed", logger.String("trace_id", res.TraceID), logger.Error(err))
	}
	s.log.Info("run finished",
		logger.String("trace_id", res.TraceID),
		logger.String("mode", string(mode)),
		logger.String("input", input),
		logger.Int("rows", res.Rows),
		logger.Int("columns", res.Columns),
		logger.Float64("salary_lower", res.Report.Normalize.Bounds.Lower),
		logger.Float64("salary_upper", res.Report.Normalize.Bounds.Upper),
	)
}

func withTotal(timings map[string]float64, start time.Time) map[string]float64 {
	out := make(map[string]float64, len(timings)+1)
	for k, v := range timings {
		out[k] = v
	}
	out["totalMs"] = msSince(start)
	return out
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
