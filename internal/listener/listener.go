package listener

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"salaryprep/internal"
	"salaryprep/internal/config"
	"salaryprep/internal/logger"
	"salaryprep/internal/pipeline"
	"salaryprep/internal/storage"
	"salaryprep/internal/util"
)

// Service polls the inbox directory and transforms every new dataset with the
// configured schema.
type Service struct {
	db        *storage.DB
	cfg       config.Config
	log       logger.Logger
	inbox     *InboxStore
	processor *pipeline.ProcessingService
}

func NewService(db *storage.DB, cfg config.Config, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		db:        db,
		cfg:       cfg,
		log:       log,
		inbox:     NewInboxStore(db, cfg.InboxDir),
		processor: pipeline.NewProcessingService(db, cfg, log),
	}
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.WatchIntervalSec) * time.Second
	for {
		if _, err := s.RunCycle(ctx); err != nil {
			s.log.Error("watch cycle failed", logger.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

type CycleResult struct {
	Registered  int
	Transformed int
	Failed      int
}

// RunCycle registers new inbox files and processes up to WatchBatch pending
// datasets. A dataset that fails is marked failed and does not stop the cycle.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	start := time.Now()
	scan, err := s.inbox.Scan()
	if err != nil {
		return CycleResult{}, fmt.Errorf("scan inbox: %w", err)
	}
	res := CycleResult{Registered: scan.Registered}

	pending, err := s.db.ListDatasetsByStatus(internal.DatasetPending, s.cfg.WatchBatch)
	if err != nil {
		return res, err
	}
	if len(pending) == 0 {
		return res, nil
	}

	schema, err := s.processor.LoadSchema(s.cfg.WatchSchemaID)
	if err != nil {
		return res, err
	}
	ref, err := s.processor.LoadReference("")
	if err != nil {
		return res, err
	}

	var failed []string
	for _, ds := range pending {
		if ctx.Err() != nil {
			break
		}
		outputPath := filepath.Join(s.cfg.OutputDir, "listener", fmt.Sprintf("%d_%s.xlsx", ds.ID, util.SanitizeFileName(baseName(ds.Path))))
		run, err := s.transform(schema, ref, ds.Path, outputPath)
		if err != nil {
			res.Failed++
			failed = append(failed, ds.Path)
			s.log.Warn("dataset failed", logger.String("path", ds.Path), logger.Error(err))
			if uerr := s.db.UpdateDatasetStatus(ds.ID, internal.DatasetFailed, &schema.ID, nil, util.StringPtr(err.Error())); uerr != nil {
				return res, uerr
			}
			continue
		}
		res.Transformed++
		if err := s.db.UpdateDatasetStatus(ds.ID, internal.DatasetTransformed, &schema.ID, &run.OutputPath, nil); err != nil {
			return res, err
		}
	}

	s.log.Info("watch cycle done",
		logger.String("schema_id", schema.ID),
		logger.Int("registered", res.Registered),
		logger.Int("transformed", res.Transformed),
		logger.Int("failed", res.Failed),
		logger.Strings("failed_paths", failed),
		logger.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (s *Service) transform(schema *pipeline.Schema, ref *pipeline.ReferenceTable, path, outputPath string) (pipeline.RunResult, error) {
	ds, err := pipeline.LoadDataset(path)
	if err != nil {
		return pipeline.RunResult{}, err
	}
	return s.processor.TransformDataset(schema, ref, ds, path, outputPath)
}

func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
