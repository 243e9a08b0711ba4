package listener

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"

	"salaryprep/internal"
	"salaryprep/internal/pipeline"
	"salaryprep/internal/storage"
)

// InboxStore registers dataset files dropped into a directory.
type InboxStore struct {
	db  *storage.DB
	dir string
}

func NewInboxStore(db *storage.DB, dir string) *InboxStore {
	return &InboxStore{db: db, dir: dir}
}

type ScanResult struct {
	Seen       int
	Registered int
}

// Scan hashes every .csv and .xlsx file in the inbox and registers the ones
// whose content has not been seen at that path before.
func (s *InboxStore) Scan() (ScanResult, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return ScanResult{}, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return ScanResult{}, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var res ScanResult
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		format := pipeline.FormatOf(entry.Name())
		if format != pipeline.FormatCSV && format != pipeline.FormatXLSX {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return res, err
		}
		hashBytes := sha256.Sum256(raw)
		hash := hex.EncodeToString(hashBytes[:])

		res.Seen++
		existing, err := s.db.GetDataset(path, hash)
		if err != nil {
			return res, err
		}
		if existing != nil {
			continue
		}
		row, err := s.db.UpsertDataset(path, hash)
		if err != nil {
			return res, err
		}
		if row.Status == internal.DatasetPending {
			res.Registered++
		}
	}
	return res, nil
}
