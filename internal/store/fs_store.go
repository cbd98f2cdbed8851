package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FSStore implements the Store interface using filesystem-based
// persistence. Records are stored in a directory structure:
// <baseDir>/jobs/<jobID>/
//
// Thread-safety: this implementation uses atomic file operations (rename)
// and does not require locks. Multiple goroutines can safely call methods
// concurrently.
type FSStore struct {
	baseDir string // Root directory for all job data (e.g., "./data")
}

// NewFSStore creates a new filesystem-based store.
// The baseDir will be created if it doesn't exist.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSStore{
		baseDir: baseDir,
	}, nil
}

// jobDir returns the directory path for a given job ID.
func (fs *FSStore) jobDir(jobID string) string {
	return filepath.Join(fs.baseDir, "jobs", jobID)
}

// recordPath returns the path to the record.json file for a job.
func (fs *FSStore) recordPath(jobID string) string {
	return filepath.Join(fs.jobDir(jobID), "record.json")
}

// SaveJobRecord atomically saves a record for the given job.
// Uses temp file + rename pattern to ensure atomicity.
func (fs *FSStore) SaveJobRecord(jobID string, record *JobRecord) error {
	if jobID == "" {
		return fmt.Errorf("jobID cannot be empty")
	}
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}

	jobDir := fs.jobDir(jobID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	tempPath := fs.recordPath(jobID) + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp record file: %w", err)
	}

	finalPath := fs.recordPath(jobID)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename record file: %w", err)
	}

	slog.Debug("Job record saved", "jobID", jobID, "path", finalPath)
	return nil
}

// LoadJobRecord retrieves the record for the given job.
func (fs *FSStore) LoadJobRecord(jobID string) (*JobRecord, error) {
	if jobID == "" {
		return nil, fmt.Errorf("jobID cannot be empty")
	}

	path := fs.recordPath(jobID)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &NotFoundError{JobID: jobID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat record file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	var record JobRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to deserialize record: %w", err)
	}

	slog.Debug("Job record loaded", "jobID", jobID, "path", path)
	return &record, nil
}

// ListJobRecords returns metadata for all available records.
func (fs *FSStore) ListJobRecords() ([]JobRecordInfo, error) {
	jobsDir := filepath.Join(fs.baseDir, "jobs")

	if _, err := os.Stat(jobsDir); os.IsNotExist(err) {
		return []JobRecordInfo{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat jobs directory: %w", err)
	}

	entries, err := os.ReadDir(jobsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs directory: %w", err)
	}

	var infos []JobRecordInfo

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		jobID := entry.Name()
		recordPath := fs.recordPath(jobID)

		if _, err := os.Stat(recordPath); os.IsNotExist(err) {
			continue
		}

		record, err := fs.LoadJobRecord(jobID)
		if err != nil {
			slog.Warn("Failed to load job record for listing", "jobID", jobID, "error", err)
			continue
		}

		infos = append(infos, record.ToInfo())
	}

	slog.Debug("Listed job records", "count", len(infos))
	return infos, nil
}

// AppendTraceEntry appends one progress snapshot to <baseDir>/jobs/<jobID>/trace.jsonl.
func (fs *FSStore) AppendTraceEntry(jobID string, entry TraceEntry) error {
	tw, err := NewTraceWriter(fs.baseDir, jobID, true)
	if err != nil {
		return fmt.Errorf("failed to open trace writer: %w", err)
	}
	defer tw.Close()

	return tw.Write(entry)
}

// LoadTrace reads every progress snapshot recorded for a job.
func (fs *FSStore) LoadTrace(jobID string) ([]TraceEntry, error) {
	tr, err := NewTraceReader(fs.baseDir, jobID)
	if err != nil {
		return nil, err
	}
	defer tr.Close()

	return tr.ReadAll()
}

// DeleteJobRecord removes the record and its trace file for the given job.
func (fs *FSStore) DeleteJobRecord(jobID string) error {
	if jobID == "" {
		return fmt.Errorf("jobID cannot be empty")
	}

	jobDir := fs.jobDir(jobID)

	if _, err := os.Stat(jobDir); os.IsNotExist(err) {
		return &NotFoundError{JobID: jobID}
	} else if err != nil {
		return fmt.Errorf("failed to stat job directory: %w", err)
	}

	if err := os.RemoveAll(jobDir); err != nil {
		return fmt.Errorf("failed to remove job directory: %w", err)
	}

	slog.Debug("Job record deleted", "jobID", jobID, "path", jobDir)
	return nil
}
