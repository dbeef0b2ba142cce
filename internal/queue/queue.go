// Package queue persists pending ingestion jobs in an append-friendly
// JSONL file so a process restart never loses submitted work.
package queue

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/juridoc/ingest-go/internal/models"
)

type recordKind string

const (
	recordSubmit  recordKind = "submit"
	recordArchive recordKind = "archive"
)

// record is one line of the queue file. A submit line carries the full
// job; an archive line tombstones a finished one.
type record struct {
	Kind  recordKind            `json:"kind"`
	JobID string                `json:"job_id"`
	Job   *models.IngestionJob  `json:"job,omitempty"`
	At    time.Time             `json:"at"`
}

// File is a durable job queue log. Appends are flushed before returning,
// so a crash after Append never loses the record. Replay is idempotent by
// job id: the last submit for an id wins and an archive removes it.
type File struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// Open replays the queue file at path (creating it if absent), compacts
// it, and returns the pending jobs in submission order.
func Open(path string) (*File, []*models.IngestionJob, error) {
	pending, err := replay(path)
	if err != nil {
		return nil, nil, err
	}

	// Compact: rewrite only the live submits, then swap atomically.
	tmp := path + ".tmp"
	tmpFile, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("create compacted queue: %w", err)
	}
	for _, job := range pending {
		if err := writeRecord(tmpFile, record{Kind: recordSubmit, JobID: job.JobID, Job: job, At: time.Now()}); err != nil {
			tmpFile.Close()
			return nil, nil, err
		}
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return nil, nil, fmt.Errorf("sync compacted queue: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return nil, nil, fmt.Errorf("close compacted queue: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, nil, fmt.Errorf("swap compacted queue: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open queue for append: %w", err)
	}
	return &File{path: path, f: f}, pending, nil
}

// replay reads every record and resolves the surviving pending set.
func replay(path string) ([]*models.IngestionJob, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		if dir := filepath.Dir(path); dir != "." {
			if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
				return nil, fmt.Errorf("create queue dir: %w", mkErr)
			}
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open queue: %w", err)
	}
	defer f.Close()

	byID := make(map[string]*models.IngestionJob)
	var order []string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			// A torn final line from a crash mid-append is expected;
			// everything before it is intact.
			continue
		}
		switch rec.Kind {
		case recordSubmit:
			if rec.Job == nil {
				continue
			}
			if _, known := byID[rec.JobID]; !known {
				order = append(order, rec.JobID)
			}
			byID[rec.JobID] = rec.Job
		case recordArchive:
			delete(byID, rec.JobID)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan queue: %w", err)
	}

	var pending []*models.IngestionJob
	for _, id := range order {
		if job, ok := byID[id]; ok {
			pending = append(pending, job)
		}
	}
	return pending, nil
}

// Append durably records a submitted (or re-queued) job.
func (q *File) Append(job *models.IngestionJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := writeRecord(q.f, record{Kind: recordSubmit, JobID: job.JobID, Job: job, At: time.Now()}); err != nil {
		return err
	}
	return q.sync()
}

// Archive durably tombstones a job that reached a terminal state.
func (q *File) Archive(jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := writeRecord(q.f, record{Kind: recordArchive, JobID: jobID, At: time.Now()}); err != nil {
		return err
	}
	return q.sync()
}

func (q *File) sync() error {
	if err := q.f.Sync(); err != nil {
		return fmt.Errorf("sync queue: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (q *File) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.f.Close()
}

func writeRecord(f *os.File, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal queue record: %w", err)
	}
	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("append queue record: %w", err)
	}
	return nil
}
