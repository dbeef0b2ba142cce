package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestCollectorRecordsJobs(t *testing.T) {
	c := NewCollector()

	c.RecordJob(true, 100*time.Millisecond)
	c.RecordJob(true, 300*time.Millisecond)
	c.RecordJob(false, 200*time.Millisecond)

	s := c.Snapshot()
	if s.JobsProcessed != 3 || s.JobsSucceeded != 2 || s.JobsFailed != 1 {
		t.Errorf("snapshot = %+v, want 3/2/1", s)
	}
	if s.AverageProcessing != 200*time.Millisecond {
		t.Errorf("AverageProcessing = %v, want 200ms", s.AverageProcessing)
	}
}

func TestCollectorRecordsDocuments(t *testing.T) {
	c := NewCollector()

	c.RecordDocument(40, 1)
	c.RecordDocument(60, 0)

	s := c.Snapshot()
	if s.DocumentsCreated != 2 {
		t.Errorf("DocumentsCreated = %d, want 2", s.DocumentsCreated)
	}
	if s.ChunksCreated != 100 {
		t.Errorf("ChunksCreated = %d, want 100", s.ChunksCreated)
	}
	if s.OversizedCorrected != 1 {
		t.Errorf("OversizedCorrected = %d, want 1", s.OversizedCorrected)
	}
}

func TestCollectorReset(t *testing.T) {
	c := NewCollector()
	c.RecordJob(true, time.Second)
	c.RecordDocument(10, 0)
	c.Reset()

	s := c.Snapshot()
	if s.JobsProcessed != 0 || s.ChunksCreated != 0 || s.AverageProcessing != 0 {
		t.Errorf("snapshot after reset = %+v, want zeroes", s)
	}
}

func TestCollectorConcurrentAccess(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordJob(j%2 == 0, time.Millisecond)
				c.RecordDocument(1, 0)
				_ = c.Snapshot()
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.JobsProcessed != 1000 || s.DocumentsCreated != 1000 {
		t.Errorf("snapshot = %+v, want 1000 jobs and documents", s)
	}
}
