package progress

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// retentionWindow is how long a terminal batch remains readable before its
// in-memory record is dropped. Clients can keep polling briefly after
// completion; the persisted row survives for history.
const retentionWindow = time.Hour

// Store is the process-wide table of live batch progress. Records are
// written by the owning batch worker and read concurrently by the streaming
// endpoint and progress-polling callers.
type Store interface {
	Get(id uuid.UUID) (*Batch, bool)
	Set(batch *Batch)
	Delete(id uuid.UUID)
	// ScheduleEviction drops the record after the retention window.
	ScheduleEviction(id uuid.UUID)
}

type MemoryStore struct {
	mu      sync.RWMutex
	batches map[uuid.UUID]*Batch

	// override used in tests
	retention time.Duration
}

// Make sure we conform to Store interface
var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		batches:   make(map[uuid.UUID]*Batch),
		retention: retentionWindow,
	}
}

func (s *MemoryStore) Get(id uuid.UUID) (*Batch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, found := s.batches[id]
	if !found {
		return nil, false
	}
	return batch.Snapshot(), true
}

func (s *MemoryStore) Set(batch *Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[batch.ID] = batch.Snapshot()
}

func (s *MemoryStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.batches, id)
}

func (s *MemoryStore) ScheduleEviction(id uuid.UUID) {
	time.AfterFunc(s.retention, func() {
		zap.S().Named("progress").Debugf("evicting batch %s from progress store", id)
		s.Delete(id)
	})
}
