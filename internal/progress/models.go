package progress

import (
	"time"

	api "github.com/recruitflow/recruitflow/api/v1alpha1"

	"github.com/google/uuid"
)

// Batch is the live progress record of one ingestion run. It is owned by a
// single worker for writes; readers get copies.
type Batch struct {
	ID          uuid.UUID
	JobID       uuid.UUID
	OrgID       string
	InitiatedBy string
	Total       int
	Processed   int
	Status      api.BatchStatus
	Candidates  []api.CandidateResult
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Terminal reports whether the batch reached its final status.
func (b *Batch) Terminal() bool {
	return b.Status == api.BatchStatusCompleted || b.Status == api.BatchStatusFailed
}

// Snapshot returns a deep copy safe to hand to concurrent readers.
func (b *Batch) Snapshot() *Batch {
	cp := *b
	cp.Candidates = make([]api.CandidateResult, len(b.Candidates))
	copy(cp.Candidates, b.Candidates)
	return &cp
}
