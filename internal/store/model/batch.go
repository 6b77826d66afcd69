package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Batch is the durable history row of one ingestion run. The in-memory
// progress record is authoritative while the batch is active; this row is a
// best-effort mirror kept for audit and resume-after-restart.
type Batch struct {
	ID             uuid.UUID `gorm:"primaryKey;"`
	JobID          uuid.UUID `gorm:"index;not null"`
	OrgID          string    `gorm:"index;not null"`
	InitiatedBy    string
	TotalFiles     int
	ProcessedCount int
	Status         string                  `gorm:"index"`
	CandidateIDs   *JSONField[[]uuid.UUID] `gorm:"type:jsonb"`
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

type BatchList []Batch

func (b Batch) String() string {
	val, _ := json.Marshal(b)
	return string(val)
}
