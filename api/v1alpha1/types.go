package v1alpha1

import (
	"time"

	"github.com/google/uuid"
)

// BatchStatus is the aggregate state of one ingestion batch.
type BatchStatus string

const (
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// CandidateStatus is the state of one file's slot within a batch.
type CandidateStatus string

const (
	CandidateStatusPending    CandidateStatus = "pending"
	CandidateStatusProcessing CandidateStatus = "processing"
	CandidateStatusCompleted  CandidateStatus = "completed"
	CandidateStatusFailed     CandidateStatus = "failed"
)

// CandidateResult is the per-file outcome, addressable by its index in the
// submitted file list.
type CandidateResult struct {
	Index         int             `json:"index"`
	Name          string          `json:"name"`
	Email         *string         `json:"email,omitempty"`
	Score         *int            `json:"score,omitempty"`
	MatchedSkills []string        `json:"matchedSkills"`
	MissingSkills []string        `json:"missingSkills"`
	Reason        string          `json:"reason,omitempty"`
	Status        CandidateStatus `json:"status"`
	Error         *string         `json:"error,omitempty"`
}

type BatchProgress struct {
	BatchID    uuid.UUID         `json:"batchId"`
	Processed  int               `json:"processed"`
	Total      int               `json:"total"`
	Status     BatchStatus       `json:"status"`
	Candidates []CandidateResult `json:"candidates"`
}

type StartBatchReply struct {
	BatchID    uuid.UUID `json:"batchId"`
	TotalFiles int       `json:"totalFiles"`
}

type SyncRequest struct {
	IntegrationID  uuid.UUID `json:"integrationId"`
	JobID          uuid.UUID `json:"jobId"`
	JobTitle       string    `json:"jobTitle"`
	RequiredSkills []string  `json:"requiredSkills,omitempty"`
	Query          string    `json:"query,omitempty"`    // mailbox search query
	FolderID       string    `json:"folderId,omitempty"` // drive folder scope
}

type SyncReply struct {
	BatchID *uuid.UUID `json:"batchId"`
	Count   int        `json:"count"`
}

type Error struct {
	Message   string  `json:"message"`
	RequestID *string `json:"requestId,omitempty"`
}

type Health struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}
