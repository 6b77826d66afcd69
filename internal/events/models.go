package events

import (
	"github.com/google/uuid"
)

// BatchEvent is the payload of batch lifecycle notifications.
type BatchEvent struct {
	BatchID   uuid.UUID `json:"batch_id"`
	JobID     uuid.UUID `json:"job_id"`
	OrgID     string    `json:"org_id"`
	Status    string    `json:"status"`
	Total     int       `json:"total"`
	Processed int       `json:"processed"`
}
