package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	IntegrationProviderGmail = "gmail"
	IntegrationProviderDrive = "drive"
)

// Integration holds one organization's OAuth connection to an external
// mailbox or shared drive. AutoSync is a typed column: the scheduler only
// picks up integrations that were explicitly opted into recurring sync.
// The job reference columns record the job of the last manual sync so a
// recurring sync scores against the same position.
type Integration struct {
	ID             uuid.UUID `gorm:"primaryKey;"`
	OrgID          string    `gorm:"index;not null"`
	Provider       string    `gorm:"not null"`
	AccessToken    string
	RefreshToken   string
	TokenExpiry    time.Time
	AutoSync       bool `gorm:"index"`
	LastSyncAt     *time.Time
	JobID          uuid.UUID
	JobTitle       string
	RequiredSkills *JSONField[[]string] `gorm:"type:jsonb"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type IntegrationList []Integration

func (i Integration) String() string {
	val, _ := json.Marshal(i)
	return string(val)
}
