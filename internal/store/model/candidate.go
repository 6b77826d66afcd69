package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Candidate struct {
	ID        uuid.UUID `gorm:"primaryKey;"`
	OrgID     string    `gorm:"index:candidates_org_id;not null"`
	JobID     uuid.UUID `gorm:"index;not null"`
	Name      string    `gorm:"not null"`
	Email     *string
	CreatedBy string
	Resumes   []Resume `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

type CandidateList []Candidate

func (c Candidate) String() string {
	val, _ := json.Marshal(c)
	return string(val)
}
