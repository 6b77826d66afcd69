package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ParsedSkills is the structured scoring output kept alongside a resume.
type ParsedSkills struct {
	MatchedSkills []string `json:"matchedSkills"`
	MissingSkills []string `json:"missingSkills"`
	Reason        string   `json:"reason"`
}

type Resume struct {
	ID            uuid.UUID `gorm:"primaryKey;"`
	CandidateID   uuid.UUID `gorm:"index;not null"`
	OrgID         string    `gorm:"index:resumes_org_content_hash;not null"`
	ContentHash   string    `gorm:"index:resumes_org_content_hash;not null"`
	ExtractedText string    `gorm:"type:text"`
	FileURL       string
	AiScore       *int
	ParsedSkills  *JSONField[ParsedSkills] `gorm:"type:jsonb"`
	Embedding     *JSONField[[]float32]    `gorm:"type:jsonb"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r Resume) String() string {
	val, _ := json.Marshal(r)
	return string(val)
}
