package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/recruitflow/recruitflow/internal/store/model"
	"gorm.io/gorm"
)

type Resume interface {
	Create(ctx context.Context, resume model.Resume) (*model.Resume, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Resume, error)
	// GetByContentHash is the dedupe lookup: the same bytes are never paid
	// for twice within an organization.
	GetByContentHash(ctx context.Context, orgID string, contentHash string) (*model.Resume, error)
	ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]model.Resume, error)
	Update(ctx context.Context, resume model.Resume) (*model.Resume, error)
}

type ResumeStore struct {
	db *gorm.DB
}

// Make sure we conform to Resume interface
var _ Resume = (*ResumeStore)(nil)

func NewResumeStore(db *gorm.DB) Resume {
	return &ResumeStore{db: db}
}

func (s *ResumeStore) Create(ctx context.Context, resume model.Resume) (*model.Resume, error) {
	if result := s.db.WithContext(ctx).Create(&resume); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &resume, nil
}

func (s *ResumeStore) Get(ctx context.Context, id uuid.UUID) (*model.Resume, error) {
	resume := model.Resume{ID: id}
	if result := s.db.WithContext(ctx).First(&resume); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &resume, nil
}

func (s *ResumeStore) GetByContentHash(ctx context.Context, orgID string, contentHash string) (*model.Resume, error) {
	var resume model.Resume
	result := s.db.WithContext(ctx).
		Where("org_id = ? AND content_hash = ?", orgID, contentHash).
		Order("created_at").
		First(&resume)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &resume, nil
}

func (s *ResumeStore) ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]model.Resume, error) {
	var resumes []model.Resume
	result := s.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("created_at").
		Find(&resumes)
	if result.Error != nil {
		return nil, result.Error
	}
	return resumes, nil
}

func (s *ResumeStore) Update(ctx context.Context, resume model.Resume) (*model.Resume, error) {
	result := s.db.WithContext(ctx).Model(&resume).Updates(&resume)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return &resume, nil
}
