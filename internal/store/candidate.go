package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/recruitflow/recruitflow/internal/store/model"
	"gorm.io/gorm"
)

type Candidate interface {
	Create(ctx context.Context, candidate model.Candidate) (*model.Candidate, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Candidate, error)
	List(ctx context.Context, filter *CandidateQueryFilter) (model.CandidateList, error)
	Update(ctx context.Context, candidate model.Candidate) (*model.Candidate, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CandidateStore struct {
	db *gorm.DB
}

// Make sure we conform to Candidate interface
var _ Candidate = (*CandidateStore)(nil)

func NewCandidateStore(db *gorm.DB) Candidate {
	return &CandidateStore{db: db}
}

func (s *CandidateStore) Create(ctx context.Context, candidate model.Candidate) (*model.Candidate, error) {
	if result := s.db.WithContext(ctx).Create(&candidate); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &candidate, nil
}

func (s *CandidateStore) Get(ctx context.Context, id uuid.UUID) (*model.Candidate, error) {
	candidate := model.Candidate{ID: id}
	if result := s.db.WithContext(ctx).First(&candidate); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &candidate, nil
}

func (s *CandidateStore) List(ctx context.Context, filter *CandidateQueryFilter) (model.CandidateList, error) {
	var candidates model.CandidateList

	tx := s.db.WithContext(ctx).Model(&model.Candidate{})
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if result := tx.Order("created_at").Find(&candidates); result.Error != nil {
		return nil, result.Error
	}
	return candidates, nil
}

func (s *CandidateStore) Update(ctx context.Context, candidate model.Candidate) (*model.Candidate, error) {
	result := s.db.WithContext(ctx).Model(&candidate).Updates(&candidate)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return &candidate, nil
}

func (s *CandidateStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&model.Candidate{ID: id})
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}
