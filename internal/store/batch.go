package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/recruitflow/recruitflow/internal/store/model"
	"gorm.io/gorm"
)

type Batch interface {
	Create(ctx context.Context, batch model.Batch) (*model.Batch, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Batch, error)
	List(ctx context.Context, filter *BatchQueryFilter) (model.BatchList, error)
	// UpdateProgress mirrors the live counters into the history row.
	UpdateProgress(ctx context.Context, id uuid.UUID, processedCount int, candidateIDs []uuid.UUID) error
	// Complete records the terminal status and completion time.
	Complete(ctx context.Context, id uuid.UUID, status string, completedAt time.Time) error
}

type BatchStore struct {
	db *gorm.DB
}

// Make sure we conform to Batch interface
var _ Batch = (*BatchStore)(nil)

func NewBatchStore(db *gorm.DB) Batch {
	return &BatchStore{db: db}
}

func (s *BatchStore) Create(ctx context.Context, batch model.Batch) (*model.Batch, error) {
	if result := s.db.WithContext(ctx).Create(&batch); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &batch, nil
}

func (s *BatchStore) Get(ctx context.Context, id uuid.UUID) (*model.Batch, error) {
	batch := model.Batch{ID: id}
	if result := s.db.WithContext(ctx).First(&batch); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &batch, nil
}

func (s *BatchStore) List(ctx context.Context, filter *BatchQueryFilter) (model.BatchList, error) {
	var batches model.BatchList

	tx := s.db.WithContext(ctx).Model(&model.Batch{})
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if result := tx.Order("created_at DESC").Find(&batches); result.Error != nil {
		return nil, result.Error
	}
	return batches, nil
}

func (s *BatchStore) UpdateProgress(ctx context.Context, id uuid.UUID, processedCount int, candidateIDs []uuid.UUID) error {
	batch := model.Batch{ID: id}
	result := s.db.WithContext(ctx).Model(&batch).
		Select("processed_count", "candidate_ids").
		Updates(&model.Batch{
			ProcessedCount: processedCount,
			CandidateIDs:   model.MakeJSONField(candidateIDs),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *BatchStore) Complete(ctx context.Context, id uuid.UUID, status string, completedAt time.Time) error {
	batch := model.Batch{ID: id}
	result := s.db.WithContext(ctx).Model(&batch).
		Select("status", "completed_at").
		Updates(&model.Batch{Status: status, CompletedAt: &completedAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
