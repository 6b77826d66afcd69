package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/recruitflow/recruitflow/internal/store/model"
	"gorm.io/gorm"
)

type Integration interface {
	Create(ctx context.Context, integration model.Integration) (*model.Integration, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Integration, error)
	List(ctx context.Context, filter *IntegrationQueryFilter) (model.IntegrationList, error)
	// UpdateTokens persists a refreshed credential set before it is used.
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiry time.Time) error
	SetAutoSync(ctx context.Context, id uuid.UUID, enabled bool) error
	TouchLastSync(ctx context.Context, id uuid.UUID, at time.Time) error
	// UpdateJobRef records the job the integration last synced against, which
	// the recurring sync reuses.
	UpdateJobRef(ctx context.Context, id uuid.UUID, jobID uuid.UUID, jobTitle string, requiredSkills []string) error
}

type IntegrationStore struct {
	db *gorm.DB
}

// Make sure we conform to Integration interface
var _ Integration = (*IntegrationStore)(nil)

func NewIntegrationStore(db *gorm.DB) Integration {
	return &IntegrationStore{db: db}
}

func (s *IntegrationStore) Create(ctx context.Context, integration model.Integration) (*model.Integration, error) {
	if result := s.db.WithContext(ctx).Create(&integration); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &integration, nil
}

func (s *IntegrationStore) Get(ctx context.Context, id uuid.UUID) (*model.Integration, error) {
	integration := model.Integration{ID: id}
	if result := s.db.WithContext(ctx).First(&integration); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &integration, nil
}

func (s *IntegrationStore) List(ctx context.Context, filter *IntegrationQueryFilter) (model.IntegrationList, error) {
	var integrations model.IntegrationList

	tx := s.db.WithContext(ctx).Model(&model.Integration{})
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if result := tx.Order("created_at").Find(&integrations); result.Error != nil {
		return nil, result.Error
	}
	return integrations, nil
}

func (s *IntegrationStore) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiry time.Time) error {
	result := s.db.WithContext(ctx).Model(&model.Integration{ID: id}).
		Select("access_token", "refresh_token", "token_expiry").
		Updates(&model.Integration{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenExpiry:  expiry,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *IntegrationStore) SetAutoSync(ctx context.Context, id uuid.UUID, enabled bool) error {
	result := s.db.WithContext(ctx).Model(&model.Integration{ID: id}).
		Select("auto_sync").
		Updates(map[string]any{"auto_sync": enabled})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *IntegrationStore) UpdateJobRef(ctx context.Context, id uuid.UUID, jobID uuid.UUID, jobTitle string, requiredSkills []string) error {
	result := s.db.WithContext(ctx).Model(&model.Integration{ID: id}).
		Select("job_id", "job_title", "required_skills").
		Updates(&model.Integration{
			JobID:          jobID,
			JobTitle:       jobTitle,
			RequiredSkills: model.MakeJSONField(requiredSkills),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *IntegrationStore) TouchLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&model.Integration{ID: id}).
		Select("last_sync_at").
		Updates(&model.Integration{LastSyncAt: &at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
