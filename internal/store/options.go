package store

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type CandidateQueryFilter BaseQuerier

func NewCandidateQueryFilter() *CandidateQueryFilter {
	return &CandidateQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *CandidateQueryFilter) ByOrgID(orgID string) *CandidateQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("org_id = ?", orgID)
	})
	return qf
}

func (qf *CandidateQueryFilter) ByJobID(jobID uuid.UUID) *CandidateQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("job_id = ?", jobID)
	})
	return qf
}

type BatchQueryFilter BaseQuerier

func NewBatchQueryFilter() *BatchQueryFilter {
	return &BatchQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *BatchQueryFilter) ByOrgID(orgID string) *BatchQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("org_id = ?", orgID)
	})
	return qf
}

func (qf *BatchQueryFilter) ByStatus(status string) *BatchQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status = ?", status)
	})
	return qf
}

type IntegrationQueryFilter BaseQuerier

func NewIntegrationQueryFilter() *IntegrationQueryFilter {
	return &IntegrationQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *IntegrationQueryFilter) ByOrgID(orgID string) *IntegrationQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("org_id = ?", orgID)
	})
	return qf
}

func (qf *IntegrationQueryFilter) ByAutoSync() *IntegrationQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("auto_sync = ?", true)
	})
	return qf
}
