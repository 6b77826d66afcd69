package store

import (
	"github.com/recruitflow/recruitflow/internal/store/model"
	"gorm.io/gorm"
)

type Store interface {
	Candidate() Candidate
	Resume() Resume
	Batch() Batch
	Integration() Integration
	InitialMigration() error
	Close() error
}

type DataStore struct {
	db          *gorm.DB
	candidate   Candidate
	resume      Resume
	batch       Batch
	integration Integration
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:          db,
		candidate:   NewCandidateStore(db),
		resume:      NewResumeStore(db),
		batch:       NewBatchStore(db),
		integration: NewIntegrationStore(db),
	}
}

func (s *DataStore) Candidate() Candidate {
	return s.candidate
}

func (s *DataStore) Resume() Resume {
	return s.resume
}

func (s *DataStore) Batch() Batch {
	return s.batch
}

func (s *DataStore) Integration() Integration {
	return s.integration
}

func (s *DataStore) InitialMigration() error {
	return s.db.AutoMigrate(
		&model.Candidate{},
		&model.Resume{},
		&model.Batch{},
		&model.Integration{},
	)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
