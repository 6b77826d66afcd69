package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrBatchNotFound struct {
	error
}

func NewErrBatchNotFound(id uuid.UUID) *ErrBatchNotFound {
	return &ErrBatchNotFound{fmt.Errorf("batch %s not found", id)}
}

type ErrIntegrationNotFound struct {
	error
}

func NewErrIntegrationNotFound(id uuid.UUID) *ErrIntegrationNotFound {
	return &ErrIntegrationNotFound{fmt.Errorf("integration %s not found", id)}
}

type ErrInvalidBatch struct {
	error
}

func NewErrEmptyBatch() *ErrInvalidBatch {
	return &ErrInvalidBatch{fmt.Errorf("batch must contain at least one file")}
}

func NewErrBatchTooLarge(count, limit int) *ErrInvalidBatch {
	return &ErrInvalidBatch{fmt.Errorf("batch of %d files exceeds the limit of %d", count, limit)}
}

type ErrUnsupportedProvider struct {
	error
}

func NewErrUnsupportedProvider(provider string) *ErrUnsupportedProvider {
	return &ErrUnsupportedProvider{fmt.Errorf("unsupported integration provider %q", provider)}
}
