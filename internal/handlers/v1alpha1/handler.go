package v1alpha1

import (
	"context"
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	api "github.com/recruitflow/recruitflow/api/v1alpha1"
	"github.com/recruitflow/recruitflow/internal/ingest"
	"github.com/recruitflow/recruitflow/internal/service"
	"github.com/recruitflow/recruitflow/pkg/requestid"
)

// BatchService is the slice of the batch pipeline the HTTP layer needs.
type BatchService interface {
	StartBatch(ctx context.Context, job service.Job, files []ingest.File, orgID, initiatedBy string) (*api.StartBatchReply, error)
	GetProgress(batchID uuid.UUID) (*api.BatchProgress, error)
}

// SyncService triggers integration syncs.
type SyncService interface {
	Sync(ctx context.Context, req api.SyncRequest, job service.Job, orgID, initiatedBy string) (*api.SyncReply, error)
}

type ServiceHandler struct {
	batchSrv BatchService
	syncSrv  SyncService
}

func NewServiceHandler(batchSrv BatchService, syncSrv SyncService) *ServiceHandler {
	return &ServiceHandler{
		batchSrv: batchSrv,
		syncSrv:  syncSrv,
	}
}

func replyError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, api.Error{Message: message, RequestID: requestid.FromContextPtr(r.Context())})
}

func statusOfServiceError(err error) int {
	switch err.(type) {
	case *service.ErrInvalidBatch, *service.ErrUnsupportedProvider:
		return http.StatusBadRequest
	case *service.ErrBatchNotFound, *service.ErrIntegrationNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
