package v1alpha1

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	api "github.com/recruitflow/recruitflow/api/v1alpha1"
	"github.com/recruitflow/recruitflow/internal/auth"
	"github.com/recruitflow/recruitflow/internal/service"
	"go.uber.org/zap"
)

// TriggerSync pulls resumes from an integration and starts a batch over
// them.
//
// (POST /api/v1alpha1/sync)
func (h *ServiceHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	var req api.SyncRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		replyError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.IntegrationID == uuid.Nil {
		replyError(w, r, http.StatusBadRequest, "integrationId is required")
		return
	}

	job := service.Job{ID: req.JobID, Title: req.JobTitle, RequiredSkills: req.RequiredSkills}
	reply, err := h.syncSrv.Sync(r.Context(), req, job, user.Organization, user.Username)
	if err != nil {
		zap.S().Named("sync_handler").Errorw("failed to sync integration", "integration_id", req.IntegrationID, "error", err)
		replyError(w, r, statusOfServiceError(err), err.Error())
		return
	}

	render.JSON(w, r, reply)
}
