package v1alpha1

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
	api "github.com/recruitflow/recruitflow/api/v1alpha1"
)

// (GET /health)
func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.Health{Status: "ok", Time: time.Now().UTC()})
}
