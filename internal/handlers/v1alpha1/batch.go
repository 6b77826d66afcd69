package v1alpha1

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	api "github.com/recruitflow/recruitflow/api/v1alpha1"
	"github.com/recruitflow/recruitflow/internal/auth"
	"github.com/recruitflow/recruitflow/internal/ingest"
	"github.com/recruitflow/recruitflow/internal/service"
	"go.uber.org/zap"
)

const (
	maxUploadBytes = 32 << 20 // whole multipart form

	streamInterval = 500 * time.Millisecond
)

// StartBatch accepts a multipart form with one or more "files" parts plus
// the job reference fields, and returns the batch id without waiting for
// processing.
//
// (POST /api/v1alpha1/batches)
func (h *ServiceHandler) StartBatch(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		replyError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to parse multipart form: %v", err))
		return
	}

	job, err := jobFromForm(r)
	if err != nil {
		replyError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	files := []ingest.File{}
	for _, header := range r.MultipartForm.File["files"] {
		f, err := header.Open()
		if err != nil {
			replyError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to open file %q: %v", header.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			replyError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to read file %q: %v", header.Filename, err))
			return
		}
		files = append(files, ingest.File{Name: header.Filename, Data: data})
	}

	reply, err := h.batchSrv.StartBatch(r.Context(), job, files, user.Organization, user.Username)
	if err != nil {
		zap.S().Named("batch_handler").Errorw("failed to start batch", "error", err)
		replyError(w, r, statusOfServiceError(err), err.Error())
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, reply)
}

// GetBatchProgress returns the live progress record of a batch.
//
// (GET /api/v1alpha1/batches/{id})
func (h *ServiceHandler) GetBatchProgress(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		replyError(w, r, http.StatusBadRequest, "invalid batch id")
		return
	}

	progress, err := h.batchSrv.GetProgress(id)
	if err != nil {
		replyError(w, r, statusOfServiceError(err), err.Error())
		return
	}

	render.JSON(w, r, progress)
}

// StreamBatchProgress serves the batch's progress as server-sent events. It
// polls the progress store at a fixed interval, emits a progress event only
// when the processed count moved, and closes after one final complete event
// with the candidates sorted by descending score.
//
// (GET /api/v1alpha1/batches/{id}/stream)
func (h *ServiceHandler) StreamBatchProgress(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		replyError(w, r, http.StatusBadRequest, "invalid batch id")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		replyError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	lastProcessed := -1
	for {
		progress, err := h.batchSrv.GetProgress(id)
		if err != nil {
			// unknown or already evicted
			writeSSE(w, "error", api.Error{Message: err.Error()})
			flusher.Flush()
			return
		}

		if progress.Status != api.BatchStatusProcessing {
			sortCandidatesByScore(progress.Candidates)
			writeSSE(w, "complete", progress)
			flusher.Flush()
			return
		}

		if progress.Processed != lastProcessed {
			writeSSE(w, "progress", progress)
			flusher.Flush()
			lastProcessed = progress.Processed
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func writeSSE(w io.Writer, event string, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, body)
}

// sortCandidatesByScore orders best first; unscored candidates sink to the
// end while keeping their relative order.
func sortCandidatesByScore(candidates []api.CandidateResult) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].Score, candidates[j].Score
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
}

func jobFromForm(r *http.Request) (service.Job, error) {
	jobID, err := uuid.Parse(r.FormValue("jobId"))
	if err != nil {
		return service.Job{}, fmt.Errorf("invalid or missing jobId")
	}

	job := service.Job{
		ID:             jobID,
		Title:          r.FormValue("jobTitle"),
		RequiredSkills: []string{},
	}

	// requiredSkills is either a JSON array or a comma-separated list
	raw := r.FormValue("requiredSkills")
	if raw == "" {
		return job, nil
	}
	if err := json.Unmarshal([]byte(raw), &job.RequiredSkills); err == nil {
		return job, nil
	}
	for _, skill := range strings.Split(raw, ",") {
		if skill = strings.TrimSpace(skill); skill != "" {
			job.RequiredSkills = append(job.RequiredSkills, skill)
		}
	}
	return job, nil
}
