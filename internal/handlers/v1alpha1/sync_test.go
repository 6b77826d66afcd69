package v1alpha1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	api "github.com/recruitflow/recruitflow/api/v1alpha1"
	"github.com/recruitflow/recruitflow/internal/service"
	"github.com/stretchr/testify/require"
)

func TestTriggerSync(t *testing.T) {
	batchID := uuid.New()
	sync := &stubSyncService{reply: &api.SyncReply{BatchID: &batchID, Count: 3}}
	router := newRouter(&stubBatchService{}, sync)

	reqBody, err := json.Marshal(api.SyncRequest{
		IntegrationID:  uuid.New(),
		JobID:          uuid.New(),
		JobTitle:       "Backend Engineer",
		RequiredSkills: []string{"Go"},
		Query:          "label:applicants",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1alpha1/sync", bytes.NewReader(reqBody)))

	require.Equal(t, http.StatusOK, rec.Code)
	var reply api.SyncReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	require.NotNil(t, reply.BatchID)
	require.Equal(t, 3, reply.Count)

	require.Equal(t, "label:applicants", sync.req.Query)
	require.Equal(t, "Backend Engineer", sync.job.Title)
	require.Equal(t, []string{"Go"}, sync.job.RequiredSkills)
}

func TestTriggerSyncEmptyResult(t *testing.T) {
	sync := &stubSyncService{reply: &api.SyncReply{BatchID: nil, Count: 0}}
	router := newRouter(&stubBatchService{}, sync)

	reqBody, err := json.Marshal(api.SyncRequest{IntegrationID: uuid.New(), JobID: uuid.New()})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1alpha1/sync", bytes.NewReader(reqBody)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"batchId": null, "count": 0}`, rec.Body.String())
}

func TestTriggerSyncRequiresIntegrationID(t *testing.T) {
	router := newRouter(&stubBatchService{}, &stubSyncService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1alpha1/sync", bytes.NewReader([]byte(`{}`))))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerSyncMapsNotFound(t *testing.T) {
	missing := uuid.New()
	sync := &stubSyncService{err: service.NewErrIntegrationNotFound(missing)}
	router := newRouter(&stubBatchService{}, sync)

	reqBody, err := json.Marshal(api.SyncRequest{IntegrationID: missing, JobID: uuid.New()})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1alpha1/sync", bytes.NewReader(reqBody)))

	require.Equal(t, http.StatusNotFound, rec.Code)
}
