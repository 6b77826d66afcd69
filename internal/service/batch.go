package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	api "github.com/recruitflow/recruitflow/api/v1alpha1"
	"github.com/recruitflow/recruitflow/internal/events"
	"github.com/recruitflow/recruitflow/internal/extraction"
	"github.com/recruitflow/recruitflow/internal/ingest"
	"github.com/recruitflow/recruitflow/internal/llm"
	"github.com/recruitflow/recruitflow/internal/objstore"
	"github.com/recruitflow/recruitflow/internal/progress"
	"github.com/recruitflow/recruitflow/internal/store"
	"github.com/recruitflow/recruitflow/internal/store/model"
	"github.com/recruitflow/recruitflow/pkg/metrics"
	"go.uber.org/zap"
)

const DefaultMaxBatchFiles = 20

// Job carries what the pipeline needs to know about the position a batch is
// scored against.
type Job struct {
	ID             uuid.UUID
	Title          string
	RequiredSkills []string
}

// TextExtractor converts an uploaded file into plain text.
type TextExtractor func(filename string, data []byte) (string, error)

// InfoExtractor pulls structured candidate contact data out of resume text.
type InfoExtractor interface {
	Extract(ctx context.Context, resumeText string) extraction.Info
}

// Scorer rates a resume against a job's required skills.
type Scorer interface {
	Score(ctx context.Context, jobRole string, requiredSkills []string, resumeText string) (*llm.ScoreResult, error)
}

// BatchService runs the ingestion pipeline. StartBatch registers a batch and
// returns immediately; a background worker then processes the files strictly
// one at a time, so external model and storage calls are naturally rate
// limited and per-index progress state stays deterministic.
type BatchService struct {
	store    store.Store
	progress progress.Store
	objects  objstore.Store
	scorer   Scorer
	embedder llm.Embedder
	info     InfoExtractor
	events   *events.EventProducer
	extract  TextExtractor
	maxFiles int
	runCtx   context.Context
	log      *zap.SugaredLogger
}

type BatchServiceOption func(*BatchService)

// WithTextExtractor overrides the file-to-text conversion step.
func WithTextExtractor(extract TextExtractor) BatchServiceOption {
	return func(bs *BatchService) {
		bs.extract = extract
	}
}

// WithMaxBatchFiles overrides the per-batch file limit.
func WithMaxBatchFiles(limit int) BatchServiceOption {
	return func(bs *BatchService) {
		bs.maxFiles = limit
	}
}

// MaxBatchFiles reports the per-batch file limit. Callers that collect
// files on the user's behalf truncate to it before starting a batch.
func (bs *BatchService) MaxBatchFiles() int {
	return bs.maxFiles
}

// WithRunContext sets the context batch workers run under. Workers are
// detached from the request that started them; this ties their lifetime to
// the process instead, so shutdown stops a batch between files.
func WithRunContext(ctx context.Context) BatchServiceOption {
	return func(bs *BatchService) {
		bs.runCtx = ctx
	}
}

func NewBatchService(
	store store.Store,
	progressStore progress.Store,
	objects objstore.Store,
	scorer Scorer,
	embedder llm.Embedder,
	info InfoExtractor,
	producer *events.EventProducer,
	opts ...BatchServiceOption,
) *BatchService {
	bs := &BatchService{
		store:    store,
		progress: progressStore,
		objects:  objects,
		scorer:   scorer,
		embedder: embedder,
		info:     info,
		events:   producer,
		extract:  extraction.ExtractText,
		maxFiles: DefaultMaxBatchFiles,
		runCtx:   context.Background(),
		log:      zap.S().Named("batch_service"),
	}
	for _, o := range opts {
		o(bs)
	}
	return bs
}

// StartBatch registers a new batch and schedules its worker. It returns as
// soon as the progress record exists; callers observe the run through
// GetProgress or the streaming endpoint.
func (bs *BatchService) StartBatch(ctx context.Context, job Job, files []ingest.File, orgID, initiatedBy string) (*api.StartBatchReply, error) {
	if len(files) == 0 {
		return nil, NewErrEmptyBatch()
	}
	if len(files) > bs.maxFiles {
		return nil, NewErrBatchTooLarge(len(files), bs.maxFiles)
	}

	batchID := uuid.New()
	now := time.Now()

	record := &progress.Batch{
		ID:          batchID,
		JobID:       job.ID,
		OrgID:       orgID,
		InitiatedBy: initiatedBy,
		Total:       len(files),
		Status:      api.BatchStatusProcessing,
		Candidates:  make([]api.CandidateResult, len(files)),
		CreatedAt:   now,
	}
	for i, f := range files {
		record.Candidates[i] = api.CandidateResult{
			Index:         i,
			Name:          nameFromFilename(f.Name),
			MatchedSkills: []string{},
			MissingSkills: []string{},
			Status:        api.CandidateStatusPending,
		}
	}
	bs.progress.Set(record)

	// History mirror. The in-memory record is authoritative for live
	// progress, so a missing or unreachable history table is tolerated.
	if _, err := bs.store.Batch().Create(ctx, model.Batch{
		ID:           batchID,
		JobID:        job.ID,
		OrgID:        orgID,
		InitiatedBy:  initiatedBy,
		TotalFiles:   len(files),
		Status:       string(api.BatchStatusProcessing),
		CandidateIDs: model.MakeJSONField([]uuid.UUID{}),
		CreatedAt:    now,
	}); err != nil {
		bs.log.Warnf("failed to persist history row for batch %s: %v", batchID, err)
	}

	metrics.IncreaseBatchesStartedMetric()
	bs.emitEvent(events.BatchStartedKind, record)

	go bs.run(bs.runCtx, record, job, files)

	return &api.StartBatchReply{BatchID: batchID, TotalFiles: len(files)}, nil
}

// GetProgress reads the live progress of a batch.
func (bs *BatchService) GetProgress(batchID uuid.UUID) (*api.BatchProgress, error) {
	record, ok := bs.progress.Get(batchID)
	if !ok {
		return nil, NewErrBatchNotFound(batchID)
	}
	return toAPIProgress(record), nil
}

// run is the per-batch worker. It owns the progress record: every mutation
// goes through it and is published with a Set.
func (bs *BatchService) run(ctx context.Context, record *progress.Batch, job Job, files []ingest.File) {
	defer func() {
		if r := recover(); r != nil {
			bs.log.Errorf("worker for batch %s panicked: %v", record.ID, r)
			bs.finish(record, api.BatchStatusFailed)
		}
	}()

	candidateIDs := []uuid.UUID{}
	for i, file := range files {
		if ctx.Err() != nil {
			bs.log.Warnf("batch %s canceled after %d/%d files", record.ID, record.Processed, record.Total)
			bs.finish(record, api.BatchStatusFailed)
			return
		}

		result, candidateID, err := bs.processResume(ctx, record, i, file, job)
		if err != nil {
			bs.log.Errorf("batch %s file %q failed: %v", record.ID, file.Name, err)
			msg := err.Error()
			result = &api.CandidateResult{
				Index:         i,
				Name:          record.Candidates[i].Name,
				MatchedSkills: []string{},
				MissingSkills: []string{},
				Status:        api.CandidateStatusFailed,
				Error:         &msg,
			}
			metrics.IncreaseResumesProcessedMetric("failed")
		}
		record.Candidates[i] = *result
		if candidateID != nil {
			candidateIDs = append(candidateIDs, *candidateID)
		}
		record.Processed++
		bs.progress.Set(record)

		if err := bs.store.Batch().UpdateProgress(ctx, record.ID, record.Processed, candidateIDs); err != nil {
			bs.log.Warnf("failed to mirror progress of batch %s: %v", record.ID, err)
		}
	}

	bs.finish(record, api.BatchStatusCompleted)
}

// processResume runs the per-file pipeline. Any error is an item-level
// failure: the caller records it on the slot and moves on.
func (bs *BatchService) processResume(ctx context.Context, record *progress.Batch, index int, file ingest.File, job Job) (*api.CandidateResult, *uuid.UUID, error) {
	contentHash := extraction.Fingerprint(file.Data)

	existing, err := bs.store.Resume().GetByContentHash(ctx, record.OrgID, contentHash)
	if err == nil {
		return bs.dedupedResult(ctx, index, existing)
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to check content hash: %w", err)
	}

	record.Candidates[index].Status = api.CandidateStatusProcessing
	bs.progress.Set(record)

	text, err := bs.extract(file.Name, file.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract text: %w", err)
	}

	info := bs.info.Extract(ctx, text)

	candidate, err := bs.store.Candidate().Create(ctx, model.Candidate{
		ID:        uuid.New(),
		OrgID:     record.OrgID,
		JobID:     job.ID,
		Name:      info.Name,
		Email:     info.Email,
		CreatedBy: record.InitiatedBy,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create candidate: %w", err)
	}

	path := fmt.Sprintf("%s/%s/%d_%s", record.OrgID, record.ID, index, file.Name)
	fileURL, err := bs.objects.Put(ctx, path, file.Data, contentTypeOf(file.Name))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to upload file: %w", err)
	}

	result := &api.CandidateResult{
		Index:         index,
		Name:          info.Name,
		Email:         info.Email,
		MatchedSkills: []string{},
		MissingSkills: []string{},
		Status:        api.CandidateStatusCompleted,
	}

	resume := model.Resume{
		ID:            uuid.New(),
		CandidateID:   candidate.ID,
		OrgID:         record.OrgID,
		ContentHash:   contentHash,
		ExtractedText: text,
		FileURL:       fileURL,
	}

	// Scoring is skipped when the job defines no required skills; the
	// candidate is still ingested, just unscored.
	if len(job.RequiredSkills) > 0 {
		score, err := bs.scorer.Score(ctx, job.Title, job.RequiredSkills, text)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to score resume: %w", err)
		}
		result.Score = &score.Score
		result.MatchedSkills = score.MatchedSkills
		result.MissingSkills = score.MissingSkills
		result.Reason = score.Reason

		resume.AiScore = &score.Score
		resume.ParsedSkills = model.MakeJSONField(model.ParsedSkills{
			MatchedSkills: score.MatchedSkills,
			MissingSkills: score.MissingSkills,
			Reason:        score.Reason,
		})
	}

	embedding, err := bs.embedder.Embed(ctx, text)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to embed resume: %w", err)
	}
	resume.Embedding = model.MakeJSONField(embedding)

	if _, err := bs.store.Resume().Create(ctx, resume); err != nil {
		return nil, nil, fmt.Errorf("failed to persist resume: %w", err)
	}

	metrics.IncreaseResumesProcessedMetric("completed")
	return result, &candidate.ID, nil
}

// dedupedResult synthesizes a completed slot from a previously analyzed
// resume. The expensive extraction, scoring and embedding steps are skipped
// entirely.
func (bs *BatchService) dedupedResult(ctx context.Context, index int, existing *model.Resume) (*api.CandidateResult, *uuid.UUID, error) {
	result := &api.CandidateResult{
		Index:         index,
		Name:          extraction.UnknownCandidate,
		MatchedSkills: []string{},
		MissingSkills: []string{},
		Reason:        "Previously analyzed",
		Status:        api.CandidateStatusCompleted,
	}

	if candidate, err := bs.store.Candidate().Get(ctx, existing.CandidateID); err == nil {
		result.Name = candidate.Name
		result.Email = candidate.Email
	}
	result.Score = existing.AiScore
	if existing.ParsedSkills != nil {
		result.MatchedSkills = existing.ParsedSkills.Data.MatchedSkills
		result.MissingSkills = existing.ParsedSkills.Data.MissingSkills
	}

	metrics.IncreaseResumesProcessedMetric("deduped")
	return result, &existing.CandidateID, nil
}

func (bs *BatchService) finish(record *progress.Batch, status api.BatchStatus) {
	now := time.Now()
	record.Status = status
	record.CompletedAt = &now
	bs.progress.Set(record)
	bs.progress.ScheduleEviction(record.ID)

	// The run context may already be canceled when shutdown stopped the
	// batch; the completion mirror should still be attempted.
	if err := bs.store.Batch().Complete(context.WithoutCancel(bs.runCtx), record.ID, string(status), now); err != nil {
		bs.log.Warnf("failed to mirror completion of batch %s: %v", record.ID, err)
	}

	metrics.IncreaseBatchesFinishedMetric(string(status))
	kind := events.BatchCompletedKind
	if status == api.BatchStatusFailed {
		kind = events.BatchFailedKind
	}
	bs.emitEvent(kind, record)
}

func (bs *BatchService) emitEvent(kind string, record *progress.Batch) {
	if bs.events == nil {
		return
	}
	body, err := json.Marshal(events.BatchEvent{
		BatchID:   record.ID,
		JobID:     record.JobID,
		OrgID:     record.OrgID,
		Status:    string(record.Status),
		Total:     record.Total,
		Processed: record.Processed,
	})
	if err != nil {
		return
	}
	if err := bs.events.Write(context.Background(), kind, bytes.NewReader(body)); err != nil {
		bs.log.Warnf("failed to emit %s event for batch %s: %v", kind, record.ID, err)
	}
}

func toAPIProgress(record *progress.Batch) *api.BatchProgress {
	return &api.BatchProgress{
		BatchID:    record.ID,
		Processed:  record.Processed,
		Total:      record.Total,
		Status:     record.Status,
		Candidates: record.Candidates,
	}
}

// nameFromFilename derives the initial slot name shown before extraction has
// run, e.g. "jane_doe-resume.pdf" becomes "jane doe resume".
func nameFromFilename(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.Join(strings.Fields(base), " ")
}

func contentTypeOf(filename string) string {
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return "application/pdf"
	}
	return "text/plain"
}
