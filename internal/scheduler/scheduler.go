package scheduler

import (
	"context"
	"time"

	jitterbug "github.com/lthibault/jitterbug/v2"
	api "github.com/recruitflow/recruitflow/api/v1alpha1"
	"github.com/recruitflow/recruitflow/internal/service"
	"github.com/recruitflow/recruitflow/internal/store"
	"go.uber.org/zap"
)

// DefaultInterval is intentionally coarse. Auto sync is a polling loop over
// mailboxes and drive folders, not a precision schedule.
const DefaultInterval = time.Hour

const autoSyncUser = "auto-sync"

// Syncer triggers one sync run for an integration.
type Syncer interface {
	Sync(ctx context.Context, req api.SyncRequest, job service.Job, orgID, initiatedBy string) (*api.SyncReply, error)
}

// AutoSyncScheduler periodically re-runs sync for every integration that
// opted into recurring sync.
type AutoSyncScheduler struct {
	store    store.Store
	syncer   Syncer
	interval time.Duration
	log      *zap.SugaredLogger
}

func New(store store.Store, syncer Syncer, interval time.Duration) *AutoSyncScheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &AutoSyncScheduler{
		store:    store,
		syncer:   syncer,
		interval: interval,
		log:      zap.S().Named("auto_sync"),
	}
}

// Run blocks until the context is canceled.
func (s *AutoSyncScheduler) Run(ctx context.Context) {
	ticker := jitterbug.New(s.interval, &jitterbug.Norm{Stdev: 30 * time.Second})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one pass over the opted-in integrations. A failing integration
// is logged and skipped so it cannot starve the others.
func (s *AutoSyncScheduler) Tick(ctx context.Context) {
	integrations, err := s.store.Integration().List(ctx, store.NewIntegrationQueryFilter().ByAutoSync())
	if err != nil {
		s.log.Errorf("failed to list auto-sync integrations: %v", err)
		return
	}

	for _, integration := range integrations {
		if ctx.Err() != nil {
			return
		}

		job := service.Job{ID: integration.JobID, Title: integration.JobTitle}
		if integration.RequiredSkills != nil {
			job.RequiredSkills = integration.RequiredSkills.Data
		}

		reply, err := s.syncer.Sync(ctx, api.SyncRequest{IntegrationID: integration.ID}, job, integration.OrgID, autoSyncUser)
		if err != nil {
			s.log.Errorf("auto sync of integration %s failed: %v", integration.ID, err)
			continue
		}
		if reply.BatchID != nil {
			s.log.Infof("auto sync of integration %s started batch %s over %d files", integration.ID, reply.BatchID, reply.Count)
		}
	}
}
