package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	api "github.com/recruitflow/recruitflow/api/v1alpha1"
	"github.com/recruitflow/recruitflow/internal/config"
	"github.com/recruitflow/recruitflow/internal/ingest"
	"github.com/recruitflow/recruitflow/internal/store"
	"github.com/recruitflow/recruitflow/internal/store/model"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// SourceFactory builds the ingest source for an integration provider given
// a valid token.
type SourceFactory func(ctx context.Context, provider string, token *oauth2.Token) (ingest.Source, error)

// TokenRefresher exchanges a refresh token for a fresh access token.
type TokenRefresher func(ctx context.Context, clientID, clientSecret, refreshToken string) (*oauth2.Token, error)

func defaultSourceFactory(ctx context.Context, provider string, token *oauth2.Token) (ingest.Source, error) {
	switch provider {
	case model.IntegrationProviderGmail:
		return ingest.NewGmailSource(ctx, token)
	case model.IntegrationProviderDrive:
		return ingest.NewDriveSource(ctx, token)
	default:
		return nil, NewErrUnsupportedProvider(provider)
	}
}

// SyncService pulls resumes from a connected integration and hands them to
// the batch pipeline.
type SyncService struct {
	store   store.Store
	batches *BatchService
	cfg     *config.Config
	sources SourceFactory
	refresh TokenRefresher
	now     func() time.Time
	log     *zap.SugaredLogger
}

type SyncServiceOption func(*SyncService)

// WithSourceFactory overrides how ingest sources are built.
func WithSourceFactory(factory SourceFactory) SyncServiceOption {
	return func(ss *SyncService) {
		ss.sources = factory
	}
}

// WithTokenRefresher overrides the OAuth refresh call.
func WithTokenRefresher(refresh TokenRefresher) SyncServiceOption {
	return func(ss *SyncService) {
		ss.refresh = refresh
	}
}

func NewSyncService(store store.Store, batches *BatchService, cfg *config.Config, opts ...SyncServiceOption) *SyncService {
	ss := &SyncService{
		store:   store,
		batches: batches,
		cfg:     cfg,
		sources: defaultSourceFactory,
		refresh: ingest.RefreshToken,
		now:     time.Now,
		log:     zap.S().Named("sync_service"),
	}
	for _, o := range opts {
		o(ss)
	}
	return ss
}

// Sync fetches resumes from the integration and starts a batch over them.
// When the source has nothing to offer, no batch is started and the reply
// carries a null batch id with a zero count.
func (ss *SyncService) Sync(ctx context.Context, req api.SyncRequest, job Job, orgID, initiatedBy string) (*api.SyncReply, error) {
	integration, err := ss.store.Integration().Get(ctx, req.IntegrationID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrIntegrationNotFound(req.IntegrationID)
		}
		return nil, fmt.Errorf("failed to load integration: %w", err)
	}

	token, err := ss.validToken(ctx, integration)
	if err != nil {
		return nil, err
	}

	source, err := ss.sources(ctx, integration.Provider, token)
	if err != nil {
		return nil, err
	}

	files, err := source.Fetch(ctx, ingest.FetchOptions{Query: req.Query, FolderID: req.FolderID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch files from %s: %w", integration.Provider, err)
	}

	if err := ss.store.Integration().TouchLastSync(ctx, integration.ID, ss.now()); err != nil {
		ss.log.Warnf("failed to record sync time for integration %s: %v", integration.ID, err)
	}
	if err := ss.store.Integration().UpdateJobRef(ctx, integration.ID, job.ID, job.Title, job.RequiredSkills); err != nil {
		ss.log.Warnf("failed to record job reference for integration %s: %v", integration.ID, err)
	}
	if !integration.AutoSync {
		// The first completed manual sync opts the integration into the
		// hourly recurring sync.
		if err := ss.store.Integration().SetAutoSync(ctx, integration.ID, true); err != nil {
			ss.log.Warnf("failed to enable recurring sync for integration %s: %v", integration.ID, err)
		}
	}

	if len(files) == 0 {
		return &api.SyncReply{BatchID: nil, Count: 0}, nil
	}

	if limit := ss.batches.MaxBatchFiles(); len(files) > limit {
		ss.log.Warnf("integration %s yielded %d files, ingesting the first %d", integration.ID, len(files), limit)
		files = files[:limit]
	}

	reply, err := ss.batches.StartBatch(ctx, job, files, orgID, initiatedBy)
	if err != nil {
		return nil, err
	}

	return &api.SyncReply{BatchID: &reply.BatchID, Count: len(files)}, nil
}

// validToken returns an access token good for at least the skew buffer,
// refreshing and persisting it when the stored one is about to expire.
func (ss *SyncService) validToken(ctx context.Context, integration *model.Integration) (*oauth2.Token, error) {
	if !ingest.NeedsRefresh(integration.TokenExpiry, ss.now()) {
		return &oauth2.Token{
			AccessToken:  integration.AccessToken,
			RefreshToken: integration.RefreshToken,
			Expiry:       integration.TokenExpiry,
		}, nil
	}

	token, err := ss.refresh(ctx, ss.cfg.Google.ClientID, ss.cfg.Google.ClientSecret, integration.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token for integration %s: %w", integration.ID, err)
	}

	refreshToken := token.RefreshToken
	if refreshToken == "" {
		// Google routinely omits the refresh token on renewal.
		refreshToken = integration.RefreshToken
		token.RefreshToken = refreshToken
	}
	if err := ss.store.Integration().UpdateTokens(ctx, integration.ID, token.AccessToken, refreshToken, token.Expiry); err != nil {
		ss.log.Warnf("failed to persist refreshed token for integration %s: %v", integration.ID, err)
	}

	return token, nil
}
