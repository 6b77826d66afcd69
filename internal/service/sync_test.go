package service_test

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	api "github.com/recruitflow/recruitflow/api/v1alpha1"
	"github.com/recruitflow/recruitflow/internal/config"
	"github.com/recruitflow/recruitflow/internal/ingest"
	"github.com/recruitflow/recruitflow/internal/llm"
	"github.com/recruitflow/recruitflow/internal/progress"
	"github.com/recruitflow/recruitflow/internal/service"
	st "github.com/recruitflow/recruitflow/internal/store"
	"github.com/recruitflow/recruitflow/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/oauth2"
)

type stubSource struct {
	files []ingest.File
	opts  ingest.FetchOptions
}

func (s *stubSource) Fetch(_ context.Context, opts ingest.FetchOptions) ([]ingest.File, error) {
	s.opts = opts
	return s.files, nil
}

var _ = Describe("sync service", Ordered, func() {
	var (
		store    st.Store
		batches  *service.BatchService
		source   *stubSource
		refresh  atomic.Int64
		newToken *oauth2.Token
		svc      *service.SyncService
		seen     struct {
			provider string
			token    *oauth2.Token
		}
	)

	BeforeAll(func() {
		db, err := st.InitDB(config.NewDefault())
		Expect(err).To(BeNil())
		store = st.NewStore(db)
		Expect(store.InitialMigration()).To(Succeed())
	})

	BeforeEach(func() {
		source = &stubSource{}
		refresh.Store(0)
		newToken = &oauth2.Token{
			AccessToken:  "fresh-access",
			RefreshToken: "fresh-refresh",
			Expiry:       time.Now().Add(time.Hour),
		}

		batches = service.NewBatchService(
			store, progress.NewMemoryStore(), &stubObjStore{},
			&stubScorer{result: &llm.ScoreResult{Score: 50, MatchedSkills: []string{}, MissingSkills: []string{}}},
			&stubEmbedder{},
			&stubInfoExtractor{name: "Jane Doe", email: "jane@example.com"},
			nil,
		)
		svc = service.NewSyncService(store, batches, config.NewDefault(),
			service.WithSourceFactory(func(_ context.Context, provider string, token *oauth2.Token) (ingest.Source, error) {
				if provider != model.IntegrationProviderGmail && provider != model.IntegrationProviderDrive {
					return nil, service.NewErrUnsupportedProvider(provider)
				}
				seen.provider = provider
				seen.token = token
				return source, nil
			}),
			service.WithTokenRefresher(func(_ context.Context, _, _, _ string) (*oauth2.Token, error) {
				refresh.Add(1)
				return newToken, nil
			}),
		)
	})

	AfterAll(func() {
		store.Close()
	})

	createIntegration := func(provider string, expiry time.Time) *model.Integration {
		integration, err := store.Integration().Create(context.TODO(), model.Integration{
			ID:           uuid.New(),
			OrgID:        "org-sync",
			Provider:     provider,
			AccessToken:  "stored-access",
			RefreshToken: "stored-refresh",
			TokenExpiry:  expiry,
		})
		Expect(err).To(BeNil())
		return integration
	}

	job := service.Job{ID: uuid.New(), Title: "Backend Engineer", RequiredSkills: []string{"Go"}}

	Context("sync", func() {
		It("returns not found for an unknown integration", func() {
			_, err := svc.Sync(context.TODO(), api.SyncRequest{IntegrationID: uuid.New()}, job, "org-sync", "user-1")
			Expect(err).To(HaveOccurred())
			_, ok := err.(*service.ErrIntegrationNotFound)
			Expect(ok).To(BeTrue(), "expected ErrIntegrationNotFound")
		})

		It("rejects an unsupported provider", func() {
			integration := createIntegration("dropbox", time.Now().Add(time.Hour))

			_, err := svc.Sync(context.TODO(), api.SyncRequest{IntegrationID: integration.ID}, job, "org-sync", "user-1")
			Expect(err).To(HaveOccurred())
			_, ok := err.(*service.ErrUnsupportedProvider)
			Expect(ok).To(BeTrue(), "expected ErrUnsupportedProvider")
		})

		It("returns a null batch id when the source has no files", func() {
			integration := createIntegration(model.IntegrationProviderGmail, time.Now().Add(time.Hour))

			reply, err := svc.Sync(context.TODO(), api.SyncRequest{IntegrationID: integration.ID}, job, "org-sync", "user-1")
			Expect(err).To(BeNil())
			Expect(reply.BatchID).To(BeNil())
			Expect(reply.Count).To(Equal(0))

			// the sync still counts as a sync
			stored, err := store.Integration().Get(context.TODO(), integration.ID)
			Expect(err).To(BeNil())
			Expect(stored.LastSyncAt).NotTo(BeNil())
		})

		It("starts a batch over the fetched files", func() {
			integration := createIntegration(model.IntegrationProviderGmail, time.Now().Add(time.Hour))
			source.files = []ingest.File{
				{Name: "one.pdf", Data: []byte("resume one, synced")},
				{Name: "two.pdf", Data: []byte("resume two, synced")},
			}

			reply, err := svc.Sync(context.TODO(), api.SyncRequest{IntegrationID: integration.ID, Query: "label:applicants"}, job, "org-sync", "user-1")
			Expect(err).To(BeNil())
			Expect(reply.BatchID).NotTo(BeNil())
			Expect(reply.Count).To(Equal(2))
			Expect(source.opts.Query).To(Equal("label:applicants"))

			Eventually(func() api.BatchStatus {
				p, err := batches.GetProgress(*reply.BatchID)
				if err != nil {
					return api.BatchStatusProcessing
				}
				return p.Status
			}, "5s", "10ms").Should(Equal(api.BatchStatusCompleted))
		})

		It("opts the integration into recurring sync after a manual sync", func() {
			integration := createIntegration(model.IntegrationProviderGmail, time.Now().Add(time.Hour))
			Expect(integration.AutoSync).To(BeFalse())

			_, err := svc.Sync(context.TODO(), api.SyncRequest{IntegrationID: integration.ID}, job, "org-sync", "user-1")
			Expect(err).To(BeNil())

			stored, err := store.Integration().Get(context.TODO(), integration.ID)
			Expect(err).To(BeNil())
			Expect(stored.AutoSync).To(BeTrue())

			// the scheduler's eligibility filter now matches it
			list, err := store.Integration().List(context.TODO(), st.NewIntegrationQueryFilter().ByAutoSync())
			Expect(err).To(BeNil())
			ids := make([]uuid.UUID, 0, len(list))
			for _, i := range list {
				ids = append(ids, i.ID)
			}
			Expect(ids).To(ContainElement(integration.ID))
		})

		It("truncates an over-full source to the batch limit", func() {
			integration := createIntegration(model.IntegrationProviderDrive, time.Now().Add(time.Hour))
			source.files = []ingest.File{
				{Name: "one.pdf", Data: []byte("synced resume one")},
				{Name: "two.pdf", Data: []byte("synced resume two")},
				{Name: "three.pdf", Data: []byte("synced resume three")},
			}

			capped := service.NewBatchService(
				store, progress.NewMemoryStore(), &stubObjStore{},
				&stubScorer{result: &llm.ScoreResult{Score: 50, MatchedSkills: []string{}, MissingSkills: []string{}}},
				&stubEmbedder{},
				&stubInfoExtractor{name: "Jane Doe", email: "jane@example.com"},
				nil,
				service.WithMaxBatchFiles(2),
			)
			cappedSvc := service.NewSyncService(store, capped, config.NewDefault(),
				service.WithSourceFactory(func(_ context.Context, _ string, _ *oauth2.Token) (ingest.Source, error) {
					return source, nil
				}),
			)

			reply, err := cappedSvc.Sync(context.TODO(), api.SyncRequest{IntegrationID: integration.ID}, job, "org-sync", "user-1")
			Expect(err).To(BeNil())
			Expect(reply.BatchID).NotTo(BeNil())
			Expect(reply.Count).To(Equal(2))

			Eventually(func() api.BatchStatus {
				p, err := capped.GetProgress(*reply.BatchID)
				if err != nil {
					return api.BatchStatusProcessing
				}
				return p.Status
			}, "5s", "10ms").Should(Equal(api.BatchStatusCompleted))

			p, err := capped.GetProgress(*reply.BatchID)
			Expect(err).To(BeNil())
			Expect(p.Total).To(Equal(2))
		})

		It("reuses a token that is still comfortably valid", func() {
			integration := createIntegration(model.IntegrationProviderGmail, time.Now().Add(time.Hour))

			_, err := svc.Sync(context.TODO(), api.SyncRequest{IntegrationID: integration.ID}, job, "org-sync", "user-1")
			Expect(err).To(BeNil())
			Expect(refresh.Load()).To(Equal(int64(0)))
			Expect(seen.token.AccessToken).To(Equal("stored-access"))
		})

		It("refreshes and persists an expiring token", func() {
			integration := createIntegration(model.IntegrationProviderDrive, time.Now().Add(time.Minute))

			_, err := svc.Sync(context.TODO(), api.SyncRequest{IntegrationID: integration.ID}, job, "org-sync", "user-1")
			Expect(err).To(BeNil())
			Expect(refresh.Load()).To(Equal(int64(1)))
			Expect(seen.provider).To(Equal(model.IntegrationProviderDrive))
			Expect(seen.token.AccessToken).To(Equal("fresh-access"))

			stored, err := store.Integration().Get(context.TODO(), integration.ID)
			Expect(err).To(BeNil())
			Expect(stored.AccessToken).To(Equal("fresh-access"))
			Expect(stored.RefreshToken).To(Equal("fresh-refresh"))
		})

		It("keeps the stored refresh token when the provider omits it", func() {
			integration := createIntegration(model.IntegrationProviderGmail, time.Now().Add(-time.Hour))
			newToken.RefreshToken = ""

			_, err := svc.Sync(context.TODO(), api.SyncRequest{IntegrationID: integration.ID}, job, "org-sync", "user-1")
			Expect(err).To(BeNil())

			stored, err := store.Integration().Get(context.TODO(), integration.ID)
			Expect(err).To(BeNil())
			Expect(stored.AccessToken).To(Equal("fresh-access"))
			Expect(stored.RefreshToken).To(Equal("stored-refresh"))
		})
	})
})
