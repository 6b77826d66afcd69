package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/recruitflow/recruitflow/internal/config"
	st "github.com/recruitflow/recruitflow/internal/store"
	"github.com/recruitflow/recruitflow/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Store Suite")
}

var _ = Describe("store", Ordered, func() {
	var (
		s st.Store
	)

	BeforeAll(func() {
		db, err := st.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = st.NewStore(db)
		Expect(s.InitialMigration()).To(BeNil())
	})

	AfterAll(func() {
		_ = s.Close()
	})

	Context("candidate", func() {
		It("creates and reads back a candidate", func() {
			id := uuid.New()
			created, err := s.Candidate().Create(context.TODO(), model.Candidate{
				ID:    id,
				OrgID: "org-1",
				JobID: uuid.New(),
				Name:  "Jane Doe",
			})
			Expect(err).To(BeNil())
			Expect(created.ID).To(Equal(id))

			got, err := s.Candidate().Get(context.TODO(), id)
			Expect(err).To(BeNil())
			Expect(got.Name).To(Equal("Jane Doe"))
		})

		It("returns ErrRecordNotFound for an unknown id", func() {
			_, err := s.Candidate().Get(context.TODO(), uuid.New())
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})

		It("lists candidates scoped by organization", func() {
			jobID := uuid.New()
			_, err := s.Candidate().Create(context.TODO(), model.Candidate{ID: uuid.New(), OrgID: "org-list", JobID: jobID, Name: "A"})
			Expect(err).To(BeNil())
			_, err = s.Candidate().Create(context.TODO(), model.Candidate{ID: uuid.New(), OrgID: "org-list", JobID: jobID, Name: "B"})
			Expect(err).To(BeNil())

			candidates, err := s.Candidate().List(context.TODO(), st.NewCandidateQueryFilter().ByOrgID("org-list"))
			Expect(err).To(BeNil())
			Expect(candidates).To(HaveLen(2))
		})
	})

	Context("resume dedupe lookup", func() {
		It("finds a resume by (org, content hash)", func() {
			candidate, err := s.Candidate().Create(context.TODO(), model.Candidate{ID: uuid.New(), OrgID: "org-2", JobID: uuid.New(), Name: "C"})
			Expect(err).To(BeNil())

			score := 80
			_, err = s.Resume().Create(context.TODO(), model.Resume{
				ID:          uuid.New(),
				CandidateID: candidate.ID,
				OrgID:       "org-2",
				ContentHash: "abc123",
				AiScore:     &score,
				ParsedSkills: model.MakeJSONField(model.ParsedSkills{
					MatchedSkills: []string{"Go"},
					MissingSkills: []string{"React"},
					Reason:        "strong backend profile",
				}),
			})
			Expect(err).To(BeNil())

			found, err := s.Resume().GetByContentHash(context.TODO(), "org-2", "abc123")
			Expect(err).To(BeNil())
			Expect(*found.AiScore).To(Equal(80))
			Expect(found.ParsedSkills.Data.MatchedSkills).To(Equal([]string{"Go"}))
		})

		It("does not cross organization boundaries", func() {
			_, err := s.Resume().GetByContentHash(context.TODO(), "another-org", "abc123")
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})
	})

	Context("batch history", func() {
		It("mirrors progress counters", func() {
			id := uuid.New()
			_, err := s.Batch().Create(context.TODO(), model.Batch{
				ID:         id,
				JobID:      uuid.New(),
				OrgID:      "org-3",
				TotalFiles: 3,
				Status:     "processing",
			})
			Expect(err).To(BeNil())

			candidateIDs := []uuid.UUID{uuid.New(), uuid.New()}
			Expect(s.Batch().UpdateProgress(context.TODO(), id, 2, candidateIDs)).To(BeNil())

			got, err := s.Batch().Get(context.TODO(), id)
			Expect(err).To(BeNil())
			Expect(got.ProcessedCount).To(Equal(2))
			Expect(got.CandidateIDs.Data).To(HaveLen(2))
		})

		It("records terminal status with completion time", func() {
			id := uuid.New()
			_, err := s.Batch().Create(context.TODO(), model.Batch{ID: id, JobID: uuid.New(), OrgID: "org-3", TotalFiles: 1, Status: "processing"})
			Expect(err).To(BeNil())

			now := time.Now()
			Expect(s.Batch().Complete(context.TODO(), id, "completed", now)).To(BeNil())

			got, err := s.Batch().Get(context.TODO(), id)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal("completed"))
			Expect(got.CompletedAt).ToNot(BeNil())
		})
	})

	Context("integration", func() {
		It("persists refreshed tokens", func() {
			id := uuid.New()
			_, err := s.Integration().Create(context.TODO(), model.Integration{
				ID:       id,
				OrgID:    "org-4",
				Provider: model.IntegrationProviderGmail,
			})
			Expect(err).To(BeNil())

			expiry := time.Now().Add(time.Hour)
			Expect(s.Integration().UpdateTokens(context.TODO(), id, "new-access", "new-refresh", expiry)).To(BeNil())

			got, err := s.Integration().Get(context.TODO(), id)
			Expect(err).To(BeNil())
			Expect(got.AccessToken).To(Equal("new-access"))
		})

		It("records the job of the last sync", func() {
			id := uuid.New()
			_, err := s.Integration().Create(context.TODO(), model.Integration{
				ID:       id,
				OrgID:    "org-4",
				Provider: model.IntegrationProviderGmail,
			})
			Expect(err).To(BeNil())

			jobID := uuid.New()
			Expect(s.Integration().UpdateJobRef(context.TODO(), id, jobID, "Data Engineer", []string{"Python", "SQL"})).To(BeNil())

			got, err := s.Integration().Get(context.TODO(), id)
			Expect(err).To(BeNil())
			Expect(got.JobID).To(Equal(jobID))
			Expect(got.JobTitle).To(Equal("Data Engineer"))
			Expect(got.RequiredSkills.Data).To(Equal([]string{"Python", "SQL"}))
		})

		It("lists only auto-sync integrations", func() {
			_, err := s.Integration().Create(context.TODO(), model.Integration{ID: uuid.New(), OrgID: "org-5", Provider: model.IntegrationProviderDrive, AutoSync: true})
			Expect(err).To(BeNil())
			_, err = s.Integration().Create(context.TODO(), model.Integration{ID: uuid.New(), OrgID: "org-5", Provider: model.IntegrationProviderDrive})
			Expect(err).To(BeNil())

			list, err := s.Integration().List(context.TODO(), st.NewIntegrationQueryFilter().ByOrgID("org-5").ByAutoSync())
			Expect(err).To(BeNil())
			Expect(list).To(HaveLen(1))
			Expect(list[0].AutoSync).To(BeTrue())
		})
	})
})
