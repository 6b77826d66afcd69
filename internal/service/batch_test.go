package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	api "github.com/recruitflow/recruitflow/api/v1alpha1"
	"github.com/recruitflow/recruitflow/internal/config"
	"github.com/recruitflow/recruitflow/internal/extraction"
	"github.com/recruitflow/recruitflow/internal/ingest"
	"github.com/recruitflow/recruitflow/internal/llm"
	"github.com/recruitflow/recruitflow/internal/progress"
	"github.com/recruitflow/recruitflow/internal/service"
	st "github.com/recruitflow/recruitflow/internal/store"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Service Suite")
}

type stubScorer struct {
	calls  atomic.Int64
	result *llm.ScoreResult
	err    error
}

func (s *stubScorer) Score(_ context.Context, _ string, _ []string, _ string) (*llm.ScoreResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubEmbedder struct {
	calls atomic.Int64
	err   error
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type stubInfoExtractor struct {
	name  string
	email string
}

func (s *stubInfoExtractor) Extract(_ context.Context, _ string) extraction.Info {
	email := s.email
	return extraction.Info{Name: s.name, Email: &email}
}

type stubObjStore struct {
	puts   atomic.Int64
	putErr error
}

func (s *stubObjStore) Put(_ context.Context, path string, _ []byte, _ string) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	s.puts.Add(1)
	return "http://localhost:9000/resumes/" + path, nil
}

func (s *stubObjStore) Delete(_ context.Context, _ string) error { return nil }

func (s *stubObjStore) PublicURL(path string) string {
	return "http://localhost:9000/resumes/" + path
}

var _ = Describe("batch service", Ordered, func() {
	var (
		store    st.Store
		prog     *progress.MemoryStore
		scorer   *stubScorer
		embedder *stubEmbedder
		objects  *stubObjStore
		svc      *service.BatchService
		job      service.Job
	)

	BeforeAll(func() {
		db, err := st.InitDB(config.NewDefault())
		Expect(err).To(BeNil())
		store = st.NewStore(db)
		Expect(store.InitialMigration()).To(Succeed())
	})

	BeforeEach(func() {
		prog = progress.NewMemoryStore()
		scorer = &stubScorer{result: &llm.ScoreResult{
			Score:         80,
			MatchedSkills: []string{"React"},
			MissingSkills: []string{"Node"},
			Reason:        "1 of 2 required skills matched",
		}}
		embedder = &stubEmbedder{}
		objects = &stubObjStore{}
		svc = service.NewBatchService(
			store, prog, objects, scorer, embedder,
			&stubInfoExtractor{name: "Jane Doe", email: "jane@example.com"},
			nil,
		)
		job = service.Job{ID: uuid.New(), Title: "Frontend Engineer", RequiredSkills: []string{"React", "Node"}}
	})

	AfterAll(func() {
		store.Close()
	})

	waitForTerminal := func(batchID uuid.UUID) *api.BatchProgress {
		var last *api.BatchProgress
		Eventually(func() api.BatchStatus {
			p, err := svc.GetProgress(batchID)
			if err != nil {
				return api.BatchStatusProcessing
			}
			last = p
			return p.Status
		}, "5s", "10ms").ShouldNot(Equal(api.BatchStatusProcessing))
		return last
	}

	Context("start batch", func() {
		It("rejects an empty file list", func() {
			_, err := svc.StartBatch(context.TODO(), job, nil, "org-batch", "user-1")
			Expect(err).To(HaveOccurred())
			_, ok := err.(*service.ErrInvalidBatch)
			Expect(ok).To(BeTrue(), "expected ErrInvalidBatch")
		})

		It("rejects a batch above the file limit", func() {
			limited := service.NewBatchService(
				store, prog, objects, scorer, embedder,
				&stubInfoExtractor{name: "Jane Doe", email: "jane@example.com"},
				nil,
				service.WithMaxBatchFiles(2),
			)
			files := []ingest.File{
				{Name: "a.txt", Data: []byte("a")},
				{Name: "b.txt", Data: []byte("b")},
				{Name: "c.txt", Data: []byte("c")},
			}
			_, err := limited.StartBatch(context.TODO(), job, files, "org-batch", "user-1")
			Expect(err).To(HaveOccurred())
			_, ok := err.(*service.ErrInvalidBatch)
			Expect(ok).To(BeTrue(), "expected ErrInvalidBatch")
		})

		It("registers progress immediately and completes in the background", func() {
			files := []ingest.File{{Name: "jane_doe-resume.txt", Data: []byte("Jane Doe\njane@example.com\nReact developer")}}

			reply, err := svc.StartBatch(context.TODO(), job, files, "org-single", "user-1")
			Expect(err).To(BeNil())
			Expect(reply.TotalFiles).To(Equal(1))

			p, err := svc.GetProgress(reply.BatchID)
			Expect(err).To(BeNil())
			Expect(p.Total).To(Equal(1))
			Expect(p.Candidates).To(HaveLen(1))
			Expect(p.Candidates[0].Name).To(Equal("jane doe resume"))

			final := waitForTerminal(reply.BatchID)
			Expect(final.Status).To(Equal(api.BatchStatusCompleted))
			Expect(final.Processed).To(Equal(1))
			Expect(final.Candidates[0].Status).To(Equal(api.CandidateStatusCompleted))
			Expect(final.Candidates[0].Name).To(Equal("Jane Doe"))
			Expect(*final.Candidates[0].Score).To(Equal(80))
			Expect(final.Candidates[0].MatchedSkills).To(Equal([]string{"React"}))

			candidates, err := store.Candidate().List(context.TODO(), st.NewCandidateQueryFilter().ByOrgID("org-single"))
			Expect(err).To(BeNil())
			Expect(candidates).To(HaveLen(1))

			resumes, err := store.Resume().ListByCandidate(context.TODO(), candidates[0].ID)
			Expect(err).To(BeNil())
			Expect(resumes).To(HaveLen(1))
			Expect(*resumes[0].AiScore).To(Equal(80))
			Expect(resumes[0].ContentHash).To(HaveLen(64))
			Expect(resumes[0].Embedding).NotTo(BeNil())
		})

		It("skips scoring and embedding on a dedupe hit", func() {
			data := []byte("Jane Doe\njane@example.com\nReact developer, identical bytes")
			org := "org-dedupe"

			first, err := svc.StartBatch(context.TODO(), job, []ingest.File{{Name: "first.txt", Data: data}}, org, "user-1")
			Expect(err).To(BeNil())
			waitForTerminal(first.BatchID)

			second, err := svc.StartBatch(context.TODO(), job, []ingest.File{{Name: "second.txt", Data: data}}, org, "user-1")
			Expect(err).To(BeNil())
			final := waitForTerminal(second.BatchID)

			Expect(final.Status).To(Equal(api.BatchStatusCompleted))
			Expect(final.Candidates[0].Status).To(Equal(api.CandidateStatusCompleted))
			Expect(final.Candidates[0].Reason).To(Equal("Previously analyzed"))
			Expect(final.Candidates[0].Name).To(Equal("Jane Doe"))
			Expect(*final.Candidates[0].Score).To(Equal(80))

			// one candidate/resume pair, one scoring and one embedding call
			candidates, err := store.Candidate().List(context.TODO(), st.NewCandidateQueryFilter().ByOrgID(org))
			Expect(err).To(BeNil())
			Expect(candidates).To(HaveLen(1))
			Expect(scorer.calls.Load()).To(Equal(int64(1)))
			Expect(embedder.calls.Load()).To(Equal(int64(1)))
		})

		It("isolates a failing file from the rest of the batch", func() {
			failing := func(filename string, data []byte) (string, error) {
				if filename == "broken.txt" {
					return "", fmt.Errorf("scrambled bytes")
				}
				return string(data), nil
			}
			svc := service.NewBatchService(
				store, prog, objects, scorer, embedder,
				&stubInfoExtractor{name: "Jane Doe", email: "jane@example.com"},
				nil,
				service.WithTextExtractor(failing),
			)

			files := []ingest.File{
				{Name: "ok-one.txt", Data: []byte("first resume")},
				{Name: "broken.txt", Data: []byte("second resume")},
				{Name: "ok-two.txt", Data: []byte("third resume")},
			}
			reply, err := svc.StartBatch(context.TODO(), job, files, "org-partial", "user-1")
			Expect(err).To(BeNil())

			final := waitForTerminal(reply.BatchID)
			Expect(final.Status).To(Equal(api.BatchStatusCompleted))
			Expect(final.Processed).To(Equal(3))
			Expect(final.Candidates[0].Status).To(Equal(api.CandidateStatusCompleted))
			Expect(final.Candidates[1].Status).To(Equal(api.CandidateStatusFailed))
			Expect(*final.Candidates[1].Error).To(ContainSubstring("scrambled bytes"))
			Expect(final.Candidates[2].Status).To(Equal(api.CandidateStatusCompleted))
		})

		It("marks the slot failed when scoring fails", func() {
			scorer.err = errors.New("all providers exhausted")

			reply, err := svc.StartBatch(context.TODO(), job, []ingest.File{{Name: "a.txt", Data: []byte("unscorable resume")}}, "org-score-fail", "user-1")
			Expect(err).To(BeNil())

			final := waitForTerminal(reply.BatchID)
			Expect(final.Status).To(Equal(api.BatchStatusCompleted))
			Expect(final.Candidates[0].Status).To(Equal(api.CandidateStatusFailed))
			Expect(*final.Candidates[0].Error).To(ContainSubstring("all providers exhausted"))
		})

		It("keeps the processed count monotonic and the slots index-aligned", func() {
			slow := func(_ string, data []byte) (string, error) {
				time.Sleep(20 * time.Millisecond)
				return string(data), nil
			}
			svc := service.NewBatchService(
				store, prog, objects, scorer, embedder,
				&stubInfoExtractor{name: "Jane Doe", email: "jane@example.com"},
				nil,
				service.WithTextExtractor(slow),
			)

			files := []ingest.File{
				{Name: "mono-one.txt", Data: []byte("monotonic resume one")},
				{Name: "mono-two.txt", Data: []byte("monotonic resume two")},
				{Name: "mono-three.txt", Data: []byte("monotonic resume three")},
			}
			reply, err := svc.StartBatch(context.TODO(), job, files, "org-monotonic", "user-1")
			Expect(err).To(BeNil())

			lastProcessed := 0
			Eventually(func() api.BatchStatus {
				p, err := svc.GetProgress(reply.BatchID)
				if err != nil {
					return api.BatchStatusFailed
				}
				Expect(p.Processed).To(BeNumerically(">=", lastProcessed))
				Expect(p.Processed).To(BeNumerically("<=", p.Total))
				lastProcessed = p.Processed
				for i, candidate := range p.Candidates {
					Expect(candidate.Index).To(Equal(i))
				}
				return p.Status
			}, "5s", "5ms").Should(Equal(api.BatchStatusCompleted))
			Expect(lastProcessed).To(Equal(3))
		})

		It("ingests without scoring when the job has no required skills", func() {
			job.RequiredSkills = nil

			reply, err := svc.StartBatch(context.TODO(), job, []ingest.File{{Name: "a.txt", Data: []byte("unscored resume")}}, "org-no-skills", "user-1")
			Expect(err).To(BeNil())

			final := waitForTerminal(reply.BatchID)
			Expect(final.Status).To(Equal(api.BatchStatusCompleted))
			Expect(final.Candidates[0].Status).To(Equal(api.CandidateStatusCompleted))
			Expect(final.Candidates[0].Score).To(BeNil())
			Expect(final.Candidates[0].MatchedSkills).To(BeEmpty())
			Expect(final.Candidates[0].MissingSkills).To(BeEmpty())
			Expect(scorer.calls.Load()).To(Equal(int64(0)))
		})
	})

	Context("progress", func() {
		It("returns not found for an unknown batch id", func() {
			_, err := svc.GetProgress(uuid.New())
			Expect(err).To(HaveOccurred())
			_, ok := err.(*service.ErrBatchNotFound)
			Expect(ok).To(BeTrue(), "expected ErrBatchNotFound")
		})

		It("mirrors the final status into the history row", func() {
			reply, err := svc.StartBatch(context.TODO(), job, []ingest.File{{Name: "a.txt", Data: []byte("mirrored resume")}}, "org-mirror", "user-1")
			Expect(err).To(BeNil())
			waitForTerminal(reply.BatchID)

			Eventually(func() string {
				row, err := store.Batch().Get(context.TODO(), reply.BatchID)
				if err != nil {
					return ""
				}
				return row.Status
			}, "2s", "10ms").Should(Equal(string(api.BatchStatusCompleted)))

			row, err := store.Batch().Get(context.TODO(), reply.BatchID)
			Expect(err).To(BeNil())
			Expect(row.ProcessedCount).To(Equal(1))
			Expect(row.CompletedAt).NotTo(BeNil())
		})
	})
})
