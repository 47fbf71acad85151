package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestExamCacheCachesInRedis(t *testing.T) {
	mr, client := newTestRedis(t)
	loader := &countingLoader{ExamLoader: memory.NewExamRepository(sampleExam())}
	cache := NewExamCache(client, loader, time.Minute, zerolog.Nop())

	exam, err := cache.GetExam(context.Background(), "exam-1")
	if err != nil {
		t.Fatalf("get exam: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("exam:exam-1") {
		t.Fatalf("expected exam cached in redis")
	}
	if ttl := mr.TTL("exam:exam-1"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	again, _ := cache.GetExam(context.Background(), "exam-1")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if again.Questions()[0].CorrectOptionID != exam.Questions()[0].CorrectOptionID {
		t.Fatalf("cached exam differs from loaded one")
	}

	if err := cache.Invalidate(context.Background(), "exam-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = cache.GetExam(context.Background(), "exam-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestExamCacheIgnoresCorruptEntries(t *testing.T) {
	mr, client := newTestRedis(t)
	_ = mr.Set("exam:exam-1", "{not json")
	loader := &countingLoader{ExamLoader: memory.NewExamRepository(sampleExam())}
	cache := NewExamCache(client, loader, time.Minute, zerolog.Nop())

	if _, err := cache.GetExam(context.Background(), "exam-1"); err != nil {
		t.Fatalf("get exam: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected fallback to loader, calls=%d", loader.calls)
	}
}

func TestAnswerLedgerFirstWriterWins(t *testing.T) {
	mr, client := newTestRedis(t)
	ledger := NewAnswerLedger(client, time.Hour)
	ctx := context.Background()

	const writers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out := app.SubmitAnswerOutput{QuestionID: "q1", Answer: domain.TextAnswer("o1"), Result: domain.AnswerResult{IsCorrect: domain.BoolPtr(i%2 == 0)}}
			ok, err := ledger.Insert(ctx, "a1", "q1", out)
			if err != nil {
				t.Errorf("insert: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one insert to win, got %d", wins)
	}
	if mr.TTL("attempt:a1:answers") != time.Hour {
		t.Fatalf("expected attempt key to expire")
	}

	got, ok, err := ledger.Get(ctx, "a1", "q1")
	if err != nil || !ok || got.Answer.Value() != "o1" || got.Result.IsCorrect == nil {
		t.Fatalf("unexpected stored answer %+v ok=%v err=%v", got, ok, err)
	}
	if _, ok, _ := ledger.Get(ctx, "a1", "q2"); ok {
		t.Fatalf("expected missing question")
	}

	if err := ledger.Clear(ctx, "a1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists("attempt:a1:answers") {
		t.Fatalf("expected attempt hash deleted")
	}
}

func TestAnswerLedgerRecordsAnswerAndExpiryTogether(t *testing.T) {
	mr, client := newTestRedis(t)
	ledger := NewAnswerLedger(client, time.Hour)
	ctx := context.Background()
	out := app.SubmitAnswerOutput{QuestionID: "q1", Answer: domain.TextAnswer("o1")}

	mr.SetError("LOADING redis is loading the dataset")
	ok, err := ledger.Insert(ctx, "a1", "q1", out)
	if ok || domain.CodeOf(err) != domain.CodeDatabase {
		t.Fatalf("expected DATABASE_ERROR and no insert, got ok=%v err=%v", ok, err)
	}
	mr.SetError("")
	if mr.Exists("attempt:a1:answers") {
		t.Fatalf("failed insert must not leave an answer behind")
	}

	// a retry after the failure is accepted
	if ok, err := ledger.Insert(ctx, "a1", "q1", out); err != nil || !ok {
		t.Fatalf("retry: ok=%v err=%v", ok, err)
	}
	if mr.TTL("attempt:a1:answers") != time.Hour {
		t.Fatalf("expected expiry set with the answer, got %v", mr.TTL("attempt:a1:answers"))
	}
	if ok, err := ledger.Insert(ctx, "a1", "q1", out); err != nil || ok {
		t.Fatalf("duplicate: ok=%v err=%v", ok, err)
	}
}

func TestSubmitAnswerOverRedisLedger(t *testing.T) {
	_, client := newTestRedis(t)
	// Two use case instances share one ledger, as two service replicas would.
	first := app.NewSubmitAnswer(NewAnswerLedger(client, time.Hour))
	second := app.NewSubmitAnswer(NewAnswerLedger(client, time.Hour))
	q := sampleExam().Questions()[0]
	in := app.SubmitAnswerInput{QuestionID: q.ID, Answer: domain.TextAnswer("o2"), AttemptID: "a1"}

	if _, err := first.Execute(context.Background(), in, &q); err != nil {
		t.Fatalf("first replica: %v", err)
	}
	if _, err := second.Execute(context.Background(), in, &q); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ALREADY_ANSWERED from second replica, got %v", err)
	}
}

func TestSessionStoreRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewSessionStore(client, time.Minute)
	ctx := context.Background()

	session := app.NewQuizSession(sampleExam(), "learner-1", time.Now())
	_ = session.SelectAnswer(0, 1)
	if _, err := session.Submit(0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("quiz:session:" + session.ID()) {
		t.Fatalf("expected redis key to be set")
	}

	loaded, err := store.Get(ctx, session.ID())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	g := loaded.State().Groups[0]
	if g.Score() != 1 || !g.Revealed || len(g.AnsweredIndices()) != 1 {
		t.Fatalf("state lost in round trip: %+v", g)
	}
	if answers := loaded.Answers(); len(answers) != 1 || !answers[0].Result.Correct() {
		t.Fatalf("unexpected answers %+v", answers)
	}

	if err := store.Delete(ctx, session.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, session.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

type countingLoader struct {
	ExamLoader
	calls int
}

func (l *countingLoader) FindByID(ctx context.Context, id string) (domain.Exam, error) {
	l.calls++
	return l.ExamLoader.FindByID(ctx, id)
}

func sampleExam() domain.Exam {
	return domain.Exam{
		ID:          "exam-1",
		Title:       "Arithmetic",
		Language:    domain.LanguageEnglish,
		TotalPoints: 1,
		Blocks: []domain.Block{{
			ID: "b1",
			Questions: []domain.Question{{
				ID:   "q1",
				Type: domain.QuestionMCQ,
				Text: domain.LangText{"en": "What is 2 + 2?"},
				Options: []domain.Option{
					{ID: "o1", Text: domain.LangText{"en": "3"}},
					{ID: "o2", Text: domain.LangText{"en": "4"}, Correct: true},
				},
				CorrectOptionID: "o2",
				Points:          1,
			}},
		}},
	}
}
