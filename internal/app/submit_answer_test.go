package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
)

func sampleMCQ() domain.Question {
	return domain.Question{
		ID:   "q1",
		Type: domain.QuestionMCQ,
		Text: domain.LangText{"ar": "ما إعراب كلمة (الطالبُ)؟"},
		Options: []domain.Option{
			{ID: "o1", Text: domain.LangText{"ar": "مفعول به"}},
			{ID: "o2", Text: domain.LangText{"ar": "فاعل"}, Correct: true},
		},
		CorrectOptionID: "o2",
		Points:          4,
	}
}

func TestSubmitAnswerRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	uc := app.NewSubmitAnswer(memory.NewAnswerLedger())
	q := sampleMCQ()

	first, err := uc.Execute(ctx, app.SubmitAnswerInput{QuestionID: q.ID, Answer: domain.TextAnswer("o2"), AttemptID: "a1"}, &q)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if !first.Result.Correct() || first.Result.EarnedPoints != 4 || first.MaxPoints != 4 {
		t.Fatalf("unexpected first result %+v", first)
	}

	_, err = uc.Execute(ctx, app.SubmitAnswerInput{QuestionID: q.ID, Answer: domain.TextAnswer("o1"), AttemptID: "a1"}, &q)
	if !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ALREADY_ANSWERED, got %v", err)
	}

	stored, ok, err := uc.PreviousAnswer(ctx, "a1", q.ID)
	if err != nil || !ok {
		t.Fatalf("expected stored answer, ok=%v err=%v", ok, err)
	}
	if stored.Answer.Value() != "o2" || !stored.Result.Correct() {
		t.Fatalf("stored answer replaced: %+v", stored)
	}
}

func TestSubmitAnswerWithoutAttemptIsNotRecorded(t *testing.T) {
	ctx := context.Background()
	uc := app.NewSubmitAnswer(memory.NewAnswerLedger())
	q := sampleMCQ()

	for i := 0; i < 2; i++ {
		out, err := uc.Execute(ctx, app.SubmitAnswerInput{QuestionID: q.ID, Answer: domain.TextAnswer("o1")}, &q)
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if !out.Result.Wrong() || out.Result.EarnedPoints != 0 {
			t.Fatalf("expected wrong answer, got %+v", out.Result)
		}
	}
}

func TestSubmitAnswerMissingQuestion(t *testing.T) {
	uc := app.NewSubmitAnswer(memory.NewAnswerLedger())
	_, err := uc.Execute(context.Background(), app.SubmitAnswerInput{QuestionID: "q1", Answer: domain.TextAnswer("o1"), AttemptID: "a1"}, nil)
	if domain.CodeOf(err) != domain.CodeQuestionNotFound {
		t.Fatalf("expected QUESTION_NOT_FOUND, got %v", err)
	}
}

func TestSubmitAnswerEssayPendsManualGrading(t *testing.T) {
	uc := app.NewSubmitAnswer(memory.NewAnswerLedger())
	q := domain.Question{ID: "e1", Type: domain.QuestionEssay, Text: domain.LangText{"ar": "اكتب فقرة"}, Points: 10}

	out, err := uc.Execute(context.Background(), app.SubmitAnswerInput{Answer: domain.TextAnswer("نص حر"), AttemptID: "a1"}, &q)
	if err != nil {
		t.Fatalf("submit essay: %v", err)
	}
	if out.QuestionID != "e1" {
		t.Fatalf("expected question id taken from question, got %q", out.QuestionID)
	}
	if out.Result.IsCorrect != nil || out.Result.EarnedPoints != 0 || !out.Result.RequiresManualGrading {
		t.Fatalf("unexpected essay result %+v", out.Result)
	}
}

func TestSubmitAnswerConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	uc := app.NewSubmitAnswer(memory.NewAnswerLedger())
	q := sampleMCQ()

	const workers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Execute(ctx, app.SubmitAnswerInput{QuestionID: q.ID, Answer: domain.TextAnswer("o2"), AttemptID: "race"}, &q)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrAlreadyAnswered):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || rejected != workers-1 {
		t.Fatalf("expected exactly one winner, got %d succeeded, %d rejected", succeeded, rejected)
	}
}

func TestClearAttemptAllowsResubmission(t *testing.T) {
	ctx := context.Background()
	uc := app.NewSubmitAnswer(memory.NewAnswerLedger())
	q := sampleMCQ()
	in := app.SubmitAnswerInput{QuestionID: q.ID, Answer: domain.TextAnswer("o1"), AttemptID: "a1"}

	if _, err := uc.Execute(ctx, in, &q); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := uc.ClearAttempt(ctx, "a1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := uc.PreviousAnswer(ctx, "a1", q.ID); ok {
		t.Fatalf("expected ledger cleared")
	}
	if _, err := uc.Execute(ctx, in, &q); err != nil {
		t.Fatalf("resubmit after clear: %v", err)
	}
}

func TestSubmitAnswerLedgerFailure(t *testing.T) {
	q := sampleMCQ()
	uc := app.NewSubmitAnswer(brokenLedger{})
	_, err := uc.Execute(context.Background(), app.SubmitAnswerInput{QuestionID: q.ID, Answer: domain.TextAnswer("o2"), AttemptID: "a1"}, &q)
	if domain.CodeOf(err) != domain.CodeDatabase {
		t.Fatalf("expected DATABASE_ERROR, got %v", err)
	}
}

func TestAnswersFeedScoring(t *testing.T) {
	ctx := context.Background()
	uc := app.NewSubmitAnswer(memory.NewAnswerLedger())
	q1 := sampleMCQ()
	q2 := sampleMCQ()
	q2.ID = "q2"

	_, _ = uc.Execute(ctx, app.SubmitAnswerInput{QuestionID: q1.ID, Answer: domain.TextAnswer("o2"), AttemptID: "a1"}, &q1)
	_, _ = uc.Execute(ctx, app.SubmitAnswerInput{QuestionID: q2.ID, Answer: domain.TextAnswer("o1"), AttemptID: "a1"}, &q2)

	answers, err := uc.Answers(ctx, "a1", []string{"q1", "q2", "q3"})
	if err != nil {
		t.Fatalf("answers: %v", err)
	}
	if len(answers) != 2 || answers[0].QuestionID != "q1" || answers[1].MaxPoints != 4 {
		t.Fatalf("unexpected answers %+v", answers)
	}
}

type brokenLedger struct{}

func (brokenLedger) Insert(context.Context, string, string, app.SubmitAnswerOutput) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func (brokenLedger) Get(context.Context, string, string) (app.SubmitAnswerOutput, bool, error) {
	return app.SubmitAnswerOutput{}, false, errors.New("redis: connection refused")
}

func (brokenLedger) Clear(context.Context, string) error {
	return errors.New("redis: connection refused")
}
