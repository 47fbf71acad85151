package memory

import (
	"context"
	"testing"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

func TestAnswerLedgerInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	ledger := NewAnswerLedger()
	first := app.SubmitAnswerOutput{QuestionID: "q1", Answer: domain.TextAnswer("o1")}
	second := app.SubmitAnswerOutput{QuestionID: "q1", Answer: domain.TextAnswer("o2")}

	if ok, _ := ledger.Insert(ctx, "a1", "q1", first); !ok {
		t.Fatalf("expected first insert to win")
	}
	if ok, _ := ledger.Insert(ctx, "a1", "q1", second); ok {
		t.Fatalf("expected second insert to lose")
	}
	if ok, _ := ledger.Insert(ctx, "a2", "q1", second); !ok {
		t.Fatalf("attempts must not share keys")
	}

	got, ok, _ := ledger.Get(ctx, "a1", "q1")
	if !ok || got.Answer.Value() != "o1" {
		t.Fatalf("expected first answer kept, got %+v", got)
	}

	_ = ledger.Clear(ctx, "a1")
	if _, ok, _ := ledger.Get(ctx, "a1", "q1"); ok {
		t.Fatalf("expected attempt cleared")
	}
	if _, ok, _ := ledger.Get(ctx, "a2", "q1"); !ok {
		t.Fatalf("clear must not touch other attempts")
	}
}
