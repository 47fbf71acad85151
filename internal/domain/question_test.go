package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNewQuestionDefaults(t *testing.T) {
	now := time.Now()
	q := NewQuestion(QuestionParams{
		Type: QuestionMCQ,
		Text: LangText{"ar": "ما عاصمة مصر؟"},
		Options: []Option{
			{ID: "a", Text: LangText{"ar": "القاهرة"}, Correct: true},
			{ID: "b", Text: LangText{"ar": "الإسكندرية"}},
		},
	}, now)

	if q.ID == "" {
		t.Fatalf("expected generated id")
	}
	if q.Points != 1 || q.Difficulty != DifficultyMedium || !q.Active {
		t.Fatalf("defaults not applied: %+v", q)
	}
	if q.CorrectOptionID != "a" || q.CorrectIndex() != 0 {
		t.Fatalf("expected correct option derived from flag, got %q", q.CorrectOptionID)
	}
	if err := q.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestQuestionNormalizeKeepsAuthoredValues(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	authored := Question{
		ID: "q1", Type: QuestionTrueFalse, Points: 4, Difficulty: DifficultyHard,
		Options:         []Option{{Correct: true}, {ID: "false"}},
		CorrectOptionID: "false",
	}
	q := authored.Normalize(now)
	if q.ID != "q1" || q.Points != 4 || q.Difficulty != DifficultyHard || q.CorrectOptionID != "false" {
		t.Fatalf("authored values overwritten: %+v", q)
	}
	if q.Options[0].ID == "" || authored.Options[0].ID != "" {
		t.Fatalf("expected generated option id on a copy, got %q / %q", q.Options[0].ID, authored.Options[0].ID)
	}
	if !q.CreatedAt.Equal(now) {
		t.Fatalf("expected timestamp, got %v", q.CreatedAt)
	}
}

func TestQuestionValidate(t *testing.T) {
	base := Question{
		ID: "q1", Type: QuestionMCQ, Text: LangText{"en": "pick"}, Points: 1,
		Options: []Option{{ID: "a"}, {ID: "b"}}, CorrectOptionID: "b",
	}
	tests := []struct {
		name   string
		mutate func(q *Question)
		ok     bool
	}{
		{name: "valid", mutate: func(q *Question) {}, ok: true},
		{name: "dangling correct option", mutate: func(q *Question) { q.CorrectOptionID = "z" }},
		{name: "missing correct option", mutate: func(q *Question) { q.CorrectOptionID = "" }},
		{name: "no text", mutate: func(q *Question) { q.Text = LangText{"en": ""} }},
		{name: "zero points", mutate: func(q *Question) { q.Points = 0 }},
		{name: "unknown type", mutate: func(q *Question) { q.Type = "ordering" }},
		{name: "essay needs no option", mutate: func(q *Question) {
			q.Type = QuestionEssay
			q.Options = nil
			q.CorrectOptionID = ""
		}, ok: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := base
			q.Options = append([]Option(nil), base.Options...)
			tc.mutate(&q)
			err := q.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && CodeOf(err) != CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestQuestionLabels(t *testing.T) {
	q := Question{Type: QuestionParsing, Difficulty: DifficultyHard}
	if q.TypeLabel("ar") != "إعراب" || q.TypeLabel("en") != "Parsing" {
		t.Fatalf("unexpected type labels")
	}
	if q.DifficultyColor() != "red" || q.DifficultyLabel("en") != "Hard" {
		t.Fatalf("unexpected difficulty labels")
	}
	if !q.RequiresManualGrading() || q.IsAutoGradable() {
		t.Fatalf("parsing must be graded manually")
	}
}

func TestAnswerJSON(t *testing.T) {
	var single, list Answer
	if err := json.Unmarshal([]byte(`"o2"`), &single); err != nil {
		t.Fatalf("unmarshal single: %v", err)
	}
	if err := json.Unmarshal([]byte(`["a","b"]`), &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if single.IsList() || single.Value() != "o2" {
		t.Fatalf("unexpected single answer %+v", single)
	}
	if !list.IsList() || len(list.Values()) != 2 {
		t.Fatalf("unexpected list answer %+v", list)
	}
	var bad Answer
	if err := json.Unmarshal([]byte(`42`), &bad); err == nil {
		t.Fatalf("expected error for numeric answer")
	}
}

func TestErrorMatching(t *testing.T) {
	err := WrapError(CodeAlreadyAnswered, "dup", errors.New("boom"))
	if !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("expected errors.Is to match by code")
	}
	if errors.Is(err, ErrNoAnswers) {
		t.Fatalf("codes must not cross-match")
	}
	if CodeOf(errors.New("plain")) != CodeUnknown || CodeOf(nil) != "" {
		t.Fatalf("unexpected CodeOf results")
	}
}
