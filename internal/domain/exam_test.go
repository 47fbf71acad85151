package domain

import (
	"testing"
	"time"
)

func TestGradeLadderBreakpoints(t *testing.T) {
	tests := []struct {
		pct   int
		grade string
	}{
		{100, "A+"}, {90, "A+"}, {89, "A"}, {80, "A"}, {79, "B"}, {72, "B"}, {70, "B"},
		{69, "C"}, {60, "C"}, {59, "D"}, {50, "D"}, {49, "F"}, {0, "F"},
	}
	for _, tc := range tests {
		if got := GradeFor(tc.pct).Grade; got != tc.grade {
			t.Fatalf("GradeFor(%d) = %s, want %s", tc.pct, got, tc.grade)
		}
	}
}

func TestGradeMonotonic(t *testing.T) {
	for p1 := 0; p1 <= 100; p1++ {
		for p2 := p1 + 1; p2 <= 100; p2++ {
			if GradeRank(GradeFor(p1).Grade) > GradeRank(GradeFor(p2).Grade) {
				t.Fatalf("grade(%d) ranks above grade(%d)", p1, p2)
			}
		}
	}
}

func TestExamPercentage(t *testing.T) {
	e := Exam{TotalPoints: 100, PassingScore: 60}
	if got := e.CalculatePercentage(72); got != 72 {
		t.Fatalf("expected 72, got %d", got)
	}
	if !e.IsPassing(60) || e.IsPassing(59.5) {
		t.Fatalf("pass threshold misapplied")
	}
	if got := (Exam{TotalPoints: 3}).CalculatePercentage(2); got != 67 {
		t.Fatalf("expected rounding to 67, got %d", got)
	}
	empty := Exam{}
	if got := empty.CalculatePercentage(10); got != 0 {
		t.Fatalf("expected 0 for empty exam, got %d", got)
	}
	if empty.PassingPercentage() != 0 {
		t.Fatalf("expected 0 passing percentage for empty exam")
	}
}

func TestExamQuestionsFlattenInBlockOrder(t *testing.T) {
	e := Exam{Blocks: []Block{
		{ID: "b1", Questions: []Question{{ID: "q1", Points: 2}}, Subsections: []Subsection{
			{Type: QuestionEssay, Questions: []Question{{ID: "q2", Points: 5}}},
		}},
		{ID: "b2"},
		{ID: "b3", Questions: []Question{{ID: "q3", Points: 1.5}}},
	}}
	qs := e.Questions()
	if len(qs) != 3 || qs[0].ID != "q1" || qs[1].ID != "q2" || qs[2].ID != "q3" {
		t.Fatalf("unexpected order: %+v", qs)
	}
	if got := SumPoints(e.Blocks); got != 8.5 {
		t.Fatalf("expected 8.5 points, got %v", got)
	}
	if _, ok := e.FindQuestion("q2"); !ok {
		t.Fatalf("expected q2 to be found")
	}
}

func TestSettingsMerge(t *testing.T) {
	noBack := false
	limit := 45
	got := SettingsOverrides{AllowBack: &noBack, TotalTimeMinutes: &limit}.Merge(DefaultSettings())
	if got.AllowBack || !got.ShowResults || got.PassScore != 60 {
		t.Fatalf("unexpected merge result: %+v", got)
	}
	if got.TotalTimeMinutes == nil || *got.TotalTimeMinutes != 45 {
		t.Fatalf("expected time limit 45")
	}
	e := Exam{Settings: got}
	if !e.IsTimed() || e.AllowSkipping() {
		t.Fatalf("derived settings wrong")
	}
}

func TestExamPatchRederivesTotals(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	e := Exam{ID: "e1", Title: "Old", TotalPoints: 1}
	title := "New"
	patched := ExamPatch{Title: &title, Blocks: []Block{{Questions: []Question{{Points: 4}, {Points: 6}}}}}.Apply(e, now)
	if patched.Title != "New" || patched.TotalPoints != 10 || !patched.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected patch result: %+v", patched)
	}
	if e.Title != "Old" {
		t.Fatalf("patch mutated the original")
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatScore(72, 100, 72); got != "72 / 100 (72%)" {
		t.Fatalf("got %q", got)
	}
	if got := FormatDuration(125); got != "2:05" {
		t.Fatalf("got %q", got)
	}
}
