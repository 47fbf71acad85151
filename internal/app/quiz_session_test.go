package app_test

import (
	"reflect"
	"testing"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

func optionQuestion(id string, correct int) domain.Question {
	opts := []domain.Option{{ID: id + "-a"}, {ID: id + "-b"}, {ID: id + "-c"}}
	return domain.Question{
		ID: id, Type: domain.QuestionMCQ, Text: domain.LangText{"ar": id},
		Options: opts, CorrectOptionID: opts[correct].ID, Points: 2,
	}
}

func threeQuestionGroup() *app.Group {
	return app.NewQuestionGroup("g1", []domain.Question{
		optionQuestion("q0", 0), optionQuestion("q1", 1), optionQuestion("q2", 2),
	})
}

func mustSubmit(t *testing.T, g *app.Group) domain.AnswerResult {
	t.Helper()
	res, err := g.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return res
}

func TestGroupRevisitScoresOnce(t *testing.T) {
	g := threeQuestionGroup()

	g.SelectAnswer(0)
	if !mustSubmit(t, g).Correct() {
		t.Fatalf("expected q0 correct")
	}
	if err := g.JumpTo(2); err != nil {
		t.Fatalf("jump: %v", err)
	}
	g.SelectAnswer(0)
	if !mustSubmit(t, g).Wrong() {
		t.Fatalf("expected q2 wrong")
	}
	if err := g.JumpTo(0); err != nil {
		t.Fatalf("jump: %v", err)
	}
	g.SelectAnswer(0)
	mustSubmit(t, g)

	if g.Score() != 1 {
		t.Fatalf("expected score 1, got %d", g.Score())
	}
	if got := g.AnsweredIndices(); !reflect.DeepEqual(got, []int{0, 2}) {
		t.Fatalf("expected answered {0,2}, got %v", got)
	}
}

func TestGroupSubmitJumpSubmitSameIndex(t *testing.T) {
	g := threeQuestionGroup()
	g.SelectAnswer(0)
	mustSubmit(t, g)
	before := g.Score()

	if err := g.JumpTo(0); err != nil {
		t.Fatalf("jump: %v", err)
	}
	g.SelectAnswer(0)
	mustSubmit(t, g)
	if g.Score() != before {
		t.Fatalf("score credited twice: %d -> %d", before, g.Score())
	}
}

func TestGroupFirstResultIsKept(t *testing.T) {
	g := threeQuestionGroup()
	g.SelectAnswer(1)
	mustSubmit(t, g)
	_ = g.JumpTo(0)
	g.SelectAnswer(0)
	mustSubmit(t, g)

	if g.Score() != 0 {
		t.Fatalf("late correct answer must not be credited, got %d", g.Score())
	}
	if rec := g.Sections[0].Answered[0]; !rec.Result.Wrong() {
		t.Fatalf("expected first (wrong) result kept, got %+v", rec)
	}
}

func TestGroupSelectionLockedAfterReveal(t *testing.T) {
	g := threeQuestionGroup()
	g.SelectAnswer(1)
	mustSubmit(t, g)
	g.SelectAnswer(0)
	if g.SelectedIndex == nil || *g.SelectedIndex != 1 {
		t.Fatalf("selection changed after reveal")
	}
	if _, err := g.Submit(); domain.CodeOf(err) != domain.CodeInvalidAnswer {
		t.Fatalf("expected repeated submit rejected, got %v", err)
	}
}

func TestGroupSubmitRequiresSelection(t *testing.T) {
	g := threeQuestionGroup()
	if _, err := g.Submit(); domain.CodeOf(err) != domain.CodeInvalidAnswer {
		t.Fatalf("expected INVALID_ANSWER, got %v", err)
	}
	if g.Revealed {
		t.Fatalf("failed submit must not reveal")
	}
}

func TestGroupNextCompletes(t *testing.T) {
	g := threeQuestionGroup()
	g.SelectAnswer(0)
	mustSubmit(t, g)

	g.Next()
	if g.CurrentQuestion != 1 || g.Revealed || g.Selected != nil {
		t.Fatalf("next must advance and clear selection: %+v", g)
	}
	g.Next()
	if g.Complete {
		t.Fatalf("completed too early")
	}
	g.Next()
	if !g.Complete || g.CurrentQuestion != 2 {
		t.Fatalf("expected complete at last question, got %+v", g)
	}
}

func TestGroupRestart(t *testing.T) {
	g := threeQuestionGroup()
	g.SelectAnswer(0)
	mustSubmit(t, g)
	g.Next()
	g.Next()
	g.Next()

	g.Restart()
	if g.Complete || g.CurrentQuestion != 0 || g.Score() != 0 || len(g.AnsweredIndices()) != 0 || g.Revealed {
		t.Fatalf("restart left state behind: %+v", g)
	}
}

func TestGroupJumpOutOfRange(t *testing.T) {
	g := threeQuestionGroup()
	if err := g.JumpTo(3); domain.CodeOf(err) != domain.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := g.SwitchSection(1); domain.CodeOf(err) != domain.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func sectionedBlock() domain.Block {
	return domain.Block{
		ID:   "grammar",
		Kind: domain.BlockGrammar,
		Reference: &domain.Reference{
			Kind:   domain.ReferencePoetry,
			Verses: []domain.Verse{{First: "على قدر أهل العزم", Second: "تأتي العزائم"}},
		},
		Subsections: []domain.Subsection{
			{Type: domain.QuestionMCQ, Questions: []domain.Question{optionQuestion("m0", 0), optionQuestion("m1", 1)}},
			{Type: domain.QuestionTrueFalse},
			{Type: domain.QuestionEssay, Questions: []domain.Question{{ID: "e0", Type: domain.QuestionEssay, Points: 5}}},
		},
	}
}

func TestGroupSections(t *testing.T) {
	g, ok := app.NewGroup(sectionedBlock())
	if !ok || len(g.Sections) != 2 {
		t.Fatalf("expected two non-empty sections, got %+v", g)
	}

	g.SelectAnswer(0)
	mustSubmit(t, g)
	g.Next()
	g.Next()
	if g.ActiveSection != 1 || g.CurrentQuestion != 0 {
		t.Fatalf("expected to move into the essay section, got %d/%d", g.ActiveSection, g.CurrentQuestion)
	}

	g.SelectText("الشجاعة أن تقول الحق")
	res := mustSubmit(t, g)
	if res.IsCorrect != nil || !res.RequiresManualGrading {
		t.Fatalf("essay must pend manual grading, got %+v", res)
	}
	if g.Sections[1].Score != 0 || g.Score() != 1 {
		t.Fatalf("unexpected scores: section %d group %d", g.Sections[1].Score, g.Score())
	}

	if err := g.SwitchSection(0); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if got := g.AnsweredIndices(); !reflect.DeepEqual(got, []int{0}) {
		t.Fatalf("sections must keep separate answered sets, got %v", got)
	}

	g.Next()
	g.Next()
	g.Next()
	if !g.Complete {
		t.Fatalf("expected group complete after last section")
	}
}

func TestQuizSessionGroupsAreIndependent(t *testing.T) {
	exam := domain.Exam{ID: "e1", Blocks: []domain.Block{
		{ID: "b1", Questions: []domain.Question{optionQuestion("q0", 0)}},
		{ID: "empty"},
		sectionedBlock(),
	}}
	s := app.NewQuizSession(exam, "learner-1", fixedNow)
	st := s.State()
	if len(st.Groups) != 2 || st.Groups[0].BlockID != "b1" || st.Groups[1].BlockID != "grammar" {
		t.Fatalf("unexpected groups %+v", st.Groups)
	}

	if err := s.SelectAnswer(0, 0); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := s.Submit(0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	other := s.State().Groups[1]
	if other.Revealed || other.Score() != 0 || len(other.AnsweredIndices()) != 0 {
		t.Fatalf("group 1 touched by group 0 transition: %+v", other)
	}
	if other.Reference == nil || other.Reference.Verses[0].First != "على قدر أهل العزم" {
		t.Fatalf("reference content lost")
	}
	if err := s.Next(5); domain.CodeOf(err) != domain.CodeValidation {
		t.Fatalf("expected group range error, got %v", err)
	}
}

func TestQuizSessionAnswersFeedScoring(t *testing.T) {
	exam := domain.Exam{ID: "e1", TotalPoints: 9, PassingScore: 4, Blocks: []domain.Block{sectionedBlock()}}
	s := app.NewQuizSession(exam, "learner-1", fixedNow)

	_ = s.SelectAnswer(0, 0)
	_, _ = s.Submit(0)
	_ = s.Next(0)
	_ = s.SelectAnswer(0, 2)
	_, _ = s.Submit(0)
	_ = s.SwitchSection(0, 1)
	_ = s.SelectText(0, "نص")
	_, _ = s.Submit(0)
	s.Finish(fixedNow.Add(time.Minute))

	answers := s.Answers()
	if len(answers) != 3 || answers[0].QuestionID != "m0" || answers[2].QuestionID != "e0" || answers[2].MaxPoints != 5 {
		t.Fatalf("unexpected answers %+v", answers)
	}
	if err := s.Next(0); err == nil {
		t.Fatalf("expected transitions rejected after finish")
	}

	view := s.View()
	if view.Groups[0].Question.ID != "e0" || view.Groups[0].Result == nil {
		t.Fatalf("unexpected view %+v", view.Groups[0])
	}
}

func TestSessionViewHidesAnswerKey(t *testing.T) {
	exam := domain.Exam{ID: "e1", Blocks: []domain.Block{{ID: "b1", Questions: []domain.Question{optionQuestion("q0", 1)}}}}
	s := app.NewQuizSession(exam, "learner-1", fixedNow)

	if v := s.View(); v.Groups[0].Question.CorrectOptionID != "" {
		t.Fatalf("answer key leaked before reveal")
	}
	_ = s.SelectAnswer(0, 1)
	_, _ = s.Submit(0)
	if v := s.View(); v.Groups[0].Question.CorrectOptionID != "q0-b" {
		t.Fatalf("expected answer key after reveal, got %+v", v.Groups[0].Question)
	}
}

func TestRestoreQuizSessionRoundTrip(t *testing.T) {
	exam := domain.Exam{ID: "e1", Blocks: []domain.Block{{ID: "b1", Questions: []domain.Question{optionQuestion("q0", 0), optionQuestion("q1", 0)}}}}
	s := app.NewQuizSession(exam, "learner-1", fixedNow)
	_ = s.SelectAnswer(0, 0)
	_, _ = s.Submit(0)

	restored := app.RestoreQuizSession(s.State())
	_ = restored.JumpTo(0, 0)
	_ = restored.SelectAnswer(0, 0)
	_, _ = restored.Submit(0)
	if restored.State().Groups[0].Score() != 1 {
		t.Fatalf("restored session must remember credited indices")
	}
	if s.State().Groups[0].Revealed != true {
		t.Fatalf("original session changed through restored copy")
	}
}
