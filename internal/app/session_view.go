package app

import (
	"time"

	"assessment-service/internal/domain"
)

// OptionView is an option as shown to a learner.
type OptionView struct {
	ID   string          `json:"id"`
	Text domain.LangText `json:"text"`
}

// QuestionView hides the answer key until the question is revealed.
type QuestionView struct {
	ID              string              `json:"id"`
	Type            domain.QuestionType `json:"type"`
	Text            domain.LangText     `json:"text"`
	Options         []OptionView        `json:"options,omitempty"`
	Points          float64             `json:"points"`
	Hint            domain.LangText     `json:"hint,omitempty"`
	Media           *domain.Media       `json:"media,omitempty"`
	CorrectOptionID string              `json:"correctOptionId,omitempty"`
	Explanation     domain.LangText     `json:"explanation,omitempty"`
}

func newQuestionView(q domain.Question, revealed bool) QuestionView {
	v := QuestionView{ID: q.ID, Type: q.Type, Text: q.Text, Points: q.Points, Hint: q.Hint, Media: q.Media}
	for _, o := range q.Options {
		v.Options = append(v.Options, OptionView{ID: o.ID, Text: o.Text})
	}
	if revealed {
		v.CorrectOptionID = q.CorrectOptionID
		v.Explanation = q.Explanation
	}
	return v
}

type SectionView struct {
	Type            domain.QuestionType `json:"type,omitempty"`
	Title           domain.LangText     `json:"title,omitempty"`
	TotalQuestions  int                 `json:"totalQuestions"`
	AnsweredIndices []int               `json:"answeredIndices"`
	Score           int                 `json:"score"`
}

type GroupView struct {
	Index           int               `json:"index"`
	BlockID         string            `json:"blockId"`
	Kind            domain.BlockKind  `json:"kind,omitempty"`
	Title           domain.LangText   `json:"title,omitempty"`
	Reference       *domain.Reference `json:"reference,omitempty"`
	Sections        []SectionView     `json:"sections"`
	ActiveSection   int               `json:"activeSection"`
	CurrentQuestion int               `json:"currentQuestion"`
	Question        QuestionView      `json:"question"`
	SelectedIndex   *int              `json:"selectedIndex,omitempty"`
	Revealed        bool              `json:"revealed"`
	Result          *AnswerRecord     `json:"result,omitempty"`
	Score           int               `json:"score"`
	Complete        bool              `json:"complete"`
}

// SessionView is the learner-facing snapshot sent over the wire.
type SessionView struct {
	ID          string      `json:"id"`
	ExamID      string      `json:"examId"`
	LearnerID   string      `json:"learnerId"`
	StartedAt   time.Time   `json:"startedAt"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	Groups      []GroupView `json:"groups"`
	Complete    bool        `json:"complete"`
}

// View renders the session for a learner.
func (s *QuizSession) View() SessionView {
	st := s.State()
	v := SessionView{
		ID: st.ID, ExamID: st.ExamID, LearnerID: st.LearnerID,
		StartedAt: st.StartedAt, CompletedAt: st.CompletedAt,
		Groups:   make([]GroupView, 0, len(st.Groups)),
		Complete: true,
	}
	for i, g := range st.Groups {
		gv := GroupView{
			Index: i, BlockID: g.BlockID, Kind: g.Kind, Title: g.Title, Reference: g.Reference,
			ActiveSection: g.ActiveSection, CurrentQuestion: g.CurrentQuestion,
			Question:      newQuestionView(g.Question(), g.Revealed),
			SelectedIndex: g.SelectedIndex, Revealed: g.Revealed,
			Score: g.Score(), Complete: g.Complete,
		}
		for _, sec := range g.Sections {
			gv.Sections = append(gv.Sections, SectionView{
				Type: sec.Type, Title: sec.Title, TotalQuestions: len(sec.Questions),
				AnsweredIndices: sec.AnsweredIndices(), Score: sec.Score,
			})
		}
		if g.Revealed {
			if rec, ok := g.Sections[g.ActiveSection].Answered[g.CurrentQuestion]; ok {
				gv.Result = &rec
			}
		}
		if !g.Complete {
			v.Complete = false
		}
		v.Groups = append(v.Groups, gv)
	}
	return v
}
