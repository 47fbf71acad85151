package app

import (
	"sort"
	"sync"
	"time"

	"assessment-service/internal/domain"
	"assessment-service/internal/grading"
)

var (
	errNoSelection     = domain.NewError(domain.CodeInvalidAnswer, "no answer selected")
	errAlreadyRevealed = domain.NewError(domain.CodeInvalidAnswer, "answer already submitted for this question")
	errGroupRange      = domain.NewError(domain.CodeValidation, "group index out of range")
	errSectionRange    = domain.NewError(domain.CodeValidation, "section index out of range")
	errQuestionRange   = domain.NewError(domain.CodeValidation, "question index out of range")
	errSessionFinished = domain.NewError(domain.CodeValidation, "quiz session already finished")
)

// AnswerRecord is the first graded submission at a question index.
type AnswerRecord struct {
	Answer domain.Answer       `json:"answer"`
	Result domain.AnswerResult `json:"result"`
}

// Section is an ordered run of questions inside a group, usually one question type.
type Section struct {
	Type      domain.QuestionType  `json:"type,omitempty"`
	Title     domain.LangText      `json:"title,omitempty"`
	Questions []domain.Question    `json:"questions"`
	Answered  map[int]AnswerRecord `json:"answered"`
	Score     int                  `json:"score"`
}

func newSection(typ domain.QuestionType, title domain.LangText, qs []domain.Question) Section {
	return Section{
		Type:      typ,
		Title:     title,
		Questions: append([]domain.Question(nil), qs...),
		Answered:  map[int]AnswerRecord{},
	}
}

// AnsweredIndices lists answered question indices in ascending order.
func (s Section) AnsweredIndices() []int {
	out := make([]int, 0, len(s.Answered))
	for i := range s.Answered {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Group is the traversal state of one exam block.
// Score counts correct submissions and credits each (section, index) at most once.
type Group struct {
	BlockID         string            `json:"blockId"`
	Kind            domain.BlockKind  `json:"kind,omitempty"`
	Title           domain.LangText   `json:"title,omitempty"`
	Reference       *domain.Reference `json:"reference,omitempty"`
	Sections        []Section         `json:"sections"`
	ActiveSection   int               `json:"activeSection"`
	CurrentQuestion int               `json:"currentQuestion"`
	Selected        *domain.Answer    `json:"selected,omitempty"`
	SelectedIndex   *int              `json:"selectedIndex,omitempty"`
	Revealed        bool              `json:"revealed"`
	Complete        bool              `json:"complete"`
}

// NewGroup builds the group of a block. Direct questions form the first section,
// each non-empty subsection another. It reports false when the block has no questions.
func NewGroup(b domain.Block) (*Group, bool) {
	g := &Group{BlockID: b.ID, Kind: b.Kind, Title: b.Title, Reference: b.Reference}
	if len(b.Questions) > 0 {
		g.Sections = append(g.Sections, newSection("", b.Title, b.Questions))
	}
	for _, sub := range b.Subsections {
		if len(sub.Questions) == 0 {
			continue
		}
		g.Sections = append(g.Sections, newSection(sub.Type, sub.Title, sub.Questions))
	}
	if len(g.Sections) == 0 {
		return nil, false
	}
	return g, true
}

// NewQuestionGroup builds a single-section group over qs.
func NewQuestionGroup(id string, qs []domain.Question) *Group {
	return &Group{BlockID: id, Sections: []Section{newSection("", nil, qs)}}
}

func (g *Group) section() *Section { return &g.Sections[g.ActiveSection] }

// Question returns the question under the cursor.
func (g *Group) Question() domain.Question {
	return g.section().Questions[g.CurrentQuestion]
}

func (g *Group) clearSelection() {
	g.Selected = nil
	g.SelectedIndex = nil
	g.Revealed = false
}

// SelectAnswer picks option i of the current question. Ignored once revealed.
func (g *Group) SelectAnswer(i int) {
	if g.Revealed {
		return
	}
	id := ""
	if opts := g.Question().Options; i >= 0 && i < len(opts) {
		id = opts[i].ID
	}
	a := domain.TextAnswer(id)
	g.Selected = &a
	g.SelectedIndex = &i
}

// SelectText records a free-text answer for the current question. Ignored once revealed.
func (g *Group) SelectText(text string) {
	if g.Revealed {
		return
	}
	a := domain.TextAnswer(text)
	g.Selected = &a
	g.SelectedIndex = nil
}

// Submit grades the selection and reveals the result. The current index is credited
// only the first time it is answered correctly; the first graded result is kept.
func (g *Group) Submit() (domain.AnswerResult, error) {
	if g.Revealed {
		return domain.AnswerResult{}, errAlreadyRevealed
	}
	if g.Selected == nil {
		return domain.AnswerResult{}, errNoSelection
	}

	q := g.Question()
	var res domain.AnswerResult
	if g.SelectedIndex != nil {
		res = grading.CheckIndex(q, *g.SelectedIndex)
	} else {
		res = grading.Check(q, *g.Selected)
	}
	g.Revealed = true

	sec := g.section()
	if _, seen := sec.Answered[g.CurrentQuestion]; !seen {
		if res.Correct() {
			sec.Score++
		}
		sec.Answered[g.CurrentQuestion] = AnswerRecord{Answer: *g.Selected, Result: res}
	}
	return res, nil
}

// Next advances within the section, then to the next section, and completes the group after the last one.
func (g *Group) Next() {
	g.clearSelection()
	switch {
	case g.CurrentQuestion+1 < len(g.section().Questions):
		g.CurrentQuestion++
	case g.ActiveSection+1 < len(g.Sections):
		g.ActiveSection++
		g.CurrentQuestion = 0
	default:
		g.Complete = true
	}
}

// JumpTo moves the cursor to question i of the active section.
func (g *Group) JumpTo(i int) error {
	if i < 0 || i >= len(g.section().Questions) {
		return errQuestionRange
	}
	g.CurrentQuestion = i
	g.clearSelection()
	return nil
}

// SwitchSection moves the cursor to the first question of section s.
func (g *Group) SwitchSection(s int) error {
	if s < 0 || s >= len(g.Sections) {
		return errSectionRange
	}
	g.ActiveSection = s
	g.CurrentQuestion = 0
	g.clearSelection()
	return nil
}

// Restart returns the group to its initial state.
func (g *Group) Restart() {
	for i := range g.Sections {
		g.Sections[i].Answered = map[int]AnswerRecord{}
		g.Sections[i].Score = 0
	}
	g.ActiveSection = 0
	g.CurrentQuestion = 0
	g.Complete = false
	g.clearSelection()
}

// Score sums the section scores.
func (g *Group) Score() int {
	total := 0
	for _, s := range g.Sections {
		total += s.Score
	}
	return total
}

// AnsweredIndices lists answered indices of the active section.
func (g *Group) AnsweredIndices() []int { return g.section().AnsweredIndices() }

func (g *Group) clone() *Group {
	c := *g
	c.Sections = make([]Section, len(g.Sections))
	for i, s := range g.Sections {
		s.Answered = make(map[int]AnswerRecord, len(g.Sections[i].Answered))
		for k, v := range g.Sections[i].Answered {
			s.Answered[k] = v
		}
		c.Sections[i] = s
	}
	if g.Selected != nil {
		a := *g.Selected
		c.Selected = &a
	}
	if g.SelectedIndex != nil {
		i := *g.SelectedIndex
		c.SelectedIndex = &i
	}
	return &c
}

// SessionState is the serializable form of a quiz session.
type SessionState struct {
	ID          string     `json:"id"`
	ExamID      string     `json:"examId"`
	LearnerID   string     `json:"learnerId"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Groups      []*Group   `json:"groups"`
}

// QuizSession composes one independent group per non-empty exam block, in block order.
type QuizSession struct {
	mu    sync.Mutex
	state SessionState
}

// NewQuizSession starts a session for learnerID over exam.
func NewQuizSession(exam domain.Exam, learnerID string, now time.Time) *QuizSession {
	st := SessionState{ID: domain.NewID(), ExamID: exam.ID, LearnerID: learnerID, StartedAt: now}
	for _, b := range exam.Blocks {
		if g, ok := NewGroup(b); ok {
			st.Groups = append(st.Groups, g)
		}
	}
	return &QuizSession{state: st}
}

// RestoreQuizSession rebuilds a session from stored state.
func RestoreQuizSession(st SessionState) *QuizSession {
	for _, g := range st.Groups {
		for i := range g.Sections {
			if g.Sections[i].Answered == nil {
				g.Sections[i].Answered = map[int]AnswerRecord{}
			}
		}
	}
	return &QuizSession{state: st}
}

func (s *QuizSession) ID() string { return s.state.ID }

func (s *QuizSession) ExamID() string { return s.state.ExamID }

func (s *QuizSession) LearnerID() string { return s.state.LearnerID }

// State returns a deep copy of the session state.
func (s *QuizSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Groups = make([]*Group, len(s.state.Groups))
	for i, g := range s.state.Groups {
		st.Groups[i] = g.clone()
	}
	if s.state.CompletedAt != nil {
		t := *s.state.CompletedAt
		st.CompletedAt = &t
	}
	return st
}

// withGroup runs fn against group i under the session lock.
func (s *QuizSession) withGroup(i int, fn func(g *Group) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.CompletedAt != nil {
		return errSessionFinished
	}
	if i < 0 || i >= len(s.state.Groups) {
		return errGroupRange
	}
	return fn(s.state.Groups[i])
}

func (s *QuizSession) SelectAnswer(group, option int) error {
	return s.withGroup(group, func(g *Group) error {
		g.SelectAnswer(option)
		return nil
	})
}

func (s *QuizSession) SelectText(group int, text string) error {
	return s.withGroup(group, func(g *Group) error {
		g.SelectText(text)
		return nil
	})
}

func (s *QuizSession) Submit(group int) (domain.AnswerResult, error) {
	var res domain.AnswerResult
	err := s.withGroup(group, func(g *Group) error {
		var err error
		res, err = g.Submit()
		return err
	})
	return res, err
}

func (s *QuizSession) Next(group int) error {
	return s.withGroup(group, func(g *Group) error {
		g.Next()
		return nil
	})
}

func (s *QuizSession) JumpTo(group, question int) error {
	return s.withGroup(group, func(g *Group) error { return g.JumpTo(question) })
}

func (s *QuizSession) SwitchSection(group, section int) error {
	return s.withGroup(group, func(g *Group) error { return g.SwitchSection(section) })
}

func (s *QuizSession) Restart(group int) error {
	return s.withGroup(group, func(g *Group) error {
		g.Restart()
		return nil
	})
}

// Finish stamps the completion time. Later transitions are rejected.
func (s *QuizSession) Finish(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.CompletedAt == nil {
		s.state.CompletedAt = &now
	}
}

// Complete reports whether every group has been passed through.
func (s *QuizSession) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.state.Groups {
		if !g.Complete {
			return false
		}
	}
	return true
}

// Answers lists the first graded result of every answered question, in exam order.
func (s *QuizSession) Answers() []QuestionAnswer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []QuestionAnswer
	for _, g := range s.state.Groups {
		for _, sec := range g.Sections {
			for _, i := range sec.AnsweredIndices() {
				rec := sec.Answered[i]
				q := sec.Questions[i]
				out = append(out, QuestionAnswer{
					QuestionID: q.ID,
					Answer:     rec.Answer,
					Result:     rec.Result,
					MaxPoints:  q.Points,
				})
			}
		}
	}
	return out
}

// ScoreInput prepares CalculateScore input from the session.
func (s *QuizSession) ScoreInput() CalculateScoreInput {
	st := s.State()
	return CalculateScoreInput{
		ExamID:      st.ExamID,
		Answers:     s.Answers(),
		StartedAt:   st.StartedAt,
		CompletedAt: st.CompletedAt,
	}
}
