package domain

import (
	"fmt"
	"time"
)

// QuestionType discriminates how a question is answered and graded.
type QuestionType string

const (
	QuestionMCQ        QuestionType = "mcq"
	QuestionTrueFalse  QuestionType = "true_false"
	QuestionEssay      QuestionType = "essay"
	QuestionFillBlank  QuestionType = "fill_blank"
	QuestionMatching   QuestionType = "matching"
	QuestionParsing    QuestionType = "parsing"
	QuestionExtraction QuestionType = "extraction"
)

// QuestionTypes lists every recognized type in display order.
var QuestionTypes = []QuestionType{
	QuestionMCQ, QuestionTrueFalse, QuestionFillBlank, QuestionMatching,
	QuestionParsing, QuestionExtraction, QuestionEssay,
}

func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// AutoGradable reports whether answers can be compared to a stored option id.
func (t QuestionType) AutoGradable() bool {
	return t == QuestionMCQ || t == QuestionTrueFalse
}

// Manual reports whether the type is inherently graded by a person.
func (t QuestionType) Manual() bool {
	return t == QuestionEssay || t == QuestionParsing || t == QuestionExtraction
}

var questionTypeLabels = map[QuestionType]LangText{
	QuestionMCQ:        {"ar": "اختيار متعدد", "en": "Multiple choice"},
	QuestionTrueFalse:  {"ar": "صح/خطأ", "en": "True/False"},
	QuestionEssay:      {"ar": "مقالي", "en": "Essay"},
	QuestionFillBlank:  {"ar": "أكمل الفراغ", "en": "Fill in the blank"},
	QuestionMatching:   {"ar": "مطابقة", "en": "Matching"},
	QuestionParsing:    {"ar": "إعراب", "en": "Parsing"},
	QuestionExtraction: {"ar": "استخراج", "en": "Extraction"},
}

// Label returns the display name of the type in lang, or the raw type when unknown.
func (t QuestionType) Label(lang string) string {
	if l, ok := questionTypeLabels[t]; ok {
		return l.Text(lang)
	}
	return string(t)
}

// Difficulty is the authored difficulty of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

var difficultyLabels = map[Difficulty]LangText{
	DifficultyEasy:   {"ar": "سهل", "en": "Easy"},
	DifficultyMedium: {"ar": "متوسط", "en": "Medium"},
	DifficultyHard:   {"ar": "صعب", "en": "Hard"},
}

func (d Difficulty) Label(lang string) string {
	if l, ok := difficultyLabels[d]; ok {
		return l.Text(lang)
	}
	return string(d)
}

// Color is a presentation hint.
func (d Difficulty) Color() string {
	switch d {
	case DifficultyEasy:
		return "green"
	case DifficultyMedium:
		return "yellow"
	case DifficultyHard:
		return "red"
	default:
		return "gray"
	}
}

// Option is a candidate answer. Correct is an authoring convenience; grading uses CorrectOptionID.
type Option struct {
	ID      string   `json:"id"`
	Text    LangText `json:"text"`
	Correct bool     `json:"isCorrect,omitempty"`
}

// Media references an attachment shown with the prompt.
type Media struct {
	ImageURL string `json:"imageUrl,omitempty"`
	VideoURL string `json:"videoUrl,omitempty"`
	AudioURL string `json:"audioUrl,omitempty"`
}

// Metadata carries type-specific authoring data.
type Metadata struct {
	UnderlinedWord   string            `json:"underlinedWord,omitempty"`
	BlankText        LangText          `json:"blankText,omitempty"`
	ExtractionTarget string            `json:"extractionTarget,omitempty"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// Question is immutable once constructed; edits go through QuestionPatch.Apply.
type Question struct {
	ID              string       `json:"id"`
	Type            QuestionType `json:"type"`
	Text            LangText     `json:"text"`
	Options         []Option     `json:"options"`
	CorrectOptionID string       `json:"correctOptionId,omitempty"`
	CorrectAnswer   string       `json:"correctAnswer,omitempty"`
	Points          float64      `json:"points"`
	Difficulty      Difficulty   `json:"difficulty"`
	OrderIndex      int          `json:"orderIndex"`

	Media        *Media     `json:"media,omitempty"`
	Hint         LangText   `json:"hint,omitempty"`
	Explanation  LangText   `json:"explanation,omitempty"`
	SectionTitle LangText   `json:"sectionTitle,omitempty"`
	Metadata     *Metadata  `json:"metadata,omitempty"`
	Reference    *Reference `json:"reference,omitempty"` // shared material of the question's group
	LessonID     string     `json:"lessonId,omitempty"`
	StageID      string     `json:"stageId,omitempty"`
	SubjectID    string     `json:"subjectId,omitempty"`
	GroupID      string     `json:"groupId,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Active       bool       `json:"isActive"`
	CreatedBy    string     `json:"createdBy,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// QuestionParams feeds NewQuestion. Zero values take defaults.
type QuestionParams struct {
	ID              string
	Type            QuestionType
	Text            LangText
	Options         []Option
	CorrectOptionID string
	CorrectAnswer   string
	Points          float64
	Difficulty      Difficulty
	OrderIndex      int
	Media           *Media
	Hint            LangText
	Explanation     LangText
	SectionTitle    LangText
	Metadata        *Metadata
	Reference       *Reference
	LessonID        string
	StageID         string
	SubjectID       string
	GroupID         string
	Tags            []string
	Inactive        bool
	CreatedBy       string
}

// NewQuestion builds a question with defaults applied: generated id, 1 point, medium difficulty,
// active, and a correct option id taken from the option flagged correct when none is given.
func NewQuestion(p QuestionParams, now time.Time) Question {
	q := Question{
		ID:              p.ID,
		Type:            p.Type,
		Text:            p.Text,
		Options:         append([]Option(nil), p.Options...),
		CorrectOptionID: p.CorrectOptionID,
		CorrectAnswer:   p.CorrectAnswer,
		Points:          p.Points,
		Difficulty:      p.Difficulty,
		OrderIndex:      p.OrderIndex,
		Media:           p.Media,
		Hint:            p.Hint,
		Explanation:     p.Explanation,
		SectionTitle:    p.SectionTitle,
		Metadata:        p.Metadata,
		Reference:       p.Reference,
		LessonID:        p.LessonID,
		StageID:         p.StageID,
		SubjectID:       p.SubjectID,
		GroupID:         p.GroupID,
		Tags:            append([]string(nil), p.Tags...),
		Active:          !p.Inactive,
		CreatedBy:       p.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return q.Normalize(now)
}

// Normalize fills the defaults NewQuestion applies: ids for the question and its options, 1 point,
// medium difficulty, timestamps, and a correct option id taken from the option flagged correct.
func (q Question) Normalize(now time.Time) Question {
	if q.ID == "" {
		q.ID = NewID()
	}
	if len(q.Options) > 0 {
		opts := make([]Option, len(q.Options))
		for i, opt := range q.Options {
			if opt.ID == "" {
				opt.ID = NewID()
			}
			opts[i] = opt
		}
		q.Options = opts
	}
	if q.Points <= 0 {
		q.Points = 1
	}
	if q.Difficulty == "" {
		q.Difficulty = DifficultyMedium
	}
	if q.CorrectOptionID == "" && q.Type.AutoGradable() {
		for _, opt := range q.Options {
			if opt.Correct {
				q.CorrectOptionID = opt.ID
				break
			}
		}
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	if q.UpdatedAt.IsZero() {
		q.UpdatedAt = now
	}
	return q
}

// Validate checks the structural invariants of a question.
func (q Question) Validate() error {
	if q.ID == "" {
		return NewError(CodeValidation, "question id is required")
	}
	if !q.Type.Valid() {
		return NewError(CodeValidation, fmt.Sprintf("question %s: unknown type %q", q.ID, q.Type))
	}
	if q.Text.IsEmpty() {
		return NewError(CodeValidation, fmt.Sprintf("question %s: text is required", q.ID))
	}
	if q.Points <= 0 {
		return NewError(CodeValidation, fmt.Sprintf("question %s: points must be positive", q.ID))
	}
	if q.Type.AutoGradable() {
		if q.CorrectOptionID == "" {
			return NewError(CodeValidation, fmt.Sprintf("question %s: correct option is required", q.ID))
		}
		if q.OptionIndex(q.CorrectOptionID) < 0 {
			return NewError(CodeValidation, fmt.Sprintf("question %s: correct option %q is not among options", q.ID, q.CorrectOptionID))
		}
	}
	return nil
}

func (q Question) IsAutoGradable() bool { return q.Type.AutoGradable() }

// RequiresManualGrading reports whether grading is deferred to a reviewer. Types without an
// automatic rule (fill_blank, matching) are manual as well.
func (q Question) RequiresManualGrading() bool { return !q.Type.AutoGradable() }

func (q Question) HasMedia() bool { return q.Media != nil }

// OptionIndex returns the position of the option with id, or -1.
func (q Question) OptionIndex(id string) int {
	for i, opt := range q.Options {
		if opt.ID == id {
			return i
		}
	}
	return -1
}

// CorrectOption returns the option referenced by CorrectOptionID.
func (q Question) CorrectOption() (Option, bool) {
	if q.CorrectOptionID == "" {
		return Option{}, false
	}
	if i := q.OptionIndex(q.CorrectOptionID); i >= 0 {
		return q.Options[i], true
	}
	return Option{}, false
}

// CorrectIndex is the position of the correct option, or -1.
func (q Question) CorrectIndex() int {
	if q.CorrectOptionID == "" {
		return -1
	}
	return q.OptionIndex(q.CorrectOptionID)
}

func (q Question) TypeLabel(lang string) string { return q.Type.Label(lang) }

func (q Question) DifficultyLabel(lang string) string { return q.Difficulty.Label(lang) }

func (q Question) DifficultyColor() string { return q.Difficulty.Color() }

// QuestionPatch is a partial update; nil fields are left unchanged.
type QuestionPatch struct {
	Type            *QuestionType `json:"type,omitempty"`
	Text            LangText      `json:"text,omitempty"`
	Options         []Option      `json:"options,omitempty"`
	CorrectOptionID *string       `json:"correctOptionId,omitempty"`
	CorrectAnswer   *string       `json:"correctAnswer,omitempty"`
	Points          *float64      `json:"points,omitempty"`
	Difficulty      *Difficulty   `json:"difficulty,omitempty"`
	OrderIndex      *int          `json:"orderIndex,omitempty"`
	Hint            LangText      `json:"hint,omitempty"`
	Explanation     LangText      `json:"explanation,omitempty"`
	GroupID         *string       `json:"groupId,omitempty"`
	Tags            []string      `json:"tags,omitempty"`
	Active          *bool         `json:"isActive,omitempty"`
}

// Apply returns a copy of q with the patch applied and UpdatedAt set to now.
func (p QuestionPatch) Apply(q Question, now time.Time) Question {
	if p.Type != nil {
		q.Type = *p.Type
	}
	if p.Text != nil {
		q.Text = p.Text
	}
	if p.Options != nil {
		q.Options = append([]Option(nil), p.Options...)
	}
	if p.CorrectOptionID != nil {
		q.CorrectOptionID = *p.CorrectOptionID
	}
	if p.CorrectAnswer != nil {
		q.CorrectAnswer = *p.CorrectAnswer
	}
	if p.Points != nil {
		q.Points = *p.Points
	}
	if p.Difficulty != nil {
		q.Difficulty = *p.Difficulty
	}
	if p.OrderIndex != nil {
		q.OrderIndex = *p.OrderIndex
	}
	if p.Hint != nil {
		q.Hint = p.Hint
	}
	if p.Explanation != nil {
		q.Explanation = p.Explanation
	}
	if p.GroupID != nil {
		q.GroupID = *p.GroupID
	}
	if p.Tags != nil {
		q.Tags = append([]string(nil), p.Tags...)
	}
	if p.Active != nil {
		q.Active = *p.Active
	}
	q.UpdatedAt = now
	return q
}
