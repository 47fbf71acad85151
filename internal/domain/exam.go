package domain

import (
	"math"
	"time"
)

// Language is the source-of-truth language of an exam shell.
type Language string

const (
	LanguageArabic  Language = "arabic"
	LanguageEnglish Language = "english"
)

func (l Language) Valid() bool {
	return l == LanguageArabic || l == LanguageEnglish
}

// Code is the LangText key for the language.
func (l Language) Code() string {
	if l == LanguageEnglish {
		return "en"
	}
	return "ar"
}

// ExamStatus governs whether edits are permitted by external policy.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "draft"
	ExamStatusPublished ExamStatus = "published"
	ExamStatusArchived  ExamStatus = "archived"
)

func (s ExamStatus) Valid() bool {
	return s == ExamStatusDraft || s == ExamStatusPublished || s == ExamStatusArchived
}

// Settings configures exam delivery.
type Settings struct {
	ShuffleQuestions   bool `json:"shuffleQuestions"`
	ShuffleOptions     bool `json:"shuffleOptions"`
	AllowBack          bool `json:"allowBack"`
	TotalTimeMinutes   *int `json:"totalTimeMinutes,omitempty"`
	PassScore          int  `json:"passScore"`
	ShowResults        bool `json:"showResults"`
	ShowCorrectAnswers bool `json:"showCorrectAnswers"`
}

// DefaultSettings are applied to every new exam before caller overrides.
func DefaultSettings() Settings {
	return Settings{
		ShuffleQuestions:   false,
		ShuffleOptions:     false,
		AllowBack:          true,
		PassScore:          60,
		ShowResults:        true,
		ShowCorrectAnswers: true,
	}
}

// SettingsOverrides carries caller-supplied settings; nil fields keep the base value.
type SettingsOverrides struct {
	ShuffleQuestions   *bool `json:"shuffleQuestions,omitempty"`
	ShuffleOptions     *bool `json:"shuffleOptions,omitempty"`
	AllowBack          *bool `json:"allowBack,omitempty"`
	TotalTimeMinutes   *int  `json:"totalTimeMinutes,omitempty"`
	PassScore          *int  `json:"passScore,omitempty"`
	ShowResults        *bool `json:"showResults,omitempty"`
	ShowCorrectAnswers *bool `json:"showCorrectAnswers,omitempty"`
}

// Merge returns base with every non-nil override applied.
func (o SettingsOverrides) Merge(base Settings) Settings {
	if o.ShuffleQuestions != nil {
		base.ShuffleQuestions = *o.ShuffleQuestions
	}
	if o.ShuffleOptions != nil {
		base.ShuffleOptions = *o.ShuffleOptions
	}
	if o.AllowBack != nil {
		base.AllowBack = *o.AllowBack
	}
	if o.TotalTimeMinutes != nil {
		v := *o.TotalTimeMinutes
		base.TotalTimeMinutes = &v
	}
	if o.PassScore != nil {
		base.PassScore = *o.PassScore
	}
	if o.ShowResults != nil {
		base.ShowResults = *o.ShowResults
	}
	if o.ShowCorrectAnswers != nil {
		base.ShowCorrectAnswers = *o.ShowCorrectAnswers
	}
	return base
}

// ReferenceKind tells whether reference material is prose or verse.
type ReferenceKind string

const (
	ReferenceReading ReferenceKind = "reading"
	ReferencePoetry  ReferenceKind = "poetry"
)

// Verse is one line of poetry split into its two hemistichs.
type Verse struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

// Reference is non-gradable material shown before a group of questions.
type Reference struct {
	Kind   ReferenceKind `json:"kind"`
	Title  string        `json:"title,omitempty"`
	Author string        `json:"author,omitempty"`
	Text   string        `json:"text,omitempty"`
	Verses []Verse       `json:"verses,omitempty"`
}

// HasContent reports whether there is anything to display.
func (r *Reference) HasContent() bool {
	if r == nil {
		return false
	}
	if r.Kind == ReferencePoetry {
		for _, v := range r.Verses {
			if v.First != "" || v.Second != "" {
				return true
			}
		}
		return false
	}
	return r.Text != ""
}

// BlockKind is the authoring category of a block.
type BlockKind string

const (
	BlockReadingPassage BlockKind = "reading_passage"
	BlockPoetryText     BlockKind = "poetry_text"
	BlockGrammar        BlockKind = "grammar_block"
	BlockExpression     BlockKind = "expression_block"
	BlockStandard       BlockKind = "standard"
)

// Subsection groups a block's questions of one type.
type Subsection struct {
	Type      QuestionType `json:"type"`
	Title     LangText     `json:"title,omitempty"`
	Questions []Question   `json:"questions"`
}

// Block is one content section of an exam.
type Block struct {
	ID          string       `json:"id"`
	Kind        BlockKind    `json:"kind"`
	Title       LangText     `json:"title,omitempty"`
	Order       int          `json:"order"`
	Reference   *Reference   `json:"reference,omitempty"`
	Questions   []Question   `json:"questions,omitempty"`
	Subsections []Subsection `json:"subsections,omitempty"`
}

// AllQuestions returns direct questions followed by subsection questions in order.
func (b Block) AllQuestions() []Question {
	out := make([]Question, 0, len(b.Questions))
	out = append(out, b.Questions...)
	for _, s := range b.Subsections {
		out = append(out, s.Questions...)
	}
	return out
}

// Points sums the weight of every question in the block.
func (b Block) Points() float64 {
	var total float64
	for _, q := range b.AllQuestions() {
		total += q.Points
	}
	return total
}

// Exam is immutable once constructed; edits produce a new value through ExamPatch.Apply.
type Exam struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Language      Language   `json:"language"`
	TotalPoints   float64    `json:"totalPoints"`
	PassingScore  float64    `json:"passingScore"`
	Blocks        []Block    `json:"blocks"`
	Settings      Settings   `json:"settings"`
	Status        ExamStatus `json:"status"`
	IsTeacherExam bool       `json:"isTeacherExam"`
	CreatedBy     string     `json:"createdBy"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	StageID       string     `json:"stageId,omitempty"`
	SubjectID     string     `json:"subjectId,omitempty"`
	TeacherID     string     `json:"teacherId,omitempty"`
}

// SumPoints totals every question weight across blocks.
func SumPoints(blocks []Block) float64 {
	var total float64
	for _, b := range blocks {
		total += b.Points()
	}
	return total
}

func (e Exam) IsPublished() bool { return e.Status == ExamStatusPublished }

func (e Exam) IsArchived() bool { return e.Status == ExamStatusArchived }

// Questions flattens every question in block order.
func (e Exam) Questions() []Question {
	var out []Question
	for _, b := range e.Blocks {
		out = append(out, b.AllQuestions()...)
	}
	return out
}

// FindQuestion looks up a question anywhere in the exam.
func (e Exam) FindQuestion(id string) (Question, bool) {
	for _, q := range e.Questions() {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

func (e Exam) TotalQuestions() int { return len(e.Questions()) }

// MaxScore is the denominator for percentages.
func (e Exam) MaxScore() float64 { return e.TotalPoints }

func (e Exam) IsTimed() bool {
	return e.Settings.TotalTimeMinutes != nil && *e.Settings.TotalTimeMinutes > 0
}

// TimeInMinutes returns the configured limit and whether one is set.
func (e Exam) TimeInMinutes() (int, bool) {
	if e.Settings.TotalTimeMinutes == nil {
		return 0, false
	}
	return *e.Settings.TotalTimeMinutes, true
}

func (e Exam) AllowSkipping() bool { return e.Settings.AllowBack }

func (e Exam) ShowInstantFeedback() bool { return e.Settings.ShowCorrectAnswers }

// PassingPercentage expresses PassingScore relative to TotalPoints.
func (e Exam) PassingPercentage() float64 {
	if e.TotalPoints == 0 {
		return 0
	}
	return e.PassingScore / e.TotalPoints * 100
}

func (e Exam) IsPassing(score float64) bool { return score >= e.PassingScore }

// CalculatePercentage rounds score/MaxScore to a whole percent; 0 when MaxScore is 0.
func (e Exam) CalculatePercentage(score float64) int {
	if e.TotalPoints == 0 {
		return 0
	}
	return int(math.Round(score / e.TotalPoints * 100))
}

func (e Exam) Grade(score float64) Grade { return GradeFor(e.CalculatePercentage(score)) }

// ExamPatch is a partial update; nil fields are left unchanged.
type ExamPatch struct {
	Title         *string            `json:"title,omitempty"`
	Description   *string            `json:"description,omitempty"`
	Language      *Language          `json:"language,omitempty"`
	TotalPoints   *float64           `json:"totalPoints,omitempty"`
	PassingScore  *float64           `json:"passingScore,omitempty"`
	Blocks        []Block            `json:"blocks,omitempty"`
	Settings      *SettingsOverrides `json:"settings,omitempty"`
	Status        *ExamStatus        `json:"status,omitempty"`
	IsTeacherExam *bool              `json:"isTeacherExam,omitempty"`
	StageID       *string            `json:"stageId,omitempty"`
	SubjectID     *string            `json:"subjectId,omitempty"`
	TeacherID     *string            `json:"teacherId,omitempty"`
}

// Apply returns a copy of e with the patch applied. Replacing blocks without an explicit
// total re-derives TotalPoints.
func (p ExamPatch) Apply(e Exam, now time.Time) Exam {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Language != nil {
		e.Language = *p.Language
	}
	if p.Blocks != nil {
		e.Blocks = append([]Block(nil), p.Blocks...)
		if p.TotalPoints == nil {
			e.TotalPoints = SumPoints(e.Blocks)
		}
	}
	if p.TotalPoints != nil {
		e.TotalPoints = *p.TotalPoints
	}
	if p.PassingScore != nil {
		e.PassingScore = *p.PassingScore
	}
	if p.Settings != nil {
		e.Settings = p.Settings.Merge(e.Settings)
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.IsTeacherExam != nil {
		e.IsTeacherExam = *p.IsTeacherExam
	}
	if p.StageID != nil {
		e.StageID = *p.StageID
	}
	if p.SubjectID != nil {
		e.SubjectID = *p.SubjectID
	}
	if p.TeacherID != nil {
		e.TeacherID = *p.TeacherID
	}
	e.UpdatedAt = now
	return e
}
