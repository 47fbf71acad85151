package domain

import (
	"sort"
	"strings"
)

// SortDirection orders a listing.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort selects the listing order. Field names follow the JSON field names of the entity.
type Sort struct {
	Field     string        `json:"field,omitempty" form:"sortBy"`
	Direction SortDirection `json:"direction,omitempty" form:"sortOrder"`
}

// Page bounds a listing. Limit 0 means unbounded.
type Page struct {
	Limit  int `json:"limit,omitempty" form:"limit"`
	Offset int `json:"offset,omitempty" form:"offset"`
}

// Bounds returns the [start, end) window of a listing of n items.
func (p Page) Bounds(n int) (int, int) {
	start := p.Offset
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end := n
	if p.Limit > 0 && start+p.Limit < n {
		end = start + p.Limit
	}
	return start, end
}

// ExamFilters narrows exam listings. Empty fields do not filter.
type ExamFilters struct {
	Language      Language   `json:"language,omitempty" form:"language"`
	Status        ExamStatus `json:"status,omitempty" form:"status"`
	StageID       string     `json:"stageId,omitempty" form:"stageId"`
	SubjectID     string     `json:"subjectId,omitempty" form:"subjectId"`
	TeacherID     string     `json:"teacherId,omitempty" form:"teacherId"`
	IsTeacherExam *bool      `json:"isTeacherExam,omitempty" form:"isTeacherExam"`
	Search        string     `json:"search,omitempty" form:"search"`
	Page          Page       `json:"page"`
	Sort          Sort       `json:"sort"`
}

// Match reports whether e passes every populated filter.
func (f ExamFilters) Match(e Exam) bool {
	if f.Language != "" && e.Language != f.Language {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.StageID != "" && e.StageID != f.StageID {
		return false
	}
	if f.SubjectID != "" && e.SubjectID != f.SubjectID {
		return false
	}
	if f.TeacherID != "" && e.TeacherID != f.TeacherID {
		return false
	}
	if f.IsTeacherExam != nil && e.IsTeacherExam != *f.IsTeacherExam {
		return false
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		s = strings.ToLower(s)
		if !strings.Contains(strings.ToLower(e.Title), s) && !strings.Contains(strings.ToLower(e.Description), s) {
			return false
		}
	}
	return true
}

// SortExams orders exams in place. Default order is createdAt descending.
func SortExams(exams []Exam, s Sort) {
	desc := s.Direction != SortAsc
	less := func(a, b Exam) bool {
		switch s.Field {
		case "title":
			return a.Title < b.Title
		case "updatedAt":
			return a.UpdatedAt.Before(b.UpdatedAt)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(exams, func(i, j int) bool {
		if desc {
			return less(exams[j], exams[i])
		}
		return less(exams[i], exams[j])
	})
}

// QuestionFilters narrows question listings. Empty fields do not filter.
type QuestionFilters struct {
	LessonID   string       `json:"lessonId,omitempty" form:"lessonId"`
	StageID    string       `json:"stageId,omitempty" form:"stageId"`
	SubjectID  string       `json:"subjectId,omitempty" form:"subjectId"`
	GroupID    string       `json:"groupId,omitempty" form:"groupId"`
	Type       QuestionType `json:"type,omitempty" form:"type"`
	Difficulty Difficulty   `json:"difficulty,omitempty" form:"difficulty"`
	Tags       []string     `json:"tags,omitempty" form:"tags"`
	IsActive   *bool        `json:"isActive,omitempty" form:"isActive"`
	CreatedBy  string       `json:"createdBy,omitempty" form:"createdBy"`
	Search     string       `json:"search,omitempty" form:"search"`
	Page       Page         `json:"page"`
	Sort       Sort         `json:"sort"`
}

// Match reports whether q passes every populated filter. Tags match when q carries all of them.
func (f QuestionFilters) Match(q Question) bool {
	if f.LessonID != "" && q.LessonID != f.LessonID {
		return false
	}
	if f.StageID != "" && q.StageID != f.StageID {
		return false
	}
	if f.SubjectID != "" && q.SubjectID != f.SubjectID {
		return false
	}
	if f.GroupID != "" && q.GroupID != f.GroupID {
		return false
	}
	if f.Type != "" && q.Type != f.Type {
		return false
	}
	if f.Difficulty != "" && q.Difficulty != f.Difficulty {
		return false
	}
	if f.IsActive != nil && q.Active != *f.IsActive {
		return false
	}
	if f.CreatedBy != "" && q.CreatedBy != f.CreatedBy {
		return false
	}
	for _, tag := range f.Tags {
		if !containsString(q.Tags, tag) {
			return false
		}
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		s = strings.ToLower(s)
		found := false
		for _, text := range q.Text {
			if strings.Contains(strings.ToLower(text), s) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

var difficultyRank = map[Difficulty]int{DifficultyEasy: 0, DifficultyMedium: 1, DifficultyHard: 2}

// SortQuestions orders questions in place. Default order is orderIndex ascending.
func SortQuestions(qs []Question, s Sort) {
	field := s.Field
	if field == "" {
		field = "orderIndex"
	}
	desc := s.Direction == SortDesc
	less := func(a, b Question) bool {
		switch field {
		case "createdAt":
			return a.CreatedAt.Before(b.CreatedAt)
		case "updatedAt":
			return a.UpdatedAt.Before(b.UpdatedAt)
		case "difficulty":
			return difficultyRank[a.Difficulty] < difficultyRank[b.Difficulty]
		default:
			return a.OrderIndex < b.OrderIndex
		}
	}
	sort.SliceStable(qs, func(i, j int) bool {
		if desc {
			return less(qs[j], qs[i])
		}
		return less(qs[i], qs[j])
	})
}

// ExamStats summarizes an exam store.
type ExamStats struct {
	Total      int              `json:"total"`
	Published  int              `json:"published"`
	Draft      int              `json:"draft"`
	Archived   int              `json:"archived"`
	ByLanguage map[Language]int `json:"byLanguage"`
	ByStage    map[string]int   `json:"byStage"`
}

// CollectExamStats folds exams into ExamStats.
func CollectExamStats(exams []Exam) ExamStats {
	st := ExamStats{
		ByLanguage: map[Language]int{LanguageArabic: 0, LanguageEnglish: 0},
		ByStage:    map[string]int{},
	}
	for _, e := range exams {
		st.Total++
		switch e.Status {
		case ExamStatusPublished:
			st.Published++
		case ExamStatusDraft:
			st.Draft++
		case ExamStatusArchived:
			st.Archived++
		}
		st.ByLanguage[e.Language]++
		if e.StageID != "" {
			st.ByStage[e.StageID]++
		}
	}
	return st
}

// QuestionStats summarizes a question store.
type QuestionStats struct {
	Total        int                  `json:"total"`
	Active       int                  `json:"active"`
	Inactive     int                  `json:"inactive"`
	ByType       map[QuestionType]int `json:"byType"`
	ByDifficulty map[Difficulty]int   `json:"byDifficulty"`
	ByLesson     map[string]int       `json:"byLesson"`
}

// CollectQuestionStats folds questions into QuestionStats.
func CollectQuestionStats(qs []Question) QuestionStats {
	st := QuestionStats{
		ByType:       map[QuestionType]int{},
		ByDifficulty: map[Difficulty]int{},
		ByLesson:     map[string]int{},
	}
	for _, q := range qs {
		st.Total++
		if q.Active {
			st.Active++
		} else {
			st.Inactive++
		}
		st.ByType[q.Type]++
		st.ByDifficulty[q.Difficulty]++
		if q.LessonID != "" {
			st.ByLesson[q.LessonID]++
		}
	}
	return st
}

// SectionType classifies a question group by its reference material.
type SectionType string

const (
	SectionReading  SectionType = "reading"
	SectionPoetry   SectionType = "poetry"
	SectionStandard SectionType = "standard"
)

// QuestionGroup summarizes questions sharing a group id.
type QuestionGroup struct {
	GroupID        string      `json:"groupId"`
	SectionTitle   LangText    `json:"sectionTitle,omitempty"`
	SectionType    SectionType `json:"sectionType"`
	Reference      *Reference  `json:"reference,omitempty"`
	QuestionsCount int         `json:"questionsCount"`
	TotalPoints    float64     `json:"totalPoints"`
}

// CollectGroups builds group summaries in order of first appearance. Questions without a group id are skipped.
func CollectGroups(qs []Question) []QuestionGroup {
	index := map[string]int{}
	var groups []QuestionGroup
	for _, q := range qs {
		if q.GroupID == "" {
			continue
		}
		i, ok := index[q.GroupID]
		if !ok {
			i = len(groups)
			index[q.GroupID] = i
			groups = append(groups, QuestionGroup{GroupID: q.GroupID, SectionType: SectionStandard})
		}
		g := &groups[i]
		g.QuestionsCount++
		g.TotalPoints += q.Points
		if g.SectionTitle == nil && !q.SectionTitle.IsEmpty() {
			g.SectionTitle = q.SectionTitle
		}
		if g.Reference == nil && q.Reference != nil {
			g.Reference = q.Reference
			switch q.Reference.Kind {
			case ReferenceReading:
				g.SectionType = SectionReading
			case ReferencePoetry:
				g.SectionType = SectionPoetry
			}
		}
	}
	return groups
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
