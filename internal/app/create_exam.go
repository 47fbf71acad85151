package app

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"assessment-service/internal/domain"
)

const minTitleLength = 3

// CreateExamInput carries an authoring request. Nil pointers mean "not supplied".
type CreateExamInput struct {
	Title         string                   `json:"title"`
	Description   string                   `json:"description"`
	Language      domain.Language          `json:"language"`
	TotalPoints   *float64                 `json:"totalPoints,omitempty"`
	PassingScore  *float64                 `json:"passingScore,omitempty"`
	Blocks        []domain.Block           `json:"blocks,omitempty"`
	Settings      domain.SettingsOverrides `json:"settings"`
	Status        domain.ExamStatus        `json:"status,omitempty"`
	IsTeacherExam bool                     `json:"isTeacherExam"`
	StageID       string                   `json:"stageId,omitempty"`
	SubjectID     string                   `json:"subjectId,omitempty"`
	TeacherID     string                   `json:"teacherId,omitempty"`
	CreatedBy     string                   `json:"createdBy"`
}

// CreateExamOutput is the persisted exam plus a display message.
type CreateExamOutput struct {
	Exam    domain.Exam `json:"exam"`
	Message string      `json:"message"`
}

// CreateExam validates authoring input and persists a new draft exam.
type CreateExam struct {
	exams ExamRepository
	log   zerolog.Logger
	now   func() time.Time
}

func NewCreateExam(exams ExamRepository, log zerolog.Logger) *CreateExam {
	return &CreateExam{exams: exams, log: log, now: time.Now}
}

// WithClock overrides the clock used for timestamps.
func (uc *CreateExam) WithClock(now func() time.Time) *CreateExam {
	uc.now = now
	return uc
}

func (uc *CreateExam) Execute(ctx context.Context, in CreateExamInput) (CreateExamOutput, error) {
	if err := validateCreateExam(in); err != nil {
		return CreateExamOutput{}, err
	}
	now := uc.now()
	blocks, err := normalizeBlocks(in.Blocks, now)
	if err != nil {
		return CreateExamOutput{}, err
	}

	exam := buildExam(in, blocks, now)
	if exam.PassingScore > exam.TotalPoints {
		uc.log.Warn().
			Float64("passingScore", exam.PassingScore).
			Float64("totalPoints", exam.TotalPoints).
			Str("title", exam.Title).
			Msg("passing score exceeds total points")
	}

	saved, err := uc.exams.Create(ctx, exam)
	if err != nil {
		return CreateExamOutput{}, err
	}
	return CreateExamOutput{Exam: saved, Message: domain.Message(domain.MsgExamCreated, domain.LanguageArabic)}, nil
}

func validateCreateExam(in CreateExamInput) error {
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return domain.NewError(domain.CodeValidation, "exam title is required")
	case utf8.RuneCountInString(title) < minTitleLength:
		return domain.NewError(domain.CodeValidation, "exam title must be at least 3 characters")
	case in.Language == "":
		return domain.NewError(domain.CodeValidation, "language is required")
	case !in.Language.Valid():
		return domain.NewError(domain.CodeValidation, "language is invalid")
	case strings.TrimSpace(in.CreatedBy) == "":
		return domain.NewError(domain.CodeValidation, "creator id is required")
	case in.PassingScore != nil && *in.PassingScore < 0:
		return domain.NewError(domain.CodeValidation, "passing score must not be negative")
	}
	return nil
}

// normalizeBlocks gives every block, question and option an id, applies question defaults and
// validates each question. Question ids must be unique across the exam.
func normalizeBlocks(in []domain.Block, now time.Time) ([]domain.Block, error) {
	seen := make(map[string]bool)
	check := func(q domain.Question) (domain.Question, error) {
		q = q.Normalize(now)
		if err := q.Validate(); err != nil {
			return domain.Question{}, err
		}
		if seen[q.ID] {
			return domain.Question{}, domain.NewError(domain.CodeValidation, "duplicate question id: "+q.ID)
		}
		seen[q.ID] = true
		return q, nil
	}

	out := make([]domain.Block, len(in))
	for i, b := range in {
		if b.ID == "" {
			b.ID = domain.NewID()
		}
		if len(b.Questions) > 0 {
			qs := make([]domain.Question, len(b.Questions))
			for j, q := range b.Questions {
				var err error
				if qs[j], err = check(q); err != nil {
					return nil, err
				}
			}
			b.Questions = qs
		}
		if len(b.Subsections) > 0 {
			subs := make([]domain.Subsection, len(b.Subsections))
			for j, sub := range b.Subsections {
				qs := make([]domain.Question, len(sub.Questions))
				for k, q := range sub.Questions {
					if q.Type == "" {
						q.Type = sub.Type
					}
					var err error
					if qs[k], err = check(q); err != nil {
						return nil, err
					}
				}
				sub.Questions = qs
				subs[j] = sub
			}
			b.Subsections = subs
		}
		out[i] = b
	}
	return out, nil
}

func buildExam(in CreateExamInput, blocks []domain.Block, now time.Time) domain.Exam {
	total := domain.SumPoints(blocks)
	if in.TotalPoints != nil {
		total = *in.TotalPoints
	}
	var passing float64
	if in.PassingScore != nil {
		passing = *in.PassingScore
	}
	status := in.Status
	if status == "" {
		status = domain.ExamStatusDraft
	}
	if blocks == nil {
		blocks = []domain.Block{}
	}
	return domain.Exam{
		ID:            domain.NewID(),
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Language:      in.Language,
		TotalPoints:   total,
		PassingScore:  passing,
		Blocks:        blocks,
		Settings:      in.Settings.Merge(domain.DefaultSettings()),
		Status:        status,
		IsTeacherExam: in.IsTeacherExam,
		CreatedBy:     in.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
		StageID:       in.StageID,
		SubjectID:     in.SubjectID,
		TeacherID:     in.TeacherID,
	}
}
