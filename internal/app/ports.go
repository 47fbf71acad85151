package app

import (
	"context"

	"assessment-service/internal/domain"
)

// ExamRepository abstracts exam persistence (in-memory, Postgres).
// Every error it returns is a *domain.Error.
type ExamRepository interface {
	FindByID(ctx context.Context, id string) (domain.Exam, error)
	FindAll(ctx context.Context, filters domain.ExamFilters) ([]domain.Exam, error)
	Create(ctx context.Context, exam domain.Exam) (domain.Exam, error)
	Update(ctx context.Context, id string, patch domain.ExamPatch) (domain.Exam, error)
	Delete(ctx context.Context, id string) error
	FindBySubject(ctx context.Context, subjectID string) ([]domain.Exam, error)
	FindByStage(ctx context.Context, stageID string) ([]domain.Exam, error)
	FindByTeacher(ctx context.Context, teacherID string) ([]domain.Exam, error)
	FindPublished(ctx context.Context, filters domain.ExamFilters) ([]domain.Exam, error)
	UpdateStatus(ctx context.Context, id string, status domain.ExamStatus) (domain.Exam, error)
	Publish(ctx context.Context, id string) (domain.Exam, error)
	Archive(ctx context.Context, id string) (domain.Exam, error)
	Stats(ctx context.Context) (domain.ExamStats, error)
	Count(ctx context.Context, filters domain.ExamFilters) (int, error)
}

// QuestionRepository abstracts question bank persistence.
type QuestionRepository interface {
	FindByID(ctx context.Context, id string) (domain.Question, error)
	FindAll(ctx context.Context, filters domain.QuestionFilters) ([]domain.Question, error)
	Create(ctx context.Context, q domain.Question) (domain.Question, error)
	CreateMany(ctx context.Context, qs []domain.Question) ([]domain.Question, error)
	Update(ctx context.Context, id string, patch domain.QuestionPatch) (domain.Question, error)
	UpdateMany(ctx context.Context, patches map[string]domain.QuestionPatch) ([]domain.Question, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
	FindByLesson(ctx context.Context, lessonID string) ([]domain.Question, error)
	FindBySubject(ctx context.Context, subjectID string) ([]domain.Question, error)
	FindByStage(ctx context.Context, stageID string) ([]domain.Question, error)
	FindByGroup(ctx context.Context, groupID string) ([]domain.Question, error)
	Search(ctx context.Context, query string, filters domain.QuestionFilters) ([]domain.Question, error)
	Groups(ctx context.Context, lessonID string) ([]domain.QuestionGroup, error)
	DeleteGroup(ctx context.Context, groupID string) error
	Stats(ctx context.Context, filters domain.QuestionFilters) (domain.QuestionStats, error)
	Count(ctx context.Context, filters domain.QuestionFilters) (int, error)
}

// AnswerLedger records the first graded answer per (attemptID, questionID).
// Insert must be atomic: when two callers race on the same key exactly one gets true.
type AnswerLedger interface {
	Insert(ctx context.Context, attemptID, questionID string, out SubmitAnswerOutput) (bool, error)
	Get(ctx context.Context, attemptID, questionID string) (SubmitAnswerOutput, bool, error)
	Clear(ctx context.Context, attemptID string) error
}

// ExamReader loads exam content, usually through a cache in front of ExamRepository.
type ExamReader interface {
	GetExam(ctx context.Context, examID string) (domain.Exam, error)
}

// ExamCache is an ExamReader whose entries can be dropped after an edit.
type ExamCache interface {
	ExamReader
	Invalidate(ctx context.Context, examID string) error
}

// SessionRepository abstracts where live quiz sessions are kept (in-memory, Redis).
// Get returns domain.ErrSessionNotFound for unknown ids.
type SessionRepository interface {
	Save(ctx context.Context, s *QuizSession) error
	Get(ctx context.Context, sessionID string) (*QuizSession, error)
	Delete(ctx context.Context, sessionID string) error
}

// ResultPublisher announces scored attempts to other services.
type ResultPublisher interface {
	PublishScored(ctx context.Context, event AttemptScored) error
}
