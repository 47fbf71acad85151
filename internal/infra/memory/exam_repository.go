package memory

import (
	"context"
	"sync"
	"time"

	"assessment-service/internal/domain"
)

// ExamRepository is an in-memory app.ExamRepository for tests and demos.
type ExamRepository struct {
	mu    sync.RWMutex
	exams map[string]domain.Exam
	clock func() time.Time
}

// NewExamRepository returns a repository seeded with exams.
func NewExamRepository(seed ...domain.Exam) *ExamRepository {
	r := &ExamRepository{exams: make(map[string]domain.Exam, len(seed)), clock: time.Now}
	for _, e := range seed {
		r.exams[e.ID] = e
	}
	return r
}

func (r *ExamRepository) FindByID(_ context.Context, id string) (domain.Exam, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.exams[id]
	if !ok {
		return domain.Exam{}, domain.NewError(domain.CodeNotFound, "exam not found: "+id)
	}
	return e, nil
}

func (r *ExamRepository) FindAll(_ context.Context, filters domain.ExamFilters) ([]domain.Exam, error) {
	return r.list(filters), nil
}

func (r *ExamRepository) list(filters domain.ExamFilters) []domain.Exam {
	r.mu.RLock()
	out := make([]domain.Exam, 0, len(r.exams))
	for _, e := range r.exams {
		if filters.Match(e) {
			out = append(out, e)
		}
	}
	r.mu.RUnlock()

	domain.SortExams(out, filters.Sort)
	start, end := filters.Page.Bounds(len(out))
	return out[start:end]
}

func (r *ExamRepository) Create(_ context.Context, exam domain.Exam) (domain.Exam, error) {
	if exam.ID == "" {
		exam.ID = domain.NewID()
	}
	now := r.clock()
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = now
	}
	if exam.UpdatedAt.IsZero() {
		exam.UpdatedAt = now
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.exams[exam.ID]; exists {
		return domain.Exam{}, domain.NewError(domain.CodeValidation, "exam already exists: "+exam.ID)
	}
	r.exams[exam.ID] = exam
	return exam, nil
}

func (r *ExamRepository) Update(_ context.Context, id string, patch domain.ExamPatch) (domain.Exam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.exams[id]
	if !ok {
		return domain.Exam{}, domain.NewError(domain.CodeNotFound, "exam not found: "+id)
	}
	e = patch.Apply(e, r.clock())
	r.exams[id] = e
	return e, nil
}

func (r *ExamRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exams[id]; !ok {
		return domain.NewError(domain.CodeNotFound, "exam not found: "+id)
	}
	delete(r.exams, id)
	return nil
}

func (r *ExamRepository) FindBySubject(_ context.Context, subjectID string) ([]domain.Exam, error) {
	return r.list(domain.ExamFilters{SubjectID: subjectID}), nil
}

func (r *ExamRepository) FindByStage(_ context.Context, stageID string) ([]domain.Exam, error) {
	return r.list(domain.ExamFilters{StageID: stageID}), nil
}

func (r *ExamRepository) FindByTeacher(_ context.Context, teacherID string) ([]domain.Exam, error) {
	return r.list(domain.ExamFilters{TeacherID: teacherID}), nil
}

func (r *ExamRepository) FindPublished(_ context.Context, filters domain.ExamFilters) ([]domain.Exam, error) {
	filters.Status = domain.ExamStatusPublished
	return r.list(filters), nil
}

func (r *ExamRepository) UpdateStatus(ctx context.Context, id string, status domain.ExamStatus) (domain.Exam, error) {
	if !status.Valid() {
		return domain.Exam{}, domain.NewError(domain.CodeValidation, "invalid exam status: "+string(status))
	}
	return r.Update(ctx, id, domain.ExamPatch{Status: &status})
}

func (r *ExamRepository) Publish(ctx context.Context, id string) (domain.Exam, error) {
	return r.UpdateStatus(ctx, id, domain.ExamStatusPublished)
}

func (r *ExamRepository) Archive(ctx context.Context, id string) (domain.Exam, error) {
	return r.UpdateStatus(ctx, id, domain.ExamStatusArchived)
}

func (r *ExamRepository) Stats(_ context.Context) (domain.ExamStats, error) {
	return domain.CollectExamStats(r.list(domain.ExamFilters{})), nil
}

func (r *ExamRepository) Count(_ context.Context, filters domain.ExamFilters) (int, error) {
	filters.Page = domain.Page{}
	return len(r.list(filters)), nil
}
