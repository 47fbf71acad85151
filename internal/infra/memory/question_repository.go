package memory

import (
	"context"
	"sync"
	"time"

	"assessment-service/internal/domain"
)

// QuestionRepository is an in-memory app.QuestionRepository for tests and demos.
type QuestionRepository struct {
	mu        sync.RWMutex
	questions map[string]domain.Question
	clock     func() time.Time
}

func NewQuestionRepository(seed ...domain.Question) *QuestionRepository {
	r := &QuestionRepository{questions: make(map[string]domain.Question, len(seed)), clock: time.Now}
	for _, q := range seed {
		r.questions[q.ID] = q
	}
	return r
}

func notFound(id string) error {
	return domain.NewError(domain.CodeNotFound, "question not found: "+id)
}

func (r *QuestionRepository) FindByID(_ context.Context, id string) (domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.questions[id]
	if !ok {
		return domain.Question{}, notFound(id)
	}
	return q, nil
}

func (r *QuestionRepository) FindAll(_ context.Context, filters domain.QuestionFilters) ([]domain.Question, error) {
	return r.list(filters), nil
}

func (r *QuestionRepository) list(filters domain.QuestionFilters) []domain.Question {
	r.mu.RLock()
	out := make([]domain.Question, 0, len(r.questions))
	for _, q := range r.questions {
		if filters.Match(q) {
			out = append(out, q)
		}
	}
	r.mu.RUnlock()

	domain.SortQuestions(out, filters.Sort)
	start, end := filters.Page.Bounds(len(out))
	return out[start:end]
}

func (r *QuestionRepository) Create(ctx context.Context, q domain.Question) (domain.Question, error) {
	created, err := r.CreateMany(ctx, []domain.Question{q})
	if err != nil {
		return domain.Question{}, err
	}
	return created[0], nil
}

// CreateMany validates every question before storing any of them.
func (r *QuestionRepository) CreateMany(_ context.Context, qs []domain.Question) ([]domain.Question, error) {
	now := r.clock()
	out := make([]domain.Question, 0, len(qs))
	for _, q := range qs {
		if q.ID == "" {
			q.ID = domain.NewID()
		}
		if q.CreatedAt.IsZero() {
			q.CreatedAt = now
			q.UpdatedAt = now
		}
		if err := q.Validate(); err != nil {
			return nil, err
		}
		out = append(out, q)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range out {
		if _, exists := r.questions[q.ID]; exists {
			return nil, domain.NewError(domain.CodeValidation, "question already exists: "+q.ID)
		}
	}
	for _, q := range out {
		r.questions[q.ID] = q
	}
	return out, nil
}

func (r *QuestionRepository) Update(ctx context.Context, id string, patch domain.QuestionPatch) (domain.Question, error) {
	updated, err := r.UpdateMany(ctx, map[string]domain.QuestionPatch{id: patch})
	if err != nil {
		return domain.Question{}, err
	}
	return updated[0], nil
}

// UpdateMany applies every patch or none of them.
func (r *QuestionRepository) UpdateMany(_ context.Context, patches map[string]domain.QuestionPatch) ([]domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock()
	out := make([]domain.Question, 0, len(patches))
	for id, patch := range patches {
		q, ok := r.questions[id]
		if !ok {
			return nil, notFound(id)
		}
		q = patch.Apply(q, now)
		if err := q.Validate(); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	for _, q := range out {
		r.questions[q.ID] = q
	}
	domain.SortQuestions(out, domain.Sort{})
	return out, nil
}

func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	return r.DeleteMany(ctx, []string{id})
}

func (r *QuestionRepository) DeleteMany(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if _, ok := r.questions[id]; !ok {
			return notFound(id)
		}
	}
	for _, id := range ids {
		delete(r.questions, id)
	}
	return nil
}

func (r *QuestionRepository) FindByLesson(_ context.Context, lessonID string) ([]domain.Question, error) {
	return r.list(domain.QuestionFilters{LessonID: lessonID}), nil
}

func (r *QuestionRepository) FindBySubject(_ context.Context, subjectID string) ([]domain.Question, error) {
	return r.list(domain.QuestionFilters{SubjectID: subjectID}), nil
}

func (r *QuestionRepository) FindByStage(_ context.Context, stageID string) ([]domain.Question, error) {
	return r.list(domain.QuestionFilters{StageID: stageID}), nil
}

func (r *QuestionRepository) FindByGroup(_ context.Context, groupID string) ([]domain.Question, error) {
	return r.list(domain.QuestionFilters{GroupID: groupID}), nil
}

func (r *QuestionRepository) Search(_ context.Context, query string, filters domain.QuestionFilters) ([]domain.Question, error) {
	filters.Search = query
	return r.list(filters), nil
}

// Groups summarizes the question groups of a lesson; an empty lesson id covers the whole bank.
func (r *QuestionRepository) Groups(_ context.Context, lessonID string) ([]domain.QuestionGroup, error) {
	return domain.CollectGroups(r.list(domain.QuestionFilters{LessonID: lessonID})), nil
}

func (r *QuestionRepository) DeleteGroup(_ context.Context, groupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, q := range r.questions {
		if q.GroupID == groupID {
			delete(r.questions, id)
		}
	}
	return nil
}

func (r *QuestionRepository) Stats(_ context.Context, filters domain.QuestionFilters) (domain.QuestionStats, error) {
	filters.Page = domain.Page{}
	return domain.CollectQuestionStats(r.list(filters)), nil
}

func (r *QuestionRepository) Count(_ context.Context, filters domain.QuestionFilters) (int, error) {
	filters.Page = domain.Page{}
	return len(r.list(filters)), nil
}
