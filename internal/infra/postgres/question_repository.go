package postgres

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"assessment-service/internal/domain"
)

type QuestionRepository struct {
	pool  *pgxpool.Pool
	clock func() time.Time
}

func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool, clock: time.Now}
}

func searchText(q domain.Question) string {
	keys := make([]string, 0, len(q.Text))
	for k := range q.Text {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, strings.ToLower(q.Text[k]))
	}
	return strings.Join(parts, "\n")
}

func tagsOf(q domain.Question) []string {
	if q.Tags == nil {
		return []string{}
	}
	return q.Tags
}

func findQuestion(ctx context.Context, q rowQuerier, id, suffix string) (domain.Question, error) {
	var data []byte
	if err := q.QueryRow(ctx, `SELECT data FROM questions WHERE id = $1`+suffix, id).Scan(&data); err != nil {
		return domain.Question{}, dbError("load question", "question", id, err)
	}
	var out domain.Question
	if err := json.Unmarshal(data, &out); err != nil {
		return domain.Question{}, domain.WrapError(domain.CodeDatabase, "decode question "+id, err)
	}
	return out, nil
}

func (r *QuestionRepository) FindByID(ctx context.Context, id string) (domain.Question, error) {
	return findQuestion(ctx, r.pool, id, "")
}

func (r *QuestionRepository) FindAll(ctx context.Context, filters domain.QuestionFilters) ([]domain.Question, error) {
	w := questionWhere(filters)
	order := questionOrder(w, filters)
	rows, err := r.pool.Query(ctx, `SELECT data FROM questions`+w.String()+order, w.args...)
	if err != nil {
		return nil, dbError("list questions", "question", "", err)
	}
	defer rows.Close()

	out := []domain.Question{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, dbError("scan question", "question", "", err)
		}
		var q domain.Question
		if err := json.Unmarshal(data, &q); err != nil {
			return nil, domain.WrapError(domain.CodeDatabase, "decode question", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list questions", "question", "", err)
	}
	return out, nil
}

func (r *QuestionRepository) Create(ctx context.Context, q domain.Question) (domain.Question, error) {
	created, err := r.CreateMany(ctx, []domain.Question{q})
	if err != nil {
		return domain.Question{}, err
	}
	return created[0], nil
}

// CreateMany inserts every question in one transaction.
func (r *QuestionRepository) CreateMany(ctx context.Context, qs []domain.Question) ([]domain.Question, error) {
	now := r.clock().UTC()
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

	err := r.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		for _, q := range out {
			data, err := json.Marshal(q)
			if err != nil {
				return domain.WrapError(domain.CodeDatabase, "encode question", err)
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO questions (id, type, difficulty, lesson_id, stage_id, subject_id, group_id, tags,
					is_active, created_by, order_index, search_text, created_at, updated_at, data)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
				q.ID, string(q.Type), string(q.Difficulty), q.LessonID, q.StageID, q.SubjectID, q.GroupID,
				tagsOf(q), q.Active, q.CreatedBy, q.OrderIndex, searchText(q), q.CreatedAt, q.UpdatedAt, data)
			if err != nil {
				return dbError("insert question", "question", q.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, txError("insert questions", "question", "", err)
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
func (r *QuestionRepository) UpdateMany(ctx context.Context, patches map[string]domain.QuestionPatch) ([]domain.Question, error) {
	ids := make([]string, 0, len(patches))
	for id := range patches {
		ids = append(ids, id)
	}
	// fixed lock order keeps concurrent batches from deadlocking
	sort.Strings(ids)

	now := r.clock().UTC()
	out := make([]domain.Question, 0, len(ids))
	err := r.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		for _, id := range ids {
			current, err := findQuestion(ctx, tx, id, " FOR UPDATE")
			if err != nil {
				return err
			}
			q := patches[id].Apply(current, now)
			if err := q.Validate(); err != nil {
				return err
			}
			data, err := json.Marshal(q)
			if err != nil {
				return domain.WrapError(domain.CodeDatabase, "encode question", err)
			}
			_, err = tx.Exec(ctx, `
				UPDATE questions SET type = $2, difficulty = $3, lesson_id = $4, stage_id = $5, subject_id = $6,
					group_id = $7, tags = $8, is_active = $9, order_index = $10, search_text = $11,
					updated_at = $12, data = $13
				WHERE id = $1`,
				id, string(q.Type), string(q.Difficulty), q.LessonID, q.StageID, q.SubjectID, q.GroupID,
				tagsOf(q), q.Active, q.OrderIndex, searchText(q), q.UpdatedAt, data)
			if err != nil {
				return dbError("update question", "question", id, err)
			}
			out = append(out, q)
		}
		return nil
	})
	if err != nil {
		return nil, txError("update questions", "question", "", err)
	}
	domain.SortQuestions(out, domain.Sort{})
	return out, nil
}

func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	return r.DeleteMany(ctx, []string{id})
}

// DeleteMany removes every id or none; an unknown id rolls the batch back.
func (r *QuestionRepository) DeleteMany(ctx context.Context, ids []string) error {
	err := r.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		for _, id := range ids {
			tag, err := tx.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
			if err != nil {
				return dbError("delete question", "question", id, err)
			}
			if tag.RowsAffected() == 0 {
				return domain.NewError(domain.CodeNotFound, "question not found: "+id)
			}
		}
		return nil
	})
	if err != nil {
		return txError("delete questions", "question", "", err)
	}
	return nil
}

func (r *QuestionRepository) FindByLesson(ctx context.Context, lessonID string) ([]domain.Question, error) {
	return r.FindAll(ctx, domain.QuestionFilters{LessonID: lessonID})
}

func (r *QuestionRepository) FindBySubject(ctx context.Context, subjectID string) ([]domain.Question, error) {
	return r.FindAll(ctx, domain.QuestionFilters{SubjectID: subjectID})
}

func (r *QuestionRepository) FindByStage(ctx context.Context, stageID string) ([]domain.Question, error) {
	return r.FindAll(ctx, domain.QuestionFilters{StageID: stageID})
}

func (r *QuestionRepository) FindByGroup(ctx context.Context, groupID string) ([]domain.Question, error) {
	return r.FindAll(ctx, domain.QuestionFilters{GroupID: groupID})
}

func (r *QuestionRepository) Search(ctx context.Context, query string, filters domain.QuestionFilters) ([]domain.Question, error) {
	filters.Search = query
	return r.FindAll(ctx, filters)
}

func (r *QuestionRepository) Groups(ctx context.Context, lessonID string) ([]domain.QuestionGroup, error) {
	qs, err := r.FindAll(ctx, domain.QuestionFilters{LessonID: lessonID})
	if err != nil {
		return nil, err
	}
	return domain.CollectGroups(qs), nil
}

func (r *QuestionRepository) DeleteGroup(ctx context.Context, groupID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE group_id = $1`, groupID); err != nil {
		return dbError("delete question group", "question group", groupID, err)
	}
	return nil
}

func (r *QuestionRepository) Stats(ctx context.Context, filters domain.QuestionFilters) (domain.QuestionStats, error) {
	w := questionWhere(filters)
	rows, err := r.pool.Query(ctx, `
		SELECT is_active, type, difficulty, lesson_id, count(*)
		FROM questions`+w.String()+`
		GROUP BY is_active, type, difficulty, lesson_id`, w.args...)
	if err != nil {
		return domain.QuestionStats{}, dbError("question stats", "question", "", err)
	}
	defer rows.Close()

	var qs []domain.Question
	for rows.Next() {
		var (
			q          domain.Question
			qtype      string
			difficulty string
			n          int
		)
		if err := rows.Scan(&q.Active, &qtype, &difficulty, &q.LessonID, &n); err != nil {
			return domain.QuestionStats{}, dbError("question stats", "question", "", err)
		}
		q.Type, q.Difficulty = domain.QuestionType(qtype), domain.Difficulty(difficulty)
		for i := 0; i < n; i++ {
			qs = append(qs, q)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.QuestionStats{}, dbError("question stats", "question", "", err)
	}
	return domain.CollectQuestionStats(qs), nil
}

func (r *QuestionRepository) Count(ctx context.Context, filters domain.QuestionFilters) (int, error) {
	w := questionWhere(filters)
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM questions`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, dbError("count questions", "question", "", err)
	}
	return n, nil
}
