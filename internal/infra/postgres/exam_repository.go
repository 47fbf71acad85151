// Package postgres stores exams and questions in PostgreSQL through pgx.
// Each row keeps the full entity as JSONB next to the columns used for filtering.
package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"assessment-service/internal/domain"
)

// rowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type ExamRepository struct {
	pool  *pgxpool.Pool
	clock func() time.Time
}

func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool, clock: time.Now}
}

func (r *ExamRepository) FindByID(ctx context.Context, id string) (domain.Exam, error) {
	return findExam(ctx, r.pool, id, "")
}

func findExam(ctx context.Context, q rowQuerier, id, suffix string) (domain.Exam, error) {
	var data []byte
	err := q.QueryRow(ctx, `SELECT data FROM exams WHERE id = $1`+suffix, id).Scan(&data)
	if err != nil {
		return domain.Exam{}, dbError("load exam", "exam", id, err)
	}
	var exam domain.Exam
	if err := json.Unmarshal(data, &exam); err != nil {
		return domain.Exam{}, domain.WrapError(domain.CodeDatabase, "decode exam "+id, err)
	}
	return exam, nil
}

func (r *ExamRepository) FindAll(ctx context.Context, filters domain.ExamFilters) ([]domain.Exam, error) {
	w := examWhere(filters)
	order := examOrder(w, filters)
	rows, err := r.pool.Query(ctx, `SELECT data FROM exams`+w.String()+order, w.args...)
	if err != nil {
		return nil, dbError("list exams", "exam", "", err)
	}
	defer rows.Close()

	out := []domain.Exam{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, dbError("scan exam", "exam", "", err)
		}
		var e domain.Exam
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, domain.WrapError(domain.CodeDatabase, "decode exam", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list exams", "exam", "", err)
	}
	return out, nil
}

func (r *ExamRepository) Create(ctx context.Context, exam domain.Exam) (domain.Exam, error) {
	if exam.ID == "" {
		exam.ID = domain.NewID()
	}
	now := r.clock().UTC()
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = now
	}
	if exam.UpdatedAt.IsZero() {
		exam.UpdatedAt = now
	}
	data, err := json.Marshal(exam)
	if err != nil {
		return domain.Exam{}, domain.WrapError(domain.CodeDatabase, "encode exam", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO exams (id, title, description, language, status, stage_id, subject_id, teacher_id,
			is_teacher_exam, created_by, created_at, updated_at, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		exam.ID, exam.Title, exam.Description, string(exam.Language), string(exam.Status),
		exam.StageID, exam.SubjectID, exam.TeacherID, exam.IsTeacherExam, exam.CreatedBy,
		exam.CreatedAt, exam.UpdatedAt, data)
	if err != nil {
		return domain.Exam{}, dbError("insert exam", "exam", exam.ID, err)
	}
	return exam, nil
}

// Update reads the row under FOR UPDATE so concurrent patches serialize.
func (r *ExamRepository) Update(ctx context.Context, id string, patch domain.ExamPatch) (domain.Exam, error) {
	var updated domain.Exam
	err := r.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		current, err := findExam(ctx, tx, id, " FOR UPDATE")
		if err != nil {
			return err
		}
		updated = patch.Apply(current, r.clock().UTC())
		data, err := json.Marshal(updated)
		if err != nil {
			return domain.WrapError(domain.CodeDatabase, "encode exam", err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE exams SET title = $2, description = $3, language = $4, status = $5, stage_id = $6,
				subject_id = $7, teacher_id = $8, is_teacher_exam = $9, updated_at = $10, data = $11
			WHERE id = $1`,
			id, updated.Title, updated.Description, string(updated.Language), string(updated.Status),
			updated.StageID, updated.SubjectID, updated.TeacherID, updated.IsTeacherExam, updated.UpdatedAt, data)
		if err != nil {
			return dbError("update exam", "exam", id, err)
		}
		return nil
	})
	if err != nil {
		return domain.Exam{}, txError("update exam", "exam", id, err)
	}
	return updated, nil
}

func (r *ExamRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return dbError("delete exam", "exam", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.CodeNotFound, "exam not found: "+id)
	}
	return nil
}

func (r *ExamRepository) FindBySubject(ctx context.Context, subjectID string) ([]domain.Exam, error) {
	return r.FindAll(ctx, domain.ExamFilters{SubjectID: subjectID})
}

func (r *ExamRepository) FindByStage(ctx context.Context, stageID string) ([]domain.Exam, error) {
	return r.FindAll(ctx, domain.ExamFilters{StageID: stageID})
}

func (r *ExamRepository) FindByTeacher(ctx context.Context, teacherID string) ([]domain.Exam, error) {
	return r.FindAll(ctx, domain.ExamFilters{TeacherID: teacherID})
}

func (r *ExamRepository) FindPublished(ctx context.Context, filters domain.ExamFilters) ([]domain.Exam, error) {
	filters.Status = domain.ExamStatusPublished
	return r.FindAll(ctx, filters)
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

// Stats groups in SQL and folds the counts through the same aggregation the memory store uses.
func (r *ExamRepository) Stats(ctx context.Context) (domain.ExamStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, language, stage_id, count(*)
		FROM exams GROUP BY status, language, stage_id`)
	if err != nil {
		return domain.ExamStats{}, dbError("exam stats", "exam", "", err)
	}
	defer rows.Close()

	var exams []domain.Exam
	for rows.Next() {
		var (
			e      domain.Exam
			status string
			lang   string
			n      int
		)
		if err := rows.Scan(&status, &lang, &e.StageID, &n); err != nil {
			return domain.ExamStats{}, dbError("exam stats", "exam", "", err)
		}
		e.Status, e.Language = domain.ExamStatus(status), domain.Language(lang)
		for i := 0; i < n; i++ {
			exams = append(exams, e)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.ExamStats{}, dbError("exam stats", "exam", "", err)
	}
	return domain.CollectExamStats(exams), nil
}

func (r *ExamRepository) Count(ctx context.Context, filters domain.ExamFilters) (int, error) {
	w := examWhere(filters)
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM exams`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, dbError("count exams", "exam", "", err)
	}
	return n, nil
}
