package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"assessment-service/internal/domain"
)

const uniqueViolation = "23505"

// where accumulates AND-ed predicates with positional placeholders.
type where struct {
	clauses []string
	args    []interface{}
}

// add appends a predicate. The clause refers to its argument as $%[1]d.
func (w *where) add(clause string, arg interface{}) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// page appends ORDER BY and LIMIT/OFFSET. column must come from a whitelist.
func (w *where) page(column string, desc bool, p domain.Page) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	sql := fmt.Sprintf(" ORDER BY %s %s, id ASC", column, dir)
	if p.Limit > 0 {
		w.args = append(w.args, p.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(w.args))
	}
	if p.Offset > 0 {
		w.args = append(w.args, p.Offset)
		sql += fmt.Sprintf(" OFFSET $%d", len(w.args))
	}
	return sql
}

func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(strings.TrimSpace(s)))
	return "%" + s + "%"
}

func examWhere(f domain.ExamFilters) *where {
	w := &where{}
	if f.Language != "" {
		w.add("language = $%[1]d", string(f.Language))
	}
	if f.Status != "" {
		w.add("status = $%[1]d", string(f.Status))
	}
	if f.StageID != "" {
		w.add("stage_id = $%[1]d", f.StageID)
	}
	if f.SubjectID != "" {
		w.add("subject_id = $%[1]d", f.SubjectID)
	}
	if f.TeacherID != "" {
		w.add("teacher_id = $%[1]d", f.TeacherID)
	}
	if f.IsTeacherExam != nil {
		w.add("is_teacher_exam = $%[1]d", *f.IsTeacherExam)
	}
	if strings.TrimSpace(f.Search) != "" {
		w.add("(lower(title) LIKE $%[1]d OR lower(description) LIKE $%[1]d)", likePattern(f.Search))
	}
	return w
}

var examSortColumns = map[string]string{
	"title":     "title",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func examOrder(w *where, f domain.ExamFilters) string {
	col, ok := examSortColumns[f.Sort.Field]
	if !ok {
		col = "created_at"
	}
	return w.page(col, f.Sort.Direction != domain.SortAsc, f.Page)
}

func questionWhere(f domain.QuestionFilters) *where {
	w := &where{}
	if f.LessonID != "" {
		w.add("lesson_id = $%[1]d", f.LessonID)
	}
	if f.StageID != "" {
		w.add("stage_id = $%[1]d", f.StageID)
	}
	if f.SubjectID != "" {
		w.add("subject_id = $%[1]d", f.SubjectID)
	}
	if f.GroupID != "" {
		w.add("group_id = $%[1]d", f.GroupID)
	}
	if f.Type != "" {
		w.add("type = $%[1]d", string(f.Type))
	}
	if f.Difficulty != "" {
		w.add("difficulty = $%[1]d", string(f.Difficulty))
	}
	if len(f.Tags) > 0 {
		w.add("tags @> $%[1]d", f.Tags)
	}
	if f.IsActive != nil {
		w.add("is_active = $%[1]d", *f.IsActive)
	}
	if f.CreatedBy != "" {
		w.add("created_by = $%[1]d", f.CreatedBy)
	}
	if strings.TrimSpace(f.Search) != "" {
		w.add("search_text LIKE $%[1]d", likePattern(f.Search))
	}
	return w
}

var questionSortColumns = map[string]string{
	"orderIndex": "order_index",
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
	"difficulty": "CASE difficulty WHEN 'easy' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END",
}

func questionOrder(w *where, f domain.QuestionFilters) string {
	col, ok := questionSortColumns[f.Sort.Field]
	if !ok {
		col = "order_index"
	}
	return w.page(col, f.Sort.Direction == domain.SortDesc, f.Page)
}

// dbError tags a driver failure. Missing rows become NOT_FOUND and unique violations VALIDATION_ERROR.
func dbError(op, entity, id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewError(domain.CodeNotFound, entity+" not found: "+id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.WrapError(domain.CodeValidation, entity+" already exists: "+id, err)
	}
	return domain.WrapError(domain.CodeDatabase, op, err)
}

// txError keeps errors already tagged inside a transaction and tags the rest.
func txError(op, entity, id string, err error) error {
	var tagged *domain.Error
	if errors.As(err, &tagged) {
		return err
	}
	return dbError(op, entity, id, err)
}
