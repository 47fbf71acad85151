package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

// QuestionHandler serves the question bank.
type QuestionHandler struct {
	questions app.QuestionRepository
	now       func() time.Time
}

func NewQuestionHandler(questions app.QuestionRepository) *QuestionHandler {
	return &QuestionHandler{questions: questions, now: time.Now}
}

type createQuestionRequest struct {
	Type            domain.QuestionType `json:"type" binding:"required"`
	Text            domain.LangText     `json:"text" binding:"required"`
	Options         []domain.Option     `json:"options"`
	CorrectOptionID string              `json:"correctOptionId"`
	CorrectAnswer   string              `json:"correctAnswer"`
	Points          float64             `json:"points" binding:"gte=0"`
	Difficulty      domain.Difficulty   `json:"difficulty"`
	OrderIndex      int                 `json:"orderIndex"`
	Hint            domain.LangText     `json:"hint"`
	Explanation     domain.LangText     `json:"explanation"`
	SectionTitle    domain.LangText     `json:"sectionTitle"`
	Reference       *domain.Reference   `json:"reference"`
	LessonID        string              `json:"lessonId"`
	StageID         string              `json:"stageId"`
	SubjectID       string              `json:"subjectId"`
	GroupID         string              `json:"groupId"`
	Tags            []string            `json:"tags"`
	CreatedBy       string              `json:"createdBy"`
}

func (r createQuestionRequest) params() domain.QuestionParams {
	return domain.QuestionParams{
		Type:            r.Type,
		Text:            r.Text,
		Options:         r.Options,
		CorrectOptionID: r.CorrectOptionID,
		CorrectAnswer:   r.CorrectAnswer,
		Points:          r.Points,
		Difficulty:      r.Difficulty,
		OrderIndex:      r.OrderIndex,
		Hint:            r.Hint,
		Explanation:     r.Explanation,
		SectionTitle:    r.SectionTitle,
		Reference:       r.Reference,
		LessonID:        r.LessonID,
		StageID:         r.StageID,
		SubjectID:       r.SubjectID,
		GroupID:         r.GroupID,
		Tags:            r.Tags,
		CreatedBy:       r.CreatedBy,
	}
}

func (h *QuestionHandler) Create(c *gin.Context) {
	var req createQuestionRequest
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.questions.Create(c.Request.Context(), domain.NewQuestion(req.params(), h.now()))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusCreated, created)
}

// CreateBatch stores every question or none of them.
func (h *QuestionHandler) CreateBatch(c *gin.Context) {
	var req struct {
		Questions []createQuestionRequest `json:"questions" binding:"required,min=1,dive"`
	}
	if !bindJSON(c, &req) {
		return
	}
	now := h.now()
	qs := make([]domain.Question, len(req.Questions))
	for i, r := range req.Questions {
		qs[i] = domain.NewQuestion(r.params(), now)
	}
	created, err := h.questions.CreateMany(c.Request.Context(), qs)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusCreated, created)
}

type questionList struct {
	Items []domain.Question `json:"items"`
	Total int               `json:"total"`
}

func (h *QuestionHandler) List(c *gin.Context) {
	var filters domain.QuestionFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		failFields(c, translateErrors(err))
		return
	}
	ctx := c.Request.Context()
	items, err := h.questions.FindAll(ctx, filters)
	if err != nil {
		fail(c, err)
		return
	}
	total, err := h.questions.Count(ctx, filters)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, questionList{Items: items, Total: total})
}

func (h *QuestionHandler) Get(c *gin.Context) {
	q, err := h.questions.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, q)
}

func (h *QuestionHandler) Delete(c *gin.Context) {
	if err := h.questions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *QuestionHandler) Groups(c *gin.Context) {
	groups, err := h.questions.Groups(c.Request.Context(), c.Query("lessonId"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, groups)
}

func (h *QuestionHandler) DeleteGroup(c *gin.Context) {
	if err := h.questions.DeleteGroup(c.Request.Context(), c.Param("groupId")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *QuestionHandler) Stats(c *gin.Context) {
	var filters domain.QuestionFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		failFields(c, translateErrors(err))
		return
	}
	stats, err := h.questions.Stats(c.Request.Context(), filters)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, stats)
}
