package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

// ExamHandler serves exam authoring and scoring.
type ExamHandler struct {
	exams     app.ExamRepository
	cache     app.ExamCache
	create    *app.CreateExam
	scorer    *app.CalculateScore
	answers   *app.SubmitAnswer
	publisher app.ResultPublisher
	log       zerolog.Logger
}

func NewExamHandler(exams app.ExamRepository, cache app.ExamCache, create *app.CreateExam, scorer *app.CalculateScore, answers *app.SubmitAnswer, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		exams:   exams,
		cache:   cache,
		create:  create,
		scorer:  scorer,
		answers: answers,
		log:     log.With().Str("component", "exam_handler").Logger(),
	}
}

// WithPublisher emits attempt.scored events after scoring.
func (h *ExamHandler) WithPublisher(p app.ResultPublisher) *ExamHandler {
	h.publisher = p
	return h
}

func (h *ExamHandler) Create(c *gin.Context) {
	var in app.CreateExamInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.create.Execute(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	out.Message = domain.Message(domain.MsgExamCreated, requestLanguage(c))
	success(c, http.StatusCreated, out)
}

type examList struct {
	Items []domain.Exam `json:"items"`
	Total int           `json:"total"`
}

func (h *ExamHandler) List(c *gin.Context) {
	var filters domain.ExamFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		failFields(c, translateErrors(err))
		return
	}
	ctx := c.Request.Context()
	items, err := h.exams.FindAll(ctx, filters)
	if err != nil {
		fail(c, err)
		return
	}
	total, err := h.exams.Count(ctx, filters)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, examList{Items: items, Total: total})
}

func (h *ExamHandler) Stats(c *gin.Context) {
	stats, err := h.exams.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, stats)
}

func (h *ExamHandler) Get(c *gin.Context) {
	exam, err := h.exams.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, exam)
}

func (h *ExamHandler) Publish(c *gin.Context) {
	h.transition(c, h.exams.Publish)
}

func (h *ExamHandler) Archive(c *gin.Context) {
	h.transition(c, h.exams.Archive)
}

func (h *ExamHandler) transition(c *gin.Context, fn func(ctx context.Context, id string) (domain.Exam, error)) {
	id := c.Param("id")
	exam, err := fn(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.cache.Invalidate(c.Request.Context(), id); err != nil {
		h.log.Warn().Err(err).Str("exam_id", id).Msg("cache invalidation failed")
	}
	success(c, http.StatusOK, exam)
}

// inlineAnswer is a raw answer posted for scoring. It is graded against the stored exam.
type inlineAnswer struct {
	QuestionID       string        `json:"questionId" binding:"required"`
	Answer           domain.Answer `json:"answer"`
	TimeSpentSeconds *int          `json:"timeSpentSeconds" binding:"omitempty,gte=0"`
}

type scoreRequest struct {
	AttemptID   string         `json:"attemptId"`
	LearnerID   string         `json:"learnerId"`
	Answers     []inlineAnswer `json:"answers" binding:"omitempty,dive"`
	StartedAt   time.Time            `json:"startedAt" binding:"required"`
	CompletedAt *time.Time           `json:"completedAt"`
}

func (h *ExamHandler) gradeInline(ctx context.Context, exam domain.Exam, in []inlineAnswer) ([]app.QuestionAnswer, error) {
	out := make([]app.QuestionAnswer, 0, len(in))
	for _, a := range in {
		var question *domain.Question
		if q, ok := exam.FindQuestion(a.QuestionID); ok {
			question = &q
		}
		graded, err := h.answers.Execute(ctx, app.SubmitAnswerInput{
			QuestionID:       a.QuestionID,
			Answer:           a.Answer,
			TimeSpentSeconds: a.TimeSpentSeconds,
		}, question)
		if err != nil {
			return nil, err
		}
		out = append(out, graded.QuestionAnswer())
	}
	return out, nil
}

type scoreResponse struct {
	app.CalculateScoreOutput
	Summary string `json:"summary"`
	Message string `json:"message"`
}

// Score grades an attempt. Answers posted with the request are graded here against the exam;
// without them and with an attemptId, the answers recorded for that attempt are used.
func (h *ExamHandler) Score(c *gin.Context) {
	var req scoreRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	examID := c.Param("id")

	exam, err := h.cache.GetExam(ctx, examID)
	if err != nil {
		if domain.CodeOf(err) == domain.CodeNotFound {
			err = domain.WrapError(domain.CodeExamNotFound, "exam not found: "+examID, err)
		}
		fail(c, err)
		return
	}

	answers, err := h.gradeInline(ctx, exam, req.Answers)
	if err != nil {
		fail(c, err)
		return
	}
	if len(answers) == 0 && req.AttemptID != "" {
		ids := make([]string, 0, exam.TotalQuestions())
		for _, q := range exam.Questions() {
			ids = append(ids, q.ID)
		}
		if answers, err = h.answers.Answers(ctx, req.AttemptID, ids); err != nil {
			fail(c, err)
			return
		}
	}

	out, err := h.scorer.Execute(app.CalculateScoreInput{
		ExamID:      exam.ID,
		Answers:     answers,
		StartedAt:   req.StartedAt,
		CompletedAt: req.CompletedAt,
	}, &exam)
	if err != nil {
		fail(c, err)
		return
	}

	if h.publisher != nil {
		event := app.AttemptScored{
			AttemptID: req.AttemptID, ExamID: exam.ID, LearnerID: req.LearnerID,
			TotalScore: out.TotalScore, MaxScore: out.MaxScore, Percentage: out.Percentage,
			Passed: out.Passed, Grade: out.Grade, Pending: out.PendingGrading, ScoredAt: time.Now().UTC(),
		}
		if err := h.publisher.PublishScored(ctx, event); err != nil {
			h.log.Warn().Err(err).Str("exam_id", exam.ID).Msg("publish attempt.scored failed")
		}
	}
	success(c, http.StatusOK, scoreResponse{CalculateScoreOutput: out, Summary: out.Summary(), Message: out.Message()})
}
