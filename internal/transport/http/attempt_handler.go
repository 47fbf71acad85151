package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

// AttemptHandler records graded answers of REST-driven attempts.
type AttemptHandler struct {
	exams  app.ExamReader
	submit *app.SubmitAnswer
}

func NewAttemptHandler(exams app.ExamReader, submit *app.SubmitAnswer) *AttemptHandler {
	return &AttemptHandler{exams: exams, submit: submit}
}

type submitAnswerRequest struct {
	ExamID           string        `json:"examId" binding:"required"`
	QuestionID       string        `json:"questionId" binding:"required"`
	Answer           domain.Answer `json:"answer"`
	TimeSpentSeconds *int          `json:"timeSpentSeconds" binding:"omitempty,gte=0"`
}

func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	var req submitAnswerRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	exam, err := h.exams.GetExam(ctx, req.ExamID)
	if err != nil {
		fail(c, err)
		return
	}

	var question *domain.Question
	if q, ok := exam.FindQuestion(req.QuestionID); ok {
		question = &q
	}
	out, err := h.submit.Execute(ctx, app.SubmitAnswerInput{
		QuestionID:       req.QuestionID,
		Answer:           req.Answer,
		AttemptID:        c.Param("attemptId"),
		TimeSpentSeconds: req.TimeSpentSeconds,
	}, question)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusCreated, out)
}

func (h *AttemptHandler) GetAnswer(c *gin.Context) {
	attemptID, questionID := c.Param("attemptId"), c.Param("questionId")
	out, ok, err := h.submit.PreviousAnswer(c.Request.Context(), attemptID, questionID)
	if err != nil {
		fail(c, err)
		return
	}
	if !ok {
		fail(c, domain.NewError(domain.CodeNotFound, "no answer recorded for question "+questionID))
		return
	}
	success(c, http.StatusOK, out)
}

func (h *AttemptHandler) Clear(c *gin.Context) {
	if err := h.submit.ClearAttempt(c.Request.Context(), c.Param("attemptId")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
