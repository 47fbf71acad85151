package app

import (
	"context"

	"assessment-service/internal/domain"
	"assessment-service/internal/grading"
)

// SubmitAnswerInput is one learner submission. AttemptID is optional; without it nothing is recorded.
type SubmitAnswerInput struct {
	QuestionID       string        `json:"questionId"`
	Answer           domain.Answer `json:"answer"`
	AttemptID        string        `json:"attemptId,omitempty"`
	TimeSpentSeconds *int          `json:"timeSpentSeconds,omitempty"`
}

// SubmitAnswerOutput is the graded submission as stored in the ledger.
type SubmitAnswerOutput struct {
	QuestionID       string              `json:"questionId"`
	Answer           domain.Answer       `json:"answer"`
	Result           domain.AnswerResult `json:"result"`
	MaxPoints        float64             `json:"maxPoints"`
	TimeSpentSeconds *int                `json:"timeSpentSeconds,omitempty"`
}

// SubmitAnswer grades submissions and rejects a second one for the same attempt and question.
type SubmitAnswer struct {
	ledger AnswerLedger
}

func NewSubmitAnswer(ledger AnswerLedger) *SubmitAnswer {
	return &SubmitAnswer{ledger: ledger}
}

// Execute grades in against q. A nil q yields QUESTION_NOT_FOUND.
func (uc *SubmitAnswer) Execute(ctx context.Context, in SubmitAnswerInput, q *domain.Question) (SubmitAnswerOutput, error) {
	if q == nil {
		return SubmitAnswerOutput{}, domain.ErrQuestionNotFound
	}
	questionID := in.QuestionID
	if questionID == "" {
		questionID = q.ID
	}

	out := SubmitAnswerOutput{
		QuestionID:       questionID,
		Answer:           in.Answer,
		Result:           grading.Check(*q, in.Answer),
		MaxPoints:        q.Points,
		TimeSpentSeconds: in.TimeSpentSeconds,
	}
	if in.AttemptID == "" {
		return out, nil
	}

	inserted, err := uc.ledger.Insert(ctx, in.AttemptID, questionID, out)
	if err != nil {
		return SubmitAnswerOutput{}, asDatabaseError(err, "record answer")
	}
	if !inserted {
		return SubmitAnswerOutput{}, domain.ErrAlreadyAnswered
	}
	return out, nil
}

// PreviousAnswer returns the recorded output for a pair, for UI replays.
func (uc *SubmitAnswer) PreviousAnswer(ctx context.Context, attemptID, questionID string) (SubmitAnswerOutput, bool, error) {
	out, ok, err := uc.ledger.Get(ctx, attemptID, questionID)
	if err != nil {
		return SubmitAnswerOutput{}, false, asDatabaseError(err, "load answer")
	}
	return out, ok, nil
}

// ClearAttempt discards every recorded output of a finished or abandoned attempt.
func (uc *SubmitAnswer) ClearAttempt(ctx context.Context, attemptID string) error {
	if err := uc.ledger.Clear(ctx, attemptID); err != nil {
		return asDatabaseError(err, "clear attempt")
	}
	return nil
}

// Answers lists the recorded outputs of an attempt as scoring input.
func (uc *SubmitAnswer) Answers(ctx context.Context, attemptID string, questionIDs []string) ([]QuestionAnswer, error) {
	answers := make([]QuestionAnswer, 0, len(questionIDs))
	for _, id := range questionIDs {
		out, ok, err := uc.PreviousAnswer(ctx, attemptID, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		answers = append(answers, out.QuestionAnswer())
	}
	return answers, nil
}

// QuestionAnswer converts a recorded output into scoring input.
func (o SubmitAnswerOutput) QuestionAnswer() QuestionAnswer {
	return QuestionAnswer{
		QuestionID:       o.QuestionID,
		Answer:           o.Answer,
		Result:           o.Result,
		TimeSpentSeconds: o.TimeSpentSeconds,
		MaxPoints:        o.MaxPoints,
	}
}

// asDatabaseError keeps tagged errors and tags anything else as DATABASE_ERROR.
func asDatabaseError(err error, op string) error {
	if domain.CodeOf(err) != domain.CodeUnknown {
		return err
	}
	return domain.WrapError(domain.CodeDatabase, op, err)
}
