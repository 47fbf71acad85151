package app

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"assessment-service/internal/domain"
)

// QuestionAnswer is one graded answer fed into scoring.
// MaxPoints carries the authored question weight; zero means unknown.
type QuestionAnswer struct {
	QuestionID       string              `json:"questionId"`
	Answer           domain.Answer       `json:"studentAnswer"`
	Result           domain.AnswerResult `json:"result"`
	TimeSpentSeconds *int                `json:"timeSpentSeconds,omitempty"`
	MaxPoints        float64             `json:"maxPoints,omitempty"`
}

type CalculateScoreInput struct {
	ExamID      string           `json:"examId"`
	Answers     []QuestionAnswer `json:"answers"`
	StartedAt   time.Time        `json:"startedAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

// QuestionResult is one row of the review screen.
type QuestionResult struct {
	QuestionID            string  `json:"questionId"`
	IsCorrect             *bool   `json:"isCorrect"`
	EarnedPoints          float64 `json:"earnedPoints"`
	MaxPoints             float64 `json:"maxPoints"`
	TimeSpentSeconds      int     `json:"timeSpentSeconds"`
	RequiresManualGrading bool    `json:"requiresManualGrading"`
}

type CalculateScoreOutput struct {
	ExamID                 string           `json:"examId"`
	TotalScore             float64          `json:"totalScore"`
	MaxScore               float64          `json:"maxScore"`
	Percentage             int              `json:"percentage"`
	Passed                 bool             `json:"passed"`
	Grade                  domain.Grade     `json:"grade"`
	CorrectAnswers         int              `json:"correctAnswers"`
	WrongAnswers           int              `json:"wrongAnswers"`
	SkippedAnswers         int              `json:"skippedAnswers"`
	PendingGrading         int              `json:"pendingGrading"`
	TotalTimeSeconds       int              `json:"totalTimeSeconds"`
	AverageTimePerQuestion float64          `json:"averageTimePerQuestion"`
	QuestionResults        []QuestionResult `json:"questionResults"`
}

// Summary renders the score line shown on result screens.
func (o CalculateScoreOutput) Summary() string {
	return domain.FormatScore(o.TotalScore, o.MaxScore, o.Percentage)
}

// Message is the encouragement line matching the outcome.
func (o CalculateScoreOutput) Message() string {
	return domain.ResultMessage(o.Passed, o.Percentage)
}

// AttemptScored is published after an attempt has been scored.
type AttemptScored struct {
	AttemptID  string       `json:"attemptId,omitempty"`
	ExamID     string       `json:"examId"`
	LearnerID  string       `json:"learnerId,omitempty"`
	TotalScore float64      `json:"totalScore"`
	MaxScore   float64      `json:"maxScore"`
	Percentage int          `json:"percentage"`
	Passed     bool         `json:"passed"`
	Grade      domain.Grade `json:"grade"`
	Pending    int          `json:"pendingGrading"`
	ScoredAt   time.Time    `json:"scoredAt"`
}

// CalculateScore folds graded answers into a final result.
type CalculateScore struct {
	log zerolog.Logger
	now func() time.Time
}

func NewCalculateScore(log zerolog.Logger) *CalculateScore {
	return &CalculateScore{log: log, now: time.Now}
}

// WithClock overrides the clock used when CompletedAt is absent.
func (uc *CalculateScore) WithClock(now func() time.Time) *CalculateScore {
	uc.now = now
	return uc
}

// Execute scores in against exam. A nil exam yields EXAM_NOT_FOUND, no answers NO_ANSWERS.
func (uc *CalculateScore) Execute(in CalculateScoreInput, exam *domain.Exam) (out CalculateScoreOutput, err error) {
	if exam == nil {
		return CalculateScoreOutput{}, domain.ErrExamNotFound
	}
	if len(in.Answers) == 0 {
		return CalculateScoreOutput{}, domain.ErrNoAnswers
	}

	defer func() {
		if r := recover(); r != nil {
			uc.log.Error().Str("examId", in.ExamID).Interface("panic", r).Msg("score calculation failed")
			out = CalculateScoreOutput{}
			err = domain.NewError(domain.CodeCalculation, fmt.Sprintf("score calculation failed: %v", r))
		}
	}()

	out = CalculateScoreOutput{
		ExamID:          in.ExamID,
		MaxScore:        exam.MaxScore(),
		QuestionResults: make([]QuestionResult, 0, len(in.Answers)),
	}
	for _, a := range in.Answers {
		res := a.Result
		out.TotalScore += res.EarnedPoints

		switch {
		case res.RequiresManualGrading:
			out.PendingGrading++
		case res.IsCorrect != nil && *res.IsCorrect:
			out.CorrectAnswers++
		case res.IsCorrect != nil:
			out.WrongAnswers++
		default:
			out.SkippedAnswers++
		}

		spent := 0
		if a.TimeSpentSeconds != nil {
			spent = *a.TimeSpentSeconds
		}
		out.QuestionResults = append(out.QuestionResults, QuestionResult{
			QuestionID:            a.QuestionID,
			IsCorrect:             res.IsCorrect,
			EarnedPoints:          res.EarnedPoints,
			MaxPoints:             maxPointsOf(a),
			TimeSpentSeconds:      spent,
			RequiresManualGrading: res.RequiresManualGrading,
		})
	}

	completed := uc.now()
	if in.CompletedAt != nil {
		completed = *in.CompletedAt
	}
	out.TotalTimeSeconds = int(math.Floor(completed.Sub(in.StartedAt).Seconds()))
	out.AverageTimePerQuestion = float64(out.TotalTimeSeconds) / float64(len(in.Answers))

	out.Percentage = exam.CalculatePercentage(out.TotalScore)
	out.Passed = exam.IsPassing(out.TotalScore)
	out.Grade = domain.GradeFor(out.Percentage)
	return out, nil
}

// maxPointsOf prefers the authored weight. Without it only a correct answer reveals the weight.
func maxPointsOf(a QuestionAnswer) float64 {
	if a.MaxPoints > 0 {
		return a.MaxPoints
	}
	if a.Result.Correct() {
		return a.Result.EarnedPoints
	}
	return 0
}
