// Package grading decides whether a submitted answer is correct.
package grading

import "assessment-service/internal/domain"

const (
	feedbackCorrect = "إجابة صحيحة!"
	feedbackWrong   = "إجابة خاطئة"
	feedbackManual  = "يتطلب التصحيح اليدوي"
)

// rule grades one question type. Rules are pure.
type rule interface {
	check(q domain.Question, a domain.Answer) domain.AnswerResult
}

var rules = map[domain.QuestionType]rule{
	domain.QuestionMCQ:        optionRule{},
	domain.QuestionTrueFalse:  optionRule{},
	domain.QuestionEssay:      manualRule{},
	domain.QuestionParsing:    manualRule{},
	domain.QuestionExtraction: manualRule{},
	// No automatic comparator for these yet.
	domain.QuestionFillBlank: manualRule{},
	domain.QuestionMatching:  manualRule{},
}

// Check grades a submitted answer against q. Unknown types fall back to manual grading.
func Check(q domain.Question, a domain.Answer) domain.AnswerResult {
	r, ok := rules[q.Type]
	if !ok {
		return manualRule{}.check(q, a)
	}
	return r.check(q, a)
}

// optionRule compares the submitted option id with the stored correct id.
// List submissions never match.
type optionRule struct{}

func (optionRule) check(q domain.Question, a domain.Answer) domain.AnswerResult {
	correct := !a.IsList() && q.CorrectOptionID != "" && a.Value() == q.CorrectOptionID
	res := domain.AnswerResult{
		IsCorrect:     domain.BoolPtr(correct),
		CorrectAnswer: q.CorrectOptionID,
		Feedback:      feedbackWrong,
	}
	if correct {
		res.EarnedPoints = q.Points
		res.Feedback = feedbackCorrect
	}
	return res
}

type manualRule struct{}

func (manualRule) check(domain.Question, domain.Answer) domain.AnswerResult {
	return domain.AnswerResult{
		IsCorrect:             nil,
		EarnedPoints:          0,
		RequiresManualGrading: true,
		Feedback:              feedbackManual,
	}
}

// CheckIndex grades a selection made by option position, as the quiz player does.
// An out-of-range index is graded as a wrong answer for auto-gradable types.
func CheckIndex(q domain.Question, index int) domain.AnswerResult {
	id := ""
	if index >= 0 && index < len(q.Options) {
		id = q.Options[index].ID
	}
	if id == "" && q.IsAutoGradable() {
		return domain.AnswerResult{
			IsCorrect:     domain.BoolPtr(false),
			CorrectAnswer: q.CorrectOptionID,
			Feedback:      feedbackWrong,
		}
	}
	return Check(q, domain.TextAnswer(id))
}
