package domain

import (
	"encoding/json"
	"errors"
)

// Answer is what a learner submits: a single identifier/text, or a list of them.
type Answer struct {
	value  string
	values []string
	multi  bool
}

// TextAnswer wraps a single submitted value (an option id or free text).
func TextAnswer(v string) Answer {
	return Answer{value: v}
}

// ListAnswer wraps a sequence of submitted values.
func ListAnswer(vs ...string) Answer {
	cp := make([]string, len(vs))
	copy(cp, vs)
	return Answer{values: cp, multi: true}
}

// IsList reports whether the answer was submitted as a sequence.
func (a Answer) IsList() bool { return a.multi }

// Value returns the single submitted value; empty for list answers.
func (a Answer) Value() string { return a.value }

// Values returns the submitted values. A single answer yields a one-element slice.
func (a Answer) Values() []string {
	if !a.multi {
		return []string{a.value}
	}
	cp := make([]string, len(a.values))
	copy(cp, a.values)
	return cp
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.multi {
		return json.Marshal(a.values)
	}
	return json.Marshal(a.value)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = TextAnswer(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*a = ListAnswer(list...)
		return nil
	}
	return errors.New("answer must be a string or an array of strings")
}

// AnswerResult is the outcome of checking one submitted answer.
// IsCorrect is nil when correctness cannot be decided automatically.
type AnswerResult struct {
	IsCorrect             *bool   `json:"isCorrect"`
	EarnedPoints          float64 `json:"earnedPoints"`
	RequiresManualGrading bool    `json:"requiresManualGrading"`
	CorrectAnswer         string  `json:"correctAnswer,omitempty"`
	Feedback              string  `json:"feedback,omitempty"`
}

// Correct reports IsCorrect == true.
func (r AnswerResult) Correct() bool {
	return r.IsCorrect != nil && *r.IsCorrect
}

// Wrong reports IsCorrect == false.
func (r AnswerResult) Wrong() bool {
	return r.IsCorrect != nil && !*r.IsCorrect
}

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool { return &v }
