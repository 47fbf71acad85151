package domain

import (
	"errors"
	"fmt"
)

// ErrCode tags every failure that crosses a use-case or repository boundary.
type ErrCode string

const (
	CodeValidation       ErrCode = "VALIDATION_ERROR"
	CodeNotFound         ErrCode = "NOT_FOUND"
	CodeDatabase         ErrCode = "DATABASE_ERROR"
	CodePermissionDenied ErrCode = "PERMISSION_DENIED"
	CodeUnknown          ErrCode = "UNKNOWN_ERROR"

	CodeQuestionNotFound ErrCode = "QUESTION_NOT_FOUND"
	CodeInvalidAnswer    ErrCode = "INVALID_ANSWER"
	CodeAlreadyAnswered  ErrCode = "ALREADY_ANSWERED"
	CodeExamNotFound     ErrCode = "EXAM_NOT_FOUND"
	CodeNoAnswers        ErrCode = "NO_ANSWERS"
	CodeCalculation      ErrCode = "CALCULATION_ERROR"
)

// Error is the tagged error value returned by use cases and repositories.
type Error struct {
	Code    ErrCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError builds a tagged error.
func NewError(code ErrCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError tags an underlying failure, keeping it reachable through errors.Unwrap.
func WrapError(code ErrCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the tag of err. Untagged errors report CodeUnknown.
func CodeOf(err error) ErrCode {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

var (
	// ErrNotFound is returned by repositories when the referenced entity is absent.
	ErrNotFound = NewError(CodeNotFound, "resource not found")
	// ErrQuestionNotFound is returned when a submission references no question.
	ErrQuestionNotFound = NewError(CodeQuestionNotFound, "question not found")
	// ErrAlreadyAnswered rejects a second submission for the same attempt and question.
	ErrAlreadyAnswered = NewError(CodeAlreadyAnswered, "question already answered in this attempt")
	// ErrExamNotFound is returned when scoring is requested without an exam.
	ErrExamNotFound = NewError(CodeExamNotFound, "exam not found")
	// ErrNoAnswers is returned when scoring is requested with an empty answer set.
	ErrNoAnswers = NewError(CodeNoAnswers, "no answers to score")
	// ErrSessionNotFound is returned when a quiz session has not been started.
	ErrSessionNotFound = NewError(CodeNotFound, "quiz session not found")
)
