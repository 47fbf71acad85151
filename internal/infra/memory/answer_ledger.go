package memory

import (
	"context"
	"sync"

	"assessment-service/internal/app"
)

// AnswerLedger is a process-local app.AnswerLedger guarded by a mutex.
type AnswerLedger struct {
	mu       sync.Mutex
	attempts map[string]map[string]app.SubmitAnswerOutput
}

func NewAnswerLedger() *AnswerLedger {
	return &AnswerLedger{attempts: make(map[string]map[string]app.SubmitAnswerOutput)}
}

func (l *AnswerLedger) Insert(_ context.Context, attemptID, questionID string, out app.SubmitAnswerOutput) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	answers, ok := l.attempts[attemptID]
	if !ok {
		answers = make(map[string]app.SubmitAnswerOutput)
		l.attempts[attemptID] = answers
	}
	if _, exists := answers[questionID]; exists {
		return false, nil
	}
	answers[questionID] = out
	return true, nil
}

func (l *AnswerLedger) Get(_ context.Context, attemptID, questionID string) (app.SubmitAnswerOutput, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out, ok := l.attempts[attemptID][questionID]
	return out, ok, nil
}

func (l *AnswerLedger) Clear(_ context.Context, attemptID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, attemptID)
	return nil
}
