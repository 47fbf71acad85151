package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"assessment-service/internal/domain"
)

// SessionService drives quiz sessions: it loads exams, applies transitions and scores finished attempts.
type SessionService struct {
	sessions  SessionRepository
	exams     ExamReader
	scorer    *CalculateScore
	publisher ResultPublisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewSessionService(sessions SessionRepository, exams ExamReader, scorer *CalculateScore, log zerolog.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		exams:    exams,
		scorer:   scorer,
		log:      log.With().Str("component", "sessions").Logger(),
		now:      time.Now,
	}
}

// WithPublisher announces scored attempts through p.
func (s *SessionService) WithPublisher(p ResultPublisher) *SessionService {
	s.publisher = p
	return s
}

// WithClock is for deterministic timestamps in tests.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// Start opens a session for learnerID. Unknown exams are rejected.
func (s *SessionService) Start(ctx context.Context, examID, learnerID string) (*QuizSession, error) {
	exam, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	session := NewQuizSession(exam, learnerID, s.now())
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	s.log.Debug().Str("sessionId", session.ID()).Str("examId", examID).Str("learnerId", learnerID).Msg("session started")
	return session, nil
}

// Get returns a live session.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*QuizSession, error) {
	return s.sessions.Get(ctx, sessionID)
}

// update loads a session, applies fn and stores the result.
func (s *SessionService) update(ctx context.Context, sessionID string, fn func(*QuizSession) error) (*QuizSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return session, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return session, err
	}
	return session, nil
}

func (s *SessionService) SelectAnswer(ctx context.Context, sessionID string, group, option int) (*QuizSession, error) {
	return s.update(ctx, sessionID, func(qs *QuizSession) error { return qs.SelectAnswer(group, option) })
}

func (s *SessionService) SelectText(ctx context.Context, sessionID string, group int, text string) (*QuizSession, error) {
	return s.update(ctx, sessionID, func(qs *QuizSession) error { return qs.SelectText(group, text) })
}

func (s *SessionService) Submit(ctx context.Context, sessionID string, group int) (*QuizSession, domain.AnswerResult, error) {
	var res domain.AnswerResult
	session, err := s.update(ctx, sessionID, func(qs *QuizSession) error {
		var err error
		res, err = qs.Submit(group)
		return err
	})
	return session, res, err
}

func (s *SessionService) Next(ctx context.Context, sessionID string, group int) (*QuizSession, error) {
	return s.update(ctx, sessionID, func(qs *QuizSession) error { return qs.Next(group) })
}

func (s *SessionService) JumpTo(ctx context.Context, sessionID string, group, question int) (*QuizSession, error) {
	return s.update(ctx, sessionID, func(qs *QuizSession) error { return qs.JumpTo(group, question) })
}

func (s *SessionService) SwitchSection(ctx context.Context, sessionID string, group, section int) (*QuizSession, error) {
	return s.update(ctx, sessionID, func(qs *QuizSession) error { return qs.SwitchSection(group, section) })
}

func (s *SessionService) Restart(ctx context.Context, sessionID string, group int) (*QuizSession, error) {
	return s.update(ctx, sessionID, func(qs *QuizSession) error { return qs.Restart(group) })
}

// Finish scores the session's answers and then closes it. A failed score leaves the session open.
// The result is published when a publisher is set; publish failures are logged and do not fail the call.
func (s *SessionService) Finish(ctx context.Context, sessionID string) (CalculateScoreOutput, error) {
	var out CalculateScoreOutput
	session, err := s.update(ctx, sessionID, func(qs *QuizSession) error {
		exam, err := s.exams.GetExam(ctx, qs.ExamID())
		if err != nil {
			return err
		}
		in := qs.ScoreInput()
		if in.CompletedAt == nil {
			now := s.now()
			in.CompletedAt = &now
		}
		if out, err = s.scorer.Execute(in, &exam); err != nil {
			return err
		}
		qs.Finish(*in.CompletedAt)
		return nil
	})
	if err != nil {
		return CalculateScoreOutput{}, err
	}

	if s.publisher != nil {
		event := AttemptScored{
			AttemptID:  session.ID(),
			ExamID:     out.ExamID,
			LearnerID:  session.LearnerID(),
			TotalScore: out.TotalScore,
			MaxScore:   out.MaxScore,
			Percentage: out.Percentage,
			Passed:     out.Passed,
			Grade:      out.Grade,
			Pending:    out.PendingGrading,
			ScoredAt:   s.now(),
		}
		if err := s.publisher.PublishScored(ctx, event); err != nil {
			s.log.Warn().Err(err).Str("sessionId", sessionID).Msg("publish scored attempt")
		}
	}
	return out, nil
}

// Abandon drops a session without scoring it.
func (s *SessionService) Abandon(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}
