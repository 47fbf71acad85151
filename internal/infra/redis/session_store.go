package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

// SessionStore is a Redis implementation of app.SessionRepository.
// Sessions are stored as serialized state so any instance can resume them:
// SET quiz:session:{sessionID} <json> EX ttl
// Concurrent transitions on one session from two instances are last-write-wins.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Save(ctx context.Context, session *app.QuizSession) error {
	payload, err := json.Marshal(session.State())
	if err != nil {
		return domain.WrapError(domain.CodeUnknown, "encode session", err)
	}
	if err := s.client.Set(ctx, s.key(session.ID()), payload, s.ttl).Err(); err != nil {
		return domain.WrapError(domain.CodeDatabase, "save session", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (*app.QuizSession, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, domain.WrapError(domain.CodeDatabase, "load session", err)
	}
	var st app.SessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, domain.WrapError(domain.CodeDatabase, "decode session", err)
	}
	return app.RestoreQuizSession(st), nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return domain.WrapError(domain.CodeDatabase, "delete session", err)
	}
	return nil
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
