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

// AnswerLedger keeps graded answers in one hash per attempt so every instance sees the same ledger.
// Answers are stored as: HSETNX attempt:{attemptID}:answers {questionID} <json>
// HSETNX makes the first writer win when two submissions race. The hash TTL is refreshed in the
// same MULTI, so an answer is never recorded without its expiry.
type AnswerLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAnswerLedger(client *redis.Client, ttl time.Duration) *AnswerLedger {
	return &AnswerLedger{client: client, ttl: ttl}
}

func (l *AnswerLedger) Insert(ctx context.Context, attemptID, questionID string, out app.SubmitAnswerOutput) (bool, error) {
	payload, err := json.Marshal(out)
	if err != nil {
		return false, domain.WrapError(domain.CodeUnknown, "encode answer", err)
	}
	key := l.key(attemptID)
	var set *redis.BoolCmd
	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		set = pipe.HSetNX(ctx, key, questionID, payload)
		if l.ttl > 0 {
			pipe.Expire(ctx, key, l.ttl)
		}
		return nil
	})
	if err != nil {
		return false, domain.WrapError(domain.CodeDatabase, "record answer", err)
	}
	return set.Val(), nil
}

func (l *AnswerLedger) Get(ctx context.Context, attemptID, questionID string) (app.SubmitAnswerOutput, bool, error) {
	raw, err := l.client.HGet(ctx, l.key(attemptID), questionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return app.SubmitAnswerOutput{}, false, nil
	}
	if err != nil {
		return app.SubmitAnswerOutput{}, false, domain.WrapError(domain.CodeDatabase, "load answer", err)
	}
	var out app.SubmitAnswerOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return app.SubmitAnswerOutput{}, false, domain.WrapError(domain.CodeDatabase, "decode answer", err)
	}
	return out, true, nil
}

func (l *AnswerLedger) Clear(ctx context.Context, attemptID string) error {
	if err := l.client.Del(ctx, l.key(attemptID)).Err(); err != nil {
		return domain.WrapError(domain.CodeDatabase, "clear attempt", err)
	}
	return nil
}

func (l *AnswerLedger) key(attemptID string) string {
	return "attempt:" + attemptID + ":answers"
}
