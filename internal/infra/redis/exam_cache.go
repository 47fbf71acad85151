package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"assessment-service/internal/domain"
)

// ExamLoader fetches exam content from a backing store (e.g., Postgres).
type ExamLoader interface {
	FindByID(ctx context.Context, id string) (domain.Exam, error)
}

// ExamCache caches whole exams in Redis and falls back to a loader on cache miss.
// Exams are stored as: SET exam:{examID} <json> EX ttl
type ExamCache struct {
	client *redis.Client
	loader ExamLoader
	ttl    time.Duration
	log    zerolog.Logger
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewExamCache(client *redis.Client, loader ExamLoader, ttl time.Duration, log zerolog.Logger) *ExamCache {
	return &ExamCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		log:    log.With().Str("component", "exam-cache").Logger(),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ExamCache) GetExam(ctx context.Context, examID string) (domain.Exam, error) {
	if exam, ok := c.cached(ctx, examID); ok {
		return exam, nil
	}

	result, err, _ := c.sf.Do(examID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if exam, ok := c.cached(ctx, examID); ok {
			return exam, nil
		}

		exam, err := c.loader.FindByID(ctx, examID)
		if err != nil {
			return domain.Exam{}, err
		}

		payload, err := json.Marshal(exam)
		if err != nil {
			return domain.Exam{}, domain.WrapError(domain.CodeUnknown, "encode exam", err)
		}
		if err := c.client.Set(ctx, c.key(examID), payload, c.ttlWithJitter()).Err(); err != nil {
			c.log.Warn().Err(err).Str("examId", examID).Msg("cache exam")
		}
		return exam, nil
	})
	if err != nil {
		return domain.Exam{}, err
	}
	return result.(domain.Exam), nil
}

// Invalidate drops a cached exam after it has been edited.
func (c *ExamCache) Invalidate(ctx context.Context, examID string) error {
	return c.client.Del(ctx, c.key(examID)).Err()
}

func (c *ExamCache) cached(ctx context.Context, examID string) (domain.Exam, bool) {
	raw, err := c.client.Get(ctx, c.key(examID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("examId", examID).Msg("read cached exam")
		}
		return domain.Exam{}, false
	}
	var exam domain.Exam
	if err := json.Unmarshal(raw, &exam); err != nil {
		c.log.Warn().Err(err).Str("examId", examID).Msg("decode cached exam")
		return domain.Exam{}, false
	}
	return exam, true
}

func (c *ExamCache) key(examID string) string {
	return "exam:" + examID
}

func (c *ExamCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
