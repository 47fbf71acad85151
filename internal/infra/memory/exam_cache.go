package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"assessment-service/internal/domain"
)

// ExamLoader fetches exam content from a backing store (e.g., Postgres).
type ExamLoader interface {
	FindByID(ctx context.Context, id string) (domain.Exam, error)
}

// ExamCache caches exams with TTL to avoid repeated DB hits. It implements app.ExamReader.
type ExamCache struct {
	loader ExamLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedExam
}

type cachedExam struct {
	exam      domain.Exam
	expiresAt time.Time
}

func NewExamCache(loader ExamLoader, ttl time.Duration) *ExamCache {
	return &ExamCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedExam),
	}
}

// WithClock is test-only for deterministic expiry.
func (c *ExamCache) WithClock(now func() time.Time) *ExamCache {
	c.clock = now
	return c
}

func (c *ExamCache) GetExam(ctx context.Context, examID string) (domain.Exam, error) {
	if exam, ok := c.lookup(examID, c.clock()); ok {
		return exam, nil
	}

	result, err, _ := c.sf.Do(examID, func() (interface{}, error) {
		now := c.clock()
		if exam, ok := c.lookup(examID, now); ok {
			return exam, nil
		}

		exam, err := c.loader.FindByID(ctx, examID)
		if err != nil {
			return domain.Exam{}, err
		}

		c.mu.Lock()
		c.cache[examID] = cachedExam{exam: exam, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return exam, nil
	})
	if err != nil {
		return domain.Exam{}, err
	}
	return result.(domain.Exam), nil
}

// Invalidate drops a cached exam after it has been edited.
func (c *ExamCache) Invalidate(_ context.Context, examID string) error {
	c.mu.Lock()
	delete(c.cache, examID)
	c.mu.Unlock()
	return nil
}

func (c *ExamCache) lookup(examID string, now time.Time) (domain.Exam, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[examID]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Exam{}, false
	}
	return entry.exam, true
}

func (c *ExamCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
