package cache

import (
	"context"
	"sync"
	"time"

	"github.com/templui/quizline/internal/model"
	"golang.org/x/sync/singleflight"
)

// MemoryQuizCache caches quizzes in process with a TTL.
type MemoryQuizCache struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	jitter *jitter

	mu      sync.RWMutex
	entries map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      *model.Quiz
	expiresAt time.Time
}

func NewMemoryQuizCache(loader QuizLoader, ttl time.Duration) *MemoryQuizCache {
	return newMemoryQuizCacheWithClock(loader, ttl, time.Now)
}

func newMemoryQuizCacheWithClock(loader QuizLoader, ttl time.Duration, clock func() time.Time) *MemoryQuizCache {
	return &MemoryQuizCache{
		loader:  loader,
		ttl:     ttl,
		clock:   clock,
		jitter:  newJitter(),
		entries: make(map[string]cachedQuiz),
	}
}

func (c *MemoryQuizCache) Quiz(ctx context.Context, quizID string) (*model.Quiz, error) {
	quiz, ok := c.lookup(quizID)
	if ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (any, error) {
		// another caller may have filled the entry while we waited
		quiz, ok := c.lookup(quizID)
		if ok {
			return quiz, nil
		}

		loadCtx, cancel := detach(ctx)
		defer cancel()

		quiz, err := c.loader.LoadQuiz(loadCtx, quizID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[quizID] = cachedQuiz{
			quiz:      quiz,
			expiresAt: c.clock().Add(c.jitter.apply(c.ttl)),
		}
		c.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.Quiz), nil
}

func (c *MemoryQuizCache) Invalidate(_ context.Context, quizID string) error {
	c.mu.Lock()
	delete(c.entries, quizID)
	c.mu.Unlock()
	c.sf.Forget(quizID)
	return nil
}

func (c *MemoryQuizCache) lookup(quizID string) (*model.Quiz, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[quizID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return entry.quiz, true
}
