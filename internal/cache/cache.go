// Package cache keeps recently read quizzes close to the scoring path.
package cache

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/templui/quizline/internal/model"
)

// QuizLoader fetches a quiz with its questions from the backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (*model.Quiz, error)
}

// LoaderFunc adapts a function to QuizLoader.
type LoaderFunc func(ctx context.Context, quizID string) (*model.Quiz, error)

func (f LoaderFunc) LoadQuiz(ctx context.Context, quizID string) (*model.Quiz, error) {
	return f(ctx, quizID)
}

// QuizCache reads quizzes through a loader. Returned quizzes are shared and
// must be treated as read-only.
type QuizCache interface {
	Quiz(ctx context.Context, quizID string) (*model.Quiz, error)
	Invalidate(ctx context.Context, quizID string) error
}

// loadTimeout bounds a shared load once it no longer follows the request
// that started it.
const loadTimeout = 10 * time.Second

// detach gives a singleflight load its own lifetime. Callers joined to the
// load must not fail because the first caller went away.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
}

// jitter spreads expirations by up to 10% of ttl.
type jitter struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newJitter() *jitter {
	return &jitter{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (j *jitter) apply(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	jitterMax := int64(ttl) / 10
	j.mu.Lock()
	defer j.mu.Unlock()
	return ttl + time.Duration(j.rnd.Int63n(jitterMax+1))
}
