package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/templui/quizline/internal/model"
	"golang.org/x/sync/singleflight"
)

// RedisQuizCache stores quizzes as JSON strings under quiz:{id}.
// Redis failures fall back to the loader so a cache outage never fails a read.
type RedisQuizCache struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	jitter *jitter
}

func NewRedisQuizCache(client *redis.Client, loader QuizLoader, ttl time.Duration) *RedisQuizCache {
	return &RedisQuizCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		jitter: newJitter(),
	}
}

// NewRedisClient parses a redis:// URL and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisQuizCache) Quiz(ctx context.Context, quizID string) (*model.Quiz, error) {
	quiz, ok := c.read(ctx, quizID)
	if ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (any, error) {
		loadCtx, cancel := detach(ctx)
		defer cancel()

		quiz, ok := c.read(loadCtx, quizID)
		if ok {
			return quiz, nil
		}

		quiz, err := c.loader.LoadQuiz(loadCtx, quizID)
		if err != nil {
			return nil, err
		}

		c.write(loadCtx, quiz)
		return quiz, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.Quiz), nil
}

func (c *RedisQuizCache) Invalidate(ctx context.Context, quizID string) error {
	c.sf.Forget(quizID)
	return c.client.Del(ctx, quizKey(quizID)).Err()
}

func (c *RedisQuizCache) read(ctx context.Context, quizID string) (*model.Quiz, bool) {
	data, err := c.client.Get(ctx, quizKey(quizID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("quiz cache read failed", "quiz_id", quizID, "error", err)
		}
		return nil, false
	}

	quiz := &model.Quiz{}
	err = json.Unmarshal(data, quiz)
	if err != nil {
		slog.Warn("quiz cache entry corrupt", "quiz_id", quizID, "error", err)
		return nil, false
	}
	return quiz, true
}

func (c *RedisQuizCache) write(ctx context.Context, quiz *model.Quiz) {
	data, err := json.Marshal(quiz)
	if err != nil {
		slog.Warn("quiz cache encode failed", "quiz_id", quiz.ID, "error", err)
		return
	}

	err = c.client.Set(ctx, quizKey(quiz.ID), data, c.jitter.apply(c.ttl)).Err()
	if err != nil {
		slog.Warn("quiz cache write failed", "quiz_id", quiz.ID, "error", err)
	}
}

func quizKey(quizID string) string {
	return "quiz:" + quizID
}
