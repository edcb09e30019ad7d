package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type JobName string

const (
	JobVerificationPin JobName = "verification-pin"
	JobPasswordReset   JobName = "password-reset"
)

type JobData struct {
	Email      string `json:"email"`
	PinCode    string `json:"pinCode,omitempty"`
	ResetToken string `json:"resetToken,omitempty"`
}

// Job - одно письмо в очереди
type Job struct {
	ID          string    `json:"id"`
	Name        JobName   `json:"name"`
	Data        JobData   `json:"data"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"maxAttempts"`
	CreatedAt   time.Time `json:"createdAt"`
	LastError   string    `json:"lastError,omitempty"`
}

type Options struct {
	Prefix      string
	MaxAttempts int
	Backoff     time.Duration // задержка после первой неудачи, дальше удваивается
}

func DefaultOptions() Options {
	return Options{
		Prefix:      "email:queue",
		MaxAttempts: 5,
		Backoff:     5 * time.Second,
	}
}

// EmailQueue - очередь писем на Redis:
// ready (list) -> worker; при ошибке delayed (zset, score = время запуска в ms);
// после MaxAttempts попыток - failed (list)
type EmailQueue struct {
	rdb  *redis.Client
	opts Options
	now  func() time.Time
}

func NewEmailQueue(rdb *redis.Client, opts Options) *EmailQueue {
	defaults := DefaultOptions()
	if opts.Prefix == "" {
		opts.Prefix = defaults.Prefix
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaults.MaxAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaults.Backoff
	}
	return &EmailQueue{rdb: rdb, opts: opts, now: time.Now}
}

func (q *EmailQueue) readyKey() string   { return q.opts.Prefix + ":ready" }
func (q *EmailQueue) delayedKey() string { return q.opts.Prefix + ":delayed" }
func (q *EmailQueue) failedKey() string  { return q.opts.Prefix + ":failed" }

// Enqueue кладет новую задачу в очередь
func (q *EmailQueue) Enqueue(ctx context.Context, name JobName, data JobData) (*Job, error) {
	job := &Job{
		ID:          uuid.NewString(),
		Name:        name,
		Data:        data,
		MaxAttempts: q.opts.MaxAttempts,
		CreatedAt:   q.now().UTC(),
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.readyKey(), payload).Err(); err != nil {
		return nil, fmt.Errorf("failed to enqueue %s job: %w", name, err)
	}
	return job, nil
}

func (q *EmailQueue) EnqueueVerificationEmail(ctx context.Context, email, pinCode string) error {
	_, err := q.Enqueue(ctx, JobVerificationPin, JobData{Email: email, PinCode: pinCode})
	return err
}

func (q *EmailQueue) EnqueuePasswordResetEmail(ctx context.Context, email, resetToken string) error {
	_, err := q.Enqueue(ctx, JobPasswordReset, JobData{Email: email, ResetToken: resetToken})
	return err
}

// Reserve забирает следующую задачу. (nil, nil) - очередь пуста в течение timeout.
func (q *EmailQueue) Reserve(ctx context.Context, timeout time.Duration) (*Job, error) {
	if _, err := q.PromoteDue(ctx); err != nil {
		return nil, err
	}

	res, err := q.rdb.BRPop(ctx, timeout, q.readyKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BRPOP возвращает [key, value]
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	return &job, nil
}

// PromoteDue переносит отложенные задачи, время которых пришло, в ready
func (q *EmailQueue) PromoteDue(ctx context.Context) (int, error) {
	upTo := strconv.FormatInt(q.now().UnixMilli(), 10)
	due, err := q.rdb.ZRangeByScore(ctx, q.delayedKey(), &redis.ZRangeBy{Min: "-inf", Max: upTo}).Result()
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, payload := range due {
		// Только тот, кто удалил элемент из zset, переносит его
		removed, err := q.rdb.ZRem(ctx, q.delayedKey(), payload).Result()
		if err != nil {
			return promoted, err
		}
		if removed == 0 {
			continue
		}
		if err := q.rdb.LPush(ctx, q.readyKey(), payload).Err(); err != nil {
			return promoted, err
		}
		promoted++
	}
	return promoted, nil
}

// Retry фиксирует неудачную попытку. Возвращает true, если задача отложена,
// и false, если попытки кончились и задача ушла в failed.
func (q *EmailQueue) Retry(ctx context.Context, job *Job, cause error) (bool, error) {
	job.Attempts++
	if cause != nil {
		job.LastError = cause.Error()
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("failed to encode job: %w", err)
	}

	if job.Attempts >= job.MaxAttempts {
		if err := q.rdb.LPush(ctx, q.failedKey(), payload).Err(); err != nil {
			return false, err
		}
		return false, nil
	}

	runAt := q.now().Add(q.BackoffFor(job.Attempts))
	err = q.rdb.ZAdd(ctx, q.delayedKey(), redis.Z{
		Score:  float64(runAt.UnixMilli()),
		Member: payload,
	}).Err()
	if err != nil {
		return false, err
	}
	return true, nil
}

// BackoffFor - экспоненциальная задержка: Backoff * 2^(attempts-1)
func (q *EmailQueue) BackoffFor(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return q.opts.Backoff * time.Duration(1<<uint(attempts-1))
}

type Stats struct {
	Ready   int64 `json:"ready"`
	Delayed int64 `json:"delayed"`
	Failed  int64 `json:"failed"`
}

func (q *EmailQueue) Stats(ctx context.Context) (*Stats, error) {
	pipe := q.rdb.Pipeline()
	ready := pipe.LLen(ctx, q.readyKey())
	delayed := pipe.ZCard(ctx, q.delayedKey())
	failed := pipe.LLen(ctx, q.failedKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return &Stats{Ready: ready.Val(), Delayed: delayed.Val(), Failed: failed.Val()}, nil
}
