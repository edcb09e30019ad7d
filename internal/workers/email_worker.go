package workers

import (
	"context"
	"fmt"
	"time"

	"cycup_backend/internal/logger"
	"cycup_backend/internal/queue"
)

const emailWorkerName = "email"

// JobQueue - часть queue.EmailQueue, нужная воркеру
type JobQueue interface {
	Reserve(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job, cause error) (bool, error)
}

// EmailSender - часть email.Mailer, нужная воркеру
type EmailSender interface {
	SendVerificationPin(to, pinCode string) error
	SendPasswordReset(to, resetToken string) error
}

type EmailWorker struct {
	queue       JobQueue
	sender      EmailSender
	pollTimeout time.Duration
	errorPause  time.Duration
}

func NewEmailWorker(q JobQueue, sender EmailSender) *EmailWorker {
	return &EmailWorker{
		queue:       q,
		sender:      sender,
		pollTimeout: 5 * time.Second,
		errorPause:  time.Second,
	}
}

// Run обрабатывает задачи, пока ctx не отменен
func (w *EmailWorker) Run(ctx context.Context) {
	logger.Info("Email worker started")
	for {
		if ctx.Err() != nil {
			logger.Info("Email worker stopped")
			return
		}

		job, err := w.queue.Reserve(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.WorkerLog(emailWorkerName, "reserve", err)
			w.pause(ctx)
			continue
		}
		if job == nil {
			continue
		}

		w.Process(ctx, job)
	}
}

// Process отправляет одно письмо; при ошибке задача уходит на повтор
func (w *EmailWorker) Process(ctx context.Context, job *queue.Job) {
	err := w.send(job)
	if err == nil {
		logger.WorkerLog(emailWorkerName, string(job.Name), nil,
			"job_id", job.ID,
			"email", logger.MaskEmail(job.Data.Email),
		)
		return
	}

	scheduled, retryErr := w.queue.Retry(ctx, job, err)
	if retryErr != nil {
		logger.WorkerLog(emailWorkerName, "retry", retryErr, "job_id", job.ID)
		return
	}
	logger.WorkerLog(emailWorkerName, string(job.Name), err,
		"job_id", job.ID,
		"attempts", job.Attempts,
		"scheduled_retry", scheduled,
	)
}

func (w *EmailWorker) send(job *queue.Job) error {
	switch job.Name {
	case queue.JobVerificationPin:
		return w.sender.SendVerificationPin(job.Data.Email, job.Data.PinCode)
	case queue.JobPasswordReset:
		return w.sender.SendPasswordReset(job.Data.Email, job.Data.ResetToken)
	default:
		return fmt.Errorf("unknown job name: %s", job.Name)
	}
}

func (w *EmailWorker) pause(ctx context.Context) {
	timer := time.NewTimer(w.errorPause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
