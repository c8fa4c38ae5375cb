package mailqueue

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// maxRetries is the ceiling on re-deliveries per job; after that the job is
// dropped with a log line only.
const maxRetries = 3

type Job struct {
	To      string
	Subject string
	Body    string
	Retries int
}

type Sender interface {
	Send(job Job) error
}

// Queue is a process-local, single-consumer, at-least-once email queue.
// Enqueue never blocks the caller; the consumer drains jobs strictly FIFO,
// one at a time, re-enqueueing failures at the tail. Nothing is persisted:
// a restart loses whatever is pending, which is acceptable because the
// registration row, not the email, is the record of truth.
type Queue struct {
	mu   sync.Mutex
	jobs []Job

	wake   chan struct{}
	sender Sender
	log    *zerolog.Logger

	done   chan struct{}
	cancel context.CancelFunc
}

func New(sender Sender, log *zerolog.Logger) *Queue {
	return &Queue{
		wake:   make(chan struct{}, 1),
		sender: sender,
		log:    log,
		done:   make(chan struct{}),
	}
}

// Enqueue appends the job and nudges the consumer.
func (q *Queue) Enqueue(job Job) {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Start launches the consumer goroutine. Use Stop to wait it out.
func (q *Queue) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	go func() {
		defer close(q.done)
		q.log.Info().Msg("mail queue consumer started")
		for {
			select {
			case <-cctx.Done():
				q.log.Info().Msg("mail queue consumer stopped")
				return
			case <-q.wake:
				q.drain(cctx)
			}
		}
	}()
}

func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
		<-q.done
	}
}

// Len reports the number of jobs waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *Queue) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		q.mu.Lock()
		if len(q.jobs) == 0 {
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		if err := q.sender.Send(job); err != nil {
			if job.Retries < maxRetries {
				job.Retries++
				q.log.Warn().
					Err(err).
					Str("to", job.To).
					Int("retry", job.Retries).
					Msg("email send failed, re-enqueueing")
				q.mu.Lock()
				q.jobs = append(q.jobs, job)
				q.mu.Unlock()
				continue
			}
			q.log.Error().
				Err(err).
				Str("to", job.To).
				Str("subject", job.Subject).
				Msg("email dropped after retry ceiling")
			continue
		}

		q.log.Info().
			Str("to", job.To).
			Str("subject", job.Subject).
			Msg("email sent")
	}
}
