package mailqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []Job
	attempts map[string]int
	failFor  map[string]int // recipient -> number of failures before success
	failAll  bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		attempts: make(map[string]int),
		failFor:  make(map[string]int),
	}
}

func (s *fakeSender) Send(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[job.To]++
	if s.failAll {
		return errors.New("smtp down")
	}
	if n := s.failFor[job.To]; n > 0 {
		s.failFor[job.To] = n - 1
		return errors.New("transient failure")
	}
	s.sent = append(s.sent, job)
	return nil
}

func (s *fakeSender) sentTo() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sent))
	for _, j := range s.sent {
		out = append(out, j.To)
	}
	return out
}

func (s *fakeSender) attemptsFor(to string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[to]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func startQueue(t *testing.T, sender Sender) *Queue {
	t.Helper()
	log := zerolog.Nop()
	q := New(sender, &log)
	q.Start(context.Background())
	t.Cleanup(q.Stop)
	return q
}

func TestDrainsInFIFOOrder(t *testing.T) {
	sender := newFakeSender()
	q := startQueue(t, sender)

	q.Enqueue(Job{To: "a@example.com", Subject: "first"})
	q.Enqueue(Job{To: "b@example.com", Subject: "second"})
	q.Enqueue(Job{To: "c@example.com", Subject: "third"})

	waitFor(t, func() bool { return len(sender.sentTo()) == 3 })

	got := sender.sentTo()
	want := []string{"a@example.com", "b@example.com", "c@example.com"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v, want %v", i, got, want)
		}
	}
}

func TestTransientFailureIsRetried(t *testing.T) {
	sender := newFakeSender()
	sender.failFor["a@example.com"] = 2
	q := startQueue(t, sender)

	q.Enqueue(Job{To: "a@example.com", Subject: "s"})

	waitFor(t, func() bool { return len(sender.sentTo()) == 1 })

	if got := sender.attemptsFor("a@example.com"); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestJobDroppedAfterRetryCeiling(t *testing.T) {
	sender := newFakeSender()
	sender.failAll = true
	q := startQueue(t, sender)

	q.Enqueue(Job{To: "a@example.com", Subject: "s"})

	// Initial attempt plus 3 retries, then dropped.
	waitFor(t, func() bool { return sender.attemptsFor("a@example.com") == 4 })
	waitFor(t, func() bool { return q.Len() == 0 })

	time.Sleep(20 * time.Millisecond)
	if got := sender.attemptsFor("a@example.com"); got != 4 {
		t.Fatalf("job retried past the ceiling: %d attempts", got)
	}
}

func TestFailingJobDoesNotStarveLaterJobs(t *testing.T) {
	sender := newFakeSender()
	sender.failFor["a@example.com"] = 1
	q := startQueue(t, sender)

	q.Enqueue(Job{To: "a@example.com"})
	q.Enqueue(Job{To: "b@example.com"})

	waitFor(t, func() bool { return len(sender.sentTo()) == 2 })

	// The failed job was re-enqueued at the tail, so b went out first.
	got := sender.sentTo()
	if got[0] != "b@example.com" || got[1] != "a@example.com" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestEnqueueDoesNotBlock(t *testing.T) {
	sender := newFakeSender()
	log := zerolog.Nop()
	q := New(sender, &log) // consumer never started

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			q.Enqueue(Job{To: "a@example.com"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked without a running consumer")
	}
	if q.Len() != 100 {
		t.Fatalf("expected 100 queued jobs, got %d", q.Len())
	}
}
