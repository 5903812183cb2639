package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// MockProvider records how many generations overlap.
type MockProvider struct {
	delay     time.Duration
	inFlight  int32
	maxFlight int32
	calls     int32
}

func (m *MockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	atomic.AddInt32(&m.calls, 1)
	for {
		cur := atomic.LoadInt32(&m.maxFlight)
		if n <= cur || atomic.CompareAndSwapInt32(&m.maxFlight, cur, n) {
			break
		}
	}

	select {
	case <-time.After(m.delay):
		return "answer: " + prompt, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestSerial_OneGenerationAtATime(t *testing.T) {
	mock := &MockProvider{delay: 5 * time.Millisecond}
	s := NewSerial(mock, 4)
	defer s.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			prompt := fmt.Sprintf("q%d", i)
			answer, err := s.Generate(context.Background(), prompt)
			if err != nil {
				errs <- err
				return
			}
			if answer != "answer: "+prompt {
				errs <- fmt.Errorf("got %q for %q", answer, prompt)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	if got := atomic.LoadInt32(&mock.maxFlight); got != 1 {
		t.Errorf("max concurrent generations = %d, want 1", got)
	}
	if got := atomic.LoadInt32(&mock.calls); got != 20 {
		t.Errorf("calls = %d, want 20", got)
	}
}

func TestSerial_CallerTimeout(t *testing.T) {
	mock := &MockProvider{delay: time.Second}
	s := NewSerial(mock, 1)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.Generate(ctx, "slow"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}

func TestSerial_Close(t *testing.T) {
	s := NewSerial(&MockProvider{}, 1)
	s.Close()
	s.Close()

	if _, err := s.Generate(context.Background(), "late"); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped after Close, got %v", err)
	}
}
