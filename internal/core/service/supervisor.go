package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mzylinski/vatworker/internal/core/port"
)

// Supervisor owns the worker lifecycle and the broker connection. The
// connection is acquired on Start and released on every Stop path, even when
// the loop fails to join within the shutdown timeout.
type Supervisor struct {
	worker  *Worker
	broker  port.BrokerConnection
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
}

func NewSupervisor(worker *Worker, broker port.BrokerConnection,
	shutdownTimeout time.Duration, logger *zap.Logger) (*Supervisor, error) {
	return &Supervisor{
		worker:  worker,
		broker:  broker,
		logger:  logger,
		timeout: shutdownTimeout,
	}, nil
}

func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if err := s.broker.Connect(ctx); err != nil {
		return fmt.Errorf("connect broker: %w", err)
	}

	s.worker.Start(ctx)
	s.started = true
	s.logger.Info("worker supervised and running")

	return nil
}

// Stop signals the worker, waits for its loop to join bounded by the
// shutdown timeout, and closes the broker connection. Safe to call more
// than once.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return nil
	}
	s.stopped = true

	s.worker.Stop()

	t := time.NewTimer(s.timeout)
	defer t.Stop()

	select {
	case <-s.worker.Done():
		s.logger.Info("worker loop finished")
	case <-t.C:
		s.logger.Warn("worker did not stop within shutdown timeout, releasing resources anyway",
			zap.Duration("timeout", s.timeout))
	case <-ctx.Done():
		s.logger.Warn("shutdown wait canceled", zap.Error(ctx.Err()))
	}

	if err := s.broker.Close(); err != nil {
		return fmt.Errorf("close broker: %w", err)
	}

	return nil
}

func (s *Supervisor) Running() bool {
	return s.worker.Running()
}
