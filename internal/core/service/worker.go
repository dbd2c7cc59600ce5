package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mzylinski/vatworker/internal/adapter/config"
	"github.com/mzylinski/vatworker/internal/core/domain"
	"github.com/mzylinski/vatworker/internal/core/port"
	"github.com/mzylinski/vatworker/internal/core/utils"
)

// Worker drives the claim/compute/persist/publish loop over unprocessed
// orders. Persisting always precedes publishing: after a restart a marked
// row is never re-selected, so the only duplicate source is an explicit
// publish retry, which downstream consumers deduplicate by order id.
type Worker struct {
	repo      port.OrderRepository
	publisher port.QueuePublisher
	logger    *zap.Logger

	queue             string
	batchSize         int
	pollInterval      time.Duration
	errorInterval     time.Duration
	publishAttempts   int
	publishTimeout    time.Duration
	publishDelay      utils.DelayFunc
	storeFailureLimit int

	running   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewWorker(repo port.OrderRepository, publisher port.QueuePublisher,
	cfg *config.Worker, queue string, logger *zap.Logger) (*Worker, error) {
	return &Worker{
		repo:              repo,
		publisher:         publisher,
		logger:            logger,
		queue:             queue,
		batchSize:         cfg.BatchSize,
		pollInterval:      cfg.PollInterval,
		errorInterval:     cfg.ErrorInterval,
		publishAttempts:   cfg.PublishMaxAttempts,
		publishTimeout:    cfg.PublishTimeout,
		publishDelay:      utils.ExponentialDelay(cfg.PublishBackoff, cfg.PublishBackoffMax),
		storeFailureLimit: cfg.StoreFailureLimit,
		done:              make(chan struct{}),
	}, nil
}

// Start launches the loop goroutine. Subsequent calls are no-ops. Stop must
// not be called before Start; the supervisor guarantees the ordering.
func (w *Worker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		w.cancel = cancel
		w.running.Store(true)
		go w.run(runCtx)
	})
}

// Stop requests a cooperative stop. The loop finishes its current iteration;
// use Done to wait for it.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.cancel()
	})
}

func (w *Worker) Running() bool {
	return w.running.Load()
}

func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	defer w.running.Store(false)

	w.logger.Info("worker started",
		zap.String("queue", w.queue),
		zap.Int("batchSize", w.batchSize),
		zap.Duration("pollInterval", w.pollInterval))

	storeFailures := 0
	for {
		if ctx.Err() != nil {
			w.logger.Info("worker stopped")
			return
		}

		orders, err := w.repo.FindUnprocessed(ctx, w.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("worker stopped")
				return
			}
			storeFailures++
			w.logger.Error("find unprocessed orders",
				zap.Error(err), zap.Int("consecutiveFailures", storeFailures))
			if storeFailures == w.storeFailureLimit {
				w.logger.Error("store unreachable across consecutive polls",
					zap.Int("polls", storeFailures))
			}
			if !w.wait(ctx, w.errorInterval) {
				w.logger.Info("worker stopped")
				return
			}
			continue
		}
		storeFailures = 0

		batchFailed := false
		for _, order := range orders {
			if ctx.Err() != nil {
				w.logger.Info("worker stopped")
				return
			}
			// a failed row logs and is left for the next poll; the batch
			// and the loop keep going
			if err := w.process(ctx, order); err != nil {
				batchFailed = true
				w.logger.Error("process order",
					zap.String("order", order.ID.String()), zap.Error(err))
			}
		}

		// a failed row must not turn into a tight re-poll loop
		if batchFailed {
			if !w.wait(ctx, w.errorInterval) {
				w.logger.Info("worker stopped")
				return
			}
		} else if len(orders) == 0 {
			if !w.wait(ctx, w.pollInterval) {
				w.logger.Info("worker stopped")
				return
			}
		}
	}
}

func (w *Worker) process(ctx context.Context, order domain.Order) error {
	processed, err := domain.NewProcessedOrder(order)
	if err != nil {
		return fmt.Errorf("compute vat: %w", err)
	}

	// the row stays unprocessed on failure and is re-selected next pass
	err = w.repo.MarkProcessed(ctx, order.ID, processed.VATAmount, processed.TotalAmount)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}

	body, err := json.Marshal(processed)
	if err != nil {
		return fmt.Errorf("marshal processed order: %w", err)
	}

	return w.publishWithRetry(ctx, order.ID, body)
}

// publishWithRetry makes bounded attempts with backoff. The row is already
// marked, so exhaustion must surface loudly: the full payload is logged for
// manual reconciliation and is never dropped silently.
func (w *Worker) publishWithRetry(ctx context.Context, id uuid.UUID, body []byte) error {
	var lastErr error
	for attempt := 0; attempt < w.publishAttempts; attempt++ {
		if attempt > 0 {
			if !w.wait(ctx, w.publishDelay(attempt-1)) {
				w.logger.Warn("stop requested before message was delivered",
					zap.String("order", id.String()),
					zap.ByteString("payload", body))
				return ctx.Err()
			}
		}

		// a stop during an in-flight attempt lets the attempt finish; the
		// stop is honored at the retry boundary above
		attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.publishTimeout)
		lastErr = w.publisher.Publish(attemptCtx, w.queue, body)
		cancel()
		if lastErr == nil {
			w.logger.Debug("published processed order", zap.String("order", id.String()))
			return nil
		}
		w.logger.Warn("publish attempt failed",
			zap.String("order", id.String()),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}

	w.logger.Error("delivery failure: order marked processed but not published",
		zap.String("order", id.String()),
		zap.ByteString("payload", body),
		zap.Int("attempts", w.publishAttempts),
		zap.Error(lastErr))
	return fmt.Errorf("%w: order %s: %v", domain.ErrDeliveryFailure, id, lastErr)
}

func (w *Worker) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
