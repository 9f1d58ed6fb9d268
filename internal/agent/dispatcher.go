package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sickdaywithferris/booking-ai-platform/pkg/logging"
)

// Dispatcher exposes the queue-backed entrypoints used by HTTP handlers.
type Dispatcher interface {
	ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error)
	Shutdown(ctx context.Context) error
}

// ErrDispatcherClosed indicates the dispatcher is no longer accepting work.
var ErrDispatcherClosed = errors.New("agent: dispatcher closed")

// QueueDispatcher routes inbound messages through a queue before invoking
// the conversation engine. The same code points at LocalStack SQS during
// development and AWS SQS in production without touching the HTTP handlers.
type QueueDispatcher struct {
	engine Service
	queue  queueClient
	logger *logging.Logger

	cfg dispatcherConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pending sync.Map // jobID -> chan dispatchResult
}

var _ Dispatcher = (*QueueDispatcher)(nil)

const (
	defaultWorkers          = 2
	defaultReceiveWait      = 2  // seconds
	defaultReceiveMax       = 5  // messages
	maxReceiveWaitSeconds   = 20 // SQS limit
	maxReceiveBatchMessages = 10
)

type dispatcherConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

// DispatcherOption configures the dispatcher.
type DispatcherOption func(*dispatcherConfig)

// WithWorkerCount overrides the number of queue polling goroutines.
func WithWorkerCount(workers int) DispatcherOption {
	return func(cfg *dispatcherConfig) {
		if workers > 0 {
			cfg.workers = workers
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait time for ReceiveMessage calls.
func WithReceiveWaitSeconds(seconds int) DispatcherOption {
	return func(cfg *dispatcherConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxReceiveWaitSeconds {
			seconds = maxReceiveWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize overrides how many messages each poll should return.
func WithReceiveBatchSize(size int) DispatcherOption {
	return func(cfg *dispatcherConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchMessages {
			size = maxReceiveBatchMessages
		}
		cfg.receiveBatchSize = size
	}
}

// NewQueueDispatcher wires a queue-backed dispatcher around the engine.
func NewQueueDispatcher(engine Service, queue queueClient, logger *logging.Logger, opts ...DispatcherOption) *QueueDispatcher {
	if engine == nil {
		panic("agent: engine cannot be nil")
	}
	if queue == nil {
		panic("agent: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := dispatcherConfig{
		workers:          defaultWorkers,
		receiveWaitSecs:  defaultReceiveWait,
		receiveBatchSize: defaultReceiveMax,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &QueueDispatcher{
		engine: engine,
		queue:  queue,
		logger: logger,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < cfg.workers; i++ {
		d.wg.Add(1)
		go d.runWorker(i + 1)
	}

	return d
}

// ProcessMessage enqueues an inbound message and blocks until the engine
// finishes the pass.
func (d *QueueDispatcher) ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	jobID := uuid.NewString()
	payload := queuePayload{
		ID:      jobID,
		Kind:    jobTypeMessage,
		Message: req,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("agent: failed to encode payload: %w", err)
	}

	resultCh := make(chan dispatchResult, 1)
	d.pending.Store(jobID, resultCh)
	defer d.pending.Delete(jobID)

	if err := d.queue.Send(ctx, string(body)); err != nil {
		return nil, fmt.Errorf("agent: failed to enqueue job: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultCh:
		return res.response, res.err
	}
}

// Shutdown stops worker goroutines and notifies any pending callers.
func (d *QueueDispatcher) Shutdown(ctx context.Context) error {
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}

	d.pending.Range(func(key, value any) bool {
		if ch, ok := value.(chan dispatchResult); ok {
			select {
			case ch <- dispatchResult{err: ErrDispatcherClosed}:
			default:
			}
		}
		d.pending.Delete(key)
		return true
	})

	return nil
}

func (d *QueueDispatcher) runWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Debug("agent dispatcher worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-d.ctx.Done():
			d.logger.Debug("agent dispatcher worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := d.queue.Receive(d.ctx, d.cfg.receiveBatchSize, d.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			d.logger.Error("failed to receive agent jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			d.handleQueueMessage(msg)
		}
	}
}

func (d *QueueDispatcher) handleQueueMessage(msg queueMessage) {
	var payload queuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		d.logger.Error("failed to decode agent job", "error", err)
		d.deleteMessage(msg.ReceiptHandle)
		return
	}

	var (
		resp *Response
		err  error
	)
	switch payload.Kind {
	case jobTypeMessage:
		resp, err = d.engine.ProcessMessage(d.ctx, payload.Message)
	default:
		err = fmt.Errorf("agent: unknown job type %q", payload.Kind)
	}

	d.deleteMessage(msg.ReceiptHandle)
	d.deliverResult(payload.ID, resp, err)
}

func (d *QueueDispatcher) deleteMessage(receiptHandle string) {
	deleteCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.queue.Delete(deleteCtx, receiptHandle); err != nil {
		d.logger.Error("failed to delete agent job", "error", err)
	}
}

func (d *QueueDispatcher) deliverResult(jobID string, resp *Response, err error) {
	value, ok := d.pending.Load(jobID)
	if !ok {
		d.logger.Debug("no waiting caller for agent job", "job_id", jobID)
		return
	}

	ch, ok := value.(chan dispatchResult)
	if !ok {
		d.logger.Error("agent dispatcher pending map corrupted", "job_id", jobID)
		d.pending.Delete(jobID)
		return
	}

	select {
	case ch <- dispatchResult{response: resp, err: err}:
	default:
	}
}

type dispatchResult struct {
	response *Response
	err      error
}
