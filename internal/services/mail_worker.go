package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/pkg/logger"
)

// MailWorker processes queued mails when the async queue is active.
type MailWorker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sender  func(context.Context, *Mail) error
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewMailWorker creates a worker instance. Returns nil when Redis is
// disabled (the sync queue delivers in-process instead).
func NewMailWorker(cfg *config.RedisConfig) *MailWorker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Infof("[MailWorker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &MailWorker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

// SetSender sets the function that performs the SMTP delivery.
func (w *MailWorker) SetSender(sender func(context.Context, *Mail) error) {
	w.sender = sender
}

// Start begins processing queued mails.
func (w *MailWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeMail, w.handleMail)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[MailWorker] Starting async mail worker...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Infof("[MailWorker] Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker.
func (w *MailWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[MailWorker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[MailWorker] Shutdown complete")
}

func (w *MailWorker) handleMail(ctx context.Context, t *asynq.Task) error {
	var mail Mail
	if err := json.Unmarshal(t.Payload(), &mail); err != nil {
		logger.Infof("[MailWorker] Failed to unmarshal mail: %v", err)
		return err
	}

	if w.sender == nil {
		logger.Infof("[MailWorker] Warning: no sender set, mail to %s dropped", mail.To)
		return nil
	}

	return w.sender(ctx, &mail)
}
