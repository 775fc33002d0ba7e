package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/pkg/logger"
)

const (
	TaskTypeMail = "mail:deliver"
)

// Mail is an outbound email queued for delivery.
type Mail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// MailQueue defines the interface for outbound mail dispatch.
type MailQueue interface {
	// Enqueue hands a mail off for delivery
	Enqueue(mail *Mail) error
	// IsAsync returns true if the queue delivers via a separate worker
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// Global mail queue instance
var (
	globalMailQueue MailQueue
	mailQueueOnce   sync.Once
)

// InitMailQueue initializes the global mail queue based on config.
func InitMailQueue(cfg *config.Config) MailQueue {
	mailQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncMailQueue(&cfg.Redis)
			if err != nil {
				logger.Infof("[MailQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalMailQueue = NewSyncMailQueue()
			} else {
				logger.Infof("[MailQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalMailQueue = queue
			}
		} else {
			logger.Infof("[MailQueue] Sync queue initialized (Redis disabled)")
			globalMailQueue = NewSyncMailQueue()
		}
	})
	return globalMailQueue
}

// GetMailQueue returns the global mail queue instance.
func GetMailQueue() MailQueue {
	return globalMailQueue
}

// AsyncMailQueue implements MailQueue using asynq (Redis-based).
type AsyncMailQueue struct {
	client *asynq.Client
}

// NewAsyncMailQueue creates a new Redis-based async queue.
func NewAsyncMailQueue(cfg *config.RedisConfig) (*AsyncMailQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	_, err := inspector.Queues()
	if err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncMailQueue{client: client}, nil
}

// Enqueue adds a mail to the async queue.
func (q *AsyncMailQueue) Enqueue(mail *Mail) error {
	payload, err := json.Marshal(mail)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeMail, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Infof("[MailQueue] Mail enqueued: id=%s, to=%s", info.ID, mail.To)
	return nil
}

func (q *AsyncMailQueue) IsAsync() bool {
	return true
}

func (q *AsyncMailQueue) Close() error {
	return q.client.Close()
}

// SyncMailQueue implements MailQueue with in-process delivery (no Redis).
type SyncMailQueue struct {
	sender func(context.Context, *Mail) error
}

// NewSyncMailQueue creates a new synchronous queue.
func NewSyncMailQueue() *SyncMailQueue {
	return &SyncMailQueue{}
}

// SetSender sets the function that performs the SMTP delivery.
func (q *SyncMailQueue) SetSender(sender func(context.Context, *Mail) error) {
	q.sender = sender
}

// Enqueue delivers the mail in a goroutine so callers never block on SMTP.
func (q *SyncMailQueue) Enqueue(mail *Mail) error {
	if q.sender == nil {
		logger.Infof("[MailQueue] Warning: no sender set, mail to %s dropped", mail.To)
		return nil
	}

	go func() {
		ctx := context.Background()
		if err := q.sender(ctx, mail); err != nil {
			logger.Infof("[MailQueue] Delivery failed: to=%s err=%v", mail.To, err)
		}
	}()

	return nil
}

func (q *SyncMailQueue) IsAsync() bool {
	return false
}

func (q *SyncMailQueue) Close() error {
	return nil
}
