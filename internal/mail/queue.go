package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	// QueueDefault is the queue mail tasks are enqueued on.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
)

// NewSendEmailTask constructs an asynq task carrying m.
func NewSendEmailTask(m Message) (*asynq.Task, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.MaxRetry(5), asynq.Timeout(time.Minute)), nil
}

// Enqueuer is the subset of *asynq.Client used by QueueSender.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueSender hands messages to the background worker instead of sending
// them inline.
type QueueSender struct {
	client Enqueuer
	log    *zap.Logger
}

// NewQueueSender creates a QueueSender over client.
func NewQueueSender(client Enqueuer, log *zap.Logger) *QueueSender {
	return &QueueSender{client: client, log: log}
}

// Send enqueues m on the default queue.
func (q *QueueSender) Send(ctx context.Context, m Message) error {
	task, err := NewSendEmailTask(m)
	if err != nil {
		return fmt.Errorf("mail: build task: %w", err)
	}
	info, err := q.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	if err != nil {
		return fmt.Errorf("mail: enqueue: %w", err)
	}
	q.log.Debug("mail enqueued", zap.String("task_id", info.ID), zap.String("to", m.To))
	return nil
}

// TaskHandler delivers queued mail with the wrapped Sender.
type TaskHandler struct {
	sender Sender
	log    *zap.Logger
}

// NewTaskHandler creates a handler for TaskTypeSendEmail.
func NewTaskHandler(sender Sender, log *zap.Logger) *TaskHandler {
	return &TaskHandler{sender: sender, log: log}
}

// ProcessTask implements asynq.Handler. Undecodable payloads are not retried.
func (h *TaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var m Message
	if err := json.Unmarshal(t.Payload(), &m); err != nil {
		h.log.Error("dropping malformed mail task", zap.Error(err))
		return fmt.Errorf("decode mail payload: %v: %w", err, asynq.SkipRetry)
	}
	if m.To == "" {
		h.log.Error("dropping mail task without recipient")
		return fmt.Errorf("mail task without recipient: %w", asynq.SkipRetry)
	}
	if err := h.sender.Send(ctx, m); err != nil {
		h.log.Warn("mail delivery failed", zap.String("to", m.To), zap.Error(err))
		return err
	}
	h.log.Info("mail delivered", zap.String("to", m.To), zap.String("subject", m.Subject))
	return nil
}

// NewServeMux registers the mail handler on a fresh asynq mux.
func NewServeMux(h *TaskHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TaskTypeSendEmail, h)
	return mux
}
