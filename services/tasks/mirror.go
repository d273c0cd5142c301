package tasks

import (
	"context"
	"encoding/json"
	"time"

	"bookflow/config"
	"bookflow/models"

	"github.com/hibiken/asynq"
)

const TypeMirrorBooking = "calendar:mirror"

// NewMirrorTask builds the asynq task carrying one mirror action.
func NewMirrorTask(payload models.MirrorPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeMirrorBooking, b)
	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
	}
	return task, opts, nil
}

// MirrorEnqueuer hands mirror tasks to the queue. It satisfies the booking
// service's enqueuer contract.
type MirrorEnqueuer struct {
	client *asynq.Client
}

func NewMirrorEnqueuer() *MirrorEnqueuer {
	return &MirrorEnqueuer{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisMirrorQueueDB,
		}),
	}
}

func (e *MirrorEnqueuer) EnqueueMirror(ctx context.Context, payload models.MirrorPayload) error {
	task, opts, err := NewMirrorTask(payload)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, opts...)
	return err
}

func (e *MirrorEnqueuer) Close() error {
	return e.client.Close()
}
