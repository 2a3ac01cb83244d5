package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/scalpr/scalp/internal/application/ports"
	"github.com/scalpr/scalp/internal/domain"
)

const (
	TypeProvisionWallet = "wallet:provision"

	provisionTaskTimeout = 30 * time.Second
)

type provisionPayload struct {
	UserID int64 `json:"user_id"`
}

// AsynqScheduler implements ports.ProvisionScheduler on a Redis-backed asynq queue.
type AsynqScheduler struct {
	client *asynq.Client
	log    zerolog.Logger
}

func NewAsynqScheduler(redisOpt asynq.RedisConnOpt, log zerolog.Logger) *AsynqScheduler {
	return &AsynqScheduler{client: asynq.NewClient(redisOpt), log: log}
}

func (q *AsynqScheduler) Close() error {
	return q.client.Close()
}

// provisionTaskID makes enqueues for the same user collapse into one task.
func provisionTaskID(userID domain.UserID) string {
	return TypeProvisionWallet + ":" + userID.String()
}

// Schedule enqueues a provisioning task. A task already queued for the user counts as scheduled.
func (q *AsynqScheduler) Schedule(ctx context.Context, userID domain.UserID) error {
	payload, err := json.Marshal(provisionPayload{UserID: int64(userID)})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeProvisionWallet, payload,
		asynq.TaskID(provisionTaskID(userID)),
		asynq.MaxRetry(0),
		asynq.Timeout(provisionTaskTimeout),
	)
	_, err = q.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		q.log.Debug().Str("user_id", userID.String()).Msg("wallet provisioning already queued")
		return nil
	}
	if err != nil {
		q.log.Warn().Err(err).Str("user_id", userID.String()).Msg("enqueue wallet provisioning failed")
		return fmt.Errorf("enqueue wallet provisioning: %w", err)
	}
	return nil
}

var _ ports.ProvisionScheduler = (*AsynqScheduler)(nil)
