package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/scalpr/scalp/internal/application/provisioning"
	"github.com/scalpr/scalp/internal/domain"
)

// Provisioner is the job both dispatchers run.
type Provisioner interface {
	Provision(ctx context.Context, userID domain.UserID) provisioning.Outcome
}

// Worker runs Asynq task handlers for wallet provisioning.
type Worker struct {
	srv         *asynq.Server
	mux         *asynq.ServeMux
	provisioner Provisioner
	log         zerolog.Logger
}

// NewWorker creates an Asynq server and registers handlers. Call Run() to start.
func NewWorker(redisOpt asynq.RedisConnOpt, concurrency int, provisioner Provisioner, log zerolog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 2
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		LogLevel:    asynq.InfoLevel,
	})
	mux := asynq.NewServeMux()
	w := &Worker{srv: srv, mux: mux, provisioner: provisioner, log: log}
	mux.HandleFunc(TypeProvisionWallet, w.handleProvisionWallet)
	return w
}

func (w *Worker) handleProvisionWallet(ctx context.Context, t *asynq.Task) error {
	var p provisionPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil || p.UserID <= 0 {
		w.log.Error().Err(err).Msg("wallet provisioning task payload invalid")
		return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
	}
	// Provisioning failures are final; the outcome is recorded, not retried.
	recordOutcome(w.provisioner.Provision(ctx, domain.UserID(p.UserID)))
	return nil
}

// Run blocks until shutdown. Use Shutdown for graceful stop.
func (w *Worker) Run() error {
	return w.srv.Run(w.mux)
}

// Start runs the worker in the background.
func (w *Worker) Start() error {
	return w.srv.Start(w.mux)
}

// Shutdown stops the worker.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}
