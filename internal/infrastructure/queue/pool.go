package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/scalpr/scalp/internal/application/ports"
	"github.com/scalpr/scalp/internal/domain"
)

// ErrQueueFull is returned by Pool.Schedule when the job was dropped.
var ErrQueueFull = errors.New("provisioning queue full")

// ErrPoolClosed is returned by Pool.Schedule after Shutdown.
var ErrPoolClosed = errors.New("provisioning pool closed")

type PoolConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// Pool implements ports.ProvisionScheduler in process, for deployments without Redis.
// Jobs are lost on restart.
type Pool struct {
	jobs        chan domain.UserID
	provisioner Provisioner
	timeout     time.Duration
	log         zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewPool(cfg PoolConfig, provisioner Provisioner, log zerolog.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	p := &Pool{
		jobs:        make(chan domain.UserID, cfg.QueueSize),
		provisioner: provisioner,
		timeout:     cfg.Timeout,
		log:         log,
	}
	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.work()
	}
	return p
}

// Schedule never blocks. The request context is not propagated: the job must
// outlive the response that scheduled it.
func (p *Pool) Schedule(_ context.Context, userID domain.UserID) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		provisioningDropped.Inc()
		return ErrPoolClosed
	}
	select {
	case p.jobs <- userID:
		return nil
	default:
		provisioningDropped.Inc()
		p.log.Warn().Str("user_id", userID.String()).Msg("provisioning queue full, job dropped")
		return ErrQueueFull
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for id := range p.jobs {
		p.run(id)
	}
}

func (p *Pool) run(id domain.UserID) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Str("user_id", id.String()).Msg("wallet provisioning panicked")
		}
	}()
	recordOutcome(p.provisioner.Provision(ctx, id))
}

// Shutdown stops accepting jobs and waits for queued ones to finish or ctx to end.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ ports.ProvisionScheduler = (*Pool)(nil)
