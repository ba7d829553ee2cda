package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"social-chat/contract"
	"social-chat/errors"
)

const restartDelay = 200 * time.Millisecond

// Supervisor keeps its workers alive for the lifetime of the process.
// Each worker runs in its own goroutine; a panic or error is logged and the
// worker restarts after a short delay, while a clean return ends its
// supervision. Run blocks until every worker is done.
type Supervisor struct {
	Cancel  context.CancelFunc
	wg      *sync.WaitGroup
	log     *slog.Logger
	workers []contract.Worker
}

func NewSupervisor(log *slog.Logger) *Supervisor {
	return &Supervisor{wg: &sync.WaitGroup{}, log: log}
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Run supervises every added worker under a child context: cancellation of
// the parent ctx propagates down, while Stop cancels only the children.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	for _, worker := range s.workers {
		s.wg.Add(1)
		go s.supervise(supervisedCtx, worker)
	}
	s.wg.Wait()
}

// supervise is one worker's restart loop. A failure of this worker must not
// stop the supervisor or its siblings.
func (s *Supervisor) supervise(ctx context.Context, worker contract.Worker) {
	defer s.wg.Done()
	name := contract.GetWorkerName(worker)

	for ctx.Err() == nil {
		err := runOnce(ctx, worker)
		if err == nil {
			// Terminated properly, never restart !
			s.log.Info("Worker finished", "name", name)
			return
		}
		if ctx.Err() != nil {
			break
		}

		s.log.Warn("Worker crashed, restarting", "name", name, "error", err)
		select {
		case <-ctx.Done():
		case <-time.After(restartDelay):
		}
	}
	s.log.Info("Worker stopped", "name", name)
}

// runOnce isolates a single execution so a panic surfaces as an error
// instead of taking down the process.
func runOnce(ctx context.Context, worker contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return worker.Run(ctx)
}

// Stop cancels all supervised workers; Run returns once they have drained.
func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}
