// Package worker holds the background workers of the node. The sync worker
// drives unattended pulls against every registered peer on a fixed interval,
// so paired nodes converge without anyone calling the pull endpoint.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/opennode-labs/fieldnode/internal/domain"
	"github.com/opennode-labs/fieldnode/internal/logger"
	"github.com/opennode-labs/fieldnode/internal/pull"
	"github.com/opennode-labs/fieldnode/internal/registry"
)

// Log messages
const (
	LogMsgSyncWorkerStarted      = "Sync worker started"
	LogMsgSyncWorkerDisabled     = "Sync worker disabled, no pull interval configured"
	LogMsgSyncWorkerShutdown     = "Sync worker shutdown complete"
	LogMsgScheduledPullCompleted = "Scheduled pull completed"
	LogMsgScheduledPullFailed    = "Scheduled pull failed"
)

// PullService runs one pull against a remote node.
type PullService interface {
	Pull(ctx context.Context, remoteNodeID string, since *time.Time) (*domain.SyncResult, error)
}

// SyncWorker pulls from every registered peer on an interval.
type SyncWorker struct {
	pulls    PullService
	registry *registry.Registry
	interval time.Duration
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewSyncWorker creates a SyncWorker. An interval of zero disables it.
func NewSyncWorker(pulls PullService, reg *registry.Registry, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		pulls:    pulls,
		registry: reg,
		interval: interval,
		shutdown: make(chan struct{}),
	}
}

// Start launches the worker loop.
func (w *SyncWorker) Start() {
	log := logger.FromContext(context.Background())
	if w.interval <= 0 {
		log.Info(LogMsgSyncWorkerDisabled)
		return
	}

	log.Info(LogMsgSyncWorkerStarted, "interval", w.interval, "peers", len(w.registry.List()))
	w.wg.Add(1)
	go w.run()
}

func (w *SyncWorker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			return
		case <-ticker.C:
			w.pullAll()
		}
	}
}

// pullAll pulls from each peer in turn. Pulls are serialized by the pull
// service itself; a manual pull racing the schedule just skips this round.
func (w *SyncWorker) pullAll() {
	ctx := context.Background()
	log := logger.FromContext(ctx)

	for _, peer := range w.registry.List() {
		select {
		case <-w.shutdown:
			return
		default:
		}

		result, err := w.pulls.Pull(ctx, peer.ID, nil)
		switch {
		case errors.Is(err, pull.ErrPullInProgress):
			log.Debug("skipping scheduled pull, another pull is running", "remote_node_id", peer.ID)
		case err != nil:
			log.Error(LogMsgScheduledPullFailed, "remote_node_id", peer.ID, "stage", domain.Stage(err), "error", err)
		default:
			log.Info(LogMsgScheduledPullCompleted,
				"remote_node_id", peer.ID,
				"missing_files", len(result.MissingFiles))
		}
	}
}

// Shutdown stops the worker and waits for an in-flight round to finish.
func (w *SyncWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	log := logger.FromContext(ctx)
	select {
	case <-done:
		log.Info(LogMsgSyncWorkerShutdown)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
