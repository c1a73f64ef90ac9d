package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// spawnWorkerPool spawns N claim loops based on concurrency configuration
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop is the claim loop for one goroutine. It polls ClaimNext; a
// nil result covers both "queue empty" and "lost the claim race", and in
// either case the loop waits for the next poll tick or a wake-up
// notification instead of retrying the same row.
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Info("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Worker goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			w.logger.Info("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		default:
		}

		claimed, err := w.store.ClaimNext(ctx, workerName, w.jobTypeFilter)
		if err != nil {
			w.logger.Error("Failed to claim job",
				slog.String("worker_name", workerName),
				slog.Any("error", err),
			)
			w.waitForWork(ctx)
			continue
		}

		if claimed == nil {
			w.waitForWork(ctx)
			continue
		}

		w.runJob(ctx, workerName, claimed)
	}
}

// waitForWork blocks until the next poll tick, a wake-up notification, or
// shutdown.
func (w *Worker) waitForWork(ctx context.Context) {
	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()

	select {
	case <-w.stopChan:
	case <-ctx.Done():
	case <-w.wakeChan:
	case <-timer.C:
	}
}
