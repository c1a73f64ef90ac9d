package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/bookbytes/backend/shared/rabbitmq"
)

// listenNotifications consumes job-ready notifications and nudges the
// claim loops awake. The channel has capacity one and sends are dropped
// when it is full: a wake-up is a hint, and the poll interval remains the
// guarantee that pending work is picked up.
func (w *Worker) listenNotifications(ctx context.Context) {
	defer w.wg.Done()

	deliveries, err := w.rabbitClient.Consume(w.workerID)
	if err != nil {
		w.logger.Warn("Failed to start notification consumer, polling only",
			slog.Any("error", err),
		)
		return
	}

	for {
		select {
		case <-w.stopChan:
			return

		case <-ctx.Done():
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("Notification channel closed, polling only")
				return
			}

			var note rabbitmq.Notification
			if err := json.Unmarshal(delivery.Body, &note); err != nil {
				w.logger.Warn("Malformed job notification",
					slog.String("body", string(delivery.Body)),
				)
				continue
			}

			w.logger.Debug("Job notification received",
				slog.String("job_id", note.JobID),
				slog.String("job_type", note.JobType),
			)

			select {
			case w.wakeChan <- struct{}{}:
			default:
			}
		}
	}
}
