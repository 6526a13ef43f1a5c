package retention

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nandusaji2001/ServConnect-sub001/internal/config"
	"github.com/nandusaji2001/ServConnect-sub001/internal/metrics"
	"github.com/nandusaji2001/ServConnect-sub001/internal/pgmq"
	"github.com/nandusaji2001/ServConnect-sub001/internal/repository"
	"github.com/nandusaji2001/ServConnect-sub001/internal/service"

	"github.com/rs/zerolog"
)

// Queue is the slice of the pgmq client the orchestrator consumes.
type Queue interface {
	ReadWithPoll(ctx context.Context, queue string, timeoutSec, maxMessages int) ([]*pgmq.Message, error)
	Delete(ctx context.Context, queue string, msgIDs []int64) error
}

var _ Queue = (*pgmq.Client)(nil)

// Run starts the retention orchestrator. It consumes trim jobs enqueued on
// every ingested reading and deletes each user's readings beyond the retention
// cap, keeping the newest.
func Run(ctx context.Context, logger zerolog.Logger, cfg *config.Config, client Queue, readings repository.ReadingRepository) error {
	logger.Info().Str("queue", cfg.RetentionQueueName).Int("cap", cfg.ReadingRetentionCap).Msg("Starting retention orchestrator")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down retention orchestrator")
			return nil
		default:
		}

		msgs, err := client.ReadWithPoll(ctx, cfg.RetentionQueueName, cfg.RetentionPollTimeoutSec, cfg.RetentionPollMaxMsg)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info().Msg("Shutting down retention orchestrator")
				return nil
			}
			logger.Error().Err(err).Msg("Error reading retention queue")
			time.Sleep(time.Second)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		done := make([]int64, 0, len(msgs))
		for _, msg := range msgs {
			var job service.TrimJob
			if err := json.Unmarshal(msg.Data, &job); err != nil {
				logger.Error().Err(err).Int64("msg_id", msg.ID).Msg("Malformed trim job, dropping")
				done = append(done, msg.ID)
				continue
			}

			trimmed, err := readings.TrimToCap(ctx, job.UserID, cfg.ReadingRetentionCap)
			if err != nil {
				// Leave the message on the queue for a later attempt.
				logger.Error().Err(err).Str("user_id", job.UserID).Msg("Failed to trim readings")
				continue
			}
			if trimmed > 0 {
				metrics.ReadingsTrimmed.Add(float64(trimmed))
				logger.Info().Str("user_id", job.UserID).Int64("trimmed", trimmed).Msg("Trimmed readings beyond retention cap")
			}
			done = append(done, msg.ID)
		}

		if len(done) > 0 {
			if err := client.Delete(ctx, cfg.RetentionQueueName, done); err != nil {
				logger.Error().Err(err).Msg("Error deleting retention messages")
			}
		}
	}
}
