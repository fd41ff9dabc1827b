package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"tidymatch/config"
	auditRepo "tidymatch/database/repository/audit"
	"tidymatch/models"
	"tidymatch/services/matching"
	"tidymatch/services/notification"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// dedupTTL bounds how long a delivered event's dedup key is remembered.
const dedupTTL = 24 * time.Hour

// InitMatchingWorker runs the async worker in background. It consumes the
// lifecycle event fan-out and the scheduled re-match attempts.
func InitMatchingWorker(matchSvc matching.Service, audit auditRepo.Repository, dedupClient *redis.Client) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeMatchingEvent, handleEventTask(audit, dedupClient))
	mux.HandleFunc(matching.TypeMatchingRetry, handleRetryTask(matchSvc))

	// Start async worker with retry logic
	go func() {
		log.Println("[MatchingWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[MatchingWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[MatchingWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

// handleEventTask records one lifecycle event, deduplicating by the event's
// key since queue delivery is at-least-once.
func handleEventTask(audit auditRepo.Repository, dedupClient *redis.Client) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var evt models.MatchingEvent
		if err := json.Unmarshal(task.Payload(), &evt); err != nil {
			zap.L().Error("invalid matching event payload", zap.Error(err))
			return err
		}

		if dedupClient != nil {
			fresh, err := dedupClient.SetNX(ctx, evt.DedupKey(), 1, dedupTTL).Result()
			if err == nil && !fresh {
				return nil // already delivered
			}
		}

		if err := audit.Insert(ctx, &evt); err != nil {
			return err
		}

		zap.L().Info("matching event recorded",
			zap.String("type", string(evt.Type)),
			zap.String("requestId", evt.RequestID),
			zap.String("reservationId", evt.ReservationID),
			zap.Int("attempt", evt.Attempt))
		return nil
	}
}

// handleRetryTask opens the next AUTO attempt for a failed reservation.
// Conflicts (an operator already created a request, or the reservation was
// cancelled) end the retry chain rather than failing the task.
func handleRetryTask(matchSvc matching.Service) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p matching.RetryPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			zap.L().Error("invalid retry payload", zap.Error(err))
			return err
		}

		_, err := matchSvc.CreateRequest(ctx, p.ReservationID, models.ModeAuto, matching.CreateOptions{})
		if err != nil {
			if matching.IsConflict(err) || matching.IsNotFound(err) {
				zap.L().Info("retry attempt skipped",
					zap.String("reservationId", p.ReservationID),
					zap.Error(err))
				return nil
			}
			return err
		}
		return nil
	}
}
