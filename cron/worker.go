package cron

import (
	"context"
	"time"

	"innkeeper/config"
	availabilityRepo "innkeeper/database/repository/availability"
	"innkeeper/services/order"
	"innkeeper/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeReleaseHolds = "sweep:release_holds"
	TypeExpireOrders = "sweep:expire_orders"
	TypeReclaimSlots = "sweep:reclaim_slots"
)

// reclaimWindow bounds the terminal-order scan of the reclaim sweep. Wide
// enough to retry a lost slot release across many sweep runs.
const reclaimWindow = 24 * time.Hour

// InitSweeper runs the background sweeper: it periodically reopens slots
// whose hold has lapsed and cancels initiated orders that were abandoned
// before checkout.
func InitSweeper(slots availabilityRepo.SlotRepository, ledger order.LedgerService) {
	logger := utils.GetLogger().With(zap.String("component", "sweeper"))

	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReleaseHolds, handleReleaseHolds(slots, logger))
	mux.HandleFunc(TypeExpireOrders, handleExpireOrders(ledger, logger))
	mux.HandleFunc(TypeReclaimSlots, handleReclaimSlots(ledger, logger))

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{
		Location: time.UTC,
	})
	if _, err := scheduler.Register("@every 1m", asynq.NewTask(TypeReleaseHolds, nil)); err != nil {
		logger.Error("failed to schedule hold release", zap.Error(err))
	}
	if _, err := scheduler.Register("@every 5m", asynq.NewTask(TypeExpireOrders, nil)); err != nil {
		logger.Error("failed to schedule order expiry", zap.Error(err))
	}
	if _, err := scheduler.Register("@every 5m", asynq.NewTask(TypeReclaimSlots, nil)); err != nil {
		logger.Error("failed to schedule slot reclaim", zap.Error(err))
	}

	// Worker and scheduler reconnect with backoff; Redis may come up after
	// the API server.
	go runWithRetry(logger, "scheduler", func() error { return scheduler.Run() })
	go runWithRetry(logger, "worker", func() error { return srv.Run(mux) })
}

func runWithRetry(logger *zap.Logger, name string, run func() error) {
	const maxAttempts = 5
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err := run()
		if err == nil {
			return
		}
		logger.Error("sweeper component failed",
			zap.String("part", name),
			zap.Int("attempt", attempts),
			zap.Error(err))
		if attempts == maxAttempts {
			logger.Fatal("sweeper start retries exhausted", zap.String("part", name))
		}
		time.Sleep(time.Duration(attempts*2) * time.Second)
	}
}

func handleReleaseHolds(slots availabilityRepo.SlotRepository, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		released, err := slots.ReleaseExpiredHolds(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("hold release sweep failed", zap.Error(err))
			return err
		}
		if released > 0 {
			logger.Info("released expired holds", zap.Int64("count", released))
		}
		return nil
	}
}

func handleReclaimSlots(ledger order.LedgerService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		released, err := ledger.ReleaseSettledSlots(ctx, reclaimWindow)
		if err != nil {
			logger.Error("slot reclaim sweep failed", zap.Error(err))
			return err
		}
		if released > 0 {
			logger.Info("reclaimed stranded slots", zap.Int("count", released))
		}
		return nil
	}
}

func handleExpireOrders(ledger order.LedgerService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		ttl := time.Duration(config.AppConfig.StaleOrderTTLMin) * time.Minute
		expired, err := ledger.ExpireStale(ctx, ttl)
		if err != nil {
			logger.Error("order expiry sweep failed", zap.Error(err))
			return err
		}
		if expired > 0 {
			logger.Info("expired stale orders", zap.Int("count", expired))
		}
		return nil
	}
}
