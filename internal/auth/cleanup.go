package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/npek/portal/internal/config"
)

// staleFailureAge is how long an untouched failure counter is kept.
const staleFailureAge = 24 * time.Hour

// CleanupManager purges rows that can no longer affect a login decision.
type CleanupManager struct {
	config     *config.AuthConfig
	repository Repository
	logger     *zap.Logger
	cron       *cron.Cron
	now        func() time.Time
}

func NewCleanupManager(config *config.AuthConfig, repo Repository, logger *zap.Logger) *CleanupManager {
	logger = logger.Named("cleanup")
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger))

	return &CleanupManager{
		config:     config,
		repository: repo,
		logger:     logger,
		cron:       cron.New(cron.WithChain(cron.Recover(cronLogger))),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (cm *CleanupManager) Cleanup(ctx context.Context) error {
	now := cm.now()

	codes, err := cm.repository.DeleteExpiredCodes(ctx, now)
	if err != nil {
		return err
	}

	blocks, err := cm.repository.DeleteExpiredBlocks(ctx, now)
	if err != nil {
		return err
	}

	failures, err := cm.repository.DeleteStaleFailures(ctx, now.Add(-staleFailureAge))
	if err != nil {
		return err
	}

	if codes+blocks+failures > 0 {
		cm.logger.Debug("purged login state",
			zap.Int64("codes", codes),
			zap.Int64("blocks", blocks),
			zap.Int64("failures", failures))
	}
	return nil
}

// Start schedules Cleanup every auth.cleanup_interval. Jobs run with ctx and
// a panic inside one is logged and recovered.
func (cm *CleanupManager) Start(ctx context.Context) error {
	interval := cm.config.CleanupInterval
	if interval <= 0 {
		cm.logger.Info("cleanup disabled")
		return nil
	}

	spec := "@every " + interval.String()
	if _, err := cm.cron.AddFunc(spec, func() { cm.runScheduled(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}
	cm.logger.Info("scheduled cleanup", zap.Duration("interval", interval))

	cm.cron.Start()
	return nil
}

// Stop halts the scheduler; the returned context is done once a running job finishes.
func (cm *CleanupManager) Stop() context.Context {
	return cm.cron.Stop()
}

func (cm *CleanupManager) runScheduled(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := cm.Cleanup(ctx); err != nil && ctx.Err() == nil {
		cm.logger.Error("failed to purge login state", zap.Error(err))
	}
}
