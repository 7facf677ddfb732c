package retention

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"pairchat/pkg/config"
	"pairchat/pkg/logger"
	"pairchat/pkg/models"
	"pairchat/pkg/store"
)

const defaultCron = "0 2 * * *"

// Start launches the periodic purge runner and returns a stop function.
// Deletes go through the normal store write path, so connected stream
// clients observe them as delete events.
func Start(ctx context.Context, st store.Store, cfg config.RetentionConfig) (func(), error) {
	if !cfg.Enabled {
		return func() {}, nil
	}
	if cfg.Period.Std() <= 0 {
		return nil, fmt.Errorf("retention: period must be positive")
	}
	cron := cfg.Cron
	if cron == "" {
		cron = defaultCron
	}
	if !gronx.IsValid(cron) {
		return nil, fmt.Errorf("retention: invalid cron %q", cron)
	}

	runCtx, cancel := context.WithCancel(ctx)
	go loop(runCtx, cron, st, cfg)
	logger.Info("retention_started", "cron", cron, "period", cfg.Period.Std().String(), "dry_run", cfg.DryRun)
	return cancel, nil
}

// loop sleeps until the next cron tick, sweeps, and repeats.
func loop(ctx context.Context, cron string, st store.Store, cfg config.RetentionConfig) {
	for {
		now := time.Now()
		next, err := gronx.NextTickAfter(cron, now, false)
		if err != nil {
			logger.Error("retention_schedule_failed", "cron", cron, "err", err)
			return
		}
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("retention_stopped")
			return
		case <-timer.C:
			if err := sweep(st, cfg); err != nil {
				logger.Error("retention_sweep_failed", "err", err)
			}
		}
	}
}

// sweep deletes messages older than the retention period, one bounded
// batch per run.
func sweep(st store.Store, cfg config.RetentionConfig) error {
	cutoff := time.Now().UTC().Add(-cfg.Period.Std()).UnixNano()
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 200
	}

	rows, _, err := st.Query(models.TableMessages, nil,
		store.Order{Field: "ts"}, 0, batch-1)
	if err != nil {
		return err
	}

	var expired []string
	for _, raw := range rows {
		var m models.Message
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		if m.TS >= cutoff {
			break
		}
		expired = append(expired, m.ID)
	}
	if len(expired) == 0 {
		return nil
	}
	if cfg.DryRun {
		logger.Info("retention_dry_run", "would_delete", len(expired), "cutoff", cutoff)
		return nil
	}

	deleted := 0
	for _, id := range expired {
		n, err := st.Delete(models.TableMessages, store.Filter{"id": id})
		if err != nil {
			return err
		}
		deleted += n
	}
	logger.Info("retention_swept", "deleted", deleted, "cutoff", cutoff)
	return nil
}
