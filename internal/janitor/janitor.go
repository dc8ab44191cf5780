// Package janitor reclaims workspaces whose TTL has elapsed. Expiry goes
// through the orchestrator like a user-initiated delete, so every reclaimed
// workspace leaves the same operation audit trail.
package janitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wardenhq/warden/internal/core"
	"github.com/wardenhq/warden/internal/observability"
	"github.com/wardenhq/warden/internal/orchestrator"
)

type Config struct {
	Interval time.Duration `envconfig:"WARDEN_JANITOR_INTERVAL" default:"5m"`
}

type Janitor struct {
	orch *orchestrator.Orchestrator
	cfg  Config
	log  *zap.Logger
}

func New(orch *orchestrator.Orchestrator, cfg Config, log *zap.Logger) *Janitor {
	return &Janitor{orch: orch, cfg: cfg, log: log}
}

func (j *Janitor) Run(ctx context.Context) {
	j.log.Info("janitor started", zap.Duration("interval", j.cfg.Interval))
	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			j.log.Info("janitor stopping")
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep deletes every expired workspace it can. One workspace failing never
// aborts the rest of the sweep.
func (j *Janitor) Sweep(ctx context.Context) {
	expired, err := j.orch.GetExpiredWorkspaces(ctx)
	if err != nil {
		j.log.Error("failed to list expired workspaces", zap.Error(err))
		return
	}

	for _, ws := range expired {
		log := j.log.With(
			zap.String("workspace_id", ws.ID),
			zap.String("owner", ws.Owner),
			zap.Timep("expires_at", ws.ExpiresAt),
		)
		log.Info("workspace ttl expired, deleting")

		// Acting as the owner keeps the ownership check honest.
		_, err := j.orch.DeleteWorkspace(ctx, ws.Owner, ws.ID)
		switch {
		case err == nil:
			observability.JanitorExpiredTotal.WithLabelValues("deleted").Inc()
		case isActiveOperation(err):
			// Something else is already running; the next sweep retries.
			log.Debug("delete deferred, operation in progress")
			observability.JanitorExpiredTotal.WithLabelValues("deferred").Inc()
		default:
			log.Error("failed to delete expired workspace", zap.Error(err))
			observability.JanitorExpiredTotal.WithLabelValues("error").Inc()
		}
	}
	observability.JanitorSweepsTotal.Inc()
}

func isActiveOperation(err error) bool {
	appErr, ok := core.AsAppError(err)
	return ok && appErr.Code == core.ErrInvalidState
}
