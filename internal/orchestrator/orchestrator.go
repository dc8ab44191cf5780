// Package orchestrator is the façade through which all workspace state
// changes flow. It validates input, enforces ownership, opens operations in
// the ledger and never talks to the provisioner backend itself: requests
// return as soon as intent is recorded, and the reconciler does the rest.
package orchestrator

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/wardenhq/warden/internal/core"
	"github.com/wardenhq/warden/internal/store"
)

// DefaultProvider is used when a create request does not name one.
const DefaultProvider = "docker"

var knownProviders = map[string]bool{
	"docker":  true,
	"podman":  true,
	"vagrant": true,
	"tart":    true,
}

type Orchestrator struct {
	pool    *pgxpool.Pool
	queries *store.Queries
	log     *zap.Logger
}

func New(pool *pgxpool.Pool, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		pool:    pool,
		queries: store.New(pool),
		log:     log,
	}
}

// internal logs the full infrastructure error and returns the generic
// user-safe variant so storage details never leak to callers.
func (o *Orchestrator) internal(msg string, err error) error {
	o.log.Error(msg, zap.Error(err))
	return core.NewAppError(core.ErrInternal, msg)
}
