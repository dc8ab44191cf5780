// Package provisioner defines the contract between the control plane and the
// backend that does the actual VM/container work. The reconciler is the only
// caller; every method must honor ctx cancellation since backends can take
// minutes.
package provisioner

import (
	"context"
	"encoding/json"

	"github.com/wardenhq/warden/internal/core"
)

// Instance describes the compute resource a backend created or started.
type Instance struct {
	// ID is the backend's identifier for the resource (container id, VM name).
	ID string
	// ConnectionInfo is an opaque blob handed back to workspace owners, e.g.
	// how to reach the instance.
	ConnectionInfo json.RawMessage
}

// Backend executes provisioning intents. Implementations are injected into
// the reconciler at startup; nothing else resolves them.
type Backend interface {
	Create(ctx context.Context, ws core.Workspace) (*Instance, error)
	Start(ctx context.Context, ws core.Workspace) (*Instance, error)
	Stop(ctx context.Context, ws core.Workspace) error
	Restart(ctx context.Context, ws core.Workspace) (*Instance, error)
	Destroy(ctx context.Context, ws core.Workspace) error
	Snapshot(ctx context.Context, ws core.Workspace, snap core.Snapshot) error
	Restore(ctx context.Context, ws core.Workspace, snap core.Snapshot) (*Instance, error)
}
