package orchestrator

import "github.com/wardenhq/warden/internal/core"

// authorizeOwner is the whole authorization model: an identity may act on a
// workspace iff it is the recorded owner. Owners are stamped at creation and
// never change.
func authorizeOwner(identity string, ws core.Workspace) error {
	if identity != ws.Owner {
		return core.Errorf(core.ErrForbidden, "access to workspace %s denied", ws.ID)
	}
	return nil
}
