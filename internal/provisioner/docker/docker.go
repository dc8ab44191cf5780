// Package docker drives workspaces as long-lived docker containers by
// shelling out to the docker CLI.
package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/wardenhq/warden/internal/core"
	"github.com/wardenhq/warden/internal/provisioner"
)

const defaultImage = "ubuntu:24.04"

// workspaceConfig is the subset of the opaque workspace config blob this
// driver understands. Unknown fields are ignored on purpose.
type workspaceConfig struct {
	Image string            `json:"image"`
	Env   map[string]string `json:"env"`
}

type Driver struct {
	bin string
	log *zap.Logger
}

func New(log *zap.Logger) *Driver {
	return &Driver{bin: "docker", log: log}
}

func (d *Driver) Create(ctx context.Context, ws core.Workspace) (*provisioner.Instance, error) {
	cfg, err := parseConfig(ws.Config)
	if err != nil {
		return nil, err
	}

	args := []string{
		"run", "-d",
		"--name", containerName(ws.ID),
		"--label", "warden.workspace=" + ws.ID,
		"--label", "warden.owner=" + ws.Owner,
	}
	for k, v := range cfg.Env {
		args = append(args, "-e", k+"="+v)
	}
	args = append(args, cfg.Image, "sleep", "infinity")

	out, err := d.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return d.instance(strings.TrimSpace(out), ws), nil
}

func (d *Driver) Start(ctx context.Context, ws core.Workspace) (*provisioner.Instance, error) {
	if _, err := d.run(ctx, "start", containerName(ws.ID)); err != nil {
		return nil, err
	}
	return d.instance(providerID(ws), ws), nil
}

func (d *Driver) Stop(ctx context.Context, ws core.Workspace) error {
	_, err := d.run(ctx, "stop", containerName(ws.ID))
	return err
}

func (d *Driver) Restart(ctx context.Context, ws core.Workspace) (*provisioner.Instance, error) {
	if _, err := d.run(ctx, "restart", containerName(ws.ID)); err != nil {
		return nil, err
	}
	return d.instance(providerID(ws), ws), nil
}

func (d *Driver) Destroy(ctx context.Context, ws core.Workspace) error {
	_, err := d.run(ctx, "rm", "-f", containerName(ws.ID))
	if err != nil && strings.Contains(err.Error(), "No such container") {
		// Already gone. Destroy is idempotent so janitor retries converge.
		return nil
	}
	return err
}

func (d *Driver) Snapshot(ctx context.Context, ws core.Workspace, snap core.Snapshot) error {
	_, err := d.run(ctx, "commit",
		"--pause",
		"-m", snap.Name,
		containerName(ws.ID), snapshotImage(snap.ID))
	return err
}

func (d *Driver) Restore(ctx context.Context, ws core.Workspace, snap core.Snapshot) (*provisioner.Instance, error) {
	// Replace the container with one built from the snapshot image. The old
	// container is gone after this; its writable layer was captured by commit.
	if err := d.Destroy(ctx, ws); err != nil {
		return nil, err
	}

	out, err := d.run(ctx, "run", "-d",
		"--name", containerName(ws.ID),
		"--label", "warden.workspace="+ws.ID,
		"--label", "warden.owner="+ws.Owner,
		snapshotImage(snap.ID), "sleep", "infinity")
	if err != nil {
		return nil, err
	}
	return d.instance(strings.TrimSpace(out), ws), nil
}

func (d *Driver) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, d.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	d.log.Debug("docker exec", zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		// Keep the context error in the chain so callers can tell a timeout
		// apart from a docker failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("docker %s: %w", args[0], ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("docker %s: %s", args[0], msg)
	}
	return stdout.String(), nil
}

func (d *Driver) instance(id string, ws core.Workspace) *provisioner.Instance {
	info, _ := json.Marshal(map[string]string{
		"container_id": id,
		"exec_command": fmt.Sprintf("docker exec -it %s bash", containerName(ws.ID)),
	})
	return &provisioner.Instance{ID: id, ConnectionInfo: info}
}

func parseConfig(raw json.RawMessage) (workspaceConfig, error) {
	cfg := workspaceConfig{Image: defaultImage}
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse workspace config: %w", err)
	}
	if cfg.Image == "" {
		cfg.Image = defaultImage
	}
	return cfg, nil
}

func containerName(workspaceID string) string {
	return "warden-" + workspaceID
}

// providerID returns the stored container id, falling back to the container
// name for workspaces provisioned before the id was recorded.
func providerID(ws core.Workspace) string {
	if ws.ProviderID != nil {
		return *ws.ProviderID
	}
	return containerName(ws.ID)
}

func snapshotImage(snapshotID string) string {
	return "warden/snapshot:" + snapshotID
}
