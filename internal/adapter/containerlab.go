package adapter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"meshplan/internal/codec"
	"meshplan/internal/domain"
)

// DefaultContainerlabBinary is the containerlab executable looked up in PATH
const DefaultContainerlabBinary = "containerlab"

// commandRunner executes a local command and returns its stdout
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ContainerlabInspector lists the routers of a running containerlab lab
type ContainerlabInspector struct {
	binary string
	lab    string
	kind   string
	run    commandRunner
	logger *zap.Logger
}

// InspectorOption is a functional option for configuring ContainerlabInspector
type InspectorOption func(*ContainerlabInspector)

// WithLab restricts inspection to one lab
func WithLab(lab string) InspectorOption {
	return func(c *ContainerlabInspector) {
		c.lab = lab
	}
}

// WithKind sets the containerlab node kind treated as a router
func WithKind(kind string) InspectorOption {
	return func(c *ContainerlabInspector) {
		c.kind = kind
	}
}

// WithBinary overrides the containerlab executable
func WithBinary(path string) InspectorOption {
	return func(c *ContainerlabInspector) {
		c.binary = path
	}
}

// withRunner replaces command execution, used by tests
func withRunner(run commandRunner) InspectorOption {
	return func(c *ContainerlabInspector) {
		c.run = run
	}
}

// NewContainerlabInspector creates a new inspector
func NewContainerlabInspector(logger *zap.Logger, opts ...InspectorOption) *ContainerlabInspector {
	c := &ContainerlabInspector{
		binary: DefaultContainerlabBinary,
		kind:   "cisco_xrd",
		run:    runCommand,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Inspect runs `containerlab inspect -f json` and returns a snapshot with the
// lab's routers and their management addresses. Edges are left empty.
func (c *ContainerlabInspector) Inspect(ctx context.Context) (*domain.Snapshot, error) {
	args := []string{"inspect", "-f", "json"}
	if c.lab != "" {
		args = append(args, "--name", c.lab)
	}

	c.logger.Debug("running containerlab inspect", zap.String("binary", c.binary), zap.Strings("args", args))
	out, err := c.run(ctx, c.binary, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run containerlab inspect: %w", err)
	}

	nodes, err := codec.ParseInspect(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}

	snapshot, err := codec.InspectSnapshot(nodes, codec.InspectOptions{Lab: c.lab, Kind: c.kind})
	if err != nil {
		return nil, err
	}

	c.logger.Info("inspected lab",
		zap.String("lab", snapshot.Lab),
		zap.Int("containers", len(nodes)),
		zap.Int("routers", len(snapshot.Nodes)))
	return snapshot, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return nil, err
	}
	return out, nil
}
