package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"meshplan/internal/domain"
)

// SSHDiscoverer reads loopback addresses and LLDP neighbors from routers
type SSHDiscoverer struct {
	dialer      Dialer
	concurrency int
	retries     int
	loopback    string
	publisher   EventPublisher
	logger      *zap.Logger
}

// DiscovererOption is a functional option for configuring SSHDiscoverer
type DiscovererOption func(*SSHDiscoverer)

// WithConcurrency limits parallel SSH sessions
func WithConcurrency(n int) DiscovererOption {
	return func(d *SSHDiscoverer) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithRetries sets how many times a failed node is retried
func WithRetries(n int) DiscovererOption {
	return func(d *SSHDiscoverer) {
		if n >= 0 {
			d.retries = n
		}
	}
}

// WithLoopbackInterface sets the interface whose address becomes the router-id
func WithLoopbackInterface(name string) DiscovererOption {
	return func(d *SSHDiscoverer) {
		if name != "" {
			d.loopback = name
		}
	}
}

// WithPublisher sets the event publisher for progress updates
func WithPublisher(pub EventPublisher) DiscovererOption {
	return func(d *SSHDiscoverer) {
		d.publisher = pub
	}
}

// NewSSHDiscoverer creates a new SSH discoverer
func NewSSHDiscoverer(dialer Dialer, logger *zap.Logger, opts ...DiscovererOption) *SSHDiscoverer {
	d := &SSHDiscoverer{
		dialer:      dialer,
		concurrency: 8,
		retries:     1,
		loopback:    "Loopback0",
		logger:      logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// nodeFacts is what one router reported
type nodeFacts struct {
	address   string
	neighbors []LLDPNeighbor
	err       error
}

// Discover probes every node of the snapshot and returns a new snapshot with
// loopback addresses and edge observations filled in. Nodes without a
// management address, or already reported unreachable, are skipped. A node
// that fails keeps an empty Address; its failure is logged and discovery
// continues. Only cancellation of ctx fails the whole run.
func (d *SSHDiscoverer) Discover(ctx context.Context, snapshot *domain.Snapshot) (*domain.Snapshot, error) {
	out := &domain.Snapshot{
		Lab:      snapshot.Lab,
		TakenAt:  time.Now().UTC(),
		Nodes:    append([]domain.Node{}, snapshot.Nodes...),
		Edges:    make([]domain.Edge, 0),
		Warnings: append([]domain.Warning{}, snapshot.Warnings...),
	}

	unreachable := make(map[string]bool)
	for _, w := range snapshot.Warnings {
		if w.Kind == domain.WarnUnreachable {
			unreachable[w.NodeID] = true
		}
	}

	publish(d.publisher, EventDiscoveryStarted, map[string]interface{}{
		"total":   len(out.Nodes),
		"message": fmt.Sprintf("Starting SSH discovery of %d routers", len(out.Nodes)),
	})

	results := make([]nodeFacts, len(out.Nodes))
	var g errgroup.Group
	g.SetLimit(d.concurrency)

	for i, node := range out.Nodes {
		switch {
		case node.MgmtAddress == "":
			results[i].err = errors.New("no management address")
			continue
		case unreachable[node.ID]:
			results[i].err = errors.New("skipped, unreachable")
			continue
		}
		g.Go(func() error {
			results[i] = d.probeWithRetry(ctx, node)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("discovery cancelled: %w", err)
	}

	known := make(map[string]bool, len(out.Nodes))
	for _, n := range out.Nodes {
		known[n.ID] = true
	}

	failed := 0
	for i := range out.Nodes {
		node := &out.Nodes[i]
		r := results[i]
		if r.err != nil {
			failed++
			d.logger.Warn("discovery failed for node",
				zap.String("node", node.ID),
				zap.String("mgmt_address", node.MgmtAddress),
				zap.Error(r.err))
			publish(d.publisher, EventNodeFailed, map[string]interface{}{
				"node_id": node.ID,
				"error":   r.err.Error(),
			})
			continue
		}

		node.Address = r.address
		for _, nb := range r.neighbors {
			if !known[nb.Device] || nb.Device == node.ID {
				d.logger.Debug("ignoring neighbor outside the lab",
					zap.String("node", node.ID),
					zap.String("neighbor", nb.Device),
					zap.String("interface", nb.LocalInterface))
				continue
			}
			out.AddEdge(domain.Edge{
				LocalID:         node.ID,
				LocalInterface:  nb.LocalInterface,
				RemoteID:        nb.Device,
				RemoteInterface: nb.RemoteInterface,
			})
		}

		publish(d.publisher, EventDiscoveryProgress, map[string]interface{}{
			"node_id":   node.ID,
			"address":   r.address,
			"neighbors": len(r.neighbors),
		})
	}

	d.logger.Info("discovery complete",
		zap.Int("nodes", len(out.Nodes)),
		zap.Int("failed", failed),
		zap.Int("edges", len(out.Edges)))
	publish(d.publisher, EventDiscoveryComplete, map[string]interface{}{
		"total":  len(out.Nodes),
		"failed": failed,
		"edges":  len(out.Edges),
	})

	return out, nil
}

func (d *SSHDiscoverer) probeWithRetry(ctx context.Context, node domain.Node) nodeFacts {
	var r nodeFacts
	for attempt := 0; attempt <= d.retries; attempt++ {
		if ctx.Err() != nil {
			return nodeFacts{err: ctx.Err()}
		}
		r = d.probe(ctx, node)
		if r.err == nil {
			return r
		}
		d.logger.Debug("probe attempt failed",
			zap.String("node", node.ID),
			zap.Int("attempt", attempt+1),
			zap.Error(r.err))
	}
	return r
}

// probe runs the discovery commands on one router
func (d *SSHDiscoverer) probe(ctx context.Context, node domain.Node) nodeFacts {
	session, err := d.dialer.Dial(ctx, node.MgmtAddress)
	if err != nil {
		return nodeFacts{err: fmt.Errorf("connection failed: %w", err)}
	}
	defer session.Close()

	if _, err := session.Run(ctx, cmdNoTimestamp); err != nil {
		d.logger.Debug("terminal setup failed", zap.String("node", node.ID), zap.Error(err))
	}

	output, err := session.Run(ctx, fmt.Sprintf(cmdLoopbackFmt, d.loopback))
	if err != nil {
		return nodeFacts{err: fmt.Errorf("failed to read %s: %w", d.loopback, err)}
	}
	address, err := parseLoopback(output)
	if err != nil {
		return nodeFacts{err: fmt.Errorf("failed to parse %s: %w", d.loopback, err)}
	}

	output, err = session.Run(ctx, cmdLLDP)
	if err != nil {
		return nodeFacts{err: fmt.Errorf("failed to read LLDP neighbors: %w", err)}
	}

	return nodeFacts{address: address, neighbors: parseLLDPNeighbors(output)}
}
