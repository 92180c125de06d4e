package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"meshplan/internal/domain"
	"meshplan/internal/logging"
)

// Inspector lists the routers of a lab with their management addresses
type Inspector interface {
	Inspect(ctx context.Context) (*domain.Snapshot, error)
}

// Prober reports routers that cannot be reached
type Prober interface {
	Probe(ctx context.Context, nodes []domain.Node) ([]domain.Warning, error)
}

// Collector fills in loopback addresses and edge observations
type Collector interface {
	Discover(ctx context.Context, snapshot *domain.Snapshot) (*domain.Snapshot, error)
}

// DiscoveryPipeline runs inspection, the optional reachability probe and
// SSH collection in sequence, producing one atomic snapshot
type DiscoveryPipeline struct {
	inspector Inspector
	prober    Prober
	collector Collector
	eventBus  *EventBus
	logger    *zap.Logger
}

// NewDiscoveryPipeline creates a new pipeline; prober may be nil
func NewDiscoveryPipeline(inspector Inspector, prober Prober, collector Collector, eventBus *EventBus, logger *zap.Logger) *DiscoveryPipeline {
	return &DiscoveryPipeline{
		inspector: inspector,
		prober:    prober,
		collector: collector,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// Discover implements Discoverer. A failing reachability probe is logged
// and discovery continues without it.
func (p *DiscoveryPipeline) Discover(ctx context.Context) (*domain.Snapshot, error) {
	snapshot, err := p.inspector.Inspect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect lab: %w", err)
	}

	if p.prober != nil {
		warnings, err := p.prober.Probe(ctx, snapshot.Nodes)
		switch {
		case ctx.Err() != nil:
			return nil, fmt.Errorf("discovery cancelled: %w", ctx.Err())
		case err != nil:
			p.logger.Warn("reachability probe failed, continuing without it", zap.Error(err))
		default:
			for _, w := range warnings {
				p.logger.Warn("router unreachable", logging.WarningFields(w)...)
			}
			snapshot.Warnings = append(snapshot.Warnings, warnings...)
		}
	}

	snapshot, err = p.collector.Discover(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	p.eventBus.Publish(Event{
		Type: EventSnapshotTaken,
		Payload: map[string]interface{}{
			"lab":      snapshot.Lab,
			"nodes":    len(snapshot.Nodes),
			"edges":    len(snapshot.Edges),
			"warnings": len(snapshot.Warnings),
		},
	})
	return snapshot, nil
}
