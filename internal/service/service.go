package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"meshplan/internal/domain"
	"meshplan/internal/logging"
	"meshplan/internal/planner"
	"meshplan/internal/repository"
)

// ErrDeclined is returned by Apply when the operator does not confirm
var ErrDeclined = errors.New("rollout declined")

// Discoverer produces the snapshot a run plans from
type Discoverer interface {
	Discover(ctx context.Context) (*domain.Snapshot, error)
}

// DiscovererFunc adapts a function to Discoverer
type DiscovererFunc func(ctx context.Context) (*domain.Snapshot, error)

// Discover calls f
func (f DiscovererFunc) Discover(ctx context.Context) (*domain.Snapshot, error) {
	return f(ctx)
}

// Renderer turns one node's share of a plan into configuration text
type Renderer interface {
	Render(plan *domain.Plan, nodeID string) ([]byte, error)
}

// Pusher applies rendered configuration to one node
type Pusher interface {
	Push(ctx context.Context, nodeID string, fragment []byte) error
}

// Confirmer is asked once, between planning and push
type Confirmer interface {
	Confirm(ctx context.Context, summary PlanSummary) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, summary PlanSummary) (bool, error)

// Confirm calls f
func (f ConfirmFunc) Confirm(ctx context.Context, summary PlanSummary) (bool, error) {
	return f(ctx, summary)
}

// Collaborators are the outer pieces a rollout is wired from
type Collaborators struct {
	Discoverer Discoverer
	Renderer   Renderer
	Pusher     Pusher
	Confirmer  Confirmer
	// Store is optional; when set, discovered snapshots are saved
	Store repository.SnapshotStore
}

// Prepared is the outcome of Prepare
type Prepared struct {
	Snapshot *domain.Snapshot
	Plan     *domain.Plan
}

// NodeStatus is the outcome of applying one node
type NodeStatus string

const (
	NodeApplied NodeStatus = "applied"
	NodeFailed  NodeStatus = "failed"
	NodeSkipped NodeStatus = "skipped"
)

// NodeResult reports what happened to one node
type NodeResult struct {
	NodeID string     `json:"node_id" yaml:"node_id"`
	Status NodeStatus `json:"status" yaml:"status"`
	Error  string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report is the per-node result of Apply, in node ID order
type Report struct {
	Results []NodeResult `json:"results" yaml:"results"`
}

// Count returns the number of results with status
func (r *Report) Count(status NodeStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// RolloutService coordinates discovery, planning, confirmation and push
type RolloutService struct {
	collab   Collaborators
	params   planner.Params
	eventBus *EventBus
	logger   *zap.Logger
}

// NewRolloutService creates a new rollout service
func NewRolloutService(collab Collaborators, params planner.Params, eventBus *EventBus, logger *zap.Logger) *RolloutService {
	return &RolloutService{
		collab:   collab,
		params:   params,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Prepare discovers a snapshot and builds its plan. Nothing is pushed.
func (s *RolloutService) Prepare(ctx context.Context) (*Prepared, error) {
	snapshot, err := s.collab.Discoverer.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover: %w", err)
	}

	if s.collab.Store != nil && snapshot.ID == "" {
		id, err := s.collab.Store.SaveSnapshot(ctx, snapshot)
		if err != nil {
			return nil, fmt.Errorf("failed to save snapshot: %w", err)
		}
		snapshot.ID = id
		s.logger.Info("snapshot saved", zap.String("id", id))
		s.eventBus.Publish(Event{Type: EventSnapshotSaved, Payload: map[string]string{"id": id}})
	}

	plan, err := planner.Build(snapshot, s.params)
	if err != nil {
		s.logger.Error("planning failed", logging.ErrorFields(err)...)
		return nil, err
	}

	for _, w := range plan.Warnings {
		s.logger.Warn("plan warning", logging.WarningFields(w)...)
	}

	summary := Summarize(plan)
	s.logger.Info("plan built",
		zap.String("mode", string(plan.Mode)),
		zap.Int("nodes", summary.Nodes),
		zap.Int("entries", summary.Entries),
		zap.Int("warnings", len(plan.Warnings)))
	s.eventBus.Publish(Event{Type: EventPlanBuilt, Payload: summary})

	return &Prepared{Snapshot: snapshot, Plan: plan}, nil
}

// Apply asks for confirmation once, then renders and pushes every node in
// ascending ID order. A node that fails is reported and the rollout goes on.
// Cancellation is checked between nodes; remaining nodes are reported as
// skipped and the context error is returned with the partial report.
func (s *RolloutService) Apply(ctx context.Context, plan *domain.Plan) (*Report, error) {
	summary := Summarize(plan)

	ok, err := s.collab.Confirmer.Confirm(ctx, summary)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm rollout: %w", err)
	}
	if !ok {
		s.logger.Info("rollout declined")
		s.eventBus.Publish(Event{Type: EventRolloutDeclined})
		return nil, ErrDeclined
	}
	s.eventBus.Publish(Event{Type: EventRolloutConfirmed, Payload: summary})

	ids := plan.NodeIDs()
	report := &Report{Results: make([]NodeResult, 0, len(ids))}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			for _, rest := range ids[i:] {
				report.Results = append(report.Results, NodeResult{NodeID: rest, Status: NodeSkipped, Error: err.Error()})
			}
			s.logger.Warn("rollout interrupted", zap.Int("skipped", len(ids)-i), zap.Error(err))
			s.eventBus.Publish(Event{Type: EventRolloutInterrupted, Payload: map[string]int{"skipped": len(ids) - i}})
			return report, fmt.Errorf("rollout interrupted: %w", err)
		}

		result := s.applyNode(ctx, plan, id)
		report.Results = append(report.Results, result)
	}

	s.logger.Info("rollout complete",
		zap.Int("applied", report.Count(NodeApplied)),
		zap.Int("failed", report.Count(NodeFailed)))
	s.eventBus.Publish(Event{Type: EventRolloutComplete, Payload: report})

	return report, nil
}

func (s *RolloutService) applyNode(ctx context.Context, plan *domain.Plan, id string) NodeResult {
	fragment, err := s.collab.Renderer.Render(plan, id)
	if err != nil {
		return s.nodeFailed(id, fmt.Errorf("failed to render: %w", err))
	}

	if err := s.collab.Pusher.Push(ctx, id, fragment); err != nil {
		return s.nodeFailed(id, fmt.Errorf("failed to push: %w", err))
	}

	s.logger.Debug("node applied", zap.String("node", id), zap.Int("bytes", len(fragment)))
	s.eventBus.Publish(Event{Type: EventNodeApplied, Payload: map[string]string{"node_id": id}})
	return NodeResult{NodeID: id, Status: NodeApplied}
}

func (s *RolloutService) nodeFailed(id string, err error) NodeResult {
	s.logger.Warn("node apply failed", zap.String("node", id), zap.Error(err))
	s.eventBus.Publish(Event{
		Type:    EventNodeApplyFailed,
		Payload: map[string]string{"node_id": id, "error": err.Error()},
	})
	return NodeResult{NodeID: id, Status: NodeFailed, Error: err.Error()}
}
