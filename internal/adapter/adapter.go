package adapter

import (
	"context"
)

// Discovery event types published while a lab is being inspected
const (
	EventDiscoveryStarted  = "discovery-started"
	EventDiscoveryProgress = "discovery-progress"
	EventDiscoveryComplete = "discovery-complete"
	EventNodeFailed        = "discovery-node-failed"
)

// EventPublisher allows adapters to publish progress events
type EventPublisher interface {
	PublishDiscoveryEvent(eventType string, payload interface{})
}

// Session runs commands on one connected device
type Session interface {
	// Run executes a command and returns its output
	Run(ctx context.Context, cmd string) (string, error)
	Close() error
}

// Dialer opens a session to a device management address
type Dialer interface {
	Dial(ctx context.Context, address string) (Session, error)
}

// publish emits an event when a publisher is configured
func publish(pub EventPublisher, eventType string, payload interface{}) {
	if pub != nil {
		pub.PublishDiscoveryEvent(eventType, payload)
	}
}
