package events

import "context"

// Publisher delivers post outcome events to whoever follows them. Delivery is
// best effort: the dispatcher logs a failed publish and moves on.
type Publisher interface {
	PublishPostOutcome(ctx context.Context, e PostOutcome) error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishPostOutcome(context.Context, PostOutcome) error { return nil }
