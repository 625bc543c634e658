// Package messaging defines standard subject names for the wodle message bus.
package messaging

// Subject constants for wodle events.
// Follow the pattern: {domain}.{action}.{resource}
const (
	// SubjectWodleEvents is the prefix raw integration payloads are published under.
	SubjectWodleEvents = "wodle.events"

	// StreamWodleEvents is the JetStream stream capturing SubjectWodleEvents.
	StreamWodleEvents = "WODLE_EVENTS"

	// ConsumerWodleForwarder is the durable consumer the forwarder pulls from.
	ConsumerWodleForwarder = "wodle-forwarder"
)

// WodleEventsSubject returns the subject for one integration's payloads.
// Example: wodle.events.gcp
func WodleEventsSubject(integration string) string {
	return SubjectWodleEvents + "." + integration
}

// WodleEventsWildcard matches every integration's payloads.
func WodleEventsWildcard() string {
	return SubjectWodleEvents + ".>"
}
