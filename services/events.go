package services

// Event types pushed to the staff notification feed.
const (
	EventContactCreated = "contact_created"
	EventContactReplied = "contact_replied"
	EventBroadcastSent  = "broadcast_sent"
	EventQuizPublished  = "quiz_published"
)

// EventPublisher fans an event out to live listeners. Delivery is best effort.
type EventPublisher interface {
	Publish(eventType string, payload interface{})
}

func publish(p EventPublisher, eventType string, payload interface{}) {
	if p != nil {
		p.Publish(eventType, payload)
	}
}
