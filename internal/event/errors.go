package event

import (
	"errors"
	"fmt"

	"github.com/dshills/evbus/internal/event/topic"
)

// Sentinel errors for the event bus.
var (
	// ErrReentrantPublish is returned when the blocking Publish is called with
	// a context that belongs to a handler of the same bus. Use PublishAsync
	// from inside handlers.
	ErrReentrantPublish = errors.New("event: blocking publish called from inside a handler")

	// ErrBusClosed is returned when publishing on a closed bus.
	ErrBusClosed = errors.New("event: bus is closed")

	// ErrSubscriberClosed is returned when subscribing through a closed Subscriber.
	ErrSubscriberClosed = errors.New("event: subscriber is closed")
)

// HandlerError describes a delivery that failed after all its attempts.
type HandlerError struct {
	// SubscriptionID is the ID of the registration whose handler failed.
	SubscriptionID string

	// Pattern is the pattern the handler was subscribed to.
	Pattern topic.Topic

	// Topic is the topic of the event being delivered.
	Topic topic.Topic

	// Attempts is how many times the handler was invoked.
	Attempts int

	// Err is the error from the last attempt.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s (%s) failed on %s after %d attempt(s): %v",
		e.SubscriptionID, e.Pattern, e.Topic, e.Attempts, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}
