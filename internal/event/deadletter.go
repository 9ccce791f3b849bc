package event

import (
	"context"

	"github.com/dshills/evbus/internal/event/topic"
)

// DeadLetterTopic receives a DeadLetter for every delivery that failed
// after exhausting its retries.
const DeadLetterTopic topic.Topic = "dead.letter"

// DeadLetter is the payload published on DeadLetterTopic.
type DeadLetter struct {
	OriginalTopic  topic.Topic `json:"original_topic"`
	EventID        string      `json:"event_id"`
	Payload        any         `json:"payload"`
	Error          string      `json:"error"`
	SubscriptionID string      `json:"subscription_id"`
	Attempts       int         `json:"attempts"`
}

// publishDeadLetter reports a terminal delivery failure. It does not wait for
// dead-letter handlers. The caller's in-flight slot is still held, so this
// is accepted even while Close is draining.
func (b *Bus) publishDeadLetter(ctx context.Context, evt Event, herr *HandlerError) {
	b.deadLettered.Add(1)
	b.logger.Warn("event handler failed, dead-lettering",
		"topic", evt.Topic,
		"event_id", evt.ID,
		"subscription_id", herr.SubscriptionID,
		"attempts", herr.Attempts,
		"error", herr.Err,
	)

	dl := DeadLetter{
		OriginalTopic:  evt.Topic,
		EventID:        evt.ID,
		Payload:        evt.Payload,
		Error:          errorString(herr.Err),
		SubscriptionID: herr.SubscriptionID,
		Attempts:       herr.Attempts,
	}
	dlEvent := buildEvent(DeadLetterTopic, dl, []PublishOption{WithMetadata(evt.Metadata)})

	b.inflight.Add(1)

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer b.inflight.Done()
		b.dispatch(ctx, dlEvent)
	}()
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
