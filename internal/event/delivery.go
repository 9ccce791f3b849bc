package event

import "context"

// Delivery tracks an event published with PublishAsync.
type Delivery struct {
	// EventID is the ID assigned to the published event.
	EventID string

	done chan struct{}
	err  error
}

func newDelivery(id string) *Delivery {
	return &Delivery{
		EventID: id,
		done:    make(chan struct{}),
	}
}

func (d *Delivery) finish(err error) {
	d.err = err
	close(d.done)
}

// Done returns a channel that is closed once every matching handler has
// finished with the event.
func (d *Delivery) Done() <-chan struct{} {
	return d.done
}

// Err returns ErrBusClosed if the event was rejected, nil otherwise.
// It is only meaningful after Done is closed.
func (d *Delivery) Err() error {
	select {
	case <-d.done:
		return d.err
	default:
		return nil
	}
}

// Wait blocks until the delivery completes or ctx is done.
func (d *Delivery) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return d.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
