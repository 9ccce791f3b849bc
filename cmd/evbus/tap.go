package main

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/evbus/internal/event"
)

// tap writes every event it handles as one JSON line.
type tap struct {
	mu sync.Mutex
	w  io.Writer
}

func newTap(w io.Writer) *tap {
	return &tap{w: w}
}

// Handle implements event.Handler.
func (t *tap) Handle(_ context.Context, evt event.Event) error {
	line, err := encodeEvent(evt)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err = t.w.Write(append(line, '\n'))
	return err
}

// encodeEvent renders evt as a JSON object. JSON payloads are embedded
// as-is rather than re-encoded as strings.
func encodeEvent(evt event.Event) ([]byte, error) {
	out := []byte(`{}`)
	var err error

	set := func(path string, value any) {
		if err == nil {
			out, err = sjson.SetBytes(out, path, value)
		}
	}
	setRaw := func(path string, raw []byte) {
		if err == nil {
			out, err = sjson.SetRawBytes(out, path, raw)
		}
	}

	set("id", evt.ID)
	set("topic", string(evt.Topic))
	set("timestamp", evt.Timestamp.UTC().Format(time.RFC3339Nano))

	switch p := evt.Payload.(type) {
	case json.RawMessage:
		setRaw("payload", p)
	case nil:
		setRaw("payload", []byte("null"))
	default:
		set("payload", p)
	}

	if len(evt.Metadata) > 0 {
		set("metadata", evt.Metadata)
	}
	return out, err
}

// decodePayload keeps valid JSON as json.RawMessage and everything else as
// a string. An empty payload is nil.
func decodePayload(s string) any {
	if s == "" {
		return nil
	}
	if gjson.Valid(s) {
		return json.RawMessage(s)
	}
	return s
}
