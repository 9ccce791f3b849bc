package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildEvent(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	old := timeNow
	timeNow = func() time.Time { return fixed }
	t.Cleanup(func() { timeNow = old })

	evt := buildEvent("orders.created", "p", []PublishOption{
		WithMetadata(map[string]any{"a": 1, "b": 2}),
		WithMeta("b", 3),
	})

	assert.Equal(t, fixed, evt.Timestamp)
	assert.Len(t, evt.ID, 36)
	assert.Equal(t, map[string]any{"a": 1, "b": 3}, evt.Metadata)

	v, ok := evt.Meta("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, "", evt.MetaString("a"))
}

func TestBuildEvent_NoMetadata(t *testing.T) {
	a := buildEvent("t", nil, nil)
	b := buildEvent("t", nil, nil)

	assert.NotNil(t, a.Metadata)
	assert.Empty(t, a.Metadata)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestWithMetadata_CopiesInput(t *testing.T) {
	meta := map[string]any{"k": "v"}
	evt := buildEvent("t", nil, []PublishOption{WithMetadata(meta)})

	meta["k"] = "changed"
	assert.Equal(t, "v", evt.MetaString("k"))
}
