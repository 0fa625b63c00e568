package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/sitecheck/internal/model"
)

func TestHub_DeliversToMatchingSubscriber(t *testing.T) {
	h := NewHub(4)
	ch, cancel := h.Subscribe("t1")
	defer cancel()
	other, cancelOther := h.Subscribe("t2")
	defer cancelOther()

	h.Publish(Event{TestID: "t1", Type: TypeStatus, Status: model.StatusRunning})

	select {
	case ev := <-ch:
		assert.Equal(t, model.StatusRunning, ev.Status)
	default:
		t.Fatal("expected an event for t1")
	}
	select {
	case ev := <-other:
		t.Fatalf("t2 subscriber got %+v", ev)
	default:
	}
}

func TestHub_DropsWhenBufferFull(t *testing.T) {
	h := NewHub(1)
	ch, cancel := h.Subscribe("t1")
	defer cancel()

	h.Publish(Event{TestID: "t1", Status: model.StatusRunning})
	h.Publish(Event{TestID: "t1", Status: model.StatusCompleted})

	ev := <-ch
	assert.Equal(t, model.StatusRunning, ev.Status)
	select {
	case ev := <-ch:
		t.Fatalf("expected the second event to be dropped, got %+v", ev)
	default:
	}
}

func TestHub_UnsubscribeClosesOnce(t *testing.T) {
	h := NewHub(0)
	ch, cancel := h.Subscribe("t1")
	require.Equal(t, 1, h.Subscribers("t1"))

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, h.Subscribers("t1"))

	h.Publish(Event{TestID: "t1"})
}

func TestHub_Close(t *testing.T) {
	h := NewHub(0)
	ch, cancel := h.Subscribe("t1")
	h.Close()
	_, open := <-ch
	assert.False(t, open)
	cancel()

	late, _ := h.Subscribe("t1")
	_, open = <-late
	assert.False(t, open)
}
