package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-backend/internal/geometry"
	"whiteboard-backend/internal/model"
)

type sentEvent struct {
	event   model.EventType
	payload interface{}
}

func recordingBroadcaster() (*[]sentEvent, Broadcaster) {
	var sent []sentEvent
	return &sent, func(event model.EventType, payload interface{}) {
		sent = append(sent, sentEvent{event: event, payload: payload})
	}
}

func TestSubmit_LatestWins(t *testing.T) {
	s := hydratedStore()
	_, send := recordingBroadcaster()
	sched := NewEraseScheduler(s, send)

	sched.Submit(model.Point{X: 1})
	sched.Submit(model.Point{X: 2})
	sched.Submit(model.Point{X: 3})

	// Only the newest position survives; Submit never blocks.
	select {
	case p := <-sched.requests:
		assert.Equal(t, 3.0, p.X)
	default:
		t.Fatal("expected a pending position")
	}
	select {
	case p := <-sched.requests:
		t.Fatalf("stale position %v should have been superseded", p)
	default:
	}
}

func TestRunPass_PixelMode_BroadcastOrder(t *testing.T) {
	s := hydratedStore()
	s.AddStroke(&model.Stroke{
		ID:     "orig",
		Points: []model.Point{{X: 0}, {X: 10}, {X: 20}},
		Color:  "#112233",
	})
	tool := s.Tool()
	tool.EraserMode = geometry.ModePixel
	tool.EraserRadius = 5
	s.SetTool(tool)

	sent, send := recordingBroadcaster()
	sched := NewEraseScheduler(s, send)

	sched.runPass(model.Point{X: 10, Y: 0})

	// Local document updated before anything goes out.
	_, ok := s.Stroke("orig")
	assert.False(t, ok)
	assert.Len(t, s.Strokes(), 2)

	// Batch removal first, then each replacement fragment.
	require.GreaterOrEqual(t, len(*sent), 3)
	assert.Equal(t, model.EventStrokesErased, (*sent)[0].event)
	assert.Equal(t, []string{"orig"}, (*sent)[0].payload)
	for _, ev := range (*sent)[1:] {
		assert.Equal(t, model.EventStrokeAdded, ev.event)
		frag, ok := ev.payload.(*model.Stroke)
		require.True(t, ok)
		assert.Equal(t, "#112233", frag.Color)
		assert.NotEqual(t, "orig", frag.ID)
	}
}

func TestRunPass_WholeStrokeMode(t *testing.T) {
	s := hydratedStore()
	s.AddStroke(&model.Stroke{ID: "hit", Points: []model.Point{{X: 0}, {X: 1}}})
	s.AddStroke(&model.Stroke{ID: "far", Points: []model.Point{{X: 100}, {X: 101}}})
	tool := s.Tool()
	tool.EraserMode = geometry.ModeWholeStroke
	tool.EraserRadius = 5
	s.SetTool(tool)

	sent, send := recordingBroadcaster()
	sched := NewEraseScheduler(s, send)

	sched.runPass(model.Point{X: 0, Y: 0})

	_, ok := s.Stroke("hit")
	assert.False(t, ok)
	_, ok = s.Stroke("far")
	assert.True(t, ok)

	require.Len(t, *sent, 1)
	assert.Equal(t, model.EventStrokesErased, (*sent)[0].event)
	assert.Equal(t, []string{"hit"}, (*sent)[0].payload)
}

func TestRunPass_NoOpSendsNothing(t *testing.T) {
	s := hydratedStore()
	s.AddStroke(&model.Stroke{ID: "far", Points: []model.Point{{X: 100}, {X: 101}}})

	sent, send := recordingBroadcaster()
	sched := NewEraseScheduler(s, send)

	sched.runPass(model.Point{X: 0, Y: 0})

	assert.Empty(t, *sent, "a pass that touches nothing must stay silent")
	_, ok := s.Stroke("far")
	assert.True(t, ok)
}

func TestCursorThrottle(t *testing.T) {
	throttle := NewCursorThrottle(20 * time.Millisecond)

	assert.True(t, throttle.Allow())
	assert.False(t, throttle.Allow(), "second call inside the interval is suppressed")

	time.Sleep(25 * time.Millisecond)
	assert.True(t, throttle.Allow())
}

func TestNewCursorThrottle_DefaultInterval(t *testing.T) {
	throttle := NewCursorThrottle(0)
	assert.Equal(t, DefaultCursorInterval, throttle.interval)
}
