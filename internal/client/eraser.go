package client

import (
	"context"
	"sync"
	"time"

	"whiteboard-backend/internal/geometry"
	"whiteboard-backend/internal/model"
)

// Broadcaster sends one event to the server. Fire-and-forget.
type Broadcaster func(event model.EventType, payload interface{})

// EraseScheduler serializes erase geometry passes: at most one outstanding
// computation, and a newer pointer position supersedes a pending one
// instead of queueing behind it.
type EraseScheduler struct {
	store *Store
	send  Broadcaster

	mu       sync.Mutex
	requests chan model.Point // capacity 1 - holds the latest pending position
}

// NewEraseScheduler 생성
func NewEraseScheduler(store *Store, send Broadcaster) *EraseScheduler {
	return &EraseScheduler{
		store:    store,
		send:     send,
		requests: make(chan model.Point, 1),
	}
}

// Submit records an eraser pointer position. Non-blocking: if a position
// is already pending it is replaced by the newer one.
func (e *EraseScheduler) Submit(p model.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()

	select {
	case e.requests <- p:
	default:
		// Drop the stale pending position, keep the newest.
		select {
		case <-e.requests:
		default:
		}
		select {
		case e.requests <- p:
		default:
		}
	}
}

// Run processes erase positions until the context is cancelled. One pass
// completes fully before the next position is dequeued.
func (e *EraseScheduler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-e.requests:
			e.runPass(p)
		}
	}
}

// runPass computes one erase against the current stroke set and, when
// anything changed, applies it locally and broadcasts the erase batch
// followed by each replacement stroke.
func (e *EraseScheduler) runPass(p model.Point) {
	tool := e.store.Tool()
	strokes := e.store.Strokes()

	if tool.EraserMode == geometry.ModeWholeStroke {
		removeIDs := geometry.EraseWholeStrokes(strokes, p, tool.EraserRadius)
		if len(removeIDs) == 0 {
			return
		}
		e.store.RemoveStrokes(removeIDs)
		e.send(model.EventStrokesErased, removeIDs)
		return
	}

	result := geometry.ErasePixels(strokes, p, tool.EraserRadius)
	if result.Empty() {
		return
	}
	e.store.ApplyErase(result)
	e.send(model.EventStrokesErased, result.RemoveIDs)
	for _, stroke := range result.NewStrokes {
		e.send(model.EventStrokeAdded, stroke)
	}
}

// CursorThrottle rate-limits outgoing cursor broadcasts regardless of the
// actual pointer-move frequency.
type CursorThrottle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// DefaultCursorInterval ~30 broadcasts/second.
const DefaultCursorInterval = 33 * time.Millisecond

// NewCursorThrottle 생성. interval <= 0 falls back to the default.
func NewCursorThrottle(interval time.Duration) *CursorThrottle {
	if interval <= 0 {
		interval = DefaultCursorInterval
	}
	return &CursorThrottle{interval: interval}
}

// Allow reports whether a cursor broadcast may go out now. Suppressed
// positions are simply dropped; the next allowed one carries the freshest
// position anyway.
func (t *CursorThrottle) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}
