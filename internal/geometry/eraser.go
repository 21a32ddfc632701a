package geometry

import (
	"math"

	"github.com/google/uuid"

	"whiteboard-backend/internal/model"
)

// =============================================================================
// Eraser geometry - pure stroke/circle computations, no shared state
// =============================================================================

const (
	// coalesceEpsilon collapses adjacent near-duplicate points so fragments
	// never carry zero-length segments.
	coalesceEpsilon = 1e-6
	// tangentEpsilon treats a grazing circle (discriminant ~ 0) as no cut.
	tangentEpsilon = 1e-9
)

// Mode 지우개 동작 모드
type Mode string

const (
	ModeWholeStroke Mode = "stroke" // 닿은 stroke 전체 삭제
	ModePixel       Mode = "pixel"  // 원과 교차하는 구간만 절단
)

// EraseResult is the outcome of one pixel-mode pass: strokes to drop and
// the surviving fragments to add in their place. A stroke untouched by the
// circle appears in neither list.
type EraseResult struct {
	RemoveIDs  []string
	NewStrokes []*model.Stroke
}

// Empty reports whether the pass changed nothing.
func (r EraseResult) Empty() bool {
	return len(r.RemoveIDs) == 0 && len(r.NewStrokes) == 0
}

// EraseWholeStrokes returns the ids of strokes with at least one sample
// point within radius of center.
func EraseWholeStrokes(strokes []*model.Stroke, center model.Point, radius float64) []string {
	removeIDs := make([]string, 0)
	r2 := radius * radius
	for _, stroke := range strokes {
		for _, p := range stroke.Points {
			if distSq(p, center) <= r2 {
				removeIDs = append(removeIDs, stroke.ID)
				break
			}
		}
	}
	return removeIDs
}

// ErasePixels splits every stroke polyline against the erase circle.
// Surviving sub-paths with at least two points become brand-new strokes
// (fresh id, same color/thickness/author); the original id is removed iff
// the circle actually cut the stroke.
func ErasePixels(strokes []*model.Stroke, center model.Point, radius float64) EraseResult {
	result := EraseResult{
		RemoveIDs:  make([]string, 0),
		NewStrokes: make([]*model.Stroke, 0),
	}

	for _, stroke := range strokes {
		fragments, erased := splitStroke(stroke.Points, center, radius)
		if !erased {
			continue
		}
		result.RemoveIDs = append(result.RemoveIDs, stroke.ID)
		for _, points := range fragments {
			result.NewStrokes = append(result.NewStrokes, &model.Stroke{
				ID:        uuid.New().String(),
				Points:    points,
				Color:     stroke.Color,
				Thickness: stroke.Thickness,
				AuthorID:  stroke.AuthorID,
			})
		}
	}
	return result
}

// splitStroke walks the polyline segment by segment and accumulates the
// sub-paths outside the circle. erased reports whether any part of the
// stroke fell inside; when false the fragments are meaningless and the
// stroke must be left alone.
func splitStroke(points []model.Point, center model.Point, radius float64) (fragments [][]model.Point, erased bool) {
	if len(points) < 2 {
		return nil, false
	}

	r2 := radius * radius
	var current []model.Point

	flush := func() {
		if len(current) >= 2 {
			fragments = append(fragments, current)
		}
		current = nil
	}

	for i := 0; i < len(points)-1; i++ {
		p1, p2 := points[i], points[i+1]
		in1 := distSq(p1, center) < r2
		in2 := distSq(p2, center) < r2

		switch {
		case in1 && in2:
			// Segment fully consumed.
			erased = true
			flush()

		case in1 && !in2:
			// Leaving the circle: only the tail survives, opening a new
			// sub-path at the exit crossing.
			erased = true
			flush()
			if t, ok := exitRoot(p1, p2, center, r2); ok {
				current = pushPoint(current, lerp(p1, p2, t))
			}
			current = pushPoint(current, p2)

		case !in1 && in2:
			// Entering the circle: the head survives up to the entry
			// crossing, then the sub-path closes.
			erased = true
			current = pushPoint(current, p1)
			if t, ok := entryRoot(p1, p2, center, r2); ok {
				current = pushPoint(current, lerp(p1, p2, t))
			}
			flush()

		default:
			// Both endpoints outside: either clear of the circle, or the
			// circle cuts cleanly through the middle.
			t1, t2, cut := middleRoots(p1, p2, center, r2)
			if !cut {
				current = pushPoint(current, p1)
				current = pushPoint(current, p2)
				continue
			}
			erased = true
			current = pushPoint(current, p1)
			current = pushPoint(current, lerp(p1, p2, t1))
			flush()
			current = pushPoint(current, lerp(p1, p2, t2))
			current = pushPoint(current, p2)
		}
	}
	flush()

	if !erased {
		return nil, false
	}
	return fragments, true
}

// segmentRoots solves |P1 + t*(P2-P1) - C|^2 = r^2 for t. ok is false when
// the segment's line misses (or merely grazes) the circle.
func segmentRoots(p1, p2, c model.Point, r2 float64) (t1, t2 float64, ok bool) {
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	fx, fy := p1.X-c.X, p1.Y-c.Y

	a := dx*dx + dy*dy
	if a == 0 {
		return 0, 0, false
	}
	b := 2 * (fx*dx + fy*dy)
	cc := fx*fx + fy*fy - r2

	disc := b*b - 4*a*cc
	if disc <= tangentEpsilon {
		return 0, 0, false
	}
	sqrtDisc := math.Sqrt(disc)
	return (-b - sqrtDisc) / (2 * a), (-b + sqrtDisc) / (2 * a), true
}

// entryRoot is the crossing where a segment going outside→inside meets the
// circle: the smaller root, which must lie in (0,1).
func entryRoot(p1, p2, c model.Point, r2 float64) (float64, bool) {
	t1, _, ok := segmentRoots(p1, p2, c, r2)
	if !ok || t1 <= 0 || t1 >= 1 {
		return 0, false
	}
	return t1, true
}

// exitRoot is the crossing where a segment going inside→outside leaves the
// circle: the larger root, which must lie in (0,1).
func exitRoot(p1, p2, c model.Point, r2 float64) (float64, bool) {
	_, t2, ok := segmentRoots(p1, p2, c, r2)
	if !ok || t2 <= 0 || t2 >= 1 {
		return 0, false
	}
	return t2, true
}

// middleRoots reports a clean cut through the interior of a segment whose
// endpoints are both outside: two distinct roots strictly inside (0,1).
func middleRoots(p1, p2, c model.Point, r2 float64) (float64, float64, bool) {
	t1, t2, ok := segmentRoots(p1, p2, c, r2)
	if !ok || t1 <= 0 || t1 >= 1 || t2 <= 0 || t2 >= 1 {
		return 0, 0, false
	}
	return t1, t2, true
}

// pushPoint appends p unless it duplicates the previous point within
// coalesceEpsilon.
func pushPoint(points []model.Point, p model.Point) []model.Point {
	if n := len(points); n > 0 {
		last := points[n-1]
		if math.Hypot(p.X-last.X, p.Y-last.Y) < coalesceEpsilon {
			return points
		}
	}
	return append(points, p)
}

func lerp(p1, p2 model.Point, t float64) model.Point {
	return model.Point{
		X: p1.X + t*(p2.X-p1.X),
		Y: p1.Y + t*(p2.Y-p1.Y),
	}
}

func distSq(a, b model.Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}
