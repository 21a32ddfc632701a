package geometry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-backend/internal/geometry"
	"whiteboard-backend/internal/model"
)

func stroke(id string, points ...model.Point) *model.Stroke {
	return &model.Stroke{
		ID:        id,
		Points:    points,
		Color:     "#1ABC9C",
		Thickness: 3,
		AuthorID:  "author-1",
	}
}

func TestErasePixels_CutsThroughMiddle(t *testing.T) {
	// Horizontal stroke through the eraser circle: the middle is consumed
	// and two outside pieces survive as fresh strokes.
	s := stroke("s1",
		model.Point{X: 0, Y: 0},
		model.Point{X: 10, Y: 0},
		model.Point{X: 20, Y: 0},
	)

	result := geometry.ErasePixels([]*model.Stroke{s}, model.Point{X: 10, Y: 0}, 5)

	require.Equal(t, []string{"s1"}, result.RemoveIDs)
	require.Len(t, result.NewStrokes, 2)

	left, right := result.NewStrokes[0], result.NewStrokes[1]
	require.Len(t, left.Points, 2)
	assert.InDelta(t, 0, left.Points[0].X, 1e-9)
	assert.InDelta(t, 5, left.Points[1].X, 1e-9)

	require.Len(t, right.Points, 2)
	assert.InDelta(t, 15, right.Points[0].X, 1e-9)
	assert.InDelta(t, 20, right.Points[1].X, 1e-9)

	// Fragments inherit style and author under fresh ids.
	for _, frag := range result.NewStrokes {
		assert.NotEmpty(t, frag.ID)
		assert.NotEqual(t, "s1", frag.ID)
		assert.Equal(t, s.Color, frag.Color)
		assert.Equal(t, s.Thickness, frag.Thickness)
		assert.Equal(t, s.AuthorID, frag.AuthorID)
	}
	assert.NotEqual(t, left.ID, right.ID)
}

func TestErasePixels_MiddleCutWithinSingleSegment(t *testing.T) {
	// Both segment endpoints outside, circle cleanly through the middle:
	// outside-inside-outside split of one segment.
	s := stroke("s1", model.Point{X: 0, Y: 0}, model.Point{X: 20, Y: 0})

	result := geometry.ErasePixels([]*model.Stroke{s}, model.Point{X: 10, Y: 0}, 5)

	require.Equal(t, []string{"s1"}, result.RemoveIDs)
	require.Len(t, result.NewStrokes, 2)
	assert.InDelta(t, 5, result.NewStrokes[0].Points[1].X, 1e-9)
	assert.InDelta(t, 15, result.NewStrokes[1].Points[0].X, 1e-9)
}

func TestErasePixels_StrokeOutsideIsUntouched(t *testing.T) {
	s := stroke("s1", model.Point{X: 0, Y: 50}, model.Point{X: 20, Y: 50})

	result := geometry.ErasePixels([]*model.Stroke{s}, model.Point{X: 10, Y: 0}, 5)

	assert.True(t, result.Empty(), "a stroke clear of the circle must be left alone, not replaced")
}

func TestErasePixels_OneEndInsideYieldsSingleFragment(t *testing.T) {
	// Circle overlaps one end: exactly one surviving fragment, original
	// id removed.
	s := stroke("s1", model.Point{X: 0, Y: 0}, model.Point{X: 10, Y: 0})

	result := geometry.ErasePixels([]*model.Stroke{s}, model.Point{X: 10, Y: 0}, 3)

	require.Equal(t, []string{"s1"}, result.RemoveIDs)
	require.Len(t, result.NewStrokes, 1)
	frag := result.NewStrokes[0]
	require.Len(t, frag.Points, 2)
	assert.InDelta(t, 0, frag.Points[0].X, 1e-9)
	assert.InDelta(t, 7, frag.Points[1].X, 1e-9)
}

func TestErasePixels_LeadingEndInside(t *testing.T) {
	s := stroke("s1", model.Point{X: 10, Y: 0}, model.Point{X: 20, Y: 0})

	result := geometry.ErasePixels([]*model.Stroke{s}, model.Point{X: 10, Y: 0}, 4)

	require.Equal(t, []string{"s1"}, result.RemoveIDs)
	require.Len(t, result.NewStrokes, 1)
	frag := result.NewStrokes[0]
	assert.InDelta(t, 14, frag.Points[0].X, 1e-9)
	assert.InDelta(t, 20, frag.Points[1].X, 1e-9)
}

func TestErasePixels_FullyConsumed(t *testing.T) {
	s := stroke("s1", model.Point{X: 9, Y: 0}, model.Point{X: 11, Y: 0})

	result := geometry.ErasePixels([]*model.Stroke{s}, model.Point{X: 10, Y: 0}, 5)

	assert.Equal(t, []string{"s1"}, result.RemoveIDs)
	assert.Empty(t, result.NewStrokes, "nothing survives a fully covered stroke")
}

func TestErasePixels_TangentIsNoCut(t *testing.T) {
	// The circle grazes the segment (discriminant 0): treated as outside.
	s := stroke("s1", model.Point{X: 0, Y: 5}, model.Point{X: 10, Y: 5})

	result := geometry.ErasePixels([]*model.Stroke{s}, model.Point{X: 5, Y: 0}, 5)

	assert.True(t, result.Empty())
}

func TestErasePixels_CoalescesDuplicatePoints(t *testing.T) {
	// Duplicate adjacent input points must not produce degenerate
	// zero-length fragments.
	s := stroke("s1",
		model.Point{X: 0, Y: 0},
		model.Point{X: 0, Y: 0},
		model.Point{X: 20, Y: 0},
		model.Point{X: 20, Y: 0},
	)

	result := geometry.ErasePixels([]*model.Stroke{s}, model.Point{X: 10, Y: 0}, 5)

	require.Equal(t, []string{"s1"}, result.RemoveIDs)
	require.Len(t, result.NewStrokes, 2)
	for _, frag := range result.NewStrokes {
		assert.Len(t, frag.Points, 2)
	}
}

func TestErasePixels_MultipleStrokes(t *testing.T) {
	touched := stroke("hit", model.Point{X: 0, Y: 0}, model.Point{X: 20, Y: 0})
	clear := stroke("clear", model.Point{X: 0, Y: 40}, model.Point{X: 20, Y: 40})

	result := geometry.ErasePixels([]*model.Stroke{touched, clear}, model.Point{X: 10, Y: 0}, 5)

	assert.Equal(t, []string{"hit"}, result.RemoveIDs)
	assert.Len(t, result.NewStrokes, 2, "only the touched stroke is re-segmented")
}

func TestErasePixels_DegenerateStrokeIgnored(t *testing.T) {
	s := stroke("s1", model.Point{X: 10, Y: 0})

	result := geometry.ErasePixels([]*model.Stroke{s}, model.Point{X: 10, Y: 0}, 5)

	assert.True(t, result.Empty())
}

func TestEraseWholeStrokes(t *testing.T) {
	tests := []struct {
		name    string
		strokes []*model.Stroke
		center  model.Point
		radius  float64
		want    []string
	}{
		{
			name: "one touched one clear",
			strokes: []*model.Stroke{
				stroke("a", model.Point{X: 0, Y: 0}, model.Point{X: 10, Y: 0}),
				stroke("b", model.Point{X: 0, Y: 40}, model.Point{X: 10, Y: 40}),
			},
			center: model.Point{X: 0, Y: 2},
			radius: 5,
			want:   []string{"a"},
		},
		{
			name: "sample point exactly on the radius counts",
			strokes: []*model.Stroke{
				stroke("a", model.Point{X: 5, Y: 0}, model.Point{X: 10, Y: 0}),
			},
			center: model.Point{X: 0, Y: 0},
			radius: 5,
			want:   []string{"a"},
		},
		{
			name: "none touched",
			strokes: []*model.Stroke{
				stroke("a", model.Point{X: 6, Y: 0}, model.Point{X: 10, Y: 0}),
			},
			center: model.Point{X: 0, Y: 0},
			radius: 5,
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := geometry.EraseWholeStrokes(tt.strokes, tt.center, tt.radius)
			assert.Equal(t, tt.want, got)
		})
	}
}
