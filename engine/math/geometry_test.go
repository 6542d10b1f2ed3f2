package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClosestPointOnSegment(t *testing.T) {
	a := NewVec3(0, 0, 0)
	b := NewVec3(10, 0, 0)

	// Interior projection.
	assertVec3Near(t, NewVec3(3, 0, 0), ClosestPointOnSegment(NewVec3(3, 5, 0), a, b))
	// Clamped to the endpoints.
	assertVec3Near(t, a, ClosestPointOnSegment(NewVec3(-4, 2, 0), a, b))
	assertVec3Near(t, b, ClosestPointOnSegment(NewVec3(15, -1, 0), a, b))
}

func TestDistanceToSegment(t *testing.T) {
	a := NewVec3(0, 0, 0)
	b := NewVec3(10, 0, 0)

	assert.InDelta(t, 5.0, float64(DistanceToSegment(NewVec3(5, 5, 0), a, b)), float64(tol))
	assert.InDelta(t, 5.0, float64(DistanceToSegment(NewVec3(-3, 4, 0), a, b)), float64(tol))
	// On the segment.
	assert.InDelta(t, 0.0, float64(DistanceToSegment(NewVec3(7, 0, 0), a, b)), float64(tol))
}

func TestDistanceToDegenerateSegment(t *testing.T) {
	p := NewVec3(1, 1, 1)
	s := NewVec3(4, 5, 1)
	assert.InDelta(t, float64(p.Distance(s)), float64(DistanceToSegment(p, s, s)), float64(tol))
}

func TestGeometryGenerateNormals(t *testing.T) {
	// A single CCW triangle in the XY plane faces +Z.
	vertices := []Vertex3D{
		{Position: NewVec3(0, 0, 0)},
		{Position: NewVec3(1, 0, 0)},
		{Position: NewVec3(0, 1, 0)},
	}
	GeometryGenerateNormals(vertices, []uint32{0, 1, 2})

	for _, v := range vertices {
		assertVec3Near(t, NewVec3(0, 0, 1), v.Normal)
	}
}

func TestGeometryExtents(t *testing.T) {
	vertices := []Vertex3D{
		{Position: NewVec3(-1, 4, 2)},
		{Position: NewVec3(3, -2, 0)},
		{Position: NewVec3(0, 0, 5)},
	}
	e := GeometryExtents(vertices)
	assert.Equal(t, NewVec3(-1, -2, 0), e.Min)
	assert.Equal(t, NewVec3(3, 4, 5), e.Max)

	assert.Equal(t, Extents3D{}, GeometryExtents(nil))
}
