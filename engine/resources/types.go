package resources

import (
	"github.com/spaghettifunk/marionette/engine/math"
)

// ResourceType discriminates what an asset loader produced.
type ResourceType int

const (
	ResourceTypeNone ResourceType = iota
	// Rest-pose triangle mesh (.obj).
	ResourceTypeMesh
	// Bone hierarchy with rest transforms (.json).
	ResourceTypeSkeleton
	// Keyframed animation clip (.json).
	ResourceTypeClip
	// Precomputed vertex weight records (binary sidecar).
	ResourceTypeWeights
)

// Resource is a loaded asset. Data holds the loader-specific payload
// (*Mesh, *skeleton.Skeleton, *animation.Clip, skinning.WeightRecords).
type Resource struct {
	// ID uniquely identifies this loaded instance, not the file: reloading
	// the same path yields a fresh ID.
	ID       string
	Name     string
	FullPath string
	Type     ResourceType
	Data     interface{}
}

// Mesh is an immutable rest-pose triangle mesh. The weight calculator and
// the deformer consume it read-only; deformation never mutates it.
type Mesh struct {
	Name     string
	Vertices []math.Vertex3D
	// Indices is the triangle list, three per face.
	Indices []uint32
}

func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Extents returns the mesh's axis-aligned bounding box.
func (m *Mesh) Extents() math.Extents3D {
	return math.GeometryExtents(m.Vertices)
}

// EnsureNormals computes smooth vertex normals when the mesh carries none.
func (m *Mesh) EnsureNormals() {
	for _, v := range m.Vertices {
		if v.Normal.LengthSquared() > 0 {
			return
		}
	}
	math.GeometryGenerateNormals(m.Vertices, m.Indices)
}
