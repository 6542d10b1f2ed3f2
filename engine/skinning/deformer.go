package skinning

import (
	"context"
	"fmt"

	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/jobs"
	"github.com/spaghettifunk/marionette/engine/math"
	"github.com/spaghettifunk/marionette/engine/resources"
	"github.com/spaghettifunk/marionette/engine/skeleton"
)

// DeformedMesh is one frame's linear-blend-skinning output: positions and
// normals only, topology untouched. It shares no storage with the rest
// mesh and is owned by the caller.
type DeformedMesh struct {
	Positions []math.Vec3
	Normals   []math.Vec3
}

// Deformer applies skinning matrices and weight records to a rest-pose
// mesh. It holds only immutable inputs, so concurrent Deform calls are
// safe as long as each receives its own output.
//
// The deformer trusts the weight calculator's normalization: weights that
// drift off 1.0 by float accumulation are tolerated, never renormalized
// here. Only normals are renormalized.
type Deformer struct {
	mesh    *resources.Mesh
	records WeightRecords
	pool    *jobs.Pool
	// batchSize for partitioning vertices across the pool.
	batchSize int
}

// NewDeformer validates the records against the mesh and prepares a
// deformer. boneCount bounds the bone indices the records may reference.
func NewDeformer(mesh *resources.Mesh, records WeightRecords, boneCount int, pool *jobs.Pool) (*Deformer, error) {
	if len(records) != mesh.VertexCount() {
		return nil, fmt.Errorf("weight records cover %d of %d vertices: %w", len(records), mesh.VertexCount(), core.ErrInvalidConfiguration)
	}
	for v, record := range records {
		for _, bw := range record {
			if int(bw.Bone) < 0 || int(bw.Bone) >= boneCount {
				return nil, fmt.Errorf("vertex %d references bone %d of %d: %w", v, bw.Bone, boneCount, core.ErrInvalidConfiguration)
			}
		}
	}
	return &Deformer{
		mesh:      mesh,
		records:   records,
		pool:      pool,
		batchSize: defaultBatchSize,
	}, nil
}

// Deform produces the mesh deformed by the given pose:
//
//	position' = sum_i( w_i * position * skin_i )
//	normal'   = normalize( sum_i( w_i * normal * normalMatrix_i ) )
//
// Output is bit-for-bit reproducible for identical inputs: each vertex is
// an independent accumulation over its own record, and batches write
// disjoint ranges.
func (d *Deformer) Deform(pose *skeleton.Pose) (*DeformedMesh, error) {
	if pose == nil {
		return nil, fmt.Errorf("nil pose: %w", core.ErrInvalidConfiguration)
	}

	// Normal matrices (inverse-transpose, translation dropped) are shared
	// by every vertex, so build them once per frame.
	normalMatrices := make([]math.Mat4, len(pose.Skin))
	for i, skin := range pose.Skin {
		normalMatrices[i] = skin.NormalMatrix()
	}

	out := &DeformedMesh{
		Positions: make([]math.Vec3, d.mesh.VertexCount()),
		Normals:   make([]math.Vec3, d.mesh.VertexCount()),
	}

	run := func(start, end int) {
		for v := start; v < end; v++ {
			rest := d.mesh.Vertices[v]
			var position, normal math.Vec3
			for _, bw := range d.records[v] {
				skin := pose.Skin[bw.Bone]
				position = position.Add(rest.Position.Transform(skin).MulScalar(bw.Weight))
				normal = normal.Add(rest.Normal.TransformDirection(normalMatrices[bw.Bone]).MulScalar(bw.Weight))
			}
			out.Positions[v] = position
			out.Normals[v] = normal.Normalized()
		}
	}

	// Frame work is bounded and cheap to discard, so no cancellation
	// mid-deform; a stale frame is simply not consumed.
	if err := d.pool.Run(context.Background(), d.mesh.VertexCount(), d.batchSize, run); err != nil {
		return nil, err
	}
	return out, nil
}

// Weights returns the vertex's weight record, read-only.
func (d *Deformer) Weights(vertex int) (WeightRecord, error) {
	if vertex < 0 || vertex >= len(d.records) {
		return nil, fmt.Errorf("vertex %d out of range: %w", vertex, core.ErrInvalidConfiguration)
	}
	return d.records[vertex], nil
}
