package skinning

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/chewxy/math32"
	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/jobs"
	"github.com/spaghettifunk/marionette/engine/math"
	"github.com/spaghettifunk/marionette/engine/resources"
	"github.com/spaghettifunk/marionette/engine/skeleton"
)

// BoneWeight is one bone's fractional influence over a vertex.
type BoneWeight struct {
	Bone   int32
	Weight float32
}

// WeightRecord is a vertex's influence list: at most maxInfluences
// entries, weights non-negative and summing to 1.
type WeightRecord []BoneWeight

// WeightRecords maps vertex index to its weight record.
type WeightRecords []WeightRecord

// Scorer converts a vertex-to-bone distance into a non-negative influence
// score. minDist is the smallest candidate distance for the same vertex,
// letting strategies score relative to the closest bone.
type Scorer interface {
	Score(dist, minDist float32) float32
}

// InverseDistanceScorer is the default strategy: an inverse power falloff
// over the distance ratio to the nearest candidate bone,
// 1/((d/(dmin+1e-3))^falloff + 0.01). The nearest bone scores just under
// 1/1.01 and influence decays with the falloff exponent.
type InverseDistanceScorer struct {
	Falloff float32
}

func (s InverseDistanceScorer) Score(dist, minDist float32) float32 {
	ratio := dist / (minDist + 1e-3)
	return 1.0 / (math32.Pow(ratio, s.Falloff) + 0.01)
}

// Options configure weight computation. The zero value is completed by
// defaults in Validate.
type Options struct {
	// MaxInfluences bounds the influence list per vertex. Must be >= 1.
	MaxInfluences int
	// Falloff is the exponent of the default scorer. Zero selects
	// DefaultFalloff; negative values are rejected.
	Falloff float32
	// MaxDistance excludes bones farther than this from a vertex; 0 means
	// unlimited. Vertices left with no candidate fall back to the single
	// nearest bone.
	MaxDistance float32
	// BatchSize is the vertex batch handed to each worker.
	BatchSize int
	// Scorer overrides the default inverse-distance strategy.
	Scorer Scorer
}

const (
	DefaultMaxInfluences = 4
	DefaultFalloff       = 2.0
	defaultBatchSize     = 512
)

// Validate fills in defaults and rejects malformed parameters before any
// computation starts.
func (o *Options) Validate() error {
	if o.MaxInfluences == 0 {
		o.MaxInfluences = DefaultMaxInfluences
	}
	if o.MaxInfluences < 1 {
		return fmt.Errorf("max influences %d: %w", o.MaxInfluences, core.ErrInvalidConfiguration)
	}
	if o.Falloff == 0 {
		o.Falloff = DefaultFalloff
	}
	if o.Falloff < 0 {
		return fmt.Errorf("falloff %f: %w", o.Falloff, core.ErrInvalidConfiguration)
	}
	if o.MaxDistance < 0 {
		return fmt.Errorf("max distance %f: %w", o.MaxDistance, core.ErrInvalidConfiguration)
	}
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.Scorer == nil {
		o.Scorer = InverseDistanceScorer{Falloff: o.Falloff}
	}
	return nil
}

// ComputeWeights assigns every vertex a bounded set of (bone, weight)
// pairs from proximity to the skeleton's rest-pose bone segments. The
// result is a pure function of mesh, skeleton and options: vertices are
// partitioned across the pool in index batches writing disjoint output
// ranges, so the records are deterministic. Cancellation is best-effort,
// checked between batches.
func ComputeWeights(ctx context.Context, mesh *resources.Mesh, skel *skeleton.Skeleton, pool *jobs.Pool, opts Options) (WeightRecords, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if skel.BoneCount() == 0 {
		return nil, fmt.Errorf("skeleton has no bones: %w", core.ErrInvalidConfiguration)
	}

	numVertices := mesh.VertexCount()
	core.LogInfo("computing weights: %d vertices, %d bones, max influences %d",
		numVertices, skel.BoneCount(), opts.MaxInfluences)
	started := time.Now()

	segments := make([]skeleton.Segment, skel.BoneCount())
	for i := range segments {
		segments[i] = skel.RestSegment(i)
	}

	records := make(WeightRecords, numVertices)
	run := func(start, end int) {
		// Scratch buffers are per batch; vertices inside a batch reuse them.
		dists := make([]float32, len(segments))
		candidates := make([]int, 0, len(segments))
		for v := start; v < end; v++ {
			records[v] = computeVertex(mesh.Vertices[v].Position, segments, opts, dists, candidates)
		}
	}

	if err := pool.Run(ctx, numVertices, opts.BatchSize, run); err != nil {
		return nil, err
	}

	elapsed := time.Since(started).Seconds()
	core.LogInfo("weights computed in %.2fs", elapsed)
	core.EventFire(core.EVENT_CODE_WEIGHTS_COMPUTED, nil, core.EventContext{
		Time: elapsed,
		Name: mesh.Name,
	})
	return records, nil
}

// computeVertex builds one vertex's weight record. Ties on distance or
// score break toward the lower bone index so output is deterministic.
func computeVertex(position math.Vec3, segments []skeleton.Segment, opts Options, dists []float32, candidates []int) WeightRecord {
	nearest := 0
	minDist := float32(math32.MaxFloat32)
	candidates = candidates[:0]

	for i, seg := range segments {
		d := math.DistanceToSegment(position, seg.Start, seg.End)
		dists[i] = d
		if d < minDist {
			minDist = d
			nearest = i
		}
		if opts.MaxDistance == 0 || d <= opts.MaxDistance {
			candidates = append(candidates, i)
		}
	}

	// Out of range of every bone: the nearest one carries the vertex
	// alone, guaranteeing at least one non-zero influence.
	if len(candidates) == 0 {
		return WeightRecord{{Bone: int32(nearest), Weight: 1.0}}
	}

	candidateMin := float32(math32.MaxFloat32)
	for _, i := range candidates {
		if dists[i] < candidateMin {
			candidateMin = dists[i]
		}
	}

	scores := make([]float32, len(candidates))
	for c, i := range candidates {
		scores[c] = opts.Scorer.Score(dists[i], candidateMin)
	}

	// Highest score first, lower bone index on ties.
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		return candidates[order[a]] < candidates[order[b]]
	})

	keep := opts.MaxInfluences
	if keep > len(order) {
		keep = len(order)
	}

	total := float32(0)
	for _, c := range order[:keep] {
		total += scores[c]
	}
	if total <= 1e-6 {
		return WeightRecord{{Bone: int32(nearest), Weight: 1.0}}
	}

	record := make(WeightRecord, 0, keep)
	for _, c := range order[:keep] {
		w := scores[c] / total
		if w <= 0 {
			continue
		}
		record = append(record, BoneWeight{Bone: int32(candidates[c]), Weight: w})
	}
	if len(record) == 0 {
		return WeightRecord{{Bone: int32(nearest), Weight: 1.0}}
	}
	return record
}

// Validate checks the records against a mesh and skeleton: one record per
// vertex, bone indices in range, weights summing to 1 within epsilon.
func (wr WeightRecords) Validate(mesh *resources.Mesh, skel *skeleton.Skeleton) error {
	if len(wr) != mesh.VertexCount() {
		return fmt.Errorf("weight records cover %d of %d vertices: %w", len(wr), mesh.VertexCount(), core.ErrInvalidConfiguration)
	}
	for v, record := range wr {
		if len(record) == 0 {
			return fmt.Errorf("vertex %d has no influences: %w", v, core.ErrInvalidConfiguration)
		}
		sum := float32(0)
		for _, bw := range record {
			if int(bw.Bone) < 0 || int(bw.Bone) >= skel.BoneCount() {
				return fmt.Errorf("vertex %d references bone %d: %w", v, bw.Bone, core.ErrInvalidConfiguration)
			}
			if bw.Weight < 0 {
				return fmt.Errorf("vertex %d has negative weight: %w", v, core.ErrInvalidConfiguration)
			}
			sum += bw.Weight
		}
		if math32.Abs(sum-1.0) > 1e-4 {
			return fmt.Errorf("vertex %d weights sum to %f: %w", v, sum, core.ErrInvalidConfiguration)
		}
	}
	return nil
}
