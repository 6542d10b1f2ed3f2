package skeleton

import (
	"fmt"

	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/math"
)

// Bone is a node in the skeleton hierarchy. Bones are stored in a flat
// arena and reference their parent by index, which keeps traversal
// cache-friendly and rules out cyclic ownership.
type Bone struct {
	Name string
	// Parent is the arena index of the parent bone, or RootParent.
	Parent int
	// Position and Rotation form the rest-pose transform relative to the
	// parent bone (identity space for roots).
	Position math.Vec3
	Rotation math.Quaternion
	// Tail is the bone's segment endpoint in bone-local space. The rest
	// segment from the bone origin to the tail drives influence weighting.
	Tail math.Vec3
}

// RootParent marks a bone without a parent.
const RootParent = -1

// Segment is a bone's rest-pose line segment in world space.
type Segment struct {
	Start math.Vec3
	End   math.Vec3
}

// Skeleton is an immutable, ordered collection of bones. Indices are
// stable for the skeleton's lifetime and shared with weight records and
// animation channels.
type Skeleton struct {
	bones       []Bone
	byName      map[string]int
	order       []int
	worldBind   []math.Mat4
	bindInverse []math.Mat4
	segments    []Segment
}

// New validates the bone hierarchy and resolves the world-bind matrices.
// It fails with core.ErrDanglingParent when a parent index is out of range
// and core.ErrCyclicHierarchy when the parent links contain a cycle.
func New(bones []Bone) (*Skeleton, error) {
	s := &Skeleton{
		bones:  make([]Bone, len(bones)),
		byName: make(map[string]int, len(bones)),
	}
	copy(s.bones, bones)

	for i, b := range s.bones {
		if b.Parent != RootParent && (b.Parent < 0 || b.Parent >= len(s.bones)) {
			return nil, fmt.Errorf("bone %q parent index %d: %w", b.Name, b.Parent, core.ErrDanglingParent)
		}
		if b.Parent == i {
			return nil, fmt.Errorf("bone %q is its own parent: %w", b.Name, core.ErrCyclicHierarchy)
		}
		if _, exists := s.byName[b.Name]; exists {
			return nil, fmt.Errorf("duplicate bone name %q: %w", b.Name, core.ErrInvalidConfiguration)
		}
		s.byName[b.Name] = i
	}

	order, err := topologicalOrder(s.bones)
	if err != nil {
		return nil, err
	}
	s.order = order

	s.resolveWorldBind()

	core.LogDebug("skeleton built: %d bones, %d roots", len(s.bones), s.rootCount())
	return s, nil
}

// topologicalOrder returns a parent-before-child ordering of the bone
// indices, or core.ErrCyclicHierarchy when none exists.
func topologicalOrder(bones []Bone) ([]int, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]uint8, len(bones))
	order := make([]int, 0, len(bones))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("bone %q: %w", bones[i].Name, core.ErrCyclicHierarchy)
		}
		state[i] = visiting
		if p := bones[i].Parent; p != RootParent {
			if err := visit(p); err != nil {
				return err
			}
		}
		state[i] = done
		order = append(order, i)
		return nil
	}

	for i := range bones {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// resolveWorldBind composes each bone's rest transform with its parent's
// world transform, roots using identity as parent. Bones are processed in
// parent-before-child order, so a parent's matrix is always final before
// any of its children read it.
func (s *Skeleton) resolveWorldBind() {
	s.worldBind = make([]math.Mat4, len(s.bones))
	s.bindInverse = make([]math.Mat4, len(s.bones))
	s.segments = make([]Segment, len(s.bones))

	for _, i := range s.order {
		b := s.bones[i]
		local := math.Pose{
			Translation: b.Position,
			Rotation:    b.Rotation,
			Scale:       math.NewVec3One(),
		}.Matrix()

		if b.Parent == RootParent {
			s.worldBind[i] = local
		} else {
			s.worldBind[i] = local.Mul(s.worldBind[b.Parent])
		}
		s.bindInverse[i] = s.worldBind[i].Inverse()
		s.segments[i] = Segment{
			Start: s.worldBind[i].Translation(),
			End:   b.Tail.Transform(s.worldBind[i]),
		}
	}
}

func (s *Skeleton) rootCount() int {
	n := 0
	for _, b := range s.bones {
		if b.Parent == RootParent {
			n++
		}
	}
	return n
}

// BoneCount returns the number of bones; fixed after construction.
func (s *Skeleton) BoneCount() int {
	return len(s.bones)
}

// Bone returns the bone at the given arena index.
func (s *Skeleton) Bone(index int) Bone {
	return s.bones[index]
}

// BoneIndex resolves a bone name to its arena index.
func (s *Skeleton) BoneIndex(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// EvaluationOrder returns a copy of the cached parent-before-child order.
func (s *Skeleton) EvaluationOrder() []int {
	out := make([]int, len(s.order))
	copy(out, s.order)
	return out
}

// WorldBind returns the bone's rest-pose world matrix.
func (s *Skeleton) WorldBind(index int) math.Mat4 {
	return s.worldBind[index]
}

// BindInverse returns the inverse of the bone's world-bind matrix.
func (s *Skeleton) BindInverse(index int) math.Mat4 {
	return s.bindInverse[index]
}

// RestSegment returns the bone's rest-pose segment in world space.
func (s *Skeleton) RestSegment(index int) Segment {
	return s.segments[index]
}

// RestPose returns the bone's local rest transform as a pose.
func (s *Skeleton) RestPose(index int) math.Pose {
	b := s.bones[index]
	return math.Pose{
		Translation: b.Position,
		Rotation:    b.Rotation,
		Scale:       math.NewVec3One(),
	}
}
