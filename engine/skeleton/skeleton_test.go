package skeleton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/math"
)

const tol = 1e-5

func assertVec3Near(t *testing.T, want, got math.Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol)
	assert.InDelta(t, want.Y, got.Y, tol)
	assert.InDelta(t, want.Z, got.Z, tol)
}

// spineChain is a three-bone chain stacked along +Y, each bone one unit
// long.
func spineChain() []Bone {
	return []Bone{
		{Name: "root", Parent: RootParent, Position: math.NewVec3Zero(), Rotation: math.NewQuatIdentity(), Tail: math.NewVec3(0, 1, 0)},
		{Name: "spine", Parent: 0, Position: math.NewVec3(0, 1, 0), Rotation: math.NewQuatIdentity(), Tail: math.NewVec3(0, 1, 0)},
		{Name: "head", Parent: 1, Position: math.NewVec3(0, 1, 0), Rotation: math.NewQuatIdentity(), Tail: math.NewVec3(0, 1, 0)},
	}
}

func TestNewResolvesWorldBind(t *testing.T) {
	s, err := New(spineChain())
	require.NoError(t, err)
	require.Equal(t, 3, s.BoneCount())

	assertVec3Near(t, math.NewVec3(0, 0, 0), s.WorldBind(0).Translation())
	assertVec3Near(t, math.NewVec3(0, 1, 0), s.WorldBind(1).Translation())
	assertVec3Near(t, math.NewVec3(0, 2, 0), s.WorldBind(2).Translation())
}

func TestRestSegments(t *testing.T) {
	s, err := New(spineChain())
	require.NoError(t, err)

	seg := s.RestSegment(1)
	assertVec3Near(t, math.NewVec3(0, 1, 0), seg.Start)
	assertVec3Near(t, math.NewVec3(0, 2, 0), seg.End)
}

func TestBindInverseRoundTrip(t *testing.T) {
	s, err := New(spineChain())
	require.NoError(t, err)

	for i := 0; i < s.BoneCount(); i++ {
		round := s.WorldBind(i).Mul(s.BindInverse(i))
		id := math.NewMat4Identity()
		for j := range round.Data {
			assert.InDelta(t, float64(id.Data[j]), float64(round.Data[j]), tol)
		}
	}
}

func TestBoneIndexLookup(t *testing.T) {
	s, err := New(spineChain())
	require.NoError(t, err)

	i, ok := s.BoneIndex("spine")
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = s.BoneIndex("tail")
	assert.False(t, ok)
}

func TestChildBeforeParentInput(t *testing.T) {
	// Children listed before their parents must produce the same world
	// binds as the sorted layout.
	bones := []Bone{
		{Name: "head", Parent: 2, Position: math.NewVec3(0, 1, 0), Rotation: math.NewQuatIdentity(), Tail: math.NewVec3(0, 1, 0)},
		{Name: "root", Parent: RootParent, Position: math.NewVec3Zero(), Rotation: math.NewQuatIdentity(), Tail: math.NewVec3(0, 1, 0)},
		{Name: "spine", Parent: 1, Position: math.NewVec3(0, 1, 0), Rotation: math.NewQuatIdentity(), Tail: math.NewVec3(0, 1, 0)},
	}
	s, err := New(bones)
	require.NoError(t, err)

	assertVec3Near(t, math.NewVec3(0, 2, 0), s.WorldBind(0).Translation())
	assertVec3Near(t, math.NewVec3(0, 0, 0), s.WorldBind(1).Translation())
	assertVec3Near(t, math.NewVec3(0, 1, 0), s.WorldBind(2).Translation())

	// Parents always come before their children in evaluation order.
	seen := make(map[int]bool)
	for _, i := range s.EvaluationOrder() {
		if p := s.Bone(i).Parent; p != RootParent {
			assert.True(t, seen[p], "parent of bone %d not evaluated first", i)
		}
		seen[i] = true
	}
}

func TestNewRejectsCycle(t *testing.T) {
	bones := []Bone{
		{Name: "a", Parent: 1, Rotation: math.NewQuatIdentity()},
		{Name: "b", Parent: 0, Rotation: math.NewQuatIdentity()},
	}
	_, err := New(bones)
	assert.ErrorIs(t, err, core.ErrCyclicHierarchy)
}

func TestNewRejectsSelfParent(t *testing.T) {
	bones := []Bone{
		{Name: "a", Parent: 0, Rotation: math.NewQuatIdentity()},
	}
	_, err := New(bones)
	assert.ErrorIs(t, err, core.ErrCyclicHierarchy)
}

func TestNewRejectsDanglingParent(t *testing.T) {
	bones := []Bone{
		{Name: "a", Parent: 7, Rotation: math.NewQuatIdentity()},
	}
	_, err := New(bones)
	assert.ErrorIs(t, err, core.ErrDanglingParent)
}

func TestNewRejectsDuplicateNames(t *testing.T) {
	bones := []Bone{
		{Name: "a", Parent: RootParent, Rotation: math.NewQuatIdentity()},
		{Name: "a", Parent: 0, Rotation: math.NewQuatIdentity()},
	}
	_, err := New(bones)
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
}

func TestMultipleRoots(t *testing.T) {
	bones := []Bone{
		{Name: "a", Parent: RootParent, Position: math.NewVec3(1, 0, 0), Rotation: math.NewQuatIdentity(), Tail: math.NewVec3(0, 1, 0)},
		{Name: "b", Parent: RootParent, Position: math.NewVec3(-1, 0, 0), Rotation: math.NewQuatIdentity(), Tail: math.NewVec3(0, 1, 0)},
	}
	s, err := New(bones)
	require.NoError(t, err)
	assertVec3Near(t, math.NewVec3(1, 0, 0), s.WorldBind(0).Translation())
	assertVec3Near(t, math.NewVec3(-1, 0, 0), s.WorldBind(1).Translation())
}
