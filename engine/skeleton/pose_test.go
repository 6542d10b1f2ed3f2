package skeleton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/math"
)

// poseFunc adapts a function to the PoseSource interface for tests.
type poseFunc func(boneIndex int, time float32) (math.Pose, bool)

func (f poseFunc) LocalPose(boneIndex int, time float32) (math.Pose, bool) {
	return f(boneIndex, time)
}

func TestBindPoseSkinIsIdentity(t *testing.T) {
	s, err := New(spineChain())
	require.NoError(t, err)

	pose := s.BindPose()
	id := math.NewMat4Identity()
	for i := 0; i < s.BoneCount(); i++ {
		for j := range pose.Skin[i].Data {
			assert.InDelta(t, float64(id.Data[j]), float64(pose.Skin[i].Data[j]), tol)
		}
	}
}

func TestEvaluatePoseNilSourceMatchesBind(t *testing.T) {
	s, err := New(spineChain())
	require.NoError(t, err)

	pose, err := s.EvaluatePose(nil, 3.5)
	require.NoError(t, err)
	for i := 0; i < s.BoneCount(); i++ {
		assert.Equal(t, s.WorldBind(i), pose.World[i])
	}
}

func TestEvaluatePoseRotationPropagates(t *testing.T) {
	s, err := New(spineChain())
	require.NoError(t, err)

	// Rotate only the root 90 degrees about Z; children follow.
	source := poseFunc(func(boneIndex int, _ float32) (math.Pose, bool) {
		if boneIndex != 0 {
			return math.Pose{}, false
		}
		return math.Pose{
			Translation: math.NewVec3Zero(),
			Rotation:    math.NewQuatFromAxisAngle(math.NewVec3(0, 0, 1), math.DegToRad(90)),
			Scale:       math.NewVec3One(),
		}, true
	})

	pose, err := s.EvaluatePose(source, 0)
	require.NoError(t, err)

	assertVec3Near(t, math.NewVec3(0, 0, 0), pose.World[0].Translation())
	assertVec3Near(t, math.NewVec3(-1, 0, 0), pose.World[1].Translation())
	assertVec3Near(t, math.NewVec3(-2, 0, 0), pose.World[2].Translation())

	// The skin matrix carries a rest-space point into the animated pose:
	// the head joint at rest (0,2,0) ends up at (-2,0,0).
	moved := math.NewVec3(0, 2, 0).Transform(pose.Skin[2])
	assertVec3Near(t, math.NewVec3(-2, 0, 0), moved)
}

func TestEvaluatePoseIdentityChannelMatchesBind(t *testing.T) {
	s, err := New(spineChain())
	require.NoError(t, err)

	// A channel holding an identity pose adds nothing on top of the rest
	// transform; every bone stays at its bind position.
	source := poseFunc(func(_ int, _ float32) (math.Pose, bool) {
		return math.Pose{
			Translation: math.NewVec3Zero(),
			Rotation:    math.NewQuatIdentity(),
			Scale:       math.NewVec3One(),
		}, true
	})

	pose, err := s.EvaluatePose(source, 0)
	require.NoError(t, err)

	id := math.NewMat4Identity()
	for i := 0; i < s.BoneCount(); i++ {
		assertVec3Near(t, s.WorldBind(i).Translation(), pose.World[i].Translation())
		for j := range pose.Skin[i].Data {
			assert.InDelta(t, float64(id.Data[j]), float64(pose.Skin[i].Data[j]), tol)
		}
	}
}

func TestEvaluatePoseRotationOnlyKeepsBoneOffsets(t *testing.T) {
	s, err := New(spineChain())
	require.NoError(t, err)

	// Rotating the spine must not drag it onto its parent: the rest offset
	// survives and only the bones below pivot around the spine joint.
	source := poseFunc(func(boneIndex int, _ float32) (math.Pose, bool) {
		if boneIndex != 1 {
			return math.Pose{}, false
		}
		return math.Pose{
			Translation: math.NewVec3Zero(),
			Rotation:    math.NewQuatFromAxisAngle(math.NewVec3(0, 0, 1), math.DegToRad(90)),
			Scale:       math.NewVec3One(),
		}, true
	})

	pose, err := s.EvaluatePose(source, 0)
	require.NoError(t, err)

	assertVec3Near(t, math.NewVec3(0, 1, 0), pose.World[1].Translation())
	assertVec3Near(t, math.NewVec3(-1, 1, 0), pose.World[2].Translation())
}

func TestEvaluatePoseRejectsNegativeTime(t *testing.T) {
	s, err := New(spineChain())
	require.NoError(t, err)

	_, err = s.EvaluatePose(nil, -0.1)
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
}
