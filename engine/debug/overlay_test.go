package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/marionette/engine/math"
	"github.com/spaghettifunk/marionette/engine/skeleton"
)

func chain(t *testing.T) *skeleton.Skeleton {
	t.Helper()
	s, err := skeleton.New([]skeleton.Bone{
		{Name: "root", Parent: skeleton.RootParent, Position: math.NewVec3Zero(), Rotation: math.NewQuatIdentity(), Tail: math.NewVec3(0, 1, 0)},
		{Name: "tip", Parent: 0, Position: math.NewVec3(0, 1, 0), Rotation: math.NewQuatIdentity(), Tail: math.NewVec3(0, 1, 0)},
	})
	require.NoError(t, err)
	return s
}

func TestRenderWritesDecodablePNG(t *testing.T) {
	skel := chain(t)
	positions := []math.Vec3{
		math.NewVec3(-0.5, 0.5, 0),
		math.NewVec3(0.5, 0.5, 0),
		math.NewVec3(0, 1.5, 0),
	}

	path := filepath.Join(t.TempDir(), "frame.png")
	overlay := NewOverlay(320, 240)
	require.NoError(t, overlay.Render(positions, RestSegments(skel), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestRenderEmptyScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	overlay := NewOverlay(64, 64)
	assert.NoError(t, overlay.Render(nil, nil, path))
}

func TestPoseSegmentsFollowWorldMatrices(t *testing.T) {
	skel := chain(t)
	pose := skel.BindPose()

	segments := PoseSegments(skel, pose)
	require.Len(t, segments, 2)
	for i, seg := range segments {
		rest := skel.RestSegment(i)
		assert.InDelta(t, float64(rest.Start.Y), float64(seg.Start.Y), 1e-5)
		assert.InDelta(t, float64(rest.End.Y), float64(seg.End.Y), 1e-5)
	}
}
