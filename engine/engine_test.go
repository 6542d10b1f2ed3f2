package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/marionette/engine/animation"
)

const testOBJ = `
v 0 0 0
v 1 0 0
v 0 1 0
v 0 0 1
f 1 2 3
f 1 3 4
`

const testSkeletonJSON = `{
  "joints": [
    {"name": "root", "head": [0, 0, 0], "tail": [0, 1, 0]},
    {"name": "tip", "parent": "root", "head": [0, 1, 0], "tail": [0, 2, 0]}
  ]
}`

const testClipJSON = `{
  "name": "sway",
  "duration": 1,
  "keyframes": {
    "root": [
      {"time": 0, "translation": [0, 0, 0]},
      {"time": 1, "translation": [2, 0, 0]}
    ]
  }
}`

// Euler-only channel on the offset joint: no translation keys at all.
const rotClipJSON = `{
  "name": "nod",
  "duration": 1,
  "keyframes": {
    "tip": [
      {"time": 0, "euler": [0, 0, 0]},
      {"time": 1, "euler": [0, 0, 1.5708]}
    ]
  }
}`

func sceneConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.obj"), []byte(testOBJ), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.skeleton.json"), []byte(testSkeletonJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sway.anim.json"), []byte(testClipJSON), 0o644))

	cfg := DefaultConfig()
	cfg.Assets.Dir = dir
	cfg.Assets.Mesh = "model.obj"
	cfg.Assets.Skeleton = "model.skeleton.json"
	cfg.Assets.Clip = "sway.anim.json"
	cfg.Workers = 2
	return cfg
}

func loadedEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(e.Shutdown)
	require.NoError(t, e.LoadScene(context.Background()))
	return e
}

func TestLoadSceneWiresPipeline(t *testing.T) {
	e := loadedEngine(t, sceneConfig(t))

	require.NotNil(t, e.Mesh())
	require.NotNil(t, e.Skeleton())
	assert.Equal(t, 4, e.Mesh().VertexCount())
	assert.Equal(t, 2, e.Skeleton().BoneCount())
	assert.Equal(t, []string{"sway"}, e.Clips())

	// Every vertex got a normalized record.
	for v := 0; v < e.Mesh().VertexCount(); v++ {
		record, err := e.VertexWeights(v)
		require.NoError(t, err)
		require.NotEmpty(t, record)
		sum := float32(0)
		for _, bw := range record {
			sum += bw.Weight
		}
		assert.InDelta(t, 1.0, float64(sum), 1e-5)
	}
}

func TestEvaluateFrameAtFollowsClip(t *testing.T) {
	e := loadedEngine(t, sceneConfig(t))

	rest, err := e.EvaluateFrameAt(0)
	require.NoError(t, err)
	half, err := e.EvaluateFrameAt(0.5)
	require.NoError(t, err)

	// The root channel translates +2 in X over one second; every vertex
	// follows the skeleton, so at t=0.5 all have moved +1.
	for v := range rest.Positions {
		assert.InDelta(t, float64(rest.Positions[v].X+1), float64(half.Positions[v].X), 1e-4)
	}
}

func TestEvaluateFrameDeterministic(t *testing.T) {
	e := loadedEngine(t, sceneConfig(t))

	a, err := e.EvaluateFrameAt(0.3)
	require.NoError(t, err)
	b, err := e.EvaluateFrameAt(0.3)
	require.NoError(t, err)
	assert.Equal(t, a.Positions, b.Positions)
	assert.Equal(t, a.Normals, b.Normals)
}

func TestPlaybackControls(t *testing.T) {
	e := loadedEngine(t, sceneConfig(t))

	require.NoError(t, e.Play())
	assert.Equal(t, animation.Playing, e.Animator().State())

	require.NoError(t, e.Pause())
	assert.Equal(t, animation.Paused, e.Animator().State())

	require.NoError(t, e.Seek(0.25))
	assert.InDelta(t, 0.25, float64(e.Animator().CurrentTime()), 1e-5)

	require.NoError(t, e.Stop())
	assert.Equal(t, animation.Stopped, e.Animator().State())
}

func TestControlsWithoutSceneFail(t *testing.T) {
	cfg := sceneConfig(t)
	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(e.Shutdown)

	assert.Error(t, e.Play())
	assert.Error(t, e.Seek(0))
	_, err = e.EvaluateFrame()
	assert.Error(t, err)
}

func TestWeightCacheWrittenAndReused(t *testing.T) {
	cfg := sceneConfig(t)
	cfg.Assets.WeightCache = "model.weights"

	e := loadedEngine(t, cfg)
	cachePath := filepath.Join(cfg.Assets.Dir, "model.weights")
	_, err := os.Stat(cachePath)
	require.NoError(t, err, "cache sidecar not written")

	before, err := e.VertexWeights(0)
	require.NoError(t, err)

	// A second engine over the same assets loads the sidecar instead of
	// recomputing and sees identical records.
	e2 := loadedEngine(t, cfg)
	after, err := e2.VertexWeights(0)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRotationOnlyClipKeepsJointOffsets(t *testing.T) {
	cfg := sceneConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Assets.Dir, "nod.anim.json"), []byte(rotClipJSON), 0o644))
	cfg.Assets.Clip = "nod.anim.json"
	e := loadedEngine(t, cfg)

	// A channel that only rotates must hold the joint at its bind offset;
	// the missing translation keys mean "no extra translation", not "move
	// to the origin".
	pose, err := e.Animator().PoseAt(0)
	require.NoError(t, err)

	for i := 0; i < e.Skeleton().BoneCount(); i++ {
		bind := e.Skeleton().WorldBind(i).Translation()
		got := pose.World[i].Translation()
		assert.InDelta(t, float64(bind.X), float64(got.X), 1e-4)
		assert.InDelta(t, float64(bind.Y), float64(got.Y), 1e-4)
		assert.InDelta(t, float64(bind.Z), float64(got.Z), 1e-4)
	}
}

func TestUseClipUnknownName(t *testing.T) {
	e := loadedEngine(t, sceneConfig(t))
	assert.Error(t, e.UseClip("sprint"))
}
