package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spaghettifunk/marionette/engine/animation"
	"github.com/spaghettifunk/marionette/engine/assets"
	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/jobs"
	"github.com/spaghettifunk/marionette/engine/math"
	"github.com/spaghettifunk/marionette/engine/resources"
	"github.com/spaghettifunk/marionette/engine/skeleton"
	"github.com/spaghettifunk/marionette/engine/skinning"
)

// Engine wires the pipeline together: assets in, weights computed or
// loaded from cache, animator driving pose evaluation, deformer producing
// skinned frames. All scene mutation happens on the caller's update
// goroutine; reloads detected by the asset watcher are applied there too.
type Engine struct {
	config Config

	assetManager *assets.AssetManager
	pool         *jobs.Pool
	clock        *core.Clock

	mu       sync.Mutex
	mesh     *resources.Mesh
	skeleton *skeleton.Skeleton
	clips    map[string]*animation.Clip
	animator *animation.Animator
	deformer *skinning.Deformer
}

// New initializes the core systems and the asset manager. The scene is
// empty until LoadScene.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	core.EventInitialize()
	core.MetricsInitialize()

	pool, err := jobs.NewPool(cfg.Workers)
	if err != nil {
		return nil, err
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		return nil, err
	}
	if err := am.Initialize(cfg.Assets.Dir); err != nil {
		am.Shutdown()
		return nil, err
	}

	core.LogInfo("%s initialized: %d workers, assets at %s", cfg.Name, pool.Workers(), cfg.Assets.Dir)
	return &Engine{
		config:       cfg,
		assetManager: am,
		pool:         pool,
		clock:        core.NewClock(),
		clips:        make(map[string]*animation.Clip),
	}, nil
}

// Shutdown stops the asset watcher and releases the event registry.
func (e *Engine) Shutdown() {
	e.assetManager.Shutdown()
	core.EventShutdown()
}

// LoadScene loads the configured mesh, skeleton and clip, resolves the
// vertex weights and binds the clip for playback.
func (e *Engine) LoadScene(ctx context.Context) error {
	mesh, err := e.loadMesh(e.assetPath(e.config.Assets.Mesh))
	if err != nil {
		return err
	}
	skel, err := e.loadSkeleton(e.assetPath(e.config.Assets.Skeleton))
	if err != nil {
		return err
	}

	records, err := e.resolveWeights(ctx, mesh, skel)
	if err != nil {
		return err
	}
	deformer, err := skinning.NewDeformer(mesh, records, skel.BoneCount(), e.pool)
	if err != nil {
		return err
	}

	animator := animation.NewAnimator(skel)
	animator.SetLooping(e.config.Playback.Loop)

	e.mu.Lock()
	e.mesh = mesh
	e.skeleton = skel
	e.animator = animator
	e.deformer = deformer
	e.clips = make(map[string]*animation.Clip)
	e.mu.Unlock()

	if e.config.Assets.Clip != "" {
		clip, err := e.loadClip(e.assetPath(e.config.Assets.Clip))
		if err != nil {
			return err
		}
		if err := e.UseClip(clip.Name); err != nil {
			return err
		}
	}

	e.clock.Start()
	return nil
}

// resolveWeights loads the cache sidecar when it matches the current
// inputs, otherwise computes fresh records and refreshes the sidecar.
func (e *Engine) resolveWeights(ctx context.Context, mesh *resources.Mesh, skel *skeleton.Skeleton) (skinning.WeightRecords, error) {
	opts := skinning.Options{
		MaxInfluences: e.config.Skinning.MaxInfluences,
		Falloff:       e.config.Skinning.Falloff,
		MaxDistance:   e.config.Skinning.MaxDistance,
		BatchSize:     e.config.Skinning.BatchSize,
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	cachePath := ""
	if e.config.Assets.WeightCache != "" {
		cachePath = e.assetPath(e.config.Assets.WeightCache)
	}

	key := skinning.CacheKey(mesh, skel, opts)
	if cachePath != "" {
		records, err := skinning.LoadCacheMatching(cachePath, key)
		if err == nil {
			core.LogInfo("weight cache hit: %s", cachePath)
			return records, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			core.LogWarn("weight cache unusable, recomputing: %s", err.Error())
		}
	}

	records, err := skinning.ComputeWeights(ctx, mesh, skel, e.pool, opts)
	if err != nil {
		return nil, err
	}

	if cachePath != "" {
		if err := skinning.SaveCache(cachePath, records, key, opts.MaxInfluences); err != nil {
			core.LogWarn("weight cache not saved: %s", err.Error())
		}
	}
	return records, nil
}

func (e *Engine) assetPath(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(e.config.Assets.Dir, rel)
}

func (e *Engine) loadMesh(path string) (*resources.Mesh, error) {
	res, err := e.assetManager.LoadAsset(path)
	if err != nil {
		return nil, err
	}
	mesh, ok := res.Data.(*resources.Mesh)
	if !ok {
		return nil, fmt.Errorf("asset %s is not a mesh: %w", path, core.ErrInvalidConfiguration)
	}
	mesh.EnsureNormals()
	return mesh, nil
}

func (e *Engine) loadSkeleton(path string) (*skeleton.Skeleton, error) {
	res, err := e.assetManager.LoadAsset(path)
	if err != nil {
		return nil, err
	}
	skel, ok := res.Data.(*skeleton.Skeleton)
	if !ok {
		return nil, fmt.Errorf("asset %s is not a skeleton: %w", path, core.ErrInvalidConfiguration)
	}
	return skel, nil
}

// loadClip loads a clip asset and registers it by name.
func (e *Engine) loadClip(path string) (*animation.Clip, error) {
	res, err := e.assetManager.LoadAsset(path)
	if err != nil {
		return nil, err
	}
	clip, ok := res.Data.(*animation.Clip)
	if !ok {
		return nil, fmt.Errorf("asset %s is not a clip: %w", path, core.ErrInvalidConfiguration)
	}

	e.mu.Lock()
	e.clips[clip.Name] = clip
	e.mu.Unlock()
	return clip, nil
}

// UseClip binds a previously loaded clip to the animator.
func (e *Engine) UseClip(name string) error {
	e.mu.Lock()
	clip, ok := e.clips[name]
	animator := e.animator
	e.mu.Unlock()

	if animator == nil {
		return fmt.Errorf("no scene loaded: %w", core.ErrInvalidConfiguration)
	}
	if !ok {
		return fmt.Errorf("unknown clip %q: %w", name, core.ErrInvalidConfiguration)
	}
	return animator.SetClip(clip)
}

// Clips lists the names of loaded clips.
func (e *Engine) Clips() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.clips))
	for name := range e.clips {
		names = append(names, name)
	}
	return names
}

func (e *Engine) Play() error  { return e.withAnimator(func(a *animation.Animator) { a.Play() }) }
func (e *Engine) Pause() error { return e.withAnimator(func(a *animation.Animator) { a.Pause() }) }
func (e *Engine) Stop() error  { return e.withAnimator(func(a *animation.Animator) { a.Stop() }) }

func (e *Engine) Seek(time float32) error {
	a := e.currentAnimator()
	if a == nil {
		return fmt.Errorf("no scene loaded: %w", core.ErrInvalidConfiguration)
	}
	return a.Seek(time)
}

func (e *Engine) withAnimator(fn func(*animation.Animator)) error {
	a := e.currentAnimator()
	if a == nil {
		return fmt.Errorf("no scene loaded: %w", core.ErrInvalidConfiguration)
	}
	fn(a)
	return nil
}

func (e *Engine) currentAnimator() *animation.Animator {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.animator
}

// Update advances one frame: apply pending asset reloads, tick the
// playback clock, record frame metrics. Returns the deformed mesh at the
// new playback position.
func (e *Engine) Update(ctx context.Context) (*skinning.DeformedMesh, error) {
	e.applyReloads(ctx)

	e.clock.Update()
	a := e.currentAnimator()
	if a == nil {
		return nil, fmt.Errorf("no scene loaded: %w", core.ErrInvalidConfiguration)
	}
	a.Update(e.clock.Delta())

	frame, err := e.EvaluateFrame()
	if err != nil {
		return nil, err
	}
	core.MetricsUpdate(e.clock.Delta())
	return frame, nil
}

// EvaluateFrame deforms the mesh at the animator's current playback
// position without advancing the clock.
func (e *Engine) EvaluateFrame() (*skinning.DeformedMesh, error) {
	e.mu.Lock()
	animator := e.animator
	deformer := e.deformer
	e.mu.Unlock()

	if animator == nil || deformer == nil {
		return nil, fmt.Errorf("no scene loaded: %w", core.ErrInvalidConfiguration)
	}
	pose, err := animator.Pose()
	if err != nil {
		return nil, err
	}
	return deformer.Deform(pose)
}

// EvaluateFrameAt deforms the mesh at an arbitrary time, wrapped or
// clamped by the looping mode. Playback state is untouched.
func (e *Engine) EvaluateFrameAt(time float32) (*skinning.DeformedMesh, error) {
	e.mu.Lock()
	animator := e.animator
	deformer := e.deformer
	e.mu.Unlock()

	if animator == nil || deformer == nil {
		return nil, fmt.Errorf("no scene loaded: %w", core.ErrInvalidConfiguration)
	}
	pose, err := animator.PoseAt(time)
	if err != nil {
		return nil, err
	}
	return deformer.Deform(pose)
}

// CurrentPose returns the world and skinning matrices at the current
// playback position, for callers that consume matrices directly.
func (e *Engine) CurrentPose() (*skeleton.Pose, error) {
	a := e.currentAnimator()
	if a == nil {
		return nil, fmt.Errorf("no scene loaded: %w", core.ErrInvalidConfiguration)
	}
	return a.Pose()
}

// VertexWeights returns the influence record of one vertex, for
// inspection and debugging.
func (e *Engine) VertexWeights(vertex int) (skinning.WeightRecord, error) {
	e.mu.Lock()
	deformer := e.deformer
	e.mu.Unlock()
	if deformer == nil {
		return nil, fmt.Errorf("no scene loaded: %w", core.ErrInvalidConfiguration)
	}
	return deformer.Weights(vertex)
}

// Mesh returns the rest-pose mesh of the loaded scene.
func (e *Engine) Mesh() *resources.Mesh {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mesh
}

// Skeleton returns the loaded skeleton.
func (e *Engine) Skeleton() *skeleton.Skeleton {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.skeleton
}

// Animator exposes the playback state machine.
func (e *Engine) Animator() *animation.Animator {
	return e.currentAnimator()
}

// applyReloads drains the watcher queue and re-runs the affected part of
// the pipeline. Mesh or skeleton changes invalidate the weights too; a
// changed clip file is rebound in place.
func (e *Engine) applyReloads(ctx context.Context) {
	for _, path := range e.assetManager.DrainModified() {
		if err := e.reloadAsset(ctx, path); err != nil {
			core.LogError("reload %s: %s", path, err.Error())
		}
	}
}

func (e *Engine) reloadAsset(ctx context.Context, path string) error {
	switch path {
	case e.assetPath(e.config.Assets.Mesh), e.assetPath(e.config.Assets.Skeleton):
		core.LogInfo("asset changed, rebuilding scene: %s", path)
		return e.rebuildScene(ctx)
	case e.assetPath(e.config.Assets.Clip):
		return e.reloadClipAt(path)
	default:
		// Not part of the loaded scene; picked up on next LoadAsset.
		return nil
	}
}

// rebuildScene reloads mesh and skeleton and recomputes weights,
// resuming the previous playback position and state where the new scene
// still supports them.
func (e *Engine) rebuildScene(ctx context.Context) error {
	var resumeTime float32
	resumeState := animation.Stopped
	if previous := e.currentAnimator(); previous != nil {
		resumeTime = previous.CurrentTime()
		resumeState = previous.State()
	}

	if err := e.LoadScene(ctx); err != nil {
		return err
	}

	animator := e.currentAnimator()
	if animator != nil && resumeState != animation.Stopped {
		if err := animator.Seek(resumeTime); err != nil {
			return err
		}
		if resumeState == animation.Playing {
			animator.Play()
		} else {
			animator.Play()
			animator.Pause()
		}
	}
	return nil
}

// reloadClipAt reloads a clip file in place and rebinds it.
func (e *Engine) reloadClipAt(path string) error {
	animator := e.currentAnimator()
	if animator == nil {
		return nil
	}
	clip, err := e.loadClip(path)
	if err != nil {
		return err
	}
	return animator.SetClip(clip)
}

// FPS returns the frames-per-second counter.
func (e *Engine) FPS() float64 {
	return core.MetricsFPS()
}

// FrameTime returns the rolling average frame time in milliseconds.
func (e *Engine) FrameTime() float64 {
	return core.MetricsFrameTime()
}

// BindExtents returns the rest mesh's bounding box, for framing debug
// output.
func (e *Engine) BindExtents() math.Extents3D {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mesh == nil {
		return math.Extents3D{}
	}
	return e.mesh.Extents()
}
