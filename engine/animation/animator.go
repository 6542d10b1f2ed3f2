package animation

import (
	"fmt"
	"sync"

	"github.com/chewxy/math32"

	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/skeleton"
)

// PlaybackState is the animator's lifecycle state.
type PlaybackState int

const (
	Stopped PlaybackState = iota
	Playing
	Paused
)

func (ps PlaybackState) String() string {
	switch ps {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// Animator drives a bound clip over a skeleton. The playback position is
// the only mutable state in the pipeline and is guarded by a mutex so
// readers always see a consistent snapshot; pose evaluation itself stays a
// pure function of (skeleton, clip, time).
type Animator struct {
	mu       sync.Mutex
	skeleton *skeleton.Skeleton
	clip     *BoundClip
	time     float32
	state    PlaybackState
	loop     bool
}

// NewAnimator creates a stopped animator over the given skeleton.
func NewAnimator(s *skeleton.Skeleton) *Animator {
	return &Animator{skeleton: s, loop: true}
}

// SetClip binds the clip to the animator's skeleton and rewinds. The clip
// is rejected when it references bones the skeleton does not have.
func (a *Animator) SetClip(clip *Clip) error {
	bound, err := clip.Bind(a.skeleton)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clip = bound
	a.time = 0
	core.LogInfo("clip %q loaded (%.2fs)", clip.Name, clip.Duration())
	return nil
}

// SetLooping switches between wrapping and clamping playback.
func (a *Animator) SetLooping(loop bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loop = loop
}

func (a *Animator) Play() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = Playing
}

func (a *Animator) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == Playing {
		a.state = Paused
	}
}

func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = Stopped
	a.time = 0
}

// Seek repositions the playback clock without changing state. Valid in any
// state; negative times are rejected.
func (a *Animator) Seek(time float32) error {
	if time < 0 {
		return fmt.Errorf("seek to %f: %w", time, core.ErrInvalidConfiguration)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.time = a.wrap(time)
	return nil
}

// wrap maps a raw time onto the clip: modulo duration when looping,
// clamped to the final pose otherwise. Caller must hold the mutex.
func (a *Animator) wrap(time float32) float32 {
	if a.clip == nil {
		return 0
	}
	duration := a.clip.Duration()
	if duration <= 0 {
		return 0
	}
	if time <= duration {
		return time
	}
	if a.loop {
		// Mod rather than repeated subtraction: past a few million seconds
		// the float32 gap between adjacent values exceeds a short clip's
		// duration and subtracting stops making progress.
		if wrapped := math32.Mod(time, duration); wrapped > 0 {
			return wrapped
		}
		return duration
	}
	return duration
}

// Update advances the playback clock while playing. Reaching the end of a
// non-looping clip clamps to the final pose, stops playback and fires
// EVENT_CODE_PLAYBACK_FINISHED.
func (a *Animator) Update(delta float64) {
	a.mu.Lock()
	if a.state != Playing || a.clip == nil {
		a.mu.Unlock()
		return
	}

	raw := a.time + float32(delta)
	a.time = a.wrap(raw)

	finished := !a.loop && raw > a.clip.Duration()
	var duration float32
	var name string
	if finished {
		a.state = Stopped
		duration = a.clip.Duration()
		name = a.clip.Clip.Name
	}
	a.mu.Unlock()

	if finished {
		core.EventFire(core.EVENT_CODE_PLAYBACK_FINISHED, a, core.EventContext{
			Time: float64(duration),
			Name: name,
		})
	}
}

// CurrentTime returns a consistent snapshot of the playback position.
func (a *Animator) CurrentTime() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.time
}

// State returns the current playback state.
func (a *Animator) State() PlaybackState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Pose evaluates the skeleton at the current playback position. With no
// clip bound this is the bind pose.
func (a *Animator) Pose() (*skeleton.Pose, error) {
	a.mu.Lock()
	clip := a.clip
	time := a.time
	a.mu.Unlock()

	if clip == nil {
		return a.skeleton.BindPose(), nil
	}
	return a.skeleton.EvaluatePose(clip, time)
}

// PoseAt evaluates the skeleton at an arbitrary time, wrapped or clamped
// by the looping mode, without touching the playback clock.
func (a *Animator) PoseAt(time float32) (*skeleton.Pose, error) {
	if time < 0 {
		return nil, fmt.Errorf("pose at %f: %w", time, core.ErrInvalidConfiguration)
	}
	a.mu.Lock()
	clip := a.clip
	wrapped := a.wrap(time)
	a.mu.Unlock()

	if clip == nil {
		return a.skeleton.BindPose(), nil
	}
	return a.skeleton.EvaluatePose(clip, wrapped)
}
