package animation

import (
	"fmt"
	"sort"

	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/math"
	"github.com/spaghettifunk/marionette/engine/skeleton"
)

// Keyframe is a timed local bone pose within a channel. The pose is
// relative to the bone's rest transform, so a zero translation and
// identity rotation hold the bone at its bind position.
type Keyframe struct {
	// Time in seconds, non-negative, unique within its channel.
	Time        float32
	Translation math.Vec3
	Rotation    math.Quaternion
	Scale       math.Vec3
}

// Clip is an authored animation: a mapping from bone name to a
// time-ordered keyframe channel, plus a duration. A clip may omit channels
// for bones that remain in rest pose.
type Clip struct {
	Name string
	// duration explicitly authored; 0 means derive from the channels.
	duration float32
	channels map[string][]Keyframe
}

// NewClip creates an empty clip. A zero duration is derived later as the
// maximum keyframe time across channels.
func NewClip(name string, duration float32) *Clip {
	return &Clip{
		Name:     name,
		duration: duration,
		channels: make(map[string][]Keyframe),
	}
}

// AddKeyframe inserts a keyframe into the named bone's channel, keeping
// the channel sorted by time. Negative or duplicate times are rejected.
func (c *Clip) AddKeyframe(boneName string, kf Keyframe) error {
	if kf.Time < 0 {
		return fmt.Errorf("clip %q bone %q: keyframe time %f: %w", c.Name, boneName, kf.Time, core.ErrInvalidConfiguration)
	}
	keys := c.channels[boneName]
	at := sort.Search(len(keys), func(i int) bool { return keys[i].Time >= kf.Time })
	if at < len(keys) && keys[at].Time == kf.Time {
		return fmt.Errorf("clip %q bone %q: duplicate keyframe time %f: %w", c.Name, boneName, kf.Time, core.ErrInvalidConfiguration)
	}
	keys = append(keys, Keyframe{})
	copy(keys[at+1:], keys[at:])
	keys[at] = kf
	c.channels[boneName] = keys
	return nil
}

// Duration returns the authored duration, or the maximum keyframe time
// across all channels when none was authored.
func (c *Clip) Duration() float32 {
	if c.duration > 0 {
		return c.duration
	}
	max := float32(0)
	for _, keys := range c.channels {
		if n := len(keys); n > 0 && keys[n-1].Time > max {
			max = keys[n-1].Time
		}
	}
	return max
}

// Channels returns the names of all animated bones.
func (c *Clip) Channels() []string {
	names := make([]string, 0, len(c.channels))
	for name := range c.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Keyframes returns the channel for the named bone, or nil.
func (c *Clip) Keyframes(boneName string) []Keyframe {
	return c.channels[boneName]
}

// BoundClip is a clip resolved against a skeleton: channels re-keyed by
// bone index so per-frame sampling never touches the name table.
type BoundClip struct {
	Clip     *Clip
	channels [][]Keyframe
}

// Bind resolves every channel against the skeleton. A channel that
// references an unknown bone rejects the whole clip with
// core.ErrMissingBone rather than silently ignoring it.
func (c *Clip) Bind(s *skeleton.Skeleton) (*BoundClip, error) {
	bound := &BoundClip{
		Clip:     c,
		channels: make([][]Keyframe, s.BoneCount()),
	}
	for name, keys := range c.channels {
		index, ok := s.BoneIndex(name)
		if !ok {
			return nil, fmt.Errorf("clip %q channel %q: %w", c.Name, name, core.ErrMissingBone)
		}
		bound.channels[index] = keys
	}
	core.LogDebug("clip %q bound: %d channels, duration %.2fs", c.Name, len(c.channels), c.Duration())
	return bound, nil
}

// LocalPose samples the bone's channel at the given time. It reports false
// when the clip has no channel for the bone, leaving it in rest pose.
// LocalPose implements skeleton.PoseSource.
func (bc *BoundClip) LocalPose(boneIndex int, time float32) (math.Pose, bool) {
	if boneIndex < 0 || boneIndex >= len(bc.channels) || len(bc.channels[boneIndex]) == 0 {
		return math.Pose{}, false
	}
	return sampleChannel(bc.channels[boneIndex], time), true
}

// Duration returns the underlying clip's duration.
func (bc *BoundClip) Duration() float32 {
	return bc.Clip.Duration()
}
