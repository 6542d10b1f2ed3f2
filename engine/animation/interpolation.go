package animation

import (
	"sort"

	"github.com/spaghettifunk/marionette/engine/math"
)

// findKeyframeInterval locates the bracketing keyframe pair for the given
// time and the interpolation factor between them. Times at or before the
// first key and at or after the last clamp to that key with factor 0 — no
// extrapolation ever happens.
func findKeyframeInterval(keys []Keyframe, time float32) (k0, k1 Keyframe, f float32) {
	if len(keys) == 1 {
		return keys[0], keys[0], 0
	}
	if time <= keys[0].Time {
		return keys[0], keys[0], 0
	}
	last := keys[len(keys)-1]
	if time >= last.Time {
		return last, last, 0
	}

	// First key with time > query; its predecessor starts the interval.
	hi := sort.Search(len(keys), func(i int) bool { return keys[i].Time > time })
	lo := hi - 1

	t0 := keys[lo].Time
	t1 := keys[hi].Time
	f = (time - t0) / (t1 - t0)
	return keys[lo], keys[hi], f
}

// sampleChannel returns the channel's interpolated local pose at the given
// time. Translation and scale interpolate linearly; rotation follows the
// shortest-arc slerp and is renormalized against numerical drift.
func sampleChannel(keys []Keyframe, time float32) math.Pose {
	k0, k1, f := findKeyframeInterval(keys, time)

	// At an exact keyframe the authored pose is returned untouched.
	p0 := math.Pose{Translation: k0.Translation, Rotation: k0.Rotation, Scale: k0.Scale}
	if f == 0 {
		return p0
	}
	p1 := math.Pose{Translation: k1.Translation, Rotation: k1.Rotation, Scale: k1.Scale}
	return p0.Lerp(p1, f)
}
