package skeleton

import (
	"fmt"

	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/math"
)

// PoseSource supplies an animated local pose per bone at a given time. The
// animated pose applies on top of the bone's rest transform, so an identity
// pose leaves the bone at its bind position. The second return value reports
// whether the source animates that bone at all; bones without a channel stay
// in their rest pose.
type PoseSource interface {
	LocalPose(boneIndex int, time float32) (math.Pose, bool)
}

// Pose holds the transient per-frame output of pose evaluation. It is
// owned solely by the evaluation call that produced it.
type Pose struct {
	// World maps bone index to the bone's world matrix at the sampled time.
	World []math.Mat4
	// Skin maps bone index to world * inverse(worldBind): the matrix that
	// carries rest-pose geometry into the animated pose.
	Skin []math.Mat4
}

// EvaluatePose samples the source at the given time and composes world and
// skinning matrices for every bone, in parent-before-child order. A nil
// source yields the bind pose. Negative times are rejected.
func (s *Skeleton) EvaluatePose(source PoseSource, time float32) (*Pose, error) {
	if time < 0 {
		return nil, fmt.Errorf("pose time %f: %w", time, core.ErrInvalidConfiguration)
	}

	pose := &Pose{
		World: make([]math.Mat4, len(s.bones)),
		Skin:  make([]math.Mat4, len(s.bones)),
	}

	for _, i := range s.order {
		// Animated channels compose with the rest transform rather than
		// replace it: the keyframe moves the bone relative to its bind
		// position, so a rotation-only channel keeps the bone offsets intact.
		localMatrix := s.RestPose(i).Matrix()
		if source != nil {
			if animated, ok := source.LocalPose(i, time); ok {
				localMatrix = animated.Matrix().Mul(localMatrix)
			}
		}
		if parent := s.bones[i].Parent; parent == RootParent {
			pose.World[i] = localMatrix
		} else {
			pose.World[i] = localMatrix.Mul(pose.World[parent])
		}
		pose.Skin[i] = s.bindInverse[i].Mul(pose.World[i])
	}

	return pose, nil
}

// BindPose returns the pose with every bone in its rest transform. All
// skinning matrices are identity.
func (s *Skeleton) BindPose() *Pose {
	pose, _ := s.EvaluatePose(nil, 0)
	return pose
}
