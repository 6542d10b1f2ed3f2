package math

// Pose is a decomposed local transform: the unit carried by keyframes and
// by bone rest transforms.
type Pose struct {
	Translation Vec3
	Rotation    Quaternion
	Scale       Vec3
}

// NewPoseIdentity returns a pose that leaves geometry untouched.
func NewPoseIdentity() Pose {
	return Pose{
		Translation: NewVec3Zero(),
		Rotation:    NewQuatIdentity(),
		Scale:       NewVec3One(),
	}
}

// Matrix composes the pose into a local matrix. With row-vector
// convention the scale applies first, then rotation, then translation:
// v' = v * S * R * T.
func (p Pose) Matrix() Mat4 {
	tr := p.Rotation.ToMat4().Mul(NewMat4Translation(p.Translation))
	return NewMat4Scale(p.Scale).Mul(tr)
}

// Lerp interpolates translation and scale linearly and the rotation by
// shortest-arc slerp.
func (p Pose) Lerp(other Pose, f float32) Pose {
	return Pose{
		Translation: p.Translation.Lerp(other.Translation, f),
		Rotation:    p.Rotation.Slerp(other.Rotation, f),
		Scale:       p.Scale.Lerp(other.Scale, f),
	}
}
