package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const tol = float32(1e-5)

func assertVec3Near(t *testing.T, want, got Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, float64(tol))
	assert.InDelta(t, want.Y, got.Y, float64(tol))
	assert.InDelta(t, want.Z, got.Z, float64(tol))
}

func assertQuatNear(t *testing.T, want, got Quaternion) {
	t.Helper()
	// q and -q represent the same rotation.
	if want.Dot(got) < 0 {
		got = Quaternion{-got.X, -got.Y, -got.Z, -got.W}
	}
	assert.InDelta(t, want.X, got.X, float64(tol))
	assert.InDelta(t, want.Y, got.Y, float64(tol))
	assert.InDelta(t, want.Z, got.Z, float64(tol))
	assert.InDelta(t, want.W, got.W, float64(tol))
}

func TestVec3Basics(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, 5, 6)

	assert.Equal(t, NewVec3(5, 7, 9), a.Add(b))
	assert.Equal(t, NewVec3(-3, -3, -3), a.Sub(b))
	assert.Equal(t, NewVec3(2, 4, 6), a.MulScalar(2))
	assert.InDelta(t, 32.0, float64(a.Dot(b)), float64(tol))
	assert.Equal(t, NewVec3(0, 0, 1), NewVec3(1, 0, 0).Cross(NewVec3(0, 1, 0)))

	assert.InDelta(t, 1.0, float64(NewVec3(3, 4, 0).Normalized().Length()), float64(tol))
	// Zero vector stays zero instead of producing NaNs.
	assert.Equal(t, NewVec3Zero(), NewVec3Zero().Normalized())
}

func TestVec3Lerp(t *testing.T) {
	a := NewVec3(0, 0, 0)
	b := NewVec3(2, 4, 6)
	assert.Equal(t, a, a.Lerp(b, 0))
	assert.Equal(t, b, a.Lerp(b, 1))
	assertVec3Near(t, NewVec3(1, 2, 3), a.Lerp(b, 0.5))
}

func TestMat4MulIdentity(t *testing.T) {
	id := NewMat4Identity()
	m := NewMat4Translation(NewVec3(1, 2, 3))
	assert.Equal(t, m, m.Mul(id))
	assert.Equal(t, m, id.Mul(m))
}

func TestMat4TranslationAndScale(t *testing.T) {
	v := NewVec3(1, 1, 1)
	assertVec3Near(t, NewVec3(3, 4, 5), v.Transform(NewMat4Translation(NewVec3(2, 3, 4))))
	assertVec3Near(t, NewVec3(2, 3, 4), v.Transform(NewMat4Scale(NewVec3(2, 3, 4))))
	// Directions ignore translation.
	assertVec3Near(t, v, v.TransformDirection(NewMat4Translation(NewVec3(2, 3, 4))))
}

func TestMat4Inverse(t *testing.T) {
	rot := NewQuatFromAxisAngle(NewVec3(0, 0, 1), DegToRad(37)).ToMat4()
	m := NewMat4Scale(NewVec3(2, 2, 2)).Mul(rot.Mul(NewMat4Translation(NewVec3(5, -3, 1))))

	round := m.Mul(m.Inverse())
	id := NewMat4Identity()
	for i := range round.Data {
		assert.InDelta(t, float64(id.Data[i]), float64(round.Data[i]), float64(tol))
	}
}

func TestMat4InverseSingular(t *testing.T) {
	assert.Equal(t, NewMat4Identity(), Mat4{}.Inverse())
}

func TestQuatToMat4RotatesAboutZ(t *testing.T) {
	q := NewQuatFromAxisAngle(NewVec3(0, 0, 1), DegToRad(90))
	m := q.ToMat4()
	assertVec3Near(t, NewVec3(0, 1, 0), NewVec3(1, 0, 0).Transform(m))
	assertVec3Near(t, NewVec3(-1, 0, 0), NewVec3(0, 1, 0).Transform(m))
}

func TestQuatMulComposes(t *testing.T) {
	qz := NewQuatFromAxisAngle(NewVec3(0, 0, 1), DegToRad(90))
	qy := NewQuatFromAxisAngle(NewVec3(0, 1, 0), DegToRad(90))

	// Applying qz then qy matches transforming by the matrices in sequence.
	composed := qy.Mul(qz).ToMat4()
	sequential := NewVec3(1, 0, 0).Transform(qz.ToMat4()).Transform(qy.ToMat4())
	assertVec3Near(t, sequential, NewVec3(1, 0, 0).Transform(composed))
}

func TestQuatNormalizeDegenerate(t *testing.T) {
	assert.Equal(t, NewQuatIdentity(), Quaternion{}.Normalize())
}

func TestSlerpEndpoints(t *testing.T) {
	q0 := NewQuatFromAxisAngle(NewVec3(0, 0, 1), DegToRad(10))
	q1 := NewQuatFromAxisAngle(NewVec3(0, 0, 1), DegToRad(170))

	assertQuatNear(t, q0, q0.Slerp(q1, 0))
	assertQuatNear(t, q1, q0.Slerp(q1, 1))
}

func TestSlerpHalfway(t *testing.T) {
	q0 := NewQuatIdentity()
	q1 := NewQuatFromAxisAngle(NewVec3(0, 0, 1), DegToRad(90))

	half := q0.Slerp(q1, 0.5)
	want := NewQuatFromAxisAngle(NewVec3(0, 0, 1), DegToRad(45))
	assertQuatNear(t, want, half)
	assert.InDelta(t, 1.0, float64(half.Normal()), float64(tol))
}

func TestSlerpShortestArc(t *testing.T) {
	q0 := NewQuatFromAxisAngle(NewVec3(0, 0, 1), DegToRad(10))
	// Same rotation family, opposite hemisphere representation.
	q1 := NewQuatFromAxisAngle(NewVec3(0, 0, 1), DegToRad(350))

	// The shortest arc between 10 and 350 degrees passes through 0, not 180.
	mid := q0.Slerp(q1, 0.5)
	want := NewQuatIdentity()
	assertQuatNear(t, want, mid)
}

func TestSlerpNearlyIdenticalInputs(t *testing.T) {
	q0 := NewQuatFromAxisAngle(NewVec3(0, 1, 0), DegToRad(30))
	q1 := NewQuatFromAxisAngle(NewVec3(0, 1, 0), DegToRad(30.001))

	out := q0.Slerp(q1, 0.5)
	assert.InDelta(t, 1.0, float64(out.Normal()), float64(tol))
	assertQuatNear(t, q0, out)
}

func TestDegRadRoundTrip(t *testing.T) {
	assert.InDelta(t, 90.0, float64(RadToDeg(DegToRad(90))), float64(tol))
	assert.InDelta(t, float64(K_PI), float64(DegToRad(180)), float64(tol))
}
