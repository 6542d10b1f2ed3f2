package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

// Quaternion is used to represent rotational orientation. Only unit
// quaternions are valid rotations.
type Quaternion Vec4

// Mat4 is a 4x4 matrix stored flat, row-vector convention: points
// transform as v' = v * M, translation lives in Data[12..14], and
// composed transforms apply left to right. The world matrix of a child
// bone is therefore child.Local.Mul(parentWorld).
type Mat4 struct {
	Data [16]float32
}

// Extents3D represents the axis-aligned extents of a 3d object.
type Extents3D struct {
	Min Vec3
	Max Vec3
}

// Vertex3D represents a single rest-pose mesh vertex.
type Vertex3D struct {
	Position Vec3
	Normal   Vec3
	Texcoord Vec2
}
