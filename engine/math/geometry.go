package math

// DistanceToSegment computes the shortest distance between a point and the
// segment [segStart, segEnd]. A degenerate segment (coincident endpoints)
// falls back to the distance to segStart.
func DistanceToSegment(point, segStart, segEnd Vec3) float32 {
	return point.Distance(ClosestPointOnSegment(point, segStart, segEnd))
}

// ClosestPointOnSegment returns the point on the segment [segStart, segEnd]
// nearest to the given point.
func ClosestPointOnSegment(point, segStart, segEnd Vec3) Vec3 {
	ab := segEnd.Sub(segStart)
	ap := point.Sub(segStart)

	abSquared := ab.Dot(ab)
	if abSquared < 1e-10 {
		return segStart
	}

	t := Clamp(ap.Dot(ab)/abSquared, 0.0, 1.0)
	return segStart.Add(ab.MulScalar(t))
}

// GeometryGenerateNormals computes smooth per-vertex normals by
// accumulating area-weighted face normals over the index buffer and
// normalizing the result. Existing normals are overwritten.
func GeometryGenerateNormals(vertices []Vertex3D, indices []uint32) {
	for i := range vertices {
		vertices[i].Normal = NewVec3Zero()
	}

	for i := 0; i+2 < len(indices); i += 3 {
		i0 := indices[i+0]
		i1 := indices[i+1]
		i2 := indices[i+2]

		edge1 := vertices[i1].Position.Sub(vertices[i0].Position)
		edge2 := vertices[i2].Position.Sub(vertices[i0].Position)

		// Cross product length is proportional to the triangle area, so
		// skipping normalization here weights large faces more heavily.
		faceNormal := edge1.Cross(edge2)

		vertices[i0].Normal = vertices[i0].Normal.Add(faceNormal)
		vertices[i1].Normal = vertices[i1].Normal.Add(faceNormal)
		vertices[i2].Normal = vertices[i2].Normal.Add(faceNormal)
	}

	for i := range vertices {
		vertices[i].Normal = vertices[i].Normal.Normalized()
	}
}

// GeometryExtents returns the axis-aligned bounding box of the vertex
// positions.
func GeometryExtents(vertices []Vertex3D) Extents3D {
	if len(vertices) == 0 {
		return Extents3D{}
	}
	out := Extents3D{Min: vertices[0].Position, Max: vertices[0].Position}
	for _, v := range vertices[1:] {
		p := v.Position
		if p.X < out.Min.X {
			out.Min.X = p.X
		}
		if p.Y < out.Min.Y {
			out.Min.Y = p.Y
		}
		if p.Z < out.Min.Z {
			out.Min.Z = p.Z
		}
		if p.X > out.Max.X {
			out.Max.X = p.X
		}
		if p.Y > out.Max.Y {
			out.Max.Y = p.Y
		}
		if p.Z > out.Max.Z {
			out.Max.Z = p.Z
		}
	}
	return out
}
