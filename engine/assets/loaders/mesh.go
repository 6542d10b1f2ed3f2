package loaders

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/math"
	"github.com/spaghettifunk/marionette/engine/resources"
)

// MeshLoader parses Wavefront OBJ files into rest-pose meshes. Vertex
// positions (v), texture coordinates (vt), normals (vn) and faces (f) are
// supported; polygonal faces are fan-triangulated and missing normals are
// computed from the topology.
type MeshLoader struct{}

func (ml *MeshLoader) Load(path string) (*resources.Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mesh, err := parseOBJ(f, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if err != nil {
		return nil, fmt.Errorf("mesh %s: %w", path, err)
	}

	core.LogInfo("mesh loaded: %s (%d vertices, %d triangles)", path, mesh.VertexCount(), mesh.TriangleCount())
	return &resources.Resource{
		ID:       uuid.New().String(),
		Name:     mesh.Name,
		FullPath: path,
		Type:     resources.ResourceTypeMesh,
		Data:     mesh,
	}, nil
}

// objIndex is the v/vt/vn triple of one face corner, normalized to
// zero-based indices (-1 for absent components).
type objIndex struct {
	v, vt, vn int
}

func parseOBJ(f *os.File, name string) (*resources.Mesh, error) {
	var positions []math.Vec3
	var texcoords []math.Vec2
	var normals []math.Vec3

	mesh := &resources.Mesh{Name: name}
	// Each distinct v/vt/vn corner becomes one output vertex.
	corners := make(map[objIndex]uint32)
	hadNormals := false

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v":
			p, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			positions = append(positions, math.NewVec3(p[0], p[1], p[2]))
		case "vt":
			p, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			texcoords = append(texcoords, math.Vec2{X: p[0], Y: p[1]})
		case "vn":
			p, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			normals = append(normals, math.NewVec3(p[0], p[1], p[2]))
			hadNormals = true
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face with %d corners", lineNo, len(fields)-1)
			}
			face := make([]uint32, 0, len(fields)-1)
			for _, corner := range fields[1:] {
				idx, err := parseCorner(corner, len(positions), len(texcoords), len(normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				vi, seen := corners[idx]
				if !seen {
					vertex := math.Vertex3D{Position: positions[idx.v]}
					if idx.vt >= 0 {
						vertex.Texcoord = texcoords[idx.vt]
					}
					if idx.vn >= 0 {
						vertex.Normal = normals[idx.vn]
					}
					vi = uint32(len(mesh.Vertices))
					mesh.Vertices = append(mesh.Vertices, vertex)
					corners[idx] = vi
				}
				face = append(face, vi)
			}
			// Fan triangulation for quads and larger polygons.
			for i := 1; i+1 < len(face); i++ {
				mesh.Indices = append(mesh.Indices, face[0], face[i], face[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(mesh.Vertices) == 0 {
		return nil, fmt.Errorf("no vertices")
	}

	if !hadNormals {
		math.GeometryGenerateNormals(mesh.Vertices, mesh.Indices)
	}
	return mesh, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d components, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(v)
	}
	return out, nil
}

// parseCorner decodes an OBJ face corner (v, v/vt, v//vn or v/vt/vn) with
// one-based and negative (relative) indices.
func parseCorner(s string, nv, nvt, nvn int) (objIndex, error) {
	out := objIndex{v: -1, vt: -1, vn: -1}
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return out, fmt.Errorf("malformed face corner %q", s)
	}

	resolve := func(raw string, count int) (int, error) {
		i, err := strconv.Atoi(raw)
		if err != nil {
			return -1, err
		}
		if i < 0 {
			i = count + i
		} else {
			i--
		}
		if i < 0 || i >= count {
			return -1, fmt.Errorf("index %q out of range", raw)
		}
		return i, nil
	}

	var err error
	if out.v, err = resolve(parts[0], nv); err != nil {
		return out, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if out.vt, err = resolve(parts[1], nvt); err != nil {
			return out, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if out.vn, err = resolve(parts[2], nvn); err != nil {
			return out, err
		}
	}
	return out, nil
}
