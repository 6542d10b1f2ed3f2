package loaders

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/math"
	"github.com/spaghettifunk/marionette/engine/resources"
	"github.com/spaghettifunk/marionette/engine/skeleton"
)

// skeletonFile is the on-disk schema: joints authored in world space with
// head/tail positions and an optional parent name, bind rotations
// identity. Local rest translations are derived from the parent offsets.
type skeletonFile struct {
	Joints []jointEntry `json:"joints"`
}

type jointEntry struct {
	Name   string     `json:"name"`
	Parent string     `json:"parent,omitempty"`
	Head   [3]float32 `json:"head"`
	Tail   [3]float32 `json:"tail"`
}

// SkeletonLoader reads a skeleton JSON file and builds the validated bone
// arena. An unresolvable parent name fails with core.ErrDanglingParent.
type SkeletonLoader struct{}

func (sl *SkeletonLoader) Load(path string) (*resources.Resource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file skeletonFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("skeleton %s: %w", path, err)
	}
	if len(file.Joints) == 0 {
		return nil, fmt.Errorf("skeleton %s: no joints: %w", path, core.ErrInvalidConfiguration)
	}

	byName := make(map[string]int, len(file.Joints))
	for i, j := range file.Joints {
		byName[j.Name] = i
	}

	bones := make([]skeleton.Bone, len(file.Joints))
	for i, j := range file.Joints {
		head := math.NewVec3(j.Head[0], j.Head[1], j.Head[2])
		tail := math.NewVec3(j.Tail[0], j.Tail[1], j.Tail[2])

		parent := skeleton.RootParent
		position := head
		if j.Parent != "" {
			p, ok := byName[j.Parent]
			if !ok {
				return nil, fmt.Errorf("skeleton %s: joint %q parent %q: %w", path, j.Name, j.Parent, core.ErrDanglingParent)
			}
			parent = p
			parentHead := math.NewVec3(file.Joints[p].Head[0], file.Joints[p].Head[1], file.Joints[p].Head[2])
			position = head.Sub(parentHead)
		}

		bones[i] = skeleton.Bone{
			Name:     j.Name,
			Parent:   parent,
			Position: position,
			Rotation: math.NewQuatIdentity(),
			Tail:     tail.Sub(head),
		}
	}

	skel, err := skeleton.New(bones)
	if err != nil {
		return nil, fmt.Errorf("skeleton %s: %w", path, err)
	}

	core.LogInfo("skeleton loaded: %s (%d bones)", path, skel.BoneCount())
	return &resources.Resource{
		ID:       uuid.New().String(),
		Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		FullPath: path,
		Type:     resources.ResourceTypeSkeleton,
		Data:     skel,
	}, nil
}
