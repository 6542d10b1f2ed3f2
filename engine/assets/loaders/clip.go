package loaders

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spaghettifunk/marionette/engine/animation"
	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/math"
	"github.com/spaghettifunk/marionette/engine/resources"
)

// clipFile is the on-disk clip schema. Rotations may be authored either
// as unit quaternions ("rotation": [x, y, z, w]) or as XYZ euler radians
// ("euler": [rx, ry, rz]); euler angles are converted at load time so the
// pipeline only ever sees quaternions.
type clipFile struct {
	Name      string                     `json:"name"`
	Duration  float32                    `json:"duration"`
	Keyframes map[string][]keyframeEntry `json:"keyframes"`
}

type keyframeEntry struct {
	Time        float32     `json:"time"`
	Translation *[3]float32 `json:"translation,omitempty"`
	Rotation    *[4]float32 `json:"rotation,omitempty"`
	Euler       *[3]float32 `json:"euler,omitempty"`
	Scale       *[3]float32 `json:"scale,omitempty"`
}

// ClipLoader reads an animation clip JSON file.
type ClipLoader struct{}

func (cl *ClipLoader) Load(path string) (*resources.Resource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file clipFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("clip %s: %w", path, err)
	}
	if file.Name == "" {
		return nil, fmt.Errorf("clip %s: missing name: %w", path, core.ErrInvalidConfiguration)
	}

	clip := animation.NewClip(file.Name, file.Duration)
	for bone, entries := range file.Keyframes {
		for _, e := range entries {
			kf := animation.Keyframe{
				Time:        e.Time,
				Translation: math.NewVec3Zero(),
				Rotation:    math.NewQuatIdentity(),
				Scale:       math.NewVec3One(),
			}
			if e.Translation != nil {
				kf.Translation = math.NewVec3(e.Translation[0], e.Translation[1], e.Translation[2])
			}
			switch {
			case e.Rotation != nil:
				kf.Rotation = math.NewQuat(e.Rotation[0], e.Rotation[1], e.Rotation[2], e.Rotation[3]).Normalize()
			case e.Euler != nil:
				kf.Rotation = quatFromEulerXYZ(e.Euler[0], e.Euler[1], e.Euler[2])
			}
			if e.Scale != nil {
				kf.Scale = math.NewVec3(e.Scale[0], e.Scale[1], e.Scale[2])
			}
			if err := clip.AddKeyframe(bone, kf); err != nil {
				return nil, fmt.Errorf("clip %s: %w", path, err)
			}
		}
	}

	core.LogInfo("clip loaded: %s (%q, %.2fs, %d channels)", path, clip.Name, clip.Duration(), len(clip.Channels()))
	return &resources.Resource{
		ID:       uuid.New().String(),
		Name:     clip.Name,
		FullPath: path,
		Type:     resources.ResourceTypeClip,
		Data:     clip,
	}, nil
}

// quatFromEulerXYZ composes intrinsic rotations applied X first, then Y,
// then Z, matching the Rz·Ry·Rx convention of authored euler channels.
func quatFromEulerXYZ(rx, ry, rz float32) math.Quaternion {
	qx := math.NewQuatFromAxisAngle(math.NewVec3(1, 0, 0), rx)
	qy := math.NewQuatFromAxisAngle(math.NewVec3(0, 1, 0), ry)
	qz := math.NewQuatFromAxisAngle(math.NewVec3(0, 0, 1), rz)
	return qz.Mul(qy).Mul(qx).Normalize()
}
