package loaders

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/resources"
	"github.com/spaghettifunk/marionette/engine/skinning"
)

// WeightsLoader reads a precomputed weight-record sidecar. Key matching
// against the current mesh/skeleton/parameters happens in the engine; the
// loader only decodes the blob.
type WeightsLoader struct{}

func (wl *WeightsLoader) Load(path string) (*resources.Resource, error) {
	records, key, err := skinning.LoadCache(path)
	if err != nil {
		return nil, err
	}

	core.LogInfo("weight cache loaded: %s (%d vertices)", path, len(records))
	return &resources.Resource{
		ID:       uuid.New().String(),
		Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		FullPath: path,
		Type:     resources.ResourceTypeWeights,
		Data: &skinning.CachedWeights{
			Records: records,
			Key:     key,
		},
	}, nil
}
