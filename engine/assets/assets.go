package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/marionette/engine/assets/loaders"
	"github.com/spaghettifunk/marionette/engine/containers"
	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/resources"
)

type AssetInfo struct {
	Path       string
	Type       resources.ResourceType
	LastLoaded time.Time
}

// AssetManager indexes the asset directory, loads typed resources through
// registered loaders and watches for on-disk changes. Modified asset
// paths are queued for the engine update loop and announced through
// EVENT_CODE_ASSET_MODIFIED.
type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[resources.ResourceType]loaders.Loader

	mutex sync.RWMutex

	done     chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	modified *containers.RingQueue[string]
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[resources.ResourceType]loaders.Loader),
		fsnotify: fsWatch,
		modified: containers.NewRingQueue[string](64),
		done:     make(chan struct{}),
	}, nil
}

// Initialize indexes the assets directory recursively, registers the
// default loaders and starts the watch goroutine.
func (am *AssetManager) Initialize(assetsDir string) error {
	am.registerLoader(resources.ResourceTypeMesh, &loaders.MeshLoader{})
	am.registerLoader(resources.ResourceTypeSkeleton, &loaders.SkeletonLoader{})
	am.registerLoader(resources.ResourceTypeClip, &loaders.ClipLoader{})
	am.registerLoader(resources.ResourceTypeWeights, &loaders.WeightsLoader{})

	go am.start()

	return am.addRecursive(assetsDir)
}

// Shutdown stops the watcher.
func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	return nil
}

func (am *AssetManager) registerLoader(assetType resources.ResourceType, loader loaders.Loader) {
	am.loaders[assetType] = loader
}

// addRecursive starts watching the named directory and all
// sub-directories, indexing every recognized asset on the way.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	return filepath.Walk(name, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// LoadAsset loads (or reloads) the indexed asset at the given path.
func (am *AssetManager) LoadAsset(path string) (*resources.Resource, error) {
	am.mutex.RLock()
	asset, exists := am.assets[path]
	am.mutex.RUnlock()
	if !exists {
		return nil, fmt.Errorf("asset not found: %s", path)
	}

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %d", asset.Type)
	}

	resource, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	asset.LastLoaded = time.Now()
	am.assets[path] = asset
	am.mutex.Unlock()

	return resource, nil
}

// AssetsOfType lists the indexed paths of the given type, for discovery.
func (am *AssetManager) AssetsOfType(t resources.ResourceType) []string {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	var paths []string
	for path, info := range am.assets {
		if info.Type == t {
			paths = append(paths, path)
		}
	}
	return paths
}

// DrainModified hands queued change notifications to the caller, oldest
// first. Called from the engine update loop.
func (am *AssetManager) DrainModified() []string {
	var paths []string
	for {
		path, err := am.modified.Dequeue()
		if err != nil {
			return paths
		}
		paths = append(paths, path)
	}
}

func (am *AssetManager) start() {
	for {
		select {
		case e := <-am.fsnotify.Events:
			if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					am.fsnotify.Add(e.Name)
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if am.handleFileEvent(e.Name) {
					am.modified.Enqueue(e.Name)
					core.EventFire(core.EVENT_CODE_ASSET_MODIFIED, am, core.EventContext{Name: e.Name})
				}
			}
			if e.Op&fsnotify.Remove != 0 {
				am.removeAsset(e.Name)
				am.fsnotify.Remove(e.Name)
			}

		case err := <-am.fsnotify.Errors:
			if err != nil {
				core.LogError("asset watcher: %s", err.Error())
			}

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// handleFileEvent indexes a created or modified file. Returns false for
// files that are not recognized assets.
func (am *AssetManager) handleFileEvent(path string) bool {
	assetType := determineAssetType(path)
	if assetType == resources.ResourceTypeNone {
		return false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[path] = AssetInfo{
		Path:       path,
		Type:       assetType,
		LastLoaded: time.Time{},
	}
	return true
}

func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, path)
}

func determineAssetType(path string) resources.ResourceType {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(base, ".obj"):
		return resources.ResourceTypeMesh
	case strings.HasSuffix(base, ".skeleton.json"):
		return resources.ResourceTypeSkeleton
	case strings.HasSuffix(base, ".anim.json"):
		return resources.ResourceTypeClip
	case strings.HasSuffix(base, ".weights"):
		return resources.ResourceTypeWeights
	default:
		return resources.ResourceTypeNone
	}
}
