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

	"github.com/spaghettifunk/anima-bind/engine/assets/loaders"
	"github.com/spaghettifunk/anima-bind/engine/core"
	"github.com/spaghettifunk/anima-bind/engine/renderer/metadata"
)

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

/**
 * @brief Sent when a watched asset is created, modified or removed.
 */
type AssetEvent struct {
	Asset   AssetInfo
	Removed bool
}

type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	wg       sync.WaitGroup
	fsnotify *fsnotify.Watcher
	isClosed bool
	events   chan AssetEvent
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		fsnotify: fsWatch,
		events:   make(chan AssetEvent, 16),
		done:     make(chan struct{}),
	}, nil
}

// Initialize registers the loaders and starts watching assetsDir and its sub-directories.
func (am *AssetManager) Initialize(assetsDir string, cfg *core.Config) error {
	// Register loaders
	am.registerLoader(metadata.ResourceTypePipelineLayout, &loaders.PipelineLayoutLoader{Config: cfg})
	am.registerLoader(metadata.ResourceTypeConfig, &loaders.ConfigLoader{})

	am.wg.Add(1)
	go am.start()

	return am.addRecursive(assetsDir)
}

// Events delivers changes to watched assets. It is closed by Close.
func (am *AssetManager) Events() <-chan AssetEvent {
	return am.events
}

// Close stops watching.
func (am *AssetManager) Close() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	am.wg.Wait()
	return am.fsnotify.Close()
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.closed() {
		return errors.New("asset manager already closed")
	}
	return am.watchRecursive(name, false)
}

// Unwatch stops watching the named directory and all sub-directories.
func (am *AssetManager) Unwatch(name string) error {
	return am.watchRecursive(name, true)
}

func (am *AssetManager) closed() bool {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return am.isClosed
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// Asset returns what is known about a watched file.
func (am *AssetManager) Asset(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	asset, ok := am.assets[filepath.Clean(path)]
	return asset, ok
}

// LoadAsset loads a watched asset using the loader registered for its type.
func (am *AssetManager) LoadAsset(path string, params interface{}) (*metadata.Resource, error) {
	path = filepath.Clean(path)

	am.mutex.Lock()
	asset, exists := am.assets[path]
	if exists {
		// Load or reload asset from disk
		asset.LastLoaded = time.Now()
		am.assets[path] = asset
	}
	am.mutex.Unlock()
	if !exists {
		return nil, fmt.Errorf("asset not found: %s", path)
	}

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}

	return loader.Load(path, asset.Type, params)
}

func (am *AssetManager) UnloadAsset(asset *metadata.Resource) error {
	loader, ok := am.loaders[asset.Type]
	if !ok {
		return fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	return loader.Unload(asset)
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	defer close(am.events)

	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, false); err != nil {
						core.LogError(err.Error())
					}
				}
				continue
			}

			var ev AssetEvent
			var known bool
			switch {
			case e.Op&(fsnotify.Create|fsnotify.Write) != 0:
				ev.Asset, known = am.handleFileEvent(e.Name)
			case e.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// Can't stat a deleted path, so it may have been a directory as well.
				ev.Asset, known = am.removeAsset(e.Name)
				ev.Removed = true
				_ = am.fsnotify.Remove(e.Name)
			}
			if !known {
				continue
			}
			select {
			case am.events <- ev:
			case <-am.done:
				return
			}

		case e, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(e.Error())

		case <-am.done:
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list, and
// indexes the assets found along the way.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		if !unWatch {
			am.handleFileEvent(walkPath)
		}
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (AssetInfo, bool) {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return AssetInfo{}, false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()

	path = filepath.Clean(path)
	asset := AssetInfo{
		Path: path,
		Type: assetType,
	}
	if prev, ok := am.assets[path]; ok {
		asset.LastLoaded = prev.LastLoaded
	}
	am.assets[path] = asset
	return asset, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) (AssetInfo, bool) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	path = filepath.Clean(path)
	asset, ok := am.assets[path]
	delete(am.assets, path)
	return asset, ok
}

func determineAssetType(path string) metadata.ResourceType {
	name := filepath.Base(path)
	switch {
	case strings.HasSuffix(name, ".layout.toml"):
		return metadata.ResourceTypePipelineLayout
	case strings.HasSuffix(name, ".config.toml"):
		return metadata.ResourceTypeConfig
	default:
		return metadata.ResourceTypeNone
	}
}
