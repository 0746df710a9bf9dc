package systems

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spaghettifunk/fbtex/engine/core"
	"github.com/spaghettifunk/fbtex/engine/resources"
	"github.com/spaghettifunk/fbtex/engine/resources/loaders"
)

/** @brief The configuration for the resource system */
type ResourceSystemConfig struct {
	/** @brief The maximum number of loaders that can be registered with this system. */
	MaxLoaderCount uint32
	/** @brief The relative base path for assets. */
	AssetBasePath string
}

type ResourceSystem struct {
	Config            ResourceSystemConfig
	RegisteredLoaders []loaders.ResourceLoader

	mu sync.RWMutex
}

func NewResourceSystem(config ResourceSystemConfig) (*ResourceSystem, error) {
	if config.MaxLoaderCount == 0 {
		return nil, fmt.Errorf("failed to run NewResourceSystem because config.MaxLoaderCount==0")
	}

	rs := &ResourceSystem{
		Config:            config,
		RegisteredLoaders: make([]loaders.ResourceLoader, config.MaxLoaderCount),
	}
	// Invalidate all loaders
	for i := range rs.RegisteredLoaders {
		rs.RegisteredLoaders[i].ID = loaders.InvalidID
	}

	core.LogDebug("Resource system initialized with base path '%s'.", config.AssetBasePath)

	return rs, nil
}

// NewTextureResourceSystem returns a resource system with the image and
// binary loaders already registered.
func NewTextureResourceSystem(basePath string) (*ResourceSystem, error) {
	rs, err := NewResourceSystem(ResourceSystemConfig{MaxLoaderCount: 4, AssetBasePath: basePath})
	if err != nil {
		return nil, err
	}
	if err := rs.RegisterLoader(loaders.ResourceLoader{
		ResourceType:            resources.ResourceTypeImage,
		ResourceLoaderInterface: &loaders.ImageLoader{},
	}); err != nil {
		return nil, err
	}
	if err := rs.RegisterLoader(loaders.ResourceLoader{
		ResourceType:            resources.ResourceTypeBinary,
		ResourceLoaderInterface: &loaders.BinaryLoader{},
	}); err != nil {
		return nil, err
	}
	return rs, nil
}

func (rs *ResourceSystem) RegisterLoader(loader loaders.ResourceLoader) error {
	if loader.ResourceLoaderInterface == nil {
		return fmt.Errorf("resource system: loader for type %s has no implementation", loader.ResourceType)
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	// Ensure no loaders for the given type already exist
	for _, l := range rs.RegisteredLoaders {
		if l.ID == loaders.InvalidID {
			continue
		}
		if loader.ResourceType != resources.ResourceTypeCustom && l.ResourceType == loader.ResourceType {
			return fmt.Errorf("resource system: loader of type %s already exists", loader.ResourceType)
		}
		if len(loader.CustomType) > 0 && l.CustomType == loader.CustomType {
			return fmt.Errorf("resource system: loader of custom type %s already exists", loader.CustomType)
		}
	}
	for i := range rs.RegisteredLoaders {
		if rs.RegisteredLoaders[i].ID == loaders.InvalidID {
			rs.RegisteredLoaders[i] = loader
			rs.RegisteredLoaders[i].ID = uint32(i)
			core.LogDebug("Loader registered for type %s.", loader.ResourceType)
			return nil
		}
	}

	return fmt.Errorf("resource system: all %d loader slots are taken", rs.Config.MaxLoaderCount)
}

// Load resolves name against the base path and the loader's type path, then
// hands it to the loader registered for resourceType.
func (rs *ResourceSystem) Load(name string, resourceType resources.ResourceType, params interface{}) (*resources.Resource, error) {
	rs.mu.RLock()
	var loader *loaders.ResourceLoader
	for i := range rs.RegisteredLoaders {
		l := &rs.RegisteredLoaders[i]
		if l.ID != loaders.InvalidID && l.ResourceType == resourceType {
			loader = l
			break
		}
	}
	rs.mu.RUnlock()

	if loader == nil {
		return nil, fmt.Errorf("resource system: no loader for type %s was found", resourceType)
	}
	return rs.load(name, loader, params)
}

func (rs *ResourceSystem) LoadCustom(name, customType string, params interface{}) (*resources.Resource, error) {
	rs.mu.RLock()
	var loader *loaders.ResourceLoader
	for i := range rs.RegisteredLoaders {
		l := &rs.RegisteredLoaders[i]
		if l.ID != loaders.InvalidID && l.ResourceType == resources.ResourceTypeCustom && l.CustomType == customType {
			loader = l
			break
		}
	}
	rs.mu.RUnlock()

	if loader == nil {
		return nil, fmt.Errorf("resource system: no loader for custom type %s was found", customType)
	}
	return rs.load(name, loader, params)
}

func (rs *ResourceSystem) Unload(resource *resources.Resource) error {
	if resource == nil || resource.LoaderID == loaders.InvalidID {
		return nil
	}
	if resource.LoaderID >= uint32(len(rs.RegisteredLoaders)) {
		return fmt.Errorf("resource system: loader id %d out of range", resource.LoaderID)
	}

	rs.mu.RLock()
	l := rs.RegisteredLoaders[resource.LoaderID]
	rs.mu.RUnlock()

	if l.ID == loaders.InvalidID {
		return nil
	}
	if err := l.Unload(resource); err != nil {
		return err
	}
	resource.LoaderID = loaders.InvalidID
	return nil
}

func (rs *ResourceSystem) resolve(name string, loader *loaders.ResourceLoader) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(rs.Config.AssetBasePath, loader.TypePath, name)
}

func (rs *ResourceSystem) load(name string, loader *loaders.ResourceLoader, params interface{}) (*resources.Resource, error) {
	res, err := loader.Load(rs.resolve(name, loader), params)
	if err != nil {
		return nil, err
	}
	res.LoaderID = loader.ID
	return res, nil
}
