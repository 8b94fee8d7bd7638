package loaders

import (
	"os"
	"path/filepath"

	"github.com/spaghettifunk/anima-bind/engine/core"
	"github.com/spaghettifunk/anima-bind/engine/renderer/metadata"
)

type ConfigLoader struct{}

func (cl *ConfigLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := core.ParseConfig(data)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Type:     assetType,
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     cfg,
	}, nil
}

func (cl *ConfigLoader) Unload(*metadata.Resource) error {
	return nil
}
