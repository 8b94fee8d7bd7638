package loaders

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/anima-bind/engine/core"
	"github.com/spaghettifunk/anima-bind/engine/renderer/descriptors"
	"github.com/spaghettifunk/anima-bind/engine/renderer/metadata"
)

/**
 * @brief One binding of a set in a layout description file.
 */
type BindingConfig struct {
	Binding uint32 `toml:"binding"`
	/** @brief Descriptor type name, e.g. uniform_buffer or combined_image_sampler. */
	Type string `toml:"type"`
	/** @brief Array length, or byte size for inline_uniform_block. */
	Count uint32 `toml:"count"`
	/** @brief Stage names, e.g. vertex, fragment, compute, all_graphics. */
	Stages            []string `toml:"stages"`
	ImmutableSamplers []uint64 `toml:"immutable_samplers"`
}

type SetLayoutConfig struct {
	PushDescriptor bool            `toml:"push_descriptor"`
	Bindings       []BindingConfig `toml:"bindings"`
}

/**
 * @brief A pipeline layout description, as read from a .layout.toml file.
 */
type PipelineLayoutConfig struct {
	Name               string            `toml:"name"`
	PushConstantStages []string          `toml:"push_constant_stages"`
	Sets               []SetLayoutConfig `toml:"sets"`
}

func ParsePipelineLayoutConfig(data []byte) (*PipelineLayoutConfig, error) {
	var c PipelineLayoutConfig
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		err = fmt.Errorf("unable to decode pipeline layout: %w", err)
		core.LogError(err.Error())
		return nil, err
	}
	return &c, nil
}

func (b *BindingConfig) layoutBindingInfo() (descriptors.LayoutBindingInfo, error) {
	dt, err := metadata.DescriptorTypeFromString(b.Type)
	if err != nil {
		return descriptors.LayoutBindingInfo{}, fmt.Errorf("%w: binding %d: %s", core.ErrInvalidBinding, b.Binding, err)
	}
	stages, err := metadata.ShaderStageFlagsFromStrings(b.Stages)
	if err != nil {
		return descriptors.LayoutBindingInfo{}, fmt.Errorf("%w: binding %d: %s", core.ErrInvalidBinding, b.Binding, err)
	}
	info := descriptors.LayoutBindingInfo{
		Binding:         b.Binding,
		DescriptorType:  dt,
		DescriptorCount: b.Count,
		StageFlags:      stages,
	}
	for _, s := range b.ImmutableSamplers {
		info.ImmutableSamplers = append(info.ImmutableSamplers, metadata.SamplerHandle(s))
	}
	return info, nil
}

// Build creates the set layouts and the pipeline layout the description declares.
func (c *PipelineLayoutConfig) Build(cfg *core.Config) (*descriptors.PipelineLayout, error) {
	pushStages, err := metadata.ShaderStageFlagsFromStrings(c.PushConstantStages)
	if err != nil {
		err = fmt.Errorf("%w: push constants: %s", core.ErrInvalidBinding, err)
		core.LogError(err.Error())
		return nil, err
	}

	setLayouts := make([]*descriptors.DescriptorSetLayout, 0, len(c.Sets))
	for i, s := range c.Sets {
		info := descriptors.DescriptorSetLayoutInfo{PushDescriptor: s.PushDescriptor}
		for _, b := range s.Bindings {
			bi, err := b.layoutBindingInfo()
			if err != nil {
				err = fmt.Errorf("set %d: %w", i, err)
				core.LogError(err.Error())
				return nil, err
			}
			info.Bindings = append(info.Bindings, bi)
		}
		sl, err := descriptors.NewDescriptorSetLayout(info, cfg)
		if err != nil {
			return nil, fmt.Errorf("set %d: %w", i, err)
		}
		setLayouts = append(setLayouts, sl)
	}

	return descriptors.NewPipelineLayout(descriptors.PipelineLayoutInfo{
		SetLayouts:         setLayouts,
		PushConstantStages: pushStages,
	}, cfg)
}

// LoadPipelineLayout reads and builds a layout description file.
func LoadPipelineLayout(path string, cfg *core.Config) (*PipelineLayoutConfig, *descriptors.PipelineLayout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	c, err := ParsePipelineLayoutConfig(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	pl, err := c.Build(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), ".layout.toml")
	}
	return c, pl, nil
}

/**
 * @brief A built pipeline layout together with its description.
 */
type LoadedPipelineLayout struct {
	Config *PipelineLayoutConfig
	Layout *descriptors.PipelineLayout
}

type PipelineLayoutLoader struct {
	Config *core.Config
}

// Load builds the layout at path. params may carry a *core.Config overriding the loader's.
func (l *PipelineLayoutLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	cfg := l.Config
	if override, ok := params.(*core.Config); ok && override != nil {
		cfg = override
	}
	if cfg == nil {
		cfg = core.DefaultConfig()
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	c, pl, err := LoadPipelineLayout(path, cfg)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Type:     assetType,
		Name:     c.Name,
		FullPath: path,
		DataSize: uint64(fi.Size()),
		Data:     &LoadedPipelineLayout{Config: c, Layout: pl},
	}, nil
}

func (l *PipelineLayoutLoader) Unload(*metadata.Resource) error {
	return nil
}
