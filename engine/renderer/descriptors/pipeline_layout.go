package descriptors

import (
	"fmt"

	"github.com/spaghettifunk/anima-bind/engine/core"
	"github.com/spaghettifunk/anima-bind/engine/renderer/metadata"
)

/**
 * @brief Input describing a pipeline layout.
 */
type PipelineLayoutInfo struct {
	/** @brief Set layouts, indexed by set number. */
	SetLayouts []*DescriptorSetLayout
	/** @brief Stages that read push constants. Each gets one buffer index after all sets. */
	PushConstantStages metadata.ShaderStageFlags
}

/**
 * @brief A pipeline layout: the set layouts placed one after another in every
 * stage's index spaces, followed by the push-constant buffer.
 */
type PipelineLayout struct {
	setLayouts              []*DescriptorSetLayout
	setResourceIndexOffsets []StageIndexTable
	pushConstantIndexes     StageIndexTable
	pushConstantStages      metadata.ShaderStageFlags
	resourceCounts          StageIndexTable
	dynamicOffsetCount      uint32
}

func NewPipelineLayout(info PipelineLayoutInfo, cfg *core.Config) (*PipelineLayout, error) {
	pl := &PipelineLayout{
		setLayouts:              make([]*DescriptorSetLayout, len(info.SetLayouts)),
		setResourceIndexOffsets: make([]StageIndexTable, len(info.SetLayouts)),
		pushConstantStages:      info.PushConstantStages,
	}

	pushLayouts := 0
	var accumulated StageIndexTable
	for i, sl := range info.SetLayouts {
		if sl == nil {
			err := fmt.Errorf("%w: pipeline layout set %d has no layout", core.ErrInvalidBinding, i)
			core.LogError(err.Error())
			return nil, err
		}
		if sl.IsPushDescriptorLayout() {
			pushLayouts++
			if pushLayouts > 1 {
				err := fmt.Errorf("%w: set %d is a second push descriptor layout", core.ErrInvalidBinding, i)
				core.LogError(err.Error())
				return nil, err
			}
			if err := sl.checkPushEligibility(cfg.Limits); err != nil {
				core.LogError(err.Error())
				return nil, err
			}
		}

		pl.setLayouts[i] = sl.clone()
		pl.setResourceIndexOffsets[i] = accumulated
		accumulated = accumulated.Add(sl.ResourceCounts())
		pl.dynamicOffsetCount += sl.DynamicOffsetCount()
	}

	for _, stage := range metadata.ShaderStages() {
		if info.PushConstantStages.Has(stage) {
			pl.pushConstantIndexes.Stages[stage] = accumulated.Stages[stage]
			accumulated.Stages[stage].BufferIndex++
		}
	}
	pl.resourceCounts = accumulated

	core.LogDebug("pipeline layout: %d sets, max indexes buffer=%d texture=%d sampler=%d",
		len(pl.setLayouts), accumulated.MaxBufferIndex(), accumulated.MaxTextureIndex(), accumulated.MaxSamplerIndex())
	return pl, nil
}

func (pl *PipelineLayout) SetCount() int { return len(pl.setLayouts) }

// SetLayout returns the layout of set index, or nil.
func (pl *PipelineLayout) SetLayout(index uint32) *DescriptorSetLayout {
	if int(index) >= len(pl.setLayouts) {
		return nil
	}
	return pl.setLayouts[index]
}

// SetResourceIndexOffsets returns where set index starts in every stage.
func (pl *PipelineLayout) SetResourceIndexOffsets(index uint32) StageIndexTable {
	if int(index) >= len(pl.setResourceIndexOffsets) {
		return StageIndexTable{}
	}
	return pl.setResourceIndexOffsets[index]
}

// ResourceCounts returns the indexes consumed by all sets and push constants.
func (pl *PipelineLayout) ResourceCounts() StageIndexTable { return pl.resourceCounts }

// PushConstantIndexes returns the buffer index of the push constants in every stage that reads them.
func (pl *PipelineLayout) PushConstantIndexes() StageIndexTable { return pl.pushConstantIndexes }

func (pl *PipelineLayout) PushConstantStages() metadata.ShaderStageFlags { return pl.pushConstantStages }

// DynamicOffsetCount returns how many dynamic offsets binding every set requires.
func (pl *PipelineLayout) DynamicOffsetCount() uint32 { return pl.dynamicOffsetCount }

// PopulateShaderConverterContext records the mapping of every binding of every set,
// and of the push constants.
func (pl *PipelineLayout) PopulateShaderConverterContext(ctx *ShaderConverterContext) {
	for i, sl := range pl.setLayouts {
		sl.PopulateShaderConverterContext(ctx, pl.setResourceIndexOffsets[i], uint32(i))
	}
	for _, stage := range metadata.ShaderStages() {
		if pl.pushConstantStages.Has(stage) {
			ctx.AddResourceBinding(ResourceBinding{
				Stage:         stage,
				DescriptorSet: PushConstantDescriptorSet,
				Binding:       PushConstantBinding,
				BufferIndex:   pl.pushConstantIndexes.Stages[stage].BufferIndex,
			})
		}
	}
}
