package descriptors

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/anima-bind/engine/core"
	"github.com/spaghettifunk/anima-bind/engine/renderer/metadata"
)

/**
 * @brief Input describing one binding of a descriptor set layout.
 */
type LayoutBindingInfo struct {
	/** @brief The binding number, unique within a layout. */
	Binding uint32
	/** @brief The kind of descriptor held by the binding. */
	DescriptorType metadata.DescriptorType
	/** @brief Array length, or byte size for inline uniform blocks. */
	DescriptorCount uint32
	/** @brief The stages that may access the binding. */
	StageFlags metadata.ShaderStageFlags
	/** @brief Samplers baked into the layout. Honoured only by sampler-bearing types. */
	ImmutableSamplers []metadata.SamplerHandle
}

/**
 * @brief A descriptor set layout binding, with the resource indexes it occupies in
 * every stage it applies to. Immutable once constructed.
 */
type LayoutBinding struct {
	info              LayoutBindingInfo
	immutableSamplers []metadata.SamplerHandle
	/** @brief Where this binding starts, per stage, relative to its set. */
	resourceIndexOffsets StageIndexTable
	/** @brief How many indexes this binding consumes, per stage. */
	resourceCounts StageIndexTable
	applyToStage   [metadata.ShaderStageMax]bool
}

// NewLayoutBinding validates info and places the binding after the indexes already
// accumulated by the bindings that precede it in the same layout.
func NewLayoutBinding(info LayoutBindingInfo, accumulated StageIndexTable, features core.FeaturesConfig) (*LayoutBinding, error) {
	if !info.DescriptorType.IsValid() {
		err := fmt.Errorf("%w: binding %d has unknown descriptor type %d", core.ErrInvalidBinding, info.Binding, int(info.DescriptorType))
		core.LogError(err.Error())
		return nil, err
	}

	lb := &LayoutBinding{info: info}
	lb.info.ImmutableSamplers = nil

	applied := false
	for _, stage := range metadata.ShaderStages() {
		lb.applyToStage[stage] = info.StageFlags.Has(stage)
		applied = applied || lb.applyToStage[stage]
	}
	if info.DescriptorCount == 0 && applied {
		err := fmt.Errorf("%w: binding %d has no descriptors but is visible to stages %s", core.ErrInvalidBinding, info.Binding, info.StageFlags)
		core.LogError(err.Error())
		return nil, err
	}

	if len(info.ImmutableSamplers) > 0 {
		if info.DescriptorType.UsesSampler() {
			if uint32(len(info.ImmutableSamplers)) != info.DescriptorCount {
				err := fmt.Errorf("%w: binding %d declares %d immutable samplers for %d descriptors",
					core.ErrInvalidBinding, info.Binding, len(info.ImmutableSamplers), info.DescriptorCount)
				core.LogError(err.Error())
				return nil, err
			}
			lb.immutableSamplers = slices.Clone(info.ImmutableSamplers)
		} else {
			core.LogDebug("binding %d: immutable samplers ignored for %s", info.Binding, info.DescriptorType)
		}
	}

	if err := lb.checkFeatures(features); err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	consumed := resourceCountsFor(info.DescriptorType, info.DescriptorCount)
	for _, stage := range metadata.ShaderStages() {
		if lb.applyToStage[stage] {
			lb.resourceIndexOffsets.Stages[stage] = accumulated.Stages[stage]
			lb.resourceCounts.Stages[stage] = consumed
		}
	}
	return lb, nil
}

// resourceCountsFor returns the indexes a single stage spends on a binding.
func resourceCountsFor(descType metadata.DescriptorType, count uint32) StageIndexes {
	switch descType {
	case metadata.DescriptorTypeSampler:
		return StageIndexes{SamplerIndex: count}
	case metadata.DescriptorTypeCombinedImageSampler:
		return StageIndexes{TextureIndex: count, SamplerIndex: count}
	case metadata.DescriptorTypeSampledImage,
		metadata.DescriptorTypeStorageImage,
		metadata.DescriptorTypeInputAttachment,
		metadata.DescriptorTypeUniformTexelBuffer,
		metadata.DescriptorTypeStorageTexelBuffer:
		return StageIndexes{TextureIndex: count}
	case metadata.DescriptorTypeUniformBuffer,
		metadata.DescriptorTypeStorageBuffer,
		metadata.DescriptorTypeUniformBufferDynamic,
		metadata.DescriptorTypeStorageBufferDynamic:
		return StageIndexes{BufferIndex: count}
	case metadata.DescriptorTypeInlineUniformBlock:
		// The whole block lives behind one buffer index.
		return StageIndexes{BufferIndex: 1}
	}
	return StageIndexes{}
}

func (lb *LayoutBinding) checkFeatures(features core.FeaturesConfig) error {
	if lb.info.DescriptorCount <= 1 {
		return nil
	}
	needTextures, needSamplers := false, false
	switch lb.info.DescriptorType {
	case metadata.DescriptorTypeSampler:
		needSamplers = true
	case metadata.DescriptorTypeCombinedImageSampler:
		needTextures, needSamplers = true, true
	case metadata.DescriptorTypeSampledImage,
		metadata.DescriptorTypeStorageImage,
		metadata.DescriptorTypeInputAttachment,
		metadata.DescriptorTypeUniformTexelBuffer,
		metadata.DescriptorTypeStorageTexelBuffer:
		needTextures = true
	}
	if needTextures && !features.ArrayOfTextures {
		return fmt.Errorf("%w: binding %d needs arrays of textures", core.ErrFeatureNotPresent, lb.info.Binding)
	}
	if needSamplers && !features.ArrayOfSamplers {
		return fmt.Errorf("%w: binding %d needs arrays of samplers", core.ErrFeatureNotPresent, lb.info.Binding)
	}
	return nil
}

// Clone copies the binding for aggregation into another layout. Offsets are kept as is.
func (lb *LayoutBinding) Clone() *LayoutBinding {
	c := *lb
	c.immutableSamplers = slices.Clone(lb.immutableSamplers)
	return &c
}

func (lb *LayoutBinding) Binding() uint32 { return lb.info.Binding }

func (lb *LayoutBinding) DescriptorType() metadata.DescriptorType { return lb.info.DescriptorType }

func (lb *LayoutBinding) StageFlags() metadata.ShaderStageFlags { return lb.info.StageFlags }

// DescriptorCount returns the number of descriptor slots the binding occupies in a set.
// An inline uniform block is a single slot whatever its byte size.
func (lb *LayoutBinding) DescriptorCount() uint32 {
	if lb.info.DescriptorType == metadata.DescriptorTypeInlineUniformBlock {
		return 1
	}
	return lb.info.DescriptorCount
}

// InlineBlockSize returns the capacity in bytes of an inline uniform block binding, zero otherwise.
func (lb *LayoutBinding) InlineBlockSize() uint32 {
	if lb.info.DescriptorType == metadata.DescriptorTypeInlineUniformBlock {
		return lb.info.DescriptorCount
	}
	return 0
}

// DynamicOffsetCount returns how many dynamic offsets binding this binding consumes.
func (lb *LayoutBinding) DynamicOffsetCount() uint32 {
	if lb.info.DescriptorType.IsDynamic() {
		return lb.info.DescriptorCount
	}
	return 0
}

func (lb *LayoutBinding) AppliesToStage(stage metadata.ShaderStage) bool {
	return stage >= 0 && stage < metadata.ShaderStageMax && lb.applyToStage[stage]
}

func (lb *LayoutBinding) ResourceIndexOffsets() StageIndexTable { return lb.resourceIndexOffsets }

func (lb *LayoutBinding) ResourceCounts() StageIndexTable { return lb.resourceCounts }

func (lb *LayoutBinding) HasImmutableSamplers() bool { return len(lb.immutableSamplers) > 0 }

// ImmutableSampler returns the sampler baked in at index, or the null handle.
func (lb *LayoutBinding) ImmutableSampler(index uint32) metadata.SamplerHandle {
	if index < uint32(len(lb.immutableSamplers)) {
		return lb.immutableSamplers[index]
	}
	return metadata.NullHandle
}

// Bind attaches the descriptors of set that belong to this binding, starting at
// startIndex, and returns how many descriptors it processed. Dynamic offsets are
// consumed from dynamicOffsets at *cursor, one per element.
func (lb *LayoutBinding) Bind(
	enc CommandEncoder,
	set *DescriptorSet,
	startIndex uint32,
	setOffsets StageIndexTable,
	dynamicOffsets []uint32,
	cursor *int) (uint32, error) {

	indexes := lb.resourceIndexOffsets.Add(setOffsets)
	count := lb.DescriptorCount()
	for e := uint32(0); e < count; e++ {
		d := set.DescriptorAt(startIndex + e)
		if d == nil {
			err := fmt.Errorf("%w: descriptor set has no slot %d for binding %d", core.ErrInvalidBinding, startIndex+e, lb.info.Binding)
			core.LogError(err.Error())
			return e, err
		}
		if err := d.bind(enc, lb, e, indexes, dynamicOffsets, cursor); err != nil {
			return e, err
		}
	}
	return count, nil
}

/**
 * @brief In/out counters threaded through the bindings touched by one push.
 */
type PushState struct {
	/** @brief Element to start at in the current binding. Elements past its end spill into the next binding. */
	DstArrayElement uint32
	/** @brief Descriptors (or bytes, for inline blocks) still to push. */
	DescriptorCount uint32
	/** @brief Descriptors consumed by the last Push call. */
	DescriptorsPushed uint32
	/** @brief Next record to read from the write. */
	SrcIndex uint32
}

// Push writes transient content from write and attaches it immediately, without
// touching any persisted descriptor set. Whatever does not fit in this binding is
// left in state for the next binding.
func (lb *LayoutBinding) Push(enc CommandEncoder, write *metadata.WriteDescriptorSet, state *PushState, setOffsets StageIndexTable) error {
	state.DescriptorsPushed = 0
	if state.DescriptorCount == 0 {
		return nil
	}

	capacity := lb.info.DescriptorCount
	if state.DstArrayElement >= capacity {
		state.DstArrayElement -= capacity
		return nil
	}

	if write.DescriptorType != lb.info.DescriptorType {
		err := fmt.Errorf("%w: %d %s descriptors left to push but binding %d holds %s",
			core.ErrInvalidBinding, state.DescriptorCount, write.DescriptorType, lb.info.Binding, lb.info.DescriptorType)
		core.LogError(err.Error())
		return err
	}
	if lb.info.DescriptorType.IsDynamic() {
		err := fmt.Errorf("%w: binding %d of type %s cannot be pushed", core.ErrInvalidBinding, lb.info.Binding, lb.info.DescriptorType)
		core.LogError(err.Error())
		return err
	}

	n := min(capacity-state.DstArrayElement, state.DescriptorCount)
	if int(state.SrcIndex+n) > write.RecordCount() {
		err := fmt.Errorf("%w: push to binding %d needs %d records, write carries %d",
			core.ErrInvalidBinding, lb.info.Binding, state.SrcIndex+n, write.RecordCount())
		core.LogError(err.Error())
		return err
	}

	indexes := lb.resourceIndexOffsets.Add(setOffsets)
	if lb.info.DescriptorType == metadata.DescriptorTypeInlineUniformBlock {
		var d Descriptor
		d.setLayout(lb, 0)
		if err := d.writeInline(state.DstArrayElement, write.InlineUniformBlock[state.SrcIndex:state.SrcIndex+n]); err != nil {
			return err
		}
		if err := d.bind(enc, lb, 0, indexes, nil, nil); err != nil {
			return err
		}
	} else {
		for i := uint32(0); i < n; i++ {
			e := state.DstArrayElement + i
			var d Descriptor
			d.setLayout(lb, e)
			if err := d.Write(write, state.SrcIndex+i); err != nil {
				if !errors.Is(err, core.ErrImmutableSamplerViolation) {
					return err
				}
				core.LogDebug("binding %d element %d: pushed sampler ignored in favour of immutable sampler", lb.info.Binding, e)
			}
			if err := d.bind(enc, lb, e, indexes, nil, nil); err != nil {
				return err
			}
		}
	}

	state.SrcIndex += n
	state.DescriptorCount -= n
	state.DescriptorsPushed = n
	state.DstArrayElement = 0
	return nil
}

// PopulateShaderConverterContext records, for every stage the binding applies to,
// the absolute indexes the binding starts at within the pipeline.
func (lb *LayoutBinding) PopulateShaderConverterContext(ctx *ShaderConverterContext, setOffsets StageIndexTable, setIndex uint32) {
	indexes := lb.resourceIndexOffsets.Add(setOffsets)
	for _, stage := range metadata.ShaderStages() {
		if !lb.applyToStage[stage] {
			continue
		}
		s := indexes.Stages[stage]
		ctx.AddResourceBinding(ResourceBinding{
			Stage:             stage,
			DescriptorSet:     setIndex,
			Binding:           lb.info.Binding,
			DescriptorType:    lb.info.DescriptorType,
			Count:             lb.info.DescriptorCount,
			BufferIndex:       s.BufferIndex,
			TextureIndex:      s.TextureIndex,
			SamplerIndex:      s.SamplerIndex,
			ImmutableSamplers: slices.Clone(lb.immutableSamplers),
		})
	}
}
