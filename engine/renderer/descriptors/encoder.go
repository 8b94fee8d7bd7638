package descriptors

import (
	"fmt"

	"github.com/spaghettifunk/anima-bind/engine/core"
	"github.com/spaghettifunk/anima-bind/engine/renderer/metadata"
)

/** @brief A buffer attached at a stage's buffer index. */
type BufferBinding struct {
	Index  uint32
	Buffer metadata.BufferHandle
	/** @brief Effective byte offset, dynamic offset included. */
	Offset uint64
	/** @brief Raw bytes of an inline uniform block. Only set when IsInline. */
	Bytes    []byte
	IsInline bool
}

/** @brief An image view or texel buffer view attached at a stage's texture index. */
type TextureBinding struct {
	Index      uint32
	ImageView  metadata.ImageViewHandle
	BufferView metadata.BufferViewHandle
}

/** @brief A sampler attached at a stage's sampler index. */
type SamplerBinding struct {
	Index   uint32
	Sampler metadata.SamplerHandle
}

// CommandEncoder is the execution context resources are attached to. It is the
// only place the binding core has an effect on.
type CommandEncoder interface {
	BindBuffer(stage metadata.ShaderStage, binding BufferBinding)
	BindTexture(stage metadata.ShaderStage, binding TextureBinding)
	BindSampler(stage metadata.ShaderStage, binding SamplerBinding)
}

// BindingEncoder binds descriptor sets of one pipeline layout onto a command encoder.
type BindingEncoder struct {
	cmd    CommandEncoder
	layout *PipelineLayout
}

func NewBindingEncoder(cmd CommandEncoder, layout *PipelineLayout) *BindingEncoder {
	return &BindingEncoder{cmd: cmd, layout: layout}
}

func (e *BindingEncoder) Layout() *PipelineLayout { return e.layout }

// BindDescriptorSets binds sets to consecutive set numbers starting at firstSet.
// dynamicOffsets must hold one entry per dynamic buffer element of the bound sets,
// ordered by set number, then binding number, then array element.
func (e *BindingEncoder) BindDescriptorSets(firstSet uint32, sets []*DescriptorSet, dynamicOffsets []uint32) error {
	if int(firstSet)+len(sets) > e.layout.SetCount() {
		err := fmt.Errorf("%w: binding sets %d..%d, pipeline layout has %d",
			core.ErrInvalidBinding, firstSet, int(firstSet)+len(sets)-1, e.layout.SetCount())
		core.LogError(err.Error())
		return err
	}

	required := 0
	for i, set := range sets {
		setIndex := firstSet + uint32(i)
		sl := e.layout.SetLayout(setIndex)
		if set == nil || !sl.IsCompatible(set.Layout()) {
			err := fmt.Errorf("%w: set %d", core.ErrIncompatibleLayout, setIndex)
			core.LogError(err.Error())
			return err
		}
		required += int(sl.DynamicOffsetCount())
	}
	if len(dynamicOffsets) < required {
		err := fmt.Errorf("%w: %d dynamic offsets supplied, %d required", core.ErrInvalidBinding, len(dynamicOffsets), required)
		core.LogError(err.Error())
		return err
	}
	if len(dynamicOffsets) > required {
		core.LogWarn("%d dynamic offsets supplied, only %d used", len(dynamicOffsets), required)
	}

	// One cursor for the whole call.
	cursor := 0
	for i, set := range sets {
		setIndex := firstSet + uint32(i)
		sl := e.layout.SetLayout(setIndex)
		if err := sl.BindDescriptorSet(e.cmd, set, e.layout.SetResourceIndexOffsets(setIndex), dynamicOffsets, &cursor); err != nil {
			return err
		}
	}
	if cursor != required {
		err := fmt.Errorf("%w: consumed %d dynamic offsets, expected %d", core.ErrUnknown, cursor, required)
		core.LogError(err.Error())
		return err
	}
	return nil
}

// PushDescriptorSet writes and binds descriptors into set number setIndex, which
// must use a push descriptor layout.
func (e *BindingEncoder) PushDescriptorSet(setIndex uint32, writes []metadata.WriteDescriptorSet) error {
	sl := e.layout.SetLayout(setIndex)
	if sl == nil {
		err := fmt.Errorf("%w: pipeline layout has no set %d", core.ErrInvalidBinding, setIndex)
		core.LogError(err.Error())
		return err
	}
	return sl.PushDescriptorSet(e.cmd, writes, e.layout.SetResourceIndexOffsets(setIndex))
}
