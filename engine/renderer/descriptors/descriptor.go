package descriptors

import (
	"fmt"

	"github.com/spaghettifunk/anima-bind/engine/core"
	"github.com/spaghettifunk/anima-bind/engine/renderer/metadata"
)

type bufferContent struct {
	buffer metadata.BufferHandle
	offset uint64
	size   uint64
}

type imageContent struct {
	view   metadata.ImageViewHandle
	layout metadata.ImageLayout
}

/**
 * @brief Sampler content shared by the sampler and combined image-sampler variants.
 */
type samplerContent struct {
	sampler metadata.SamplerHandle
	/** @brief False once the slot has adopted an immutable sampler from its layout. */
	hasDynamicSampler bool
}

func (s *samplerContent) setLayout(lb *LayoutBinding, index uint32) {
	s.sampler = lb.ImmutableSampler(index)
	s.hasDynamicSampler = s.sampler == metadata.NullHandle
}

func (s *samplerContent) write(sampler metadata.SamplerHandle) error {
	if !s.hasDynamicSampler {
		if sampler != metadata.NullHandle && sampler != s.sampler {
			return core.ErrImmutableSamplerViolation
		}
		return nil
	}
	s.sampler = sampler
	return nil
}

func (s *samplerContent) reset() {
	s.sampler = metadata.NullHandle
	s.hasDynamicSampler = true
}

/**
 * @brief One logical resource slot of a descriptor set. The descriptor type is
 * the discriminant; only the content matching it is meaningful.
 */
type Descriptor struct {
	descriptorType metadata.DescriptorType
	buffer         bufferContent
	image          imageContent
	sampler        samplerContent
	texelView      metadata.BufferViewHandle
	/** @brief Inline uniform block bytes, sized by the layout. */
	inline        []byte
	inlineWritten bool
}

func (d *Descriptor) Type() metadata.DescriptorType { return d.descriptorType }

// IsNull reports whether the slot holds nothing that bind would attach.
func (d *Descriptor) IsNull() bool {
	switch d.descriptorType {
	case metadata.DescriptorTypeUniformBuffer, metadata.DescriptorTypeStorageBuffer,
		metadata.DescriptorTypeUniformBufferDynamic, metadata.DescriptorTypeStorageBufferDynamic:
		return d.buffer.buffer == metadata.NullHandle
	case metadata.DescriptorTypeInlineUniformBlock:
		return !d.inlineWritten
	case metadata.DescriptorTypeSampledImage, metadata.DescriptorTypeStorageImage, metadata.DescriptorTypeInputAttachment:
		return d.image.view == metadata.NullHandle
	case metadata.DescriptorTypeSampler:
		return d.sampler.sampler == metadata.NullHandle
	case metadata.DescriptorTypeCombinedImageSampler:
		return d.image.view == metadata.NullHandle && d.sampler.sampler == metadata.NullHandle
	case metadata.DescriptorTypeUniformTexelBuffer, metadata.DescriptorTypeStorageTexelBuffer:
		return d.texelView == metadata.NullHandle
	}
	return true
}

// setLayout binds the slot to one element of a layout binding. A change of type
// resets the content; sampler-bearing slots adopt the immutable sampler if any.
func (d *Descriptor) setLayout(lb *LayoutBinding, index uint32) {
	if d.descriptorType != lb.DescriptorType() {
		d.reset()
		d.descriptorType = lb.DescriptorType()
	}
	switch d.descriptorType {
	case metadata.DescriptorTypeSampler, metadata.DescriptorTypeCombinedImageSampler:
		d.sampler.setLayout(lb, index)
	case metadata.DescriptorTypeInlineUniformBlock:
		size := int(lb.InlineBlockSize())
		if cap(d.inline) >= size {
			d.inline = d.inline[:size]
			clear(d.inline)
		} else {
			d.inline = make([]byte, size)
		}
		d.inlineWritten = false
	}
}

// Write updates the slot from record srcIndex of w. A null resource clears the
// slot. Writing a sampler over an immutable one leaves the slot untouched and
// returns core.ErrImmutableSamplerViolation; any image part is still written.
func (d *Descriptor) Write(w *metadata.WriteDescriptorSet, srcIndex uint32) error {
	if w.DescriptorType != d.descriptorType {
		return fmt.Errorf("%w: cannot write %s into a %s descriptor", core.ErrInvalidBinding, w.DescriptorType, d.descriptorType)
	}
	if d.descriptorType == metadata.DescriptorTypeInlineUniformBlock {
		data := w.InlineUniformBlock
		if n := int(w.DescriptorCount); n < len(data) {
			data = data[:n]
		}
		return d.writeInline(w.DstArrayElement, data)
	}
	if int(srcIndex) >= w.RecordCount() {
		return fmt.Errorf("%w: write carries %d records, record %d requested", core.ErrInvalidBinding, w.RecordCount(), srcIndex)
	}

	switch d.descriptorType {
	case metadata.DescriptorTypeUniformBuffer, metadata.DescriptorTypeStorageBuffer,
		metadata.DescriptorTypeUniformBufferDynamic, metadata.DescriptorTypeStorageBufferDynamic:
		info := w.BufferInfo[srcIndex]
		if info.Buffer == metadata.NullHandle {
			d.buffer = bufferContent{}
			return nil
		}
		d.buffer = bufferContent{buffer: info.Buffer, offset: info.Offset, size: info.Range}
	case metadata.DescriptorTypeSampledImage, metadata.DescriptorTypeStorageImage, metadata.DescriptorTypeInputAttachment:
		d.writeImage(w.ImageInfo[srcIndex])
	case metadata.DescriptorTypeSampler:
		return d.sampler.write(w.ImageInfo[srcIndex].Sampler)
	case metadata.DescriptorTypeCombinedImageSampler:
		info := w.ImageInfo[srcIndex]
		d.writeImage(info)
		return d.sampler.write(info.Sampler)
	case metadata.DescriptorTypeUniformTexelBuffer, metadata.DescriptorTypeStorageTexelBuffer:
		d.texelView = w.TexelBufferView[srcIndex]
	}
	return nil
}

func (d *Descriptor) writeImage(info metadata.DescriptorImageInfo) {
	if info.ImageView == metadata.NullHandle {
		d.image = imageContent{}
		return
	}
	d.image = imageContent{view: info.ImageView, layout: info.ImageLayout}
}

// writeInline copies data into the block at a byte offset.
func (d *Descriptor) writeInline(offset uint32, data []byte) error {
	if uint64(offset)+uint64(len(data)) > uint64(len(d.inline)) {
		return fmt.Errorf("%w: %d bytes at offset %d overflow a %d byte inline block",
			core.ErrInvalidBinding, len(data), offset, len(d.inline))
	}
	copy(d.inline[offset:], data)
	d.inlineWritten = true
	return nil
}

// Read exports the slot into element dstIndex of the readout slice matching its
// type. Null slots export zero values. For inline blocks dstIndex is a byte
// offset into the block and as many bytes as fit in out.InlineUniformBlock are copied.
func (d *Descriptor) Read(dstIndex uint32, out *metadata.DescriptorReadout) error {
	switch d.descriptorType {
	case metadata.DescriptorTypeUniformBuffer, metadata.DescriptorTypeStorageBuffer,
		metadata.DescriptorTypeUniformBufferDynamic, metadata.DescriptorTypeStorageBufferDynamic:
		if int(dstIndex) >= len(out.BufferInfo) {
			return errReadoutTooShort(d.descriptorType, dstIndex)
		}
		out.BufferInfo[dstIndex] = metadata.DescriptorBufferInfo{Buffer: d.buffer.buffer, Offset: d.buffer.offset, Range: d.buffer.size}
	case metadata.DescriptorTypeInlineUniformBlock:
		if int(dstIndex) > len(d.inline) {
			return errReadoutTooShort(d.descriptorType, dstIndex)
		}
		copy(out.InlineUniformBlock, d.inline[dstIndex:])
	case metadata.DescriptorTypeSampledImage, metadata.DescriptorTypeStorageImage, metadata.DescriptorTypeInputAttachment:
		if int(dstIndex) >= len(out.ImageInfo) {
			return errReadoutTooShort(d.descriptorType, dstIndex)
		}
		out.ImageInfo[dstIndex] = metadata.DescriptorImageInfo{ImageView: d.image.view, ImageLayout: d.image.layout}
	case metadata.DescriptorTypeSampler:
		if int(dstIndex) >= len(out.ImageInfo) {
			return errReadoutTooShort(d.descriptorType, dstIndex)
		}
		out.ImageInfo[dstIndex] = metadata.DescriptorImageInfo{Sampler: d.sampler.sampler}
	case metadata.DescriptorTypeCombinedImageSampler:
		if int(dstIndex) >= len(out.ImageInfo) {
			return errReadoutTooShort(d.descriptorType, dstIndex)
		}
		out.ImageInfo[dstIndex] = metadata.DescriptorImageInfo{
			Sampler:     d.sampler.sampler,
			ImageView:   d.image.view,
			ImageLayout: d.image.layout,
		}
	case metadata.DescriptorTypeUniformTexelBuffer, metadata.DescriptorTypeStorageTexelBuffer:
		if int(dstIndex) >= len(out.TexelBufferView) {
			return errReadoutTooShort(d.descriptorType, dstIndex)
		}
		out.TexelBufferView[dstIndex] = d.texelView
	}
	return nil
}

func errReadoutTooShort(t metadata.DescriptorType, index uint32) error {
	return fmt.Errorf("%w: readout has no room for %s element %d", core.ErrInvalidBinding, t, index)
}

// reset drops the content. The inline block keeps its storage for reuse.
func (d *Descriptor) reset() {
	d.buffer = bufferContent{}
	d.image = imageContent{}
	d.sampler.reset()
	d.texelView = metadata.NullHandle
	clear(d.inline)
	d.inlineWritten = false
}

// bind attaches the slot at element index of lb, in every stage lb applies to.
func (d *Descriptor) bind(
	enc CommandEncoder,
	lb *LayoutBinding,
	index uint32,
	indexes StageIndexTable,
	dynamicOffsets []uint32,
	cursor *int) error {

	var dynamicOffset uint64
	switch d.descriptorType {
	case metadata.DescriptorTypeUniformBufferDynamic, metadata.DescriptorTypeStorageBufferDynamic:
		if cursor == nil || *cursor >= len(dynamicOffsets) {
			err := fmt.Errorf("%w: dynamic offset missing for binding %d element %d", core.ErrInvalidBinding, lb.Binding(), index)
			core.LogError(err.Error())
			return err
		}
		dynamicOffset = uint64(dynamicOffsets[*cursor])
		*cursor++
		fallthrough
	case metadata.DescriptorTypeUniformBuffer, metadata.DescriptorTypeStorageBuffer:
		if d.buffer.buffer == metadata.NullHandle {
			return nil
		}
		for _, stage := range metadata.ShaderStages() {
			if lb.AppliesToStage(stage) {
				enc.BindBuffer(stage, BufferBinding{
					Index:  indexes.Stages[stage].BufferIndex + index,
					Buffer: d.buffer.buffer,
					Offset: d.buffer.offset + dynamicOffset,
				})
			}
		}

	case metadata.DescriptorTypeInlineUniformBlock:
		if !d.inlineWritten {
			return nil
		}
		for _, stage := range metadata.ShaderStages() {
			if lb.AppliesToStage(stage) {
				enc.BindBuffer(stage, BufferBinding{
					Index:    indexes.Stages[stage].BufferIndex,
					Bytes:    d.inline,
					IsInline: true,
				})
			}
		}

	case metadata.DescriptorTypeSampledImage, metadata.DescriptorTypeStorageImage, metadata.DescriptorTypeInputAttachment:
		d.bindTexture(enc, lb, index, indexes)

	case metadata.DescriptorTypeSampler:
		d.bindSampler(enc, lb, index, indexes)

	case metadata.DescriptorTypeCombinedImageSampler:
		d.bindTexture(enc, lb, index, indexes)
		d.bindSampler(enc, lb, index, indexes)

	case metadata.DescriptorTypeUniformTexelBuffer, metadata.DescriptorTypeStorageTexelBuffer:
		if d.texelView == metadata.NullHandle {
			return nil
		}
		for _, stage := range metadata.ShaderStages() {
			if lb.AppliesToStage(stage) {
				enc.BindTexture(stage, TextureBinding{
					Index:      indexes.Stages[stage].TextureIndex + index,
					BufferView: d.texelView,
				})
			}
		}
	}
	return nil
}

func (d *Descriptor) bindTexture(enc CommandEncoder, lb *LayoutBinding, index uint32, indexes StageIndexTable) {
	if d.image.view == metadata.NullHandle {
		return
	}
	for _, stage := range metadata.ShaderStages() {
		if lb.AppliesToStage(stage) {
			enc.BindTexture(stage, TextureBinding{
				Index:     indexes.Stages[stage].TextureIndex + index,
				ImageView: d.image.view,
			})
		}
	}
}

func (d *Descriptor) bindSampler(enc CommandEncoder, lb *LayoutBinding, index uint32, indexes StageIndexTable) {
	if d.sampler.sampler == metadata.NullHandle {
		return
	}
	for _, stage := range metadata.ShaderStages() {
		if lb.AppliesToStage(stage) {
			enc.BindSampler(stage, SamplerBinding{
				Index:   indexes.Stages[stage].SamplerIndex + index,
				Sampler: d.sampler.sampler,
			})
		}
	}
}
