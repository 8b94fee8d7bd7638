package metadata

import (
	"fmt"
	"strings"
)

/** @brief The kind of resource held by a descriptor binding. */
type DescriptorType int

const (
	DescriptorTypeSampler DescriptorType = iota
	DescriptorTypeCombinedImageSampler
	DescriptorTypeSampledImage
	DescriptorTypeStorageImage
	DescriptorTypeUniformTexelBuffer
	DescriptorTypeStorageTexelBuffer
	DescriptorTypeUniformBuffer
	DescriptorTypeStorageBuffer
	DescriptorTypeUniformBufferDynamic
	DescriptorTypeStorageBufferDynamic
	DescriptorTypeInputAttachment
	/** @brief A binding whose count is a byte size rather than an array length. */
	DescriptorTypeInlineUniformBlock
)

var descriptorTypeNames = [...]string{
	DescriptorTypeSampler:              "sampler",
	DescriptorTypeCombinedImageSampler: "combined_image_sampler",
	DescriptorTypeSampledImage:         "sampled_image",
	DescriptorTypeStorageImage:         "storage_image",
	DescriptorTypeUniformTexelBuffer:   "uniform_texel_buffer",
	DescriptorTypeStorageTexelBuffer:   "storage_texel_buffer",
	DescriptorTypeUniformBuffer:        "uniform_buffer",
	DescriptorTypeStorageBuffer:        "storage_buffer",
	DescriptorTypeUniformBufferDynamic: "uniform_buffer_dynamic",
	DescriptorTypeStorageBufferDynamic: "storage_buffer_dynamic",
	DescriptorTypeInputAttachment:      "input_attachment",
	DescriptorTypeInlineUniformBlock:   "inline_uniform_block",
}

func (t DescriptorType) String() string {
	if t >= 0 && int(t) < len(descriptorTypeNames) {
		return descriptorTypeNames[t]
	}
	return fmt.Sprintf("DescriptorType(%d)", int(t))
}

// IsValid reports whether t is one of the known descriptor types.
func (t DescriptorType) IsValid() bool {
	return t >= 0 && int(t) < len(descriptorTypeNames)
}

// IsDynamic reports whether binding the type consumes a dynamic offset per element.
func (t DescriptorType) IsDynamic() bool {
	return t == DescriptorTypeUniformBufferDynamic || t == DescriptorTypeStorageBufferDynamic
}

// UsesSampler reports whether the type carries a sampler and may declare immutable samplers.
func (t DescriptorType) UsesSampler() bool {
	return t == DescriptorTypeSampler || t == DescriptorTypeCombinedImageSampler
}

func DescriptorTypeFromString(s string) (DescriptorType, error) {
	name := strings.ToLower(s)
	for i, n := range descriptorTypeNames {
		if n == name {
			return DescriptorType(i), nil
		}
	}
	return 0, fmt.Errorf("string %s is not a valid DescriptorType", s)
}

/** @brief One of the flat index spaces a shader stage addresses resources by. */
type ResourceKind int

const (
	ResourceKindBuffer ResourceKind = iota
	ResourceKindTexture
	ResourceKindSampler
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceKindBuffer:
		return "buffer"
	case ResourceKindTexture:
		return "texture"
	case ResourceKindSampler:
		return "sampler"
	}
	return fmt.Sprintf("ResourceKind(%d)", int(k))
}

// Opaque references to objects whose lifetime is managed elsewhere. The zero value is the null handle.
type (
	BufferHandle     uint64
	ImageViewHandle  uint64
	SamplerHandle    uint64
	BufferViewHandle uint64
)

const NullHandle = 0

/** @brief Image layout tag recorded with image descriptors. Informational only. */
type ImageLayout int

const (
	ImageLayoutUndefined ImageLayout = iota
	ImageLayoutGeneral
	ImageLayoutShaderReadOnlyOptimal
	ImageLayoutDepthStencilReadOnlyOptimal
	ImageLayoutColorAttachmentOptimal
)

/** @brief Image, sampler or combined content of a descriptor. */
type DescriptorImageInfo struct {
	Sampler     SamplerHandle
	ImageView   ImageViewHandle
	ImageLayout ImageLayout
}

/** @brief Buffer content of a descriptor. */
type DescriptorBufferInfo struct {
	Buffer BufferHandle
	/** @brief Byte offset into the buffer. Dynamic offsets are added on top at bind time. */
	Offset uint64
	/** @brief Byte size of the visible range. */
	Range uint64
}

/**
 * @brief Describes an update of consecutive descriptors, starting at a binding
 * and array element. Only the record slice matching DescriptorType is read.
 *
 * For inline uniform blocks DstArrayElement is a byte offset and DescriptorCount
 * a byte count taken from InlineUniformBlock.
 */
type WriteDescriptorSet struct {
	DstBinding         uint32
	DstArrayElement    uint32
	DescriptorCount    uint32
	DescriptorType     DescriptorType
	ImageInfo          []DescriptorImageInfo
	BufferInfo         []DescriptorBufferInfo
	TexelBufferView    []BufferViewHandle
	InlineUniformBlock []byte
}

// RecordCount returns how many records of the type's kind the write carries.
func (w *WriteDescriptorSet) RecordCount() int {
	switch w.DescriptorType {
	case DescriptorTypeSampler, DescriptorTypeCombinedImageSampler,
		DescriptorTypeSampledImage, DescriptorTypeStorageImage, DescriptorTypeInputAttachment:
		return len(w.ImageInfo)
	case DescriptorTypeUniformBuffer, DescriptorTypeStorageBuffer,
		DescriptorTypeUniformBufferDynamic, DescriptorTypeStorageBufferDynamic:
		return len(w.BufferInfo)
	case DescriptorTypeUniformTexelBuffer, DescriptorTypeStorageTexelBuffer:
		return len(w.TexelBufferView)
	case DescriptorTypeInlineUniformBlock:
		return len(w.InlineUniformBlock)
	}
	return 0
}

/**
 * @brief Destination arrays for reading descriptor content back. Callers supply
 * only the slice relevant to the kind being read; the others may be nil.
 */
type DescriptorReadout struct {
	ImageInfo          []DescriptorImageInfo
	BufferInfo         []DescriptorBufferInfo
	TexelBufferView    []BufferViewHandle
	InlineUniformBlock []byte
}

/** @brief Copies descriptors between two sets, as in vkUpdateDescriptorSets. */
type CopyDescriptorSet struct {
	SrcBinding      uint32
	SrcArrayElement uint32
	DstBinding      uint32
	DstArrayElement uint32
	DescriptorCount uint32
}
