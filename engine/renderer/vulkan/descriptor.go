package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-bind/engine/core"
	"github.com/spaghettifunk/anima-bind/engine/renderer/descriptors"
	"github.com/spaghettifunk/anima-bind/engine/renderer/metadata"
)

/**
 * @brief The configuration for a descriptor set, as Vulkan structures.
 */
type VulkanDescriptorSetConfig struct {
	/** @brief The number of bindings in this set. */
	BindingCount uint8
	/** @brief An array of binding layouts for this set. */
	Bindings [VULKAN_SHADER_MAX_BINDINGS]vk.DescriptorSetLayoutBinding
	/** @brief Whether the set is only ever pushed. */
	PushDescriptor bool
}

/**
 * @brief Maps a Vulkan sampler handle to the handle the binding core tracks.
 */
type SamplerResolver func(sampler vk.Sampler) metadata.SamplerHandle

var descriptorTypes = map[vk.DescriptorType]metadata.DescriptorType{
	vk.DescriptorTypeSampler:                   metadata.DescriptorTypeSampler,
	vk.DescriptorTypeCombinedImageSampler:      metadata.DescriptorTypeCombinedImageSampler,
	vk.DescriptorTypeSampledImage:              metadata.DescriptorTypeSampledImage,
	vk.DescriptorTypeStorageImage:              metadata.DescriptorTypeStorageImage,
	vk.DescriptorTypeUniformTexelBuffer:        metadata.DescriptorTypeUniformTexelBuffer,
	vk.DescriptorTypeStorageTexelBuffer:        metadata.DescriptorTypeStorageTexelBuffer,
	vk.DescriptorTypeUniformBuffer:             metadata.DescriptorTypeUniformBuffer,
	vk.DescriptorTypeStorageBuffer:             metadata.DescriptorTypeStorageBuffer,
	vk.DescriptorTypeUniformBufferDynamic:      metadata.DescriptorTypeUniformBufferDynamic,
	vk.DescriptorTypeStorageBufferDynamic:      metadata.DescriptorTypeStorageBufferDynamic,
	vk.DescriptorTypeInputAttachment:           metadata.DescriptorTypeInputAttachment,
	VULKAN_DESCRIPTOR_TYPE_INLINE_UNIFORM_BLOCK: metadata.DescriptorTypeInlineUniformBlock,
}

func DescriptorTypeFromVulkan(t vk.DescriptorType) (metadata.DescriptorType, error) {
	dt, ok := descriptorTypes[t]
	if !ok {
		return 0, fmt.Errorf("%w: unsupported Vulkan descriptor type %d", core.ErrInvalidBinding, int(t))
	}
	return dt, nil
}

func DescriptorTypeToVulkan(t metadata.DescriptorType) (vk.DescriptorType, error) {
	for vt, dt := range descriptorTypes {
		if dt == t {
			return vt, nil
		}
	}
	return 0, fmt.Errorf("%w: descriptor type %s has no Vulkan equivalent", core.ErrInvalidBinding, t)
}

// ShaderStageFlagsFromVulkan keeps the stage bits as is; both masks share the Vulkan bit values.
func ShaderStageFlagsFromVulkan(flags vk.ShaderStageFlags) metadata.ShaderStageFlags {
	return metadata.ShaderStageFlags(uint32(flags))
}

func ShaderStageFlagsToVulkan(flags metadata.ShaderStageFlags) vk.ShaderStageFlags {
	return vk.ShaderStageFlags(uint32(flags))
}

// LayoutBindingFromVulkan converts one Vulkan binding. resolve may be nil when the
// binding declares no immutable samplers.
func LayoutBindingFromVulkan(b vk.DescriptorSetLayoutBinding, resolve SamplerResolver) (descriptors.LayoutBindingInfo, error) {
	dt, err := DescriptorTypeFromVulkan(b.DescriptorType)
	if err != nil {
		core.LogError(err.Error())
		return descriptors.LayoutBindingInfo{}, err
	}
	info := descriptors.LayoutBindingInfo{
		Binding:         b.Binding,
		DescriptorType:  dt,
		DescriptorCount: b.DescriptorCount,
		StageFlags:      ShaderStageFlagsFromVulkan(b.StageFlags),
	}
	if len(b.PImmutableSamplers) > 0 {
		if resolve == nil {
			err := fmt.Errorf("%w: binding %d has immutable samplers but no resolver", core.ErrInvalidBinding, b.Binding)
			core.LogError(err.Error())
			return descriptors.LayoutBindingInfo{}, err
		}
		info.ImmutableSamplers = make([]metadata.SamplerHandle, len(b.PImmutableSamplers))
		for i, s := range b.PImmutableSamplers {
			info.ImmutableSamplers[i] = resolve(s)
		}
	}
	return info, nil
}

// DescriptorSetLayoutInfo converts the first BindingCount bindings of the config.
func (c *VulkanDescriptorSetConfig) DescriptorSetLayoutInfo(resolve SamplerResolver) (descriptors.DescriptorSetLayoutInfo, error) {
	if uint32(c.BindingCount) > VULKAN_SHADER_MAX_BINDINGS {
		err := fmt.Errorf("%w: %d bindings declared, at most %d supported", core.ErrInvalidBinding, c.BindingCount, VULKAN_SHADER_MAX_BINDINGS)
		core.LogError(err.Error())
		return descriptors.DescriptorSetLayoutInfo{}, err
	}
	info := descriptors.DescriptorSetLayoutInfo{
		Bindings:       make([]descriptors.LayoutBindingInfo, 0, c.BindingCount),
		PushDescriptor: c.PushDescriptor,
	}
	for i := uint8(0); i < c.BindingCount; i++ {
		bi, err := LayoutBindingFromVulkan(c.Bindings[i], resolve)
		if err != nil {
			return descriptors.DescriptorSetLayoutInfo{}, err
		}
		info.Bindings = append(info.Bindings, bi)
	}
	return info, nil
}

// NewDescriptorSetLayout builds a descriptor set layout from the config.
func (c *VulkanDescriptorSetConfig) NewDescriptorSetLayout(resolve SamplerResolver, cfg *core.Config) (*descriptors.DescriptorSetLayout, error) {
	info, err := c.DescriptorSetLayoutInfo(resolve)
	if err != nil {
		return nil, err
	}
	return descriptors.NewDescriptorSetLayout(info, cfg)
}

// AddBinding appends a binding to the config.
func (c *VulkanDescriptorSetConfig) AddBinding(b vk.DescriptorSetLayoutBinding) error {
	if uint32(c.BindingCount) >= VULKAN_SHADER_MAX_BINDINGS {
		err := fmt.Errorf("%w: descriptor set config is full (%d bindings)", core.ErrInvalidBinding, VULKAN_SHADER_MAX_BINDINGS)
		core.LogError(err.Error())
		return err
	}
	c.Bindings[c.BindingCount] = b
	c.BindingCount++
	return nil
}

// LayoutBindingToVulkan converts a layout binding back to its Vulkan form, without
// immutable samplers.
func LayoutBindingToVulkan(lb *descriptors.LayoutBinding) (vk.DescriptorSetLayoutBinding, error) {
	vt, err := DescriptorTypeToVulkan(lb.DescriptorType())
	if err != nil {
		core.LogError(err.Error())
		return vk.DescriptorSetLayoutBinding{}, err
	}
	count := lb.DescriptorCount()
	if size := lb.InlineBlockSize(); size > 0 {
		count = size
	}
	return vk.DescriptorSetLayoutBinding{
		Binding:         lb.Binding(),
		DescriptorType:  vt,
		DescriptorCount: count,
		StageFlags:      ShaderStageFlagsToVulkan(lb.StageFlags()),
	}, nil
}
