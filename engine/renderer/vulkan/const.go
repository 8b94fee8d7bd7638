package vulkan

import vk "github.com/goki/vulkan"

/**
 * @brief Max number of bindings a descriptor set config can declare.
 */
const VULKAN_SHADER_MAX_BINDINGS uint32 = 32

/**
 * @brief VK_DESCRIPTOR_TYPE_INLINE_UNIFORM_BLOCK, promoted to core in Vulkan 1.3.
 */
const VULKAN_DESCRIPTOR_TYPE_INLINE_UNIFORM_BLOCK vk.DescriptorType = 1000138000
