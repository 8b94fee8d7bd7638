package descriptors

import "github.com/spaghettifunk/anima-bind/engine/renderer/metadata"

// PushConstantDescriptorSet and PushConstantBinding identify the push-constant block
// in the shader converter context, which has no descriptor set of its own.
const (
	PushConstantDescriptorSet uint32 = ^uint32(0) - 1
	PushConstantBinding       uint32 = 0
)

/**
 * @brief The flat indexes a (set, binding) pair starts at within one stage.
 */
type ResourceBinding struct {
	Stage          metadata.ShaderStage
	DescriptorSet  uint32
	Binding        uint32
	DescriptorType metadata.DescriptorType
	/** @brief Array length, or byte size for inline uniform blocks. */
	Count        uint32
	BufferIndex  uint32
	TextureIndex uint32
	SamplerIndex uint32
	/** @brief Samplers the shader translation may bake in as constants. */
	ImmutableSamplers []metadata.SamplerHandle
}

/**
 * @brief Resource mapping handed to the shader translation stage.
 */
type ShaderConverterContext struct {
	ResourceBindings []ResourceBinding
}

func (c *ShaderConverterContext) AddResourceBinding(rb ResourceBinding) {
	c.ResourceBindings = append(c.ResourceBindings, rb)
}

// Lookup returns the mapping of a binding in one stage.
func (c *ShaderConverterContext) Lookup(stage metadata.ShaderStage, set, binding uint32) (ResourceBinding, bool) {
	for _, rb := range c.ResourceBindings {
		if rb.Stage == stage && rb.DescriptorSet == set && rb.Binding == binding {
			return rb, true
		}
	}
	return ResourceBinding{}, false
}

// Reset empties the context so it can be repopulated.
func (c *ShaderConverterContext) Reset() {
	c.ResourceBindings = c.ResourceBindings[:0]
}
