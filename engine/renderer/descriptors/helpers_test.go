package descriptors

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-bind/engine/core"
	"github.com/spaghettifunk/anima-bind/engine/renderer/metadata"
)

type boundBuffer struct {
	Stage metadata.ShaderStage
	BufferBinding
}

type boundTexture struct {
	Stage metadata.ShaderStage
	TextureBinding
}

type boundSampler struct {
	Stage metadata.ShaderStage
	SamplerBinding
}

// recordingEncoder keeps every call in order.
type recordingEncoder struct {
	buffers  []boundBuffer
	textures []boundTexture
	samplers []boundSampler
}

func (r *recordingEncoder) BindBuffer(stage metadata.ShaderStage, b BufferBinding) {
	if b.IsInline {
		b.Bytes = append([]byte(nil), b.Bytes...)
	}
	r.buffers = append(r.buffers, boundBuffer{Stage: stage, BufferBinding: b})
}

func (r *recordingEncoder) BindTexture(stage metadata.ShaderStage, b TextureBinding) {
	r.textures = append(r.textures, boundTexture{Stage: stage, TextureBinding: b})
}

func (r *recordingEncoder) BindSampler(stage metadata.ShaderStage, b SamplerBinding) {
	r.samplers = append(r.samplers, boundSampler{Stage: stage, SamplerBinding: b})
}

func (r *recordingEncoder) callCount() int {
	return len(r.buffers) + len(r.textures) + len(r.samplers)
}

func testConfig() *core.Config {
	return core.DefaultConfig()
}

func mustSetLayout(t *testing.T, push bool, bindings ...LayoutBindingInfo) *DescriptorSetLayout {
	t.Helper()
	sl, err := NewDescriptorSetLayout(DescriptorSetLayoutInfo{Bindings: bindings, PushDescriptor: push}, testConfig())
	require.NoError(t, err)
	return sl
}

func mustPipelineLayout(t *testing.T, push metadata.ShaderStageFlags, sets ...*DescriptorSetLayout) *PipelineLayout {
	t.Helper()
	pl, err := NewPipelineLayout(PipelineLayoutInfo{SetLayouts: sets, PushConstantStages: push}, testConfig())
	require.NoError(t, err)
	return pl
}

func bufferWrite(binding, element uint32, infos ...metadata.DescriptorBufferInfo) metadata.WriteDescriptorSet {
	return metadata.WriteDescriptorSet{
		DstBinding:      binding,
		DstArrayElement: element,
		DescriptorCount: uint32(len(infos)),
		DescriptorType:  metadata.DescriptorTypeUniformBuffer,
		BufferInfo:      infos,
	}
}
