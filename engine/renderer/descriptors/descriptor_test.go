package descriptors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-bind/engine/core"
	"github.com/spaghettifunk/anima-bind/engine/renderer/metadata"
)

func newBinding(t *testing.T, info LayoutBindingInfo) *LayoutBinding {
	t.Helper()
	lb, err := NewLayoutBinding(info, StageIndexTable{}, testConfig().Features)
	require.NoError(t, err)
	return lb
}

func TestDescriptor_ImmutableSamplerIsKept(t *testing.T) {
	assert := assert.New(t)

	lb := newBinding(t, LayoutBindingInfo{
		DescriptorType:    metadata.DescriptorTypeSampler,
		DescriptorCount:   1,
		StageFlags:        metadata.ShaderStageFragmentBit,
		ImmutableSamplers: []metadata.SamplerHandle{7},
	})
	var d Descriptor
	d.setLayout(lb, 0)

	w := metadata.WriteDescriptorSet{
		DescriptorCount: 1,
		DescriptorType:  metadata.DescriptorTypeSampler,
		ImageInfo:       []metadata.DescriptorImageInfo{{Sampler: 9}},
	}
	assert.ErrorIs(d.Write(&w, 0), core.ErrImmutableSamplerViolation)

	// Writing the null sampler or the immutable one itself is accepted.
	w.ImageInfo[0].Sampler = metadata.NullHandle
	assert.NoError(d.Write(&w, 0))
	w.ImageInfo[0].Sampler = 7
	assert.NoError(d.Write(&w, 0))

	out := metadata.DescriptorReadout{ImageInfo: make([]metadata.DescriptorImageInfo, 1)}
	require.NoError(t, d.Read(0, &out))
	assert.EqualValues(7, out.ImageInfo[0].Sampler)

	// Reset and re-layout adopts the immutable sampler again.
	d.reset()
	d.setLayout(lb, 0)
	assert.False(d.IsNull())
}

func TestDescriptor_CombinedViolationStillWritesImage(t *testing.T) {
	assert := assert.New(t)

	lb := newBinding(t, LayoutBindingInfo{
		DescriptorType:    metadata.DescriptorTypeCombinedImageSampler,
		DescriptorCount:   1,
		StageFlags:        metadata.ShaderStageFragmentBit,
		ImmutableSamplers: []metadata.SamplerHandle{7},
	})
	var d Descriptor
	d.setLayout(lb, 0)

	w := metadata.WriteDescriptorSet{
		DescriptorCount: 1,
		DescriptorType:  metadata.DescriptorTypeCombinedImageSampler,
		ImageInfo:       []metadata.DescriptorImageInfo{{Sampler: 9, ImageView: 21, ImageLayout: metadata.ImageLayoutShaderReadOnlyOptimal}},
	}
	assert.ErrorIs(d.Write(&w, 0), core.ErrImmutableSamplerViolation)

	out := metadata.DescriptorReadout{ImageInfo: make([]metadata.DescriptorImageInfo, 1)}
	require.NoError(t, d.Read(0, &out))
	assert.Equal(metadata.DescriptorImageInfo{
		Sampler:     7,
		ImageView:   21,
		ImageLayout: metadata.ImageLayoutShaderReadOnlyOptimal,
	}, out.ImageInfo[0])
}

func TestDescriptor_CombinedBindsTextureAndSampler(t *testing.T) {
	assert := assert.New(t)

	lb := newBinding(t, LayoutBindingInfo{
		DescriptorType:  metadata.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 2,
		StageFlags:      metadata.ShaderStageFragmentBit,
	})
	var d Descriptor
	d.setLayout(lb, 1)
	require.NoError(t, d.Write(&metadata.WriteDescriptorSet{
		DescriptorCount: 1,
		DescriptorType:  metadata.DescriptorTypeCombinedImageSampler,
		ImageInfo:       []metadata.DescriptorImageInfo{{Sampler: 3, ImageView: 4}},
	}, 0))

	var indexes StageIndexTable
	indexes.Stages[metadata.ShaderStageFragment] = StageIndexes{TextureIndex: 10, SamplerIndex: 20}

	enc := &recordingEncoder{}
	require.NoError(t, d.bind(enc, lb, 1, indexes, nil, nil))

	assert.Empty(enc.buffers)
	require.Len(t, enc.textures, 1)
	require.Len(t, enc.samplers, 1)
	assert.Equal(boundTexture{Stage: metadata.ShaderStageFragment, TextureBinding: TextureBinding{Index: 11, ImageView: 4}}, enc.textures[0])
	assert.Equal(boundSampler{Stage: metadata.ShaderStageFragment, SamplerBinding: SamplerBinding{Index: 21, Sampler: 3}}, enc.samplers[0])
}

func TestDescriptor_NullBindIsNoop(t *testing.T) {
	for _, descType := range [...]metadata.DescriptorType{
		metadata.DescriptorTypeUniformBuffer,
		metadata.DescriptorTypeSampledImage,
		metadata.DescriptorTypeSampler,
		metadata.DescriptorTypeCombinedImageSampler,
		metadata.DescriptorTypeUniformTexelBuffer,
		metadata.DescriptorTypeInlineUniformBlock,
	} {
		t.Run(descType.String(), func(t *testing.T) {
			lb := newBinding(t, LayoutBindingInfo{
				DescriptorType:  descType,
				DescriptorCount: 4,
				StageFlags:      metadata.ShaderStageAllGraphics,
			})
			var d Descriptor
			d.setLayout(lb, 0)
			assert.True(t, d.IsNull())

			enc := &recordingEncoder{}
			require.NoError(t, d.bind(enc, lb, 0, StageIndexTable{}, nil, nil))
			assert.Zero(t, enc.callCount())
		})
	}
}

func TestDescriptor_NullDynamicBufferConsumesOffset(t *testing.T) {
	lb := newBinding(t, LayoutBindingInfo{
		DescriptorType:  metadata.DescriptorTypeUniformBufferDynamic,
		DescriptorCount: 1,
		StageFlags:      metadata.ShaderStageVertexBit,
	})
	var d Descriptor
	d.setLayout(lb, 0)

	enc := &recordingEncoder{}
	cursor := 0
	require.NoError(t, d.bind(enc, lb, 0, StageIndexTable{}, []uint32{256}, &cursor))
	assert.Equal(t, 1, cursor)
	assert.Zero(t, enc.callCount())

	// Nothing left for a second element.
	err := d.bind(enc, lb, 0, StageIndexTable{}, []uint32{256}, &cursor)
	assert.ErrorIs(t, err, core.ErrInvalidBinding)
}

func TestDescriptor_DynamicOffsetAddsToBufferOffset(t *testing.T) {
	lb := newBinding(t, LayoutBindingInfo{
		DescriptorType:  metadata.DescriptorTypeStorageBufferDynamic,
		DescriptorCount: 1,
		StageFlags:      metadata.ShaderStageComputeBit,
	})
	var d Descriptor
	d.setLayout(lb, 0)
	require.NoError(t, d.Write(&metadata.WriteDescriptorSet{
		DescriptorCount: 1,
		DescriptorType:  metadata.DescriptorTypeStorageBufferDynamic,
		BufferInfo:      []metadata.DescriptorBufferInfo{{Buffer: 5, Offset: 16, Range: 32}},
	}, 0))

	enc := &recordingEncoder{}
	cursor := 0
	require.NoError(t, d.bind(enc, lb, 0, StageIndexTable{}, []uint32{512}, &cursor))
	require.Len(t, enc.buffers, 1)
	assert.Equal(t, metadata.ShaderStageCompute, enc.buffers[0].Stage)
	assert.EqualValues(t, 528, enc.buffers[0].Offset)
}

func TestDescriptor_InlineBlock(t *testing.T) {
	assert := assert.New(t)

	lb := newBinding(t, LayoutBindingInfo{
		DescriptorType:  metadata.DescriptorTypeInlineUniformBlock,
		DescriptorCount: 8,
		StageFlags:      metadata.ShaderStageVertexBit,
	})
	var d Descriptor
	d.setLayout(lb, 0)

	w := metadata.WriteDescriptorSet{
		DstArrayElement:    2,
		DescriptorCount:    3,
		DescriptorType:     metadata.DescriptorTypeInlineUniformBlock,
		InlineUniformBlock: []byte{1, 2, 3, 4},
	}
	require.NoError(t, d.Write(&w, 0))

	out := metadata.DescriptorReadout{InlineUniformBlock: make([]byte, 8)}
	require.NoError(t, d.Read(0, &out))
	assert.Equal([]byte{0, 0, 1, 2, 3, 0, 0, 0}, out.InlineUniformBlock)

	w.DstArrayElement = 6
	assert.ErrorIs(d.Write(&w, 0), core.ErrInvalidBinding)

	enc := &recordingEncoder{}
	require.NoError(t, d.bind(enc, lb, 0, StageIndexTable{}, nil, nil))
	require.Len(t, enc.buffers, 1)
	assert.True(enc.buffers[0].IsInline)
	assert.Equal([]byte{0, 0, 1, 2, 3, 0, 0, 0}, enc.buffers[0].Bytes)
}

func TestDescriptor_TypeChangeResets(t *testing.T) {
	buffers := newBinding(t, LayoutBindingInfo{
		DescriptorType:  metadata.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      metadata.ShaderStageVertexBit,
	})
	images := newBinding(t, LayoutBindingInfo{
		DescriptorType:  metadata.DescriptorTypeSampledImage,
		DescriptorCount: 1,
		StageFlags:      metadata.ShaderStageVertexBit,
	})

	var d Descriptor
	d.setLayout(buffers, 0)
	require.NoError(t, d.Write(&metadata.WriteDescriptorSet{
		DescriptorCount: 1,
		DescriptorType:  metadata.DescriptorTypeUniformBuffer,
		BufferInfo:      []metadata.DescriptorBufferInfo{{Buffer: 1}},
	}, 0))
	assert.False(t, d.IsNull())

	d.setLayout(images, 0)
	assert.Equal(t, metadata.DescriptorTypeSampledImage, d.Type())
	assert.True(t, d.IsNull())

	err := d.Write(&metadata.WriteDescriptorSet{
		DescriptorCount: 1,
		DescriptorType:  metadata.DescriptorTypeUniformBuffer,
		BufferInfo:      []metadata.DescriptorBufferInfo{{Buffer: 1}},
	}, 0)
	assert.ErrorIs(t, err, core.ErrInvalidBinding)
}
