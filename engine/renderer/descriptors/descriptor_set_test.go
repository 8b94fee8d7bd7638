package descriptors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-bind/engine/core"
	"github.com/spaghettifunk/anima-bind/engine/renderer/metadata"
)

const handleA metadata.BufferHandle = 0xA

// uniformsAndTexture has two fragment uniform buffers at binding 0 and a
// combined image-sampler at binding 1.
func uniformsAndTexture(t *testing.T) *DescriptorSetLayout {
	return mustSetLayout(t, false,
		LayoutBindingInfo{
			Binding:         1,
			DescriptorType:  metadata.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      metadata.ShaderStageFragmentBit,
		},
		LayoutBindingInfo{
			Binding:         0,
			DescriptorType:  metadata.DescriptorTypeUniformBuffer,
			DescriptorCount: 2,
			StageFlags:      metadata.ShaderStageFragmentBit,
		},
	)
}

func TestDescriptorSet_WriteReadBack(t *testing.T) {
	assert := assert.New(t)

	sl := uniformsAndTexture(t)
	lb, ok := sl.Binding(1)
	require.True(t, ok)
	offsets := lb.ResourceIndexOffsets()
	assert.Equal(StageIndexes{BufferIndex: 2}, offsets.Stage(metadata.ShaderStageFragment))

	set := NewDescriptorSet(sl, testConfig())
	assert.EqualValues(3, set.DescriptorCount())

	w := bufferWrite(0, 1, metadata.DescriptorBufferInfo{Buffer: handleA, Offset: 0, Range: 64})
	require.NoError(t, set.Write(&w))

	out := metadata.DescriptorReadout{BufferInfo: make([]metadata.DescriptorBufferInfo, 2)}
	require.NoError(t, set.Read(0, 0, 2, &out))
	assert.Equal(metadata.DescriptorBufferInfo{}, out.BufferInfo[0])
	assert.Equal(metadata.DescriptorBufferInfo{Buffer: handleA, Offset: 0, Range: 64}, out.BufferInfo[1])
}

func TestDescriptorSet_BindAttachesAtIndexes(t *testing.T) {
	assert := assert.New(t)

	sl := uniformsAndTexture(t)
	set := NewDescriptorSet(sl, testConfig())

	w := bufferWrite(0, 1, metadata.DescriptorBufferInfo{Buffer: handleA, Offset: 0, Range: 64})
	require.NoError(t, set.Write(&w))
	require.NoError(t, set.Write(&metadata.WriteDescriptorSet{
		DstBinding:      1,
		DescriptorCount: 1,
		DescriptorType:  metadata.DescriptorTypeCombinedImageSampler,
		ImageInfo:       []metadata.DescriptorImageInfo{{Sampler: 2, ImageView: 3}},
	}))

	var setOffsets StageIndexTable
	setOffsets.Stages[metadata.ShaderStageFragment] = StageIndexes{BufferIndex: 1, TextureIndex: 1, SamplerIndex: 1}

	enc := &recordingEncoder{}
	cursor := 0
	require.NoError(t, sl.BindDescriptorSet(enc, set, setOffsets, nil, &cursor))

	require.Len(t, enc.buffers, 1)
	assert.Equal(metadata.ShaderStageFragment, enc.buffers[0].Stage)
	assert.EqualValues(2, enc.buffers[0].Index)
	assert.Equal(handleA, enc.buffers[0].Buffer)
	require.Len(t, enc.textures, 1)
	assert.EqualValues(1, enc.textures[0].Index)
	require.Len(t, enc.samplers, 1)
	assert.EqualValues(1, enc.samplers[0].Index)
}

func TestDescriptorSet_WriteContinuesIntoNextBinding(t *testing.T) {
	assert := assert.New(t)

	sl := mustSetLayout(t, false,
		LayoutBindingInfo{Binding: 0, DescriptorType: metadata.DescriptorTypeUniformBuffer, DescriptorCount: 2, StageFlags: metadata.ShaderStageVertexBit},
		LayoutBindingInfo{Binding: 1, DescriptorType: metadata.DescriptorTypeUniformBuffer, DescriptorCount: 2, StageFlags: metadata.ShaderStageVertexBit},
		LayoutBindingInfo{Binding: 2, DescriptorType: metadata.DescriptorTypeSampledImage, DescriptorCount: 1, StageFlags: metadata.ShaderStageVertexBit},
	)
	set := NewDescriptorSet(sl, testConfig())

	w := bufferWrite(0, 1,
		metadata.DescriptorBufferInfo{Buffer: 1},
		metadata.DescriptorBufferInfo{Buffer: 2},
		metadata.DescriptorBufferInfo{Buffer: 3},
	)
	require.NoError(t, set.Write(&w))

	out := metadata.DescriptorReadout{BufferInfo: make([]metadata.DescriptorBufferInfo, 2)}
	require.NoError(t, set.Read(1, 0, 2, &out))
	assert.Equal(metadata.BufferHandle(2), out.BufferInfo[0].Buffer)
	assert.Equal(metadata.BufferHandle(3), out.BufferInfo[1].Buffer)

	// Running into the image binding fails and leaves every slot untouched.
	w = bufferWrite(1, 0,
		metadata.DescriptorBufferInfo{Buffer: 7},
		metadata.DescriptorBufferInfo{Buffer: 8},
		metadata.DescriptorBufferInfo{Buffer: 9},
	)
	assert.ErrorIs(set.Write(&w), core.ErrInvalidBinding)
	require.NoError(t, set.Read(1, 0, 2, &out))
	assert.Equal(metadata.BufferHandle(2), out.BufferInfo[0].Buffer)
	assert.Equal(metadata.BufferHandle(3), out.BufferInfo[1].Buffer)
}

func TestDescriptorSet_WriteValidation(t *testing.T) {
	sl := uniformsAndTexture(t)
	set := NewDescriptorSet(sl, testConfig())

	w := bufferWrite(4, 0, metadata.DescriptorBufferInfo{Buffer: 1})
	assert.ErrorIs(t, set.Write(&w), core.ErrInvalidBinding)

	w = bufferWrite(0, 0, metadata.DescriptorBufferInfo{Buffer: 1})
	w.DescriptorCount = 2
	assert.ErrorIs(t, set.Write(&w), core.ErrInvalidBinding)

	w = bufferWrite(0, 0, metadata.DescriptorBufferInfo{Buffer: 1})
	w.DescriptorType = metadata.DescriptorTypeStorageBuffer
	assert.ErrorIs(t, set.Write(&w), core.ErrInvalidBinding)
}

func TestDescriptorSet_ImmutableSamplerWriteIsIgnored(t *testing.T) {
	sl := mustSetLayout(t, false, LayoutBindingInfo{
		Binding:           0,
		DescriptorType:    metadata.DescriptorTypeSampler,
		DescriptorCount:   1,
		StageFlags:        metadata.ShaderStageFragmentBit,
		ImmutableSamplers: []metadata.SamplerHandle{7},
	})
	cfg := testConfig()
	cfg.Strict = true
	set := NewDescriptorSet(sl, cfg)

	require.NoError(t, set.Write(&metadata.WriteDescriptorSet{
		DescriptorCount: 1,
		DescriptorType:  metadata.DescriptorTypeSampler,
		ImageInfo:       []metadata.DescriptorImageInfo{{Sampler: 9}},
	}))

	out := metadata.DescriptorReadout{ImageInfo: make([]metadata.DescriptorImageInfo, 1)}
	require.NoError(t, set.Read(0, 0, 1, &out))
	assert.EqualValues(t, 7, out.ImageInfo[0].Sampler)
}

func TestDescriptorSet_InlineBlockReadWrite(t *testing.T) {
	sl := mustSetLayout(t, false,
		LayoutBindingInfo{Binding: 0, DescriptorType: metadata.DescriptorTypeInlineUniformBlock, DescriptorCount: 16, StageFlags: metadata.ShaderStageFragmentBit},
		LayoutBindingInfo{Binding: 1, DescriptorType: metadata.DescriptorTypeUniformBuffer, DescriptorCount: 1, StageFlags: metadata.ShaderStageFragmentBit},
	)
	assert.EqualValues(t, 2, sl.DescriptorCount())
	set := NewDescriptorSet(sl, testConfig())

	require.NoError(t, set.Write(&metadata.WriteDescriptorSet{
		DstBinding:         0,
		DstArrayElement:    4,
		DescriptorCount:    4,
		DescriptorType:     metadata.DescriptorTypeInlineUniformBlock,
		InlineUniformBlock: []byte{0xde, 0xad, 0xbe, 0xef},
	}))

	out := metadata.DescriptorReadout{InlineUniformBlock: make([]byte, 4)}
	require.NoError(t, set.Read(0, 4, 4, &out))
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, out.InlineUniformBlock)
}

func TestDescriptorSet_Copy(t *testing.T) {
	assert := assert.New(t)

	src := NewDescriptorSet(uniformsAndTexture(t), testConfig())
	dst := NewDescriptorSet(uniformsAndTexture(t), testConfig())

	w := bufferWrite(0, 0,
		metadata.DescriptorBufferInfo{Buffer: 1, Range: 16},
		metadata.DescriptorBufferInfo{Buffer: 2, Range: 32},
	)
	require.NoError(t, src.Write(&w))

	require.NoError(t, dst.Copy(src, metadata.CopyDescriptorSet{
		SrcBinding:      0,
		SrcArrayElement: 1,
		DstBinding:      0,
		DstArrayElement: 0,
		DescriptorCount: 1,
	}))

	out := metadata.DescriptorReadout{BufferInfo: make([]metadata.DescriptorBufferInfo, 2)}
	require.NoError(t, dst.Read(0, 0, 2, &out))
	assert.Equal(metadata.DescriptorBufferInfo{Buffer: 2, Range: 32}, out.BufferInfo[0])
	assert.Equal(metadata.DescriptorBufferInfo{}, out.BufferInfo[1])
}

func TestDescriptorSet_CopyKeepsImmutableSamplers(t *testing.T) {
	plain := mustSetLayout(t, false, LayoutBindingInfo{
		DescriptorType:  metadata.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		StageFlags:      metadata.ShaderStageFragmentBit,
	})
	baked := mustSetLayout(t, false, LayoutBindingInfo{
		DescriptorType:    metadata.DescriptorTypeCombinedImageSampler,
		DescriptorCount:   1,
		StageFlags:        metadata.ShaderStageFragmentBit,
		ImmutableSamplers: []metadata.SamplerHandle{7},
	})
	src := NewDescriptorSet(plain, testConfig())
	dst := NewDescriptorSet(baked, testConfig())

	require.NoError(t, src.Write(&metadata.WriteDescriptorSet{
		DescriptorCount: 1,
		DescriptorType:  metadata.DescriptorTypeCombinedImageSampler,
		ImageInfo:       []metadata.DescriptorImageInfo{{Sampler: 9, ImageView: 4}},
	}))
	require.NoError(t, dst.Copy(src, metadata.CopyDescriptorSet{DescriptorCount: 1}))

	out := metadata.DescriptorReadout{ImageInfo: make([]metadata.DescriptorImageInfo, 1)}
	require.NoError(t, dst.Read(0, 0, 1, &out))
	assert.EqualValues(t, 7, out.ImageInfo[0].Sampler)
	assert.EqualValues(t, 4, out.ImageInfo[0].ImageView)
}
