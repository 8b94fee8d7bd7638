package descriptors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/anima-bind/engine/renderer/metadata"
)

func TestStageIndexTable_Add(t *testing.T) {
	assert := assert.New(t)

	var a, b StageIndexTable
	a.Stages[metadata.ShaderStageVertex] = StageIndexes{BufferIndex: 2, TextureIndex: 1}
	b.Stages[metadata.ShaderStageVertex] = StageIndexes{BufferIndex: 1, SamplerIndex: 3}
	b.Stages[metadata.ShaderStageCompute] = StageIndexes{TextureIndex: 4}

	sum := a.Add(b)
	assert.Equal(StageIndexes{BufferIndex: 3, TextureIndex: 1, SamplerIndex: 3}, sum.Stage(metadata.ShaderStageVertex))
	assert.Equal(StageIndexes{TextureIndex: 4}, sum.Stage(metadata.ShaderStageCompute))
	assert.Equal(StageIndexes{}, sum.Stage(metadata.ShaderStageFragment))

	// Operands are values and stay untouched.
	assert.Equal(StageIndexes{BufferIndex: 2, TextureIndex: 1}, a.Stage(metadata.ShaderStageVertex))
}

func TestStageIndexTable_Maxima(t *testing.T) {
	assert := assert.New(t)

	var tbl StageIndexTable
	assert.Zero(tbl.MaxBufferIndex())
	assert.Zero(tbl.MaxTextureIndex())
	assert.Zero(tbl.MaxSamplerIndex())

	tbl.Stages[metadata.ShaderStageVertex] = StageIndexes{BufferIndex: 5, TextureIndex: 1, SamplerIndex: 0}
	tbl.Stages[metadata.ShaderStageFragment] = StageIndexes{BufferIndex: 2, TextureIndex: 7, SamplerIndex: 3}
	tbl.Stages[metadata.ShaderStageCompute] = StageIndexes{SamplerIndex: 9}

	assert.EqualValues(5, tbl.MaxBufferIndex())
	assert.EqualValues(7, tbl.MaxTextureIndex())
	assert.EqualValues(9, tbl.MaxSamplerIndex())
}

func TestStageIndexes_Index(t *testing.T) {
	s := StageIndexes{BufferIndex: 1, TextureIndex: 2, SamplerIndex: 3}
	assert.EqualValues(t, 1, s.Index(metadata.ResourceKindBuffer))
	assert.EqualValues(t, 2, s.Index(metadata.ResourceKindTexture))
	assert.EqualValues(t, 3, s.Index(metadata.ResourceKindSampler))
}
