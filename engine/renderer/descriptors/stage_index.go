package descriptors

import (
	"golang.org/x/exp/constraints"

	"github.com/spaghettifunk/anima-bind/engine/renderer/metadata"
)

/** @brief Resource indexes used by a single shader stage. */
type StageIndexes struct {
	BufferIndex  uint32
	TextureIndex uint32
	SamplerIndex uint32
}

func (s StageIndexes) Add(o StageIndexes) StageIndexes {
	return StageIndexes{
		BufferIndex:  s.BufferIndex + o.BufferIndex,
		TextureIndex: s.TextureIndex + o.TextureIndex,
		SamplerIndex: s.SamplerIndex + o.SamplerIndex,
	}
}

// Index returns the entry for one resource kind.
func (s StageIndexes) Index(kind metadata.ResourceKind) uint32 {
	switch kind {
	case metadata.ResourceKindBuffer:
		return s.BufferIndex
	case metadata.ResourceKindTexture:
		return s.TextureIndex
	case metadata.ResourceKindSampler:
		return s.SamplerIndex
	}
	return 0
}

/**
 * @brief Resource indexes used by each shader stage. Depending on context the
 * entries are either counts (how many indexes are consumed) or base offsets
 * (where a binding or set starts).
 */
type StageIndexTable struct {
	Stages [metadata.ShaderStageMax]StageIndexes
}

func (t StageIndexTable) Add(o StageIndexTable) StageIndexTable {
	var r StageIndexTable
	for i := range t.Stages {
		r.Stages[i] = t.Stages[i].Add(o.Stages[i])
	}
	return r
}

// Stage returns the entry for one stage.
func (t StageIndexTable) Stage(stage metadata.ShaderStage) StageIndexes {
	return t.Stages[stage]
}

// MaxBufferIndex returns the largest buffer count across all stages.
func (t StageIndexTable) MaxBufferIndex() uint32 {
	return maxAcross(t, func(s StageIndexes) uint32 { return s.BufferIndex })
}

// MaxTextureIndex returns the largest texture count across all stages.
func (t StageIndexTable) MaxTextureIndex() uint32 {
	return maxAcross(t, func(s StageIndexes) uint32 { return s.TextureIndex })
}

// MaxSamplerIndex returns the largest sampler count across all stages.
func (t StageIndexTable) MaxSamplerIndex() uint32 {
	return maxAcross(t, func(s StageIndexes) uint32 { return s.SamplerIndex })
}

func maxAcross[T constraints.Unsigned](t StageIndexTable, pick func(StageIndexes) T) T {
	var m T
	for _, s := range t.Stages {
		if v := pick(s); v > m {
			m = v
		}
	}
	return m
}
