package metal

import (
	"bytes"

	"github.com/spaghettifunk/anima-bind/engine/core"
	"github.com/spaghettifunk/anima-bind/engine/renderer/descriptors"
	"github.com/spaghettifunk/anima-bind/engine/renderer/metadata"
)

/**
 * @brief Buffer, texture and sampler tables of one shader stage.
 */
type stageResources struct {
	buffers  bindingTable[descriptors.BufferBinding]
	textures bindingTable[descriptors.TextureBinding]
	samplers bindingTable[descriptors.SamplerBinding]
}

func newStageResources() stageResources {
	return stageResources{
		buffers: newBindingTable(func(a, b descriptors.BufferBinding) bool {
			// Inline bytes are copied on bind, so their content is what matters.
			return a.Buffer == b.Buffer && a.Offset == b.Offset && a.IsInline == b.IsInline && bytes.Equal(a.Bytes, b.Bytes)
		}),
		textures: newBindingTable(func(a, b descriptors.TextureBinding) bool { return a == b }),
		samplers: newBindingTable(func(a, b descriptors.SamplerBinding) bool { return a == b }),
	}
}

func (r *stageResources) ensure(counts descriptors.StageIndexes) {
	r.buffers.ensure(int(counts.BufferIndex))
	r.textures.ensure(int(counts.TextureIndex))
	r.samplers.ensure(int(counts.SamplerIndex))
}

func (r *stageResources) isDirty() bool {
	return r.buffers.isDirty() || r.textures.isDirty() || r.samplers.isDirty()
}

func (r *stageResources) markClean() {
	r.buffers.markClean()
	r.textures.markClean()
	r.samplers.markClean()
}

func (r *stageResources) markDirty() {
	r.buffers.markDirty()
	r.textures.markDirty()
	r.samplers.markDirty()
}

func (r *stageResources) reset() {
	r.buffers.reset()
	r.textures.reset()
	r.samplers.reset()
}

/**
 * @brief The resources currently attached to a command encoder, per stage and
 * per index. Graphics stages and the compute stage are tracked separately, since
 * they are encoded by different encoders.
 */
type ResourcesState struct {
	graphics [metadata.ShaderStageCompute]stageResources
	compute  stageResources
}

var _ descriptors.CommandEncoder = (*ResourcesState)(nil)

func NewResourcesState() *ResourcesState {
	s := &ResourcesState{compute: newStageResources()}
	for i := range s.graphics {
		s.graphics[i] = newStageResources()
	}
	return s
}

func (s *ResourcesState) stage(stage metadata.ShaderStage) *stageResources {
	switch {
	case stage == metadata.ShaderStageCompute:
		return &s.compute
	case stage >= 0 && stage < metadata.ShaderStageCompute:
		return &s.graphics[stage]
	}
	return nil
}

// Prepare sizes the tables for a pipeline layout. Every graphics stage gets room for
// the largest count of any stage; compute gets its own counts.
func (s *ResourcesState) Prepare(layout *descriptors.PipelineLayout) {
	counts := layout.ResourceCounts()
	graphics := descriptors.StageIndexes{
		BufferIndex:  counts.MaxBufferIndex(),
		TextureIndex: counts.MaxTextureIndex(),
		SamplerIndex: counts.MaxSamplerIndex(),
	}
	for i := range s.graphics {
		s.graphics[i].ensure(graphics)
	}
	s.compute.ensure(counts.Stage(metadata.ShaderStageCompute))
}

func (s *ResourcesState) BindBuffer(stage metadata.ShaderStage, b descriptors.BufferBinding) {
	r := s.stage(stage)
	if r == nil {
		core.LogWarn("buffer bind to unknown stage %d ignored", int(stage))
		return
	}
	if b.IsInline {
		b.Bytes = append([]byte(nil), b.Bytes...)
	}
	r.buffers.bind(b.Index, b)
}

func (s *ResourcesState) BindTexture(stage metadata.ShaderStage, b descriptors.TextureBinding) {
	r := s.stage(stage)
	if r == nil {
		core.LogWarn("texture bind to unknown stage %d ignored", int(stage))
		return
	}
	r.textures.bind(b.Index, b)
}

func (s *ResourcesState) BindSampler(stage metadata.ShaderStage, b descriptors.SamplerBinding) {
	r := s.stage(stage)
	if r == nil {
		core.LogWarn("sampler bind to unknown stage %d ignored", int(stage))
		return
	}
	r.samplers.bind(b.Index, b)
}

// BindPushConstants attaches data as an inline buffer at the push-constant index of
// every stage of layout that reads push constants.
func (s *ResourcesState) BindPushConstants(layout *descriptors.PipelineLayout, data []byte) {
	indexes := layout.PushConstantIndexes()
	for _, stage := range metadata.ShaderStages() {
		if layout.PushConstantStages().Has(stage) {
			s.BindBuffer(stage, descriptors.BufferBinding{
				Index:    indexes.Stage(stage).BufferIndex,
				Bytes:    data,
				IsInline: true,
			})
		}
	}
}

func (s *ResourcesState) Buffer(stage metadata.ShaderStage, index uint32) (descriptors.BufferBinding, bool) {
	if r := s.stage(stage); r != nil {
		return r.buffers.get(index)
	}
	return descriptors.BufferBinding{}, false
}

func (s *ResourcesState) Texture(stage metadata.ShaderStage, index uint32) (descriptors.TextureBinding, bool) {
	if r := s.stage(stage); r != nil {
		return r.textures.get(index)
	}
	return descriptors.TextureBinding{}, false
}

func (s *ResourcesState) Sampler(stage metadata.ShaderStage, index uint32) (descriptors.SamplerBinding, bool) {
	if r := s.stage(stage); r != nil {
		return r.samplers.get(index)
	}
	return descriptors.SamplerBinding{}, false
}

// Capacity returns the size of each table of a stage.
func (s *ResourcesState) Capacity(stage metadata.ShaderStage) descriptors.StageIndexes {
	r := s.stage(stage)
	if r == nil {
		return descriptors.StageIndexes{}
	}
	return descriptors.StageIndexes{
		BufferIndex:  uint32(r.buffers.len()),
		TextureIndex: uint32(r.textures.len()),
		SamplerIndex: uint32(r.samplers.len()),
	}
}

// IsDirty reports whether anything changed in stage since the last MarkClean.
func (s *ResourcesState) IsDirty(stage metadata.ShaderStage) bool {
	r := s.stage(stage)
	return r != nil && r.isDirty()
}

// DirtyBuffers returns the buffers of stage that changed since the last MarkClean, in index order.
func (s *ResourcesState) DirtyBuffers(stage metadata.ShaderStage) []descriptors.BufferBinding {
	if r := s.stage(stage); r != nil {
		return r.buffers.dirty()
	}
	return nil
}

func (s *ResourcesState) DirtyTextures(stage metadata.ShaderStage) []descriptors.TextureBinding {
	if r := s.stage(stage); r != nil {
		return r.textures.dirty()
	}
	return nil
}

func (s *ResourcesState) DirtySamplers(stage metadata.ShaderStage) []descriptors.SamplerBinding {
	if r := s.stage(stage); r != nil {
		return r.samplers.dirty()
	}
	return nil
}

// MarkClean clears the dirty flags of every stage, once their changes are encoded.
func (s *ResourcesState) MarkClean() {
	for i := range s.graphics {
		s.graphics[i].markClean()
	}
	s.compute.markClean()
}

// MarkDirty flags every bound resource as changed, as needed when a new encoder
// starts and nothing is attached to it yet.
func (s *ResourcesState) MarkDirty() {
	for i := range s.graphics {
		s.graphics[i].markDirty()
	}
	s.compute.markDirty()
}

// Reset unbinds everything. Table storage is kept.
func (s *ResourcesState) Reset() {
	for i := range s.graphics {
		s.graphics[i].reset()
	}
	s.compute.reset()
}
