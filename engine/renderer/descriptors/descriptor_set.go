package descriptors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/anima-bind/engine/core"
	"github.com/spaghettifunk/anima-bind/engine/renderer/metadata"
)

/**
 * @brief A descriptor set: one descriptor per (binding, array element) of its
 * layout, in binding-number order then element order.
 */
type DescriptorSet struct {
	id          uuid.UUID
	layout      *DescriptorSetLayout
	pool        *DescriptorPool
	descriptors []Descriptor
	/** @brief Report immutable sampler violations as warnings. */
	strict bool
}

// NewDescriptorSet creates a set for layout outside of any pool.
func NewDescriptorSet(layout *DescriptorSetLayout, cfg *core.Config) *DescriptorSet {
	s := &DescriptorSet{id: uuid.New(), strict: cfg.Strict}
	s.allocate(layout)
	return s
}

// allocate shapes the set for layout. Existing storage is reused when it is large
// enough; slots past the new length are reset.
func (s *DescriptorSet) allocate(layout *DescriptorSetLayout) {
	n := int(layout.DescriptorCount())
	for i := n; i < len(s.descriptors); i++ {
		s.descriptors[i].reset()
	}
	if cap(s.descriptors) >= n {
		s.descriptors = s.descriptors[:n]
	} else {
		grown := make([]Descriptor, n)
		copy(grown, s.descriptors)
		s.descriptors = grown
	}

	s.layout = layout
	var index uint32
	for _, lb := range layout.Bindings() {
		for e := uint32(0); e < lb.DescriptorCount(); e++ {
			s.descriptors[index].reset()
			s.descriptors[index].setLayout(lb, e)
			index++
		}
	}
}

// release resets every slot, keeping the storage for the next allocation.
func (s *DescriptorSet) release() {
	for i := range s.descriptors {
		s.descriptors[i].reset()
	}
}

func (s *DescriptorSet) ID() uuid.UUID { return s.id }

func (s *DescriptorSet) Layout() *DescriptorSetLayout { return s.layout }

func (s *DescriptorSet) DescriptorCount() uint32 { return uint32(len(s.descriptors)) }

// DescriptorAt returns the descriptor at a flat index, or nil when out of range.
func (s *DescriptorSet) DescriptorAt(index uint32) *Descriptor {
	if int(index) >= len(s.descriptors) {
		return nil
	}
	return &s.descriptors[index]
}

// span resolves a (binding, element, count) range to flat slots, checking that
// every slot holds descType.
func (s *DescriptorSet) span(binding, arrayElement, count uint32, descType metadata.DescriptorType) (uint32, error) {
	start, ok := s.layout.DescriptorIndex(binding, arrayElement)
	if !ok {
		return 0, fmt.Errorf("%w: set %s has no binding %d", core.ErrInvalidBinding, s.id, binding)
	}
	if uint64(start)+uint64(count) > uint64(len(s.descriptors)) {
		return 0, fmt.Errorf("%w: %d descriptors from binding %d element %d overrun set %s",
			core.ErrInvalidBinding, count, binding, arrayElement, s.id)
	}
	for i := start; i < start+count; i++ {
		if t := s.descriptors[i].Type(); t != descType {
			return 0, fmt.Errorf("%w: slot %d of set %s holds %s, not %s", core.ErrInvalidBinding, i, s.id, t, descType)
		}
	}
	return start, nil
}

// Write applies w. Descriptors beyond the end of the destination binding continue
// into the next bindings, which must hold the same type. Nothing is modified when
// the write is malformed.
func (s *DescriptorSet) Write(w *metadata.WriteDescriptorSet) error {
	if w.DescriptorType == metadata.DescriptorTypeInlineUniformBlock {
		start, err := s.span(w.DstBinding, 0, 1, w.DescriptorType)
		if err != nil {
			core.LogError(err.Error())
			return err
		}
		if err := s.descriptors[start].Write(w, 0); err != nil {
			core.LogError(err.Error())
			return err
		}
		return nil
	}

	if w.RecordCount() < int(w.DescriptorCount) {
		err := fmt.Errorf("%w: write of %d %s descriptors carries %d records",
			core.ErrInvalidBinding, w.DescriptorCount, w.DescriptorType, w.RecordCount())
		core.LogError(err.Error())
		return err
	}
	start, err := s.span(w.DstBinding, w.DstArrayElement, w.DescriptorCount, w.DescriptorType)
	if err != nil {
		core.LogError(err.Error())
		return err
	}

	for i := uint32(0); i < w.DescriptorCount; i++ {
		err := s.descriptors[start+i].Write(w, i)
		if errors.Is(err, core.ErrImmutableSamplerViolation) {
			s.reportImmutableSamplerViolation(start + i)
			continue
		}
		if err != nil {
			core.LogError(err.Error())
			return err
		}
	}
	return nil
}

func (s *DescriptorSet) reportImmutableSamplerViolation(slot uint32) {
	if s.strict {
		core.LogWarn("set %s slot %d: sampler write ignored, the layout declares an immutable sampler", s.id, slot)
		return
	}
	core.LogDebug("set %s slot %d: sampler write ignored, the layout declares an immutable sampler", s.id, slot)
}

// Read exports count descriptors starting at (binding, arrayElement) into out.
// For inline uniform blocks arrayElement is a byte offset and count is ignored;
// the bytes copied are bounded by len(out.InlineUniformBlock).
func (s *DescriptorSet) Read(binding, arrayElement, count uint32, out *metadata.DescriptorReadout) error {
	lb, ok := s.layout.Binding(binding)
	if !ok {
		err := fmt.Errorf("%w: set %s has no binding %d", core.ErrInvalidBinding, s.id, binding)
		core.LogError(err.Error())
		return err
	}

	if lb.DescriptorType() == metadata.DescriptorTypeInlineUniformBlock {
		start, _ := s.layout.DescriptorIndex(binding, 0)
		return s.descriptors[start].Read(arrayElement, out)
	}

	start, err := s.span(binding, arrayElement, count, lb.DescriptorType())
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	for i := uint32(0); i < count; i++ {
		if err := s.descriptors[start+i].Read(i, out); err != nil {
			core.LogError(err.Error())
			return err
		}
	}
	return nil
}

// Copy copies descriptors from src into s. Immutable samplers of s stay in place.
func (s *DescriptorSet) Copy(src *DescriptorSet, c metadata.CopyDescriptorSet) error {
	lb, ok := src.layout.Binding(c.SrcBinding)
	if !ok {
		err := fmt.Errorf("%w: source set %s has no binding %d", core.ErrInvalidBinding, src.id, c.SrcBinding)
		core.LogError(err.Error())
		return err
	}
	descType := lb.DescriptorType()

	if descType == metadata.DescriptorTypeInlineUniformBlock {
		block := make([]byte, c.DescriptorCount)
		if err := src.Read(c.SrcBinding, c.SrcArrayElement, 1, &metadata.DescriptorReadout{InlineUniformBlock: block}); err != nil {
			return err
		}
		return s.Write(&metadata.WriteDescriptorSet{
			DstBinding:         c.DstBinding,
			DstArrayElement:    c.DstArrayElement,
			DescriptorCount:    c.DescriptorCount,
			DescriptorType:     descType,
			InlineUniformBlock: block,
		})
	}

	out := metadata.DescriptorReadout{
		ImageInfo:       make([]metadata.DescriptorImageInfo, c.DescriptorCount),
		BufferInfo:      make([]metadata.DescriptorBufferInfo, c.DescriptorCount),
		TexelBufferView: make([]metadata.BufferViewHandle, c.DescriptorCount),
	}
	if err := src.Read(c.SrcBinding, c.SrcArrayElement, c.DescriptorCount, &out); err != nil {
		return err
	}

	w := metadata.WriteDescriptorSet{
		DstBinding:      c.DstBinding,
		DstArrayElement: c.DstArrayElement,
		DescriptorCount: c.DescriptorCount,
		DescriptorType:  descType,
		ImageInfo:       out.ImageInfo,
		BufferInfo:      out.BufferInfo,
		TexelBufferView: out.TexelBufferView,
	}
	// Immutable samplers of the destination are left alone rather than reported.
	if dst, ok := s.layout.Binding(c.DstBinding); ok && descType.UsesSampler() && dst.HasImmutableSamplers() {
		for i := range w.ImageInfo {
			w.ImageInfo[i].Sampler = metadata.NullHandle
		}
	}
	return s.Write(&w)
}
