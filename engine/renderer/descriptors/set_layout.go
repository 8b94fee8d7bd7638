package descriptors

import (
	"cmp"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/anima-bind/engine/core"
	"github.com/spaghettifunk/anima-bind/engine/renderer/metadata"
)

/**
 * @brief Input describing a descriptor set layout.
 */
type DescriptorSetLayoutInfo struct {
	/** @brief The bindings, in any order. They are laid out by ascending binding number. */
	Bindings []LayoutBindingInfo
	/** @brief Marks a layout whose descriptors are only ever pushed, never allocated. */
	PushDescriptor bool
}

/**
 * @brief A descriptor set layout: its bindings, in binding-number order, each
 * placed after the resource indexes consumed by the bindings before it.
 */
type DescriptorSetLayout struct {
	/** @brief Identity shared with the clones held by pipeline layouts. */
	id       uuid.UUID
	bindings []*LayoutBinding
	/** @brief Binding number to position in bindings. */
	bindingToIndex map[uint32]int
	/** @brief Binding number to the first descriptor slot of the binding in a set. */
	bindingToDescriptorIndex map[uint32]uint32
	descriptorCount          uint32
	dynamicOffsetCount       uint32
	resourceCounts           StageIndexTable
	isPushDescriptorLayout   bool
}

func NewDescriptorSetLayout(info DescriptorSetLayoutInfo, cfg *core.Config) (*DescriptorSetLayout, error) {
	infos := slices.Clone(info.Bindings)
	slices.SortStableFunc(infos, func(a, b LayoutBindingInfo) int {
		return cmp.Compare(a.Binding, b.Binding)
	})

	sl := &DescriptorSetLayout{
		id:                       uuid.New(),
		bindings:                 make([]*LayoutBinding, 0, len(infos)),
		bindingToIndex:           make(map[uint32]int, len(infos)),
		bindingToDescriptorIndex: make(map[uint32]uint32, len(infos)),
		isPushDescriptorLayout:   info.PushDescriptor,
	}

	// Each binding starts where the previous ones left off.
	var accumulated StageIndexTable
	for i, bi := range infos {
		if i > 0 && infos[i-1].Binding == bi.Binding {
			err := fmt.Errorf("%w: binding number %d is declared more than once", core.ErrInvalidBinding, bi.Binding)
			core.LogError(err.Error())
			return nil, err
		}
		lb, err := NewLayoutBinding(bi, accumulated, cfg.Features)
		if err != nil {
			return nil, err
		}
		accumulated = accumulated.Add(lb.ResourceCounts())

		sl.bindingToIndex[bi.Binding] = len(sl.bindings)
		sl.bindingToDescriptorIndex[bi.Binding] = sl.descriptorCount
		sl.bindings = append(sl.bindings, lb)
		sl.descriptorCount += lb.DescriptorCount()
		sl.dynamicOffsetCount += lb.DynamicOffsetCount()
	}
	sl.resourceCounts = accumulated

	core.LogDebug("descriptor set layout %s: %d bindings, %d descriptors, %d dynamic offsets",
		sl.id, len(sl.bindings), sl.descriptorCount, sl.dynamicOffsetCount)
	return sl, nil
}

// clone copies the layout for aggregation into a pipeline layout. The clone keeps the identity.
func (sl *DescriptorSetLayout) clone() *DescriptorSetLayout {
	c := *sl
	c.bindings = make([]*LayoutBinding, len(sl.bindings))
	for i, lb := range sl.bindings {
		c.bindings[i] = lb.Clone()
	}
	return &c
}

func (sl *DescriptorSetLayout) ID() uuid.UUID { return sl.id }

// Bindings returns the bindings in binding-number order. The slice must not be modified.
func (sl *DescriptorSetLayout) Bindings() []*LayoutBinding { return sl.bindings }

// Binding returns the layout binding with the given binding number.
func (sl *DescriptorSetLayout) Binding(binding uint32) (*LayoutBinding, bool) {
	i, ok := sl.bindingToIndex[binding]
	if !ok {
		return nil, false
	}
	return sl.bindings[i], true
}

// DescriptorCount returns the number of descriptor slots in a set of this layout.
func (sl *DescriptorSetLayout) DescriptorCount() uint32 { return sl.descriptorCount }

// DescriptorIndex returns the flat slot of an element of a binding.
func (sl *DescriptorSetLayout) DescriptorIndex(binding, arrayElement uint32) (uint32, bool) {
	start, ok := sl.bindingToDescriptorIndex[binding]
	if !ok {
		return 0, false
	}
	return start + arrayElement, true
}

func (sl *DescriptorSetLayout) DynamicOffsetCount() uint32 { return sl.dynamicOffsetCount }

// ResourceCounts returns the indexes consumed by the whole layout, per stage.
func (sl *DescriptorSetLayout) ResourceCounts() StageIndexTable { return sl.resourceCounts }

func (sl *DescriptorSetLayout) IsPushDescriptorLayout() bool { return sl.isPushDescriptorLayout }

// IsCompatible reports whether sets allocated from other can be bound where sl is expected.
func (sl *DescriptorSetLayout) IsCompatible(other *DescriptorSetLayout) bool {
	return other != nil && sl.id == other.id
}

// BindDescriptorSet attaches every descriptor of set, binding by binding, using the
// set's base offsets within the pipeline layout.
func (sl *DescriptorSetLayout) BindDescriptorSet(
	enc CommandEncoder,
	set *DescriptorSet,
	setOffsets StageIndexTable,
	dynamicOffsets []uint32,
	cursor *int) error {

	if sl.isPushDescriptorLayout {
		return nil
	}
	if !sl.IsCompatible(set.Layout()) {
		err := fmt.Errorf("%w: set %s was allocated from layout %s, expected %s",
			core.ErrIncompatibleLayout, set.ID(), set.Layout().ID(), sl.id)
		core.LogError(err.Error())
		return err
	}

	var start uint32
	for _, lb := range sl.bindings {
		n, err := lb.Bind(enc, set, start, setOffsets, dynamicOffsets, cursor)
		if err != nil {
			return err
		}
		start += n
	}
	return nil
}

// PushDescriptorSet writes and attaches the writes immediately. A write that does not
// fit in its destination binding continues into the following bindings.
func (sl *DescriptorSetLayout) PushDescriptorSet(enc CommandEncoder, writes []metadata.WriteDescriptorSet, setOffsets StageIndexTable) error {
	if !sl.isPushDescriptorLayout {
		err := fmt.Errorf("%w: layout %s is not a push descriptor layout", core.ErrInvalidBinding, sl.id)
		core.LogError(err.Error())
		return err
	}

	for i := range writes {
		w := &writes[i]
		first, ok := sl.bindingToIndex[w.DstBinding]
		if !ok {
			err := fmt.Errorf("%w: push to undeclared binding %d", core.ErrInvalidBinding, w.DstBinding)
			core.LogError(err.Error())
			return err
		}

		state := PushState{DstArrayElement: w.DstArrayElement, DescriptorCount: w.DescriptorCount}
		for b := first; state.DescriptorCount > 0; b++ {
			if b >= len(sl.bindings) {
				err := fmt.Errorf("%w: %d descriptors pushed from binding %d do not fit the layout",
					core.ErrInvalidBinding, state.DescriptorCount, w.DstBinding)
				core.LogError(err.Error())
				return err
			}
			if err := sl.bindings[b].Push(enc, w, &state, setOffsets); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkPushEligibility rejects bindings that cannot be served without persisted storage.
func (sl *DescriptorSetLayout) checkPushEligibility(limits core.LimitsConfig) error {
	for _, lb := range sl.bindings {
		if lb.DescriptorType().IsDynamic() {
			return fmt.Errorf("%w: push descriptor layout declares %s binding %d",
				core.ErrInvalidBinding, lb.DescriptorType(), lb.Binding())
		}
		if size := lb.InlineBlockSize(); size > limits.MaxPushInlineBlockSize {
			return fmt.Errorf("%w: inline uniform block binding %d is %d bytes, push limit is %d",
				core.ErrInvalidBinding, lb.Binding(), size, limits.MaxPushInlineBlockSize)
		}
	}
	return nil
}

// PopulateShaderConverterContext records the mapping of every binding of the layout at setIndex.
func (sl *DescriptorSetLayout) PopulateShaderConverterContext(ctx *ShaderConverterContext, setOffsets StageIndexTable, setIndex uint32) {
	for _, lb := range sl.bindings {
		lb.PopulateShaderConverterContext(ctx, setOffsets, setIndex)
	}
}
