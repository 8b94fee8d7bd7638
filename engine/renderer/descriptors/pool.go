package descriptors

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/anima-bind/engine/containers"
	"github.com/spaghettifunk/anima-bind/engine/core"
)

// DescriptorPool hands out descriptor sets and takes them back for reuse.
// Freed sets are recycled in place, oldest first, for the next allocation
// whatever its layout.
type DescriptorPool struct {
	config    *core.Config
	maxSets   int
	allocated map[uuid.UUID]*DescriptorSet
	free      *containers.RingQueue[*DescriptorSet]
}

func NewDescriptorPool(maxSets int, cfg *core.Config) *DescriptorPool {
	return &DescriptorPool{
		config:    cfg,
		maxSets:   maxSets,
		allocated: make(map[uuid.UUID]*DescriptorSet, maxSets),
		// a pool never creates more than maxSets sets, so the free list cannot overflow
		free: containers.NewRingQueue[*DescriptorSet](maxSets),
	}
}

// Allocate returns a set shaped for layout.
func (p *DescriptorPool) Allocate(layout *DescriptorSetLayout) (*DescriptorSet, error) {
	if layout.IsPushDescriptorLayout() {
		err := fmt.Errorf("%w: sets cannot be allocated from push descriptor layout %s", core.ErrInvalidBinding, layout.ID())
		core.LogError(err.Error())
		return nil, err
	}
	if len(p.allocated) >= p.maxSets {
		err := fmt.Errorf("%w: %d of %d sets in use", core.ErrOutOfPoolMemory, len(p.allocated), p.maxSets)
		core.LogError(err.Error())
		return nil, err
	}

	set, err := p.free.Dequeue()
	if err == nil {
		set.allocate(layout)
		core.LogDebug("descriptor set %s recycled for layout %s", set.id, layout.ID())
	} else {
		set = NewDescriptorSet(layout, p.config)
	}
	set.pool = p
	p.allocated[set.id] = set
	return set, nil
}

// Free returns a set to the pool. The set must not be used afterwards.
func (p *DescriptorPool) Free(set *DescriptorSet) error {
	if set.pool != p {
		err := fmt.Errorf("descriptor set %s does not belong to this pool", set.id)
		core.LogError(err.Error())
		return err
	}
	delete(p.allocated, set.id)
	p.recycle(set)
	return nil
}

// Reset frees every allocated set at once.
func (p *DescriptorPool) Reset() {
	for id, set := range p.allocated {
		delete(p.allocated, id)
		p.recycle(set)
	}
}

func (p *DescriptorPool) recycle(set *DescriptorSet) {
	set.release()
	set.pool = nil
	if err := p.free.Enqueue(set); err != nil {
		core.LogWarn("descriptor set %s dropped: %s", set.id, err)
	}
}

// AllocatedCount returns the number of sets currently in use.
func (p *DescriptorPool) AllocatedCount() int { return len(p.allocated) }
