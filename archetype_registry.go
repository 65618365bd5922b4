package silo

import (
	"sort"

	"github.com/TheBitDrifter/mask"
	"github.com/kamstrup/intmap"
)

// ArchetypeIndex is the stable, append-only index of an archetype
// within one ArchetypeRegistry.
type ArchetypeIndex uint16

type bucketEntry struct {
	id    ArchetypeId
	index ArchetypeIndex
}

// ArchetypeRegistry is the deduplicating catalogue of archetypes for
// one storage instance. archetypes is append-only and indexed by
// ArchetypeIndex; buckets[n] holds, for every registered archetype of
// arity n, a (ArchetypeId, ArchetypeIndex) pair sorted ascending by
// id, so a lookup restricted to one arity is a binary search.
//
// Because archetypes are stored as pointers, appending to archetypes
// never invalidates a previously returned *Archetype even when the
// backing slice is reallocated -- find_or_create_adding/removing can
// simply hand back two ordinary pointers instead of juggling disjoint
// borrows.
type ArchetypeRegistry struct {
	archetypes []*Archetype
	slotMasks  []mask.Mask
	buckets    [MaxComponentsPerEntity + 1][]bucketEntry

	byID *intmap.Map[ArchetypeId, ArchetypeIndex]

	componentSlots map[ComponentTypeId]uint32
	nextSlot       uint32

	locks mask.Mask256
}

func newArchetypeRegistry() *ArchetypeRegistry {
	return &ArchetypeRegistry{
		byID:           intmap.New[ArchetypeId, ArchetypeIndex](64),
		componentSlots: make(map[ComponentTypeId]uint32, 64),
	}
}

// Lock marks bit as held, the same re-entrant shape as storage.AddLock
// in the teacher. The registry only records lock bits and reports them
// through Locked; none of its methods consult them, so holding a bit
// does not block FindOrCreate or any archetype mutation.
func (r *ArchetypeRegistry) Lock(bit uint32) { r.locks.Mark(bit) }

// Unlock releases bit.
func (r *ArchetypeRegistry) Unlock(bit uint32) { r.locks.Unmark(bit) }

// Locked reports whether any lock bit is currently held.
func (r *ArchetypeRegistry) Locked() bool { return !r.locks.IsEmpty() }

// Archetype returns the archetype at idx.
func (r *ArchetypeRegistry) Archetype(idx ArchetypeIndex) *Archetype { return r.archetypes[idx] }

func (r *ArchetypeRegistry) slotFor(id ComponentTypeId) uint32 {
	if slot, ok := r.componentSlots[id]; ok {
		return slot
	}
	slot := r.nextSlot
	r.componentSlots[id] = slot
	r.nextSlot++
	return slot
}

func (r *ArchetypeRegistry) slotMask(descriptor ArchetypeDescriptor) mask.Mask {
	var m mask.Mask
	for _, c := range descriptor.Components() {
		m.Mark(r.slotFor(c.ID))
	}
	return m
}

// find locates descriptor's archetype via the intmap fast path first,
// falling back to a binary search of the matching arity bucket -- the
// bucket remains the source of truth; the intmap is purely an
// accelerator and is always kept in sync with it.
func (r *ArchetypeRegistry) find(descriptor ArchetypeDescriptor) (ArchetypeIndex, bool) {
	if !descriptor.IsValid() {
		return 0, false
	}
	if idx, ok := r.byID.Get(descriptor.ID()); ok {
		return idx, true
	}
	bucket := r.buckets[descriptor.Len()]
	i := sort.Search(len(bucket), func(i int) bool { return bucket[i].id >= descriptor.ID() })
	if i < len(bucket) && bucket[i].id == descriptor.ID() {
		return bucket[i].index, true
	}
	return 0, false
}

// Find returns the archetype matching descriptor, if one is already
// registered.
func (r *ArchetypeRegistry) Find(descriptor ArchetypeDescriptor) (*Archetype, ArchetypeIndex, bool) {
	idx, ok := r.find(descriptor)
	if !ok {
		return nil, 0, false
	}
	return r.archetypes[idx], idx, true
}

// FindOrCreate returns the archetype matching descriptor, registering
// a new one if absent. A new archetype starts with zero capacity and
// allocates Config.DefaultArchetypeAllocationSize rows on its first
// push.
func (r *ArchetypeRegistry) FindOrCreate(descriptor ArchetypeDescriptor) (ArchetypeIndex, *Archetype, error) {
	if !descriptor.IsValid() {
		return 0, nil, InvalidDescriptorError{Reason: "cannot find or create from an invalid descriptor"}
	}
	if idx, ok := r.find(descriptor); ok {
		return idx, r.archetypes[idx], nil
	}
	if len(r.archetypes) >= Config.MaxArchetypeCount() {
		return 0, nil, CapacityExhaustedError{Reason: "max archetype count reached"}
	}

	arche := newArchetype(descriptor)
	idx := ArchetypeIndex(len(r.archetypes))
	r.archetypes = append(r.archetypes, arche)
	r.slotMasks = append(r.slotMasks, r.slotMask(descriptor))

	bucket := r.buckets[descriptor.Len()]
	i := sort.Search(len(bucket), func(i int) bool { return bucket[i].id >= descriptor.ID() })
	bucket = append(bucket, bucketEntry{})
	copy(bucket[i+1:], bucket[i:len(bucket)-1])
	bucket[i] = bucketEntry{id: descriptor.ID(), index: idx}
	r.buckets[descriptor.Len()] = bucket

	r.byID.Put(descriptor.ID(), idx)
	return idx, arche, nil
}

// FindOrCreateAdding resolves the (source, destination) pair for an
// add-component transition: destination is source's descriptor plus
// c. Adding a component always changes the descriptor, so source and
// destination are always distinct archetypes.
func (r *ArchetypeRegistry) FindOrCreateAdding(sourceIdx ArchetypeIndex, c ComponentDescriptor) (source *Archetype, destIdx ArchetypeIndex, dest *Archetype, err error) {
	source = r.archetypes[sourceIdx]
	destDescriptor, err := source.descriptor.AddComponent(c)
	if err != nil {
		return nil, 0, nil, err
	}
	destIdx, dest, err = r.FindOrCreate(destDescriptor)
	if err != nil {
		return nil, 0, nil, err
	}
	return source, destIdx, dest, nil
}

// FindOrCreateRemoving is FindOrCreateAdding's symmetric counterpart
// for a remove-component transition.
func (r *ArchetypeRegistry) FindOrCreateRemoving(sourceIdx ArchetypeIndex, id ComponentTypeId) (source *Archetype, destIdx ArchetypeIndex, dest *Archetype, err error) {
	source = r.archetypes[sourceIdx]
	destDescriptor, err := source.descriptor.RemoveComponent(id)
	if err != nil {
		return nil, 0, nil, err
	}
	destIdx, dest, err = r.FindOrCreate(destDescriptor)
	if err != nil {
		return nil, 0, nil, err
	}
	return source, destIdx, dest, nil
}

// IterComponentsMatching calls yield for every archetype whose
// descriptor is a superset of group's descriptor, one arity bucket at
// a time from group's arity upward and in ascending ArchetypeId order
// within each bucket, stopping early if yield returns false. Only arity buckets at
// or above group's arity are walked -- a superset can never have
// fewer components. Within a bucket, each candidate is pre-filtered
// with an O(1) mask.ContainsAll check before the authoritative
// two-pointer IsSupersetOf walk runs, the same "quick reject, then
// verify" shape the teacher's compositeNode.Evaluate uses.
func (r *ArchetypeRegistry) IterComponentsMatching(group ComponentGroup, yield func(*Archetype) bool) {
	groupDescriptor := group.Descriptor()
	groupMask := r.slotMask(groupDescriptor)
	for n := groupDescriptor.Len(); n <= MaxComponentsPerEntity; n++ {
		for _, entry := range r.buckets[n] {
			if !r.slotMasks[entry.index].ContainsAll(groupMask) {
				continue
			}
			arche := r.archetypes[entry.index]
			if !arche.descriptor.IsSupersetOf(groupDescriptor) {
				continue
			}
			if !yield(arche) {
				return
			}
		}
	}
}
