package network

import "sort"

// Partition holds the fixed-first ordering of a component table by its
// *_nom_extendable flag (spec §4.4.1). Order maps each re-sorted row
// back to its original slice index; NumFixed/NumExt are the sizes of
// each half.
type Partition struct {
	Order   []int // Order[newIndex] = originalIndex
	NumFixed int
	NumExt   int
}

// NewPartition builds a fixed-first, extendable-last ordering from a
// per-row extendable predicate, and resorts nothing itself — callers
// re-index their own component slices using Order.
func NewPartition(extendable []bool) Partition {
	order := make([]int, len(extendable))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return !extendable[order[a]] && extendable[order[b]]
	})
	numExt := 0
	for _, e := range extendable {
		if e {
			numExt++
		}
	}
	return Partition{Order: order, NumFixed: len(extendable) - numExt, NumExt: numExt}
}

// Fixed returns the original indices of the fixed rows, in their new order.
func (p Partition) Fixed() []int { return p.Order[:p.NumFixed] }

// Extendable returns the original indices of the extendable rows, in
// their new order (the order the investment variable vector is built in).
func (p Partition) Extendable() []int { return p.Order[p.NumFixed:] }

// PartitionLines partitions the Line table by SNomExtendable and
// returns both the partition and the re-ordered table.
func PartitionLines(lines []Line) (Partition, []Line) {
	ext := make([]bool, len(lines))
	for i, l := range lines {
		ext[i] = l.SNomExtendable
	}
	p := NewPartition(ext)
	out := make([]Line, len(lines))
	for newIdx, origIdx := range p.Order {
		out[newIdx] = lines[origIdx]
	}
	return p, out
}

// PartitionLinks partitions the Link table by PNomExtendable.
func PartitionLinks(links []Link) (Partition, []Link) {
	ext := make([]bool, len(links))
	for i, l := range links {
		ext[i] = l.PNomExtendable
	}
	p := NewPartition(ext)
	out := make([]Link, len(links))
	for newIdx, origIdx := range p.Order {
		out[newIdx] = links[origIdx]
	}
	return p, out
}

// PartitionGenerators partitions the Generator table by PNomExtendable.
func PartitionGenerators(gens []Generator) (Partition, []Generator) {
	ext := make([]bool, len(gens))
	for i, g := range gens {
		ext[i] = g.PNomExtendable
	}
	p := NewPartition(ext)
	out := make([]Generator, len(gens))
	for newIdx, origIdx := range p.Order {
		out[newIdx] = gens[origIdx]
	}
	return p, out
}

// PartitionStorage partitions the StorageUnit table by PNomExtendable.
func PartitionStorage(units []StorageUnit) (Partition, []StorageUnit) {
	ext := make([]bool, len(units))
	for i, u := range units {
		ext[i] = u.PNomExtendable
	}
	p := NewPartition(ext)
	out := make([]StorageUnit, len(units))
	for newIdx, origIdx := range p.Order {
		out[newIdx] = units[origIdx]
	}
	return p, out
}

// PartitionStores partitions the Store table by ENomExtendable.
func PartitionStores(stores []Store) (Partition, []Store) {
	ext := make([]bool, len(stores))
	for i, s := range stores {
		ext[i] = s.ENomExtendable
	}
	p := NewPartition(ext)
	out := make([]Store, len(stores))
	for newIdx, origIdx := range p.Order {
		out[newIdx] = stores[origIdx]
	}
	return p, out
}
