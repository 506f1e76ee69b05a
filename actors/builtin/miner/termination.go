package miner

import (
	"sort"

	"github.com/filecoin-project/go-bitfield"
	"github.com/filecoin-project/go-state-types/abi"
)

// TerminationResult accumulates the sectors popped from early-termination queues, keyed by
// the epoch at which they terminated, along with the work done to find them.
type TerminationResult struct {
	Sectors             map[abi.ChainEpoch]bitfield.BitField
	PartitionsProcessed uint64
	SectorsProcessed    uint64
}

func (t *TerminationResult) Add(other TerminationResult) error {
	if t.Sectors == nil {
		t.Sectors = make(map[abi.ChainEpoch]bitfield.BitField, len(other.Sectors))
	}
	t.PartitionsProcessed += other.PartitionsProcessed
	t.SectorsProcessed += other.SectorsProcessed
	for epoch, sectors := range other.Sectors { //nolint:nomaprange // merge is commutative
		existing, ok := t.Sectors[epoch]
		if !ok {
			t.Sectors[epoch] = sectors
			continue
		}
		merged, err := bitfield.MergeBitFields(existing, sectors)
		if err != nil {
			return err
		}
		t.Sectors[epoch] = merged
	}
	return nil
}

// Reports whether more partitions and sectors may still be processed.
func (t *TerminationResult) BelowLimit(maxPartitions, maxSectors uint64) bool {
	return t.PartitionsProcessed < maxPartitions && t.SectorsProcessed < maxSectors
}

func (t *TerminationResult) IsEmpty() bool {
	return t.SectorsProcessed == 0
}

// Visits each termination epoch in ascending order.
func (t *TerminationResult) ForEach(cb func(epoch abi.ChainEpoch, sectors bitfield.BitField) error) error {
	epochs := make([]abi.ChainEpoch, 0, len(t.Sectors))
	for epoch := range t.Sectors { //nolint:nomaprange // sorted below
		epochs = append(epochs, epoch)
	}
	sort.Slice(epochs, func(i, j int) bool { return epochs[i] < epochs[j] })
	for _, epoch := range epochs {
		if err := cb(epoch, t.Sectors[epoch]); err != nil {
			return err
		}
	}
	return nil
}
