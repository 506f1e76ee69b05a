package miner

import (
	"sort"

	"github.com/filecoin-project/go-bitfield"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/ipfs/go-cid"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/storage-actors/actors/builtin"
	"github.com/filecoin-project/storage-actors/actors/util/adt"
)

// Wrapper for working with an AMT[ChainEpoch]*Bitfield functioning as a queue, bucketed by epoch.
// Keys in the queue are quantized (upwards), modulo some offset, to reduce the cardinality of keys.
type BitfieldQueue struct {
	*adt.Array
	quant builtin.QuantSpec
}

func LoadBitfieldQueue(store adt.Store, root cid.Cid, quant builtin.QuantSpec, bitwidth int) (BitfieldQueue, error) {
	arr, err := adt.AsArray(store, root, bitwidth)
	if err != nil {
		return BitfieldQueue{}, xerrors.Errorf("failed to load epoch queue %v: %w", root, err)
	}
	return BitfieldQueue{arr, quant}, nil
}

// Adds values to the queue entry for an epoch.
func (q BitfieldQueue) AddToQueue(rawEpoch abi.ChainEpoch, values bitfield.BitField) error {
	if empty, err := values.IsEmpty(); err != nil {
		return xerrors.Errorf("failed to decode queue values: %w", err)
	} else if empty {
		return nil
	}
	epoch := q.quant.QuantizeUp(rawEpoch)
	var bf bitfield.BitField
	if _, err := q.Array.Get(uint64(epoch), &bf); err != nil {
		return xerrors.Errorf("failed to lookup queue epoch %v: %w", epoch, err)
	}

	merged, err := bitfield.MergeBitFields(bf, values)
	if err != nil {
		return xerrors.Errorf("failed to merge bitfields for queue epoch %v: %w", epoch, err)
	}
	if err = q.Array.Set(uint64(epoch), merged); err != nil {
		return xerrors.Errorf("failed to set queue epoch %v: %w", epoch, err)
	}
	return nil
}

func (q BitfieldQueue) AddToQueueValues(epoch abi.ChainEpoch, values ...uint64) error {
	if len(values) == 0 {
		return nil
	}
	return q.AddToQueue(epoch, bitfield.NewFromSet(values))
}

// Cut removes the given elements from every entry, shifting higher elements down to close the gap.
// Entries left empty are deleted.
func (q BitfieldQueue) Cut(toCut bitfield.BitField) error {
	var emptied []uint64
	if err := q.ForEach(func(epoch abi.ChainEpoch, bf bitfield.BitField) error {
		cut, err := bitfield.CutBitField(bf, toCut)
		if err != nil {
			return err
		}
		if empty, err := cut.IsEmpty(); err != nil {
			return err
		} else if empty {
			emptied = append(emptied, uint64(epoch))
			return nil
		}
		return q.Set(uint64(epoch), cut)
	}); err != nil {
		return xerrors.Errorf("failed to cut from bitfield queue: %w", err)
	}
	if err := q.BatchDelete(emptied, true); err != nil {
		return xerrors.Errorf("failed to remove empty epochs from bitfield queue: %w", err)
	}
	return nil
}

func (q BitfieldQueue) AddManyToQueueValues(values map[abi.ChainEpoch][]uint64) error {
	// Quantize first so each bucket is written once, then update in epoch order.
	quantized := make(map[abi.ChainEpoch][]uint64, len(values))
	var epochs []abi.ChainEpoch
	for rawEpoch, entries := range values { // nolint:nomaprange // subsequently sorted
		epoch := q.quant.QuantizeUp(rawEpoch)
		if _, seen := quantized[epoch]; !seen {
			epochs = append(epochs, epoch)
		}
		quantized[epoch] = append(quantized[epoch], entries...)
	}
	sort.Slice(epochs, func(i, j int) bool { return epochs[i] < epochs[j] })

	for _, epoch := range epochs {
		if err := q.AddToQueueValues(epoch, quantized[epoch]...); err != nil {
			return err
		}
	}
	return nil
}

// Removes and returns all values with keys less than or equal to until.
// Modified return value indicates whether this structure has been changed by the call.
func (q BitfieldQueue) PopUntil(until abi.ChainEpoch) (values bitfield.BitField, modified bool, err error) {
	var popped []bitfield.BitField
	var keys []uint64

	if err = q.ForEach(func(epoch abi.ChainEpoch, bf bitfield.BitField) error {
		if epoch > until {
			return errStop
		}
		keys = append(keys, uint64(epoch))
		popped = append(popped, bf)
		return nil
	}); err != nil && err != errStop {
		return bitfield.BitField{}, false, err
	}

	if len(keys) == 0 {
		return bitfield.New(), false, nil
	}
	if err = q.BatchDelete(keys, true); err != nil {
		return bitfield.BitField{}, false, err
	}
	merged, err := bitfield.MultiMerge(popped...)
	if err != nil {
		return bitfield.BitField{}, false, err
	}
	return merged, true, nil
}

// Iterates the queue in epoch order.
func (q BitfieldQueue) ForEach(cb func(epoch abi.ChainEpoch, bf bitfield.BitField) error) error {
	var bf bitfield.BitField
	return q.Array.ForEach(&bf, func(i int64) error {
		cpy, err := bf.Copy()
		if err != nil {
			return xerrors.Errorf("failed to copy bitfield in queue: %w", err)
		}
		return cb(abi.ChainEpoch(i), cpy)
	})
}
