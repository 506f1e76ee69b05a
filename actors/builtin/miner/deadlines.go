package miner

import (
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/dline"
	xc "github.com/filecoin-project/go-state-types/exitcode"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/storage-actors/actors/builtin"
	"github.com/filecoin-project/storage-actors/actors/runtime"
	"github.com/filecoin-project/storage-actors/actors/util/adt"
)

// Returns deadline-related calculations for a deadline in some proving period and the current epoch.
func NewDeadlineInfo(p *runtime.Policy, periodStart abi.ChainEpoch, deadlineIdx uint64, currEpoch abi.ChainEpoch) *dline.Info {
	return dline.NewInfo(periodStart, deadlineIdx, currEpoch, p.WPoStPeriodDeadlines, p.WPoStProvingPeriod,
		p.WPoStChallengeWindow, p.WPoStChallengeLookback, p.FaultDeclarationCutoff)
}

// Returns the current deadline for a miner whose proving periods are offset by periodStartSeed.
func NewDeadlineInfoFromOffsetAndEpoch(p *runtime.Policy, periodStartSeed abi.ChainEpoch, currEpoch abi.ChainEpoch) *dline.Info {
	q := builtin.NewQuantSpec(p.WPoStProvingPeriod, periodStartSeed)
	currentPeriodStart := q.QuantizeDown(currEpoch)
	currentDeadlineIdx := uint64((currEpoch-currentPeriodStart)/p.WPoStChallengeWindow) % p.WPoStPeriodDeadlines
	return NewDeadlineInfo(p, currentPeriodStart, currentDeadlineIdx, currEpoch)
}

func QuantSpecForDeadline(p *runtime.Policy, di *dline.Info) builtin.QuantSpec {
	return builtin.NewQuantSpec(p.WPoStProvingPeriod, di.Last())
}

// FindSector returns the deadline and partition index for a sector number.
// It returns a NotFound error if the sector number is not tracked by deadlines.
func FindSector(store adt.Store, deadlines *Deadlines, sectorNum abi.SectorNumber) (uint64, uint64, error) {
	for dlIdx := range deadlines.Due {
		dl, err := deadlines.LoadDeadline(store, uint64(dlIdx))
		if err != nil {
			return 0, 0, err
		}

		partitions, err := dl.PartitionsArray(store)
		if err != nil {
			return 0, 0, err
		}
		var partition Partition

		partIdx := uint64(0)
		err = partitions.ForEach(&partition, func(i int64) error {
			found, err := partition.Sectors.IsSet(uint64(sectorNum))
			if err != nil {
				return err
			}
			if found {
				partIdx = uint64(i)
				return errStop
			}
			return nil
		})
		if err == errStop {
			return uint64(dlIdx), partIdx, nil
		} else if err != nil {
			return 0, 0, err
		}
	}
	return 0, 0, xc.ErrNotFound.Wrapf("sector %d not due at any deadline", sectorNum)
}

// Returns true if the deadline at the given index is currently mutable. A
// "mutable" deadline may have new sectors assigned to it.
func deadlineIsMutable(p *runtime.Policy, provingPeriodStart abi.ChainEpoch, dlIdx uint64, currentEpoch abi.ChainEpoch) bool {
	// Get the next non-elapsed deadline (i.e., the next time we care about
	// mutations to the deadline).
	dlInfo := NewDeadlineInfo(p, provingPeriodStart, dlIdx, currentEpoch).NextNotElapsed()
	// Ensure that the current epoch is at least one challenge window before
	// that deadline opens.
	return currentEpoch < dlInfo.Open-p.WPoStChallengeWindow
}

// Returns true if optimistically accepted posts submitted to the given deadline
// may be disputed. Specifically, this ensures that:
//
// 1. Optimistic PoSts may not be disputed while the challenge window is open.
// 2. Optimistic PoSts may not be disputed after the miner could have compacted the deadline.
func deadlineAvailableForOptimisticPoStDispute(p *runtime.Policy, provingPeriodStart abi.ChainEpoch, dlIdx uint64, currentEpoch abi.ChainEpoch) bool {
	if provingPeriodStart > currentEpoch {
		// We haven't started proving yet, there's nothing to dispute.
		return false
	}
	dlInfo := NewDeadlineInfo(p, provingPeriodStart, dlIdx, currentEpoch).NextNotElapsed()

	return !dlInfo.IsOpen() && currentEpoch < (dlInfo.Close-p.WPoStProvingPeriod)+p.WPoStDisputeWindow
}

// Returns true if the given deadline may compacted in the current epoch.
// Deadlines may not be compacted when:
//
// 1. The deadline is currently being challenged.
// 2. The deadline is to be challenged next.
// 3. Optimistically accepted posts from the deadline's last challenge window
//    can currently be disputed.
func deadlineAvailableForCompaction(p *runtime.Policy, provingPeriodStart abi.ChainEpoch, dlIdx uint64, currentEpoch abi.ChainEpoch) bool {
	return deadlineIsMutable(p, provingPeriodStart, dlIdx, currentEpoch) &&
		!deadlineAvailableForOptimisticPoStDispute(p, provingPeriodStart, dlIdx, currentEpoch)
}

// Determine current period start and deadline index directly from the proving period offset.
func currentDeadlineIndex(p *runtime.Policy, currEpoch abi.ChainEpoch, periodStart abi.ChainEpoch) uint64 {
	return uint64((currEpoch - periodStart) / p.WPoStChallengeWindow)
}

func invalidDeadlineIndex(p *runtime.Policy, dlIdx uint64) error {
	if dlIdx >= p.WPoStPeriodDeadlines {
		return xerrors.Errorf("invalid deadline %d, must be < %d", dlIdx, p.WPoStPeriodDeadlines)
	}
	return nil
}
