package miner

import (
	"errors"

	"github.com/filecoin-project/go-bitfield"
	"github.com/filecoin-project/go-state-types/abi"
	xc "github.com/filecoin-project/go-state-types/exitcode"
	"github.com/ipfs/go-cid"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/storage-actors/actors/util/adt"
)

// Sentinel used to break out of AMT and bitfield iteration early.
var errStop = errors.New("stop")

// Sectors is a helper type for accessing/modifying a miner's sectors. It's safe
// to pass this object around as needed.
type Sectors struct {
	*adt.Array
}

func LoadSectors(store adt.Store, root cid.Cid) (Sectors, error) {
	arr, err := adt.AsArray(store, root, SectorsAmtBitwidth)
	if err != nil {
		return Sectors{}, err
	}
	return Sectors{arr}, nil
}

// Loads the sectors with the given numbers, in ascending order.
// Missing sectors are NotFound; a malformed bitfield is IllegalArgument.
func (sa Sectors) Load(sectorNos bitfield.BitField) ([]*SectorOnChainInfo, error) {
	var infos []*SectorOnChainInfo
	if err := sectorNos.ForEach(func(i uint64) error {
		var info SectorOnChainInfo
		found, err := sa.Array.Get(i, &info)
		if err != nil {
			return xc.ErrIllegalState.Wrapf("failed to load sector %v: %w", abi.SectorNumber(i), err)
		} else if !found {
			return xc.ErrNotFound.Wrapf("can't find sector %d", i)
		}
		infos = append(infos, &info)
		return nil
	}); err != nil {
		return nil, xc.Unwrap(err, xc.ErrIllegalArgument).Wrapf("failed to load sectors: %w", err)
	}
	return infos, nil
}

func (sa Sectors) Get(sectorNumber abi.SectorNumber) (info *SectorOnChainInfo, found bool, err error) {
	var res SectorOnChainInfo
	if found, err := sa.Array.Get(uint64(sectorNumber), &res); err != nil {
		return nil, false, xerrors.Errorf("failed to get sector %d: %w", sectorNumber, err)
	} else if !found {
		return nil, false, nil
	}
	return &res, true, nil
}

func (sa Sectors) MustGet(sectorNumber abi.SectorNumber) (*SectorOnChainInfo, error) {
	info, found, err := sa.Get(sectorNumber)
	if err != nil {
		return nil, err
	} else if !found {
		return nil, xc.ErrNotFound.Wrapf("sector %d not found", sectorNumber)
	}
	return info, nil
}

func (sa Sectors) Store(infos ...*SectorOnChainInfo) error {
	for _, info := range infos {
		if info == nil {
			return xerrors.Errorf("nil sector info")
		}
		if info.SectorNumber > abi.MaxSectorNumber {
			return xerrors.Errorf("sector number %d out of range", info.SectorNumber)
		}
		if err := sa.Set(uint64(info.SectorNumber), info); err != nil {
			return xerrors.Errorf("failed to store sector %d: %w", info.SectorNumber, err)
		}
	}
	return nil
}

// Loads info for a set of sectors to be proven.
// Info for the first non-faulty sector is substituted for each of the expected faults.
// Returns nil if every sector is faulty.
func (sa Sectors) LoadForProof(provenSectors, expectedFaults bitfield.BitField) ([]*SectorOnChainInfo, error) {
	nonFaults, err := bitfield.SubtractBitField(provenSectors, expectedFaults)
	if err != nil {
		return nil, xerrors.Errorf("failed to diff bitfields: %w", err)
	}
	if empty, err := nonFaults.IsEmpty(); err != nil {
		return nil, xerrors.Errorf("failed to check if bitfield was empty: %w", err)
	} else if empty {
		return nil, nil
	}

	goodSectorNo, err := nonFaults.First()
	if err != nil {
		return nil, xerrors.Errorf("failed to get first good sector: %w", err)
	}
	infos, err := sa.LoadWithFaultMask(provenSectors, expectedFaults, abi.SectorNumber(goodSectorNo))
	if err != nil {
		return nil, xerrors.Errorf("failed to load sector infos: %w", err)
	}
	return infos, nil
}

// Loads sector info for a sequence of sectors, substituting info for a stand-in sector for any that are faulty.
func (sa Sectors) LoadWithFaultMask(sectors bitfield.BitField, faults bitfield.BitField, faultStandIn abi.SectorNumber) ([]*SectorOnChainInfo, error) {
	standIn, err := sa.MustGet(faultStandIn)
	if err != nil {
		return nil, xerrors.Errorf("failed to load stand-in sector %d: %w", faultStandIn, err)
	}

	count, err := sectors.Count()
	if err != nil {
		return nil, err
	}
	faultSet, err := faults.AllMap(count)
	if err != nil {
		return nil, xerrors.Errorf("failed to expand faults: %w", err)
	}

	infos := make([]*SectorOnChainInfo, 0, count)
	err = sectors.ForEach(func(i uint64) error {
		if faultSet[i] {
			infos = append(infos, standIn)
			return nil
		}
		info, err := sa.MustGet(abi.SectorNumber(i))
		if err != nil {
			return xerrors.Errorf("failed to load sector %d: %w", i, err)
		}
		infos = append(infos, info)
		return nil
	})
	return infos, err
}

// Returns the subset of sectors whose numbers are set in field, failing if any is absent.
func selectSectors(sectors []*SectorOnChainInfo, field bitfield.BitField) ([]*SectorOnChainInfo, error) {
	toInclude, err := field.AllMap(uint64(len(sectors)))
	if err != nil {
		return nil, xerrors.Errorf("failed to expand bitfield when selecting sectors: %w", err)
	}

	included := make([]*SectorOnChainInfo, 0, len(toInclude))
	for _, s := range sectors {
		if !toInclude[uint64(s.SectorNumber)] {
			continue
		}
		included = append(included, s)
		delete(toInclude, uint64(s.SectorNumber))
	}
	if len(toInclude) > 0 {
		return nil, xerrors.Errorf("failed to find %d expected sectors", len(toInclude))
	}
	return included, nil
}
