package builtin

import (
	"github.com/filecoin-project/go-state-types/abi"
	"golang.org/x/xerrors"
)

// Policy values associated with a PoSt proof type.
type PoStProofPolicy struct {
	WindowPoStPartitionSectors uint64
	ConsensusMinerMinPower     abi.StoragePower
}

// Partition sizes must match those used by the proofs library.
// See https://github.com/filecoin-project/rust-fil-proofs/blob/master/filecoin-proofs/src/constants.rs#L85
var PoStProofPolicies = map[abi.RegisteredPoStProof]*PoStProofPolicy{
	abi.RegisteredPoStProof_StackedDrgWindow2KiBV1: {
		WindowPoStPartitionSectors: 2,
		ConsensusMinerMinPower:     abi.NewStoragePower(0),
	},
	abi.RegisteredPoStProof_StackedDrgWindow8MiBV1: {
		WindowPoStPartitionSectors: 2,
		ConsensusMinerMinPower:     abi.NewStoragePower(16 << 20),
	},
	abi.RegisteredPoStProof_StackedDrgWindow512MiBV1: {
		WindowPoStPartitionSectors: 2,
		ConsensusMinerMinPower:     abi.NewStoragePower(1 << 30),
	},
	abi.RegisteredPoStProof_StackedDrgWindow32GiBV1: {
		WindowPoStPartitionSectors: 2349,
		ConsensusMinerMinPower:     abi.NewStoragePower(10 << 40),
	},
	abi.RegisteredPoStProof_StackedDrgWindow64GiBV1: {
		WindowPoStPartitionSectors: 2300,
		ConsensusMinerMinPower:     abi.NewStoragePower(20 << 40),
	},
}

// Returns the partition size, in sectors, associated with a Window PoSt proof type.
// The partition size is the number of sectors proved in a single PoSt proof.
func PoStProofWindowPoStPartitionSectors(p abi.RegisteredPoStProof) (uint64, error) {
	info, ok := PoStProofPolicies[p]
	if !ok {
		return 0, xerrors.Errorf("unsupported proof type: %v", p)
	}
	return info.WindowPoStPartitionSectors, nil
}

// Returns the partition size for the window PoSt proof paired with a seal proof type.
func SealProofWindowPoStPartitionSectors(p abi.RegisteredSealProof) (uint64, error) {
	wPoStProofType, err := p.RegisteredWindowPoStProof()
	if err != nil {
		return 0, err
	}
	return PoStProofWindowPoStPartitionSectors(wPoStProofType)
}

var sealToUpdateProof = map[abi.RegisteredSealProof]abi.RegisteredUpdateProof{
	abi.RegisteredSealProof_StackedDrg2KiBV1:     abi.RegisteredUpdateProof_StackedDrg2KiBV1,
	abi.RegisteredSealProof_StackedDrg2KiBV1_1:   abi.RegisteredUpdateProof_StackedDrg2KiBV1,
	abi.RegisteredSealProof_StackedDrg8MiBV1:     abi.RegisteredUpdateProof_StackedDrg8MiBV1,
	abi.RegisteredSealProof_StackedDrg8MiBV1_1:   abi.RegisteredUpdateProof_StackedDrg8MiBV1,
	abi.RegisteredSealProof_StackedDrg512MiBV1:   abi.RegisteredUpdateProof_StackedDrg512MiBV1,
	abi.RegisteredSealProof_StackedDrg512MiBV1_1: abi.RegisteredUpdateProof_StackedDrg512MiBV1,
	abi.RegisteredSealProof_StackedDrg32GiBV1:    abi.RegisteredUpdateProof_StackedDrg32GiBV1,
	abi.RegisteredSealProof_StackedDrg32GiBV1_1:  abi.RegisteredUpdateProof_StackedDrg32GiBV1,
	abi.RegisteredSealProof_StackedDrg64GiBV1:    abi.RegisteredUpdateProof_StackedDrg64GiBV1,
	abi.RegisteredSealProof_StackedDrg64GiBV1_1:  abi.RegisteredUpdateProof_StackedDrg64GiBV1,
}

// Returns the replica update proof type used to upgrade sectors sealed with a seal proof type.
func SealProofReplicaUpdateProof(p abi.RegisteredSealProof) (abi.RegisteredUpdateProof, error) {
	up, ok := sealToUpdateProof[p]
	if !ok {
		return 0, xerrors.Errorf("unsupported seal proof type %d for replica update", p)
	}
	return up, nil
}
