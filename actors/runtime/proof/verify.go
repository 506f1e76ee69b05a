package proof

import (
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/specs-actors/actors/runtime/proof"
	"github.com/ipfs/go-cid"
)

///
/// Sealing
///

// Information needed to verify a seal proof.
type SealVerifyInfo = proof.SealVerifyInfo

// Per-sector inputs to an aggregate seal proof.
type AggregateSealVerifyInfo struct {
	Number                abi.SectorNumber
	Randomness            abi.SealRandomness
	InteractiveRandomness abi.InteractiveSealRandomness

	// Safe because we get those from the miner actor
	SealedCID   cid.Cid `checked:"true"` // CommR
	UnsealedCID cid.Cid `checked:"true"` // CommD
}

// An aggregate proof over many seals by a single miner.
type AggregateSealVerifyProofAndInfos struct {
	Miner          abi.ActorID
	SealProof      abi.RegisteredSealProof
	AggregateProof abi.RegisteredAggregationProof
	Proof          []byte
	Infos          []AggregateSealVerifyInfo
}

///
/// PoSting
///

// Information about a proof necessary for PoSt verification.
type SectorInfo = proof.SectorInfo
type PoStProof = proof.PoStProof

// Information needed to verify a Window PoSt submitted directly to a miner actor.
type WindowPoStVerifyInfo = proof.WindowPoStVerifyInfo

///
/// Replica updates
///

// Information needed to verify a replica update proof, replacing the data in a committed sector.
type ReplicaUpdateInfo struct {
	UpdateProofType      abi.RegisteredUpdateProof
	OldSealedSectorCID   cid.Cid
	NewSealedSectorCID   cid.Cid
	NewUnsealedSectorCID cid.Cid
	Proof                []byte
}
