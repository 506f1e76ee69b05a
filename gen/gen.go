package main

import (
	gen "github.com/whyrusleeping/cbor-gen"

	"github.com/filecoin-project/storage-actors/actors/builtin"
	"github.com/filecoin-project/storage-actors/actors/builtin/market"
	"github.com/filecoin-project/storage-actors/actors/builtin/miner"
	"github.com/filecoin-project/storage-actors/actors/builtin/power"
	"github.com/filecoin-project/storage-actors/actors/builtin/reward"
	"github.com/filecoin-project/storage-actors/actors/builtin/verifreg"
	"github.com/filecoin-project/storage-actors/actors/runtime/proof"
	"github.com/filecoin-project/storage-actors/actors/states"
	"github.com/filecoin-project/storage-actors/actors/util/smoothing"
)

func main() {
	// Common types
	if err := gen.WriteTupleEncodersToFile("./actors/builtin/cbor_gen.go", "builtin",
		builtin.MinerAddrs{},
		builtin.ConfirmSectorProofsParams{},
		builtin.DeferredCronEventParams{},
		builtin.ApplyRewardParams{},
	); err != nil {
		panic(err)
	}

	if err := gen.WriteTupleEncodersToFile("./actors/runtime/proof/cbor_gen.go", "proof",
		proof.AggregateSealVerifyInfo{},
		proof.AggregateSealVerifyProofAndInfos{},
		proof.ReplicaUpdateInfo{},
	); err != nil {
		panic(err)
	}

	if err := gen.WriteTupleEncodersToFile("./actors/util/smoothing/cbor_gen.go", "smoothing",
		smoothing.FilterEstimate{},
	); err != nil {
		panic(err)
	}

	if err := gen.WriteTupleEncodersToFile("./actors/states/cbor_gen.go", "states",
		states.Actor{},
	); err != nil {
		panic(err)
	}

	// Collaborators
	if err := gen.WriteTupleEncodersToFile("./actors/builtin/power/cbor_gen.go", "power",
		// method params
		power.MinerConstructorParams{},
		power.UpdateClaimedPowerParams{},
		power.EnrollCronEventParams{},
		// method returns
		power.CurrentTotalPowerReturn{},
	); err != nil {
		panic(err)
	}

	if err := gen.WriteTupleEncodersToFile("./actors/builtin/reward/cbor_gen.go", "reward",
		reward.ThisEpochRewardReturn{},
	); err != nil {
		panic(err)
	}

	if err := gen.WriteTupleEncodersToFile("./actors/builtin/verifreg/cbor_gen.go", "verifreg",
		verifreg.UseBytesParams{},
		verifreg.RestoreBytesParams{},
	); err != nil {
		panic(err)
	}

	// Market
	if err := gen.WriteTupleEncodersToFile("./actors/builtin/market/cbor_gen.go", "market",
		// actor state
		market.State{},
		market.DealProposal{},
		market.ClientDealProposal{},
		market.DealState{},
		// method params and returns
		market.WithdrawBalanceParams{},
		market.WithdrawBalanceReturn{},
		market.PublishStorageDealsParams{},
		market.PublishStorageDealsReturn{},
		market.SectorDeals{},
		market.VerifyDealsForActivationParams{},
		market.SectorWeights{},
		market.VerifyDealsForActivationReturn{},
		market.ActivateDealsParams{},
		market.SectorDataSpec{},
		market.ComputeDataCommitmentParams{},
		market.ComputeDataCommitmentReturn{},
		market.OnMinerSectorsTerminateParams{},
	); err != nil {
		panic(err)
	}

	// Miner
	if err := gen.WriteTupleEncodersToFile("./actors/builtin/miner/cbor_gen.go", "miner",
		// actor state
		miner.State{},
		miner.MinerInfo{},
		miner.Deadlines{},
		miner.Deadline{},
		miner.Partition{},
		miner.ExpirationSet{},
		miner.PowerPair{},
		miner.SectorPreCommitOnChainInfo{},
		miner.SectorPreCommitInfo{},
		miner.SectorOnChainInfo{},
		miner.WorkerKeyChange{},
		miner.VestingFunds{},
		miner.VestingFund{},
		miner.WindowedPoSt{},
		// method params and returns
		miner.GetControlAddressesReturn{},
		miner.ChangeWorkerAddressParams{},
		miner.ChangePeerIDParams{},
		miner.ChangeMultiaddrsParams{},
		miner.PoStPartition{},
		miner.SubmitWindowedPoStParams{},
		miner.DisputeWindowedPoStParams{},
		miner.PreCommitSectorBatchParams{},
		miner.ProveCommitSectorParams{},
		miner.ProveCommitAggregateParams{},
		miner.CheckSectorProvenParams{},
		miner.ExpirationExtension{},
		miner.ExtendSectorExpirationParams{},
		miner.TerminationDeclaration{},
		miner.TerminateSectorsParams{},
		miner.TerminateSectorsReturn{},
		miner.FaultDeclaration{},
		miner.DeclareFaultsParams{},
		miner.RecoveryDeclaration{},
		miner.DeclareFaultsRecoveredParams{},
		miner.CompactPartitionsParams{},
		miner.CompactSectorNumbersParams{},
		miner.ReportConsensusFaultParams{},
		miner.WithdrawBalanceParams{},
		miner.ReplicaUpdate{},
		miner.ProveReplicaUpdatesParams{},
		// other types
		miner.CronEventPayload{},
	); err != nil {
		panic(err)
	}
}
