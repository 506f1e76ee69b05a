package miner_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"testing"

	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-bitfield"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/filecoin-project/go-state-types/crypto"
	"github.com/filecoin-project/go-state-types/dline"
	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cbg "github.com/whyrusleeping/cbor-gen"

	"github.com/filecoin-project/storage-actors/actors/builtin"
	"github.com/filecoin-project/storage-actors/actors/builtin/market"
	"github.com/filecoin-project/storage-actors/actors/builtin/miner"
	"github.com/filecoin-project/storage-actors/actors/builtin/power"
	"github.com/filecoin-project/storage-actors/actors/builtin/reward"
	"github.com/filecoin-project/storage-actors/actors/runtime"
	"github.com/filecoin-project/storage-actors/actors/runtime/proof"
	"github.com/filecoin-project/storage-actors/actors/util/smoothing"
	"github.com/filecoin-project/storage-actors/support/mock"
	tutil "github.com/filecoin-project/storage-actors/support/testing"
)

var testPid abi.PeerID
var testMultiaddrs []abi.Multiaddrs

// A balance for use in tests where the miner's low balance is not interesting.
var bigBalance = big.Mul(big.NewInt(1_000_000), builtin.TokenPrecision)

func init() {
	testPid = abi.PeerID("peerID")

	testMultiaddrs = []abi.Multiaddrs{
		{1},
		{2},
	}
}

func TestExports(t *testing.T) {
	mock.CheckActorExports(t, miner.Actor{})
}

func TestConstruction(t *testing.T) {
	periodOffset := abi.ChainEpoch(100)
	actor := newHarness(t, periodOffset)
	builder := builderForHarness(actor)

	t.Run("simple construction", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		st := getState(rt)
		info := actor.getInfo(rt)
		assert.Equal(t, actor.owner, info.Owner)
		assert.Equal(t, actor.worker, info.Worker)
		assert.Equal(t, actor.controlAddrs, info.ControlAddresses)
		assert.Equal(t, testPid, abi.PeerID(info.PeerId))
		assert.Equal(t, testMultiaddrs, info.Multiaddrs)
		assert.Equal(t, actor.windowPostProofType, info.WindowPoStProofType)
		assert.Equal(t, abi.SectorSize(32<<30), info.SectorSize)
		assert.Equal(t, abi.ChainEpoch(-1), info.ConsensusFaultElapsed)
		assert.Nil(t, info.PendingWorkerKey)
		assert.Nil(t, info.PendingOwnerAddress)

		assert.Equal(t, big.Zero(), st.PreCommitDeposits)
		assert.Equal(t, big.Zero(), st.LockedFunds)
		assert.Equal(t, big.Zero(), st.InitialPledge)
		assert.Equal(t, big.Zero(), st.FeeDebt)

		// The fixed hasher places the proving period offset at 100, and construction happens at 101.
		assert.Equal(t, periodOffset, st.ProvingPeriodStart)
		assert.Equal(t, uint64(0), st.CurrentDeadline)
		assert.False(t, st.DeadlineCronActive)

		deadlines, err := st.LoadDeadlines(rt.AdtStore())
		require.NoError(t, err)
		assert.Len(t, deadlines.Due, int(rt.Policy().WPoStPeriodDeadlines))
		actor.checkState(rt)
	})

	t.Run("control addresses are resolved during construction", func(t *testing.T) {
		control1 := tutil.NewBLSAddr(t, 501)
		control1Id := tutil.NewIDAddr(t, 555)
		control2 := tutil.NewBLSAddr(t, 502)
		control2Id := tutil.NewIDAddr(t, 655)

		rt := builder.WithActorType(control1Id, builtin.AccountActorCodeID).
			WithActorType(control2Id, builtin.AccountActorCodeID).Build(t)
		rt.AddIDAddress(control1, control1Id)
		rt.AddIDAddress(control2, control2Id)

		params := actor.constructorParams()
		params.ControlAddrs = []addr.Address{control1, control2}

		rt.ExpectValidateCallerAddr(builtin.InitActorAddr)
		rt.ExpectSend(actor.worker, builtin.MethodsAccount.PubkeyAddress, nil, big.Zero(), &actor.key, exitcode.Ok)
		rt.SetCaller(builtin.InitActorAddr, builtin.InitActorCodeID)
		rt.Call(actor.a.Constructor, params)
		rt.Verify()

		info := actor.getInfo(rt)
		assert.Equal(t, []addr.Address{control1Id, control2Id}, info.ControlAddresses)
	})

	t.Run("fails if control address is not an account actor", func(t *testing.T) {
		control := tutil.NewIDAddr(t, 501)
		rt := builder.Build(t)
		rt.SetAddressActorType(control, builtin.PaymentChannelActorCodeID)

		params := actor.constructorParams()
		params.ControlAddrs = []addr.Address{control}

		rt.ExpectValidateCallerAddr(builtin.InitActorAddr)
		rt.ExpectSend(actor.worker, builtin.MethodsAccount.PubkeyAddress, nil, big.Zero(), &actor.key, exitcode.Ok)
		rt.SetCaller(builtin.InitActorAddr, builtin.InitActorCodeID)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(actor.a.Constructor, params)
		})
		rt.Verify()
	})

	t.Run("fails if more than the maximum number of control addresses", func(t *testing.T) {
		rt := builder.Build(t)
		params := actor.constructorParams()
		params.ControlAddrs = make([]addr.Address, rt.Policy().MaxControlAddresses+1)
		for i := range params.ControlAddrs {
			params.ControlAddrs[i] = tutil.NewIDAddr(t, uint64(2000+i))
		}

		rt.ExpectValidateCallerAddr(builtin.InitActorAddr)
		rt.SetCaller(builtin.InitActorAddr, builtin.InitActorCodeID)
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "control addresses length", func() {
			rt.Call(actor.a.Constructor, params)
		})
		rt.Verify()
	})

	t.Run("test construct with invalid peer ID", func(t *testing.T) {
		rt := builder.Build(t)
		params := actor.constructorParams()
		params.PeerId = make([]byte, rt.Policy().MaxPeerIDLength+1)

		rt.ExpectValidateCallerAddr(builtin.InitActorAddr)
		rt.SetCaller(builtin.InitActorAddr, builtin.InitActorCodeID)
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "peer ID size", func() {
			rt.Call(actor.a.Constructor, params)
		})
		rt.Verify()
	})

	t.Run("fails if multiaddr is empty", func(t *testing.T) {
		rt := builder.Build(t)
		params := actor.constructorParams()
		params.Multiaddrs = []abi.Multiaddrs{{}, {1}}

		rt.ExpectValidateCallerAddr(builtin.InitActorAddr)
		rt.SetCaller(builtin.InitActorAddr, builtin.InitActorCodeID)
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "invalid empty multiaddr", func() {
			rt.Call(actor.a.Constructor, params)
		})
		rt.Verify()
	})

	t.Run("fails with unsupported window post proof type", func(t *testing.T) {
		rt := builder.Build(t)
		params := actor.constructorParams()
		params.WindowPoStProofType = abi.RegisteredPoStProof_StackedDrgWindow2KiBV1

		rt.ExpectValidateCallerAddr(builtin.InitActorAddr)
		rt.SetCaller(builtin.InitActorAddr, builtin.InitActorCodeID)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(actor.a.Constructor, params)
		})
		rt.Verify()
	})

	t.Run("fails if worker does not have a BLS key", func(t *testing.T) {
		rt := builder.Build(t)
		params := actor.constructorParams()
		secpKey := tutil.NewSECP256K1Addr(t, "worker")

		rt.ExpectValidateCallerAddr(builtin.InitActorAddr)
		rt.ExpectSend(actor.worker, builtin.MethodsAccount.PubkeyAddress, nil, big.Zero(), &secpKey, exitcode.Ok)
		rt.SetCaller(builtin.InitActorAddr, builtin.InitActorCodeID)
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "must have BLS pubkey", func() {
			rt.Call(actor.a.Constructor, params)
		})
		rt.Verify()
	})

	t.Run("rejected when not called by the init actor", func(t *testing.T) {
		rt := builder.Build(t)
		rt.ExpectValidateCallerAddr(builtin.InitActorAddr)
		rt.SetCaller(actor.owner, builtin.AccountActorCodeID)
		rt.ExpectAbort(exitcode.SysErrForbidden, func() {
			rt.Call(actor.a.Constructor, actor.constructorParams())
		})
		rt.Verify()
	})
}

func TestControlAddresses(t *testing.T) {
	actor := newHarness(t, 0)
	builder := builderForHarness(actor)

	t.Run("get addresses", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		owner, worker, control := actor.controlAddresses(rt)
		assert.Equal(t, actor.owner, owner)
		assert.Equal(t, actor.worker, worker)
		assert.Equal(t, actor.controlAddrs, control)
	})

	t.Run("worker change takes effect after the delay", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		newWorker := tutil.NewIDAddr(t, 501)
		rt.SetAddressActorType(newWorker, builtin.AccountActorCodeID)
		newKey := tutil.NewBLSAddr(t, 501)

		effectiveAt := rt.Epoch() + rt.Policy().WorkerKeyChangeDelay
		actor.changeWorkerAddress(rt, newWorker, newKey, actor.controlAddrs)

		info := actor.getInfo(rt)
		require.NotNil(t, info.PendingWorkerKey)
		assert.Equal(t, newWorker, info.PendingWorkerKey.NewWorker)
		assert.Equal(t, effectiveAt, info.PendingWorkerKey.EffectiveAt)
		assert.Equal(t, actor.worker, info.Worker)

		// Confirming too early leaves the pending change in place.
		rt.SetEpoch(effectiveAt - 1)
		actor.confirmUpdateWorkerKey(rt)
		info = actor.getInfo(rt)
		assert.NotNil(t, info.PendingWorkerKey)
		assert.Equal(t, actor.worker, info.Worker)

		rt.SetEpoch(effectiveAt)
		actor.confirmUpdateWorkerKey(rt)
		info = actor.getInfo(rt)
		assert.Nil(t, info.PendingWorkerKey)
		assert.Equal(t, newWorker, info.Worker)
		actor.checkState(rt)
	})

	t.Run("change only the control addresses", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		control := tutil.NewIDAddr(t, 777)
		rt.SetAddressActorType(control, builtin.MultisigActorCodeID)
		actor.changeWorkerAddress(rt, actor.worker, actor.key, []addr.Address{control})

		info := actor.getInfo(rt)
		assert.Nil(t, info.PendingWorkerKey)
		assert.Equal(t, []addr.Address{control}, info.ControlAddresses)
	})

	t.Run("fails if a new control address is not a principal", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		control := tutil.NewIDAddr(t, 777)
		rt.SetAddressActorType(control, builtin.StoragePowerActorCodeID)
		rt.SetCaller(actor.owner, builtin.AccountActorCodeID)
		rt.ExpectSend(actor.worker, builtin.MethodsAccount.PubkeyAddress, nil, big.Zero(), &actor.key, exitcode.Ok)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(actor.a.ChangeWorkerAddress, &miner.ChangeWorkerAddressParams{
				NewWorker:       actor.worker,
				NewControlAddrs: []addr.Address{control},
			})
		})
		rt.Verify()
	})

	t.Run("only the owner may change the worker", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectSend(actor.worker, builtin.MethodsAccount.PubkeyAddress, nil, big.Zero(), &actor.key, exitcode.Ok)
		rt.ExpectValidateCallerAddr(actor.owner)
		rt.ExpectAbort(exitcode.SysErrForbidden, func() {
			rt.Call(actor.a.ChangeWorkerAddress, &miner.ChangeWorkerAddressParams{NewWorker: actor.worker})
		})
		rt.Verify()
	})

	t.Run("change peer ID and multiaddrs", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		newPid := tutil.MakePID("new-peer")
		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(append(actor.controlAddrs, actor.owner, actor.worker)...)
		rt.Call(actor.a.ChangePeerID, &miner.ChangePeerIDParams{NewID: newPid})
		rt.Verify()

		newAddrs := []abi.Multiaddrs{{3, 4}}
		rt.ExpectValidateCallerAddr(append(actor.controlAddrs, actor.owner, actor.worker)...)
		rt.Call(actor.a.ChangeMultiaddrs, &miner.ChangeMultiaddrsParams{NewMultiaddrs: newAddrs})
		rt.Verify()

		info := actor.getInfo(rt)
		assert.Equal(t, newPid, abi.PeerID(info.PeerId))
		assert.Equal(t, newAddrs, info.Multiaddrs)
	})

	t.Run("cannot set an oversized peer ID", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(actor.a.ChangePeerID, &miner.ChangePeerIDParams{NewID: make([]byte, rt.Policy().MaxPeerIDLength+1)})
		})
		rt.Reset()
	})
}

func TestChangeOwnerAddress(t *testing.T) {
	actor := newHarness(t, 0)
	builder := builderForHarness(actor)
	newOwner := tutil.NewIDAddr(t, 502)
	otherAddr := tutil.NewIDAddr(t, 503)

	t.Run("owner can propose and new owner can confirm", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		actor.changeOwnerAddress(rt, actor.owner, newOwner)
		info := actor.getInfo(rt)
		require.NotNil(t, info.PendingOwnerAddress)
		assert.Equal(t, newOwner, *info.PendingOwnerAddress)
		assert.Equal(t, actor.owner, info.Owner)

		actor.changeOwnerAddress(rt, newOwner, newOwner)
		info = actor.getInfo(rt)
		assert.Nil(t, info.PendingOwnerAddress)
		assert.Equal(t, newOwner, info.Owner)
	})

	t.Run("proposed owner must confirm with the proposed address", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		actor.changeOwnerAddress(rt, actor.owner, newOwner)

		rt.SetCaller(newOwner, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(newOwner)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(actor.a.ChangeOwnerAddress, &otherAddr)
		})
		rt.Verify()
	})

	t.Run("only the owner may propose", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		rt.SetCaller(otherAddr, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(actor.owner)
		rt.ExpectAbort(exitcode.SysErrForbidden, func() {
			rt.Call(actor.a.ChangeOwnerAddress, &newOwner)
		})
		rt.Verify()
	})

	t.Run("rejects a non-ID address", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		nonID := tutil.NewBLSAddr(t, 1234)
		rt.SetCaller(actor.owner, builtin.AccountActorCodeID)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(actor.a.ChangeOwnerAddress, &nonID)
		})
		rt.Reset()
	})

	t.Run("owner can withdraw a proposal", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		actor.changeOwnerAddress(rt, actor.owner, newOwner)
		actor.changeOwnerAddress(rt, actor.owner, actor.owner)

		info := actor.getInfo(rt)
		assert.Nil(t, info.PendingOwnerAddress)
		assert.Equal(t, actor.owner, info.Owner)
	})
}

func TestCommitments(t *testing.T) {
	periodOffset := abi.ChainEpoch(100)

	t.Run("precommit stores the sector and locks a deposit", func(t *testing.T) {
		actor := newHarness(t, periodOffset)
		rt := builderForHarness(actor).WithBalance(bigBalance, big.Zero()).Build(t)
		precommitEpoch := periodOffset + 1
		rt.SetEpoch(precommitEpoch)
		actor.constructAndVerify(rt)
		dlInfo := actor.deadline(rt)

		expiration := dlInfo.PeriodEnd() + defaultSectorExpiration*rt.Policy().WPoStProvingPeriod
		sectorNo := actor.nextSectorNo
		params := actor.makePreCommit(sectorNo, precommitEpoch-1, expiration, nil)
		precommit := actor.preCommitSector(rt, params, preCommitConf{})

		assert.Equal(t, *params, precommit.Info)
		assert.Equal(t, precommitEpoch, precommit.PreCommitEpoch)
		assert.Equal(t, big.Zero(), precommit.DealWeight)
		assert.Equal(t, big.Zero(), precommit.VerifiedDealWeight)

		qaPower := miner.QAPowerForWeight(actor.sectorSize, expiration-precommitEpoch, big.Zero(), big.Zero())
		expectedDeposit := miner.PreCommitDepositForPower(actor.epochRewardSmooth, actor.epochQAPowerSmooth, qaPower)
		assert.Equal(t, expectedDeposit, precommit.PreCommitDeposit)

		st := getState(rt)
		assert.Equal(t, expectedDeposit, st.PreCommitDeposits)
		assert.True(t, st.DeadlineCronActive)

		// The sector number is allocated.
		var allocated bitfield.BitField
		require.NoError(t, rt.AdtStore().Get(rt.AdtStore().Context(), st.AllocatedSectors, &allocated))
		assertBitfieldEquals(t, allocated, uint64(sectorNo))
		actor.checkState(rt)
	})

	t.Run("precommit with deals records deal weights", func(t *testing.T) {
		actor := newHarness(t, periodOffset)
		rt := builderForHarness(actor).WithBalance(bigBalance, big.Zero()).Build(t)
		precommitEpoch := periodOffset + 1
		rt.SetEpoch(precommitEpoch)
		actor.constructAndVerify(rt)
		dlInfo := actor.deadline(rt)

		expiration := dlInfo.PeriodEnd() + defaultSectorExpiration*rt.Policy().WPoStProvingPeriod
		dealWeight := big.Mul(big.NewIntUnsigned(uint64(actor.sectorSize/2)), big.NewInt(int64(expiration-precommitEpoch)))
		verifiedWeight := big.Mul(big.NewIntUnsigned(uint64(actor.sectorSize/4)), big.NewInt(int64(expiration-precommitEpoch)))
		params := actor.makePreCommit(actor.nextSectorNo, precommitEpoch-1, expiration, []abi.DealID{1, 2})
		precommit := actor.preCommitSector(rt, params, preCommitConf{
			dealWeights: []market.SectorWeights{{
				DealSpace:          uint64(actor.sectorSize / 2),
				DealWeight:         dealWeight,
				VerifiedDealWeight: verifiedWeight,
			}},
		})

		assert.Equal(t, dealWeight, precommit.DealWeight)
		assert.Equal(t, verifiedWeight, precommit.VerifiedDealWeight)

		qaPower := miner.QAPowerForWeight(actor.sectorSize, expiration-precommitEpoch, dealWeight, verifiedWeight)
		expectedDeposit := miner.PreCommitDepositForPower(actor.epochRewardSmooth, actor.epochQAPowerSmooth, qaPower)
		assert.Equal(t, expectedDeposit, precommit.PreCommitDeposit)
		actor.checkState(rt)
	})

	t.Run("insufficient funds for pre-commit", func(t *testing.T) {
		actor := newHarness(t, periodOffset)
		rt := builderForHarness(actor).WithBalance(abi.NewTokenAmount(10), big.Zero()).Build(t)
		precommitEpoch := periodOffset + 1
		rt.SetEpoch(precommitEpoch)
		actor.constructAndVerify(rt)
		dlInfo := actor.deadline(rt)

		expiration := dlInfo.PeriodEnd() + defaultSectorExpiration*rt.Policy().WPoStProvingPeriod
		params := actor.makePreCommit(actor.nextSectorNo, precommitEpoch-1, expiration, nil)

		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(append(actor.controlAddrs, actor.owner, actor.worker)...)
		actor.expectQueryNetworkInfo(rt)
		rt.ExpectAbort(exitcode.ErrInsufficientFunds, func() {
			rt.Call(actor.a.PreCommitSector, params)
		})
		rt.Verify()
	})

	t.Run("invalid pre-commit rejected", func(t *testing.T) {
		actor := newHarness(t, periodOffset)
		rt := builderForHarness(actor).WithBalance(bigBalance, big.Zero()).Build(t)
		precommitEpoch := periodOffset + 1
		rt.SetEpoch(precommitEpoch)
		actor.constructAndVerify(rt)
		dlInfo := actor.deadline(rt)
		p := rt.Policy()
		challengeEpoch := precommitEpoch - 1

		oldSector := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)[0]
		st := getState(rt)
		assert.True(t, st.DeadlineCronActive)

		expiration := dlInfo.PeriodEnd() + defaultSectorExpiration*p.WPoStProvingPeriod
		rejected := func(code exitcode.ExitCode, msg string, params *miner.PreCommitSectorParams) {
			rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
			rt.ExpectAbortContainsMessage(code, msg, func() {
				rt.Call(actor.a.PreCommitSector, params)
			})
			rt.Reset()
		}

		// Bad seal proof type.
		params := actor.makePreCommit(101, challengeEpoch, expiration, nil)
		params.SealProof = abi.RegisteredSealProof_StackedDrg8MiBV1_1
		rejected(exitcode.ErrIllegalArgument, "unsupported seal proof type", params)

		// Undefined sealed CID.
		params = actor.makePreCommit(101, challengeEpoch, expiration, nil)
		params.SealedCID = cid.Undef
		rejected(exitcode.ErrIllegalArgument, "sealed CID undefined", params)

		// Wrong sealed CID prefix.
		params = actor.makePreCommit(101, challengeEpoch, expiration, nil)
		params.SealedCID = tutil.MakeCID("commr", &market.PieceCIDPrefix)
		rejected(exitcode.ErrIllegalArgument, "sealed CID had wrong prefix", params)

		// Seal randomness from the future.
		rejected(exitcode.ErrIllegalArgument, "must be before now", actor.makePreCommit(101, rt.Epoch(), expiration, nil))

		// Seal randomness too old.
		rejected(exitcode.ErrIllegalArgument, "too old", actor.makePreCommit(101, rt.Epoch()-p.MaxPreCommitRandomnessLookback-1, expiration, nil))

		// Expiration before the minimum lifetime.
		rejected(exitcode.ErrIllegalArgument, "must exceed", actor.makePreCommit(101, rt.Epoch()-1, rt.Epoch()+p.MinSectorExpiration, nil))

		// Expiration too far in the future.
		rejected(exitcode.ErrIllegalArgument, "cannot be more than", actor.makePreCommit(101, rt.Epoch()-1, rt.Epoch()+p.MaxSectorExpirationExtension+1, nil))

		// Committed-capacity replacement through precommit is no longer supported.
		params = actor.makePreCommit(101, rt.Epoch()-1, expiration, nil)
		params.ReplaceCapacity = true
		rejected(exitcode.SysErrForbidden, "cc upgrade through precommit discontinued", params)

		// Re-using a sector number that has already been committed.
		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(append(actor.controlAddrs, actor.owner, actor.worker)...)
		actor.expectQueryNetworkInfo(rt)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(actor.a.PreCommitSector, actor.makePreCommit(oldSector.SectorNumber, rt.Epoch()-1, expiration, nil))
		})
		rt.Reset()
	})

	t.Run("batch pre-commit charges the aggregate fee", func(t *testing.T) {
		actor := newHarness(t, periodOffset)
		rt := builderForHarness(actor).WithBalance(bigBalance, big.Zero()).Build(t)
		precommitEpoch := periodOffset + 1
		rt.SetEpoch(precommitEpoch)
		baseFee := big.Mul(big.NewInt(100), builtin.OneNanoFIL)
		rt.SetBaseFee(baseFee)
		actor.constructAndVerify(rt)
		dlInfo := actor.deadline(rt)

		expiration := dlInfo.PeriodEnd() + defaultSectorExpiration*rt.Policy().WPoStProvingPeriod
		sectors := make([]miner.SectorPreCommitInfo, 4)
		for i := range sectors {
			sectors[i] = *actor.makePreCommit(abi.SectorNumber(100+i), precommitEpoch-1, expiration, nil)
		}
		precommits := actor.preCommitSectorBatch(rt, &miner.PreCommitSectorBatchParams{Sectors: sectors}, preCommitConf{}, baseFee)
		require.Len(t, precommits, 4)

		st := getState(rt)
		expectedDeposit := big.Zero()
		for _, pc := range precommits {
			expectedDeposit = big.Add(expectedDeposit, pc.PreCommitDeposit)
		}
		assert.Equal(t, expectedDeposit, st.PreCommitDeposits)
		assert.Equal(t, big.Zero(), st.FeeDebt)
		actor.checkState(rt)
	})

	t.Run("batch rejects duplicate sector numbers", func(t *testing.T) {
		actor := newHarness(t, periodOffset)
		rt := builderForHarness(actor).WithBalance(bigBalance, big.Zero()).Build(t)
		precommitEpoch := periodOffset + 1
		rt.SetEpoch(precommitEpoch)
		actor.constructAndVerify(rt)
		dlInfo := actor.deadline(rt)

		expiration := dlInfo.PeriodEnd() + defaultSectorExpiration*rt.Policy().WPoStProvingPeriod
		sector := *actor.makePreCommit(100, precommitEpoch-1, expiration, nil)
		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "duplicate sector number 100", func() {
			rt.Call(actor.a.PreCommitSectorBatch, &miner.PreCommitSectorBatchParams{Sectors: []miner.SectorPreCommitInfo{sector, sector}})
		})
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "batch empty", func() {
			rt.Call(actor.a.PreCommitSectorBatch, &miner.PreCommitSectorBatchParams{})
		})
		rt.Reset()
	})

	t.Run("valid committed capacity sector proves and pledges", func(t *testing.T) {
		actor := newHarness(t, periodOffset)
		rt := builderForHarness(actor).WithBalance(bigBalance, big.Zero()).Build(t)
		precommitEpoch := periodOffset + 1
		rt.SetEpoch(precommitEpoch)
		actor.constructAndVerify(rt)
		dlInfo := actor.deadline(rt)

		expiration := dlInfo.PeriodEnd() + defaultSectorExpiration*rt.Policy().WPoStProvingPeriod
		sectorNo := actor.nextSectorNo
		precommit := actor.preCommitSector(rt, actor.makePreCommit(sectorNo, precommitEpoch-1, expiration, nil), preCommitConf{})

		// Too early to prove.
		rt.SetEpoch(precommitEpoch + rt.Policy().PreCommitChallengeDelay)
		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrForbidden, func() {
			rt.Call(actor.a.ProveCommitSector, makeProveCommit(sectorNo))
		})
		rt.Reset()

		actor.advanceToEpochWithCron(rt, precommitEpoch+rt.Policy().PreCommitChallengeDelay+1)
		sector := actor.proveCommitSectorAndConfirm(rt, precommit, makeProveCommit(sectorNo), proveCommitConf{})

		assert.Equal(t, precommit.Info.SealProof, sector.SealProof)
		assert.Equal(t, precommit.Info.SealedCID, sector.SealedCID)
		assert.Equal(t, rt.Epoch(), sector.Activation)
		assert.Equal(t, expiration, sector.Expiration)

		qaPower := miner.QAPowerForWeight(actor.sectorSize, expiration-rt.Epoch(), big.Zero(), big.Zero())
		expectedPledge := miner.InitialPledgeForPower(qaPower, actor.baselinePower, actor.epochRewardSmooth, actor.epochQAPowerSmooth, rt.TotalFilCircSupply())
		assert.Equal(t, expectedPledge, sector.InitialPledge)

		st := getState(rt)
		assert.Equal(t, big.Zero(), st.PreCommitDeposits)
		assert.Equal(t, expectedPledge, st.InitialPledge)

		// The pre-commit is gone and the sector waits for its first proof in deadline 0.
		_, found, err := st.GetPrecommittedSector(rt.AdtStore(), sectorNo)
		require.NoError(t, err)
		assert.False(t, found)

		dlIdx, pIdx, err := st.FindSector(rt.AdtStore(), sectorNo)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), dlIdx)
		assert.Equal(t, uint64(0), pIdx)

		part := actor.getPartition(rt, dlIdx, pIdx)
		assertBitfieldEquals(t, part.Sectors, uint64(sectorNo))
		assertBitfieldEquals(t, part.Unproven, uint64(sectorNo))
		assertBitfieldEmpty(t, part.Faults)
		assert.True(t, part.ActivePower().IsZero())
		assert.Equal(t, miner.PowerForSector(actor.sectorSize, sector), part.UnprovenPower)
		actor.checkState(rt)
	})

	t.Run("prove commit too late", func(t *testing.T) {
		actor := newHarness(t, periodOffset)
		rt := builderForHarness(actor).WithBalance(bigBalance, big.Zero()).Build(t)
		precommitEpoch := periodOffset + 1
		rt.SetEpoch(precommitEpoch)
		actor.constructAndVerify(rt)
		dlInfo := actor.deadline(rt)

		expiration := dlInfo.PeriodEnd() + defaultSectorExpiration*rt.Policy().WPoStProvingPeriod
		sectorNo := actor.nextSectorNo
		precommit := actor.preCommitSector(rt, actor.makePreCommit(sectorNo, precommitEpoch-1, expiration, nil), preCommitConf{})

		msd, ok := rt.Policy().ProveCommitDuration(precommit.Info.SealProof)
		require.True(t, ok)
		rt.SetEpoch(precommitEpoch + msd + 1)
		rt.ExpectValidateCallerAny()
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "too late", func() {
			rt.Call(actor.a.ProveCommitSector, makeProveCommit(sectorNo))
		})
		rt.Reset()
	})

	t.Run("prove commit of unknown sector", func(t *testing.T) {
		actor := newHarness(t, periodOffset)
		rt := builderForHarness(actor).WithBalance(bigBalance, big.Zero()).Build(t)
		rt.SetEpoch(periodOffset + 1)
		actor.constructAndVerify(rt)

		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrNotFound, func() {
			rt.Call(actor.a.ProveCommitSector, makeProveCommit(1234))
		})
		rt.Reset()
	})

	t.Run("sectors whose deals fail to activate are dropped", func(t *testing.T) {
		actor := newHarness(t, periodOffset)
		rt := builderForHarness(actor).WithBalance(bigBalance, big.Zero()).Build(t)
		precommitEpoch := periodOffset + 1
		rt.SetEpoch(precommitEpoch)
		actor.constructAndVerify(rt)
		dlInfo := actor.deadline(rt)

		expiration := dlInfo.PeriodEnd() + defaultSectorExpiration*rt.Policy().WPoStProvingPeriod
		dealConf := preCommitConf{dealWeights: []market.SectorWeights{{DealSpace: 1 << 20, DealWeight: big.Zero(), VerifiedDealWeight: big.Zero()}}}
		pc1 := actor.preCommitSector(rt, actor.makePreCommit(100, precommitEpoch-1, expiration, []abi.DealID{1}), dealConf)
		pc2 := actor.preCommitSector(rt, actor.makePreCommit(101, precommitEpoch-1, expiration, []abi.DealID{2}), dealConf)

		actor.advanceToEpochWithCron(rt, precommitEpoch+rt.Policy().PreCommitChallengeDelay+1)
		actor.proveCommitSector(rt, pc1, makeProveCommit(100))
		actor.proveCommitSector(rt, pc2, makeProveCommit(101))
		actor.confirmSectorProofsValid(rt, proveCommitConf{
			verifyDealsExit: map[abi.SectorNumber]exitcode.ExitCode{100: exitcode.ErrIllegalArgument},
		}, pc1, pc2)
		rt.ExpectLogsContain("failed to activate deals on sector 100")

		st := getState(rt)
		_, found, err := st.GetSector(rt.AdtStore(), 100)
		require.NoError(t, err)
		assert.False(t, found)
		_, found, err = st.GetSector(rt.AdtStore(), 101)
		require.NoError(t, err)
		assert.True(t, found)

		// The failed pre-commit remains until it expires.
		_, found, err = st.GetPrecommittedSector(rt.AdtStore(), 100)
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("aborts when every sector fails deal activation", func(t *testing.T) {
		actor := newHarness(t, periodOffset)
		rt := builderForHarness(actor).WithBalance(bigBalance, big.Zero()).Build(t)
		precommitEpoch := periodOffset + 1
		rt.SetEpoch(precommitEpoch)
		actor.constructAndVerify(rt)
		dlInfo := actor.deadline(rt)

		expiration := dlInfo.PeriodEnd() + defaultSectorExpiration*rt.Policy().WPoStProvingPeriod
		dealConf := preCommitConf{dealWeights: []market.SectorWeights{{DealSpace: 1 << 20, DealWeight: big.Zero(), VerifiedDealWeight: big.Zero()}}}
		pc := actor.preCommitSector(rt, actor.makePreCommit(100, precommitEpoch-1, expiration, []abi.DealID{1}), dealConf)

		actor.advanceToEpochWithCron(rt, precommitEpoch+rt.Policy().PreCommitChallengeDelay+1)
		actor.proveCommitSector(rt, pc, makeProveCommit(100))

		rt.SetCaller(builtin.StoragePowerActorAddr, builtin.StoragePowerActorCodeID)
		rt.ExpectValidateCallerAddr(builtin.StoragePowerActorAddr)
		rt.ExpectSend(builtin.StorageMarketActorAddr, builtin.MethodsMarket.ActivateDeals,
			&market.ActivateDealsParams{DealIDs: pc.Info.DealIDs, SectorExpiry: pc.Info.Expiration},
			big.Zero(), nil, exitcode.ErrIllegalArgument)
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "all prove commits failed to validate", func() {
			rt.Call(actor.a.ConfirmSectorProofsValid, actor.confirmParams(100))
		})
		rt.Reset()
	})

	t.Run("confirmation must come from the power actor", func(t *testing.T) {
		actor := newHarness(t, periodOffset)
		rt := builderForHarness(actor).WithBalance(bigBalance, big.Zero()).Build(t)
		rt.SetEpoch(periodOffset + 1)
		actor.constructAndVerify(rt)

		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(builtin.StoragePowerActorAddr)
		rt.ExpectAbort(exitcode.SysErrForbidden, func() {
			rt.Call(actor.a.ConfirmSectorProofsValid, actor.confirmParams(100))
		})
		rt.Verify()
	})
}

func TestAggregateProveCommit(t *testing.T) {
	periodOffset := abi.ChainEpoch(100)

	t.Run("valid precommits then aggregate provecommit", func(t *testing.T) {
		actor := newHarness(t, periodOffset)
		rt := builderForHarness(actor).WithBalance(bigBalance, big.Zero()).Build(t)
		precommitEpoch := periodOffset + 1
		rt.SetEpoch(precommitEpoch)
		baseFee := big.Mul(big.NewInt(100), builtin.OneNanoFIL)
		rt.SetBaseFee(baseFee)
		actor.constructAndVerify(rt)
		dlInfo := actor.deadline(rt)

		expiration := dlInfo.PeriodEnd() + defaultSectorExpiration*rt.Policy().WPoStProvingPeriod
		var precommits []*miner.SectorPreCommitOnChainInfo
		sectorNosBf := bitfield.New()
		for i := 0; i < 4; i++ {
			sectorNo := abi.SectorNumber(100 + i)
			sectorNosBf.Set(uint64(sectorNo))
			precommits = append(precommits, actor.preCommitSector(rt, actor.makePreCommit(sectorNo, precommitEpoch-1, expiration, nil), preCommitConf{}))
		}

		actor.advanceToEpochWithCron(rt, precommitEpoch+rt.Policy().PreCommitChallengeDelay+1)
		balanceBefore := rt.Balance()
		actor.proveCommitAggregateSector(rt, precommits, sectorNosBf, baseFee)

		st := getState(rt)
		expectedPledge := big.Zero()
		for _, pc := range precommits {
			sector := actor.getSector(rt, pc.Info.SectorNumber)
			assert.Equal(t, rt.Epoch(), sector.Activation)
			expectedPledge = big.Add(expectedPledge, sector.InitialPledge)
		}
		assert.Equal(t, expectedPledge, st.InitialPledge)
		assert.Equal(t, big.Zero(), st.PreCommitDeposits)

		// The network fee is burnt from the balance.
		expectedFee := miner.AggregateProveCommitNetworkFee(4, baseFee)
		assert.Equal(t, big.Sub(balanceBefore, expectedFee), rt.Balance())
		actor.checkState(rt)
	})

	t.Run("too few sectors", func(t *testing.T) {
		actor := newHarness(t, periodOffset)
		rt := builderForHarness(actor).WithBalance(bigBalance, big.Zero()).Build(t)
		rt.SetEpoch(periodOffset + 1)
		actor.constructAndVerify(rt)

		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "too few sectors", func() {
			rt.Call(actor.a.ProveCommitAggregate, &miner.ProveCommitAggregateParams{
				SectorNumbers:  bitfield.NewFromSet([]uint64{1, 2, 3}),
				AggregateProof: []byte{},
			})
		})
		rt.Reset()
	})

	t.Run("aggregate proof too large", func(t *testing.T) {
		actor := newHarness(t, periodOffset)
		rt := builderForHarness(actor).WithBalance(bigBalance, big.Zero()).Build(t)
		rt.SetEpoch(periodOffset + 1)
		actor.constructAndVerify(rt)

		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "exceeds max size", func() {
			rt.Call(actor.a.ProveCommitAggregate, &miner.ProveCommitAggregateParams{
				SectorNumbers:  bitfield.NewFromSet([]uint64{1, 2, 3, 4}),
				AggregateProof: make([]byte, rt.Policy().MaxAggregateProofSize+1),
			})
		})
		rt.Reset()
	})
}

func TestWindowPost(t *testing.T) {
	periodOffset := abi.ChainEpoch(100)
	actor := newHarness(t, periodOffset)
	builder := builderForHarness(actor).WithBalance(bigBalance, big.Zero())

	t.Run("first proof activates new sectors", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		pwr := miner.PowerForSectors(actor.sectorSize, sectors)

		dlinfo := actor.advanceToDeadline(rt, 0)
		partitions := []miner.PoStPartition{{Index: 0, Skipped: bitfield.New()}}
		actor.submitWindowPoSt(rt, dlinfo, partitions, sectors, &poStConfig{expectedPowerDelta: pwr})

		part := actor.getPartition(rt, 0, 0)
		assertBitfieldEmpty(t, part.Unproven)
		assert.Equal(t, pwr, part.ActivePower())

		dl := actor.getDeadline(rt, 0)
		assertBitfieldEquals(t, dl.PartitionsPoSted, 0)

		// The proof is recorded for optimistic verification and the deadline cron is quiet.
		actor.advanceDeadline(rt, cronConfig{})
		actor.checkState(rt)
	})

	t.Run("recovering sectors are verified immediately", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		actor.proveInitialSectors(rt, sectors)
		pwr := miner.PowerForSectors(actor.sectorSize, sectors)

		actor.declareFaults(rt, sectors...)
		dlinfo := actor.advanceToDeadline(rt, 0)
		actor.advanceDeadline(rt, cronConfig{
			burnt: miner.PledgePenaltyForContinuedFault(actor.epochRewardSmooth, actor.epochQAPowerSmooth, pwr.QA),
		})

		actor.declareRecoveries(rt, 0, 0, bitfield.NewFromSet([]uint64{uint64(sectors[0].SectorNumber)}), big.Zero())
		dlinfo = actor.advanceToDeadline(rt, 0)
		partitions := []miner.PoStPartition{{Index: 0, Skipped: bitfield.New()}}
		actor.submitWindowPoSt(rt, dlinfo, partitions, sectors, &poStConfig{
			expectedPowerDelta: pwr,
			verify:             true,
		})

		part := actor.getPartition(rt, 0, 0)
		assertBitfieldEmpty(t, part.Faults)
		assertBitfieldEmpty(t, part.Recoveries)
		actor.advanceDeadline(rt, cronConfig{})
		actor.checkState(rt)
	})

	t.Run("invalid proof of recovery is rejected", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		actor.proveInitialSectors(rt, sectors)
		pwr := miner.PowerForSectors(actor.sectorSize, sectors)

		actor.declareFaults(rt, sectors...)
		actor.advanceToDeadline(rt, 0)
		actor.advanceDeadline(rt, cronConfig{
			burnt: miner.PledgePenaltyForContinuedFault(actor.epochRewardSmooth, actor.epochQAPowerSmooth, pwr.QA),
		})
		actor.declareRecoveries(rt, 0, 0, bitfield.NewFromSet([]uint64{uint64(sectors[0].SectorNumber)}), big.Zero())
		dlinfo := actor.advanceToDeadline(rt, 0)

		partitions := []miner.PoStPartition{{Index: 0, Skipped: bitfield.New()}}
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "window post failed", func() {
			actor.submitWindowPoSt(rt, dlinfo, partitions, sectors, &poStConfig{
				verify:            true,
				verificationError: fmt.Errorf("invalid post"),
			})
		})
		rt.Reset()
	})

	t.Run("rejects proofs for the wrong deadline", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		dlinfo := actor.advanceToDeadline(rt, 0)

		params := &miner.SubmitWindowedPoStParams{
			Deadline:         1,
			Partitions:       []miner.PoStPartition{{Index: 0, Skipped: bitfield.New()}},
			Proofs:           makePoStProofs(actor.windowPostProofType),
			ChainCommitEpoch: dlinfo.Challenge,
			ChainCommitRand:  abi.Randomness("chaincommitment"),
		}
		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(append(actor.controlAddrs, actor.owner, actor.worker)...)
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "invalid deadline 1", func() {
			rt.Call(actor.a.SubmitWindowedPoSt, params)
		})
		rt.Reset()
	})

	t.Run("rejects mismatched chain commit randomness", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		dlinfo := actor.advanceToDeadline(rt, 0)

		params := &miner.SubmitWindowedPoStParams{
			Deadline:         dlinfo.Index,
			Partitions:       []miner.PoStPartition{{Index: 0, Skipped: bitfield.New()}},
			Proofs:           makePoStProofs(actor.windowPostProofType),
			ChainCommitEpoch: dlinfo.Challenge,
			ChainCommitRand:  abi.Randomness("wrong"),
		}
		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(append(actor.controlAddrs, actor.owner, actor.worker)...)
		rt.ExpectGetRandomnessTickets(crypto.DomainSeparationTag_PoStChainCommit, dlinfo.Challenge, nil, abi.Randomness("chaincommitment"))
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "post commit randomness mismatched", func() {
			rt.Call(actor.a.SubmitWindowedPoSt, params)
		})
		rt.Reset()
	})

	t.Run("rejects more than one proof", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		dlinfo := actor.advanceToDeadline(rt, 0)

		params := &miner.SubmitWindowedPoStParams{
			Deadline:         dlinfo.Index,
			Partitions:       []miner.PoStPartition{{Index: 0, Skipped: bitfield.New()}},
			Proofs:           append(makePoStProofs(actor.windowPostProofType), makePoStProofs(actor.windowPostProofType)...),
			ChainCommitEpoch: dlinfo.Challenge,
			ChainCommitRand:  abi.Randomness("chaincommitment"),
		}
		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(append(actor.controlAddrs, actor.owner, actor.worker)...)
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "expected exactly one proof", func() {
			rt.Call(actor.a.SubmitWindowedPoSt, params)
		})
		rt.Reset()
	})

	t.Run("missed proof detects faults at deadline end", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		actor.proveInitialSectors(rt, sectors)
		pwr := miner.PowerForSectors(actor.sectorSize, sectors)

		// Skip the next proof of deadline 0: power is removed with no penalty.
		actor.advanceToDeadline(rt, 0)
		lost := pwr.Neg()
		actor.advanceDeadline(rt, cronConfig{powerDelta: &lost})

		part := actor.getPartition(rt, 0, 0)
		assertBitfieldEquals(t, part.Faults, uint64(sectors[0].SectorNumber))
		actor.checkState(rt)
	})
}

func TestDisputeWindowPost(t *testing.T) {
	periodOffset := abi.ChainEpoch(100)
	actor := newHarness(t, periodOffset)
	builder := builderForHarness(actor).WithBalance(bigBalance, big.Zero())

	t.Run("invalid proof is disputed", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		pwr := miner.PowerForSectors(actor.sectorSize, sectors)

		dlinfo := actor.advanceToDeadline(rt, 0)
		partitions := []miner.PoStPartition{{Index: 0, Skipped: bitfield.New()}}
		actor.submitWindowPoSt(rt, dlinfo, partitions, sectors, &poStConfig{expectedPowerDelta: pwr})
		actor.advanceDeadline(rt, cronConfig{})

		expectedFee := miner.PledgePenaltyForInvalidWindowPoSt(actor.epochRewardSmooth, actor.epochQAPowerSmooth, pwr.QA)
		lost := pwr.Neg()
		actor.disputeWindowPoSt(rt, dlinfo, 0, sectors, &disputeResult{
			expectedPowerDelta:  &lost,
			expectedPenalty:     expectedFee,
			expectedReward:      miner.BaseRewardForDisputedWindowPoSt,
			expectedPledgeDelta: big.Zero(),
		})

		part := actor.getPartition(rt, 0, 0)
		assertBitfieldEquals(t, part.Faults, uint64(sectors[0].SectorNumber))

		// The proof was taken, so it cannot be disputed twice.
		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
		actor.expectQueryNetworkInfo(rt)
		rt.ExpectAbort(exitcode.ErrNotFound, func() {
			rt.Call(actor.a.DisputeWindowedPoSt, &miner.DisputeWindowedPoStParams{Deadline: 0, PoStIndex: 0})
		})
		rt.Reset()
		actor.checkState(rt)
	})

	t.Run("valid proof cannot be disputed", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		pwr := miner.PowerForSectors(actor.sectorSize, sectors)

		dlinfo := actor.advanceToDeadline(rt, 0)
		partitions := []miner.PoStPartition{{Index: 0, Skipped: bitfield.New()}}
		actor.submitWindowPoSt(rt, dlinfo, partitions, sectors, &poStConfig{expectedPowerDelta: pwr})
		actor.advanceDeadline(rt, cronConfig{})

		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "failed to dispute valid post", func() {
			actor.disputeWindowPoSt(rt, dlinfo, 0, sectors, nil)
		})
		rt.Reset()
	})

	t.Run("cannot dispute after the dispute window", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		pwr := miner.PowerForSectors(actor.sectorSize, sectors)

		dlinfo := actor.advanceToDeadline(rt, 0)
		partitions := []miner.PoStPartition{{Index: 0, Skipped: bitfield.New()}}
		actor.submitWindowPoSt(rt, dlinfo, partitions, sectors, &poStConfig{expectedPowerDelta: pwr})
		actor.advanceToEpochWithCron(rt, dlinfo.Close+rt.Policy().WPoStDisputeWindow)

		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
		actor.expectQueryNetworkInfo(rt)
		rt.ExpectAbortContainsMessage(exitcode.ErrForbidden, "can only dispute window posts during the dispute window", func() {
			rt.Call(actor.a.DisputeWindowedPoSt, &miner.DisputeWindowedPoStParams{Deadline: 0, PoStIndex: 0})
		})
		rt.Reset()
	})

	t.Run("cannot dispute an open deadline", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		pwr := miner.PowerForSectors(actor.sectorSize, sectors)

		dlinfo := actor.advanceToDeadline(rt, 0)
		partitions := []miner.PoStPartition{{Index: 0, Skipped: bitfield.New()}}
		actor.submitWindowPoSt(rt, dlinfo, partitions, sectors, &poStConfig{expectedPowerDelta: pwr})

		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
		actor.expectQueryNetworkInfo(rt)
		rt.ExpectAbort(exitcode.ErrForbidden, func() {
			rt.Call(actor.a.DisputeWindowedPoSt, &miner.DisputeWindowedPoStParams{Deadline: 0, PoStIndex: 0})
		})
		rt.Reset()
	})
}

func TestDeclareFaults(t *testing.T) {
	periodOffset := abi.ChainEpoch(100)
	actor := newHarness(t, periodOffset)
	builder := builderForHarness(actor).WithBalance(bigBalance, big.Zero())

	t.Run("declared fault removes power and pays continued fault fee", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		actor.proveInitialSectors(rt, sectors)
		pwr := miner.PowerForSectors(actor.sectorSize, sectors)

		actor.declareFaults(rt, sectors...)
		part := actor.getPartition(rt, 0, 0)
		assertBitfieldEquals(t, part.Faults, uint64(sectors[0].SectorNumber))
		assert.Equal(t, pwr, part.FaultyPower)

		actor.advanceToDeadline(rt, 0)
		actor.advanceDeadline(rt, cronConfig{
			burnt: miner.PledgePenaltyForContinuedFault(actor.epochRewardSmooth, actor.epochQAPowerSmooth, pwr.QA),
		})
		actor.checkState(rt)
	})

	t.Run("declaration after the cutoff is rejected", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		actor.proveInitialSectors(rt, sectors)

		actor.advanceToDeadline(rt, 0)
		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(append(actor.controlAddrs, actor.owner, actor.worker)...)
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "late fault or recovery declaration", func() {
			rt.Call(actor.a.DeclareFaults, &miner.DeclareFaultsParams{Faults: []miner.FaultDeclaration{{
				Deadline:  0,
				Partition: 0,
				Sectors:   bitfield.NewFromSet([]uint64{uint64(sectors[0].SectorNumber)}),
			}}})
		})
		rt.Reset()
	})

	t.Run("recovery declaration repays fee debt", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		actor.proveInitialSectors(rt, sectors)
		actor.declareFaults(rt, sectors...)

		debt := abi.NewTokenAmount(1000)
		st := getState(rt)
		st.FeeDebt = debt
		rt.ReplaceState(st)

		actor.declareRecoveries(rt, 0, 0, bitfield.NewFromSet([]uint64{uint64(sectors[0].SectorNumber)}), debt)
		st = getState(rt)
		assert.Equal(t, big.Zero(), st.FeeDebt)

		part := actor.getPartition(rt, 0, 0)
		assertBitfieldEquals(t, part.Recoveries, uint64(sectors[0].SectorNumber))
	})
}

func TestTerminateSectors(t *testing.T) {
	periodOffset := abi.ChainEpoch(100)
	actor := newHarness(t, periodOffset)
	builder := builderForHarness(actor).WithBalance(bigBalance, big.Zero())

	t.Run("removes sector with correct accounting", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		actor.proveInitialSectors(rt, sectors)
		sector := sectors[0]

		actor.terminateSectors(rt, bitfield.NewFromSet([]uint64{uint64(sector.SectorNumber)}))

		// Terminated sectors stay in the sectors array until their partition is compacted.
		st := getState(rt)
		_, found, err := st.GetSector(rt.AdtStore(), sector.SectorNumber)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, big.Zero(), st.InitialPledge)

		part := actor.getPartition(rt, 0, 0)
		assertBitfieldEquals(t, part.Terminated, uint64(sector.SectorNumber))
		assertBitfieldEmpty(t, st.EarlyTerminations)
		actor.checkState(rt)
	})

	t.Run("terminating a sector with deals notifies the market", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, [][]abi.DealID{{10, 11}})
		actor.proveInitialSectors(rt, sectors)

		actor.terminateSectors(rt, bitfield.NewFromSet([]uint64{uint64(sectors[0].SectorNumber)}))
		actor.checkState(rt)
	})

	t.Run("cannot terminate in an immutable deadline", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		actor.advanceToDeadline(rt, 0)

		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(append(actor.controlAddrs, actor.owner, actor.worker)...)
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "cannot terminate sectors in immutable deadline", func() {
			rt.Call(actor.a.TerminateSectors, &miner.TerminateSectorsParams{Terminations: []miner.TerminationDeclaration{{
				Deadline:  0,
				Partition: 0,
				Sectors:   bitfield.NewFromSet([]uint64{uint64(sectors[0].SectorNumber)}),
			}}})
		})
		rt.Reset()
	})
}

func TestExtendSectorExpiration(t *testing.T) {
	periodOffset := abi.ChainEpoch(100)
	actor := newHarness(t, periodOffset)
	builder := builderForHarness(actor).WithBalance(bigBalance, big.Zero())

	commitSector := func(t *testing.T, rt *mock.Runtime) *miner.SectorOnChainInfo {
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		actor.proveInitialSectors(rt, sectors)
		return sectors[0]
	}

	t.Run("extends a committed capacity sector", func(t *testing.T) {
		rt := builder.Build(t)
		sector := commitSector(t, rt)
		newExpiration := sector.Expiration + 42*rt.Policy().WPoStProvingPeriod

		actor.extendSectors(rt, &miner.ExtendSectorExpirationParams{Extensions: []miner.ExpirationExtension{{
			Deadline:      0,
			Partition:     0,
			Sectors:       bitfield.NewFromSet([]uint64{uint64(sector.SectorNumber)}),
			NewExpiration: newExpiration,
		}}})

		updated := actor.getSector(rt, sector.SectorNumber)
		assert.Equal(t, newExpiration, updated.Expiration)
		assert.Equal(t, sector.InitialPledge, updated.InitialPledge)
		actor.checkState(rt)
	})

	t.Run("rejects a reduced expiration", func(t *testing.T) {
		rt := builder.Build(t)
		sector := commitSector(t, rt)

		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "cannot reduce sector", func() {
			actor.extendSectors(rt, &miner.ExtendSectorExpirationParams{Extensions: []miner.ExpirationExtension{{
				Deadline:      0,
				Partition:     0,
				Sectors:       bitfield.NewFromSet([]uint64{uint64(sector.SectorNumber)}),
				NewExpiration: sector.Expiration - 1,
			}}})
		})
		rt.Reset()
	})

	t.Run("rejects a sector whose seal proof is no longer accepted", func(t *testing.T) {
		rt := builder.Build(t)
		sector := commitSector(t, rt)

		p := rt.Policy().Copy()
		p.ValidPreCommitProofTypes = []abi.RegisteredSealProof{abi.RegisteredSealProof_StackedDrg64GiBV1_1}
		rt.SetPolicy(p)

		rt.ExpectAbortContainsMessage(exitcode.ErrForbidden, "unsupported seal type", func() {
			actor.extendSectors(rt, &miner.ExtendSectorExpirationParams{Extensions: []miner.ExpirationExtension{{
				Deadline:      0,
				Partition:     0,
				Sectors:       bitfield.NewFromSet([]uint64{uint64(sector.SectorNumber)}),
				NewExpiration: sector.Expiration + rt.Policy().WPoStProvingPeriod,
			}}})
		})
		rt.Reset()
	})

	t.Run("rejects an extension beyond the maximum lifetime", func(t *testing.T) {
		rt := builder.Build(t)
		sector := commitSector(t, rt)

		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			actor.extendSectors(rt, &miner.ExtendSectorExpirationParams{Extensions: []miner.ExpirationExtension{{
				Deadline:      0,
				Partition:     0,
				Sectors:       bitfield.NewFromSet([]uint64{uint64(sector.SectorNumber)}),
				NewExpiration: rt.Epoch() + rt.Policy().MaxSectorExpirationExtension + 1,
			}}})
		})
		rt.Reset()
	})

	t.Run("rejects an invalid deadline", func(t *testing.T) {
		rt := builder.Build(t)
		sector := commitSector(t, rt)

		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "not in range", func() {
			rt.Call(actor.a.ExtendSectorExpiration, &miner.ExtendSectorExpirationParams{Extensions: []miner.ExpirationExtension{{
				Deadline:      rt.Policy().WPoStPeriodDeadlines,
				Partition:     0,
				Sectors:       bitfield.NewFromSet([]uint64{uint64(sector.SectorNumber)}),
				NewExpiration: sector.Expiration + rt.Policy().WPoStProvingPeriod,
			}}})
		})
		rt.Reset()
	})
}

func TestWithdrawBalance(t *testing.T) {
	periodOffset := abi.ChainEpoch(100)
	actor := newHarness(t, periodOffset)
	builder := builderForHarness(actor).WithBalance(bigBalance, big.Zero())

	t.Run("withdraws the available balance", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		amount := abi.NewTokenAmount(1000)
		withdrawn := actor.withdrawFunds(rt, amount, amount, big.Zero())
		assert.Equal(t, amount, withdrawn)
		assert.Equal(t, big.Sub(bigBalance, amount), rt.Balance())
	})

	t.Run("withdrawal is capped at the available balance", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)

		st := getState(rt)
		available, err := st.GetAvailableBalance(rt.Balance())
		require.NoError(t, err)
		withdrawn := actor.withdrawFunds(rt, bigBalance, available, big.Zero())
		assert.Equal(t, available, withdrawn)
		assert.Equal(t, sectors[0].InitialPledge, rt.Balance())
	})

	t.Run("fee debt is repaid before withdrawal", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		debt := abi.NewTokenAmount(500)
		st := getState(rt)
		st.FeeDebt = debt
		rt.ReplaceState(st)

		amount := abi.NewTokenAmount(1000)
		actor.withdrawFunds(rt, amount, amount, debt)
		assert.Equal(t, big.Zero(), getState(rt).FeeDebt)
	})

	t.Run("fails with a negative amount", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		rt.SetCaller(actor.owner, builtin.AccountActorCodeID)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(actor.a.WithdrawBalance, &miner.WithdrawBalanceParams{AmountRequested: abi.NewTokenAmount(-1)})
		})
		rt.Reset()
	})

	t.Run("only the owner may withdraw", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(actor.owner)
		rt.ExpectAbort(exitcode.SysErrForbidden, func() {
			rt.Call(actor.a.WithdrawBalance, &miner.WithdrawBalanceParams{AmountRequested: abi.NewTokenAmount(1)})
		})
		rt.Verify()
	})
}

func TestRepayDebtActor(t *testing.T) {
	actor := newHarness(t, 100)
	builder := builderForHarness(actor).WithBalance(bigBalance, big.Zero())

	t.Run("repays fee debt from the balance", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		debt := abi.NewTokenAmount(777)
		st := getState(rt)
		st.FeeDebt = debt
		rt.ReplaceState(st)

		actor.repayDebt(rt, big.Zero(), debt)
		assert.Equal(t, big.Zero(), getState(rt).FeeDebt)
	})

	t.Run("nothing to repay", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		actor.repayDebt(rt, big.Zero(), big.Zero())
	})
}

func TestApplyRewards(t *testing.T) {
	periodOffset := abi.ChainEpoch(100)
	actor := newHarness(t, periodOffset)
	builder := builderForHarness(actor).WithBalance(bigBalance, big.Zero())

	t.Run("locks reward in vesting and burns the penalty", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		actor.proveInitialSectors(rt, sectors)

		reward := big.Mul(big.NewInt(10), builtin.TokenPrecision)
		penalty := big.Mul(big.NewInt(1), builtin.TokenPrecision)
		rt.SetBalance(big.Add(rt.Balance(), reward))

		// 75% of the reward is locked, and the penalty is taken from the newly locked funds.
		locked := big.Div(big.Mul(reward, big.NewInt(3)), big.NewInt(4))
		expectedLocked := big.Sub(locked, penalty)
		actor.applyRewards(rt, reward, penalty, expectedLocked, penalty)

		st := getState(rt)
		assert.Equal(t, expectedLocked, st.LockedFunds)
		assert.Equal(t, big.Zero(), st.FeeDebt)

		// Vesting entries fall on the reward quantization grid shifted by the proving period offset.
		funds, err := st.LoadVestingFunds(rt.AdtStore())
		require.NoError(t, err)
		require.NotEmpty(t, funds.Funds)
		quant := miner.RewardVestingSpec.Quantization
		for _, vf := range funds.Funds {
			assert.Equal(t, periodOffset%quant, vf.Epoch%quant, "epoch %d", vf.Epoch)
			assert.True(t, vf.Amount.GreaterThan(big.Zero()))
		}
		actor.checkState(rt)
	})

	t.Run("rejects a negative reward", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		rt.SetCaller(builtin.RewardActorAddr, builtin.RewardActorCodeID)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(actor.a.ApplyRewards, &builtin.ApplyRewardParams{Reward: abi.NewTokenAmount(-1), Penalty: big.Zero()})
		})
		rt.Reset()
	})

	t.Run("only the reward actor may apply rewards", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(builtin.RewardActorAddr)
		rt.ExpectAbort(exitcode.SysErrForbidden, func() {
			rt.Call(actor.a.ApplyRewards, &builtin.ApplyRewardParams{Reward: abi.NewTokenAmount(1), Penalty: big.Zero()})
		})
		rt.Verify()
	})
}

func TestReportConsensusFault(t *testing.T) {
	periodOffset := abi.ChainEpoch(100)
	actor := newHarness(t, periodOffset)
	builder := builderForHarness(actor).WithBalance(bigBalance, big.Zero())

	t.Run("penalizes the miner and rewards the reporter", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		rt.SetEpoch(rt.Epoch() + 10)

		fault := &runtime.ConsensusFault{Target: actor.receiver, Epoch: rt.Epoch() - 1, Type: runtime.ConsensusFaultDoubleForkMining}
		estimate := actor.epochRewardSmooth.Estimate()
		penalty := miner.ConsensusFaultPenalty(estimate)
		slasherReward := miner.RewardForConsensusSlashReport(estimate)
		actor.reportConsensusFault(rt, fault, slasherReward, big.Sub(penalty, slasherReward))

		info := actor.getInfo(rt)
		assert.Equal(t, rt.Epoch()+rt.Policy().ConsensusFaultIneligibilityDuration, info.ConsensusFaultElapsed)

		// Pre-commits are forbidden while the fault is active.
		expiration := actor.deadline(rt).PeriodEnd() + defaultSectorExpiration*rt.Policy().WPoStProvingPeriod
		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(append(actor.controlAddrs, actor.owner, actor.worker)...)
		actor.expectQueryNetworkInfo(rt)
		rt.ExpectAbortContainsMessage(exitcode.ErrForbidden, "active consensus fault", func() {
			rt.Call(actor.a.PreCommitSector, actor.makePreCommit(100, rt.Epoch()-1, expiration, nil))
		})
		rt.Reset()

		// The same fault cannot be reported again.
		rt.SetCaller(actor.reporter, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
		rt.ExpectVerifyConsensusFault([]byte("header1"), []byte("header2"), nil, fault, nil)
		rt.ExpectSend(builtin.RewardActorAddr, builtin.MethodsReward.ThisEpochReward, nil, big.Zero(), actor.thisEpochReward(), exitcode.Ok)
		rt.ExpectAbort(exitcode.ErrForbidden, func() {
			rt.Call(actor.a.ReportConsensusFault, &miner.ReportConsensusFaultParams{BlockHeader1: []byte("header1"), BlockHeader2: []byte("header2")})
		})
		rt.Reset()
	})

	t.Run("an unfunded penalty becomes fee debt", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		rt.SetBalance(big.Zero())
		rt.SetEpoch(rt.Epoch() + 10)

		fault := &runtime.ConsensusFault{Target: actor.receiver, Epoch: rt.Epoch() - 1, Type: runtime.ConsensusFaultDoubleForkMining}
		actor.reportConsensusFault(rt, fault, big.Zero(), big.Zero())

		penalty := miner.ConsensusFaultPenalty(actor.epochRewardSmooth.Estimate())
		assert.Equal(t, penalty, getState(rt).FeeDebt)

		// Funding the miner lets the debt be repaid.
		rt.SetBalance(bigBalance)
		actor.repayDebt(rt, big.Zero(), penalty)
		assert.Equal(t, big.Zero(), getState(rt).FeeDebt)
	})

	t.Run("rejects a fault against another miner", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		rt.SetEpoch(rt.Epoch() + 10)

		fault := &runtime.ConsensusFault{Target: tutil.NewIDAddr(t, 9999), Epoch: rt.Epoch() - 1, Type: runtime.ConsensusFaultDoubleForkMining}
		rt.SetCaller(actor.reporter, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
		rt.ExpectVerifyConsensusFault([]byte("header1"), []byte("header2"), nil, fault, nil)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(actor.a.ReportConsensusFault, &miner.ReportConsensusFaultParams{BlockHeader1: []byte("header1"), BlockHeader2: []byte("header2")})
		})
		rt.Verify()
	})
}

func TestCompactSectorNumbers(t *testing.T) {
	periodOffset := abi.ChainEpoch(100)
	actor := newHarness(t, periodOffset)
	builder := builderForHarness(actor).WithBalance(bigBalance, big.Zero())

	t.Run("compacting numbers prevents their reuse", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		actor.compactSectorNumbers(rt, bitfield.NewFromSet([]uint64{100, 101, 102}))

		expiration := actor.deadline(rt).PeriodEnd() + defaultSectorExpiration*rt.Policy().WPoStProvingPeriod
		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(append(actor.controlAddrs, actor.owner, actor.worker)...)
		actor.expectQueryNetworkInfo(rt)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(actor.a.PreCommitSector, actor.makePreCommit(101, rt.Epoch()-1, expiration, nil))
		})
		rt.Reset()

		// An unmasked number is still usable.
		actor.preCommitSector(rt, actor.makePreCommit(103, rt.Epoch()-1, expiration, nil), preCommitConf{})
	})

	t.Run("rejects an empty mask", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(actor.a.CompactSectorNumbers, &miner.CompactSectorNumbersParams{MaskSectorNumbers: bitfield.New()})
		})
		rt.Reset()
	})

	t.Run("rejects numbers above the maximum", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(actor.a.CompactSectorNumbers, &miner.CompactSectorNumbersParams{
				MaskSectorNumbers: bitfield.NewFromSet([]uint64{uint64(abi.MaxSectorNumber) + 1}),
			})
		})
		rt.Reset()
	})
}

func TestCompactPartitions(t *testing.T) {
	periodOffset := abi.ChainEpoch(100)
	actor := newHarness(t, periodOffset)
	builder := builderForHarness(actor).WithBalance(bigBalance, big.Zero())

	t.Run("compacts a partition after the dispute window", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 2, defaultSectorExpiration, nil)
		dlinfo := actor.proveInitialSectors(rt, sectors)

		actor.terminateSectors(rt, bitfield.NewFromSet([]uint64{uint64(sectors[0].SectorNumber)}))
		actor.getSector(rt, sectors[0].SectorNumber)

		// Wait out the dispute window, staying clear of the deadline's next challenge window.
		actor.advanceToEpochWithCron(rt, dlinfo.Close+rt.Policy().WPoStDisputeWindow+rt.Policy().WPoStChallengeWindow)
		actor.compactPartitions(rt, 0, bitfield.NewFromSet([]uint64{0}))

		st := getState(rt)
		_, found, err := st.GetSector(rt.AdtStore(), sectors[0].SectorNumber)
		require.NoError(t, err)
		assert.False(t, found)
		actor.getSector(rt, sectors[1].SectorNumber)

		dl := actor.getDeadline(rt, 0)
		assert.Equal(t, uint64(1), dl.LiveSectors)
		assert.Equal(t, uint64(1), dl.TotalSectors)

		part := actor.getPartition(rt, 0, 0)
		assertBitfieldEquals(t, part.Sectors, uint64(sectors[1].SectorNumber))
		assertBitfieldEmpty(t, part.Terminated)
		actor.checkState(rt)
	})

	t.Run("fails while the deadline is disputable", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		actor.proveInitialSectors(rt, sectors)

		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(append(actor.controlAddrs, actor.owner, actor.worker)...)
		rt.ExpectAbortContainsMessage(exitcode.ErrForbidden, "cannot compact deadline 0", func() {
			rt.Call(actor.a.CompactPartitions, &miner.CompactPartitionsParams{Deadline: 0, Partitions: bitfield.NewFromSet([]uint64{0})})
		})
		rt.Reset()
	})

	t.Run("fails with an invalid deadline", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(actor.a.CompactPartitions, &miner.CompactPartitionsParams{
				Deadline:   rt.Policy().WPoStPeriodDeadlines,
				Partitions: bitfield.NewFromSet([]uint64{0}),
			})
		})
		rt.Reset()
	})
}

func TestCheckSectorProven(t *testing.T) {
	periodOffset := abi.ChainEpoch(100)
	actor := newHarness(t, periodOffset)
	builder := builderForHarness(actor).WithBalance(bigBalance, big.Zero())

	t.Run("succeeds for a committed sector", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)

		rt.ExpectValidateCallerAny()
		rt.Call(actor.a.CheckSectorProven, &miner.CheckSectorProvenParams{SectorNumber: sectors[0].SectorNumber})
		rt.Verify()
	})

	t.Run("fails for an unknown sector", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrNotFound, func() {
			rt.Call(actor.a.CheckSectorProven, &miner.CheckSectorProvenParams{SectorNumber: 1})
		})
		rt.Verify()
	})
}

func TestDeadlineCronEvents(t *testing.T) {
	periodOffset := abi.ChainEpoch(100)
	actor := newHarness(t, periodOffset)
	builder := builderForHarness(actor).WithBalance(bigBalance, big.Zero())

	t.Run("expired pre-commit burns its deposit and cron goes inactive", func(t *testing.T) {
		rt := builder.Build(t)
		precommitEpoch := periodOffset + 1
		rt.SetEpoch(precommitEpoch)
		actor.constructAndVerify(rt)
		dlInfo := actor.deadline(rt)

		expiration := dlInfo.PeriodEnd() + defaultSectorExpiration*rt.Policy().WPoStProvingPeriod
		precommit := actor.preCommitSector(rt, actor.makePreCommit(100, precommitEpoch-1, expiration, nil), preCommitConf{})

		msd, ok := rt.Policy().ProveCommitDuration(precommit.Info.SealProof)
		require.True(t, ok)
		rt.SetEpoch(precommitEpoch + msd + rt.Policy().ExpiredPreCommitCleanUpDelay + 2*rt.Policy().WPoStChallengeWindow)
		actor.onDeadlineCron(rt, &cronConfig{
			noEnrollment: true,
			burnt:        precommit.PreCommitDeposit,
		})
		rt.ExpectLogsContain("going inactive")

		st := getState(rt)
		assert.Equal(t, big.Zero(), st.PreCommitDeposits)
		assert.False(t, st.DeadlineCronActive)
		_, found, err := st.GetPrecommittedSector(rt.AdtStore(), 100)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("unknown event type is logged", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		rt.SetCaller(builtin.StoragePowerActorAddr, builtin.StoragePowerActorCodeID)
		rt.ExpectValidateCallerAddr(builtin.StoragePowerActorAddr)
		rt.Call(actor.a.OnDeferredCronEvent, &builtin.DeferredCronEventParams{
			EventPayload:            makeCronEventPayload(t, 42),
			RewardSmoothed:          actor.epochRewardSmooth,
			QualityAdjPowerSmoothed: actor.epochQAPowerSmooth,
		})
		rt.Verify()
		rt.ExpectLogsContain("unhandled payload EventType 42")
	})

	t.Run("only the power actor may call", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)

		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(builtin.StoragePowerActorAddr)
		rt.ExpectAbort(exitcode.SysErrForbidden, func() {
			rt.Call(actor.a.OnDeferredCronEvent, &builtin.DeferredCronEventParams{
				EventPayload:            makeCronEventPayload(t, miner.CronEventProvingDeadline),
				RewardSmoothed:          actor.epochRewardSmooth,
				QualityAdjPowerSmoothed: actor.epochQAPowerSmooth,
			})
		})
		rt.Verify()
	})
}

func TestProveReplicaUpdates(t *testing.T) {
	periodOffset := abi.ChainEpoch(100)
	actor := newHarness(t, periodOffset)
	builder := builderForHarness(actor).WithBalance(bigBalance, big.Zero())

	t.Run("upgrades a committed capacity sector with verified deals", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		actor.proveInitialSectors(rt, sectors)
		old := sectors[0]

		newSealed := tutil.MakeCID("replica1", &miner.SealedCIDPrefix)
		updated := actor.proveReplicaUpdate(rt, old, newSealed, []abi.DealID{1})

		assert.Equal(t, newSealed, updated.SealedCID)
		require.NotNil(t, updated.SectorKeyCID)
		assert.Equal(t, old.SealedCID, *updated.SectorKeyCID)
		assert.Equal(t, []abi.DealID{1}, updated.DealIDs)
		assert.Equal(t, rt.Epoch(), updated.Activation)
		assert.Equal(t, old.Expiration, updated.Expiration)
		assert.Equal(t, old.ExpectedDayReward, updated.ReplacedDayReward)
		assert.True(t, updated.InitialPledge.GreaterThan(old.InitialPledge))

		part := actor.getPartition(rt, 0, 0)
		assert.Equal(t, miner.PowerForSector(actor.sectorSize, updated), part.ActivePower())
		actor.checkState(rt)
	})

	t.Run("updates without deals are rejected", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)
		actor.proveInitialSectors(rt, sectors)

		updateProof, err := builtin.SealProofReplicaUpdateProof(sectors[0].SealProof)
		require.NoError(t, err)
		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(append(actor.controlAddrs, actor.owner, actor.worker)...)
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "no valid updates", func() {
			rt.Call(actor.a.ProveReplicaUpdates, &miner.ProveReplicaUpdatesParams{Updates: []miner.ReplicaUpdate{{
				SectorID:           sectors[0].SectorNumber,
				Deadline:           0,
				Partition:          0,
				NewSealedSectorCID: tutil.MakeCID("replica1", &miner.SealedCIDPrefix),
				UpdateProofType:    updateProof,
				ReplicaProof:       []byte("replica proof"),
			}}})
		})
		rt.Reset()
	})

	t.Run("unproven sectors cannot be upgraded", func(t *testing.T) {
		rt := builder.Build(t)
		actor.constructAndVerify(rt)
		sectors := actor.commitAndProveSectors(rt, 1, defaultSectorExpiration, nil)

		updateProof, err := builtin.SealProofReplicaUpdateProof(sectors[0].SealProof)
		require.NoError(t, err)
		rt.SetCaller(actor.worker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(append(actor.controlAddrs, actor.owner, actor.worker)...)
		rt.ExpectAbortContainsMessage(exitcode.ErrIllegalArgument, "no valid updates", func() {
			rt.Call(actor.a.ProveReplicaUpdates, &miner.ProveReplicaUpdatesParams{Updates: []miner.ReplicaUpdate{{
				SectorID:           sectors[0].SectorNumber,
				Deadline:           0,
				Partition:          0,
				NewSealedSectorCID: tutil.MakeCID("replica1", &miner.SealedCIDPrefix),
				Deals:              []abi.DealID{1},
				UpdateProofType:    updateProof,
				ReplicaProof:       []byte("replica proof"),
			}}})
		})
		rt.Reset()
	})
}

//
// Harness
//

const defaultSectorExpiration = 220

type actorHarness struct {
	a miner.Actor
	t testing.TB

	receiver addr.Address // The miner actor's own address
	owner    addr.Address
	worker   addr.Address
	key      addr.Address
	reporter addr.Address

	controlAddrs []addr.Address

	sealProofType       abi.RegisteredSealProof
	windowPostProofType abi.RegisteredPoStProof
	sectorSize          abi.SectorSize
	partitionSize       uint64
	periodOffset        abi.ChainEpoch
	nextSectorNo        abi.SectorNumber

	networkPledge      abi.TokenAmount
	networkRawPower    abi.StoragePower
	networkQAPower     abi.StoragePower
	baselinePower      abi.StoragePower
	epochRewardSmooth  smoothing.FilterEstimate
	epochQAPowerSmooth smoothing.FilterEstimate
}

func newHarness(t testing.TB, provingPeriodOffset abi.ChainEpoch) *actorHarness {
	owner := tutil.NewIDAddr(t, 100)
	worker := tutil.NewIDAddr(t, 101)
	controlAddrs := []addr.Address{
		tutil.NewIDAddr(t, 999),
		tutil.NewIDAddr(t, 998),
		tutil.NewIDAddr(t, 997),
	}
	workerKey := tutil.NewBLSAddr(t, 0)
	receiver := tutil.NewIDAddr(t, 1000)
	reward := big.Mul(big.NewIntUnsigned(10), builtin.TokenPrecision)
	h := &actorHarness{
		t:        t,
		receiver: receiver,
		owner:    owner,
		worker:   worker,
		key:      workerKey,
		reporter: tutil.NewIDAddr(t, 1003),

		controlAddrs: controlAddrs,

		sealProofType:       abi.RegisteredSealProof_StackedDrg32GiBV1_1,
		windowPostProofType: abi.RegisteredPoStProof_StackedDrgWindow32GiBV1,
		periodOffset:        provingPeriodOffset,
		nextSectorNo:        100,

		networkPledge:      big.Mul(reward, big.NewIntUnsigned(1000)),
		networkRawPower:    abi.NewStoragePower(1 << 50),
		networkQAPower:     abi.NewStoragePower(1 << 50),
		baselinePower:      abi.NewStoragePower(1 << 50),
		epochRewardSmooth:  smoothing.TestingConstantEstimate(reward),
		epochQAPowerSmooth: smoothing.TestingConstantEstimate(abi.NewStoragePower(1 << 50)),
	}

	var err error
	h.sectorSize, err = h.sealProofType.SectorSize()
	require.NoError(t, err)
	h.partitionSize, err = builtin.PoStProofWindowPoStPartitionSectors(h.windowPostProofType)
	require.NoError(t, err)
	return h
}

func builderForHarness(actor *actorHarness) *mock.RuntimeBuilder {
	rb := mock.NewBuilder(context.Background(), actor.receiver).
		WithActorType(actor.owner, builtin.AccountActorCodeID).
		WithActorType(actor.worker, builtin.AccountActorCodeID).
		WithActorType(actor.reporter, builtin.AccountActorCodeID).
		WithHasher(fixedHasher(uint64(actor.periodOffset))).
		WithEpoch(actor.periodOffset + 1).
		WithCaller(builtin.InitActorAddr, builtin.InitActorCodeID)

	for _, ca := range actor.controlAddrs {
		rb = rb.WithActorType(ca, builtin.AccountActorCodeID)
	}
	return rb
}

func (h *actorHarness) constructorParams() *miner.ConstructorParams {
	return &miner.ConstructorParams{
		OwnerAddr:           h.owner,
		WorkerAddr:          h.worker,
		ControlAddrs:        h.controlAddrs,
		WindowPoStProofType: h.windowPostProofType,
		PeerId:              testPid,
		Multiaddrs:          testMultiaddrs,
	}
}

func (h *actorHarness) constructAndVerify(rt *mock.Runtime) {
	rt.ExpectValidateCallerAddr(builtin.InitActorAddr)
	// Fetch worker pubkey.
	rt.ExpectSend(h.worker, builtin.MethodsAccount.PubkeyAddress, nil, big.Zero(), &h.key, exitcode.Ok)
	rt.SetCaller(builtin.InitActorAddr, builtin.InitActorCodeID)
	ret := rt.Call(h.a.Constructor, h.constructorParams())
	assert.Nil(h.t, ret)
	rt.Verify()
}

//
// State access helpers
//

func getState(rt *mock.Runtime) *miner.State {
	var st miner.State
	rt.GetState(&st)
	return &st
}

func (h *actorHarness) deadline(rt *mock.Runtime) *dline.Info {
	st := getState(rt)
	return st.DeadlineInfo(rt.Policy(), rt.Epoch())
}

func (h *actorHarness) getInfo(rt *mock.Runtime) *miner.MinerInfo {
	st := getState(rt)
	info, err := st.GetInfo(rt.AdtStore())
	require.NoError(h.t, err)
	return info
}

func (h *actorHarness) getSector(rt *mock.Runtime, sno abi.SectorNumber) *miner.SectorOnChainInfo {
	st := getState(rt)
	sector, found, err := st.GetSector(rt.AdtStore(), sno)
	require.NoError(h.t, err)
	require.True(h.t, found)
	return sector
}

func (h *actorHarness) getPreCommit(rt *mock.Runtime, sno abi.SectorNumber) *miner.SectorPreCommitOnChainInfo {
	st := getState(rt)
	pc, found, err := st.GetPrecommittedSector(rt.AdtStore(), sno)
	require.NoError(h.t, err)
	require.True(h.t, found)
	return pc
}

func (h *actorHarness) getDeadline(rt *mock.Runtime, idx uint64) *miner.Deadline {
	st := getState(rt)
	dls, err := st.LoadDeadlines(rt.AdtStore())
	require.NoError(h.t, err)
	dl, err := dls.LoadDeadline(rt.AdtStore(), idx)
	require.NoError(h.t, err)
	return dl
}

func (h *actorHarness) getPartition(rt *mock.Runtime, dlIdx, pIdx uint64) *miner.Partition {
	dl := h.getDeadline(rt, dlIdx)
	p, err := dl.LoadPartition(rt.AdtStore(), pIdx)
	require.NoError(h.t, err)
	return p
}

func (h *actorHarness) findSector(rt *mock.Runtime, sno abi.SectorNumber) (uint64, uint64) {
	st := getState(rt)
	dlIdx, pIdx, err := st.FindSector(rt.AdtStore(), sno)
	require.NoError(h.t, err)
	return dlIdx, pIdx
}

func (h *actorHarness) checkState(rt *mock.Runtime) {
	st := getState(rt)
	_, msgs := miner.CheckStateInvariants(rt.Policy(), st, rt.AdtStore(), rt.Balance())
	assert.True(h.t, msgs.IsEmpty(), msgs.Messages())
}

//
// Method invocation helpers
//

func (h *actorHarness) controlAddresses(rt *mock.Runtime) (owner, worker addr.Address, control []addr.Address) {
	rt.ExpectValidateCallerAny()
	ret := rt.Call(h.a.ControlAddresses, nil).(*miner.GetControlAddressesReturn)
	require.NotNil(h.t, ret)
	rt.Verify()
	return ret.Owner, ret.Worker, ret.ControlAddrs
}

func (h *actorHarness) changeWorkerAddress(rt *mock.Runtime, newWorker, newKey addr.Address, newControlAddrs []addr.Address) {
	rt.SetCaller(h.owner, builtin.AccountActorCodeID)
	rt.ExpectSend(newWorker, builtin.MethodsAccount.PubkeyAddress, nil, big.Zero(), &newKey, exitcode.Ok)
	rt.ExpectValidateCallerAddr(h.owner)
	rt.Call(h.a.ChangeWorkerAddress, &miner.ChangeWorkerAddressParams{
		NewWorker:       newWorker,
		NewControlAddrs: newControlAddrs,
	})
	rt.Verify()
}

func (h *actorHarness) confirmUpdateWorkerKey(rt *mock.Runtime) {
	rt.SetCaller(h.owner, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAddr(h.owner)
	rt.Call(h.a.ConfirmUpdateWorkerKey, nil)
	rt.Verify()
}

func (h *actorHarness) changeOwnerAddress(rt *mock.Runtime, caller, newAddr addr.Address) {
	rt.SetCaller(caller, builtin.AccountActorCodeID)
	info := h.getInfo(rt)
	if caller == info.Owner || info.PendingOwnerAddress == nil {
		rt.ExpectValidateCallerAddr(info.Owner)
	} else {
		rt.ExpectValidateCallerAddr(*info.PendingOwnerAddress)
	}
	rt.Call(h.a.ChangeOwnerAddress, &newAddr)
	rt.Verify()
}

type preCommitConf struct {
	dealWeights []market.SectorWeights
}

func (h *actorHarness) makePreCommit(sectorNo abi.SectorNumber, challenge, expiration abi.ChainEpoch, dealIDs []abi.DealID) *miner.PreCommitSectorParams {
	return &miner.PreCommitSectorParams{
		SealProof:     h.sealProofType,
		SectorNumber:  sectorNo,
		SealedCID:     tutil.MakeCID(fmt.Sprintf("commr-%d", sectorNo), &miner.SealedCIDPrefix),
		SealRandEpoch: challenge,
		DealIDs:       dealIDs,
		Expiration:    expiration,
	}
}

func (h *actorHarness) preCommitSector(rt *mock.Runtime, params *miner.PreCommitSectorParams, conf preCommitConf) *miner.SectorPreCommitOnChainInfo {
	pcs := h.preCommitSectorBatch(rt, &miner.PreCommitSectorBatchParams{Sectors: []miner.SectorPreCommitInfo{*params}}, conf, rt.BaseFee())
	return pcs[0]
}

func (h *actorHarness) preCommitSectorBatch(rt *mock.Runtime, params *miner.PreCommitSectorBatchParams, conf preCommitConf, baseFee abi.TokenAmount) []*miner.SectorPreCommitOnChainInfo {
	rt.SetCaller(h.worker, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAddr(append(h.controlAddrs, h.owner, h.worker)...)
	h.expectQueryNetworkInfo(rt)

	sectorDeals := make([]market.SectorDeals, len(params.Sectors))
	sectorWeights := make([]market.SectorWeights, len(params.Sectors))
	anyDeals := false
	for i, sector := range params.Sectors {
		sectorDeals[i] = market.SectorDeals{SectorExpiry: sector.Expiration, DealIDs: sector.DealIDs}
		if i < len(conf.dealWeights) {
			sectorWeights[i] = conf.dealWeights[i]
		} else {
			sectorWeights[i] = market.SectorWeights{DealSpace: 0, DealWeight: big.Zero(), VerifiedDealWeight: big.Zero()}
		}
		anyDeals = anyDeals || len(sector.DealIDs) > 0
	}
	if anyDeals {
		rt.ExpectSend(builtin.StorageMarketActorAddr, builtin.MethodsMarket.VerifyDealsForActivation,
			&market.VerifyDealsForActivationParams{Sectors: sectorDeals}, big.Zero(),
			&market.VerifyDealsForActivationReturn{Sectors: sectorWeights}, exitcode.Ok)
	}

	st := getState(rt)
	expectedBurn := st.FeeDebt
	if len(params.Sectors) > 1 {
		expectedBurn = big.Add(expectedBurn, miner.AggregatePreCommitNetworkFee(len(params.Sectors), baseFee))
	}
	if expectedBurn.GreaterThan(big.Zero()) {
		rt.ExpectSend(builtin.BurntFundsActorAddr, builtin.MethodSend, nil, expectedBurn, nil, exitcode.Ok)
	}

	if !st.DeadlineCronActive {
		cronEpoch := st.DeadlineInfo(rt.Policy(), rt.Epoch()).Last()
		rt.ExpectSend(builtin.StoragePowerActorAddr, builtin.MethodsPower.EnrollCronEvent,
			makeDeadlineCronEventParams(h.t, cronEpoch), big.Zero(), nil, exitcode.Ok)
	}

	rt.Call(h.a.PreCommitSectorBatch, params)
	rt.Verify()

	precommits := make([]*miner.SectorPreCommitOnChainInfo, len(params.Sectors))
	for i, sector := range params.Sectors {
		precommits[i] = h.getPreCommit(rt, sector.SectorNumber)
	}
	return precommits
}

func makeProveCommit(sectorNo abi.SectorNumber) *miner.ProveCommitSectorParams {
	return &miner.ProveCommitSectorParams{
		SectorNumber: sectorNo,
		Proof:        []byte("proof"),
	}
}

func (h *actorHarness) proveCommitSector(rt *mock.Runtime, precommit *miner.SectorPreCommitOnChainInfo, params *miner.ProveCommitSectorParams) {
	commd := cbg.CborCid(tutil.MakeCID("commd", &market.PieceCIDPrefix))
	sealRand := abi.SealRandomness([]byte{1, 2, 3, 4})
	sealIntRand := abi.InteractiveSealRandomness([]byte{5, 6, 7, 8})
	interactiveEpoch := precommit.PreCommitEpoch + rt.Policy().PreCommitChallengeDelay

	rt.ExpectValidateCallerAny()
	rt.ExpectSend(builtin.StorageMarketActorAddr, builtin.MethodsMarket.ComputeDataCommitment,
		&market.ComputeDataCommitmentParams{Inputs: []market.SectorDataSpec{{
			DealIDs:    precommit.Info.DealIDs,
			SectorType: precommit.Info.SealProof,
		}}},
		big.Zero(), &market.ComputeDataCommitmentReturn{CommDs: []cbg.CborCid{commd}}, exitcode.Ok)

	entropy := receiverEntropy(h.t, rt.Receiver())
	rt.ExpectGetRandomnessTickets(crypto.DomainSeparationTag_SealRandomness, precommit.Info.SealRandEpoch, entropy, abi.Randomness(sealRand))
	rt.ExpectGetRandomnessBeacon(crypto.DomainSeparationTag_InteractiveSealChallengeSeed, interactiveEpoch, entropy, abi.Randomness(sealIntRand))

	actorID, err := addr.IDFromAddress(h.receiver)
	require.NoError(h.t, err)
	seal := proof.SealVerifyInfo{
		SectorID: abi.SectorID{
			Miner:  abi.ActorID(actorID),
			Number: precommit.Info.SectorNumber,
		},
		SealedCID:             precommit.Info.SealedCID,
		SealProof:             precommit.Info.SealProof,
		Proof:                 params.Proof,
		DealIDs:               precommit.Info.DealIDs,
		Randomness:            sealRand,
		InteractiveRandomness: sealIntRand,
		UnsealedCID:           cid.Cid(commd),
	}
	rt.ExpectSend(builtin.StoragePowerActorAddr, builtin.MethodsPower.SubmitPoRepForBulkVerify, &seal, big.Zero(), nil, exitcode.Ok)
	rt.SetCaller(h.worker, builtin.AccountActorCodeID)
	rt.Call(h.a.ProveCommitSector, params)
	rt.Verify()
}

type proveCommitConf struct {
	verifyDealsExit map[abi.SectorNumber]exitcode.ExitCode
}

func (h *actorHarness) confirmParams(sectorNos ...abi.SectorNumber) *builtin.ConfirmSectorProofsParams {
	return &builtin.ConfirmSectorProofsParams{
		Sectors:                 sectorNos,
		RewardSmoothed:          h.epochRewardSmooth,
		RewardBaselinePower:     h.baselinePower,
		QualityAdjPowerSmoothed: h.epochQAPowerSmooth,
	}
}

func (h *actorHarness) confirmSectorProofsValid(rt *mock.Runtime, conf proveCommitConf, precommits ...*miner.SectorPreCommitOnChainInfo) {
	h.expectActivateAndPledge(rt, conf, precommits...)

	var sectorNos []abi.SectorNumber
	for _, pc := range precommits {
		sectorNos = append(sectorNos, pc.Info.SectorNumber)
	}
	rt.SetCaller(builtin.StoragePowerActorAddr, builtin.StoragePowerActorCodeID)
	rt.ExpectValidateCallerAddr(builtin.StoragePowerActorAddr)
	rt.Call(h.a.ConfirmSectorProofsValid, h.confirmParams(sectorNos...))
	rt.Verify()
}

// Expects deal activation for each pre-commit with deals, then a pledge update for those that activate.
func (h *actorHarness) expectActivateAndPledge(rt *mock.Runtime, conf proveCommitConf, precommits ...*miner.SectorPreCommitOnChainInfo) {
	expectPledge := big.Zero()
	for _, pc := range precommits {
		if len(pc.Info.DealIDs) > 0 {
			exit, found := conf.verifyDealsExit[pc.Info.SectorNumber]
			if !found {
				exit = exitcode.Ok
			}
			rt.ExpectSend(builtin.StorageMarketActorAddr, builtin.MethodsMarket.ActivateDeals,
				&market.ActivateDealsParams{DealIDs: pc.Info.DealIDs, SectorExpiry: pc.Info.Expiration},
				big.Zero(), nil, exit)
			if exit != exitcode.Ok {
				continue
			}
		}
		duration := pc.Info.Expiration - rt.Epoch()
		qaPower := miner.QAPowerForWeight(h.sectorSize, duration, pc.DealWeight, pc.VerifiedDealWeight)
		pledge := miner.InitialPledgeForPower(qaPower, h.baselinePower, h.epochRewardSmooth, h.epochQAPowerSmooth, rt.TotalFilCircSupply())
		expectPledge = big.Add(expectPledge, pledge)
	}
	if !expectPledge.IsZero() {
		rt.ExpectSend(builtin.StoragePowerActorAddr, builtin.MethodsPower.UpdatePledgeTotal, &expectPledge, big.Zero(), nil, exitcode.Ok)
	}
}

func (h *actorHarness) proveCommitSectorAndConfirm(rt *mock.Runtime, precommit *miner.SectorPreCommitOnChainInfo, params *miner.ProveCommitSectorParams, conf proveCommitConf) *miner.SectorOnChainInfo {
	h.proveCommitSector(rt, precommit, params)
	h.confirmSectorProofsValid(rt, conf, precommit)
	return h.getSector(rt, precommit.Info.SectorNumber)
}

func (h *actorHarness) proveCommitAggregateSector(rt *mock.Runtime, precommits []*miner.SectorPreCommitOnChainInfo, sectorNos bitfield.BitField, baseFee abi.TokenAmount) {
	rt.SetCaller(h.worker, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAddr(append(h.controlAddrs, h.owner, h.worker)...)

	inputs := make([]market.SectorDataSpec, len(precommits))
	commDs := make([]cbg.CborCid, len(precommits))
	for i, pc := range precommits {
		inputs[i] = market.SectorDataSpec{DealIDs: pc.Info.DealIDs, SectorType: pc.Info.SealProof}
		commDs[i] = cbg.CborCid(tutil.MakeCID(fmt.Sprintf("commd-%d", pc.Info.SectorNumber), &market.PieceCIDPrefix))
	}
	rt.ExpectSend(builtin.StorageMarketActorAddr, builtin.MethodsMarket.ComputeDataCommitment,
		&market.ComputeDataCommitmentParams{Inputs: inputs}, big.Zero(),
		&market.ComputeDataCommitmentReturn{CommDs: commDs}, exitcode.Ok)

	entropy := receiverEntropy(h.t, rt.Receiver())
	infos := make([]proof.AggregateSealVerifyInfo, len(precommits))
	for i, pc := range precommits {
		sealRand := abi.SealRandomness([]byte{1, 2, 3, byte(i)})
		intRand := abi.InteractiveSealRandomness([]byte{5, 6, 7, byte(i)})
		interactiveEpoch := pc.PreCommitEpoch + rt.Policy().PreCommitChallengeDelay
		rt.ExpectGetRandomnessBeacon(crypto.DomainSeparationTag_InteractiveSealChallengeSeed, interactiveEpoch, entropy, abi.Randomness(intRand))
		rt.ExpectGetRandomnessTickets(crypto.DomainSeparationTag_SealRandomness, pc.Info.SealRandEpoch, entropy, abi.Randomness(sealRand))
		infos[i] = proof.AggregateSealVerifyInfo{
			Number:                pc.Info.SectorNumber,
			InteractiveRandomness: intRand,
			Randomness:            sealRand,
			SealedCID:             pc.Info.SealedCID,
			UnsealedCID:           cid.Cid(commDs[i]),
		}
	}

	aggProof := []byte("aggregate proof")
	actorID, err := addr.IDFromAddress(h.receiver)
	require.NoError(h.t, err)
	rt.ExpectAggregateVerifySeals(proof.AggregateSealVerifyProofAndInfos{
		Infos:          infos,
		Proof:          aggProof,
		Miner:          abi.ActorID(actorID),
		SealProof:      h.sealProofType,
		AggregateProof: abi.RegisteredAggregationProof_SnarkPackV1,
	}, nil)

	h.expectQueryNetworkInfo(rt)
	h.expectActivateAndPledge(rt, proveCommitConf{}, precommits...)
	rt.ExpectSend(builtin.BurntFundsActorAddr, builtin.MethodSend, nil,
		miner.AggregateProveCommitNetworkFee(len(precommits), baseFee), nil, exitcode.Ok)

	rt.Call(h.a.ProveCommitAggregate, &miner.ProveCommitAggregateParams{
		SectorNumbers:  sectorNos,
		AggregateProof: aggProof,
	})
	rt.Verify()
}

// Pre-commits and proves n sectors starting at the harness's next sector number.
// Returns with the sectors assigned to deadlines but not yet proven by a window PoSt.
func (h *actorHarness) commitAndProveSectors(rt *mock.Runtime, n int, lifetimePeriods uint64, dealIDs [][]abi.DealID) []*miner.SectorOnChainInfo {
	precommitEpoch := rt.Epoch()
	deadline := h.deadline(rt)
	expiration := deadline.PeriodEnd() + abi.ChainEpoch(lifetimePeriods)*rt.Policy().WPoStProvingPeriod

	precommits := make([]*miner.SectorPreCommitOnChainInfo, n)
	for i := 0; i < n; i++ {
		sectorNo := h.nextSectorNo
		var sectorDeals []abi.DealID
		conf := preCommitConf{}
		if dealIDs != nil {
			sectorDeals = dealIDs[i]
			conf.dealWeights = []market.SectorWeights{{DealSpace: 1 << 20, DealWeight: big.Zero(), VerifiedDealWeight: big.Zero()}}
		}
		params := h.makePreCommit(sectorNo, precommitEpoch-1, expiration, sectorDeals)
		precommits[i] = h.preCommitSector(rt, params, conf)
		h.nextSectorNo++
	}

	h.advanceToEpochWithCron(rt, precommitEpoch+rt.Policy().PreCommitChallengeDelay+1)

	info := make([]*miner.SectorOnChainInfo, 0, n)
	for _, pc := range precommits {
		sector := h.proveCommitSectorAndConfirm(rt, pc, makeProveCommit(pc.Info.SectorNumber), proveCommitConf{})
		info = append(info, sector)
	}
	rt.Reset()
	return info
}

// Submits the first window PoSt for freshly committed sectors in deadline 0 and closes that deadline.
func (h *actorHarness) proveInitialSectors(rt *mock.Runtime, sectors []*miner.SectorOnChainInfo) *dline.Info {
	dlinfo := h.advanceToDeadline(rt, 0)
	partitions := []miner.PoStPartition{{Index: 0, Skipped: bitfield.New()}}
	h.submitWindowPoSt(rt, dlinfo, partitions, sectors, &poStConfig{
		expectedPowerDelta: miner.PowerForSectors(h.sectorSize, sectors),
	})
	h.advanceDeadline(rt, cronConfig{})
	return dlinfo
}

type poStConfig struct {
	expectedPowerDelta miner.PowerPair
	verify             bool
	verificationError  error
}

func makePoStProofs(registeredPoStProof abi.RegisteredPoStProof) []proof.PoStProof {
	proofs := make([]proof.PoStProof, 1)
	proofs[0] = proof.PoStProof{PoStProof: registeredPoStProof, ProofBytes: []byte("proof1")}
	return proofs
}

func (h *actorHarness) submitWindowPoSt(rt *mock.Runtime, deadline *dline.Info, partitions []miner.PoStPartition, infos []*miner.SectorOnChainInfo, poStCfg *poStConfig) {
	rt.SetCaller(h.worker, builtin.AccountActorCodeID)
	commitRand := abi.Randomness("chaincommitment")
	rt.ExpectGetRandomnessTickets(crypto.DomainSeparationTag_PoStChainCommit, deadline.Challenge, nil, commitRand)
	rt.ExpectValidateCallerAddr(append(h.controlAddrs, h.owner, h.worker)...)

	proofs := makePoStProofs(h.windowPostProofType)
	challengeRand := abi.Randomness([]byte{10, 11, 12, 13})

	if poStCfg != nil && poStCfg.verify {
		rt.ExpectGetRandomnessBeacon(crypto.DomainSeparationTag_WindowedPoStChallengeSeed, deadline.Challenge, receiverEntropy(h.t, rt.Receiver()), challengeRand)
		actorID, err := addr.IDFromAddress(h.receiver)
		require.NoError(h.t, err)
		rt.ExpectVerifyPoSt(proof.WindowPoStVerifyInfo{
			Randomness:        abi.PoStRandomness(challengeRand),
			Proofs:            proofs,
			ChallengedSectors: sectorProofInfos(infos),
			Prover:            abi.ActorID(actorID),
		}, poStCfg.verificationError)
	}

	if poStCfg != nil && !poStCfg.expectedPowerDelta.Raw.Nil() && !poStCfg.expectedPowerDelta.IsZero() {
		claim := &power.UpdateClaimedPowerParams{
			RawByteDelta:         poStCfg.expectedPowerDelta.Raw,
			QualityAdjustedDelta: poStCfg.expectedPowerDelta.QA,
		}
		rt.ExpectSend(builtin.StoragePowerActorAddr, builtin.MethodsPower.UpdateClaimedPower, claim, big.Zero(), nil, exitcode.Ok)
	}

	params := miner.SubmitWindowedPoStParams{
		Deadline:         deadline.Index,
		Partitions:       partitions,
		Proofs:           proofs,
		ChainCommitEpoch: deadline.Challenge,
		ChainCommitRand:  commitRand,
	}
	rt.Call(h.a.SubmitWindowedPoSt, &params)
	rt.Verify()
}

func sectorProofInfos(infos []*miner.SectorOnChainInfo) []proof.SectorInfo {
	out := make([]proof.SectorInfo, len(infos))
	for i, ci := range infos {
		out[i] = proof.SectorInfo{
			SealProof:    ci.SealProof,
			SectorNumber: ci.SectorNumber,
			SealedCID:    ci.SealedCID,
		}
	}
	return out
}

type disputeResult struct {
	expectedPowerDelta  *miner.PowerPair
	expectedPledgeDelta abi.TokenAmount
	expectedPenalty     abi.TokenAmount
	expectedReward      abi.TokenAmount
}

// Disputes the proof at index postIdx of the given deadline. The proof is made to fail verification
// when result is non-nil.
func (h *actorHarness) disputeWindowPoSt(rt *mock.Runtime, deadline *dline.Info, postIdx uint64, infos []*miner.SectorOnChainInfo, result *disputeResult) {
	rt.SetCaller(h.reporter, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
	h.expectQueryNetworkInfo(rt)

	challengeRand := abi.Randomness([]byte{10, 11, 12, 13})
	rt.ExpectGetRandomnessBeacon(crypto.DomainSeparationTag_WindowedPoStChallengeSeed, deadline.Challenge, receiverEntropy(h.t, rt.Receiver()), challengeRand)

	actorID, err := addr.IDFromAddress(h.receiver)
	require.NoError(h.t, err)
	var verifyErr error
	if result != nil {
		verifyErr = fmt.Errorf("invalid post")
	}
	rt.ExpectVerifyPoSt(proof.WindowPoStVerifyInfo{
		Randomness:        abi.PoStRandomness(challengeRand),
		Proofs:            makePoStProofs(h.windowPostProofType),
		ChallengedSectors: sectorProofInfos(infos),
		Prover:            abi.ActorID(actorID),
	}, verifyErr)

	if result != nil {
		if result.expectedPowerDelta != nil && !result.expectedPowerDelta.IsZero() {
			claim := &power.UpdateClaimedPowerParams{
				RawByteDelta:         result.expectedPowerDelta.Raw,
				QualityAdjustedDelta: result.expectedPowerDelta.QA,
			}
			rt.ExpectSend(builtin.StoragePowerActorAddr, builtin.MethodsPower.UpdateClaimedPower, claim, big.Zero(), nil, exitcode.Ok)
		}
		if !result.expectedReward.IsZero() {
			rt.ExpectSend(h.reporter, builtin.MethodSend, nil, result.expectedReward, nil, exitcode.Ok)
		}
		if result.expectedPenalty.GreaterThan(big.Zero()) {
			rt.ExpectSend(builtin.BurntFundsActorAddr, builtin.MethodSend, nil, result.expectedPenalty, nil, exitcode.Ok)
		}
		if !result.expectedPledgeDelta.IsZero() {
			rt.ExpectSend(builtin.StoragePowerActorAddr, builtin.MethodsPower.UpdatePledgeTotal, &result.expectedPledgeDelta, big.Zero(), nil, exitcode.Ok)
		}
	}

	rt.Call(h.a.DisputeWindowedPoSt, &miner.DisputeWindowedPoStParams{Deadline: deadline.Index, PoStIndex: postIdx})
	rt.Verify()
}

func (h *actorHarness) declareFaults(rt *mock.Runtime, faultSectorInfos ...*miner.SectorOnChainInfo) miner.PowerPair {
	rt.SetCaller(h.worker, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAddr(append(h.controlAddrs, h.owner, h.worker)...)

	sectorNos := make([]uint64, len(faultSectorInfos))
	for i, s := range faultSectorInfos {
		sectorNos[i] = uint64(s.SectorNumber)
	}
	dlIdx, pIdx := h.findSector(rt, faultSectorInfos[0].SectorNumber)

	expectedDelta := miner.PowerForSectors(h.sectorSize, faultSectorInfos).Neg()
	claim := &power.UpdateClaimedPowerParams{
		RawByteDelta:         expectedDelta.Raw,
		QualityAdjustedDelta: expectedDelta.QA,
	}
	rt.ExpectSend(builtin.StoragePowerActorAddr, builtin.MethodsPower.UpdateClaimedPower, claim, big.Zero(), nil, exitcode.Ok)

	params := &miner.DeclareFaultsParams{Faults: []miner.FaultDeclaration{{
		Deadline:  dlIdx,
		Partition: pIdx,
		Sectors:   bitfield.NewFromSet(sectorNos),
	}}}
	rt.Call(h.a.DeclareFaults, params)
	rt.Verify()
	return expectedDelta
}

func (h *actorHarness) declareRecoveries(rt *mock.Runtime, dlIdx, pIdx uint64, recoverySectors bitfield.BitField, expectedDebtRepaid abi.TokenAmount) {
	rt.SetCaller(h.worker, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAddr(append(h.controlAddrs, h.owner, h.worker)...)

	if expectedDebtRepaid.GreaterThan(big.Zero()) {
		rt.ExpectSend(builtin.BurntFundsActorAddr, builtin.MethodSend, nil, expectedDebtRepaid, nil, exitcode.Ok)
	}

	params := &miner.DeclareFaultsRecoveredParams{Recoveries: []miner.RecoveryDeclaration{{
		Deadline:  dlIdx,
		Partition: pIdx,
		Sectors:   recoverySectors,
	}}}
	rt.Call(h.a.DeclareFaultsRecovered, params)
	rt.Verify()
}

// Terminates sectors that live in a single partition, expecting the termination work to complete in the call.
func (h *actorHarness) terminateSectors(rt *mock.Runtime, sectors bitfield.BitField) {
	rt.SetCaller(h.worker, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAddr(append(h.controlAddrs, h.owner, h.worker)...)

	var dealIDs []abi.DealID
	var infos []*miner.SectorOnChainInfo
	var dlIdx, pIdx uint64
	err := sectors.ForEach(func(sno uint64) error {
		sector := h.getSector(rt, abi.SectorNumber(sno))
		dealIDs = append(dealIDs, sector.DealIDs...)
		infos = append(infos, sector)
		dlIdx, pIdx = h.findSector(rt, sector.SectorNumber)
		return nil
	})
	require.NoError(h.t, err)

	expectedFee := big.Zero()
	pledgeDelta := big.Zero()
	for _, s := range infos {
		fee := miner.PledgePenaltyForTermination(s.ExpectedDayReward, rt.Epoch()-s.Activation, s.ExpectedStoragePledge,
			h.epochQAPowerSmooth, miner.QAPowerForSector(h.sectorSize, s), h.epochRewardSmooth,
			s.ReplacedDayReward, s.ReplacedSectorAge)
		expectedFee = big.Add(expectedFee, fee)
		pledgeDelta = big.Sub(pledgeDelta, s.InitialPledge)
	}

	h.expectQueryNetworkInfo(rt)
	if expectedFee.GreaterThan(big.Zero()) {
		rt.ExpectSend(builtin.BurntFundsActorAddr, builtin.MethodSend, nil, expectedFee, nil, exitcode.Ok)
	}
	if !pledgeDelta.IsZero() {
		rt.ExpectSend(builtin.StoragePowerActorAddr, builtin.MethodsPower.UpdatePledgeTotal, &pledgeDelta, big.Zero(), nil, exitcode.Ok)
	}
	if len(dealIDs) > 0 {
		rt.ExpectSend(builtin.StorageMarketActorAddr, builtin.MethodsMarket.OnMinerSectorsTerminate,
			&market.OnMinerSectorsTerminateParams{Epoch: rt.Epoch(), DealIDs: dealIDs}, big.Zero(), nil, exitcode.Ok)
	}

	// Only sectors that have been proven have power to remove.
	lost := miner.NewPowerPairZero()
	part := h.getPartition(rt, dlIdx, pIdx)
	for _, s := range infos {
		unproven, err := part.Unproven.IsSet(uint64(s.SectorNumber))
		require.NoError(h.t, err)
		if !unproven {
			lost = lost.Add(miner.PowerForSector(h.sectorSize, s))
		}
	}
	if !lost.IsZero() {
		rt.ExpectSend(builtin.StoragePowerActorAddr, builtin.MethodsPower.UpdateClaimedPower, &power.UpdateClaimedPowerParams{
			RawByteDelta:         lost.Raw.Neg(),
			QualityAdjustedDelta: lost.QA.Neg(),
		}, big.Zero(), nil, exitcode.Ok)
	}

	params := &miner.TerminateSectorsParams{Terminations: []miner.TerminationDeclaration{{
		Deadline:  dlIdx,
		Partition: pIdx,
		Sectors:   sectors,
	}}}
	ret := rt.Call(h.a.TerminateSectors, params).(*miner.TerminateSectorsReturn)
	assert.True(h.t, ret.Done)
	rt.Verify()
}

func (h *actorHarness) extendSectors(rt *mock.Runtime, params *miner.ExtendSectorExpirationParams) {
	rt.SetCaller(h.worker, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAddr(append(h.controlAddrs, h.owner, h.worker)...)
	rt.Call(h.a.ExtendSectorExpiration, params)
	rt.Verify()
}

func (h *actorHarness) withdrawFunds(rt *mock.Runtime, requested, expectedWithdrawn, expectedDebtRepaid abi.TokenAmount) abi.TokenAmount {
	rt.SetCaller(h.owner, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAddr(h.owner)
	if expectedWithdrawn.GreaterThan(big.Zero()) {
		rt.ExpectSend(h.owner, builtin.MethodSend, nil, expectedWithdrawn, nil, exitcode.Ok)
	}
	if expectedDebtRepaid.GreaterThan(big.Zero()) {
		rt.ExpectSend(builtin.BurntFundsActorAddr, builtin.MethodSend, nil, expectedDebtRepaid, nil, exitcode.Ok)
	}
	ret := rt.Call(h.a.WithdrawBalance, &miner.WithdrawBalanceParams{AmountRequested: requested}).(*abi.TokenAmount)
	rt.Verify()
	return *ret
}

func (h *actorHarness) repayDebt(rt *mock.Runtime, expectedFromVesting, expectedBurnt abi.TokenAmount) {
	rt.SetCaller(h.worker, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAddr(append(h.controlAddrs, h.owner, h.worker)...)
	if !expectedFromVesting.IsZero() {
		pledgeDelta := expectedFromVesting.Neg()
		rt.ExpectSend(builtin.StoragePowerActorAddr, builtin.MethodsPower.UpdatePledgeTotal, &pledgeDelta, big.Zero(), nil, exitcode.Ok)
	}
	if expectedBurnt.GreaterThan(big.Zero()) {
		rt.ExpectSend(builtin.BurntFundsActorAddr, builtin.MethodSend, nil, expectedBurnt, nil, exitcode.Ok)
	}
	rt.Call(h.a.RepayDebt, nil)
	rt.Verify()
}

func (h *actorHarness) applyRewards(rt *mock.Runtime, amt, penalty, expectedPledge, expectedBurn abi.TokenAmount) {
	rt.SetCaller(builtin.RewardActorAddr, builtin.RewardActorCodeID)
	rt.ExpectValidateCallerAddr(builtin.RewardActorAddr)
	if !expectedPledge.IsZero() {
		rt.ExpectSend(builtin.StoragePowerActorAddr, builtin.MethodsPower.UpdatePledgeTotal, &expectedPledge, big.Zero(), nil, exitcode.Ok)
	}
	if expectedBurn.GreaterThan(big.Zero()) {
		rt.ExpectSend(builtin.BurntFundsActorAddr, builtin.MethodSend, nil, expectedBurn, nil, exitcode.Ok)
	}
	rt.Call(h.a.ApplyRewards, &builtin.ApplyRewardParams{Reward: amt, Penalty: penalty})
	rt.Verify()
}

func (h *actorHarness) thisEpochReward() *reward.ThisEpochRewardReturn {
	return &reward.ThisEpochRewardReturn{
		ThisEpochRewardSmoothed: h.epochRewardSmooth,
		ThisEpochBaselinePower:  h.baselinePower,
	}
}

func (h *actorHarness) reportConsensusFault(rt *mock.Runtime, fault *runtime.ConsensusFault, expectedReward, expectedBurn abi.TokenAmount) {
	rt.SetCaller(h.reporter, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerType(builtin.CallerTypesSignable...)
	rt.ExpectVerifyConsensusFault([]byte("header1"), []byte("header2"), nil, fault, nil)
	rt.ExpectSend(builtin.RewardActorAddr, builtin.MethodsReward.ThisEpochReward, nil, big.Zero(), h.thisEpochReward(), exitcode.Ok)

	if expectedReward.GreaterThan(big.Zero()) {
		rt.ExpectSend(h.reporter, builtin.MethodSend, nil, expectedReward, nil, exitcode.Ok)
	}
	if expectedBurn.GreaterThan(big.Zero()) {
		rt.ExpectSend(builtin.BurntFundsActorAddr, builtin.MethodSend, nil, expectedBurn, nil, exitcode.Ok)
	}

	rt.Call(h.a.ReportConsensusFault, &miner.ReportConsensusFaultParams{
		BlockHeader1: []byte("header1"),
		BlockHeader2: []byte("header2"),
	})
	rt.Verify()
}

func (h *actorHarness) compactSectorNumbers(rt *mock.Runtime, mask bitfield.BitField) {
	rt.SetCaller(h.worker, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAddr(append(h.controlAddrs, h.owner, h.worker)...)
	rt.Call(h.a.CompactSectorNumbers, &miner.CompactSectorNumbersParams{MaskSectorNumbers: mask})
	rt.Verify()
}

func (h *actorHarness) compactPartitions(rt *mock.Runtime, deadline uint64, partitions bitfield.BitField) {
	rt.SetCaller(h.worker, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAddr(append(h.controlAddrs, h.owner, h.worker)...)
	rt.Call(h.a.CompactPartitions, &miner.CompactPartitionsParams{Deadline: deadline, Partitions: partitions})
	rt.Verify()
}

// Upgrades a proven committed-capacity sector with a single fully verified deal.
func (h *actorHarness) proveReplicaUpdate(rt *mock.Runtime, old *miner.SectorOnChainInfo, newSealed cid.Cid, deals []abi.DealID) *miner.SectorOnChainInfo {
	dlIdx, pIdx := h.findSector(rt, old.SectorNumber)
	updateProof, err := builtin.SealProofReplicaUpdateProof(old.SealProof)
	require.NoError(h.t, err)
	replicaProof := []byte("replica proof")
	commd := tutil.MakeCID("commd-update", &market.PieceCIDPrefix)

	rt.SetCaller(h.worker, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAddr(append(h.controlAddrs, h.owner, h.worker)...)
	rt.ExpectSend(builtin.StorageMarketActorAddr, builtin.MethodsMarket.ActivateDeals,
		&market.ActivateDealsParams{DealIDs: deals, SectorExpiry: old.Expiration}, big.Zero(), nil, exitcode.Ok)

	duration := old.Expiration - rt.Epoch()
	verifiedWeight := big.Mul(big.NewIntUnsigned(uint64(h.sectorSize)), big.NewInt(int64(duration)))
	rt.ExpectSend(builtin.StorageMarketActorAddr, builtin.MethodsMarket.VerifyDealsForActivation,
		&market.VerifyDealsForActivationParams{Sectors: []market.SectorDeals{{SectorExpiry: old.Expiration, DealIDs: deals}}},
		big.Zero(),
		&market.VerifyDealsForActivationReturn{Sectors: []market.SectorWeights{{
			DealSpace:          uint64(h.sectorSize),
			DealWeight:         big.Zero(),
			VerifiedDealWeight: verifiedWeight,
		}}}, exitcode.Ok)
	rt.ExpectSend(builtin.StorageMarketActorAddr, builtin.MethodsMarket.ComputeDataCommitment,
		&market.ComputeDataCommitmentParams{Inputs: []market.SectorDataSpec{{DealIDs: deals, SectorType: old.SealProof}}},
		big.Zero(), &market.ComputeDataCommitmentReturn{CommDs: []cbg.CborCid{cbg.CborCid(commd)}}, exitcode.Ok)
	h.expectQueryNetworkInfo(rt)

	rt.ExpectReplicaVerify(proof.ReplicaUpdateInfo{
		UpdateProofType:      updateProof,
		NewSealedSectorCID:   newSealed,
		OldSealedSectorCID:   old.SealedCID,
		NewUnsealedSectorCID: commd,
		Proof:                replicaProof,
	}, nil)

	newQAPower := miner.QAPowerForWeight(h.sectorSize, duration, big.Zero(), verifiedWeight)
	newPledge := miner.InitialPledgeForPower(newQAPower, h.baselinePower, h.epochRewardSmooth, h.epochQAPowerSmooth, rt.TotalFilCircSupply())
	pledgeDelta := big.Zero()
	if newPledge.GreaterThan(old.InitialPledge) {
		pledgeDelta = big.Sub(newPledge, old.InitialPledge)
	}
	if !pledgeDelta.IsZero() {
		rt.ExpectSend(builtin.StoragePowerActorAddr, builtin.MethodsPower.UpdatePledgeTotal, &pledgeDelta, big.Zero(), nil, exitcode.Ok)
	}
	oldPower := miner.QAPowerForSector(h.sectorSize, old)
	rt.ExpectSend(builtin.StoragePowerActorAddr, builtin.MethodsPower.UpdateClaimedPower, &power.UpdateClaimedPowerParams{
		RawByteDelta:         big.Zero(),
		QualityAdjustedDelta: big.Sub(newQAPower, oldPower),
	}, big.Zero(), nil, exitcode.Ok)

	ret := rt.Call(h.a.ProveReplicaUpdates, &miner.ProveReplicaUpdatesParams{Updates: []miner.ReplicaUpdate{{
		SectorID:           old.SectorNumber,
		Deadline:           dlIdx,
		Partition:          pIdx,
		NewSealedSectorCID: newSealed,
		Deals:              deals,
		UpdateProofType:    updateProof,
		ReplicaProof:       replicaProof,
	}}}).(*bitfield.BitField)
	rt.Verify()
	count, err := ret.Count()
	require.NoError(h.t, err)
	require.Equal(h.t, uint64(1), count)
	set, err := ret.IsSet(uint64(old.SectorNumber))
	require.NoError(h.t, err)
	require.True(h.t, set)

	return h.getSector(rt, old.SectorNumber)
}

func (h *actorHarness) expectQueryNetworkInfo(rt *mock.Runtime) {
	currentPower := power.CurrentTotalPowerReturn{
		RawBytePower:            h.networkRawPower,
		QualityAdjPower:         h.networkQAPower,
		PledgeCollateral:        h.networkPledge,
		QualityAdjPowerSmoothed: h.epochQAPowerSmooth,
	}
	rt.ExpectSend(builtin.RewardActorAddr, builtin.MethodsReward.ThisEpochReward, nil, big.Zero(), h.thisEpochReward(), exitcode.Ok)
	rt.ExpectSend(builtin.StoragePowerActorAddr, builtin.MethodsPower.CurrentTotalPower, nil, big.Zero(), &currentPower, exitcode.Ok)
}

//
// Cron helpers
//

type cronConfig struct {
	noEnrollment       bool // true if expect not to continue enrollment false otherwise
	expectedEnrollment abi.ChainEpoch
	powerDelta         *miner.PowerPair
	burnt              abi.TokenAmount
	pledgeDelta        abi.TokenAmount
}

func (h *actorHarness) onDeadlineCron(rt *mock.Runtime, config *cronConfig) {
	st := getState(rt)
	rt.ExpectValidateCallerAddr(builtin.StoragePowerActorAddr)

	if config.powerDelta != nil && !config.powerDelta.IsZero() {
		claim := &power.UpdateClaimedPowerParams{
			RawByteDelta:         config.powerDelta.Raw,
			QualityAdjustedDelta: config.powerDelta.QA,
		}
		rt.ExpectSend(builtin.StoragePowerActorAddr, builtin.MethodsPower.UpdateClaimedPower, claim, big.Zero(), nil, exitcode.Ok)
	}
	if config.burnt.Int != nil && config.burnt.GreaterThan(big.Zero()) {
		rt.ExpectSend(builtin.BurntFundsActorAddr, builtin.MethodSend, nil, config.burnt, nil, exitcode.Ok)
	}
	if config.pledgeDelta.Int != nil && !config.pledgeDelta.IsZero() {
		rt.ExpectSend(builtin.StoragePowerActorAddr, builtin.MethodsPower.UpdatePledgeTotal, &config.pledgeDelta, big.Zero(), nil, exitcode.Ok)
	}

	if !config.noEnrollment {
		enrollment := config.expectedEnrollment
		if enrollment == 0 {
			enrollment = st.DeadlineInfo(rt.Policy(), rt.Epoch()).Last() + rt.Policy().WPoStChallengeWindow
		}
		rt.ExpectSend(builtin.StoragePowerActorAddr, builtin.MethodsPower.EnrollCronEvent,
			makeDeadlineCronEventParams(h.t, enrollment), big.Zero(), nil, exitcode.Ok)
	}

	rt.SetCaller(builtin.StoragePowerActorAddr, builtin.StoragePowerActorCodeID)
	rt.Call(h.a.OnDeferredCronEvent, &builtin.DeferredCronEventParams{
		EventPayload:            makeCronEventPayload(h.t, miner.CronEventProvingDeadline),
		RewardSmoothed:          h.epochRewardSmooth,
		QualityAdjPowerSmoothed: h.epochQAPowerSmooth,
	})
	rt.Verify()
}

// Runs the cron for the current deadline at its last epoch, then moves to the next deadline's first epoch.
func (h *actorHarness) advanceDeadline(rt *mock.Runtime, config cronConfig) *dline.Info {
	dlinfo := h.deadline(rt)
	rt.SetEpoch(dlinfo.Last())
	h.onDeadlineCron(rt, &config)
	rt.SetEpoch(dlinfo.NextOpen())
	return h.deadline(rt)
}

func (h *actorHarness) advanceToDeadline(rt *mock.Runtime, dlIdx uint64) *dline.Info {
	dlinfo := h.deadline(rt)
	for dlinfo.Index != dlIdx {
		dlinfo = h.advanceDeadline(rt, cronConfig{})
	}
	return dlinfo
}

func (h *actorHarness) advanceToEpochWithCron(rt *mock.Runtime, e abi.ChainEpoch) {
	deadline := h.deadline(rt)
	for e > deadline.Last() {
		h.advanceDeadline(rt, cronConfig{})
		deadline = h.deadline(rt)
	}
	rt.SetEpoch(e)
}

func makeCronEventPayload(t testing.TB, eventType int64) []byte {
	payload := miner.CronEventPayload{EventType: eventType}
	buf := bytes.Buffer{}
	require.NoError(t, payload.MarshalCBOR(&buf))
	return buf.Bytes()
}

func makeDeadlineCronEventParams(t testing.TB, epoch abi.ChainEpoch) *power.EnrollCronEventParams {
	return &power.EnrollCronEventParams{
		EventEpoch: epoch,
		Payload:    makeCronEventPayload(t, miner.CronEventProvingDeadline),
	}
}

func receiverEntropy(t testing.TB, receiver addr.Address) []byte {
	buf := bytes.Buffer{}
	require.NoError(t, receiver.MarshalCBOR(&buf))
	return buf.Bytes()
}

// Returns a fake hashing function that always arranges the first 8 bytes of the digest to be the binary
// encoding of a target uint64.
func fixedHasher(target uint64) func([]byte) [32]byte {
	return func(_ []byte) [32]byte {
		var buf bytes.Buffer
		err := binary.Write(&buf, binary.BigEndian, target)
		if err != nil {
			panic(err)
		}
		var digest [32]byte
		copy(digest[:], buf.Bytes())
		return digest
	}
}
