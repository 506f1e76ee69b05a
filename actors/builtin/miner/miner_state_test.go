package miner_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/filecoin-project/go-bitfield"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/filecoin-project/go-state-types/exitcode"
	cid "github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/storage-actors/actors/builtin"
	"github.com/filecoin-project/storage-actors/actors/builtin/miner"
	"github.com/filecoin-project/storage-actors/actors/runtime"
	"github.com/filecoin-project/storage-actors/actors/util/adt"
	"github.com/filecoin-project/storage-actors/support/ipld"
	tutil "github.com/filecoin-project/storage-actors/support/testing"
)

func TestPrecommittedSectorsStore(t *testing.T) {
	t.Run("put, get and delete", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		pc1 := newPreCommitOnChain(1, tutil.MakeCID("1", &miner.SealedCIDPrefix), abi.NewTokenAmount(1), 1)
		require.NoError(t, harness.s.PutPrecommittedSectors(harness.store, pc1))
		assert.Equal(t, pc1, harness.getPreCommit(1))

		pc2 := newPreCommitOnChain(2, tutil.MakeCID("2", &miner.SealedCIDPrefix), abi.NewTokenAmount(1), 1)
		pc3 := newPreCommitOnChain(3, tutil.MakeCID("3", &miner.SealedCIDPrefix), abi.NewTokenAmount(1), 1)
		require.NoError(t, harness.s.PutPrecommittedSectors(harness.store, pc2, pc3))
		assert.Equal(t, pc2, harness.getPreCommit(2))
		assert.Equal(t, pc3, harness.getPreCommit(3))

		harness.deletePreCommit(1)
		assert.False(t, harness.hasPreCommit(1))
		assert.True(t, harness.hasPreCommit(2))
	})

	t.Run("delete nonexistent value returns an error", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		err := harness.s.DeletePrecommittedSectors(harness.store, 1)
		assert.Error(t, err)
	})

	t.Run("get nonexistent value returns false", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		assert.False(t, harness.hasPreCommit(1))
	})

	t.Run("duplicate put rejected", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		pc1 := newPreCommitOnChain(1, tutil.MakeCID("1", &miner.SealedCIDPrefix), abi.NewTokenAmount(1), 1)
		assert.NoError(t, harness.s.PutPrecommittedSectors(harness.store, pc1))
		err := harness.s.PutPrecommittedSectors(harness.store, pc1)
		assert.Error(t, err)
		assert.Equal(t, exitcode.ErrIllegalArgument, exitcode.Unwrap(err, exitcode.Ok))

		pc2 := newPreCommitOnChain(2, tutil.MakeCID("2", &miner.SealedCIDPrefix), abi.NewTokenAmount(1), 1)
		assert.Error(t, harness.s.PutPrecommittedSectors(harness.store, pc2, pc2))
	})

	t.Run("find skips missing and get-all requires every sector", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		pc1 := newPreCommitOnChain(1, tutil.MakeCID("1", &miner.SealedCIDPrefix), abi.NewTokenAmount(1), 1)
		pc3 := newPreCommitOnChain(3, tutil.MakeCID("3", &miner.SealedCIDPrefix), abi.NewTokenAmount(1), 1)
		require.NoError(t, harness.s.PutPrecommittedSectors(harness.store, pc1, pc3))

		found, err := harness.s.FindPrecommittedSectors(harness.store, 1, 2, 3)
		require.NoError(t, err)
		assert.Equal(t, []*miner.SectorPreCommitOnChainInfo{pc1, pc3}, found)

		all, err := harness.s.GetAllPrecommittedSectors(harness.store, bf(1, 3))
		require.NoError(t, err)
		assert.Len(t, all, 2)

		_, err = harness.s.GetAllPrecommittedSectors(harness.store, bf(1, 2, 3))
		require.Error(t, err)
		assert.Equal(t, exitcode.ErrNotFound, exitcode.Unwrap(err, exitcode.Ok))
	})
}

func TestSectorsStore(t *testing.T) {
	t.Run("put get and delete", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))

		sectorNo := abi.SectorNumber(1)
		sectorInfo1 := newSectorOnChainInfo(sectorNo, tutil.MakeCID("1", &miner.SealedCIDPrefix), big.NewInt(1), abi.ChainEpoch(1))
		sectorInfo2 := newSectorOnChainInfo(sectorNo, tutil.MakeCID("2", &miner.SealedCIDPrefix), big.NewInt(2), abi.ChainEpoch(2))

		harness.putSector(sectorInfo1)
		assert.True(t, harness.hasSectorNo(sectorNo))
		assert.Equal(t, sectorInfo1, harness.getSector(sectorNo))

		harness.putSector(sectorInfo2)
		assert.Equal(t, sectorInfo2, harness.getSector(sectorNo))

		harness.deleteSectors(uint64(sectorNo))
		assert.False(t, harness.hasSectorNo(sectorNo))
	})

	t.Run("delete nonexistent value returns an error", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		assert.Error(t, harness.s.DeleteSectors(harness.store, bf(1)))
	})

	t.Run("get nonexistent value returns false", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		assert.False(t, harness.hasSectorNo(abi.SectorNumber(1)))
	})

	t.Run("iterate and delete multiple sectors", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))

		sectorNos := []uint64{100, 200, 300, 400, 500, 600, 700, 800, 900, 1000}
		for i, s := range sectorNos {
			harness.putSector(newSectorOnChainInfo(abi.SectorNumber(s), tutil.MakeCID(fmt.Sprintf("%d", i), &miner.SealedCIDPrefix), big.NewInt(int64(i)), abi.ChainEpoch(i)))
		}

		sectorNoIdx := 0
		err := harness.s.ForEachSector(harness.store, func(si *miner.SectorOnChainInfo) {
			require.Equal(t, abi.SectorNumber(sectorNos[sectorNoIdx]), si.SectorNumber)
			sectorNoIdx++
		})
		assert.NoError(t, err)
		assert.Equal(t, len(sectorNos), sectorNoIdx)

		infos, err := harness.s.LoadSectorInfos(harness.store, bf(100, 500, 1000))
		require.NoError(t, err)
		require.Len(t, infos, 3)
		assert.Equal(t, abi.SectorNumber(500), infos[1].SectorNumber)

		_, err = harness.s.LoadSectorInfos(harness.store, bf(100, 101))
		require.Error(t, err)
		assert.Equal(t, exitcode.ErrNotFound, exitcode.Unwrap(err, exitcode.Ok))

		harness.deleteSectors(sectorNos...)
		for _, s := range sectorNos {
			assert.False(t, harness.hasSectorNo(abi.SectorNumber(s)))
		}
	})
}

func TestVestingFunds_AddLockedFunds_Table(t *testing.T) {
	vestStartDelay := abi.ChainEpoch(10)
	vestSum := int64(100)

	testcase := []struct {
		desc        string
		vspec       *miner.VestSpec
		periodStart abi.ChainEpoch
		vepocs      []int64
	}{
		{
			desc:   "vest funds in a single epoch",
			vspec:  &miner.VestSpec{InitialDelay: 0, VestPeriod: 1, StepDuration: 1, Quantization: 1},
			vepocs: []int64{0, 0, 100, 0},
		},
		{
			desc:   "vest funds with period=2",
			vspec:  &miner.VestSpec{InitialDelay: 0, VestPeriod: 2, StepDuration: 1, Quantization: 1},
			vepocs: []int64{0, 0, 50, 50, 0},
		},
		{
			desc:   "vest funds with period=2 quantization=2",
			vspec:  &miner.VestSpec{InitialDelay: 0, VestPeriod: 2, StepDuration: 1, Quantization: 2},
			vepocs: []int64{0, 0, 0, 100, 0},
		},
		{
			desc:   "vest funds with period=3",
			vspec:  &miner.VestSpec{InitialDelay: 0, VestPeriod: 3, StepDuration: 1, Quantization: 1},
			vepocs: []int64{0, 0, 33, 33, 34, 0},
		},
		{
			desc:   "vest funds with period=4 and step=2",
			vspec:  &miner.VestSpec{InitialDelay: 0, VestPeriod: 4, StepDuration: 2, Quantization: 1},
			vepocs: []int64{0, 0, 0, 50, 0, 50, 0},
		},
		{
			desc:   "vest funds with delay=5 period=2",
			vspec:  &miner.VestSpec{InitialDelay: 5, VestPeriod: 2, StepDuration: 1, Quantization: 1},
			vepocs: []int64{0, 0, 0, 0, 0, 0, 0, 50, 50, 0},
		},
		{
			desc:        "vest funds with offset proving period start",
			vspec:       &miner.VestSpec{InitialDelay: 0, VestPeriod: 2, StepDuration: 1, Quantization: 2},
			periodStart: 1,
			vepocs:      []int64{0, 0, 0, 100, 0},
		},
	}
	for _, tc := range testcase {
		t.Run(tc.desc, func(t *testing.T) {
			harness := constructStateHarness(t, tc.periodStart)
			vestStart := tc.periodStart + vestStartDelay

			harness.addLockedFunds(vestStart, abi.NewTokenAmount(vestSum), tc.vspec)
			assert.Equal(t, abi.NewTokenAmount(vestSum), harness.s.LockedFunds)

			var totalVested int64
			for e, v := range tc.vepocs {
				assert.Equal(t, abi.NewTokenAmount(v), harness.unlockVestedFunds(vestStart+abi.ChainEpoch(e)))
				totalVested += v
				assert.Equal(t, vestSum-totalVested, harness.s.LockedFunds.Int64())
			}

			assert.Equal(t, vestSum, totalVested)
			assert.True(t, harness.vestingFundsStoreEmpty())
			assert.Zero(t, harness.s.LockedFunds.Int64())
		})
	}
}

func TestVestingFunds_AddLockedFunds(t *testing.T) {
	t.Run("locked funds increase with sequential calls", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		vspec := &miner.VestSpec{InitialDelay: 0, VestPeriod: 1, StepDuration: 1, Quantization: 1}

		vestStart := abi.ChainEpoch(10)
		vestSum := abi.NewTokenAmount(100)

		harness.addLockedFunds(vestStart, vestSum, vspec)
		assert.Equal(t, vestSum, harness.s.LockedFunds)

		harness.addLockedFunds(vestStart, vestSum, vspec)
		assert.Equal(t, big.Mul(vestSum, big.NewInt(2)), harness.s.LockedFunds)
	})

	t.Run("adding locked funds unlocks those already vested", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		vspec := &miner.VestSpec{InitialDelay: 0, VestPeriod: 1, StepDuration: 1, Quantization: 1}

		harness.addLockedFunds(10, abi.NewTokenAmount(100), vspec)
		vested, err := harness.s.AddLockedFunds(harness.store, 20, abi.NewTokenAmount(50), vspec)
		require.NoError(t, err)
		assert.Equal(t, abi.NewTokenAmount(100), vested)
		assert.Equal(t, abi.NewTokenAmount(50), harness.s.LockedFunds)
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		vspec := &miner.VestSpec{InitialDelay: 0, VestPeriod: 1, StepDuration: 1, Quantization: 1}
		_, err := harness.s.AddLockedFunds(harness.store, 10, abi.NewTokenAmount(-1), vspec)
		assert.Error(t, err)
	})

	t.Run("vests when quantize, step duration, and vesting period are coprime", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		vspec := &miner.VestSpec{InitialDelay: 0, VestPeriod: 27, StepDuration: 5, Quantization: 7}
		vestStart := abi.ChainEpoch(10)
		vestSum := abi.NewTokenAmount(100)
		harness.addLockedFunds(vestStart, vestSum, vspec)
		assert.Equal(t, vestSum, harness.s.LockedFunds)

		totalVested := abi.NewTokenAmount(0)
		for e := vestStart; e <= 43; e++ {
			amountVested := harness.unlockVestedFunds(e)
			switch e {
			case 22:
				assert.Equal(t, abi.NewTokenAmount(40), amountVested)
			case 29:
				assert.Equal(t, abi.NewTokenAmount(26), amountVested)
			case 36:
				assert.Equal(t, abi.NewTokenAmount(26), amountVested)
			case 43:
				assert.Equal(t, abi.NewTokenAmount(8), amountVested)
			default:
				assert.Equal(t, abi.NewTokenAmount(0), amountVested)
			}
			totalVested = big.Add(totalVested, amountVested)
		}
		assert.Equal(t, vestSum, totalVested)
		assert.Zero(t, harness.s.LockedFunds.Int64())
		assert.True(t, harness.vestingFundsStoreEmpty())
	})

	t.Run("reward vesting spans the reward vesting period", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		locked, spec := miner.LockedRewardFromReward(abi.NewTokenAmount(1000))
		assert.Equal(t, abi.NewTokenAmount(750), locked)

		harness.addLockedFunds(0, locked, spec)
		vested, err := harness.s.CheckVestedFunds(harness.store, spec.VestPeriod+spec.Quantization+1)
		require.NoError(t, err)
		assert.Equal(t, locked, vested)

		vested, err = harness.s.CheckVestedFunds(harness.store, spec.VestPeriod/2)
		require.NoError(t, err)
		assert.True(t, vested.GreaterThan(big.Zero()))
		assert.True(t, vested.LessThan(locked))
	})
}

func TestVestingFunds_UnvestedFunds(t *testing.T) {
	vspec := &miner.VestSpec{InitialDelay: 0, VestPeriod: 5, StepDuration: 1, Quantization: 1}

	t.Run("unlock unvested funds leaving bucket with non-zero tokens", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		vestStart := abi.ChainEpoch(100)
		vestSum := abi.NewTokenAmount(100)

		harness.addLockedFunds(vestStart, vestSum, vspec)

		amountUnlocked := harness.unlockUnvestedFunds(vestStart, big.NewInt(39))
		assert.Equal(t, big.NewInt(39), amountUnlocked)

		assert.Equal(t, abi.NewTokenAmount(0), harness.unlockVestedFunds(vestStart))
		assert.Equal(t, abi.NewTokenAmount(0), harness.unlockVestedFunds(vestStart+1))

		// The first entry was fully unlocked and the second keeps one token.
		assert.Equal(t, abi.NewTokenAmount(0), harness.unlockVestedFunds(vestStart+2))
		assert.Equal(t, abi.NewTokenAmount(1), harness.unlockVestedFunds(vestStart+3))

		assert.Equal(t, abi.NewTokenAmount(20), harness.unlockVestedFunds(vestStart+4))
		assert.Equal(t, abi.NewTokenAmount(20), harness.unlockVestedFunds(vestStart+5))
		assert.Equal(t, abi.NewTokenAmount(20), harness.unlockVestedFunds(vestStart+6))

		assert.Equal(t, abi.NewTokenAmount(0), harness.unlockVestedFunds(vestStart+7))

		assert.Zero(t, harness.s.LockedFunds.Int64())
		assert.True(t, harness.vestingFundsStoreEmpty())
	})

	t.Run("unlock unvested funds leaving bucket with zero tokens", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		vestStart := abi.ChainEpoch(100)
		vestSum := abi.NewTokenAmount(100)

		harness.addLockedFunds(vestStart, vestSum, vspec)

		amountUnlocked := harness.unlockUnvestedFunds(vestStart, big.NewInt(40))
		assert.Equal(t, big.NewInt(40), amountUnlocked)

		assert.Equal(t, abi.NewTokenAmount(0), harness.unlockVestedFunds(vestStart+3))
		assert.Equal(t, abi.NewTokenAmount(20), harness.unlockVestedFunds(vestStart+4))
		assert.Equal(t, abi.NewTokenAmount(20), harness.unlockVestedFunds(vestStart+5))
		assert.Equal(t, abi.NewTokenAmount(20), harness.unlockVestedFunds(vestStart+6))

		assert.Zero(t, harness.s.LockedFunds.Int64())
		assert.True(t, harness.vestingFundsStoreEmpty())
	})

	t.Run("unlock all unvested funds", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		vestStart := abi.ChainEpoch(10)
		vestSum := abi.NewTokenAmount(100)
		harness.addLockedFunds(vestStart, vestSum, vspec)
		unvestedFunds := harness.unlockUnvestedFunds(vestStart, vestSum)
		assert.Equal(t, vestSum, unvestedFunds)

		assert.Zero(t, harness.s.LockedFunds.Int64())
		assert.True(t, harness.vestingFundsStoreEmpty())
	})

	t.Run("unlock unvested funds value greater than locked funds", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		vestStart := abi.ChainEpoch(10)
		vestSum := abi.NewTokenAmount(100)
		harness.addLockedFunds(vestStart, vestSum, vspec)
		unvestedFunds := harness.unlockUnvestedFunds(vestStart, abi.NewTokenAmount(200))
		assert.Equal(t, vestSum, unvestedFunds)

		assert.Zero(t, harness.s.LockedFunds.Int64())
		assert.True(t, harness.vestingFundsStoreEmpty())
	})

	t.Run("unlock unvested funds when there are vested funds in the table", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		longSpec := &miner.VestSpec{InitialDelay: 0, VestPeriod: 50, StepDuration: 1, Quantization: 1}

		vestStart := abi.ChainEpoch(10)
		vestSum := abi.NewTokenAmount(100)

		// Locks funds from epochs 11 to 60.
		harness.addLockedFunds(vestStart, vestSum, longSpec)

		// Unlocks the funds vesting at epochs 30 to 59, leaving 11 to 29 and 60.
		newEpoch := abi.ChainEpoch(30)
		target := abi.NewTokenAmount(60)
		remaining := big.Sub(vestSum, target)
		unvestedFunds := harness.unlockUnvestedFunds(newEpoch, target)
		assert.Equal(t, target, unvestedFunds)
		assert.EqualValues(t, remaining, harness.s.LockedFunds)

		funds, err := harness.s.LoadVestingFunds(harness.store)
		require.NoError(t, err)
		require.Len(t, funds.Funds, 20)
		for i, vf := range funds.Funds[:19] {
			assert.EqualValues(t, 11+i, vf.Epoch)
			assert.Equal(t, abi.NewTokenAmount(2), vf.Amount)
		}
		assert.EqualValues(t, 60, funds.Funds[19].Epoch)
		assert.Equal(t, abi.NewTokenAmount(2), funds.Funds[19].Amount)
	})
}

func TestPreCommitCleanUp(t *testing.T) {
	policy := runtime.DefaultPolicy()

	t.Run("simple pre-commit expiry and cleanup", func(t *testing.T) {
		harness := constructStateHarness(t, 0)
		err := harness.s.AddPreCommitCleanUps(policy, harness.store, map[abi.ChainEpoch][]uint64{100: {1}})
		require.NoError(t, err)

		quant := harness.s.QuantSpecEveryDeadline(policy)
		expectBQ().
			add(quant.QuantizeUp(100), 1).
			equals(t, harness.loadPreCommitCleanUps())

		err = harness.s.AddPreCommitCleanUps(policy, harness.store, map[abi.ChainEpoch][]uint64{100: {2}})
		require.NoError(t, err)
		expectBQ().
			add(quant.QuantizeUp(100), 1, 2).
			equals(t, harness.loadPreCommitCleanUps())

		err = harness.s.AddPreCommitCleanUps(policy, harness.store, map[abi.ChainEpoch][]uint64{200: {3}})
		require.NoError(t, err)
		expectBQ().
			add(quant.QuantizeUp(100), 1, 2).
			add(quant.QuantizeUp(200), 3).
			equals(t, harness.loadPreCommitCleanUps())
	})

	t.Run("batch pre-commit expiry", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		err := harness.s.AddPreCommitCleanUps(policy, harness.store, map[abi.ChainEpoch][]uint64{
			100: {1},
			200: {2, 3},
			300: {},
		})
		require.NoError(t, err)

		quant := harness.s.QuantSpecEveryDeadline(policy)
		expectBQ().
			add(quant.QuantizeUp(100), 1).
			add(quant.QuantizeUp(200), 2, 3).
			equals(t, harness.loadPreCommitCleanUps())

		err = harness.s.AddPreCommitCleanUps(policy, harness.store, map[abi.ChainEpoch][]uint64{
			100: {1}, // Redundant
			200: {4},
			300: {5, 6},
		})
		require.NoError(t, err)
		expectBQ().
			add(quant.QuantizeUp(100), 1).
			add(quant.QuantizeUp(200), 2, 3, 4).
			add(quant.QuantizeUp(300), 5, 6).
			equals(t, harness.loadPreCommitCleanUps())
	})

	t.Run("expired pre-commits burn their deposits", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		pc1 := newPreCommitOnChain(1, tutil.MakeCID("1", &miner.SealedCIDPrefix), abi.NewTokenAmount(10), 1)
		pc2 := newPreCommitOnChain(2, tutil.MakeCID("2", &miner.SealedCIDPrefix), abi.NewTokenAmount(20), 1)
		require.NoError(t, harness.s.PutPrecommittedSectors(harness.store, pc1, pc2))
		require.NoError(t, harness.s.AddPreCommitDeposit(abi.NewTokenAmount(30)))

		// Sector 3 was never pre-committed (or already proven) and is ignored.
		require.NoError(t, harness.s.AddPreCommitCleanUps(policy, harness.store, map[abi.ChainEpoch][]uint64{
			100: {1, 2},
			200: {3},
		}))

		quant := harness.s.QuantSpecEveryDeadline(policy)
		burnt, err := harness.s.ExpirePreCommits(policy, harness.store, quant.QuantizeUp(100)-1)
		require.NoError(t, err)
		assert.True(t, burnt.IsZero())
		assert.True(t, harness.hasPreCommit(1))

		burnt, err = harness.s.ExpirePreCommits(policy, harness.store, quant.QuantizeUp(100))
		require.NoError(t, err)
		assert.Equal(t, abi.NewTokenAmount(30), burnt)
		assert.True(t, harness.s.PreCommitDeposits.IsZero())
		assert.False(t, harness.hasPreCommit(1))
		assert.False(t, harness.hasPreCommit(2))

		burnt, err = harness.s.ExpirePreCommits(policy, harness.store, quant.QuantizeUp(200))
		require.NoError(t, err)
		assert.True(t, burnt.IsZero())
		expectBQ().equals(t, harness.loadPreCommitCleanUps())
	})
}

func TestSectorAssignment(t *testing.T) {
	policy := runtime.DefaultPolicy()
	sealProof := abi.RegisteredSealProof_StackedDrg2KiBV1_1
	partitionSectors, err := builtin.SealProofWindowPoStPartitionSectors(sealProof)
	require.NoError(t, err)
	sectorSize, err := sealProof.SectorSize()
	require.NoError(t, err)

	// Deadlines 0 and 1 are closed for assignment at epoch zero.
	openDeadlines := policy.WPoStPeriodDeadlines - 2

	partitionsPerDeadline := uint64(3)
	noSectors := int(partitionSectors * openDeadlines * partitionsPerDeadline)
	sectorInfos := make([]*miner.SectorOnChainInfo, noSectors)
	for i := range sectorInfos {
		sectorInfos[i] = newSectorOnChainInfo(
			abi.SectorNumber(i), tutil.MakeCID(fmt.Sprintf("%d", i), &miner.SealedCIDPrefix), big.NewInt(1), abi.ChainEpoch(0),
		)
		sectorInfos[i].SealProof = sealProof
	}

	dlState := newExpectedDeadlineState(builtin.NoQuantization, sectorSize, partitionSectors, sectorInfos)

	t.Run("assign sectors to deadlines", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))

		err := harness.s.AssignSectorsToDeadlines(policy, harness.store, 0, sectorInfos, partitionSectors, sectorSize)
		require.NoError(t, err)

		sectorArr := sectorsArr(t, harness.store, sectorInfos)

		dls, err := harness.s.LoadDeadlines(harness.store)
		require.NoError(t, err)
		require.NoError(t, dls.ForEach(harness.store, func(dlIdx uint64, dl *miner.Deadline) error {
			quantSpec := harness.s.QuantSpecForDeadline(policy, dlIdx)
			if dlIdx < 2 {
				dlState.withQuantSpec(quantSpec).
					assert(t, harness.store, dl)
				return nil
			}

			var partitions []bitfield.BitField
			var postPartitions []miner.PoStPartition
			for i := uint64(0); i < partitionsPerDeadline; i++ {
				start := ((i * openDeadlines) + (dlIdx - 2)) * partitionSectors
				partitions = append(partitions, seq(start, partitionSectors))
				postPartitions = append(postPartitions, miner.PoStPartition{
					Index:   i,
					Skipped: bf(),
				})
			}
			allSectorBf, err := bitfield.MultiMerge(partitions...)
			require.NoError(t, err)
			allSectorNos, err := allSectorBf.All(uint64(noSectors))
			require.NoError(t, err)

			dlState.withQuantSpec(quantSpec).
				withUnproven(allSectorNos...).
				withPartitions(partitions...).
				assert(t, harness.store, dl)

			// Proving activates the power.
			result, err := dl.RecordProvenSectors(harness.store, sectorArr, sectorSize, quantSpec, 0, postPartitions)
			require.NoError(t, err)

			expectedPowerDelta := miner.PowerForSectors(sectorSize, selectSectorsFromBitfield(t, sectorInfos, allSectorBf))

			assertBitfieldsEqual(t, allSectorBf, result.Sectors)
			assertBitfieldEmpty(t, result.IgnoredSectors)
			assert.True(t, result.NewFaultyPower.IsZero())
			assert.True(t, result.PowerDelta.Equals(expectedPowerDelta))
			assert.True(t, result.RecoveredPower.IsZero())
			assert.True(t, result.RetractedRecoveryPower.IsZero())
			return nil
		}))
	})

	t.Run("finds assigned sectors", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		require.NoError(t, harness.s.AssignSectorsToDeadlines(policy, harness.store, 0, sectorInfos, partitionSectors, sectorSize))

		dlIdx, pIdx, err := harness.s.FindSector(harness.store, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), dlIdx)
		assert.Equal(t, uint64(0), pIdx)

		dlIdx, pIdx, err = harness.s.FindSector(harness.store, 5)
		require.NoError(t, err)
		assert.Equal(t, uint64(4), dlIdx)
		assert.Equal(t, uint64(0), pIdx)

		dlIdx, pIdx, err = harness.s.FindSector(harness.store, abi.SectorNumber(openDeadlines*partitionSectors))
		require.NoError(t, err)
		assert.Equal(t, uint64(2), dlIdx)
		assert.Equal(t, uint64(1), pIdx)

		_, _, err = harness.s.FindSector(harness.store, abi.SectorNumber(noSectors))
		require.Error(t, err)
		assert.Equal(t, exitcode.ErrNotFound, exitcode.Unwrap(err, exitcode.Ok))

		// Newly assigned sectors are live but not yet proven.
		active, err := harness.s.CheckSectorActive(harness.store, 2, 0, 0, true)
		require.NoError(t, err)
		assert.False(t, active)
		active, err = harness.s.CheckSectorActive(harness.store, 2, 0, 0, false)
		require.NoError(t, err)
		assert.True(t, active)

		_, err = harness.s.CheckSectorActive(harness.store, 2, 0, 5, false)
		require.Error(t, err)
		assert.Equal(t, exitcode.ErrNotFound, exitcode.Unwrap(err, exitcode.Ok))
	})

	t.Run("fails when no deadline is mutable", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		tiny := policy.Copy()
		tiny.MaxPartitionsPerDeadline = 1

		// Each mutable deadline takes one partition, so one extra sector has nowhere to go.
		tooMany := make([]*miner.SectorOnChainInfo, int(openDeadlines*partitionSectors)+1)
		for i := range tooMany {
			tooMany[i] = sectorInfos[i]
		}
		err := harness.s.AssignSectorsToDeadlines(tiny, harness.store, 0, tooMany, partitionSectors, sectorSize)
		require.Error(t, err)
	})
}

func TestSectorNumberAllocation(t *testing.T) {
	allocate := func(h *stateHarness, numbers ...uint64) error {
		return h.s.AllocateSectorNumbers(h.store, bitfield.NewFromSet(numbers), miner.DenyCollisions)
	}
	mask := func(h *stateHarness, ns bitfield.BitField) error {
		return h.s.AllocateSectorNumbers(h.store, ns, miner.AllowCollisions)
	}
	expect := func(h *stateHarness, expected bitfield.BitField) {
		var b bitfield.BitField
		err := h.store.Get(context.Background(), h.s.AllocatedSectors, &b)
		assert.NoError(t, err)
		assertBitfieldsEqual(t, expected, b)
	}

	t.Run("batch allocation", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		assert.NoError(t, allocate(harness, 1, 2, 3))
		assert.NoError(t, allocate(harness, 4, 5, 6))
		expect(harness, bf(1, 2, 3, 4, 5, 6))
	})

	t.Run("repeat allocation rejected", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		assert.NoError(t, allocate(harness, 1))
		err := allocate(harness, 1)
		assert.Error(t, err)
		assert.Equal(t, exitcode.ErrIllegalArgument, exitcode.Unwrap(err, exitcode.Ok))
		expect(harness, bf(1))
	})

	t.Run("overlapping batch rejected", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		assert.NoError(t, allocate(harness, 1, 2, 3))
		assert.Error(t, allocate(harness, 3, 4, 5))
		expect(harness, bf(1, 2, 3))
	})

	t.Run("batch masking", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		assert.NoError(t, allocate(harness, 1))

		assert.NoError(t, mask(harness, bf(0, 1, 2, 3)))
		expect(harness, bf(0, 1, 2, 3))

		assert.Error(t, allocate(harness, 0))
		assert.Error(t, allocate(harness, 3))
		assert.NoError(t, allocate(harness, 4))
		expect(harness, bf(0, 1, 2, 3, 4))
	})

	t.Run("empty allocation is a no-op", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		assert.NoError(t, allocate(harness))
		expect(harness, bf())
	})

	t.Run("range limits", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))

		assert.NoError(t, allocate(harness, 0))
		assert.NoError(t, allocate(harness, abi.MaxSectorNumber))
		expect(harness, bf(0, abi.MaxSectorNumber))

		err := allocate(harness, abi.MaxSectorNumber+1)
		assert.Error(t, err)
		assert.Equal(t, exitcode.ErrIllegalArgument, exitcode.Unwrap(err, exitcode.Ok))
	})

	t.Run("mask range limits", func(t *testing.T) {
		harness := constructStateHarness(t, 0)

		assert.NoError(t, mask(harness, bf(0)))
		assert.NoError(t, mask(harness, bf(abi.MaxSectorNumber)))
		expect(harness, bf(0, abi.MaxSectorNumber))
	})
}

func TestRepayDebtInPriorityOrder(t *testing.T) {
	harness := constructStateHarness(t, abi.ChainEpoch(0))

	currentBalance := abi.NewTokenAmount(300)
	fee := abi.NewTokenAmount(1000)
	require.NoError(t, harness.s.ApplyPenalty(fee))
	assert.Equal(t, harness.s.FeeDebt, fee)

	penaltyFromVesting, penaltyFromBalance, err := harness.s.RepayPartialDebtInPriorityOrder(harness.store, abi.ChainEpoch(0), currentBalance)
	require.NoError(t, err)
	assert.Equal(t, penaltyFromVesting, big.Zero())
	assert.Equal(t, penaltyFromBalance, currentBalance)

	expectedDebt := big.Sub(currentBalance, fee).Neg()
	assert.Equal(t, expectedDebt, harness.s.FeeDebt)

	currentBalance = abi.NewTokenAmount(0)
	fee = abi.NewTokenAmount(2050)
	require.NoError(t, harness.s.ApplyPenalty(fee))

	_, _, err = harness.s.RepayPartialDebtInPriorityOrder(harness.store, abi.ChainEpoch(33), currentBalance)
	require.NoError(t, err)

	expectedDebt = big.Add(expectedDebt, fee)
	assert.Equal(t, expectedDebt, harness.s.FeeDebt)
}

func TestRepayDebtFromVesting(t *testing.T) {
	harness := constructStateHarness(t, abi.ChainEpoch(0))
	vspec := &miner.VestSpec{InitialDelay: 0, VestPeriod: 10, StepDuration: 1, Quantization: 1}
	harness.addLockedFunds(0, abi.NewTokenAmount(100), vspec)

	require.NoError(t, harness.s.ApplyPenalty(abi.NewTokenAmount(150)))

	// Vesting funds pay first, then the unlocked balance.
	balance := abi.NewTokenAmount(200)
	fromVesting, fromBalance, err := harness.s.RepayPartialDebtInPriorityOrder(harness.store, 0, balance)
	require.NoError(t, err)
	assert.Equal(t, abi.NewTokenAmount(100), fromVesting)
	assert.Equal(t, abi.NewTokenAmount(50), fromBalance)
	assert.True(t, harness.s.FeeDebt.IsZero())
	assert.True(t, harness.s.LockedFunds.IsZero())
	assert.True(t, harness.s.IsDebtFree())
}

func TestRepayDebts(t *testing.T) {
	t.Run("repays all debt from unlocked balance", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		require.NoError(t, harness.s.ApplyPenalty(abi.NewTokenAmount(100)))
		assert.False(t, harness.s.IsDebtFree())

		burn, err := harness.s.RepayDebts(abi.NewTokenAmount(100))
		require.NoError(t, err)
		assert.Equal(t, abi.NewTokenAmount(100), burn)
		assert.True(t, harness.s.IsDebtFree())
	})

	t.Run("fails with insufficient unlocked balance", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		require.NoError(t, harness.s.ApplyPenalty(abi.NewTokenAmount(100)))
		require.NoError(t, harness.s.AddInitialPledge(abi.NewTokenAmount(50)))

		_, err := harness.s.RepayDebts(abi.NewTokenAmount(120))
		require.Error(t, err)
		assert.Equal(t, exitcode.ErrInsufficientFunds, exitcode.Unwrap(err, exitcode.Ok))
		assert.Equal(t, abi.NewTokenAmount(100), harness.s.FeeDebt)
	})

	t.Run("negative penalty rejected", func(t *testing.T) {
		harness := constructStateHarness(t, abi.ChainEpoch(0))
		assert.Error(t, harness.s.ApplyPenalty(abi.NewTokenAmount(-1)))
	})
}

func TestBalances(t *testing.T) {
	harness := constructStateHarness(t, abi.ChainEpoch(0))
	require.NoError(t, harness.s.AddPreCommitDeposit(abi.NewTokenAmount(10)))
	require.NoError(t, harness.s.AddInitialPledge(abi.NewTokenAmount(20)))
	harness.addLockedFunds(0, abi.NewTokenAmount(30), &miner.VestSpec{InitialDelay: 0, VestPeriod: 10, StepDuration: 1, Quantization: 1})
	require.NoError(t, harness.s.ApplyPenalty(abi.NewTokenAmount(15)))

	unlocked, err := harness.s.GetUnlockedBalance(abi.NewTokenAmount(100))
	require.NoError(t, err)
	assert.Equal(t, abi.NewTokenAmount(40), unlocked)

	available, err := harness.s.GetAvailableBalance(abi.NewTokenAmount(100))
	require.NoError(t, err)
	assert.Equal(t, abi.NewTokenAmount(25), available)

	assert.NoError(t, harness.s.CheckBalanceInvariants(abi.NewTokenAmount(60)))
	assert.Error(t, harness.s.CheckBalanceInvariants(abi.NewTokenAmount(59)))

	_, err = harness.s.GetUnlockedBalance(abi.NewTokenAmount(59))
	assert.Error(t, err)

	assert.Error(t, harness.s.AddPreCommitDeposit(abi.NewTokenAmount(-11)))
	assert.Error(t, harness.s.AddInitialPledge(abi.NewTokenAmount(-21)))
}

type stateHarness struct {
	t testing.TB

	s     *miner.State
	store adt.Store
}

//
// Vesting Store
//

func (h *stateHarness) addLockedFunds(epoch abi.ChainEpoch, sum abi.TokenAmount, spec *miner.VestSpec) {
	_, err := h.s.AddLockedFunds(h.store, epoch, sum, spec)
	require.NoError(h.t, err)
}

func (h *stateHarness) unlockUnvestedFunds(epoch abi.ChainEpoch, target abi.TokenAmount) abi.TokenAmount {
	amount, err := h.s.UnlockUnvestedFunds(h.store, epoch, target)
	require.NoError(h.t, err)
	return amount
}

func (h *stateHarness) unlockVestedFunds(epoch abi.ChainEpoch) abi.TokenAmount {
	amount, err := h.s.UnlockVestedFunds(h.store, epoch)
	require.NoError(h.t, err)
	return amount
}

func (h *stateHarness) vestingFundsStoreEmpty() bool {
	funds, err := h.s.LoadVestingFunds(h.store)
	require.NoError(h.t, err)
	return len(funds.Funds) == 0
}

//
// Sector Store Assertion Operations
//

func (h *stateHarness) hasSectorNo(sectorNo abi.SectorNumber) bool {
	found, err := h.s.HasSectorNo(h.store, sectorNo)
	require.NoError(h.t, err)
	return found
}

func (h *stateHarness) putSector(sector *miner.SectorOnChainInfo) {
	require.NoError(h.t, h.s.PutSectors(h.store, sector))
}

func (h *stateHarness) getSector(sectorNo abi.SectorNumber) *miner.SectorOnChainInfo {
	sector, found, err := h.s.GetSector(h.store, sectorNo)
	require.NoError(h.t, err)
	assert.True(h.t, found)
	assert.NotNil(h.t, sector)
	return sector
}

func (h *stateHarness) deleteSectors(sectorNos ...uint64) {
	require.NoError(h.t, h.s.DeleteSectors(h.store, bitfield.NewFromSet(sectorNos)))
}

//
// Precommit Store Operations
//

func (h *stateHarness) getPreCommit(sectorNo abi.SectorNumber) *miner.SectorPreCommitOnChainInfo {
	out, found, err := h.s.GetPrecommittedSector(h.store, sectorNo)
	require.NoError(h.t, err)
	assert.True(h.t, found)
	return out
}

func (h *stateHarness) hasPreCommit(sectorNo abi.SectorNumber) bool {
	_, found, err := h.s.GetPrecommittedSector(h.store, sectorNo)
	require.NoError(h.t, err)
	return found
}

func (h *stateHarness) deletePreCommit(sectorNo abi.SectorNumber) {
	require.NoError(h.t, h.s.DeletePrecommittedSectors(h.store, sectorNo))
}

func (h *stateHarness) loadPreCommitCleanUps() miner.BitfieldQueue {
	queue, err := miner.LoadBitfieldQueue(h.store, h.s.PreCommittedSectorsCleanUp, h.s.QuantSpecEveryDeadline(runtime.DefaultPolicy()), miner.PrecommitCleanUpAmtBitwidth)
	require.NoError(h.t, err)
	return queue
}

func constructStateHarness(t *testing.T, periodBoundary abi.ChainEpoch) *stateHarness {
	store := ipld.NewADTStore(context.Background())
	owner := tutil.NewBLSAddr(t, 1)
	worker := tutil.NewBLSAddr(t, 2)

	info, err := miner.ConstructMinerInfo(owner, worker, nil, []byte("peer"), nil, abi.RegisteredPoStProof_StackedDrgWindow2KiBV1)
	require.NoError(t, err)
	infoCid, err := store.Put(context.Background(), info)
	require.NoError(t, err)

	state, err := miner.ConstructState(runtime.DefaultPolicy(), store, infoCid, periodBoundary, 0)
	require.NoError(t, err)

	return &stateHarness{
		t: t,

		s:     state,
		store: store,
	}
}

// Returns a unique SectorPreCommitOnChainInfo with each invocation with SectorNumber set to `sectorNo`.
func newPreCommitOnChain(sectorNo abi.SectorNumber, sealed cid.Cid, deposit abi.TokenAmount, epoch abi.ChainEpoch) *miner.SectorPreCommitOnChainInfo {
	return &miner.SectorPreCommitOnChainInfo{
		Info: miner.SectorPreCommitInfo{
			SealProof:     abi.RegisteredSealProof_StackedDrg32GiBV1_1,
			SectorNumber:  sectorNo,
			SealedCID:     sealed,
			SealRandEpoch: abi.ChainEpoch(1),
			DealIDs:       nil,
			Expiration:    abi.ChainEpoch(1),
		},
		PreCommitDeposit:   deposit,
		PreCommitEpoch:     epoch,
		DealWeight:         big.Zero(),
		VerifiedDealWeight: big.Zero(),
	}
}

// Returns a unique SectorOnChainInfo with each invocation with SectorNumber set to `sectorNo`.
func newSectorOnChainInfo(sectorNo abi.SectorNumber, sealed cid.Cid, weight big.Int, activation abi.ChainEpoch) *miner.SectorOnChainInfo {
	return &miner.SectorOnChainInfo{
		SectorNumber:          sectorNo,
		SealProof:             abi.RegisteredSealProof_StackedDrg32GiBV1_1,
		SealedCID:             sealed,
		DealIDs:               nil,
		Activation:            activation,
		Expiration:            abi.ChainEpoch(1),
		DealWeight:            weight,
		VerifiedDealWeight:    weight,
		InitialPledge:         abi.NewTokenAmount(0),
		ExpectedDayReward:     abi.NewTokenAmount(0),
		ExpectedStoragePledge: abi.NewTokenAmount(0),
		ReplacedSectorAge:     abi.ChainEpoch(0),
		ReplacedDayReward:     big.Zero(),
	}
}

func seq(start, count uint64) bitfield.BitField {
	values := make([]uint64, count)
	for i := range values {
		values[i] = start + uint64(i)
	}
	return bitfield.NewFromSet(values)
}

func selectSectorsFromBitfield(t *testing.T, sectors []*miner.SectorOnChainInfo, field bitfield.BitField) []*miner.SectorOnChainInfo {
	toInclude, err := field.AllMap(uint64(len(sectors)) + 1)
	require.NoError(t, err)

	var included []*miner.SectorOnChainInfo
	for _, s := range sectors {
		if toInclude[uint64(s.SectorNumber)] {
			included = append(included, s)
		}
	}
	return included
}
