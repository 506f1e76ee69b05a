package miner_test

import (
	"context"
	"strings"
	"testing"

	"github.com/filecoin-project/go-bitfield"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/storage-actors/actors/builtin"
	"github.com/filecoin-project/storage-actors/actors/builtin/miner"
	"github.com/filecoin-project/storage-actors/actors/runtime/proof"
	"github.com/filecoin-project/storage-actors/actors/util/adt"
	"github.com/filecoin-project/storage-actors/support/ipld"
)

func TestDeadlines(t *testing.T) {
	sectors := []*miner.SectorOnChainInfo{
		testSector(2, 1, 50, 60, 1000),
		testSector(3, 2, 51, 61, 1001),
		testSector(7, 3, 52, 62, 1002),
		testSector(8, 4, 53, 63, 1003),

		testSector(8, 5, 54, 64, 1004),
		testSector(11, 6, 55, 65, 1005),
		testSector(13, 7, 56, 66, 1006),
		testSector(8, 8, 57, 67, 1007),

		testSector(8, 9, 58, 68, 1008),
	}

	sectorSize := abi.SectorSize(32 << 30)
	quantSpec := builtin.NewQuantSpec(4, 1)
	partitionSize := uint64(4)

	power := func(nos ...abi.SectorNumber) miner.PowerPair {
		return miner.PowerForSectors(sectorSize, selectSectorsByNumber(sectors, nos...))
	}
	allPower := miner.PowerForSectors(sectorSize, sectors)

	dlState := newExpectedDeadlineState(quantSpec, sectorSize, partitionSize, sectors)

	addSectors := func(t *testing.T, store adt.Store, dl *miner.Deadline, prove bool) {
		activated, err := dl.AddSectors(store, partitionSize, prove, sectors, sectorSize, quantSpec)
		require.NoError(t, err)

		if prove {
			assert.True(t, allPower.Equals(activated))
			dlState.withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)
		} else {
			assert.True(t, activated.IsZero())
			dlState.withUnproven(1, 2, 3, 4, 5, 6, 7, 8, 9).
				withPartitions(
					bf(1, 2, 3, 4),
					bf(5, 6, 7, 8),
					bf(9),
				).assert(t, store, dl)
		}
	}

	// Sectors 1 and 3 in partition 0, and 6 in partition 1, are terminated at epoch 15.
	addThenTerminate := func(t *testing.T, store adt.Store, dl *miner.Deadline) {
		addSectors(t, store, dl, true)

		removedPower, err := dl.TerminateSectors(store, sectorsArr(t, store, sectors), 15, miner.PartitionSectorMap{
			0: bf(1, 3),
			1: bf(6),
		}, sectorSize, quantSpec)
		require.NoError(t, err)
		assert.True(t, power(1, 3, 6).Equals(removedPower))

		dlState.withTerminations(1, 3, 6).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)
	}

	addThenTerminateThenPop := func(t *testing.T, store adt.Store, dl *miner.Deadline) {
		addThenTerminate(t, store, dl)

		result, hasMore, err := dl.PopEarlyTerminations(store, 100, 100)
		require.NoError(t, err)
		assert.False(t, hasMore)
		assert.Equal(t, uint64(2), result.PartitionsProcessed)
		assert.Equal(t, uint64(3), result.SectorsProcessed)
		require.Len(t, result.Sectors, 1)
		assertBitfieldEquals(t, result.Sectors[15], 1, 3, 6)

		assertBitfieldEmpty(t, dl.EarlyTerminations)
		dlState.withTerminations(1, 3, 6).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)
	}

	addThenTerminateThenRemovePartition := func(t *testing.T, store adt.Store, dl *miner.Deadline) {
		addThenTerminateThenPop(t, store, dl)

		live, dead, removedPower, err := dl.RemovePartitions(store, bf(0), quantSpec)
		require.NoError(t, err, "should have removed partitions")
		assertBitfieldEquals(t, live, 2, 4)
		assertBitfieldEquals(t, dead, 1, 3)
		assert.True(t, power(2, 4).Equals(removedPower))

		dlState.withTerminations(6).
			withPartitions(
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)
	}

	// Sector 1 in partition 0, and 5 and 6 in partition 1, are faulty, expiring at epoch 9.
	addThenMarkFaulty := func(t *testing.T, store adt.Store, dl *miner.Deadline) {
		addSectors(t, store, dl, true)

		powerDelta, err := dl.RecordFaults(store, sectorsArr(t, store, sectors), sectorSize, quantSpec, 9, miner.PartitionSectorMap{
			0: bf(1),
			1: bf(5, 6),
		})
		require.NoError(t, err)
		assert.True(t, power(1, 5, 6).Neg().Equals(powerDelta))

		dlState.withFaults(1, 5, 6).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)
	}

	t.Run("adds sectors", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addSectors(t, store, dl, true)

		assert.Equal(t, uint64(9), dl.LiveSectors)
		assert.Equal(t, uint64(9), dl.TotalSectors)
	})

	t.Run("adds sectors and proves", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addSectors(t, store, dl, false)

		result, err := dl.RecordProvenSectors(store, sectorsArr(t, store, sectors), sectorSize, quantSpec, 0, []miner.PoStPartition{
			{Index: 0, Skipped: bf()},
			{Index: 1, Skipped: bf()},
			{Index: 2, Skipped: bf()},
		})
		require.NoError(t, err)
		assert.True(t, allPower.Equals(result.PowerDelta))
		assert.True(t, result.NewFaultyPower.IsZero())
		assertBitfieldEquals(t, result.Sectors, 1, 2, 3, 4, 5, 6, 7, 8, 9)
		assertBitfieldEmpty(t, result.IgnoredSectors)

		dlState.withPosts(0, 1, 2).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)
	})

	t.Run("adds to a partially filled partition", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)

		_, err := dl.AddSectors(store, partitionSize, true, sectors[:2], sectorSize, quantSpec)
		require.NoError(t, err)
		_, err = dl.AddSectors(store, partitionSize, true, sectors[2:], sectorSize, quantSpec)
		require.NoError(t, err)

		dlState.withPartitions(
			bf(1, 2, 3, 4),
			bf(5, 6, 7, 8),
			bf(9),
		).assert(t, store, dl)
	})

	t.Run("adding nothing is a no-op", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)

		activated, err := dl.AddSectors(store, partitionSize, true, nil, sectorSize, quantSpec)
		require.NoError(t, err)
		assert.True(t, activated.IsZero())
		dlState.assert(t, store, dl)
	})

	t.Run("terminates sectors", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addThenTerminate(t, store, dl)
	})

	t.Run("fails to terminate sectors in a missing partition", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addSectors(t, store, dl, true)

		_, err := dl.TerminateSectors(store, sectorsArr(t, store, sectors), 15, miner.PartitionSectorMap{
			4: bf(6),
		}, sectorSize, quantSpec)
		require.Error(t, err)
		assert.Equal(t, exitcode.ErrNotFound, exitcode.Unwrap(err, exitcode.Ok))
	})

	t.Run("pops early terminations", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addThenTerminateThenPop(t, store, dl)
	})

	t.Run("pops early terminations in bounded steps", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addThenTerminate(t, store, dl)

		result, hasMore, err := dl.PopEarlyTerminations(store, 1, 100)
		require.NoError(t, err)
		assert.True(t, hasMore)
		assert.Equal(t, uint64(1), result.PartitionsProcessed)
		assert.Equal(t, uint64(2), result.SectorsProcessed)
		assertBitfieldEquals(t, result.Sectors[15], 1, 3)
		assertBitfieldEquals(t, dl.EarlyTerminations, 1)

		result, hasMore, err = dl.PopEarlyTerminations(store, 1, 100)
		require.NoError(t, err)
		assert.False(t, hasMore)
		assert.Equal(t, uint64(1), result.SectorsProcessed)
		assertBitfieldEquals(t, result.Sectors[15], 6)
		assertBitfieldEmpty(t, dl.EarlyTerminations)

		result, hasMore, err = dl.PopEarlyTerminations(store, 1, 100)
		require.NoError(t, err)
		assert.False(t, hasMore)
		assert.True(t, result.IsEmpty())
	})

	t.Run("removes partitions", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addThenTerminateThenRemovePartition(t, store, dl)

		assert.Equal(t, uint64(4), dl.LiveSectors)
		assert.Equal(t, uint64(5), dl.TotalSectors)
	})

	t.Run("removing no partitions does nothing", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addThenTerminateThenPop(t, store, dl)

		live, dead, removedPower, err := dl.RemovePartitions(store, bf(), quantSpec)
		require.NoError(t, err)
		assertBitfieldEmpty(t, live)
		assertBitfieldEmpty(t, dead)
		assert.True(t, removedPower.IsZero())

		dlState.withTerminations(1, 3, 6).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)
	})

	t.Run("fails to remove partitions with early terminations", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addThenTerminate(t, store, dl)

		_, _, _, err := dl.RemovePartitions(store, bf(0), quantSpec)
		require.Error(t, err, "should have failed to remove a partition with early terminations")
	})

	t.Run("fails to remove partitions with faults", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addThenMarkFaulty(t, store, dl)

		_, _, _, err := dl.RemovePartitions(store, bf(0), quantSpec)
		require.Error(t, err, "should have failed to remove a faulty partition")
		assert.Equal(t, exitcode.ErrIllegalArgument, exitcode.Unwrap(err, exitcode.Ok))
	})

	t.Run("fails to remove partitions with unproven sectors", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addSectors(t, store, dl, false)

		_, _, _, err := dl.RemovePartitions(store, bf(0), quantSpec)
		require.Error(t, err, "should have failed to remove an unproven partition")
		assert.Equal(t, exitcode.ErrIllegalArgument, exitcode.Unwrap(err, exitcode.Ok))
	})

	t.Run("fails to remove a missing partition", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addThenTerminateThenPop(t, store, dl)

		_, _, _, err := dl.RemovePartitions(store, bf(3), quantSpec)
		require.Error(t, err, "should have failed to remove a missing partition")
		assert.Equal(t, exitcode.ErrIllegalArgument, exitcode.Unwrap(err, exitcode.Ok))
	})

	t.Run("marks faulty", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addThenMarkFaulty(t, store, dl)

		assert.True(t, power(1, 5, 6).Equals(dl.FaultyPower))
	})

	t.Run("marking faulty twice changes nothing", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addThenMarkFaulty(t, store, dl)

		powerDelta, err := dl.RecordFaults(store, sectorsArr(t, store, sectors), sectorSize, quantSpec, 9, miner.PartitionSectorMap{
			1: bf(5, 6),
		})
		require.NoError(t, err)
		assert.True(t, powerDelta.IsZero())

		dlState.withFaults(1, 5, 6).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)
	})

	t.Run("terminates faulty sectors", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addThenMarkFaulty(t, store, dl)

		removedPower, err := dl.TerminateSectors(store, sectorsArr(t, store, sectors), 15, miner.PartitionSectorMap{
			0: bf(1, 3),
			1: bf(6),
		}, sectorSize, quantSpec)
		require.NoError(t, err)
		// Only sector 3 was contributing power.
		assert.True(t, power(3).Equals(removedPower))
		assert.True(t, power(5).Equals(dl.FaultyPower))

		dlState.withFaults(5).
			withTerminations(1, 3, 6).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)
	})

	t.Run("faulty sectors expire", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addThenMarkFaulty(t, store, dl)

		exp, err := dl.PopExpiredSectors(store, 9, quantSpec)
		require.NoError(t, err)
		assertBitfieldEquals(t, exp.OnTimeSectors, 1, 2, 3, 4, 5, 8, 9)
		assertBitfieldEquals(t, exp.EarlySectors, 6)
		assert.Equal(t, big.NewInt(1000+1001+1002+1003+1004+1007+1008), exp.OnTimePledge)
		assert.True(t, power(2, 3, 4, 8, 9).Equals(exp.ActivePower))
		assert.True(t, power(1, 5, 6).Equals(exp.FaultyPower))
		assert.True(t, dl.FaultyPower.IsZero())
		assert.Equal(t, uint64(1), dl.LiveSectors)

		// Sector 6 is waiting for early termination processing.
		assertBitfieldEquals(t, dl.EarlyTerminations, 1)
		dlState.withTerminations(1, 2, 3, 4, 5, 6, 8, 9).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)

		result, hasMore, err := dl.PopEarlyTerminations(store, 100, 100)
		require.NoError(t, err)
		assert.False(t, hasMore)
		assert.Equal(t, uint64(1), result.PartitionsProcessed)
		assert.Equal(t, uint64(1), result.SectorsProcessed)
		assertBitfieldEquals(t, result.Sectors[9], 6)

		// Nothing more to expire.
		exp, err = dl.PopExpiredSectors(store, 9, quantSpec)
		require.NoError(t, err)
		empty, err := exp.IsEmpty()
		require.NoError(t, err)
		assert.True(t, empty)
	})

	t.Run("cannot pop expired sectors before proving", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addSectors(t, store, dl, false)

		_, err := dl.PopExpiredSectors(store, 9, quantSpec)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unproven")
	})

	t.Run("post all the things", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addSectors(t, store, dl, true)

		sectorArr := sectorsArr(t, store, sectors)
		result, err := dl.RecordProvenSectors(store, sectorArr, sectorSize, quantSpec, 13, []miner.PoStPartition{
			{Index: 0, Skipped: bf()},
			{Index: 1, Skipped: bf()},
		})
		require.NoError(t, err)
		assertBitfieldEquals(t, result.Sectors, 1, 2, 3, 4, 5, 6, 7, 8)
		assertBitfieldEmpty(t, result.IgnoredSectors)
		assertBitfieldEquals(t, result.Partitions, 0, 1)
		assert.True(t, result.PowerDelta.IsZero())
		assert.True(t, result.NewFaultyPower.IsZero())
		assert.True(t, result.RetractedRecoveryPower.IsZero())
		assert.True(t, result.RecoveredPower.IsZero())

		dlState.withPosts(0, 1).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)

		// A partition can't be proven twice in the same window.
		_, err = dl.RecordProvenSectors(store, sectorArr, sectorSize, quantSpec, 13, []miner.PoStPartition{
			{Index: 1, Skipped: bf()},
			{Index: 2, Skipped: bf()},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already proven")

		result, err = dl.RecordProvenSectors(store, sectorArr, sectorSize, quantSpec, 13, []miner.PoStPartition{
			{Index: 2, Skipped: bf()},
		})
		require.NoError(t, err)
		assertBitfieldEquals(t, result.Sectors, 9)
		assertBitfieldEmpty(t, result.IgnoredSectors)

		dlState.withPosts(0, 1, 2).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)

		sectorsRoot, err := sectorArr.Root()
		require.NoError(t, err)
		powerDelta, penalizedPower, err := dl.ProcessDeadlineEnd(store, quantSpec, 13, sectorsRoot)
		require.NoError(t, err)
		assert.True(t, powerDelta.IsZero())
		assert.True(t, penalizedPower.IsZero())

		// Posts are cleared and partitions snapshotted.
		assert.Equal(t, dl.Partitions, dl.PartitionsSnapshot)
		assert.Equal(t, sectorsRoot, dl.SectorsSnapshot)
		dlState.withPartitions(
			bf(1, 2, 3, 4),
			bf(5, 6, 7, 8),
			bf(9),
		).assert(t, store, dl)
	})

	t.Run("rejects duplicate partitions in one proof", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addSectors(t, store, dl, true)

		_, err := dl.RecordProvenSectors(store, sectorsArr(t, store, sectors), sectorSize, quantSpec, 13, []miner.PoStPartition{
			{Index: 0, Skipped: bf()},
			{Index: 0, Skipped: bf()},
		})
		require.Error(t, err)
		assert.Equal(t, exitcode.ErrIllegalArgument, exitcode.Unwrap(err, exitcode.Ok))
	})

	t.Run("post with unproven, faults, recoveries, and retracted recoveries", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addThenMarkFaulty(t, store, dl)

		sectorArr := sectorsArr(t, store, sectors)
		err := dl.DeclareFaultsRecovered(store, sectorArr, sectorSize, miner.PartitionSectorMap{
			0: bf(1),
			1: bf(6),
		})
		require.NoError(t, err)

		dlState.withFaults(1, 5, 6).
			withRecovering(1, 6).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)

		// Sector 1's recovery is retracted, sector 7 becomes newly faulty and sector 6 recovers.
		result, err := dl.RecordProvenSectors(store, sectorArr, sectorSize, quantSpec, 13, []miner.PoStPartition{
			{Index: 0, Skipped: bf(1)},
			{Index: 1, Skipped: bf(7)},
		})
		require.NoError(t, err)
		assertBitfieldEquals(t, result.Sectors, 1, 2, 3, 4, 5, 6, 7, 8)
		assertBitfieldEquals(t, result.IgnoredSectors, 1, 5, 7)
		assert.True(t, power(6).Sub(power(7)).Equals(result.PowerDelta))
		assert.True(t, power(7).Equals(result.NewFaultyPower))
		assert.True(t, power(1).Equals(result.RetractedRecoveryPower))
		assert.True(t, power(6).Equals(result.RecoveredPower))

		dlState.withFaults(1, 5, 7).
			withPosts(0, 1).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)

		// Partition 2 was never proven, so its sector becomes faulty.
		sectorsRoot, err := sectorArr.Root()
		require.NoError(t, err)
		powerDelta, penalizedPower, err := dl.ProcessDeadlineEnd(store, quantSpec, 13, sectorsRoot)
		require.NoError(t, err)
		assert.True(t, power(9).Neg().Equals(powerDelta))
		assert.True(t, power(9).Equals(penalizedPower))
		assert.True(t, power(1, 5, 7, 9).Equals(dl.FaultyPower))

		dlState.withFaults(1, 5, 7, 9).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)
	})

	t.Run("retract recoveries by skipping", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addThenMarkFaulty(t, store, dl)

		sectorArr := sectorsArr(t, store, sectors)
		err := dl.DeclareFaultsRecovered(store, sectorArr, sectorSize, miner.PartitionSectorMap{
			0: bf(1),
			1: bf(6),
		})
		require.NoError(t, err)

		result, err := dl.RecordProvenSectors(store, sectorArr, sectorSize, quantSpec, 13, []miner.PoStPartition{
			{Index: 0, Skipped: bf(1)},
			{Index: 1, Skipped: bf(6)},
			{Index: 2, Skipped: bf()},
		})
		require.NoError(t, err)
		assertBitfieldEquals(t, result.IgnoredSectors, 1, 5, 6)
		assert.True(t, result.PowerDelta.IsZero())
		assert.True(t, result.NewFaultyPower.IsZero())
		assert.True(t, result.RecoveredPower.IsZero())
		assert.True(t, power(1, 6).Equals(result.RetractedRecoveryPower))

		dlState.withFaults(1, 5, 6).
			withPosts(0, 1, 2).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)
	})

	t.Run("missed post penalizes failed recoveries", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addThenMarkFaulty(t, store, dl)

		sectorArr := sectorsArr(t, store, sectors)
		err := dl.DeclareFaultsRecovered(store, sectorArr, sectorSize, miner.PartitionSectorMap{
			0: bf(1),
			1: bf(6),
		})
		require.NoError(t, err)

		sectorsRoot, err := sectorArr.Root()
		require.NoError(t, err)
		powerDelta, penalizedPower, err := dl.ProcessDeadlineEnd(store, quantSpec, 13, sectorsRoot)
		require.NoError(t, err)
		assert.True(t, power(2, 3, 4, 7, 8, 9).Neg().Equals(powerDelta))
		assert.True(t, power(1, 2, 3, 4, 6, 7, 8, 9).Equals(penalizedPower))
		assert.True(t, allPower.Equals(dl.FaultyPower))

		dlState.withFaults(1, 2, 3, 4, 5, 6, 7, 8, 9).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)
	})

	t.Run("missed post of unproven sectors loses no power", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addSectors(t, store, dl, false)

		sectorsRoot, err := sectorsArr(t, store, sectors).Root()
		require.NoError(t, err)
		powerDelta, penalizedPower, err := dl.ProcessDeadlineEnd(store, quantSpec, 13, sectorsRoot)
		require.NoError(t, err)
		assert.True(t, powerDelta.IsZero())
		assert.True(t, allPower.Equals(penalizedPower))

		dlState.withFaults(1, 2, 3, 4, 5, 6, 7, 8, 9).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)
	})

	t.Run("fully faulty partitions are skipped at deadline end", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addSectors(t, store, dl, true)

		sectorArr := sectorsArr(t, store, sectors)
		_, err := dl.RecordFaults(store, sectorArr, sectorSize, quantSpec, 9, miner.PartitionSectorMap{
			2: bf(9),
		})
		require.NoError(t, err)

		_, err = dl.RecordProvenSectors(store, sectorArr, sectorSize, quantSpec, 9, []miner.PoStPartition{
			{Index: 0, Skipped: bf()},
			{Index: 1, Skipped: bf()},
		})
		require.NoError(t, err)

		sectorsRoot, err := sectorArr.Root()
		require.NoError(t, err)
		powerDelta, penalizedPower, err := dl.ProcessDeadlineEnd(store, quantSpec, 13, sectorsRoot)
		require.NoError(t, err)
		assert.True(t, powerDelta.IsZero())
		assert.True(t, penalizedPower.IsZero())

		dlState.withFaults(9).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)
	})

	t.Run("reschedules expirations", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addThenMarkFaulty(t, store, dl)

		// Only sector 7 is live, active and present.
		replaced, err := dl.RescheduleSectorExpirations(store, sectorsArr(t, store, sectors), 1, miner.PartitionSectorMap{
			1: bf(6, 7, 99),
			5: bf(100),
			2: bf(),
		}, sectorSize, quantSpec)
		require.NoError(t, err)
		require.Len(t, replaced, 1)
		assert.Equal(t, abi.SectorNumber(7), replaced[0].SectorNumber)

		exp, err := dl.PopExpiredSectors(store, 1, quantSpec)
		require.NoError(t, err)
		assertBitfieldEquals(t, exp.OnTimeSectors, 7)
		assertBitfieldEmpty(t, exp.EarlySectors)
		assert.True(t, power(7).Equals(exp.ActivePower))

		dlState.withFaults(1, 5, 6).
			withTerminations(7).
			withPartitions(
				bf(1, 2, 3, 4),
				bf(5, 6, 7, 8),
				bf(9),
			).assert(t, store, dl)
	})

	t.Run("records and takes proofs for dispute", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addSectors(t, store, dl, true)

		sectorArr := sectorsArr(t, store, sectors)
		_, err := dl.RecordProvenSectors(store, sectorArr, sectorSize, quantSpec, 13, []miner.PoStPartition{
			{Index: 0, Skipped: bf()},
			{Index: 1, Skipped: bf()},
		})
		require.NoError(t, err)
		proofs := []proof.PoStProof{{
			PoStProof:  abi.RegisteredPoStProof_StackedDrgWindow32GiBV1,
			ProofBytes: []byte("proof one"),
		}}
		require.NoError(t, dl.RecordPoStProofs(store, bf(0, 1), proofs))

		_, err = dl.RecordProvenSectors(store, sectorArr, sectorSize, quantSpec, 13, []miner.PoStPartition{
			{Index: 2, Skipped: bf()},
		})
		require.NoError(t, err)
		require.NoError(t, dl.RecordPoStProofs(store, bf(2), []proof.PoStProof{{
			PoStProof:  abi.RegisteredPoStProof_StackedDrgWindow32GiBV1,
			ProofBytes: []byte("proof two"),
		}}))

		// Proofs can only be disputed from the snapshot.
		_, _, err = dl.TakePoStProofs(store, 0)
		require.Error(t, err)

		sectorsRoot, err := sectorArr.Root()
		require.NoError(t, err)
		_, _, err = dl.ProcessDeadlineEnd(store, quantSpec, 13, sectorsRoot)
		require.NoError(t, err)

		dispute, err := dl.LoadPartitionsForDispute(store, bf(0, 1))
		require.NoError(t, err)
		assertBitfieldEquals(t, dispute.AllSectorNos, 1, 2, 3, 4, 5, 6, 7, 8)
		assertBitfieldEmpty(t, dispute.IgnoredSectorNos)
		assert.True(t, power(1, 2, 3, 4, 5, 6, 7, 8).Equals(dispute.DisputedPower))
		require.Len(t, dispute.DisputedSectors, 2)
		assertBitfieldEquals(t, dispute.DisputedSectors[0], 1, 2, 3, 4)
		assertBitfieldEquals(t, dispute.DisputedSectors[1], 5, 6, 7, 8)

		partitions, taken, err := dl.TakePoStProofs(store, 0)
		require.NoError(t, err)
		assertBitfieldEquals(t, partitions, 0, 1)
		assert.Equal(t, proofs, taken)

		_, _, err = dl.TakePoStProofs(store, 0)
		require.Error(t, err)
		assert.Equal(t, exitcode.ErrNotFound, exitcode.Unwrap(err, exitcode.Ok))

		// The other proof is still disputable.
		partitions, _, err = dl.TakePoStProofs(store, 1)
		require.NoError(t, err)
		assertBitfieldEquals(t, partitions, 2)
	})

	t.Run("fails to dispute a missing partition", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)
		addSectors(t, store, dl, true)

		_, err := dl.LoadPartitionsForDispute(store, bf(0))
		require.Error(t, err)
	})

	t.Run("is live", func(t *testing.T) {
		store := ipld.NewADTStore(context.Background())
		dl := emptyDeadline(t, store)

		live, err := dl.IsLive(store)
		require.NoError(t, err)
		assert.False(t, live)

		addThenTerminate(t, store, dl)
		live, err = dl.IsLive(store)
		require.NoError(t, err)
		assert.True(t, live)

		_, err = dl.TerminateSectors(store, sectorsArr(t, store, sectors), 15, miner.PartitionSectorMap{
			0: bf(2, 4),
			1: bf(5, 7, 8),
			2: bf(9),
		}, sectorSize, quantSpec)
		require.NoError(t, err)

		// Pending early terminations still need processing.
		assert.Equal(t, uint64(0), dl.LiveSectors)
		live, err = dl.IsLive(store)
		require.NoError(t, err)
		assert.True(t, live)

		_, hasMore, err := dl.PopEarlyTerminations(store, 100, 100)
		require.NoError(t, err)
		assert.False(t, hasMore)
		live, err = dl.IsLive(store)
		require.NoError(t, err)
		assert.False(t, live)
	})
}

func emptyDeadline(t *testing.T, store adt.Store) *miner.Deadline {
	dl, err := miner.ConstructDeadline(store)
	require.NoError(t, err)
	return dl
}

// Helper type for validating deadline state.
//
// All methods take and return by value so one instance can be shared across tests.
type expectedDeadlineState struct {
	quant         builtin.QuantSpec
	sectorSize    abi.SectorSize
	partitionSize uint64
	sectors       []*miner.SectorOnChainInfo

	faults       bitfield.BitField
	recovering   bitfield.BitField
	terminations bitfield.BitField
	unproven     bitfield.BitField
	posts        bitfield.BitField

	partitionSectors []bitfield.BitField
}

func newExpectedDeadlineState(quant builtin.QuantSpec, ssize abi.SectorSize, partitionSize uint64, sectors []*miner.SectorOnChainInfo) expectedDeadlineState {
	return expectedDeadlineState{
		quant:         quant,
		sectorSize:    ssize,
		partitionSize: partitionSize,
		sectors:       sectors,
		faults:        bf(),
		recovering:    bf(),
		terminations:  bf(),
		unproven:      bf(),
		posts:         bf(),
	}
}

func (s expectedDeadlineState) withQuantSpec(quant builtin.QuantSpec) expectedDeadlineState {
	s.quant = quant
	return s
}

func (s expectedDeadlineState) withFaults(faults ...uint64) expectedDeadlineState {
	s.faults = bf(faults...)
	return s
}

func (s expectedDeadlineState) withRecovering(recovering ...uint64) expectedDeadlineState {
	s.recovering = bf(recovering...)
	return s
}

func (s expectedDeadlineState) withTerminations(terminations ...uint64) expectedDeadlineState {
	s.terminations = bf(terminations...)
	return s
}

func (s expectedDeadlineState) withUnproven(unproven ...uint64) expectedDeadlineState {
	s.unproven = bf(unproven...)
	return s
}

func (s expectedDeadlineState) withPosts(posts ...uint64) expectedDeadlineState {
	s.posts = bf(posts...)
	return s
}

func (s expectedDeadlineState) withPartitions(partitions ...bitfield.BitField) expectedDeadlineState {
	s.partitionSectors = partitions
	return s
}

// Assert that the deadline's state matches the expected state.
func (s expectedDeadlineState) assert(t *testing.T, store adt.Store, dl *miner.Deadline) {
	summary := checkDeadlineInvariants(t, store, dl, s.quant, s.sectorSize, s.sectors)

	assertBitfieldsEqual(t, s.faults, summary.FaultySectors)
	assertBitfieldsEqual(t, s.recovering, summary.RecoveringSectors)
	assertBitfieldsEqual(t, s.terminations, summary.TerminatedSectors)
	assertBitfieldsEqual(t, s.unproven, summary.UnprovenSectors)
	assertBitfieldsEqual(t, s.posts, dl.PartitionsPoSted)

	partitions, err := dl.PartitionsArray(store)
	require.NoError(t, err)
	require.Equal(t, uint64(len(s.partitionSectors)), partitions.Length(), "unexpected number of partitions")

	for i, expected := range s.partitionSectors {
		var partition miner.Partition
		found, err := partitions.Get(uint64(i), &partition)
		require.NoError(t, err)
		require.True(t, found, "missing partition %d", i)
		assertBitfieldsEqual(t, expected, partition.Sectors)

		if i < len(s.partitionSectors)-1 {
			count, err := partition.Sectors.Count()
			require.NoError(t, err)
			assert.LessOrEqual(t, count, s.partitionSize, "partition %d is overfull", i)
		}
	}
}

func checkDeadlineInvariants(t *testing.T, store adt.Store, dl *miner.Deadline, quant builtin.QuantSpec, ssize abi.SectorSize, sectors []*miner.SectorOnChainInfo) *miner.DeadlineStateSummary {
	acc := &builtin.MessageAccumulator{}
	summary := miner.CheckDeadlineStateInvariants(dl, store, quant, ssize, sectorsAsMap(sectors), acc)
	assert.True(t, acc.IsEmpty(), strings.Join(acc.Messages(), "\n"))
	return summary
}
