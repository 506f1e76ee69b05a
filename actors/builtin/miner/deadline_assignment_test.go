package miner

import (
	"testing"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/storage-actors/actors/runtime"
)

func TestDeadlineAssignment(t *testing.T) {
	const partitionSize = 4
	const maxPartitions = 100

	sectorsNumbered := func(count int) []*SectorOnChainInfo {
		sectors := make([]*SectorOnChainInfo, count)
		for i := range sectors {
			sectors[i] = &SectorOnChainInfo{SectorNumber: abi.SectorNumber(i)}
		}
		return sectors
	}
	numbers := func(sectors []*SectorOnChainInfo) []abi.SectorNumber {
		out := make([]abi.SectorNumber, 0, len(sectors))
		for _, s := range sectors {
			out = append(out, s.SectorNumber)
		}
		return out
	}

	t.Run("fills a partition before opening the next deadline", func(t *testing.T) {
		deadlines := []*Deadline{{}, {}}
		assignment, err := assignDeadlines(maxPartitions, partitionSize, deadlines, sectorsNumbered(5))
		require.NoError(t, err)
		assert.Equal(t, []abi.SectorNumber{0, 1, 2, 3}, numbers(assignment[0]))
		assert.Equal(t, []abi.SectorNumber{4}, numbers(assignment[1]))
	})

	t.Run("prefers the deadline with fewer live sectors", func(t *testing.T) {
		deadlines := []*Deadline{
			{LiveSectors: 3, TotalSectors: 3},
			{LiveSectors: 1, TotalSectors: 3},
		}
		assignment, err := assignDeadlines(maxPartitions, partitionSize, deadlines, sectorsNumbered(1))
		require.NoError(t, err)
		assert.Empty(t, assignment[0])
		assert.Equal(t, []abi.SectorNumber{0}, numbers(assignment[1]))
	})

	t.Run("prefers deadlines that compact to fewer partitions", func(t *testing.T) {
		deadlines := []*Deadline{
			{LiveSectors: 4, TotalSectors: 4},
			{LiveSectors: 1, TotalSectors: 8},
		}
		assignment, err := assignDeadlines(maxPartitions, partitionSize, deadlines, sectorsNumbered(3))
		require.NoError(t, err)
		assert.Empty(t, assignment[0])
		assert.Equal(t, []abi.SectorNumber{0, 1, 2}, numbers(assignment[1]))
	})

	t.Run("skips immutable deadlines", func(t *testing.T) {
		deadlines := []*Deadline{nil, {}, nil}
		assignment, err := assignDeadlines(maxPartitions, partitionSize, deadlines, sectorsNumbered(6))
		require.NoError(t, err)
		assert.Len(t, assignment, 3)
		assert.Empty(t, assignment[0])
		assert.Len(t, assignment[1], 6)
		assert.Empty(t, assignment[2])
	})

	t.Run("respects the partition limit", func(t *testing.T) {
		deadlines := []*Deadline{{}, {}}
		assignment, err := assignDeadlines(1, 2, deadlines, sectorsNumbered(4))
		require.NoError(t, err)
		assert.Equal(t, []abi.SectorNumber{0, 1}, numbers(assignment[0]))
		assert.Equal(t, []abi.SectorNumber{2, 3}, numbers(assignment[1]))

		_, err = assignDeadlines(1, 2, []*Deadline{{}, {}}, sectorsNumbered(5))
		assert.Error(t, err)
	})

	t.Run("no mutable deadlines", func(t *testing.T) {
		_, err := assignDeadlines(maxPartitions, partitionSize, []*Deadline{nil, nil}, sectorsNumbered(1))
		assert.Error(t, err)

		assignment, err := assignDeadlines(maxPartitions, partitionSize, []*Deadline{nil, nil}, nil)
		require.NoError(t, err)
		assert.Len(t, assignment, 2)
	})
}

func TestDeadlineMutability(t *testing.T) {
	p := runtime.DefaultPolicy()
	periodStart := abi.ChainEpoch(0)

	t.Run("current and next deadlines are immutable", func(t *testing.T) {
		assert.False(t, deadlineIsMutable(p, periodStart, 0, 0))
		assert.False(t, deadlineIsMutable(p, periodStart, 1, 0))
		assert.True(t, deadlineIsMutable(p, periodStart, 2, 0))
		assert.True(t, deadlineIsMutable(p, periodStart, p.WPoStPeriodDeadlines-1, 0))

		// Once deadline 0 closes it is mutable until one window before it reopens.
		assert.True(t, deadlineIsMutable(p, periodStart, 0, p.WPoStChallengeWindow))
		assert.False(t, deadlineIsMutable(p, periodStart, 0, p.WPoStProvingPeriod-p.WPoStChallengeWindow))
	})

	t.Run("disputes open after the deadline closes and end with the dispute window", func(t *testing.T) {
		assert.False(t, deadlineAvailableForOptimisticPoStDispute(p, periodStart, 0, 0))
		assert.True(t, deadlineAvailableForOptimisticPoStDispute(p, periodStart, 0, p.WPoStChallengeWindow+1))

		last := p.WPoStChallengeWindow + p.WPoStDisputeWindow
		assert.True(t, deadlineAvailableForOptimisticPoStDispute(p, periodStart, 0, last-1))
		assert.False(t, deadlineAvailableForOptimisticPoStDispute(p, periodStart, 0, last))

		// Nothing to dispute before proving starts.
		assert.False(t, deadlineAvailableForOptimisticPoStDispute(p, 100, 0, 50))
	})

	t.Run("compaction waits for the dispute window", func(t *testing.T) {
		assert.False(t, deadlineAvailableForCompaction(p, periodStart, 0, p.WPoStChallengeWindow+1))
		assert.True(t, deadlineAvailableForCompaction(p, periodStart, 0, p.WPoStChallengeWindow+p.WPoStDisputeWindow))
		assert.False(t, deadlineAvailableForCompaction(p, periodStart, 1, 0))
	})

	t.Run("deadline index bounds", func(t *testing.T) {
		assert.NoError(t, invalidDeadlineIndex(p, p.WPoStPeriodDeadlines-1))
		assert.Error(t, invalidDeadlineIndex(p, p.WPoStPeriodDeadlines))
		assert.Equal(t, uint64(3), currentDeadlineIndex(p, 3*p.WPoStChallengeWindow+5, 0))
	})
}
