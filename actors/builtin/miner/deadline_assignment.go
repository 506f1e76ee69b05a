package miner

import (
	"container/heap"

	"golang.org/x/xerrors"
)

// Helper types for deadline assignment.
type deadlineAssignmentInfo struct {
	index        int
	liveSectors  uint64
	totalSectors uint64
}

func (dai *deadlineAssignmentInfo) partitionsAfterAssignment(partitionSize uint64) uint64 {
	sectorCount := dai.totalSectors + 1 // after assignment
	fullPartitions := sectorCount / partitionSize
	if (sectorCount % partitionSize) == 0 {
		return fullPartitions
	}
	return fullPartitions + 1 // +1 for partial partition.
}

func (dai *deadlineAssignmentInfo) compactPartitionsAfterAssignment(partitionSize uint64) uint64 {
	sectorCount := dai.liveSectors + 1 // after assignment
	fullPartitions := sectorCount / partitionSize
	if (sectorCount % partitionSize) == 0 {
		return fullPartitions
	}
	return fullPartitions + 1 // +1 for partial partition.
}

func (dai *deadlineAssignmentInfo) isFullNow(partitionSize uint64) bool {
	return (dai.totalSectors % partitionSize) == 0
}

func (dai *deadlineAssignmentInfo) maxPartitionsReached(partitionSize, maxPartitions uint64) bool {
	return dai.totalSectors >= partitionSize*maxPartitions
}

type deadlineAssignmentHeap struct {
	maxPartitions uint64
	partitionSize uint64
	deadlines     []*deadlineAssignmentInfo
}

func (dah *deadlineAssignmentHeap) Len() int {
	return len(dah.deadlines)
}

func (dah *deadlineAssignmentHeap) Swap(i, j int) {
	dah.deadlines[i], dah.deadlines[j] = dah.deadlines[j], dah.deadlines[i]
}

func (dah *deadlineAssignmentHeap) Less(i, j int) bool {
	a, b := dah.deadlines[i], dah.deadlines[j]

	// If one deadline has already reached its partition limit, it sorts last.
	aMax, bMax := a.maxPartitionsReached(dah.partitionSize, dah.maxPartitions), b.maxPartitionsReached(dah.partitionSize, dah.maxPartitions)
	if aMax != bMax {
		return !aMax
	}

	// Prefer the deadline that ends up with fewer partitions once compacted.
	aCompactAfter, bCompactAfter := a.compactPartitionsAfterAssignment(dah.partitionSize), b.compactPartitionsAfterAssignment(dah.partitionSize)
	if aCompactAfter != bCompactAfter {
		return aCompactAfter < bCompactAfter
	}

	// Then the one with fewer partitions right after assignment.
	aPartitionsAfter, bPartitionsAfter := a.partitionsAfterAssignment(dah.partitionSize), b.partitionsAfterAssignment(dah.partitionSize)
	if aPartitionsAfter != bPartitionsAfter {
		return aPartitionsAfter < bPartitionsAfter
	}

	// Then fill up partial partitions before opening new ones.
	aIsFull, bIsFull := a.isFullNow(dah.partitionSize), b.isFullNow(dah.partitionSize)
	if aIsFull != bIsFull {
		return !aIsFull
	}

	// Then by live sector count, and finally by index.
	if a.liveSectors != b.liveSectors {
		return a.liveSectors < b.liveSectors
	}
	return a.index < b.index
}

func (dah *deadlineAssignmentHeap) Push(x interface{}) {
	dah.deadlines = append(dah.deadlines, x.(*deadlineAssignmentInfo))
}

func (dah *deadlineAssignmentHeap) Pop() interface{} {
	last := dah.deadlines[len(dah.deadlines)-1]
	dah.deadlines[len(dah.deadlines)-1] = nil
	dah.deadlines = dah.deadlines[:len(dah.deadlines)-1]
	return last
}

// Assigns sectors to deadlines, one sector at a time, choosing the deadline
// that best keeps partitions full and balanced. Deadlines passed as nil are
// not eligible (they are immutable right now).
// Assignment fails if every eligible deadline already holds maxPartitions partitions.
func assignDeadlines(
	maxPartitions uint64,
	partitionSize uint64,
	deadlines []*Deadline,
	sectors []*SectorOnChainInfo,
) ([][]*SectorOnChainInfo, error) {
	dlHeap := deadlineAssignmentHeap{
		maxPartitions: maxPartitions,
		partitionSize: partitionSize,
		deadlines:     make([]*deadlineAssignmentInfo, 0, len(deadlines)),
	}

	for dlIdx, dl := range deadlines {
		if dl != nil {
			dlHeap.deadlines = append(dlHeap.deadlines, &deadlineAssignmentInfo{
				index:        dlIdx,
				liveSectors:  dl.LiveSectors,
				totalSectors: dl.TotalSectors,
			})
		}
	}

	changes := make([][]*SectorOnChainInfo, len(deadlines))
	if len(dlHeap.deadlines) == 0 {
		if len(sectors) > 0 {
			return nil, xerrors.Errorf("no deadline available for assignment")
		}
		return changes, nil
	}

	heap.Init(&dlHeap)

	for _, sector := range sectors {
		info := dlHeap.deadlines[0]

		if info.maxPartitionsReached(partitionSize, maxPartitions) {
			return nil, xerrors.Errorf("max partitions limit %d reached for all deadlines", maxPartitions)
		}

		changes[info.index] = append(changes[info.index], sector)
		info.liveSectors++
		info.totalSectors++

		heap.Fix(&dlHeap, 0)
	}

	return changes, nil
}
