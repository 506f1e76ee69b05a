package builtin

import (
	"fmt"

	"github.com/filecoin-project/go-bitfield"
	"github.com/filecoin-project/go-state-types/exitcode"
	rtt "github.com/filecoin-project/go-state-types/rt"
	"github.com/hashicorp/go-multierror"

	"github.com/filecoin-project/storage-actors/actors/runtime"
)

// BatchFold accumulates the outcome of each item in a batch whose invalid items are dropped
// while the rest proceed. Each dropped item is logged through the runtime with its reason.
type BatchFold struct {
	rt      runtime.Runtime
	item    string
	size    int
	success []uint64
	dropped *multierror.Error
}

func NewBatchFold(rt runtime.Runtime, item string, size int) *BatchFold {
	return &BatchFold{
		rt:      rt,
		item:    item,
		size:    size,
		success: make([]uint64, 0, size),
	}
}

// Records index as accepted. Indices must be recorded in ascending order.
func (f *BatchFold) Succeed(index int) {
	f.success = append(f.success, uint64(index))
}

// Records index as dropped for the formatted reason.
func (f *BatchFold) Drop(index int, format string, args ...interface{}) {
	f.DropErr(index, fmt.Errorf(format, args...))
}

func (f *BatchFold) DropErr(index int, err error) {
	f.dropped = multierror.Append(f.dropped, fmt.Errorf("%s %d: %w", f.item, index, err))
	f.rt.Log(rtt.INFO, "invalid %s %d: %s", f.item, index, err)
}

func (f *BatchFold) Size() int {
	return f.size
}

func (f *BatchFold) SuccessCount() int {
	return len(f.success)
}

func (f *BatchFold) DroppedCount() int {
	if f.dropped == nil {
		return 0
	}
	return len(f.dropped.Errors)
}

// Indices of the accepted items, ascending.
func (f *BatchFold) Successes() []uint64 {
	return f.success
}

// The reasons for every dropped item, or nil if none were dropped.
func (f *BatchFold) Err() error {
	return f.dropped.ErrorOrNil()
}

// A bitfield with a bit set for each accepted index.
func (f *BatchFold) Bitfield() bitfield.BitField {
	return bitfield.NewFromSet(f.success)
}

// Aborts with code if no item was accepted.
func (f *BatchFold) RequireSuccesses(code exitcode.ExitCode, msg string, args ...interface{}) {
	if len(f.success) == 0 {
		f.rt.Abortf(code, msg, args...)
	}
}

// Aborts with ErrIllegalState if the accepted and dropped counts do not cover the whole batch.
func (f *BatchFold) RequireComplete() {
	if f.SuccessCount()+f.DroppedCount() != f.size {
		f.rt.Abortf(exitcode.ErrIllegalState, "%s batch of %d recorded %d successes and %d drops",
			f.item, f.size, f.SuccessCount(), f.DroppedCount())
	}
}
