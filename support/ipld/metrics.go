package ipld

import (
	"context"

	block "github.com/ipfs/go-block-format"
	cid "github.com/ipfs/go-cid"
	ipldcbor "github.com/ipfs/go-ipld-cbor"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
)

var (
	BlockGets     = stats.Int64("blockstore/gets", "Number of block reads", stats.UnitDimensionless)
	BlockPuts     = stats.Int64("blockstore/puts", "Number of block writes", stats.UnitDimensionless)
	BlockGetBytes = stats.Int64("blockstore/get_bytes", "Bytes read from the block store", stats.UnitBytes)
	BlockPutBytes = stats.Int64("blockstore/put_bytes", "Bytes written to the block store", stats.UnitBytes)
)

var DefaultViews = []*view.View{
	{Measure: BlockGets, Aggregation: view.Count()},
	{Measure: BlockPuts, Aggregation: view.Count()},
	{Measure: BlockGetBytes, Aggregation: view.Sum()},
	{Measure: BlockPutBytes, Aggregation: view.Sum()},
}

// Wraps a block store, recording opencensus measures for reads and writes along with simple
// counters that tests can inspect directly.
type MetricsBlockStore struct {
	bs         ipldcbor.IpldBlockstore
	ctx        context.Context
	Writes     uint64
	WriteBytes uint64
	Reads      uint64
	ReadBytes  uint64
}

var _ ipldcbor.IpldBlockstore = (*MetricsBlockStore)(nil)

func NewMetricsBlockStore(underlying ipldcbor.IpldBlockstore) *MetricsBlockStore {
	return &MetricsBlockStore{bs: underlying, ctx: context.Background()}
}

func (ms *MetricsBlockStore) Get(c cid.Cid) (block.Block, error) {
	ms.Reads++
	blk, err := ms.bs.Get(c)
	if err != nil {
		return blk, err
	}
	ms.ReadBytes += uint64(len(blk.RawData()))
	stats.Record(ms.ctx, BlockGets.M(1), BlockGetBytes.M(int64(len(blk.RawData()))))
	return blk, nil
}

func (ms *MetricsBlockStore) Put(b block.Block) error {
	ms.Writes++
	ms.WriteBytes += uint64(len(b.RawData()))
	stats.Record(ms.ctx, BlockPuts.M(1), BlockPutBytes.M(int64(len(b.RawData()))))
	return ms.bs.Put(b)
}

func (ms *MetricsBlockStore) ReadCount() uint64 {
	return ms.Reads
}

func (ms *MetricsBlockStore) WriteCount() uint64 {
	return ms.Writes
}

func (ms *MetricsBlockStore) ReadSize() uint64 {
	return ms.ReadBytes
}

func (ms *MetricsBlockStore) WriteSize() uint64 {
	return ms.WriteBytes
}
