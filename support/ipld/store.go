package ipld

import (
	"context"
	"fmt"
	"sync"

	block "github.com/ipfs/go-block-format"
	cid "github.com/ipfs/go-cid"
	ipldcbor "github.com/ipfs/go-ipld-cbor"

	"github.com/filecoin-project/storage-actors/actors/util/adt"
)

// Creates a new, empty, unsynchronized IPLD store in memory.
// This store is appropriate for most kinds of testing.
func NewADTStore(ctx context.Context) adt.Store {
	return adt.WrapBlockStore(ctx, NewBlockStoreInMemory())
}

//
// A basic in-memory block store.
//
type BlockStoreInMemory struct {
	data map[cid.Cid]block.Block
}

var _ ipldcbor.IpldBlockstore = (*BlockStoreInMemory)(nil)

func NewBlockStoreInMemory() *BlockStoreInMemory {
	return &BlockStoreInMemory{make(map[cid.Cid]block.Block)}
}

func (mb *BlockStoreInMemory) Get(c cid.Cid) (block.Block, error) {
	d, ok := mb.data[c]
	if ok {
		return d, nil
	}
	return nil, fmt.Errorf("not found")
}

func (mb *BlockStoreInMemory) Put(b block.Block) error {
	mb.data[b.Cid()] = b
	return nil
}

func (mb *BlockStoreInMemory) Has(c cid.Cid) bool {
	_, ok := mb.data[c]
	return ok
}

func (mb *BlockStoreInMemory) Len() int {
	return len(mb.data)
}

// Visits every block in the store. Iteration order is unspecified.
func (mb *BlockStoreInMemory) ForEach(f func(b block.Block) error) error {
	for _, b := range mb.data { //nolint:nomaprange
		if err := f(b); err != nil {
			return err
		}
	}
	return nil
}

//
// Synchronized wrapper for a block store shared between goroutines.
//
type SyncBlockStore struct {
	bs ipldcbor.IpldBlockstore
	mu sync.Mutex
}

func NewSyncBlockStore(bs ipldcbor.IpldBlockstore) *SyncBlockStore {
	return &SyncBlockStore{bs: bs}
}

func (ss *SyncBlockStore) Get(c cid.Cid) (block.Block, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.bs.Get(c)
}

func (ss *SyncBlockStore) Put(b block.Block) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.bs.Put(b)
}
