package ipld

import (
	lru "github.com/hashicorp/golang-lru"
	block "github.com/ipfs/go-block-format"
	cid "github.com/ipfs/go-cid"
	datastore "github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	blockstore "github.com/ipfs/go-ipfs-blockstore"
	ipldcbor "github.com/ipfs/go-ipld-cbor"
	"golang.org/x/xerrors"
)

// Returns a block store backed by a synchronized in-memory datastore.
func NewDatastoreBlockstore() blockstore.Blockstore {
	return blockstore.NewBlockstore(dssync.MutexWrap(datastore.NewMapDatastore()))
}

// A read-through cache of recently accessed blocks in front of another block store.
type CachingBlockstore struct {
	underlying ipldcbor.IpldBlockstore
	cache      *lru.Cache
}

var _ ipldcbor.IpldBlockstore = (*CachingBlockstore)(nil)

func NewCachingBlockstore(underlying ipldcbor.IpldBlockstore, size int) (*CachingBlockstore, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, xerrors.Errorf("failed to create block cache of size %d: %w", size, err)
	}
	return &CachingBlockstore{underlying: underlying, cache: cache}, nil
}

func (cs *CachingBlockstore) Get(c cid.Cid) (block.Block, error) {
	if cached, ok := cs.cache.Get(c); ok {
		return cached.(block.Block), nil
	}
	b, err := cs.underlying.Get(c)
	if err != nil {
		return nil, err
	}
	cs.cache.Add(c, b)
	return b, nil
}

func (cs *CachingBlockstore) Put(b block.Block) error {
	if err := cs.underlying.Put(b); err != nil {
		return err
	}
	cs.cache.Add(b.Cid(), b)
	return nil
}

// Number of blocks currently held in the cache.
func (cs *CachingBlockstore) Cached() int {
	return cs.cache.Len()
}
