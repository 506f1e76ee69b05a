package ipld_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/filecoin-project/go-state-types/abi"
	cid "github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cbg "github.com/whyrusleeping/cbor-gen"

	"github.com/filecoin-project/storage-actors/actors/util/adt"
	"github.com/filecoin-project/storage-actors/support/ipld"
)

func TestCachingBlockstore(t *testing.T) {
	ctx := context.Background()
	metrics := ipld.NewMetricsBlockStore(ipld.NewBlockStoreInMemory())
	caching, err := ipld.NewCachingBlockstore(metrics, 16)
	require.NoError(t, err)
	store := adt.WrapBlockStore(ctx, caching)

	root, err := adt.StoreEmptyMap(store, adt.DefaultHamtBitwidth)
	require.NoError(t, err)
	writes := metrics.WriteCount()
	assert.True(t, writes > 0)

	// reads are served from the cache after the write
	m, err := adt.AsMap(store, root, adt.DefaultHamtBitwidth)
	require.NoError(t, err)
	_, err = adt.AsMap(store, root, adt.DefaultHamtBitwidth)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), metrics.ReadCount())
	assert.Equal(t, int(writes), caching.Cached())

	mroot, err := m.Root()
	require.NoError(t, err)
	assert.Equal(t, root, mroot)
}

func TestDatastoreBlockstore(t *testing.T) {
	store := adt.WrapBlockStore(context.Background(), ipld.NewDatastoreBlockstore())
	root, err := adt.StoreEmptyArray(store, 5)
	require.NoError(t, err)

	arr, err := adt.AsArray(store, root, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), arr.Length())
}

func TestCARRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := ipld.NewBlockStoreInMemory()
	store := adt.WrapBlockStore(ctx, src)

	m, err := adt.MakeEmptyMap(store, adt.DefaultHamtBitwidth)
	require.NoError(t, err)
	val := cbg.CborInt(7)
	require.NoError(t, m.Put(abi.IntKey(1), &val))
	root, err := m.Root()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ipld.ExportCAR(ctx, src, []cid.Cid{root}, &buf))

	dst := ipld.NewBlockStoreInMemory()
	roots, err := ipld.ImportCAR(dst, &buf)
	require.NoError(t, err)
	require.Equal(t, []cid.Cid{root}, roots)
	assert.Equal(t, src.Len(), dst.Len())
	assert.True(t, dst.Has(root))
}
