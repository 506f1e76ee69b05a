package testing

import (
	"crypto/sha256"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

var DefaultCidBuilder = cid.V1Builder{Codec: cid.DagCBOR, MhType: mh.BLAKE2B_MIN + 31}

// Makes a cid of the input under the given prefix, or the default dag-cbor/blake2b prefix if nil.
func MakeCID(input string, prefix *cid.Prefix) cid.Cid {
	data := []byte(input)
	if prefix == nil {
		c, err := DefaultCidBuilder.Sum(data)
		if err != nil {
			panic(err)
		}
		return c
	}
	c, err := prefix.Sum(data)
	switch {
	case err == mh.ErrSumNotSupported:
		// multihash library doesn't support this hash function.
		// just fake it.
	case err == nil:
		return c
	default:
		panic(err)
	}

	sum := sha256.Sum256(data)
	hash, err := mh.Encode(sum[:], prefix.MhType)
	if err != nil {
		panic(err)
	}
	return cid.NewCidV1(prefix.Codec, hash)
}

// NewCidForTestGetter returns a closure that returns a Cid unique to that invocation.
// The Cid is unique wrt the closure returned, not globally.
func NewCidForTestGetter() func() cid.Cid {
	i := 31337
	return func() cid.Cid {
		c := MakeCID(string(rune(i)), nil)
		i++
		return c
	}
}
