package states

import (
	address "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	cid "github.com/ipfs/go-cid"
	xerrors "golang.org/x/xerrors"

	"github.com/filecoin-project/storage-actors/actors/util/adt"
)

var ErrActorNotFound = xerrors.Errorf("actor not found")

// Actor is the entry for one actor in a state tree.
type Actor struct {
	Code    cid.Cid
	Head    cid.Cid
	Balance big.Int
}

// A map of ID addresses to actor heads.
// Only ID addresses are accepted: there is no address resolution without the init actor.
type Tree struct {
	m     *adt.Map
	Store adt.Store
}

func NewTree(s adt.Store) (*Tree, error) {
	m, err := adt.MakeEmptyMap(s, adt.DefaultHamtBitwidth)
	if err != nil {
		return nil, err
	}
	return &Tree{m: m, Store: s}, nil
}

func LoadTree(s adt.Store, r cid.Cid) (*Tree, error) {
	m, err := adt.AsMap(s, r, adt.DefaultHamtBitwidth)
	if err != nil {
		return nil, xerrors.Errorf("failed to load state tree %v: %w", r, err)
	}
	return &Tree{m: m, Store: s}, nil
}

func (t *Tree) GetActor(addr address.Address) (*Actor, error) {
	if addr.Protocol() != address.ID {
		return nil, xerrors.Errorf("non-ID address %v", addr)
	}
	var actor Actor
	found, err := t.m.Get(abi.AddrKey(addr), &actor)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrActorNotFound
	}
	return &actor, nil
}

func (t *Tree) SetActor(addr address.Address, actor *Actor) error {
	if addr.Protocol() != address.ID {
		return xerrors.Errorf("non-ID address %v", addr)
	}
	return t.m.Put(abi.AddrKey(addr), actor)
}

func (t *Tree) Root() (cid.Cid, error) {
	return t.m.Root()
}

func (t *Tree) ForEach(fn func(addr address.Address, actor *Actor) error) error {
	var val Actor
	return t.m.ForEach(&val, func(key string) error {
		addr, err := address.NewFromBytes([]byte(key))
		if err != nil {
			return err
		}
		return fn(addr, &val)
	})
}
