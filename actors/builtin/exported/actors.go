package exported

import (
	cid "github.com/ipfs/go-cid"

	"github.com/filecoin-project/storage-actors/actors/builtin/market"
	"github.com/filecoin-project/storage-actors/actors/builtin/miner"
	"github.com/filecoin-project/storage-actors/actors/runtime"
)

// BuiltinActors returns the actors implemented in this repo.
// Power, reward and verified registry are collaborators whose state machines live elsewhere.
func BuiltinActors() []runtime.VMActor {
	return []runtime.VMActor{
		market.Actor{},
		miner.Actor{},
	}
}

// ActorForCode returns the builtin actor with the given code ID.
func ActorForCode(code cid.Cid) (runtime.VMActor, bool) {
	for _, act := range BuiltinActors() {
		if act.Code().Equals(code) {
			return act, true
		}
	}
	return nil, false
}
