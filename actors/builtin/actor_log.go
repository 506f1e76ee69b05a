package builtin

import (
	"sync"

	"github.com/ipfs/go-cid"

	rtt "github.com/filecoin-project/go-state-types/rt"
	"github.com/filecoin-project/storage-actors/actors/runtime"
)

// ActorLog holds the minimum level at which each actor type emits runtime logs.
type ActorLog struct {
	sync.RWMutex
	Actors map[cid.Cid]rtt.LogLevel
}

var actorLogSingle *ActorLog

func init() {
	actorLogSingle = &ActorLog{Actors: make(map[cid.Cid]rtt.LogLevel, 0)}
}

func SetActorsLogLevel(logLevel rtt.LogLevel, actors ...runtime.VMActor) {
	actorLogSingle.Lock()
	defer actorLogSingle.Unlock()

	for _, actor := range actors {
		actorLogSingle.Actors[actor.Code()] = logLevel
	}
}

// GetActorLogLevel returns the level configured for the actor's code, or defValue if none was set.
func GetActorLogLevel(actor runtime.VMActor, defValue rtt.LogLevel) rtt.LogLevel {
	actorLogSingle.RLock()
	defer actorLogSingle.RUnlock()

	actorLogLevel, ok := actorLogSingle.Actors[actor.Code()]
	if ok {
		return actorLogLevel
	}

	return defValue
}

// ResetActorsLogLevel clears all configured levels.
func ResetActorsLogLevel() {
	actorLogSingle.Lock()
	defer actorLogSingle.Unlock()
	actorLogSingle.Actors = make(map[cid.Cid]rtt.LogLevel)
}

// ActorLogLevelByCode is the variant of GetActorLogLevel for callers holding only a code CID.
func ActorLogLevelByCode(code cid.Cid, defValue rtt.LogLevel) rtt.LogLevel {
	actorLogSingle.RLock()
	defer actorLogSingle.RUnlock()

	if lvl, ok := actorLogSingle.Actors[code]; ok {
		return lvl
	}
	return defValue
}
