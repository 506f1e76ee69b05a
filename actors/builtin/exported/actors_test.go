package exported_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/storage-actors/actors/builtin"
	"github.com/filecoin-project/storage-actors/actors/builtin/exported"
	"github.com/filecoin-project/storage-actors/support/mock"
)

func TestBuiltinActors(t *testing.T) {
	seen := map[string]bool{}
	for _, act := range exported.BuiltinActors() {
		mock.CheckVMActor(t, act)
		assert.False(t, seen[act.Code().KeyString()], "duplicate code %v", act.Code())
		seen[act.Code().KeyString()] = true

		found, ok := exported.ActorForCode(act.Code())
		require.True(t, ok)
		assert.Equal(t, act.Code(), found.Code())
	}

	market, ok := exported.ActorForCode(builtin.StorageMarketActorCodeID)
	require.True(t, ok)
	assert.True(t, market.IsSingleton())

	miner, ok := exported.ActorForCode(builtin.StorageMinerActorCodeID)
	require.True(t, ok)
	assert.False(t, miner.IsSingleton())

	_, ok = exported.ActorForCode(builtin.AccountActorCodeID)
	assert.False(t, ok)
}
