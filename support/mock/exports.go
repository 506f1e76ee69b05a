package mock

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/storage-actors/actors/runtime"
)

// Checks that an actor's exported methods line up with its method table, and that every
// export has the signature the runtime dispatches on.
func CheckActorExports(t *testing.T, act interface{ Exports() []interface{} }) {
	for i, m := range act.Exports() {
		if i == 0 { // Send is implicit
			continue
		}

		if m == nil {
			continue
		}

		t.Run("method"+reflect.TypeOf(m).String(), func(t *testing.T) {
			mrt := Runtime{t: t}
			mrt.verifyExportedMethodType(reflect.ValueOf(m))
		})
	}
}

// Checks that the code cid and exports of a VM actor are well formed.
func CheckVMActor(t *testing.T, act runtime.VMActor) {
	require.True(t, act.Code().Defined(), "actor code must be defined")
	assert.NotNil(t, act.State(), "actor must declare a state type")
	CheckActorExports(t, act)
}
