package reward

import (
	"github.com/filecoin-project/go-state-types/abi"

	"github.com/filecoin-project/storage-actors/actors/util/smoothing"
)

// The reward actor's view of the current epoch, consumed by pledge and collateral calculations.
type ThisEpochRewardReturn struct {
	ThisEpochRewardSmoothed smoothing.FilterEstimate
	ThisEpochBaselinePower  abi.StoragePower
}
