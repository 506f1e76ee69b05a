package smoothing

import (
	"github.com/filecoin-project/go-state-types/big"

	"github.com/filecoin-project/storage-actors/actors/util/math"
)

// Returns an estimate with position val and velocity 0
func TestingConstantEstimate(val big.Int) FilterEstimate {
	return NewEstimate(val, big.Zero())
}

// Returns an estimate with provided position and velocity
func TestingEstimate(position, velocity big.Int) FilterEstimate {
	return FilterEstimate{
		PositionEstimate: big.Lsh(position, math.Precision128),
		VelocityEstimate: big.Lsh(velocity, math.Precision128),
	}
}
