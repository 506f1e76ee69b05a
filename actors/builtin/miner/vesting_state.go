package miner

import (
	"sort"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/filecoin-project/storage-actors/actors/builtin"
)

// VestingFunds is the miner's vesting table: (epoch, amount) entries kept sorted by epoch.
type VestingFunds struct {
	Funds []VestingFund
}

// VestingFund represents miner funds that will vest at the given epoch.
type VestingFund struct {
	Epoch  abi.ChainEpoch
	Amount abi.TokenAmount
}

// ConstructVestingFunds constructs empty VestingFunds state.
func ConstructVestingFunds() *VestingFunds {
	return &VestingFunds{Funds: nil}
}

// Removes and sums every entry that vested strictly before currEpoch.
func (v *VestingFunds) unlockVestedFunds(currEpoch abi.ChainEpoch) abi.TokenAmount {
	unlocked := big.Zero()
	cut := 0
	for cut < len(v.Funds) && v.Funds[cut].Epoch < currEpoch {
		unlocked = big.Add(unlocked, v.Funds[cut].Amount)
		cut++
	}
	v.Funds = v.Funds[cut:]
	return unlocked
}

// Schedules vestingSum to vest linearly according to spec, starting at currEpoch.
// Vesting epochs are quantized to align with the miner's deadline cron.
func (v *VestingFunds) addLockedFunds(currEpoch abi.ChainEpoch, vestingSum abi.TokenAmount,
	provingPeriodStart abi.ChainEpoch, spec *VestSpec) {
	index := make(map[abi.ChainEpoch]int, len(v.Funds))
	for i, vf := range v.Funds {
		index[vf.Epoch] = i
	}

	vestBegin := currEpoch + spec.InitialDelay
	vestPeriod := big.NewInt(int64(spec.VestPeriod))
	vestedSoFar := big.Zero()
	for e := vestBegin + spec.StepDuration; vestedSoFar.LessThan(vestingSum); e += spec.StepDuration {
		vestEpoch := builtin.QuantizeUp(e, spec.Quantization, provingPeriodStart)
		elapsed := vestEpoch - vestBegin

		targetVest := vestingSum
		if elapsed < spec.VestPeriod {
			targetVest = big.Div(big.Mul(vestingSum, big.NewInt(int64(elapsed))), vestPeriod)
		}
		vestThisTime := big.Sub(targetVest, vestedSoFar)
		vestedSoFar = targetVest

		if i, ok := index[vestEpoch]; ok {
			v.Funds[i].Amount = big.Add(v.Funds[i].Amount, vestThisTime)
		} else {
			v.Funds = append(v.Funds, VestingFund{Epoch: vestEpoch, Amount: vestThisTime})
			index[vestEpoch] = len(v.Funds) - 1
		}
	}

	sort.Slice(v.Funds, func(i, j int) bool {
		return v.Funds[i].Epoch < v.Funds[j].Epoch
	})
}

// Unlocks up to target from entries that have not yet vested, earliest first.
// Entries that should already have vested are left in place.
func (v *VestingFunds) unlockUnvestedFunds(currEpoch abi.ChainEpoch, target abi.TokenAmount) abi.TokenAmount {
	unlocked := big.Zero()
	kept := v.Funds[:0]
	for _, vf := range v.Funds {
		if vf.Epoch < currEpoch || unlocked.GreaterThanEqual(target) {
			kept = append(kept, vf)
			continue
		}
		amount := big.Min(big.Sub(target, unlocked), vf.Amount)
		unlocked = big.Add(unlocked, amount)
		if remaining := big.Sub(vf.Amount, amount); !remaining.IsZero() {
			kept = append(kept, VestingFund{Epoch: vf.Epoch, Amount: remaining})
		}
	}
	v.Funds = kept
	return unlocked
}
