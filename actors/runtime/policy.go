package runtime

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/filecoin-project/go-state-types/abi"
	"golang.org/x/xerrors"
)

// Epoch arithmetic used to derive the default policy.
const (
	policyEpochDurationSeconds = 30
	policyEpochsInHour         = 3600 / policyEpochDurationSeconds
	policyEpochsInDay          = 86400 / policyEpochDurationSeconds
	policyEpochsInYear         = 365 * policyEpochsInDay
)

// Policy holds the network parameters consulted by the storage actors.
// A single value is threaded through every invocation via Runtime.Policy, so alternative networks
// (and tests) can substitute their own parameters without touching package state.
type Policy struct {
	// The period over which all a miner's active sectors will be challenged.
	WPoStProvingPeriod abi.ChainEpoch `toml:"wpost_proving_period"`
	// The duration of a deadline's challenge window, the period before a deadline when the challenge is available.
	WPoStChallengeWindow abi.ChainEpoch `toml:"wpost_challenge_window"`
	// The number of non-overlapping PoSt deadlines in a proving period.
	WPoStPeriodDeadlines uint64 `toml:"wpost_period_deadlines"`
	// The maximum age of a chain commitment accepted with a window PoSt.
	WPoStMaxChainCommitAge abi.ChainEpoch `toml:"wpost_max_chain_commit_age"`
	// Length of the window during which an optimistically accepted PoSt may be disputed.
	WPoStDisputeWindow abi.ChainEpoch `toml:"wpost_dispute_window"`
	// Lookback from the deadline's challenge window opening from which to sample chain randomness for the challenge seed.
	WPoStChallengeLookback abi.ChainEpoch `toml:"wpost_challenge_lookback"`

	// The maximum number of sectors that a miner can have simultaneously active.
	SectorsMax uint64 `toml:"sectors_max"`
	// The maximum number of partitions that may be required to be loaded in a single invocation.
	MaxPartitionsPerDeadline uint64 `toml:"max_partitions_per_deadline"`
	// Maximum number of control addresses a miner may register.
	MaxControlAddresses int `toml:"max_control_addresses"`
	// Maximum size of a peer ID.
	MaxPeerIDLength int `toml:"max_peer_id_length"`
	// Maximum size in bytes of all multiaddrs in a miner's info.
	MaxMultiaddrData int `toml:"max_multiaddr_data"`
	// The maximum number of partitions that can be addressed in a single message.
	AddressedPartitionsMax uint64 `toml:"addressed_partitions_max"`
	// Maximum number of unique "declarations" in batch operations.
	DeclarationsMax uint64 `toml:"declarations_max"`
	// The maximum number of sector infos that can be loaded in a single invocation.
	AddressedSectorsMax uint64 `toml:"addressed_sectors_max"`

	// Maximum delay allowed between sealing randomness and pre-commitment.
	MaxPreCommitRandomnessLookback abi.ChainEpoch `toml:"max_pre_commit_randomness_lookback"`
	// Number of epochs between publishing a pre-commitment and when the challenge for interactive PoRep is drawn.
	PreCommitChallengeDelay abi.ChainEpoch `toml:"pre_commit_challenge_delay"`
	// Maximum delay between pre-commitment and proof submission.
	MaxProveCommitDuration abi.ChainEpoch `toml:"max_prove_commit_duration"`
	// Time after the prove-commit deadline at which an expired pre-commit is cleaned up.
	ExpiredPreCommitCleanUpDelay abi.ChainEpoch `toml:"expired_pre_commit_clean_up_delay"`
	// Minimum period before a deadline's challenge window opens that a fault must be declared for that deadline.
	FaultDeclarationCutoff abi.ChainEpoch `toml:"fault_declaration_cutoff"`
	// The maximum age of a fault before the sector is terminated.
	FaultMaxAge abi.ChainEpoch `toml:"fault_max_age"`
	// Staging period for a miner worker key change.
	WorkerKeyChangeDelay abi.ChainEpoch `toml:"worker_key_change_delay"`
	// Minimum number of epochs past the current epoch a sector may be set to expire.
	MinSectorExpiration abi.ChainEpoch `toml:"min_sector_expiration"`
	// The maximum number of epochs past the current epoch that sector lifetime may be extended.
	MaxSectorExpirationExtension abi.ChainEpoch `toml:"max_sector_expiration_extension"`
	// The maximum total lifetime of a sector from activation.
	MaxSectorLifetime abi.ChainEpoch `toml:"max_sector_lifetime"`
	// Ratio of sector size to maximum deals per sector.
	DealLimitDenominator uint64 `toml:"deal_limit_denominator"`
	// Number of epochs after a consensus fault for which a miner is ineligible for permissioned actor methods.
	ConsensusFaultIneligibilityDuration abi.ChainEpoch `toml:"consensus_fault_ineligibility_duration"`
	// The maximum number of new sectors that may be staged by a miner during a single proving period.
	NewSectorsPerPeriodMax uint64 `toml:"new_sectors_per_period_max"`
	// Epochs after which chain state is final with overwhelming probability.
	ChainFinality abi.ChainEpoch `toml:"chain_finality"`

	// Proof types a miner may register and pre-commit with.
	ValidPoStProofTypes      []abi.RegisteredPoStProof `toml:"valid_post_proof_types"`
	ValidPreCommitProofTypes []abi.RegisteredSealProof `toml:"valid_pre_commit_proof_types"`

	// Bounds on aggregated prove-commits.
	MinAggregatedSectors  uint64 `toml:"min_aggregated_sectors"`
	MaxAggregatedSectors  uint64 `toml:"max_aggregated_sectors"`
	MaxAggregateProofSize int    `toml:"max_aggregate_proof_size"`
	// Maximum size of a single replica update proof.
	MaxReplicaUpdateProofSize int `toml:"max_replica_update_proof_size"`
	// Maximum number of sectors in a single pre-commit batch.
	PreCommitSectorBatchMaxSize int `toml:"pre_commit_sector_batch_max_size"`
	// Maximum number of updates in a single replica update message.
	ProveReplicaUpdatesMaxSize int `toml:"prove_replica_updates_max_size"`

	// The number of epochs between payment and other state processing for deals.
	DealUpdatesInterval abi.ChainEpoch `toml:"deal_updates_interval"`
	// Numerator and denominator of the percentage of normalized circulating supply that must be
	// covered by provider collateral.
	ProvCollateralPercentSupplyNum   int64 `toml:"prov_collateral_percent_supply_num"`
	ProvCollateralPercentSupplyDenom int64 `toml:"prov_collateral_percent_supply_denom"`
	// Maximum length of a deal label.
	DealMaxLabelSize int `toml:"deal_max_label_size"`
	// Smallest piece size, in bytes, that may be stored under a verified deal.
	MinVerifiedDealSize int64 `toml:"min_verified_deal_size"`
}

// DefaultPolicy returns the mainnet parameters.
func DefaultPolicy() *Policy {
	return &Policy{
		WPoStProvingPeriod:     policyEpochsInDay,
		WPoStChallengeWindow:   30 * 60 / policyEpochDurationSeconds,
		WPoStPeriodDeadlines:   48,
		WPoStMaxChainCommitAge: 30 * 60 / policyEpochDurationSeconds,
		WPoStDisputeWindow:     2 * 900,
		WPoStChallengeLookback: 20,

		SectorsMax:               32 << 20,
		MaxPartitionsPerDeadline: 3000,
		MaxControlAddresses:      10,
		MaxPeerIDLength:          128,
		MaxMultiaddrData:         1024,
		AddressedPartitionsMax:   3000,
		DeclarationsMax:          3000,
		AddressedSectorsMax:      25_000,

		MaxPreCommitRandomnessLookback:      policyEpochsInDay + 900,
		PreCommitChallengeDelay:             150,
		MaxProveCommitDuration:              30*policyEpochsInDay + 150,
		ExpiredPreCommitCleanUpDelay:        8 * policyEpochsInHour,
		FaultDeclarationCutoff:              20 + 50,
		FaultMaxAge:                         policyEpochsInDay * 42,
		WorkerKeyChangeDelay:                900,
		MinSectorExpiration:                 180 * policyEpochsInDay,
		MaxSectorExpirationExtension:        540 * policyEpochsInDay,
		MaxSectorLifetime:                   5 * policyEpochsInYear,
		DealLimitDenominator:                134217728,
		ConsensusFaultIneligibilityDuration: 900,
		NewSectorsPerPeriodMax:              128 << 10,
		ChainFinality:                       900,

		ValidPoStProofTypes: []abi.RegisteredPoStProof{
			abi.RegisteredPoStProof_StackedDrgWindow32GiBV1,
			abi.RegisteredPoStProof_StackedDrgWindow64GiBV1,
		},
		ValidPreCommitProofTypes: []abi.RegisteredSealProof{
			abi.RegisteredSealProof_StackedDrg32GiBV1_1,
			abi.RegisteredSealProof_StackedDrg64GiBV1_1,
		},

		MinAggregatedSectors:        4,
		MaxAggregatedSectors:        819,
		MaxAggregateProofSize:       81960,
		MaxReplicaUpdateProofSize:   4096,
		PreCommitSectorBatchMaxSize: 256,
		ProveReplicaUpdatesMaxSize:  256,

		DealUpdatesInterval:              policyEpochsInDay,
		ProvCollateralPercentSupplyNum:   1,
		ProvCollateralPercentSupplyDenom: 100,
		DealMaxLabelSize:                 256,
		MinVerifiedDealSize:              1 << 20,
	}
}

// LoadPolicy overlays a TOML document onto the default policy.
// Keys that do not name a policy parameter are rejected.
func LoadPolicy(r io.Reader) (*Policy, error) {
	p := DefaultPolicy()
	md, err := toml.DecodeReader(r, p)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode policy: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, xerrors.Errorf("unknown policy keys: %v", undecoded)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadPolicyFile reads a policy from a TOML file.
func LoadPolicyFile(path string) (*Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to open policy file: %w", err)
	}
	defer f.Close() //nolint:errcheck
	return LoadPolicy(f)
}

// WriteTOML renders the policy as a TOML document.
func (p *Policy) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(p)
}

// Validate checks the relationships between parameters that actor code relies on.
func (p *Policy) Validate() error {
	if p.WPoStPeriodDeadlines == 0 {
		return xerrors.Errorf("proving period must have at least one deadline")
	}
	if p.WPoStChallengeWindow <= 0 {
		return xerrors.Errorf("challenge window %d must be positive", p.WPoStChallengeWindow)
	}
	if p.WPoStProvingPeriod != p.WPoStChallengeWindow*abi.ChainEpoch(p.WPoStPeriodDeadlines) {
		return xerrors.Errorf("proving period %d must equal challenge window %d times %d deadlines",
			p.WPoStProvingPeriod, p.WPoStChallengeWindow, p.WPoStPeriodDeadlines)
	}
	if p.WPoStChallengeLookback >= p.WPoStChallengeWindow {
		return xerrors.Errorf("challenge lookback %d must be less than challenge window %d",
			p.WPoStChallengeLookback, p.WPoStChallengeWindow)
	}
	if p.FaultDeclarationCutoff < p.WPoStChallengeLookback {
		return xerrors.Errorf("fault declaration cutoff %d must be at least the challenge lookback %d",
			p.FaultDeclarationCutoff, p.WPoStChallengeLookback)
	}
	if p.MinAggregatedSectors > p.MaxAggregatedSectors {
		return xerrors.Errorf("min aggregated sectors %d exceeds max %d", p.MinAggregatedSectors, p.MaxAggregatedSectors)
	}
	if p.DealUpdatesInterval <= 0 {
		return xerrors.Errorf("deal updates interval %d must be positive", p.DealUpdatesInterval)
	}
	if p.ProvCollateralPercentSupplyDenom <= 0 {
		return xerrors.Errorf("provider collateral denominator must be positive")
	}
	if p.MinSectorExpiration > p.MaxSectorExpirationExtension {
		return xerrors.Errorf("min sector expiration %d exceeds max extension %d",
			p.MinSectorExpiration, p.MaxSectorExpirationExtension)
	}
	return nil
}

// IsValidPoStProofType reports whether new miners may register the proof type.
func (p *Policy) IsValidPoStProofType(proof abi.RegisteredPoStProof) bool {
	for _, t := range p.ValidPoStProofTypes {
		if t == proof {
			return true
		}
	}
	return false
}

// IsValidPreCommitProofType reports whether sectors may be pre-committed with the proof type.
func (p *Policy) IsValidPreCommitProofType(proof abi.RegisteredSealProof) bool {
	for _, t := range p.ValidPreCommitProofTypes {
		if t == proof {
			return true
		}
	}
	return false
}

// ProveCommitDuration returns the maximum delay between pre-commitment and proof for a seal proof,
// and whether the proof type may be proven at all.
func (p *Policy) ProveCommitDuration(proof abi.RegisteredSealProof) (abi.ChainEpoch, bool) {
	switch proof {
	case abi.RegisteredSealProof_StackedDrg2KiBV1, abi.RegisteredSealProof_StackedDrg8MiBV1,
		abi.RegisteredSealProof_StackedDrg512MiBV1, abi.RegisteredSealProof_StackedDrg32GiBV1,
		abi.RegisteredSealProof_StackedDrg64GiBV1,
		abi.RegisteredSealProof_StackedDrg2KiBV1_1, abi.RegisteredSealProof_StackedDrg8MiBV1_1,
		abi.RegisteredSealProof_StackedDrg512MiBV1_1, abi.RegisteredSealProof_StackedDrg32GiBV1_1,
		abi.RegisteredSealProof_StackedDrg64GiBV1_1:
		return p.MaxProveCommitDuration, true
	}
	return 0, false
}

// Copy returns a deep copy, for callers that want to derive a variant policy.
func (p *Policy) Copy() *Policy {
	c := *p
	c.ValidPoStProofTypes = append([]abi.RegisteredPoStProof(nil), p.ValidPoStProofTypes...)
	c.ValidPreCommitProofTypes = append([]abi.RegisteredSealProof(nil), p.ValidPreCommitProofTypes...)
	return &c
}
