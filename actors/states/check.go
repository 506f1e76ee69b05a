package states

import (
	"context"
	"sort"

	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/hashicorp/go-multierror"
	cid "github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/storage-actors/actors/builtin"
	"github.com/filecoin-project/storage-actors/actors/builtin/exported"
	"github.com/filecoin-project/storage-actors/actors/builtin/market"
	"github.com/filecoin-project/storage-actors/actors/builtin/miner"
	"github.com/filecoin-project/storage-actors/actors/runtime"
)

var log = logging.Logger("states")

// Maximum number of miner states checked at once.
const checkWorkers = 8

type minerCheck struct {
	addr    addr.Address
	summary *miner.StateSummary
	msgs    *builtin.MessageAccumulator
	err     error
}

// Checks the market and every miner in the tree, then cross-checks deal states against miner sectors.
// Within this code, Go errors are not expected, but are often converted to messages so that execution
// can continue to find more errors rather than fail with no insight.
// State that cannot be loaded at all is reported through the returned error, one entry per actor.
// The tree's store must be safe for concurrent reads.
func CheckStateInvariants(ctx context.Context, tree *Tree, p *runtime.Policy, priorEpoch abi.ChainEpoch) (*builtin.MessageAccumulator, error) {
	acc := &builtin.MessageAccumulator{}
	var marketActor *Actor
	var miners []minerCheck
	heads := map[addr.Address]*Actor{}
	singletons := map[cid.Cid]addr.Address{}

	if err := tree.ForEach(func(key addr.Address, actor *Actor) error {
		a := *actor
		vmActor, ok := exported.ActorForCode(actor.Code)
		if !ok {
			acc.Addf("%v: unexpected actor code CID %v", key, actor.Code)
			return nil
		}
		if vmActor.IsSingleton() {
			if prev, found := singletons[actor.Code]; found {
				acc.Addf("%v: duplicate singleton actor %v, also at %v", key, actor.Code, prev)
				return nil
			}
			singletons[actor.Code] = key
		}
		switch vmActor.(type) {
		case market.Actor:
			marketActor = &a
		case miner.Actor:
			miners = append(miners, minerCheck{addr: key})
			heads[key] = &a
		}
		return nil
	}); err != nil {
		return nil, xerrors.Errorf("failed to iterate state tree: %w", err)
	}

	// Tree iteration is in hash order.
	sort.Slice(miners, func(i, j int) bool {
		return miners[i].addr.String() < miners[j].addr.String()
	})

	grp, gctx := errgroup.WithContext(ctx)
	tokens := make(chan struct{}, checkWorkers)
	for i := range miners {
		mc := &miners[i]
		head := heads[mc.addr]
		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case tokens <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-tokens }()

			var st miner.State
			if err := tree.Store.Get(gctx, head.Head, &st); err != nil {
				mc.err = xerrors.Errorf("failed to load miner %v state: %w", mc.addr, err)
				return nil
			}
			mc.summary, mc.msgs = miner.CheckStateInvariants(p, &st, tree.Store, head.Balance)
			return nil
		})
	}

	var marketSummary *market.StateSummary
	var result *multierror.Error
	if marketActor != nil {
		var st market.State
		if err := tree.Store.Get(ctx, marketActor.Head, &st); err != nil {
			result = multierror.Append(result, xerrors.Errorf("failed to load market state: %w", err))
		} else {
			summary, msgs := market.CheckStateInvariants(&st, tree.Store, marketActor.Balance, priorEpoch)
			acc.WithPrefix("market: ").AddAll(msgs)
			marketSummary = summary
		}
	} else {
		acc.Add("no market actor in state tree")
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}

	minerSummaries := make(map[addr.Address]*miner.StateSummary, len(miners))
	for _, mc := range miners {
		if mc.err != nil {
			result = multierror.Append(result, mc.err)
			continue
		}
		acc.WithPrefix("miner %v: ", mc.addr).AddAll(mc.msgs)
		minerSummaries[mc.addr] = mc.summary
	}

	if marketSummary != nil {
		CheckDealStatesAgainstSectors(acc, minerSummaries, marketSummary)
	}

	log.Debugw("checked state invariants", "miners", len(miners), "messages", len(acc.Messages()))
	return acc, result.ErrorOrNil()
}

func CheckDealStatesAgainstSectors(acc *builtin.MessageAccumulator, minerSummaries map[addr.Address]*miner.StateSummary, marketSummary *market.StateSummary) {
	// Check that all active deals are included within a non-terminated sector.
	// There may be deals for a miner in a sector that is expired or terminated, so check
	// only those that the market still considers active.
	for dealID, deal := range marketSummary.Deals { // nolint:nomaprange
		if deal.SectorStartEpoch == -1 {
			continue
		}

		minerSummary, found := minerSummaries[deal.Provider]
		if !found {
			acc.Addf("provider %v for deal %d not found among miners", deal.Provider, dealID)
			continue
		}

		sectorDeal, found := minerSummary.Deals[dealID]
		if !found {
			acc.Require(deal.SlashEpoch >= 0, "un-slashed deal %d not referenced in active sectors of miner %v", dealID, deal.Provider)
			continue
		}

		acc.Require(deal.SectorStartEpoch == sectorDeal.SectorStart,
			"deal state start %d does not match sector start %d for miner %v",
			deal.SectorStartEpoch, sectorDeal.SectorStart, deal.Provider)

		acc.Require(deal.EndEpoch <= sectorDeal.SectorExpiration,
			"deal state end %d is after sector expiration %d for miner %v",
			deal.EndEpoch, sectorDeal.SectorExpiration, deal.Provider)
	}
}
