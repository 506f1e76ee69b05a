package main

import (
	"context"
	"fmt"
	"os"

	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	cid "github.com/ipfs/go-cid"
	"github.com/minio/blake2b-simd"
	"github.com/multiformats/go-multibase"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/storage-actors/actors/builtin"
	"github.com/filecoin-project/storage-actors/actors/builtin/market"
	"github.com/filecoin-project/storage-actors/actors/builtin/miner"
	"github.com/filecoin-project/storage-actors/actors/runtime"
	"github.com/filecoin-project/storage-actors/actors/states"
	"github.com/filecoin-project/storage-actors/actors/util/adt"
	"github.com/filecoin-project/storage-actors/support/ipld"
)

// ID of the first miner written by state export.
const firstExportedMinerID = 1000

var stateCmd = &cli.Command{
	Name:  "state",
	Usage: "Market and miner state trees stored as CAR files",
	Subcommands: []*cli.Command{
		stateExportCmd,
		stateCheckCmd,
	},
}

var baseFlag = &cli.StringFlag{
	Name:  "base",
	Value: "base32",
	Usage: "multibase used to print CIDs",
}

var stateExportCmd = &cli.Command{
	Name:  "export",
	Usage: "Write a state tree holding an empty market and freshly constructed miners to a CAR file",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "out",
			Usage:    "output CAR file",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "miners",
			Value: 1,
			Usage: "number of miners to construct",
		},
		&cli.Int64Flag{
			Name:  "epoch",
			Usage: "epoch at which the miners are constructed",
		},
		baseFlag,
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()
		p, err := loadPolicy(cctx)
		if err != nil {
			return err
		}
		encoder, err := multibase.EncoderByName(cctx.String("base"))
		if err != nil {
			return xerrors.Errorf("invalid base: %w", err)
		}
		if cctx.Int("miners") < 0 {
			return xerrors.Errorf("negative miner count %d", cctx.Int("miners"))
		}

		bs := ipld.NewMetricsBlockStore(ipld.NewBlockStoreInMemory())
		root, err := buildStateTree(adt.WrapBlockStore(ctx, bs), p, cctx.Int("miners"), abi.ChainEpoch(cctx.Int64("epoch")))
		if err != nil {
			return err
		}

		f, err := os.Create(cctx.String("out"))
		if err != nil {
			return xerrors.Errorf("failed to create %s: %w", cctx.String("out"), err)
		}
		if err := ipld.ExportCAR(ctx, bs, []cid.Cid{root}, f); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Infow("exported state tree", "blocks", bs.WriteCount(), "bytes", bs.WriteSize())
		fmt.Fprintln(cctx.App.Writer, root.Encode(encoder))
		return nil
	},
}

var stateCheckCmd = &cli.Command{
	Name:  "check",
	Usage: "Load a state tree from a CAR file and check market and miner invariants",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "car",
			Usage:    "CAR file whose single root is a state tree",
			Required: true,
		},
		&cli.Int64Flag{
			Name:  "epoch",
			Usage: "epoch of the last state transition",
		},
		&cli.IntFlag{
			Name:  "cache",
			Value: 4096,
			Usage: "number of blocks held in the read cache",
		},
		baseFlag,
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()
		p, err := loadPolicy(cctx)
		if err != nil {
			return err
		}
		encoder, err := multibase.EncoderByName(cctx.String("base"))
		if err != nil {
			return xerrors.Errorf("invalid base: %w", err)
		}

		backing := ipld.NewDatastoreBlockstore()
		f, err := os.Open(cctx.String("car"))
		if err != nil {
			return xerrors.Errorf("failed to open %s: %w", cctx.String("car"), err)
		}
		roots, err := ipld.ImportCAR(backing, f)
		_ = f.Close()
		if err != nil {
			return err
		}
		if len(roots) != 1 {
			return xerrors.Errorf("expected a single root, found %d", len(roots))
		}

		cached, err := ipld.NewCachingBlockstore(backing, cctx.Int("cache"))
		if err != nil {
			return err
		}
		tree, err := states.LoadTree(adt.WrapBlockStore(ctx, cached), roots[0])
		if err != nil {
			return err
		}
		acc, err := states.CheckStateInvariants(ctx, tree, p, abi.ChainEpoch(cctx.Int64("epoch")))
		if err != nil {
			return err
		}
		log.Debugw("checked state", "cached blocks", cached.Cached())

		w := cctx.App.Writer
		for _, msg := range acc.Messages() {
			fmt.Fprintln(w, msg)
		}
		if !acc.IsEmpty() {
			return xerrors.Errorf("state %s has %d invariant violations", roots[0].Encode(encoder), len(acc.Messages()))
		}
		fmt.Fprintf(w, "state %s ok\n", roots[0].Encode(encoder))
		return nil
	},
}

// Writes a tree of an empty market and count new miners, returning its root.
func buildStateTree(store adt.Store, p *runtime.Policy, count int, epoch abi.ChainEpoch) (cid.Cid, error) {
	tree, err := states.NewTree(store)
	if err != nil {
		return cid.Undef, err
	}

	mst, err := market.ConstructState(store)
	if err != nil {
		return cid.Undef, xerrors.Errorf("failed to construct market state: %w", err)
	}
	head, err := store.Put(store.Context(), mst)
	if err != nil {
		return cid.Undef, err
	}
	if err := tree.SetActor(builtin.StorageMarketActorAddr, &states.Actor{
		Code:    builtin.StorageMarketActorCodeID,
		Head:    head,
		Balance: big.Zero(),
	}); err != nil {
		return cid.Undef, err
	}

	for i := 0; i < count; i++ {
		a, err := addr.NewIDAddress(uint64(firstExportedMinerID + i))
		if err != nil {
			return cid.Undef, err
		}
		head, err := constructMinerState(store, p, a, epoch)
		if err != nil {
			return cid.Undef, xerrors.Errorf("failed to construct miner %v: %w", a, err)
		}
		if err := tree.SetActor(a, &states.Actor{
			Code:    builtin.StorageMinerActorCodeID,
			Head:    head,
			Balance: big.Zero(),
		}); err != nil {
			return cid.Undef, err
		}
	}
	return tree.Root()
}

func constructMinerState(store adt.Store, p *runtime.Policy, a addr.Address, epoch abi.ChainEpoch) (cid.Cid, error) {
	// Owner and worker are the reserved IDs just below the first miner.
	owner, err := addr.NewIDAddress(firstExportedMinerID - 2)
	if err != nil {
		return cid.Undef, err
	}
	worker, err := addr.NewIDAddress(firstExportedMinerID - 1)
	if err != nil {
		return cid.Undef, err
	}
	if len(p.ValidPoStProofTypes) == 0 {
		return cid.Undef, xerrors.New("policy allows no window PoSt proof types")
	}
	info, err := miner.ConstructMinerInfo(owner, worker, nil, []byte(a.String()), nil, p.ValidPoStProofTypes[0])
	if err != nil {
		return cid.Undef, err
	}
	infoCid, err := store.Put(store.Context(), info)
	if err != nil {
		return cid.Undef, err
	}

	offset, err := miner.AssignProvingPeriodOffset(p, a, epoch, blake2b.Sum256)
	if err != nil {
		return cid.Undef, err
	}
	periodStart := miner.CurrentProvingPeriodStart(p, epoch, offset)
	dl := miner.NewDeadlineInfoFromOffsetAndEpoch(p, periodStart, epoch)
	st, err := miner.ConstructState(p, store, infoCid, periodStart, dl.Index)
	if err != nil {
		return cid.Undef, err
	}
	return store.Put(store.Context(), st)
}
