package main

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/minio/blake2b-simd"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/storage-actors/actors/builtin/miner"
)

var minerCmd = &cli.Command{
	Name:  "miner",
	Usage: "Miner proving schedule",
	Subcommands: []*cli.Command{
		minerOffsetCmd,
	},
}

var minerOffsetCmd = &cli.Command{
	Name:  "offset",
	Usage: "Print the proving period offset a miner created at an epoch is assigned, and its deadline at that epoch",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "addr",
			Usage:    "miner ID address, e.g. f01000",
			Required: true,
		},
		&cli.Int64Flag{
			Name:     "epoch",
			Usage:    "miner creation epoch",
			Required: true,
		},
	},
	Action: func(cctx *cli.Context) error {
		p, err := loadPolicy(cctx)
		if err != nil {
			return err
		}
		a, err := addr.NewFromString(cctx.String("addr"))
		if err != nil {
			return xerrors.Errorf("invalid miner address: %w", err)
		}
		if a.Protocol() != addr.ID {
			return xerrors.Errorf("miner address %v is not an ID address", a)
		}
		epoch := abi.ChainEpoch(cctx.Int64("epoch"))

		offset, err := miner.AssignProvingPeriodOffset(p, a, epoch, blake2b.Sum256)
		if err != nil {
			return err
		}
		periodStart := miner.CurrentProvingPeriodStart(p, epoch, offset)
		dl := miner.NewDeadlineInfoFromOffsetAndEpoch(p, periodStart, epoch)

		w := cctx.App.Writer
		printer.Fprintf(w, "offset:       %d\n", offset)
		printer.Fprintf(w, "period start: %d\n", periodStart)
		printer.Fprintf(w, "deadline:     %d (open %d, close %d)\n", dl.Index, dl.Open, dl.Close)
		return nil
	},
}
