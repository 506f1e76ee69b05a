package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/storage-actors/actors/builtin/market"
)

// Ranges wider than this are refused.
const maxScheduleDeals = 100_000

var dealsCmd = &cli.Command{
	Name:  "deals",
	Usage: "Market deal scheduling",
	Subcommands: []*cli.Command{
		dealsScheduleCmd,
	},
}

var dealsScheduleCmd = &cli.Command{
	Name:  "schedule",
	Usage: "Print the first cron processing epoch of each deal in a range",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:     "start",
			Usage:    "deal start epoch",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "ids",
			Usage:    "inclusive deal ID range, e.g. 0-99, or a single ID",
			Required: true,
		},
		&cli.Int64Flag{
			Name:  "interval",
			Usage: "processing interval in epochs (defaults to the policy's deal update interval)",
		},
	},
	Action: func(cctx *cli.Context) error {
		p, err := loadPolicy(cctx)
		if err != nil {
			return err
		}
		interval := abi.ChainEpoch(cctx.Int64("interval"))
		if interval == 0 {
			interval = p.DealUpdatesInterval
		}
		if interval < 0 {
			return xerrors.Errorf("negative interval %d", interval)
		}
		first, last, err := parseDealRange(cctx.String("ids"))
		if err != nil {
			return err
		}
		start := abi.ChainEpoch(cctx.Int64("start"))

		w := cctx.App.Writer
		fmt.Fprintln(w, "deal\tnext")
		for i := uint64(0); i <= uint64(last-first); i++ {
			id := first + abi.DealID(i)
			fmt.Fprintf(w, "%d\t%d\n", id, market.GenRandNextEpoch(start, id, interval))
		}
		return nil
	},
}

func parseDealRange(s string) (abi.DealID, abi.DealID, error) {
	lo, hi := s, s
	if i := strings.IndexByte(s, '-'); i >= 0 {
		lo, hi = s[:i], s[i+1:]
	}
	first, err := strconv.ParseUint(lo, 10, 64)
	if err != nil {
		return 0, 0, xerrors.Errorf("invalid deal range %q: %w", s, err)
	}
	last, err := strconv.ParseUint(hi, 10, 64)
	if err != nil {
		return 0, 0, xerrors.Errorf("invalid deal range %q: %w", s, err)
	}
	if last < first {
		return 0, 0, xerrors.Errorf("invalid deal range %q: end before start", s)
	}
	if last-first >= maxScheduleDeals {
		return 0, 0, xerrors.Errorf("deal range %q spans more than %d deals", s, maxScheduleDeals)
	}
	return abi.DealID(first), abi.DealID(last), nil
}
