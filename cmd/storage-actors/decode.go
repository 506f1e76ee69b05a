package main

import (
	"encoding/hex"
	"fmt"

	"github.com/filecoin-project/go-bitfield"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
)

var decodeCmd = &cli.Command{
	Name:  "decode",
	Usage: "Decode hex encoded values found in actor state",
	Subcommands: []*cli.Command{
		decodeBitfieldCmd,
		decodeIntCmd,
	},
}

var decodeBitfieldCmd = &cli.Command{
	Name:      "bf",
	Usage:     "Print the set bits of an RLE+ bitfield",
	ArgsUsage: "<hex>",
	Action: func(cctx *cli.Context) error {
		b, err := decodeHexArg(cctx)
		if err != nil {
			return err
		}
		bf, err := bitfield.NewFromBytes(b)
		if err != nil {
			return xerrors.Errorf("invalid bitfield: %w", err)
		}
		count, err := bf.Count()
		if err != nil {
			return xerrors.Errorf("invalid bitfield: %w", err)
		}
		log.Debugw("decoded bitfield", "count", count)
		return bf.ForEach(func(u uint64) error {
			_, err := fmt.Fprintln(cctx.App.Writer, u)
			return err
		})
	},
}

var decodeIntCmd = &cli.Command{
	Name:      "int",
	Usage:     "Print a serialized big integer, such as a token amount",
	ArgsUsage: "<hex>",
	Action: func(cctx *cli.Context) error {
		b, err := decodeHexArg(cctx)
		if err != nil {
			return err
		}
		i, err := big.FromBytes(b)
		if err != nil {
			return xerrors.Errorf("invalid big integer: %w", err)
		}
		_, err = fmt.Fprintln(cctx.App.Writer, i)
		return err
	},
}

func decodeHexArg(cctx *cli.Context) ([]byte, error) {
	if cctx.Args().Len() != 1 {
		return nil, xerrors.Errorf("expected one hex argument, got %d", cctx.Args().Len())
	}
	b, err := hex.DecodeString(cctx.Args().First())
	if err != nil {
		return nil, xerrors.Errorf("invalid hex: %w", err)
	}
	return b, nil
}
