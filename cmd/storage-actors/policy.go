package main

import (
	"github.com/urfave/cli/v2"
)

var policyCmd = &cli.Command{
	Name:  "policy",
	Usage: "Network policy parameters",
	Subcommands: []*cli.Command{
		policyShowCmd,
	},
}

var policyShowCmd = &cli.Command{
	Name:  "show",
	Usage: "Print the effective policy as TOML",
	Action: func(cctx *cli.Context) error {
		p, err := loadPolicy(cctx)
		if err != nil {
			return err
		}
		return p.WriteTOML(cctx.App.Writer)
	},
}
