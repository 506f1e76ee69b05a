package main

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/storage-actors/actors/runtime"
)

var log = logging.Logger("storage-actors")

// Large numbers are printed with digit grouping.
var printer = message.NewPrinter(language.English)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Errorf("%+v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "storage-actors",
		Usage: "Inspect storage miner and market actor parameters and state",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
				Usage: "log level for all subsystems",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "TOML file overriding network policy parameters",
			},
		},
		Before: func(cctx *cli.Context) error {
			return logging.SetLogLevel("*", cctx.String("log-level"))
		},
		Commands: []*cli.Command{
			policyCmd,
			dealsCmd,
			minerCmd,
			stateCmd,
			decodeCmd,
		},
	}
}

// Loads the policy named by the global --config flag, or the default policy.
func loadPolicy(cctx *cli.Context) (*runtime.Policy, error) {
	path := cctx.String("config")
	if path == "" {
		return runtime.DefaultPolicy(), nil
	}
	p, err := runtime.LoadPolicyFile(path)
	if err != nil {
		return nil, xerrors.Errorf("loading policy from %s: %w", path, err)
	}
	log.Infow("loaded policy", "path", path)
	return p, nil
}
