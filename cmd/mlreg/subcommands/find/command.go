package find

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mlopslab/mlreg/cmd/mlreg/subcommands/common"
	krst "github.com/mlopslab/mlreg/pkg/sdk/rest"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Limit int `flag:"limit" alias:"l" metavar:"N" help:"Maximum length of the listing. Zero means the registry default (100)."`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Display Experiments, most recently created first.",
		Flag{
			Limit: 0,
		},
		flarc.Args{},
		common.NewTask(Task()),
		flarc.WithDescription(`
Display Experiments as JSON, most recently created first.

Example
-------

Listing with the registry default length (100):

	{{ .Command }}

Listing only the latest 5 Experiments:

	{{ .Command }} --limit 5
`),
	)
}

func Task() common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client krst.Client,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		flags := cl.Flags()
		if flags.Limit < 0 {
			return fmt.Errorf("%w: --limit should not be negative", flarc.ErrUsage)
		}

		listing, err := client.FindExperiments(ctx, flags.Limit)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(listing); err != nil {
			return err
		}
		return nil
	}
}
