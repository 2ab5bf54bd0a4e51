package show

import (
	"context"
	"encoding/json"
	"log"

	"github.com/mlopslab/mlreg/cmd/mlreg/subcommands/common"
	krst "github.com/mlopslab/mlreg/pkg/sdk/rest"
	"github.com/youta-t/flarc"
)

const ARG_EXPERIMENT_ID = "EXPERIMENT_ID"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show an Experiment in JSON, with its parameters and metrics.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_EXPERIMENT_ID, Required: true,
				Help: "Id of the Experiment to be shown.",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Show an Experiment as JSON.

The output carries the full record: lifecycle fields, the parameters
captured at creation and every metric sample appended so far.

Example
-------

	{{ .Command }} exp_20260205_100000
`),
	)
}

func Task() common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		client krst.Client,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		experimentId := cl.Args()[ARG_EXPERIMENT_ID][0]

		detail, err := client.GetExperiment(ctx, experimentId)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(detail); err != nil {
			return err
		}
		return nil
	}
}
