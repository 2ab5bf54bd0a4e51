package metric

import (
	"context"
	"fmt"
	"log"
	"strconv"

	apiexp "github.com/mlopslab/mlreg-api-types/experiments"
	"github.com/mlopslab/mlreg/cmd/mlreg/subcommands/common"
	krst "github.com/mlopslab/mlreg/pkg/sdk/rest"
	"github.com/mlopslab/mlreg/pkg/utils/pointer"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Step string `flag:"step" alias:"s" metavar:"N" help:"Step of the metric sample. Omitted when not set."`
}

const (
	ARG_EXPERIMENT_ID = "EXPERIMENT_ID"
	ARG_KEY           = "KEY"
	ARG_VALUE         = "VALUE"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Append a metric sample to an Experiment.",
		Flag{
			Step: "",
		},
		flarc.Args{
			{
				Name: ARG_EXPERIMENT_ID, Required: true,
				Help: "Id of the Experiment the sample belongs to.",
			},
			{
				Name: ARG_KEY, Required: true,
				Help: "Name of the metric time series.",
			},
			{
				Name: ARG_VALUE, Required: true,
				Help: "Value of the sample, as a number.",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Append a metric sample to an Experiment.

Samples are append only: repeating a (key, step) pair adds another
sample, it overwrites nothing.

Example
-------

Logging a loss value:

	{{ .Command }} exp_20260205_100000 loss 0.5

Logging a loss value at step 10:

	{{ .Command }} exp_20260205_100000 loss 0.5 --step 10
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
		args := cl.Args()
		experimentId := args[ARG_EXPERIMENT_ID][0]
		key := args[ARG_KEY][0]

		value, err := strconv.ParseFloat(args[ARG_VALUE][0], 64)
		if err != nil {
			return fmt.Errorf(
				"%w: VALUE should be a number: %s", flarc.ErrUsage, args[ARG_VALUE][0],
			)
		}

		req := apiexp.LogMetricRequest{Key: key, Value: pointer.Ref(value)}
		if flags := cl.Flags(); flags.Step != "" {
			step, err := strconv.Atoi(flags.Step)
			if err != nil {
				return fmt.Errorf(
					"%w: --step should be an integer: %s", flarc.ErrUsage, flags.Step,
				)
			}
			req.Step = pointer.Ref(step)
		}

		logged, err := client.LogMetric(ctx, experimentId, req)
		if err != nil {
			return err
		}

		logger.Println(logged.Message)
		return nil
	}
}
