package health

import (
	"context"
	"encoding/json"
	"log"

	"github.com/mlopslab/mlreg/cmd/mlreg/subcommands/common"
	krst "github.com/mlopslab/mlreg/pkg/sdk/rest"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Ask the registry for its liveness.",
		struct{}{},
		flarc.Args{},
		common.NewTask(Task()),
		flarc.WithDescription(`
Ask the registry for its liveness and show the answer as JSON.

Example
-------

	{{ .Command }}
	{{ .Command }} --registry http://registry.example.com:5000
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
		health, err := client.Health(ctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(health); err != nil {
			return err
		}
		return nil
	}
}
