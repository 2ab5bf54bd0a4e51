package common

import (
	"context"
	"errors"
	"fmt"
	"log"

	krst "github.com/mlopslab/mlreg/pkg/sdk/rest"
	"github.com/youta-t/flarc"
)

// CommonFlags are the flags of the mlreg command group, shared by every
// subcommand.
type CommonFlags struct {
	Registry string `flag:"registry" metavar:"URL" help:"registry base URL. Defaults to MLREG_BASE_URL, then http://localhost:5000."`
}

type Task[T any] func(
	ctx context.Context,
	logger *log.Logger,
	client krst.Client,
	cl flarc.Commandline[T],
	params []any,
) error

// NewTask adapts a Task to flarc: it digs CommonFlags out of the positional
// params flarc hands down from the command group, builds the registry client
// and a logger bound to stderr, and delegates.
func NewTask[T any](task Task[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		newpos := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				commonFlag = v
			default:
				newpos = append(newpos, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		logger := log.New(cl.Stderr(), "", log.LstdFlags)
		logger.SetPrefix(fmt.Sprintf("[%s] ", cl.Fullname()))

		client := krst.NewClient(commonFlag.Registry)

		return task(ctx, logger, client, cl, newpos)
	}
}
