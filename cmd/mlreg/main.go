package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/mlopslab/mlreg/cmd/mlreg/subcommands/common"
	subfind "github.com/mlopslab/mlreg/cmd/mlreg/subcommands/find"
	subhealth "github.com/mlopslab/mlreg/cmd/mlreg/subcommands/health"
	"github.com/mlopslab/mlreg/cmd/mlreg/subcommands/logger"
	submetric "github.com/mlopslab/mlreg/cmd/mlreg/subcommands/metric"
	subshow "github.com/mlopslab/mlreg/cmd/mlreg/subcommands/show"
	subver "github.com/mlopslab/mlreg/cmd/mlreg/subcommands/version"
	"github.com/mlopslab/mlreg/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func main() {
	name := path.Base(os.Args[0])
	logger := logger.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	show := try.To(subshow.New()).OrFatal(logger)
	find := try.To(subfind.New()).OrFatal(logger)
	metric := try.To(submetric.New()).OrFatal(logger)
	health := try.To(subhealth.New()).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	mlreg := try.To(
		flarc.NewCommandGroup(
			"MLReg Commandline interface",
			common.CommonFlags{},
			flarc.WithSubcommand("show", show),
			flarc.WithSubcommand("find", find),
			flarc.WithSubcommand("metric", metric),
			flarc.WithSubcommand("health", health),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, mlreg, flarc.WithHelp(true)))
}
