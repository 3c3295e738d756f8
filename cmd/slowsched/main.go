package main

import (
	"context"
	"fmt"
	"os"

	"github.com/slowlang/sched/compiler"
	"github.com/slowlang/sched/compiler/cfg"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

func main() {
	orderCmd := &cli.Command{
		Name:        "order",
		Description: "print block schedule of each function",
		Action:      orderAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("v", "", "tlog verbosity topics"),
		},
	}

	emitCmd := &cli.Command{
		Name:        "emit",
		Description: "print pseudo assembly laid out by the block schedule",
		Action:      emitAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("v", "", "tlog verbosity topics"),
		},
	}

	app := &cli.Command{
		Name:        "slowsched",
		Description: "slowsched lays out basic blocks of control flow graphs",
		Commands: []*cli.Command{
			orderCmd,
			emitCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func orderAct(c *cli.Command) (err error) {
	ctx := setup(c)

	for _, a := range c.Args {
		ss, err := compiler.ScheduleFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "order %v", a)
		}

		for _, s := range ss {
			fmt.Printf("%s:\n", s.Func().Name)

			s.Range(func(i int, b *cfg.Block) bool {
				fmt.Printf("	%3d  %-12v  preds %d  label %v\n", i, b, len(b.Preds), s.NeedsLabel(b))

				return true
			})
		}
	}

	return nil
}

func emitAct(c *cli.Command) (err error) {
	ctx := setup(c)

	for _, a := range c.Args {
		obj, err := compiler.CompileFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "emit %v", a)
		}

		fmt.Printf("%s", obj)
	}

	return nil
}

func setup(c *cli.Command) context.Context {
	if v := c.String("v"); v != "" {
		tlog.SetVerbosity(v)
	}

	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	return ctx
}
