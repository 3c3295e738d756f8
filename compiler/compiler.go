package compiler

import (
	"context"

	"github.com/slowlang/sched/compiler/cfg"
	"github.com/slowlang/sched/compiler/cfgfile"
	"github.com/slowlang/sched/compiler/emit"
	"github.com/slowlang/sched/compiler/sched"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// CompileFile loads a description file, schedules its functions and emits code.
func CompileFile(ctx context.Context, name string) (obj []byte, err error) {
	ss, err := ScheduleFile(ctx, name)
	if err != nil {
		return nil, err
	}

	obj, err = emit.File(ctx, nil, name, ss)
	if err != nil {
		return nil, errors.Wrap(err, "emit")
	}

	return obj, nil
}

func ScheduleFile(ctx context.Context, name string) ([]*sched.Schedule, error) {
	fs, err := cfgfile.Load(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "load")
	}

	tlog.SpanFromContext(ctx).Printw("loaded file", "funcs", len(fs), "name", name)

	return Schedule(ctx, fs)
}

func Schedule(ctx context.Context, fs []*cfg.Func) (ss []*sched.Schedule, err error) {
	for _, f := range fs {
		s, err := sched.New(ctx, f)
		if err != nil {
			return nil, errors.Wrap(err, "schedule %v", f.Name)
		}

		ss = append(ss, s)
	}

	return ss, nil
}
