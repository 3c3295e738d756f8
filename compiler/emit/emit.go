package emit

import (
	"context"
	"fmt"

	"github.com/slowlang/sched/compiler/cfg"
	"github.com/slowlang/sched/compiler/sched"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// File appends a translation unit with all the scheduled functions.
func File(ctx context.Context, b []byte, name string, ss []*sched.Schedule) (_ []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "emit: file", "name", name, "funcs", len(ss))
	defer tr.Finish("err", &err)

	b = fmt.Appendf(b, "// file %s\n", name)

	for _, s := range ss {
		b, err = Func(ctx, b, s)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", s.Func().Name)
		}
	}

	return b, nil
}

// Func appends function code with blocks in schedule order.
// Labels are only emitted for blocks that need them and jumps
// to the next block are left out.
func Func(ctx context.Context, b []byte, s *sched.Schedule) (_ []byte, err error) {
	f := s.Func()

	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "emit: func", "name", f.Name, "blocks", s.Len())
	defer tr.Finish("err", &err)

	label := func(blk *cfg.Block) string {
		return fmt.Sprintf("L.%v.%v", f.Name, blk)
	}

	// the entry has no label of its own unless something loops back to it
	labeled := func(blk *cfg.Block) bool {
		return s.NeedsLabel(blk) || blk == f.Entry && len(blk.Preds) != 0
	}

	target := func(from, to *cfg.Block) (string, error) {
		if !labeled(to) {
			return "", errors.New("jump from %v to unlabeled block %v", from, to)
		}

		return label(to), nil
	}

	b = fmt.Appendf(b, "\n.global _%v\n.align 4\n_%[1]v:\n\tSTP     FP, LR, [SP, #-16]!\n\tMOV     FP, SP\n", f.Name)

	var jumps, elided int

	for i := 0; i < s.Len(); i++ {
		blk := s.At(i)

		if labeled(blk) {
			b = fmt.Appendf(b, "%v:\n", label(blk))
		}

		switch x := blk.Term.(type) {
		case cfg.B:
			if s.Implicit(blk, x.To) {
				elided++
				break
			}

			l, err := target(blk, x.To)
			if err != nil {
				return nil, err
			}

			b = fmt.Appendf(b, "\tB\t%v\n", l)
			jumps++
		case cfg.BIf:
			t, e := x.Targets()

			cond, err := cond2asm(x.Cond)
			if err != nil {
				return nil, errors.Wrap(err, "block %v", blk)
			}

			ncond, err := cond2asm(cfg.Negate(x.Cond))
			if err != nil {
				return nil, errors.Wrap(err, "block %v", blk)
			}

			switch {
			case t == e && s.Implicit(blk, t):
				elided++
			case t == e:
				l, err := target(blk, t)
				if err != nil {
					return nil, err
				}

				b = fmt.Appendf(b, "\tB\t%v\n", l)
				jumps++
			case s.Implicit(blk, t):
				l, err := target(blk, e)
				if err != nil {
					return nil, err
				}

				b = fmt.Appendf(b, "\tB.%v\t%v\n", ncond, l)
				jumps++
				elided++
			case s.Implicit(blk, e):
				l, err := target(blk, t)
				if err != nil {
					return nil, err
				}

				b = fmt.Appendf(b, "\tB.%v\t%v\n", cond, l)
				jumps++
				elided++
			default:
				lt, err := target(blk, t)
				if err != nil {
					return nil, err
				}

				le, err := target(blk, e)
				if err != nil {
					return nil, err
				}

				b = fmt.Appendf(b, "\tB.%v\t%v\n\tB\t%v\n", cond, lt, le)
				jumps += 2
			}
		case cfg.Switch:
			tab := fmt.Sprintf("T.%v.%v", f.Name, blk)

			b = fmt.Appendf(b, "\tADR\tX16, %v\n\tLDR\tX16, [X16, %v, LSL #3]\n\tBR\tX16\n%[1]v:\n", tab, x.Cond)

			for _, to := range x.Targets {
				l, err := target(blk, to)
				if err != nil {
					return nil, err
				}

				b = fmt.Appendf(b, "\t.quad\t%v\n", l)
			}

			jumps++
		case cfg.Ret:
			b = fmt.Appendf(b, "\tLDP     FP, LR, [SP], #16\n\tRET\n")
		case cfg.Unreachable:
			b = fmt.Appendf(b, "\tBRK\t#0\n")
		default:
			return nil, errors.New("block %v: unsupported terminator: %T", blk, x)
		}
	}

	tr.V("emit").Printw("func emitted", "name", f.Name, "jumps", jumps, "elided", elided)

	return b, nil
}

func cond2asm(cond string) (string, error) {
	switch cond {
	case "<":
		return "LT", nil
	case ">":
		return "GT", nil
	case "<=":
		return "LE", nil
	case ">=":
		return "GE", nil
	case "==":
		return "EQ", nil
	case "!=":
		return "NE", nil
	default:
		return "", errors.New("unsupported cond: %q", cond)
	}
}
