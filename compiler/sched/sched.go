package sched

import (
	"context"
	"fmt"

	"github.com/slowlang/sched/compiler/cfg"
	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"
)

type (
	// Schedule is a linear block order of one function.
	// It is immutable once built and safe for concurrent use.
	Schedule struct {
		f *cfg.Func

		blocks []*cfg.Block
		rank   []int // block ID -> rank, -1 if not scheduled
	}

	// UnknownBlockError is the panic value of queries about blocks
	// the schedule was not built from.
	UnknownBlockError struct {
		Block *cfg.Block
		From  loc.PC
	}
)

var ErrNoEntry = errors.New("no entry block")

// New traverses f from its entry and schedules blocks in pre-order,
// visiting true targets of inverted branches first.
// Blocks unreachable from the entry are left out.
func New(ctx context.Context, f *cfg.Func) (s *Schedule, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "sched: new", "func", f.Name, "blocks", len(f.Blocks))
	defer tr.Finish("err", &err)

	if f.Entry == nil {
		return nil, ErrNoEntry
	}

	order := PreOrder(f.Entry, InvertIf)

	return build(ctx, f, order)
}

// Use schedules blocks in the given order without traversing the graph.
// The order must start with the entry block.
func Use(ctx context.Context, f *cfg.Func, order []*cfg.Block) (s *Schedule, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "sched: use", "func", f.Name, "blocks", len(order))
	defer tr.Finish("err", &err)

	return build(ctx, f, append([]*cfg.Block{}, order...))
}

func build(ctx context.Context, f *cfg.Func, order []*cfg.Block) (*Schedule, error) {
	tr := tlog.SpanFromContext(ctx)

	if f.Entry == nil || len(order) == 0 {
		return nil, ErrNoEntry
	}

	if order[0] != f.Entry {
		return nil, errors.New("disconnected entry: schedule starts with %v, entry is %v", order[0], f.Entry)
	}

	s := &Schedule{
		f:      f,
		blocks: order,
		rank:   make([]int, len(f.Blocks)),
	}

	for i := range s.rank {
		s.rank[i] = -1
	}

	for i, b := range order {
		if !f.Owns(b) {
			return nil, errors.New("block %v at %d is not in func %v", b, i, f.Name)
		}

		if r := s.rank[b.ID]; r >= 0 {
			return nil, errors.New("duplicate block %v at %d and %d", b, r, i)
		}

		s.rank[b.ID] = i
	}

	for i, b := range order {
		// the entry is laid out first whatever jumps to it
		if i == 0 || len(b.Preds) != 1 {
			continue
		}

		p := b.Preds[0]

		if _, ok := p.Term.(cfg.B); !ok {
			continue
		}

		r, ok := s.lookup(p)
		if !ok {
			continue
		}

		if r+1 != i {
			return nil, errors.New("block %v at %d: unconditional predecessor %v at %d is not laid out right before it", b, i, p, r)
		}
	}

	if tr.If("dump_sched") {
		for i, b := range order {
			tr.Printw("block", "rank", i, "block", b, "preds", len(b.Preds), "succs", len(b.Succs), "term", tlog.NextAsType, b.Term)
		}
	}

	tr.V("sched").Printw("scheduled", "func", f.Name, "order", s)

	return s, nil
}

// Func returns the function the schedule was built for.
func (s *Schedule) Func() *cfg.Func { return s.f }

func (s *Schedule) Len() int { return len(s.blocks) }

func (s *Schedule) At(i int) *cfg.Block { return s.blocks[i] }

// Blocks returns a copy of the block order.
func (s *Schedule) Blocks() []*cfg.Block {
	return append([]*cfg.Block{}, s.blocks...)
}

// Range calls f for each block in emission order until f returns false.
func (s *Schedule) Range(f func(i int, b *cfg.Block) bool) {
	for i, b := range s.blocks {
		if !f(i, b) {
			return
		}
	}
}

// Next returns the block laid out right after b or nil if b is the last one.
func (s *Schedule) Next(b *cfg.Block) *cfg.Block {
	r := s.mustRank(b, 2) + 1

	if r == len(s.blocks) {
		return nil
	}

	return s.blocks[r]
}

func (s *Schedule) Contains(b *cfg.Block) bool {
	_, ok := s.lookup(b)
	return ok
}

// Rank returns the position of b in the schedule.
// It panics with *UnknownBlockError if b is not scheduled.
func (s *Schedule) Rank(b *cfg.Block) int {
	return s.mustRank(b, 2)
}

// Implicit reports whether control can fall through from src to dst.
func (s *Schedule) Implicit(src, dst *cfg.Block) bool {
	return s.mustRank(dst, 2) == s.mustRank(src, 2)+1
}

// NeedsLabel reports whether b can be the target of an explicit jump
// and so must be addressable.
func (s *Schedule) NeedsLabel(b *cfg.Block) bool {
	r := s.mustRank(b, 2)

	switch len(b.Preds) {
	case 0:
		return false
	case 1:
	default:
		return true // at most one of them falls through
	}

	p := b.Preds[0]

	switch x := p.Term.(type) {
	case cfg.BIf:
		t, _ := x.Targets()

		pr, ok := s.lookup(p)

		return b != t || !ok || pr+1 != r
	case cfg.B:
		return false // adjacency is checked at build time
	default:
		return true // switch tables address their targets
	}
}

func (s *Schedule) lookup(b *cfg.Block) (int, bool) {
	if !s.f.Owns(b) {
		return -1, false
	}

	r := s.rank[b.ID]

	return r, r >= 0
}

func (s *Schedule) mustRank(b *cfg.Block, skip int) int {
	r, ok := s.lookup(b)
	if !ok {
		panic(&UnknownBlockError{Block: b, From: loc.Caller(skip)})
	}

	return r
}

func (s *Schedule) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendTag(b, tlwire.Array, len(s.blocks))

	for _, blk := range s.blocks {
		b = e.AppendString(b, blk.String())
	}

	return b
}

func (e *UnknownBlockError) Error() string {
	return fmt.Sprintf("unknown block %v (queried at %v)", e.Block, e.From)
}
