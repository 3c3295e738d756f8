package sched

import (
	"github.com/slowlang/sched/compiler/cfg"
	"github.com/slowlang/sched/compiler/set"
)

type (
	// Successors decides the order in which a traversal visits block successors.
	// It must not modify the graph.
	Successors interface {
		Successors(b *cfg.Block) []*cfg.Block
	}

	SuccessorsFunc func(b *cfg.Block) []*cfg.Block

	natural  struct{}
	invertIf struct{}
)

var (
	// Natural visits successors in declared order.
	Natural Successors = natural{}

	// InvertIf is Natural except for inverted BIf blocks,
	// whose successors are visited in reverse, true target first.
	InvertIf Successors = invertIf{}
)

func (f SuccessorsFunc) Successors(b *cfg.Block) []*cfg.Block { return f(b) }

func (natural) Successors(b *cfg.Block) []*cfg.Block { return b.Succs }

func (invertIf) Successors(b *cfg.Block) []*cfg.Block {
	x, ok := b.Term.(cfg.BIf)
	if !ok || !x.Inverted {
		return b.Succs
	}

	r := make([]*cfg.Block, len(b.Succs))

	for i, s := range b.Succs {
		r[len(r)-1-i] = s
	}

	return r
}

// PreOrder walks the graph depth first from entry and returns blocks
// in the order they are first reached. Each block appears once.
func PreOrder(entry *cfg.Block, succ Successors) []*cfg.Block {
	if entry == nil {
		return nil
	}

	if succ == nil {
		succ = Natural
	}

	var visited set.Bitmap
	var order []*cfg.Block

	stack := []*cfg.Block{entry}

	for len(stack) != 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !visited.Add(b.ID) {
			continue
		}

		order = append(order, b)

		next := succ.Successors(b)

		// reversed so the first successor is popped first
		for i := len(next) - 1; i >= 0; i-- {
			if !visited.IsSet(next[i].ID) {
				stack = append(stack, next[i])
			}
		}
	}

	return order
}
