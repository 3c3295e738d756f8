package cfg

import (
	"fmt"

	"tlog.app/go/tlog/tlwire"
)

type (
	Func struct {
		Name string

		Entry  *Block
		Blocks []*Block // Blocks[i].ID == i
	}

	Block struct {
		ID   int
		Name string

		Preds []*Block
		Succs []*Block

		Term any
	}

	// B is an unconditional branch.
	B struct {
		To *Block
	}

	// BIf branches to Then if Cond holds and to Else otherwise.
	// Inverted blocks store their successors as [Else, Then].
	BIf struct {
		Cond string

		Then, Else *Block

		Inverted bool
	}

	Switch struct {
		Cond    string
		Targets []*Block
	}

	Ret struct{}

	Unreachable struct{}
)

var negate = map[string]string{
	"<":  ">=",
	">":  "<=",
	"<=": ">",
	">=": "<",
	"==": "!=",
	"!=": "==",
}

// Negate returns the opposite branch condition or "" if cond is not known.
func Negate(cond string) string {
	return negate[cond]
}

func NewFunc(name string) *Func {
	return &Func{Name: name}
}

// NewBlock allocates the next block. The first one becomes the entry.
func (f *Func) NewBlock(name string) *Block {
	b := &Block{
		ID:   len(f.Blocks),
		Name: name,
	}

	f.Blocks = append(f.Blocks, b)

	if f.Entry == nil {
		f.Entry = b
	}

	return b
}

// Owns reports whether b was allocated by f.
func (f *Func) Owns(b *Block) bool {
	return b != nil && b.ID >= 0 && b.ID < len(f.Blocks) && f.Blocks[b.ID] == b
}

// SetTerm sets the block terminator and links successors and predecessors
// in the order the terminator declares them.
func (f *Func) SetTerm(b *Block, t any) {
	if !f.Owns(b) {
		panic(fmt.Sprintf("block %v is not in func %v", b, f.Name))
	}

	if b.Term != nil {
		panic(fmt.Sprintf("block %v already terminated: %T", b, b.Term))
	}

	succs := Targets(t)

	for _, s := range succs {
		if !f.Owns(s) {
			panic(fmt.Sprintf("block %v: target %v is not in func %v", b, s, f.Name))
		}
	}

	b.Term = t
	b.Succs = succs

	for _, s := range succs {
		s.Preds = append(s.Preds, b)
	}
}

// Targets returns terminator targets in declared successor order.
func Targets(t any) []*Block {
	switch t := t.(type) {
	case B:
		return []*Block{t.To}
	case BIf:
		if t.Inverted {
			return []*Block{t.Else, t.Then}
		}

		return []*Block{t.Then, t.Else}
	case Switch:
		return append([]*Block{}, t.Targets...)
	case Ret, Unreachable:
		return nil
	default:
		panic(fmt.Sprintf("unsupported terminator: %T", t))
	}
}

// Targets returns the logical true and false targets.
func (x BIf) Targets() (t, f *Block) {
	return x.Then, x.Else
}

func (b *Block) String() string {
	if b == nil {
		return "<nil>"
	}

	if b.Name != "" {
		return b.Name
	}

	return fmt.Sprintf("b%d", b.ID)
}

func (b *Block) TlogAppend(buf []byte) []byte {
	var e tlwire.Encoder

	return e.AppendString(buf, b.String())
}
