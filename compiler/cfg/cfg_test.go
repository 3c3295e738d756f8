package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTerm(t *testing.T) {
	f := NewFunc("f")

	x := f.NewBlock("x")
	y := f.NewBlock("y")
	z := f.NewBlock("z")

	require.Equal(t, x, f.Entry)

	f.SetTerm(x, BIf{Cond: "<", Then: y, Else: z})
	f.SetTerm(y, B{To: z})
	f.SetTerm(z, Ret{})

	assert.Equal(t, []*Block{y, z}, x.Succs)
	assert.Equal(t, []*Block{x}, y.Preds)
	assert.Equal(t, []*Block{x, y}, z.Preds)
	assert.Empty(t, z.Succs)
}

func TestSetTermInverted(t *testing.T) {
	f := NewFunc("f")

	x := f.NewBlock("x")
	y := f.NewBlock("y")
	z := f.NewBlock("z")

	br := BIf{Cond: "==", Then: y, Else: z, Inverted: true}
	f.SetTerm(x, br)

	assert.Equal(t, []*Block{z, y}, x.Succs)

	tt, ff := br.Targets()
	assert.Equal(t, y, tt)
	assert.Equal(t, z, ff)
}

func TestSetTermSwitchAliases(t *testing.T) {
	f := NewFunc("f")

	s := f.NewBlock("s")
	a := f.NewBlock("a")
	b := f.NewBlock("b")

	f.SetTerm(s, Switch{Cond: "x", Targets: []*Block{a, b, a}})

	assert.Equal(t, []*Block{a, b, a}, s.Succs)
	assert.Equal(t, []*Block{s, s}, a.Preds)
	assert.Equal(t, []*Block{s}, b.Preds)
}

func TestSetTermPanics(t *testing.T) {
	f := NewFunc("f")
	g := NewFunc("g")

	a := f.NewBlock("a")
	foreign := g.NewBlock("foreign")

	assert.Panics(t, func() { f.SetTerm(foreign, Ret{}) })
	assert.Panics(t, func() { f.SetTerm(a, B{To: foreign}) })
	assert.Nil(t, a.Term)

	f.SetTerm(a, Ret{})

	assert.Panics(t, func() { f.SetTerm(a, Unreachable{}) })
	assert.Panics(t, func() { Targets(42) })
}

func TestBlockString(t *testing.T) {
	f := NewFunc("f")

	assert.Equal(t, "entry", f.NewBlock("entry").String())
	assert.Equal(t, "b1", f.NewBlock("").String())

	var b *Block
	assert.Equal(t, "<nil>", b.String())
}

func TestNegate(t *testing.T) {
	for _, c := range []string{"<", ">", "<=", ">=", "==", "!="} {
		n := Negate(c)

		assert.NotEmpty(t, n, c)
		assert.NotEqual(t, c, n)
		assert.Equal(t, c, Negate(n))
	}

	assert.Empty(t, Negate("~"))
}
