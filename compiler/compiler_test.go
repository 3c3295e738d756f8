package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "f.yaml")

	err := os.WriteFile(name, []byte(`
funcs:
  - name: main
    blocks:
      - {name: entry, bif: {cond: "<", then: a, else: b, inverted: true}}
      - {name: a, b: exit}
      - {name: b, b: exit}
      - {name: exit, ret: true}
`), 0o644)
	require.NoError(t, err)

	ctx := context.Background()

	ss, err := ScheduleFile(ctx, name)
	require.NoError(t, err)
	require.Len(t, ss, 1)

	order := ss[0].Blocks()
	require.Len(t, order, 4)
	assert.Equal(t, []string{"entry", "a", "exit", "b"}, []string{order[0].Name, order[1].Name, order[2].Name, order[3].Name})

	obj, err := CompileFile(ctx, name)
	require.NoError(t, err)

	t.Logf("result:\n%s", obj)

	assert.Contains(t, string(obj), "\tB.GE\tL.main.b\n")
	assert.Contains(t, string(obj), "L.main.exit:\n")
	assert.Contains(t, string(obj), "L.main.b:\n\tB\tL.main.exit\n")
}

func TestCompileFileLoopToEntry(t *testing.T) {
	ctx := context.Background()
	name := filepath.Join(t.TempDir(), "loop.yaml")

	err := os.WriteFile(name, []byte(`
funcs:
  - name: main
    blocks:
      - {name: entry, b: body}
      - {name: body, b: entry}
`), 0o644)
	require.NoError(t, err)

	obj, err := CompileFile(ctx, name)
	require.NoError(t, err)

	assert.Contains(t, string(obj), "MOV     FP, SP\nL.main.entry:\n")
	assert.Contains(t, string(obj), "\tB\tL.main.entry\n")
	assert.NotContains(t, string(obj), "L.main.body:")

	_, err = CompileFile(ctx, filepath.Join(t.TempDir(), "missing.hcl"))
	assert.Error(t, err)
}

func TestCompileFileDeadBranch(t *testing.T) {
	ctx := context.Background()
	name := filepath.Join(t.TempDir(), "dead.yaml")

	err := os.WriteFile(name, []byte(`
funcs:
  - name: main
    blocks:
      - {name: entry, ret: true}
      - {name: dead, bif: {cond: "<", then: entry, else: x}}
      - {name: x, ret: true}
`), 0o644)
	require.NoError(t, err)

	obj, err := CompileFile(ctx, name)
	require.NoError(t, err)

	assert.Contains(t, string(obj), "L.main.entry:\n")
	assert.NotContains(t, string(obj), "L.main.dead")
	assert.NotContains(t, string(obj), "L.main.x")
}
