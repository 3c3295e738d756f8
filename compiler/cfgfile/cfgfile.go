package cfgfile

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/slowlang/sched/compiler/cfg"
	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	File struct {
		Funcs []Func `yaml:"funcs" hcl:"func,block"`
	}

	Func struct {
		Name   string  `yaml:"name" hcl:"name,label"`
		Entry  string  `yaml:"entry,omitempty" hcl:"entry,optional"`
		Blocks []Block `yaml:"blocks" hcl:"block,block"`
	}

	// Block has exactly one terminator set.
	Block struct {
		Name string `yaml:"name" hcl:"name,label"`

		B           string  `yaml:"b,omitempty" hcl:"b,optional"`
		BIf         *BIf    `yaml:"bif,omitempty" hcl:"bif,block"`
		Switch      *Switch `yaml:"switch,omitempty" hcl:"switch,block"`
		Ret         bool    `yaml:"ret,omitempty" hcl:"ret,optional"`
		Unreachable bool    `yaml:"unreachable,omitempty" hcl:"unreachable,optional"`
	}

	BIf struct {
		Cond     string `yaml:"cond,omitempty" hcl:"cond,optional"`
		Then     string `yaml:"then" hcl:"then"`
		Else     string `yaml:"else" hcl:"else"`
		Inverted bool   `yaml:"inverted,omitempty" hcl:"inverted,optional"`
	}

	Switch struct {
		Cond    string   `yaml:"cond,omitempty" hcl:"cond,optional"`
		Targets []string `yaml:"targets" hcl:"targets"`
	}
)

const (
	DefaultCond       = "!="
	DefaultSwitchCond = "X0"
)

// Load reads a description file and builds its functions.
// The format is chosen by extension: .yaml, .yml or .hcl.
func Load(ctx context.Context, name string) (fs []*cfg.Func, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "cfgfile: load", "name", name)
	defer tr.Finish("err", &err)

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tr.Printw("read file", "size", len(data), "name", name)

	var f *File

	switch ext := filepath.Ext(name); ext {
	case ".yaml", ".yml":
		f, err = ParseYAML(data)
	case ".hcl":
		f, err = ParseHCL(name, data)
	default:
		return nil, errors.New("unsupported file extension: %q", ext)
	}
	if err != nil {
		return nil, errors.Wrap(err, "parse %v", name)
	}

	return Build(ctx, f)
}

func ParseYAML(data []byte) (*File, error) {
	d := yaml.NewDecoder(bytes.NewReader(data))
	d.KnownFields(true)

	var f File

	err := d.Decode(&f)
	if err == io.EOF {
		return nil, errors.New("empty description")
	}
	if err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}

	return &f, nil
}

func ParseHCL(name string, data []byte) (*File, error) {
	p := hclparse.NewParser()

	hf, diags := p.ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, errors.Wrap(diags, "parse hcl")
	}

	var f File

	diags = gohcl.DecodeBody(hf.Body, nil, &f)
	if diags.HasErrors() {
		return nil, errors.Wrap(diags, "decode hcl")
	}

	return &f, nil
}

// Build converts descriptions into functions with linked blocks.
func Build(ctx context.Context, f *File) (fs []*cfg.Func, err error) {
	tr := tlog.SpanFromContext(ctx)

	seen := map[string]struct{}{}

	for _, d := range f.Funcs {
		if _, ok := seen[d.Name]; ok {
			return nil, errors.New("duplicate func %q", d.Name)
		}

		seen[d.Name] = struct{}{}

		fn, err := buildFunc(d)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", d.Name)
		}

		tr.V("cfgfile").Printw("func", "name", fn.Name, "blocks", len(fn.Blocks), "entry", fn.Entry)

		fs = append(fs, fn)
	}

	return fs, nil
}

func buildFunc(d Func) (*cfg.Func, error) {
	if d.Name == "" {
		return nil, errors.New("no name")
	}

	if len(d.Blocks) == 0 {
		return nil, errors.New("no blocks")
	}

	f := cfg.NewFunc(d.Name)
	byName := make(map[string]*cfg.Block, len(d.Blocks))

	for _, bd := range d.Blocks {
		if bd.Name == "" {
			return nil, errors.New("block %d: no name", len(f.Blocks))
		}

		if _, ok := byName[bd.Name]; ok {
			return nil, errors.New("duplicate block %q", bd.Name)
		}

		byName[bd.Name] = f.NewBlock(bd.Name)
	}

	if d.Entry != "" {
		e, ok := byName[d.Entry]
		if !ok {
			return nil, errors.New("entry: unknown block %q", d.Entry)
		}

		f.Entry = e
	}

	ref := func(name string) (*cfg.Block, error) {
		b, ok := byName[name]
		if !ok {
			return nil, errors.New("unknown block %q", name)
		}

		return b, nil
	}

	for i, bd := range d.Blocks {
		t, err := term(bd, ref)
		if err != nil {
			return nil, errors.Wrap(err, "block %v", bd.Name)
		}

		f.SetTerm(f.Blocks[i], t)
	}

	return f, nil
}

func term(bd Block, ref func(string) (*cfg.Block, error)) (t any, err error) {
	n := 0

	if bd.B != "" {
		n++

		to, err := ref(bd.B)
		if err != nil {
			return nil, errors.Wrap(err, "b")
		}

		t = cfg.B{To: to}
	}

	if x := bd.BIf; x != nil {
		n++

		cond := x.Cond
		if cond == "" {
			cond = DefaultCond
		}

		if cfg.Negate(cond) == "" {
			return nil, errors.New("bif: unsupported cond %q", x.Cond)
		}

		then, err := ref(x.Then)
		if err != nil {
			return nil, errors.Wrap(err, "bif then")
		}

		els, err := ref(x.Else)
		if err != nil {
			return nil, errors.Wrap(err, "bif else")
		}

		t = cfg.BIf{Cond: cond, Then: then, Else: els, Inverted: x.Inverted}
	}

	if x := bd.Switch; x != nil {
		n++

		if len(x.Targets) == 0 {
			return nil, errors.New("switch: no targets")
		}

		sw := cfg.Switch{Cond: x.Cond}
		if sw.Cond == "" {
			sw.Cond = DefaultSwitchCond
		}

		for i, name := range x.Targets {
			b, err := ref(name)
			if err != nil {
				return nil, errors.Wrap(err, "switch target %d", i)
			}

			sw.Targets = append(sw.Targets, b)
		}

		t = sw
	}

	if bd.Ret {
		n++
		t = cfg.Ret{}
	}

	if bd.Unreachable {
		n++
		t = cfg.Unreachable{}
	}

	switch n {
	case 1:
		return t, nil
	case 0:
		return nil, errors.New("no terminator")
	default:
		return nil, errors.New("%d terminators", n)
	}
}
