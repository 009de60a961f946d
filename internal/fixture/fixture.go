// Package fixture loads expression-tree descriptions from YAML files so
// selection behavior can be exercised from the command line without a full
// compiler front end.
package fixture

import (
	"fmt"
	"os"

	"github.com/tinyrange/tricore/internal/ir"
	"gopkg.in/yaml.v3"
)

// File is one fixture file: a named collection of expression trees plus an
// optional known-bits assumption shared by all of them.
type File struct {
	Name string `yaml:"name"`
	// KnownZero, when non-zero, is the bit mask assumed provably clear in
	// every non-constant value. It feeds the known-bits oracle that enables
	// the OR-as-ADD address rewrite.
	KnownZero uint64 `yaml:"known_zero"`
	Trees     []Tree `yaml:"trees"`
}

// Tree is a single rooted expression with instructions for how to drive
// selection over it.
type Tree struct {
	Name string `yaml:"name"`
	// Addr selects the tree as a memory address instead of lowering each
	// node.
	Addr bool `yaml:"addr"`
	// PointerStore marks the address as belonging to a pointer store.
	PointerStore bool     `yaml:"pointer_store"`
	Node         NodeSpec `yaml:"node"`
}

// NodeSpec describes one node. Only the fields meaningful for the kind need
// to be present.
type NodeSpec struct {
	Kind     string     `yaml:"kind"`
	Type     string     `yaml:"type"`
	Value    int64      `yaml:"value"`
	Index    int        `yaml:"index"`
	Symbol   string     `yaml:"symbol"`
	Offset   int64      `yaml:"offset"`
	Align    int        `yaml:"align"`
	Operands []NodeSpec `yaml:"operands"`
}

// Load reads and validates a fixture file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture file: %w", err)
	}
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("fixture %s declares no trees", path)
	}
	return &f, nil
}

var binaryKinds = map[string]ir.Kind{
	"add": ir.KindAdd,
	"sub": ir.KindSub,
	"mul": ir.KindMul,
	"or":  ir.KindOr,
	"and": ir.KindAnd,
	"shl": ir.KindShl,
}

var typesByName = map[string]ir.Type{
	"i8":  ir.I8,
	"i16": ir.I16,
	"i32": ir.I32,
	"i64": ir.I64,
	"ptr": ir.Ptr,
}

func (s NodeSpec) nodeType(def ir.Type) (ir.Type, error) {
	if s.Type == "" {
		return def, nil
	}
	typ, ok := typesByName[s.Type]
	if !ok {
		return ir.Type{}, fmt.Errorf("unknown type %q", s.Type)
	}
	return typ, nil
}

func (s NodeSpec) operands(want int) error {
	if len(s.Operands) != want {
		return fmt.Errorf("%s takes %d operands, got %d", s.Kind, want, len(s.Operands))
	}
	return nil
}

// Build constructs the expression tree the spec describes.
func (s NodeSpec) Build() (*ir.Node, error) {
	if kind, ok := binaryKinds[s.Kind]; ok {
		if err := s.operands(2); err != nil {
			return nil, err
		}
		left, err := s.Operands[0].Build()
		if err != nil {
			return nil, err
		}
		right, err := s.Operands[1].Build()
		if err != nil {
			return nil, err
		}
		return ir.NewBinary(kind, left, right), nil
	}

	switch s.Kind {
	case "constant":
		typ, err := s.nodeType(ir.I32)
		if err != nil {
			return nil, err
		}
		return ir.NewConstant(s.Value, typ), nil

	case "frameindex":
		return ir.NewFrameIndex(s.Index), nil

	case "wrapper":
		if err := s.operands(1); err != nil {
			return nil, err
		}
		target, err := s.Operands[0].Build()
		if err != nil {
			return nil, err
		}
		return ir.NewWrapper(target), nil

	case "globaladdress":
		if s.Symbol == "" {
			return nil, fmt.Errorf("globaladdress requires a symbol")
		}
		return ir.NewGlobalAddress(s.Symbol, s.Offset), nil

	case "externalsymbol":
		if s.Symbol == "" {
			return nil, fmt.Errorf("externalsymbol requires a symbol")
		}
		return ir.NewExternalSymbol(s.Symbol), nil

	case "constantpool":
		return ir.NewConstantPool(s.Symbol, s.Align), nil

	case "jumptable":
		return ir.NewJumpTable(s.Index), nil

	case "register":
		typ, err := s.nodeType(ir.Ptr)
		if err != nil {
			return nil, err
		}
		return ir.NewRegister(s.Index, typ), nil

	case "load":
		if err := s.operands(1); err != nil {
			return nil, err
		}
		addr, err := s.Operands[0].Build()
		if err != nil {
			return nil, err
		}
		typ, err := s.nodeType(ir.I32)
		if err != nil {
			return nil, err
		}
		return ir.NewLoad(addr, typ), nil

	case "store":
		if err := s.operands(2); err != nil {
			return nil, err
		}
		value, err := s.Operands[0].Build()
		if err != nil {
			return nil, err
		}
		addr, err := s.Operands[1].Build()
		if err != nil {
			return nil, err
		}
		return ir.NewStore(value, addr), nil

	case "":
		return nil, fmt.Errorf("node is missing a kind")

	default:
		return nil, fmt.Errorf("unknown node kind %q", s.Kind)
	}
}
