package tricore

import (
	"fmt"
	"log/slog"

	tricoreasm "github.com/tinyrange/tricore/internal/asm/tricore"
	"github.com/tinyrange/tricore/internal/ir"
)

// Matcher is the table-generated pattern matcher covering the target's
// full instruction catalogue. The selector hands it every node and every
// address or constant shape the specialized paths do not cover.
type Matcher interface {
	// Match lowers n. The addr callback resolves addressing operands for
	// memory patterns encountered while matching n.
	Match(n *ir.Node, addr AddrResolver) ([]tricoreasm.Operation, error)
}

// AddrResolver resolves addressing operands on behalf of the generic
// matcher while it lowers a single node.
type AddrResolver interface {
	// ResolveAddr decomposes the address expression into base and
	// displacement operands. A false result means no specialized form
	// applies and the matcher must use a register base with zero offset.
	ResolveAddr(addr *ir.Node) (base, disp tricoreasm.Operand, ok bool)
	// PointerStore reports whether the node being matched is a store of a
	// pointer-shaped address operand. Address encodings differ for those,
	// and the flag is scoped to the current Match call.
	PointerStore() bool
}

// SelectorConfig wires a Selector's collaborators.
type SelectorConfig struct {
	// Matcher is the table-driven fallback used for everything the
	// specialized paths do not cover. Required.
	Matcher Matcher
	// KnownBits enables rewriting OR with a disjoint constant into ADD
	// while matching addresses. Optional; without it the rewrite never
	// fires.
	KnownBits ir.KnownBits
	// Logger receives debug traces of intermediate selection state.
	// Optional; defaults to slog.Default().
	Logger *slog.Logger
}

// Selector performs the TriCore-specific portion of instruction selection:
// constant materialization, frame-reference rewriting, and address-mode
// resolution. It holds no per-node state; each Select call is a pure
// function of the input subtree and the known-bits oracle.
type Selector struct {
	generic Matcher
	known   ir.KnownBits
	log     *slog.Logger
}

func NewSelector(cfg SelectorConfig) (*Selector, error) {
	if cfg.Matcher == nil {
		return nil, fmt.Errorf("tricore: selector requires a generic matcher")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Selector{
		generic: cfg.Matcher,
		known:   cfg.KnownBits,
		log:     log,
	}, nil
}

// Name identifies the pass in diagnostics.
func (s *Selector) Name() string {
	return "tricore pattern instruction selection"
}

// Selected reports how one node was lowered.
type Selected struct {
	// Ops is the ordered operation sequence; the final operation defines
	// the node's value.
	Ops []tricoreasm.Operation
	// Reused reports that the node was rewritten in place rather than a
	// fresh operation being allocated. Only single-use frame references
	// select this way.
	Reused bool
}

// Select lowers one node. The traversal driver invokes it exactly once per
// node, in post-order, for one function at a time.
func (s *Selector) Select(n *ir.Node) (Selected, error) {
	if n == nil {
		return Selected{}, fmt.Errorf("tricore: cannot select nil node")
	}
	s.log.Debug("selecting", "node", n)

	switch n.Kind() {
	case ir.KindConstant:
		if ops := s.SelectConstant(n); ops != nil {
			return Selected{Ops: ops}, nil
		}
		return s.fallback(n, false)

	case ir.KindFrameIndex:
		// Frame references lower to ADDrc fi, #0. A single-use node is
		// rewritten in place; a shared one gets a fresh operation so the
		// other users keep their value.
		op := tricoreasm.NewOperation(tricoreasm.ADDrc,
			tricoreasm.FrameIndex(n.Index()), tricoreasm.Imm(0))
		return Selected{
			Ops:    []tricoreasm.Operation{op},
			Reused: n.HasOneUse(),
		}, nil

	case ir.KindStore:
		// Operand 1 is the address. Whether it is pointer-shaped changes
		// how the matcher encodes the access, so the flag travels with
		// this one call instead of living in process-wide state.
		return s.fallback(n, n.Operand(1).Type().Pointer())

	default:
		return s.fallback(n, false)
	}
}

func (s *Selector) fallback(n *ir.Node, pointerStore bool) (Selected, error) {
	ops, err := s.generic.Match(n, addrResolver{sel: s, pointerStore: pointerStore})
	if err != nil {
		return Selected{}, fmt.Errorf("tricore: generic match %s: %w", n.Kind(), err)
	}
	return Selected{Ops: ops}, nil
}

// addrResolver binds the per-store pointer flag to the resolution calls the
// generic matcher makes while lowering one node.
type addrResolver struct {
	sel          *Selector
	pointerStore bool
}

func (r addrResolver) ResolveAddr(addr *ir.Node) (tricoreasm.Operand, tricoreasm.Operand, bool) {
	return r.sel.SelectAddr(addr, r.pointerStore)
}

func (r addrResolver) PointerStore() bool { return r.pointerStore }
