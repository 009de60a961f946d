package tricore

import (
	"fmt"
	"strings"

	tricoreasm "github.com/tinyrange/tricore/internal/asm/tricore"
	"github.com/tinyrange/tricore/internal/ir"
)

type baseKind uint8

const (
	baseUnset baseKind = iota
	baseRegister
	baseFrameSlot
)

type symbolKind uint8

const (
	symNone symbolKind = iota
	symGlobal
	symConstantPool
	symExternal
	symJumpTable
)

// addrMode accumulates the pieces of a memory address while matchAddress
// walks an expression tree. It is a plain value: every speculative match
// path works on its own copy, so a failed branch is simply discarded
// instead of undone.
type addrMode struct {
	base       baseKind
	baseReg    *ir.Node // valid when base == baseRegister
	frameIndex int      // valid when base == baseFrameSlot

	disp int64

	sym       symbolKind
	symName   string // symGlobal, symConstantPool, symExternal
	symAlign  int    // symConstantPool
	jumpTable int    // symJumpTable
}

// hasSymbolicDisplacement reports whether a symbolic reference has been
// recorded. At most one may ever be present.
func (am addrMode) hasSymbolicDisplacement() bool { return am.sym != symNone }

// setSymbol records a symbolic reference, refusing to overwrite one that is
// already present. Callers must check the result before relying on the
// mutation having happened.
func (am *addrMode) setSymbol(kind symbolKind, name string) bool {
	if am.sym != symNone {
		return false
	}
	am.sym = kind
	am.symName = name
	return true
}

func (am addrMode) String() string {
	var sb strings.Builder
	sb.WriteString("addrmode{")
	switch am.base {
	case baseRegister:
		fmt.Fprintf(&sb, "base=%s", am.baseReg)
	case baseFrameSlot:
		fmt.Fprintf(&sb, "base=fi#%d", am.frameIndex)
	default:
		sb.WriteString("base=unset")
	}
	fmt.Fprintf(&sb, " disp=%d", am.disp)
	switch am.sym {
	case symGlobal:
		fmt.Fprintf(&sb, " global=%s", am.symName)
	case symConstantPool:
		fmt.Fprintf(&sb, " cp=%s align=%d", am.symName, am.symAlign)
	case symExternal:
		fmt.Fprintf(&sb, " extern=%s", am.symName)
	case symJumpTable:
		fmt.Fprintf(&sb, " jt=%d", am.jumpTable)
	}
	sb.WriteString("}")
	return sb.String()
}

// matchAddress decomposes the address expression rooted at n into am. On
// success it returns the extended mode and true; on failure the caller
// keeps its own copy of the mode and treats the whole expression as
// unmatchable, falling back to the most general encoding. Failure is an
// ordinary outcome here, never an error.
func (s *Selector) matchAddress(n *ir.Node, am addrMode) (addrMode, bool) {
	s.log.Debug("match address", "node", n, "mode", am)

	switch n.Kind() {
	case ir.KindConstant:
		am.disp += n.Value()
		return am, true

	case ir.KindWrapper:
		return s.matchWrapper(n, am)

	case ir.KindFrameIndex:
		if am.base == baseUnset {
			am.base = baseFrameSlot
			am.frameIndex = n.Index()
			return am, true
		}
		return am, false

	case ir.KindAdd:
		if first, ok := s.matchAddress(n.Operand(0), am); ok {
			if both, ok := s.matchAddress(n.Operand(1), first); ok {
				return both, true
			}
		}
		if first, ok := s.matchAddress(n.Operand(1), am); ok {
			if both, ok := s.matchAddress(n.Operand(0), first); ok {
				return both, true
			}
		}
		// Neither order worked; the addition as a whole becomes an opaque
		// base value below.

	case ir.KindOr:
		// X | C selects like X + C when the set bits of C are provably
		// clear in X and the left side carries no symbol.
		if rhs := n.Operand(1); rhs.Kind() == ir.KindConstant {
			mask := uint64(rhs.Value())
			if rhs.Type().Bits() <= 32 {
				mask = uint64(uint32(rhs.Value()))
			}
			if lhs, ok := s.matchAddress(n.Operand(0), am); ok &&
				!lhs.hasSymbolicDisplacement() &&
				ir.MaskedValueIsZero(s.known, n.Operand(0), mask) {
				lhs.disp += rhs.Value()
				return lhs, true
			}
		}
	}

	return matchBase(n, am)
}

// matchWrapper folds a wrapped symbol reference into am. A second symbolic
// displacement can never be matched, so the attempt fails outright when
// one is already present.
func (s *Selector) matchWrapper(n *ir.Node, am addrMode) (addrMode, bool) {
	if am.hasSymbolicDisplacement() {
		s.log.Debug("wrapper rejected, symbolic displacement present", "node", n)
		return am, false
	}

	target := n.Operand(0)
	if target.Kind() == ir.KindGlobalAddress {
		if !am.setSymbol(symGlobal, target.Symbol()) {
			return am, false
		}
		am.disp += target.Offset()
		return am, true
	}

	// Not a symbol shape this selector folds; keep the mode untouched.
	return am, true
}

// matchBase records n as the base value without further recursion. It
// fails when any base, register or frame slot, is already occupied.
func matchBase(n *ir.Node, am addrMode) (addrMode, bool) {
	if am.base != baseUnset {
		return am, false
	}
	am.base = baseRegister
	am.baseReg = n
	return am, true
}

// SelectAddr pattern-matches the maximal addressing mode for the
// expression rooted at n, returning the base and displacement operands for
// the enclosing memory operation. A false result means no specialized form
// applies and the caller must use the most general encoding, a register
// base with a zero offset.
//
// pointerStore reports whether the enclosing store writes a pointer-shaped
// value. The table-driven matcher distinguishes address encodings for
// pointer stores, so the dispatcher threads the flag through each call
// rather than parking it in process-wide state.
func (s *Selector) SelectAddr(n *ir.Node, pointerStore bool) (base, disp tricoreasm.Operand, ok bool) {
	am, ok := s.matchAddress(n, addrMode{})
	if !ok {
		return nil, nil, false
	}
	s.log.Debug("resolved address", "node", n, "mode", am, "pointerStore", pointerStore)

	if am.hasSymbolicDisplacement() {
		// Symbolic addressing is encoded against the symbol itself rather
		// than split into register plus displacement, so the original
		// expression stays the base and the displacement is emitted
		// symbol-relative.
		return n, tricoreasm.Imm(am.disp), true
	}

	switch am.base {
	case baseFrameSlot:
		base = tricoreasm.FrameIndex(am.frameIndex)
	case baseRegister:
		base = am.baseReg
	default:
		base = tricoreasm.Reg(0)
	}
	return base, tricoreasm.Imm(am.disp), true
}
