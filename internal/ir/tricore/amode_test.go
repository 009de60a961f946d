package tricore

import (
	"testing"

	tricoreasm "github.com/tinyrange/tricore/internal/asm/tricore"
	"github.com/tinyrange/tricore/internal/ir"
)

// fixedKnownBits answers the known-zero-bits query with a canned mask for
// every node.
type fixedKnownBits struct {
	zeros uint64
}

func (f fixedKnownBits) KnownZeroBits(n *ir.Node) uint64 { return f.zeros }

func opaqueValue() *ir.Node {
	return ir.NewRegister(4, ir.Ptr)
}

func TestSelectAddrRegisterBase(t *testing.T) {
	sel := newTestSelector(t, nil, nil)
	reg := opaqueValue()

	base, disp, ok := sel.SelectAddr(reg, false)
	if !ok {
		t.Fatalf("expected register base to match")
	}
	if base != tricoreasm.Operand(reg) {
		t.Fatalf("base = %v, want the register node", base)
	}
	if disp != tricoreasm.Imm(0) {
		t.Fatalf("disp = %v, want #0", disp)
	}
}

func TestSelectAddrConstantOnly(t *testing.T) {
	sel := newTestSelector(t, nil, nil)

	base, disp, ok := sel.SelectAddr(ir.NewConstant(16, ir.I32), false)
	if !ok {
		t.Fatalf("expected constant address to match")
	}
	if base != tricoreasm.Operand(tricoreasm.Reg(0)) {
		t.Fatalf("base = %v, want the zero register placeholder", base)
	}
	if disp != tricoreasm.Imm(16) {
		t.Fatalf("disp = %v, want #16", disp)
	}
}

func TestSelectAddrRegisterPlusConstant(t *testing.T) {
	sel := newTestSelector(t, nil, nil)
	reg := opaqueValue()
	offset := ir.NewConstant(24, ir.I32)

	for name, addr := range map[string]*ir.Node{
		"reg+const": ir.NewBinary(ir.KindAdd, reg, offset),
		"const+reg": ir.NewBinary(ir.KindAdd, ir.NewConstant(24, ir.I32), opaqueValue()),
	} {
		base, disp, ok := sel.SelectAddr(addr, false)
		if !ok {
			t.Fatalf("%s: expected match", name)
		}
		if _, isNode := base.(*ir.Node); !isNode {
			t.Fatalf("%s: base = %v, want a register node", name, base)
		}
		if disp != tricoreasm.Imm(24) {
			t.Fatalf("%s: disp = %v, want #24", name, disp)
		}
	}
}

func TestSelectAddrFrameIndex(t *testing.T) {
	sel := newTestSelector(t, nil, nil)
	addr := ir.NewBinary(ir.KindAdd, ir.NewFrameIndex(3), ir.NewConstant(8, ir.I32))

	base, disp, ok := sel.SelectAddr(addr, false)
	if !ok {
		t.Fatalf("expected frame address to match")
	}
	if base != tricoreasm.Operand(tricoreasm.FrameIndex(3)) {
		t.Fatalf("base = %v, want fi#3", base)
	}
	if disp != tricoreasm.Imm(8) {
		t.Fatalf("disp = %v, want #8", disp)
	}
}

func TestMatchAddressFramePlusRegister(t *testing.T) {
	sel := newTestSelector(t, nil, nil)
	reg := opaqueValue()
	fi := ir.NewFrameIndex(5)

	// There is only one base slot. A frame slot and a register cannot both
	// occupy it, so either operand order fails and the whole addition
	// becomes the base value.
	for name, addr := range map[string]*ir.Node{
		"fi+reg": ir.NewBinary(ir.KindAdd, fi, reg),
		"reg+fi": ir.NewBinary(ir.KindAdd, reg, fi),
	} {
		am, ok := sel.matchAddress(addr, addrMode{})
		if !ok {
			t.Fatalf("%s: expected fallback to the opaque base", name)
		}
		if am.base != baseRegister || am.baseReg != addr {
			t.Fatalf("%s: mode %v, want the addition node as register base", name, am)
		}
		if am.disp != 0 {
			t.Fatalf("%s: disp = %d, want 0", name, am.disp)
		}
	}
}

func TestMatchAddressGlobalPlusFrame(t *testing.T) {
	sel := newTestSelector(t, nil, nil)
	wrapper := ir.NewWrapper(ir.NewGlobalAddress("counter", 4))
	addr := ir.NewBinary(ir.KindAdd, wrapper, ir.NewFrameIndex(7))

	am, ok := sel.matchAddress(addr, addrMode{})
	if !ok {
		t.Fatalf("expected global+frame address to match")
	}
	if am.base != baseFrameSlot || am.frameIndex != 7 {
		t.Fatalf("mode %v, want frame slot 7", am)
	}
	if am.sym != symGlobal || am.symName != "counter" {
		t.Fatalf("mode %v, want global counter", am)
	}
	if am.disp != 4 {
		t.Fatalf("disp = %d, want the global's embedded offset 4", am.disp)
	}

	// Finalization overrides the decomposition for symbolic addresses: the
	// whole expression is the base and the displacement is symbol-relative.
	base, disp, ok := sel.SelectAddr(addr, false)
	if !ok {
		t.Fatalf("expected SelectAddr to succeed")
	}
	if base != tricoreasm.Operand(addr) {
		t.Fatalf("base = %v, want the whole address expression", base)
	}
	if disp != tricoreasm.Imm(4) {
		t.Fatalf("disp = %v, want #4", disp)
	}
}

func TestMatchAddressTwoFrameSlots(t *testing.T) {
	sel := newTestSelector(t, nil, nil)
	addr := ir.NewBinary(ir.KindAdd, ir.NewFrameIndex(1), ir.NewFrameIndex(2))

	// Neither operand order can place both frame slots, so the addition as
	// a whole becomes an opaque register base.
	am, ok := sel.matchAddress(addr, addrMode{})
	if !ok {
		t.Fatalf("expected fallback to the opaque base")
	}
	if am.base != baseRegister || am.baseReg != addr {
		t.Fatalf("mode %v, want the addition node as register base", am)
	}
	if am.disp != 0 {
		t.Fatalf("disp = %d, want 0", am.disp)
	}
}

func TestMatchAddressTwoSymbols(t *testing.T) {
	sel := newTestSelector(t, nil, nil)
	addr := ir.NewBinary(ir.KindAdd,
		ir.NewWrapper(ir.NewGlobalAddress("a", 0)),
		ir.NewWrapper(ir.NewGlobalAddress("b", 0)))

	am, ok := sel.matchAddress(addr, addrMode{})
	if !ok {
		t.Fatalf("expected fallback to the opaque base")
	}
	// A second symbolic displacement is illegal, so both orders fail and
	// the whole addition is treated as the base value.
	if am.base != baseRegister || am.baseReg != addr {
		t.Fatalf("mode %v, want the addition node as register base", am)
	}
	if am.hasSymbolicDisplacement() {
		t.Fatalf("mode %v, want no symbolic displacement", am)
	}
}

func TestMatchAddressWrapperWithoutGlobal(t *testing.T) {
	sel := newTestSelector(t, nil, nil)
	wrapper := ir.NewWrapper(ir.NewExternalSymbol("memcpy"))

	am, ok := sel.matchAddress(wrapper, addrMode{})
	if !ok {
		t.Fatalf("expected conservative success")
	}
	if am != (addrMode{}) {
		t.Fatalf("mode %v, want unchanged", am)
	}
}

func TestMatchAddressOrAsAdd(t *testing.T) {
	reg := opaqueValue()

	t.Run("disjoint bits fold", func(t *testing.T) {
		sel := newTestSelector(t, nil, fixedKnownBits{zeros: 0xF})
		addr := ir.NewBinary(ir.KindOr, reg, ir.NewConstant(3, ir.I32))

		am, ok := sel.matchAddress(addr, addrMode{})
		if !ok {
			t.Fatalf("expected or-as-add to match")
		}
		if am.base != baseRegister || am.baseReg != reg {
			t.Fatalf("mode %v, want the left operand as base", am)
		}
		if am.disp != 3 {
			t.Fatalf("disp = %d, want 3", am.disp)
		}
	})

	t.Run("overlapping bits fall back", func(t *testing.T) {
		sel := newTestSelector(t, nil, fixedKnownBits{zeros: 0x1})
		addr := ir.NewBinary(ir.KindOr, opaqueValue(), ir.NewConstant(3, ir.I32))

		am, ok := sel.matchAddress(addr, addrMode{})
		if !ok {
			t.Fatalf("expected fallback to the opaque base")
		}
		if am.baseReg != addr {
			t.Fatalf("mode %v, want the whole or node as base", am)
		}
	})

	t.Run("no oracle falls back", func(t *testing.T) {
		sel := newTestSelector(t, nil, nil)
		addr := ir.NewBinary(ir.KindOr, opaqueValue(), ir.NewConstant(3, ir.I32))

		am, ok := sel.matchAddress(addr, addrMode{})
		if !ok {
			t.Fatalf("expected fallback to the opaque base")
		}
		if am.baseReg != addr {
			t.Fatalf("mode %v, want the whole or node as base", am)
		}
	})

	t.Run("symbolic left side falls back", func(t *testing.T) {
		sel := newTestSelector(t, nil, fixedKnownBits{zeros: ^uint64(0)})
		addr := ir.NewBinary(ir.KindOr,
			ir.NewWrapper(ir.NewGlobalAddress("table", 0)),
			ir.NewConstant(3, ir.I32))

		am, ok := sel.matchAddress(addr, addrMode{})
		if !ok {
			t.Fatalf("expected fallback to the opaque base")
		}
		if am.baseReg != addr {
			t.Fatalf("mode %v, want the whole or node as base", am)
		}
		if am.hasSymbolicDisplacement() {
			t.Fatalf("mode %v, want the symbolic fold discarded", am)
		}
	})
}

func TestSelectAddrIsPure(t *testing.T) {
	sel := newTestSelector(t, nil, nil)
	addr := ir.NewBinary(ir.KindAdd, opaqueValue(), ir.NewConstant(12, ir.I32))

	base1, disp1, ok1 := sel.SelectAddr(addr, false)
	base2, disp2, ok2 := sel.SelectAddr(addr, false)
	if ok1 != ok2 || base1 != base2 || disp1 != disp2 {
		t.Fatalf("repeated resolution differs: (%v %v %v) vs (%v %v %v)",
			base1, disp1, ok1, base2, disp2, ok2)
	}
}

func TestAddrModeSetSymbolRejectsSecond(t *testing.T) {
	var am addrMode
	if !am.setSymbol(symGlobal, "a") {
		t.Fatalf("first symbol should be accepted")
	}
	if am.setSymbol(symExternal, "b") {
		t.Fatalf("second symbol must be rejected")
	}
	if am.sym != symGlobal || am.symName != "a" {
		t.Fatalf("rejected set mutated the mode: %v", am)
	}
}
