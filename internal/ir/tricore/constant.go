package tricore

import (
	tricoreasm "github.com/tinyrange/tricore/internal/asm/tricore"
	"github.com/tinyrange/tricore/internal/ir"
)

// SelectConstant lowers an integer constant node into an ordered
// move/add/insert-mask plan. A nil result means the value is not one of
// the special-cased shapes and must be lowered by the table-driven matcher
// instead. The decision table is a fixed greedy policy, first matching
// branch wins; it is not a search over all encodings.
func (s *Selector) SelectConstant(n *ir.Node) []tricoreasm.Operation {
	if n.Type().Bits() == 64 {
		return s.selectConstant64(n)
	}
	return s.selectConstant32(n)
}

// selectConstant64 tries to cover a 64-bit constant with a single IMASK.
// IMASK writes the register pair {mask, const<<pos}, so a value qualifies
// exactly when one half is zero and the other is a contiguous run of set
// bits within the instruction's field limits.
func (s *Selector) selectConstant64(n *ir.Node) []tricoreasm.Operation {
	value := uint64(n.Value())
	signed := n.Value()
	low := uint32(value)
	high := uint32(value >> 32)

	if value == 0 {
		return []tricoreasm.Operation{
			tricoreasm.NewOperation(tricoreasm.IMASKrcpw,
				tricoreasm.Imm(0), tricoreasm.Imm(0), tricoreasm.Imm(0)),
		}
	}

	// Negative values and values with set bits in both halves never fit a
	// single insert mask.
	if signed < 0 || (high != 0 && low != 0) {
		return nil
	}

	if high == 0 {
		pos := findFirstSet(low) - 1
		run := consecutiveOnes(low)
		if popCount(low) != run {
			return nil
		}
		// The low word is written as const4 << pos, so the run must fit
		// the 4-bit constant field.
		if run > 4 {
			return nil
		}
		return []tricoreasm.Operation{
			tricoreasm.NewOperation(tricoreasm.IMASKrcpw,
				tricoreasm.Imm(int64(1)<<run-1), tricoreasm.Imm(int64(pos)), tricoreasm.Imm(0)),
		}
	}

	pos := findFirstSet(high) - 1
	run := consecutiveOnes(high)
	if popCount(high) != run {
		return nil
	}
	// The data sheet leaves pos+width > 31 undefined.
	if pos+run > 31 {
		return nil
	}
	return []tricoreasm.Operation{
		tricoreasm.NewOperation(tricoreasm.IMASKrcpw,
			tricoreasm.Imm(0), tricoreasm.Imm(int64(pos)), tricoreasm.Imm(int64(run))),
	}
}

// selectConstant32 lowers a constant of 32 bits or less. Unlike the 64-bit
// path this one is total: every value gets a one- or two-instruction plan.
func (s *Selector) selectConstant32(n *ir.Node) []tricoreasm.Operation {
	signed := n.Value()
	value := uint32(signed)
	lo := value & 0xffff
	hi := value & 0xffff0000

	switch {
	case hi == 0 && lo != 0:
		if signed >= 0 && signed < 32768 {
			return movPlan(tricoreasm.MOVrlc, signed)
		}
		return movPlan(tricoreasm.MOVUrlc, int64(value))
	case hi != 0 && lo == 0:
		return movPlan(tricoreasm.MOVHrlc, highShift(signed, lo))
	case hi == 0 && lo == 0:
		return movPlan(tricoreasm.MOVrlc, 0)
	}

	// Both halves are populated. A small negative value still fits one
	// sign-extended move, which beats the two-instruction plan.
	if signed >= -32768 && signed < 0 {
		return movPlan(tricoreasm.MOVrlc, signed)
	}

	ops := []tricoreasm.Operation{
		tricoreasm.NewOperation(tricoreasm.MOVHrlc, tricoreasm.Imm(highShift(signed, lo))),
	}
	// The add step carries the low half as the instruction sign-extends
	// it, with the MOVH immediate adjusted to compensate.
	delta := int64(int16(lo))
	loSigned := int64(lo) - 65536
	switch {
	case (loSigned >= -8 && loSigned < 8) || lo < 8:
		ops = append(ops, tricoreasm.NewOperation(tricoreasm.ADDsrc, tricoreasm.Imm(delta)))
	case lo >= 8 && lo < 256:
		ops = append(ops, tricoreasm.NewOperation(tricoreasm.ADDrc, tricoreasm.Imm(int64(lo))))
	default:
		ops = append(ops, tricoreasm.NewOperation(tricoreasm.ADDIrlc, tricoreasm.Imm(delta)))
	}
	return ops
}

func movPlan(opcode tricoreasm.Opcode, imm int64) []tricoreasm.Operation {
	return []tricoreasm.Operation{
		tricoreasm.NewOperation(opcode, tricoreasm.Imm(imm)),
	}
}

// highShift computes the MOVH immediate that pairs with the sign-extended
// low half so a two-step plan reconstructs the exact value.
func highShift(signed int64, lo uint32) int64 {
	shift := (signed - int64(int16(lo))) >> 16
	if shift < 0 {
		shift += 65536
	}
	return shift
}
