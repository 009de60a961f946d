package tricore

import (
	"fmt"
	"strings"

	"github.com/tinyrange/tricore/internal/ir"
)

// Operand is a single operand of a selected operation. Concrete types are
// Imm, FrameIndex, Reg, Symbol, and *ir.Node for values produced by other
// nodes in the tree.
type Operand any

// Imm is an immediate operand. Immediates are carried sign-extended; the
// encoder narrows them to the field width of the instruction format.
type Imm int64

// FrameIndex is a stack-frame-slot operand, resolved to a concrete offset
// during frame lowering.
type FrameIndex int

// Reg is a physical register operand. Reg(0) is the zero placeholder used
// when an address resolves without a base register.
type Reg int

// Symbol is a link-time symbolic operand.
type Symbol struct {
	Name   string
	Offset int64
}

// Operation is one selected machine operation: an opcode plus its ordered
// operand list. Operations are produced once by selection and consumed
// once by emission; they carry no shared state.
type Operation struct {
	Opcode   Opcode
	Operands []Operand
}

// NewOperation builds an operation descriptor from an opcode and operands.
func NewOperation(opcode Opcode, operands ...Operand) Operation {
	return Operation{Opcode: opcode, Operands: operands}
}

func (o Operation) String() string {
	if len(o.Operands) == 0 {
		return o.Opcode.String()
	}
	parts := make([]string, 0, len(o.Operands))
	for _, op := range o.Operands {
		parts = append(parts, FormatOperand(op))
	}
	return o.Opcode.String() + " " + strings.Join(parts, ", ")
}

// FormatOperand renders a single operand for diagnostics and dumps.
func FormatOperand(op Operand) string {
	switch v := op.(type) {
	case Imm:
		return fmt.Sprintf("#%d", int64(v))
	case FrameIndex:
		return fmt.Sprintf("fi#%d", int(v))
	case Reg:
		return fmt.Sprintf("d%d", int(v))
	case Symbol:
		if v.Offset != 0 {
			return fmt.Sprintf("%s%+d", v.Name, v.Offset)
		}
		return v.Name
	case *ir.Node:
		return v.String()
	default:
		return fmt.Sprintf("%v", op)
	}
}
