package tricore

import "fmt"

// EvalConstantPlan interprets a constant-materialization sequence against
// the documented semantics of each opcode and returns the value left in the
// destination register. The MOV and ADD forms model a 32-bit data register;
// IMASK models the 64-bit register pair it writes. Immediates are checked
// against the field width of each instruction format, so a plan that could
// not actually be encoded is reported as an error rather than evaluated.
func EvalConstantPlan(ops []Operation) (uint64, error) {
	if len(ops) == 0 {
		return 0, fmt.Errorf("tricore: empty constant plan")
	}

	var acc uint64
	for _, op := range ops {
		switch op.Opcode {
		case MOVrlc:
			imm, err := immOperand(op, 0, -32768, 32767)
			if err != nil {
				return 0, err
			}
			acc = uint64(uint32(int32(imm)))
		case MOVUrlc:
			imm, err := immOperand(op, 0, 0, 65535)
			if err != nil {
				return 0, err
			}
			acc = uint64(uint32(imm))
		case MOVHrlc:
			imm, err := immOperand(op, 0, 0, 65535)
			if err != nil {
				return 0, err
			}
			acc = uint64(uint32(imm) << 16)
		case ADDsrc:
			imm, err := immOperand(op, 0, -8, 7)
			if err != nil {
				return 0, err
			}
			acc = uint64(uint32(acc) + uint32(int32(imm)))
		case ADDrc:
			imm, err := immOperand(op, 0, -256, 255)
			if err != nil {
				return 0, err
			}
			acc = uint64(uint32(acc) + uint32(int32(imm)))
		case ADDIrlc:
			imm, err := immOperand(op, 0, -32768, 32767)
			if err != nil {
				return 0, err
			}
			acc = uint64(uint32(acc) + uint32(int32(imm)))
		case IMASKrcpw:
			value, err := evalIMask(op)
			if err != nil {
				return 0, err
			}
			acc = value
		default:
			return 0, fmt.Errorf("tricore: %s is not a constant-plan opcode", op.Opcode)
		}
	}
	return acc, nil
}

func evalIMask(op Operation) (uint64, error) {
	constVal, err := immOperand(op, 0, 0, 15)
	if err != nil {
		return 0, err
	}
	pos, err := immOperand(op, 1, 0, 31)
	if err != nil {
		return 0, err
	}
	width, err := immOperand(op, 2, 0, 31)
	if err != nil {
		return 0, err
	}
	if pos+width > 31 {
		return 0, fmt.Errorf("tricore: imask pos %d + width %d exceeds 31 (undefined)", pos, width)
	}
	mask := uint64((uint32(1)<<width)-1) << pos
	return mask<<32 | uint64(uint32(constVal)<<pos), nil
}

func immOperand(op Operation, index int, min, max int64) (int64, error) {
	if index >= len(op.Operands) {
		return 0, fmt.Errorf("tricore: %s missing operand %d", op.Opcode, index)
	}
	imm, ok := op.Operands[index].(Imm)
	if !ok {
		return 0, fmt.Errorf("tricore: %s operand %d is %T, want immediate", op.Opcode, index, op.Operands[index])
	}
	if int64(imm) < min || int64(imm) > max {
		return 0, fmt.Errorf("tricore: %s immediate %d outside [%d, %d]", op.Opcode, imm, min, max)
	}
	return int64(imm), nil
}
