package tricore

import "fmt"

// Opcode identifies a TriCore machine operation. Only the opcodes the
// special-cased selection paths emit are listed here; everything else comes
// out of the table-driven matcher and never passes through this package.
//
// The suffix encodes the instruction format from the data sheet: rlc is the
// register + long-constant format, src the short register-constant format,
// rc the register-constant format, and rcpw the register-constant plus
// position/width format used by the bitfield instructions.
type Opcode uint8

const (
	opInvalid Opcode = iota

	// MOVrlc moves a sign-extended 16-bit constant: D[c] = sign_ext(const16).
	MOVrlc
	// MOVUrlc moves a zero-extended 16-bit constant: D[c] = zero_ext(const16).
	MOVUrlc
	// MOVHrlc loads the upper half-word: D[c] = const16 << 16.
	MOVHrlc
	// ADDsrc adds a 4-bit signed constant: D[a] = D[a] + sign_ext(const4).
	ADDsrc
	// ADDrc adds a 9-bit signed constant: D[c] = D[a] + sign_ext(const9).
	ADDrc
	// ADDIrlc adds a 16-bit signed constant: D[c] = D[a] + sign_ext(const16).
	ADDIrlc
	// IMASKrcpw builds an insert-mask register pair in one instruction:
	// E[c][63:32] = ((1 << width) - 1) << pos, E[c][31:0] = const4 << pos.
	// The data sheet leaves pos+width > 31 undefined.
	IMASKrcpw
)

var opcodeNames = map[Opcode]string{
	MOVrlc:    "mov",
	MOVUrlc:   "mov.u",
	MOVHrlc:   "movh",
	ADDsrc:    "add",
	ADDrc:     "add",
	ADDIrlc:   "addi",
	IMASKrcpw: "imask",
}

// Mnemonic returns the assembly mnemonic without the format suffix.
func (o Opcode) Mnemonic() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("opcode(%d)", uint8(o))
}

func (o Opcode) String() string {
	switch o {
	case MOVrlc:
		return "MOVrlc"
	case MOVUrlc:
		return "MOVUrlc"
	case MOVHrlc:
		return "MOVHrlc"
	case ADDsrc:
		return "ADDsrc"
	case ADDrc:
		return "ADDrc"
	case ADDIrlc:
		return "ADDIrlc"
	case IMASKrcpw:
		return "IMASKrcpw"
	default:
		return fmt.Sprintf("Opcode(%d)", uint8(o))
	}
}
