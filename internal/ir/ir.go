package ir

import "fmt"

// Kind identifies the operation performed by a Node. The set covers the
// shapes the TriCore selector inspects directly; every other node kind is
// handed to the table-driven matcher untouched, so the exact inventory of
// opaque kinds does not matter to selection.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindConstant
	KindAdd
	KindSub
	KindMul
	KindOr
	KindAnd
	KindShl
	KindLoad
	KindStore
	KindFrameIndex
	KindWrapper
	KindGlobalAddress
	KindExternalSymbol
	KindConstantPool
	KindJumpTable
	KindRegister
	KindCopyFromReg
)

var kindNames = map[Kind]string{
	KindInvalid:        "invalid",
	KindConstant:       "constant",
	KindAdd:            "add",
	KindSub:            "sub",
	KindMul:            "mul",
	KindOr:             "or",
	KindAnd:            "and",
	KindShl:            "shl",
	KindLoad:           "load",
	KindStore:          "store",
	KindFrameIndex:     "frameindex",
	KindWrapper:        "wrapper",
	KindGlobalAddress:  "globaladdress",
	KindExternalSymbol: "externalsymbol",
	KindConstantPool:   "constantpool",
	KindJumpTable:      "jumptable",
	KindRegister:       "register",
	KindCopyFromReg:    "copyfromreg",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Type describes the value produced by a node. The target is a 32-bit
// architecture, so pointers are 32 bits wide and carry a separate flag
// rather than a distinct width.
type Type struct {
	bits    uint8
	pointer bool
}

var (
	I8  = Type{bits: 8}
	I16 = Type{bits: 16}
	I32 = Type{bits: 32}
	I64 = Type{bits: 64}
	Ptr = Type{bits: 32, pointer: true}
)

// Bits returns the width of the value in bits.
func (t Type) Bits() int { return int(t.bits) }

// Pointer reports whether the value is pointer-shaped.
func (t Type) Pointer() bool { return t.pointer }

func (t Type) String() string {
	if t.pointer {
		return "ptr"
	}
	return fmt.Sprintf("i%d", t.bits)
}

// Node is one vertex of the expression tree handed to instruction
// selection. Nodes are immutable after construction; the payload fields
// (value, index, symbol, offset, align) are only meaningful for the kinds
// that declare them.
type Node struct {
	kind Kind
	typ  Type
	ops  []*Node

	value  int64  // KindConstant, sign-extended to 64 bits
	index  int    // KindFrameIndex, KindJumpTable, KindRegister
	symbol string // KindGlobalAddress, KindExternalSymbol, KindConstantPool
	offset int64  // KindGlobalAddress
	align  int    // KindConstantPool

	uses int
}

func newNode(kind Kind, typ Type, ops ...*Node) *Node {
	n := &Node{kind: kind, typ: typ, ops: ops}
	for _, op := range ops {
		if op == nil {
			panic("ir: nil operand")
		}
		op.uses++
	}
	return n
}

// NewConstant builds an integer constant node. The value is stored
// sign-extended from the node's declared width to 64 bits, so a caller may
// supply either the signed value or the raw bit pattern.
func NewConstant(value int64, typ Type) *Node {
	switch typ.bits {
	case 8:
		value = int64(int8(value))
	case 16:
		value = int64(int16(value))
	case 32:
		value = int64(int32(value))
	}
	n := newNode(KindConstant, typ)
	n.value = value
	return n
}

// NewBinary builds a two-operand arithmetic or logical node.
func NewBinary(kind Kind, left, right *Node) *Node {
	switch kind {
	case KindAdd, KindSub, KindMul, KindOr, KindAnd, KindShl:
	default:
		panic(fmt.Sprintf("ir: %s is not a binary kind", kind))
	}
	return newNode(kind, left.typ, left, right)
}

// NewFrameIndex builds a reference to a stack-frame slot. The index is
// resolved to a concrete offset later in the pipeline.
func NewFrameIndex(index int) *Node {
	n := newNode(KindFrameIndex, Ptr)
	n.index = index
	return n
}

// NewWrapper wraps a symbolic reference node the way the lowering pass
// wraps globals and external symbols before selection.
func NewWrapper(target *Node) *Node {
	return newNode(KindWrapper, Ptr, target)
}

// NewGlobalAddress builds a reference to a program-level variable with an
// embedded byte offset.
func NewGlobalAddress(symbol string, offset int64) *Node {
	if symbol == "" {
		panic("ir: global symbol must be non-empty")
	}
	n := newNode(KindGlobalAddress, Ptr)
	n.symbol = symbol
	n.offset = offset
	return n
}

// NewExternalSymbol builds a reference to a symbol resolved at link time.
func NewExternalSymbol(symbol string) *Node {
	if symbol == "" {
		panic("ir: external symbol must be non-empty")
	}
	n := newNode(KindExternalSymbol, Ptr)
	n.symbol = symbol
	return n
}

// NewConstantPool builds a reference to a constant-pool entry with the
// given byte alignment.
func NewConstantPool(symbol string, align int) *Node {
	n := newNode(KindConstantPool, Ptr)
	n.symbol = symbol
	n.align = align
	return n
}

// NewJumpTable builds a reference to a jump table by index.
func NewJumpTable(index int) *Node {
	n := newNode(KindJumpTable, Ptr)
	n.index = index
	return n
}

// NewRegister builds a reference to a physical register. Register 0 is the
// conventional "no base" placeholder used by address finalization.
func NewRegister(index int, typ Type) *Node {
	n := newNode(KindRegister, typ)
	n.index = index
	return n
}

// NewLoad builds a load of typ from the given address expression.
func NewLoad(addr *Node, typ Type) *Node {
	return newNode(KindLoad, typ, addr)
}

// NewStore builds a store of value to the given address expression.
// Operand 0 is the stored value and operand 1 the address, matching the
// order the selector inspects.
func NewStore(value, addr *Node) *Node {
	return newNode(KindStore, Type{}, value, addr)
}

// Kind returns the node's operation tag.
func (n *Node) Kind() Kind { return n.kind }

// Type returns the type of the value the node produces.
func (n *Node) Type() Type { return n.typ }

// NumOperands returns the number of operand edges.
func (n *Node) NumOperands() int { return len(n.ops) }

// Operand returns the i-th operand subtree.
func (n *Node) Operand(i int) *Node { return n.ops[i] }

// Value returns the constant payload, sign-extended to 64 bits.
func (n *Node) Value() int64 { return n.value }

// Index returns the frame-slot, jump-table, or register index.
func (n *Node) Index() int { return n.index }

// Symbol returns the symbolic identifier for global, external-symbol, and
// constant-pool nodes.
func (n *Node) Symbol() string { return n.symbol }

// Offset returns the byte offset embedded in a global-address node.
func (n *Node) Offset() int64 { return n.offset }

// Align returns the alignment of a constant-pool node.
func (n *Node) Align() int { return n.align }

// UseCount returns how many operand edges point at this node.
func (n *Node) UseCount() int { return n.uses }

// HasOneUse reports whether exactly one other node consumes this value.
func (n *Node) HasOneUse() bool { return n.uses == 1 }

func (n *Node) String() string {
	switch n.kind {
	case KindConstant:
		return fmt.Sprintf("constant<%d>(%s)", n.value, n.typ)
	case KindFrameIndex:
		return fmt.Sprintf("frameindex<%d>", n.index)
	case KindJumpTable:
		return fmt.Sprintf("jumptable<%d>", n.index)
	case KindRegister:
		return fmt.Sprintf("register<%d>(%s)", n.index, n.typ)
	case KindGlobalAddress:
		return fmt.Sprintf("globaladdress<%s%+d>", n.symbol, n.offset)
	case KindExternalSymbol:
		return fmt.Sprintf("externalsymbol<%s>", n.symbol)
	case KindConstantPool:
		return fmt.Sprintf("constantpool<%s align=%d>", n.symbol, n.align)
	default:
		return fmt.Sprintf("%s(%s)", n.kind, n.typ)
	}
}

// KnownBits is the data-flow query the surrounding framework supplies to
// selection. It reports which bits of a value are provably zero; selection
// uses it to justify rewriting OR with a disjoint constant into ADD.
type KnownBits interface {
	KnownZeroBits(n *Node) uint64
}

// MaskedValueIsZero reports whether every bit set in mask is known to be
// clear in the value computed by n. A nil oracle answers conservatively.
func MaskedValueIsZero(kb KnownBits, n *Node, mask uint64) bool {
	if kb == nil {
		return false
	}
	return mask&^kb.KnownZeroBits(n) == 0
}
