package chunk

import (
	"fmt"
	"strings"
)

// UpvalueCounter resolves the constants-pool index of a CLOSURE
// instruction's function operand to that function's upvalue count, so
// the disassembler can skip the right number of trailing (isLocal,
// index) byte pairs. pkg/chunk has no Function type of its own (it
// would cycle back through pkg/object, which imports pkg/chunk for
// Function.Chunk), so the caller (cmd/crow's disasm command, the
// compiler tests) supplies this when it wants a full dump.
type UpvalueCounter func(constantIndex int) int

// Disassemble renders every instruction in c under a header, one line
// per instruction. It exists purely for `crow disasm` and for the
// compiler tests, which assert on its output -- no non-test code in
// pkg/vm or pkg/compiler depends on it.
// upvalues may be nil, in which case CLOSURE instructions are shown
// without their upvalue capture list.
func Disassemble(c *Chunk, name string, upvalues UpvalueCounter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = disassembleInstruction(&b, c, offset, upvalues)
	}
	return b.String()
}

func disassembleInstruction(b *strings.Builder, c *Chunk, offset int, upvalues UpvalueCounter) int {
	fmt.Fprintf(b, "%04d %4d ", offset, c.GetLine(offset))
	op := OpCode(c.Code[offset])
	switch op {
	case OpConstant, OpGetGlobal, OpDefineGlobal, OpSetGlobal,
		OpGetProperty, OpSetProperty, OpGetSuper, OpClass, OpMethod:
		return constantInstruction(b, op, c, offset)
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall:
		return byteInstruction(b, op, c, offset)
	case OpJump, OpJumpIfFalse:
		return jumpInstruction(b, op, 1, c, offset)
	case OpLoop:
		return jumpInstruction(b, op, -1, c, offset)
	case OpInvoke, OpSuperInvoke:
		return invokeInstruction(b, op, c, offset)
	case OpClosure:
		return closureInstruction(b, c, offset, upvalues)
	default:
		fmt.Fprintf(b, "%s\n", op)
		return offset + 1
	}
}

func constantInstruction(b *strings.Builder, op OpCode, c *Chunk, offset int) int {
	idx := uint16(c.Code[offset+1]) | uint16(c.Code[offset+2])<<8
	fmt.Fprintf(b, "%-16s %4d\n", op, idx)
	return offset + 3
}

func byteInstruction(b *strings.Builder, op OpCode, c *Chunk, offset int) int {
	slot := c.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d\n", op, slot)
	return offset + 2
}

func jumpInstruction(b *strings.Builder, op OpCode, sign int, c *Chunk, offset int) int {
	jump := int(uint16(c.Code[offset+1]) | uint16(c.Code[offset+2])<<8)
	fmt.Fprintf(b, "%-16s %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}

func invokeInstruction(b *strings.Builder, op OpCode, c *Chunk, offset int) int {
	idx := uint16(c.Code[offset+1]) | uint16(c.Code[offset+2])<<8
	argCount := c.Code[offset+3]
	fmt.Fprintf(b, "%-16s (%d args) %4d\n", op, argCount, idx)
	return offset + 4
}

func closureInstruction(b *strings.Builder, c *Chunk, offset int, upvalues UpvalueCounter) int {
	idx := int(uint16(c.Code[offset+1]) | uint16(c.Code[offset+2])<<8)
	fmt.Fprintf(b, "%-16s %4d\n", OpClosure, idx)
	offset += 3
	if upvalues == nil {
		return offset
	}
	for i, n := 0, upvalues(idx); i < n; i++ {
		isLocal := c.Code[offset]
		index := c.Code[offset+1]
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(b, "%04d      |                     %s %d\n", offset, kind, index)
		offset += 2
	}
	return offset
}
