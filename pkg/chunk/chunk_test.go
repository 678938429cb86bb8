package chunk

import (
	"strings"
	"testing"

	"github.com/crowlang/crow/pkg/value"
)

func TestWriteAndGetLine(t *testing.T) {
	c := New()
	c.WriteOp(OpNil, 1)
	c.WriteOp(OpNil, 1)
	c.WriteOp(OpReturn, 2)

	if got := c.GetLine(0); got != 1 {
		t.Errorf("GetLine(0) = %d, want 1", got)
	}
	if got := c.GetLine(1); got != 1 {
		t.Errorf("GetLine(1) = %d, want 1", got)
	}
	if got := c.GetLine(2); got != 2 {
		t.Errorf("GetLine(2) = %d, want 2", got)
	}
}

func TestAddConstant(t *testing.T) {
	c := New()
	idx := c.AddConstant(value.Number(42))
	if idx != 0 {
		t.Fatalf("AddConstant first index = %d, want 0", idx)
	}
	if c.Constants[idx].AsNumber() != 42 {
		t.Fatalf("Constants[0] = %v, want 42", c.Constants[idx])
	}
}

func TestOpCodeString(t *testing.T) {
	if got := OpAdd.String(); got != "OP_ADD" {
		t.Errorf("OpAdd.String() = %q, want OP_ADD", got)
	}
}

func TestDisassembleDoesNotPanic(t *testing.T) {
	c := New()
	idx := c.AddConstant(value.Number(1))
	c.WriteOp(OpConstant, 1)
	c.WriteUint16(uint16(idx), 1)
	c.WriteOp(OpReturn, 1)

	out := Disassemble(c, "test", nil)
	if !strings.Contains(out, "OP_CONSTANT") {
		t.Errorf("Disassemble output missing OP_CONSTANT: %s", out)
	}
	if !strings.Contains(out, "OP_RETURN") {
		t.Errorf("Disassemble output missing OP_RETURN: %s", out)
	}
}
