package chunk

import "github.com/crowlang/crow/pkg/value"

// lineRun is one run of consecutive instruction offsets that all come
// from the same source line, so a long line doesn't cost one int per
// byte of code it compiled to.
type lineRun struct {
	startOffset int
	line        int
}

// Chunk is a compiled Function body: a flat byte-code buffer, the
// constants that buffer's operands index into, a line map for error
// reporting, and the peak operand-stack depth the compiler computed
// for it (pkg/compiler's static stack analysis).
type Chunk struct {
	Code      []byte
	Constants []value.Value
	Slots     int // peak operand-stack depth this function ever needs

	lines []lineRun
}

// New returns an empty Chunk.
func New() *Chunk {
	return &Chunk{}
}

// Write appends one byte of code, recording that it came from line.
func (c *Chunk) Write(b byte, line int) {
	if len(c.lines) == 0 || c.lines[len(c.lines)-1].line != line {
		c.lines = append(c.lines, lineRun{startOffset: len(c.Code), line: line})
	}
	c.Code = append(c.Code, b)
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op OpCode, line int) {
	c.Write(byte(op), line)
}

// WriteUint16 appends a 16-bit little-endian operand.
func (c *Chunk) WriteUint16(v uint16, line int) {
	c.Write(byte(v), line)
	c.Write(byte(v>>8), line)
}

// AddConstant appends val to the constants pool and returns its
// index. Callers needing a dedup semantics (the compiler's string
// constant table) handle that themselves before calling this.
func (c *Chunk) AddConstant(val value.Value) int {
	c.Constants = append(c.Constants, val)
	return len(c.Constants) - 1
}

// GetLine returns the source line the instruction at offset compiled
// from, found by binary search over the run-length line map.
func (c *Chunk) GetLine(offset int) int {
	if len(c.lines) == 0 {
		return 0
	}
	lo, hi := 0, len(c.lines)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if c.lines[mid].startOffset <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return c.lines[lo].line
}
