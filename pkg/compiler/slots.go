package compiler

import "github.com/crowlang/crow/pkg/chunk"

// slotUsage is the static, per-opcode stack-effect record the
// compiler uses to compute a safe upper bound on a function's peak
// operand-stack depth without ever running the code. delta is the net
// change in stack height after the instruction completes; peak is the
// height reached transiently above the height already accounted for
// before this instruction's own pushes and pops, used so a fused
// push-then-pop sequence inside one opcode (e.g. popping two operands
// and pushing one result) is never undercounted.
//
// OP_DUP is given an explicit {1, 1} entry so a switch statement's
// duplicated discriminant is never undercounted, violating the
// peak-is-an-upper-bound invariant.
type slotUsage struct {
	delta int
	peak  int
}

var slotUsageTable = map[chunk.OpCode]slotUsage{
	chunk.OpConstant:     {1, 1},
	chunk.OpNil:          {1, 1},
	chunk.OpTrue:         {1, 1},
	chunk.OpFalse:        {1, 1},
	chunk.OpPop:          {-1, 0},
	chunk.OpDup:          {1, 1},
	chunk.OpGetLocal:     {1, 1},
	chunk.OpSetLocal:     {0, 0},
	chunk.OpGetGlobal:    {1, 1},
	chunk.OpDefineGlobal: {-1, 0},
	chunk.OpSetGlobal:    {0, 0},
	chunk.OpGetUpvalue:   {1, 1},
	chunk.OpSetUpvalue:   {0, 0},
	chunk.OpGetProperty:  {0, 0},
	chunk.OpSetProperty:  {-1, 0},
	chunk.OpGetSuper:     {-1, 0},
	chunk.OpGetThis:      {1, 1},
	chunk.OpEqual:        {-1, 0},
	chunk.OpGreater:      {-1, 0},
	chunk.OpLess:         {-1, 0},
	chunk.OpNotEqual:     {-1, 0},
	chunk.OpGreaterEqual: {-1, 0},
	chunk.OpLessEqual:    {-1, 0},
	chunk.OpAdd:          {-1, 1},
	chunk.OpSubtract:     {-1, 0},
	chunk.OpMultiply:     {-1, 0},
	chunk.OpDivide:       {-1, 0},
	chunk.OpNot:          {0, 0},
	chunk.OpNegate:       {0, 0},

	chunk.OpConstantNegativeOne: {1, 1},
	chunk.OpConstantZero:        {1, 1},
	chunk.OpConstantOne:         {1, 1},
	chunk.OpConstantTwo:         {1, 1},
	chunk.OpConstantThree:       {1, 1},
	chunk.OpConstantFour:        {1, 1},
	chunk.OpConstantFive:        {1, 1},
	chunk.OpAddOne:              {0, 0},
	chunk.OpSubtractOne:         {0, 0},
	chunk.OpMultiplyTwo:         {0, 0},
	chunk.OpEqualZero:           {0, 0},

	chunk.OpPrint:        {-1, 0},
	chunk.OpJump:         {0, 0},
	chunk.OpJumpIfFalse:  {0, 0},
	chunk.OpLoop:         {0, 0},
	chunk.OpCall:         {0, 0}, // argCount adjustment applied separately, see expr.go
	chunk.OpInvoke:       {0, 0},
	chunk.OpSuperInvoke:  {-1, 0},
	chunk.OpClosure:      {1, 1},
	chunk.OpCloseUpvalue: {-1, 0},
	chunk.OpReturn:       {-1, 0},
	chunk.OpClass:        {1, 1},
	chunk.OpInherit:      {-1, 0},
	chunk.OpMethod:       {-1, 0},
}

func usageOf(op chunk.OpCode) slotUsage {
	return slotUsageTable[op] // zero value {0, 0} for anything absent
}
