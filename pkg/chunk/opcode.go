// Package chunk implements Crow's bytecode container: the flat byte
// buffer a Function's body compiles to, its constants pool, and the
// run-length line map that lets the VM recover a source line from an
// instruction offset for error reporting.
package chunk

// OpCode identifies one bytecode instruction. Opcodes that index the
// constants pool, the global-name table, or a class's method table
// take a 16-bit little-endian operand; local/upvalue slots and call
// arg counts take an 8-bit operand; jumps take a 16-bit offset;
// CLOSURE takes a 16-bit function index followed by, per upvalue, an
// is-local byte and an index byte.
type OpCode byte

const (
	// Constants and literals.
	OpConstant OpCode = iota
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpDup

	// Variables.
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpDefineGlobal
	OpSetGlobal
	OpGetUpvalue
	OpSetUpvalue
	OpGetProperty
	OpSetProperty
	OpGetSuper
	OpGetThis

	// Comparisons and arithmetic.
	OpEqual
	OpGreater
	OpLess
	OpNotEqual
	OpGreaterEqual
	OpLessEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate

	// Peephole-fused small-constant arithmetic.
	OpConstantNegativeOne
	OpConstantZero
	OpConstantOne
	OpConstantTwo
	OpConstantThree
	OpConstantFour
	OpConstantFive
	OpAddOne
	OpSubtractOne
	OpMultiplyTwo
	OpEqualZero

	// Statements and control flow.
	OpPrint
	OpJump
	OpJumpIfFalse
	OpLoop

	// Calls, closures, and classes.
	OpCall
	OpInvoke
	OpSuperInvoke
	OpClosure
	OpCloseUpvalue
	OpReturn
	OpClass
	OpInherit
	OpMethod

	opCodeCount
)

var opCodeNames = [opCodeCount]string{
	OpConstant:            "CONSTANT",
	OpNil:                 "NIL",
	OpTrue:                "TRUE",
	OpFalse:               "FALSE",
	OpPop:                 "POP",
	OpDup:                 "DUP",
	OpGetLocal:            "GET_LOCAL",
	OpSetLocal:            "SET_LOCAL",
	OpGetGlobal:           "GET_GLOBAL",
	OpDefineGlobal:        "DEFINE_GLOBAL",
	OpSetGlobal:           "SET_GLOBAL",
	OpGetUpvalue:          "GET_UPVALUE",
	OpSetUpvalue:          "SET_UPVALUE",
	OpGetProperty:         "GET_PROPERTY",
	OpSetProperty:         "SET_PROPERTY",
	OpGetSuper:            "GET_SUPER",
	OpGetThis:             "GET_THIS",
	OpEqual:               "EQUAL",
	OpGreater:             "GREATER",
	OpLess:                "LESS",
	OpNotEqual:            "NOT_EQUAL",
	OpGreaterEqual:        "GREATER_EQUAL",
	OpLessEqual:           "LESS_EQUAL",
	OpAdd:                 "ADD",
	OpSubtract:            "SUBTRACT",
	OpMultiply:            "MULTIPLY",
	OpDivide:              "DIVIDE",
	OpNot:                 "NOT",
	OpNegate:              "NEGATE",
	OpConstantNegativeOne: "CONSTANT_NEGATIVE_ONE",
	OpConstantZero:        "CONSTANT_ZERO",
	OpConstantOne:         "CONSTANT_ONE",
	OpConstantTwo:         "CONSTANT_TWO",
	OpConstantThree:       "CONSTANT_THREE",
	OpConstantFour:        "CONSTANT_FOUR",
	OpConstantFive:        "CONSTANT_FIVE",
	OpAddOne:              "ADD_ONE",
	OpSubtractOne:         "SUBTRACT_ONE",
	OpMultiplyTwo:         "MULTIPLY_TWO",
	OpEqualZero:           "EQUAL_ZERO",
	OpPrint:               "PRINT",
	OpJump:                "JUMP",
	OpJumpIfFalse:         "JUMP_IF_FALSE",
	OpLoop:                "LOOP",
	OpCall:                "CALL",
	OpInvoke:              "INVOKE",
	OpSuperInvoke:         "SUPER_INVOKE",
	OpClosure:             "CLOSURE",
	OpCloseUpvalue:        "CLOSE_UPVALUE",
	OpReturn:              "RETURN",
	OpClass:               "CLASS",
	OpInherit:             "INHERIT",
	OpMethod:              "METHOD",
}

// String renders the opcode the way the disassembler and error
// messages expect: OP_ prefixed, upper snake case.
func (op OpCode) String() string {
	if int(op) < len(opCodeNames) && opCodeNames[op] != "" {
		return "OP_" + opCodeNames[op]
	}
	return "OP_UNKNOWN"
}
