// Package vm holds the instruction representation shared by the
// lowering step, the structural chain parser and the unit generator,
// plus the small machine that executes generated units.
package vm

// Opcode represents a single instruction.
type Opcode byte

const (
	// Stack and constants
	OpConst Opcode = iota // Push constant from pool (u16 index)
	OpNil                 // Push nil
	OpTrue                // Push true
	OpFalse               // Push false
	OpPop                 // Discard top of stack

	// Variables
	OpGetLocal  // Push local by slot (u8)
	OpSetLocal  // Pop into local slot (u8)
	OpGetGlobal // Push global by name (u16 constant index)

	// Data
	OpUnpack    // Pop tuple, push its n elements, first element on top (u8)
	OpMakeTuple // Pop n values into a tuple (u8)
	OpMakeList  // Pop n values into a list (u8)

	// Arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg

	// Comparison
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// Logic
	OpNot
	OpAnd
	OpOr

	// Control flow (u16 relative offsets; Loop variants jump backward)
	OpJump
	OpJumpIfFalse
	OpJumpIfTrue
	OpLoopIfFalse
	OpLoopIfTrue

	// Calls
	OpCall // Call builtin with n arguments (u8)

	// Canonical comprehension markers. These never execute: lowering
	// emits them so the chain parser can recover the clause structure,
	// and the generator replaces them.
	OpGetIter  // "the following value is a nested source"
	OpIterNext // binding-clause prologue ("request next element")
	OpYield    // final-value-production marker

	// Generated-unit wiring
	OpClosure  // Build closure: u16 unit constant index, u8 default count
	OpDispatch // Capability request: u16 op-name constant index; [value, closure] -> result

	OpReturn
)

// OpcodeNames maps opcodes to their string names (for disassembly).
var OpcodeNames = map[Opcode]string{
	OpConst:       "CONST",
	OpNil:         "NIL",
	OpTrue:        "TRUE",
	OpFalse:       "FALSE",
	OpPop:         "POP",
	OpGetLocal:    "GET_LOCAL",
	OpSetLocal:    "SET_LOCAL",
	OpGetGlobal:   "GET_GLOBAL",
	OpUnpack:      "UNPACK",
	OpMakeTuple:   "MAKE_TUPLE",
	OpMakeList:    "MAKE_LIST",
	OpAdd:         "ADD",
	OpSub:         "SUB",
	OpMul:         "MUL",
	OpDiv:         "DIV",
	OpMod:         "MOD",
	OpNeg:         "NEG",
	OpEq:          "EQ",
	OpNe:          "NE",
	OpLt:          "LT",
	OpLe:          "LE",
	OpGt:          "GT",
	OpGe:          "GE",
	OpNot:         "NOT",
	OpAnd:         "AND",
	OpOr:          "OR",
	OpJump:        "JUMP",
	OpJumpIfFalse: "JUMP_IF_FALSE",
	OpJumpIfTrue:  "JUMP_IF_TRUE",
	OpLoopIfFalse: "LOOP_IF_FALSE",
	OpLoopIfTrue:  "LOOP_IF_TRUE",
	OpCall:        "CALL",
	OpGetIter:     "GET_ITER",
	OpIterNext:    "ITER_NEXT",
	OpYield:       "YIELD",
	OpClosure:     "CLOSURE",
	OpDispatch:    "DISPATCH",
	OpReturn:      "RETURN",
}

// operandWidth gives the number of operand bytes following each opcode.
var operandWidth = map[Opcode]int{
	OpConst:       2,
	OpGetLocal:    1,
	OpSetLocal:    1,
	OpGetGlobal:   2,
	OpUnpack:      1,
	OpMakeTuple:   1,
	OpMakeList:    1,
	OpJump:        2,
	OpJumpIfFalse: 2,
	OpJumpIfTrue:  2,
	OpLoopIfFalse: 2,
	OpLoopIfTrue:  2,
	OpCall:        1,
	OpClosure:     3, // u16 unit index + u8 default count
	OpDispatch:    2,
}

// OperandWidth returns the operand byte count for op.
func OperandWidth(op Opcode) int {
	return operandWidth[op]
}

// IsBackwardJump reports whether op's operand is a backward distance.
func IsBackwardJump(op Opcode) bool {
	return op == OpLoopIfFalse || op == OpLoopIfTrue
}
