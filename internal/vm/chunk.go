package vm

import "github.com/internetimagery/donot/pkg/object"

// Chunk is a linear sequence of instructions with its constant pool,
// variable-name table and per-byte line information.
type Chunk struct {
	// Code is the instruction stream.
	Code []byte

	// Constants pool - literals, global names, nested units.
	Constants []object.Object

	// Lines maps each code offset to its source line (for errors and
	// for re-basing positions into generated units).
	Lines []int

	// VarNames maps local slots to names. Slot 0 is always ".0", the
	// implicit incoming value.
	VarNames []string

	// File is the source name, if any.
	File string
}

// NewChunk creates a new empty chunk.
func NewChunk(file string) *Chunk {
	return &Chunk{
		Code:  make([]byte, 0, 64),
		Lines: make([]int, 0, 64),
		File:  file,
	}
}

// Write adds a byte to the chunk with line info.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp writes an opcode to the chunk.
func (c *Chunk) WriteOp(op Opcode, line int) {
	c.Write(byte(op), line)
}

// WriteU16 writes a two-byte big-endian operand.
func (c *Chunk) WriteU16(v int, line int) {
	c.Write(byte(v>>8), line)
	c.Write(byte(v), line)
}

// AddConstant adds a constant to the pool and returns its index.
// Existing equal primitive constants are reused.
func (c *Chunk) AddConstant(value object.Object) int {
	for i, existing := range c.Constants {
		if sameConstant(existing, value) {
			return i
		}
	}
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}

func sameConstant(a, b object.Object) bool {
	switch av := a.(type) {
	case *object.Integer:
		bv, ok := b.(*object.Integer)
		return ok && av.Value == bv.Value
	case *object.String:
		bv, ok := b.(*object.String)
		return ok && av.Value == bv.Value
	case *object.Float:
		bv, ok := b.(*object.Float)
		return ok && av.Value == bv.Value
	default:
		return a == b
	}
}

// ReadU16 reads a two-byte operand at offset.
func (c *Chunk) ReadU16(offset int) int {
	return int(c.Code[offset])<<8 | int(c.Code[offset+1])
}

// Len returns the number of bytes in the chunk.
func (c *Chunk) Len() int {
	return len(c.Code)
}

// SlotOf returns the local slot for name, or -1.
func (c *Chunk) SlotOf(name string) int {
	for i, n := range c.VarNames {
		if n == name {
			return i
		}
	}
	return -1
}

// Instr is one decoded instruction.
type Instr struct {
	Offset int
	Op     Opcode
	Arg    int // first operand (slot, constant index or jump distance)
	Arg2   int // second operand (OpClosure default count)
	Next   int // offset of the following instruction
}

// Cursor is a restartable reader over a chunk's instruction stream.
type Cursor struct {
	chunk *Chunk
	pos   int
}

// NewCursor returns a cursor at the start of the chunk.
func NewCursor(c *Chunk) *Cursor {
	return &Cursor{chunk: c}
}

// Reset rewinds the cursor to offset.
func (cur *Cursor) Reset(offset int) {
	cur.pos = offset
}

// Pos returns the offset of the next instruction.
func (cur *Cursor) Pos() int {
	return cur.pos
}

// Next decodes the instruction at the cursor and advances past it.
// ok is false at the end of the stream.
func (cur *Cursor) Next() (in Instr, ok bool) {
	if cur.pos >= len(cur.chunk.Code) {
		return Instr{}, false
	}
	in = DecodeAt(cur.chunk, cur.pos)
	cur.pos = in.Next
	return in, true
}

// DecodeAt decodes the single instruction at offset.
func DecodeAt(c *Chunk, offset int) Instr {
	op := Opcode(c.Code[offset])
	in := Instr{Offset: offset, Op: op}
	switch OperandWidth(op) {
	case 0:
		in.Next = offset + 1
	case 1:
		in.Arg = int(c.Code[offset+1])
		in.Next = offset + 2
	case 2:
		in.Arg = c.ReadU16(offset + 1)
		in.Next = offset + 3
	case 3:
		in.Arg = c.ReadU16(offset + 1)
		in.Arg2 = int(c.Code[offset+3])
		in.Next = offset + 4
	}
	return in
}
