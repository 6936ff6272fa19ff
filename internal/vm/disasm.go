package vm

import (
	"fmt"
	"strings"

	"github.com/internetimagery/donot/pkg/object"
)

// Disassemble renders a chunk as human-readable instruction listing,
// recursing into any units held in the constant pool.
func Disassemble(c *Chunk, name string) string {
	var sb strings.Builder
	disassemble(&sb, c, name)
	return sb.String()
}

func disassemble(sb *strings.Builder, c *Chunk, name string) {
	fmt.Fprintf(sb, "== %s ==\n", name)
	cur := NewCursor(c)
	for {
		in, ok := cur.Next()
		if !ok {
			break
		}
		writeInstr(sb, c, in)
	}
	for _, constant := range c.Constants {
		if u, ok := constant.(*Unit); ok {
			sb.WriteByte('\n')
			disassemble(sb, u.Chunk, u.Name)
		}
	}
}

func writeInstr(sb *strings.Builder, c *Chunk, in Instr) {
	fmt.Fprintf(sb, "%04d ", in.Offset)
	if in.Offset > 0 && c.Lines[in.Offset] == c.Lines[in.Offset-1] {
		sb.WriteString("   | ")
	} else {
		fmt.Fprintf(sb, "%4d ", c.Lines[in.Offset])
	}

	opName := OpcodeNames[in.Op]
	switch in.Op {
	case OpConst, OpGetGlobal, OpDispatch:
		fmt.Fprintf(sb, "%-16s %4d '%s'\n", opName, in.Arg, constantText(c, in.Arg))
	case OpGetLocal, OpSetLocal:
		if in.Arg < len(c.VarNames) {
			fmt.Fprintf(sb, "%-16s %4d (%s)\n", opName, in.Arg, c.VarNames[in.Arg])
		} else {
			fmt.Fprintf(sb, "%-16s %4d\n", opName, in.Arg)
		}
	case OpUnpack, OpMakeTuple, OpMakeList, OpCall:
		fmt.Fprintf(sb, "%-16s %4d\n", opName, in.Arg)
	case OpJump, OpJumpIfFalse, OpJumpIfTrue:
		fmt.Fprintf(sb, "%-16s %4d -> %d\n", opName, in.Arg, in.Next+in.Arg)
	case OpLoopIfFalse, OpLoopIfTrue:
		fmt.Fprintf(sb, "%-16s %4d -> %d\n", opName, in.Arg, in.Next-in.Arg)
	case OpClosure:
		fmt.Fprintf(sb, "%-16s %4d '%s' defaults=%d\n", opName, in.Arg, constantText(c, in.Arg), in.Arg2)
	default:
		fmt.Fprintf(sb, "%s\n", opName)
	}
}

func constantText(c *Chunk, idx int) string {
	if idx >= len(c.Constants) {
		return "?"
	}
	switch v := c.Constants[idx].(type) {
	case *object.String:
		return v.Value
	default:
		return v.Inspect()
	}
}
