package disasm

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// FormatLine renders one instruction as "<pc> <MNEMONIC>[ 0x<hex>][ # == <target>]".
// Immediates are printed two lower-case hex digits per byte, zeros included.
func FormatLine(a Annotated) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(a.PC))
	b.WriteByte(' ')
	b.WriteString(a.Name())
	if a.Op.IsPush() {
		b.WriteString(" 0x")
		b.WriteString(hex.EncodeToString(a.Immediate))
	}
	if a.HasTarget {
		b.WriteString(" # == ")
		b.WriteString(strconv.FormatUint(a.Target, 10))
	}
	return b.String()
}

// Render joins the formatted lines with newlines. Every block start other
// than the first instruction is preceded by an empty line.
func Render(insts []Annotated) string {
	lines := make([]string, 0, len(insts)+len(insts)/8)
	for i, a := range insts {
		if a.BlockStart && i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, FormatLine(a))
	}
	return strings.Join(lines, "\n")
}
