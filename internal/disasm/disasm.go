// Package disasm turns EVM runtime bytecode into a basic-block structured
// listing. Decoding, annotation and rendering are separate passes: jump
// targets can only be resolved once every JUMPDEST in the code is known.
package disasm

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"gascompare/internal/evm"
)

// ErrInvalidEncoding is returned for bytecode strings that are not hex.
var ErrInvalidEncoding = errors.New("invalid bytecode encoding")

// Instruction is a single decoded instruction.
type Instruction struct {
	PC        int        // offset of the opcode byte
	Op        evm.OpCode // opcode byte
	Immediate []byte     // push data, nil for non-push opcodes; may be truncated
}

// Name is the mnemonic of the instruction.
func (i Instruction) Name() string {
	return i.Op.String()
}

// Size is the number of code bytes the instruction occupies.
func (i Instruction) Size() int {
	return 1 + len(i.Immediate)
}

// Stream is a linear sequence of instructions ordered by PC.
type Stream []Instruction

// ParseHex decodes a bytecode string, with or without a 0x prefix.
func ParseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d", ErrInvalidEncoding, len(s))
	}
	code, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return code, nil
}

// Decode walks code once with a forward cursor. It never fails: unassigned
// bytes decode as one byte instructions and a push running past the end of
// the code keeps only the bytes that are present.
func Decode(code []byte) Stream {
	out := make(Stream, 0, len(code))
	for pc := 0; pc < len(code); {
		op := evm.OpCode(code[pc])
		inst := Instruction{PC: pc, Op: op}
		if n := op.ImmediateSize(); n > 0 {
			end := min(pc+1+n, len(code))
			inst.Immediate = code[pc+1 : end : end]
		}
		out = append(out, inst)
		pc += inst.Size()
	}
	return out
}

// Bytes re-encodes the stream.
func (s Stream) Bytes() []byte {
	var out []byte
	for _, inst := range s {
		out = append(out, byte(inst.Op))
		out = append(out, inst.Immediate...)
	}
	return out
}

// Disassemble runs decode, annotate and render over code.
func Disassemble(code []byte) string {
	return Render(Annotate(Decode(code)))
}

// DisassembleHex is Disassemble for a hex encoded bytecode string.
func DisassembleHex(bytecode string) (string, error) {
	code, err := ParseHex(bytecode)
	if err != nil {
		return "", err
	}
	return Disassemble(code), nil
}
