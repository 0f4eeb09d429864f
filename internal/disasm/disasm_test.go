package disasm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gascompare/internal/evm"
)

func mustParse(t *testing.T, s string) []byte {
	t.Helper()
	code, err := ParseHex(s)
	if err != nil {
		t.Fatalf("ParseHex(%q) failed: %v", s, err)
	}
	return code
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{name: "prefixed", input: "0x6001", want: []byte{0x60, 0x01}},
		{name: "upper prefix", input: "0X5B", want: []byte{0x5b}},
		{name: "no prefix", input: "5b00", want: []byte{0x5b, 0x00}},
		{name: "surrounding whitespace", input: " 0x00\n", want: []byte{0x00}},
		{name: "empty after prefix", input: "0x", want: []byte{}},
		{name: "bad alphabet", input: "0xZZ", wantErr: true},
		{name: "odd length", input: "0x601", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHex(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidEncoding) {
					t.Fatalf("ParseHex(%q) error = %v, want ErrInvalidEncoding", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHex(%q) unexpected error: %v", tt.input, err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("ParseHex(%q) = %x, want %x", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeScenarios(t *testing.T) {
	tests := []struct {
		name     string
		bytecode string
		want     Stream
	}{
		{
			name:     "two pushes and a jump",
			bytecode: "0x6001600256",
			want: Stream{
				{PC: 0, Op: evm.PUSH1, Immediate: []byte{0x01}},
				{PC: 2, Op: evm.PUSH1, Immediate: []byte{0x02}},
				{PC: 4, Op: evm.JUMP},
			},
		},
		{
			name:     "jump to later jumpdest",
			bytecode: "0x5b6004565b",
			want: Stream{
				{PC: 0, Op: evm.JUMPDEST},
				{PC: 1, Op: evm.PUSH1, Immediate: []byte{0x04}},
				{PC: 3, Op: evm.JUMP},
				{PC: 4, Op: evm.JUMPDEST},
			},
		},
		{
			name:     "push at end without data",
			bytecode: "0x60",
			want:     Stream{{PC: 0, Op: evm.PUSH1, Immediate: []byte{}}},
		},
		{
			name:     "truncated push2",
			bytecode: "0x006101",
			want: Stream{
				{PC: 0, Op: evm.STOP},
				{PC: 1, Op: 0x61, Immediate: []byte{0x01}},
			},
		},
		{
			name:     "unassigned bytes advance by one",
			bytecode: "0x0c0d5b",
			want: Stream{
				{PC: 0, Op: 0x0c},
				{PC: 1, Op: 0x0d},
				{PC: 2, Op: evm.JUMPDEST},
			},
		},
		{
			name:     "push0 has no immediate",
			bytecode: "0x5f5f",
			want:     Stream{{PC: 0, Op: evm.PUSH0}, {PC: 1, Op: evm.PUSH0}},
		},
		{
			name:     "empty code",
			bytecode: "0x",
			want:     Stream{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(mustParse(t, tt.bytecode))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode(%s) mismatch (-want +got):\n%s", tt.bytecode, diff)
			}
		})
	}
}

// fixtures used by the structural properties below
var propertyInputs = []string{
	"0x",
	"0x00",
	"0x60",
	"0x7f0102",
	"0x6080604052348015600f57600080fd5b50603f80601d6000396000f3fe",
	"0x5b6004565b",
	"0x61ffff5b62000001",
	"0x0c0d0e0f1e1f21",
	"0x7f000000000000000000000000000000000000000000000000000000000000000100",
}

func TestDecodePartitionsCode(t *testing.T) {
	for _, input := range propertyInputs {
		t.Run(input, func(t *testing.T) {
			code := mustParse(t, input)
			s := Decode(code)

			next := 0
			for i, inst := range s {
				if inst.PC != next {
					t.Fatalf("instruction %d at pc %d, want %d", i, inst.PC, next)
				}
				if inst.Op != evm.OpCode(code[inst.PC]) {
					t.Fatalf("instruction %d opcode %#x, code has %#x", i, byte(inst.Op), code[inst.PC])
				}
				if inst.Immediate != nil && !inst.Op.IsPush() {
					t.Fatalf("non-push %s at pc %d has an immediate", inst.Name(), inst.PC)
				}
				if len(inst.Immediate) > inst.Op.ImmediateSize() {
					t.Fatalf("immediate at pc %d longer than declared", inst.PC)
				}
				next = inst.PC + inst.Size()
			}
			if next != len(code) {
				t.Fatalf("instructions cover %d bytes, code has %d", next, len(code))
			}
		})
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, input := range propertyInputs {
		code := mustParse(t, input)
		if got := Decode(code).Bytes(); !bytes.Equal(got, code) {
			t.Errorf("round trip of %s = %x", input, got)
		}
	}
}

func TestDecodeDoesNotAliasPastImmediate(t *testing.T) {
	code := []byte{0x60, 0xaa, 0x00}
	s := Decode(code)
	if cap(s[0].Immediate) != 1 {
		t.Fatalf("immediate capacity = %d, want 1", cap(s[0].Immediate))
	}
}

func TestDisassembleHexInvalid(t *testing.T) {
	for _, input := range []string{"0xZZ", "0x601"} {
		if _, err := DisassembleHex(input); !errors.Is(err, ErrInvalidEncoding) {
			t.Errorf("DisassembleHex(%q) error = %v, want ErrInvalidEncoding", input, err)
		}
	}
}
