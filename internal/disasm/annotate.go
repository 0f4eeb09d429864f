package disasm

import "gascompare/internal/evm"

// MaxTargetWidth is the widest push immediate checked against jump
// destinations. Three bytes cover every offset a deployable contract has.
const MaxTargetWidth = 3

const maxInt = int(^uint(0) >> 1)

// JumpDests is the set of JUMPDEST offsets of one contract.
type JumpDests map[int]struct{}

// CollectJumpDests returns the PCs of every JUMPDEST in s.
func CollectJumpDests(s Stream) JumpDests {
	dests := make(JumpDests)
	for _, inst := range s {
		if inst.Op == evm.JUMPDEST {
			dests[inst.PC] = struct{}{}
		}
	}
	return dests
}

// Contains reports whether pc is a jump destination. Values above the
// platform int range are never offsets.
func (d JumpDests) Contains(pc uint64) bool {
	if pc > uint64(maxInt) {
		return false
	}
	_, ok := d[int(pc)]
	return ok
}

// Annotated is an instruction with the facts derived from the whole stream.
type Annotated struct {
	Instruction
	BlockStart bool   // instruction is a JUMPDEST
	Target     uint64 // value of the immediate, valid when HasTarget
	HasTarget  bool   // immediate names a JUMPDEST of the same code
}

// Annotate marks block starts and resolves push immediates of at most
// MaxTargetWidth bytes that equal a JUMPDEST offset.
func Annotate(s Stream) []Annotated {
	dests := CollectJumpDests(s)
	out := make([]Annotated, len(s))
	for i, inst := range s {
		a := Annotated{Instruction: inst, BlockStart: inst.Op == evm.JUMPDEST}
		if n := len(inst.Immediate); n > 0 && n <= MaxTargetWidth {
			if v := Uint(inst.Immediate); dests.Contains(v) {
				a.Target, a.HasTarget = v, true
			}
		}
		out[i] = a
	}
	return out
}

// Uint interprets b as a big-endian unsigned integer. Leading zero bytes
// do not change the value; an empty or all-zero slice is 0. Only the low
// eight bytes are significant.
func Uint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
