package neo

import (
	"encoding/binary"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/vm/opcode"
)

// Instruction is a single decoded VM instruction. Operand holds the pushed
// or embedded bytes, without the length prefix.
type Instruction struct {
	Op      opcode.Opcode
	Operand []byte
}

// operandSize maps opcodes to their fixed operand width. PUSHDATA1/2/4 are
// handled separately because their width is a length prefix.
var operandSize = map[opcode.Opcode]int{
	opcode.PUSHINT8:   1,
	opcode.PUSHINT16:  2,
	opcode.PUSHINT32:  4,
	opcode.PUSHINT64:  8,
	opcode.PUSHINT128: 16,
	opcode.PUSHINT256: 32,
	opcode.PUSHA:      4,
	opcode.JMP:        1,
	opcode.JMPL:       4,
	opcode.JMPIF:      1,
	opcode.JMPIFL:     4,
	opcode.JMPIFNOT:   1,
	opcode.JMPIFNOTL:  4,
	opcode.JMPEQ:      1,
	opcode.JMPEQL:     4,
	opcode.JMPNE:      1,
	opcode.JMPNEL:     4,
	opcode.JMPGT:      1,
	opcode.JMPGTL:     4,
	opcode.JMPGE:      1,
	opcode.JMPGEL:     4,
	opcode.JMPLT:      1,
	opcode.JMPLTL:     4,
	opcode.JMPLE:      1,
	opcode.JMPLEL:     4,
	opcode.CALL:       1,
	opcode.CALLL:      4,
	opcode.CALLT:      2,
	opcode.TRY:        2,
	opcode.TRYL:       8,
	opcode.ENDTRY:     1,
	opcode.ENDTRYL:    4,
	opcode.SYSCALL:    4,
	opcode.INITSSLOT:  1,
	opcode.INITSLOT:   2,
	opcode.LDSFLD:     1,
	opcode.STSFLD:     1,
	opcode.LDLOC:      1,
	opcode.STLOC:      1,
	opcode.LDARG:      1,
	opcode.STARG:      1,
	opcode.NEWARRAYT:  1,
	opcode.ISTYPE:     1,
	opcode.CONVERT:    1,
}

// Disassemble decodes a Neo N3 VM script into its instruction sequence.
// A truncated operand is an error; the caller gets everything decoded up
// to that point discarded.
func Disassemble(script []byte) ([]Instruction, error) {
	var out []Instruction

	for pos := 0; pos < len(script); {
		op := opcode.Opcode(script[pos])
		pos++

		var size int
		switch op {
		case opcode.PUSHDATA1:
			if pos+1 > len(script) {
				return nil, fmt.Errorf("truncated PUSHDATA1 prefix at %d", pos-1)
			}
			size = int(script[pos])
			pos++
		case opcode.PUSHDATA2:
			if pos+2 > len(script) {
				return nil, fmt.Errorf("truncated PUSHDATA2 prefix at %d", pos-1)
			}
			size = int(binary.LittleEndian.Uint16(script[pos:]))
			pos += 2
		case opcode.PUSHDATA4:
			if pos+4 > len(script) {
				return nil, fmt.Errorf("truncated PUSHDATA4 prefix at %d", pos-1)
			}
			size = int(binary.LittleEndian.Uint32(script[pos:]))
			pos += 4
		default:
			size = operandSize[op]
		}

		if pos+size > len(script) {
			return nil, fmt.Errorf("truncated operand for %s at %d", op, pos-1)
		}

		ins := Instruction{Op: op}
		if size > 0 {
			ins.Operand = script[pos : pos+size]
		}
		out = append(out, ins)
		pos += size
	}

	return out, nil
}

// FirstPushData2 returns the operand of the first PUSHDATA2 instruction in
// the script, or nil when the script has none or cannot be decoded. Deploy
// transactions push the contract manifest this way.
func FirstPushData2(script []byte) []byte {
	instructions, err := Disassemble(script)
	if err != nil {
		return nil
	}
	for _, ins := range instructions {
		if ins.Op == opcode.PUSHDATA2 {
			return ins.Operand
		}
	}
	return nil
}
