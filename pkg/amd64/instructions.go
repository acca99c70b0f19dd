package amd64

// This file contains x86_64 instruction encoders.
// Each function returns the machine code bytes for a specific instruction.
//
// For details on x86-64 instruction encoding (REX prefixes, ModRM, SIB bytes),
// see: https://wiki.osdev.org/X86-64_Instruction_Encoding

// MovabsRCX encodes: movabs $imm64, %rcx (48 B9 <imm64>)
// Loads a 64-bit immediate into RCX.
func MovabsRCX(imm64 uint64) []byte {
	// REX.W (48) = 64-bit operand
	// B8+r = mov imm64 to register, with RCX: B9
	buf := make([]byte, 10)
	buf[0] = 0x48
	buf[1] = 0xB9
	writeLE64(buf[2:], imm64)
	return buf
}

// AddbImm8AtRCX encodes: addb $imm8, (%rcx) (80 01 <imm8>)
// Adds an unsigned 8-bit immediate to the byte at (%rcx).
func AddbImm8AtRCX(imm8 uint8) []byte {
	// 80 /0 ib = add r/m8, imm8
	// ModRM: 00 (no disp) 000 (/0) 001 (rcx) = 01
	return []byte{0x80, 0x01, imm8}
}

// SubbImm8AtRCX encodes: subb $imm8, (%rcx) (80 29 <imm8>)
// Subtracts an unsigned 8-bit immediate from the byte at (%rcx).
func SubbImm8AtRCX(imm8 uint8) []byte {
	// 80 /5 ib = sub r/m8, imm8
	// ModRM: 00 (no disp) 101 (/5) 001 (rcx) = 29
	return []byte{0x80, 0x29, imm8}
}

// CmpbZeroAtRCX encodes: cmpb $0, (%rcx) (80 39 00)
// Compares the byte at (%rcx) against zero, setting flags.
func CmpbZeroAtRCX() []byte {
	// 80 /7 ib = cmp r/m8, imm8
	// ModRM: 00 (no disp) 111 (/7) 001 (rcx) = 39
	return []byte{0x80, 0x39, 0x00}
}

// LeaRCXDisp32 encodes: leaq disp32(%rcx), %rcx (48 8D 89 <disp32>)
// Adjusts RCX by a signed 32-bit displacement without touching flags.
func LeaRCXDisp32(disp32 int32) []byte {
	// REX.W (48) + 8D /r = lea r64, m
	// ModRM: 10 (disp32) 001 (rcx) 001 (rcx) = 89
	buf := make([]byte, 7)
	buf[0] = 0x48
	buf[1] = 0x8D
	buf[2] = 0x89
	writeLE32(buf[3:], uint32(disp32))
	return buf
}

// CmpECXImm32 encodes: cmpl $imm32, %ecx (81 F9 <imm32>)
// 32-bit compare of ECX against an immediate.
func CmpECXImm32(imm32 uint32) []byte {
	// 81 /7 id = cmp r/m32, imm32
	// ModRM: 11 (reg) 111 (/7) 001 (ecx) = F9
	buf := make([]byte, 6)
	buf[0] = 0x81
	buf[1] = 0xF9
	writeLE32(buf[2:], imm32)
	return buf
}

// SubECXImm32 encodes: subl $imm32, %ecx (81 E9 <imm32>)
// Subtracts an immediate from ECX; the upper half of RCX zeroes, which
// is fine while the cell buffer sits below the 4 GiB boundary.
func SubECXImm32(imm32 uint32) []byte {
	// 81 /5 id = sub r/m32, imm32
	// ModRM: 11 (reg) 101 (/5) 001 (ecx) = E9
	buf := make([]byte, 6)
	buf[0] = 0x81
	buf[1] = 0xE9
	writeLE32(buf[2:], imm32)
	return buf
}

// JbShort encodes: jb rel8 (72 <rel8>)
// Jump if below (unsigned). rel8 is relative to end of instruction.
func JbShort(rel8 int8) []byte {
	return []byte{0x72, byte(rel8)}
}

// JaeShort encodes: jae rel8 (73 <rel8>)
// Jump if above or equal (unsigned). rel8 is relative to end of instruction.
func JaeShort(rel8 int8) []byte {
	return []byte{0x73, byte(rel8)}
}

// JeRel32 encodes: je rel32 (0F 84 <rel32>)
// Jump if zero flag is set. rel32 is relative to end of instruction.
func JeRel32(rel32 int32) []byte {
	buf := make([]byte, 6)
	buf[0] = 0x0F
	buf[1] = 0x84
	writeLE32(buf[2:], uint32(rel32))
	return buf
}

// JneRel32 encodes: jne rel32 (0F 85 <rel32>)
// Jump if zero flag is not set. rel32 is relative to end of instruction.
func JneRel32(rel32 int32) []byte {
	buf := make([]byte, 6)
	buf[0] = 0x0F
	buf[1] = 0x85
	writeLE32(buf[2:], uint32(rel32))
	return buf
}

// MovR15RCX encodes: movq %rcx, %r15 (49 89 CF)
// Copies RCX into R15.
func MovR15RCX() []byte {
	// REX.WB (49) = REX.W + REX.B (r15 in rm)
	// 89 /r = mov r/m64, r64
	// ModRM: 11 (reg-reg) 001 (rcx) 111 (r15) = CF
	return []byte{0x49, 0x89, 0xCF}
}

// MovRCXR15 encodes: movq %r15, %rcx (4C 89 F9)
// Copies R15 into RCX.
func MovRCXR15() []byte {
	// REX.WR (4C) = REX.W + REX.R (r15 in reg)
	// 89 /r = mov r/m64, r64
	// ModRM: 11 (reg-reg) 111 (r15) 001 (rcx) = F9
	return []byte{0x4C, 0x89, 0xF9}
}

// MovRSIRCX encodes: movq %rcx, %rsi (48 89 CE)
// Copies RCX into RSI.
func MovRSIRCX() []byte {
	// 89 /r = mov r/m64, r64
	// ModRM: 11 (reg-reg) 001 (rcx) 110 (rsi) = CE
	return []byte{0x48, 0x89, 0xCE}
}

// MovqImm32RAX encodes: movq $imm32, %rax (48 C7 C0 <imm32>)
// Load 32-bit sign-extended immediate into RAX.
func MovqImm32RAX(imm32 int32) []byte {
	buf := make([]byte, 7)
	buf[0] = 0x48 // REX.W
	buf[1] = 0xC7 // mov r/m64, imm32
	buf[2] = 0xC0 // ModRM: 11 000 000 (rax)
	writeLE32(buf[3:], uint32(imm32))
	return buf
}

// MovqImm32RDI encodes: movq $imm32, %rdi (48 C7 C7 <imm32>)
// Load 32-bit sign-extended immediate into RDI.
func MovqImm32RDI(imm32 int32) []byte {
	buf := make([]byte, 7)
	buf[0] = 0x48 // REX.W
	buf[1] = 0xC7 // mov r/m64, imm32
	buf[2] = 0xC7 // ModRM: 11 000 111 (rdi)
	writeLE32(buf[3:], uint32(imm32))
	return buf
}

// MovqImm32RDX encodes: movq $imm32, %rdx (48 C7 C2 <imm32>)
// Load 32-bit sign-extended immediate into RDX.
func MovqImm32RDX(imm32 int32) []byte {
	buf := make([]byte, 7)
	buf[0] = 0x48 // REX.W
	buf[1] = 0xC7 // mov r/m64, imm32
	buf[2] = 0xC2 // ModRM: 11 000 010 (rdx)
	writeLE32(buf[3:], uint32(imm32))
	return buf
}

// Syscall encodes: syscall (0F 05)
func Syscall() []byte {
	return []byte{0x0F, 0x05}
}
