package cpu

// ops.go implements every instruction the core gives defined behavior to. Each method reads its
// operands from the register file, computes a result, and writes it back (or redirects PC, for
// branches and jumps); none of them touch Status directly except through fail, which the memory
// and arithmetic helpers call on a trap.

// -- Arithmetic, trapping ---------------------------------------------------

func addOverflows(a, b, sum int32) bool {
	return (a >= 0) == (b >= 0) && (sum >= 0) != (a >= 0)
}

func subOverflows(a, b, diff int32) bool {
	return (a >= 0) != (b >= 0) && (diff >= 0) != (a >= 0)
}

func (c *Core) add(ins Instruction) {
	a := int32(c.Reg[ins.Rs()])
	b := int32(c.Reg[ins.Rt()])
	sum := a + b

	c.Reg.Set(ins.Rd(), Word(uint32(sum)))

	if addOverflows(a, b, sum) {
		c.fail(&ArithmeticError{Instruction: ins, Result: Word(uint32(sum))})
	}
}

func (c *Core) addi(ins Instruction) {
	a := int32(c.Reg[ins.Rs()])
	b := int32(ins.SignExtImm())
	sum := a + b

	c.Reg.Set(ins.Rt(), Word(uint32(sum)))

	if addOverflows(a, b, sum) {
		c.fail(&ArithmeticError{Instruction: ins, Result: Word(uint32(sum))})
	}
}

func (c *Core) sub(ins Instruction) {
	a := int32(c.Reg[ins.Rs()])
	b := int32(c.Reg[ins.Rt()])
	diff := a - b

	c.Reg.Set(ins.Rd(), Word(uint32(diff)))

	if subOverflows(a, b, diff) {
		c.fail(&ArithmeticError{Instruction: ins, Result: Word(uint32(diff))})
	}
}

func (c *Core) addu(ins Instruction) {
	c.Reg.Set(ins.Rd(), c.Reg[ins.Rs()]+c.Reg[ins.Rt()])
}

func (c *Core) addiu(ins Instruction) {
	c.Reg.Set(ins.Rt(), c.Reg[ins.Rs()]+ins.SignExtImm())
}

func (c *Core) subu(ins Instruction) {
	c.Reg.Set(ins.Rd(), c.Reg[ins.Rs()]-c.Reg[ins.Rt()])
}

// -- Logic -------------------------------------------------------------------

func (c *Core) and(ins Instruction)  { c.Reg.Set(ins.Rd(), c.Reg[ins.Rs()]&c.Reg[ins.Rt()]) }
func (c *Core) or(ins Instruction)   { c.Reg.Set(ins.Rd(), c.Reg[ins.Rs()]|c.Reg[ins.Rt()]) }
func (c *Core) xor(ins Instruction)  { c.Reg.Set(ins.Rd(), c.Reg[ins.Rs()]^c.Reg[ins.Rt()]) }
func (c *Core) nor(ins Instruction)  { c.Reg.Set(ins.Rd(), ^(c.Reg[ins.Rs()] | c.Reg[ins.Rt()])) }
func (c *Core) andi(ins Instruction) { c.Reg.Set(ins.Rt(), c.Reg[ins.Rs()]&ins.ZeroExtImm()) }
func (c *Core) ori(ins Instruction)  { c.Reg.Set(ins.Rt(), c.Reg[ins.Rs()]|ins.ZeroExtImm()) }
func (c *Core) xori(ins Instruction) { c.Reg.Set(ins.Rt(), c.Reg[ins.Rs()]^ins.ZeroExtImm()) }
func (c *Core) lui(ins Instruction)  { c.Reg.Set(ins.Rt(), Word(uint32(ins.Imm16())<<16)) }

// -- Shifts --------------------------------------------------------------------

func (c *Core) sll(ins Instruction) {
	c.Reg.Set(ins.Rd(), c.Reg[ins.Rt()]<<ins.Shamt())
}

func (c *Core) srl(ins Instruction) {
	c.Reg.Set(ins.Rd(), c.Reg[ins.Rt()]>>ins.Shamt())
}

func (c *Core) sra(ins Instruction) {
	c.Reg.Set(ins.Rd(), Word(int32(c.Reg[ins.Rt()])>>ins.Shamt()))
}

func (c *Core) sllv(ins Instruction) {
	shamt := c.Reg[ins.Rs()] & 0x1F
	c.Reg.Set(ins.Rd(), c.Reg[ins.Rt()]<<shamt)
}

func (c *Core) srlv(ins Instruction) {
	shamt := c.Reg[ins.Rs()] & 0x1F
	c.Reg.Set(ins.Rd(), c.Reg[ins.Rt()]>>shamt)
}

func (c *Core) srav(ins Instruction) {
	shamt := c.Reg[ins.Rs()] & 0x1F
	c.Reg.Set(ins.Rd(), Word(int32(c.Reg[ins.Rt()])>>shamt))
}

// -- Comparisons ---------------------------------------------------------------

func (c *Core) slt(ins Instruction) {
	v := Word(0)
	if int32(c.Reg[ins.Rs()]) < int32(c.Reg[ins.Rt()]) {
		v = 1
	}

	c.Reg.Set(ins.Rd(), v)
}

func (c *Core) sltu(ins Instruction) {
	v := Word(0)
	if c.Reg[ins.Rs()] < c.Reg[ins.Rt()] {
		v = 1
	}

	c.Reg.Set(ins.Rd(), v)
}

func (c *Core) slti(ins Instruction) {
	v := Word(0)
	if int32(c.Reg[ins.Rs()]) < int32(ins.SignExtImm()) {
		v = 1
	}

	c.Reg.Set(ins.Rt(), v)
}

func (c *Core) sltiu(ins Instruction) {
	v := Word(0)
	if c.Reg[ins.Rs()] < ins.SignExtImm() {
		v = 1
	}

	c.Reg.Set(ins.Rt(), v)
}

// -- Multiply/divide -------------------------------------------------------------

func (c *Core) mult(ins Instruction) {
	product := int64(int32(c.Reg[ins.Rs()])) * int64(int32(c.Reg[ins.Rt()]))
	c.LO = Word(uint32(product))
	c.HI = Word(uint32(product >> 32))
}

func (c *Core) multu(ins Instruction) {
	product := uint64(c.Reg[ins.Rs()]) * uint64(c.Reg[ins.Rt()])
	c.LO = Word(uint32(product))
	c.HI = Word(uint32(product >> 32))
}

func (c *Core) div(ins Instruction) {
	num := int32(c.Reg[ins.Rs()])
	den := int32(c.Reg[ins.Rt()])

	switch {
	case den == 0:
		// Division by zero is architecturally undefined; we define it as an all-ones quotient
		// and a zero remainder rather than aborting the core.
		c.LO = 0xFFFF_FFFF
		c.HI = 0
	case num == -0x8000_0000 && den == -1:
		// The one case where the wrapped quotient doesn't fit in int32: INT32_MIN / -1 wraps
		// back to INT32_MIN with a zero remainder.
		c.LO = Word(uint32(num))
		c.HI = 0
	default:
		c.LO = Word(uint32(num / den))
		c.HI = Word(uint32(num % den))
	}
}

func (c *Core) divu(ins Instruction) {
	num := uint32(c.Reg[ins.Rs()])
	den := uint32(c.Reg[ins.Rt()])

	if den == 0 {
		c.LO = 0xFFFF_FFFF
		c.HI = 0
		return
	}

	c.LO = Word(num / den)
	c.HI = Word(num % den)
}

func (c *Core) mfhi(ins Instruction) { c.Reg.Set(ins.Rd(), c.HI) }
func (c *Core) mflo(ins Instruction) { c.Reg.Set(ins.Rd(), c.LO) }
func (c *Core) mthi(ins Instruction) { c.HI = c.Reg[ins.Rs()] }
func (c *Core) mtlo(ins Instruction) { c.LO = c.Reg[ins.Rs()] }

// -- Loads/stores ----------------------------------------------------------------

func (c *Core) effectiveAddr(ins Instruction) Word {
	return c.Reg[ins.Rs()] + ins.SignExtImm()
}

func (c *Core) lb(ins Instruction) {
	addr := c.effectiveAddr(ins)
	v := int8(c.Mem.ReadByte(uint32(addr)))
	c.Reg.Set(ins.Rt(), Word(int32(v)))
}

func (c *Core) lbu(ins Instruction) {
	addr := c.effectiveAddr(ins)
	c.Reg.Set(ins.Rt(), Word(c.Mem.ReadByte(uint32(addr))))
}

func (c *Core) lh(ins Instruction) {
	addr := c.effectiveAddr(ins)
	if v, ok := c.readHalfword(addr); ok {
		c.Reg.Set(ins.Rt(), Word(int32(int16(v))))
	}
}

func (c *Core) lhu(ins Instruction) {
	addr := c.effectiveAddr(ins)
	if v, ok := c.readHalfword(addr); ok {
		c.Reg.Set(ins.Rt(), Word(v))
	}
}

func (c *Core) lw(ins Instruction) {
	addr := c.effectiveAddr(ins)
	if v, ok := c.readWord(addr); ok {
		c.Reg.Set(ins.Rt(), v)
	}
}

func (c *Core) sb(ins Instruction) {
	addr := c.effectiveAddr(ins)
	c.Mem.WriteByte(uint32(addr), byte(c.Reg[ins.Rt()]))
}

func (c *Core) sh(ins Instruction) {
	addr := c.effectiveAddr(ins)
	c.writeHalfword(addr, uint16(c.Reg[ins.Rt()]))
}

func (c *Core) sw(ins Instruction) {
	addr := c.effectiveAddr(ins)
	c.writeWord(addr, c.Reg[ins.Rt()])
}

// -- Jumps/branches -----------------------------------------------------------------

func (c *Core) j(ins Instruction) {
	target := (uint32(c.PC) & 0xF000_0000) | (ins.Target26() << 2)
	c.branch(Word(target))
}

func (c *Core) jal(ins Instruction) {
	c.Reg.Set(31, c.PC+8)

	target := (uint32(c.PC) & 0xF000_0000) | (ins.Target26() << 2)
	c.branch(Word(target))
}

func (c *Core) jr(ins Instruction) {
	c.branch(c.Reg[ins.Rs()])
}

func (c *Core) jalr(ins Instruction) {
	target := c.Reg[ins.Rs()]
	c.Reg.Set(ins.Rd(), c.PC+4)
	c.branch(target)
}

func (c *Core) branchOffset(ins Instruction) Word {
	return c.PC + 4 + (ins.SignExtImm() << 2)
}

func (c *Core) beq(ins Instruction) {
	if c.Reg[ins.Rs()] == c.Reg[ins.Rt()] {
		c.branch(c.branchOffset(ins))
	}
}

func (c *Core) bne(ins Instruction) {
	if c.Reg[ins.Rs()] != c.Reg[ins.Rt()] {
		c.branch(c.branchOffset(ins))
	}
}

func (c *Core) blez(ins Instruction) {
	if int32(c.Reg[ins.Rs()]) <= 0 {
		c.branch(c.branchOffset(ins))
	}
}

// bgtz implements "branch if greater than zero" as rs > 0, signed. The reference implementation
// this core was modeled on tests rs >= 0 here, which makes BGTZ behave identically to BGEZ; that
// is a bug in the source, not an intentional encoding, so it is corrected here.
func (c *Core) bgtz(ins Instruction) {
	if int32(c.Reg[ins.Rs()]) > 0 {
		c.branch(c.branchOffset(ins))
	}
}

func (c *Core) bltz(ins Instruction) {
	if int32(c.Reg[ins.Rs()]) < 0 {
		c.branch(c.branchOffset(ins))
	}
}

func (c *Core) bgez(ins Instruction) {
	if int32(c.Reg[ins.Rs()]) >= 0 {
		c.branch(c.branchOffset(ins))
	}
}

func (c *Core) bltzal(ins Instruction) {
	c.Reg.Set(31, c.PC+4)

	if int32(c.Reg[ins.Rs()]) < 0 {
		c.branch(c.branchOffset(ins))
	}
}

func (c *Core) bgezal(ins Instruction) {
	c.Reg.Set(31, c.PC+4)

	if int32(c.Reg[ins.Rs()]) >= 0 {
		c.branch(c.branchOffset(ins))
	}
}

// -- Coprocessor 0 --------------------------------------------------------------------

func (c *Core) mfc0(ins Instruction) {
	c.Reg.Set(ins.Rt(), c.COP0[ins.Rd()&0x0F])
}

func (c *Core) mtc0(ins Instruction) {
	c.COP0[ins.Rd()&0x0F] = c.Reg[ins.Rt()]
}
