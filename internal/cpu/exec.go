package cpu

// Step retires exactly one instruction and returns the resulting status. The sequence is:
//
//  1. if the previous step ended on a breakpoint, clear it back to Running;
//  2. load Current, either by promoting the previously-fetched delay-slot instruction or by
//     fetching fresh from PC;
//  3. decode and execute Current;
//  4. if the address Current was retired from (PC before step 3) matches an installed
//     breakpoint, consume it and report Breakpoint;
//  5. advance PC by 4, unless Current itself redirected PC (a taken branch or jump).
func (c *Core) Step() Status {
	if c.Status == StatusBreakpoint {
		c.Status = StatusRunning
	}

	if c.BranchDelay {
		c.Current = c.Next
		c.BranchDelay = false
	} else if err := c.fetch(); err != nil {
		c.Status = StatusError
		c.Err = err

		return c.Status
	}

	c.Status = StatusRunning
	c.Err = nil
	c.tookBranch = false

	retiredPC := c.PC

	c.dispatch(c.Current)
	c.Cycles++

	for i, bp := range c.Breakpoints {
		if bp == retiredPC {
			c.Breakpoints = append(c.Breakpoints[:i], c.Breakpoints[i+1:]...)

			if c.Status != StatusError {
				c.Status = StatusBreakpoint
			}

			break
		}
	}

	if !c.tookBranch {
		c.PC += 4
	}

	return c.Status
}

// fail records err as the reason for a StatusError outcome. Register state written before the
// fault (e.g. a trapping ADD's wrapped sum) is left in place; the core does not unwind.
func (c *Core) fail(err error) {
	c.Status = StatusError
	c.Err = err
}

// branch redirects control to target, taking effect on this step and holding the already-fetched
// Next instruction as the delay slot for the following step.
func (c *Core) branch(target Word) {
	c.PC = target
	c.BranchDelay = true
	c.tookBranch = true
}

func (c *Core) dispatch(ins Instruction) {
	switch ins.Op() {
	case 0x00:
		c.dispatchSpecial(ins)
	case 0x01:
		c.dispatchRegimm(ins)
	case 0x02:
		c.j(ins)
	case 0x03:
		c.jal(ins)
	case 0x04:
		c.beq(ins)
	case 0x05:
		c.bne(ins)
	case 0x06:
		c.blez(ins)
	case 0x07:
		c.bgtz(ins)
	case 0x08:
		c.addi(ins)
	case 0x09:
		c.addiu(ins)
	case 0x0A:
		c.slti(ins)
	case 0x0B:
		c.sltiu(ins)
	case 0x0C:
		c.andi(ins)
	case 0x0D:
		c.ori(ins)
	case 0x0E:
		c.xori(ins)
	case 0x0F:
		c.lui(ins)
	case 0x10:
		c.dispatchCOP0(ins)
	case 0x20:
		c.lb(ins)
	case 0x21:
		c.lh(ins)
	case 0x22, 0x26:
		c.fail(&DecodeError{Instruction: ins, Reason: ErrUnimplementedOpcode})
	case 0x23:
		c.lw(ins)
	case 0x24:
		c.lbu(ins)
	case 0x25:
		c.lhu(ins)
	case 0x28:
		c.sb(ins)
	case 0x29:
		c.sh(ins)
	case 0x2A, 0x2E:
		c.fail(&DecodeError{Instruction: ins, Reason: ErrUnimplementedOpcode})
	case 0x2B:
		c.sw(ins)
	default:
		// Every other primary opcode (COP1-3, unassigned ranges) retires as a no-op: the
		// machine this core imitates has no floating-point or user-defined coprocessors.
	}
}

func (c *Core) dispatchSpecial(ins Instruction) {
	switch ins.Funct() {
	case 0x00:
		c.sll(ins)
	case 0x02:
		c.srl(ins)
	case 0x03:
		c.sra(ins)
	case 0x04:
		c.sllv(ins)
	case 0x06:
		c.srlv(ins)
	case 0x07:
		c.srav(ins)
	case 0x08:
		c.jr(ins)
	case 0x09:
		c.jalr(ins)
	case 0x0C:
		c.fail(&DecodeError{Instruction: ins, Reason: ErrUnimplementedOpcode})
	case 0x0D:
		c.fail(&DecodeError{Instruction: ins, Reason: ErrUnimplementedOpcode})
	case 0x10:
		c.mfhi(ins)
	case 0x11:
		c.mthi(ins)
	case 0x12:
		c.mflo(ins)
	case 0x13:
		c.mtlo(ins)
	case 0x18:
		c.mult(ins)
	case 0x19:
		c.multu(ins)
	case 0x1A:
		c.div(ins)
	case 0x1B:
		c.divu(ins)
	case 0x20:
		c.add(ins)
	case 0x21:
		c.addu(ins)
	case 0x22:
		c.sub(ins)
	case 0x23:
		c.subu(ins)
	case 0x24:
		c.and(ins)
	case 0x25:
		c.or(ins)
	case 0x26:
		c.xor(ins)
	case 0x27:
		c.nor(ins)
	case 0x2A:
		c.slt(ins)
	case 0x2B:
		c.sltu(ins)
	default:
		// SPECIAL functs outside the table above (shift-reserved slots, LWL/LWR/SWL/SWR's
		// sibling encodings, etc.) retire as no-ops.
	}
}

func (c *Core) dispatchRegimm(ins Instruction) {
	switch ins.Rt() {
	case 0x00:
		c.bltz(ins)
	case 0x01:
		c.bgez(ins)
	case 0x10:
		c.bltzal(ins)
	case 0x11:
		c.bgezal(ins)
	default:
		c.fail(&DecodeError{Instruction: ins, Reason: ErrInvalidEncoding})
	}
}

func (c *Core) dispatchCOP0(ins Instruction) {
	switch ins.Rs() {
	case 0x00:
		c.mfc0(ins)
	case 0x04:
		c.mtc0(ins)
	default:
		c.fail(&DecodeError{Instruction: ins, Reason: ErrInvalidEncoding})
	}
}

// load/store helpers translate a memory.AccessError into a core-level fault.

func (c *Core) readWord(addr Word) (Word, bool) {
	v, err := c.Mem.ReadWord(uint32(addr))
	if err != nil {
		c.fail(err)
		return 0, false
	}

	return Word(v), true
}

func (c *Core) readHalfword(addr Word) (uint16, bool) {
	v, err := c.Mem.ReadHalfword(uint32(addr))
	if err != nil {
		c.fail(err)
		return 0, false
	}

	return v, true
}

func (c *Core) writeWord(addr, v Word) {
	if err := c.Mem.WriteWord(uint32(addr), uint32(v)); err != nil {
		c.fail(err)
	}
}

func (c *Core) writeHalfword(addr Word, v uint16) {
	if err := c.Mem.WriteHalfword(uint32(addr), v); err != nil {
		c.fail(err)
	}
}
