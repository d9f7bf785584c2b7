package cpu

import (
	"errors"
	"testing"

	"github.com/marrow-systems/r3000/internal/log"
	"github.com/marrow-systems/r3000/internal/memory"
)

type testWriter struct{ t *testing.T }

func (w testWriter) Write(b []byte) (int, error) {
	w.t.Helper()
	w.t.Logf("%s", b)

	return len(b), nil
}

func testLogger(t *testing.T) *log.Logger {
	t.Helper()
	return log.NewFormattedLogger(testWriter{t})
}

// newTestCore builds a Core over a blank BIOS image and loads prog into RAM starting at address
// 0, with PC set to the start of RAM (see cpuAtRAM) so Step exercises real fetched RAM
// instructions rather than zeroed BIOS.
func newTestCore(t *testing.T, prog []uint32) *Core {
	t.Helper()

	bios := make([]byte, memory.BIOSLength)
	bus, err := memory.New(bios, testLogger(t))
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}

	for i, word := range prog {
		if err := bus.WriteWord(uint32(i*4), word); err != nil {
			t.Fatalf("WriteWord: %v", err)
		}
	}

	c, err := cpuAtRAM(bus, t)
	if err != nil {
		t.Fatalf("cpuAtRAM: %v", err)
	}

	return c
}

// cpuAtRAM builds a Core whose PC starts at RAM address 0 rather than the reset vector, since
// tests write their programs directly into RAM for simplicity.
func cpuAtRAM(bus *memory.Bus, t *testing.T) (*Core, error) {
	t.Helper()

	c := &Core{Mem: bus, PC: memory.RAMBase, log: testLogger(t)}

	if err := c.fetch(); err != nil {
		return nil, err
	}

	return c, nil
}

func encodeI(op, rs, rt uint8, imm uint16) uint32 {
	return uint32(op)<<26 | uint32(rs)<<21 | uint32(rt)<<16 | uint32(imm)
}

func encodeR(rs, rt, rd, shamt, funct uint8) uint32 {
	return uint32(rs)<<21 | uint32(rt)<<16 | uint32(rd)<<11 | uint32(shamt)<<6 | uint32(funct)
}

func encodeJ(op uint8, target uint32) uint32 {
	return uint32(op)<<26 | (target & 0x03FF_FFFF)
}

func TestLuiOriLoadsAnImmediate(t *testing.T) {
	prog := []uint32{
		encodeI(0x0F, 0, 8, 0x1234), // LUI r8, 0x1234
		encodeI(0x0D, 8, 8, 0x5678), // ORI r8, r8, 0x5678
	}
	c := newTestCore(t, prog)

	c.Step()
	c.Step()

	if c.Reg[8] != 0x1234_5678 {
		t.Errorf("r8 = %#08x, want 0x12345678", c.Reg[8])
	}
}

func TestAddiuSignExtends(t *testing.T) {
	prog := []uint32{
		encodeI(0x09, 0, 8, 0xFFFF), // ADDIU r8, r0, -1
	}
	c := newTestCore(t, prog)

	c.Step()

	if c.Reg[8] != 0xFFFF_FFFF {
		t.Errorf("r8 = %#08x, want 0xFFFFFFFF", c.Reg[8])
	}
}

func TestTakenBranchDelaySlot(t *testing.T) {
	prog := []uint32{
		encodeI(0x04, 1, 2, 2), // BEQ r1, r2, +2
		encodeI(0x09, 0, 3, 7), // ADDIU r3, r0, 7 (delay slot)
		encodeI(0x00, 0, 0, 0), // NOP
		encodeI(0x00, 0, 0, 0), // NOP
	}
	c := newTestCore(t, prog)
	c.Reg[1], c.Reg[2] = 5, 5

	c.Step()
	c.Step()

	if c.Reg[3] != 7 {
		t.Errorf("r3 = %d, want 7", c.Reg[3])
	}

	if want := Word(memory.RAMBase + 16); c.PC != want {
		t.Errorf("PC = %#08x, want %#08x", c.PC, want)
	}
}

func TestAddOverflowTrapsButWritesWrappedResult(t *testing.T) {
	prog := []uint32{
		encodeR(1, 2, 3, 0, 0x20), // ADD r3, r1, r2
	}
	c := newTestCore(t, prog)
	c.Reg[1] = 0x7FFF_FFFF
	c.Reg[2] = 1

	status := c.Step()

	if status != StatusError {
		t.Fatalf("status = %s, want Error", status)
	}

	var arith *ArithmeticError
	if !errors.As(c.Err, &arith) {
		t.Fatalf("Err = %v, want *ArithmeticError", c.Err)
	}

	if c.Reg[3] != 0x8000_0000 {
		t.Errorf("r3 = %#08x, want 0x80000000 (wrapped)", c.Reg[3])
	}
}

func TestAdduDoesNotTrapOnOverflow(t *testing.T) {
	prog := []uint32{
		encodeR(1, 2, 3, 0, 0x21), // ADDU r3, r1, r2
	}
	c := newTestCore(t, prog)
	c.Reg[1] = 0xFFFF_FFFF
	c.Reg[2] = 1

	status := c.Step()

	if status != StatusRunning {
		t.Fatalf("status = %s, want Running", status)
	}

	if c.Reg[3] != 0 {
		t.Errorf("r3 = %#08x, want 0", c.Reg[3])
	}
}

func TestUnalignedLoadWordErrors(t *testing.T) {
	prog := []uint32{
		encodeI(0x23, 1, 2, 1), // LW r2, 1(r1)
	}
	c := newTestCore(t, prog)
	c.Reg[1] = 0

	status := c.Step()

	if status != StatusError {
		t.Fatalf("status = %s, want Error", status)
	}

	if !errors.Is(c.Err, memory.ErrUnaligned) {
		t.Errorf("Err = %v, want ErrUnaligned", c.Err)
	}
}

func TestBreakpointIsOneShot(t *testing.T) {
	prog := []uint32{
		encodeI(0x09, 0, 1, 1), // ADDIU r1, r0, 1
		encodeI(0x09, 0, 1, 1), // ADDIU r1, r0, 1
	}
	c := newTestCore(t, prog)
	c.AddBreakpoint(memory.RAMBase)

	if status := c.Step(); status != StatusBreakpoint {
		t.Fatalf("first step = %s, want Breakpoint", status)
	}

	if status := c.Step(); status != StatusRunning {
		t.Fatalf("second step = %s, want Running (breakpoint consumed)", status)
	}

	if len(c.Breakpoints) != 0 {
		t.Errorf("breakpoints = %v, want empty", c.Breakpoints)
	}
}

func TestBgtzUsesStrictlyGreaterThanZero(t *testing.T) {
	prog := []uint32{
		encodeI(0x07, 1, 0, 2), // BGTZ r1, +2
		encodeI(0x09, 0, 3, 1), // ADDIU r3, r0, 1 (delay slot)
		encodeI(0x00, 0, 0, 0),
		encodeI(0x00, 0, 0, 0),
	}
	c := newTestCore(t, prog)
	c.Reg[1] = 0 // zero must NOT take the branch, unlike the buggy rs >= 0 reading

	c.Step()
	c.Step()

	if want := Word(memory.RAMBase + 8); c.PC != want {
		t.Errorf("PC = %#08x, want %#08x (branch not taken)", c.PC, want)
	}
}

func TestDivByZeroIsDefinedNotFatal(t *testing.T) {
	prog := []uint32{
		encodeR(1, 2, 0, 0, 0x1A), // DIV r1, r2
	}
	c := newTestCore(t, prog)
	c.Reg[1] = 10
	c.Reg[2] = 0

	status := c.Step()

	if status != StatusRunning {
		t.Fatalf("status = %s, want Running", status)
	}

	if c.LO != 0xFFFF_FFFF || c.HI != 0 {
		t.Errorf("LO=%#08x HI=%#08x, want LO=0xFFFFFFFF HI=0", c.LO, c.HI)
	}
}

func TestRegisterZeroIsHardwired(t *testing.T) {
	prog := []uint32{
		encodeI(0x09, 0, 0, 42), // ADDIU r0, r0, 42
	}
	c := newTestCore(t, prog)

	c.Step()

	if c.Reg[0] != 0 {
		t.Errorf("r0 = %d, want 0", c.Reg[0])
	}
}

func TestJalLinksReturnAddressPastDelaySlot(t *testing.T) {
	prog := []uint32{
		encodeJ(0x03, (memory.RAMBase+16)>>2), // JAL RAM+16
		encodeI(0x09, 0, 0, 0),                // NOP delay slot
	}
	c := newTestCore(t, prog)

	c.Step()

	if c.Reg[31] != memory.RAMBase+8 {
		t.Errorf("r31 = %#08x, want %#08x", c.Reg[31], memory.RAMBase+8)
	}
}
