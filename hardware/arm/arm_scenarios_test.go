// This file is part of Horizon3DS.
//
// Horizon3DS is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Horizon3DS is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Horizon3DS.  If not, see <https://www.gnu.org/licenses/>.

package arm

import (
	"testing"

	"github.com/horizon3ds/horizon/hardware/arm/psr"
	"github.com/horizon3ds/horizon/hardware/memory/bus"
)

// ADDS r2, r0, r1 with R0=0x7FFFFFFF, R1=1 overflows into N=1,Z=0,C=0,V=1.
func TestARMAddsOverflow(t *testing.T) {
	mem := make([]byte, 0x1000)
	putARM(mem, 0, 0xE0902001) // adds r2, r0, r1
	c, _ := newTestCore(ARM9Class, bus.ARM9, mem)
	c.Regs.R[0] = 0x7FFFFFFF
	c.Regs.R[1] = 0x00000001
	c.Regs.R[15] = 0

	if err := c.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if c.Regs.R[2] != 0x80000000 {
		t.Fatalf("r2 = 0x%08x, want 0x80000000", c.Regs.R[2])
	}
	if !c.Regs.CPSR.N || c.Regs.CPSR.Z || c.Regs.CPSR.C || !c.Regs.CPSR.V {
		t.Fatalf("flags N=%v Z=%v C=%v V=%v, want N=1 Z=0 C=0 V=1",
			c.Regs.CPSR.N, c.Regs.CPSR.Z, c.Regs.CPSR.C, c.Regs.CPSR.V)
	}
}

// S=0 data-processing instructions must never touch CPSR flags.
func TestARMConditionCodeSymmetryUnaffectedWhenSBitClear(t *testing.T) {
	mem := make([]byte, 0x1000)
	putARM(mem, 0, 0xE0802001) // add r2, r0, r1 (no S bit)
	c, _ := newTestCore(ARM9Class, bus.ARM9, mem)
	c.Regs.R[0] = 0x7FFFFFFF
	c.Regs.R[1] = 1
	c.Regs.R[15] = 0
	c.Regs.CPSR.N, c.Regs.CPSR.Z, c.Regs.CPSR.C, c.Regs.CPSR.V = true, true, true, true

	if err := c.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if c.Regs.R[2] != 0x80000000 {
		t.Fatalf("r2 = 0x%08x", c.Regs.R[2])
	}
	if !c.Regs.CPSR.N || !c.Regs.CPSR.Z || !c.Regs.CPSR.C || !c.Regs.CPSR.V {
		t.Fatalf("flags changed despite S=0: %+v", c.Regs.CPSR)
	}
}

// mode := A; mode := B; mode := A round-trips the visible register file when
// nothing in B touched R13/R14.
func TestModeSwapRoundTrip(t *testing.T) {
	var r psr.Registers
	r.Reset(0)
	r.R[13] = 0x1111
	r.R[14] = 0x2222

	r.SwitchMode(psr.IRQ)
	r.R[13] = 0xDEAD // mutate mode-B's banked r13
	r.SwitchMode(psr.SVC)

	if r.R[13] != 0x1111 || r.R[14] != 0x2222 {
		t.Fatalf("svc bank not restored: r13=0x%x r14=0x%x", r.R[13], r.R[14])
	}

	r.SwitchMode(psr.IRQ)
	if r.R[13] != 0xDEAD {
		t.Fatalf("irq bank lost its own write: r13=0x%x", r.R[13])
	}
}
