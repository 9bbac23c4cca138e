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

package teak

import "testing"

type flatMemory []uint16

func (m flatMemory) ReadWord(addr uint32) uint16    { return m[addr] }
func (m flatMemory) WriteWord(addr uint32, v uint16) { m[addr] = v }

// BKREP #3, end with a single-instruction body "add #1, a0" runs the body
// four times (the initial pass plus three repeats), leaving a0 = 4.
func TestBKREPLoop(t *testing.T) {
	mem := make(flatMemory, 16)
	mem[0] = 0x1000 | 3 // BKREP #3, end (class 0x1, count=3)
	mem[1] = 2          // end address: the body's single instruction, at PC=2
	mem[2] = 0x2000 | 1 // ADD #1, a0 (class 0x2, dest=a0, imm=1)

	c := New(mem)
	c.PC = 0

	// BKREP itself, then four passes through the one-instruction body.
	for i := 0; i < 5; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	if c.A0 != 4 {
		t.Fatalf("a0 = %d, want 4", c.A0)
	}
	if c.repeatDepth != 0 {
		t.Fatalf("block-repeat stack not retired: depth=%d", c.repeatDepth)
	}
}
