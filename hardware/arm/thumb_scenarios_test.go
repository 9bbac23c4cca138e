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

	"github.com/horizon3ds/horizon/hardware/memory/bus"
)

// A BL prefix/suffix pair at 0x1000/0x1002 with zero offsets leaves
// LR = 0x00001005 (Thumb-bit set) and PC = 0x00001004.
func TestThumbLongBranchLink(t *testing.T) {
	mem := make([]byte, 0x2000)
	putThumb(mem, 0x1000, 0xF000)
	putThumb(mem, 0x1002, 0xF800)

	c, _ := newTestCore(ARM11Class, bus.ARM11, mem)
	c.Regs.R[15] = 0x1000
	c.Regs.CPSR.Thumb = true

	if err := c.Step(); err != nil {
		t.Fatalf("prefix step: %v", err)
	}
	if err := c.Step(); err != nil {
		t.Fatalf("suffix step: %v", err)
	}

	if c.Regs.R[14] != 0x00001005 {
		t.Fatalf("lr = 0x%08x, want 0x00001005", c.Regs.R[14])
	}
	if c.Regs.R[15] != 0x00001004 {
		t.Fatalf("pc = 0x%08x, want 0x00001004", c.Regs.R[15])
	}
	if !c.Regs.CPSR.Thumb {
		t.Fatalf("expected to stay in thumb state after BL")
	}
}
