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

package devices

const (
	cfg11Base        = 0x10140000
	cfg11Size        = 0x2000
	bootOverlayBase  = 0x10141310
	numBootOverlays  = 4
)

// CFG11 backs the clock-control and boot-overlay register range. The boot
// overlay registers are a per-core write-once release latch: the first write
// to 0x10141310+core_id invokes Release(core_id) (which the orchestrator uses
// to start that ARM11 core fetching at its configured entry point); every
// later write to the same register is a no-op, since real firmware only ever
// fires this once per core during bring-up.
type CFG11 struct {
	regs *RegisterFile

	// Release is invoked the first time core_id's overlay register is
	// written. May be nil in tests that don't care about the side effect.
	Release func(core int)

	released [numBootOverlays]bool
}

// NewCFG11 returns a CFG11 device covering the full clock-control/boot
// overlay range.
func NewCFG11() *CFG11 {
	return &CFG11{regs: NewRegisterFile(cfg11Base, cfg11Size)}
}

func (c *CFG11) ReadMMIO(width int, addr uint32) (uint64, error) {
	if err := checkWidth(widths(1, 2, 4), width, addr); err != nil {
		return 0, err
	}
	return c.regs.Read(width, addr), nil
}

func (c *CFG11) WriteMMIO(width int, addr uint32, value uint64) error {
	if err := checkWidth(widths(1, 2, 4), width, addr); err != nil {
		return err
	}
	c.regs.Write(width, addr, value)

	if addr >= bootOverlayBase && addr < bootOverlayBase+numBootOverlays {
		core := int(addr - bootOverlayBase)
		if !c.released[core] {
			c.released[core] = true
			if c.Release != nil {
				c.Release(core)
			}
		}
	}
	return nil
}
