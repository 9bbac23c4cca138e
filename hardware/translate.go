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

package hardware

// rebuildARM9Tables re-runs the protection unit against the ARM9's region
// table whenever CP15 reports the address space changed, replacing the
// reset-time identity map with the guest's actual configuration.
//
// Both a privileged and a user fast map come out of pu.Unit.Rebuild, but
// Core.Bus carries a single Fast pointer with no mode-swap hook of its own.
// 3DS ARM9 firmware (bootrom, process9) runs in supervisor mode for
// essentially its whole lifetime, so the privileged map is kept live on the
// bus and the user map is rebuilt alongside it only so it stays available to
// internal/diagnostics and to satisfy Unit.Rebuild's documented contract.
func (s *System) rebuildARM9Tables() {
	c := s.ARM9.CP15
	if !c.Invalidated {
		return
	}
	c.Invalidated = false
	c.TLBFlush = false
	s.arm9PU.Regions = c.PU.Regions
	s.arm9PU.Rebuild(s.arm9Fast, s.arm9FastUser, s.ARM9RAM, arm9RAMBase)
	s.ARM9.Bus.Fast = s.arm9Fast
}

// rebuildARM11Tables does the ARM11 equivalent of rebuildARM9Tables: it
// walks the two-level page table rooted at TTBR1 whenever that core's CP15
// reports the space changed. Index 0 is ignored in favour of the unified
// table, per spec. The same single-map simplification applies.
func (s *System) rebuildARM11Tables(core int) {
	c := s.ARM11[core].CP15
	if !c.Invalidated {
		return
	}
	c.Invalidated = false
	c.TLBFlush = false
	if !c.MMUEnable {
		s.identityMap(s.arm11Fast[core], s.mmioRanges)
		s.ARM11[core].Bus.Fast = s.arm11Fast[core]
		return
	}
	mem := busMemory{sys: s}
	s.arm11MMU[core].Rebuild(c.TTBR1, s.arm11Fast[core], s.arm11FastUser[core], mem.mapRAM)
	s.ARM11[core].Bus.Fast = s.arm11Fast[core]
}
