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

// Package mmu implements the ARM11's two-level page-table walker, rebuilding
// the privileged and user page-fast maps from the translation-table-base
// register whenever the MMU is (re)enabled or explicitly invalidated.
package mmu

import "github.com/horizon3ds/horizon/hardware/memory/fastmap"

// apxPrivileged and apxUser decode the 3-bit APX access-permission index
// into effective permissions.
var apxPrivileged = [8]fastmap.Perm{
	0: 0,
	1: fastmap.Read | fastmap.Write | fastmap.Execute,
	2: fastmap.Read | fastmap.Write | fastmap.Execute,
	3: fastmap.Read | fastmap.Write | fastmap.Execute,
	4: 0,
	5: fastmap.Read | fastmap.Execute,
	6: fastmap.Read | fastmap.Execute,
	7: fastmap.Read | fastmap.Execute,
}

var apxUser = [8]fastmap.Perm{
	0: 0,
	1: 0,
	2: fastmap.Read | fastmap.Execute,
	3: fastmap.Read | fastmap.Write | fastmap.Execute,
	4: 0,
	5: 0,
	6: fastmap.Read | fastmap.Execute,
	7: fastmap.Read | fastmap.Execute,
}

// Memory abstracts a physical-address reader used to walk page tables; the
// caller supplies this over whichever backing buffers are mapped at the
// table's physical location (FCRAM, AXI RAM).
type Memory interface {
	Read32(paddr uint32) uint32
}

// Walker rebuilds fast maps from a first-level table base.
type Walker struct {
	Mem Memory
}

func perm(apx uint32, xn bool, privTable, userTable [8]fastmap.Perm) (priv, user fastmap.Perm) {
	priv = privTable[apx&7]
	user = userTable[apx&7]
	if xn {
		priv &^= fastmap.Execute
		user &^= fastmap.Execute
	}
	return
}

// Rebuild walks every first-level entry reachable from ttbr and fills the
// privileged and user fast maps. It does not attempt demand-paging; it
// simply walks everything up front, which keeps repeated rebuilds of an
// unchanged table trivially idempotent (same table -> same map).
func (w *Walker) Rebuild(ttbr uint32, priv, user *fastmap.Map, mapRAM func(paddr uint32) (buf []byte, base uint32, ok bool)) {
	priv.ClearAll()
	user.ClearAll()

	base := ttbr &^ 0x3FFF
	for i := uint32(0); i < 4096; i++ {
		entry := w.Mem.Read32(base + i*4)
		vaddrBase := i << 20

		switch entry & 0x3 {
		case 0, 3:
			continue
		case 2:
			if entry&(1<<18) != 0 {
				w.fillRange(vaddrBase, entry&0xFF000000, 16*1024*1024,
					(entry>>10)&0x3|((entry>>15)&1)<<2, entry&(1<<4) != 0,
					priv, user, mapRAM)
			} else {
				w.fillRange(vaddrBase, entry&0xFFF00000, 1*1024*1024,
					(entry>>10)&0x3|((entry>>15)&1)<<2, entry&(1<<4) != 0,
					priv, user, mapRAM)
			}
		case 1:
			l2base := entry &^ 0x3FF
			for j := uint32(0); j < 256; j++ {
				l2 := w.Mem.Read32(l2base + j*4)
				vaddr := vaddrBase + j*fastmap.PageSize
				switch l2 & 0x3 {
				case 0:
					continue
				case 1:
					// 64KB large page: covers 16 consecutive 4KB fast-map
					// slots starting at the 64KB-aligned vaddr.
					lpBase := vaddr &^ 0xFFFF
					w.fillRange(lpBase, l2&0xFFFF0000, 64*1024,
						(l2>>4)&0x3|((l2>>9)&1)<<2, l2&1 != 0,
						priv, user, mapRAM)
				default:
					w.fillRange(vaddr, l2&^0xFFF, fastmap.PageSize,
						(l2>>4)&0x3|((l2>>9)&1)<<2, l2&1 != 0,
						priv, user, mapRAM)
				}
			}
		}
	}
}

func (w *Walker) fillRange(vaddrBase, paddrBase, size, apx uint32, xn bool, priv, user *fastmap.Map, mapRAM func(uint32) ([]byte, uint32, bool)) {
	pp, up := perm(apx, xn, apxPrivileged, apxUser)
	for off := uint32(0); off < size; off += fastmap.PageSize {
		vaddr := vaddrBase + off
		paddr := paddrBase + off
		if buf, base, ok := mapRAM(paddr); ok {
			priv.SetBacked(vaddr, buf, base, pp)
			user.SetBacked(vaddr, buf, base, up)
		} else {
			priv.SetMMIO(vaddr, paddr, pp)
			user.SetMMIO(vaddr, paddr, up)
		}
	}
}
