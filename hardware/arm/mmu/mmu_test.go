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

package mmu

import (
	"testing"

	"github.com/horizon3ds/horizon/hardware/memory/fastmap"
)

// fakeMemory is a flat word-addressable physical memory used only to host a
// page table for the walker to read.
type fakeMemory map[uint32]uint32

func (m fakeMemory) Read32(paddr uint32) uint32 { return m[paddr&^0x3] }

// A 1MB section entry must be spread across every 4KB page it covers, with
// APX/XN decoded into the expected privileged/user permissions.
func TestRebuildSectionEntry(t *testing.T) {
	const (
		ttbr  = 0x4000
		vaddr = 0x00400000
		paddr = 0x30000000
	)
	mem := fakeMemory{}
	l1Index := uint32(vaddr >> 20)
	// APX=3 (bits 10-11), XN=0: privileged and user both RWX.
	mem[ttbr+l1Index*4] = (paddr & 0xFFF00000) | (0x3 << 10) | 0x2

	w := &Walker{Mem: mem}
	priv, user := fastmap.NewMap(), fastmap.NewMap()
	mapRAM := func(p uint32) ([]byte, uint32, bool) {
		if p >= paddr && p < paddr+1024*1024 {
			return make([]byte, 1024*1024), paddr, true
		}
		return nil, 0, false
	}
	w.Rebuild(ttbr, priv, user, mapRAM)

	for _, off := range []uint32{0, fastmap.PageSize, 1024 * 1024 - fastmap.PageSize} {
		e := priv.Lookup(vaddr + off)
		if e.Perm&fastmap.Present == 0 {
			t.Fatalf("vaddr 0x%08x not present in privileged map", vaddr+off)
		}
		if !e.Perm.Allows(fastmap.Read | fastmap.Write | fastmap.Execute) {
			t.Fatalf("vaddr 0x%08x priv perm = %v, want RWX", vaddr+off, e.Perm)
		}
		if e.HostBase != paddr {
			t.Fatalf("vaddr 0x%08x HostBase = 0x%08x, want 0x%08x", vaddr+off, e.HostBase, paddr)
		}
	}

	// one page past the section's end must remain unmapped.
	if e := priv.Lookup(vaddr + 1024*1024); e.Perm&fastmap.Present != 0 {
		t.Fatal("page past the 1MB section end should not be present")
	}
}

// XN must clear Execute in both the privileged and user permission sets
// without otherwise changing APX's read/write decode.
func TestRebuildXNClearsExecute(t *testing.T) {
	const (
		ttbr  = 0x8000
		vaddr = 0x00800000
		paddr = 0x30000000
	)
	mem := fakeMemory{}
	l1Index := uint32(vaddr >> 20)
	// APX=1 (privileged RWX, user none), XN set (bit 4).
	mem[ttbr+l1Index*4] = (paddr & 0xFFF00000) | (0x1 << 10) | 0x2 | (1 << 4)

	w := &Walker{Mem: mem}
	priv, user := fastmap.NewMap(), fastmap.NewMap()
	mapRAM := func(p uint32) ([]byte, uint32, bool) { return make([]byte, 1024*1024), paddr, true }
	w.Rebuild(ttbr, priv, user, mapRAM)

	pe := priv.Lookup(vaddr)
	if pe.Perm&fastmap.Execute != 0 {
		t.Fatal("XN set but privileged entry still carries Execute")
	}
	if !pe.Perm.Allows(fastmap.Read | fastmap.Write) {
		t.Fatalf("privileged perm = %v, want RW (minus Execute from XN)", pe.Perm)
	}
	ue := user.Lookup(vaddr)
	if ue.Perm.Allows(fastmap.Read | fastmap.Write | fastmap.Execute) {
		t.Fatalf("user perm = %v, want no access for APX=1 (mapped but inaccessible)", ue.Perm)
	}
}

// An L1 page-table entry (type 1) must route through the L2 table, decoding
// a 4KB small-page entry's own APX/XN fields rather than the section's.
func TestRebuildL2SmallPage(t *testing.T) {
	const (
		ttbr   = 0xC000
		l2base = 0x10000
		vaddr  = 0x00C00000
		paddr  = 0x30001000
	)
	mem := fakeMemory{}
	l1Index := uint32(vaddr >> 20)
	mem[ttbr+l1Index*4] = l2base | 0x1 // type 1: page table

	l2Index := uint32(vaddr>>12) & 0xFF
	// APX=2 (priv RWX, user RX), XN=0, type=2/3 (small page).
	mem[l2base+l2Index*4] = (paddr &^ 0xFFF) | (0x2 << 4) | 0x2

	w := &Walker{Mem: mem}
	priv, user := fastmap.NewMap(), fastmap.NewMap()
	mapRAM := func(p uint32) ([]byte, uint32, bool) { return make([]byte, fastmap.PageSize), paddr, true }
	w.Rebuild(ttbr, priv, user, mapRAM)

	pe := priv.Lookup(vaddr)
	if !pe.Perm.Allows(fastmap.Read | fastmap.Write | fastmap.Execute) {
		t.Fatalf("privileged perm = %v, want RWX", pe.Perm)
	}
	ue := user.Lookup(vaddr)
	if ue.Perm.Allows(fastmap.Write) || !ue.Perm.Allows(fastmap.Read|fastmap.Execute) {
		t.Fatalf("user perm = %v, want RX without W", ue.Perm)
	}
}
