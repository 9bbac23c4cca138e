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

// Package fastmap implements the per-CPU page-fast map: a 2^20 entry table,
// one entry per 4KB page of virtual address space, encoding presence and
// permission bits alongside either a host memory pointer or (for MMIO pages)
// the underlying physical address.
//
// Go has no spare tag bits in a pointer, so an Entry is a small struct
// rather than a packed integer; the backed and MMIO encodings are treated
// as equivalent.
package fastmap

// PageBits is the page size shift; pages are 4KB.
const PageBits = 12
const PageSize = 1 << PageBits

// NumPages is the number of 4KB pages across a 32-bit address space.
const NumPages = 1 << (32 - PageBits)

// PageIndex returns the fast map index for a virtual address.
func PageIndex(vaddr uint32) uint32 {
	return vaddr >> PageBits
}

// PageOffset returns the offset of vaddr within its page.
func PageOffset(vaddr uint32) uint32 {
	return vaddr & (PageSize - 1)
}

// Perm is the set of permission bits carried by a fast map entry.
type Perm uint8

const (
	Present Perm = 1 << iota
	Read
	Write
	Execute
)

func (p Perm) Allows(want Perm) bool {
	if p&Present == 0 {
		return false
	}
	return p&want == want
}

// Entry is one page-fast-map slot. Backed pages carry a host memory slice and
// an offset from which the page's bytes start; MMIO pages carry the physical
// base address of the page instead, for dispatch through the device bus.
type Entry struct {
	Perm Perm
	MMIO bool

	// Backed-page fields.
	Host     []byte
	HostBase uint32 // physical address the Host slice starts at

	// MMIO-page fields.
	Physical uint32
}

// Map is a per-CPU page-fast map.
type Map struct {
	entries [NumPages]Entry
}

// NewMap returns a fast map with every page marked not-present.
func NewMap() *Map {
	return &Map{}
}

// Lookup returns the entry covering vaddr.
func (m *Map) Lookup(vaddr uint32) *Entry {
	return &m.entries[PageIndex(vaddr)]
}

// SetBacked maps a single 4KB page of virtual address space directly onto a
// host buffer starting at hostBase (a physical address within buf).
func (m *Map) SetBacked(vaddr uint32, buf []byte, hostBase uint32, perm Perm) {
	m.entries[PageIndex(vaddr)] = Entry{
		Perm:     perm | Present,
		Host:     buf,
		HostBase: hostBase,
	}
}

// SetMMIO marks a page as MMIO-backed, to be dispatched by physical address.
func (m *Map) SetMMIO(vaddr uint32, physical uint32, perm Perm) {
	m.entries[PageIndex(vaddr)] = Entry{
		Perm:     perm | Present,
		MMIO:     true,
		Physical: physical,
	}
}

// Clear marks the page as not-present.
func (m *Map) Clear(vaddr uint32) {
	m.entries[PageIndex(vaddr)] = Entry{}
}

// ClearAll resets every page to not-present. Used before a full PU/MMU
// rebuild so idempotence (identical inputs produce an identical map) holds
// without needing to diff the old map against the new one.
func (m *Map) ClearAll() {
	for i := range m.entries {
		m.entries[i] = Entry{}
	}
}

// Region is a run of consecutive present pages sharing the same permissions
// and backing kind, used by internal/diagnostics to render a map without
// walking all NumPages entries individually.
type Region struct {
	Start, End uint32 // virtual address range [Start, End)
	Perm       Perm
	MMIO       bool
}

// Regions compresses the present pages of m into a sorted list of runs.
func (m *Map) Regions() []Region {
	var regions []Region
	var cur *Region
	for i := 0; i < NumPages; i++ {
		e := &m.entries[i]
		vaddr := uint32(i) << PageBits
		if e.Perm&Present == 0 {
			cur = nil
			continue
		}
		if cur != nil && cur.Perm == e.Perm && cur.MMIO == e.MMIO && cur.End == vaddr {
			cur.End = vaddr + PageSize
			continue
		}
		regions = append(regions, Region{Start: vaddr, End: vaddr + PageSize, Perm: e.Perm, MMIO: e.MMIO})
		cur = &regions[len(regions)-1]
	}
	return regions
}

// Equal reports whether two maps are identical, used to test the
// page-fast-map idempotence invariant.
func Equal(a, b *Map) bool {
	for i := range a.entries {
		ea, eb := a.entries[i], b.entries[i]
		if ea.Perm != eb.Perm || ea.MMIO != eb.MMIO || ea.Physical != eb.Physical || ea.HostBase != eb.HostBase {
			return false
		}
		if len(ea.Host) != len(eb.Host) {
			return false
		}
	}
	return true
}
