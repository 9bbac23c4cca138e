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

// Package exclusive implements the global/local exclusive monitor backing
// load-linked/store-conditional across ARM11 cores. The design notes call
// out that a single-threaded emulator may use plain per-core arrays rather
// than a lock-protected structure; this implementation does exactly that,
// since the scheduler guarantees only one core ever runs at a time.
package exclusive

// span is a physical address range, half-open [Start, End).
type span struct {
	set        bool
	start, end uint32
}

func (s span) contains(addr uint32) bool {
	return s.set && addr >= s.start && addr < s.end
}

func (s span) overlaps(o span) bool {
	return s.set && o.set && s.start < o.end && o.start < s.end
}

// Monitor tracks, per core index, a local reservation and the shared global
// table of reservations visible to every core.
type Monitor struct {
	local  []span
	global []span
}

// New returns a monitor sized for numCores cores.
func New(numCores int) *Monitor {
	return &Monitor{
		local:  make([]span, numCores),
		global: make([]span, numCores),
	}
}

// SetExclusive marks core's local and global reservation over
// [paddr, paddr+size).
func (m *Monitor) SetExclusive(core int, paddr uint32, size uint32) {
	s := span{set: true, start: paddr, end: paddr + size}
	m.local[core] = s
	m.global[core] = s
}

// HasExclusive reports whether paddr lies within both core's local and
// global reservation.
func (m *Monitor) HasExclusive(core int, paddr uint32) bool {
	return m.local[core].contains(paddr) && m.global[core].contains(paddr)
}

// ClearGlobalExclusives clears every core's global reservation whose range
// overlaps [paddr, paddr+size). Called on every ordinary (or exclusive)
// store before its side effects become visible.
func (m *Monitor) ClearGlobalExclusives(paddr uint32, size uint32) {
	s := span{set: true, start: paddr, end: paddr + size}
	for i := range m.global {
		if m.global[i].overlaps(s) {
			m.global[i] = span{}
		}
	}
}

// ClearLocal drops core's own local reservation, e.g. on a context switch
// away from an exclusive sequence.
func (m *Monitor) ClearLocal(core int) {
	m.local[core] = span{}
}
