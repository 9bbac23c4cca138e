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
	"encoding/binary"

	"github.com/horizon3ds/horizon/hardware/arm/cp15"
	"github.com/horizon3ds/horizon/hardware/arm/exclusive"
	"github.com/horizon3ds/horizon/hardware/memory/bus"
	"github.com/horizon3ds/horizon/hardware/memory/fastmap"
)

// newTestCore returns a core whose fast map backs every 4KB page of mem
// flat from address 0, for tests that poke memory and registers directly
// rather than going through the full MMU/PU stack.
func newTestCore(class Class, kind bus.Kind, mem []byte) (*Core, *fastmap.Map) {
	fast := fastmap.NewMap()
	for off := 0; off < len(mem); off += fastmap.PageSize {
		fast.SetBacked(uint32(off), mem, 0, fastmap.Read|fastmap.Write|fastmap.Execute)
	}
	b := bus.New(kind, fast, bus.NewDispatcher())
	c := New(0, class, b, cp15.New(0), nil)
	c.Reset()
	return c, fast
}

func newSharedMonitorCores(mem []byte) (*Core, *Core) {
	fast := fastmap.NewMap()
	fast.SetBacked(0, mem, 0, fastmap.Read|fastmap.Write|fastmap.Execute)
	mon := exclusive.New(2)
	b0 := bus.New(bus.ARM11, fast, bus.NewDispatcher())
	b1 := bus.New(bus.ARM11, fast, bus.NewDispatcher())
	c0 := New(0, ARM11Class, b0, cp15.New(0), mon)
	c1 := New(1, ARM11Class, b1, cp15.New(1), mon)
	c0.Reset()
	c1.Reset()
	return c0, c1
}

func putARM(mem []byte, addr uint32, word uint32) {
	binary.LittleEndian.PutUint32(mem[addr:], word)
}

func putThumb(mem []byte, addr uint32, half uint16) {
	binary.LittleEndian.PutUint16(mem[addr:], half)
}
