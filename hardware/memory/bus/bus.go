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

// Package bus implements the address-space abstraction every CPU core reads
// and writes through: translation via a cached page-fast-map entry, a
// permission check against the current access class, and dispatch either
// directly into host memory or out to an MMIO device handler.
package bus

import (
	"encoding/binary"

	"github.com/horizon3ds/horizon/errors"
	"github.com/horizon3ds/horizon/hardware/memory/fastmap"
)

// Class distinguishes a data access from an instruction fetch, since the two
// fault differently (data-abort vs prefetch-abort) and carry independent
// permission bits.
type Class int

const (
	Data Class = iota
	Instruction
)

// Kind identifies which alignment contract a core is bound to.
type Kind int

const (
	ARM9 Kind = iota
	ARM11
)

// Device is an MMIO handler. A missing handler for a dispatched physical
// address is a fatal error, per the bus/address map contract.
type Device interface {
	ReadMMIO(width int, addr uint32) (uint64, error)
	WriteMMIO(width int, addr uint32, value uint64) error
}

// Dispatcher routes a physical address to the device that owns it. Ranges
// are checked in registration order; the bus map is deliberately simple
// (linear scan) since the device count is small and lookups are not on the
// fast path — the fast map is.
type Dispatcher struct {
	ranges []route
}

type route struct {
	start, end uint32
	dev        Device
}

// NewDispatcher returns an empty MMIO dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register binds a half-open physical range [start, end) to a device.
func (d *Dispatcher) Register(start, end uint32, dev Device) {
	d.ranges = append(d.ranges, route{start, end, dev})
}

func (d *Dispatcher) find(addr uint32) Device {
	for i := range d.ranges {
		r := &d.ranges[i]
		if addr >= r.start && addr < r.end {
			return r.dev
		}
	}
	return nil
}

// Bus is the per-CPU view of the address space: a cached fast map plus a
// shared MMIO dispatcher.
type Bus struct {
	Fast *fastmap.Map
	MMIO *Dispatcher
	Kind Kind
}

// New returns a bus bound to the given fast map and MMIO dispatcher.
func New(kind Kind, fast *fastmap.Map, mmio *Dispatcher) *Bus {
	return &Bus{Fast: fast, MMIO: mmio, Kind: kind}
}

func wantPerm(class Class) fastmap.Perm {
	if class == Instruction {
		return fastmap.Execute
	}
	return fastmap.Read
}

func (b *Bus) fault(class Class, addr uint32, reason string) error {
	if class == Instruction {
		return errors.Errorf(errors.PrefetchAbort, reason)
	}
	return errors.Errorf(errors.DataAbort, reason)
}

// translate resolves vaddr to its fast-map entry and checks the requested
// permission, returning a typed guest fault on failure.
func (b *Bus) translate(class Class, vaddr uint32, want fastmap.Perm) (*fastmap.Entry, error) {
	e := b.Fast.Lookup(vaddr)
	if e.Perm&fastmap.Present == 0 {
		return nil, b.fault(class, vaddr, "page not present")
	}
	if !e.Perm.Allows(want) {
		return nil, b.fault(class, vaddr, "permission denied")
	}
	return e, nil
}

// crossesPage reports whether a width-byte access starting at vaddr reads
// past the end of its containing 4KB page.
func crossesPage(vaddr uint32, width int) bool {
	return fastmap.PageOffset(vaddr)+uint32(width) > fastmap.PageSize
}

// Read performs a guest read of the given width (1, 2, 4 or 8 bytes) through
// the fast map, applying each CPU kind's alignment contract.
func (b *Bus) Read(class Class, vaddr uint32, width int) (uint64, error) {
	if width == 8 {
		lo, err := b.Read(class, vaddr, 4)
		if err != nil {
			return 0, err
		}
		hi, err := b.Read(class, vaddr+4, 4)
		if err != nil {
			return 0, err
		}
		return lo | hi<<32, nil
	}

	aligned := vaddr & uint32(width-1)
	if aligned != 0 {
		if b.Kind == ARM9 {
			return 0, errors.Errorf(errors.UnalignedAccess, vaddr)
		}
		if width != 4 {
			return 0, errors.Errorf(errors.UnalignedAccess, vaddr)
		}
	}

	base := vaddr &^ uint32(width-1)
	e, err := b.translate(class, base, wantPerm(class))
	if err != nil {
		return 0, err
	}

	var v uint64
	if e.MMIO {
		if crossesPage(base, width) {
			return 0, errors.Errorf(errors.PageBoundaryCrossed, vaddr)
		}
		if b.MMIO == nil {
			return 0, errors.Errorf(errors.UnmappedMMIO, vaddr)
		}
		dev := b.MMIO.find(e.Physical + fastmap.PageOffset(base))
		if dev == nil {
			return 0, errors.Errorf(errors.UnmappedMMIO, vaddr)
		}
		v, err = dev.ReadMMIO(width, e.Physical+fastmap.PageOffset(base))
		if err != nil {
			return 0, err
		}
	} else {
		if crossesPage(base, width) {
			return 0, errors.Errorf(errors.PageBoundaryCrossed, vaddr)
		}
		off := base - e.HostBase
		switch width {
		case 1:
			v = uint64(e.Host[off])
		case 2:
			v = uint64(binary.LittleEndian.Uint16(e.Host[off:]))
		case 4:
			v = uint64(binary.LittleEndian.Uint32(e.Host[off:]))
		}
	}

	if width == 4 && aligned != 0 && b.Kind == ARM11 {
		// ARM11 unaligned word load: rotate right by (addr&3)*8, per the
		// bus alignment contract.
		rot := (vaddr & 3) * 8
		v32 := uint32(v)
		v = uint64(v32>>rot | v32<<(32-rot))
	}

	return v, nil
}

// Write performs a guest write of the given width through the fast map.
func (b *Bus) Write(class Class, vaddr uint32, width int, value uint64) error {
	if width == 8 {
		if err := b.Write(class, vaddr, 4, value&0xffffffff); err != nil {
			return err
		}
		return b.Write(class, vaddr+4, 4, value>>32)
	}

	if vaddr&uint32(width-1) != 0 {
		return errors.Errorf(errors.UnalignedAccess, vaddr)
	}

	e, err := b.translate(class, vaddr, fastmap.Write)
	if err != nil {
		return err
	}
	if crossesPage(vaddr, width) {
		return errors.Errorf(errors.PageBoundaryCrossed, vaddr)
	}

	if e.MMIO {
		if b.MMIO == nil {
			return errors.Errorf(errors.UnmappedMMIO, vaddr)
		}
		dev := b.MMIO.find(e.Physical + fastmap.PageOffset(vaddr))
		if dev == nil {
			return errors.Errorf(errors.UnmappedMMIO, vaddr)
		}
		return dev.WriteMMIO(width, e.Physical+fastmap.PageOffset(vaddr), value)
	}

	off := vaddr - e.HostBase
	switch width {
	case 1:
		e.Host[off] = byte(value)
	case 2:
		binary.LittleEndian.PutUint16(e.Host[off:], uint16(value))
	case 4:
		binary.LittleEndian.PutUint32(e.Host[off:], uint32(value))
	}
	return nil
}
