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

package irq

import (
	"fmt"

	"github.com/horizon3ds/horizon/errors"
)

// cpuInterfaceStride is the per-core register block size within the ARM11
// PMR range (0x17E00000-0x17E02000), matching the real GIC CPU interface's
// 0x100-byte-aligned banking across cores.
const cpuInterfaceStride = 0x100

const (
	regPriorityMask = 0x04
	regAck          = 0x0C
	regEOI          = 0x10
)

// MMIO exposes the distributor's four per-core CPU-interface registers
// (enable, priority mask, interrupt-acknowledge, end-of-interrupt) as a
// bus.Device covering the whole PMR range at once, dispatching by core
// according to address offset.
type MMIO struct {
	Dist *Distributor
}

// NewMMIO returns a bus.Device view of dist covering all NumCores CPU
// interfaces.
func NewMMIO(dist *Distributor) *MMIO {
	return &MMIO{Dist: dist}
}

func (m *MMIO) decode(addr uint32) (core int, reg uint32) {
	core = int(addr / cpuInterfaceStride)
	reg = addr % cpuInterfaceStride
	return
}

func (m *MMIO) ReadMMIO(width int, addr uint32) (uint64, error) {
	core, reg := m.decode(addr)
	if core >= NumCores {
		return 0, errors.Errorf(errors.UnmappedMMIO, fmt.Sprintf("irq core=%d addr=0x%08x", core, addr))
	}
	switch reg {
	case regAck:
		return uint64(uint32(m.Dist.ReadAck(core))), nil
	case regPriorityMask:
		return uint64(m.Dist.cpus[core].priorityMask), nil
	}
	return 0, errors.Errorf(errors.UnmappedMMIO, addr)
}

func (m *MMIO) WriteMMIO(width int, addr uint32, value uint64) error {
	core, reg := m.decode(addr)
	if core >= NumCores {
		return errors.Errorf(errors.UnmappedMMIO, fmt.Sprintf("irq core=%d addr=0x%08x", core, addr))
	}
	switch reg {
	case regPriorityMask:
		m.Dist.SetPriorityMask(core, uint8(value))
		return nil
	case regEOI:
		m.Dist.WriteEOI(core, int(value))
		return nil
	case 0x00:
		m.Dist.SetEnabled(core, value&0x1 != 0)
		return nil
	}
	return errors.Errorf(errors.UnmappedMMIO, addr)
}
