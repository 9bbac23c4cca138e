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

// Package cp15 implements the ARM system-control coprocessor register set
// shared by both ARM9 and ARM11 cores: MMU/PU enable, translation table
// base, fault registers, and the ARM9 protection-unit descriptors.
package cp15

import "github.com/horizon3ds/horizon/hardware/arm/pu"

// Op addresses a CP15 register as (opc1<<8)|(CRm<<4)|opc2.
type Op uint32

const (
	OpCPUID        Op = 0x005
	OpControl      Op = 0x100
	OpTTBR0        Op = 0x200
	OpTTBR1        Op = 0x201
	OpPUDataPerm   Op = 0x502
	OpPUInstrPerm  Op = 0x503
	OpPURegionBase Op = 0x600 // region N at OpPURegionBase + N*0x10
	OpWFI          Op = 0x704
	OpInvalidateTLB Op = 0x870
)

// CP15 is one core's coprocessor register file.
type CP15 struct {
	CPUID uint32

	MMUEnable  bool
	HighVectors bool

	TTBR0, TTBR1 uint32

	DataFaultAddr, DataFaultStatus     uint32
	InstrFaultAddr, InstrFaultStatus   uint32

	PU pu.Unit

	// Invalidated is set whenever a write alters the address space; the
	// owning core must notice this and drop its cached fast-map pointer,
	// per the CP15 side-effect contract.
	Invalidated bool

	// Halted is set by a WFI write; the core's execCoprocessor moves it into
	// the core's own Halted flag and clears it right after the write.
	Halted bool

	// TLBFlush is set by an explicit invalidate-TLB write, requesting the
	// MMU walker re-run.
	TLBFlush bool
}

// New returns a CP15 register file identifying the owning core by cpuID (the
// ARM11 MPCore core number, or a fixed ARM946E-S identifier for the ARM9).
func New(cpuID uint32) *CP15 {
	return &CP15{CPUID: cpuID}
}

// MRC reads a CP15 register.
func (c *CP15) MRC(op Op) uint32 {
	switch {
	case op == OpCPUID:
		return c.CPUID
	case op == OpControl:
		var v uint32
		if c.MMUEnable {
			v |= 1
		}
		if c.HighVectors {
			v |= 1 << 13
		}
		return v
	case op == OpTTBR0:
		return c.TTBR0
	case op == OpTTBR1:
		return c.TTBR1
	case op == OpPUDataPerm:
		return c.packPUPerm(true)
	case op == OpPUInstrPerm:
		return c.packPUPerm(false)
	case op >= OpPURegionBase && op <= OpPURegionBase+0x70 && (uint32(op-OpPURegionBase))%0x10 == 0:
		n := (op - OpPURegionBase) / 0x10
		return c.PU.Regions[n].Raw
	}
	return 0
}

// MCR writes a CP15 register, applying the documented side effects.
func (c *CP15) MCR(op Op, value uint32) {
	switch {
	case op == OpControl:
		c.MMUEnable = value&1 != 0
		c.HighVectors = value&(1<<13) != 0
		c.Invalidated = true
	case op == OpTTBR0:
		c.TTBR0 = value &^ 0x3FFF
		c.Invalidated = true
	case op == OpTTBR1:
		c.TTBR1 = value &^ 0x3FFF
		c.Invalidated = true
	case op == OpPUDataPerm:
		c.unpackPUPerm(true, value)
		c.Invalidated = true
	case op == OpPUInstrPerm:
		c.unpackPUPerm(false, value)
		c.Invalidated = true
	case op >= OpPURegionBase && op <= OpPURegionBase+0x70 && (uint32(op-OpPURegionBase))%0x10 == 0:
		n := (op - OpPURegionBase) / 0x10
		c.PU.Regions[n].Raw = value
		c.Invalidated = true
	case op == OpWFI:
		c.Halted = true
	case op == OpInvalidateTLB:
		c.TLBFlush = true
		c.Invalidated = true
	}
}

func (c *CP15) packPUPerm(data bool) uint32 {
	var v uint32
	for i := 0; i < pu.NumRegions; i++ {
		var nib uint32
		if data {
			nib = c.PU.Regions[i].DataNib
		} else {
			nib = c.PU.Regions[i].InstrNib
		}
		v |= (nib & 0xF) << (i * 4)
	}
	return v
}

func (c *CP15) unpackPUPerm(data bool, value uint32) {
	for i := 0; i < pu.NumRegions; i++ {
		nib := (value >> (i * 4)) & 0xF
		if data {
			c.PU.Regions[i].DataNib = nib
		} else {
			c.PU.Regions[i].InstrNib = nib
		}
	}
}
