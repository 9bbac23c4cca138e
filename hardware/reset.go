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

import (
	"encoding/binary"

	"github.com/horizon3ds/horizon/hardware/arm"
	"github.com/horizon3ds/horizon/hardware/arm/cp15"
	"github.com/horizon3ds/horizon/hardware/arm/exclusive"
	"github.com/horizon3ds/horizon/hardware/arm/mmu"
	"github.com/horizon3ds/horizon/hardware/arm/pu"
	"github.com/horizon3ds/horizon/hardware/devices"
	"github.com/horizon3ds/horizon/hardware/i2c"
	"github.com/horizon3ds/horizon/hardware/irq"
	"github.com/horizon3ds/horizon/hardware/memory/bus"
	"github.com/horizon3ds/horizon/hardware/memory/fastmap"
	"github.com/horizon3ds/horizon/hardware/pxi"
	"github.com/horizon3ds/horizon/hardware/scheduler"
	"github.com/horizon3ds/horizon/hardware/teak"
)

// Physical base addresses for the backing buffers this emulator models.
// None of these is spelled out in the component list's own terms (it talks
// about the buffers by name, not by address), so they are picked to match
// real 3DS firmware's expectations, consistent with the addresses the // MMIO table does name for their neighbours.
const (
	arm9RAMBase = 0x08000000
	fcramBase   = 0x20000000
	axiRAMBase  = 0x1FF80000
	dspMemBase  = 0x1FF00000
	vramBase    = 0x18000000
	bootROMBase = 0xFFFF0000

	bootROMSize = 0x10000
)

// busMemory adapts a physical-address *System to the mmu.Memory and
// teak.Memory interfaces by walking the same backing buffers the fast maps
// are built from, independent of any particular core's translation state.
type busMemory struct{ sys *System }

func (m busMemory) mapRAM(paddr uint32) (buf []byte, base uint32, ok bool) {
	switch {
	case paddr >= arm9RAMBase && paddr < arm9RAMBase+uint32(len(m.sys.ARM9RAM)):
		return m.sys.ARM9RAM, arm9RAMBase, true
	case paddr >= fcramBase && paddr < fcramBase+uint32(len(m.sys.FCRAM)):
		return m.sys.FCRAM, fcramBase, true
	case paddr >= axiRAMBase && paddr < axiRAMBase+uint32(len(m.sys.AXIRAM)):
		return m.sys.AXIRAM, axiRAMBase, true
	case paddr >= dspMemBase && paddr < dspMemBase+uint32(len(m.sys.DSPMem)):
		return m.sys.DSPMem, dspMemBase, true
	case paddr >= vramBase && paddr < vramBase+uint32(len(m.sys.VRAM)):
		return m.sys.VRAM, vramBase, true
	case paddr >= bootROMBase && paddr < bootROMBase+uint32(len(m.sys.BootROM)):
		return m.sys.BootROM, bootROMBase, true
	}
	return nil, 0, false
}

// Read32 implements mmu.Memory: little-endian word reads used to walk page
// tables resident in guest RAM.
func (m busMemory) Read32(paddr uint32) uint32 {
	buf, base, ok := m.mapRAM(paddr)
	if !ok {
		return 0
	}
	off := paddr - base
	if off+4 > uint32(len(buf)) {
		return 0
	}
	return binary.LittleEndian.Uint32(buf[off:])
}

type dspMemory struct{ buf []byte }

func (m dspMemory) ReadWord(addr uint32) uint16 {
	off := addr * 2
	if off+2 > uint32(len(m.buf)) {
		return 0
	}
	return binary.LittleEndian.Uint16(m.buf[off:])
}

func (m dspMemory) WriteWord(addr uint32, v uint16) {
	off := addr * 2
	if off+2 > uint32(len(m.buf)) {
		return
	}
	binary.LittleEndian.PutUint16(m.buf[off:], v)
}

// identityMap fills dst with a flat physical-address mapping of every
// backing buffer plus every registered MMIO range, matching real hardware's
// reset state (MMU/PU not yet configured by firmware, so guest addresses
// equal physical addresses until the guest programs otherwise).
func (s *System) identityMap(dst *fastmap.Map, mmioRanges []mmioRange) {
	dst.ClearAll()
	backed := []struct {
		base uint32
		buf  []byte
	}{
		{arm9RAMBase, s.ARM9RAM},
		{fcramBase, s.FCRAM},
		{axiRAMBase, s.AXIRAM},
		{dspMemBase, s.DSPMem},
		{vramBase, s.VRAM},
		{bootROMBase, s.BootROM},
	}
	for _, b := range backed {
		for off := uint32(0); off < uint32(len(b.buf)); off += fastmap.PageSize {
			addr := b.base + off
			dst.SetBacked(addr, b.buf, b.base, fastmap.Read|fastmap.Write|fastmap.Execute)
		}
	}
	for _, r := range mmioRanges {
		for addr := r.start; addr < r.end; addr += fastmap.PageSize {
			dst.SetMMIO(addr, addr, fastmap.Read|fastmap.Write)
		}
	}
}

type mmioRange struct{ start, end uint32 }

// mmioRanges lists every registered device range so identityMap can mark
// their pages present; kept alongside Register calls in buildDispatcher.
func (s *System) buildDispatcher() (*bus.Dispatcher, []mmioRange) {
	d := bus.NewDispatcher()
	var ranges []mmioRange
	reg := func(start, end uint32, dev bus.Device) {
		d.Register(start, end, dev)
		ranges = append(ranges, mmioRange{start, end})
	}

	s.Devices.SysConfig = devices.NewSysConfig()
	reg(0x10000000, 0x10000020, s.Devices.SysConfig)

	reg(0x10008000, 0x1000800D, pxi.NewMMIO(s.Mailbox, pxi.ARM9))
	reg(0x1000E000, 0x1000E00D, pxi.NewMMIO(s.Mailbox, pxi.ARM11))

	s.Devices.AES = devices.NewCryptoEngine(0x10009000, 0x1000)
	reg(0x10009000, 0x1000A000, s.Devices.AES)
	s.Devices.SHA = devices.NewSHAEngine(0x1000A000, 0x1000)
	reg(0x1000A000, 0x1000B000, s.Devices.SHA)
	s.Devices.RSA = devices.NewCryptoEngine(0x1000B000, 0x1000)
	reg(0x1000B000, 0x1000C000, s.Devices.RSA)

	s.Devices.XDMA = devices.NewXDMA()
	reg(0x1000C000, 0x1000D000, s.Devices.XDMA)

	reg(0x10004000, 0x10004000+devices.GamecardSize, s.Devices.Gamecard)
	reg(0x10006000, 0x10006000+devices.NANDSize, s.Devices.NAND)

	for i, bus3 := range s.I2C {
		reg(0x10161000+uint32(i)*0x1000, 0x10161000+uint32(i)*0x1000+0x10, i2c.NewMMIO(bus3))
	}

	s.Devices.PRNG = devices.NewPRNG(0x10011000, 0)
	reg(0x10011000, 0x10012000, s.Devices.PRNG)

	s.Devices.OTP = devices.NewOTP(0x10012000, 0x100)
	reg(0x10012000, 0x10012100, s.Devices.OTP)

	s.Devices.CFG11 = devices.NewCFG11()
	reg(0x10140000, 0x10142000, s.Devices.CFG11)

	s.Devices.SPITouch = devices.NewSPITouch()
	reg(devices.SPITouchBase, devices.SPITouchBase+devices.SPITouchSize, s.Devices.SPITouch)

	s.Devices.HID = devices.NewHID(0x10146000)
	reg(0x10146000, 0x10146002, s.Devices.HID)

	s.Devices.WiFi = devices.NewWiFi()
	reg(devices.WiFiBase, devices.WiFiBase+devices.WiFiSize, s.Devices.WiFi)

	reg(0x17E00000, 0x17E02000, irq.NewMMIO(s.IRQ))

	reg(arm9AICBase, arm9AICBase+4, &arm9AIC{sys: s})

	return d, ranges
}

// arm9AICBase is the ARM9-side interrupt-acknowledge register's address.
// Real 3DS firmware's AIC has a considerably richer per-source enable/ack
// register set than this; this emulator only needs the aggregate pending
// condition PXI/I2C assert against the ARM9 core — the real AIC's per-source
// enable/ack detail has no bearing on anything else modelled here — so a
// single write-to-clear register stands in for it.
const arm9AICBase = 0x10001000

type arm9AIC struct{ sys *System }

func (a *arm9AIC) ReadMMIO(width int, addr uint32) (uint64, error) {
	if a.sys.arm9IRQPending {
		return 1, nil
	}
	return 0, nil
}

func (a *arm9AIC) WriteMMIO(width int, addr uint32, value uint64) error {
	a.sys.arm9IRQPending = false
	return nil
}

// Reset (re)builds the whole machine for the configured variant: backing
// buffers are sized and zeroed, every subsystem is constructed and wired to
// its neighbours, every core is placed at its reset vector, and ARM11 cores
// beyond core 0 start halted pending their boot-overlay release write.
func (s *System) Reset() error {
	v := s.Config.Variant
	s.ARM9RAM = make([]byte, v.ARM9RAMSize())
	s.FCRAM = make([]byte, v.FCRAMSize())
	s.QTMRAM = make([]byte, v.QTMRAMSize())
	s.AXIRAM = make([]byte, 512*1024)
	s.DSPMem = make([]byte, 512*1024)
	s.VRAM = make([]byte, 6*1024*1024)
	if s.BootROM == nil {
		s.BootROM = make([]byte, bootROMSize)
	}

	s.Monitor = exclusive.New(v.NumCores())
	s.IRQ = irq.New()
	s.Mailbox = pxi.New()
	for i := range s.I2C {
		s.I2C[i] = i2c.New(i2c.BusID(i))
	}
	s.MCU = i2c.NewMCU()
	s.MCU.OnReboot = func() { s.PendingReboot = true }
	s.I2C[1].Attach(i2c.MCUAddr, s.MCU)

	s.Devices.Gamecard = devices.NewGamecard()
	s.Devices.NAND = devices.NewNAND()

	dispatcher, ranges := s.buildDispatcher()
	s.arm9MMIO = dispatcher
	s.arm11MMIO = dispatcher
	s.mmioRanges = ranges

	s.arm9Fast = fastmap.NewMap()
	s.arm9FastUser = fastmap.NewMap()
	s.identityMap(s.arm9Fast, ranges)
	arm9Bus := bus.New(bus.ARM9, s.arm9Fast, dispatcher)
	arm9CP15 := cp15.New(0x0946F000)
	s.arm9PU = &pu.Unit{}
	s.ARM9 = arm.New(0, arm.ARM9Class, arm9Bus, arm9CP15, nil)
	s.ARM9.Reset()

	mem := busMemory{sys: s}
	for i := 0; i < maxCores; i++ {
		s.arm11Fast[i] = fastmap.NewMap()
		s.arm11FastUser[i] = fastmap.NewMap()
		s.identityMap(s.arm11Fast[i], ranges)
		b := bus.New(bus.ARM11, s.arm11Fast[i], dispatcher)
		c := cp15.New(uint32(i))
		s.arm11MMU[i] = &mmu.Walker{Mem: mem}
		core := arm.New(i, arm.ARM11Class, b, c, s.Monitor)
		core.Reset()
		if i >= v.NumCores() {
			core.Halted = true
		}
		core.IRQLine = s.irqLineFunc(i)
		s.ARM11[i] = core
	}

	s.IRQ.SetSignal = func(core int, pending bool) {
		if core < maxCores {
			s.irqSignal[core] = pending
			if pending {
				s.ARM11[core].AssertIRQ()
			}
		}
	}

	s.Teak = teak.New(dspMemory{buf: s.DSPMem})

	s.Scheduler = scheduler.New()
	s.wireScheduler()

	s.Devices.CFG11.Release = func(core int) {
		if core < maxCores {
			s.ARM11[core].Regs.Jump(s.Config.BootOverlayEntry[core], true)
			s.ARM11[core].Halted = false
		}
	}

	// PXI interrupts target whichever side is the *receiver*: an
	// ARM9-targeted raise wakes the ARM9 core's own (unmodelled-in-detail)
	// interrupt line, while an ARM11-targeted raise goes through the MPCore
	// distributor like every other ARM11 peripheral interrupt.
	s.Mailbox.RaiseIRQ = func(side pxi.Side) {
		if side == pxi.ARM9 {
			s.arm9IRQPending = true
		} else {
			s.IRQ.Configure(pxiARM11IRQ, 0, 0xF)
			s.IRQ.AssertHW(pxiARM11IRQ)
		}
	}

	// The I2C controllers are ARM9-side peripherals on real hardware; their
	// completion IRQs target the ARM9 core directly rather than the ARM11
	// distributor.
	for _, bus3 := range s.I2C {
		bus3.AddEvent = func(cb func(), cycles int) {
			s.Scheduler.AddEvent(func(int) { cb() }, cycles, schedulerARM9Domain, 0)
		}
		bus3.RaiseIRQ = func(id int) {
			s.arm9IRQPending = true
		}
	}

	s.ARM9.IRQLine = func() bool { return s.arm9IRQPending }

	// NAND/gamecard/WiFi/SPI-touch completion IRQs target the ARM11
	// distributor like any other shared peripheral line, unlike PXI/I2C's
	// ARM9-side exception.
	for _, dev := range []*devices.CommandBlockDevice{s.Devices.NAND, s.Devices.Gamecard, s.Devices.WiFi, s.Devices.SPITouch} {
		dev.ScheduleIRQ = func(line int, delayCycles int) {
			s.Scheduler.AddEvent(func(int) {
				s.IRQ.Configure(line, 0, 0xF)
				s.IRQ.AssertHW(line)
			}, delayCycles, scheduler.ARM11, 0)
		}
	}

	return nil
}

const pxiARM11IRQ = 0x50

func (s *System) irqLineFunc(core int) func() bool {
	return func() bool { return s.irqSignal[core] }
}

// schedulerARM9Domain mirrors scheduler.ARM9 without importing it twice under
// two names; kept as a local alias for readability at call sites in this
// file.
const schedulerARM9Domain = scheduler.ARM9
