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

package devices

// CommandBlockDevice is the shared shape of the NAND/EMMC, gamecard, Wi-Fi
// SDIO and SPI-touch stubs: their specific device semantics stay out of
// scope beyond "effect on IRQs and shared memory", so each of these is just
// a register block that, on a write to its command-go bit,
// schedules an IRQ after a fixed completion delay via RaiseIRQ — the same
// shape as the I2C bus's completion model, adapted from a transaction state
// machine to a single command-done latch since none of these four need I2C's
// per-byte addressing.
type CommandBlockDevice struct {
	regs *RegisterFile

	// IRQLine is the distributor line number this device asserts on command
	// completion.
	IRQLine int

	// ScheduleIRQ is invoked with IRQLine and a cycle delay when a command
	// completes; the orchestrator wires this to the scheduler/distributor.
	// May be nil in tests that only check register plumbing.
	ScheduleIRQ func(line int, delayCycles int)

	commandOffset int
	completionDelay int
}

// NewCommandBlockDevice returns a stub of size bytes at base, firing irqLine
// delayCycles after a write with bit 0 set lands at commandOffset (relative
// to base).
func NewCommandBlockDevice(base uint32, size int, commandOffset int, irqLine int, delayCycles int) *CommandBlockDevice {
	return &CommandBlockDevice{
		regs:            NewRegisterFile(base, size),
		IRQLine:         irqLine,
		commandOffset:   commandOffset,
		completionDelay: delayCycles,
	}
}

func (d *CommandBlockDevice) ReadMMIO(width int, addr uint32) (uint64, error) {
	if err := checkWidth(widths(1, 2, 4), width, addr); err != nil {
		return 0, err
	}
	return d.regs.Read(width, addr), nil
}

func (d *CommandBlockDevice) WriteMMIO(width int, addr uint32, value uint64) error {
	if err := checkWidth(widths(1, 2, 4), width, addr); err != nil {
		return err
	}
	d.regs.Write(width, addr, value)

	if int(addr-d.regs.Base) == d.commandOffset && value&0x1 != 0 {
		if d.ScheduleIRQ != nil {
			d.ScheduleIRQ(d.IRQLine, d.completionDelay)
		}
	}
	return nil
}

// Storage and radio device addresses/IRQ lines/delays are not named
// explicitly in the MMIO table (only their existence and out-of-scope
// semantics are), so these constants pick conventional 3DS MMIO addresses
// and IRQ lines consistent with the address ranges the MMIO table does name
// for their neighbours, and a completion delay in the same order of
// magnitude as the I2C bus's documented 20000-cycle figure.
const (
	NANDBase    = 0x10006000
	NANDSize    = 0x1000
	NANDIRQ     = 0x42
	NANDDelay   = 20000

	GamecardBase  = 0x10004000
	GamecardSize  = 0x1000
	GamecardIRQ   = 0x4C
	GamecardDelay = 20000

	WiFiBase  = 0x10180000
	WiFiSize  = 0x1000
	WiFiIRQ   = 0x5A
	WiFiDelay = 20000

	SPITouchBase  = 0x10142000
	SPITouchSize  = 0x1000
	SPITouchIRQ   = 0x58
	SPITouchDelay = 10000
)

// NewNAND, NewGamecard, NewWiFi and NewSPITouch each return a
// CommandBlockDevice pre-configured with the conventional address/IRQ/delay
// above; the command-go bit is offset 0x00 in all four, matching the
// pattern real 3DS peripheral command/status register pairs follow.
func NewNAND() *CommandBlockDevice {
	return NewCommandBlockDevice(NANDBase, NANDSize, 0x00, NANDIRQ, NANDDelay)
}

func NewGamecard() *CommandBlockDevice {
	return NewCommandBlockDevice(GamecardBase, GamecardSize, 0x00, GamecardIRQ, GamecardDelay)
}

func NewWiFi() *CommandBlockDevice {
	return NewCommandBlockDevice(WiFiBase, WiFiSize, 0x00, WiFiIRQ, WiFiDelay)
}

func NewSPITouch() *CommandBlockDevice {
	return NewCommandBlockDevice(SPITouchBase, SPITouchSize, 0x00, SPITouchIRQ, SPITouchDelay)
}
