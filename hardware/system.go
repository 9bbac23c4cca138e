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
	"github.com/horizon3ds/horizon/hardware/arm"
	"github.com/horizon3ds/horizon/hardware/arm/exclusive"
	"github.com/horizon3ds/horizon/hardware/arm/mmu"
	"github.com/horizon3ds/horizon/hardware/arm/pu"
	"github.com/horizon3ds/horizon/hardware/config"
	"github.com/horizon3ds/horizon/hardware/devices"
	"github.com/horizon3ds/horizon/hardware/i2c"
	"github.com/horizon3ds/horizon/hardware/irq"
	"github.com/horizon3ds/horizon/hardware/memory/bus"
	"github.com/horizon3ds/horizon/hardware/memory/fastmap"
	"github.com/horizon3ds/horizon/hardware/pxi"
	"github.com/horizon3ds/horizon/hardware/scheduler"
	"github.com/horizon3ds/horizon/hardware/teak"
)

const maxCores = 4

// System is the root of the emulation: it owns every backing memory buffer,
// every CPU/DSP core, the interrupt distributor, the IPC mailbox, the I2C
// buses and the scheduler that drives them all through one frame's worth of
// orchestration at a time.
type System struct {
	Config *config.Config

	// backing buffers, sized per variant at Reset
	ARM9RAM []byte
	FCRAM   []byte
	QTMRAM  []byte
	AXIRAM  []byte
	VRAM    []byte
	DSPMem  []byte
	BootROM []byte

	ARM9     *arm.Core
	ARM11    [maxCores]*arm.Core
	arm9MMIO *bus.Dispatcher
	arm11MMIO *bus.Dispatcher

	arm9Fast     *fastmap.Map
	arm9FastUser *fastmap.Map
	arm11Fast     [maxCores]*fastmap.Map
	arm11FastUser [maxCores]*fastmap.Map

	arm9PU  *pu.Unit
	arm11MMU [maxCores]*mmu.Walker

	mmioRanges []mmioRange

	Monitor *exclusive.Monitor
	IRQ     *irq.Distributor
	Mailbox *pxi.Mailbox
	I2C     [3]*i2c.Bus
	MCU     *i2c.MCU
	Teak    *teak.Core

	Devices struct {
		AES, RSA *devices.CryptoEngine
		SHA      *devices.SHAEngine
		PRNG          *devices.PRNG
		OTP           *devices.OTP
		CFG11         *devices.CFG11
		SysConfig     *devices.SysConfig
		XDMA          *devices.XDMA
		HID           *devices.HID
		NAND          *devices.CommandBlockDevice
		Gamecard      *devices.CommandBlockDevice
		WiFi          *devices.CommandBlockDevice
		SPITouch      *devices.CommandBlockDevice
	}

	Scheduler *scheduler.Scheduler

	irqSignal      [maxCores]bool
	arm9IRQPending bool
	lastErr        error
	frameEnded     bool

	// PendingReboot is set by the MCU's reboot control bit; RunFrame checks
	// it after every scheduler step and returns early when it is set, and
	// the caller is expected to call Reset again
	// when it sees this set, performing a warm reset.
	PendingReboot bool
}

// New returns an unconfigured System; call Reset before running it.
func New(cfg *config.Config) *System {
	if cfg == nil {
		cfg = config.Default()
	}
	return &System{Config: cfg}
}
