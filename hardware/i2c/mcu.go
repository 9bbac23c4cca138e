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

package i2c

import "github.com/horizon3ds/horizon/errors"

// MCUAddr is the 7-bit address the power-management microcontroller
// responds to on bus 1.
const MCUAddr = 0x4A

const (
	mcuRegControl  = 0x20
	mcuRegFirmware = 0x00
	mcuRegFirmMid  = 0x01
	mcuRegTimeBCD  = 0x30
	mcuRegTimeEnd  = 0x36
)

// MCU models the power-management/RTC microcontroller on I2C bus 1: a
// firmware-id pair, BCD time-of-day registers, and a control register whose
// writes trigger power-off or reboot.
type MCU struct {
	FirmwareMajor uint8
	FirmwareMinor uint8

	// Time holds seven BCD bytes: seconds, minutes, hours, weekday, day,
	// month, year, mapped at regs 0x30..0x36.
	Time [7]uint8

	// OnReboot is invoked when a reboot is requested by writing bit 2 of the
	// control register; the caller (orchestrator) is expected to surface this
	// as the Reboot error kind and perform a warm reset.
	OnReboot func()
	// OnPowerOff is invoked when bit 0 (power off) is written; this is a
	// fatal condition from the emulator's perspective.
	OnPowerOff func() error
}

// NewMCU returns an MCU with a plausible default firmware id.
func NewMCU() *MCU {
	return &MCU{FirmwareMajor: 2, FirmwareMinor: 57}
}

func (m *MCU) ReadReg(index uint8) uint8 {
	switch {
	case index == mcuRegFirmware:
		return m.FirmwareMajor
	case index == mcuRegFirmMid:
		return m.FirmwareMinor
	case index >= mcuRegTimeBCD && index <= mcuRegTimeEnd:
		return m.Time[index-mcuRegTimeBCD]
	}
	return 0
}

func (m *MCU) WriteReg(index uint8, value uint8) error {
	switch {
	case index == mcuRegControl:
		if value&0x01 != 0 {
			if m.OnPowerOff != nil {
				return m.OnPowerOff()
			}
			return errors.Errorf(errors.PowerOff, "mcu control register power-off bit")
		}
		if value&0x04 != 0 && m.OnReboot != nil {
			m.OnReboot()
		}
	case index >= mcuRegTimeBCD && index <= mcuRegTimeEnd:
		m.Time[index-mcuRegTimeBCD] = value
	}
	return nil
}
