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

import "testing"

// The real guest path never calls Bus.WriteData/WriteDataByte directly: it
// writes a byte to the data register, then triggers the transaction step by
// writing the control register. This drives the MCU reboot sequence through
// that exact MMIO sequence rather than the Bus API, to catch regressions
// that only the plain register-pair path would hit.
func TestMMIORebootSequence(t *testing.T) {
	bus := New(Bus1)
	mcu := NewMCU()
	bus.Attach(MCUAddr, mcu)

	rebooted := false
	mcu.OnReboot = func() { rebooted = true }

	m := NewMMIO(bus)

	// address byte (write direction) latched into the data register, then
	// the start bit on the control register triggers device select.
	write(t, m, regData, uint64(MCUAddr<<1))
	write(t, m, regCnt, uint64(cntEnable|cntStart))

	// register index latched into the data register, then a plain control
	// write (no start) triggers register select.
	write(t, m, regData, uint64(mcuRegControl))
	write(t, m, regCnt, uint64(cntEnable))

	// reboot-bit payload latched into the data register, then a control
	// write with stop set triggers the actual register write.
	write(t, m, regData, 0x04)
	write(t, m, regCnt, uint64(cntEnable|cntStop))

	if !rebooted {
		t.Fatal("OnReboot was not invoked after the MMIO register-pair reboot sequence")
	}
}

// Reading back the data register after an MMIO-triggered read transaction
// must return the byte the device produced, not the address/index byte
// previously latched for the write side of the handshake.
func TestMMIOReadReturnsDeviceByte(t *testing.T) {
	bus := New(Bus1)
	mcu := NewMCU()
	mcu.FirmwareMajor = 2
	bus.Attach(MCUAddr, mcu)

	m := NewMMIO(bus)

	write(t, m, regData, uint64(MCUAddr<<1))
	write(t, m, regCnt, uint64(cntEnable|cntStart))

	write(t, m, regData, uint64(mcuRegFirmware))
	write(t, m, regCnt, uint64(cntEnable))

	write(t, m, regCnt, uint64(cntEnable|cntRead))

	got, err := m.ReadMMIO(8, regData)
	if err != nil {
		t.Fatalf("ReadMMIO(regData): %v", err)
	}
	if got != 2 {
		t.Fatalf("regData readback = %d, want 2 (FirmwareMajor)", got)
	}
}

func write(t *testing.T, m *MMIO, addr uint32, value uint64) {
	t.Helper()
	if err := m.WriteMMIO(8, addr, value); err != nil {
		t.Fatalf("WriteMMIO(0x%02x, 0x%02x): %v", addr, value, err)
	}
}
