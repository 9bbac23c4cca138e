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

// Package i2c implements the three I2C buses bridging the ARM9 to the MCU,
// codec, camera and NFC peripherals: device/register selection, byte
// read/write with auto-incrementing register index, and the on-bus MCU
// device used for power management.
package i2c

import (
	"fmt"

	"github.com/horizon3ds/horizon/errors"
)

// BusID names the three independent buses.
type BusID int

const (
	Bus0 BusID = iota
	Bus1
	Bus2
)

// CompletionDelay is the modelled transaction latency, in ARM9 cycles,
// between a start bit being set and the bus's completion event firing.
const CompletionDelay = 20000

// BusIRQ is the completion IRQ id raised for each bus.
var BusIRQ = [3]int{0x54, 0x55, 0x5C}

// Device is one addressable I2C peripheral: a small indexed register file
// with load/store semantics, since every recognised device class (MCU,
// codec, camera, NFC) exposes itself this way to the bus.
type Device interface {
	ReadReg(index uint8) uint8
	WriteReg(index uint8, value uint8) error
}

// Bus is one of the three I2C controllers.
type Bus struct {
	id BusID

	devices map[uint8]Device

	selectedAddr uint8
	selected     Device
	regIndex     uint8
	regSelected  bool
	started      bool

	irqEnabled bool

	// RaiseIRQ is invoked with this bus's completion IRQ id. May be nil.
	RaiseIRQ func(id int)
	// AddEvent schedules the completion callback CompletionDelay cycles from
	// now on the ARM9 domain. May be nil, in which case transactions
	// complete synchronously (acceptable for tests that don't care about
	// timing).
	AddEvent func(cb func(), cycles int)
}

// New returns a bus with no devices attached.
func New(id BusID) *Bus {
	return &Bus{id: id, devices: make(map[uint8]Device)}
}

// Attach registers a device at a 7-bit address.
func (b *Bus) Attach(addr uint8, d Device) {
	b.devices[addr] = d
}

// SetIRQEnable configures whether transaction completion raises this bus's
// IRQ.
func (b *Bus) SetIRQEnable(enabled bool) {
	b.irqEnabled = enabled
}

// WriteData implements a data-byte write into the control/data register:
// when start is set, the high 7 bits of data select a device and the
// transaction begins; otherwise the byte is either a register-select or a
// register write, depending on whether a register has already been latched
// for the current device.
func (b *Bus) WriteData(data uint8, start bool, isRead bool, stop bool) error {
	if start {
		addr := data >> 1
		dev, ok := b.devices[addr]
		if !ok {
			return errors.Errorf(errors.UnknownI2CDevice, fmtAddr(addr))
		}
		b.selectedAddr = addr
		b.selected = dev
		b.started = true
		b.regSelected = false
		b.complete(stop)
		return nil
	}

	if !b.started || b.selected == nil {
		return errors.Errorf(errors.UnknownI2CDevice, fmtAddr(b.selectedAddr))
	}

	var err error
	if !b.regSelected {
		// the first post-start byte is always the register index.
		b.regIndex = data
		b.regSelected = true
	} else if !isRead {
		err = b.selected.WriteReg(b.regIndex, data)
		b.regIndex++
	}
	b.complete(stop)
	return err
}

// ReadData reads the currently-selected device's current register and
// auto-increments the index.
func (b *Bus) ReadData() (uint8, error) {
	if b.selected == nil {
		return 0, errors.Errorf(errors.UnknownI2CDevice, fmtAddr(b.selectedAddr))
	}
	v := b.selected.ReadReg(b.regIndex)
	b.regIndex++
	return v, nil
}

// WriteDataByte writes a byte to the currently-selected device's current
// register and auto-increments the index.
func (b *Bus) WriteDataByte(v uint8) error {
	if b.selected == nil {
		return errors.Errorf(errors.UnknownI2CDevice, fmtAddr(b.selectedAddr))
	}
	err := b.selected.WriteReg(b.regIndex, v)
	b.regIndex++
	return err
}

func (b *Bus) complete(stop bool) {
	finish := func() {
		if b.irqEnabled && b.RaiseIRQ != nil {
			b.RaiseIRQ(BusIRQ[b.id])
		}
		if stop {
			b.selected = nil
			b.started = false
		}
	}
	if b.AddEvent != nil {
		b.AddEvent(finish, CompletionDelay)
	} else {
		finish()
	}
}

func fmtAddr(addr uint8) string {
	return fmt.Sprintf("0x%02x", addr)
}
