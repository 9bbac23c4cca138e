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

// register offsets within one bus's MMIO block: a one-byte data register and
// a one-byte control register whose bits select start/stop/read/irq-enable,
// matching the real 3DS I2C controller's register pair.
const (
	regData = 0x00
	regCnt  = 0x01
)

const (
	cntStart   = 1 << 6
	cntStop    = 1 << 5
	cntRead    = 1 << 1
	cntIRQEn   = 1 << 2
	cntEnable  = 1 << 7
)

// MMIO exposes a Bus's data/control register pair as a bus.Device. The data
// register only latches a byte; the actual transaction step (device select,
// register select, or register read/write) happens on the triggering write
// to the control register, matching the real controller's one-latched-byte
// design.
type MMIO struct {
	Bus *Bus

	lastCnt     uint8
	pendingData uint8
}

// NewMMIO returns a bus.Device view of b.
func NewMMIO(b *Bus) *MMIO {
	return &MMIO{Bus: b}
}

func (m *MMIO) ReadMMIO(width int, addr uint32) (uint64, error) {
	switch addr & 0x0F {
	case regData:
		return uint64(m.pendingData), nil
	case regCnt:
		return uint64(m.lastCnt), nil
	}
	return 0, errors.Errorf(errors.UnmappedMMIO, addr)
}

func (m *MMIO) WriteMMIO(width int, addr uint32, value uint64) error {
	switch addr & 0x0F {
	case regData:
		m.pendingData = uint8(value)
		return nil
	case regCnt:
		cnt := uint8(value)
		m.lastCnt = cnt
		m.Bus.SetIRQEnable(cnt&cntIRQEn != 0)
		if cnt&cntEnable == 0 {
			return nil
		}
		isRead := cnt&cntRead != 0
		stop := cnt&cntStop != 0
		if isRead {
			v, err := m.Bus.ReadData()
			m.pendingData = v
			return err
		}
		return m.Bus.WriteData(m.pendingData, cnt&cntStart != 0, isRead, stop)
	}
	return errors.Errorf(errors.UnmappedMMIO, addr)
}
