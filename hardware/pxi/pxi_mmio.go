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

package pxi

import (
	"fmt"

	"github.com/horizon3ds/horizon/errors"
	"github.com/horizon3ds/horizon/logger"
)

// register offsets within the PXI port's 0x10008000-0x1000800C range.
const (
	regSync = 0x00
	regCnt  = 0x04
	regSend = 0x08
	regRecv = 0x0C
)

// MMIO exposes one side's view of a Mailbox as a bus.Device, translating the
// four register offsets named here into the Mailbox's method calls. Each
// side of the mailbox gets its own MMIO instance bound to the same
// underlying Mailbox.
type MMIO struct {
	Box  *Mailbox
	Side Side
}

// NewMMIO returns a bus.Device view of box from side's perspective.
func NewMMIO(box *Mailbox, side Side) *MMIO {
	return &MMIO{Box: box, Side: side}
}

func (m *MMIO) ReadMMIO(width int, addr uint32) (uint64, error) {
	switch addr & 0x0F {
	case regSync:
		return uint64(m.Box.ReadSync(m.Side)), nil
	case regCnt:
		sEmpty, sFull := m.Box.SendFIFOStatus(m.Side)
		rEmpty, rFull := m.Box.RecvFIFOStatus(m.Side)
		var v uint64
		if sEmpty {
			v |= 1 << 0
		}
		if sFull {
			v |= 1 << 1
		}
		if rEmpty {
			v |= 1 << 8
		}
		if rFull {
			v |= 1 << 9
		}
		return v, nil
	case regRecv:
		v, ok := m.Box.Recv(m.Side)
		if !ok {
			return 0, errors.Errorf(errors.MailboxEmpty, fmt.Sprintf("side=%d", m.Side))
		}
		return uint64(v), nil
	}
	return 0, errors.Errorf(errors.UnmappedMMIO, addr)
}

func (m *MMIO) WriteMMIO(width int, addr uint32, value uint64) error {
	switch addr & 0x0F {
	case regSync:
		m.Box.WriteSync(m.Side, uint8(value), value&0x20000000 != 0)
		return nil
	case regCnt:
		m.Box.SetFIFOIRQEnables(m.Side, value&(1<<2) != 0, value&(1<<3) != 0)
		if value&(1<<3) != 0 {
			m.Box.ClearSend(m.Side)
		}
		return nil
	case regSend:
		if !m.Box.SendTo(m.Side, uint32(value)) {
			return errors.Errorf(errors.MailboxFull, fmt.Sprintf("side=%d", m.Side))
		}
		if service, name, ok := DescribeCommand(uint32(value)); ok {
			logger.Logf("PXI", "side=%d cmd=%s:%s header=0x%08x", m.Side, service, name, value)
		}
		return nil
	}
	return errors.Errorf(errors.UnmappedMMIO, addr)
}
