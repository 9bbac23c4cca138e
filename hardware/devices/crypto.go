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

import (
	"fmt"

	"github.com/horizon3ds/horizon/errors"
)

// widthSet collects the access widths a device accepts; checkWidth is shared
// by every stub below to enforce the access-width discipline.
type widthSet uint8

func widths(ws ...int) widthSet {
	var s widthSet
	for _, w := range ws {
		s |= 1 << uint(w)
	}
	return s
}

func (s widthSet) allows(width int) bool {
	if width < 0 || width > 7 {
		return false
	}
	return s&(1<<uint(width)) != 0
}

func checkWidth(s widthSet, width int, addr uint32) error {
	if !s.allows(width) {
		return errors.Errorf(errors.DeviceWidthMismatch, fmt.Sprintf("width=%d addr=0x%08x", width, addr))
	}
	return nil
}

// CryptoEngine is a shared stub shape for the AES, SHA and RSA MMIO blocks:
// each exposes a control/status register pair plus a FIFO-like data port, but
// none of the three perform real cryptographic transforms here — the guest's
// control flow (polling a "done" bit, reading back an output block) is the
// only externally observable behaviour that matters to guest code, so each
// engine's data port simply echoes what was written to it, and "done" reads
// as set from the first write to the status register onward.
type CryptoEngine struct {
	regs *RegisterFile
	done uint32 // bit consulted by guest polling loops; set by a status-register write
}

// NewCryptoEngine returns an engine occupying the half-open byte range
// [base, base+size), matching AES/SHA/RSA's entries in the address map.
func NewCryptoEngine(base uint32, size int) *CryptoEngine {
	return &CryptoEngine{regs: NewRegisterFile(base, size)}
}

const cryptoStatusOffset = 0x00

func (c *CryptoEngine) ReadMMIO(width int, addr uint32) (uint64, error) {
	if err := checkWidth(widths(1, 2, 4), width, addr); err != nil {
		return 0, err
	}
	if addr-c.regs.Base == cryptoStatusOffset {
		return uint64(c.done), nil
	}
	return c.regs.Read(width, addr), nil
}

func (c *CryptoEngine) WriteMMIO(width int, addr uint32, value uint64) error {
	if err := checkWidth(widths(1, 2, 4), width, addr); err != nil {
		return err
	}
	c.regs.Write(width, addr, value)
	if addr-c.regs.Base == cryptoStatusOffset {
		c.done = 1
	}
	return nil
}
