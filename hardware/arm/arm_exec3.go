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

package arm

import "github.com/horizon3ds/horizon/hardware/memory/bus"

// execSingleTransfer handles LDR/STR {,B} in its three addressing forms
// (immediate, scaled register, register). Unaligned-word-load rotation is
// applied transparently by the bus for ARM11 cores.
func (c *Core) execSingleTransfer(word uint32, registerOffset bool) error {
	p := bit(word, 24)
	u := bit(word, 23)
	b := bit(word, 22)
	w := bit(word, 21)
	l := bit(word, 20)
	rn := bits(word, 19, 16)
	rd := bits(word, 15, 12)

	var offset uint32
	if registerOffset {
		rm := c.reg(word & 0xF)
		var kind shiftType
		switch bits(word, 6, 5) {
		case 0:
			kind = shiftLSL
		case 1:
			kind = shiftLSR
		case 2:
			kind = shiftASR
		case 3:
			kind = shiftROR
		}
		amount := bits(word, 11, 7)
		offset, _ = shift(kind, rm, amount, c.Regs.CPSR.C)
	} else {
		offset = word & 0xFFF
	}

	base := c.reg(rn)
	var addr uint32
	if p {
		if u {
			addr = base + offset
		} else {
			addr = base - offset
		}
	} else {
		addr = base
	}

	width := 4
	if b {
		width = 1
	}

	if l {
		v, err := c.Bus.Read(bus.Data, addr, width)
		if err != nil {
			return err
		}
		if rd == 15 {
			c.jump(uint32(v), false)
		} else {
			c.setReg(rd, uint32(v))
		}
	} else {
		if err := c.storeData(addr, width, uint64(c.reg(rd))); err != nil {
			return err
		}
	}

	if !p {
		if u {
			addr = base + offset
		} else {
			addr = base - offset
		}
		c.setReg(rn, addr)
	} else if w {
		c.setReg(rn, addr)
	}

	return nil
}

// execHalfwordTransfer handles LDRH/STRH and the signed-byte/signed-halfword
// load variants sharing its addressing matrix.
func (c *Core) execHalfwordTransfer(word uint32) error {
	p := bit(word, 24)
	u := bit(word, 23)
	imm := bit(word, 22)
	w := bit(word, 21)
	l := bit(word, 20)
	rn := bits(word, 19, 16)
	rd := bits(word, 15, 12)
	sh := bits(word, 6, 5)

	var offset uint32
	if imm {
		offset = bits(word, 11, 8)<<4 | bits(word, 3, 0)
	} else {
		offset = c.reg(word & 0xF)
	}

	base := c.reg(rn)
	var addr uint32
	if p {
		if u {
			addr = base + offset
		} else {
			addr = base - offset
		}
	} else {
		addr = base
	}

	if l {
		var width int
		signed := false
		switch sh {
		case 0b01:
			width = 2
		case 0b10:
			width = 1
			signed = true
		case 0b11:
			width = 2
			signed = true
		}
		v, err := c.Bus.Read(bus.Data, addr, width)
		if err != nil {
			return err
		}
		result := uint32(v)
		if signed {
			if width == 1 {
				result = uint32(int32(int8(v)))
			} else {
				result = uint32(int32(int16(v)))
			}
		}
		c.setReg(rd, result)
	} else {
		width := 2
		if err := c.storeData(addr, width, uint64(uint16(c.reg(rd)))); err != nil {
			return err
		}
	}

	if !p {
		if u {
			addr = base + offset
		} else {
			addr = base - offset
		}
		c.setReg(rn, addr)
	} else if w {
		c.setReg(rn, addr)
	}
	return nil
}

// execBlockTransfer handles LDM/STM, including the PSR-restore variant (S set
// on an LDM whose list includes R15). With S set and R15 absent from the
// list, the current mode's registers are transferred; there is no user-bank
// transfer.
func (c *Core) execBlockTransfer(word uint32) error {
	p := bit(word, 24)
	u := bit(word, 23)
	s := bit(word, 22)
	w := bit(word, 21)
	l := bit(word, 20)
	rn := bits(word, 19, 16)
	list := word & 0xFFFF

	count := 0
	for i := 0; i < 16; i++ {
		if list&(1<<uint(i)) != 0 {
			count++
		}
	}

	base := c.reg(rn)
	var addr uint32
	var writeback uint32
	if u {
		if p {
			addr = base + 4
		} else {
			addr = base
		}
		writeback = base + uint32(count)*4
	} else {
		if p {
			addr = base - uint32(count)*4
		} else {
			addr = base - uint32(count)*4 + 4
		}
		writeback = base - uint32(count)*4
	}

	pcInList := list&(1<<15) != 0
	restorePSR := s && l && pcInList

	for i := 0; i < 16; i++ {
		if list&(1<<uint(i)) == 0 {
			continue
		}
		if l {
			v, err := c.Bus.Read(bus.Data, addr, 4)
			if err != nil {
				return err
			}
			if i == 15 {
				c.jump(uint32(v), false)
			} else {
				c.setReg(uint32(i), uint32(v))
			}
		} else {
			if err := c.storeData(addr, 4, uint64(c.reg(uint32(i)))); err != nil {
				return err
			}
		}
		addr += 4
	}

	if restorePSR {
		c.Regs.RestoreSPSR()
	}

	if w {
		c.setReg(rn, writeback)
	}
	return nil
}

// execBranch handles B/BL: a 24-bit signed word offset x4.
func (c *Core) execBranch(word uint32) error {
	l := bit(word, 24)
	offset := word & 0xFFFFFF
	signExtended := int32(offset<<8) >> 8
	target := uint32(int32(c.Regs.R[15]) + signExtended*4)

	if l {
		c.setReg(14, c.Regs.R[15]-4)
	}
	c.jump(target, false)
	return nil
}
