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

package teak

import "github.com/horizon3ds/horizon/errors"

// execute decodes and runs one instruction word (consuming a second operand
// word itself, for the two-word forms, via c.Mem/c.PC) from the
// representative opcode subset documented at the package level.
func (c *Core) execute(word uint16, pc uint32) error {
	class := (word >> 12) & 0xF

	switch class {
	case 0x0: // NOP
		return nil

	case 0x1: // BKREP #count, end
		count := int32(word & 0x0FFF)
		endAddr := uint32(c.Mem.ReadWord(c.PC))
		c.PC++
		start := c.PC
		return c.pushRepeat(start, endAddr, count)

	case 0x2: // ADD #imm, acc
		dest := (word >> 10) & 0x3
		imm := int32(int16(word<<6) >> 6) // sign-extend 10-bit immediate
		c.addToAcc(dest, acc(imm))
		return nil

	case 0x3: // REP #count
		count := int32(word & 0x0FFF)
		c.repNewPC = c.PC
		c.repCounter = count
		c.repActive = count > 0
		return nil

	case 0x4: // SHFC: arithmetic shift of a 40-bit accumulator
		dest := (word >> 10) & 0x3
		amount := int32(int8(word))
		c.shiftAcc(dest, amount, true)
		return nil

	case 0x5: // SHFI: logical shift
		dest := (word >> 10) & 0x3
		amount := int32(int8(word))
		c.shiftAcc(dest, amount, false)
		return nil

	case 0x6: // EXP: count leading sign-bits minus 8
		src := (word >> 10) & 0x3
		rd := word & 0x7
		c.R[rd] = uint32(int32(c.leadingSignBits(src) - 8))
		return nil

	case 0x7: // MODR*: modify an address register without reading
		rn := (word >> 8) & 0x7
		if c.MOD2.BR[rn] {
			return errors.Errorf(errors.BitReversedAddress, rn)
		}
		c.AR[rn].advance()
		c.ST0.FR = c.AR[rn].Value == 0 && rn == 0
		return nil

	case 0x8: // MAX_GT / MIN_LT
		isMax := word&0x0800 != 0
		dest := (word >> 10) & 0x1
		c.maxMin(dest, isMax)
		return nil

	case 0x9: // CNTX_S
		swapA1 := word&0x1 != 0
		c.ContextSave(swapA1)
		return nil

	case 0xA: // CNTX_R
		c.ContextRestore()
		return nil

	case 0xB: // BANKE
		mask := uint8(word & 0x3F)
		c.BankExchange(mask, func(bit int) {
			if bit < len(c.AR) {
				c.AR[bit].Value, c.shadow.AR[bit].Value = c.shadow.AR[bit].Value, c.AR[bit].Value
			}
		})
		return nil

	case 0xC: // MPY: run the dual multiplier, then add both shifted products into acc
		unit := (word >> 11) & 0x1
		xSign := word&0x0400 != 0
		ySign := word&0x0200 != 0
		dest := (word >> 7) & 0x3
		c.Multiply(int(unit), xSign, ySign)
		c.addToAcc(dest, c.ProductShifted(int(unit)))
		return nil

	case 0xD: // APBP command send: latch cmd[index] and mark it ready for the host side
		index := (word >> 8) & 0x3
		if index > 2 {
			return errors.Errorf(errors.DSPError, "invalid APBP command index")
		}
		c.APBP.Cmd[index] = c.Mem.ReadWord(c.PC)
		c.PC++
		c.APBP.CmdReady[index] = true
		return nil

	case 0xE: // PUSH rN
		rn := word & 0x7
		c.push16(uint16(c.R[rn]))
		return nil

	case 0xF: // POP rN
		rn := word & 0x7
		c.R[rn] = uint32(c.pop16())
		return nil
	}

	return errors.Errorf(errors.DSPError, "unrecognised teak opcode class")
}

func (c *Core) accPtr(sel uint16) *acc {
	switch sel {
	case 0:
		return &c.A0
	case 1:
		return &c.A1
	case 2:
		return &c.B0
	default:
		return &c.B1
	}
}

func (c *Core) addToAcc(sel uint16, v acc) {
	p := c.accPtr(sel)
	result := *p + v
	if c.MOD0.SAT {
		result = result.saturate()
	}
	c.ST0.FZ = result == 0
	c.ST0.FM = result < 0
	c.ST0.FV = result != result.saturate()
	*p = result.saturate()
}

func (c *Core) shiftAcc(sel uint16, amount int32, arithmetic bool) {
	p := c.accPtr(sel)
	v := int64(*p)
	switch {
	case amount >= accBits:
		v = 0
	case amount <= -accBits:
		if arithmetic {
			if v < 0 {
				v = int64(accMin)
			} else {
				v = 0
			}
		} else {
			v = 0
		}
	case amount >= 0:
		v <<= uint(amount)
	default:
		if arithmetic {
			v >>= uint(-amount)
		} else {
			v = int64(uint64(v) >> uint(-amount))
		}
	}
	*p = acc(v).saturate()
}

func (c *Core) leadingSignBits(sel uint16) int32 {
	p := c.accPtr(sel)
	v := int64(*p)
	sign := v < 0
	count := int32(0)
	for bit := accBits - 2; bit >= 0; bit-- {
		b := v&(1<<uint(bit)) != 0
		if b != sign {
			break
		}
		count++
	}
	return count
}

func (c *Core) maxMin(sel uint16, isMax bool) {
	var p, q *acc
	if sel == 0 {
		p, q = &c.A0, &c.B0
	} else {
		p, q = &c.A1, &c.B1
	}
	take := (isMax && *q > *p) || (!isMax && *q < *p)
	if take {
		*p = *q
		c.R[0] = uint32(int32(*q))
	}
}
