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

import (
	"fmt"

	"github.com/horizon3ds/horizon/errors"
	"github.com/horizon3ds/horizon/hardware/arm/cp15"
	"github.com/horizon3ds/horizon/hardware/arm/psr"
	"github.com/horizon3ds/horizon/hardware/memory/bus"
)

func (c *Core) reg(n uint32) uint32    { return c.Regs.R[n&0xF] }
func (c *Core) setReg(n uint32, v uint32) { c.Regs.R[n&0xF] = v }

func (c *Core) execBX(word uint32) error {
	rm := c.reg(word & 0xF)
	isBLX := bits(word, 5, 4) == 0b11
	if isBLX {
		c.setReg(14, c.Regs.R[15]&^1|1)
	}
	c.jump(rm, true)
	return nil
}

func (c *Core) execMultiply(word uint32) error {
	rd := bits(word, 19, 16)
	rn := bits(word, 15, 12)
	rs := bits(word, 11, 8)
	rm := word & 0xF
	accumulate := bit(word, 21)
	s := bit(word, 20)

	result := c.reg(rm) * c.reg(rs)
	if accumulate {
		result += c.reg(rn)
	}
	c.setReg(rd, result)
	if s {
		c.Regs.CPSR.N = result&0x80000000 != 0
		c.Regs.CPSR.Z = result == 0
	}
	return nil
}

func (c *Core) execMultiplyLong(word uint32) error {
	rdHi := bits(word, 19, 16)
	rdLo := bits(word, 15, 12)
	rs := bits(word, 11, 8)
	rm := word & 0xF
	signed := bit(word, 22)
	accumulate := bit(word, 21)
	s := bit(word, 20)

	var result uint64
	if signed {
		result = uint64(int64(int32(c.reg(rm))) * int64(int32(c.reg(rs))))
	} else {
		result = uint64(c.reg(rm)) * uint64(c.reg(rs))
	}
	if accumulate {
		result += uint64(c.reg(rdLo)) | uint64(c.reg(rdHi))<<32
	}
	c.setReg(rdLo, uint32(result))
	c.setReg(rdHi, uint32(result>>32))
	if s {
		c.Regs.CPSR.N = result&(1<<63) != 0
		c.Regs.CPSR.Z = result == 0
	}
	return nil
}

// halfword picks the top or bottom 16 bits of v, sign-extended, for the
// signed-halfword-multiply family's operand select bits (x selects Rm's
// half, y selects Rs's half).
func halfword(v uint32, top bool) int32 {
	if top {
		return int32(int16(v >> 16))
	}
	return int32(int16(v))
}

// execSignedHalfwordMultiply handles SMLAxy/SMLAWy/SMULWy/SMLALxy/SMULxy:
// bits22:21 select the accumulate/width variant, bit6 and bit5 select which
// 16-bit half of Rs and Rm (respectively) feed the multiply (in the
// SMLAWy/SMULWy group bit5 instead selects SMULWy). SMLAxy and SMLAWy stick
// CPSR.Q when their 32-bit accumulate overflows; SMULxy and SMULWy do not
// accumulate and SMLALxy's 64-bit accumulate leaves Q unchanged.
func (c *Core) execSignedHalfwordMultiply(word uint32) error {
	rd := bits(word, 19, 16)
	rn := bits(word, 15, 12)
	rs := bits(word, 11, 8)
	rm := word & 0xF
	x := bit(word, 5)
	y := bit(word, 6)

	rmHalf := halfword(c.reg(rm), x)
	rsHalf := halfword(c.reg(rs), y)

	switch bits(word, 22, 21) {
	case 0b00: // SMLAxy
		product := rmHalf * rsHalf
		result, overflow := addOverflowsS32(product, int32(c.reg(rn)))
		c.setReg(rd, uint32(result))
		if overflow {
			c.Regs.CPSR.Q = true
		}
	case 0b01: // SMLAWy / SMULWy
		full := int64(int32(c.reg(rm)))
		product := (full * int64(rsHalf)) >> 16
		if !bit(word, 5) {
			sum, overflow := addOverflowsS32(int32(product), int32(c.reg(rn)))
			c.setReg(rd, uint32(sum))
			if overflow {
				c.Regs.CPSR.Q = true
			}
		} else {
			c.setReg(rd, uint32(int32(product)))
		}
	case 0b10: // SMLALxy
		rdHi, rdLo := rd, rn
		acc := int64(c.reg(rdLo)) | int64(c.reg(rdHi))<<32
		result := acc + int64(rmHalf)*int64(rsHalf)
		c.setReg(rdLo, uint32(result))
		c.setReg(rdHi, uint32(result>>32))
	case 0b11: // SMULxy
		c.setReg(rd, uint32(rmHalf*rsHalf))
	}
	return nil
}

// addOverflowsS32 adds two signed 32-bit values in 64-bit arithmetic and
// reports whether the true sum no longer fits in 32 bits.
func addOverflowsS32(a, b int32) (int32, bool) {
	sum := int64(a) + int64(b)
	return int32(sum), sum != int64(int32(sum))
}

func (c *Core) execSwap(word uint32) error {
	rn := bits(word, 19, 16)
	rd := bits(word, 15, 12)
	rm := word & 0xF
	byteSwap := bit(word, 22)

	addr := c.reg(rn)
	width := 4
	if byteSwap {
		width = 1
	}
	old, err := c.Bus.Read(bus.Data, addr, width)
	if err != nil {
		return err
	}
	if err := c.storeData(addr, width, uint64(c.reg(rm))); err != nil {
		return err
	}
	c.setReg(rd, uint32(old))
	return nil
}

// execExclusive handles LDREX/STREX and their byte/halfword/doubleword
// variants, per the exclusive-monitor semantics here.
func (c *Core) execExclusive(word uint32) error {
	rn := bits(word, 19, 16)
	rd := bits(word, 15, 12)
	op := bits(word, 21, 20)

	var width int
	switch bits(word, 22, 21) {
	case 0b00:
		width = 4 // LDREX/STREX (word)
	case 0b01:
		width = 8 // LDREXD/STREXD (doubleword)
	case 0b10:
		width = 1 // LDREXB/STREXB (byte)
	case 0b11:
		width = 2 // LDREXH/STREXH (halfword)
	}

	addr := c.reg(rn)
	isLoad := op&0x1 != 0

	if isLoad {
		v, err := c.Bus.Read(bus.Data, addr, width)
		if err != nil {
			return err
		}
		rt := rd
		if width == 8 {
			c.setReg(rt, uint32(v))
			c.setReg(rt+1, uint32(v>>32))
		} else {
			c.setReg(rt, uint32(v))
		}
		if c.Monitor != nil {
			c.Monitor.SetExclusive(c.ID, addr, uint32(width))
		}
		return nil
	}

	rm := word & 0xF
	rdResult := bits(word, 15, 12)
	success := c.Monitor == nil || c.Monitor.HasExclusive(c.ID, addr)
	if success {
		var v uint64
		if width == 8 {
			v = uint64(c.reg(rm)) | uint64(c.reg(rm+1))<<32
		} else {
			v = uint64(c.reg(rm))
		}
		if err := c.storeData(addr, width, v); err != nil {
			return err
		}
		c.setReg(rdResult, 0)
	} else {
		c.setReg(rdResult, 1)
	}
	return nil
}

func (c *Core) execCLZ(word uint32) error {
	rd := bits(word, 15, 12)
	rm := word & 0xF
	v := c.reg(rm)
	n := uint32(32)
	for i := 31; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			n = uint32(31 - i)
			break
		}
	}
	c.setReg(rd, n)
	return nil
}

func (c *Core) execHint(word uint32) error {
	op := word & 0xFF
	switch op {
	case 0x00: // NOP
	case 0x01: // YIELD
	case 0x02: // WFE
		if c.WaitingEvent == false && !c.eventLatch {
			c.WaitingEvent = true
		}
	case 0x03: // WFI
		c.Halted = true
	case 0x04: // SEV
		c.SignalEvent()
	}
	return nil
}

// execCPS modifies CPSR's interrupt masks and/or mode in privileged mode;
// per the status-register-move contract it is silently ignored in user mode
// rather than faulting. imod selects enable (0b10) or disable (0b11) for
// the masks named by the A/I/F bits; imod==0b00 changes only the mode.
func (c *Core) execCPS(word uint32) error {
	if c.Regs.CurrentMode() == psr.USR {
		return nil
	}

	imod := bits(word, 19, 18)
	changeMode := bit(word, 17)
	affectsA := bit(word, 8)
	affectsI := bit(word, 7)
	affectsF := bit(word, 6)
	mode := psr.Mode(bits(word, 4, 0))

	if imod == 0b10 || imod == 0b11 {
		enable := imod == 0b10
		if affectsI {
			c.Regs.CPSR.IRQDisable = !enable
		}
		if affectsF {
			c.Regs.CPSR.FIQDisable = !enable
		}
		_ = affectsA // the abort mask is not modelled on either core
	}

	if changeMode {
		c.Regs.SwitchMode(mode)
	}
	return nil
}

// srsRFEOffsets returns the low transfer address (relative to the base
// register) and the base's post-writeback delta for the four SRS/RFE
// addressing modes (IA/IB/DA/DB), selected by the P (pre/post-index) and U
// (up/down) bits shared by both instructions.
func srsRFEOffsets(p, u bool) (low int32, writeback int32) {
	switch {
	case u && !p: // IA
		return 0, 8
	case u && p: // IB
		return 4, 8
	case !u && !p: // DA
		return -4, -8
	default: // DB
		return -8, -8
	}
}

// execSRS is the exception-stack save half of SRS/RFE: it stores LR and
// CPSR to the banked stack of the named mode, without switching into it.
func (c *Core) execSRS(word uint32) error {
	mode := psr.Mode(bits(word, 4, 0))
	p, u, w := bit(word, 24), bit(word, 23), bit(word, 21)

	base := c.Regs.BankedSP(mode)
	low, delta := srsRFEOffsets(p, u)
	addr := uint32(int64(base) + int64(low))

	if err := c.storeData(addr, 4, uint64(c.Regs.R[14])); err != nil {
		return err
	}
	if err := c.storeData(addr+4, 4, uint64(c.Regs.CPSR.Pack())); err != nil {
		return err
	}
	if w {
		c.Regs.SetBankedSP(mode, uint32(int64(base)+int64(delta)))
	}
	return nil
}

// execRFE restores PC and CPSR (and so the current mode) from the stack
// addressed by Rn, the banked SP of whatever mode was running when the
// matching SRS was executed.
func (c *Core) execRFE(word uint32) error {
	rn := bits(word, 19, 16)
	p, u, w := bit(word, 24), bit(word, 23), bit(word, 21)

	base := c.reg(rn)
	low, delta := srsRFEOffsets(p, u)
	addr := uint32(int64(base) + int64(low))

	newPC, err := c.Bus.Read(bus.Data, addr, 4)
	if err != nil {
		return err
	}
	newCPSR, err := c.Bus.Read(bus.Data, addr+4, 4)
	if err != nil {
		return err
	}
	if w {
		c.setReg(rn, uint32(int64(base)+int64(delta)))
	}

	restored := psr.Unpack(uint32(newCPSR))
	c.Regs.SwitchMode(restored.ModeBits)
	c.Regs.CPSR = restored
	c.Regs.R[15] = uint32(newPC)
	c.branched = true
	return nil
}

func (c *Core) execSWI(word uint32) error {
	return errors.Errorf(errors.SoftwareInt, fmt.Sprintf("swi comment=0x%06x", word&0xFFFFFF))
}

// execCoprocessor routes MCR/MRC to CP15 (coprocessor 15). Transfers to the
// VFP's coprocessors 10/11 are not routed to the VFP unit: like any other
// coprocessor number they read back zero and ignore writes.
func (c *Core) execCoprocessor(word uint32) error {
	cpNum := bits(word, 11, 8)
	if !bit(word, 4) {
		// coprocessor data operation; only meaningful for VFP, which this
		// simplified scalar unit does not route through CDP.
		return nil
	}

	opc1 := bits(word, 23, 21)
	crm := bits(word, 3, 0)
	opc2 := bits(word, 7, 5)
	load := bit(word, 20)
	rd := bits(word, 15, 12)

	if cpNum == 15 && c.CP15 != nil {
		op := cp15.Op(opc1<<8 | crm<<4 | opc2)
		if load {
			c.setReg(rd, c.CP15.MRC(op))
		} else {
			c.CP15.MCR(op, c.reg(rd))
			if c.CP15.Halted {
				// The CP15-encoded wait-for-interrupt (the only WFI form on
				// ARMv5, ARM9's only form) has no dedicated hint encoding of
				// its own; consume the latch into the field Run actually
				// polls, the same way rebuildARM9Tables consumes Invalidated
				// and TLBFlush.
				c.CP15.Halted = false
				c.Halted = true
			}
		}
		return nil
	}

	// VFP and any other coprocessor: not modelled beyond returning zero on
	// reads, consistent with "other coprocessors return zero".
	if load {
		c.setReg(rd, 0)
	}
	return nil
}
