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
	"github.com/horizon3ds/horizon/hardware/arm/psr"
	"github.com/horizon3ds/horizon/hardware/memory/bus"
)

// executeThumb decodes and executes one 16-bit Thumb instruction. The format
// dispatch walks all nineteen formats, working backwards from the widest
// fixed prefix to the narrowest, executing directly rather than building a
// cached decode closure.
func (c *Core) executeThumb(op uint16, current uint32) error {
	switch {
	case op&0xf000 == 0xf000:
		return c.thumbLongBranchLink(op, current)
	case op&0xf000 == 0xe000:
		return c.thumbUncondBranch(op)
	case op&0xff00 == 0xdf00:
		return c.thumbSWI(op)
	case op&0xf000 == 0xd000:
		return c.thumbCondBranch(op)
	case op&0xf000 == 0xc000:
		return c.thumbMultipleLoadStore(op)
	case op&0xffe8 == 0xb660:
		return c.thumbCPS(op)
	case op&0xf600 == 0xb400:
		return c.thumbPushPop(op)
	case op&0xff00 == 0xb000:
		return c.thumbAddOffsetSP(op)
	case op&0xf000 == 0xa000:
		return c.thumbLoadAddress(op)
	case op&0xf000 == 0x9000:
		return c.thumbSPRelative(op)
	case op&0xf000 == 0x8000:
		return c.thumbLoadStoreHalfword(op)
	case op&0xe000 == 0x6000:
		return c.thumbLoadStoreImmOffset(op)
	case op&0xf200 == 0x5200:
		return c.thumbLoadStoreSignExtended(op)
	case op&0xf200 == 0x5000:
		return c.thumbLoadStoreRegOffset(op)
	case op&0xf800 == 0x4800:
		return c.thumbPCRelativeLoad(op)
	case op&0xfc00 == 0x4400:
		return c.thumbHiRegisterOps(op)
	case op&0xfc00 == 0x4000:
		return c.thumbALU(op)
	case op&0xe000 == 0x2000:
		return c.thumbMovCmpAddSubImm(op)
	case op&0xf800 == 0x1800:
		return c.thumbAddSubtract(op)
	case op&0xe000 == 0x0000:
		return c.thumbMoveShiftedRegister(op)
	}
	return errors.Errorf(errors.UnknownInstruction, fmt.Sprintf("thumb op=0x%04x", op))
}

func (c *Core) thumbMoveShiftedRegister(op uint16) error {
	kindBits := (op & 0x1800) >> 11
	amount := uint32((op & 0x07c0) >> 6)
	rs := uint32((op & 0x0038) >> 3)
	rd := uint32(op & 0x0007)

	var kind shiftType
	switch kindBits {
	case 0b00:
		kind = shiftLSL
	case 0b01:
		kind = shiftLSR
	case 0b10:
		kind = shiftASR
	default:
		return errors.Errorf(errors.UndefinedInstr, fmt.Sprintf("thumb format1 reserved op=0x%04x", op))
	}

	result, carry := shift(kind, c.reg(rs), amount, c.Regs.CPSR.C)
	c.setReg(rd, result)
	c.Regs.CPSR.N = result&0x80000000 != 0
	c.Regs.CPSR.Z = result == 0
	c.Regs.CPSR.C = carry
	return nil
}

func (c *Core) thumbAddSubtract(op uint16) error {
	immediate := op&0x0400 != 0
	subtract := op&0x0200 != 0
	rnOrImm := uint32((op & 0x01c0) >> 6)
	rs := uint32((op & 0x0038) >> 3)
	rd := uint32(op & 0x0007)

	var operand uint32
	if immediate {
		operand = rnOrImm
	} else {
		operand = c.reg(rnOrImm)
	}

	var result uint32
	var carry, overflow bool
	if subtract {
		result, carry, overflow = addWithCarry(c.reg(rs), ^operand, 1)
	} else {
		result, carry, overflow = addWithCarry(c.reg(rs), operand, 0)
	}
	c.setReg(rd, result)
	c.Regs.CPSR.N = result&0x80000000 != 0
	c.Regs.CPSR.Z = result == 0
	c.Regs.CPSR.C = carry
	c.Regs.CPSR.V = overflow
	return nil
}

func (c *Core) thumbMovCmpAddSubImm(op uint16) error {
	kind := (op & 0x1800) >> 11
	rd := uint32((op & 0x0700) >> 8)
	imm := uint32(op & 0x00ff)

	switch kind {
	case 0b00: // MOV
		c.setReg(rd, imm)
		c.Regs.CPSR.N = false
		c.Regs.CPSR.Z = imm == 0
	case 0b01: // CMP
		result, carry, overflow := addWithCarry(c.reg(rd), ^imm, 1)
		c.Regs.CPSR.N = result&0x80000000 != 0
		c.Regs.CPSR.Z = result == 0
		c.Regs.CPSR.C = carry
		c.Regs.CPSR.V = overflow
	case 0b10: // ADD
		result, carry, overflow := addWithCarry(c.reg(rd), imm, 0)
		c.setReg(rd, result)
		c.Regs.CPSR.N = result&0x80000000 != 0
		c.Regs.CPSR.Z = result == 0
		c.Regs.CPSR.C = carry
		c.Regs.CPSR.V = overflow
	case 0b11: // SUB
		result, carry, overflow := addWithCarry(c.reg(rd), ^imm, 1)
		c.setReg(rd, result)
		c.Regs.CPSR.N = result&0x80000000 != 0
		c.Regs.CPSR.Z = result == 0
		c.Regs.CPSR.C = carry
		c.Regs.CPSR.V = overflow
	}
	return nil
}

func (c *Core) thumbALU(op uint16) error {
	kind := (op & 0x03c0) >> 6
	rs := uint32((op & 0x0038) >> 3)
	rd := uint32(op & 0x0007)

	dst := c.reg(rd)
	src := c.reg(rs)

	setNZ := func(v uint32) {
		c.Regs.CPSR.N = v&0x80000000 != 0
		c.Regs.CPSR.Z = v == 0
	}

	switch kind {
	case 0x0: // AND
		r := dst & src
		c.setReg(rd, r)
		setNZ(r)
	case 0x1: // EOR
		r := dst ^ src
		c.setReg(rd, r)
		setNZ(r)
	case 0x2: // LSL
		r, carry := shift(shiftLSL, dst, src&0xff, c.Regs.CPSR.C)
		c.setReg(rd, r)
		setNZ(r)
		c.Regs.CPSR.C = carry
	case 0x3: // LSR
		r, carry := shift(shiftLSR, dst, src&0xff, c.Regs.CPSR.C)
		c.setReg(rd, r)
		setNZ(r)
		c.Regs.CPSR.C = carry
	case 0x4: // ASR
		r, carry := shift(shiftASR, dst, src&0xff, c.Regs.CPSR.C)
		c.setReg(rd, r)
		setNZ(r)
		c.Regs.CPSR.C = carry
	case 0x5: // ADC
		cIn := uint32(0)
		if c.Regs.CPSR.C {
			cIn = 1
		}
		r, carry, overflow := addWithCarry(dst, src, cIn)
		c.setReg(rd, r)
		setNZ(r)
		c.Regs.CPSR.C = carry
		c.Regs.CPSR.V = overflow
	case 0x6: // SBC
		cIn := uint32(0)
		if c.Regs.CPSR.C {
			cIn = 1
		}
		r, carry, overflow := addWithCarry(dst, ^src, cIn)
		c.setReg(rd, r)
		setNZ(r)
		c.Regs.CPSR.C = carry
		c.Regs.CPSR.V = overflow
	case 0x7: // ROR
		r, carry := shift(shiftROR, dst, src&0xff, c.Regs.CPSR.C)
		c.setReg(rd, r)
		setNZ(r)
		c.Regs.CPSR.C = carry
	case 0x8: // TST
		setNZ(dst & src)
	case 0x9: // NEG
		r, carry, overflow := addWithCarry(0, ^src, 1)
		c.setReg(rd, r)
		setNZ(r)
		c.Regs.CPSR.C = carry
		c.Regs.CPSR.V = overflow
	case 0xa: // CMP
		r, carry, overflow := addWithCarry(dst, ^src, 1)
		setNZ(r)
		c.Regs.CPSR.C = carry
		c.Regs.CPSR.V = overflow
	case 0xb: // CMN
		r, carry, overflow := addWithCarry(dst, src, 0)
		setNZ(r)
		c.Regs.CPSR.C = carry
		c.Regs.CPSR.V = overflow
	case 0xc: // ORR
		r := dst | src
		c.setReg(rd, r)
		setNZ(r)
	case 0xd: // MUL
		r := dst * src
		c.setReg(rd, r)
		setNZ(r)
	case 0xe: // BIC
		r := dst &^ src
		c.setReg(rd, r)
		setNZ(r)
	case 0xf: // MVN
		r := ^src
		c.setReg(rd, r)
		setNZ(r)
	}
	return nil
}

func (c *Core) thumbHiRegisterOps(op uint16) error {
	kind := (op & 0x0300) >> 8
	h1 := op&0x0080 != 0
	h2 := op&0x0040 != 0
	rs := uint32((op&0x0038)>>3) + boolReg(h2)
	rd := uint32(op&0x0007) + boolReg(h1)

	switch kind {
	case 0b00: // ADD
		c.setReg(rd, c.reg(rd)+c.reg(rs))
	case 0b01: // CMP
		result, carry, overflow := addWithCarry(c.reg(rd), ^c.reg(rs), 1)
		c.Regs.CPSR.N = result&0x80000000 != 0
		c.Regs.CPSR.Z = result == 0
		c.Regs.CPSR.C = carry
		c.Regs.CPSR.V = overflow
	case 0b10: // MOV
		c.setReg(rd, c.reg(rs))
	case 0b11: // BX/BLX
		target := c.reg(rs)
		if h1 {
			c.setReg(14, c.Regs.R[15]&^1|1)
		}
		c.jump(target, true)
	}
	return nil
}

func boolReg(b bool) uint32 {
	if b {
		return 8
	}
	return 0
}

func (c *Core) thumbPCRelativeLoad(op uint16) error {
	rd := uint32((op & 0x0700) >> 8)
	imm := uint32(op&0x00ff) << 2
	base := (c.Regs.R[15] &^ 3) + imm
	v, err := c.Bus.Read(bus.Data, base, 4)
	if err != nil {
		return err
	}
	c.setReg(rd, uint32(v))
	return nil
}

func (c *Core) thumbLoadStoreRegOffset(op uint16) error {
	l := op&0x0800 != 0
	b := op&0x0400 != 0
	ro := uint32((op & 0x01c0) >> 6)
	rb := uint32((op & 0x0038) >> 3)
	rd := uint32(op & 0x0007)

	addr := c.reg(rb) + c.reg(ro)
	width := 4
	if b {
		width = 1
	}
	if l {
		v, err := c.Bus.Read(bus.Data, addr, width)
		if err != nil {
			return err
		}
		c.setReg(rd, uint32(v))
	} else {
		var v uint64
		if b {
			v = uint64(uint8(c.reg(rd)))
		} else {
			v = uint64(c.reg(rd))
		}
		if err := c.storeData(addr, width, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *Core) thumbLoadStoreSignExtended(op uint16) error {
	hFlag := op&0x0800 != 0
	signExtend := op&0x0400 != 0
	ro := uint32((op & 0x01c0) >> 6)
	rb := uint32((op & 0x0038) >> 3)
	rd := uint32(op & 0x0007)

	addr := c.reg(rb) + c.reg(ro)

	if !signExtend {
		if hFlag {
			// LDRH
			v, err := c.Bus.Read(bus.Data, addr, 2)
			if err != nil {
				return err
			}
			c.setReg(rd, uint32(v))
		} else {
			// STRH
			if err := c.storeData(addr, 2, uint64(uint16(c.reg(rd)))); err != nil {
				return err
			}
		}
		return nil
	}

	if hFlag {
		// LDRSH
		v, err := c.Bus.Read(bus.Data, addr, 2)
		if err != nil {
			return err
		}
		c.setReg(rd, uint32(int32(int16(v))))
	} else {
		// LDRSB
		v, err := c.Bus.Read(bus.Data, addr, 1)
		if err != nil {
			return err
		}
		c.setReg(rd, uint32(int32(int8(v))))
	}
	return nil
}

func (c *Core) thumbLoadStoreImmOffset(op uint16) error {
	b := op&0x1000 != 0
	l := op&0x0800 != 0
	imm := uint32((op & 0x07c0) >> 6)
	rb := uint32((op & 0x0038) >> 3)
	rd := uint32(op & 0x0007)

	width := 4
	if b {
		width = 1
	} else {
		imm <<= 2
	}

	addr := c.reg(rb) + imm
	if l {
		v, err := c.Bus.Read(bus.Data, addr, width)
		if err != nil {
			return err
		}
		c.setReg(rd, uint32(v))
	} else {
		var v uint64
		if b {
			v = uint64(uint8(c.reg(rd)))
		} else {
			v = uint64(c.reg(rd))
		}
		if err := c.storeData(addr, width, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *Core) thumbLoadStoreHalfword(op uint16) error {
	l := op&0x0800 != 0
	imm := uint32((op&0x07c0)>>6) << 1
	rb := uint32((op & 0x0038) >> 3)
	rd := uint32(op & 0x0007)

	addr := c.reg(rb) + imm
	if l {
		v, err := c.Bus.Read(bus.Data, addr, 2)
		if err != nil {
			return err
		}
		c.setReg(rd, uint32(v))
	} else {
		if err := c.storeData(addr, 2, uint64(uint16(c.reg(rd)))); err != nil {
			return err
		}
	}
	return nil
}

func (c *Core) thumbSPRelative(op uint16) error {
	l := op&0x0800 != 0
	rd := uint32((op & 0x0700) >> 8)
	imm := uint32(op&0x00ff) << 2

	addr := c.reg(13) + imm
	if l {
		v, err := c.Bus.Read(bus.Data, addr, 4)
		if err != nil {
			return err
		}
		c.setReg(rd, uint32(v))
	} else {
		if err := c.storeData(addr, 4, uint64(c.reg(rd))); err != nil {
			return err
		}
	}
	return nil
}

func (c *Core) thumbLoadAddress(op uint16) error {
	sp := op&0x0800 != 0
	rd := uint32((op & 0x0700) >> 8)
	imm := uint32(op&0x00ff) << 2

	var base uint32
	if sp {
		base = c.reg(13)
	} else {
		base = c.Regs.R[15] &^ 3
	}
	c.setReg(rd, base+imm)
	return nil
}

func (c *Core) thumbAddOffsetSP(op uint16) error {
	negative := op&0x0080 != 0
	imm := uint32(op&0x007f) << 2
	if negative {
		c.setReg(13, c.reg(13)-imm)
	} else {
		c.setReg(13, c.reg(13)+imm)
	}
	return nil
}

// thumbCPS is the 16-bit Thumb encoding of CPS: it only ever changes the
// interrupt masks, never the mode, since this core generation's Thumb state
// has no mode-change or SRS/RFE encodings (those are Thumb-2 widenings this
// ISA predates; SRS/RFE stay ARM-mode-only here).
func (c *Core) thumbCPS(op uint16) error {
	if c.Regs.CurrentMode() == psr.USR {
		return nil
	}
	disable := op&0x0010 != 0
	affectsA := op&0x0004 != 0
	affectsI := op&0x0002 != 0
	affectsF := op&0x0001 != 0

	if affectsI {
		c.Regs.CPSR.IRQDisable = disable
	}
	if affectsF {
		c.Regs.CPSR.FIQDisable = disable
	}
	_ = affectsA
	return nil
}

func (c *Core) thumbPushPop(op uint16) error {
	l := op&0x0800 != 0
	includeExtra := op&0x0100 != 0
	list := uint16(op & 0x00ff)

	if l {
		addr := c.reg(13)
		for i := 0; i < 8; i++ {
			if list&(1<<uint(i)) == 0 {
				continue
			}
			v, err := c.Bus.Read(bus.Data, addr, 4)
			if err != nil {
				return err
			}
			c.setReg(uint32(i), uint32(v))
			addr += 4
		}
		if includeExtra {
			v, err := c.Bus.Read(bus.Data, addr, 4)
			if err != nil {
				return err
			}
			c.jump(uint32(v), true)
			addr += 4
		}
		c.setReg(13, addr)
		return nil
	}

	count := 0
	for i := 0; i < 8; i++ {
		if list&(1<<uint(i)) != 0 {
			count++
		}
	}
	if includeExtra {
		count++
	}
	addr := c.reg(13) - uint32(count)*4
	c.setReg(13, addr)

	for i := 0; i < 8; i++ {
		if list&(1<<uint(i)) == 0 {
			continue
		}
		if err := c.storeData(addr, 4, uint64(c.reg(uint32(i)))); err != nil {
			return err
		}
		addr += 4
	}
	if includeExtra {
		if err := c.storeData(addr, 4, uint64(c.reg(14))); err != nil {
			return err
		}
	}
	return nil
}

func (c *Core) thumbMultipleLoadStore(op uint16) error {
	l := op&0x0800 != 0
	rb := uint32((op & 0x0700) >> 8)
	list := uint16(op & 0x00ff)

	addr := c.reg(rb)
	for i := 0; i < 8; i++ {
		if list&(1<<uint(i)) == 0 {
			continue
		}
		if l {
			v, err := c.Bus.Read(bus.Data, addr, 4)
			if err != nil {
				return err
			}
			c.setReg(uint32(i), uint32(v))
		} else {
			if err := c.storeData(addr, 4, uint64(c.reg(uint32(i)))); err != nil {
				return err
			}
		}
		addr += 4
	}
	c.setReg(rb, addr)
	return nil
}

func (c *Core) thumbCondBranch(op uint16) error {
	cond := uint8((op & 0x0f00) >> 8)
	if !c.Regs.CPSR.Condition(cond) {
		return nil
	}
	offset := int32(int8(op & 0x00ff))
	target := uint32(int32(c.Regs.R[15]) + offset*2)
	c.jump(target, false)
	return nil
}

func (c *Core) thumbSWI(op uint16) error {
	return errors.Errorf(errors.SoftwareInt, fmt.Sprintf("thumb swi comment=0x%02x", op&0x00ff))
}

func (c *Core) thumbUncondBranch(op uint16) error {
	offset := op & 0x07ff
	signExtended := int32(int16(offset<<5)) >> 5
	target := uint32(int32(c.Regs.R[15]) + signExtended*2)
	c.jump(target, false)
	return nil
}

// thumbLongBranchLink implements the BL prefix/suffix pair (format 19). Each
// half is a plain Step: the prefix computes a provisional target into LR
// without branching, and the suffix resolves it relative to LR, banks the
// return address with the Thumb bit set, and branches. This mirrors how the
// real core uses LR as scratch storage across the two halves rather than
// needing any decoder-side state.
func (c *Core) thumbLongBranchLink(op uint16, current uint32) error {
	offset := uint32(op & 0x07ff)
	low := op&0x0800 != 0

	if !low {
		signExtended := int32(offset<<21) >> 9 // sign-extend 11 bits then shift left 12
		c.setReg(14, uint32(int32(c.Regs.R[15])+signExtended))
		return nil
	}

	target := c.reg(14) + offset<<1
	retAddr := (current + 2) | 1
	c.setReg(14, retAddr)
	c.jump(target, false)
	return nil
}
