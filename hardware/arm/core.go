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

// Package arm is the ARM+Thumb decoder/interpreter shared by the ARM9 and
// ARM11 cores: a bounded per-step budget with a yield back to the caller on
// halt or fault, driven by the scheduler as a free-running core rather than
// stepped in lockstep with anything else.
package arm

import (
	"github.com/horizon3ds/horizon/errors"
	"github.com/horizon3ds/horizon/hardware/arm/cp15"
	"github.com/horizon3ds/horizon/hardware/arm/exclusive"
	"github.com/horizon3ds/horizon/hardware/arm/psr"
	"github.com/horizon3ds/horizon/hardware/arm/vfp"
	"github.com/horizon3ds/horizon/hardware/memory/bus"
	"github.com/horizon3ds/horizon/logger"
)

// Class distinguishes the two ARM implementations this package drives: the
// ARM9 security coprocessor (ARMv5, protection unit, no VFP) and the ARM11
// application cores (ARMv6K, MMU, VFP, exclusive monitor).
type Class int

const (
	ARM9Class Class = iota
	ARM11Class
)

// ResetVector is the reset PC for each class before any boot-overlay
// relocation is applied.
func (c Class) ResetVector() uint32 {
	if c == ARM9Class {
		return 0xFFFF0000
	}
	return 0x00000000
}

// Yield is the reason a Run call returned control to the caller: one of
// this core's documented suspension points.
type Yield int

const (
	YieldRunBudget Yield = iota
	YieldHalted
	YieldWFE
	YieldReboot
	YieldFrameEnded
)

// Core is one ARM9 or ARM11 execution unit.
type Core struct {
	ID    int
	Class Class

	Regs psr.Registers
	CP15 *cp15.CP15
	VFP  *vfp.VFP // nil for ARM9 cores

	Bus     *bus.Bus
	Monitor *exclusive.Monitor

	// Halted is set by WFI and cleared by AssertIRQ, whether or not IRQs are
	// masked.
	Halted bool
	// WaitingEvent is set by WFE and cleared by this core's SignalEvent (SEV)
	// or by AssertIRQ.
	WaitingEvent bool
	eventLatch   bool

	// IRQLine is polled at the end of every instruction; when true and
	// IRQs are unmasked, the core takes the IRQ exception.
	IRQLine func() bool

	// branched is set by jump() during execution of the current
	// instruction, telling Step that R15 already holds the raw address of
	// the next instruction to fetch rather than needing a plain +2/+4
	// advance.
	branched bool

	cyclesExecuted uint64
}

// New returns a core bound to the given bus, coprocessor state and
// exclusive monitor.
func New(id int, class Class, b *bus.Bus, c *cp15.CP15, monitor *exclusive.Monitor) *Core {
	core := &Core{ID: id, Class: class, Bus: b, CP15: c, Monitor: monitor}
	if class == ARM11Class {
		core.VFP = &vfp.VFP{}
	}
	return core
}

// Reset puts the core into supervisor mode with masked interrupts at its
// reset vector.
func (c *Core) Reset() {
	c.Regs.Reset(c.Class.ResetVector())
	c.Halted = c.Class == ARM11Class && c.ID != 0
	c.WaitingEvent = false
	if c.VFP != nil {
		c.VFP.Reset()
	}
}

func (c *Core) vectorBase() uint32 {
	if c.CP15 != nil && c.CP15.HighVectors {
		return 0xFFFF0000
	}
	return 0x00000000
}

// SignalEvent implements SEV for this core only: it sets the core's event
// latch and ends its WFE wait. Other cores are not signalled.
func (c *Core) SignalEvent() {
	c.eventLatch = true
	if c.WaitingEvent {
		c.WaitingEvent = false
	}
}

// AssertIRQ wakes a halted or WFE-waiting core; actual masking is checked at
// the next instruction boundary in Step.
func (c *Core) AssertIRQ() {
	c.Halted = false
	c.WaitingEvent = false
}

// Run executes instructions until budget cycles have been spent or the core
// suspends, returning the reason execution stopped.
func (c *Core) Run(budget int) (Yield, error) {
	for budget > 0 {
		if c.Halted {
			return YieldHalted, nil
		}
		if c.WaitingEvent {
			if c.eventLatch {
				c.eventLatch = false
				c.WaitingEvent = false
			} else {
				return YieldWFE, nil
			}
		}

		if err := c.Step(); err != nil {
			if errors.IsAny(err) {
				if !c.handleFault(err) {
					return YieldRunBudget, err
				}
			} else {
				return YieldRunBudget, err
			}
		}

		if c.IRQLine != nil && c.IRQLine() && !c.Regs.CPSR.IRQDisable {
			c.takeIRQ()
		}

		budget--
		c.cyclesExecuted++
	}
	return YieldRunBudget, nil
}

// Step executes exactly one instruction.
func (c *Core) Step() error {
	if c.Regs.CPSR.Thumb {
		return c.stepThumb()
	}
	return c.stepARM()
}

// storeData writes a data value to addr via the bus, first clearing every
// core's global exclusive reservation over the written range: the monitor's
// contract requires this on every ordinary store, not only SWP/STREX, so
// this is the one path all of execSingleTransfer/execHalfwordTransfer/
// execBlockTransfer/execSwap route their stores through.
func (c *Core) storeData(addr uint32, width int, value uint64) error {
	if c.Monitor != nil {
		c.Monitor.ClearGlobalExclusives(addr, uint32(width))
	}
	return c.Bus.Write(bus.Data, addr, width, value)
}

// jump relocates R15 to addr (optionally switching instruction set) and
// marks the current instruction as having branched, so Step knows not to
// apply the ordinary +2/+4 advance afterwards.
func (c *Core) jump(addr uint32, changeState bool) {
	c.Regs.Jump(addr, changeState)
	c.branched = true
}

// pcOperand returns R15 as an executing instruction would read it: the
// address of the next-but-one instruction (current fetch address plus the
// pipeline offset).
func (c *Core) pcOperand(current uint32) uint32 {
	if c.Regs.CPSR.Thumb {
		return current + 4
	}
	return current + 8
}

func (c *Core) stepARM() error {
	current := c.Regs.R[15]
	word, err := c.Bus.Read(bus.Instruction, current, 4)
	if err != nil {
		return err
	}

	c.Regs.R[15] = c.pcOperand(current)
	c.branched = false

	if err := c.executeARM(uint32(word)); err != nil {
		return err
	}

	if !c.branched {
		c.Regs.R[15] = current + 4
	}
	return nil
}

func (c *Core) stepThumb() error {
	current := c.Regs.R[15]
	half, err := c.Bus.Read(bus.Instruction, current, 2)
	if err != nil {
		return err
	}

	c.Regs.R[15] = c.pcOperand(current)
	c.branched = false

	if err := c.executeThumb(uint16(half), current); err != nil {
		return err
	}

	if !c.branched {
		c.Regs.R[15] = current + 2
	}
	return nil
}

// handleFault dispatches a guest fault (data/prefetch abort, undefined
// instruction, software interrupt) to its exception vector and reports
// whether it was a guest fault the core loop should swallow (true) or a
// fatal error that must propagate (false).
func (c *Core) handleFault(err error) bool {
	switch {
	case errors.Is(err, errors.DataAbort):
		c.enter(psr.EntryData, 0x10)
	case errors.Is(err, errors.PrefetchAbort):
		c.enter(psr.EntryPrefetch, 0x0C)
	case errors.Is(err, errors.UndefinedInstr):
		c.enter(psr.EntryUndef, 0x04)
	case errors.Is(err, errors.SoftwareInt):
		c.enter(psr.EntrySWI, 0x08)
	default:
		return false
	}
	return true
}

func (c *Core) enter(mask psr.EntryMask, offset uint32) {
	logger.Logf("ARM", "core %d exception entry mode=%s vector_offset=0x%02x", c.ID, mask.Mode, offset)
	c.Regs.Enter(mask, c.vectorBase()+offset)
}

func (c *Core) takeIRQ() {
	c.enter(psr.EntryIRQ, 0x18)
}
