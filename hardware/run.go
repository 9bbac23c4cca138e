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

package hardware

import (
	"github.com/horizon3ds/horizon/hardware/scheduler"
)

// maxStepPerRun bounds one scheduler step, per the atomic-step contract.
const maxStepPerRun = 256

// VBlankIRQ is the GSP line asserted at the start and end of every frame's
// display vertical blank, the only frame-boundary event this orchestration
// names explicitly (the GPU/display pipeline itself is a stubbed
// collaborator per the component list).
const VBlankIRQ = 0x2A

// wireScheduler registers every push-model CPU with the scheduler and
// primes the recurring VBlank-start/end events.
func (s *System) wireScheduler() {
	s.Scheduler.RegisterCPU(scheduler.ARM9, func(budget int) int {
		if s.lastErr != nil {
			return 0
		}
		s.rebuildARM9Tables()
		_, err := s.ARM9.Run(budget)
		if err != nil {
			s.lastErr = err
		}
		return budget
	}, nil)

	for i := range s.ARM11 {
		i := i
		core := s.ARM11[i]
		s.Scheduler.RegisterCPU(scheduler.ARM11, func(budget int) int {
			if s.lastErr != nil || core.Halted {
				return 0
			}
			s.rebuildARM11Tables(i)
			_, err := core.Run(budget)
			if err != nil {
				s.lastErr = err
			}
			return budget
		}, nil)
	}

	s.Scheduler.RegisterCPU(scheduler.DSP, func(budget int) int {
		if s.lastErr != nil {
			return 0
		}
		for n := 0; n < budget; n++ {
			if err := s.Teak.Step(); err != nil {
				s.lastErr = err
				return n
			}
		}
		return budget
	}, nil)

	s.scheduleVBlankStart()
}

func (s *System) scheduleVBlankStart() {
	s.Scheduler.AddEvent(func(int) {
		s.IRQ.Configure(VBlankIRQ, 0, 0xF)
		s.IRQ.AssertHW(VBlankIRQ)
		s.scheduleVBlankEnd()
	}, vblankStartCycles, scheduler.ARM11, 0)
}

func (s *System) scheduleVBlankEnd() {
	s.Scheduler.AddEvent(func(int) {
		s.IRQ.Configure(VBlankIRQ, 0, 0xF)
		s.IRQ.AssertHW(VBlankIRQ)
		s.frameEnded = true
	}, vblankEndCycles, scheduler.ARM11, 0)
}

// vblankStartCycles and vblankEndCycles approximate the real 3DS's ~60Hz
// frame period split into its active-display and vertical-blank phases, in
// ARM11 cycles; bit-identical frame timing is explicitly out of scope.
const (
	vblankStartCycles = 4_020_000
	vblankEndCycles   = 450_000
)

// RunFrame drives the machine through scheduler steps until the VBlank-end
// event's frame_ended flag is set: queue VBlank-start/end, run CPUs/DSP for
// as many cycles as the scheduler judges fit before the next event, process
// events, repeat until the frame boundary. It returns any fatal error raised
// by a core or device; a recoverable reboot signal is surfaced as
// PendingReboot (checked by the caller, who should call Reset again for a
// warm reset before the next RunFrame).
func (s *System) RunFrame() error {
	s.lastErr = nil
	s.frameEnded = false
	for !s.frameEnded {
		if err := s.Scheduler.RunFrame(maxStepPerRun); err != nil {
			return err
		}
		if s.lastErr != nil {
			return s.lastErr
		}
		if s.PendingReboot {
			return nil
		}
	}
	s.scheduleVBlankStart()
	return nil
}
