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

package scheduler

import "testing"

// Driving two registered CPUs across many RunFrame steps must keep each
// domain's absolute clock non-decreasing, and the ratio of cumulative native
// cycles consumed must track domainRate's declared ratio (within the
// rounding slack a single quantum step can introduce, which the remainder
// carry in CalculateCyclesToRun bounds to at most one native cycle).
func TestRunFrameClocksAreMonotonicAndTrackDomainRate(t *testing.T) {
	s := New()

	var arm11Clock, dspClock int64
	var arm11Cycles, dspCycles int64

	s.RegisterCPU(ARM11, func(budget int) int {
		arm11Cycles += int64(budget)
		return budget
	}, &arm11Clock)
	s.RegisterCPU(DSP, func(budget int) int {
		dspCycles += int64(budget)
		return budget
	}, &dspClock)

	var prevARM11, prevDSP int64
	const steps = 50
	for i := 0; i < steps; i++ {
		if err := s.RunFrame(30); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if arm11Clock < prevARM11 {
			t.Fatalf("step %d: arm11 clock went backwards: %d -> %d", i, prevARM11, arm11Clock)
		}
		if dspClock < prevDSP {
			t.Fatalf("step %d: dsp clock went backwards: %d -> %d", i, prevDSP, dspClock)
		}
		prevARM11, prevDSP = arm11Clock, dspClock
	}

	if arm11Clock != s.Now() || dspClock != s.Now() {
		t.Fatalf("per-cpu clocks did not converge on scheduler time: arm11=%d dsp=%d now=%d", arm11Clock, dspClock, s.Now())
	}

	// Both domains were driven from the same quantum span, so
	// cycles*rate must agree across domains (cycles_d = quantum/rate_d,
	// cross-multiplied to stay in integers).
	lhs := dspCycles * domainRate[DSP]
	rhs := arm11Cycles * domainRate[ARM11]
	if lhs != rhs {
		t.Fatalf("cycle ratio drifted from domainRate: dsp=%d arm11=%d (want %d*%d == %d*%d)",
			dspCycles, arm11Cycles, dspCycles, domainRate[DSP], arm11Cycles, domainRate[ARM11])
	}
}
