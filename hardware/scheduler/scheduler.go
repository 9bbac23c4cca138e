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

// Package scheduler drives the whole machine's time base: three named clock
// domains plus a fixed-rate quantum domain, a pending-event queue keyed by
// absolute quantum-cycle deadline, and an optional push-model per-CPU
// registration.
//
// The queue itself is a sorted doubly-linked list storing each node's
// *delta* from the previous node rather than an absolute deadline, the same
// structure a mainframe channel scheduler's event queue uses: insertion
// walks the list subtracting as it goes, and advancing time is a single
// subtraction against the head. Callers think in absolute deadlines at the
// AddEvent boundary, so the absolute value is kept alongside the delta for
// NearestDeadline and external inspection, while list order and insertion
// cost stay delta-list shaped.
package scheduler

import "github.com/horizon3ds/horizon/errors"

// Domain names one of the machine's independently-clocked subsystems.
type Domain int

const (
	ARM11 Domain = iota
	ARM9
	DSP
	numDomains
)

// QuantumMultiplier is the number of quantum units per ARM11 cycle: the
// scheduler's internal deadlines run at three times the ARM11 clock, so that
// ARM11 cycles always convert to whole quantum units.
const QuantumMultiplier = 3

// DomainRate gives each domain's clock rate relative to the ARM11 rate
// (itself 3 quantum units per ARM11 cycle).
var domainRate = [numDomains]int64{
	ARM11: 3, // 1:1 with ARM11, expressed in quantum units
	ARM9:  3, // ARM9 and ARM11 run at the same nominal rate on 3DS hardware
	DSP:   1, // Teak DSP runs at roughly a third of the ARM11 rate
}

// Callback is invoked when an event's deadline arrives. It may itself call
// AddEvent to chain further events.
type Callback func(param int)

type event struct {
	delta    int64 // quantum cycles after the previous node in the list
	deadline int64 // absolute quantum-cycle deadline, kept for inspection
	cb       Callback
	param    int
	prev     *event
	next     *event
}

// cpuBinding is one push-model participant: a run callback invoked with a
// cycle budget, and a pointer the scheduler keeps updated with that CPU's
// current absolute quantum timestamp (so callers that want to read "how far
// has core N actually gotten" don't need their own bookkeeping).
type cpuBinding struct {
	domain Domain
	run    func(budget int) int // returns cycles actually consumed
	clock  *int64
}

// Scheduler is the machine-wide event queue and time base.
type Scheduler struct {
	now  int64 // absolute quantum cycles elapsed
	head *event
	tail *event

	// remainder carries the fractional quantum-to-domain conversion
	// remainder across calls, per domain, to avoid integer-division drift.
	remainder [numDomains]int64

	cpus []cpuBinding
}

// New returns an empty scheduler at time zero.
func New() *Scheduler {
	return &Scheduler{}
}

// Now returns the current absolute quantum-cycle timestamp.
func (s *Scheduler) Now() int64 { return s.now }

// RegisterCPU adds a push-model participant: run is called with a cycle
// budget in domain's native clock and must return how many cycles it
// actually consumed; clock, if non-nil, is kept updated with the CPU's
// absolute quantum timestamp after each run.
func (s *Scheduler) RegisterCPU(domain Domain, run func(budget int) int, clock *int64) {
	s.cpus = append(s.cpus, cpuBinding{domain: domain, run: run, clock: clock})
}

// AddEvent inserts a callback to fire after cycles ticks of domain's clock
// from now, converting to absolute quantum-cycle deadline via
// now + cycles*quantum/clock.
func (s *Scheduler) AddEvent(cb Callback, cycles int, domain Domain, param int) {
	quantumCycles := int64(cycles) * domainRate[domain]
	if quantumCycles <= 0 {
		cb(param)
		return
	}
	deadline := s.now + quantumCycles
	ev := &event{deadline: deadline, cb: cb, param: param}

	cur := s.head
	remaining := quantumCycles
	for cur != nil {
		if remaining <= cur.delta {
			ev.delta = remaining
			cur.delta -= remaining
			ev.prev = cur.prev
			ev.next = cur
			cur.prev = ev
			if ev.prev != nil {
				ev.prev.next = ev
			} else {
				s.head = ev
			}
			return
		}
		remaining -= cur.delta
		cur = cur.next
	}

	ev.delta = remaining
	ev.prev = s.tail
	if s.tail != nil {
		s.tail.next = ev
	} else {
		s.head = ev
	}
	s.tail = ev
}

// NearestDeadline returns the absolute quantum-cycle deadline of the
// soonest-pending event, or -1 if the queue is empty.
func (s *Scheduler) NearestDeadline() int64 {
	if s.head == nil {
		return -1
	}
	return s.head.deadline
}

// CalculateCyclesToRun chooses delta = min(closest_event - now, maxStep) in
// quantum cycles and converts it into each domain's native cycle count,
// carrying the conversion remainder so repeated calls don't lose fractional
// cycles. maxStep bounds one CPU-run atomic step (≤256).
func (s *Scheduler) CalculateCyclesToRun(maxStep int64) (quantumDelta int64, perDomain [numDomains]int64) {
	quantumDelta = maxStep
	if s.head != nil {
		toEvent := s.head.deadline - s.now
		if toEvent < quantumDelta {
			quantumDelta = toEvent
		}
	}
	if quantumDelta < 0 {
		quantumDelta = 0
	}

	for d := Domain(0); d < numDomains; d++ {
		total := quantumDelta + s.remainder[d]
		perDomain[d] = total / domainRate[d]
		s.remainder[d] = total % domainRate[d]
	}
	return quantumDelta, perDomain
}

// ProcessEvents advances time by delta quantum cycles and invokes every
// event whose deadline has now arrived, in deadline order; a callback may
// enqueue further events, which are inserted correctly relative to the
// (already advanced) current time.
func (s *Scheduler) ProcessEvents(delta int64) {
	s.now += delta
	if s.head == nil {
		return
	}
	s.head.delta -= delta
	for s.head != nil && s.head.delta <= 0 {
		ev := s.head
		s.head = ev.next
		if s.head != nil {
			s.head.prev = nil
		} else {
			s.tail = nil
		}
		ev.cb(ev.param)
	}
}

// RunFrame drives every registered push-model CPU for one computed step and
// then processes events; it is the pull-side counterpart callers use when
// they don't want to hand the scheduler direct control of the run loop.
func (s *Scheduler) RunFrame(maxStep int64) error {
	if len(s.cpus) == 0 {
		return errors.Errorf(errors.SchedulerError, "no cpus registered")
	}
	quantumDelta, perDomain := s.CalculateCyclesToRun(maxStep)
	for _, cpu := range s.cpus {
		budget := int(perDomain[cpu.domain])
		if budget <= 0 {
			continue
		}
		cpu.run(budget)
		if cpu.clock != nil {
			*cpu.clock = s.now + quantumDelta
		}
	}
	s.ProcessEvents(quantumDelta)
	return nil
}
