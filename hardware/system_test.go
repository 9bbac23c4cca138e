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
	"encoding/binary"
	"testing"

	"github.com/horizon3ds/horizon/hardware/config"
	"github.com/horizon3ds/horizon/hardware/memory/fastmap"
)

// RunFrame must loop internally until the VBlank-end event fires rather than
// returning after a single scheduler step. It must also keep making progress
// across repeated calls (the next frame's VBlank-start gets rescheduled once
// the current one ends).
func TestRunFrameAdvancesAFullFrame(t *testing.T) {
	s := New(config.Default())
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	before := s.Scheduler.Now()
	if err := s.RunFrame(); err != nil {
		t.Fatalf("RunFrame: %v", err)
	}
	after := s.Scheduler.Now()

	wantAtLeast := int64(vblankStartCycles+vblankEndCycles) * 3 // ARM11 quantum ratio
	if after-before < wantAtLeast {
		t.Fatalf("RunFrame only advanced %d quantum cycles, want at least %d (one full VBlank period)", after-before, wantAtLeast)
	}

	// A second frame must also complete and continue advancing time; this
	// exercises scheduleVBlankStart being re-armed after frameEnded.
	if err := s.RunFrame(); err != nil {
		t.Fatalf("second RunFrame: %v", err)
	}
	if s.Scheduler.Now() <= after {
		t.Fatalf("second RunFrame did not advance time (now=%d, after first frame=%d)", s.Scheduler.Now(), after)
	}
}

// A write to I2C bus 1, device 0x4A (MCU), register 0x20 (control), value
// 0x04 (reboot bit) must surface as PendingReboot before the next scheduler
// tick completes.
func TestMCURebootObservedByOrchestrator(t *testing.T) {
	s := New(config.Default())
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	bus1 := s.I2C[1]
	const mcuAddr = 0x4A
	const mcuRegControl = 0x20

	if err := bus1.WriteData(mcuAddr<<1, true, false, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := bus1.WriteData(mcuRegControl, false, false, false); err != nil {
		t.Fatalf("register select: %v", err)
	}
	if err := bus1.WriteDataByte(0x04); err != nil {
		t.Fatalf("data write: %v", err)
	}

	if !s.PendingReboot {
		t.Fatal("PendingReboot was not set after the MCU reboot-bit write")
	}
}

// The ARM11 MMU walk is rooted at TTBR1, not TTBR0 (spec §4.3: "index-0 is
// ignored in favour of the unified table"). This plants a valid L1 section
// table reachable only from TTBR1, points TTBR0 at garbage, and checks the
// rebuilt fast map reflects the TTBR1 table.
func TestARM11MMUWalksTTBR1NotTTBR0(t *testing.T) {
	s := New(config.Default())
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	const (
		tableBase = fcramBase
		vaddr     = uint32(0x00100000)
		paddr     = fcramBase + 0x00300000
	)

	l1Index := vaddr >> 20
	const apxPrivRWX = 0x1
	entry := uint32((paddr & 0xFFF00000) | (apxPrivRWX << 10) | 0x2) // section, type=2
	binary.LittleEndian.PutUint32(s.FCRAM[l1Index*4:], entry)

	core := s.ARM11[0]
	core.CP15.TTBR0 = 0xDEADB000 // unbacked: a real walk from here finds nothing
	core.CP15.TTBR1 = tableBase
	core.CP15.MMUEnable = true
	core.CP15.Invalidated = true

	s.rebuildARM11Tables(0)

	got := s.arm11Fast[0].Lookup(vaddr)
	if got.Perm&fastmap.Present == 0 {
		t.Fatalf("vaddr 0x%08x not present after MMU rebuild; walker used TTBR0 instead of TTBR1", vaddr)
	}
	if !got.Perm.Allows(fastmap.Read | fastmap.Write | fastmap.Execute) {
		t.Fatalf("vaddr 0x%08x perm = %v, want RWX", vaddr, got.Perm)
	}
	if got.HostBase != fcramBase || len(got.Host) == 0 {
		t.Fatalf("vaddr 0x%08x not backed by FCRAM as expected (HostBase=0x%08x)", vaddr, got.HostBase)
	}
}
