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

// Package config holds the small set of tunables passed by reference into
// the orchestrator and its cores: a plain struct read by value at the call
// sites that care, with no on-disk persistence format of its own (a
// front-end's job, out of scope here).
package config

// Variant distinguishes the two hardware revisions this emulator models.
type Variant int

const (
	Old3DS Variant = iota
	New3DS
)

// FCRAMSize returns the variant's total FCRAM size in bytes.
func (v Variant) FCRAMSize() uint32 {
	if v == New3DS {
		return 256 * 1024 * 1024
	}
	return 128 * 1024 * 1024
}

// ARM9RAMSize returns the variant's ARM9-private RAM size in bytes.
func (v Variant) ARM9RAMSize() uint32 {
	if v == New3DS {
		return (3 * 1024 * 1024) / 2
	}
	return 1024 * 1024
}

// QTMRAMSize returns the variant's extra New3DS-only RAM size in bytes (zero
// on Old3DS).
func (v Variant) QTMRAMSize() uint32 {
	if v == New3DS {
		return 4 * 1024 * 1024
	}
	return 0
}

// NumCores returns how many ARM11 application cores the variant exposes.
func (v Variant) NumCores() int {
	if v == New3DS {
		return 4
	}
	return 2
}

// Config is the set of tunables that shape a run: which hardware variant to
// model, whether to abort the run on a guest memory fault or let it raise
// the guest exception and continue, how verbose instruction tracing should
// be, and where each ARM11 core's boot-overlay entry point lives.
type Config struct {
	Variant Variant

	// AbortOnFault stops the run immediately on an unmapped or misaligned
	// memory access instead of raising the guest's data/prefetch abort
	// vector and continuing; useful for test harnesses that want a hard
	// failure rather than a silently-diverging guest trace.
	AbortOnFault bool

	// TraceLevel gates how much per-instruction detail the logger package
	// emits; 0 disables instruction-level tracing entirely.
	TraceLevel int

	// BootOverlayEntry gives the address each ARM11 core starts fetching
	// from once its boot-overlay release latch (CFG11) is written.
	BootOverlayEntry [4]uint32
}

// Default returns an Old3DS configuration with tracing disabled and
// faults raised as guest exceptions rather than aborting the run.
func Default() *Config {
	return &Config{Variant: Old3DS}
}
