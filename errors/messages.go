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

package errors

// error messages, grouped by category:
// guest faults (transparent, dispatched to an exception vector and
// resumed), recoverable host signals (unwind to the orchestrator) and fatal
// emulator errors (terminate the run with a state dump).
const (
	// panics
	PanicError = "panic: %v: %v"

	// guest faults
	DataAbort      = "data abort: %v"
	PrefetchAbort  = "prefetch abort: %v"
	UndefinedInstr = "undefined instruction: %v"
	SoftwareInt    = "software interrupt: %v"

	// recoverable host signals
	Reboot      = "reboot requested: %v"
	FrameEnded  = "frame ended"
	PowerOff    = "emulated machine has been powered off: %v"

	// bus / fast map
	UnalignedAccess     = "unaligned access: %v"
	UnmappedMMIO        = "unmapped mmio access: %v"
	PageBoundaryCrossed = "access not contiguous within a page: %v"
	NoFastMapEntry      = "no fast map entry covers address: %v"

	// ARM interpreter
	UnknownInstruction     = "unknown instruction encoding: %v"
	VectorModeVFP          = "vector-mode vfp operation not supported: %v"
	CycleLimitExceeded     = "cpu error: cycle limit exceeded: %v"
	UnpredictableOperation = "unpredictable operation: %v"

	// MMU / PU
	ProtectionUnitConfig = "protection unit misconfiguration: %v"
	TranslationFault     = "translation fault: %v"

	// Teak DSP
	BitReversedAddress  = "bit-reversed dsp addressing not supported: %v"
	BlockRepeatOverflow = "block-repeat stack overflow: %v"
	DSPError            = "teak dsp error: %v"

	// IPC / I2C / interrupts
	MailboxFull      = "mailbox error: fifo full: %v"
	MailboxEmpty     = "mailbox error: fifo empty: %v"
	UnknownI2CDevice = "i2c error: unknown device: %v"
	UnknownIRQSource = "irq error: unrecognised interrupt id: %v"

	// scheduler
	SchedulerError = "scheduler error: %v"

	// MMIO device stubs
	DeviceWidthMismatch = "device access-width discipline violated: %v"

	// startup / collaborators
	MissingCollaborator = "missing required collaborator: %v"
	EssentialsNotFound  = "essentials partition not found in nand image: %v"
	BootROMInvalid      = "boot rom invalid: %v"

	// diagnostics
	DiagnosticsError = "diagnostics: %v"
)
