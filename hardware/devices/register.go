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

// Package devices implements the MMIO peripheral stubs named here: crypto
// engines, PRNG, OTP, the system-config/CFG11 range (including the boot
// overlay release latch), HID, and the block-transfer/storage/radio
// collaborators, each behind the bus package's Device interface.
package devices

import "encoding/binary"

// RegisterFile is a small byte-addressable backing store shared by the
// simpler stub devices: reads/writes of width 1/2/4 decode to a
// little-endian slice access, exactly mirroring how the bus itself treats
// backed RAM.
type RegisterFile struct {
	Base uint32
	Data []byte
}

// NewRegisterFile allocates a zeroed register file of size bytes, owning the
// address range [base, base+size).
func NewRegisterFile(base uint32, size int) *RegisterFile {
	return &RegisterFile{Base: base, Data: make([]byte, size)}
}

func (r *RegisterFile) offset(addr uint32) int { return int(addr - r.Base) }

// Read returns the width-byte little-endian value at addr, or 0 if addr
// falls outside the backing store (callers are expected to have already
// range-checked against the dispatcher).
func (r *RegisterFile) Read(width int, addr uint32) uint64 {
	off := r.offset(addr)
	if off < 0 || off+width > len(r.Data) {
		return 0
	}
	switch width {
	case 1:
		return uint64(r.Data[off])
	case 2:
		return uint64(binary.LittleEndian.Uint16(r.Data[off:]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(r.Data[off:]))
	case 8:
		return binary.LittleEndian.Uint64(r.Data[off:])
	}
	return 0
}

// Write stores value as width little-endian bytes at addr.
func (r *RegisterFile) Write(width int, addr uint32, value uint64) {
	off := r.offset(addr)
	if off < 0 || off+width > len(r.Data) {
		return
	}
	switch width {
	case 1:
		r.Data[off] = byte(value)
	case 2:
		binary.LittleEndian.PutUint16(r.Data[off:], uint16(value))
	case 4:
		binary.LittleEndian.PutUint32(r.Data[off:], uint32(value))
	case 8:
		binary.LittleEndian.PutUint64(r.Data[off:], value)
	}
}
